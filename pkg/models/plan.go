package models

import "time"

// AnalyzeMode selects how a plan is obtained from the engine.
type AnalyzeMode int

const (
	// ModeExplain retrieves a plan estimate without executing the query.
	ModeExplain AnalyzeMode = iota
	// ModeProfile executes the query and gathers runtime statistics.
	ModeProfile
)

// String returns the engine keyword for the mode.
func (m AnalyzeMode) String() string {
	if m == ModeProfile {
		return "PROFILE"
	}
	return "EXPLAIN"
}

// PlanOperator is one node of the engine's native plan tree.
type PlanOperator struct {
	Name          string                 `json:"name"`
	Children      []PlanOperator         `json:"children,omitempty"`
	DBHits        int64                  `json:"db_hits"`
	Rows          int64                  `json:"rows"`
	EstimatedRows int64                  `json:"estimated_rows"`
	Arguments     map[string]interface{} `json:"arguments,omitempty"`
	// Runtime statistics, present only in profile mode.
	TimeMillis  float64 `json:"time_ms,omitempty"`
	MemoryBytes int64   `json:"memory_bytes,omitempty"`
}

// PlanSummary is what the driver returns from Consume: the plan tree plus
// whole-call statistics, with all unfetched rows discarded.
type PlanSummary struct {
	Root          *PlanOperator `json:"root,omitempty"`
	ResultRows    int64         `json:"result_rows"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// PlanStep is one record of the flattened plan: the operator with its depth in
// the tree and aggregated work figures.
type PlanStep struct {
	Operator      string  `json:"operator"`
	Depth         int     `json:"depth"`
	DBHits        int64   `json:"db_hits"`
	Rows          int64   `json:"rows"`
	EstimatedRows int64   `json:"estimated_rows"`
	TimeMillis    float64 `json:"time_ms,omitempty"`
	MemoryBytes   int64   `json:"memory_bytes,omitempty"`
}

// BottleneckSeverity grades a detected plan bottleneck.
type BottleneckSeverity string

const (
	BottleneckMedium   BottleneckSeverity = "medium"
	BottleneckHigh     BottleneckSeverity = "high"
	BottleneckCritical BottleneckSeverity = "critical"
)

// Bottleneck is one performance hazard detected in a plan.
type Bottleneck struct {
	Operator    string             `json:"operator"`
	Description string             `json:"description"`
	Severity    BottleneckSeverity `json:"severity"`
}

// Recommendation is an actionable remediation produced by a plan-analysis rule.
type Recommendation struct {
	Title          string             `json:"title"`
	Category       string             `json:"category"`
	Severity       BottleneckSeverity `json:"severity"`
	Example        string             `json:"example"`
	ExpectedImpact string             `json:"expected_impact"`
}

// PlanAnalysis is the full result of one analyze call.
type PlanAnalysis struct {
	Mode            string           `json:"mode"`
	Steps           []PlanStep       `json:"steps"`
	TotalDBHits     int64            `json:"total_db_hits"`
	TotalRows       int64            `json:"total_rows"`
	Bottlenecks     []Bottleneck     `json:"bottlenecks,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	CostScore       int              `json:"cost_score"`
	RiskLevel       RiskLevel        `json:"risk_level"`
}
