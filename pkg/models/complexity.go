package models

// RiskLevel classifies a complexity score into an actionable band.
type RiskLevel int

const (
	RiskSafe RiskLevel = iota
	RiskModerate
	RiskHigh
	RiskCritical
)

// String returns the string representation of the risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskSafe:
		return "SAFE"
	case RiskModerate:
		return "MODERATE"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MaxComplexityScore bounds the total complexity score.
const MaxComplexityScore = 1000

// ComplexityScore is the structural risk assessment of one query.
// Invariant: the breakdown values sum to Total, and Total is in [0,1000].
type ComplexityScore struct {
	Total       int            `json:"total"`
	RiskLevel   RiskLevel      `json:"risk_level"`
	Breakdown   map[string]int `json:"breakdown"`
	Bottlenecks []string       `json:"bottlenecks,omitempty"`
}
