// Package complexity scores the structural risk of a query and bounds its
// result size. Scoring is heuristic: the point values are configuration
// defaults, not a calibrated cost model.
package complexity

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cyphergate/cyphergate/pkg/models"
	"github.com/cyphergate/cyphergate/pkg/textshield"
)

// Factor names used in the score breakdown.
const (
	FactorVarLength   = "variable_length_patterns"
	FactorCartesian   = "cartesian_product"
	FactorAggregation = "aggregation_functions"
	FactorSubqueries  = "subqueries"
	FactorUnions      = "unions"
	FactorOptional    = "optional_patterns"
	FactorProjections = "intermediate_projections"
	FactorFullScan    = "missing_index"
)

// Per-factor caps. Each factor saturates independently before summing.
const (
	capVarLength   = 300
	capCartesian   = 200
	capAggregation = 50
	capSubqueries  = 90
	capUnions      = 80
	capOptional    = 60
	capProjections = 60
	capFullScan    = 160
)

// Config controls risk banding and blocking.
type Config struct {
	ModerateThreshold int
	HighThreshold     int
	CriticalThreshold int
	// MaxScore is the blocking ceiling: a score above it fails the request
	// instead of merely warning. Zero disables blocking.
	MaxScore int
	// MaxHops bounds tolerated variable-length traversals before they score
	// in the top bucket.
	MaxHops int
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		ModerateThreshold: 100,
		HighThreshold:     300,
		CriticalThreshold: 600,
		MaxScore:          600,
		MaxHops:           10,
	}
}

// Analyzer scores queries against a fixed configuration.
type Analyzer struct {
	cfg Config
}

// New creates an analyzer, applying defaults for unset thresholds.
func New(cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.ModerateThreshold <= 0 {
		cfg.ModerateThreshold = def.ModerateThreshold
	}
	if cfg.HighThreshold <= 0 {
		cfg.HighThreshold = def.HighThreshold
	}
	if cfg.CriticalThreshold <= 0 {
		cfg.CriticalThreshold = def.CriticalThreshold
	}
	if cfg.MaxHops <= 0 {
		cfg.MaxHops = def.MaxHops
	}
	return &Analyzer{cfg: cfg}
}

// MaxScore exposes the configured blocking ceiling.
func (a *Analyzer) MaxScore() int {
	return a.cfg.MaxScore
}

var (
	varLengthPattern = regexp.MustCompile(`\[\s*\w*\s*(?::[\w|!]+\s*)?\*\s*(\d+)?(?:\s*\.\.\s*(\d+)?)?\s*\]`)
	aggregatePattern = regexp.MustCompile(`(?i)\b(count|collect|sum|avg|min|max|percentileCont|percentileDisc|stDev)\s*\(`)
	subqueryPattern  = regexp.MustCompile(`(?is)\bCALL\s*\{`)
	unionPattern     = regexp.MustCompile(`(?is)\bUNION\b`)
	optionalPattern  = regexp.MustCompile(`(?is)\bOPTIONAL\s+MATCH\b`)
	withPattern      = regexp.MustCompile(`(?is)\bWITH\b`)
	matchPattern     = regexp.MustCompile(`(?is)\bMATCH\s+([^\n]*?)(?:\bWHERE\b|\bRETURN\b|\bWITH\b|\bMATCH\b|\bOPTIONAL\b|\bCALL\b|$)`)
	nodeVarPattern   = regexp.MustCompile(`[(\[]\s*(\w+)`)
	fullScanOperator = regexp.MustCompile(`(?i)AllNodesScan|NodeByLabelScan|Full\w*Scan`)
)

// Score computes the structural complexity of a query without plan data.
func (a *Analyzer) Score(query string) models.ComplexityScore {
	return a.ScoreWithPlan(query, nil)
}

// ScoreWithPlan computes the complexity score, folding in missing-index
// heuristics when a plan summary is available. The breakdown always sums to
// the total and the total is clamped to [0,1000].
func (a *Analyzer) ScoreWithPlan(query string, plan *models.PlanSummary) models.ComplexityScore {
	stripped := textshield.Strip(query)

	breakdown := make(map[string]int)
	var bottlenecks []string

	if pts, worst := a.scoreVarLength(stripped); pts > 0 {
		breakdown[FactorVarLength] = pts
		bottlenecks = append(bottlenecks, worst)
	}
	if hasCartesianProduct(stripped) {
		breakdown[FactorCartesian] = capCartesian
		bottlenecks = append(bottlenecks, "disjoint patterns form a cartesian product")
	}
	if n := len(aggregatePattern.FindAllString(stripped, -1)); n > 0 {
		breakdown[FactorAggregation] = capAt(n*10, capAggregation)
	}
	if n := len(subqueryPattern.FindAllString(stripped, -1)); n > 0 {
		breakdown[FactorSubqueries] = capAt(n*30, capSubqueries)
	}
	if n := len(unionPattern.FindAllString(stripped, -1)); n > 0 {
		breakdown[FactorUnions] = capAt(n*20, capUnions)
	}
	if n := len(optionalPattern.FindAllString(stripped, -1)); n > 0 {
		breakdown[FactorOptional] = capAt(n*15, capOptional)
	}
	if n := len(withPattern.FindAllString(stripped, -1)); n > 0 {
		breakdown[FactorProjections] = capAt(n*10, capProjections)
	}
	if plan != nil && plan.Root != nil && planHasFullScan(plan.Root) {
		breakdown[FactorFullScan] = capFullScan
		bottlenecks = append(bottlenecks, "plan contains a full unindexed scan")
	}

	total := 0
	for _, v := range breakdown {
		total += v
	}
	if total > models.MaxComplexityScore {
		// Clamp by shaving the overage off the largest factor so the
		// breakdown still sums to the total.
		overage := total - models.MaxComplexityScore
		largest, largestVal := "", 0
		for k, v := range breakdown {
			if v > largestVal {
				largest, largestVal = k, v
			}
		}
		breakdown[largest] -= overage
		total = models.MaxComplexityScore
	}

	return models.ComplexityScore{
		Total:       total,
		RiskLevel:   a.band(total),
		Breakdown:   breakdown,
		Bottlenecks: bottlenecks,
	}
}

// Blocks reports whether a score should fail the request under the configured
// ceiling rather than merely warn.
func (a *Analyzer) Blocks(score models.ComplexityScore) bool {
	return a.cfg.MaxScore > 0 && score.Total > a.cfg.MaxScore
}

func (a *Analyzer) band(total int) models.RiskLevel {
	switch {
	case total >= a.cfg.CriticalThreshold:
		return models.RiskCritical
	case total >= a.cfg.HighThreshold:
		return models.RiskHigh
	case total >= a.cfg.ModerateThreshold:
		return models.RiskModerate
	default:
		return models.RiskSafe
	}
}

// scoreVarLength buckets every variable-length relationship by its maximum
// hop count. Unbounded ranges score in the top bucket.
func (a *Analyzer) scoreVarLength(stripped string) (int, string) {
	matches := varLengthPattern.FindAllStringSubmatch(stripped, -1)
	if len(matches) == 0 {
		return 0, ""
	}
	points := 0
	worst := ""
	for _, m := range matches {
		maxHops := -1 // unbounded
		if m[2] != "" {
			maxHops, _ = strconv.Atoi(m[2])
		} else if m[1] != "" && !strings.Contains(m[0], "..") {
			// Exact form [*3].
			maxHops, _ = strconv.Atoi(m[1])
		}
		switch {
		case maxHops < 0 || maxHops > a.cfg.MaxHops:
			points += 150
			worst = "unbounded or deep variable-length traversal"
		case maxHops > 5:
			points += 80
			if worst == "" {
				worst = "variable-length traversal beyond 5 hops"
			}
		case maxHops > 3:
			points += 40
			if worst == "" {
				worst = "variable-length traversal beyond 3 hops"
			}
		default:
			points += 15
		}
	}
	if worst == "" && points > 0 {
		worst = "variable-length traversal present"
	}
	return capAt(points, capVarLength), worst
}

// hasCartesianProduct detects comma-separated pattern groups within a MATCH
// clause that share no variable: such groups cross-join.
func hasCartesianProduct(stripped string) bool {
	for _, clause := range matchPattern.FindAllStringSubmatch(stripped, -1) {
		groups := splitTopLevel(clause[1])
		if len(groups) < 2 {
			continue
		}
		sets := make([]map[string]bool, 0, len(groups))
		for _, g := range groups {
			vars := make(map[string]bool)
			for _, m := range nodeVarPattern.FindAllStringSubmatch(g, -1) {
				vars[m[1]] = true
			}
			sets = append(sets, vars)
		}
		for i := 0; i < len(sets); i++ {
			for j := i + 1; j < len(sets); j++ {
				if disjoint(sets[i], sets[j]) {
					return true
				}
			}
		}
	}
	return false
}

// splitTopLevel splits a pattern list on commas outside parentheses,
// brackets, and braces.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func disjoint(a, b map[string]bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for k := range a {
		if b[k] {
			return false
		}
	}
	return true
}

func planHasFullScan(op *models.PlanOperator) bool {
	if fullScanOperator.MatchString(op.Name) {
		return true
	}
	for i := range op.Children {
		if planHasFullScan(&op.Children[i]) {
			return true
		}
	}
	return false
}

func capAt(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
