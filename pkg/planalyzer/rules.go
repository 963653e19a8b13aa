package planalyzer

import (
	"fmt"
	"regexp"

	"github.com/cyphergate/cyphergate/pkg/models"
)

// Rule categories.
const (
	CategoryIndex     = "index"
	CategoryJoin      = "join"
	CategoryTraversal = "traversal"
)

var (
	fullScanOp  = regexp.MustCompile(`(?i)^(?:AllNodesScan|NodeByLabelScan)`)
	cartesianOp = regexp.MustCompile(`(?i)CartesianProduct`)
	varExpandOp = regexp.MustCompile(`(?i)VarLength(?:Expand|Traverse)`)
)

// applyRules walks the flattened plan once and emits at most one bottleneck
// and recommendation per rule.
func (a *Analyzer) applyRules(steps []models.PlanStep) ([]models.Bottleneck, []models.Recommendation) {
	var bottlenecks []models.Bottleneck
	var recommendations []models.Recommendation

	seen := map[string]bool{}
	for _, step := range steps {
		switch {
		case fullScanOp.MatchString(step.Operator) && !seen[CategoryIndex]:
			seen[CategoryIndex] = true
			bottlenecks = append(bottlenecks, models.Bottleneck{
				Operator:    step.Operator,
				Description: fmt.Sprintf("%s scans every candidate node without an index", step.Operator),
				Severity:    models.BottleneckHigh,
			})
			recommendations = append(recommendations, models.Recommendation{
				Title:          "Create an index for the scanned label and property",
				Category:       CategoryIndex,
				Severity:       models.BottleneckHigh,
				Example:        "CREATE INDEX person_name FOR (p:Person) ON (p.name)",
				ExpectedImpact: "turns the full scan into an index seek; typically orders of magnitude fewer database hits",
			})

		case cartesianOp.MatchString(step.Operator) && !seen[CategoryJoin]:
			seen[CategoryJoin] = true
			bottlenecks = append(bottlenecks, models.Bottleneck{
				Operator:    step.Operator,
				Description: "disjoint sub-patterns cross-join every row of one side with every row of the other",
				Severity:    models.BottleneckCritical,
			})
			recommendations = append(recommendations, models.Recommendation{
				Title:          "Connect the sub-patterns with a shared variable or predicate",
				Category:       CategoryJoin,
				Severity:       models.BottleneckCritical,
				Example:        "MATCH (a:User)-[:OWNS]->(b:Account) RETURN a, b",
				ExpectedImpact: "replaces the cross join with a relationship traversal; result size drops from |a|*|b| to the matched pairs",
			})

		case varExpandOp.MatchString(step.Operator) && !seen[CategoryTraversal]:
			seen[CategoryTraversal] = true
			severity := models.BottleneckMedium
			if step.EstimatedRows > a.cfg.LargeExpandRows || step.EstimatedRows == 0 {
				severity = models.BottleneckHigh
			}
			bottlenecks = append(bottlenecks, models.Bottleneck{
				Operator:    step.Operator,
				Description: "variable-length traversal may expand a combinatorial number of paths",
				Severity:    severity,
			})
			recommendations = append(recommendations, models.Recommendation{
				Title:          fmt.Sprintf("Bound the traversal depth (at most %d hops)", a.cfg.MaxHops),
				Category:       CategoryTraversal,
				Severity:       severity,
				Example:        fmt.Sprintf("MATCH (a)-[:KNOWS*1..%d]->(b) RETURN b", a.cfg.MaxHops),
				ExpectedImpact: "caps the search frontier; unbounded expansion is the dominant cost on dense graphs",
			})
		}
	}
	return bottlenecks, recommendations
}
