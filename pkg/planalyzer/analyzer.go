// Package planalyzer turns the engine's execution-plan metadata into
// actionable performance diagnostics. It never touches the main execution
// path and never materializes result rows.
package planalyzer

import (
	"context"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/cyphergate/cyphergate/pkg/cache"
	"github.com/cyphergate/cyphergate/pkg/errors"
	"github.com/cyphergate/cyphergate/pkg/models"
	"github.com/cyphergate/cyphergate/pkg/repositories"
	"github.com/cyphergate/cyphergate/pkg/sanitizer"
	"github.com/cyphergate/cyphergate/pkg/textshield"
)

// Config controls plan retrieval and rule thresholds.
type Config struct {
	// QueryTimeout bounds the engine call.
	QueryTimeout time.Duration
	// MaxHops is the tolerated variable-length traversal bound; deeper or
	// unbounded traversals raise the bottleneck severity.
	MaxHops int
	// LargeExpandRows is the estimated-row count past which a traversal
	// operator is considered large.
	LargeExpandRows int64
	// CacheEnabled turns on caching of EXPLAIN analyses. Profile runs are
	// never cached; their statistics are per-execution.
	CacheEnabled bool
	// CacheMaxEntries and CacheTTL configure the analysis cache; zero values
	// fall back to the cache package defaults.
	CacheMaxEntries int
	CacheTTL        time.Duration
}

// DefaultConfig returns the default analyzer configuration.
func DefaultConfig() Config {
	return Config{
		QueryTimeout:    30 * time.Second,
		MaxHops:         10,
		LargeExpandRows: 100000,
	}
}

// Analyzer retrieves and interprets execution plans.
type Analyzer struct {
	repo   repositories.GraphRepository
	cfg    Config
	plans  cache.Cache
	logger zerolog.Logger
}

// New creates a plan analyzer over the given repository.
func New(repo repositories.GraphRepository, cfg Config, logger zerolog.Logger) *Analyzer {
	def := DefaultConfig()
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = def.QueryTimeout
	}
	if cfg.MaxHops <= 0 {
		cfg.MaxHops = def.MaxHops
	}
	if cfg.LargeExpandRows <= 0 {
		cfg.LargeExpandRows = def.LargeExpandRows
	}
	a := &Analyzer{repo: repo, cfg: cfg, logger: logger}
	if cfg.CacheEnabled {
		cacheCfg := cache.DefaultConfig()
		if cfg.CacheMaxEntries > 0 {
			cacheCfg.WithMaxEntries(cfg.CacheMaxEntries)
		}
		if cfg.CacheTTL > 0 {
			cacheCfg.WithTTL(cfg.CacheTTL)
		}
		a.plans = cache.NewMemoryCache(cacheCfg)
	}
	return a
}

// modePrefix strips any caller-supplied EXPLAIN/PROFILE prefix so the mode
// requested here is the one that reaches the engine.
var modePrefix = regexp.MustCompile(`(?is)^\s*(?:EXPLAIN|PROFILE)\s+`)

// AnalyzeQuery retrieves the plan for a query and runs the bottleneck rules.
//
// EXPLAIN requests a plan without executing the query. PROFILE executes it,
// so by default it refuses any query containing a write operation; a caller
// may opt in with allowWrite. Detection is whole-word and agnostic to the
// whitespace between keyword and operand, since naive substring matching is a
// known bypass. Parameters are forwarded to the engine unchanged.
func (a *Analyzer) AnalyzeQuery(ctx context.Context, query string, params map[string]interface{}, mode models.AnalyzeMode, allowWrite bool) (*models.PlanAnalysis, error) {
	if mode == models.ModeProfile && !allowWrite {
		if sanitizer.ContainsWriteOperation(textshield.Strip(query)) {
			return nil, errors.ErrWriteBlocked
		}
	}

	stripped := modePrefix.ReplaceAllString(query, "")
	prefixed := mode.String() + " " + stripped

	// EXPLAIN is deterministic for a fixed schema, so its analyses are
	// cacheable. Caller-supplied mode prefixes were stripped above, which
	// keeps the key canonical.
	var cacheKey string
	if mode == models.ModeExplain && a.plans != nil {
		cacheKey = cache.Key(stripped, params)
		if cached := a.plans.Get(cacheKey); cached != nil {
			a.logger.Debug().Str("mode", mode.String()).Msg("plan served from cache")
			return cached, nil
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, a.cfg.QueryTimeout)
	defer cancel()

	handle, err := a.repo.Run(runCtx, prefixed, params)
	if err != nil {
		return nil, wrapEngineError(err, runCtx)
	}

	// Consume only: remaining rows are discarded by the driver, so analysis
	// cost stays independent of the target query's result size.
	summary, err := handle.Consume(runCtx)
	if err != nil {
		return nil, wrapEngineError(err, runCtx)
	}

	analysis := a.interpret(summary, mode)
	if cacheKey != "" {
		a.plans.Put(cacheKey, analysis)
	}
	a.logger.Debug().
		Str("mode", mode.String()).
		Int("operators", len(analysis.Steps)).
		Int64("db_hits", analysis.TotalDBHits).
		Int("cost_score", analysis.CostScore).
		Msg("plan analyzed")
	return analysis, nil
}

// interpret flattens the plan tree, aggregates totals, and applies the
// bottleneck rules.
func (a *Analyzer) interpret(summary *models.PlanSummary, mode models.AnalyzeMode) *models.PlanAnalysis {
	analysis := &models.PlanAnalysis{Mode: mode.String()}
	if summary != nil && summary.Root != nil {
		flatten(summary.Root, 0, mode, analysis)
	}

	bottlenecks, recommendations := a.applyRules(analysis.Steps)
	analysis.Bottlenecks = bottlenecks
	analysis.Recommendations = recommendations
	analysis.CostScore = costScore(analysis.TotalDBHits, bottlenecks)
	analysis.RiskLevel = riskBand(analysis.CostScore)
	return analysis
}

// flatten performs a depth-first walk, recording one step per operator and
// accumulating totals. In profile mode the per-operator runtime statistics
// ride along where the engine supplied them.
func flatten(op *models.PlanOperator, depth int, mode models.AnalyzeMode, analysis *models.PlanAnalysis) {
	step := models.PlanStep{
		Operator:      op.Name,
		Depth:         depth,
		DBHits:        op.DBHits,
		Rows:          op.Rows,
		EstimatedRows: op.EstimatedRows,
	}
	if mode == models.ModeProfile {
		step.TimeMillis = op.TimeMillis
		step.MemoryBytes = op.MemoryBytes
	}
	analysis.Steps = append(analysis.Steps, step)
	analysis.TotalDBHits += op.DBHits
	analysis.TotalRows += op.Rows

	for i := range op.Children {
		flatten(&op.Children[i], depth+1, mode, analysis)
	}
}

func costScore(totalDBHits int64, bottlenecks []models.Bottleneck) int {
	score := int(totalDBHits / 1000)
	for _, b := range bottlenecks {
		switch b.Severity {
		case models.BottleneckCritical:
			score += 300
		case models.BottleneckHigh:
			score += 150
		case models.BottleneckMedium:
			score += 75
		}
	}
	if score > models.MaxComplexityScore {
		score = models.MaxComplexityScore
	}
	return score
}

func riskBand(score int) models.RiskLevel {
	switch {
	case score >= 600:
		return models.RiskCritical
	case score >= 300:
		return models.RiskHigh
	case score >= 100:
		return models.RiskModerate
	default:
		return models.RiskSafe
	}
}

func wrapEngineError(err error, ctx context.Context) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Wrap(err, errors.CodeDeadlineExceeded, "engine call timed out")
	}
	return errors.Wrap(err, errors.CodeEngineFailed, "engine call failed")
}
