package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cyphergate/cyphergate/pkg/audit"
	"github.com/cyphergate/cyphergate/pkg/complexity"
	"github.com/cyphergate/cyphergate/pkg/errors"
	"github.com/cyphergate/cyphergate/pkg/models"
	"github.com/cyphergate/cyphergate/pkg/planalyzer"
	"github.com/cyphergate/cyphergate/pkg/ratelimit"
	"github.com/cyphergate/cyphergate/pkg/repositories"
	"github.com/cyphergate/cyphergate/pkg/sanitizer"
)

// Operation names used for rate limiting and audit records.
const (
	OpReadQuery = "read_query"
	OpGenerated = "generated_query"
	OpAnalyze   = "analyze_performance"
)

// Config holds the gateway-level settings.
type Config struct {
	// QueryTimeout bounds every engine call on the execution path.
	QueryTimeout time.Duration
	// MaxRows is the bound injected into unbounded queries. Zero disables
	// injection.
	MaxRows int
	// Debug returns full error detail to callers. Must stay off in
	// production environments.
	Debug bool
}

// Gateway is the pipeline's composition point. It owns the rate-limiter
// registry and wires every stage; multiple independent gateways can coexist.
type Gateway struct {
	cfg       Config
	limits    *ratelimit.Registry
	sanitizer *sanitizer.Sanitizer
	// analyzeSanitizer permits write keywords so the plan analyzer's own
	// profile-mode guard decides the write question for the analyze path.
	analyzeSanitizer *sanitizer.Sanitizer
	complexity       *complexity.Analyzer
	plans            *planalyzer.Analyzer
	repo             repositories.GraphRepository
	translator       repositories.QueryTranslator
	auditor          *audit.Logger
	logger           Logger
	metrics          MetricsCollector
}

// NewGateway wires the pipeline. The translator may be nil when the
// natural-language path is not deployed.
func NewGateway(
	cfg Config,
	limits *ratelimit.Registry,
	sanitizerCfg sanitizer.Config,
	complexityAnalyzer *complexity.Analyzer,
	plans *planalyzer.Analyzer,
	repo repositories.GraphRepository,
	translator repositories.QueryTranslator,
	auditor *audit.Logger,
	logger Logger,
	metrics MetricsCollector,
) *Gateway {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 30 * time.Second
	}
	analyzeCfg := sanitizerCfg
	analyzeCfg.AllowWriteOperations = true
	return &Gateway{
		cfg:              cfg,
		limits:           limits,
		sanitizer:        sanitizer.New(sanitizerCfg),
		analyzeSanitizer: sanitizer.New(analyzeCfg),
		complexity:       complexityAnalyzer,
		plans:            plans,
		repo:             repo,
		translator:       translator,
		auditor:          auditor,
		logger:           logger,
		metrics:          metrics,
	}
}

// ExecuteQuery runs the main path for a raw client query: rate limit,
// sanitize, complexity, execute, audit, strictly in that order with no stage
// skipped.
func (g *Gateway) ExecuteQuery(ctx context.Context, req *models.Request) *models.Response {
	timer := g.metrics.StartTimer("gateway_execute_query")
	defer timer.Stop()

	op := req.OperationName
	if op == "" {
		op = OpReadQuery
	}

	// Stage 1: admission control.
	decision := g.limits.Check(req.SessionID, op)
	if !decision.Allowed {
		g.metrics.IncrementCounter("gateway_rate_limited")
		g.auditor.LogOutcome(op, req.Query, req.Parameters, req.SessionID, models.OutcomeRateLimited, "rate limit exceeded")
		return models.Fail(errors.ErrRateLimited.Message).
			WithMeta("retry_after_seconds", decision.RetryAfter).
			WithMeta("rule", decision.Rule)
	}

	// Stage 2: sanitization.
	sres := g.sanitizer.Sanitize(req.Query, req.Parameters)
	if !sres.IsSafe {
		g.metrics.IncrementCounter("gateway_sanitizer_rejections")
		g.auditor.LogOutcome(op, req.Query, req.Parameters, req.SessionID, models.OutcomeRejected, sres.Error)
		return models.Fail("query failed validation: "+sres.Error).WithWarnings(sres.Warnings)
	}
	warnings := sres.Warnings

	// Stage 3: complexity scoring and result bounding.
	score := g.complexity.Score(req.Query)
	if g.complexity.Blocks(score) {
		g.metrics.IncrementCounter("gateway_complexity_rejections")
		reason := fmt.Sprintf("query complexity exceeds the configured maximum (%d > %d): %s",
			score.Total, g.complexity.MaxScore(), strings.Join(score.Bottlenecks, "; "))
		g.auditor.LogOutcome(op, req.Query, req.Parameters, req.SessionID, models.OutcomeRejected, reason)
		return models.Fail(reason).
			WithWarnings(warnings).
			WithMeta("complexity_score", score.Total).
			WithMeta("complexity_breakdown", score.Breakdown)
	}

	query := req.Query
	rewritten := false
	if g.cfg.MaxRows > 0 {
		query, rewritten = complexity.MaybeInjectLimit(query, g.cfg.MaxRows)
		if rewritten {
			warnings = append(warnings, fmt.Sprintf("query was rewritten with LIMIT %d to bound its result size", g.cfg.MaxRows))
		}
	}

	// Stage 4: execution. The engine call is the only stage that may block.
	start := time.Now()
	rows, err := g.execute(ctx, query, req.Parameters, req.Timeout)
	elapsed := time.Since(start)
	if err != nil {
		g.metrics.IncrementCounter("gateway_execution_errors")
		// Full detail is audit-logged server-side; the caller sees only a
		// sanitized message.
		g.auditor.LogOutcome(op, req.Query, req.Parameters, req.SessionID, models.OutcomeFailed, err.Error())
		g.logger.Error("query execution failed", "error", err, "operation", op, "duration", elapsed)
		return models.Fail(errors.SafeMessage(err, g.cfg.Debug)).WithWarnings(warnings)
	}

	// Stage 5: audit.
	g.auditor.LogOutcome(op, req.Query, req.Parameters, req.SessionID, models.OutcomeExecuted, "")
	g.metrics.IncrementCounter("gateway_successful_queries")
	g.metrics.RecordHistogram("gateway_query_duration_seconds", elapsed.Seconds())
	g.logger.Info("query executed", "operation", op, "rows", len(rows), "duration", elapsed)

	return models.OK(rows).
		WithWarnings(warnings).
		WithMeta("execution_time_ms", elapsed.Milliseconds()).
		WithMeta("complexity_score", score.Total).
		WithMeta("risk_level", score.RiskLevel.String()).
		WithMeta("rewritten", rewritten).
		WithMeta("row_count", len(rows))
}

// ExecuteGenerated translates a natural-language prompt and runs the result
// through the full gate. Translator output is never trusted: it re-enters the
// pipeline exactly as raw client input would.
func (g *Gateway) ExecuteGenerated(ctx context.Context, prompt string, params map[string]interface{}, sessionID string) *models.Response {
	if g.translator == nil {
		return models.Fail("natural-language querying is not configured")
	}
	query, err := g.translator.Translate(ctx, prompt)
	if err != nil {
		g.metrics.IncrementCounter("gateway_translation_errors")
		g.auditor.LogOutcome(OpGenerated, prompt, nil, sessionID, models.OutcomeFailed, err.Error())
		return models.Fail(errors.SafeMessage(errors.Wrap(err, errors.CodeEngineFailed, "query translation failed"), g.cfg.Debug))
	}
	return g.ExecuteQuery(ctx, &models.Request{
		OperationName: OpGenerated,
		Query:         query,
		Parameters:    params,
		SessionID:     sessionID,
	})
}

// AnalyzePerformance runs the plan-analysis path: rate limit, sanitize (write
// keywords permitted; the profile-mode guard handles them), analyze. It never
// touches the execution path and never materializes rows.
func (g *Gateway) AnalyzePerformance(ctx context.Context, req *models.AnalyzeRequest) *models.Response {
	timer := g.metrics.StartTimer("gateway_analyze_performance")
	defer timer.Stop()

	decision := g.limits.Check(req.SessionID, OpAnalyze)
	if !decision.Allowed {
		g.metrics.IncrementCounter("gateway_rate_limited")
		g.auditor.LogOutcome(OpAnalyze, req.Query, req.Parameters, req.SessionID, models.OutcomeRateLimited, "rate limit exceeded")
		return models.Fail(errors.ErrRateLimited.Message).
			WithMeta("retry_after_seconds", decision.RetryAfter)
	}

	sres := g.analyzeSanitizer.Sanitize(req.Query, req.Parameters)
	if !sres.IsSafe {
		g.metrics.IncrementCounter("gateway_sanitizer_rejections")
		g.auditor.LogOutcome(OpAnalyze, req.Query, req.Parameters, req.SessionID, models.OutcomeRejected, sres.Error)
		return models.Fail("query failed validation: "+sres.Error).WithWarnings(sres.Warnings)
	}

	analysis, err := g.plans.AnalyzeQuery(ctx, req.Query, req.Parameters, req.Mode, req.AllowWriteQueries)
	if err != nil {
		if errors.IsWriteBlocked(err) {
			g.metrics.IncrementCounter("gateway_write_blocked")
			g.auditor.LogOutcome(OpAnalyze, req.Query, req.Parameters, req.SessionID, models.OutcomeBlocked, err.Error())
			return models.Fail(errors.GetMessage(err))
		}
		g.metrics.IncrementCounter("gateway_analysis_errors")
		g.auditor.LogOutcome(OpAnalyze, req.Query, req.Parameters, req.SessionID, models.OutcomeFailed, err.Error())
		return models.Fail(errors.SafeMessage(err, g.cfg.Debug))
	}

	g.auditor.LogOutcome(OpAnalyze, req.Query, req.Parameters, req.SessionID, models.OutcomeExecuted, "")
	g.metrics.IncrementCounter("gateway_successful_analyses")
	return models.OK(analysis).
		WithWarnings(sres.Warnings).
		WithMeta("mode", req.Mode.String()).
		WithMeta("cost_score", analysis.CostScore).
		WithMeta("risk_level", analysis.RiskLevel.String())
}

// execute runs the gated query against the engine with a bounded timeout and
// materializes its rows.
func (g *Gateway) execute(ctx context.Context, query string, params map[string]interface{}, timeout time.Duration) ([]map[string]interface{}, error) {
	if timeout <= 0 || timeout > g.cfg.QueryTimeout {
		timeout = g.cfg.QueryTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	handle, err := g.repo.Run(runCtx, query, params)
	if err != nil {
		return nil, g.wrapEngineError(runCtx, err)
	}
	rows, err := handle.Materialize(runCtx)
	if err != nil {
		return nil, g.wrapEngineError(runCtx, err)
	}
	return rows, nil
}

// wrapEngineError maps driver failures onto the error taxonomy. A timeout is
// an execution failure, never conflated with a validation rejection.
func (g *Gateway) wrapEngineError(ctx context.Context, err error) error {
	errStr := err.Error()
	switch {
	case ctx.Err() == context.DeadlineExceeded || strings.Contains(errStr, "timeout"):
		return errors.Wrap(err, errors.CodeDeadlineExceeded, "engine call timed out")
	case strings.Contains(errStr, "syntax error"):
		return errors.Wrap(err, errors.CodeEngineFailed, "query syntax error")
	case strings.Contains(errStr, "connection"):
		return errors.Wrap(err, errors.CodeUnavailable, "database connection failed")
	default:
		return errors.Wrap(err, errors.CodeEngineFailed, "query execution failed")
	}
}
