package server

import (
	"github.com/rs/zerolog"

	"github.com/cyphergate/cyphergate/cmd/server/config"
	"github.com/cyphergate/cyphergate/pkg/audit"
	"github.com/cyphergate/cyphergate/pkg/complexity"
	"github.com/cyphergate/cyphergate/pkg/infrastructure/metrics"
	"github.com/cyphergate/cyphergate/pkg/planalyzer"
	"github.com/cyphergate/cyphergate/pkg/ratelimit"
	"github.com/cyphergate/cyphergate/pkg/repositories"
	"github.com/cyphergate/cyphergate/pkg/sanitizer"
	"github.com/cyphergate/cyphergate/pkg/services"
)

// Server owns the composed gateway and its supporting components.
type Server struct {
	cfg     *config.Config
	gateway *services.Gateway
	auditor *audit.Logger
	logger  zerolog.Logger
}

// New composes a gateway from the configuration. The repository and the
// optional translator are external collaborators supplied by the caller.
func New(
	cfg *config.Config,
	repo repositories.GraphRepository,
	translator repositories.QueryTranslator,
	logger zerolog.Logger,
	collector metrics.Collector,
) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limits := ratelimit.NewRegistry(rateRules(cfg), globalRule(cfg))
	auditor := audit.New(auditConfig(cfg), logger)

	plans := planalyzer.New(repo, planalyzer.Config{
		QueryTimeout:    cfg.Analyzer.QueryTimeout,
		MaxHops:         cfg.Analyzer.MaxHops,
		LargeExpandRows: cfg.Analyzer.LargeExpandRows,
		CacheEnabled:    cfg.Analyzer.CacheEnabled,
		CacheMaxEntries: cfg.Analyzer.CacheMaxEntries,
		CacheTTL:        cfg.Analyzer.CacheTTL,
	}, logger)

	gateway := services.NewGateway(
		services.Config{
			QueryTimeout: cfg.QueryTimeout,
			MaxRows:      cfg.MaxRows,
			Debug:        cfg.Debug,
		},
		limits,
		sanitizer.Config{
			MaxQueryLength:       cfg.Sanitizer.MaxQueryLength,
			StrictMode:           cfg.Sanitizer.StrictMode,
			AllowWriteOperations: cfg.Sanitizer.AllowWriteOperations,
			AllowAdminProcedures: cfg.Sanitizer.AllowAdminProcedures,
			AllowSchemaChanges:   cfg.Sanitizer.AllowSchemaChanges,
			BlockNonASCII:        cfg.Sanitizer.BlockNonASCII,
			MaxParameters:        cfg.Sanitizer.MaxParameters,
			MaxParameterLength:   cfg.Sanitizer.MaxParameterLength,
		},
		complexity.New(complexity.Config{
			ModerateThreshold: cfg.Complexity.ModerateThreshold,
			HighThreshold:     cfg.Complexity.HighThreshold,
			CriticalThreshold: cfg.Complexity.CriticalThreshold,
			MaxScore:          cfg.Complexity.MaxScore,
			MaxHops:           cfg.Complexity.MaxHops,
		}),
		plans,
		repo,
		translator,
		auditor,
		services.NewZerologLogger(logger),
		newMetricsAdapter(collector),
	)

	return &Server{
		cfg:     cfg,
		gateway: gateway,
		auditor: auditor,
		logger:  logger,
	}, nil
}

// Gateway returns the composed query gateway.
func (s *Server) Gateway() *services.Gateway {
	return s.gateway
}

// Close flushes and closes the audit sink.
func (s *Server) Close() error {
	return s.auditor.Close()
}

func rateRules(cfg *config.Config) []ratelimit.Rule {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	rules := make([]ratelimit.Rule, 0, len(cfg.RateLimit.Rules))
	for _, r := range cfg.RateLimit.Rules {
		rules = append(rules, ratelimit.Rule{
			Name:     r.Name,
			Requests: r.Requests,
			Window:   r.Window,
			Burst:    r.Burst,
		})
	}
	return rules
}

func globalRule(cfg *config.Config) *ratelimit.Rule {
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Global == nil {
		return nil
	}
	g := cfg.RateLimit.Global
	return &ratelimit.Rule{
		Name:     ratelimit.GlobalRule,
		Requests: g.Requests,
		Window:   g.Window,
		Burst:    g.Burst,
	}
}

func auditConfig(cfg *config.Config) audit.Config {
	return audit.Config{
		Enabled:        cfg.Audit.Enabled,
		Directory:      cfg.Audit.Directory,
		FilePrefix:     cfg.Audit.FilePrefix,
		MaxFileSize:    cfg.Audit.MaxFileSize,
		RotateInterval: cfg.Audit.RotateInterval,
		RetentionAge:   cfg.Audit.RetentionAge,
		Redact:         cfg.Audit.Redact,
	}
}
