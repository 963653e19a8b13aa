// Package config provides configuration structures for the CypherGate server.
package config

import (
	"fmt"
	"time"
)

// Config represents the server configuration.
type Config struct {
	// Server settings
	LogLevel        string        `yaml:"log_level" json:"log_level"`
	Environment     string        `yaml:"environment" json:"environment"` // development, production
	Debug           bool          `yaml:"debug" json:"debug"`
	QueryTimeout    time.Duration `yaml:"query_timeout" json:"query_timeout"`
	MaxRows         int           `yaml:"max_rows" json:"max_rows"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Sanitizer configuration
	Sanitizer SanitizerConfig `yaml:"sanitizer" json:"sanitizer"`

	// Complexity configuration
	Complexity ComplexityConfig `yaml:"complexity" json:"complexity"`

	// Rate limit configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Audit configuration
	Audit AuditConfig `yaml:"audit" json:"audit"`

	// Plan analyzer configuration
	Analyzer AnalyzerConfig `yaml:"analyzer" json:"analyzer"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// SanitizerConfig represents query sanitizer configuration.
type SanitizerConfig struct {
	MaxQueryLength       int  `yaml:"max_query_length" json:"max_query_length"`
	StrictMode           bool `yaml:"strict_mode" json:"strict_mode"`
	AllowWriteOperations bool `yaml:"allow_write_operations" json:"allow_write_operations"`
	AllowAdminProcedures bool `yaml:"allow_admin_procedures" json:"allow_admin_procedures"`
	AllowSchemaChanges   bool `yaml:"allow_schema_changes" json:"allow_schema_changes"`
	BlockNonASCII        bool `yaml:"block_non_ascii" json:"block_non_ascii"`
	MaxParameters        int  `yaml:"max_parameters" json:"max_parameters"`
	MaxParameterLength   int  `yaml:"max_parameter_length" json:"max_parameter_length"`
}

// ComplexityConfig represents complexity analyzer configuration.
type ComplexityConfig struct {
	ModerateThreshold int `yaml:"moderate_threshold" json:"moderate_threshold"`
	HighThreshold     int `yaml:"high_threshold" json:"high_threshold"`
	CriticalThreshold int `yaml:"critical_threshold" json:"critical_threshold"`
	MaxScore          int `yaml:"max_score" json:"max_score"`
	MaxHops           int `yaml:"max_hops" json:"max_hops"`
}

// RateLimitConfig represents rate limiter configuration.
type RateLimitConfig struct {
	Enabled bool            `yaml:"enabled" json:"enabled"`
	Global  *RateLimitRule  `yaml:"global" json:"global"`
	Rules   []RateLimitRule `yaml:"rules" json:"rules"`
}

// RateLimitRule is one named token-bucket rule.
type RateLimitRule struct {
	Name     string        `yaml:"name" json:"name"`
	Requests int           `yaml:"requests" json:"requests"`
	Window   time.Duration `yaml:"window" json:"window"`
	Burst    int           `yaml:"burst" json:"burst"`
}

// AuditConfig represents audit logger configuration.
type AuditConfig struct {
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	Directory      string        `yaml:"directory" json:"directory"`
	FilePrefix     string        `yaml:"file_prefix" json:"file_prefix"`
	MaxFileSize    int64         `yaml:"max_file_size" json:"max_file_size"`
	RotateInterval time.Duration `yaml:"rotate_interval" json:"rotate_interval"`
	RetentionAge   time.Duration `yaml:"retention_age" json:"retention_age"`
	Redact         bool          `yaml:"redact" json:"redact"`
}

// AnalyzerConfig represents plan analyzer configuration.
type AnalyzerConfig struct {
	QueryTimeout    time.Duration `yaml:"query_timeout" json:"query_timeout"`
	MaxHops         int           `yaml:"max_hops" json:"max_hops"`
	LargeExpandRows int64         `yaml:"large_expand_rows" json:"large_expand_rows"`
	CacheEnabled    bool          `yaml:"cache_enabled" json:"cache_enabled"`
	CacheMaxEntries int           `yaml:"cache_max_entries" json:"cache_max_entries"`
	CacheTTL        time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
}

// Validate validates the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment != "development" && c.Environment != "production" {
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.Environment == "production" && c.Debug {
		return fmt.Errorf("debug mode is not permitted in production")
	}

	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 30 * time.Second
	}

	if c.MaxRows < 0 {
		return fmt.Errorf("max_rows must not be negative")
	}
	if c.MaxRows == 0 {
		c.MaxRows = 1000
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}

	// Sanitizer defaults
	if c.Sanitizer.MaxQueryLength <= 0 {
		c.Sanitizer.MaxQueryLength = 10000
	}
	if c.Sanitizer.MaxParameters <= 0 {
		c.Sanitizer.MaxParameters = 64
	}
	if c.Sanitizer.MaxParameterLength <= 0 {
		c.Sanitizer.MaxParameterLength = 4096
	}

	// Complexity defaults
	if c.Complexity.ModerateThreshold <= 0 {
		c.Complexity.ModerateThreshold = 100
	}
	if c.Complexity.HighThreshold <= 0 {
		c.Complexity.HighThreshold = 300
	}
	if c.Complexity.CriticalThreshold <= 0 {
		c.Complexity.CriticalThreshold = 600
	}
	if c.Complexity.MaxScore <= 0 {
		c.Complexity.MaxScore = 600
	}
	if c.Complexity.MaxHops <= 0 {
		c.Complexity.MaxHops = 10
	}
	if c.Complexity.ModerateThreshold >= c.Complexity.HighThreshold ||
		c.Complexity.HighThreshold >= c.Complexity.CriticalThreshold {
		return fmt.Errorf("complexity thresholds must be strictly increasing")
	}

	// Rate limit rules
	seen := make(map[string]bool)
	for i := range c.RateLimit.Rules {
		r := &c.RateLimit.Rules[i]
		if r.Name == "" {
			return fmt.Errorf("rate limit rule %d has no name", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate rate limit rule %q", r.Name)
		}
		seen[r.Name] = true
		if err := r.validate(); err != nil {
			return fmt.Errorf("rate limit rule %q: %w", r.Name, err)
		}
	}
	if c.RateLimit.Global != nil {
		if err := c.RateLimit.Global.validate(); err != nil {
			return fmt.Errorf("global rate limit: %w", err)
		}
	}

	// Audit defaults
	if c.Audit.Enabled {
		if c.Audit.Directory == "" {
			c.Audit.Directory = "audit"
		}
		if c.Audit.FilePrefix == "" {
			c.Audit.FilePrefix = "audit"
		}
		if c.Audit.MaxFileSize <= 0 {
			c.Audit.MaxFileSize = 32 * 1024 * 1024 // 32MB
		}
		if c.Audit.RotateInterval <= 0 {
			c.Audit.RotateInterval = 24 * time.Hour
		}
		if c.Audit.RetentionAge <= 0 {
			c.Audit.RetentionAge = 30 * 24 * time.Hour
		}
	}

	// Analyzer defaults
	if c.Analyzer.QueryTimeout <= 0 {
		c.Analyzer.QueryTimeout = 30 * time.Second
	}
	if c.Analyzer.MaxHops <= 0 {
		c.Analyzer.MaxHops = 10
	}
	if c.Analyzer.LargeExpandRows <= 0 {
		c.Analyzer.LargeExpandRows = 100000
	}

	// Metrics defaults
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		c.Metrics.Address = ":9090"
	}

	return nil
}

func (r *RateLimitRule) validate() error {
	if r.Requests <= 0 {
		return fmt.Errorf("requests must be positive")
	}
	if r.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	if r.Burst <= 0 {
		r.Burst = r.Requests
	}
	return nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{
		LogLevel:    "info",
		Environment: "development",
		RateLimit: RateLimitConfig{
			Enabled: true,
			Global: &RateLimitRule{
				Name:     "global",
				Requests: 100,
				Window:   time.Minute,
				Burst:    200,
			},
			Rules: []RateLimitRule{
				{Name: "read_query", Requests: 60, Window: time.Minute, Burst: 120},
				{Name: "generated_query", Requests: 20, Window: time.Minute, Burst: 40},
				{Name: "analyze_performance", Requests: 10, Window: time.Minute, Burst: 20},
			},
		},
		Audit: AuditConfig{
			Enabled: true,
			Redact:  true,
		},
		Analyzer: AnalyzerConfig{
			CacheEnabled: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Address: ":9090",
		},
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}
