// Package audit persists structured, redacted, rotated records of every
// pipeline outcome. Logging is fire-and-forget: no failure in this package
// ever reaches the request path.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cyphergate/cyphergate/pkg/models"
)

// Config controls the audit sink.
type Config struct {
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	Directory      string        `yaml:"directory" json:"directory"`
	FilePrefix     string        `yaml:"file_prefix" json:"file_prefix"`
	MaxFileSize    int64         `yaml:"max_file_size" json:"max_file_size"`
	RotateInterval time.Duration `yaml:"rotate_interval" json:"rotate_interval"`
	RetentionAge   time.Duration `yaml:"retention_age" json:"retention_age"`
	Redact         bool          `yaml:"redact" json:"redact"`
}

// DefaultConfig returns the default audit configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Directory:      "audit",
		FilePrefix:     "audit",
		MaxFileSize:    32 * 1024 * 1024,
		RotateInterval: 24 * time.Hour,
		RetentionAge:   30 * 24 * time.Hour,
		Redact:         true,
	}
}

// Logger is the audit sink. Writes are serialized by a single mutex so
// within-file record ordering is preserved.
type Logger struct {
	cfg      Config
	redactor *Redactor

	mu     sync.Mutex
	writer *rotatingWriter
	log    zerolog.Logger

	// fallback receives internal audit failures. It must never be the
	// primary sink.
	fallback zerolog.Logger
}

// New opens the audit sink. An open failure is reported through the fallback
// logger and yields a disabled (but safe to use) logger rather than an error:
// audit must never block startup of the request path.
func New(cfg Config, fallback zerolog.Logger) *Logger {
	def := DefaultConfig()
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = def.FilePrefix
	}
	if cfg.Directory == "" {
		cfg.Directory = def.Directory
	}

	l := &Logger{
		cfg:      cfg,
		redactor: NewRedactor(),
		fallback: fallback,
	}
	if !cfg.Enabled {
		return l
	}

	w, err := newRotatingWriter(cfg.Directory, cfg.FilePrefix, cfg.MaxFileSize, cfg.RotateInterval, cfg.RetentionAge)
	if err != nil {
		fallback.Error().Err(err).Msg("audit sink unavailable, records will be dropped")
		return l
	}
	l.writer = w
	l.log = zerolog.New(&failsafeWriter{w: w, fallback: fallback}).With().Timestamp().Logger()
	return l
}

// failsafeWriter forwards writes to the rotating sink and reports write
// failures to the fallback channel instead of propagating them.
type failsafeWriter struct {
	w        *rotatingWriter
	fallback zerolog.Logger
}

func (f *failsafeWriter) Write(p []byte) (int, error) {
	if _, err := f.w.Write(p); err != nil {
		f.fallback.Error().Err(err).Msg("audit record dropped")
	}
	// Report success upward so zerolog does not retry or error out.
	return len(p), nil
}

// LogOutcome records one pipeline outcome. It never returns an error and
// never panics into the caller; internal failures go to the fallback logger.
func (l *Logger) LogOutcome(operation, query string, params map[string]interface{}, sessionID string, outcome models.Outcome, errMsg string) {
	defer func() {
		if r := recover(); r != nil {
			l.fallback.Error().Interface("panic", r).Msg("audit logging panicked")
		}
	}()

	entry := l.buildEntry(operation, query, params, sessionID, outcome, errMsg)
	if l.writer == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ev := l.log.Log().
		Str("id", entry.ID).
		Time("ts", entry.Timestamp).
		Str("session_id", entry.SessionID).
		Str("operation", entry.Operation).
		Str("query", entry.Query).
		Str("outcome", string(entry.Outcome)).
		Str("severity", string(entry.Severity))
	if len(entry.Params) > 0 {
		ev = ev.Interface("params", entry.Params)
	}
	if entry.Error != "" {
		ev = ev.Str("error", entry.Error)
	}
	ev.Send()
}

// buildEntry constructs the immutable record, applying redaction exactly once
// before the serialization point.
func (l *Logger) buildEntry(operation, query string, params map[string]interface{}, sessionID string, outcome models.Outcome, errMsg string) models.AuditEntry {
	if l.cfg.Redact {
		query = l.redactor.Redact(query)
		params = l.redactor.RedactParams(params)
		errMsg = l.redactor.Redact(errMsg)
	}
	return models.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Operation: operation,
		Query:     query,
		Params:    params,
		Outcome:   outcome,
		Error:     errMsg,
		Severity:  severityFor(outcome),
	}
}

func severityFor(outcome models.Outcome) models.AuditSeverity {
	switch outcome {
	case models.OutcomeRejected, models.OutcomeBlocked:
		return models.AuditWarning
	case models.OutcomeFailed:
		return models.AuditError
	case models.OutcomeRateLimited:
		return models.AuditWarning
	default:
		return models.AuditInfo
	}
}

// Close flushes and closes the sink.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer == nil {
		return nil
	}
	err := l.writer.Close()
	l.writer = nil
	return err
}
