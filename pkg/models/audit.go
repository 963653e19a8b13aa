package models

import "time"

// Outcome classifies how a request left the pipeline.
type Outcome string

const (
	OutcomeAllowed     Outcome = "allowed"
	OutcomeRejected    Outcome = "rejected"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeBlocked     Outcome = "blocked"
	OutcomeExecuted    Outcome = "executed"
	OutcomeFailed      Outcome = "failed"
)

// AuditSeverity grades an audit record.
type AuditSeverity string

const (
	AuditInfo     AuditSeverity = "info"
	AuditWarning  AuditSeverity = "warning"
	AuditError    AuditSeverity = "error"
	AuditCritical AuditSeverity = "critical"
)

// AuditEntry is one immutable, self-contained audit record. Ownership
// transfers to the logging subsystem on creation; callers never mutate it.
type AuditEntry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"session_id"`
	Operation string                 `json:"operation"`
	Query     string                 `json:"query"`
	Params    map[string]interface{} `json:"params,omitempty"`
	Outcome   Outcome                `json:"outcome"`
	Error     string                 `json:"error,omitempty"`
	Severity  AuditSeverity          `json:"severity"`
}
