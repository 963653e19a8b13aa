package models

// RateDecision is the outcome of one admission-control check.
type RateDecision struct {
	Allowed    bool    `json:"allowed"`
	RetryAfter float64 `json:"retry_after_seconds,omitempty"`
	Remaining  float64 `json:"remaining"`
	// Rule names the bucket that denied the request, when denied.
	Rule string `json:"rule,omitempty"`
}
