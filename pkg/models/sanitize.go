package models

// SanitizationResult is the verdict of one sanitizer pass. Immutable once
// produced; warnings accumulate independently of the pass/fail verdict.
type SanitizationResult struct {
	IsSafe   bool     `json:"is_safe"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Safe returns a passing result carrying any accumulated warnings.
func Safe(warnings []string) SanitizationResult {
	return SanitizationResult{IsSafe: true, Warnings: warnings}
}

// Unsafe returns a rejecting result with a specific error and any warnings
// gathered before the rejection.
func Unsafe(reason string, warnings []string) SanitizationResult {
	return SanitizationResult{IsSafe: false, Error: reason, Warnings: warnings}
}
