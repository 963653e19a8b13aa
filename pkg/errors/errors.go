// Package errors provides standardized error types for the query gateway.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes covering every failure class the pipeline can produce.
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeComplexityExceeded = "COMPLEXITY_EXCEEDED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeWriteBlocked       = "WRITE_BLOCKED"
	CodeEngineFailed       = "ENGINE_FAILED"
	CodeDeadlineExceeded   = "DEADLINE_EXCEEDED"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnavailable        = "UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// GateError represents a pipeline error with code, message, and optional details.
type GateError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *GateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *GateError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by code.
func (e *GateError) Is(target error) bool {
	t, ok := target.(*GateError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails adds details to the error.
func (e *GateError) WithDetails(details map[string]interface{}) *GateError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *GateError) WithDetail(key string, value interface{}) *GateError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common errors
var (
	ErrEmptyQuery      = &GateError{Code: CodeInvalidRequest, Message: "query cannot be empty"}
	ErrQueryRejected   = &GateError{Code: CodeValidationFailed, Message: "query failed validation"}
	ErrQueryTooComplex = &GateError{Code: CodeComplexityExceeded, Message: "query complexity exceeds configured maximum"}
	ErrRateLimited     = &GateError{Code: CodeRateLimited, Message: "rate limit exceeded"}
	ErrWriteBlocked    = &GateError{Code: CodeWriteBlocked, Message: "write queries cannot be profiled without explicit opt-in"}
	ErrEngineTimeout   = &GateError{Code: CodeDeadlineExceeded, Message: "engine call timed out"}
	ErrEngineFailed    = &GateError{Code: CodeEngineFailed, Message: "engine call failed"}
	ErrUnavailable     = &GateError{Code: CodeUnavailable, Message: "database connection failed"}
)

// New creates a new GateError with the given code and message.
func New(code, message string) *GateError {
	return &GateError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new GateError with a formatted message.
func Newf(code, format string, args ...interface{}) *GateError {
	return &GateError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a GateError.
func Wrap(err error, code, message string) *GateError {
	if err == nil {
		return nil
	}
	return &GateError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code, format string, args ...interface{}) *GateError {
	if err == nil {
		return nil
	}
	return &GateError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsValidation checks if an error is a validation rejection.
func IsValidation(err error) bool {
	return GetCode(err) == CodeValidationFailed
}

// IsRateLimited checks if an error is a rate-limit denial.
func IsRateLimited(err error) bool {
	return GetCode(err) == CodeRateLimited
}

// IsWriteBlocked checks if an error is the profile-mode write guard.
func IsWriteBlocked(err error) bool {
	return GetCode(err) == CodeWriteBlocked
}

// IsComplexity checks if an error is a complexity rejection.
func IsComplexity(err error) bool {
	return GetCode(err) == CodeComplexityExceeded
}

// IsInternal checks if an error is an internal error.
func IsInternal(err error) bool {
	return GetCode(err) == CodeInternal
}

// GetCode extracts the error code from an error.
func GetCode(err error) string {
	var gateErr *GateError
	if errors.As(err, &gateErr) {
		return gateErr.Code
	}
	return CodeInternal
}

// GetMessage extracts the error message from an error.
func GetMessage(err error) string {
	var gateErr *GateError
	if errors.As(err, &gateErr) {
		return gateErr.Message
	}
	return err.Error()
}

// safeSubstrings lists error fragments that are safe to surface to callers
// verbatim in production mode. Anything else is replaced by a generic message.
var safeSubstrings = []string{
	"query cannot be empty",
	"query failed validation",
	"complexity exceeds",
	"rate limit exceeded",
	"cannot be profiled",
	"timed out",
	"syntax error",
}

// GenericMessage is returned to callers in production mode for any error whose
// text is not covered by the known-safe whitelist.
const GenericMessage = "the request could not be completed"

// SafeMessage returns a caller-facing message for err. When debug is true the
// full message passes through; otherwise only whitelisted fragments survive.
func SafeMessage(err error, debug bool) string {
	if err == nil {
		return ""
	}
	msg := GetMessage(err)
	if debug {
		return msg
	}
	lower := strings.ToLower(msg)
	for _, s := range safeSubstrings {
		if strings.Contains(lower, s) {
			return msg
		}
	}
	return GenericMessage
}
