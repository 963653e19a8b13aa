package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *GateError
		expected string
	}{
		{
			name: "error without cause",
			err: &GateError{
				Code:    CodeInvalidRequest,
				Message: "invalid input",
			},
			expected: "INVALID_REQUEST: invalid input",
		},
		{
			name: "error with cause",
			err: &GateError{
				Code:    CodeInvalidRequest,
				Message: "invalid input",
				Cause:   fmt.Errorf("underlying error"),
			},
			expected: "INVALID_REQUEST: invalid input (caused by: underlying error)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestGateError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(cause, CodeEngineFailed, "engine call failed")

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestGateError_Is(t *testing.T) {
	err1 := &GateError{Code: CodeRateLimited, Message: "rate limit exceeded"}
	err2 := &GateError{Code: CodeRateLimited, Message: "different message"}
	err3 := &GateError{Code: CodeInvalidRequest, Message: "invalid"}

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
	assert.False(t, errors.Is(err1, fmt.Errorf("standard error")))
}

func TestSentinels(t *testing.T) {
	assert.True(t, IsRateLimited(ErrRateLimited))
	assert.True(t, IsWriteBlocked(ErrWriteBlocked))
	assert.True(t, IsComplexity(ErrQueryTooComplex))
	assert.True(t, IsValidation(ErrQueryRejected))

	// Wrapping preserves the code.
	wrapped := fmt.Errorf("stage failed: %w", ErrRateLimited)
	assert.True(t, IsRateLimited(wrapped))
	assert.Equal(t, CodeRateLimited, GetCode(wrapped))
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "should not happen"))
	assert.Nil(t, Wrapf(nil, CodeInternal, "should not happen %d", 1))
}

func TestWithDetail(t *testing.T) {
	err := New(CodeComplexityExceeded, "too complex").
		WithDetail("score", 750).
		WithDetail("max", 600)

	assert.Equal(t, 750, err.Details["score"])
	assert.Equal(t, 600, err.Details["max"])
}

func TestGetCode_NonGateError(t *testing.T) {
	assert.Equal(t, CodeInternal, GetCode(fmt.Errorf("plain error")))
}

func TestSafeMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		debug    bool
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "debug passes everything through",
			err:      New(CodeEngineFailed, "connection refused to 10.0.0.5:7687"),
			debug:    true,
			expected: "connection refused to 10.0.0.5:7687",
		},
		{
			name:     "internal detail is masked in production",
			err:      New(CodeEngineFailed, "connection refused to 10.0.0.5:7687"),
			expected: GenericMessage,
		},
		{
			name:     "validation message is whitelisted",
			err:      ErrQueryRejected,
			expected: "query failed validation",
		},
		{
			name:     "rate limit message is whitelisted",
			err:      ErrRateLimited,
			expected: "rate limit exceeded",
		},
		{
			name:     "timeout message is whitelisted",
			err:      ErrEngineTimeout,
			expected: "engine call timed out",
		},
		{
			name:     "plain error is masked",
			err:      fmt.Errorf("stack trace: goroutine 12"),
			expected: GenericMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SafeMessage(tt.err, tt.debug))
		})
	}
}
