// Package models contains domain models shared across the gateway.
package models

import "time"

// Request is an inbound query request handed over by the transport layer.
type Request struct {
	OperationName string                 `json:"operation_name"`
	Query         string                 `json:"query"`
	Parameters    map[string]interface{} `json:"parameters,omitempty"`
	SessionID     string                 `json:"session_id"`
	Timeout       time.Duration          `json:"timeout,omitempty"`
}

// AnalyzeRequest asks for performance analysis of a query instead of
// execution.
type AnalyzeRequest struct {
	Query             string                 `json:"query"`
	Parameters        map[string]interface{} `json:"parameters,omitempty"`
	SessionID         string                 `json:"session_id"`
	Mode              AnalyzeMode            `json:"mode"`
	AllowWriteQueries bool                   `json:"allow_write_queries"`
}

// Response is the synchronous result of one gateway operation.
type Response struct {
	Success  bool                   `json:"success"`
	Data     interface{}            `json:"data,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Warnings []string               `json:"warnings,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// OK builds a successful response carrying data.
func OK(data interface{}) *Response {
	return &Response{Success: true, Data: data}
}

// Fail builds a failed response with a caller-facing error message.
func Fail(msg string) *Response {
	return &Response{Success: false, Error: msg}
}

// WithWarnings attaches accumulated warnings to the response.
func (r *Response) WithWarnings(warnings []string) *Response {
	if len(warnings) > 0 {
		r.Warnings = append(r.Warnings, warnings...)
	}
	return r
}

// WithMeta attaches a single metadata entry to the response.
func (r *Response) WithMeta(key string, value interface{}) *Response {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	r.Metadata[key] = value
	return r
}
