// Package services composes the validation pipeline and exposes the gateway's
// synchronous operations.
package services

import "time"

// Logger defines the logging interface used by the service layer.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// MetricsCollector defines metrics collection interface.
type MetricsCollector interface {
	IncrementCounter(name string, labels ...string)
	RecordHistogram(name string, value float64, labels ...string)
	RecordGauge(name string, value float64, labels ...string)
	StartTimer(name string) Timer
}

// Timer represents a timing measurement.
type Timer interface {
	Stop() time.Duration
}

// NopLogger discards all log output. Useful in tests.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

// NopMetrics discards all metrics.
type NopMetrics struct{}

func (NopMetrics) IncrementCounter(string, ...string)         {}
func (NopMetrics) RecordHistogram(string, float64, ...string) {}
func (NopMetrics) RecordGauge(string, float64, ...string)     {}
func (NopMetrics) StartTimer(string) Timer                    { return nopTimer{} }

type nopTimer struct{}

func (nopTimer) Stop() time.Duration { return 0 }
