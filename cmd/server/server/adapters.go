// Package server composes the query gateway from its configuration.
package server

import (
	"time"

	"github.com/cyphergate/cyphergate/pkg/infrastructure/metrics"
	"github.com/cyphergate/cyphergate/pkg/services"
)

// metricsAdapter adapts the infrastructure metrics collector to the service
// layer's MetricsCollector interface.
type metricsAdapter struct {
	collector metrics.Collector
}

func newMetricsAdapter(collector metrics.Collector) services.MetricsCollector {
	return &metricsAdapter{collector: collector}
}

func (m *metricsAdapter) IncrementCounter(name string, labels ...string) {
	m.collector.IncrementCounter(name, labels...)
}

func (m *metricsAdapter) RecordHistogram(name string, value float64, labels ...string) {
	m.collector.RecordHistogram(name, value, labels...)
}

func (m *metricsAdapter) RecordGauge(name string, value float64, labels ...string) {
	m.collector.RecordGauge(name, value, labels...)
}

func (m *metricsAdapter) StartTimer(name string) services.Timer {
	return &timerAdapter{timer: m.collector.StartTimer(name)}
}

// timerAdapter converts the collector's elapsed seconds to a Duration.
type timerAdapter struct {
	timer metrics.Timer
}

func (t *timerAdapter) Stop() time.Duration {
	return time.Duration(t.timer.Stop() * float64(time.Second))
}
