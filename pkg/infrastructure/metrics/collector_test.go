package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoOpCollector_DoesNothing(t *testing.T) {
	collector := NewNoOpCollector()

	// None of these may panic.
	collector.IncrementCounter("gateway_test_counter", "operation", "read_query")
	collector.RecordHistogram("gateway_test_histogram", 42.0)
	collector.RecordGauge("gateway_test_gauge", 42.0)
}

func TestNoOpCollector_StartTimer(t *testing.T) {
	collector := NewNoOpCollector()
	timer := collector.StartTimer("gateway_test_timer")

	time.Sleep(10 * time.Millisecond)

	duration := timer.Stop()
	assert.Greater(t, duration, 0.0, "timer duration should be greater than 0")
	assert.Less(t, duration, 1.0, "timer duration should be less than 1 second")
}
