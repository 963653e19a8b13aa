package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// fixedClock gives tests deterministic control over bucket refill.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestRegistry(clock *fixedClock, rules []Rule, global *Rule) *Registry {
	reg := NewRegistry(rules, global)
	reg.now = clock.now
	return reg
}

func TestCheck_BurstThenDeny(t *testing.T) {
	clock := newFixedClock()
	reg := newTestRegistry(clock, []Rule{
		{Name: "read_query", Requests: 10, Window: time.Minute, Burst: 20},
	}, nil)

	for i := 0; i < 20; i++ {
		decision := reg.Check("client-1", "read_query")
		require.True(t, decision.Allowed, "request %d should be admitted", i+1)
	}

	decision := reg.Check("client-1", "read_query")
	require.False(t, decision.Allowed)
	assert.Equal(t, "read_query", decision.Rule)
	assert.Greater(t, decision.RetryAfter, 0.0)
}

func TestCheck_RefillAfterWindow(t *testing.T) {
	clock := newFixedClock()
	reg := newTestRegistry(clock, []Rule{
		{Name: "read_query", Requests: 10, Window: time.Minute, Burst: 10},
	}, nil)

	for i := 0; i < 10; i++ {
		require.True(t, reg.Check("client-1", "read_query").Allowed)
	}
	require.False(t, reg.Check("client-1", "read_query").Allowed)

	// 10 per minute refills one token every 6 seconds.
	clock.advance(6 * time.Second)
	assert.True(t, reg.Check("client-1", "read_query").Allowed)
	assert.False(t, reg.Check("client-1", "read_query").Allowed)
}

func TestCheck_DenialConsumesNoTokens(t *testing.T) {
	clock := newFixedClock()
	reg := newTestRegistry(clock, []Rule{
		{Name: "read_query", Requests: 1, Window: time.Second, Burst: 2},
	}, nil)

	require.True(t, reg.Check("client-1", "read_query").Allowed)
	require.True(t, reg.Check("client-1", "read_query").Allowed)

	// Repeated denials must not push the refill point further out.
	for i := 0; i < 5; i++ {
		require.False(t, reg.Check("client-1", "read_query").Allowed)
	}

	clock.advance(time.Second)
	assert.True(t, reg.Check("client-1", "read_query").Allowed)
}

func TestCheck_ClientsAreIndependent(t *testing.T) {
	clock := newFixedClock()
	reg := newTestRegistry(clock, []Rule{
		{Name: "read_query", Requests: 1, Window: time.Minute, Burst: 1},
	}, nil)

	require.True(t, reg.Check("client-1", "read_query").Allowed)
	require.False(t, reg.Check("client-1", "read_query").Allowed)

	// A different client has its own bucket.
	assert.True(t, reg.Check("client-2", "read_query").Allowed)
}

func TestCheck_UnknownOperationWithoutGlobal(t *testing.T) {
	clock := newFixedClock()
	reg := newTestRegistry(clock, []Rule{
		{Name: "read_query", Requests: 1, Window: time.Minute, Burst: 1},
	}, nil)

	decision := reg.Check("client-1", "unlisted_operation")
	assert.True(t, decision.Allowed)
	assert.Equal(t, -1.0, decision.Remaining)
}

func TestCheck_GlobalRuleCapsAllOperations(t *testing.T) {
	clock := newFixedClock()
	reg := newTestRegistry(clock, []Rule{
		{Name: "read_query", Requests: 100, Window: time.Minute, Burst: 100},
		{Name: "analyze_performance", Requests: 100, Window: time.Minute, Burst: 100},
	}, &Rule{Requests: 2, Window: time.Minute, Burst: 2})

	require.True(t, reg.Check("client-1", "read_query").Allowed)
	require.True(t, reg.Check("client-1", "analyze_performance").Allowed)

	decision := reg.Check("client-1", "read_query")
	require.False(t, decision.Allowed)
	assert.Equal(t, GlobalRule, decision.Rule)
}

func TestCheck_GlobalDenialLeavesOperationBucketUntouched(t *testing.T) {
	clock := newFixedClock()
	reg := newTestRegistry(clock, []Rule{
		{Name: "read_query", Requests: 2, Window: time.Minute, Burst: 2},
	}, &Rule{Requests: 1, Window: time.Minute, Burst: 1})

	require.True(t, reg.Check("client-1", "read_query").Allowed)
	require.False(t, reg.Check("client-1", "read_query").Allowed)

	// The operation bucket kept its second token: once the global bucket
	// refills, admission succeeds without waiting on the operation rule.
	clock.advance(time.Minute)
	assert.True(t, reg.Check("client-1", "read_query").Allowed)
}

func TestCheck_RemainingIsMinimumAcrossBuckets(t *testing.T) {
	clock := newFixedClock()
	reg := newTestRegistry(clock, []Rule{
		{Name: "read_query", Requests: 100, Window: time.Minute, Burst: 100},
	}, &Rule{Requests: 5, Window: time.Minute, Burst: 5})

	decision := reg.Check("client-1", "read_query")
	require.True(t, decision.Allowed)
	assert.InDelta(t, 4.0, decision.Remaining, 0.01)
}

func TestRuleDefaults(t *testing.T) {
	r := Rule{Name: "x", Requests: 10, Window: time.Minute}
	assert.Equal(t, 10, r.burst())

	unbounded := Rule{Name: "y"}
	assert.Equal(t, rate.Inf, unbounded.limit())
}
