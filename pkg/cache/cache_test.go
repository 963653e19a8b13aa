package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphergate/cyphergate/pkg/models"
)

func testAnalysis(score int) *models.PlanAnalysis {
	return &models.PlanAnalysis{
		Mode:      "EXPLAIN",
		CostScore: score,
		RiskLevel: models.RiskSafe,
	}
}

func TestCachePutGet(t *testing.T) {
	c := NewMemoryCache(nil)

	key := Key("MATCH (n) RETURN n", nil)
	c.Put(key, testAnalysis(42))

	got := c.Get(key)
	require.NotNil(t, got)
	assert.Equal(t, 42, got.CostScore)

	assert.Nil(t, c.Get(Key("MATCH (m) RETURN m", nil)))
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache(DefaultConfig().WithTTL(time.Minute))
	clock := time.Now()
	c.now = func() time.Time { return clock }

	key := Key("MATCH (n) RETURN n", nil)
	c.Put(key, testAnalysis(1))
	require.NotNil(t, c.Get(key))

	clock = clock.Add(2 * time.Minute)
	assert.Nil(t, c.Get(key), "expired entries must not be served")
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(DefaultConfig().WithMaxEntries(2))
	clock := time.Now()
	c.now = func() time.Time { return clock }

	c.Put("a", testAnalysis(1))
	clock = clock.Add(time.Second)
	c.Put("b", testAnalysis(2))

	// Touch "a" so "b" becomes the eviction candidate.
	clock = clock.Add(time.Second)
	require.NotNil(t, c.Get("a"))

	clock = clock.Add(time.Second)
	c.Put("c", testAnalysis(3))

	assert.NotNil(t, c.Get("a"))
	assert.Nil(t, c.Get("b"))
	assert.NotNil(t, c.Get("c"))
}

func TestCacheOverwriteDoesNotEvict(t *testing.T) {
	c := NewMemoryCache(DefaultConfig().WithMaxEntries(2))
	c.Put("a", testAnalysis(1))
	c.Put("b", testAnalysis(2))

	c.Put("a", testAnalysis(10))

	require.NotNil(t, c.Get("a"))
	assert.Equal(t, 10, c.Get("a").CostScore)
	assert.NotNil(t, c.Get("b"))
	assert.Equal(t, uint64(0), c.Stats().Evictions)
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := NewMemoryCache(nil)
	c.Put("a", testAnalysis(1))
	c.Put("b", testAnalysis(2))

	c.Delete("a")
	assert.Nil(t, c.Get("a"))
	assert.NotNil(t, c.Get("b"))

	c.Clear()
	assert.Nil(t, c.Get("b"))
	assert.Equal(t, int64(0), c.Stats().Entries)
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewMemoryCache(DefaultConfig().WithMaxEntries(16))

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("query-%d", j%32)
				c.Put(key, testAnalysis(n))
				c.Get(key)
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		<-done
	}
}

func TestKeyIsParameterOrderIndependent(t *testing.T) {
	a := Key("MATCH (n) WHERE n.x = $x RETURN n", map[string]interface{}{"x": 1, "y": "two"})
	b := Key("MATCH (n) WHERE n.x = $x RETURN n", map[string]interface{}{"y": "two", "x": 1})
	assert.Equal(t, a, b)
}

func TestKeyDistinguishesQueriesAndParams(t *testing.T) {
	base := Key("MATCH (n) RETURN n", nil)
	assert.NotEqual(t, base, Key("MATCH (m) RETURN m", nil))
	assert.NotEqual(t, base, Key("MATCH (n) RETURN n", map[string]interface{}{"x": 1}))
	assert.NotEqual(t,
		Key("MATCH (n) RETURN n", map[string]interface{}{"x": 1}),
		Key("MATCH (n) RETURN n", map[string]interface{}{"x": 2}))
}
