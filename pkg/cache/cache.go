// Package cache provides an in-memory cache for plan analyses. EXPLAIN is a
// pure function of the query text for a fixed schema, so repeated analysis of
// the same query can be answered without an engine round trip.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cyphergate/cyphergate/pkg/models"
)

// Cache stores plan analyses keyed by query identity.
type Cache interface {
	// Get retrieves a cached analysis, or nil on a miss.
	Get(key string) *models.PlanAnalysis
	// Put stores an analysis under the given key.
	Put(key string, analysis *models.PlanAnalysis)
	// Delete removes a single entry.
	Delete(key string)
	// Clear removes all entries.
	Clear()
	// Stats reports the cache counters.
	Stats() Stats
}

type entry struct {
	analysis  *models.PlanAnalysis
	createdAt time.Time
	lastUsed  time.Time
}

// MemoryCache is an in-memory Cache with a fixed entry capacity and TTL
// expiry. Eviction is least-recently-used. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	cfg     *Config
	stats   *StatsCollector

	// now is replaceable in tests.
	now func() time.Time
}

// NewMemoryCache creates a cache with the given configuration. A nil config
// uses the defaults.
func NewMemoryCache(cfg *Config) *MemoryCache {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &MemoryCache{
		entries: make(map[string]*entry),
		cfg:     cfg,
		stats:   NewStatsCollector(),
		now:     time.Now,
	}
}

// Get retrieves a cached analysis. Expired entries are removed on access and
// count as misses.
func (c *MemoryCache) Get(key string) *models.PlanAnalysis {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.stats.RecordMiss()
		return nil
	}
	if c.cfg.TTL > 0 && c.now().Sub(e.createdAt) > c.cfg.TTL {
		delete(c.entries, key)
		c.stats.RecordEviction()
		c.stats.RecordMiss()
		return nil
	}
	e.lastUsed = c.now()
	c.stats.RecordHit()
	return e.analysis
}

// Put stores an analysis, evicting the least recently used entry when the
// cache is full.
func (c *MemoryCache) Put(key string, analysis *models.PlanAnalysis) {
	if analysis == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.cfg.MaxEntries {
		c.evictOldest()
	}
	now := c.now()
	c.entries[key] = &entry{analysis: analysis, createdAt: now, lastUsed: now}
	c.stats.UpdateEntries(int64(len(c.entries)))
}

// Delete removes a single entry.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.stats.UpdateEntries(int64(len(c.entries)))
}

// Clear removes all entries.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.stats.UpdateEntries(0)
}

// Stats reports the cache counters.
func (c *MemoryCache) Stats() Stats {
	return c.stats.GetStats()
}

// evictOldest removes the least recently used entry. Caller holds the lock.
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.lastUsed.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastUsed
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.stats.RecordEviction()
	}
}

// Key derives a cache key from the query text and its parameters. Parameter
// order must not matter, so names are hashed in sorted order.
func Key(query string, params map[string]interface{}) string {
	h := sha256.New()
	h.Write([]byte(query))
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(h, "\x00%s\x00%v", name, params[name])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
