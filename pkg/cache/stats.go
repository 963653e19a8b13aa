package cache

import "sync/atomic"

// Stats holds cache statistics
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int64
}

// StatsCollector collects and reports cache statistics
type StatsCollector struct {
	hits      uint64
	misses    uint64
	evictions uint64
	entries   int64
}

// NewStatsCollector creates a new statistics collector
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{}
}

// RecordHit records a cache hit
func (c *StatsCollector) RecordHit() {
	atomic.AddUint64(&c.hits, 1)
}

// RecordMiss records a cache miss
func (c *StatsCollector) RecordMiss() {
	atomic.AddUint64(&c.misses, 1)
}

// RecordEviction records a cache eviction
func (c *StatsCollector) RecordEviction() {
	atomic.AddUint64(&c.evictions, 1)
}

// UpdateEntries updates the current entry count
func (c *StatsCollector) UpdateEntries(n int64) {
	atomic.StoreInt64(&c.entries, n)
}

// GetStats returns the current cache statistics
func (c *StatsCollector) GetStats() Stats {
	return Stats{
		Hits:      atomic.LoadUint64(&c.hits),
		Misses:    atomic.LoadUint64(&c.misses),
		Evictions: atomic.LoadUint64(&c.evictions),
		Entries:   atomic.LoadInt64(&c.entries),
	}
}

// HitRate returns the cache hit rate
func (c *StatsCollector) HitRate() float64 {
	hits := atomic.LoadUint64(&c.hits)
	misses := atomic.LoadUint64(&c.misses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
