package cache

import "time"

// Config holds the configuration for the cache
type Config struct {
	// MaxEntries is the maximum number of cached analyses
	MaxEntries int
	// TTL is the time-to-live for cache entries; zero disables expiry
	TTL time.Duration
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() *Config {
	return &Config{
		MaxEntries: 1024,
		TTL:        5 * time.Minute,
	}
}

// WithMaxEntries sets the maximum number of entries
func (c *Config) WithMaxEntries(n int) *Config {
	c.MaxEntries = n
	return c
}

// WithTTL sets the time-to-live for cache entries
func (c *Config) WithTTL(ttl time.Duration) *Config {
	c.TTL = ttl
	return c
}
