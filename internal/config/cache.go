package config

import "time"

// CacheConfig defines settings for the response cache middleware on the
// read-only endpoints.  When Enabled is false or no Redis client is
// configured, caching is disabled.  TTL is deliberately short: a cached
// availability answer only needs to survive a burst of identical cart
// refreshes, and every commit re-checks under the equipment lock.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 15*time.Second),
		Prefix:       getenv("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
