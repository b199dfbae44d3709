package config

import "time"

// CacheConfig controls the calendar response cache.  When Enabled is
// false or no Redis client is configured, caching is disabled.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads cache settings from the environment with
// defaults suited to calendar reads (short TTL, availability changes on
// every booking).
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled: boolEnv("CACHE_ENABLED", true),
		TTL:     durEnv("CACHE_TTL", 30*time.Second),
		Prefix:  strEnv("CACHE_PREFIX", "cal"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return cfg
}
