package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig controls the fixed-window request limiter applied in
// front of the API.  Disabled (or a nil Redis client) turns the
// middleware into a pass-through.
type RateLimitConfig struct {
	Enabled bool
	Limit   int           // requests allowed per window
	Window  time.Duration // window length
	Prefix  string        // redis key namespace
}

// LoadRateLimitConfig reads the rate limiter settings from the
// environment with safe defaults.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: boolEnv("RATE_LIMIT_ENABLED", true),
		Limit:   intEnv("RATE_LIMIT_REQUESTS", 60),
		Window:  durEnv("RATE_LIMIT_WINDOW", time.Minute),
		Prefix:  strEnv("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Limit < 1 {
		cfg.Limit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}

func strEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func durEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}
