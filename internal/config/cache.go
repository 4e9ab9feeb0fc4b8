package config

import (
	"strings"
	"time"
)

// CacheConfig tunes the response cache fronting the public availability
// feed. The feed is the hottest read path and recomputes rule expansion
// on every request, so even a short TTL absorbs most of the load. A
// booking or cancellation can leave a cached day stale for up to TTL;
// 60 seconds keeps that window acceptable.
//
// KeyStrategy "date" keys entries by the requested calendar date, so a
// day's feed is cached once regardless of incidental query noise.
// "route_query" falls back to keying on the full query string.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* environment variables, with defaults
// sized for the availability endpoint.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 60*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "date"),
		Prefix:       envStr("CACHE_PREFIX", "avail"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 60 * time.Second
	}
	return cfg
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(strings.ToUpper(p)); p != "" {
			m[p] = true
		}
	}
	return m
}
