package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig sizes the per-requester budget for the mutating
// booking routes (hold creation, extend, finalize).  The budget models
// a real checkout: a burst while the user picks seats, then a slow
// refill.  Seat-map reads are never limited.
type RateLimitConfig struct {
	Enabled     bool          // master switch
	Burst       int           // bucket capacity, spent one token per request
	RefillEvery time.Duration // one token restored per interval
	TTL         time.Duration // idle buckets expire after this
	Prefix      string        // Redis key namespace
}

// LoadRateLimitConfig reads the limiter settings from the environment.
// The defaults allow a burst of 8 mutating requests with one token
// back every 2 seconds, which is generous for a human checkout and
// tight for a scripted one.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:     envBool("BOOKING_RATE_LIMIT_ENABLED", true),
		Burst:       envInt("BOOKING_RATE_LIMIT_BURST", 8),
		RefillEvery: envDur("BOOKING_RATE_LIMIT_REFILL_EVERY", 2*time.Second),
		TTL:         envDur("BOOKING_RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:      envStr("BOOKING_RATE_LIMIT_PREFIX", "booking:rl"),
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillEvery <= 0 {
		cfg.RefillEvery = 2 * time.Second
	}
	// A bucket must outlive a full refill, or idle expiry would hand
	// back tokens early.
	if min := time.Duration(cfg.Burst) * cfg.RefillEvery; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return d
	}
	return b
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
