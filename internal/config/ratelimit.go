package config

import "time"

// Bucket is the shape of one token bucket: Capacity tokens, topped up by
// RefillTokens every RefillInterval.
type Bucket struct {
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
}

// TTL is how long an idle bucket is kept in Redis: long enough to refill
// completely, plus one interval.
func (b Bucket) TTL() time.Duration {
    steps := (b.Capacity + b.RefillTokens - 1) / b.RefillTokens
    return time.Duration(steps+1) * b.RefillInterval
}

func (b Bucket) normalized() Bucket {
    if b.Capacity < 1 {
        b.Capacity = 1
    }
    if b.RefillTokens < 1 {
        b.RefillTokens = 1
    }
    if b.RefillInterval <= 0 {
        b.RefillInterval = time.Second
    }
    return b
}

// RateLimitConfig configures the Redis token buckets.
//
// General applies to every API route and is keyed by client address and
// route pattern.  Booking additionally applies to
// POST /screenings/:id/reservations and is keyed by client address and
// screening id, so one client retrying seats on a single screening is
// throttled without affecting its other requests.
type RateLimitConfig struct {
    Enabled bool
    Prefix  string
    Debug   bool // exposes the bucket key in X-RateLimit-Key
    General Bucket
    Booking Bucket
}

// LoadRateLimitConfig reads RATE_LIMIT_* for the general bucket and
// RATE_LIMIT_BOOKING_* for the booking bucket.
func LoadRateLimitConfig() RateLimitConfig {
    return RateLimitConfig{
        Enabled: envBool("RATE_LIMIT_ENABLED", true),
        Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:   envBool("RATE_LIMIT_DEBUG", false),
        General: loadBucket("RATE_LIMIT_", Bucket{Capacity: 60, RefillTokens: 1, RefillInterval: time.Second}),
        Booking: loadBucket("RATE_LIMIT_BOOKING_", Bucket{Capacity: 5, RefillTokens: 1, RefillInterval: 10 * time.Second}),
    }
}

func loadBucket(prefix string, def Bucket) Bucket {
    return Bucket{
        Capacity:       envInt(prefix+"CAPACITY", def.Capacity),
        RefillTokens:   envInt(prefix+"REFILL_TOKENS", def.RefillTokens),
        RefillInterval: envDur(prefix+"REFILL_INTERVAL", def.RefillInterval),
    }.normalized()
}
