package ratelimit

import (
	"context"
	"sync"
	"time"
)

const minCleanupInterval = time.Minute

// Config stores TokenBucketLimiter settings.
type Config struct {
	Rate       float64       // tokens per second
	Burst      int           // capacity
	TTL        time.Duration // forget keys idle longer than this, 0 keeps them
	MaxBuckets int           // 0 means unbounded
}

// TokenBucketLimiter is an in-process per-key token bucket.
// Each key stores its theoretical arrival time instead of a token count:
// a request is admitted while the schedule is at most Burst intervals ahead of now.
// New keys are refused once MaxBuckets keys are tracked.
type TokenBucketLimiter struct {
	interval time.Duration
	horizon  time.Duration
	ttl      time.Duration
	max      int
	clock    Clock

	mu          sync.Mutex
	buckets     map[string]bucket
	lastCleanup time.Time
}

type bucket struct {
	tat  time.Time
	seen time.Time
}

// NewTokenBucketLimiter creates limiter with explicit config and injected clock.
func NewTokenBucketLimiter(clock Clock, cfg Config) *TokenBucketLimiter {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	interval := time.Duration(float64(time.Second) / cfg.Rate)
	if interval <= 0 {
		interval = time.Nanosecond
	}
	return &TokenBucketLimiter{
		interval: interval,
		horizon:  interval * time.Duration(cfg.Burst),
		ttl:      cfg.TTL,
		max:      max(cfg.MaxBuckets, 0),
		clock:    clock,
		buckets:  make(map[string]bucket),
	}
}

// NewTokenBucketPerWindow admits limit requests per window with a burst of limit.
func NewTokenBucketPerWindow(clock Clock, limit int, window time.Duration, ttl time.Duration, maxBuckets int) *TokenBucketLimiter {
	if window <= 0 {
		window = time.Second
	}
	if limit <= 0 {
		limit = 1
	}
	return NewTokenBucketLimiter(clock, Config{
		Rate:       float64(limit) / window.Seconds(),
		Burst:      limit,
		TTL:        ttl,
		MaxBuckets: maxBuckets,
	})
}

// Allow reports whether key may proceed and consumes one token if so.
func (l *TokenBucketLimiter) Allow(_ context.Context, key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanupLocked(now)

	b, ok := l.buckets[key]
	if !ok {
		if l.max > 0 && len(l.buckets) >= l.max {
			return false
		}
		b = bucket{tat: now}
	}
	b.seen = now

	next := b.tat
	if next.Before(now) {
		next = now
	}
	next = next.Add(l.interval)

	allowed := next.Sub(now) <= l.horizon
	if allowed {
		b.tat = next
	}
	l.buckets[key] = b
	return allowed
}

func (l *TokenBucketLimiter) cleanupLocked(now time.Time) {
	if l.ttl <= 0 {
		return
	}
	every := max(l.ttl/2, minCleanupInterval)
	if !l.lastCleanup.IsZero() && now.Sub(l.lastCleanup) < every {
		return
	}
	l.lastCleanup = now

	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.ttl {
			delete(l.buckets, k)
		}
	}
}
