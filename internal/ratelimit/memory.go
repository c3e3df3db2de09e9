package ratelimit

import (
	"context"
	"sync"
	"time"
)

const pruneEvery = time.Minute

type record struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps fixed-window counters in-process. Counters for
// different server instances are independent; use DistributedLimiter
// when the limit must be shared.
type MemoryLimiter struct {
	mu        sync.Mutex
	records   map[string]*record
	lastPrune time.Time
	now       func() time.Time
}

// NewMemoryLimiter constructs an empty in-process limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Check applies the fixed-window policy for key.
func (l *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	rec, ok := l.records[key]
	if !ok || !rec.resetAt.After(now) {
		rec = &record{count: 1, resetAt: now.Add(window)}
		l.records[key] = rec
		return Decision{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: rec.resetAt}
	}

	rec.count++
	if rec.count > limit {
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    rec.resetAt,
			RetryAfter: rec.resetAt.Sub(now),
		}
	}
	return Decision{Allowed: true, Limit: limit, Remaining: limit - rec.count, ResetAt: rec.resetAt}
}

// prune drops expired windows. Runs at most once per pruneEvery while
// the lock is already held.
func (l *MemoryLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < pruneEvery {
		return
	}
	l.lastPrune = now
	for key, rec := range l.records {
		if !rec.resetAt.After(now) {
			delete(l.records, key)
		}
	}
}
