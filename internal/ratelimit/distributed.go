package ratelimit

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// counterKeyPrefix namespaces limiter keys in the shared store.
	counterKeyPrefix = "ratelimit:"

	backendTimeout = 2 * time.Second

	// Above this per-call latency the limiter reports itself degraded
	// while still serving decisions from the backend.
	defaultLatencyThreshold = 250 * time.Millisecond
)

// CounterBackend increments the fixed-window counter for key in a store
// shared by all server processes. It reports the count after the
// increment and the time remaining in the current window.
type CounterBackend interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, expiresIn time.Duration, err error)
}

// RedisBackend implements CounterBackend over a Redis counter.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects a counter backend to the given Redis address.
func NewRedisBackend(addr string) *RedisBackend {
	return &RedisBackend{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Incr bumps the counter and starts the window expiry on first hit.
func (b *RedisBackend) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := b.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	count := incr.Val()
	expiresIn := ttl.Val()
	if count == 1 || expiresIn < 0 {
		if err := b.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		expiresIn = window
	}
	return count, expiresIn, nil
}

// Close releases the underlying Redis connection.
func (b *RedisBackend) Close() error { return b.client.Close() }

// DistributedLimiter shares fixed-window counters across processes via a
// CounterBackend. Infrastructure failure never denies a request: on
// backend errors the check falls back to a per-process limiter and the
// limiter reports itself degraded.
type DistributedLimiter struct {
	backend          CounterBackend
	fallback         Limiter
	logger           *slog.Logger
	latencyThreshold time.Duration
	degraded         atomic.Bool
	now              func() time.Time
}

// NewDistributedLimiter constructs the shared limiter with a local
// fallback.
func NewDistributedLimiter(backend CounterBackend, logger *slog.Logger) *DistributedLimiter {
	return &DistributedLimiter{
		backend:          backend,
		fallback:         NewMemoryLimiter(),
		logger:           logger,
		latencyThreshold: defaultLatencyThreshold,
		now:              time.Now,
	}
}

// Check consults the shared counter, falling back to the local limiter
// when the backend is unreachable.
func (l *DistributedLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) Decision {
	callCtx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	start := time.Now()
	count, expiresIn, err := l.backend.Incr(callCtx, counterKeyPrefix+key, window)
	if err != nil {
		l.degraded.Store(true)
		l.logger.Warn("rate limit backend unavailable, using local counter",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return l.fallback.Check(ctx, key, limit, window)
	}

	if latency := time.Since(start); latency > l.latencyThreshold {
		l.degraded.Store(true)
		l.logger.Warn("rate limit backend slow", slog.Duration("latency", latency))
	} else {
		l.degraded.Store(false)
	}

	resetAt := l.now().Add(expiresIn)
	if count > int64(limit) {
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: expiresIn,
		}
	}
	return Decision{Allowed: true, Limit: limit, Remaining: limit - int(count), ResetAt: resetAt}
}

// Degraded reports whether the last backend interaction failed or was
// slower than the latency threshold.
func (l *DistributedLimiter) Degraded() bool {
	return l.degraded.Load()
}
