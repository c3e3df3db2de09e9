package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Decision is the outcome of a single rate-limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter counts requests per key inside a fixed window. Implementations
// report contention through the Decision value and never through an error.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) Decision
}

// LimitExceededError carries the denying decision so callers can surface
// retry hints.
type LimitExceededError struct {
	Decision Decision
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.Decision.RetryAfter)
}
