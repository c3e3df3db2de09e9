package ratelimit

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/soletrea/atelier/internal/config"
)

// Module wires the rate limiter for the fx graph. With a Redis address
// configured the limit is shared across instances; otherwise counting is
// per process.
var Module = fx.Provide(newLimiter)

type limiterParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newLimiter(p limiterParams) Limiter {
	if p.Config.RedisAddr == "" {
		return NewMemoryLimiter()
	}
	return NewDistributedLimiter(NewRedisBackend(p.Config.RedisAddr), p.Logger)
}
