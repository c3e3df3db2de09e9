package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/soletrea/atelier/internal/adapter/stream"
	"github.com/soletrea/atelier/internal/config"
	"github.com/soletrea/atelier/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewMarketplaceFacade,
		newHTTPServer,
		newSweeper,
		newOutboxDispatcher,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type sweeperParams struct {
	fx.In

	Facade *MarketplaceFacade
	Config *config.Config
	Logger *slog.Logger
}

func newSweeper(p sweeperParams) *worker.Sweeper {
	return worker.NewSweeper(p.Facade, p.Config.SweepInterval, p.Logger)
}

type dispatcherParams struct {
	fx.In

	Facade    *MarketplaceFacade
	Publisher stream.Publisher
	Config    *config.Config
	Logger    *slog.Logger
}

// newOutboxDispatcher returns nil when no brokers are configured; the
// outbox then accumulates events until a relay is attached.
func newOutboxDispatcher(p dispatcherParams) *worker.OutboxDispatcher {
	if len(p.Config.KafkaBrokers) == 0 {
		p.Logger.Info("outbox dispatcher disabled, no brokers configured")
		return nil
	}
	return worker.NewOutboxDispatcher(
		p.Facade,
		p.Publisher,
		p.Config.OutboxPollInterval,
		p.Config.MaxOutboxBatch,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Sweeper    *worker.Sweeper
	Dispatcher *worker.OutboxDispatcher
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting atelier", slog.String("addr", p.Server.Addr))
			p.Sweeper.Start(ctx)
			if p.Dispatcher != nil {
				p.Dispatcher.Start(ctx)
			}
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if p.Dispatcher != nil {
				p.Dispatcher.Stop()
			}
			p.Sweeper.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("atelier stopped")
			return nil
		},
	})
}
