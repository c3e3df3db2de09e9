package di

import (
	"go.uber.org/fx"

	"github.com/soletrea/atelier/internal/adapter/payment"
	"github.com/soletrea/atelier/internal/adapter/stream"
	"github.com/soletrea/atelier/internal/app"
	"github.com/soletrea/atelier/internal/config"
	"github.com/soletrea/atelier/internal/logger"
	"github.com/soletrea/atelier/internal/ratelimit"
	"github.com/soletrea/atelier/internal/server/http/handlers"
	"github.com/soletrea/atelier/internal/server/http/router"
	"github.com/soletrea/atelier/internal/storage/postgres"
	"github.com/soletrea/atelier/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		postgres.Module,
		ratelimit.Module,
		payment.Module,
		stream.Module,
		usecase.Module,
		fx.Provide(func(f *app.MarketplaceFacade) handlers.MarketplaceFacade { return f }),
		fx.Provide(func(s *postgres.Storage) handlers.Pinger { return s }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
