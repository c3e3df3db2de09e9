package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/soletrea/atelier/internal/adapter/payment"
	"github.com/soletrea/atelier/internal/config"
	"github.com/soletrea/atelier/internal/domain/repository"
	"github.com/soletrea/atelier/internal/ratelimit"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewReservationUseCase,
	NewCatalogUseCase,
	NewOutboxUseCase,
	newCheckoutUseCase,
	newSweepUseCase,
)

type checkoutParams struct {
	fx.In

	Reservations *ReservationUseCase
	Products     repository.ProductRepository
	Orders       repository.OrderRepository
	Outbox       repository.OutboxRepository
	Limiter      ratelimit.Limiter
	Payments     payment.Client
	Config       *config.Config
	Logger       *slog.Logger
}

func newCheckoutUseCase(p checkoutParams) *CheckoutUseCase {
	return NewCheckoutUseCase(
		p.Reservations,
		p.Products,
		p.Orders,
		p.Outbox,
		p.Limiter,
		p.Payments,
		p.Config.PaymentMode,
		p.Config.ReservationTTL,
		p.Logger,
	)
}

type sweepParams struct {
	fx.In

	Reservations *ReservationUseCase
	Outbox       repository.OutboxRepository
	Config       *config.Config
	Logger       *slog.Logger
}

func newSweepUseCase(p sweepParams) *SweepUseCase {
	return NewSweepUseCase(p.Reservations, p.Outbox, p.Config.MaxSweepBatch, p.Logger)
}
