package app

import (
	"context"

	"github.com/soletrea/atelier/internal/domain/model"
	"github.com/soletrea/atelier/internal/usecase"
)

// MarketplaceFacade is the single entry point the transport and worker
// layers use to reach application behavior.
type MarketplaceFacade struct {
	checkout *usecase.CheckoutUseCase
	catalog  *usecase.CatalogUseCase
	sweep    *usecase.SweepUseCase
	outbox   *usecase.OutboxUseCase
}

func NewMarketplaceFacade(checkout *usecase.CheckoutUseCase, catalog *usecase.CatalogUseCase, sweep *usecase.SweepUseCase, outbox *usecase.OutboxUseCase) *MarketplaceFacade {
	return &MarketplaceFacade{checkout: checkout, catalog: catalog, sweep: sweep, outbox: outbox}
}

func (f *MarketplaceFacade) Checkout(ctx context.Context, input usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
	return f.checkout.Checkout(ctx, input)
}

func (f *MarketplaceFacade) ConfirmPayment(ctx context.Context, sessionID string, captured bool) error {
	return f.checkout.ConfirmPayment(ctx, sessionID, captured)
}

func (f *MarketplaceFacade) Products(ctx context.Context) ([]model.Product, error) {
	return f.catalog.List(ctx)
}

func (f *MarketplaceFacade) Product(ctx context.Context, id string) (*model.Product, error) {
	return f.catalog.Get(ctx, id)
}

func (f *MarketplaceFacade) SweepExpired(ctx context.Context) (*model.SweepReport, error) {
	return f.sweep.Sweep(ctx)
}

func (f *MarketplaceFacade) EventsForPublishing(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	return f.outbox.SelectBatchForPublishing(ctx, limit)
}

func (f *MarketplaceFacade) MarkEventPublished(ctx context.Context, id string) error {
	return f.outbox.MarkPublished(ctx, id)
}

func (f *MarketplaceFacade) RequeueEvent(ctx context.Context, id string) error {
	return f.outbox.Requeue(ctx, id)
}
