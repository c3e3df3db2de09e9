package test

import (
	"context"
	"sync"

	"github.com/soletrea/atelier/internal/domain/model"
	"github.com/soletrea/atelier/internal/usecase"
)

// CheckoutFacadeStub provides controllable behaviour for checkout endpoints.
type CheckoutFacadeStub struct {
	CheckoutFn func(context.Context, usecase.CheckoutInput) (*usecase.CheckoutResult, error)
	ConfirmFn  func(context.Context, string, bool) error
}

// Checkout delegates to the configured function or returns a default result.
func (s CheckoutFacadeStub) Checkout(ctx context.Context, input usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, input)
	}
	return &usecase.CheckoutResult{
		OrderID:          "order-1",
		OrderNumber:      "ATL-TEST000001",
		PaymentSessionID: "sim_session",
		RedirectURL:      "/checkout/complete",
	}, nil
}

// ConfirmPayment delegates to the configured function.
func (s CheckoutFacadeStub) ConfirmPayment(ctx context.Context, sessionID string, captured bool) error {
	if s.ConfirmFn != nil {
		return s.ConfirmFn(ctx, sessionID, captured)
	}
	return nil
}

// CatalogFacadeStub simulates catalog reads.
type CatalogFacadeStub struct {
	ProductsFn func(context.Context) ([]model.Product, error)
	ProductFn  func(context.Context, string) (*model.Product, error)
}

// Products returns configured products or a single default listing.
func (s CatalogFacadeStub) Products(ctx context.Context) ([]model.Product, error) {
	if s.ProductsFn != nil {
		return s.ProductsFn(ctx)
	}
	return []model.Product{{ID: "p1", Name: "Vintage Bag", Brand: "Maison", PriceCents: 120000, Status: model.ProductStatusActive}}, nil
}

// Product returns configured product by id.
func (s CatalogFacadeStub) Product(ctx context.Context, id string) (*model.Product, error) {
	if s.ProductFn != nil {
		return s.ProductFn(ctx, id)
	}
	return &model.Product{ID: id, Name: "Vintage Bag", Brand: "Maison", PriceCents: 120000, Status: model.ProductStatusActive}, nil
}

// SweepFacadeStub records sweep invocations.
type SweepFacadeStub struct {
	SweepFn func(context.Context) (*model.SweepReport, error)

	mu    sync.Mutex
	Calls int
}

// SweepExpired delegates or reports an empty pass.
func (s *SweepFacadeStub) SweepExpired(ctx context.Context) (*model.SweepReport, error) {
	s.mu.Lock()
	s.Calls++
	s.mu.Unlock()
	if s.SweepFn != nil {
		return s.SweepFn(ctx)
	}
	return &model.SweepReport{}, nil
}

// CallCount returns the number of sweep invocations.
func (s *SweepFacadeStub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}

// MarketplaceFacadeStub aggregates facade stubs for router level tests.
type MarketplaceFacadeStub struct {
	CheckoutFacadeStub
	CatalogFacadeStub
	*SweepFacadeStub
}

// NewMarketplaceFacadeStub constructs the aggregate with usable defaults.
func NewMarketplaceFacadeStub() *MarketplaceFacadeStub {
	return &MarketplaceFacadeStub{SweepFacadeStub: &SweepFacadeStub{}}
}

// OutboxFacadeStub mimics dispatcher interactions with the application.
type OutboxFacadeStub struct {
	BatchFn func(context.Context, int) ([]model.OutboxEvent, error)

	mu        sync.Mutex
	Batches   [][]model.OutboxEvent
	batchCall int
	Published []string
	Requeued  []string
	MarkErr   error
}

// EventsForPublishing returns configured batches in sequence.
func (s *OutboxFacadeStub) EventsForPublishing(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	if s.BatchFn != nil {
		return s.BatchFn(ctx, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batchCall < len(s.Batches) {
		batch := s.Batches[s.batchCall]
		s.batchCall++
		return batch, nil
	}
	return nil, nil
}

// MarkEventPublished records the id.
func (s *OutboxFacadeStub) MarkEventPublished(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MarkErr != nil {
		return s.MarkErr
	}
	s.Published = append(s.Published, id)
	return nil
}

// RequeueEvent records the id.
func (s *OutboxFacadeStub) RequeueEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requeued = append(s.Requeued, id)
	return nil
}

// PublishedIDs returns marked ids under the lock.
func (s *OutboxFacadeStub) PublishedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Published...)
}

// RequeuedIDs returns requeued ids under the lock.
func (s *OutboxFacadeStub) RequeuedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Requeued...)
}

// PingerStub simulates storage health checks.
type PingerStub struct {
	Err error
}

// HealthCheck returns the configured error.
func (s PingerStub) HealthCheck(ctx context.Context) error {
	return s.Err
}
