package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/soletrea/atelier/internal/domain/errors"
	"github.com/soletrea/atelier/internal/domain/model"
)

// ProductRepositoryStub stores products in-memory and mirrors the
// conditional reservation semantics of the SQL repository.
type ProductRepositoryStub struct {
	mu       sync.Mutex
	Products map[string]*model.Product
	Now      func() time.Time
	Err      error

	ReserveFn func(context.Context, string, string, time.Time) error
	ReleaseFn func(context.Context, string, string) error
}

// NewProductRepositoryStub constructs the stub with initialized state.
func NewProductRepositoryStub(products ...*model.Product) *ProductRepositoryStub {
	s := &ProductRepositoryStub{
		Products: make(map[string]*model.Product),
		Now:      time.Now,
	}
	for _, p := range products {
		s.Products[p.ID] = p
	}
	return s
}

// GetByID returns a copy of the stored product or not found.
func (s *ProductRepositoryStub) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Products[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

// List returns all stored products.
func (s *ProductRepositoryStub) List(ctx context.Context) ([]model.Product, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Product, 0, len(s.Products))
	for _, p := range s.Products {
		out = append(out, *p)
	}
	return out, nil
}

// Reserve applies the compare-and-set rules under a single lock so
// concurrent callers observe mutual exclusion.
func (s *ProductRepositoryStub) Reserve(ctx context.Context, productID, buyerID string, until time.Time) error {
	if s.ReserveFn != nil {
		return s.ReserveFn(ctx, productID, buyerID, until)
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.Products[productID]
	if !ok {
		return domainErrors.ErrNotFound
	}

	now := s.Now()
	reservable := p.Status == model.ProductStatusActive ||
		(p.Status == model.ProductStatusReserved &&
			(p.HoldExpired(now) || (p.ReservedBy != nil && *p.ReservedBy == buyerID)))
	if !reservable {
		return domainErrors.ErrConflict
	}

	p.Status = model.ProductStatusReserved
	p.ReservedBy = &buyerID
	p.ReservedUntil = &until
	p.UpdatedAt = now
	return nil
}

// Release clears the buyer's own hold; any other state is a no-op.
func (s *ProductRepositoryStub) Release(ctx context.Context, productID, buyerID string) error {
	if s.ReleaseFn != nil {
		return s.ReleaseFn(ctx, productID, buyerID)
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Products[productID]
	if !ok || p.Status != model.ProductStatusReserved ||
		p.ReservedBy == nil || *p.ReservedBy != buyerID {
		return nil
	}
	p.Status = model.ProductStatusActive
	p.ReservedBy = nil
	p.ReservedUntil = nil
	return nil
}

// ReleaseExpired releases the hold only when its deadline already passed.
func (s *ProductRepositoryStub) ReleaseExpired(ctx context.Context, productID string, now time.Time) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Products[productID]
	if !ok || p.Status != model.ProductStatusReserved || !p.HoldExpired(now) {
		return false, nil
	}
	p.Status = model.ProductStatusActive
	p.ReservedBy = nil
	p.ReservedUntil = nil
	return true, nil
}

// MarkSold finalizes a product the buyer currently holds; anything else
// is a conflict.
func (s *ProductRepositoryStub) MarkSold(ctx context.Context, productID, buyerID string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Products[productID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if p.Status != model.ProductStatusReserved || p.ReservedBy == nil || *p.ReservedBy != buyerID {
		return domainErrors.ErrConflict
	}
	p.Status = model.ProductStatusSold
	p.ReservedBy = nil
	p.ReservedUntil = nil
	return nil
}

// ExpiredReservations lists reserved products whose hold has lapsed.
func (s *ProductRepositoryStub) ExpiredReservations(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0)
	for id, p := range s.Products {
		if len(out) >= limit {
			break
		}
		if p.Status == model.ProductStatusReserved && p.HoldExpired(now) {
			out = append(out, id)
		}
	}
	return out, nil
}

// OrderRepositoryStub allows tests to customize order persistence.
type OrderRepositoryStub struct {
	mu     sync.Mutex
	Orders map[string]*model.Order
	Err    error

	CreateFn       func(context.Context, *model.Order) error
	UpdateStatusFn func(context.Context, string, model.OrderStatus, model.PaymentStatus) error

	StatusUpdates []OrderStatusUpdate
}

// OrderStatusUpdate records an UpdateStatus invocation.
type OrderStatusUpdate struct {
	OrderID string
	Status  model.OrderStatus
	Payment model.PaymentStatus
}

// NewOrderRepositoryStub constructs the stub with initialized maps.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{Orders: make(map[string]*model.Order)}
}

// Create stores the order.
func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.Order) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *order
	s.Orders[order.ID] = &copied
	return nil
}

// GetByID fetches a stored order or returns not found.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id string) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

// GetBySession fetches the order attached to a payment session.
func (s *OrderRepositoryStub) GetBySession(ctx context.Context, sessionID string) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.Orders {
		if o.PaymentSessionID != nil && *o.PaymentSessionID == sessionID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// AttachPaymentSession links the gateway session to the order.
func (s *OrderRepositoryStub) AttachPaymentSession(ctx context.Context, orderID, sessionID string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	o.PaymentSessionID = &sessionID
	return nil
}

// UpdateStatus records the transition and applies it to stored state.
func (s *OrderRepositoryStub) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, payment model.PaymentStatus) error {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, orderID, status, payment)
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StatusUpdates = append(s.StatusUpdates, OrderStatusUpdate{OrderID: orderID, Status: status, Payment: payment})
	o, ok := s.Orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	o.Status = status
	o.PaymentStatus = payment
	return nil
}

// OutboxRepositoryStub collects appended events in-memory.
type OutboxRepositoryStub struct {
	mu     sync.Mutex
	Events []model.OutboxEvent
	Err    error

	Published []string
	Requeued  []string
}

// Append stores the event.
func (s *OutboxRepositoryStub) Append(ctx context.Context, event *model.OutboxEvent) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, *event)
	return nil
}

// SelectBatchForPublishing claims pending events up to the limit.
func (s *OutboxRepositoryStub) SelectBatchForPublishing(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.OutboxEvent, 0, limit)
	for i := range s.Events {
		if len(out) >= limit {
			break
		}
		if s.Events[i].Status == model.OutboxStatusPending {
			s.Events[i].Status = model.OutboxStatusPublishing
			out = append(out, s.Events[i])
		}
	}
	return out, nil
}

// MarkPublished records the transition.
func (s *OutboxRepositoryStub) MarkPublished(ctx context.Context, id string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Published = append(s.Published, id)
	for i := range s.Events {
		if s.Events[i].ID == id {
			s.Events[i].Status = model.OutboxStatusPublished
		}
	}
	return nil
}

// Requeue returns a claimed event to the pending state.
func (s *OutboxRepositoryStub) Requeue(ctx context.Context, id string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requeued = append(s.Requeued, id)
	for i := range s.Events {
		if s.Events[i].ID == id {
			s.Events[i].Status = model.OutboxStatusPending
		}
	}
	return nil
}

// EventTypes returns the appended event types in order.
func (s *OutboxRepositoryStub) EventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, 0, len(s.Events))
	for _, e := range s.Events {
		types = append(types, e.Type)
	}
	return types
}
