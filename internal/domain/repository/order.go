package repository

import (
	"context"

	"github.com/soletrea/atelier/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetBySession(ctx context.Context, sessionID string) (*model.Order, error)
	AttachPaymentSession(ctx context.Context, orderID, sessionID string) error
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, payment model.PaymentStatus) error
}
