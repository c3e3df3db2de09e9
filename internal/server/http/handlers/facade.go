package handlers

import (
	"context"

	"github.com/soletrea/atelier/internal/domain/model"
	"github.com/soletrea/atelier/internal/usecase"
)

// CheckoutFacade describes checkout capabilities required by handlers.
type CheckoutFacade interface {
	Checkout(ctx context.Context, input usecase.CheckoutInput) (*usecase.CheckoutResult, error)
	ConfirmPayment(ctx context.Context, sessionID string, captured bool) error
}

// CatalogFacade provides read access to the product catalog.
type CatalogFacade interface {
	Products(ctx context.Context) ([]model.Product, error)
	Product(ctx context.Context, id string) (*model.Product, error)
}

// SweepFacade exposes the expiry sweep as an operation.
type SweepFacade interface {
	SweepExpired(ctx context.Context) (*model.SweepReport, error)
}

// MarketplaceFacade aggregates the full set of operations used across handlers.
type MarketplaceFacade interface {
	CheckoutFacade
	CatalogFacade
	SweepFacade
}

// Pinger reports storage reachability for health checks.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}
