package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	domainErrors "github.com/soletrea/atelier/internal/domain/errors"
	"github.com/soletrea/atelier/internal/domain/repository"
)

// ReservationUseCase owns every mutation of the product hold fields.
// Nothing else in the service writes reserved_by/reserved_until.
type ReservationUseCase struct {
	products repository.ProductRepository
	now      func() time.Time
}

// NewReservationUseCase constructs ReservationUseCase.
func NewReservationUseCase(products repository.ProductRepository) *ReservationUseCase {
	return &ReservationUseCase{products: products, now: time.Now}
}

// Reserve places a time-boxed hold on a product for a buyer. Exactly one
// of N concurrent attempts on the same item succeeds; the rest get
// errors.ErrConflict.
func (u *ReservationUseCase) Reserve(ctx context.Context, productID, buyerID string, ttl time.Duration) error {
	if strings.TrimSpace(productID) == "" || strings.TrimSpace(buyerID) == "" {
		return fmt.Errorf("%w: product and buyer are required", domainErrors.ErrValidation)
	}
	if ttl <= 0 {
		return fmt.Errorf("%w: reservation ttl must be positive", domainErrors.ErrValidation)
	}
	return u.products.Reserve(ctx, productID, buyerID, u.now().Add(ttl))
}

// Release clears the buyer's hold, restoring the item to ACTIVE. Safe
// on products the buyer no longer holds.
func (u *ReservationUseCase) Release(ctx context.Context, productID, buyerID string) error {
	return u.products.Release(ctx, productID, buyerID)
}

// MarkSold moves the buyer's reserved product to its terminal SOLD
// state. Fails with errors.ErrConflict when the hold belongs to someone
// else or has already been released.
func (u *ReservationUseCase) MarkSold(ctx context.Context, productID, buyerID string) error {
	return u.products.MarkSold(ctx, productID, buyerID)
}

// ExpiredHolds lists products whose reservation deadline has passed.
func (u *ReservationUseCase) ExpiredHolds(ctx context.Context, limit int) ([]string, error) {
	return u.products.ExpiredReservations(ctx, u.now(), limit)
}

// ReleaseExpired releases a hold only when it is actually past its
// deadline, so a sweep racing a fresh reservation never drops a live hold.
func (u *ReservationUseCase) ReleaseExpired(ctx context.Context, productID string) (bool, error) {
	return u.products.ReleaseExpired(ctx, productID, u.now())
}
