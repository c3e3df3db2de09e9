package repository

import (
	"context"
	"time"

	"github.com/soletrea/atelier/internal/domain/model"
)

// ProductRepository describes persistence operations with products.
// Reserve is the only conditional write: it must be a single atomic
// compare-and-set, never a read followed by a write.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)

	// Reserve places a hold on an item until the given deadline.
	// Succeeds when the item is ACTIVE, when an existing hold has
	// expired, or when the same buyer re-reserves. Returns
	// errors.ErrConflict when another buyer holds a live reservation
	// and errors.ErrNotFound for unknown products.
	Reserve(ctx context.Context, productID, buyerID string, until time.Time) error

	// Release clears the buyer's own hold and restores ACTIVE.
	// Idempotent: a product the buyer does not hold is left untouched
	// without error, so a stale caller cannot drop someone else's hold.
	Release(ctx context.Context, productID, buyerID string) error

	// ReleaseExpired releases the hold only when its deadline is
	// before now. Reports whether a hold was actually released.
	ReleaseExpired(ctx context.Context, productID string, now time.Time) (bool, error)

	// MarkSold transitions the buyer's live reservation to the
	// terminal SOLD state and clears the hold fields. Returns
	// errors.ErrConflict when the buyer no longer holds the item and
	// errors.ErrNotFound for unknown products.
	MarkSold(ctx context.Context, productID, buyerID string) error

	// ExpiredReservations lists products whose hold deadline passed.
	ExpiredReservations(ctx context.Context, now time.Time, limit int) ([]string, error)
}
