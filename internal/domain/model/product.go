package model

import "time"

// ProductStatus describes the listing lifecycle.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusReserved ProductStatus = "RESERVED"
	ProductStatusSold     ProductStatus = "SOLD"
	ProductStatusInactive ProductStatus = "INACTIVE"
)

// Product is a consigned listing. At most one buyer holds a reservation
// at a time; ReservedBy and ReservedUntil are set only while the status
// is RESERVED.
type Product struct {
	ID            string
	ConsignorID   string
	Name          string
	Brand         string
	PriceCents    int64
	Status        ProductStatus
	ReservedBy    *string
	ReservedUntil *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HoldExpired reports whether the reservation deadline has passed. The
// deadline itself counts as expired, matching the SQL comparisons.
func (p *Product) HoldExpired(now time.Time) bool {
	return p.ReservedUntil != nil && !p.ReservedUntil.After(now)
}
