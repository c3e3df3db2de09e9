package dto

import (
	"time"

	"github.com/soletrea/atelier/internal/domain/model"
)

// ProductResponse is the public catalog view of a product.
type ProductResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Brand         string     `json:"brand"`
	PriceCents    int64      `json:"price_cents"`
	Status        string     `json:"status"`
	ReservedUntil *time.Time `json:"reserved_until,omitempty"`
}

// NewProductResponse maps a domain product into its API shape. The
// holder of a reservation is never exposed.
func NewProductResponse(p *model.Product) ProductResponse {
	resp := ProductResponse{
		ID:         p.ID,
		Name:       p.Name,
		Brand:      p.Brand,
		PriceCents: p.PriceCents,
		Status:     string(p.Status),
	}
	if p.Status == model.ProductStatusReserved {
		resp.ReservedUntil = p.ReservedUntil
	}
	return resp
}

// NewProductListResponse maps a product slice.
func NewProductListResponse(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, NewProductResponse(&products[i]))
	}
	return out
}
