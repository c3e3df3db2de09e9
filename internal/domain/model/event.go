package model

import "time"

// OutboxStatus describes delivery state of an outbox event.
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusPublishing OutboxStatus = "PUBLISHING"
	OutboxStatusPublished  OutboxStatus = "PUBLISHED"
)

// Event types emitted by checkout and the expiry sweep.
const (
	EventOrderConfirmed     = "order.confirmed"
	EventOrderCancelled     = "order.cancelled"
	EventProductSold        = "product.sold"
	EventReservationExpired = "reservation.expired"
)

// OutboxEvent records a state transition for asynchronous delivery.
// Events are appended by the orchestrator and the sweeper and drained
// by the outbox dispatcher, so notification failures never affect the
// transition that produced them.
type OutboxEvent struct {
	ID          string
	Type        string
	AggregateID string
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// OrderEventPayload is the payload for order.confirmed / order.cancelled.
type OrderEventPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	BuyerID     string `json:"buyer_id"`
	ProductID   string `json:"product_id"`
	PriceCents  int64  `json:"price_cents"`
	Reason      string `json:"reason,omitempty"`
}

// ProductSoldPayload is the payload for product.sold.
type ProductSoldPayload struct {
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id"`
	BuyerID   string `json:"buyer_id"`
}

// ReservationExpiredPayload is the payload for reservation.expired.
type ReservationExpiredPayload struct {
	ProductID  string    `json:"product_id"`
	ReleasedAt time.Time `json:"released_at"`
}
