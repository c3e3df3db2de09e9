package model

import "time"

// OrderStatus describes order lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// PaymentStatus tracks the payment leg of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusCaptured PaymentStatus = "CAPTURED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// ShippingDetails is the delivery address snapshot taken at checkout.
type ShippingDetails struct {
	Name         string
	AddressLine1 string
	AddressLine2 string
	City         string
	PostalCode   string
	Country      string
}

// Order is created in PENDING right after a successful reservation and
// snapshots the product fields the buyer saw. Fulfillment transitions
// (SHIPPED, DELIVERED) are driven by collaborators outside this service.
type Order struct {
	ID               string
	Number           string
	BuyerID          string
	ProductID        string
	ProductName      string
	PriceCents       int64
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	PaymentSessionID *string
	Shipping         ShippingDetails
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Settled reports whether the order already reached a terminal payment
// outcome and must not be transitioned again.
func (o *Order) Settled() bool {
	return o.Status == OrderStatusConfirmed || o.Status == OrderStatusCancelled ||
		o.Status == OrderStatusRefunded
}
