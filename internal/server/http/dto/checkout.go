package dto

// ShippingDTO carries the delivery address collected at checkout.
type ShippingDTO struct {
	Name         string `json:"name" binding:"required"`
	AddressLine1 string `json:"address_line1" binding:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" binding:"required"`
	PostalCode   string `json:"postal_code" binding:"required"`
	Country      string `json:"country" binding:"required"`
}

// CheckoutRequest is the body of POST /api/checkout.
type CheckoutRequest struct {
	ProductID string      `json:"product_id" binding:"required"`
	BuyerID   string      `json:"buyer_id" binding:"required"`
	Shipping  ShippingDTO `json:"shipping" binding:"required"`
}

// CheckoutResponse is returned on successful checkout initiation.
type CheckoutResponse struct {
	OrderID          string `json:"order_id"`
	OrderNumber      string `json:"order_number"`
	PaymentSessionID string `json:"payment_session_id"`
	RedirectURL      string `json:"redirect_url"`
}

// ConfirmRequest is the body of POST /api/checkout/confirm.
type ConfirmRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Outcome   string `json:"outcome" binding:"required,oneof=captured failed"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
