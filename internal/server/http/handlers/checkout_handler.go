package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/soletrea/atelier/internal/domain/errors"
	"github.com/soletrea/atelier/internal/domain/model"
	"github.com/soletrea/atelier/internal/ratelimit"
	"github.com/soletrea/atelier/internal/server/http/dto"
	"github.com/soletrea/atelier/internal/server/http/middleware"
	"github.com/soletrea/atelier/internal/usecase"
)

// CheckoutHandler manages checkout endpoints.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Create handles POST /api/checkout.
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "invalid checkout request body",
		})
		return
	}

	result, err := h.facade.Checkout(c.Request.Context(), usecase.CheckoutInput{
		ProductID: req.ProductID,
		BuyerID:   req.BuyerID,
		Shipping: model.ShippingDetails{
			Name:         req.Shipping.Name,
			AddressLine1: req.Shipping.AddressLine1,
			AddressLine2: req.Shipping.AddressLine2,
			City:         req.Shipping.City,
			PostalCode:   req.Shipping.PostalCode,
			Country:      req.Shipping.Country,
		},
	})
	if err != nil {
		h.writeCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CheckoutResponse{
		OrderID:          result.OrderID,
		OrderNumber:      result.OrderNumber,
		PaymentSessionID: result.PaymentSessionID,
		RedirectURL:      result.RedirectURL,
	})
}

// Confirm handles POST /api/checkout/confirm.
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "invalid confirmation request body",
		})
		return
	}

	err := h.facade.ConfirmPayment(c.Request.Context(), req.SessionID, req.Outcome == "captured")
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrValidation):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			})
		case errors.Is(err, domainErrors.ErrNotFound):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Code:    "NOT_FOUND",
				Message: "payment session not found",
			})
		case errors.Is(err, domainErrors.ErrConflict):
			c.JSON(http.StatusConflict, dto.ErrorResponse{
				Code:    "CONFLICT",
				Message: "reservation expired before the payment was confirmed",
			})
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Code:    "INTERNAL_ERROR",
				Message: "confirmation failed",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CheckoutHandler) writeCheckoutError(c *gin.Context, err error) {
	var limitErr *ratelimit.LimitExceededError
	if errors.As(err, &limitErr) {
		middleware.SetRateLimitHeaders(c, limitErr.Decision)
		c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
			Code:    "RATE_LIMITED",
			Message: "checkout attempt limit reached, try again later",
		})
		return
	}

	switch {
	case errors.Is(err, domainErrors.ErrValidation):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "product not found",
		})
	case errors.Is(err, domainErrors.ErrConflict):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Code:    "CONFLICT",
			Message: "item is no longer available",
		})
	case errors.Is(err, domainErrors.ErrUpstream):
		// The gateway failure detail stays in the logs.
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Code:    "PAYMENT_SESSION_FAILED",
			Message: "payment provider is unavailable, try again later",
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "checkout failed",
		})
	}
}
