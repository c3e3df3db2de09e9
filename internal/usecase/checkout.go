package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soletrea/atelier/internal/adapter/payment"
	"github.com/soletrea/atelier/internal/config"
	domainErrors "github.com/soletrea/atelier/internal/domain/errors"
	"github.com/soletrea/atelier/internal/domain/model"
	"github.com/soletrea/atelier/internal/domain/repository"
	"github.com/soletrea/atelier/internal/ratelimit"
)

// rollbackTimeout bounds cleanup work that must run even when the
// request context is already cancelled.
const rollbackTimeout = 3 * time.Second

// CheckoutInput is a buyer-initiated purchase attempt.
type CheckoutInput struct {
	ProductID string
	BuyerID   string
	Shipping  model.ShippingDetails
}

// CheckoutResult is returned to the caller on success.
type CheckoutResult struct {
	OrderID          string
	OrderNumber      string
	PaymentSessionID string
	RedirectURL      string
}

// CheckoutUseCase sequences reserve, order creation, payment session and
// finalize/rollback. Any failure after the reserve step releases the
// hold before returning; the TTL sweep remains the backstop for crashes.
type CheckoutUseCase struct {
	reservations *ReservationUseCase
	products     repository.ProductRepository
	orders       repository.OrderRepository
	outbox       repository.OutboxRepository
	limiter      ratelimit.Limiter
	payments     payment.Client
	mode         config.PaymentMode
	ttl          time.Duration
	logger       *slog.Logger
}

// NewCheckoutUseCase constructs the checkout orchestrator.
func NewCheckoutUseCase(
	reservations *ReservationUseCase,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	outbox repository.OutboxRepository,
	limiter ratelimit.Limiter,
	payments payment.Client,
	mode config.PaymentMode,
	ttl time.Duration,
	logger *slog.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		reservations: reservations,
		products:     products,
		orders:       orders,
		outbox:       outbox,
		limiter:      limiter,
		payments:     payments,
		mode:         mode,
		ttl:          ttl,
		logger:       logger,
	}
}

// Checkout runs one purchase attempt end to end.
func (u *CheckoutUseCase) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	decision := ratelimit.PresetCheckout.Check(ctx, u.limiter, input.BuyerID)
	if !decision.Allowed {
		return nil, &ratelimit.LimitExceededError{Decision: decision}
	}

	if err := validateCheckoutInput(input); err != nil {
		return nil, err
	}

	product, err := u.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	if err := u.reservations.Reserve(ctx, input.ProductID, input.BuyerID, u.ttl); err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		Number:        newOrderNumber(),
		BuyerID:       input.BuyerID,
		ProductID:     product.ID,
		ProductName:   product.Name,
		PriceCents:    product.PriceCents,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		Shipping:      input.Shipping,
	}
	if err := u.orders.Create(ctx, order); err != nil {
		u.rollbackReservation(ctx, input.ProductID, input.BuyerID)
		return nil, fmt.Errorf("create order: %w", err)
	}

	session, err := u.payments.CreateSession(ctx, payment.SessionRequest{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		BuyerID:     order.BuyerID,
		AmountCents: order.PriceCents,
		Description: order.ProductName,
	})
	if err != nil {
		u.rollbackReservation(ctx, input.ProductID, input.BuyerID)
		u.cancelOrder(ctx, order.ID)
		return nil, fmt.Errorf("%w: create payment session: %v", domainErrors.ErrUpstream, err)
	}

	if err := u.orders.AttachPaymentSession(ctx, order.ID, session.ID); err != nil {
		u.rollbackReservation(ctx, input.ProductID, input.BuyerID)
		u.cancelOrder(ctx, order.ID)
		return nil, fmt.Errorf("attach payment session: %w", err)
	}

	if u.mode == config.PaymentModeSimulated {
		// Instant settlement: the demo path captures and sells within
		// the same call so no live gateway is needed end to end.
		if err := u.settle(ctx, order, session.ID); err != nil {
			u.rollbackReservation(ctx, input.ProductID, input.BuyerID)
			u.cancelOrder(ctx, order.ID)
			return nil, fmt.Errorf("settle simulated payment: %w", err)
		}
	}

	return &CheckoutResult{
		OrderID:          order.ID,
		OrderNumber:      order.Number,
		PaymentSessionID: session.ID,
		RedirectURL:      session.RedirectURL,
	}, nil
}

// ConfirmPayment applies the gateway outcome for a session. Settled
// orders are left untouched, so gateway retries are harmless.
func (u *CheckoutUseCase) ConfirmPayment(ctx context.Context, sessionID string, captured bool) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", domainErrors.ErrValidation)
	}

	order, err := u.orders.GetBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if order.Settled() {
		return nil
	}

	if captured {
		err := u.settle(ctx, order, sessionID)
		if errors.Is(err, domainErrors.ErrConflict) {
			// The hold lapsed before the gateway confirmed and the
			// item moved on to another buyer. The stale order must
			// not settle; the capture has to be refunded upstream.
			u.cancelOrder(ctx, order.ID)
			u.appendEvent(ctx, model.EventOrderCancelled, order.ID, model.OrderEventPayload{
				OrderID:     order.ID,
				OrderNumber: order.Number,
				BuyerID:     order.BuyerID,
				ProductID:   order.ProductID,
				PriceCents:  order.PriceCents,
				Reason:      "reservation expired before capture",
			})
		}
		return err
	}

	if err := u.reservations.Release(ctx, order.ProductID, order.BuyerID); err != nil {
		return fmt.Errorf("release after failed payment: %w", err)
	}
	if err := u.orders.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled, model.PaymentStatusFailed); err != nil {
		return err
	}
	u.appendEvent(ctx, model.EventOrderCancelled, order.ID, model.OrderEventPayload{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		BuyerID:     order.BuyerID,
		ProductID:   order.ProductID,
		PriceCents:  order.PriceCents,
		Reason:      "payment failed",
	})
	return nil
}

// settle captures payment and finalizes the sale. MarkSold only
// succeeds against the buyer's own live hold, so a stale confirm can
// never sell an item another buyer now holds.
func (u *CheckoutUseCase) settle(ctx context.Context, order *model.Order, sessionID string) error {
	if err := u.reservations.MarkSold(ctx, order.ProductID, order.BuyerID); err != nil {
		return fmt.Errorf("mark sold: %w", err)
	}
	if err := u.orders.UpdateStatus(ctx, order.ID, model.OrderStatusConfirmed, model.PaymentStatusCaptured); err != nil {
		return fmt.Errorf("confirm order: %w", err)
	}

	u.appendEvent(ctx, model.EventOrderConfirmed, order.ID, model.OrderEventPayload{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		BuyerID:     order.BuyerID,
		ProductID:   order.ProductID,
		PriceCents:  order.PriceCents,
	})
	u.appendEvent(ctx, model.EventProductSold, order.ProductID, model.ProductSoldPayload{
		ProductID: order.ProductID,
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
	})
	return nil
}

// rollbackReservation releases the hold on a detached context: cleanup
// must still run when the buyer has already disconnected.
func (u *CheckoutUseCase) rollbackReservation(ctx context.Context, productID, buyerID string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	if err := u.reservations.Release(cleanupCtx, productID, buyerID); err != nil {
		// The TTL sweep will pick this hold up.
		u.logger.Error("release reservation after failed checkout",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}

func (u *CheckoutUseCase) cancelOrder(ctx context.Context, orderID string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	if err := u.orders.UpdateStatus(cleanupCtx, orderID, model.OrderStatusCancelled, model.PaymentStatusFailed); err != nil {
		u.logger.Error("cancel order after failed checkout",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
}

// appendEvent records a notification in the outbox. Failures are logged,
// not propagated: the state transition already happened and delivery is
// at-least-once via the dispatcher.
func (u *CheckoutUseCase) appendEvent(ctx context.Context, eventType, aggregateID string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		u.logger.Error("marshal outbox payload", slog.String("event", eventType), slog.String("error", err.Error()))
		return
	}
	event := &model.OutboxEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		Payload:     body,
	}
	if err := u.outbox.Append(ctx, event); err != nil {
		u.logger.Error("append outbox event", slog.String("event", eventType), slog.String("error", err.Error()))
	}
}

func validateCheckoutInput(input CheckoutInput) error {
	var missing []string
	if strings.TrimSpace(input.ProductID) == "" {
		missing = append(missing, "product_id")
	}
	if strings.TrimSpace(input.BuyerID) == "" {
		missing = append(missing, "buyer_id")
	}
	if strings.TrimSpace(input.Shipping.Name) == "" {
		missing = append(missing, "shipping.name")
	}
	if strings.TrimSpace(input.Shipping.AddressLine1) == "" {
		missing = append(missing, "shipping.address_line1")
	}
	if strings.TrimSpace(input.Shipping.City) == "" {
		missing = append(missing, "shipping.city")
	}
	if strings.TrimSpace(input.Shipping.PostalCode) == "" {
		missing = append(missing, "shipping.postal_code")
	}
	if strings.TrimSpace(input.Shipping.Country) == "" {
		missing = append(missing, "shipping.country")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domainErrors.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func newOrderNumber() string {
	compact := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "ATL-" + compact[:10]
}
