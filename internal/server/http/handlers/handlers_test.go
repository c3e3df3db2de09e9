package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/soletrea/atelier/internal/domain/errors"
	"github.com/soletrea/atelier/internal/domain/model"
	"github.com/soletrea/atelier/internal/ratelimit"
	"github.com/soletrea/atelier/internal/server/http/dto"
	testhelpers "github.com/soletrea/atelier/internal/test"
	"github.com/soletrea/atelier/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, path string, handler gin.HandlerFunc, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, path, handler)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func checkoutBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(dto.CheckoutRequest{
		ProductID: "p1",
		BuyerID:   "buyer",
		Shipping: dto.ShippingDTO{
			Name:         "Jamie Doe",
			AddressLine1: "1 Rue de Rivoli",
			City:         "Paris",
			PostalCode:   "75001",
			Country:      "FR",
		},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return body
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestCheckoutHandlerCreateSuccess(t *testing.T) {
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{
		CheckoutFn: func(ctx context.Context, input usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
			if input.ProductID != "p1" || input.BuyerID != "buyer" || input.Shipping.City != "Paris" {
				t.Fatalf("unexpected input passed to facade: %+v", input)
			}
			return &usecase.CheckoutResult{
				OrderID:          "o1",
				OrderNumber:      "ATL-0000000001",
				PaymentSessionID: "sess_1",
				RedirectURL:      "/pay/o1",
			}, nil
		},
	})

	resp := performRequest(t, http.MethodPost, "/checkout", handler.Create, checkoutBody(t))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}
	var result dto.CheckoutResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.OrderID != "o1" || result.PaymentSessionID != "sess_1" {
		t.Errorf("response = %+v", result)
	}
}

func TestCheckoutHandlerCreateBadBody(t *testing.T) {
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{
		CheckoutFn: func(context.Context, usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
			t.Fatal("facade should not be called for a malformed body")
			return nil, nil
		},
	})

	resp := performRequest(t, http.MethodPost, "/checkout", handler.Create, []byte(`{"product_id":"p1"}`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Code != "VALIDATION_ERROR" {
		t.Errorf("error code = %q", body.Code)
	}
}

func TestCheckoutHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", fmt.Errorf("%w: missing buyer_id", domainErrors.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", domainErrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"conflict", domainErrors.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"upstream", fmt.Errorf("%w: create payment session:connection refused", domainErrors.ErrUpstream), http.StatusBadGateway, "PAYMENT_SESSION_FAILED"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{
				CheckoutFn: func(context.Context, usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
					return nil, tc.err
				},
			})
			resp := performRequest(t, http.MethodPost, "/checkout", handler.Create, checkoutBody(t))
			if resp.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.Code, tc.wantStatus)
			}
			if body := decodeError(t, resp); body.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tc.wantCode)
			}
		})
	}
}

func TestCheckoutHandlerUpstreamErrorHidesDetail(t *testing.T) {
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{
		CheckoutFn: func(context.Context, usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
			return nil, fmt.Errorf("%w: create payment session: dial tcp 10.0.0.5: connection refused", domainErrors.ErrUpstream)
		},
	})

	resp := performRequest(t, http.MethodPost, "/checkout", handler.Create, checkoutBody(t))
	if bytes.Contains(resp.Body.Bytes(), []byte("10.0.0.5")) {
		t.Errorf("gateway internals leaked to the client: %s", resp.Body.String())
	}
}

func TestCheckoutHandlerRateLimited(t *testing.T) {
	resetAt := time.Now().Add(30 * time.Minute)
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{
		CheckoutFn: func(context.Context, usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
			return nil, &ratelimit.LimitExceededError{Decision: ratelimit.Decision{
				Allowed: false, Limit: 10, Remaining: 0, ResetAt: resetAt, RetryAfter: 30 * time.Minute,
			}}
		},
	})

	resp := performRequest(t, http.MethodPost, "/checkout", handler.Create, checkoutBody(t))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "1800" {
		t.Errorf("Retry-After = %q, want 1800", resp.Header().Get("Retry-After"))
	}
	if resp.Header().Get("X-RateLimit-Limit") != "10" {
		t.Errorf("X-RateLimit-Limit = %q, want 10", resp.Header().Get("X-RateLimit-Limit"))
	}
	if body := decodeError(t, resp); body.Code != "RATE_LIMITED" {
		t.Errorf("error code = %q", body.Code)
	}
}

func TestCheckoutHandlerConfirm(t *testing.T) {
	var gotSession string
	var gotCaptured bool
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{
		ConfirmFn: func(ctx context.Context, sessionID string, captured bool) error {
			gotSession = sessionID
			gotCaptured = captured
			return nil
		},
	})

	body, _ := json.Marshal(dto.ConfirmRequest{SessionID: "sess_1", Outcome: "captured"})
	resp := performRequest(t, http.MethodPost, "/confirm", handler.Confirm, body)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	if gotSession != "sess_1" || !gotCaptured {
		t.Errorf("facade received %q captured=%v", gotSession, gotCaptured)
	}

	body, _ = json.Marshal(dto.ConfirmRequest{SessionID: "sess_1", Outcome: "failed"})
	resp = performRequest(t, http.MethodPost, "/confirm", handler.Confirm, body)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	if gotCaptured {
		t.Errorf("failed outcome should pass captured=false")
	}

	body, _ = json.Marshal(dto.ConfirmRequest{SessionID: "sess_1", Outcome: "maybe"})
	resp = performRequest(t, http.MethodPost, "/confirm", handler.Confirm, body)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unknown outcome should be rejected, got %d", resp.Code)
	}
}

func TestCheckoutHandlerConfirmUnknownSession(t *testing.T) {
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{
		ConfirmFn: func(context.Context, string, bool) error {
			return domainErrors.ErrNotFound
		},
	})

	body, _ := json.Marshal(dto.ConfirmRequest{SessionID: "ghost", Outcome: "captured"})
	resp := performRequest(t, http.MethodPost, "/confirm", handler.Confirm, body)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestCheckoutHandlerConfirmLostReservation(t *testing.T) {
	handler := NewCheckoutHandler(testhelpers.CheckoutFacadeStub{
		ConfirmFn: func(context.Context, string, bool) error {
			return domainErrors.ErrConflict
		},
	})

	body, _ := json.Marshal(dto.ConfirmRequest{SessionID: "sess_1", Outcome: "captured"})
	resp := performRequest(t, http.MethodPost, "/confirm", handler.Confirm, body)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	if got := decodeError(t, resp); got.Code != "CONFLICT" {
		t.Errorf("error code = %q, want CONFLICT", got.Code)
	}
}

func TestProductHandlerList(t *testing.T) {
	until := time.Now().Add(10 * time.Minute)
	buyer := "secret-buyer"
	handler := NewProductHandler(testhelpers.CatalogFacadeStub{
		ProductsFn: func(context.Context) ([]model.Product, error) {
			return []model.Product{
				{ID: "p1", Name: "Silk Scarf", Brand: "Maison", PriceCents: 45000, Status: model.ProductStatusActive},
				{ID: "p2", Name: "Vintage Bag", Brand: "Maison", PriceCents: 120000, Status: model.ProductStatusReserved, ReservedBy: &buyer, ReservedUntil: &until},
			}, nil
		},
	})

	resp := performRequest(t, http.MethodGet, "/products", handler.List, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var products []dto.ProductResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[1].ReservedUntil == nil {
		t.Errorf("reserved product should expose its deadline")
	}
	if bytes.Contains(resp.Body.Bytes(), []byte("secret-buyer")) {
		t.Errorf("reservation holder must not be exposed")
	}
}

func TestProductHandlerListEmpty(t *testing.T) {
	handler := NewProductHandler(testhelpers.CatalogFacadeStub{
		ProductsFn: func(context.Context) ([]model.Product, error) { return nil, nil },
	})

	resp := performRequest(t, http.MethodGet, "/products", handler.List, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for empty catalog, got %d", resp.Code)
	}
}

func TestProductHandlerGetNotFound(t *testing.T) {
	handler := NewProductHandler(testhelpers.CatalogFacadeStub{
		ProductFn: func(context.Context, string) (*model.Product, error) {
			return nil, domainErrors.ErrNotFound
		},
	})

	resp := performRequest(t, http.MethodGet, "/products/ghost", handler.Get, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestSweepHandlerTrigger(t *testing.T) {
	stub := &testhelpers.SweepFacadeStub{
		SweepFn: func(context.Context) (*model.SweepReport, error) {
			return &model.SweepReport{Processed: 3, Errors: 1}, nil
		},
	}
	handler := NewSweepHandler(stub)

	resp := performRequest(t, http.MethodPost, "/sweep", handler.Trigger, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var report dto.SweepResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.Processed != 3 || report.Errors != 1 {
		t.Errorf("report = %+v", report)
	}
	if stub.CallCount() != 1 {
		t.Errorf("sweep called %d times, want 1", stub.CallCount())
	}
}

func TestSweepHandlerTriggerFailure(t *testing.T) {
	handler := NewSweepHandler(&testhelpers.SweepFacadeStub{
		SweepFn: func(context.Context) (*model.SweepReport, error) {
			return nil, errors.New("db down")
		},
	})

	resp := performRequest(t, http.MethodPost, "/sweep", handler.Trigger, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
}

type degradedLimiter struct {
	degraded bool
}

func (degradedLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) ratelimit.Decision {
	return ratelimit.Decision{Allowed: true, Limit: limit}
}

func (l degradedLimiter) Degraded() bool { return l.degraded }

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler(testhelpers.PingerStub{}, degradedLimiter{})
	resp := performRequest(t, http.MethodGet, "/healthz", handler.Check, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	handler = NewHealthHandler(testhelpers.PingerStub{Err: errors.New("down")}, degradedLimiter{})
	resp = performRequest(t, http.MethodGet, "/healthz", handler.Check, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 when the database is down, got %d", resp.Code)
	}

	handler = NewHealthHandler(testhelpers.PingerStub{}, degradedLimiter{degraded: true})
	resp = performRequest(t, http.MethodGet, "/healthz", handler.Check, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("degraded limiter must not fail health, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("degraded")) {
		t.Errorf("health body should report the degraded limiter: %s", resp.Body.String())
	}
}
