package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
)

// ErrSessionRejected indicates the gateway refused to open a session for
// this order (bad amount, blocked buyer). Not retryable as-is.
var ErrSessionRejected = errors.New("payment session rejected")

// SessionRequest describes the order a session is opened for.
type SessionRequest struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	BuyerID     string `json:"buyer_id"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
}

// Session is the gateway handle the buyer is redirected to.
type Session struct {
	ID          string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// Client exposes operations against the payment gateway.
type Client interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

// HTTPClient implements Client via the gateway HTTP API. The timeout is
// deliberately short: checkout holds a reservation while this call runs.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a gateway client with a short default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse payment gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("payment gateway url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 3 * time.Second,
		},
	}, nil
}

// CreateSession opens a checkout session at the gateway.
func (c *HTTPClient) CreateSession(ctx context.Context, sessionReq SessionRequest) (*Session, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/v1/sessions")

	body, err := json.Marshal(sessionReq)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var session Session
		if err := json.Unmarshal(data, &session); err != nil {
			return nil, err
		}
		if session.ID == "" {
			return nil, fmt.Errorf("gateway returned empty session id")
		}
		return &session, nil
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return nil, ErrSessionRejected
	default:
		data, _ := io.ReadAll(resp.Body)
		c.logger.Error("payment session request failed",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(data)),
		)
		return nil, fmt.Errorf("payment gateway error: %s", resp.Status)
	}
}

// SimulatedClient returns deterministic sessions without contacting a
// gateway. Used in simulated payment mode for end-to-end testing.
type SimulatedClient struct{}

// CreateSession fabricates a local session handle.
func (SimulatedClient) CreateSession(_ context.Context, req SessionRequest) (*Session, error) {
	id := "sim_" + uuid.NewString()
	return &Session{
		ID:          id,
		RedirectURL: "/checkout/complete?session_id=" + url.QueryEscape(id) + "&order=" + url.QueryEscape(req.OrderNumber),
	}, nil
}
