package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHTTPClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client, err := NewHTTPClient(server.URL, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client, server
}

func TestHTTPClientCreateSession(t *testing.T) {
	var got SessionRequest
	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/sessions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"session_id":"sess_42","redirect_url":"https://gw.example/pay/42"}`))
	})

	session, err := client.CreateSession(context.Background(), SessionRequest{
		OrderID:     "o1",
		OrderNumber: "ATL-0000000001",
		BuyerID:     "buyer",
		AmountCents: 45000,
		Description: "Silk Scarf",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ID != "sess_42" || session.RedirectURL != "https://gw.example/pay/42" {
		t.Errorf("session = %+v", session)
	}
	if got.OrderID != "o1" || got.AmountCents != 45000 {
		t.Errorf("gateway received %+v", got)
	}
}

func TestHTTPClientCreateSessionRejected(t *testing.T) {
	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := client.CreateSession(context.Background(), SessionRequest{OrderID: "o1"})
	if !errors.Is(err, ErrSessionRejected) {
		t.Fatalf("expected session rejected, got %v", err)
	}
}

func TestHTTPClientCreateSessionServerError(t *testing.T) {
	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.CreateSession(context.Background(), SessionRequest{OrderID: "o1"})
	if err == nil || errors.Is(err, ErrSessionRejected) {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestHTTPClientCreateSessionEmptyID(t *testing.T) {
	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"redirect_url":"https://gw.example/pay"}`))
	})

	if _, err := client.CreateSession(context.Background(), SessionRequest{OrderID: "o1"}); err == nil {
		t.Fatalf("expected error for empty session id")
	}
}

func TestNewHTTPClientRejectsRelativeURL(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if _, err := NewHTTPClient("/not-absolute", logger); err == nil {
		t.Fatalf("expected error for relative url")
	}
}

func TestSimulatedClientCreateSession(t *testing.T) {
	session, err := SimulatedClient{}.CreateSession(context.Background(), SessionRequest{OrderNumber: "ATL-0000000001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(session.ID, "sim_") {
		t.Errorf("session id %q should carry the sim prefix", session.ID)
	}
	if !strings.Contains(session.RedirectURL, "session_id=") || !strings.Contains(session.RedirectURL, "order=ATL-0000000001") {
		t.Errorf("redirect url %q missing parameters", session.RedirectURL)
	}
}
