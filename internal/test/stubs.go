package test

import (
	"context"
	"sync"
	"time"

	"github.com/soletrea/atelier/internal/adapter/payment"
	"github.com/soletrea/atelier/internal/adapter/stream"
	"github.com/soletrea/atelier/internal/ratelimit"
)

// LimiterStub answers rate limit checks with a fixed decision.
type LimiterStub struct {
	CheckFn func(context.Context, string, int, time.Duration) ratelimit.Decision

	mu   sync.Mutex
	Keys []string
}

// Check records the key and returns the configured decision.
func (s *LimiterStub) Check(ctx context.Context, key string, limit int, window time.Duration) ratelimit.Decision {
	s.mu.Lock()
	s.Keys = append(s.Keys, key)
	s.mu.Unlock()
	if s.CheckFn != nil {
		return s.CheckFn(ctx, key, limit, window)
	}
	return ratelimit.Decision{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: time.Now().Add(window)}
}

// DenyAllLimiter rejects every check.
type DenyAllLimiter struct{}

// Check returns a denying decision.
func (DenyAllLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) ratelimit.Decision {
	return ratelimit.Decision{Allowed: false, Limit: limit, Remaining: 0, ResetAt: time.Now().Add(window), RetryAfter: window}
}

// PaymentClientStub simulates the payment gateway client.
type PaymentClientStub struct {
	CreateFn func(context.Context, payment.SessionRequest) (*payment.Session, error)

	mu       sync.Mutex
	Requests []payment.SessionRequest
}

// CreateSession records the request and returns the configured session.
func (s *PaymentClientStub) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.mu.Unlock()
	if s.CreateFn != nil {
		return s.CreateFn(ctx, req)
	}
	return &payment.Session{ID: "sess_" + req.OrderID, RedirectURL: "/pay/" + req.OrderID}, nil
}

// PublisherStub captures published envelopes.
type PublisherStub struct {
	PublishFn func(context.Context, string, stream.Envelope) error

	mu        sync.Mutex
	Envelopes []stream.Envelope
	Keys      []string
}

// Publish records the envelope or delegates to the override.
func (s *PublisherStub) Publish(ctx context.Context, key string, envelope stream.Envelope) error {
	if s.PublishFn != nil {
		return s.PublishFn(ctx, key, envelope)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Envelopes = append(s.Envelopes, envelope)
	s.Keys = append(s.Keys, key)
	return nil
}

// PublishedEnvelopes returns captured envelopes under the lock.
func (s *PublisherStub) PublishedEnvelopes() []stream.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stream.Envelope(nil), s.Envelopes...)
}
