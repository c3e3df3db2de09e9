package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soletrea/atelier/internal/adapter/stream"
	"github.com/soletrea/atelier/internal/domain/model"
	testhelpers "github.com/soletrea/atelier/internal/test"
)

func pendingEvent(id, eventType, aggregateID string) model.OutboxEvent {
	return model.OutboxEvent{
		ID:          id,
		Type:        eventType,
		AggregateID: aggregateID,
		Payload:     []byte(`{}`),
		Status:      model.OutboxStatusPublishing,
		CreatedAt:   time.Unix(0, 0),
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.After(timeout)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("condition not met within %v", timeout)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestOutboxDispatcherPublishesAndMarks(t *testing.T) {
	facade := &testhelpers.OutboxFacadeStub{
		Batches: [][]model.OutboxEvent{{
			pendingEvent("e1", model.EventOrderConfirmed, "o1"),
			pendingEvent("e2", model.EventProductSold, "p1"),
		}},
	}
	publisher := &testhelpers.PublisherStub{}
	dispatcher := NewOutboxDispatcher(facade, publisher, 5*time.Millisecond, 10, 2, discardLogger())

	dispatcher.Start(context.Background())
	waitFor(t, time.Second, func() bool { return len(facade.PublishedIDs()) == 2 })
	dispatcher.Stop()

	envelopes := publisher.PublishedEnvelopes()
	if len(envelopes) != 2 {
		t.Fatalf("published %d envelopes, want 2", len(envelopes))
	}
	seen := map[string]bool{}
	for _, env := range envelopes {
		seen[env.EventID] = true
		if env.EventType == "" {
			t.Errorf("envelope %s missing event type", env.EventID)
		}
	}
	if !seen["e1"] || !seen["e2"] {
		t.Errorf("envelopes = %+v", envelopes)
	}
	if len(facade.RequeuedIDs()) != 0 {
		t.Errorf("successful publishes must not be requeued")
	}
}

func TestOutboxDispatcherRequeuesOnPublishFailure(t *testing.T) {
	facade := &testhelpers.OutboxFacadeStub{
		Batches: [][]model.OutboxEvent{{pendingEvent("e1", model.EventOrderConfirmed, "o1")}},
	}
	publisher := &testhelpers.PublisherStub{
		PublishFn: func(context.Context, string, stream.Envelope) error {
			return errors.New("broker unreachable")
		},
	}
	dispatcher := NewOutboxDispatcher(facade, publisher, 5*time.Millisecond, 10, 1, discardLogger())

	dispatcher.Start(context.Background())
	waitFor(t, time.Second, func() bool { return len(facade.RequeuedIDs()) == 1 })
	dispatcher.Stop()

	if len(facade.PublishedIDs()) != 0 {
		t.Errorf("failed publish must not be marked published")
	}
}

func TestOutboxDispatcherKeysByAggregate(t *testing.T) {
	facade := &testhelpers.OutboxFacadeStub{
		Batches: [][]model.OutboxEvent{{pendingEvent("e1", model.EventOrderConfirmed, "order-77")}},
	}
	keys := make(chan string, 1)
	publisher := &testhelpers.PublisherStub{
		PublishFn: func(_ context.Context, key string, _ stream.Envelope) error {
			select {
			case keys <- key:
			default:
			}
			return nil
		},
	}
	dispatcher := NewOutboxDispatcher(facade, publisher, 5*time.Millisecond, 10, 1, discardLogger())

	dispatcher.Start(context.Background())
	select {
	case key := <-keys:
		if key != "order-77" {
			t.Errorf("publish key = %q, want the aggregate id", key)
		}
	case <-time.After(time.Second):
		t.Fatalf("nothing published within a second")
	}
	dispatcher.Stop()
}

func TestOutboxDispatcherRequeuesUnsentClaimsOnShutdown(t *testing.T) {
	facade := &testhelpers.OutboxFacadeStub{
		Batches: [][]model.OutboxEvent{{
			pendingEvent("e1", model.EventOrderConfirmed, "o1"),
			pendingEvent("e2", model.EventProductSold, "p1"),
			pendingEvent("e3", model.EventOrderCancelled, "o2"),
		}},
	}
	started := make(chan struct{}, 3)
	release := make(chan struct{})
	publisher := &testhelpers.PublisherStub{
		PublishFn: func(context.Context, string, stream.Envelope) error {
			started <- struct{}{}
			<-release
			return nil
		},
	}
	// One worker and a one-slot queue so part of the claimed batch is
	// still waiting in dispatch when the context is cancelled.
	dispatcher := NewOutboxDispatcher(facade, publisher, 5*time.Millisecond, 1, 1, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Start(ctx)
	<-started
	cancel()
	waitFor(t, time.Second, func() bool { return len(facade.RequeuedIDs()) > 0 })
	close(release)
	dispatcher.Stop()

	published := map[string]bool{}
	for _, id := range facade.PublishedIDs() {
		published[id] = true
	}
	requeued := map[string]bool{}
	for _, id := range facade.RequeuedIDs() {
		requeued[id] = true
	}

	if !requeued["e3"] {
		t.Fatalf("the never-enqueued claim must go back to pending, requeued = %v", facade.RequeuedIDs())
	}
	for _, id := range []string{"e1", "e2", "e3"} {
		if published[id] == requeued[id] {
			t.Errorf("event %s must be either published or requeued, published=%v requeued=%v",
				id, published[id], requeued[id])
		}
	}
}

func TestOutboxDispatcherStopDrainsWorkers(t *testing.T) {
	facade := &testhelpers.OutboxFacadeStub{}
	dispatcher := NewOutboxDispatcher(facade, &testhelpers.PublisherStub{}, 5*time.Millisecond, 10, 3, discardLogger())

	dispatcher.Start(context.Background())
	done := make(chan struct{})
	go func() {
		dispatcher.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Stop did not return")
	}
}
