package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/soletrea/atelier/internal/adapter/stream"
	"github.com/soletrea/atelier/internal/domain/model"
)

// OutboxFacade exposes the outbox operations the dispatcher drives.
type OutboxFacade interface {
	EventsForPublishing(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkEventPublished(ctx context.Context, id string) error
	RequeueEvent(ctx context.Context, id string) error
}

// OutboxDispatcher polls the outbox table and relays claimed events to
// the stream publisher. Failed publishes are requeued, so delivery is
// at-least-once and consumers must dedupe on event id.
type OutboxDispatcher struct {
	facade    OutboxFacade
	publisher stream.Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger

	workerCount int
	jobs        chan model.OutboxEvent
	wg          sync.WaitGroup
	cancel      context.CancelFunc
	mu          sync.Mutex
}

// NewOutboxDispatcher constructs the outbox relay.
func NewOutboxDispatcher(facade OutboxFacade, publisher stream.Publisher, interval time.Duration, batchSize, workerCount int, logger *slog.Logger) *OutboxDispatcher {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if batchSize < 1 {
		batchSize = 1
	}
	if workerCount < 1 {
		workerCount = 1
	}
	return &OutboxDispatcher{
		facade:      facade,
		publisher:   publisher,
		interval:    interval,
		batchSize:   batchSize,
		workerCount: workerCount,
		logger:      logger,
	}
}

// Start launches the poll loop and the publishing workers.
func (d *OutboxDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.jobs = make(chan model.OutboxEvent, d.batchSize)

	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(runCtx)
	}

	d.wg.Add(1)
	go d.dispatch(runCtx)
}

// Stop drains the workers and waits for them to exit.
func (d *OutboxDispatcher) Stop() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *OutboxDispatcher) dispatch(ctx context.Context) {
	defer d.wg.Done()
	defer close(d.jobs)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			events, err := d.facade.EventsForPublishing(ctx, d.batchSize)
			if err != nil {
				d.logger.Error("select outbox batch failed", slog.String("error", err.Error()))
				continue
			}
			for i, event := range events {
				select {
				case <-ctx.Done():
					// Claimed events that never reached a worker
					// go back to PENDING for the next pass.
					d.requeueBatch(events[i:])
					return
				case d.jobs <- event:
				}
			}
		}
	}
}

func (d *OutboxDispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for event := range d.jobs {
		d.publish(ctx, event)
	}
}

func (d *OutboxDispatcher) publish(ctx context.Context, event model.OutboxEvent) {
	envelope := stream.Envelope{
		EventID:    event.ID,
		EventType:  event.Type,
		OccurredAt: event.CreatedAt,
		Payload:    event.Payload,
	}

	if err := d.publisher.Publish(ctx, event.AggregateID, envelope); err != nil {
		d.logger.Error("publish outbox event failed",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()),
		)
		d.requeue(event.ID)
		return
	}

	if err := d.facade.MarkEventPublished(ctx, event.ID); err != nil {
		d.logger.Error("mark event published failed",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (d *OutboxDispatcher) requeueBatch(events []model.OutboxEvent) {
	for _, event := range events {
		d.requeue(event.ID)
	}
}

// requeue runs on a detached context so shutdown does not strand
// events in the PUBLISHING state.
func (d *OutboxDispatcher) requeue(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := d.facade.RequeueEvent(ctx, id); err != nil {
		d.logger.Error("requeue outbox event failed",
			slog.String("event_id", id),
			slog.String("error", err.Error()),
		)
	}
}
