package repository

import (
	"context"

	"github.com/soletrea/atelier/internal/domain/model"
)

// OutboxRepository stores events awaiting asynchronous delivery.
type OutboxRepository interface {
	Append(ctx context.Context, event *model.OutboxEvent) error

	// SelectBatchForPublishing claims up to limit pending events,
	// moving them to PUBLISHING so concurrent dispatchers do not pick
	// the same rows.
	SelectBatchForPublishing(ctx context.Context, limit int) ([]model.OutboxEvent, error)

	MarkPublished(ctx context.Context, id string) error

	// Requeue returns a claimed event to PENDING after a failed publish.
	Requeue(ctx context.Context, id string) error
}
