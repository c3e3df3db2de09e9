package usecase

import (
	"context"

	"github.com/soletrea/atelier/internal/domain/model"
	"github.com/soletrea/atelier/internal/domain/repository"
)

// OutboxUseCase exposes the delivery side of the outbox to the dispatcher.
type OutboxUseCase struct {
	outbox repository.OutboxRepository
}

// NewOutboxUseCase constructs OutboxUseCase.
func NewOutboxUseCase(outbox repository.OutboxRepository) *OutboxUseCase {
	return &OutboxUseCase{outbox: outbox}
}

// SelectBatchForPublishing claims pending events for delivery.
func (u *OutboxUseCase) SelectBatchForPublishing(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	return u.outbox.SelectBatchForPublishing(ctx, limit)
}

// MarkPublished finalizes a delivered event.
func (u *OutboxUseCase) MarkPublished(ctx context.Context, id string) error {
	return u.outbox.MarkPublished(ctx, id)
}

// Requeue returns a claimed event to the pending queue after a failed
// delivery attempt.
func (u *OutboxUseCase) Requeue(ctx context.Context, id string) error {
	return u.outbox.Requeue(ctx, id)
}
