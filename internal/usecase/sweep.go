package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soletrea/atelier/internal/domain/model"
	"github.com/soletrea/atelier/internal/domain/repository"
)

// SweepUseCase releases stale reservations. It is the correctness
// backstop for checkout attempts that never reached their own cleanup.
type SweepUseCase struct {
	reservations *ReservationUseCase
	outbox       repository.OutboxRepository
	batchSize    int
	logger       *slog.Logger
	now          func() time.Time
}

// NewSweepUseCase constructs SweepUseCase.
func NewSweepUseCase(reservations *ReservationUseCase, outbox repository.OutboxRepository, batchSize int, logger *slog.Logger) *SweepUseCase {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &SweepUseCase{
		reservations: reservations,
		outbox:       outbox,
		batchSize:    batchSize,
		logger:       logger,
		now:          time.Now,
	}
}

// Sweep releases every hold past its deadline. Item failures are counted
// and skipped so one bad record never aborts the batch; a hold already
// released by a racing pass is simply not counted.
func (u *SweepUseCase) Sweep(ctx context.Context) (*model.SweepReport, error) {
	ids, err := u.reservations.ExpiredHolds(ctx, u.batchSize)
	if err != nil {
		return nil, err
	}

	report := &model.SweepReport{}
	for _, id := range ids {
		released, err := u.reservations.ReleaseExpired(ctx, id)
		if err != nil {
			report.Errors++
			u.logger.Error("release expired hold",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !released {
			continue
		}
		report.Processed++
		u.appendExpiredEvent(ctx, id)
	}

	return report, nil
}

func (u *SweepUseCase) appendExpiredEvent(ctx context.Context, productID string) {
	payload, err := json.Marshal(model.ReservationExpiredPayload{
		ProductID:  productID,
		ReleasedAt: u.now().UTC(),
	})
	if err != nil {
		return
	}
	event := &model.OutboxEvent{
		ID:          uuid.NewString(),
		Type:        model.EventReservationExpired,
		AggregateID: productID,
		Payload:     payload,
	}
	if err := u.outbox.Append(ctx, event); err != nil {
		u.logger.Error("append reservation.expired event",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}
