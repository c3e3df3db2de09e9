package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/soletrea/atelier/internal/domain/model"
)

// SweepFacade exposes the subset of application functionality required by the sweeper.
type SweepFacade interface {
	SweepExpired(ctx context.Context) (*model.SweepReport, error)
}

// Sweeper periodically releases reservations past their deadline. The
// HTTP sweep trigger runs the same path; overlapping passes are safe
// because each release is conditional on the deadline.
type Sweeper struct {
	facade   SweepFacade
	interval time.Duration
	logger   *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSweeper constructs the expiry sweeper.
func NewSweeper(facade SweepFacade, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{facade: facade, interval: interval, logger: logger}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(runCtx)
}

// Stop waits for the loop to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	report, err := s.facade.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("expiry sweep failed", slog.String("error", err.Error()))
		return
	}
	if report.Processed > 0 || report.Errors > 0 {
		s.logger.Info("expiry sweep finished",
			slog.Int("processed", report.Processed),
			slog.Int("errors", report.Errors),
		)
	}
}
