package printjob

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically completes in-progress jobs whose expected end time
// has passed. It is a convenience for operators who forget to close out a
// print; every transition still goes through the engine.
type Sweeper struct {
	engine *Engine
	store  *Store
	cfg    *SweepConfig
	logger *slog.Logger
}

// NewSweeper creates a Sweeper.
func NewSweeper(engine *Engine, store *Store, cfg *SweepConfig, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{engine: engine, store: store, cfg: cfg, logger: logger}
}

// Run polls on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("completion sweeper disabled")
		return
	}

	s.logger.Info("completion sweeper starting", "interval", s.cfg.Interval.String())

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("completion sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("completion sweep failed", "error", err)
			}
		}
	}
}

// Sweep completes every overdue job and returns how many were finalized.
// A job finalized concurrently between the overdue scan and its own
// transition is skipped, not an error.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := time.Now()
	overdue, err := s.store.ListOverdue(now)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, job := range overdue {
		if _, err := s.engine.CompleteJob(ctx, job.ID); err != nil {
			switch err.(type) {
			case *AlreadyFinalizedError:
				continue
			}
			if err == ErrJobNotFound {
				continue
			}
			s.logger.Error("sweep could not complete job", "jobID", job.ID, "error", err)
			continue
		}
		completed++
		s.logger.Info("sweep completed overdue job",
			"jobID", job.ID,
			"expectedEnd", job.CompletedAt.Format(time.RFC3339))
	}

	if completed > 0 {
		s.logger.Info("completion sweep finished", "completed", completed, "overdue", len(overdue))
	}
	return completed, nil
}
