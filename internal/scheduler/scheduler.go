package scheduler

import (
	"context"
	"log/slog"
	"time"

	"spacetraveling/internal/domain"
)

// Prerenderer refreshes every prerendered page.
type Prerenderer interface {
	Prerender(ctx context.Context) (*domain.PrerenderStats, error)
}

type Scheduler struct {
	prerenderer Prerenderer
	interval    time.Duration
	timeout     time.Duration
	logger      *slog.Logger
}

// NewScheduler creates a new scheduler.
func NewScheduler(prerenderer Prerenderer, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		prerenderer: prerenderer,
		interval:    interval,
		timeout:     timeout,
		logger:      logger.With("component", "scheduler"),
	}
}

// Start prerenders once, then on every tick until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runPrerender(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runPrerender(ctx)
		}
	}
}

func (s *Scheduler) runPrerender(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.prerenderer.Prerender(runCtx); err != nil {
		s.logger.Error("prerender failed", "error", err)
	}
}
