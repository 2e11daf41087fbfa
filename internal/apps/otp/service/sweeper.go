package service

import (
	"context"
	"log/slog"
	"time"

	"inventory-backend/internal/apps/otp/repository"
)

// Sweeper periodically removes entries that outlived the validity window
type Sweeper struct {
	store    repository.Store
	window   time.Duration
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// NewSweeper creates a sweeper; interval defaults to one minute
func NewSweeper(store repository.Store, window, interval time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		store:    store,
		window:   window,
		interval: interval,
		now:      time.Now,
		log:      log.With(slog.String("service", "otp_sweeper")),
	}
}

// SweepOnce removes entries issued before now minus the window
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	removed, err := s.store.Sweep(ctx, s.now().Add(-s.window))
	if err != nil {
		s.log.Warn("otp_sweep_failed", slog.String("reason", err.Error()))
	}
	if removed > 0 {
		s.log.Info("otp_swept", slog.Int("removed", removed))
	}
	return removed
}

// Run sweeps on every tick until ctx is canceled
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}
