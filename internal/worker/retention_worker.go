// Package worker contains background loops that run beside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"drinktrack/internal/services"
)

// RetentionWorker periodically deletes consumption events that fall outside
// the persisted retention window. The window is re-read on every tick, so
// setting changes take effect without a restart.
type RetentionWorker struct {
	svc      *services.DrinkService
	interval time.Duration
}

func NewRetentionWorker(svc *services.DrinkService, interval time.Duration) *RetentionWorker {
	return &RetentionWorker{
		svc:      svc,
		interval: interval,
	}
}

// Run purges once immediately, then on every tick until ctx is cancelled.
func (w *RetentionWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Retention worker started", "interval", w.interval.String())

	w.purge(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.purge(ctx)
		case <-ctx.Done():
			slog.InfoContext(ctx, "Retention worker stopped")
			return ctx.Err()
		}
	}
}

func (w *RetentionWorker) purge(ctx context.Context) {
	purged, err := w.svc.PurgeExpired(ctx, time.Now())
	if err != nil {
		slog.ErrorContext(ctx, "Retention purge failed", "error", err)
		return
	}
	if purged > 0 {
		slog.InfoContext(ctx, "Retention purge completed", "purged", purged)
	}
}
