package store

import (
	"context"
	"log/slog"
	"time"
)

const defaultJanitorInterval = time.Hour

// StartJanitor runs a background goroutine that periodically deletes client
// states nobody has written for ttl. It stops when ctx is cancelled.
func StartJanitor(ctx context.Context, repo Repository, ttl, interval time.Duration) {
	if interval <= 0 {
		interval = defaultJanitorInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("State janitor started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepStaleStates(ctx, repo, ttl)
			case <-ctx.Done():
				slog.Info("State janitor shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepStaleStates(ctx context.Context, repo Repository, ttl time.Duration) {
	deleted, err := repo.DeleteStaleStates(ctx, ttl)
	if err != nil {
		slog.Error("State janitor failed to delete stale states", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("State janitor removed stale states", "count", deleted)
	}
}
