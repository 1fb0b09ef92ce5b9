package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	busyMaxAttempts = 3
	busyBaseDelay   = 50 * time.Millisecond
)

// isConflictError reports SQLITE_BUSY and "database is locked" errors, the
// two forms SQLite uses for writer contention.
func isConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// withBusyRetry runs fn, retrying contention errors with exponential backoff
// (50ms, 100ms). Other errors are returned immediately.
func withBusyRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < busyMaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isConflictError(err) || attempt == busyMaxAttempts-1 {
			break
		}
		delay := busyBaseDelay * time.Duration(1<<attempt)
		slog.Debug("SQLite busy, retrying", "op", op, "attempt", attempt+1, "delay", delay)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
