// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/lawmate/internal/state"
)

// Repository defines the interface for persisting client state.
type Repository interface {
	// Load and Save persist one owner's client state under the fixed namespace.
	state.Persister

	// DeleteStaleStates removes states not written within olderThan.
	DeleteStaleStates(ctx context.Context, olderThan time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// Ensure SQLiteStore implements Repository.
var _ Repository = (*SQLiteStore)(nil)
