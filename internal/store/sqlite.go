package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/lawmate/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
	writeMu   sync.Mutex // serializes writers to avoid SQLITE_BUSY under WAL
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, namespace: domain.StateNamespace}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS client_states (
		namespace TEXT NOT NULL,
		owner TEXT NOT NULL,
		state_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (namespace, owner)
	);
	CREATE INDEX IF NOT EXISTS idx_client_states_updated ON client_states(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Load retrieves the client state of owner. Returns nil, nil when absent.
func (s *SQLiteStore) Load(ctx context.Context, owner string) (*domain.ClientState, error) {
	query := `SELECT state_json FROM client_states WHERE namespace = ? AND owner = ?`

	var raw string
	err := s.db.QueryRowContext(ctx, query, s.namespace, owner).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan client state: %w", err)
	}

	var st domain.ClientState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode client state: %w", err)
	}
	return &st, nil
}

// Save creates or replaces the client state of owner.
func (s *SQLiteStore) Save(ctx context.Context, owner string, st domain.ClientState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode client state: %w", err)
	}

	query := `
	INSERT INTO client_states (namespace, owner, state_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(namespace, owner) DO UPDATE SET
		state_json = excluded.state_json,
		updated_at = excluded.updated_at`

	now := time.Now().Unix()
	return withBusyRetry(ctx, "save client state", func() error {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		_, err := s.db.ExecContext(ctx, query, s.namespace, owner, string(raw), now, now)
		return err
	})
}

// DeleteStaleStates removes states whose last write is older than olderThan.
func (s *SQLiteStore) DeleteStaleStates(ctx context.Context, olderThan time.Duration) (int64, error) {
	threshold := time.Now().Add(-olderThan).Unix()
	query := `DELETE FROM client_states WHERE namespace = ? AND updated_at < ?`

	var deleted int64
	err := withBusyRetry(ctx, "delete stale states", func() error {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		res, err := s.db.ExecContext(ctx, query, s.namespace, threshold)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}
