// Package state holds the client state container and its persistence port.
//
// A Store starts empty and is only filled from persistence when Rehydrate is
// called. Every mutation is written through the Persister before it becomes
// visible; a failed write leaves the in-memory state untouched.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ashureev/lawmate/internal/domain"
	"github.com/google/uuid"
)

// Persister saves and loads the state of one owner.
type Persister interface {
	// Load returns nil without error when nothing is stored for owner.
	Load(ctx context.Context, owner string) (*domain.ClientState, error)
	Save(ctx context.Context, owner string, st domain.ClientState) error
}

// Store is the state container for one owner.
type Store struct {
	mu        sync.Mutex
	owner     string
	persister Persister
	state     domain.ClientState
	hydrated  bool
	now       func() time.Time
}

// New creates an empty, unhydrated store.
func New(owner string, persister Persister) *Store {
	return &Store{
		owner:     owner,
		persister: persister,
		state:     domain.ClientState{StrategyMessages: []domain.Exchange{}},
		now:       time.Now,
	}
}

// Owner returns the key the store persists under.
func (s *Store) Owner() string {
	return s.owner
}

// Rehydrate replaces the in-memory state with the persisted one.
func (s *Store) Rehydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.persister.Load(ctx, s.owner)
	if err != nil {
		return fmt.Errorf("rehydrate state for %s: %w", s.owner, err)
	}
	if loaded != nil {
		s.state = loaded.Clone()
		if s.state.StrategyMessages == nil {
			s.state.StrategyMessages = []domain.Exchange{}
		}
	}
	s.hydrated = true
	return nil
}

// Hydrated reports whether Rehydrate has completed.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domain.ClientState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SetInput replaces the draft input.
func (s *Store) SetInput(ctx context.Context, text string) error {
	return s.mutate(ctx, func(st *domain.ClientState) {
		st.MainInput = text
	})
}

// SetResult replaces the drafting result; nil clears it.
func (s *Store) SetResult(ctx context.Context, result *domain.DraftingResult) error {
	return s.mutate(ctx, func(st *domain.ClientState) {
		if result == nil {
			st.MainResult = nil
			return
		}
		r := *result
		st.MainResult = &r
	})
}

// AppendExchange adds an exchange to the end of the strategy history.
// Missing ids and timestamps are filled in.
func (s *Store) AppendExchange(ctx context.Context, ex domain.Exchange) error {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	return s.mutate(ctx, func(st *domain.ClientState) {
		if ex.CreatedAt.IsZero() {
			ex.CreatedAt = s.now().UTC()
		}
		st.StrategyMessages = append(st.StrategyMessages, ex.Clone())
	})
}

// RecordTurn appends an exchange and sets the session token it belongs to in
// a single write, returning the stored exchange.
func (s *Store) RecordTurn(ctx context.Context, token string, ex domain.Exchange) (domain.Exchange, error) {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	err := s.mutate(ctx, func(st *domain.ClientState) {
		if ex.CreatedAt.IsZero() {
			ex.CreatedAt = s.now().UTC()
		}
		st.StrategyThreadID = token
		st.StrategyMessages = append(st.StrategyMessages, ex.Clone())
	})
	if err != nil {
		return domain.Exchange{}, err
	}
	return ex, nil
}

// SetSessionToken replaces the strategy thread token.
func (s *Store) SetSessionToken(ctx context.Context, token string) error {
	return s.mutate(ctx, func(st *domain.ClientState) {
		st.StrategyThreadID = token
	})
}

// ResetConversation clears the strategy history and token together.
// The draft input and result are kept.
func (s *Store) ResetConversation(ctx context.Context) error {
	return s.mutate(ctx, func(st *domain.ClientState) {
		st.StrategyMessages = []domain.Exchange{}
		st.StrategyThreadID = ""
	})
}

func (s *Store) mutate(ctx context.Context, fn func(st *domain.ClientState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	fn(&next)
	if err := s.persister.Save(ctx, s.owner, next); err != nil {
		return fmt.Errorf("persist state for %s: %w", s.owner, err)
	}
	s.state = next
	return nil
}
