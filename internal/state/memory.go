package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ashureev/lawmate/internal/domain"
)

// MemoryPersister keeps serialized state in process memory.
type MemoryPersister struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryPersister creates an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{data: make(map[string][]byte)}
}

// Load returns the stored state of owner, or nil.
func (m *MemoryPersister) Load(_ context.Context, owner string) (*domain.ClientState, error) {
	m.mu.RLock()
	raw, ok := m.data[owner]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var st domain.ClientState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}

// Save stores the state of owner.
func (m *MemoryPersister) Save(_ context.Context, owner string, st domain.ClientState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	m.mu.Lock()
	m.data[owner] = raw
	m.mu.Unlock()
	return nil
}
