package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/ashureev/lawmate/internal/domain"
	"github.com/ashureev/lawmate/internal/identity"
	"github.com/ashureev/lawmate/internal/state"
	"github.com/go-chi/chi/v5"
)

// StateHandler serves the persisted client state of the calling device.
type StateHandler struct {
	persister state.Persister
	locks     *ownerLocks
	maxBody   int64
}

// NewStateHandler creates a new client state handler.
func NewStateHandler(persister state.Persister, maxBody int64) *StateHandler {
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &StateHandler{persister: persister, locks: newOwnerLocks(), maxBody: maxBody}
}

// RegisterRoutes registers the state routes.
func (h *StateHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/state", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/input", h.PutInput)
		r.Put("/result", h.PutResult)
		r.Post("/exchanges", h.PostExchange)
		r.Put("/thread", h.PutThread)
		r.Delete("/conversation", h.DeleteConversation)
	})
}

// Get returns the device's state.
func (h *StateHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withStore(w, r, http.StatusOK, nil)
}

// PutInput replaces the drafting input.
func (h *StateHandler) PutInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	h.withStore(w, r, http.StatusOK, func(ctx context.Context, st *state.Store) error {
		return st.SetInput(ctx, req.Text)
	})
}

// PutResult replaces or clears the drafting result.
func (h *StateHandler) PutResult(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Result *domain.DraftingResult `json:"result"`
	}
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	h.withStore(w, r, http.StatusOK, func(ctx context.Context, st *state.Store) error {
		return st.SetResult(ctx, req.Result)
	})
}

// PostExchange appends one strategy exchange.
func (h *StateHandler) PostExchange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User      string                `json:"user"`
		Assistant domain.AssistantReply `json:"assistant"`
	}
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if strings.TrimSpace(req.User) == "" {
		Error(w, http.StatusBadRequest, "user message is required")
		return
	}
	h.withStore(w, r, http.StatusCreated, func(ctx context.Context, st *state.Store) error {
		return st.AppendExchange(ctx, domain.Exchange{User: req.User, Assistant: req.Assistant})
	})
}

// PutThread records the strategy session token.
func (h *StateHandler) PutThread(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ThreadID string `json:"threadId"`
	}
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	h.withStore(w, r, http.StatusOK, func(ctx context.Context, st *state.Store) error {
		return st.SetSessionToken(ctx, req.ThreadID)
	})
}

// DeleteConversation clears the strategy exchanges and session token.
func (h *StateHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	h.withStore(w, r, http.StatusOK, func(ctx context.Context, st *state.Store) error {
		return st.ResetConversation(ctx)
	})
}

// withStore loads the caller's store under the owner lock, applies fn and
// writes the resulting snapshot.
func (h *StateHandler) withStore(w http.ResponseWriter, r *http.Request, status int, fn func(context.Context, *state.Store) error) {
	ownerID := identity.OwnerIDFromContext(r.Context())
	if ownerID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	unlock := h.locks.lock(ownerID)
	defer unlock()

	ctx := r.Context()
	st := state.New(ownerID, h.persister)
	if err := st.Rehydrate(ctx); err != nil {
		slog.Error("Failed to load client state", "error", err, "owner_id", ownerID)
		Error(w, http.StatusInternalServerError, "failed to load state")
		return
	}

	if fn != nil {
		if err := fn(ctx, st); err != nil {
			slog.Error("Failed to update client state", "error", err, "owner_id", ownerID)
			Error(w, http.StatusInternalServerError, "failed to save state")
			return
		}
	}

	JSON(w, status, st.Snapshot())
}

// ownerLocks serializes state mutations per owner. Entries are dropped once
// no request holds or waits on them.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*ownerLock)}
}

func (l *ownerLocks) lock(owner string) func() {
	l.mu.Lock()
	ol, ok := l.locks[owner]
	if !ok {
		ol = &ownerLock{}
		l.locks[owner] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.Lock()
	return func() {
		ol.Unlock()
		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, owner)
		}
		l.mu.Unlock()
	}
}
