// Package workspace drives the drafting, strategy and guide flows on behalf
// of a single client, keeping its state store in step with the results.
//
// Each flow admits one request at a time. Empty input is ignored without a
// request being sent, and the store is only touched once a request succeeds.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/ashureev/lawmate/internal/domain"
	"github.com/ashureev/lawmate/internal/drafting"
	"github.com/ashureev/lawmate/internal/state"
)

// ErrBusy is returned when a flow already has a request in flight.
var ErrBusy = errors.New("a request is already in progress")

// Backend performs the assistant requests.
// drafting.Service and apiclient.Client both satisfy it.
type Backend interface {
	Draft(ctx context.Context, text string, caseType domain.CaseType) (drafting.DraftOutput, error)
	Strategize(ctx context.Context, text, threadID string) (drafting.StrategyOutput, error)
	Guide(ctx context.Context, text string) (drafting.GuideOutput, error)
}

// Workspace binds a backend to one client state store.
type Workspace struct {
	backend Backend
	store   *state.Store
	logger  *slog.Logger

	draftMu    sync.Mutex
	strategyMu sync.Mutex
	guideMu    sync.Mutex
}

// New creates a workspace. The store is not rehydrated here.
func New(backend Backend, store *state.Store, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{backend: backend, store: store, logger: logger}
}

// State returns a copy of the current client state.
func (w *Workspace) State() domain.ClientState {
	return w.store.Snapshot()
}

// SetInput records the drafting input as typed.
func (w *Workspace) SetInput(ctx context.Context, text string) error {
	return w.store.SetInput(ctx, text)
}

// Draft requests a drafting result for text and stores it as the live result.
// It returns nil without error when text is blank.
func (w *Workspace) Draft(ctx context.Context, text string, caseType domain.CaseType) (*drafting.DraftOutput, error) {
	if isBlank(text) {
		return nil, nil
	}
	if !w.draftMu.TryLock() {
		return nil, ErrBusy
	}
	defer w.draftMu.Unlock()

	out, err := w.backend.Draft(ctx, text, caseType)
	if err != nil {
		return nil, err
	}

	record := out.Result.Record
	if err := w.store.SetResult(ctx, &record); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ask sends one strategy question on the current session and appends the
// exchange. It returns nil without error when text is blank.
func (w *Workspace) Ask(ctx context.Context, text string) (*domain.Exchange, error) {
	if isBlank(text) {
		return nil, nil
	}
	if !w.strategyMu.TryLock() {
		return nil, ErrBusy
	}
	defer w.strategyMu.Unlock()

	token := w.store.Snapshot().StrategyThreadID
	out, err := w.backend.Strategize(ctx, text, token)
	if err != nil {
		return nil, err
	}

	if out.ThreadID != token {
		w.logger.Debug("Strategy session started", "thread_id", out.ThreadID)
	}

	reply := domain.AssistantReply{Turn: out.Result.Record}
	if out.Result.Degraded {
		reply.Degraded = true
		reply.Raw = out.Result.Raw
	}
	ex, err := w.store.RecordTurn(ctx, out.ThreadID, domain.Exchange{User: text, Assistant: reply})
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

// Guide requests a statute guide. Guide results are not stored.
// It returns nil without error when text is blank.
func (w *Workspace) Guide(ctx context.Context, text string) (*drafting.GuideOutput, error) {
	if isBlank(text) {
		return nil, nil
	}
	if !w.guideMu.TryLock() {
		return nil, ErrBusy
	}
	defer w.guideMu.Unlock()

	out, err := w.backend.Guide(ctx, text)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Reset ends the strategy conversation. The drafting input is kept.
func (w *Workspace) Reset(ctx context.Context) error {
	if !w.strategyMu.TryLock() {
		return ErrBusy
	}
	defer w.strategyMu.Unlock()
	return w.store.ResetConversation(ctx)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
