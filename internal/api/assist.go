package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/lawmate/internal/assistant"
	"github.com/ashureev/lawmate/internal/domain"
	"github.com/ashureev/lawmate/internal/drafting"
	"github.com/ashureev/lawmate/internal/identity"
	"github.com/ashureev/lawmate/internal/middleware"
	"github.com/ashureev/lawmate/internal/normalize"
	"github.com/go-chi/chi/v5"
)

// Error codes sent alongside the message for failures clients act on.
const (
	CodeEmptyPrompt    = "empty_prompt"
	CodeSessionExpired = "session_expired"
)

// Orchestrator runs the three assistant flows.
// This interface is implemented by drafting.Service.
type Orchestrator interface {
	Configured() bool
	Draft(ctx context.Context, text string, caseType domain.CaseType) (drafting.DraftOutput, error)
	Strategize(ctx context.Context, text, threadID string) (drafting.StrategyOutput, error)
	Guide(ctx context.Context, text string) (drafting.GuideOutput, error)
}

// AssistHandler serves the drafting, strategy and guide routes.
type AssistHandler struct {
	orch    Orchestrator
	limiter *middleware.RateLimiter
	maxBody int64
}

// NewAssistHandler creates a new assistant handler. A nil limiter disables throttling.
func NewAssistHandler(orch Orchestrator, limiter *middleware.RateLimiter, maxBody int64) *AssistHandler {
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &AssistHandler{orch: orch, limiter: limiter, maxBody: maxBody}
}

// RegisterRoutes registers the assistant routes.
func (h *AssistHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/config", h.GetConfig)
	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(middleware.RateLimit(h.limiter, throttleKey))
		}
		r.Post("/api/generate", h.Generate)
		r.Post("/api/strategy", h.Strategy)
		r.Post("/api/guide", h.Guide)
	})
}

// throttleKey rate-limits by device, falling back to the client address.
func throttleKey(r *http.Request) string {
	if owner := identity.OwnerIDFromContext(r.Context()); owner != "" {
		return owner
	}
	return identity.IPFromRequest(r)
}

type generateRequest struct {
	Prompt   string `json:"prompt"`
	CaseType string `json:"caseType"`
}

type strategyRequest struct {
	Prompt   string `json:"prompt"`
	ThreadID string `json:"threadId"`
}

type guideRequest struct {
	Prompt string `json:"prompt"`
}

type assistResponse[T any] struct {
	Result   T      `json:"result"`
	ThreadID string `json:"threadId,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
	Raw      string `json:"raw,omitempty"`
}

func newAssistResponse[T any](res normalize.Result[T], threadID string) assistResponse[T] {
	out := assistResponse[T]{Result: res.Record, ThreadID: threadID}
	if res.Degraded {
		out.Degraded = true
		out.Raw = res.Raw
	}
	return out
}

// GetConfig returns the server configuration for the frontend.
func (h *AssistHandler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	types := make([]map[string]string, 0, len(domain.CaseTypes()))
	for _, ct := range domain.CaseTypes() {
		types = append(types, map[string]string{"value": string(ct), "label": ct.Label()})
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"assistantConfigured": h.orch.Configured(),
		"caseTypes":           types,
	})
}

// Generate handles POST /api/generate.
func (h *AssistHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	out, err := h.orch.Draft(r.Context(), req.Prompt, domain.ParseCaseType(req.CaseType))
	if err != nil {
		writeAssistError(w, r, "generate", err)
		return
	}
	JSON(w, http.StatusOK, newAssistResponse(out.Result, ""))
}

// Strategy handles POST /api/strategy.
func (h *AssistHandler) Strategy(w http.ResponseWriter, r *http.Request) {
	var req strategyRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	out, err := h.orch.Strategize(r.Context(), req.Prompt, req.ThreadID)
	if err != nil {
		writeAssistError(w, r, "strategy", err)
		return
	}
	JSON(w, http.StatusOK, newAssistResponse(out.Result, out.ThreadID))
}

// Guide handles POST /api/guide.
func (h *AssistHandler) Guide(w http.ResponseWriter, r *http.Request) {
	var req guideRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	out, err := h.orch.Guide(r.Context(), req.Prompt)
	if err != nil {
		writeAssistError(w, r, "guide", err)
		return
	}
	JSON(w, http.StatusOK, newAssistResponse(out.Result, ""))
}

func writeAssistError(w http.ResponseWriter, r *http.Request, flow string, err error) {
	var runErr *assistant.RunError
	switch {
	case errors.Is(err, drafting.ErrEmptyPrompt):
		ErrorWithCode(w, http.StatusBadRequest, CodeEmptyPrompt, "prompt is required")
	case errors.Is(err, drafting.ErrNotConfigured):
		slog.Error("Assistant not configured", "flow", flow, "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, assistant.ErrSessionExpired):
		slog.Info("Assistant session expired", "flow", flow, "owner_id", identity.OwnerIDFromContext(r.Context()))
		ErrorWithCode(w, http.StatusGone, CodeSessionExpired, "conversation session expired, please start a new one")
	case errors.As(err, &runErr):
		Error(w, http.StatusInternalServerError, runErr.Error())
	default:
		slog.Error("Assistant request failed", "flow", flow, "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
	}
}
