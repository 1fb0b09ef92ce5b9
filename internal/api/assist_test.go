package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/lawmate/internal/assistant"
	"github.com/ashureev/lawmate/internal/domain"
	"github.com/ashureev/lawmate/internal/drafting"
	"github.com/ashureev/lawmate/internal/middleware"
	"github.com/ashureev/lawmate/internal/normalize"
	"github.com/go-chi/chi/v5"
)

type fakeOrchestrator struct {
	configured bool
	err        error

	gotText     string
	gotCaseType domain.CaseType
	gotThread   string

	draftReply    string
	strategyReply string
	guideReply    string
}

func (f *fakeOrchestrator) Configured() bool { return f.configured }

func (f *fakeOrchestrator) Draft(_ context.Context, text string, ct domain.CaseType) (drafting.DraftOutput, error) {
	f.gotText, f.gotCaseType = text, ct
	if f.err != nil {
		return drafting.DraftOutput{}, f.err
	}
	return drafting.DraftOutput{Result: normalize.Drafting(f.draftReply), ThreadID: "thread_d"}, nil
}

func (f *fakeOrchestrator) Strategize(_ context.Context, text, threadID string) (drafting.StrategyOutput, error) {
	f.gotText, f.gotThread = text, threadID
	if f.err != nil {
		return drafting.StrategyOutput{}, f.err
	}
	if threadID == "" {
		threadID = "thread_new"
	}
	return drafting.StrategyOutput{Result: normalize.Strategy(f.strategyReply), ThreadID: threadID}, nil
}

func (f *fakeOrchestrator) Guide(_ context.Context, text string) (drafting.GuideOutput, error) {
	f.gotText = text
	if f.err != nil {
		return drafting.GuideOutput{}, f.err
	}
	return drafting.GuideOutput{Result: normalize.Guide(f.guideReply), ThreadID: "thread_g"}, nil
}

func newAssistRouter(orch Orchestrator, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	NewAssistHandler(orch, limiter, 0).RegisterRoutes(r)
	return r
}

func post(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var got map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return w, got
}

func TestGenerateReturnsDraftingResult(t *testing.T) {
	orch := &fakeOrchestrator{
		configured: true,
		draftReply: "```json\n{\"prayer\":\"피고는 원고에게 금 1,000만 원을 지급하라.\",\"cause\":\"c\",\"law\":\"l\",\"case\":\"k\",\"strategy\":\"s\"}\n```",
	}
	w, got := post(t, newAssistRouter(orch, nil), "/api/generate", `{"prompt":"빌려준 돈을 받지 못했습니다","caseType":"money"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if orch.gotCaseType != domain.CaseTypeMoney {
		t.Errorf("Expected case type money, got %q", orch.gotCaseType)
	}
	result, ok := got["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("Missing result: %v", got)
	}
	if result["prayer"] != "피고는 원고에게 금 1,000만 원을 지급하라." {
		t.Errorf("Unexpected prayer: %v", result["prayer"])
	}
	if _, ok := got["degraded"]; ok {
		t.Errorf("Successful decode must not be marked degraded: %v", got)
	}
}

func TestGenerateDegradedAddsRaw(t *testing.T) {
	orch := &fakeOrchestrator{configured: true, draftReply: "죄송합니다. 다시 시도해 주세요."}
	w, got := post(t, newAssistRouter(orch, nil), "/api/generate", `{"prompt":"사실관계","caseType":"bogus"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if got["degraded"] != true || got["raw"] != "죄송합니다. 다시 시도해 주세요." {
		t.Errorf("Expected degraded response with raw text, got %v", got)
	}
	if orch.gotCaseType != domain.CaseTypeUnified {
		t.Errorf("Unknown case type should map to unified, got %q", orch.gotCaseType)
	}
}

func TestStrategyEchoesThread(t *testing.T) {
	orch := &fakeOrchestrator{
		configured:    true,
		strategyReply: `{"analysis":"a","options":["x"],"risk":"r","laws":[],"recommendation":"go"}`,
	}
	w, got := post(t, newAssistRouter(orch, nil), "/api/strategy", `{"prompt":"다음 단계는?","threadId":"thread_42"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if orch.gotThread != "thread_42" || got["threadId"] != "thread_42" {
		t.Errorf("Thread not carried through: got=%v passed=%q", got["threadId"], orch.gotThread)
	}
}

func TestGuideReturnsLaws(t *testing.T) {
	orch := &fakeOrchestrator{
		configured: true,
		guideReply: `{"strategy":"s","laws":[{"name":"민법 제750조","summary":"불법행위","original":"..."}]}`,
	}
	w, got := post(t, newAssistRouter(orch, nil), "/api/guide", `{"prompt":"층간소음"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	result := got["result"].(map[string]interface{})
	laws := result["laws"].([]interface{})
	if len(laws) != 1 {
		t.Fatalf("Expected one law, got %v", laws)
	}
	if _, ok := got["threadId"]; ok {
		t.Errorf("Guide must not expose a thread id: %v", got)
	}
}

func TestAssistErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		wantCode string
		contains string
	}{
		{"empty prompt", drafting.ErrEmptyPrompt, http.StatusBadRequest, CodeEmptyPrompt, "prompt is required"},
		{"not configured", fmt.Errorf("%w: OPENAI_ASSISTANT_ID not set", drafting.ErrNotConfigured), http.StatusInternalServerError, "", "OPENAI_ASSISTANT_ID"},
		{"session expired", fmt.Errorf("add message: %w", assistant.ErrSessionExpired), http.StatusGone, CodeSessionExpired, ""},
		{"run failed", &assistant.RunError{Status: assistant.StatusFailed, Message: "rate_limit_exceeded"}, http.StatusInternalServerError, "", "failed"},
		{"transport", fmt.Errorf("dial tcp: connection refused"), http.StatusInternalServerError, "", "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := &fakeOrchestrator{configured: true, err: tt.err}
			w, got := post(t, newAssistRouter(orch, nil), "/api/strategy", `{"prompt":"q"}`)

			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d", tt.status, w.Code)
			}
			if tt.wantCode != "" && got["code"] != tt.wantCode {
				t.Errorf("Expected code %q, got %v", tt.wantCode, got["code"])
			}
			if msg, _ := got["error"].(string); !strings.Contains(msg, tt.contains) {
				t.Errorf("Expected error containing %q, got %q", tt.contains, msg)
			}
		})
	}
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	orch := &fakeOrchestrator{configured: true}
	w, _ := post(t, newAssistRouter(orch, nil), "/api/generate", `{"prompt":`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	if orch.gotText != "" {
		t.Error("Orchestrator must not be called for a malformed body")
	}
}

func TestAssistRoutesAreRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	orch := &fakeOrchestrator{configured: true, guideReply: `{"strategy":"s","laws":[]}`}
	h := newAssistRouter(orch, limiter)

	for i := 0; i < 2; i++ {
		if w, _ := post(t, h, "/api/guide", `{"prompt":"q"}`); w.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	if w, _ := post(t, h, "/api/guide", `{"prompt":"q"}`); w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
}

func TestGetConfig(t *testing.T) {
	h := newAssistRouter(&fakeOrchestrator{configured: false}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var got struct {
		AssistantConfigured bool                `json:"assistantConfigured"`
		CaseTypes           []map[string]string `json:"caseTypes"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.AssistantConfigured {
		t.Error("Expected assistantConfigured=false")
	}
	if len(got.CaseTypes) != len(domain.CaseTypes()) {
		t.Errorf("Expected %d case types, got %d", len(domain.CaseTypes()), len(got.CaseTypes))
	}
}
