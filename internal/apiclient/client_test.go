package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashureev/lawmate/internal/assistant"
	"github.com/ashureev/lawmate/internal/domain"
	"github.com/ashureev/lawmate/internal/drafting"
)

func TestDraftDecodesResult(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"prayer":"p","cause":"c","law":"l","case":"k","strategy":"s"}}`))
	}))
	defer srv.Close()

	out, err := New(srv.URL).Draft(context.Background(), "facts", domain.CaseTypeEviction)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if got["prompt"] != "facts" || got["caseType"] != "eviction" {
		t.Fatalf("request body = %v", got)
	}
	if out.Result.Degraded || out.Result.Record.Prayer != "p" {
		t.Fatalf("unexpected result: %+v", out.Result)
	}
}

func TestStrategizeDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["threadId"] != "thread_1" {
			t.Errorf("threadId = %q", body["threadId"])
		}
		_, _ = w.Write([]byte(`{"result":{"analysis":"oops","options":[],"risk":"-","laws":[],"recommendation":"-"},"threadId":"thread_1","degraded":true,"raw":"oops"}`))
	}))
	defer srv.Close()

	out, err := New(srv.URL).Strategize(context.Background(), "q", "thread_1")
	if err != nil {
		t.Fatalf("Strategize: %v", err)
	}
	if !out.Result.Degraded || out.Result.Raw != "oops" || !errors.Is(out.Result.Err, ErrRemoteDegraded) {
		t.Fatalf("unexpected result: %+v", out.Result)
	}
	if out.ThreadID != "thread_1" {
		t.Fatalf("ThreadID = %q", out.ThreadID)
	}
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"session expired", http.StatusGone, `{"error":"gone","code":"session_expired"}`, assistant.ErrSessionExpired},
		{"rate limited", http.StatusTooManyRequests, `{"error":"slow down"}`, ErrRateLimited},
		{"empty prompt", http.StatusBadRequest, `{"error":"please type something","code":"empty_prompt"}`, drafting.ErrEmptyPrompt},
		{"bad body", http.StatusBadRequest, `{"error":"invalid request body"}`, ErrBadRequest},
		{"message without code", http.StatusBadRequest, `{"error":"prompt is required"}`, ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Guide(context.Background(), "q")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.want == ErrBadRequest && errors.Is(err, drafting.ErrEmptyPrompt) {
				t.Fatalf("err = %v must not be read as an empty prompt", err)
			}
			var statusErr *StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != tt.status {
				t.Fatalf("expected StatusError with %d, got %v", tt.status, err)
			}
		})
	}
}

func TestServerErrorKeepsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"assistant run ended with status failed"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Draft(context.Background(), "facts", domain.CaseTypeGeneral)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Message != "assistant run ended with status failed" {
		t.Fatalf("unexpected error: %v", err)
	}
	if errors.Is(err, assistant.ErrSessionExpired) {
		t.Fatal("500 must not look like an expired session")
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := map[string]string{
		"":                       "http://localhost:8080",
		"localhost:9000/":        "http://localhost:9000",
		"https://lawmate.test//": "https://lawmate.test",
	}
	for in, want := range cases {
		if got := normalizeBaseURL(in); got != want {
			t.Errorf("normalizeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}
