// Package apiclient talks to a running lawmate server over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/lawmate/internal/assistant"
	"github.com/ashureev/lawmate/internal/domain"
	"github.com/ashureev/lawmate/internal/drafting"
	"github.com/ashureev/lawmate/internal/normalize"
)

var (
	// ErrRateLimited is returned when the server throttles the caller.
	ErrRateLimited = errors.New("rate limited by server")
	// ErrBadRequest is returned when the server rejects the request body.
	ErrBadRequest = errors.New("request rejected by server")
	// ErrRemoteDegraded is carried on results the server marked as degraded.
	ErrRemoteDegraded = errors.New("server could not decode the assistant reply")
)

// Error codes the server attaches to failures.
const (
	codeEmptyPrompt    = "empty_prompt"
	codeSessionExpired = "session_expired"
)

// StatusError is a non-2xx response from the server.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps well-known statuses to the errors callers test for.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusGone || e.Code == codeSessionExpired:
		return assistant.ErrSessionExpired
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.Code == codeEmptyPrompt:
		return drafting.ErrEmptyPrompt
	case e.StatusCode == http.StatusBadRequest:
		return ErrBadRequest
	default:
		return nil
	}
}

// Client calls the assistant routes of a lawmate server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL. Requests carry no overall
// timeout; the caller's context bounds them.
func New(baseURL string) *Client {
	return &Client{
		baseURL: normalizeBaseURL(baseURL),
		http: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

type response[T any] struct {
	Result   T      `json:"result"`
	ThreadID string `json:"threadId"`
	Degraded bool   `json:"degraded"`
	Raw      string `json:"raw"`
}

func (r response[T]) toResult() normalize.Result[T] {
	res := normalize.Result[T]{Record: r.Result, Degraded: r.Degraded, Raw: r.Raw}
	if r.Degraded {
		res.Err = ErrRemoteDegraded
	}
	return res
}

// Draft calls POST /api/generate.
func (c *Client) Draft(ctx context.Context, text string, caseType domain.CaseType) (drafting.DraftOutput, error) {
	var resp response[domain.DraftingResult]
	err := c.post(ctx, "/api/generate", map[string]string{"prompt": text, "caseType": string(caseType)}, &resp)
	if err != nil {
		return drafting.DraftOutput{}, err
	}
	return drafting.DraftOutput{Result: resp.toResult(), ThreadID: resp.ThreadID}, nil
}

// Strategize calls POST /api/strategy.
func (c *Client) Strategize(ctx context.Context, text, threadID string) (drafting.StrategyOutput, error) {
	body := map[string]string{"prompt": text}
	if threadID != "" {
		body["threadId"] = threadID
	}
	var resp response[domain.StrategyTurn]
	if err := c.post(ctx, "/api/strategy", body, &resp); err != nil {
		return drafting.StrategyOutput{}, err
	}
	return drafting.StrategyOutput{Result: resp.toResult(), ThreadID: resp.ThreadID}, nil
}

// Guide calls POST /api/guide.
func (c *Client) Guide(ctx context.Context, text string) (drafting.GuideOutput, error) {
	var resp response[domain.GuideResult]
	if err := c.post(ctx, "/api/guide", map[string]string{"prompt": text}, &resp); err != nil {
		return drafting.GuideOutput{}, err
	}
	return drafting.GuideOutput{Result: resp.toResult(), ThreadID: resp.ThreadID}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeStatusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeStatusError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return statusErr
	}
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(data, &body) == nil {
		statusErr.Message = body.Error
		statusErr.Code = body.Code
	} else {
		statusErr.Message = strings.TrimSpace(string(data))
	}
	return statusErr
}

func normalizeBaseURL(baseURL string) string {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return "http://localhost:8080"
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}
