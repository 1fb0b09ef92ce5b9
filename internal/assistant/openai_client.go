package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultPollInterval = time.Second
	replyScanLimit      = 20
)

// OpenAIConfig holds configuration for the OpenAI Assistants client.
type OpenAIConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint, e.g. for a proxy. Empty keeps the default.
	BaseURL      string
	PollInterval time.Duration
}

// OpenAIClient talks to the OpenAI Assistants API.
type OpenAIClient struct {
	client       *openai.Client
	pollInterval time.Duration
	logger       *slog.Logger
}

// Ensure OpenAIClient implements Client.
var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client. No network I/O happens until the first call.
func NewOpenAIClient(cfg OpenAIConfig, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &OpenAIClient{
		client:       openai.NewClientWithConfig(clientCfg),
		pollInterval: poll,
		logger:       logger,
	}
}

// CreateThread starts an empty thread.
func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	c.logger.Debug("Assistant thread created", "thread_id", thread.ID)
	return thread.ID, nil
}

// AddMessage posts a user message to the thread.
func (c *OpenAIClient) AddMessage(ctx context.Context, threadID, content string) error {
	_, err := c.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: content,
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("add message to %s: %w: %v", threadID, ErrSessionExpired, err)
		}
		return fmt.Errorf("add message to %s: %w", threadID, err)
	}
	return nil
}

// RunAndWait creates a run and polls it until it reaches a terminal status.
// There is no deadline besides ctx.
func (c *OpenAIClient) RunAndWait(ctx context.Context, threadID string, opts RunOptions) (Run, error) {
	req := openai.RunRequest{
		AssistantID:  opts.AssistantID,
		Instructions: opts.Instructions,
	}
	if opts.JSONMode {
		req.ResponseFormat = map[string]string{"type": "json_object"}
	}

	run, err := c.client.CreateRun(ctx, threadID, req)
	if err != nil {
		if isNotFound(err) {
			return Run{}, fmt.Errorf("create run on %s: %w: %v", threadID, ErrSessionExpired, err)
		}
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	c.logger.Info("Assistant run started", "thread_id", threadID, "run_id", run.ID, "json_mode", opts.JSONMode)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for !IsTerminal(string(run.Status)) {
		select {
		case <-ctx.Done():
			return Run{}, ctx.Err()
		case <-ticker.C:
		}
		run, err = c.client.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			if isNotFound(err) {
				return Run{}, fmt.Errorf("retrieve run on %s: %w: %v", threadID, ErrSessionExpired, err)
			}
			return Run{}, fmt.Errorf("retrieve run: %w", err)
		}
	}

	out := Run{ID: run.ID, Status: string(run.Status)}
	if run.LastError != nil {
		out.LastError = run.LastError.Message
	}
	c.logger.Info("Assistant run finished", "thread_id", threadID, "run_id", out.ID, "status", out.Status)
	return out, nil
}

// LatestReply returns the first text content of the newest assistant message.
// It returns an empty string when the thread has no assistant text.
func (c *OpenAIClient) LatestReply(ctx context.Context, threadID string) (string, error) {
	limit := replyScanLimit
	order := "desc"
	list, err := c.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}
	for _, msg := range list.Messages {
		if msg.Role != string(openai.ThreadMessageRoleAssistant) {
			continue
		}
		for _, content := range msg.Content {
			if content.Type == "text" && content.Text != nil {
				return content.Text.Value, nil
			}
		}
		return "", nil
	}
	return "", nil
}

func isNotFound(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusNotFound
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusNotFound
	}
	return false
}
