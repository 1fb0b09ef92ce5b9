// Package drafting orchestrates requests to the hosted assistant for the
// drafting, strategy and guide flows.
package drafting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/lawmate/internal/assistant"
	"github.com/ashureev/lawmate/internal/domain"
	"github.com/ashureev/lawmate/internal/normalize"
	"github.com/ashureev/lawmate/internal/prompt"
)

var (
	// ErrEmptyPrompt is returned before any network call when the input is blank.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrNotConfigured is returned when the credential or assistant id is missing.
	ErrNotConfigured = errors.New("assistant is not configured")
)

// Config holds the assistant settings the service needs on every request.
type Config struct {
	APIKey      string
	AssistantID string
	// DraftJSONMode requests the JSON object response format for drafting runs.
	DraftJSONMode bool
}

// Validate names every missing setting.
func (c Config) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.AssistantID == "" {
		missing = append(missing, "OPENAI_ASSISTANT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not set", ErrNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

// DraftOutput is the outcome of a drafting request.
type DraftOutput struct {
	Result   normalize.Result[domain.DraftingResult]
	ThreadID string
}

// StrategyOutput is the outcome of one strategy turn.
type StrategyOutput struct {
	Result   normalize.Result[domain.StrategyTurn]
	ThreadID string
}

// GuideOutput is the outcome of a guide request.
type GuideOutput struct {
	Result   normalize.Result[domain.GuideResult]
	ThreadID string
}

// Service sends one turn at a time to the assistant. It never retries.
type Service struct {
	client assistant.Client
	cfg    Config
	logger *slog.Logger
}

// NewService creates a new orchestration service.
func NewService(client assistant.Client, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, cfg: cfg, logger: logger}
}

// Configured reports whether requests can be sent at all.
func (s *Service) Configured() bool {
	return s.cfg.Validate() == nil
}

// Draft produces a drafting result on a fresh thread.
func (s *Service) Draft(ctx context.Context, text string, caseType domain.CaseType) (DraftOutput, error) {
	if err := s.precheck(text); err != nil {
		return DraftOutput{}, err
	}
	threadID, reply, err := s.ask(ctx, "", prompt.Drafting(caseType, text), assistant.RunOptions{
		AssistantID:  s.cfg.AssistantID,
		Instructions: prompt.DraftingInstructions,
		JSONMode:     s.cfg.DraftJSONMode,
	})
	if err != nil {
		return DraftOutput{}, err
	}
	res := normalize.Drafting(reply)
	s.logDegraded("draft", threadID, res.Degraded, res.Err)
	return DraftOutput{Result: res, ThreadID: threadID}, nil
}

// Strategize sends one strategy question, continuing threadID when set.
func (s *Service) Strategize(ctx context.Context, text, threadID string) (StrategyOutput, error) {
	if err := s.precheck(text); err != nil {
		return StrategyOutput{}, err
	}
	threadID, reply, err := s.ask(ctx, threadID, prompt.Strategy(text), assistant.RunOptions{
		AssistantID: s.cfg.AssistantID,
	})
	if err != nil {
		return StrategyOutput{}, err
	}
	res := normalize.Strategy(reply)
	s.logDegraded("strategy", threadID, res.Degraded, res.Err)
	return StrategyOutput{Result: res, ThreadID: threadID}, nil
}

// Guide explains the statutes relevant to a situation on a fresh thread.
func (s *Service) Guide(ctx context.Context, text string) (GuideOutput, error) {
	if err := s.precheck(text); err != nil {
		return GuideOutput{}, err
	}
	threadID, reply, err := s.ask(ctx, "", prompt.Guide(text), assistant.RunOptions{
		AssistantID: s.cfg.AssistantID,
	})
	if err != nil {
		return GuideOutput{}, err
	}
	res := normalize.Guide(reply)
	s.logDegraded("guide", threadID, res.Degraded, res.Err)
	return GuideOutput{Result: res, ThreadID: threadID}, nil
}

func (s *Service) precheck(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyPrompt
	}
	return s.cfg.Validate()
}

// ask runs a single turn and returns the thread it ran on with the raw reply.
func (s *Service) ask(ctx context.Context, threadID, message string, opts assistant.RunOptions) (string, string, error) {
	if threadID == "" {
		id, err := s.client.CreateThread(ctx)
		if err != nil {
			return "", "", err
		}
		threadID = id
	}

	if err := s.client.AddMessage(ctx, threadID, message); err != nil {
		return "", "", err
	}

	run, err := s.client.RunAndWait(ctx, threadID, opts)
	if err != nil {
		return "", "", err
	}
	if run.Status != assistant.StatusCompleted {
		s.logger.Error("Assistant run did not complete",
			"thread_id", threadID,
			"run_id", run.ID,
			"status", run.Status,
			"last_error", run.LastError,
		)
		return "", "", &assistant.RunError{Status: run.Status, Message: run.LastError}
	}

	reply, err := s.client.LatestReply(ctx, threadID)
	if err != nil {
		return "", "", err
	}
	return threadID, reply, nil
}

func (s *Service) logDegraded(flow, threadID string, degraded bool, err error) {
	if !degraded {
		return
	}
	s.logger.Warn("Assistant reply could not be decoded, returning degraded record",
		"flow", flow,
		"thread_id", threadID,
		"error", err,
	)
}
