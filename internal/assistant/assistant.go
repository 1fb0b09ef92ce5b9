// Package assistant is the boundary to the hosted conversational-assistant service.
package assistant

import (
	"context"
	"errors"
	"fmt"
)

// ErrSessionExpired is returned when the service no longer recognizes a thread.
var ErrSessionExpired = errors.New("assistant session expired")

// Run statuses reported by the service.
const (
	StatusQueued         = "queued"
	StatusInProgress     = "in_progress"
	StatusCancelling     = "cancelling"
	StatusRequiresAction = "requires_action"
	StatusCompleted      = "completed"
	StatusFailed         = "failed"
	StatusCancelled      = "cancelled"
	StatusExpired        = "expired"
	StatusIncomplete     = "incomplete"
)

// IsTerminal reports whether a run in this status will not change any further
// without client action.
func IsTerminal(status string) bool {
	switch status {
	case StatusQueued, StatusInProgress, StatusCancelling:
		return false
	default:
		return true
	}
}

// RunOptions configures a single run on a thread.
type RunOptions struct {
	AssistantID  string
	Instructions string
	// JSONMode asks the service for a JSON object response format.
	JSONMode bool
}

// Run is the terminal outcome of a run.
type Run struct {
	ID        string
	Status    string
	LastError string
}

// Client defines the operations the orchestrator needs from the service.
// This interface is implemented by OpenAIClient.
type Client interface {
	// CreateThread starts a new conversation and returns its token.
	CreateThread(ctx context.Context) (string, error)

	// AddMessage posts a user turn. Returns ErrSessionExpired when the thread is gone.
	AddMessage(ctx context.Context, threadID, content string) error

	// RunAndWait starts a run and blocks until it reaches a terminal status.
	RunAndWait(ctx context.Context, threadID string, opts RunOptions) (Run, error)

	// LatestReply returns the text of the most recent assistant message.
	LatestReply(ctx context.Context, threadID string) (string, error)
}

// RunError reports a run that ended in a status other than completed.
type RunError struct {
	Status  string
	Message string
}

func (e *RunError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("assistant run ended with status %s", e.Status)
	}
	return fmt.Sprintf("assistant run ended with status %s: %s", e.Status, e.Message)
}
