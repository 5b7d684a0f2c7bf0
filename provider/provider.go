package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/underline-app/coauthor/prompt"
)

// Request describes one generation call. Prompt is the composed instruction
// (see the prompt package); the context lists ride along so backends that
// do their own composition server-side receive the raw material too.
type Request struct {
	RunID           uuid.UUID        `json:"run_id"`
	Prompt          string           `json:"prompt"`
	Sources         []prompt.Source  `json:"sources"`
	Snippets        []prompt.Snippet `json:"snippets"`
	DocumentContext string           `json:"documentContext,omitempty"`
}

// Provider is a completion backend.
type Provider interface {
	// Generate starts one completion. The returned channel delivers stream
	// events in arrival order and is closed on teardown. Cancelling ctx
	// stops further events; a Response is never delivered after cancel.
	Generate(ctx context.Context, req Request) (<-chan StreamEvent, error)
}

// RequestError is the terminal error for a request the backend refused,
// carrying the raw response body for diagnosis.
type RequestError struct {
	Status  int    `json:"status"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
	Body    string `json:"-"`
}

func (e *RequestError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("provider returned %d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("provider returned %d: %s", e.Status, e.Message)
}
