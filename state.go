package coauthor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrBusy reports that a generation is already in flight on this surface.
// Requests are refused rather than queued.
var ErrBusy = errors.New("a generation is already in flight")

// State is the generation lifecycle status of a surface. It is a closed
// union: Idle, Loading, Success, or Failed. Values are immutable; the
// transition functions return the next state instead of mutating.
type State interface {
	fmt.Stringer
	generationState()
}

// Idle means no generation is in flight and none is awaiting review.
type Idle struct{}

func (Idle) generationState() {}
func (Idle) String() string   { return "idle" }

// Loading means a request is in flight and chunks may still arrive.
type Loading struct {
	RunID uuid.UUID
}

func (Loading) generationState() {}
func (Loading) String() string   { return "loading" }

// Success holds the final assembled text, awaiting accept or reject.
type Success struct {
	RunID uuid.UUID
	Text  string
}

func (Success) generationState() {}
func (Success) String() string   { return "success" }

// Failed holds the terminal error for the run. The surface stays here until
// an explicit reset so the message remains visible and the prompt can be
// retried without re-entry.
type Failed struct {
	RunID uuid.UUID
	Err   error
}

func (Failed) generationState() {}
func (Failed) String() string   { return "error" }

func beginGeneration(s State, runID uuid.UUID) (State, error) {
	if _, ok := s.(Idle); !ok {
		return s, ErrBusy
	}
	return Loading{RunID: runID}, nil
}

func completeGeneration(s State, runID uuid.UUID, text string) (State, error) {
	loading, ok := s.(Loading)
	if !ok {
		return s, fmt.Errorf("cannot complete a generation from %s", s)
	}
	if loading.RunID != runID {
		return s, fmt.Errorf("run %s is stale, current run is %s", runID, loading.RunID)
	}
	return Success{RunID: runID, Text: text}, nil
}

func failGeneration(s State, runID uuid.UUID, err error) (State, error) {
	loading, ok := s.(Loading)
	if !ok {
		return s, fmt.Errorf("cannot fail a generation from %s", s)
	}
	if loading.RunID != runID {
		return s, fmt.Errorf("run %s is stale, current run is %s", runID, loading.RunID)
	}
	return Failed{RunID: runID, Err: err}, nil
}

func resetGeneration(State) State {
	return Idle{}
}
