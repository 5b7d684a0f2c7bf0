package coauthor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fogfish/opts"
	"github.com/google/uuid"
	"github.com/underline-app/coauthor/broker"
	"github.com/underline-app/coauthor/credit"
	"github.com/underline-app/coauthor/document"
	"github.com/underline-app/coauthor/pkg/slogx"
	"github.com/underline-app/coauthor/pkg/uuidx"
	"github.com/underline-app/coauthor/prompt"
	"github.com/underline-app/coauthor/provider"
)

// DefaultGenerationCost is the credits charged per generation when no other
// cost is configured.
const DefaultGenerationCost = 1

// Surface is the controller for one editing surface's generation lifecycle.
// It owns the current State, the captured insertion target and the text that
// occupied it, and the in-flight cancel func. At most one generation runs at
// a time; a second Submit is refused with ErrBusy, never queued.
//
// The visible document is never touched before Accept. Reject and Cancel are
// state-only, so after either the document is byte-identical to its state
// before Submit.
type Surface struct {
	provider   provider.Provider
	reconciler *document.Reconciler
	gate       *credit.Gate
	hook       Hook
	broker     broker.Broker
	userID     string
	cost       int

	mu       sync.Mutex
	state    State
	target   *document.Range
	original string
	text     string
	cancel   context.CancelFunc
	done     chan struct{}
}

var (
	// WithHook registers the lifecycle callback receiver.
	WithHook = opts.ForName[Surface, Hook]("hook")
	// WithCreditGate enables the pre-flight credit check and the
	// post-acceptance deduction.
	WithCreditGate = opts.ForName[Surface, *credit.Gate]("gate")
	// WithBroker publishes stream events to a topic keyed by the run ID so
	// remote observers can follow along.
	WithBroker = opts.ForName[Surface, broker.Broker]("broker")
	// WithUser sets the user the credit gate charges.
	WithUser = opts.ForName[Surface, string]("userID")
	// WithGenerationCost overrides DefaultGenerationCost.
	WithGenerationCost = opts.ForName[Surface, int]("cost")
)

func NewSurface(prov provider.Provider, reconciler *document.Reconciler, options ...opts.Option[Surface]) *Surface {
	if prov == nil {
		panic("provider cannot be nil")
	}
	if reconciler == nil {
		panic("reconciler cannot be nil")
	}

	surface := &Surface{
		provider:   prov,
		reconciler: reconciler,
		cost:       DefaultGenerationCost,
		state:      Idle{},
	}
	if err := opts.Apply(surface, options); err != nil {
		panic(err)
	}
	if surface.hook == nil {
		surface.hook = NoopHook()
	}
	return surface
}

// State returns the current lifecycle state.
func (s *Surface) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Message returns the latest assembled text: the partial accumulation while
// loading, the final text on success, empty otherwise.
func (s *Surface) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Target returns the captured insertion target, nil meaning at cursor.
func (s *Surface) Target() *document.Range {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// OriginalText returns the text that occupied the captured target at submit
// time, empty when the target was nil. This is what an undo of Accept
// restores.
func (s *Surface) OriginalText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.original
}

// Submit starts a generation from Idle. The credit pre-check runs before any
// provider call; an insufficiency refusal leaves the surface Idle and costs
// nothing. The insertion target and the text currently occupying it are
// captured here so Accept and undo know what they are replacing. Deduction
// happens once the provider has accepted the request, which is when the
// first stream event arrives, not when the user accepts the output.
//
// Submit blocks until the request is on the wire or refused; streaming
// happens in the background after it returns.
func (s *Surface) Submit(ctx context.Context, instruction string, pctx prompt.Context, target *document.Range) (uuid.UUID, error) {
	runID := uuidx.New()

	s.mu.Lock()
	next, err := beginGeneration(s.state, runID)
	if err != nil {
		s.mu.Unlock()
		return uuid.Nil, err
	}
	s.state = next
	s.mu.Unlock()

	// Pre-flight runs outside the lock so state reads never block on the
	// network. The Loading transition above already claims the surface.
	if s.gate != nil {
		if err := s.gate.Reserve(ctx, s.userID, s.cost); err != nil {
			s.rollbackPending(runID)
			return uuid.Nil, err
		}
	}

	composed := prompt.Compose(instruction, pctx)
	runCtx, cancel := context.WithCancel(ctx)
	events, err := s.provider.Generate(runCtx, provider.Request{
		RunID:           runID,
		Prompt:          composed,
		Sources:         pctx.Sources,
		Snippets:        pctx.Snippets,
		DocumentContext: pctx.DocumentExcerpt,
	})
	if err != nil {
		cancel()
		s.rollbackPending(runID)
		return uuid.Nil, fmt.Errorf("failed to start generation: %w", err)
	}

	s.mu.Lock()
	if loading, ok := s.state.(Loading); !ok || loading.RunID != runID {
		// Reset raced the pre-flight; the run never started.
		s.mu.Unlock()
		cancel()
		return uuid.Nil, context.Canceled
	}
	s.target = target
	s.original = s.reconciler.Snapshot(target)
	s.text = ""
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	go s.consume(runCtx, cancel, runID, events, done)
	return runID, nil
}

// rollbackPending releases the surface claimed by a Submit whose pre-flight
// failed, unless something else already moved the state on.
func (s *Surface) rollbackPending(runID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loading, ok := s.state.(Loading); ok && loading.RunID == runID {
		s.state = resetGeneration(s.state)
	}
}

// Accept commits the successful generation into the document as one undo
// step and resets to Idle. Valid only from Success; on a reconciliation
// failure the state is kept so the user can retry.
func (s *Surface) Accept() error {
	s.mu.Lock()
	success, ok := s.state.(Success)
	if !ok {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("accept requires a successful generation, state is %s", state)
	}
	target := s.target
	s.mu.Unlock()

	if err := s.reconciler.Accept(target, success.Text); err != nil {
		return err
	}

	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	return nil
}

// Reject discards the generation without touching the document. Valid from
// Success, Failed, or Loading; rejecting mid-stream aborts it.
func (s *Surface) Reject() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.(type) {
	case Success, Failed, Loading:
		s.resetLocked()
		return nil
	default:
		return fmt.Errorf("nothing to reject, state is %s", s.state)
	}
}

// Cancel aborts an in-flight stream, discards partial text, and resets to
// Idle. Calling it when nothing is loading is a no-op, so it is idempotent.
func (s *Surface) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.(Loading); ok {
		s.resetLocked()
	}
}

// Reset forces the surface back to Idle from any state, aborting an
// in-flight stream if there is one. Idempotent.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Wait blocks until the current run's teardown, after OnComplete has fired.
// Returns immediately when nothing was submitted.
func (s *Surface) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Surface) resetLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = resetGeneration(s.state)
	s.target = nil
	s.original = ""
	s.text = ""
}

// consume drains the provider's event channel on a single goroutine,
// updating state and invoking hook callbacks in stream order. The channel
// closing is the teardown signal.
func (s *Surface) consume(ctx context.Context, cancel context.CancelFunc, runID uuid.UUID, events <-chan provider.StreamEvent, done chan struct{}) {
	defer close(done)
	defer cancel()

	var topic broker.Topic
	if s.broker != nil {
		topic = s.broker.Topic(ctx, runID.String())
	}

	committed := false
	for event := range events {
		if topic != nil {
			if err := topic.Publish(ctx, event); err != nil {
				slog.WarnContext(ctx, "failed to publish stream event", slogx.Error(err))
			}
		}

		switch ev := event.(type) {
		case provider.Delim:
			if ev.Delim == "start" && !committed {
				s.commitCredits(ctx)
				committed = true
			}
		case provider.Chunk:
			if !committed {
				s.commitCredits(ctx)
				committed = true
			}
			s.mu.Lock()
			if loading, ok := s.state.(Loading); !ok || loading.RunID != runID {
				// A stale run draining after an abort; the surface has
				// moved on.
				s.mu.Unlock()
				continue
			}
			s.text = ev.Content
			s.mu.Unlock()
			s.hook.OnChunk(ctx, ev.Content)
		case provider.Response:
			s.mu.Lock()
			next, err := completeGeneration(s.state, runID, ev.Content)
			if err != nil {
				s.mu.Unlock()
				continue
			}
			s.state = next
			s.text = ev.Content
			s.mu.Unlock()
			s.hook.OnSuccess(ctx, ev.Content)
		case provider.Error:
			s.mu.Lock()
			next, err := failGeneration(s.state, runID, ev.Err)
			if err != nil {
				s.mu.Unlock()
				continue
			}
			s.state = next
			s.mu.Unlock()
			s.hook.OnError(ctx, ev.Err)
		}
	}

	s.mu.Lock()
	if loading, ok := s.state.(Loading); ok && loading.RunID == runID {
		// Cancelled mid-stream, the provider closed without a terminal
		// event. Partial text is discarded.
		s.resetLocked()
	}
	s.mu.Unlock()

	s.hook.OnComplete(ctx)
}

func (s *Surface) commitCredits(ctx context.Context) {
	if s.gate == nil {
		return
	}
	if err := s.gate.Commit(ctx, s.userID, s.cost); err != nil {
		// The stream is already running, so this is surfaced as a warning
		// rather than unwound.
		slog.WarnContext(ctx, "credit deduction failed after stream start", slogx.Error(err))
	}
}
