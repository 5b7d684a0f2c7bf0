package coauthor

import "context"

// Hook receives lifecycle callbacks for one submitted generation, in stream
// order on a single goroutine. At most one of OnSuccess or OnError fires per
// submit, always after every OnChunk; OnComplete fires exactly once as the
// teardown signal regardless of how the run ended. A cancelled run tears
// down without a terminal callback: cancellation is user-initiated, not a
// failure.
type Hook interface {
	// OnChunk delivers the cumulative assembled text after each decoded
	// increment, not just the delta.
	OnChunk(context.Context, string)

	OnSuccess(context.Context, string)

	OnError(context.Context, error)

	OnComplete(context.Context)
}

func NoopHook() Hook {
	return noopHook{}
}

type noopHook struct{}

func (noopHook) OnChunk(context.Context, string) {}

func (noopHook) OnSuccess(context.Context, string) {}

func (noopHook) OnError(context.Context, error) {}

func (noopHook) OnComplete(context.Context) {}
