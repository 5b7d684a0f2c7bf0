package broker

import (
	"context"
	"log/slog"
	"slices"

	"github.com/underline-app/coauthor/pkg/slogx"
	"github.com/underline-app/coauthor/provider"
)

// Hook receives the stream events published to a topic. Delim events are
// stream framing and are not forwarded.
type Hook interface {
	OnChunk(context.Context, provider.Chunk)

	OnResponse(context.Context, provider.Response)

	OnError(context.Context, error)
}

func LoggingHook() Hook {
	return loggingHook{}
}

type loggingHook struct{}

func (loggingHook) OnChunk(ctx context.Context, chunk provider.Chunk) {
	slog.InfoContext(ctx, "generation chunk", slog.String("runID", chunk.RunID.String()), slog.String("delta", chunk.Delta))
}

func (loggingHook) OnResponse(ctx context.Context, resp provider.Response) {
	slog.InfoContext(ctx, "generation response", slog.String("runID", resp.RunID.String()), slog.Int("length", len(resp.Content)))
}

func (loggingHook) OnError(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "generation error", slogx.Error(err))
}

func NewCompositeHook(hooks ...Hook) Hook {
	return CompositeHook(hooks)
}

// CompositeHook combines multiple hooks into a single hook implementation.
type CompositeHook []Hook

func (c CompositeHook) OnChunk(ctx context.Context, chunk provider.Chunk) {
	for h := range slices.Values(c) {
		h.OnChunk(ctx, chunk)
	}
}

func (c CompositeHook) OnResponse(ctx context.Context, resp provider.Response) {
	for h := range slices.Values(c) {
		h.OnResponse(ctx, resp)
	}
}

func (c CompositeHook) OnError(ctx context.Context, err error) {
	for h := range slices.Values(c) {
		h.OnError(ctx, err)
	}
}
