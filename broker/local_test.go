package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/underline-app/coauthor/pkg/uuidx"
	"github.com/underline-app/coauthor/provider"
)

type recordingHook struct {
	mu        sync.Mutex
	chunks    []provider.Chunk
	responses []provider.Response
	errs      []error
}

func (h *recordingHook) OnChunk(_ context.Context, chunk provider.Chunk) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chunks = append(h.chunks, chunk)
}

func (h *recordingHook) OnResponse(_ context.Context, resp provider.Response) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, resp)
}

func (h *recordingHook) OnError(_ context.Context, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func (h *recordingHook) counts() (int, int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.chunks), len(h.responses), len(h.errs)
}

func TestLocalBrokerDeliversEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topic := Local().Topic(ctx, "doc1")
	hook := &recordingHook{}
	sub, err := topic.Subscribe(ctx, hook)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	runID := uuidx.New()
	require.NoError(t, topic.Publish(ctx, provider.Delim{RunID: runID, Delim: "start"}))
	require.NoError(t, topic.Publish(ctx, provider.Chunk{RunID: runID, Delta: "The", Content: "The"}))
	require.NoError(t, topic.Publish(ctx, provider.Response{RunID: runID, Content: "The cat sat."}))
	require.NoError(t, topic.Publish(ctx, provider.Error{RunID: runID, Err: errors.New("boom")}))

	require.Eventually(t, func() bool {
		chunks, responses, errs := hook.counts()
		return chunks == 1 && responses == 1 && errs == 1
	}, time.Second, 5*time.Millisecond)

	hook.mu.Lock()
	defer hook.mu.Unlock()
	assert.Equal(t, "The", hook.chunks[0].Delta)
	assert.Equal(t, "The cat sat.", hook.responses[0].Content)
	assert.EqualError(t, hook.errs[0], "boom")
}

func TestLocalBrokerFansOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topic := Local().Topic(ctx, "doc1")
	first := &recordingHook{}
	second := &recordingHook{}

	sub1, err := topic.Subscribe(ctx, first)
	require.NoError(t, err)
	defer sub1.Unsubscribe()
	sub2, err := topic.Subscribe(ctx, second)
	require.NoError(t, err)
	defer sub2.Unsubscribe()

	require.NoError(t, topic.Publish(ctx, provider.Chunk{RunID: uuidx.New(), Delta: "hi", Content: "hi"}))

	require.Eventually(t, func() bool {
		c1, _, _ := first.counts()
		c2, _, _ := second.counts()
		return c1 == 1 && c2 == 1
	}, time.Second, 5*time.Millisecond)
}

func TestLocalBrokerUnsubscribeStopsDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topic := Local().Topic(ctx, "doc1")
	hook := &recordingHook{}
	sub, err := topic.Subscribe(ctx, hook)
	require.NoError(t, err)

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	require.NoError(t, topic.Publish(ctx, provider.Chunk{RunID: uuidx.New(), Delta: "late", Content: "late"}))

	time.Sleep(50 * time.Millisecond)
	chunks, _, _ := hook.counts()
	assert.Zero(t, chunks)
}

func TestLocalBrokerSameTopicInstance(t *testing.T) {
	ctx := context.Background()
	b := Local()
	assert.Same(t, b.Topic(ctx, "doc1"), b.Topic(ctx, "doc1"))
	assert.NotSame(t, b.Topic(ctx, "doc1"), b.Topic(ctx, "doc2"))
}

func TestLocalBrokerNilHook(t *testing.T) {
	topic := Local().Topic(context.Background(), "doc1")
	_, err := topic.Subscribe(context.Background(), nil)
	require.Error(t, err)
}

func TestCompositeHookFansOut(t *testing.T) {
	first := &recordingHook{}
	second := &recordingHook{}
	composite := NewCompositeHook(first, second)

	composite.OnChunk(context.Background(), provider.Chunk{Delta: "x", Content: "x"})
	composite.OnError(context.Background(), errors.New("boom"))

	c1, _, e1 := first.counts()
	c2, _, e2 := second.counts()
	assert.Equal(t, 1, c1)
	assert.Equal(t, 1, c2)
	assert.Equal(t, 1, e1)
	assert.Equal(t, 1, e2)
}
