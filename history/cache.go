package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/underline-app/coauthor/pkg/slogx"
)

// DefaultTTL is how long a cached entry is served before it must be
// refetched.
const DefaultTTL = 5 * time.Minute

type entry[T any] struct {
	payload   T
	fetchedAt time.Time
}

func (e entry[T]) fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.fetchedAt) < ttl
}

// Service is the process-wide conversation cache. It is constructed once
// and passed by reference to every consumer; the injected clock keeps TTL
// behavior deterministic under test. Writes are last-writer-wins, which is
// sound because each conversation-save is a single atomic server call.
type Service struct {
	api   API
	clock func() time.Time
	ttl   time.Duration

	histories *haxmap.Map[string, entry[*ChatHistory]]

	listMu sync.Mutex
	list   *entry[*orderedmap.OrderedMap[string, ChatSummary]]
}

var (
	// WithClock injects the time source, primarily for tests.
	WithClock = opts.ForName[Service, func() time.Time]("clock")
	// WithTTL overrides the cache validity window.
	WithTTL = opts.ForName[Service, time.Duration]("ttl")
)

func NewService(api API, options ...opts.Option[Service]) *Service {
	if api == nil {
		panic("api cannot be nil")
	}
	svc := &Service{
		api:       api,
		clock:     time.Now,
		ttl:       DefaultTTL,
		histories: haxmap.New[string, entry[*ChatHistory]](),
	}
	if err := opts.Apply(svc, options); err != nil {
		panic(err)
	}
	return svc
}

// Fetch returns the conversation for a document, serving the cached entry
// while it is younger than the TTL. force bypasses the cache entirely.
func (s *Service) Fetch(ctx context.Context, documentID string, force bool) (*ChatHistory, error) {
	if !force {
		if cached, ok := s.histories.Get(documentID); ok && cached.fresh(s.clock(), s.ttl) {
			return cached.payload, nil
		}
	}

	slog.Debug("fetching chat history", slogx.DocumentID(documentID), slog.Bool("force", force))
	history, err := s.api.FetchHistory(ctx, documentID)
	if err != nil {
		return nil, err
	}
	s.histories.Set(documentID, entry[*ChatHistory]{payload: history, fetchedAt: s.clock()})
	return history, nil
}

// SaveConversation persists one user/assistant exchange in a single server
// round trip and replaces the local entry with the server's authoritative
// response. Nothing is merged locally.
func (s *Service) SaveConversation(ctx context.Context, documentID, userPrompt, aiResponse string, meta *SaveMeta) (*ChatHistory, error) {
	now := strfmt.DateTime(s.clock())
	req := SaveRequest{
		DocumentID: documentID,
		UserMessage: ChatMessage{
			Role:      RoleUser,
			Content:   userPrompt,
			Timestamp: now,
		},
		AIMessage: ChatMessage{
			Role:      RoleAssistant,
			Content:   aiResponse,
			Timestamp: now,
		},
	}
	if meta != nil {
		req.Title = meta.Title
		req.UserMessage.SourceIDs = meta.SourceIDs
		req.UserMessage.SnippetIDs = meta.SnippetIDs
	}

	history, err := s.api.SaveConversation(ctx, req)
	if err != nil {
		return nil, err
	}
	s.histories.Set(documentID, entry[*ChatHistory]{payload: history, fetchedAt: s.clock()})
	return history, nil
}

// Clear drops the local entry for a document. It reports whether an entry
// existed so the caller knows to reset its view. Server-side deletion is
// not this cache's job.
func (s *Service) Clear(documentID string) bool {
	_, existed := s.histories.Get(documentID)
	s.histories.Del(documentID)
	return existed
}

// ListAll returns the global conversation list under the same TTL
// discipline as Fetch, preserving the server's ordering.
func (s *Service) ListAll(ctx context.Context, limit int, force bool) ([]ChatSummary, error) {
	s.listMu.Lock()
	defer s.listMu.Unlock()

	if !force && s.list != nil && s.list.fresh(s.clock(), s.ttl) {
		return listSlice(s.list.payload), nil
	}

	chats, err := s.api.ListChats(ctx, limit)
	if err != nil {
		return nil, err
	}

	om := orderedmap.New[string, ChatSummary](len(chats))
	for _, chat := range chats {
		om.Set(chat.ID, chat)
	}
	s.list = &entry[*orderedmap.OrderedMap[string, ChatSummary]]{payload: om, fetchedAt: s.clock()}
	return listSlice(om), nil
}

// Chat looks one conversation up in the cached list by ID without a
// network call. ok is false when the list has never been fetched or the
// chat isn't in it.
func (s *Service) Chat(id string) (ChatSummary, bool) {
	s.listMu.Lock()
	defer s.listMu.Unlock()

	if s.list == nil {
		return ChatSummary{}, false
	}
	return s.list.payload.Get(id)
}

func listSlice(om *orderedmap.OrderedMap[string, ChatSummary]) []ChatSummary {
	out := make([]ChatSummary, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
