// Package history caches past AI conversations per document. The server
// owns the data; this package is a TTL-bound client cache in front of it,
// plus the save path that persists one user/assistant exchange as a single
// atomic round trip.
package history

import "github.com/go-openapi/strfmt"

// Message roles. The generation lifecycle only ever produces these two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of a conversation.
type ChatMessage struct {
	Role       string          `json:"role"`
	Content    string          `json:"content"`
	Timestamp  strfmt.DateTime `json:"timestamp"`
	SourceIDs  []string        `json:"sourceIds,omitempty"`
	SnippetIDs []string        `json:"snippetIds,omitempty"`
}

// ChatHistory is the conversation attached to a document. Messages are in
// chronological order; the server guarantees it and the cache preserves it.
type ChatHistory struct {
	ID         string          `json:"chatId"`
	DocumentID string          `json:"documentId"`
	Title      string          `json:"title"`
	Messages   []ChatMessage   `json:"messages"`
	CreatedAt  strfmt.DateTime `json:"createdAt,omitempty"`
	UpdatedAt  strfmt.DateTime `json:"updatedAt,omitempty"`
}

// ChatSummary is one row of the global conversation list.
type ChatSummary struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	DocumentID   string          `json:"documentId"`
	UpdatedAt    strfmt.DateTime `json:"updatedAt"`
	MessageCount int             `json:"messageCount"`
}

// SaveMeta carries the optional attachments and title for a saved exchange.
type SaveMeta struct {
	Title      string
	SourceIDs  []string
	SnippetIDs []string
}

// SaveRequest is the wire shape of the conversation-save call. One POST
// persists both halves of the exchange so no reader ever observes a
// half-saved conversation.
type SaveRequest struct {
	DocumentID  string      `json:"documentId"`
	UserMessage ChatMessage `json:"userMessage"`
	AIMessage   ChatMessage `json:"aiMessage"`
	Title       string      `json:"title,omitempty"`
}
