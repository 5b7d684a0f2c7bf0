package history

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestClientFetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/chats", r.URL.Path)
		assert.Equal(t, "doc one", r.URL.Query().Get("documentId"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"chatId":"c1","documentId":"doc one","title":"Draft","messages":[{"role":"user","content":"hi"}]}`)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	got, err := client.FetchHistory(context.Background(), "doc one")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, "Draft", got.Title)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, RoleUser, got.Messages[0].Role)
}

func TestClientSaveConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chats", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "doc1", gjson.GetBytes(body, "documentId").String())
		assert.Equal(t, "user", gjson.GetBytes(body, "userMessage.role").String())
		assert.Equal(t, "Fix grammar", gjson.GetBytes(body, "userMessage.content").String())
		assert.Equal(t, "assistant", gjson.GetBytes(body, "aiMessage.role").String())

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"chatId":"c1","documentId":"doc1","messages":[{"role":"user","content":"Fix grammar"},{"role":"assistant","content":"The cat sat."}]}`)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	now := strfmt.DateTime(time.Now())
	saved, err := client.SaveConversation(context.Background(), SaveRequest{
		DocumentID:  "doc1",
		UserMessage: ChatMessage{Role: RoleUser, Content: "Fix grammar", Timestamp: now},
		AIMessage:   ChatMessage{Role: RoleAssistant, Content: "The cat sat.", Timestamp: now},
	})
	require.NoError(t, err)
	assert.Len(t, saved.Messages, 2)
}

func TestClientListChats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chats/list", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"chats":[{"id":"c2","title":"newest","documentId":"d2"},{"id":"c1","title":"older","documentId":"d1"}]}`)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	chats, err := client.ListChats(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "c2", chats[0].ID, "server order kept")
	assert.Equal(t, "c1", chats[1].ID)
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.FetchHistory(context.Background(), "doc1")
	require.Error(t, err)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	assert.Panics(t, func() { NewClient() })
}
