package history

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

const maxBody = 4 << 20

// API is the chat history server surface the cache sits in front of.
type API interface {
	FetchHistory(ctx context.Context, documentID string) (*ChatHistory, error)
	SaveConversation(ctx context.Context, req SaveRequest) (*ChatHistory, error)
	ListChats(ctx context.Context, limit int) ([]ChatSummary, error)
}

var _ API = (*Client)(nil)

// Client is the HTTP implementation of API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var (
	// WithBaseURL sets the chat history service base URL.
	WithBaseURL = opts.ForName[Client, string]("baseURL")
	// WithHTTPClient overrides the underlying HTTP client.
	WithHTTPClient = opts.ForName[Client, *http.Client]("httpClient")
)

func NewClient(options ...opts.Option[Client]) *Client {
	client := &Client{httpClient: http.DefaultClient}
	if err := opts.Apply(client, options); err != nil {
		panic(err)
	}
	if client.baseURL == "" {
		panic("history: base URL is required")
	}
	return client
}

func (c *Client) FetchHistory(ctx context.Context, documentID string) (*ChatHistory, error) {
	endpoint := fmt.Sprintf("%s/chats?documentId=%s", c.baseURL, url.QueryEscape(documentID))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var history ChatHistory
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, fmt.Errorf("failed to decode chat history: %w", err)
	}
	if history.DocumentID == "" {
		history.DocumentID = documentID
	}
	return &history, nil
}

func (c *Client) SaveConversation(ctx context.Context, saveReq SaveRequest) (*ChatHistory, error) {
	payload, err := json.Marshal(saveReq)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chats", strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat service returned %d: %s", resp.StatusCode, body)
	}

	var history ChatHistory
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, fmt.Errorf("failed to decode saved conversation: %w", err)
	}
	return &history, nil
}

func (c *Client) ListChats(ctx context.Context, limit int) ([]ChatSummary, error) {
	endpoint := fmt.Sprintf("%s/chats/list?limit=%s", c.baseURL, strconv.Itoa(limit))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	chats := gjson.GetBytes(body, "chats")
	if !chats.Exists() {
		return nil, fmt.Errorf("chat list response missing 'chats' field")
	}

	var list []ChatSummary
	if err := json.Unmarshal([]byte(chats.Raw), &list); err != nil {
		return nil, fmt.Errorf("failed to decode chat list: %w", err)
	}
	return list, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat service returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
