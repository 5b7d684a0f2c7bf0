// Package scribe implements the streaming client for the editor backend's
// generation relay endpoint. The relay speaks event-framed streaming: each
// data unit is a "data: "-prefixed JSON payload carrying an incremental
// content field, and the stream is terminated by a [DONE] sentinel.
package scribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/underline-app/coauthor/pkg/slogx"
	"github.com/underline-app/coauthor/pkg/uuidx"
	"github.com/underline-app/coauthor/provider"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"

	// maxErrorBody bounds how much of a failed response we keep around.
	maxErrorBody = 64 << 10

	// DefaultTimeout is the client-side ceiling for one streamed request.
	// It mirrors the relay's documented maximum handler duration. Streams
	// routinely run for minutes, so this is deliberately generous; zero
	// disables the ceiling entirely.
	DefaultTimeout = 5 * time.Minute
)

var _ provider.Provider = (*Client)(nil)

// Client streams completions from the relay endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
}

var (
	// WithEndpoint sets the absolute URL of the generation endpoint.
	WithEndpoint = opts.ForName[Client, string]("endpoint")
	// WithHTTPClient overrides the underlying HTTP client.
	WithHTTPClient = opts.ForName[Client, *http.Client]("httpClient")
	// WithTimeout overrides the per-request ceiling. Zero disables it.
	WithTimeout = opts.ForName[Client, time.Duration]("timeout")
)

// New creates a relay streaming client. The endpoint option is required.
func New(options ...opts.Option[Client]) *Client {
	client := &Client{
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
	}
	if err := opts.Apply(client, options); err != nil {
		panic(err)
	}
	if client.endpoint == "" {
		panic("scribe: endpoint is required")
	}
	return client
}

// Generate issues the request and decodes the streamed response. Events are
// delivered on the returned channel in arrival order; the channel is closed
// on teardown whatever path the stream took.
func (c *Client) Generate(ctx context.Context, req provider.Request) (<-chan provider.StreamEvent, error) {
	if req.RunID == uuid.Nil {
		req.RunID = uuidx.New()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(string(body)))
	if err != nil {
		cancel()
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq) //nolint:bodyclose // closed by the reader goroutine
	if err != nil {
		cancel()
		return nil, err
	}

	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)
		defer cancel()
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			events <- provider.Error{
				RunID:     req.RunID,
				Err:       refusalError(resp),
				Timestamp: strfmt.DateTime(time.Now()),
			}
			return
		}

		c.readStream(ctx, req, resp, events)
	}()
	return events, nil
}

func (c *Client) readStream(ctx context.Context, req provider.Request, resp *http.Response, events chan<- provider.StreamEvent) {
	start := time.Now()
	var assembled strings.Builder
	var notFirst bool

	lines := newLineReader(resp.Body)
	for {
		line, err := lines.Next()
		if err != nil {
			if ctx.Err() != nil {
				c.reportCtxDone(ctx, req, events)
				return
			}
			if err == errStreamDone {
				break
			}
			events <- provider.Error{
				RunID:     req.RunID,
				Err:       err,
				Timestamp: strfmt.DateTime(time.Now()),
			}
			return
		}

		payload, ok := framePayload(line)
		if !ok {
			continue
		}
		if payload == doneSentinel {
			break
		}

		delta, ok := extractDelta(payload)
		if !ok {
			slog.Warn("skipping malformed stream frame", slogx.Stringer("run_id", req.RunID), slog.String("frame", payload))
			continue
		}

		if !notFirst {
			notFirst = true
			events <- provider.Delim{RunID: req.RunID, Delim: "start"}
		}

		assembled.WriteString(delta)
		events <- provider.Chunk{
			RunID:     req.RunID,
			Delta:     delta,
			Content:   assembled.String(),
			Timestamp: strfmt.DateTime(time.Now()),
		}
	}

	if ctx.Err() != nil {
		c.reportCtxDone(ctx, req, events)
		return
	}

	slog.Debug("stream complete",
		slogx.Stringer("run_id", req.RunID),
		slog.Int("length", assembled.Len()),
		slogx.Elapsed("elapsed", start))

	if notFirst {
		events <- provider.Delim{RunID: req.RunID, Delim: "end"}
	}
	events <- provider.Response{
		RunID:     req.RunID,
		Content:   assembled.String(),
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

// reportCtxDone distinguishes the two ways a stream's context ends. A
// caller-initiated cancel is not a failure and tears down silently; hitting
// the request ceiling means the relay accepted the connection but never
// finished, which the consumer must hear about as a terminal error.
func (c *Client) reportCtxDone(ctx context.Context, req provider.Request, events chan<- provider.StreamEvent) {
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return
	}
	events <- provider.Error{
		RunID:     req.RunID,
		Err:       fmt.Errorf("stream timed out: %w", ctx.Err()),
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

// framePayload strips the data framing off one stream line. Blank lines and
// non-data lines (comments, event names) carry no payload.
func framePayload(line string) (string, bool) {
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	payload := strings.TrimPrefix(line, dataPrefix)
	payload = strings.TrimPrefix(payload, "data:")
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", false
	}
	return payload, true
}

// extractDelta pulls the incremental content field out of one decoded frame.
func extractDelta(payload string) (string, bool) {
	if !gjson.Valid(payload) {
		return "", false
	}
	content := gjson.Get(payload, "content")
	if !content.Exists() {
		return "", false
	}
	return content.String(), true
}

func refusalError(resp *http.Response) error {
	body := readBounded(resp.Body, maxErrorBody)

	reqErr := &provider.RequestError{
		Status: resp.StatusCode,
		Body:   body,
	}
	if gjson.Valid(body) {
		reqErr.Message = gjson.Get(body, "error").String()
		reqErr.Details = gjson.Get(body, "details").String()
	}
	if reqErr.Message == "" {
		reqErr.Message = strings.TrimSpace(body)
	}
	if reqErr.Message == "" {
		reqErr.Message = http.StatusText(resp.StatusCode)
	}
	return reqErr
}
