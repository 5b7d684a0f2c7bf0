package credit

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

var _ Ledger = (*HTTPLedger)(nil)

// HTTPLedger talks to the billing service's credit endpoints.
type HTTPLedger struct {
	baseURL    string
	httpClient *http.Client
}

var (
	// WithBaseURL sets the billing service base URL.
	WithBaseURL = opts.ForName[HTTPLedger, string]("baseURL")
	// WithHTTPClient overrides the underlying HTTP client.
	WithHTTPClient = opts.ForName[HTTPLedger, *http.Client]("httpClient")
)

func NewHTTPLedger(options ...opts.Option[HTTPLedger]) *HTTPLedger {
	ledger := &HTTPLedger{httpClient: http.DefaultClient}
	if err := opts.Apply(ledger, options); err != nil {
		panic(err)
	}
	if ledger.baseURL == "" {
		panic("credit: base URL is required")
	}
	return ledger
}

type creditRequest struct {
	UserID string `json:"userId"`
	Cost   int    `json:"cost"`
}

func (l *HTTPLedger) post(ctx context.Context, path string, body creditRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+path, strings.NewReader(string(payload)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody := readBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("credit service returned %d: %s", resp.StatusCode, respBody)
	}
	return respBody, nil
}

func (l *HTTPLedger) HasEnoughCredits(ctx context.Context, userID string, cost int) (bool, error) {
	body, err := l.post(ctx, "/credits/check", creditRequest{UserID: userID, Cost: cost})
	if err != nil {
		return false, err
	}
	return gjson.Get(body, "hasEnough").Bool(), nil
}

func (l *HTTPLedger) DeductCredits(ctx context.Context, userID string, cost int) error {
	_, err := l.post(ctx, "/credits/deduct", creditRequest{UserID: userID, Cost: cost})
	return err
}
