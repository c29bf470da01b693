package smartsheet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the production Smartsheet API endpoint.
	DefaultBaseURL = "https://api.smartsheet.com/2.0"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// ProactiveRate throttles outbound requests. The API allows 300
	// requests per minute per token; 2/sec keeps well under it.
	ProactiveRate = 2

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// Client is a thin Smartsheet API client with bearer-token auth and
// proactive rate limiting.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient creates a Smartsheet client with a static access token.
func NewClient(ctx context.Context, token, baseURL string) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = DefaultTimeout

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		http:    hc,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(ProactiveRate), 1),
	}
}

// GetSheet fetches one sheet. A non-empty modifiedSince restricts the
// returned rows to those changed since that timestamp.
func (c *Client) GetSheet(ctx context.Context, sheetID, modifiedSince string) (*sheetResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + "/sheets/" + url.PathEscape(sheetID)
	if modifiedSince != "" {
		reqURL += "?rowsModifiedSince=" + url.QueryEscape(modifiedSince)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get sheet: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, reqURL); err != nil {
		return nil, err
	}

	var sheet sheetResponse
	if err := json.NewDecoder(resp.Body).Decode(&sheet); err != nil {
		return nil, fmt.Errorf("decode sheet: %w", err)
	}

	return &sheet, nil
}

// checkStatus converts non-2xx responses into typed errors.
func (c *Client) checkStatus(resp *http.Response, reqURL string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		resetAt := time.Now().Add(time.Minute)
		if retryAfter := resp.Header.Get(HeaderRetryAfter); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil {
				resetAt = time.Now().Add(time.Duration(seconds) * time.Second)
			}
		}
		return &RateLimitError{ResetAt: resetAt}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    apiMessage(resp.Body),
		URL:        reqURL,
	}
}

// apiMessage extracts the error message from an API error body.
func apiMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Message == "" {
		return string(data)
	}
	return payload.Message
}
