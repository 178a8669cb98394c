// Package fortnite talks to the third-party Fortnite stats API and translates
// its responses into the internal stats model.
package fortnite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL        = "https://fortnite-api.com/"
	DefaultRateLimitPause = 2 * time.Second
	statsPath             = "v2/stats/br/v2"
)

var (
	// ErrRateLimited is returned after the provider answered 429 and the
	// courtesy pause has elapsed. The call is not retried.
	ErrRateLimited = errors.New("stats provider rate limited the request")
	// ErrMalformedResponse means a 2xx body could not be decoded.
	ErrMalformedResponse = errors.New("malformed stats provider response")
)

// StatusError is a non-2xx transport answer other than 429 or a 4xx that
// carries an error envelope.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stats provider returned status %d: %s", e.StatusCode, e.Body)
}

// Envelope is the provider's body. Status mirrors the HTTP status but can
// disagree with it; Data is kept raw for the normalizer.
type Envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// HasData reports whether the envelope carries a non-null data section.
func (e *Envelope) HasData() bool {
	d := strings.TrimSpace(string(e.Data))
	return d != "" && d != "null"
}

type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	rateLimitPause time.Duration
	logger         *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimitPause sets how long to wait after a 429 before giving up.
func WithRateLimitPause(d time.Duration) Option {
	return func(c *Client) { c.rateLimitPause = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/") + "/",
		apiKey:         strings.TrimSpace(apiKey),
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		rateLimitPause: DefaultRateLimitPause,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatsByName fetches lifetime BR stats for a display name.
func (c *Client) StatsByName(ctx context.Context, name string) (*Envelope, error) {
	q := url.Values{}
	q.Set("name", name)
	return c.fetch(ctx, c.baseURL+statsPath+"?"+q.Encode())
}

// StatsByAccountID fetches the same payload keyed by Epic account id.
func (c *Client) StatsByAccountID(ctx context.Context, accountID string) (*Envelope, error) {
	return c.fetch(ctx, c.baseURL+statsPath+"/"+url.PathEscape(accountID))
}

func (c *Client) fetch(ctx context.Context, reqURL string) (*Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call stats provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn("stats provider rate limit hit, pausing", "pause", c.rateLimitPause)
		c.pause(ctx)
		return nil, ErrRateLimited
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		// Unknown and private accounts come back as 4xx with the usual
		// envelope; hand those to the caller as provider answers.
		if env, ok := errorEnvelope(body, resp.StatusCode); ok {
			return env, nil
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &env, nil
}

// errorEnvelope decodes a non-2xx body that carries an error message. The
// embedded status falls back to the transport status when it is absent or
// claims success.
func errorEnvelope(body []byte, statusCode int) (*Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil || strings.TrimSpace(env.Error) == "" {
		return nil, false
	}
	if env.Status < 300 {
		env.Status = statusCode
	}
	return &env, true
}

func (c *Client) pause(ctx context.Context) {
	if c.rateLimitPause <= 0 {
		return
	}
	t := time.NewTimer(c.rateLimitPause)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// HealthCheck reports whether the provider host answers at all.
func (c *Client) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("stats provider health check failed", "error", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
