// Package hub fetches pretrained model files from a Hugging Face style
// model repository and records what was fetched in a local manifest.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// DefaultEndpoint is the public Hugging Face hub.
const DefaultEndpoint = "https://huggingface.co"

const maxRetries = 3

// Client talks to the hub API with optional Bearer auth and retries
// transient failures (429 and 5xx).
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	baseDelay  time.Duration
	progress   io.Writer
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
	retryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// NotFound reports whether the hub answered 401/404, which it uses for
// both missing and private repositories.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusUnauthorized
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Downloads of large graphs
// need minutes, not seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithToken sets the Bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithBackoff sets the first retry delay; later retries double it.
func WithBackoff(base time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = base
	}
}

// WithProgress renders a download progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(c *Client) {
		c.progress = w
	}
}

// New creates a Client for endpoint. An empty endpoint means DefaultEndpoint.
func New(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
		baseDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// GetJSON sends a GET request and unmarshals the JSON response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dest any) error {
	return c.do(ctx, path, query, func(resp *http.Response) error {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, dest)
	})
}

// do runs one GET with retries. handle is only called for 2xx responses;
// its errors are not retried.
func (c *Client) do(ctx context.Context, path string, query url.Values, handle func(*http.Response) error) error {
	fullURL := c.endpoint + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var hint time.Duration
	inner := retry.WithMaxRetries(maxRetries, retry.NewExponential(c.baseDelay))
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		d, stop := inner.Next()
		if stop {
			return 0, true
		}
		if hint > 0 {
			d, hint = hint, 0
		}
		return d, false
	})

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return err
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return handle(resp)
		}

		apiErr := readAPIError(resp)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			hint = apiErr.retryAfter
			return retry.RetryableError(apiErr)
		}
		return apiErr
	})
}

func readAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	if resp.StatusCode == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			apiErr.retryAfter = time.Duration(secs) * time.Second
		}
	}
	return apiErr
}

// IsNotFound reports whether err is a hub 401/404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.NotFound()
}
