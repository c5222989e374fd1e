// Package transport is the HTTP boundary of the Mountebank client. The
// request proxy only ever talks to the Transport interface, so tests can
// substitute a mock and callers can bring their own http.Client.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mountebank-client/logging"
)

const (
	// DefaultBaseURL is where a locally started mb listens by default.
	DefaultBaseURL = "http://localhost:2525"

	defaultHTTPTimeout = 30 * time.Second
)

// Response is the status code and body of a completed HTTP exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport issues requests against resource paths relative to a base
// address, e.g. "imposters" or "imposters/4545".
type Transport interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string, body []byte) (*Response, error)
	Put(ctx context.Context, path string, body []byte) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)
}

// HTTPTransport implements Transport with net/http.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Option configures an HTTPTransport.
type Option func(*HTTPTransport)

// WithTimeout sets the timeout of the default http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(t *HTTPTransport) {
		t.client.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *HTTPTransport) {
		t.client = client
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

// NewHTTPTransport returns a transport rooted at baseURL. An empty baseURL
// falls back to DefaultBaseURL.
func NewHTTPTransport(baseURL string, opts ...Option) *HTTPTransport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	t := &HTTPTransport{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BaseURL returns the address every path is resolved against.
func (t *HTTPTransport) BaseURL() string { return t.baseURL }

func (t *HTTPTransport) Get(ctx context.Context, path string) (*Response, error) {
	return t.do(ctx, http.MethodGet, path, nil)
}

func (t *HTTPTransport) Post(ctx context.Context, path string, body []byte) (*Response, error) {
	return t.do(ctx, http.MethodPost, path, body)
}

func (t *HTTPTransport) Put(ctx context.Context, path string, body []byte) (*Response, error) {
	return t.do(ctx, http.MethodPut, path, body)
}

func (t *HTTPTransport) Delete(ctx context.Context, path string) (*Response, error) {
	return t.do(ctx, http.MethodDelete, path, nil)
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	url := t.baseURL + "/" + strings.TrimPrefix(path, "/")
	t.logger.Debug("sending request", "method", method, "url", url)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request to %s: %w", method, url, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error("request failed", "method", method, "url", url, "error", err)
		return nil, fmt.Errorf("failed to make %s request to %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body of %s %s: %w", method, url, err)
	}
	t.logger.Debug("received response", "method", method, "url", url, "status", resp.StatusCode, "bytes", len(respBody))
	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
