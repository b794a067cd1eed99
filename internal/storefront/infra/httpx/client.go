// Package httpx is the storefront's HTTP adapter for the order-processing
// backend. Every call is JSON over HTTP; authenticated calls carry the
// session token as a bearer credential.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/storefront/internal/pkg/requestmeta"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

const maxBodyBytes = 8 << 20

// ErrMalformedPayload is returned when a 2xx response cannot be mapped onto
// the domain types.
var ErrMalformedPayload = errors.New("httpx: malformed response payload")

// TokenSource yields the current bearer token; empty means anonymous.
type TokenSource interface {
	Token() string
}

// APIError is any non-2xx response. Message is the response body text, or
// the status line when the body is empty.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets a 404 match ports.ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ports.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// StatusCode returns the HTTP status of err if it is an *APIError, else 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Tokens  TokenSource
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(requestmeta.NewTransport(cfg.Transport)),
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  cfg.Tokens,
	}
}

type callOptions struct {
	skipAuth bool
}

type callOption func(*callOptions)

// skipAuth marks calls (login, registration) that must not carry a token.
func skipAuth() callOption {
	return func(o *callOptions) { o.skipAuth = true }
}

// do issues one request. out may be nil, in which case the body is discarded.
func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...callOption) error {
	raw, err := c.send(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedPayload, method, path, err)
	}
	return nil
}

// send returns the raw 2xx body.
func (c *Client) send(ctx context.Context, method, path string, body any, opts ...callOption) ([]byte, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if !o.skipAuth && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: request failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = resp.Status
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return raw, nil
}
