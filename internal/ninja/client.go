// Package ninja is a thin client for the NinjaRMM API v2. Bearer tokens are
// acquired per operation from the authentication manager, which routes each
// operation to the appropriate credential.
package ninja

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goetzcj/ninjamcp/internal/auth"
)

const (
	apiPrefix = "/api/v2"
	userAgent = "ninjamcp/1.4.1"
)

// TokenProvider produces a bearer token valid for the named operation.
type TokenProvider interface {
	Authenticate(ctx context.Context, operation string) (string, error)
}

// Compile-time check that the auth manager satisfies TokenProvider.
var _ TokenProvider = (*auth.Manager)(nil)

// APIError is a non-success response from the NinjaRMM API.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api request failed for %s: status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Client issues authenticated requests against {baseURL}/api/v2.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
}

// NewClient creates a Client for the given API base URL.
func NewClient(baseURL string, tokens TokenProvider) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Get issues a GET request for the named operation.
func (c *Client) Get(ctx context.Context, endpoint, operation string, params url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, endpoint, operation, params, nil)
}

// Post issues a POST request with an optional JSON body.
func (c *Client) Post(ctx context.Context, endpoint, operation string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, endpoint, operation, nil, body)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, endpoint, operation string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, endpoint, operation, nil, body)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint, operation string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, endpoint, operation, nil, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint, operation string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, endpoint, operation, nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint, operation string, params url.Values, body any) (json.RawMessage, error) {
	token, err := c.tokens.Authenticate(ctx, operation)
	if err != nil {
		return nil, fmt.Errorf("authentication failed for %s: %w", operation, err)
	}

	u := c.baseURL + apiPrefix + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body for %s: %w", operation, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.DebugContext(ctx, "api request", "method", method, "url", u, "operation", operation)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed for %s: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response for %s: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
		}
	}

	if len(payload) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(payload), nil
}
