package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultBaseURL is the public Ask Sage API endpoint
const DefaultBaseURL = "https://api.asksage.ai"

// TokenHeader carries the session token on authenticated requests
const TokenHeader = "x-access-tokens"

// Client wraps calls to the Ask Sage text-generation API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for requests
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a client for the given base URL. An empty base URL
// selects DefaultBaseURL. No client-side timeout is applied; callers bound
// requests through the context
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the API base the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request is a single JSON call against the API
type request struct {
	client *Client
	ctx    context.Context
	method string
	path   string
	in     any
	token  string
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) *request {
	return &request{
		client: c,
		ctx:    ctx,
		method: method,
		path:   path,
		in:     in,
	}
}

// withToken attaches the session token header
func (r *request) withToken(token string) *request {
	r.token = token
	return r
}

// doJSON performs the request and returns the HTTP status and raw body.
// Envelope status checks are left to the caller since the API reports
// failures inside 200 responses as well
func (r *request) doJSON() (int, []byte, error) {
	// Create request body if input is provided
	var body io.Reader
	if r.in != nil {
		b, err := json.Marshal(r.in)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(r.ctx, r.method, r.client.baseURL+r.path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set(TokenHeader, r.token)
	}

	resp, err := r.client.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("'%s %s' failed: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response of '%s %s': %w", r.method, r.path, err)
	}

	return resp.StatusCode, b, nil
}
