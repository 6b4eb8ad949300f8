package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// markerHeader tells the backend this is a programmatic client, so it
	// must answer auth failures with a plain 401 instead of a redirect to
	// the browser login flow.
	markerHeader      = "X-Requested-With"
	markerValue       = "XMLHttpRequest"
	requestIDHeader   = "X-Request-Id"
	contentTypeJSON   = "application/json"
	defaultTimeout    = 30 * time.Second
	defaultBatchLimit = 4
)

// HTTPDoer is the subset of http.Client the executor needs. Narrow on
// purpose so tests can substitute a double.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SessionStore is the token state the executor consults. Reads happen
// before every attempt; writes happen after a successful refresh.
type SessionStore interface {
	Read(ctx context.Context) (token string, ok bool)
	Write(ctx context.Context, token string)
}

// SessionRefresher asks the auth collaborator for a fresh session token.
type SessionRefresher interface {
	RefreshSession(ctx context.Context) (string, error)
}

// Client issues requests against the Nightjar backend.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	session    SessionStore
	refresher  SessionRefresher
	batchLimit int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client. The default carries a
// 30s timeout; timeouts surface as errors, never hangs.
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithSession sets the token store consulted before each request.
// Without one the client sends unauthenticated requests.
func WithSession(store SessionStore) ClientOption {
	return func(c *Client) {
		c.session = store
	}
}

// WithRefresher sets the auth collaborator used to recover from a 401.
// Without one a 401 is terminal on the first attempt.
func WithRefresher(r SessionRefresher) ClientOption {
	return func(c *Client) {
		c.refresher = r
	}
}

// WithBatchLimit sets the concurrency bound used by batched fetches.
func WithBatchLimit(limit int) ClientOption {
	return func(c *Client) {
		if limit > 0 {
			c.batchLimit = limit
		}
	}
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		batchLimit: defaultBatchLimit,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Do executes one request. On a 401 first attempt it refreshes the
// session and, if the refresh produced a token different from the one
// just used, persists it and retries the whole request exactly once.
// At most two HTTP attempts and one refresh per call.
func (c *Client) Do(ctx context.Context, req Request) (*Payload, error) {
	token := c.readToken(ctx)

	payload, err := c.attempt(ctx, req, token)
	if err == nil {
		return payload, nil
	}

	httpErr, ok := err.(*HTTPError)
	if !ok || httpErr.Status != http.StatusUnauthorized || c.refresher == nil {
		return nil, err
	}

	fresh, refreshErr := c.refresher.RefreshSession(ctx)
	if refreshErr != nil || fresh == "" || fresh == token {
		// Nothing new to try with; surface the original 401.
		return nil, err
	}

	if c.session != nil {
		c.session.Write(ctx, fresh)
	}
	slog.DebugContext(ctx, "retrying request with refreshed session", "method", req.Method, "path", req.Path)

	return c.attempt(ctx, req, fresh)
}

func (c *Client) readToken(ctx context.Context) string {
	if c.session == nil {
		return ""
	}
	token, ok := c.session.Read(ctx)
	if !ok {
		return ""
	}
	return token
}

// attempt issues a single HTTP request and interprets the response.
func (c *Client) attempt(ctx context.Context, req Request, token string) (*Payload, error) {
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set(markerHeader, markerValue)
	httpReq.Header.Set(requestIDHeader, uuid.NewString())
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.Body != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentTypeJSON)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if isJSONContentType(resp.Header.Get("Content-Type")) {
		if !json.Valid(respBody) {
			return nil, fmt.Errorf("%w: malformed JSON body", ErrInvalidResponse)
		}
		return &Payload{raw: respBody, isJSON: true}, nil
	}
	return &Payload{raw: respBody}, nil
}

func isJSONContentType(value string) bool {
	if value == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	return mediaType == contentTypeJSON || strings.HasSuffix(mediaType, "+json")
}
