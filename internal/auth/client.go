package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/nightjar-app/nightjar-go/internal/api"
	"github.com/nightjar-app/nightjar-go/internal/tokensource"
	"github.com/nightjar-app/nightjar-go/internal/tokenstore"
)

// Client is the HTTP implementation of Provider.
type Client struct {
	baseURL    string
	httpClient api.HTTPDoer
	endpoint   oauth2.Endpoint

	// refreshStore holds the long-lived refresh token. The token source
	// is created lazily from it and recreated when sign-in rotates it.
	refreshStore tokenstore.TokenStore

	mu               sync.Mutex
	source           oauth2.TokenSource
	lastRefreshToken string
}

var _ Provider = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for auth endpoints.
func WithHTTPClient(doer api.HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithEndpoint overrides the OAuth2 endpoint used for session refresh.
// Tests point this at a local server.
func WithEndpoint(endpoint oauth2.Endpoint) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// NewClient creates an auth client for the given base URL. The refresh
// store holds the long-lived refresh token across restarts.
func NewClient(baseURL string, refreshStore tokenstore.TokenStore, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if refreshStore == nil {
		return nil, fmt.Errorf("missing refresh token store")
	}

	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		endpoint:     tokensource.Endpoint,
		refreshStore: refreshStore,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// SignIn starts a session. When the flow completes (StepDone) the
// rotated refresh token is persisted for later RefreshSession calls.
func (c *Client) SignIn(ctx context.Context, identifier, secret string) (*SignInResult, error) {
	result, err := c.postSignIn(ctx, "/auth/sign-in", map[string]string{
		"identifier": identifier,
		"secret":     secret,
	})
	if err != nil {
		return nil, err
	}
	c.adoptRefreshToken(ctx, result)
	return result, nil
}

// ConfirmSignIn completes an MFA challenge.
func (c *Client) ConfirmSignIn(ctx context.Context, identifier, code string) (*SignInResult, error) {
	result, err := c.postSignIn(ctx, "/auth/sign-in/confirm", map[string]string{
		"identifier": identifier,
		"code":       code,
	})
	if err != nil {
		return nil, err
	}
	c.adoptRefreshToken(ctx, result)
	return result, nil
}

// RefreshSession exchanges the stored refresh token for a fresh session
// token. Rotated refresh tokens are written back to the store; a failed
// write-back keeps the old token so the next refresh can retry.
func (c *Client) RefreshSession(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.source == nil {
		stored, err := c.refreshStore.Read(ctx)
		if err != nil {
			return "", fmt.Errorf("no refresh token available: %w", err)
		}
		c.source = tokensource.NewTokenSource(stored, c.endpoint)
		c.lastRefreshToken = stored
	}

	token, err := c.source.Token()
	if err != nil {
		return "", fmt.Errorf("refreshing session: %w", err)
	}

	if token.RefreshToken != "" && token.RefreshToken != c.lastRefreshToken {
		if err := c.refreshStore.Write(ctx, token.RefreshToken); err == nil {
			c.lastRefreshToken = token.RefreshToken
		}
	}

	return token.AccessToken, nil
}

// SignOut invalidates the session on the backend and drops the stored
// refresh token.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.post(ctx, "/auth/sign-out", map[string]string{}, nil); err != nil {
		return err
	}

	c.mu.Lock()
	c.source = nil
	c.lastRefreshToken = ""
	c.mu.Unlock()

	return c.refreshStore.Clear(ctx)
}

// ConfirmSignUp submits the sign-up confirmation code.
func (c *Client) ConfirmSignUp(ctx context.Context, identifier, code string) error {
	return c.post(ctx, "/auth/sign-up/confirm", map[string]string{
		"identifier": identifier,
		"code":       code,
	}, nil)
}

// RequestPasswordReset starts a password reset.
func (c *Client) RequestPasswordReset(ctx context.Context, identifier string) (*ResetChallenge, error) {
	var challenge ResetChallenge
	err := c.post(ctx, "/auth/password/reset", map[string]string{
		"identifier": identifier,
	}, &challenge)
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// ConfirmPasswordReset completes a password reset.
func (c *Client) ConfirmPasswordReset(ctx context.Context, identifier, code, newSecret string) error {
	return c.post(ctx, "/auth/password/confirm", map[string]string{
		"identifier": identifier,
		"code":       code,
		"new_secret": newSecret,
	}, nil)
}

// adoptRefreshToken persists the refresh token from a completed sign-in
// and resets the cached token source so the next refresh uses it.
func (c *Client) adoptRefreshToken(ctx context.Context, result *SignInResult) {
	if result.Step != StepDone || result.RefreshToken == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refreshStore.Write(ctx, result.RefreshToken); err != nil {
		// The session still works for its lifetime; only refresh is lost.
		return
	}
	c.source = tokensource.NewTokenSource(result.RefreshToken, c.endpoint,
		tokensource.WithAccessToken(result.SessionToken))
	c.lastRefreshToken = result.RefreshToken
}

func (c *Client) postSignIn(ctx context.Context, path string, body map[string]string) (*SignInResult, error) {
	var result SignInResult
	if err := c.post(ctx, path, body, &result); err != nil {
		return nil, err
	}
	if result.Step == "" {
		return nil, fmt.Errorf("sign-in response missing next_step")
	}
	if result.Step == StepDone && result.SessionToken == "" {
		return nil, fmt.Errorf("sign-in response missing session_token")
	}
	return &result, nil
}

// post issues a JSON POST to an auth endpoint and decodes the response
// into out when non-nil. Non-2xx responses become *api.HTTPError so
// callers branch on a single error type across the whole client.
func (c *Client) post(ctx context.Context, path string, body map[string]string, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(encoded)))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &api.HTTPError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: %v", api.ErrInvalidResponse, err)
		}
	}
	return nil
}
