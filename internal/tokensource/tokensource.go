package tokensource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// TokenSourceOption configures a TokenSource.
type TokenSourceOption func(*tokenSourceConfig)

type tokenSourceConfig struct {
	baseTransport http.RoundTripper
	accessToken   string
}

// WithTransport sets a custom base transport for token refresh requests.
// If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) TokenSourceOption {
	return func(c *tokenSourceConfig) {
		c.baseTransport = transport
	}
}

// WithAccessToken seeds the source with a known access token. Its expiry is
// read from the token's JWT exp claim so refresh only happens once the
// token actually lapses; a token without a readable claim is treated as
// already expired.
func WithAccessToken(token string) TokenSourceOption {
	return func(c *tokenSourceConfig) {
		c.accessToken = token
	}
}

// TokenSource refreshes Nightjar session tokens automatically. Wraps
// oauth2.TokenSource with a transport that speaks the backend's
// JSON-encoded token endpoint.
type TokenSource struct {
	tokenSource oauth2.TokenSource
}

var _ oauth2.TokenSource = (*TokenSource)(nil)

// NewTokenSource creates a TokenSource that refreshes access tokens using
// the provided refresh token.
func NewTokenSource(initialRefreshToken string, endpoint oauth2.Endpoint, opts ...TokenSourceOption) *TokenSource {
	cfg := &tokenSourceConfig{
		baseTransport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	oauth2Config := &oauth2.Config{
		ClientID:     ClientID,
		ClientSecret: "", // public client
		Scopes:       scopes,
		Endpoint:     endpoint,
	}

	initialToken := &oauth2.Token{
		RefreshToken: initialRefreshToken,
		AccessToken:  cfg.accessToken,
	}
	if cfg.accessToken != "" {
		if exp, ok := tokenExpiry(cfg.accessToken); ok {
			initialToken.Expiry = exp
		} else {
			// Unreadable expiry: force a refresh on first use rather
			// than risk sending a dead token.
			initialToken.Expiry = time.Now().Add(-time.Minute)
		}
	}

	// Timeout bounds token refresh even during shutdown (oauth2 uses
	// context.Background internally).
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &jsonTokenTransport{
			base: cfg.baseTransport,
		},
	}
	// oauth2 injects custom HTTP clients via context (oauth2.HTTPClient
	// key). TokenSource.Token() takes no context, so the context is fixed
	// at construction time per oauth2's documented API.
	oauthCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	return &TokenSource{
		tokenSource: oauth2Config.TokenSource(oauthCtx, initialToken),
	}
}

// Token returns a valid access token, refreshing if expired.
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	return ts.tokenSource.Token()
}

// tokenExpiry reads the exp claim from a JWT access token without
// verifying the signature. Verification is the backend's job; the client
// only uses the claim to schedule refreshes.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// jsonTokenTransport converts oauth2's form-encoded token endpoint
// requests to the JSON encoding the Nightjar backend expects. The oauth2
// package guarantees this transport only sees token endpoint requests.
type jsonTokenTransport struct {
	base http.RoundTripper
}

var _ http.RoundTripper = (*jsonTokenTransport)(nil)

// RoundTrip rewrites the form-encoded body as a JSON object.
func (t *jsonTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// The original body is consumed entirely and replaced, never
	// forwarded, so close it here.
	defer func() { _ = req.Body.Close() }()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}

	formData, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing form data: %w", err)
	}

	jsonData := make(map[string]string, len(formData))
	for key, values := range formData {
		jsonData[key] = values[0] // OAuth2 parameters are single-valued
	}

	jsonBody, err := json.Marshal(jsonData)
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON request: %w", err)
	}

	newReq := req.Clone(req.Context())
	newReq.Body = io.NopCloser(bytes.NewReader(jsonBody))
	newReq.ContentLength = int64(len(jsonBody))
	newReq.Header.Set("Content-Type", "application/json")

	return t.base.RoundTrip(newReq)
}
