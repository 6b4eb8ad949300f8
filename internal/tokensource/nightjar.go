package tokensource

import (
	"golang.org/x/oauth2"
)

const (
	// ClientID is the public OAuth2 client identifier for the Nightjar
	// mobile and CLI clients. Public client (no secret), PKCE-secured.
	ClientID = "0f6b2a47-9c1e-4d3a-b8f2-63c1a77e9d04"
)

// Endpoint defines the OAuth2 endpoints for Nightjar session refresh.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://auth.nightjar.app/oauth/authorize",
	TokenURL:  "https://api.nightjar.app/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// scopes are the OAuth scopes the client requests.
var scopes = []string{"profile", "posts:read", "posts:write", "social:follow"}
