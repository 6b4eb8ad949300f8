// Package tokensource provides OAuth2 session acquisition and automatic
// refresh for the Nightjar backend.
//
// The backend's token endpoint deviates from standard OAuth2 in one way
// that requires custom handling: token exchange and refresh expect
// JSON-encoded requests, while the oauth2 package emits form-encoding.
// A wrapping transport converts refresh requests on the way out.
//
// Use NewTokenSource with the stored refresh token:
//
//	ts := tokensource.NewTokenSource(refreshToken, tokensource.Endpoint)
//	// ts implements oauth2.TokenSource
//
// When the current access token is also known, seed it so the first call
// skips the refresh round-trip until the token actually expires:
//
//	ts := tokensource.NewTokenSource(refreshToken, tokensource.Endpoint,
//		tokensource.WithAccessToken(accessToken))
package tokensource
