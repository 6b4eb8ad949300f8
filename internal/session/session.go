// Package session holds the signed-in user's bearer token as best-effort
// process state over a tokenstore backend.
//
// Storage failures never reach callers: a failed read looks like being
// signed out, and failed writes or clears are logged and dropped. The
// token is an opaque string replaced atomically by the backend, so
// concurrent readers at worst observe a stale value and pay one extra
// refresh cycle.
package session

import (
	"context"
	"log/slog"

	"github.com/nightjar-app/nightjar-go/internal/tokenstore"
)

// Store is the single owner of the live session token. All reads and
// mutations of the token go through it.
type Store struct {
	backend tokenstore.TokenStore
}

// New creates a Store over the given backend.
func New(backend tokenstore.TokenStore) *Store {
	return &Store{backend: backend}
}

// Read returns the current token, or ok=false when no token is available.
// Backend failures are reported as absence, not errors.
func (s *Store) Read(ctx context.Context) (token string, ok bool) {
	token, err := s.backend.Read(ctx)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// Write persists the token. On backend failure the previous value remains
// in effect and the failure is only logged.
func (s *Store) Write(ctx context.Context, token string) {
	if err := s.backend.Write(ctx, token); err != nil {
		slog.WarnContext(ctx, "failed to persist session token", "error", err)
	}
}

// Clear removes the token, signing the user out locally. Backend failures
// are only logged.
func (s *Store) Clear(ctx context.Context) {
	if err := s.backend.Clear(ctx); err != nil {
		slog.WarnContext(ctx, "failed to clear session token", "error", err)
	}
}
