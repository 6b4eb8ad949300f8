package tokenstore

import "context"

// TokenStore reads, writes, and deletes a single token in persistent storage.
type TokenStore interface {
	// Read returns the stored token. Returns an error if the token is
	// missing, empty, or the backend is unreachable.
	Read(ctx context.Context) (string, error)

	// Write persists the token, replacing any previous value. Returns an
	// error if the backend is read-only or the write fails.
	Write(ctx context.Context, token string) error

	// Clear removes the stored token. Clearing an absent token is not an
	// error.
	Clear(ctx context.Context) error
}
