package api

import "context"

// Probe tries candidate paths in order until one succeeds.
//
// Candidates are deduplicated preserving first-seen order; put the most
// likely route first to keep the common case single-request. A success
// returns immediately. A 404 or 405 means "this route shape doesn't
// exist here" and probing advances to the next candidate. Any other
// failure indicates a real problem, stops probing, and propagates
// unchanged. If every candidate skips, the result is a *ProbeError
// wrapping the last candidate's error.
//
// Candidates are tried strictly sequentially: a hard failure must
// short-circuit the remaining guesses.
func Probe[T any](ctx context.Context, candidates []string, invoke func(ctx context.Context, path string) (T, error)) (T, error) {
	var zero T
	var last error

	for _, path := range dedup(candidates) {
		v, err := invoke(ctx, path)
		if err == nil {
			return v, nil
		}
		if !skippable(err) {
			return zero, err
		}
		last = err
	}

	return zero, &ProbeError{Last: last}
}

// dedup removes duplicate entries preserving first-seen order.
// Interpolated candidate lists can collide (e.g. when a handle doubles
// as an id), and a path appearing twice must only be tried once.
func dedup[K comparable](items []K) []K {
	seen := make(map[K]struct{}, len(items))
	out := make([]K, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
