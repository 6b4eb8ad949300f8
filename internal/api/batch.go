package api

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Batch fans independent fetches out to at most limit concurrent workers
// and waits for every one to settle. Keys are deduplicated preserving
// first-seen order. A failed fetch never cancels its siblings; its key
// maps to fallback instead. The result covers every deduplicated key,
// and is assembled by iterating keys in input order so outcomes are
// deterministic for tests.
func Batch[K comparable, V any](ctx context.Context, keys []K, fetch func(ctx context.Context, key K) (V, error), limit int, fallback V) map[K]V {
	keys = dedup(keys)

	values := make([]V, len(keys))
	settled := make([]bool, len(keys))

	// Plain errgroup, not WithContext: one item's failure must not
	// cancel the rest of the batch.
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, key := range keys {
		g.Go(func() error {
			v, err := fetch(ctx, key)
			if err == nil {
				values[i] = v
				settled[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[K]V, len(keys))
	for i, key := range keys {
		if settled[i] {
			out[key] = values[i]
		} else {
			out[key] = fallback
		}
	}
	return out
}
