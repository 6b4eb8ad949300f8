// Package api implements the resilient HTTP client for the Nightjar
// backend.
//
// The backend contract is not fully documented and its route naming is
// not stable across deployments, so the client is built from three small
// pieces of defensive plumbing:
//
//   - an executor that attaches the bearer token, detects auth expiry
//     (401), and retries exactly once after a token refresh
//   - a prober that tries an ordered list of candidate paths for one
//     logical operation, treating 404/405 as "wrong route, try the next
//     guess" and anything else as a real failure
//   - a batcher that fans independent fetches out to a bounded worker
//     pool and settles every item, mapping failures to a fallback value
//
// Domain operations (user lookup, user posts, follow/unfollow, reaction
// counts) compose these pieces with per-operation candidate lists.
package api
