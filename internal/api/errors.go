package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidResponse marks a response that declared a JSON content type
// but did not contain valid JSON.
var ErrInvalidResponse = errors.New("invalid response")

// HTTPError is a terminal server-originated failure. It always carries
// the numeric status so callers can branch on it.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// ProbeError reports that every candidate path for an operation failed
// with a skip-worthy status. Last preserves the final candidate's error
// for diagnostics.
type ProbeError struct {
	Last error
}

func (e *ProbeError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("no endpoint responded (last: %v)", e.Last)
	}
	return "no endpoint responded"
}

func (e *ProbeError) Unwrap() error {
	return e.Last
}

// skippable reports whether err is a wrong-route failure (404 or 405)
// that permits probing to continue. Anything else, HTTP or not, is a
// real problem and must stop the probe.
func skippable(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.Status == http.StatusNotFound || httpErr.Status == http.StatusMethodNotAllowed
}
