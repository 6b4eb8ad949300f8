package api

import (
	"encoding/json"
	"fmt"
)

// Request describes one backend call. It is a value type: construct it,
// hand it to Client.Do, and it is consumed once per attempt.
type Request struct {
	Method string
	Path   string

	// Body is the serialized request body, opaque to the executor.
	// Empty means no body.
	Body string

	// Headers are extra headers for this request. They take precedence
	// over the executor's defaults.
	Headers map[string]string
}

// Payload is a successful response body. JSON responses retain their raw
// bytes for typed decoding; everything else is plain text.
type Payload struct {
	raw    []byte
	isJSON bool
}

// IsJSON reports whether the response declared a JSON content type.
func (p *Payload) IsJSON() bool {
	return p.isJSON
}

// Text returns the response body as text.
func (p *Payload) Text() string {
	return string(p.raw)
}

// Decode unmarshals a JSON payload into v. Fails on non-JSON payloads.
func (p *Payload) Decode(v any) error {
	if !p.isJSON {
		return fmt.Errorf("%w: expected JSON, got text body", ErrInvalidResponse)
	}
	if err := json.Unmarshal(p.raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
