// Package apperr defines the error taxonomy shared across the service.
// Handlers map these to HTTP statuses with errors.As; everything else is
// logged in full and surfaced to the caller as a sanitized message.
package apperr

import "fmt"

// ValidationError marks a missing or malformed request field. Surfaced as
// a 4xx with its message; never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// UpstreamError wraps a failed embedding, generation, or vector-store call.
type UpstreamError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth retrying: network errors
// and 5xx responses are; 4xx responses are not.
func (e *UpstreamError) Retryable() bool {
	if e.Err != nil {
		return true
	}
	return e.Status >= 500
}

// ConfigMismatchError means the embedding provider returned vectors whose
// dimension disagrees with the configured index dimension. Fatal; never
// coerced.
type ConfigMismatchError struct {
	Want int
	Got  int
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: configured %d, provider returned %d", e.Want, e.Got)
}

// ParseError means generative output could not be decoded into the expected
// structure. Recovered locally, never crashes a request.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return e.Msg }

// ExtractionError means no usable text could be extracted from an uploaded
// file.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
