package client

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned when no API key is configured. The caller
// must surface it immediately; there is nothing to retry.
var ErrMissingCredential = errors.New("pennylane API key is not configured")

// TransportError wraps a network-level failure (connection refused, timeout).
// The attempt is recorded as a sync error and retried on the next pass.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pennylane API unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a remote rejection (HTTP status >= 400) with the best-effort
// message extracted from the response body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pennylane API error (status %d): %s", e.StatusCode, e.Message)
}
