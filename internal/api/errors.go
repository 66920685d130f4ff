package api

import (
	"errors"
	"fmt"
)

// ErrAuthExpired signals a 401 from the boundary: the session is gone and
// the only recovery is a fresh login. It is never retried.
var ErrAuthExpired = errors.New("api: session expired")

// APIError is a non-2xx, non-401 response. Message carries the server's
// error text verbatim so the user sees what the server said, not a
// paraphrase. Malformed payloads on otherwise-successful responses are also
// reported as APIErrors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("api: server returned %d: %s", e.StatusCode, e.Message)
}

// NetworkError is a transport-level failure: connection refused, timeout,
// DNS. The request may never have reached the server, so callers treat it
// as retryable by the user, never automatically.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
