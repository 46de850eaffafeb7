package broker

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable is returned when a broker cannot be reached at the
	// network level: connection refused, timeout, DNS or TLS failure.
	ErrUnreachable = errors.New("broker unreachable")
	// ErrAuthFailure is returned when login was rejected by every broker
	// it was attempted against.
	ErrAuthFailure = errors.New("login rejected")
)

// RemoteError is an error status answered by a broker. Message carries
// the response body's "message" field when present.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("broker error %d: no specific error text available", e.StatusCode)
	}
	return fmt.Sprintf("broker error %d: %s", e.StatusCode, e.Message)
}
