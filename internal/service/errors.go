package service

import (
	"errors"
	"fmt"
)

// Error categories. Backends wrap these so callers can match with errors.Is.
var (
	// ErrAuth indicates rejected credentials, a rejected signup or a missing session.
	ErrAuth = errors.New("authentication failed")

	// ErrNotFound indicates the referenced task no longer exists.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the server refused the write because of a clash.
	ErrConflict = errors.New("conflict")

	// ErrRejected indicates the server refused a task payload.
	ErrRejected = errors.New("request rejected")

	// ErrUnsupported indicates the backend can't represent the requested value.
	ErrUnsupported = errors.New("not supported")

	// ErrTransport indicates a network or server failure.
	ErrTransport = errors.New("transport error")
)

// ErrNotAuthenticated is returned when an operation needs a session and there is none.
var ErrNotAuthenticated = fmt.Errorf("%w: not logged in", ErrAuth)

// APIError is an error response from a backend.
type APIError struct {
	StatusCode int
	Message    string // server-provided, may be empty
	Kind       error  // one of the category sentinels
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v (status %d)", e.Kind, e.StatusCode)
	}
	return e.Kind.Error()
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// IsNotFoundOrConflict reports whether err means the local view is out of date.
func IsNotFoundOrConflict(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
}

// Message returns the server-provided message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
