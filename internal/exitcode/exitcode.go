// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"taskdesk/internal/service"
	"taskdesk/internal/taskform"
	"taskdesk/internal/tasklist"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, invalid task, not found, out of range).
	UserError = 1

	// AuthError indicates a missing or rejected session, or missing credentials config.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// For maps an error onto an exit code.
func For(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, service.ErrAuth):
		return AuthError
	case errors.Is(err, service.ErrTransport):
		return BackendError
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrRejected),
		errors.Is(err, service.ErrUnsupported),
		errors.Is(err, taskform.ErrInvalid),
		errors.Is(err, taskform.ErrSubmitting),
		errors.Is(err, tasklist.ErrPageOutOfRange),
		errors.Is(err, tasklist.ErrDeleteCancelled):
		return UserError
	default:
		return BackendError
	}
}
