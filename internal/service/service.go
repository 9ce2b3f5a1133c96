// Package service defines the backend-agnostic contracts for auth and task operations.
package service

import "context"

// AuthService verifies credentials and manages accounts on the server.
// Commands and controllers never talk to a transport directly.
type AuthService interface {
	// Login verifies the credentials and returns the session token.
	// User may be nil when the server omits the user record.
	Login(ctx context.Context, email, password string) (LoginResult, error)

	// Signup creates an account. It does not establish a session.
	Signup(ctx context.Context, email, password string) error

	// Logout notifies the server that the current credential is no longer used.
	// Callers treat failures as best-effort.
	Logout(ctx context.Context) error
}

// TaskService defines the task collection operations.
type TaskService interface {
	// List returns one page of tasks. page is 1-based.
	// Total and TotalPages are zero when the backend doesn't report them.
	List(ctx context.Context, page, pageSize int) (PageResult, error)

	// Create creates a task. The server assigns the ID.
	Create(ctx context.Context, in TaskInput) (Task, error)

	// Update replaces the mutable fields of the task with the given ID.
	Update(ctx context.Context, id string, in TaskInput) (Task, error)

	// Delete removes the task with the given ID.
	Delete(ctx context.Context, id string) error
}
