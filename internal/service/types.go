package service

import (
	"fmt"
	"strings"
	"time"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses returns every status in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus parses a user-supplied status. Empty input means pending.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StatusPending, nil
	}
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid status: %s", s)
	}
	return st, nil
}

// NormalizeStatus maps a status read from a server onto the model.
// A missing status is pending.
func NormalizeStatus(s string) Status {
	if strings.TrimSpace(s) == "" {
		return StatusPending
	}
	return Status(s)
}

// Task represents a single task item.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Status      Status     `json:"status" yaml:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty" yaml:"due_date,omitempty"`
}

// TaskInput holds the mutable fields sent on create and update.
type TaskInput struct {
	Title       string
	Description string
	Status      Status
	DueDate     *time.Time
}

// PageResult is one page of tasks as reported by a backend.
type PageResult struct {
	Items      []Task
	Total      int
	TotalPages int
}

// Identity is the user record held by a session.
type Identity struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string
	User  *Identity
}
