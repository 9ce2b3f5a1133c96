// Package taskform manages the draft, validation and submission of a single
// create-or-edit task form.
package taskform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"taskdesk/internal/service"
)

// Field names a draft field.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldStatus      Field = "status"
	FieldDueDate     Field = "dueDate"
)

// Fields returns the draft fields in display order.
func Fields() []Field {
	return []Field{FieldTitle, FieldDescription, FieldStatus, FieldDueDate}
}

// EditLayout is the edit-friendly due date representation, in local time.
const EditLayout = "2006-01-02T15:04"

var dueLayouts = []string{EditLayout, "2006-01-02 15:04", "2006-01-02"}

var (
	// ErrInvalid is wrapped by every ValidationError.
	ErrInvalid = errors.New("invalid task")

	// ErrSubmitting is returned when a submission is already in flight.
	ErrSubmitting = errors.New("submission already in progress")

	// ErrClosed is returned when the form is used while not open.
	ErrClosed = errors.New("form is not open")
)

// Errors maps a field to a human-readable message. Empty means submittable.
type Errors map[Field]string

// ValidationError is returned by Submit when the draft fails validation.
type ValidationError struct {
	Fields Errors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[Field(k)]
	}
	return fmt.Sprintf("%v: %s", ErrInvalid, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// Draft holds the in-progress field values as typed by the user.
type Draft struct {
	Title       string
	Description string
	Status      string
	DueDate     string // EditLayout, RFC 3339 or 2006-01-02; empty means none
}

// SaveFunc persists a validated, normalized payload.
type SaveFunc func(ctx context.Context, in service.TaskInput) error

// Option configures a Form.
type Option func(*Form)

// RequireDueDate makes an empty due date a validation failure.
func RequireDueDate() Option {
	return func(f *Form) { f.requireDue = true }
}

// WithLocation sets the zone used to show and parse local due dates.
func WithLocation(loc *time.Location) Option {
	return func(f *Form) { f.loc = loc }
}

// Form is the Task Form Controller. It is safe for concurrent use.
type Form struct {
	requireDue bool
	loc        *time.Location

	mu         sync.Mutex
	open       bool
	editing    *service.Task
	draft      Draft
	errs       Errors
	submitting bool
}

// New creates a closed form.
func New(opts ...Option) *Form {
	f := &Form{loc: time.Local}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open starts a draft. A nil task opens the form in create mode; otherwise
// the draft is copied from the task and the form is in edit mode.
func (f *Form) Open(existing *service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.open = true
	f.errs = Errors{}
	f.editing = nil
	f.draft = Draft{Status: string(service.StatusPending)}

	if existing != nil {
		task := *existing
		f.editing = &task
		f.draft = Draft{
			Title:       task.Title,
			Description: task.Description,
			Status:      string(service.NormalizeStatus(string(task.Status))),
		}
		if task.DueDate != nil {
			f.draft.DueDate = task.DueDate.In(f.loc).Format(EditLayout)
		}
	}
}

// IsOpen reports whether a draft is active.
func (f *Form) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Editing returns the task being edited, if the form is in edit mode.
func (f *Form) Editing() (service.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editing == nil {
		return service.Task{}, false
	}
	return *f.editing, true
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// UpdateField sets a single draft field.
func (f *Form) UpdateField(name Field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return ErrClosed
	}
	switch name {
	case FieldTitle:
		f.draft.Title = value
	case FieldDescription:
		f.draft.Description = value
	case FieldStatus:
		f.draft.Status = value
	case FieldDueDate:
		f.draft.DueDate = value
	default:
		return fmt.Errorf("unknown field: %s", name)
	}
	return nil
}

// Validate checks the draft and records the result for Errors.
func (f *Form) Validate() Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = f.validate(f.draft)
	return copyErrors(f.errs)
}

// Errors returns the result of the last validation.
func (f *Form) Errors() Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyErrors(f.errs)
}

// Submitting reports whether a save is in flight.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Close discards the draft. It is safe to call at any time.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.editing = nil
	f.draft = Draft{}
	f.errs = Errors{}
}

// Submit validates the draft and, if it passes, calls save with the
// normalized payload. The submitting flag is set for the duration of save and
// cleared afterwards whatever save returns.
func (f *Form) Submit(ctx context.Context, save SaveFunc) error {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	f.errs = f.validate(f.draft)
	if len(f.errs) > 0 {
		err := &ValidationError{Fields: copyErrors(f.errs)}
		f.mu.Unlock()
		return err
	}
	in := f.normalize(f.draft)
	f.submitting = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()
	return save(ctx, in)
}

func (f *Form) validate(d Draft) Errors {
	errs := Errors{}

	if strings.TrimSpace(d.Title) == "" {
		errs[FieldTitle] = "Title is required"
	}
	if _, err := service.ParseStatus(d.Status); err != nil {
		errs[FieldStatus] = "Select a valid status"
	}

	due := strings.TrimSpace(d.DueDate)
	switch {
	case due == "" && f.requireDue:
		errs[FieldDueDate] = "Due date is required"
	case due != "":
		if _, err := f.parseDue(due); err != nil {
			errs[FieldDueDate] = "Enter a valid due date"
		}
	}
	return errs
}

// normalize assumes d has passed validate.
func (f *Form) normalize(d Draft) service.TaskInput {
	status, _ := service.ParseStatus(d.Status)
	in := service.TaskInput{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Status:      status,
	}
	if due := strings.TrimSpace(d.DueDate); due != "" {
		if t, err := f.parseDue(due); err == nil {
			utc := t.UTC()
			in.DueDate = &utc
		}
	}
	return in
}

func (f *Form) parseDue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, s, f.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due date: %s", s)
}

func copyErrors(errs Errors) Errors {
	out := make(Errors, len(errs))
	for k, v := range errs {
		out[k] = v
	}
	return out
}
