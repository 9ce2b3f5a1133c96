// Package tasklist owns the paginated task view and orchestrates fetch,
// create, update and delete against a task service.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"taskdesk/internal/notify"
	"taskdesk/internal/service"
	"taskdesk/internal/taskform"
)

// PageSize is the fixed number of tasks per page.
const PageSize = 3

// Notification texts.
const (
	MsgLoadFailed   = "Failed to load tasks"
	MsgAdded        = "Task added"
	MsgUpdated      = "Task updated"
	MsgSaveFailed   = "Failed to save task"
	MsgDeleted      = "Task deleted"
	MsgDeleteFailed = "Failed to delete task"
	DeletePrompt    = "Delete this task?"
)

var (
	// ErrStale is returned by a fetch whose result was superseded by a newer fetch.
	ErrStale = errors.New("stale fetch result discarded")

	// ErrPageOutOfRange is returned when navigating outside [1, totalPages].
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrNoPendingDelete is returned by ConfirmDelete without a prior RequestDelete.
	ErrNoPendingDelete = errors.New("no delete pending")

	// ErrDeleteCancelled is returned by Delete when the user declines.
	ErrDeleteCancelled = errors.New("delete cancelled")
)

// Phase is the state of the most recent fetch cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// View is one page of tasks.
type View struct {
	Items      []service.Task
	Page       int
	PageSize   int
	TotalPages int
}

// RowNumber returns the 1-based position of item i across all pages.
func (v View) RowNumber(i int) int {
	return (v.Page-1)*v.PageSize + i + 1
}

// Confirmation describes a destructive action awaiting the user's answer.
type Confirmation struct {
	Task   service.Task
	Prompt string
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, c Confirmation) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, c Confirmation) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, c Confirmation) (bool, error) {
	return f(ctx, c)
}

// Controller is the Task List Controller. It is safe for concurrent use; the
// internal lock is never held across service calls.
type Controller struct {
	svc      service.TaskService
	form     *taskform.Form
	notifier notify.Notifier
	log      zerolog.Logger

	mu      sync.Mutex
	phase   Phase
	view    View
	seq     uint64
	lastErr error
	menu    string // id of the row whose menu is open, "" for none
	pending *service.Task
}

// New creates a controller showing an empty first page.
func New(svc service.TaskService, form *taskform.Form, notifier notify.Notifier, logger zerolog.Logger) *Controller {
	if form == nil {
		form = taskform.New()
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Controller{
		svc:      svc,
		form:     form,
		notifier: notifier,
		log:      logger,
		view:     View{Page: 1, PageSize: PageSize, TotalPages: 1},
	}
}

// Form returns the form controller used for create and edit.
func (c *Controller) Form() *taskform.Form {
	return c.form
}

// Phase returns the current fetch phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Err returns the error of the last failed fetch, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// View returns a copy of the current page view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.view
	v.Items = append([]service.Task(nil), c.view.Items...)
	return v
}

// FetchPage loads page n and replaces the view with the result. Only the most
// recently started fetch may change state; an older one returns ErrStale.
// On failure the previous view is kept.
func (c *Controller) FetchPage(ctx context.Context, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrPageOutOfRange, n)
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.phase = PhaseLoading
	c.mu.Unlock()

	res, err := c.svc.List(ctx, n, PageSize)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.log.Debug().Int("page", n).Uint64("seq", seq).Msg("discarding stale fetch")
		return ErrStale
	}
	if err != nil {
		c.phase = PhaseError
		c.lastErr = err
		c.mu.Unlock()
		c.log.Debug().Err(err).Int("page", n).Msg("fetch failed")
		c.notifier.Notify(notify.LevelError, MsgLoadFailed)
		return err
	}

	items := res.Items
	if len(items) > PageSize {
		items = items[:PageSize]
	}
	c.view = View{
		Items:      append([]service.Task(nil), items...),
		Page:       n,
		PageSize:   PageSize,
		TotalPages: totalPages(res),
	}
	c.phase = PhaseLoaded
	c.lastErr = nil
	if c.menu != "" && !containsID(c.view.Items, c.menu) {
		c.menu = ""
	}
	c.mu.Unlock()
	return nil
}

func totalPages(res service.PageResult) int {
	switch {
	case res.TotalPages > 0:
		return res.TotalPages
	case res.Total > 0:
		return (res.Total + PageSize - 1) / PageSize
	default:
		return 1
	}
}

func containsID(items []service.Task, id string) bool {
	for _, t := range items {
		if t.ID == id {
			return true
		}
	}
	return false
}

// GoToPage fetches page n. A page outside [1, totalPages] is rejected with
// ErrPageOutOfRange before any call to the service.
func (c *Controller) GoToPage(ctx context.Context, n int) error {
	c.mu.Lock()
	total := max(c.view.TotalPages, 1)
	c.mu.Unlock()

	if n < 1 || n > total {
		return fmt.Errorf("%w: %d (1-%d)", ErrPageOutOfRange, n, total)
	}
	return c.FetchPage(ctx, n)
}

// NextPage moves one page forward.
func (c *Controller) NextPage(ctx context.Context) error {
	return c.GoToPage(ctx, c.currentPage()+1)
}

// PrevPage moves one page back.
func (c *Controller) PrevPage(ctx context.Context) error {
	return c.GoToPage(ctx, c.currentPage()-1)
}

// Refresh re-fetches the current page.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.FetchPage(ctx, c.currentPage())
}

func (c *Controller) currentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Page
}

// RequestCreate opens the form in create mode.
func (c *Controller) RequestCreate() {
	c.CloseMenu()
	c.form.Open(nil)
}

// RequestEdit opens the form in edit mode for task.
func (c *Controller) RequestEdit(task service.Task) {
	c.CloseMenu()
	c.form.Open(&task)
}

// CloseForm discards the form draft.
func (c *Controller) CloseForm() {
	c.form.Close()
}

// SubmitForm submits the open form, saving through HandleFormSaved.
func (c *Controller) SubmitForm(ctx context.Context) error {
	var editing *service.Task
	if task, ok := c.form.Editing(); ok {
		editing = &task
	}
	return c.form.Submit(ctx, func(ctx context.Context, in service.TaskInput) error {
		return c.HandleFormSaved(ctx, in, editing)
	})
}

// HandleFormSaved updates editing with in, or creates a task when editing is
// nil. On success the form and menu are closed and the current page is
// re-fetched. On failure the form keeps its draft.
func (c *Controller) HandleFormSaved(ctx context.Context, in service.TaskInput, editing *service.Task) error {
	var err error
	msg := MsgAdded
	if editing != nil {
		msg = MsgUpdated
		_, err = c.svc.Update(ctx, editing.ID, in)
	} else {
		_, err = c.svc.Create(ctx, in)
	}

	if err != nil {
		c.log.Debug().Err(err).Msg("save failed")
		c.notifier.Notify(notify.LevelError, service.Message(err, MsgSaveFailed))
		if service.IsNotFoundOrConflict(err) {
			c.refreshQuietly(ctx)
		}
		return err
	}

	c.form.Close()
	c.CloseMenu()
	c.notifier.Notify(notify.LevelSuccess, msg)
	c.refreshQuietly(ctx)
	return nil
}

// refreshQuietly re-fetches after a mutation. Failures are already notified
// by FetchPage and don't undo the mutation.
func (c *Controller) refreshQuietly(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		c.log.Debug().Err(err).Msg("refresh after mutation failed")
	}
}

// RequestDelete records task as pending deletion and returns the prompt to
// show. Nothing is deleted until ConfirmDelete.
func (c *Controller) RequestDelete(task service.Task) Confirmation {
	c.mu.Lock()
	c.pending = &task
	c.mu.Unlock()
	return Confirmation{Task: task, Prompt: DeletePrompt}
}

// PendingDelete returns the task awaiting confirmation, if any.
func (c *Controller) PendingDelete() (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return service.Task{}, false
	}
	return *c.pending, true
}

// CancelDelete drops the pending deletion. The row menu stays as it was.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

// ConfirmDelete deletes the pending task. On success the current page is
// re-fetched without adjusting the page number, even if it is now empty.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	task := c.pending
	c.pending = nil
	c.mu.Unlock()

	if task == nil {
		return ErrNoPendingDelete
	}

	if err := c.svc.Delete(ctx, task.ID); err != nil {
		c.log.Debug().Err(err).Str("id", task.ID).Msg("delete failed")
		c.notifier.Notify(notify.LevelError, service.Message(err, MsgDeleteFailed))
		if service.IsNotFoundOrConflict(err) {
			c.refreshQuietly(ctx)
		}
		return err
	}

	c.CloseMenu()
	c.notifier.Notify(notify.LevelSuccess, MsgDeleted)
	c.refreshQuietly(ctx)
	return nil
}

// Delete runs both delete steps, asking confirmer in between.
func (c *Controller) Delete(ctx context.Context, task service.Task, confirmer Confirmer) error {
	prompt := c.RequestDelete(task)
	ok, err := confirmer.Confirm(ctx, prompt)
	if err != nil {
		c.CancelDelete()
		return err
	}
	if !ok {
		c.CancelDelete()
		return ErrDeleteCancelled
	}
	return c.ConfirmDelete(ctx)
}

// ToggleMenu opens the menu for id, closing any other, or closes it if it is
// already open. It reports whether the menu for id is now open.
func (c *Controller) ToggleMenu(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.menu == id {
		c.menu = ""
		return false
	}
	c.menu = id
	return true
}

// OpenMenu returns the id of the row whose menu is open.
func (c *Controller) OpenMenu() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.menu, c.menu != ""
}

// CloseMenu closes any open row menu.
func (c *Controller) CloseMenu() {
	c.mu.Lock()
	c.menu = ""
	c.mu.Unlock()
}
