// Package tui is the interactive task board: login and signup screens, the
// paginated task table, the create/edit form and delete confirmation.
package tui

import (
	"context"
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"taskdesk/internal/app"
	"taskdesk/internal/guard"
	"taskdesk/internal/notify"
	"taskdesk/internal/service"
	"taskdesk/internal/tasklist"
)

type screen int

const (
	screenLoading screen = iota
	screenAuth
	screenTasks
)

// Status texts not produced by the task list controller.
const (
	msgAccountCreated = "Account created. Log in to continue."
	msgLoggedOut      = "Logged out"
	msgSessionExpired = "Session expired. Please log in again."
	msgLoginFailed    = "Invalid credentials"
	msgSignupFailed   = "Registration failed"
)

type restoredMsg struct{ err error }
type authDoneMsg struct {
	signup bool
	err    error
}
type pageMsg struct{ err error }
type savedMsg struct{ err error }
type deletedMsg struct{ err error }
type loggedOutMsg struct{ err error }

// toastQueue collects controller notifications raised inside commands until
// Update picks them up.
type toastQueue struct {
	mu    sync.Mutex
	items []toast
}

type toast struct {
	level notify.Level
	msg   string
}

func (q *toastQueue) Notify(level notify.Level, msg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, toast{level: level, msg: msg})
}

func (q *toastQueue) drain() []toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Model is the bubbletea model of the board.
type Model struct {
	ctx    context.Context
	app    *app.App
	ctrl   *tasklist.Controller
	toasts *toastQueue

	screen    screen
	status    string
	statusErr bool

	auth    *authForm
	cursor  int
	editor  *editor
	confirm *tasklist.Confirmation
	width   int
}

// New creates the board for a. Nothing is loaded until Init.
func New(ctx context.Context, a *app.App) *Model {
	q := &toastQueue{}
	return &Model{
		ctx:    ctx,
		app:    a,
		ctrl:   a.NewController(q),
		toasts: q,
		screen: screenLoading,
		auth:   newAuthForm(false),
	}
}

// Run shows the board on out until the user quits or ctx is cancelled.
func Run(ctx context.Context, a *app.App, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(New(ctx, a),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		return restoredMsg{err: m.app.Session.Restore()}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case restoredMsg:
		if msg.err != nil {
			m.app.Log.Warn().Err(msg.err).Msg("ignoring unreadable session")
		}
		return m.navigate(guard.RouteTasks)

	case authDoneMsg:
		return m.handleAuthDone(msg)

	case pageMsg:
		return m.handlePage(msg)

	case savedMsg:
		m.takeToasts()
		if msg.err == nil {
			m.editor = nil
		}
		m.clampCursor()
		return m, nil

	case deletedMsg:
		m.takeToasts()
		m.clampCursor()
		return m, nil

	case loggedOutMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		} else {
			m.setStatus(msgLoggedOut, false)
		}
		return m.navigate(guard.RouteLogin)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenAuth:
			return m.updateAuth(msg)
		case screenTasks:
			return m.updateTasks(msg)
		}
	}
	return m, nil
}

// navigate applies the route guard to path and shows the resulting screen.
func (m *Model) navigate(path string) (tea.Model, tea.Cmd) {
	d := guard.Decide(m.app.Session, path)
	if d.Outcome == guard.Redirect {
		path = d.Target
	}

	switch {
	case d.Outcome == guard.Pending:
		m.screen = screenLoading
		return m, nil
	case path == guard.RouteTasks:
		m.screen = screenTasks
		m.cursor = 0
		return m, m.load(func(ctx context.Context) error { return m.ctrl.FetchPage(ctx, 1) })
	default:
		email := m.auth.email()
		m.auth = newAuthForm(path == guard.RouteSignup)
		m.auth.setEmail(email)
		m.screen = screenAuth
		return m, nil
	}
}

func (m *Model) load(fetch func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return pageMsg{err: fetch(m.ctx)}
	}
}

func (m *Model) handlePage(msg pageMsg) (tea.Model, tea.Cmd) {
	m.takeToasts()
	switch {
	case errors.Is(msg.err, tasklist.ErrStale), errors.Is(msg.err, tasklist.ErrPageOutOfRange):
		return m, nil
	case errors.Is(msg.err, service.ErrAuth):
		if err := m.app.Session.Clear(); err != nil {
			m.app.Log.Warn().Err(err).Msg("failed to clear session")
		}
		m.setStatus(msgSessionExpired, true)
		return m.navigate(guard.RouteLogin)
	}
	m.clampCursor()
	return m, nil
}

// takeToasts shows the most recent controller notification, if any.
func (m *Model) takeToasts() {
	items := m.toasts.drain()
	if len(items) == 0 {
		return
	}
	last := items[len(items)-1]
	m.setStatus(last.msg, last.level == notify.LevelError)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.View().Items)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selected() (service.Task, bool) {
	items := m.ctrl.View().Items
	if m.cursor < 0 || m.cursor >= len(items) {
		return service.Task{}, false
	}
	return items[m.cursor], true
}
