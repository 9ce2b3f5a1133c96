package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdesk/internal/config"
	"taskdesk/internal/guard"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
)

// Credential field keys, matching session.FieldErrors.
const (
	fieldEmail    = "email"
	fieldPassword = "password"
	fieldConfirm  = "confirmPassword"
)

type authForm struct {
	signup bool
	keys   []string
	inputs []textinput.Model
	focus  int
	errs   session.FieldErrors
	busy   bool
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newAuthForm(signup bool) *authForm {
	f := &authForm{signup: signup, keys: []string{fieldEmail, fieldPassword}}
	if signup {
		f.keys = append(f.keys, fieldConfirm)
	}
	for _, key := range f.keys {
		ti := newInput(authLabel(key))
		if key != fieldEmail {
			ti.EchoMode = textinput.EchoPassword
		}
		f.inputs = append(f.inputs, ti)
	}
	f.inputs[0].Focus()
	return f
}

func authLabel(key string) string {
	switch key {
	case fieldPassword:
		return "Password"
	case fieldConfirm:
		return "Confirm password"
	default:
		return "Email"
	}
}

func (f *authForm) value(key string) string {
	for i, k := range f.keys {
		if k == key {
			return f.inputs[i].Value()
		}
	}
	return ""
}

func (f *authForm) email() string {
	if f == nil {
		return ""
	}
	return strings.TrimSpace(f.value(fieldEmail))
}

func (f *authForm) setEmail(email string) {
	f.inputs[0].SetValue(email)
}

func (f *authForm) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (m *Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.auth
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "down":
		f.move(1)
		return m, nil
	case "shift+tab", "up":
		f.move(-1)
		return m, nil
	case "ctrl+t":
		if f.signup {
			return m.navigate(guard.RouteLogin)
		}
		return m.navigate(guard.RouteSignup)
	case "enter":
		if f.focus < len(f.inputs)-1 {
			f.move(1)
			return m, nil
		}
		return m, m.submitAuth()
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

func (m *Model) submitAuth() tea.Cmd {
	f := m.auth
	if f.busy {
		return nil
	}
	email, password := f.email(), f.value(fieldPassword)

	// The google backend signs in through the browser.
	if m.app.Config.Backend != config.BackendGoogle {
		if f.signup {
			f.errs = session.ValidateSignup(email, password, f.value(fieldConfirm))
		} else {
			f.errs = session.ValidateLogin(email, password)
		}
		if len(f.errs) > 0 {
			return nil
		}
	}

	f.busy = true
	m.setStatus("", false)
	signup := f.signup
	return func() tea.Msg {
		if signup {
			return authDoneMsg{signup: true, err: m.app.Session.Signup(m.ctx, email, password)}
		}
		return authDoneMsg{err: m.app.Session.Login(m.ctx, email, password)}
	}
}

func (m *Model) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	m.auth.busy = false
	switch {
	case msg.err != nil && msg.signup:
		m.setStatus(service.Message(msg.err, msgSignupFailed), true)
		return m, nil
	case msg.err != nil:
		m.setStatus(service.Message(msg.err, msgLoginFailed), true)
		return m, nil
	case msg.signup:
		m.setStatus(msgAccountCreated, false)
		return m.navigate(guard.RouteLogin)
	default:
		m.setStatus("", false)
		return m.navigate(guard.RouteTasks)
	}
}

func (m *Model) viewAuth(b *strings.Builder) {
	f := m.auth
	title := "Log in"
	if f.signup {
		title = "Sign up"
	}
	b.WriteString(headingStyle.Render(title) + "\n\n")

	for i, key := range f.keys {
		b.WriteString(labelStyle.Render(authLabel(key)) + "\n")
		b.WriteString(f.inputs[i].View() + "\n")
		if msg, ok := f.errs[key]; ok {
			b.WriteString(errorStyle.Render(msg) + "\n")
		}
	}

	if f.busy {
		b.WriteString("\n" + dimStyle.Render("Working...") + "\n")
	}
	if f.signup {
		b.WriteString("\n" + helpStyle.Render("enter submit • tab next field • ctrl+t log in instead • esc quit"))
		return
	}
	b.WriteString("\n" + helpStyle.Render("enter submit • tab next field • ctrl+t create an account • esc quit"))
}
