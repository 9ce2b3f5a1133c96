// Package notify delivers user-visible notifications ("toasts").
package notify

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Level is the kind of notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier presents a notification to the user.
type Notifier interface {
	Notify(level Level, msg string)
}

// Func adapts a function to Notifier.
type Func func(level Level, msg string)

// Notify implements Notifier.
func (f Func) Notify(level Level, msg string) { f(level, msg) }

// Discard drops every notification.
var Discard Notifier = Func(func(Level, string) {})

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Writer prints notifications for the CLI. Success and info go to out unless
// quiet; errors always go to errOut as "error: <msg>".
type Writer struct {
	out, errOut io.Writer
	quiet       bool
}

// NewWriter creates a Writer.
func NewWriter(out, errOut io.Writer, quiet bool) *Writer {
	return &Writer{out: out, errOut: errOut, quiet: quiet}
}

// Notify implements Notifier.
func (w *Writer) Notify(level Level, msg string) {
	switch level {
	case LevelError:
		fmt.Fprintf(w.errOut, "%s %s\n", errorStyle.Render("error:"), msg)
	case LevelSuccess:
		if !w.quiet {
			fmt.Fprintf(w.out, "%s %s\n", successStyle.Render("ok:"), msg)
		}
	default:
		if !w.quiet {
			fmt.Fprintln(w.out, msg)
		}
	}
}
