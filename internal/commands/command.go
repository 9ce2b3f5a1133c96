// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/pflag"

	"taskdesk/internal/app"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/notify"
	"taskdesk/internal/taskform"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Route returns the view the command opens. The dispatcher consults the
	// route guard for it before running the command.
	// "" means the command needs no app at all (help, version).
	Route() string

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// a is nil if Route() returns "".
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int
}

// cliNotifier prints notifications and remembers whether an error was shown,
// so commands don't repeat it.
type cliNotifier struct {
	w      *notify.Writer
	errors int
}

func newNotifier(a *app.App, out, errOut io.Writer) *cliNotifier {
	return &cliNotifier{w: notify.NewWriter(out, errOut, a.Config.Quiet)}
}

func (n *cliNotifier) Notify(level notify.Level, msg string) {
	if level == notify.LevelError {
		n.errors++
	}
	n.w.Notify(level, msg)
}

// fail reports err unless it was already notified and returns its exit code.
func (n *cliNotifier) fail(errOut io.Writer, err error) int {
	var verr *taskform.ValidationError
	switch {
	case errors.As(err, &verr):
		writeFieldErrors(errOut, verr.Fields)
	case n.errors == 0:
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return codeFor(err)
}

func codeFor(err error) int {
	if errors.Is(err, ErrTaskOutOfRange) || errors.Is(err, ErrTaskRefRequired) {
		return exitcode.UserError
	}
	return exitcode.For(err)
}

func writeFieldErrors[K ~string](w io.Writer, errs map[K]string) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "error: %s: %s\n", k, errs[K(k)])
	}
}
