package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskdesk/internal/app"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/guard"
	"taskdesk/internal/tui"
)

func init() {
	Register(&UICmd{})
}

// UICmd starts the interactive task board. It opens on the login view and
// lets the board's own route guard move on once a session exists.
type UICmd struct{}

func (c *UICmd) Name() string      { return "ui" }
func (c *UICmd) Aliases() []string { return []string{"tui"} }
func (c *UICmd) Synopsis() string  { return "Interactive task board" }
func (c *UICmd) Usage() string     { return "taskdesk ui" }
func (c *UICmd) Route() string     { return guard.RouteLogin }

func (c *UICmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *UICmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if err := tui.Run(ctx, a, a.In, out); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
