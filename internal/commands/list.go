package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskdesk/internal/app"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/guard"
	"taskdesk/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command. It also runs for `taskdesk` with no
// arguments.
type ListCmd struct {
	page   int
	format string
}

// SetPage sets the page number (for testing).
func (c *ListCmd) SetPage(page int) {
	c.page = page
}

// SetFormat sets the output format (for testing).
func (c *ListCmd) SetFormat(format string) {
	c.format = format
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "taskdesk list [--page <n>] [--output table|json|yaml]" }
func (c *ListCmd) Route() string     { return guard.RouteTasks }

func (c *ListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&c.page, "page", "p", 1, "page number")
	fs.StringVarP(&c.format, "output", "o", "", "output format: table, json or yaml")
}

func (c *ListCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	page := c.page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		fmt.Fprintf(errOut, "error: invalid page number: %d\n", page)
		return exitcode.UserError
	}

	name := c.format
	if name == "" {
		name = a.Config.Output
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	n := newNotifier(a, out, errOut)
	ctrl := a.NewController(n)

	// The first page tells us how many pages exist.
	if err := ctrl.FetchPage(ctx, 1); err != nil {
		return n.fail(errOut, err)
	}
	if page > 1 {
		if err := ctrl.GoToPage(ctx, page); err != nil {
			return n.fail(errOut, err)
		}
	}

	if err := output.WritePage(out, format, ctrl.View()); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
