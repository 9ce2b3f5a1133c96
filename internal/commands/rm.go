package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskdesk/internal/app"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/guard"
	"taskdesk/internal/output"
	"taskdesk/internal/tasklist"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	yes bool
}

// SetYes skips the confirmation prompt (for testing).
func (c *RmCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskdesk rm [--yes] <ref>" }
func (c *RmCmd) Route() string     { return guard.RouteTasks }

func (c *RmCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.yes, "yes", "y", false, "don't ask for confirmation")
}

func (c *RmCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	n := newNotifier(a, out, errOut)
	ctrl := a.NewController(n)
	task, err := lookupTask(ctx, ctrl, ref)
	if err != nil {
		return n.fail(errOut, err)
	}

	confirm := tasklist.ConfirmFunc(func(ctx context.Context, conf tasklist.Confirmation) (bool, error) {
		if c.yes {
			return true, nil
		}
		output.FormatTask(errOut, ref.Num, conf.Task)
		return newPrompter(a.In, errOut).Confirm(conf.Prompt)
	})

	err = ctrl.Delete(ctx, task, confirm)
	switch {
	case errors.Is(err, tasklist.ErrDeleteCancelled):
		if !a.Config.Quiet {
			fmt.Fprintln(out, "cancelled")
		}
		return exitcode.Success
	case err != nil:
		return n.fail(errOut, err)
	}
	return exitcode.Success
}
