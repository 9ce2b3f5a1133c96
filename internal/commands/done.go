package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskdesk/internal/app"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/guard"
	"taskdesk/internal/service"
	"taskdesk/internal/taskform"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return nil }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string     { return "taskdesk done <ref>" }
func (c *DoneCmd) Route() string     { return guard.RouteTasks }

func (c *DoneCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
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

	ctrl.RequestEdit(task)
	return submit(ctx, ctrl, map[taskform.Field]string{
		taskform.FieldStatus: string(service.StatusCompleted),
	}, n, errOut)
}
