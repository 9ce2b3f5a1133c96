package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskdesk/internal/app"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/guard"
	"taskdesk/internal/taskform"
	"taskdesk/internal/tasklist"
)

func init() {
	Register(&AddCmd{})
	Register(&EditCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	status      string
	due         string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskdesk add [-d <description>] [-s <status>] [--due <date>] <title...>"
}
func (c *AddCmd) Route() string { return guard.RouteTasks }

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.description, "description", "d", "", "task description")
	fs.StringVarP(&c.status, "status", "s", "", "pending, in-progress or completed")
	fs.StringVar(&c.due, "due", "", "due date, e.g. 2026-05-01 or 2026-05-01T09:30")
}

func (c *AddCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	n := newNotifier(a, out, errOut)
	ctrl := a.NewController(n)
	ctrl.RequestCreate()

	fields := map[taskform.Field]string{
		taskform.FieldTitle:       title,
		taskform.FieldDescription: c.description,
		taskform.FieldDueDate:     c.due,
	}
	if c.status != "" {
		fields[taskform.FieldStatus] = c.status
	}
	return submit(ctx, ctrl, fields, n, errOut)
}

// EditCmd implements the edit command. Only the given flags change the task.
type EditCmd struct {
	fs *pflag.FlagSet

	title       string
	description string
	status      string
	due         string
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change a task" }
func (c *EditCmd) Usage() string {
	return "taskdesk edit [--title <title>] [-d <description>] [-s <status>] [--due <date>] <ref>"
}
func (c *EditCmd) Route() string { return guard.RouteTasks }

func (c *EditCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.fs = fs
	fs.StringVarP(&c.title, "title", "t", "", "new title")
	fs.StringVarP(&c.description, "description", "d", "", "new description")
	fs.StringVarP(&c.status, "status", "s", "", "pending, in-progress or completed")
	fs.StringVar(&c.due, "due", "", `new due date, or "" to clear`)
}

// Set records a flag value as if it were given on the command line (for testing).
func (c *EditCmd) Set(name, value string) error {
	if c.fs == nil {
		c.RegisterFlags(pflag.NewFlagSet(c.Name(), pflag.ContinueOnError))
	}
	return c.fs.Set(name, value)
}

func (c *EditCmd) changes() map[taskform.Field]string {
	fields := make(map[taskform.Field]string)
	if c.fs == nil {
		return fields
	}
	set := func(flag string, field taskform.Field, value string) {
		if c.fs.Changed(flag) {
			fields[field] = value
		}
	}
	set("title", taskform.FieldTitle, c.title)
	set("description", taskform.FieldDescription, c.description)
	set("status", taskform.FieldStatus, c.status)
	set("due", taskform.FieldDueDate, c.due)
	return fields
}

func (c *EditCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	fields := c.changes()
	if len(fields) == 0 {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	n := newNotifier(a, out, errOut)
	ctrl := a.NewController(n)
	task, err := lookupTask(ctx, ctrl, ref)
	if err != nil {
		return n.fail(errOut, err)
	}

	ctrl.RequestEdit(task)
	return submit(ctx, ctrl, fields, n, errOut)
}

// submit fills the open form and saves it through the controller.
func submit(ctx context.Context, ctrl *tasklist.Controller, fields map[taskform.Field]string, n *cliNotifier, errOut io.Writer) int {
	form := ctrl.Form()
	for field, value := range fields {
		if err := form.UpdateField(field, value); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}
	if err := ctrl.SubmitForm(ctx); err != nil {
		return n.fail(errOut, err)
	}
	return exitcode.Success
}
