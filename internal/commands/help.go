package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskdesk/internal/app"
	"taskdesk/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskdesk help" }
func (c *HelpCmd) Route() string     { return "" }

func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, HelpText)
	return exitcode.Success
}

// HelpText is printed by help, -h and --help.
const HelpText = `Usage:
  taskdesk                                       List the first page of tasks
  taskdesk list [--page <n>] [-o table|json|yaml]
  taskdesk add [-d <description>] [-s <status>] [--due <date>] <title...>
  taskdesk create ...                            Alias for add
  taskdesk edit [--title <t>] [-d <d>] [-s <status>] [--due <date>] <ref>
  taskdesk done <ref>
  taskdesk rm [--yes] <ref>
  taskdesk login [--email <email>] [--password <password>]
  taskdesk signup [--email <email>] [--password <p>] [--confirm <p>]
  taskdesk logout
  taskdesk whoami
  taskdesk ui                                    Interactive task board
  taskdesk help
  taskdesk version

<ref> is the row number shown by list. Statuses: pending, in-progress, completed.

Common flags:
  --config <dir>   Override config directory
  --server <url>   Override the task API base URL
  --quiet, -q      Suppress informational output
  --debug          Print debug logs to stderr
`
