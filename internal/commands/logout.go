package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskdesk/internal/app"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/guard"
	"taskdesk/internal/notify"
)

func init() {
	Register(&LogoutCmd{})
	Register(&WhoamiCmd{})
}

// LogoutCmd implements the logout command. It ends on the login view, so it
// runs without a session.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Sign out and forget the session" }
func (c *LogoutCmd) Usage() string     { return "taskdesk logout" }
func (c *LogoutCmd) Route() string     { return guard.RouteLogin }

func (c *LogoutCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if !a.Session.IsAuthenticated() {
		if !a.Config.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		// Drop a half-written session, if any.
		if err := a.Session.Clear(); err != nil {
			a.Log.Warn().Err(err).Msg("failed to clear session")
		}
		return exitcode.Success
	}

	if err := a.Session.Logout(ctx); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove session: %v\n", err)
		return exitcode.AuthError
	}

	newNotifier(a, out, errOut).Notify(notify.LevelSuccess, "logged out")
	return exitcode.Success
}

// WhoamiCmd prints the signed-in identity.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Show the signed-in account" }
func (c *WhoamiCmd) Usage() string     { return "taskdesk whoami" }
func (c *WhoamiCmd) Route() string     { return guard.RouteTasks }

func (c *WhoamiCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	id, ok := a.Session.Identity()
	if !ok {
		fmt.Fprintln(errOut, "error: not logged in")
		return exitcode.AuthError
	}
	if id.Name != "" {
		fmt.Fprintf(out, "%s (%s)\n", id.Email, id.Name)
		return exitcode.Success
	}
	fmt.Fprintln(out, id.Email)
	return exitcode.Success
}
