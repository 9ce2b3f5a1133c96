package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/guard"
	"taskdesk/internal/notify"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
)

// Fallback messages when the server doesn't supply one.
const (
	MsgLoginFailed  = "Invalid credentials"
	MsgSignupFailed = "Registration failed"
)

func init() {
	Register(&LoginCmd{})
	Register(&SignupCmd{})
}

// credentialFlags are the flags shared by login and signup. Missing values
// are prompted for.
type credentialFlags struct {
	email    string
	password string
}

func (f *credentialFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.email, "email", "e", "", "account email")
	fs.StringVar(&f.password, "password", "", "account password (prompted if omitted)")
}

func (f *credentialFlags) ask(p *prompter) error {
	var err error
	if f.email == "" {
		if f.email, err = p.Line("Email: "); err != nil {
			return err
		}
	}
	if f.password == "" {
		if f.password, err = p.Secret("Password: "); err != nil {
			return err
		}
	}
	return nil
}

// LoginCmd implements the login command.
type LoginCmd struct {
	creds credentialFlags
}

// SetCredentials sets the email and password (for testing).
func (c *LoginCmd) SetCredentials(email, password string) {
	c.creds = credentialFlags{email: email, password: password}
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in" }
func (c *LoginCmd) Usage() string     { return "taskdesk login [--email <email>] [--password <password>]" }
func (c *LoginCmd) Route() string     { return guard.RouteLogin }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.creds.register(fs)
}

func (c *LoginCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if id, ok := a.Session.Identity(); ok {
		if !a.Config.Quiet {
			fmt.Fprintf(out, "already logged in as %s\n", id.Email)
		}
		return exitcode.Success
	}

	n := newNotifier(a, out, errOut)

	// The google backend signs in through the browser.
	if a.Config.Backend != config.BackendGoogle {
		if err := c.creds.ask(newPrompter(a.In, errOut)); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		if errs := session.ValidateLogin(c.creds.email, c.creds.password); len(errs) > 0 {
			writeFieldErrors(errOut, errs)
			return exitcode.UserError
		}
	}

	if err := a.Session.Login(ctx, c.creds.email, c.creds.password); err != nil {
		n.Notify(notify.LevelError, service.Message(err, MsgLoginFailed))
		return n.fail(errOut, err)
	}

	id, _ := a.Session.Identity()
	n.Notify(notify.LevelSuccess, "logged in as "+id.Email)
	return exitcode.Success
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	creds   credentialFlags
	confirm string
}

// SetCredentials sets the email, password and confirmation (for testing).
func (c *SignupCmd) SetCredentials(email, password, confirm string) {
	c.creds = credentialFlags{email: email, password: password}
	c.confirm = confirm
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return []string{"register"} }
func (c *SignupCmd) Synopsis() string  { return "Create an account" }
func (c *SignupCmd) Usage() string {
	return "taskdesk signup [--email <email>] [--password <password>] [--confirm <password>]"
}
func (c *SignupCmd) Route() string { return guard.RouteSignup }

func (c *SignupCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.creds.register(fs)
	fs.StringVar(&c.confirm, "confirm", "", "password confirmation (prompted if omitted)")
}

func (c *SignupCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	p := newPrompter(a.In, errOut)
	if err := c.creds.ask(p); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if c.confirm == "" {
		var err error
		if c.confirm, err = p.Secret("Confirm password: "); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}
	if errs := session.ValidateSignup(c.creds.email, c.creds.password, c.confirm); len(errs) > 0 {
		writeFieldErrors(errOut, errs)
		return exitcode.UserError
	}

	n := newNotifier(a, out, errOut)
	if err := a.Session.Signup(ctx, c.creds.email, c.creds.password); err != nil {
		n.Notify(notify.LevelError, service.Message(err, MsgSignupFailed))
		return n.fail(errOut, err)
	}
	n.Notify(notify.LevelSuccess, "account created (run: taskdesk login)")
	return exitcode.Success
}
