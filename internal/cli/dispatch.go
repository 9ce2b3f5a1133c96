// Package cli maps command-line arguments onto commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"taskdesk/internal/app"
	"taskdesk/internal/commands"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/guard"
	"taskdesk/internal/logging"
)

// defaultCommand runs when no command is given.
const defaultCommand = "list"

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  app.Factory
	in       io.Reader
}

// NewDispatcher creates a new dispatcher with the given registry and app factory.
func NewDispatcher(registry *commands.Registry, factory app.Factory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// SetInput replaces the reader commands prompt from (stdin by default).
func (d *Dispatcher) SetInput(r io.Reader) {
	d.in = r
}

// commonFlags are accepted before or after any command.
type commonFlags struct {
	configDir string
	server    string
	quiet     bool
	debug     bool
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	var (
		flags commonFlags
		code  = exitcode.Success
	)

	root := &cobra.Command{
		Use:               "taskdesk",
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown command: %s", args[0])
			}
			return nil
		},
		RunE: func(cc *cobra.Command, _ []string) error {
			cmd, ok := d.registry.Find(defaultCommand)
			if !ok {
				return fmt.Errorf("unknown command: %s", defaultCommand)
			}
			// Reset the command's flags to their defaults.
			cmd.RegisterFlags(pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError))
			code = d.execute(cc.Context(), cmd, nil, flags, out, errOut)
			return nil
		},
	}
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return err })
	root.SetHelpFunc(func(cc *cobra.Command, _ []string) {
		fmt.Fprint(cc.OutOrStdout(), commands.HelpText)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config", "", "override config directory")
	pf.StringVar(&flags.server, "server", "", "override the task API base URL")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress informational output")
	pf.BoolVar(&flags.debug, "debug", false, "print debug logs to stderr")

	for _, cmd := range d.registry.All() {
		cmd := cmd
		sub := &cobra.Command{
			Use:     cmd.Name(),
			Aliases: cmd.Aliases(),
			Short:   cmd.Synopsis(),
			Long:    cmd.Usage(),
			RunE: func(cc *cobra.Command, args []string) error {
				code = d.execute(cc.Context(), cmd, args, flags, out, errOut)
				return nil
			},
		}
		cmd.RegisterFlags(sub.Flags())

		if cmd.Name() == "help" {
			root.SetHelpCommand(sub)
			continue
		}
		root.AddCommand(sub)
	}

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return code
}

// execute builds the app for cmd, applies the route guard and runs cmd.
func (d *Dispatcher) execute(ctx context.Context, cmd commands.Command, args []string, flags commonFlags, out, errOut io.Writer) int {
	if cmd.Route() == "" {
		return cmd.Run(ctx, nil, args, out, errOut)
	}

	cfg, err := config.Load(flags.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if flags.server != "" {
		cfg.Server = strings.TrimRight(flags.server, "/")
	}
	cfg.Quiet = flags.quiet
	cfg.Debug = flags.debug

	logger := logging.New(errOut, cfg.Debug)
	logger.Debug().Str("command", cmd.Name()).Str("backend", cfg.Backend).Str("dir", cfg.Dir).Msg("dispatch")

	a, err := d.factory(ctx, cfg, logger, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.For(err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close session storage")
		}
	}()
	if d.in != nil {
		a.In = d.in
	}

	if err := a.Session.Restore(); err != nil {
		logger.Warn().Err(err).Msg("ignoring unreadable session")
	}

	decision := guard.Decide(a.Session, cmd.Route())
	logger.Debug().Str("route", cmd.Route()).Stringer("outcome", decision.Outcome).Msg("route decision")
	if decision.Outcome != guard.Allow {
		fmt.Fprintln(errOut, "error: not logged in (run: taskdesk login)")
		return exitcode.AuthError
	}

	return cmd.Run(ctx, a, args, out, errOut)
}
