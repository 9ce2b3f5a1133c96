// Package main is the entry point for the taskdesk CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taskdesk/internal/app"
	"taskdesk/internal/cli"
	"taskdesk/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, app.New)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
