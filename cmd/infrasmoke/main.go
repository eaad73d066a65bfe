// Package main is the entry point for the infrasmoke CLI.
//
// infrasmoke runs an end-to-end smoke test of the Farm VM infrastructure:
// it leases a group, boots one VM per datacenter and checks that every VM
// can download a payload from every other VM.
//
// For detailed usage information, run:
//
//	infrasmoke --help
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/infrasmoke/cmd/infrasmoke/commands"
	"github.com/imamik/infrasmoke/cmd/infrasmoke/handlers"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, handlers.ErrSmokeTestFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
