// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the infrasmoke CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "infrasmoke",
		Short:         "Smoke test the Farm VM infrastructure",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Run())
	cmd.AddCommand(Alert())
	cmd.AddCommand(Version())

	return cmd
}
