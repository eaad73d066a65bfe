package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infrasmoke/cmd/infrasmoke/handlers"
)

// Alert returns the command that sends a previously written alert file.
func Alert() *cobra.Command {
	var configPath, file string

	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Send an alert file written by a failed run",
		Long: `Alert delivers an alert file written by a failed run to the configured
destinations: the Slack webhook in SLACK_WEBHOOK_URL and/or the NATS subject
from the configuration file.

Example:
  infrasmoke alert --file /tmp/smoke_test_artifacts_x1y2/slack_alerts.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Alert(cmd.Context(), configPath, file)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Alert file to send (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
