package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/infrasmoke/cmd/infrasmoke/handlers"
)

// Run returns the run command.
//
// Optional flags:
//
//	--config, -c: Path to a YAML configuration file
//	--keep-artifacts: Keep the artifacts directory after the run
//	--with-alerts: Deliver an alert when the run fails
//	--output-dir: Parent directory of the artifacts directory (default: $TMPDIR)
//	--farm-url: Farm API base URL
//	--image-builder: Config image builder executable
//	--metrics-textfile: Extra path for the Prometheus textfile
//	--verbosity, -v: Log verbosity (0 info, 1 debug)
func Run() *cobra.Command {
	var opts handlers.RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the infrastructure smoke test",
		Long: `Run leases a Farm group, boots one VM in every active datacenter and
verifies that every VM can download a file from every other VM.

The group is always deleted at the end of the run. A failure is written as an
alert file into the artifacts directory and, with --with-alerts, sent to Slack
(SLACK_WEBHOOK_URL) and/or NATS.

The command exits with status 1 when the test fails.

Examples:
  # Run with defaults, keeping logs and keys for debugging
  infrasmoke run --keep-artifacts

  # CI run with alerts
  SLACK_WEBHOOK_URL=https://hooks.slack.com/... infrasmoke run --with-alerts`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.KeepArtifacts, "keep-artifacts", false, "Keep log files, ssh keys and alert messages after the run")
	cmd.Flags().BoolVar(&opts.WithAlerts, "with-alerts", false, "Send alerts in case of test failure")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", "", "Artifacts output directory")
	cmd.Flags().StringVar(&opts.FarmURL, "farm-url", "", "Farm API base URL")
	cmd.Flags().StringVar(&opts.ImageBuilder, "image-builder", "", "Config image builder executable")
	cmd.Flags().StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "Additional path for the Prometheus metrics textfile")
	cmd.Flags().IntVarP(&opts.Verbosity, "verbosity", "v", 1, "Log verbosity (0 info, 1 debug)")

	return cmd
}
