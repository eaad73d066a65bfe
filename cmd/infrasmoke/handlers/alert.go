package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/infrasmoke/internal/report"
	"github.com/imamik/infrasmoke/internal/smoketest"
	"github.com/imamik/infrasmoke/internal/telemetry"
)

// Alert handles the alert command: it sends the alert stored in file to every
// destination configured through configPath and the environment.
func Alert(ctx context.Context, configPath, file string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	a, err := report.ReadAlert(file)
	if err != nil {
		return err
	}

	logger := telemetry.NewLogger(newOutput(), 1)
	notifiers := smoketest.Notifiers(cfg.Alerts, logger)
	if len(notifiers) == 0 {
		return errors.New("no slack webhook url defined (SLACK_WEBHOOK_URL) and no NATS url configured, alerts can't be sent")
	}

	if err := report.Deliver(ctx, a, notifiers...); err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	logger.Info(fmt.Sprintf("Alert %s sent.", file))
	return nil
}
