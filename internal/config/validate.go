package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the configuration for common errors and returns a detailed error if validation fails.
func (c *Config) Validate() error {
	if c.Farm.BaseURL == "" {
		return fmt.Errorf("farm.baseURL is required")
	}
	u, err := url.Parse(c.Farm.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("farm.baseURL %q is not an absolute URL", c.Farm.BaseURL)
	}
	if c.Farm.GroupPrefix == "" {
		return fmt.Errorf("farm.groupPrefix is required")
	}
	if c.Farm.GroupTTL <= 0 {
		return fmt.Errorf("farm.groupTTL must be positive")
	}
	if c.Image.Builder == "" {
		return fmt.Errorf("image.builder is required")
	}
	if c.SSH.User == "" {
		return fmt.Errorf("ssh.user is required")
	}

	if err := c.validateTimeouts(); err != nil {
		return fmt.Errorf("timeout validation failed: %w", err)
	}

	if err := c.validateAlerts(); err != nil {
		return fmt.Errorf("alert validation failed: %w", err)
	}

	return nil
}

func (c *Config) validateTimeouts() error {
	t := c.Timeouts
	checks := []struct {
		name  string
		value int64
	}{
		{"retryBudget", int64(t.RetryBudget)},
		{"retryDelay", int64(t.RetryDelay)},
		{"httpRequest", int64(t.HTTPRequest)},
		{"bootReadiness", int64(t.BootReadiness)},
		{"download", int64(t.Download)},
		{"probeCommand", int64(t.ProbeCommand)},
		{"sshDial", int64(t.SSHDial)},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%s must be positive", check.name)
		}
	}
	if t.ProbeCommand < t.Download {
		return errors.New("probeCommand must not be shorter than download")
	}
	return nil
}

func (c *Config) validateAlerts() error {
	if c.Alerts.FileName == "" {
		return errors.New("alerts.fileName is required")
	}
	if !c.Alerts.Enabled {
		return nil
	}
	if c.Alerts.SlackWebhookURL == "" && !c.Alerts.NATS.Enabled() {
		return errors.New("no slack webhook url defined (SLACK_WEBHOOK_URL) and no NATS url configured, alerts can't be sent")
	}
	if c.Alerts.SlackWebhookURL != "" && len(c.Alerts.Channels) == 0 {
		return errors.New("alerts.channels must not be empty")
	}
	return nil
}
