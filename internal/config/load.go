package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML file on top of the defaults.
// Keys missing from the file keep their default value.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	return cfg, nil
}

// Load builds the configuration from defaults, an optional file and the environment.
// An empty path skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		cfg, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides settings that come from the environment.
func (c *Config) ApplyEnv() {
	c.Timeouts = LoadTimeouts(c.Timeouts)
	c.Probe.StderrLimit = parseInt("INFRASMOKE_STDERR_LIMIT", c.Probe.StderrLimit)

	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		c.Alerts.SlackWebhookURL = v
	}
	if v := os.Getenv("CI_JOB_URL"); v != "" {
		c.CI.JobURL = v
	}
	if v := os.Getenv("CI_COMMIT_SHA"); v != "" {
		c.CI.CommitSHA = v
	}
	if c.Artifacts.OutputDir == "" {
		c.Artifacts.OutputDir = os.Getenv("TMPDIR")
	}
	if v := os.Getenv("INFRASMOKE_S3_ACCESS_KEY"); v != "" {
		c.Artifacts.S3.AccessKey = v
	}
	if v := os.Getenv("INFRASMOKE_S3_SECRET_KEY"); v != "" {
		c.Artifacts.S3.SecretKey = v
	}
}
