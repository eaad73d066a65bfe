package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	RetryBudget   time.Duration `yaml:"retryBudget"`   // Wall-clock budget of a retried Farm call
	RetryDelay    time.Duration `yaml:"retryDelay"`    // Fixed delay between two attempts
	HTTPRequest   time.Duration `yaml:"httpRequest"`   // Timeout of a single HTTP round-trip
	BootReadiness time.Duration `yaml:"bootReadiness"` // Budget for a booted VM to serve its payload
	Download      time.Duration `yaml:"download"`      // curl --max-time of each inter-VM download
	ProbeCommand  time.Duration `yaml:"probeCommand"`  // Local bound of one remote probe command
	SSHDial       time.Duration `yaml:"sshDial"`       // SSH connection timeout
}

// DefaultTimeouts returns the built-in timeouts.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		RetryBudget:   60 * time.Second,
		RetryDelay:    10 * time.Second,
		HTTPRequest:   30 * time.Second,
		BootReadiness: 150 * time.Second,
		Download:      15 * time.Second,
		ProbeCommand:  60 * time.Second,
		SSHDial:       10 * time.Second,
	}
}

// LoadTimeouts overrides t from environment variables.
// If an environment variable is not set or invalid, the current value is kept.
//
// Environment Variables:
//   - INFRASMOKE_RETRY_TIMEOUT
//   - INFRASMOKE_RETRY_DELAY
//   - INFRASMOKE_HTTP_TIMEOUT
//   - INFRASMOKE_BOOT_TIMEOUT
//   - INFRASMOKE_DOWNLOAD_TIMEOUT
//   - INFRASMOKE_PROBE_TIMEOUT
//   - INFRASMOKE_SSH_DIAL_TIMEOUT
func LoadTimeouts(t Timeouts) Timeouts {
	return Timeouts{
		RetryBudget:   parseDuration("INFRASMOKE_RETRY_TIMEOUT", t.RetryBudget),
		RetryDelay:    parseDuration("INFRASMOKE_RETRY_DELAY", t.RetryDelay),
		HTTPRequest:   parseDuration("INFRASMOKE_HTTP_TIMEOUT", t.HTTPRequest),
		BootReadiness: parseDuration("INFRASMOKE_BOOT_TIMEOUT", t.BootReadiness),
		Download:      parseDuration("INFRASMOKE_DOWNLOAD_TIMEOUT", t.Download),
		ProbeCommand:  parseDuration("INFRASMOKE_PROBE_TIMEOUT", t.ProbeCommand),
		SSHDial:       parseDuration("INFRASMOKE_SSH_DIAL_TIMEOUT", t.SSHDial),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
