// Package handlers implements the CLI command handlers.
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/infrasmoke/internal/config"
	"github.com/imamik/infrasmoke/internal/smoketest"
	"github.com/imamik/infrasmoke/internal/telemetry"
)

// ErrSmokeTestFailed is returned by Run when the smoke test itself failed.
// The failure has been logged and reported already.
var ErrSmokeTestFailed = errors.New("smoke test failed")

// RunOptions are the flags of the run command.
type RunOptions struct {
	ConfigPath      string
	KeepArtifacts   bool
	WithAlerts      bool
	OutputDir       string
	FarmURL         string
	ImageBuilder    string
	MetricsTextfile string
	Verbosity       int
}

// Runner runs one smoke test and returns its exit code.
type Runner interface {
	Run(ctx context.Context) int
}

// Factory function variables for run - can be replaced in tests.
var (
	// loadConfig loads the configuration from file and environment.
	loadConfig = config.Load

	// newOutput creates the console log output.
	newOutput = telemetry.NewConsoleOutput

	// newRunner creates the smoke test runner.
	newRunner = func(cfg *config.Config, out *telemetry.Output, logger logr.Logger) Runner {
		return smoketest.NewRunner(cfg, out, logger)
	}
)

// Run handles the run command.
//
// Flags override the configuration file. The configuration is validated
// before anything is created.
func Run(ctx context.Context, opts RunOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	opts.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out := newOutput()
	logger := telemetry.NewLogger(out, opts.Verbosity)

	if code := newRunner(cfg, out, logger).Run(ctx); code != 0 {
		return ErrSmokeTestFailed
	}
	return nil
}

func (o RunOptions) apply(cfg *config.Config) {
	if o.KeepArtifacts {
		cfg.Artifacts.Keep = true
	}
	if o.WithAlerts {
		cfg.Alerts.Enabled = true
	}
	if o.OutputDir != "" {
		cfg.Artifacts.OutputDir = o.OutputDir
	}
	if o.FarmURL != "" {
		cfg.Farm.BaseURL = o.FarmURL
	}
	if o.ImageBuilder != "" {
		cfg.Image.Builder = o.ImageBuilder
	}
	if o.MetricsTextfile != "" {
		cfg.Metrics.Textfile = o.MetricsTextfile
	}
}
