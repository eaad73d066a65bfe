// Package artifacts manages the per-run artifacts directory: the log file,
// SSH keys, the config image, the alert file, metrics and traces of a run.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/infrasmoke/internal/config"
	"github.com/imamik/infrasmoke/internal/telemetry"
	"github.com/imamik/infrasmoke/internal/util/naming"
)

// Uploader copies a local directory to object storage.
type Uploader interface {
	UploadDirectory(ctx context.Context, bucket, prefix, dir string) (int, error)
}

// Scope is a uniquely named temporary directory that lives for one run.
// Close removes it unless the scope was opened with Keep.
type Scope struct {
	Dir string

	keep    bool
	logger  logr.Logger
	logFile *os.File
	detach  func()
}

// Open creates a new directory under cfg.OutputDir, or under the system
// temporary directory when OutputDir is empty.
func Open(cfg config.ArtifactsConfig, logger logr.Logger) (*Scope, error) {
	parent := cfg.OutputDir
	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", parent, err)
	}

	dir, err := os.MkdirTemp(parent, cfg.Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	logger.V(1).Info(fmt.Sprintf("Test output artifacts will be stored in %s", dir))
	return &Scope{Dir: dir, keep: cfg.Keep, logger: logger}, nil
}

// Path returns the path of name inside the scope.
func (s *Scope) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// AttachLog creates the run log file for day in the scope and mirrors out to it
// until Close.
func (s *Scope) AttachLog(out *telemetry.Output, day time.Time) (string, error) {
	p := s.Path(naming.LogFile(day))
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path is inside the scope
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	s.logFile = f
	s.detach = out.Attach(f)
	return p, nil
}

// Archive uploads the scope directory to bucket under prefix.
func (s *Scope) Archive(ctx context.Context, up Uploader, bucket, prefix string) error {
	n, err := up.UploadDirectory(ctx, bucket, prefix, s.Dir)
	if err != nil {
		return fmt.Errorf("failed to archive artifacts to s3://%s/%s: %w", bucket, prefix, err)
	}
	s.logger.Info(fmt.Sprintf("Archived %d artifacts to s3://%s/%s.", n, bucket, prefix))
	return nil
}

// Close detaches the log file and removes the directory unless it is kept.
// Failures are logged only.
func (s *Scope) Close() {
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
		s.logFile = nil
	}

	if s.keep {
		s.logger.Info(fmt.Sprintf("Test artifacts are saved in %s.", s.Dir))
		return
	}
	if err := os.RemoveAll(s.Dir); err != nil {
		s.logger.Error(err, fmt.Sprintf("Could not delete test artifacts %s.", s.Dir))
		return
	}
	s.logger.V(1).Info(fmt.Sprintf("Successfully deleted test artifacts %s.", s.Dir))
}
