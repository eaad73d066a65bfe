package smoketest

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/infrasmoke/internal/artifacts"
	"github.com/imamik/infrasmoke/internal/config"
	"github.com/imamik/infrasmoke/internal/connectivity"
	"github.com/imamik/infrasmoke/internal/platform/farm"
	"github.com/imamik/infrasmoke/internal/platform/s3"
	"github.com/imamik/infrasmoke/internal/provisioning"
	"github.com/imamik/infrasmoke/internal/provisioning/fleet"
	"github.com/imamik/infrasmoke/internal/provisioning/image"
	"github.com/imamik/infrasmoke/internal/report"
	"github.com/imamik/infrasmoke/internal/telemetry"
)

// Files written into the artifacts scope besides the log and the alert.
const (
	MetricsFileName = "metrics.prom"
	TracesFileName  = "traces.json"
)

// Runner executes smoke test runs.
type Runner struct {
	cfg      *config.Config
	output   *telemetry.Output
	logger   logr.Logger
	observer provisioning.Observer
	metrics  *telemetry.Metrics

	farm      *farm.Client
	lease     *farm.LeaseManager
	fleet     *fleet.Provisioner
	verify    provisioning.Phase
	notifiers []report.Notifier
	uploader  artifacts.Uploader

	host  string
	runID string
	now   func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithFarmClient replaces the Farm client built from the configuration.
func WithFarmClient(c *farm.Client) Option {
	return func(r *Runner) { r.farm = c }
}

// WithNotifiers replaces the alert notifiers built from the configuration.
func WithNotifiers(n ...report.Notifier) Option {
	return func(r *Runner) { r.notifiers = n }
}

// WithUploader replaces the S3 uploader used to archive artifacts.
func WithUploader(u artifacts.Uploader) Option {
	return func(r *Runner) { r.uploader = u }
}

// WithDialer makes the connectivity check open sessions through newDialer.
func WithDialer(newDialer func(ctx *provisioning.Context) connectivity.Dialer) Option {
	return func(r *Runner) { r.verify = connectivity.PhaseWith(newDialer) }
}

// WithRunID sets the run id instead of a random one.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// NewRunner creates a Runner. output is the log fan-out the artifacts log file
// is attached to; logger must write to it.
func NewRunner(cfg *config.Config, output *telemetry.Output, logger logr.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		output:   output,
		logger:   logger,
		observer: provisioning.NewLogObserver(logger),
		metrics:  telemetry.NewMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	if r.host == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "localhost"
		}
		r.host = host
	}
	if r.farm == nil {
		r.farm = farm.NewClient(cfg.Farm.BaseURL,
			farm.WithHTTPClient(&http.Client{Timeout: cfg.Timeouts.HTTPRequest}),
			farm.WithMetrics(r.metrics),
			farm.WithLogger(logger),
			farm.WithRetry(cfg.Timeouts.RetryBudget, cfg.Timeouts.RetryDelay),
		)
	}
	if r.verify == nil {
		r.verify = connectivity.Phase()
	}
	if r.notifiers == nil {
		r.notifiers = Notifiers(cfg.Alerts, logger)
	}

	r.lease = farm.NewLeaseManager(r.farm, farm.LeaseConfig{
		Prefix:       cfg.Farm.GroupPrefix,
		TTL:          cfg.Farm.GroupTTL,
		VMAllocation: cfg.Farm.VMAllocation,
	}, logger)
	r.fleet = fleet.NewProvisioner(image.NewBuilder(cfg.Image.Builder, logger), r.host)
	return r
}

// Notifiers returns the notifiers configured in cfg.
func Notifiers(cfg config.AlertsConfig, logger logr.Logger) []report.Notifier {
	var n []report.Notifier
	if cfg.SlackWebhookURL != "" {
		n = append(n, report.NewSlackNotifier(cfg.SlackWebhookURL, nil, logger))
	}
	if cfg.NATS.Enabled() {
		n = append(n, report.NewNATSNotifier(cfg.NATS.URL, cfg.NATS.Subject, logger))
	}
	return n
}

// RunID returns the id of the runs executed by r.
func (r *Runner) RunID() string {
	return r.runID
}

// Metrics returns the run metrics.
func (r *Runner) Metrics() *telemetry.Metrics {
	return r.metrics
}

// Run executes one smoke test and returns the process exit code: 0 when the
// fleet was provisioned and fully connected, 1 otherwise.
func (r *Runner) Run(ctx context.Context) int {
	r.logWarnings()

	start := r.now()
	err := r.WithReport(ctx, r.execute)
	elapsed := r.now().Sub(start)

	if err != nil {
		r.logger.Error(nil, fmt.Sprintf("Smoke test failed after %v.", elapsed))
		return 1
	}
	r.logger.Info(fmt.Sprintf("Smoke test succeeded after %v.", elapsed))
	return 0
}

func (r *Runner) logWarnings() {
	if !r.cfg.Alerts.Enabled {
		r.observer.Warnf("Slack alerts are turned off. Use --with-alerts flag to send alerts.")
	}
	if !r.cfg.Artifacts.Keep {
		r.observer.Warnf("All test artifacts will be deleted after test execution. Use --keep-artifacts to keep them.")
	}
}

// WithReport runs body inside a fresh artifacts scope with the run log file
// attached. When body fails, the error is logged with its chain, written as
// an alert file into the scope and, if alerts are enabled, delivered. Metrics
// are written and the scope is closed on every path.
func (r *Runner) WithReport(ctx context.Context, body func(ctx context.Context, scope *artifacts.Scope) error) error {
	scope, err := artifacts.Open(r.cfg.Artifacts, r.logger)
	if err != nil {
		r.logger.Error(err, "Could not create test artifacts directory")
		return err
	}
	defer scope.Close()

	if _, err := scope.AttachLog(r.output, r.now()); err != nil {
		r.logger.Error(err, "Could not attach log file")
	}
	r.logger.Info("Starting smoke test", "runID", r.runID, "farm", r.cfg.Farm.BaseURL)

	start := r.now()
	runErr := body(ctx, scope)
	if runErr != nil {
		r.logger.Error(runErr, fmt.Sprintf("Smoke test run failed with %s", Kind(runErr)))
		r.reportFailure(ctx, scope, runErr)
	}

	r.metrics.RecordRun(runErr == nil, r.now().Sub(start), r.now())
	r.writeMetrics(scope)
	r.archive(ctx, scope)
	return runErr
}

func (r *Runner) reportFailure(ctx context.Context, scope *artifacts.Scope, runErr error) {
	alert := report.Alert{
		Channels: r.cfg.Alerts.Channels,
		Message: report.FormatMessage(Kind(runErr), runErr, report.Links{
			JobURL:    r.cfg.CI.JobURL,
			SourceURL: r.cfg.CI.SourceURL,
			CommitSHA: r.cfg.CI.CommitSHA,
		}),
		RunID: r.runID,
	}

	alertPath := scope.Path(r.cfg.Alerts.FileName)
	if err := report.WriteAlert(alertPath, alert); err != nil {
		r.logger.Error(err, "Could not save alert")
	} else {
		r.logger.V(1).Info(fmt.Sprintf("Alert saved to %s", alertPath))
	}

	if !r.cfg.Alerts.Enabled {
		return
	}
	// Alerts are still sent when the run was interrupted.
	if err := report.Deliver(context.WithoutCancel(ctx), alert, r.notifiers...); err != nil {
		r.logger.Error(err, "Could not deliver all alerts")
	}
}

func (r *Runner) writeMetrics(scope *artifacts.Scope) {
	paths := []string{scope.Path(MetricsFileName)}
	if r.cfg.Metrics.Textfile != "" {
		paths = append(paths, r.cfg.Metrics.Textfile)
	}
	for _, p := range paths {
		if err := r.metrics.WriteTextfile(p); err != nil {
			r.logger.Error(err, "Could not write metrics", "path", p)
		}
	}
}

func (r *Runner) archive(ctx context.Context, scope *artifacts.Scope) {
	s3cfg := r.cfg.Artifacts.S3
	if !s3cfg.Enabled() {
		return
	}
	ctx = context.WithoutCancel(ctx)

	if r.uploader == nil {
		client, err := s3.NewClient(ctx, s3cfg.Endpoint, s3cfg.Region, s3cfg.AccessKey, s3cfg.SecretKey)
		if err != nil {
			r.logger.Error(err, "Could not create S3 client")
			return
		}
		if err := client.EnsureBucket(ctx, s3cfg.Bucket); err != nil {
			r.logger.Error(err, "Could not prepare S3 bucket")
			return
		}
		r.uploader = client
	}

	if err := scope.Archive(ctx, r.uploader, s3cfg.Bucket, path.Join(s3cfg.Prefix, r.runID)); err != nil {
		r.logger.Error(err, "Could not archive test artifacts")
	}
}
