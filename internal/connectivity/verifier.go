package connectivity

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/infrasmoke/internal/config"
	"github.com/imamik/infrasmoke/internal/platform/ssh"
	"github.com/imamik/infrasmoke/internal/provisioning"
	"github.com/imamik/infrasmoke/internal/telemetry"
	"github.com/imamik/infrasmoke/internal/util/naming"
)

// PhaseName is the step name of the connectivity check.
const PhaseName = "generating inter-vms networking matrices"

// Session runs commands on one source machine.
type Session interface {
	Run(ctx context.Context, command string, timeout time.Duration) (*ssh.Result, error)
	Close() error
}

// Dialer opens a Session on a machine.
type Dialer interface {
	Dial(ctx context.Context, m provisioning.Machine) (Session, error)
}

// Options controls the probe command.
type Options struct {
	Port         int
	PayloadPath  string
	ManifestPath string
	// DownloadTimeout is the curl --max-time of each download.
	DownloadTimeout time.Duration
	// CommandTimeout bounds one remote command locally.
	CommandTimeout time.Duration
}

// OptionsFromConfig returns the probe options of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Port:            cfg.Probe.Port,
		PayloadPath:     cfg.Probe.PayloadPath,
		ManifestPath:    cfg.Probe.ManifestPath,
		DownloadTimeout: cfg.Timeouts.Download,
		CommandTimeout:  cfg.Timeouts.ProbeCommand,
	}
}

// ProbeCommand returns the shell command, run on a source machine, that
// downloads the payload and manifest served by dst and verifies the checksum.
func ProbeCommand(dst provisioning.Machine, opts Options) string {
	maxTime := curlSeconds(opts.DownloadTimeout)
	payload := path.Base(opts.PayloadPath)
	manifest := path.Base(opts.ManifestPath)
	return fmt.Sprintf(
		"curl --no-progress-meter --verbose --max-time %s %s -o %s --fail && "+
			"curl --no-progress-meter --verbose --max-time %s %s -o %s --fail && "+
			"sha256sum -c %s",
		maxTime, dst.URL(opts.Port, opts.PayloadPath), payload,
		maxTime, dst.URL(opts.Port, opts.ManifestPath), manifest,
		manifest,
	)
}

// curlSeconds formats d for curl's --max-time, which takes fractional seconds.
// Sub-second values must not round down to 0, which curl reads as no limit.
func curlSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// Verifier builds the connectivity matrix of a fleet.
type Verifier struct {
	dialer  Dialer
	opts    Options
	logger  logr.Logger
	metrics *telemetry.Metrics
}

// NewVerifier creates a Verifier. metrics may be nil.
func NewVerifier(dialer Dialer, opts Options, logger logr.Logger, metrics *telemetry.Metrics) *Verifier {
	return &Verifier{dialer: dialer, opts: opts, logger: logger, metrics: metrics}
}

// Verify probes every ordered pair of machines, self-pairs included, row by
// row. One session is opened per row and reused for its columns. A failed
// probe only fails its cell; a row whose session cannot be opened is all
// false. The only error returned is cancellation of ctx.
func (v *Verifier) Verify(ctx context.Context, machines []provisioning.Machine) (*Matrix, error) {
	n := len(machines)
	m := NewMatrix(n)

	for i, src := range machines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v.logger.V(1).Info(fmt.Sprintf("Running iteration %d of %d ...", i+1, n))

		session, err := v.dialer.Dial(ctx, src)
		if err != nil {
			v.logger.Error(err, fmt.Sprintf("Failure: could not open a session on %s (%s), all downloads from it are failed",
				src.Address, naming.Abbreviation(src.Hostname)))
			for range machines {
				v.metrics.RecordProbe(false)
			}
			continue
		}

		for j, dst := range machines {
			ok := v.probe(ctx, session, src, dst)
			m.Set(i, j, ok)
			v.metrics.RecordProbe(ok)
		}
		_ = session.Close()
	}
	return m, nil
}

func (v *Verifier) probe(ctx context.Context, session Session, src, dst provisioning.Machine) bool {
	res, err := session.Run(ctx, ProbeCommand(dst, v.opts), v.opts.CommandTimeout)
	if err == nil && res.ExitStatus == 0 {
		return true
	}

	code, stderr := -1, ""
	if res != nil {
		code, stderr = res.ExitStatus, res.Stderr
	}
	msg := fmt.Sprintf("Failure: curl from %s (%s) to %s (%s) (timeout %s) failed with code=%d, stderr=%s",
		src.Address, naming.Abbreviation(src.Hostname),
		dst.Address, naming.Abbreviation(dst.Hostname),
		curlSeconds(v.opts.DownloadTimeout), code, stderr)
	v.logger.Error(err, msg)
	return false
}

// Check verifies the fleet in ctx.State.Machines. The colored matrix is always
// logged at debug level; a partial matrix becomes a PartitionError.
func (v *Verifier) Check(ctx *provisioning.Context) error {
	machines := ctx.State.Machines
	m, err := v.Verify(ctx, machines)
	if err != nil {
		return err
	}

	ctx.Observer.Debugf("%s", Render(MatrixTitle, m, machines, true))
	if !m.AllTrue() {
		return &PartitionError{Matrix: Render(MatrixTitle, m, machines, false), Failures: m.Failures()}
	}
	ctx.Observer.Printf("All VMs can download files from each other.")
	return nil
}

// Phase returns the connectivity step. Sessions are SSH connections
// authenticated with the key generated earlier in the same run.
func Phase() provisioning.Phase {
	return PhaseWith(func(ctx *provisioning.Context) Dialer {
		return NewSSHDialer(SSHOptions{
			User:        ctx.Config.SSH.User,
			Port:        ctx.Config.SSH.Port,
			PrivateKey:  ctx.State.PrivateKey,
			DialTimeout: ctx.Config.Timeouts.SSHDial,
			StderrLimit: ctx.Config.Probe.StderrLimit,
		})
	})
}

// PhaseWith returns the connectivity step using the dialer built by newDialer.
func PhaseWith(newDialer func(ctx *provisioning.Context) Dialer) provisioning.Phase {
	return provisioning.NewPhase(PhaseName, func(ctx *provisioning.Context) error {
		v := NewVerifier(newDialer(ctx), OptionsFromConfig(ctx.Config), ctx.Observer.Logger(), ctx.Metrics)
		return v.Check(ctx)
	})
}
