package smoketest

import (
	"context"
	"fmt"
	"os"

	"github.com/imamik/infrasmoke/internal/artifacts"
	"github.com/imamik/infrasmoke/internal/provisioning"
	"github.com/imamik/infrasmoke/internal/telemetry"
	"github.com/imamik/infrasmoke/internal/util/prerequisites"
)

// execute is the body of a run: preflight, health check, then provisioning
// and verification under a lease.
func (r *Runner) execute(ctx context.Context, scope *artifacts.Scope) error {
	if err := r.preflight(); err != nil {
		return err
	}

	traceFile, err := os.Create(scope.Path(TracesFileName))
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	defer func() { _ = traceFile.Close() }()

	tracing, err := telemetry.NewTracing(traceFile, r.runID)
	if err != nil {
		return err
	}
	defer func() { _ = tracing.Shutdown(context.WithoutCancel(ctx)) }()

	state := provisioning.NewState(r.runID, scope.Dir)
	pctx := provisioning.NewContext(ctx, r.cfg, state, r.farm, r.logger)
	pctx.Tracer = tracing.Tracer()
	pctx.Metrics = r.metrics

	if err := provisioning.RunPhase(pctx, r.healthPhase()); err != nil {
		return err
	}

	return r.lease.WithLease(ctx, func(ctx context.Context, group string) error {
		state.Group = group
		pctx.Context = ctx
		if err := r.fleet.Provision(pctx); err != nil {
			return err
		}
		return provisioning.RunPhase(pctx, r.verify)
	})
}

func (r *Runner) preflight() error {
	results := prerequisites.CheckRun(r.cfg.Image.Builder)
	for _, res := range results.Results {
		if res.Found {
			r.logger.V(1).Info(fmt.Sprintf("Found %s at %s %s", res.Tool.Name, res.Path, res.Version))
		}
	}
	for _, tool := range results.Missing {
		if !tool.Required {
			r.logger.V(1).Info(fmt.Sprintf("Optional tool %s not found: %s", tool.Name, tool.Description))
		}
	}
	if results.HasErrors() {
		return &provisioning.ExternalToolError{Tool: r.cfg.Image.Builder, ExitCode: -1, Err: results.Error()}
	}
	return nil
}

func (r *Runner) healthPhase() provisioning.Phase {
	target := r.farm.BaseURL() + "/dc"
	return provisioning.NewPhase("Execute Farm health check request: HEAD "+target, func(ctx *provisioning.Context) error {
		if _, err := ctx.Farm.RetryOK(ctx, ctx.Farm.HeadDataCenters); err != nil {
			return &FarmUnreachableError{URL: target, Err: err}
		}
		return nil
	})
}
