package provisioning

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RunPhase executes a single numbered step inside its own span.
// The step number is taken from the shared State so numbering continues
// across separate RunPhase and RunPhases calls of one run.
func RunPhase(ctx *Context, phase Phase) error {
	idx := ctx.State.nextStep()
	name := phase.Name()

	spanCtx, span := ctx.Tracer.Start(ctx.Context, name)
	span.SetAttributes(attribute.Int("step", idx))
	defer span.End()

	ctx.Observer.Printf("Step %d: %s", idx, name)
	start := time.Now()

	err := phase.Provision(ctx.withContext(spanCtx))

	elapsed := time.Since(start)
	ctx.Metrics.RecordStep(name, err, elapsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		LogPhaseFailed(ctx.Observer, name, err)
		ctx.Observer.Printf("Finished Step %d erroneously in %v.", idx, elapsed.Round(time.Millisecond))
		return err
	}

	span.SetStatus(codes.Ok, "")
	ctx.Observer.Printf("Finished Step %d successfully in %v.", idx, elapsed.Round(time.Millisecond))
	return nil
}

// RunPhases executes all provisioning phases sequentially and stops at the first failure.
func RunPhases(ctx *Context, stage string, phases []Phase) error {
	start := time.Now()
	LogPhaseStart(ctx.Observer, stage)
	ctx.Observer.Debugf("%s has %d steps", stage, len(phases))

	for _, phase := range phases {
		if err := RunPhase(ctx, phase); err != nil {
			return fmt.Errorf("%s failed at %q: %w", stage, phase.Name(), err)
		}
	}

	LogPhaseComplete(ctx.Observer, stage, time.Since(start))
	return nil
}
