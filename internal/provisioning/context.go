package provisioning

import (
	"context"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/trace"

	"github.com/imamik/infrasmoke/internal/config"
	"github.com/imamik/infrasmoke/internal/platform/farm"
	"github.com/imamik/infrasmoke/internal/telemetry"
)

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config   *config.Config
	State    *State
	Farm     *farm.Client
	Observer Observer
	Tracer   trace.Tracer
	Metrics  *telemetry.Metrics
}

// NewContext creates a new provisioning context.
// Logging goes to logger; tracing is disabled until a tracer is set.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	state *State,
	farmClient *farm.Client,
	logger logr.Logger,
) *Context {
	return &Context{
		Context:  ctx,
		Config:   cfg,
		State:    state,
		Farm:     farmClient,
		Observer: NewLogObserver(logger),
		Tracer:   telemetry.NoopTracer(),
	}
}

// withContext returns a shallow copy bound to ctx. State is shared.
func (c *Context) withContext(ctx context.Context) *Context {
	child := *c
	child.Context = ctx
	return &child
}
