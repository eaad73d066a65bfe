package provisioning

// Phase defines the interface for a provisioning step.
type Phase interface {
	// Name returns the human-readable name of this step.
	Name() string

	// Provision executes the step.
	Provision(ctx *Context) error
}

type phaseFunc struct {
	name string
	fn   func(ctx *Context) error
}

func (p *phaseFunc) Name() string                 { return p.name }
func (p *phaseFunc) Provision(ctx *Context) error { return p.fn(ctx) }

// NewPhase adapts a function into a Phase.
func NewPhase(name string, fn func(ctx *Context) error) Phase {
	return &phaseFunc{name: name, fn: fn}
}
