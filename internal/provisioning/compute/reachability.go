package compute

import (
	"context"
	"net/http"

	"github.com/imamik/infrasmoke/internal/platform/farm"
	"github.com/imamik/infrasmoke/internal/provisioning"
)

// VerifyReachability waits, per machine, until its probe payload answers 200
// or the boot readiness budget runs out. The first machine that never answers
// fails the step with an UnreachableMachineError.
func (p *Provisioner) VerifyReachability(ctx *provisioning.Context) error {
	probe := ctx.Config.Probe
	budget := ctx.Config.Timeouts.BootReadiness

	for _, m := range ctx.State.Machines {
		target := m.URL(probe.Port, probe.PayloadPath)
		_, err := ctx.Farm.CallWithRetry(ctx, func(c context.Context) (*farm.Response, error) {
			return ctx.Farm.HeadURL(c, target)
		}, http.StatusOK, budget)
		if err != nil {
			return &provisioning.UnreachableMachineError{Machine: m, From: p.host, Err: err}
		}
		ctx.Observer.Debugf("vm=%s ipv6 is reachable.", m.Name)
		ctx.Observer.Debugf("ssh %s@%s -i %s", ctx.Config.SSH.User, m.Address, ctx.State.PrivateKeyPath)
	}
	return nil
}
