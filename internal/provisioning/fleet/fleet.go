// Package fleet composes the image and compute steps into the ordered
// provisioning pipeline of a smoke test run.
package fleet

import (
	"github.com/imamik/infrasmoke/internal/provisioning"
	"github.com/imamik/infrasmoke/internal/provisioning/compute"
	"github.com/imamik/infrasmoke/internal/provisioning/image"
)

const stage = "fleet"

// Provisioner brings up one booted, reachable machine per zone.
type Provisioner struct {
	image   *image.Provisioner
	compute *compute.Provisioner
}

// NewProvisioner creates a fleet provisioner that builds images with builder
// and reports reachability as seen from host.
func NewProvisioner(builder *image.Builder, host string) *Provisioner {
	return &Provisioner{
		image:   image.NewProvisioner(builder),
		compute: compute.NewProvisioner(host),
	}
}

// Phases returns the provisioning steps in execution order.
func (p *Provisioner) Phases(groupPrefix string) []provisioning.Phase {
	return []provisioning.Phase{
		p.image.CredentialsPhase(),
		p.image.BuildPhase(),
		p.compute.ZonesPhase(),
		p.image.UploadPhase(),
		p.compute.GroupsPhase(groupPrefix),
		p.compute.CreatePhase(),
		p.compute.PlacementPhase(),
		p.compute.BootPhase(),
		p.compute.ReachabilityPhase(),
	}
}

// Provision runs all steps and stops at the first failure.
// On success ctx.State.Machines holds the booted fleet sorted by hostname.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	return provisioning.RunPhases(ctx, stage, p.Phases(ctx.Config.Farm.GroupPrefix))
}
