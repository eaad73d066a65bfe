package compute

import (
	"fmt"

	"github.com/imamik/infrasmoke/internal/provisioning"
)

const phase = "compute"

// Provisioner handles machine provisioning in a Farm group.
type Provisioner struct {
	// host is the name of the machine running the smoke test.
	host string
}

// NewProvisioner creates a new compute provisioner running on host.
func NewProvisioner(host string) *Provisioner {
	return &Provisioner{host: host}
}

// ZonesPhase returns the step that discovers active zones.
func (p *Provisioner) ZonesPhase() provisioning.Phase {
	return provisioning.NewPhase("getting active data centers from Farm", p.DiscoverZones)
}

// GroupsPhase returns the step that lists live groups sharing the run's prefix.
func (p *Provisioner) GroupsPhase(prefix string) provisioning.Phase {
	return provisioning.NewPhase(
		fmt.Sprintf("checking existing groups in Farm with %s prefix", prefix),
		p.SurveyGroups,
	)
}

// CreatePhase returns the step that creates one machine per zone.
func (p *Provisioner) CreatePhase() provisioning.Phase {
	return provisioning.NewPhase("creating VMs in Farm", p.CreateMachines)
}

// PlacementPhase returns the step that checks every zone received a machine.
func (p *Provisioner) PlacementPhase() provisioning.Phase {
	return provisioning.NewPhase("verifying VMs across DCs distribution", p.VerifyPlacement)
}

// BootPhase returns the step that boots all machines.
func (p *Provisioner) BootPhase() provisioning.Phase {
	return provisioning.NewPhase("booting all VMs", p.BootMachines)
}

// ReachabilityPhase returns the step that waits for every machine to serve its payload.
func (p *Provisioner) ReachabilityPhase() provisioning.Phase {
	return provisioning.NewPhase(fmt.Sprintf("verifying %s can reach all VMs", p.host), p.VerifyReachability)
}
