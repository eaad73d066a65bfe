package compute

import (
	"fmt"
	"strings"

	"github.com/imamik/infrasmoke/internal/platform/farm"
	"github.com/imamik/infrasmoke/internal/provisioning"
)

// DiscoverZones fetches the active datacenters and stores them sorted in the state.
func (p *Provisioner) DiscoverZones(ctx *provisioning.Context) error {
	resp, err := ctx.Farm.RetryOK(ctx, ctx.Farm.GetDataCenters)
	if err != nil {
		return fmt.Errorf("failed to get data centers: %w", err)
	}

	zones, err := farm.ParseDataCenters(resp)
	if err != nil {
		return err
	}
	if len(zones) == 0 {
		return fmt.Errorf("farm reports no active data centers")
	}

	ctx.State.Zones = zones
	ctx.Observer.Printf("Found active data centers: %s.", strings.Join(zones, ", "))
	return nil
}

// SurveyGroups logs the run's own group and the other live groups sharing its prefix.
// Nothing is modified.
func (p *Provisioner) SurveyGroups(ctx *provisioning.Context) error {
	resp, err := ctx.Farm.RetryOK(ctx, ctx.Farm.GetGroups)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	groups, err := farm.ParseGroups(resp)
	if err != nil {
		return err
	}

	prefix := ctx.Config.Farm.GroupPrefix
	for _, g := range groups {
		switch {
		case g.Name == ctx.State.Group:
			ctx.Observer.Debugf("Newly created group: %s expires_at: %s", g.Name, g.ExpiresAt)
		case strings.Contains(g.Name, prefix):
			ctx.Observer.Debugf("Existing %s groups: %s expires_at: %s", prefix, g.Name, g.ExpiresAt)
		}
	}
	return nil
}
