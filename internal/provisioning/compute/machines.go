package compute

import (
	"context"
	"fmt"

	"github.com/imamik/infrasmoke/internal/platform/farm"
	"github.com/imamik/infrasmoke/internal/provisioning"
	"github.com/imamik/infrasmoke/internal/util/naming"
)

// CreateMachines requests one machine per discovered zone and stores the fleet
// sorted by hostname. Placement is left to the group's allocation policy.
func (p *Provisioner) CreateMachines(ctx *provisioning.Context) error {
	vmCfg := ctx.Config.VM
	req := farm.CreateVMRequest{
		Type:         vmCfg.Type,
		VCPUs:        vmCfg.VCPUs,
		MemoryKiB:    vmCfg.MemoryKiB,
		PrimaryImage: farm.ImageViaURL(vmCfg.ImageURL, vmCfg.ImageSHA256),
		HasIPv4:      vmCfg.HasIPv4,
	}

	machines := make([]provisioning.Machine, 0, len(ctx.State.Zones))
	for i := range ctx.State.Zones {
		name := naming.VM(vmCfg.NamePrefix, i)
		provisioning.LogResourceCreating(ctx.Observer, phase, "vm", name)

		resp, err := ctx.Farm.RetryOK(ctx, func(c context.Context) (*farm.Response, error) {
			return ctx.Farm.CreateVM(c, ctx.State.Group, name, req)
		})
		if err != nil {
			provisioning.LogResourceFailed(ctx.Observer, phase, "vm", name, err)
			return fmt.Errorf("failed to create VM %s: %w", name, err)
		}
		vm, err := farm.ParseVM(resp)
		if err != nil {
			return fmt.Errorf("failed to create VM %s: %w", name, err)
		}

		m := provisioning.Machine{Name: name, Hostname: vm.Hostname, Address: vm.IPv6}
		machines = append(machines, m)
		provisioning.LogResourceCreated(ctx.Observer, phase, "vm", name, vm.Hostname)
		ctx.Observer.Debugf("VM name=%s, hostname=%s, ipv6=%s created successfully.", m.Name, m.Hostname, m.Address)
	}

	provisioning.SortByHostname(machines)
	ctx.State.Machines = machines
	ctx.Metrics.SetMachines(len(machines))
	ctx.Observer.Printf("All %d VMs created successfully.", len(machines))
	return nil
}

// VerifyPlacement fails with a PlacementError when a zone received no machine.
func (p *Provisioner) VerifyPlacement(ctx *provisioning.Context) error {
	if missing := provisioning.MissingZones(ctx.State.Machines, ctx.State.Zones); len(missing) > 0 {
		err := &provisioning.PlacementError{Missing: missing}
		ctx.Observer.Errorf("%v", err)
		return err
	}
	ctx.Observer.Printf("All %d DCs contain a VM.", len(ctx.State.Zones))
	return nil
}

// BootMachines mounts the config image on every machine and starts it, in order.
func (p *Provisioner) BootMachines(ctx *provisioning.Context) error {
	if ctx.State.ImageID == "" {
		return fmt.Errorf("config image not uploaded")
	}

	group := ctx.State.Group
	drives := []farm.ImageRef{farm.ImageViaID(ctx.State.ImageID)}
	for _, m := range ctx.State.Machines {
		obs := ctx.Observer.WithFields(map[string]string{"vm": m.Name})

		resp, err := ctx.Farm.RetryOK(ctx, func(c context.Context) (*farm.Response, error) {
			return ctx.Farm.MountUSBDrives(c, group, m.Name, drives)
		})
		if err != nil {
			return fmt.Errorf("failed to mount config image on %s: %w", m.Name, err)
		}
		obs.Debugf("Mount image response %d.", resp.StatusCode)

		resp, err = ctx.Farm.RetryOK(ctx, func(c context.Context) (*farm.Response, error) {
			return ctx.Farm.StartVM(c, group, m.Name)
		})
		if err != nil {
			return fmt.Errorf("failed to start %s: %w", m.Name, err)
		}
		obs.Debugf("Start VM response %d", resp.StatusCode)
		obs.Debugf("%s", ctx.Farm.ConsoleURL(group, m.Name))
	}

	ctx.Observer.Printf("All %d VMs were booted successfully.", len(ctx.State.Machines))
	return nil
}
