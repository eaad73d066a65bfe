package provisioning

import (
	"fmt"
	"strings"
)

// PlacementError means the allocated machines do not cover every zone.
// It is raised before any machine is booted.
type PlacementError struct {
	Missing []string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("VMs are not distributed among all DCs, no VMs were allocated to DCs: %s",
		strings.Join(e.Missing, ", "))
}

// UnreachableMachineError means a booted machine did not answer its readiness
// probe within the boot-readiness budget.
type UnreachableMachineError struct {
	Machine Machine
	From    string
	Err     error
}

func (e *UnreachableMachineError) Error() string {
	return fmt.Sprintf("VM name=%s, hostname=%s can't be reached from the host %s after booting: %v",
		e.Machine.Name, e.Machine.Hostname, e.From, e.Err)
}

func (e *UnreachableMachineError) Unwrap() error {
	return e.Err
}

// ExternalToolError means a local tool (image builder, key generation) failed.
// ExitCode is -1 when the tool did not run to completion.
type ExternalToolError struct {
	Tool     string
	ExitCode int
	Err      error
}

func (e *ExternalToolError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s failed with code=%d: %v", e.Tool, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}
