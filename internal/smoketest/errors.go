package smoketest

import (
	"errors"
	"fmt"

	"github.com/imamik/infrasmoke/internal/connectivity"
	"github.com/imamik/infrasmoke/internal/platform/farm"
	"github.com/imamik/infrasmoke/internal/provisioning"
)

// Error kinds as shown in alerts.
const (
	KindFarmUnreachable    = "FarmUnreachableError"
	KindRetryExhausted     = "RetryBudgetExhausted"
	KindPlacement          = "PlacementError"
	KindUnreachableMachine = "UnreachableMachineError"
	KindPartition          = "NetworkingPartitionError"
	KindExternalTool       = "ExternalToolError"
	KindUnknown            = "Error"
)

// FarmUnreachableError means the health check against Farm failed.
type FarmUnreachableError struct {
	URL string
	Err error
}

func (e *FarmUnreachableError) Error() string {
	return fmt.Sprintf("HEAD request to %s failed, Farm is unreachable.", e.URL)
}

func (e *FarmUnreachableError) Unwrap() error {
	return e.Err
}

// Kind classifies err. The most specific kind wins: an unreachable machine
// is reported as such even though its cause is an exhausted retry budget.
func Kind(err error) string {
	var (
		farmErr      *FarmUnreachableError
		partitionErr *connectivity.PartitionError
		machineErr   *provisioning.UnreachableMachineError
		placementErr *provisioning.PlacementError
		toolErr      *provisioning.ExternalToolError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &farmErr):
		return KindFarmUnreachable
	case errors.As(err, &partitionErr):
		return KindPartition
	case errors.As(err, &machineErr):
		return KindUnreachableMachine
	case errors.As(err, &placementErr):
		return KindPlacement
	case errors.As(err, &toolErr):
		return KindExternalTool
	case farm.IsRetryExhausted(err):
		return KindRetryExhausted
	default:
		return KindUnknown
	}
}
