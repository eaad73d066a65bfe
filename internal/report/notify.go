package report

import (
	"context"
	"errors"
)

// Notifier delivers an alert to one destination.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Deliver sends a through every notifier. All notifiers are tried; their
// errors are joined.
func Deliver(ctx context.Context, a Alert, notifiers ...Notifier) error {
	var errs []error
	for _, n := range notifiers {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
