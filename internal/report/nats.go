package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/nats-io/nats.go"
)

const natsClientName = "infrasmoke"

// NATSNotifier publishes alerts as JSON to a NATS subject. A connection is
// opened per alert and drained afterwards.
type NATSNotifier struct {
	url     string
	subject string
	timeout time.Duration
	logger  logr.Logger
}

// NewNATSNotifier creates a NATSNotifier.
func NewNATSNotifier(url, subject string, logger logr.Logger) *NATSNotifier {
	return &NATSNotifier{url: url, subject: subject, timeout: 10 * time.Second, logger: logger}
}

// Notify implements Notifier.
func (n *NATSNotifier) Notify(ctx context.Context, a Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}

	timeout := n.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	nc, err := nats.Connect(n.url,
		nats.Name(natsClientName),
		nats.Timeout(timeout),
		nats.NoReconnect(),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to nats %s: %w", n.url, err)
	}
	defer nc.Close()

	if err := nc.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("failed to publish alert to %s: %w", n.subject, err)
	}
	if err := nc.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("failed to flush alert to %s: %w", n.subject, err)
	}
	if err := nc.Drain(); err != nil {
		n.logger.V(1).Info(fmt.Sprintf("nats drain: %v", err))
	}

	n.logger.V(1).Info(fmt.Sprintf("Published alert to nats subject=%s.", n.subject))
	return nil
}
