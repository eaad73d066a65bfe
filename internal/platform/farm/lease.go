package farm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/infrasmoke/internal/util/naming"
)

const deleteTimeout = 30 * time.Second

// LeaseConfig describes the group created for a run.
type LeaseConfig struct {
	Prefix       string
	TTL          time.Duration
	VMAllocation string
}

// LeaseManager creates a uniquely named Farm group and guarantees its deletion.
type LeaseManager struct {
	client *Client
	cfg    LeaseConfig
	logger logr.Logger
	host   string
	now    func() time.Time
}

// NewLeaseManager creates a lease manager. Group names embed the local host name
// and the creation time so concurrent runs on different hosts do not collide.
func NewLeaseManager(client *Client, cfg LeaseConfig, logger logr.Logger) *LeaseManager {
	host, err := os.Hostname()
	if err != nil {
		host = ""
	}
	return &LeaseManager{
		client: client,
		cfg:    cfg,
		logger: logger,
		host:   host,
		now:    time.Now,
	}
}

// WithLease creates the group, runs fn with its name, and always attempts to
// delete the group exactly once afterwards. A deletion failure is logged and
// never returned, so it cannot mask the result of fn. If the group cannot be
// created, fn is not called and nothing is deleted.
func (m *LeaseManager) WithLease(ctx context.Context, fn func(ctx context.Context, group string) error) error {
	name := naming.Group(m.cfg.Prefix, m.host, m.now())
	req := CreateGroupRequest{
		Spec: GroupSpec{VMAllocation: m.cfg.VMAllocation},
		TTL:  int64(m.cfg.TTL / time.Second),
	}

	if _, err := m.client.RetryOK(ctx, func(ctx context.Context) (*Response, error) {
		return m.client.CreateGroup(ctx, name, req)
	}); err != nil {
		return fmt.Errorf("failed to create group %s: %w", name, err)
	}
	m.logger.Info("Created Farm group", "group", name, "ttl", m.cfg.TTL)

	defer m.release(ctx, name)

	return fn(ctx, name)
}

func (m *LeaseManager) release(ctx context.Context, name string) {
	m.logger.V(1).Info(fmt.Sprintf("Deleting group_name=%s from Farm.", name))

	// Deletion must run even when the run itself was cancelled.
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()

	resp, err := m.client.DeleteGroup(delCtx, name)
	if err != nil {
		m.logger.Error(err, "Failed to delete group", "group", name)
		return
	}
	m.logger.V(1).Info(fmt.Sprintf("Group %s deletion status %d.", name, resp.StatusCode))
}
