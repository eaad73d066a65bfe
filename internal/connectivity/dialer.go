package connectivity

import (
	"context"
	"time"

	"github.com/imamik/infrasmoke/internal/platform/ssh"
	"github.com/imamik/infrasmoke/internal/provisioning"
)

// SSHOptions configures SSHDialer.
type SSHOptions struct {
	User        string
	Port        int
	PrivateKey  []byte
	DialTimeout time.Duration
	StderrLimit int
}

// SSHDialer opens SSH connections to machines. Each connection is dialed once,
// without retries.
type SSHDialer struct {
	opts SSHOptions
}

// NewSSHDialer creates an SSHDialer.
func NewSSHDialer(opts SSHOptions) *SSHDialer {
	return &SSHDialer{opts: opts}
}

// Dial implements Dialer.
func (d *SSHDialer) Dial(ctx context.Context, m provisioning.Machine) (Session, error) {
	client, err := ssh.NewClient(&ssh.Config{
		Host:        m.Address,
		Port:        d.opts.Port,
		User:        d.opts.User,
		PrivateKey:  d.opts.PrivateKey,
		DialTimeout: d.opts.DialTimeout,
		StderrLimit: d.opts.StderrLimit,
	})
	if err != nil {
		return nil, err
	}
	conn, err := client.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
