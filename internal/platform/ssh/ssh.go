package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	defaultPort           = 22
	defaultDialTimeout    = 10 * time.Second
	defaultCommandTimeout = 60 * time.Second
	defaultStderrLimit    = 1024 * 1024
)

// ErrCommandTimeout is returned by Run when a command exceeds its timeout.
var ErrCommandTimeout = errors.New("command timed out")

// Config holds SSH client configuration.
type Config struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// DialTimeout is the timeout for establishing the TCP connection.
	// If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// StderrLimit bounds the stderr captured per command, in bytes.
	// If zero, defaultStderrLimit is used.
	StderrLimit int

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used (suitable for ephemeral infrastructure).
	HostKeyCallback ssh.HostKeyCallback
}

// Client opens SSH connections to a single remote host.
// It parses the private key once during construction.
type Client struct {
	config *Config
	signer ssh.Signer
}

// NewClient creates a new SSH client and validates the private key.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	// Validate required fields
	if cfg.Host == "" {
		return nil, fmt.Errorf("config host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	// Copy config to avoid mutating caller's struct
	configCopy := *cfg

	// Apply defaults to copy
	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.StderrLimit == 0 {
		configCopy.StderrLimit = defaultStderrLimit
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // Default for ephemeral infrastructure
	}

	// Parse private key once during construction
	signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Client{
		config: &configCopy,
		signer: signer,
	}, nil
}

// Addr returns the host:port the client dials. IPv6 hosts are bracketed.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))
}

// Connect dials the host once and returns a connection that can run many
// commands. The caller must Close it.
func (c *Client) Connect(ctx context.Context) (*Conn, error) {
	config := &ssh.ClientConfig{
		User: c.config.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(c.signer),
		},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}

	addr := c.Addr()
	client, err := dial(ctx, addr, config)
	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s: %w", addr, err)
	}

	return &Conn{client: client, host: c.config.Host, stderrLimit: c.config.StderrLimit}, nil
}

// dial is ssh.Dial with the TCP connect bound to ctx.
func dial(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: config.Timeout}
	netConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if config.Timeout > 0 {
		_ = netConn.SetDeadline(time.Now().Add(config.Timeout))
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, config)
	if err != nil {
		_ = netConn.Close()
		return nil, err
	}
	_ = netConn.SetDeadline(time.Time{})
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// Result is the outcome of one remote command.
type Result struct {
	ExitStatus int
	Stdout     string
	// Stderr holds at most the configured stderr limit.
	Stderr string
}

// Conn is an established SSH connection. Each Run opens a new session on it.
type Conn struct {
	client      *ssh.Client
	host        string
	stderrLimit int
}

// Run executes command in a new session and waits for it, at most timeout.
// A non-zero exit status is reported in the Result, not as an error.
// On timeout the session is closed, the connection stays usable, and
// ErrCommandTimeout is returned together with whatever output was captured.
func (c *Conn) Run(ctx context.Context, command string, timeout time.Duration) (*Result, error) {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}

	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH session on %s: %w", c.host, err)
	}
	defer func() { _ = session.Close() }()

	stdout := &limitedBuffer{limit: c.stderrLimit}
	stderr := &limitedBuffer{limit: c.stderrLimit}
	session.Stdout = stdout
	session.Stderr = stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return &Result{ExitStatus: -1, Stdout: stdout.String(), Stderr: stderr.String()},
			fmt.Errorf("command on %s interrupted: %w", c.host, ctx.Err())
	case <-timer.C:
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return &Result{ExitStatus: -1, Stdout: stdout.String(), Stderr: stderr.String()},
			fmt.Errorf("%w on %s after %v", ErrCommandTimeout, c.host, timeout)
	case err = <-done:
	}

	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			res.ExitStatus = -1
			return res, fmt.Errorf("command failed on %s: %w", c.host, err)
		}
		res.ExitStatus = exitErr.ExitStatus()
	}
	return res, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.client.Close()
}

// limitedBuffer keeps the first limit bytes written and discards the rest.
// Writes never fail so the remote side is never blocked by a full buffer.
type limitedBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - len(b.buf); room > 0 {
		if len(p) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
