package connectivity

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/infrasmoke/internal/config"
	"github.com/imamik/infrasmoke/internal/platform/ssh"
	"github.com/imamik/infrasmoke/internal/provisioning"
	"github.com/imamik/infrasmoke/internal/telemetry"
	"github.com/imamik/infrasmoke/internal/util/keygen"
)

var fleet = []provisioning.Machine{
	{Name: "universal-vm-0", Hostname: "aaa-1.zh1.farm", Address: "2001:db8::1"},
	{Name: "universal-vm-1", Hostname: "bbb-2.fr1.farm", Address: "2001:db8::2"},
	{Name: "universal-vm-2", Hostname: "ccc-3.sf1.farm", Address: "2001:db8::3"},
}

// fakeDialer answers probes through result, keyed by source and target address.
type fakeDialer struct {
	mu       sync.Mutex
	result   func(src, dst string) (*ssh.Result, error)
	dialErr  map[string]error
	dialed   []string
	closed   int
	commands int
}

type fakeSession struct {
	d   *fakeDialer
	src string
}

func (d *fakeDialer) Dial(_ context.Context, m provisioning.Machine) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialed = append(d.dialed, m.Address)
	if err := d.dialErr[m.Address]; err != nil {
		return nil, err
	}
	return &fakeSession{d: d, src: m.Address}, nil
}

func (s *fakeSession) Run(_ context.Context, command string, _ time.Duration) (*ssh.Result, error) {
	s.d.mu.Lock()
	s.d.commands++
	s.d.mu.Unlock()
	for _, m := range fleet {
		if strings.Contains(command, "http://["+m.Address+"]/random") {
			if s.d.result == nil {
				return &ssh.Result{}, nil
			}
			return s.d.result(s.src, m.Address)
		}
	}
	return &ssh.Result{ExitStatus: 127, Stderr: "unknown target"}, nil
}

func (s *fakeSession) Close() error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.closed++
	return nil
}

func testOptions() Options {
	return OptionsFromConfig(config.Default())
}

func TestProbeCommand(t *testing.T) {
	t.Parallel()
	cmd := ProbeCommand(fleet[1], testOptions())

	assert.Equal(t,
		"curl --no-progress-meter --verbose --max-time 15 http://[2001:db8::2]/random -o random --fail && "+
			"curl --no-progress-meter --verbose --max-time 15 http://[2001:db8::2]/SHA256SUMS -o SHA256SUMS --fail && "+
			"sha256sum -c SHA256SUMS",
		cmd)
}

func TestProbeCommand_SubSecondTimeout(t *testing.T) {
	t.Parallel()
	tests := []struct {
		timeout time.Duration
		want    string
	}{
		{500 * time.Millisecond, "--max-time 0.5 "},
		{1500 * time.Millisecond, "--max-time 1.5 "},
		{time.Millisecond, "--max-time 0.001 "},
		{2 * time.Minute, "--max-time 120 "},
	}
	for _, tt := range tests {
		t.Run(tt.timeout.String(), func(t *testing.T) {
			t.Parallel()
			opts := testOptions()
			opts.DownloadTimeout = tt.timeout

			cmd := ProbeCommand(fleet[0], opts)

			assert.Equal(t, 2, strings.Count(cmd, tt.want))
			assert.NotContains(t, cmd, "--max-time 0 ")
		})
	}
}

func TestVerify_AllReachable(t *testing.T) {
	t.Parallel()
	d := &fakeDialer{}
	metrics := telemetry.NewMetrics()

	m, err := NewVerifier(d, testOptions(), logr.Discard(), metrics).Verify(context.Background(), fleet)

	require.NoError(t, err)
	assert.True(t, m.AllTrue())
	assert.Equal(t, 3, m.Size())
	assert.Equal(t, []string{"2001:db8::1", "2001:db8::2", "2001:db8::3"}, d.dialed)
	assert.Equal(t, 3, d.closed)
	assert.Equal(t, 9, d.commands)
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(`
# HELP infrasmoke_connectivity_probes_total Inter-machine download probes by result
# TYPE infrasmoke_connectivity_probes_total counter
infrasmoke_connectivity_probes_total{result="success"} 9
`), "infrasmoke_connectivity_probes_total"))
}

func TestVerify_Partition(t *testing.T) {
	t.Parallel()
	d := &fakeDialer{result: func(src, dst string) (*ssh.Result, error) {
		if src == "2001:db8::2" && dst == "2001:db8::3" {
			return &ssh.Result{ExitStatus: 28, Stderr: "Operation timed out"}, nil
		}
		return &ssh.Result{}, nil
	}}

	m, err := NewVerifier(d, testOptions(), logr.Discard(), nil).Verify(context.Background(), fleet)

	require.NoError(t, err)
	assert.False(t, m.AllTrue())
	assert.Equal(t, 1, m.Failures())
	assert.False(t, m.Get(1, 2))
	assert.True(t, m.Get(2, 1))
	assert.Equal(t, `Inter-VMs file download matrix:
   aaa bbb ccc
aaa 1   1   1
bbb 1   1   0
ccc 1   1   1
aaa: aaa-1.zh1.farm, 2001:db8::1
bbb: bbb-2.fr1.farm, 2001:db8::2
ccc: ccc-3.sf1.farm, 2001:db8::3
1 - success
0 - failure`, Render(MatrixTitle, m, fleet, false))
}

func TestVerify_TimeoutFailsOnlyItsCell(t *testing.T) {
	t.Parallel()
	d := &fakeDialer{result: func(src, dst string) (*ssh.Result, error) {
		if src == dst {
			return &ssh.Result{ExitStatus: -1}, ssh.ErrCommandTimeout
		}
		return &ssh.Result{}, nil
	}}

	m, err := NewVerifier(d, testOptions(), logr.Discard(), nil).Verify(context.Background(), fleet)

	require.NoError(t, err)
	assert.Equal(t, 3, m.Failures())
	for i := range fleet {
		assert.False(t, m.Get(i, i))
	}
	assert.Equal(t, 9, d.commands)
}

func TestVerify_DialFailureFailsRow(t *testing.T) {
	t.Parallel()
	d := &fakeDialer{dialErr: map[string]error{"2001:db8::1": errors.New("connection refused")}}

	m, err := NewVerifier(d, testOptions(), logr.Discard(), nil).Verify(context.Background(), fleet)

	require.NoError(t, err)
	for j := range fleet {
		assert.False(t, m.Get(0, j))
		assert.True(t, m.Get(1, j))
	}
	assert.Equal(t, 6, d.commands)
	assert.Equal(t, 2, d.closed)
}

func TestVerify_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewVerifier(&fakeDialer{}, testOptions(), logr.Discard(), nil).Verify(ctx, fleet)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerify_Empty(t *testing.T) {
	t.Parallel()
	m, err := NewVerifier(&fakeDialer{}, testOptions(), logr.Discard(), nil).Verify(context.Background(), nil)

	require.NoError(t, err)
	assert.True(t, m.AllTrue())
}

func newCheckContext(t *testing.T) (*provisioning.Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := telemetry.NewLogger(telemetry.NewOutput(&buf, false), 1)
	state := provisioning.NewState("run-1", t.TempDir())
	state.Machines = fleet
	return provisioning.NewContext(context.Background(), config.Default(), state, nil, logger), &buf
}

func TestCheck_Success(t *testing.T) {
	t.Parallel()
	ctx, buf := newCheckContext(t)

	err := NewVerifier(&fakeDialer{}, testOptions(), ctx.Observer.Logger(), nil).Check(ctx)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "All VMs can download files from each other.")
	assert.Contains(t, buf.String(), MatrixTitle)
}

func TestCheck_PartitionError(t *testing.T) {
	t.Parallel()
	ctx, buf := newCheckContext(t)
	d := &fakeDialer{result: func(src, dst string) (*ssh.Result, error) {
		if src == "2001:db8::2" && dst == "2001:db8::3" {
			return &ssh.Result{ExitStatus: 7, Stderr: "Failed to connect"}, nil
		}
		return &ssh.Result{}, nil
	}}

	err := NewVerifier(d, testOptions(), ctx.Observer.Logger(), nil).Check(ctx)

	var pe *PartitionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Failures)
	assert.True(t, strings.HasPrefix(err.Error(), "Not all VMs can download files from each other.\nInter-VMs file download matrix:"))
	assert.NotContains(t, pe.Matrix, "\x1b[")
	assert.Contains(t, buf.String(),
		"Failure: curl from 2001:db8::2 (bbb) to 2001:db8::3 (ccc) (timeout 15) failed with code=7, stderr=Failed to connect")
}

func TestRender_ColoredIsDeterministic(t *testing.T) {
	t.Parallel()
	m := NewMatrix(3)
	m.Set(0, 0, true)

	a := Render(MatrixTitle, m, fleet, true)
	b := Render(MatrixTitle, m, fleet, true)

	assert.Equal(t, a, b)
	assert.Contains(t, a, "\x1b[")
	assert.True(t, strings.HasPrefix(a, "\n"+MatrixTitle))
	assert.NotContains(t, Render(MatrixTitle, m, fleet, false), "\x1b[")
}

func TestSSHDialer_Unreachable(t *testing.T) {
	t.Parallel()
	kp, err := keygen.GenerateED25519KeyPair()
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	d := NewSSHDialer(SSHOptions{User: "admin", Port: port, PrivateKey: kp.PrivateKey, DialTimeout: time.Second})
	_, err = d.Dial(context.Background(), provisioning.Machine{Address: "127.0.0.1"})

	assert.Error(t, err)
}
