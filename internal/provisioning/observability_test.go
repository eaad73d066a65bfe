package provisioning

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/infrasmoke/internal/telemetry"
)

func newBufferObserver(verbosity int) (*LogObserver, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := telemetry.NewLogger(telemetry.NewOutput(&buf, false), verbosity)
	return NewLogObserver(logger), &buf
}

func TestLogObserver_Levels(t *testing.T) {
	t.Parallel()
	obs, buf := newBufferObserver(1)

	obs.Printf("hello %s", "farm")
	obs.Debugf("detail %d", 7)
	obs.Warnf("alerts are disabled")
	obs.Errorf("boom")

	out := buf.String()
	assert.Contains(t, out, "|     INFO | hello farm")
	assert.Contains(t, out, "|    DEBUG | detail 7")
	assert.Contains(t, out, "|     INFO | Warning: alerts are disabled")
	assert.Contains(t, out, "|    ERROR | boom")
}

func TestLogObserver_DebugHiddenAtDefaultVerbosity(t *testing.T) {
	t.Parallel()
	obs, buf := newBufferObserver(0)

	obs.Debugf("hidden")

	assert.Empty(t, buf.String())
}

func TestLogObserver_WithFields(t *testing.T) {
	t.Parallel()
	obs, buf := newBufferObserver(0)

	child := obs.WithFields(map[string]string{"vm": "universal-vm-0", "group": "g"})
	child.Printf("booted")
	obs.Printf("plain")

	assert.Contains(t, buf.String(), "booted (group=g, vm=universal-vm-0)")
	assert.Contains(t, buf.String(), "| plain\n")
}

func TestLogObserver_Event(t *testing.T) {
	t.Parallel()
	obs, buf := newBufferObserver(1)

	LogPhaseStart(obs, "provisioning")
	LogResourceCreating(obs, "compute", "vm", "universal-vm-0")
	LogResourceCreated(obs, "compute", "vm", "universal-vm-0", "host.z1")
	LogPhaseComplete(obs, "provisioning", 1500*time.Millisecond)
	LogResourceFailed(obs, "compute", "vm", "universal-vm-1", errors.New("503"))

	out := buf.String()
	assert.Contains(t, out, "phase.started [provisioning] starting")
	assert.Contains(t, out, "resource.creating [compute] resource=universal-vm-0 creating vm (type=vm)")
	assert.Contains(t, out, "resource.created [compute] resource=universal-vm-0 vm created (id=host.z1, type=vm)")
	assert.Contains(t, out, "phase.completed [provisioning] completed in 1.5s")
	assert.Contains(t, out, "|    ERROR | resource.failed [compute] resource=universal-vm-1 vm failed: 503")
}

func TestLogObserver_EventMergesContextFields(t *testing.T) {
	t.Parallel()
	obs, buf := newBufferObserver(0)

	child := obs.WithFields(map[string]string{"run": "r1", "type": "ignored"})
	LogPhaseFailed(child, "boot", errors.New("timeout"))

	assert.Contains(t, buf.String(), "phase.failed [boot] failed: timeout (run=r1, type=ignored)")
}
