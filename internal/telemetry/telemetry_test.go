package telemetry

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedOutput(console *bytes.Buffer) *Output {
	out := NewOutput(console, false)
	out.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }
	return out
}

func TestLogger_Format(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	logger := NewLogger(fixedOutput(&console), 1)

	logger.Info("Step 1: generating keys", "step", 1)
	logger.V(1).Info("debug detail")
	logger.Error(errors.New("boom"), "step failed")

	lines := strings.Split(strings.TrimSpace(console.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `2024-03-09 10:00:00.000 |     INFO | Step 1: generating keys | {"step": 1}`, lines[0])
	assert.Equal(t, "2024-03-09 10:00:00.000 |    DEBUG | debug detail", lines[1])
	assert.Equal(t, `2024-03-09 10:00:00.000 |    ERROR | step failed | {"error": "boom"}`, lines[2])
}

func TestLogger_NilErrorHasNoField(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	logger := NewLogger(fixedOutput(&console), 0)

	logger.Error(nil, "Smoke test failed after 1s.")

	assert.Equal(t, "2024-03-09 10:00:00.000 |    ERROR | Smoke test failed after 1s.\n", console.String())
}

func TestLogger_DeeperVerbosityIsDebug(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	logger := NewLogger(fixedOutput(&console), 2)

	logger.V(2).Info("trace detail")

	assert.Equal(t, "2024-03-09 10:00:00.000 |    DEBUG | trace detail\n", console.String())
}

func TestLogger_MultiLineMessage(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	logger := NewLogger(fixedOutput(&console), 0)

	logger.Info("matrix:\n    aaa\naaa 1")

	assert.Equal(t, "2024-03-09 10:00:00.000 |     INFO | matrix:\n    aaa\naaa 1\n", console.String())
}

func TestLogger_Verbosity(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	logger := NewLogger(fixedOutput(&console), 0)

	logger.V(1).Info("hidden")
	logger.Info("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestLogger_WithNameAndValues(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	logger := NewLogger(fixedOutput(&console), 0).WithName("farm").WithValues("group", "g1")

	logger.Info("created", "vm", "universal-vm-0")

	assert.Contains(t, console.String(), `|     INFO | farm | created | {"group": "g1", "vm": "universal-vm-0"}`)
}

func TestOutput_AttachDetach(t *testing.T) {
	t.Parallel()
	var console, file bytes.Buffer
	out := fixedOutput(&console)
	logger := NewLogger(out, 1)

	logger.Info("before")
	detach := out.Attach(&file)
	logger.Info("during")
	detach()
	logger.Info("after")

	assert.NotContains(t, file.String(), "before")
	assert.Contains(t, file.String(), "during")
	assert.NotContains(t, file.String(), "after")
	assert.Contains(t, console.String(), "after")
	assert.Equal(t, "2024-03-09 10:00:00.000 |     INFO | during\n", file.String())
}

func TestOutput_AttachedWritersShareLines(t *testing.T) {
	t.Parallel()
	var console, first, second bytes.Buffer
	out := fixedOutput(&console)
	out.Attach(&first)
	out.Attach(&second)

	NewLogger(out, 0).WithValues("runID", "r1").Info("Starting smoke test")

	want := `2024-03-09 10:00:00.000 |     INFO | Starting smoke test | {"runID": "r1"}` + "\n"
	assert.Equal(t, want, console.String())
	assert.Equal(t, want, first.String())
	assert.Equal(t, want, second.String())
}

func TestOutput_AttachedWritersAreNeverColored(t *testing.T) {
	t.Parallel()
	var console, file bytes.Buffer
	out := NewOutput(&console, true)
	out.Attach(&file)

	NewLogger(out, 0).Error(errors.New("x"), "failed")

	assert.NotContains(t, file.String(), "\x1b[")
	assert.Contains(t, file.String(), `|    ERROR | failed | {"error": "x"}`)
	assert.Contains(t, console.String(), "failed")
	assert.True(t, out.Colored())
}

func TestMetrics_Record(t *testing.T) {
	t.Parallel()
	m := NewMetrics()

	m.RecordFarmCall("create_vm", nil, 100*time.Millisecond)
	m.RecordFarmCall("create_vm", errors.New("503"), 100*time.Millisecond)
	m.RecordFarmCall("create_vm", nil, 100*time.Millisecond)
	m.RecordProbe(true)
	m.RecordProbe(false)
	m.SetMachines(3)
	m.RecordStep("booting all VMs", nil, 2*time.Second)
	m.RecordRun(true, time.Minute, time.Unix(1700000000, 0))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.farmCalls.WithLabelValues("create_vm", ResultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.farmCalls.WithLabelValues("create_vm", ResultError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.probes.WithLabelValues(ResultError)))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.machines))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.stepDuration.WithLabelValues("booting all VMs", ResultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runSuccess))
	assert.Equal(t, float64(60), testutil.ToFloat64(m.runDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()
	var m *Metrics
	m.RecordFarmCall("x", nil, time.Second)
	m.RecordProbe(true)
	m.RecordStep("s", nil, time.Second)
	m.SetMachines(1)
	m.RecordRun(false, time.Second, time.Now())
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile("/nonexistent/metrics.prom"))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	t.Parallel()
	m := NewMetrics()
	m.SetMachines(5)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "infrasmoke_fleet_machines 5")
}

func TestTracing_ExportsSpans(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	tracing, err := NewTracing(&buf, "run-1")
	require.NoError(t, err)

	_, span := tracing.Tracer().Start(context.Background(), "uploading image file to Farm")
	span.End()
	require.NoError(t, tracing.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "uploading image file to Farm")
	assert.Contains(t, buf.String(), "run-1")
}

func TestNoopTracer(t *testing.T) {
	t.Parallel()
	_, span := NoopTracer().Start(context.Background(), "x")
	span.End()
	assert.False(t, span.SpanContext().IsValid())
}
