package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/infrasmoke/internal/config"
	"github.com/imamik/infrasmoke/internal/report"
	"github.com/imamik/infrasmoke/internal/telemetry"
)

type runnerMock struct {
	code int
	runs int
}

func (m *runnerMock) Run(context.Context) int {
	m.runs++
	return m.code
}

// stubFactories replaces the handler factories and restores them after the test.
func stubFactories(t *testing.T, cfg *config.Config, runner Runner, got **config.Config) {
	t.Helper()
	origLoad, origOutput, origRunner := loadConfig, newOutput, newRunner
	t.Cleanup(func() {
		loadConfig, newOutput, newRunner = origLoad, origOutput, origRunner
	})

	loadConfig = func(string) (*config.Config, error) { return cfg, nil }
	newOutput = func() *telemetry.Output { return telemetry.NewOutput(&bytes.Buffer{}, false) }
	newRunner = func(c *config.Config, _ *telemetry.Output, _ logr.Logger) Runner {
		if got != nil {
			*got = c
		}
		return runner
	}
}

func TestRun_Success(t *testing.T) {
	mock := &runnerMock{}
	stubFactories(t, config.Default(), mock, nil)

	require.NoError(t, Run(context.Background(), RunOptions{}))
	assert.Equal(t, 1, mock.runs)
}

func TestRun_Failure(t *testing.T) {
	stubFactories(t, config.Default(), &runnerMock{code: 1}, nil)

	err := Run(context.Background(), RunOptions{})

	assert.ErrorIs(t, err, ErrSmokeTestFailed)
}

func TestRun_FlagsOverrideConfig(t *testing.T) {
	var got *config.Config
	cfg := config.Default()
	cfg.Alerts.SlackWebhookURL = "https://hooks.example/x"
	stubFactories(t, cfg, &runnerMock{}, &got)

	err := Run(context.Background(), RunOptions{
		KeepArtifacts:   true,
		WithAlerts:      true,
		OutputDir:       "/tmp/out",
		FarmURL:         "http://farm.local",
		ImageBuilder:    "/usr/local/bin/build-image",
		MetricsTextfile: "/var/lib/node_exporter/infrasmoke.prom",
	})

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Artifacts.Keep)
	assert.True(t, got.Alerts.Enabled)
	assert.Equal(t, "/tmp/out", got.Artifacts.OutputDir)
	assert.Equal(t, "http://farm.local", got.Farm.BaseURL)
	assert.Equal(t, "/usr/local/bin/build-image", got.Image.Builder)
	assert.Equal(t, "/var/lib/node_exporter/infrasmoke.prom", got.Metrics.Textfile)
}

func TestRun_AlertsWithoutDestination(t *testing.T) {
	mock := &runnerMock{}
	stubFactories(t, config.Default(), mock, nil)

	err := Run(context.Background(), RunOptions{WithAlerts: true})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "alerts can't be sent")
	assert.Zero(t, mock.runs)
}

func TestAlert_SendsFile(t *testing.T) {
	var mu sync.Mutex
	var channels []string
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		channels = append(channels, body["channel"])
		mu.Unlock()
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Alerts.SlackWebhookURL = srv.URL
	stubFactories(t, cfg, nil, nil)

	file := filepath.Join(t.TempDir(), "slack_alerts.json")
	require.NoError(t, report.WriteAlert(file, report.Alert{Channels: []string{"#a", "#b"}, Message: "m"}))

	require.NoError(t, Alert(context.Background(), "", file))
	assert.Equal(t, []string{"#a", "#b"}, channels)
}

func TestAlert_NoDestination(t *testing.T) {
	stubFactories(t, config.Default(), nil, nil)
	file := filepath.Join(t.TempDir(), "slack_alerts.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"channels":["#a"],"message":"m"}`), 0o600))

	err := Alert(context.Background(), "", file)

	assert.Error(t, err)
}
