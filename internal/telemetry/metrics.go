package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds the collectors of a single run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	farmCalls    *prometheus.CounterVec
	farmLatency  *prometheus.HistogramVec
	stepDuration *prometheus.GaugeVec
	probes       *prometheus.CounterVec
	machines     prometheus.Gauge
	runSuccess   prometheus.Gauge
	runDuration  prometheus.Gauge
	runTimestamp prometheus.Gauge
}

// NewMetrics creates the run collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		farmCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "infrasmoke",
				Subsystem: "farm",
				Name:      "api_calls_total",
				Help:      "Total number of Farm API calls by operation and result",
			},
			[]string{"operation", "result"},
		),
		farmLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "infrasmoke",
				Subsystem: "farm",
				Name:      "api_latency_seconds",
				Help:      "Latency of Farm API calls in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"operation"},
		),
		stepDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "infrasmoke",
				Subsystem: "run",
				Name:      "step_duration_seconds",
				Help:      "Duration of each run step in seconds",
			},
			[]string{"step", "result"},
		),
		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "infrasmoke",
				Subsystem: "connectivity",
				Name:      "probes_total",
				Help:      "Inter-machine download probes by result",
			},
			[]string{"result"},
		),
		machines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "infrasmoke",
			Subsystem: "fleet",
			Name:      "machines",
			Help:      "Number of machines provisioned in the run",
		}),
		runSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "infrasmoke",
			Subsystem: "run",
			Name:      "success",
			Help:      "Whether the last run succeeded (1) or not (0)",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "infrasmoke",
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Total duration of the last run in seconds",
		}),
		runTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "infrasmoke",
			Subsystem: "run",
			Name:      "last_timestamp_seconds",
			Help:      "Unix time at which the last run finished",
		}),
	}

	m.registry.MustRegister(
		m.farmCalls,
		m.farmLatency,
		m.stepDuration,
		m.probes,
		m.machines,
		m.runSuccess,
		m.runDuration,
		m.runTimestamp,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordFarmCall records one Farm API round-trip.
func (m *Metrics) RecordFarmCall(operation string, err error, latency time.Duration) {
	if m == nil {
		return
	}
	m.farmCalls.WithLabelValues(operation, result(err)).Inc()
	m.farmLatency.WithLabelValues(operation).Observe(latency.Seconds())
}

// RecordStep records the duration of a run step.
func (m *Metrics) RecordStep(step string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(step, result(err)).Set(duration.Seconds())
}

// RecordProbe records one inter-machine probe outcome.
func (m *Metrics) RecordProbe(ok bool) {
	if m == nil {
		return
	}
	label := ResultSuccess
	if !ok {
		label = ResultError
	}
	m.probes.WithLabelValues(label).Inc()
}

// SetMachines records the fleet size.
func (m *Metrics) SetMachines(n int) {
	if m == nil {
		return
	}
	m.machines.Set(float64(n))
}

// RecordRun records the overall run result.
func (m *Metrics) RecordRun(success bool, duration time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	if success {
		m.runSuccess.Set(1)
	} else {
		m.runSuccess.Set(0)
	}
	m.runDuration.Set(duration.Seconds())
	m.runTimestamp.Set(float64(finished.Unix()))
}

// WriteTextfile writes all metrics in the Prometheus text format to path,
// suitable for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
