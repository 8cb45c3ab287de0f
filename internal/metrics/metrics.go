// Package metrics exposes Prometheus collectors for moderation decisions,
// cleanup sweeps and Bot API calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "faxinabot"

// Metrics contains the bot's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	decisions       *prometheus.CounterVec
	captureFailures prometheus.Counter
	toggles         *prometheus.CounterVec

	platformCalls *prometheus.CounterVec

	sweeps         *prometheus.CounterVec
	sweepDeleted   prometheus.Counter
	sweepDuration  prometheus.Histogram
	announcements  prometheus.Counter
	lastSweepEpoch prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,

		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "moderation_decisions_total",
				Help:      "Moderation decisions taken for incoming group messages",
			},
			[]string{"action"},
		),
		captureFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "capture_failures_total",
				Help:      "Messages that could not be written to the retention store",
			},
		),
		toggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cleanup_toggles_total",
				Help:      "Enable/disable cleanup requests by result",
			},
			[]string{"enable", "result"},
		),
		platformCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "platform_calls_total",
				Help:      "Bot API calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		sweeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweeps_total",
				Help:      "Cleanup sweeps by result",
			},
			[]string{"result"},
		),
		sweepDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_removed_messages_total",
				Help:      "Tracked messages removed by cleanup sweeps",
			},
		),
		sweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sweep_duration_seconds",
				Help:      "Duration of cleanup sweeps",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		announcements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "announcements_total",
				Help:      "Post-sweep announcements attempted",
			},
		),
		lastSweepEpoch: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_sweep_timestamp_seconds",
				Help:      "Unix time of the last finished sweep",
			},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.decisions,
		m.captureFailures,
		m.toggles,
		m.platformCalls,
		m.sweeps,
		m.sweepDeleted,
		m.sweepDuration,
		m.announcements,
		m.lastSweepEpoch,
	)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDecision counts a moderation decision.
func (m *Metrics) ObserveDecision(action string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(action).Inc()
}

// ObserveCaptureFailure counts a capture that could not be persisted.
func (m *Metrics) ObserveCaptureFailure() {
	if m == nil {
		return
	}
	m.captureFailures.Inc()
}

// ObserveToggle counts an enable/disable request.
func (m *Metrics) ObserveToggle(enable bool, result string) {
	if m == nil {
		return
	}
	label := "disable"
	if enable {
		label = "enable"
	}
	m.toggles.WithLabelValues(label, result).Inc()
}

// ObservePlatformCall counts a Bot API call.
func (m *Metrics) ObservePlatformCall(operation, outcome string) {
	if m == nil {
		return
	}
	m.platformCalls.WithLabelValues(operation, outcome).Inc()
}

// ObserveSweep records a finished or skipped sweep.
func (m *Metrics) ObserveSweep(result string, removed, announced int, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(result).Inc()
	m.sweepDeleted.Add(float64(removed))
	m.announcements.Add(float64(announced))
	m.sweepDuration.Observe(duration.Seconds())
	m.lastSweepEpoch.SetToCurrentTime()
}
