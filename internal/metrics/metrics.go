// Package metrics exposes prometheus collectors for the monitoring engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's collectors on a private registry so tests can
// create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	CallsMonitored  prometheus.Counter
	ScamsDetected   prometheus.Counter
	SegmentsApplied prometheus.Counter
	ChunkFailures   *prometheus.CounterVec
	CurrentRisk     prometheus.Gauge
	AnalyzeLatency  prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CallsMonitored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scamshield",
			Name:      "calls_monitored_total",
			Help:      "Calls started under monitoring, scripted or live.",
		}),
		ScamsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scamshield",
			Name:      "scams_detected_total",
			Help:      "Segments that escalated to the scam level.",
		}),
		SegmentsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scamshield",
			Name:      "segments_applied_total",
			Help:      "Call segments applied to the risk register.",
		}),
		ChunkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scamshield",
			Name:      "chunk_failures_total",
			Help:      "Live capture chunks dropped, by failure stage.",
		}, []string{"stage"}),
		CurrentRisk: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scamshield",
			Name:      "current_risk_score",
			Help:      "Risk score of the active call, 0 when idle.",
		}),
		AnalyzeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scamshield",
			Name:      "analyze_duration_seconds",
			Help:      "Latency of analyzer round trips per chunk.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.CallsMonitored,
		m.ScamsDetected,
		m.SegmentsApplied,
		m.ChunkFailures,
		m.CurrentRisk,
		m.AnalyzeLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the standard exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
