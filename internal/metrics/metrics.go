// Package metrics exposes Prometheus collectors for generation, chat and persistence.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "c2h"

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

// Metrics holds the application collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	completions    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	streamChunks   prometheus.Counter
	titleSummaries *prometheus.CounterVec
	persistWrites  *prometheus.CounterVec
	sessions       prometheus.Gauge
}

// New creates the collectors and registers them with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		completions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_requests_total",
			Help:      "Requests sent to the language model, by operation and outcome.",
		}, []string{"op", "outcome"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Time until a model request finished, by operation.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"op"}),
		streamChunks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_stream_chunks_total",
			Help:      "Streamed reply fragments received from the model.",
		}),
		titleSummaries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "title_summaries_total",
			Help:      "Session title summaries, by outcome.",
		}, []string{"outcome"}),
		persistWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_persist_writes_total",
			Help:      "Session collection writes to the blob store, by outcome.",
		}, []string{"outcome"}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chat_sessions",
			Help:      "Chat sessions currently held in memory.",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCompletion records one model request.
func (m *Metrics) ObserveCompletion(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(d.Seconds())
}

// AddStreamChunk counts one streamed fragment.
func (m *Metrics) AddStreamChunk() {
	if m == nil {
		return
	}
	m.streamChunks.Inc()
}

// ObserveTitleSummary records a title request outcome.
func (m *Metrics) ObserveTitleSummary(outcome string) {
	if m == nil {
		return
	}
	m.titleSummaries.WithLabelValues(outcome).Inc()
}

// ObservePersist records a blob store write outcome.
func (m *Metrics) ObservePersist(outcome string) {
	if m == nil {
		return
	}
	m.persistWrites.WithLabelValues(outcome).Inc()
}

// AddSessions adjusts the in-memory session gauge.
func (m *Metrics) AddSessions(delta int) {
	if m == nil {
		return
	}
	m.sessions.Add(float64(delta))
}
