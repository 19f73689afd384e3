// Package metrics exposes engine lifecycle and synthesis counters in the
// Prometheus text format.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bobarin/voiceclone/internal/engine"
	"github.com/bobarin/voiceclone/internal/synth"
)

const namespace = "voiceclone"

// Result labels for synthesis outcomes.
const (
	ResultOK               = "ok"
	ResultEmptyText        = "empty_text"
	ResultInvalidReference = "invalid_reference"
	ResultConstruction     = "engine_unavailable"
	ResultSynthesis        = "synthesis_failed"
	ResultError            = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	engineLoaded   prometheus.Gauge
	engineLoads    prometheus.Counter
	engineFailures prometheus.Counter
	engineReleases prometheus.Counter
	loadSeconds    prometheus.Histogram

	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	artifacts *prometheus.CounterVec
}

// Ensure Metrics plugs into both hooks at compile time.
var (
	_ engine.Observer = (*Metrics)(nil)
	_ synth.Recorder  = (*Metrics)(nil)
)

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		engineLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_loaded",
			Help:      "1 while the inference engine is resident, 0 otherwise.",
		}),
		engineLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_loads_total",
			Help:      "Successful engine constructions.",
		}),
		engineFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_load_failures_total",
			Help:      "Failed engine constructions.",
		}),
		engineReleases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_releases_total",
			Help:      "Engine releases that destroyed a live instance.",
		}),
		loadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_load_seconds",
			Help:      "Time spent bringing the engine up.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_requests_total",
			Help:      "Synthesis requests by kind and result.",
		}, []string{"kind", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Wall time of synthesis requests, including any implicit engine load.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
		}, []string{"kind"}),
		artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_written_total",
			Help:      "Audio files written by successful requests.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.engineLoaded,
		m.engineLoads,
		m.engineFailures,
		m.engineReleases,
		m.loadSeconds,
		m.requests,
		m.duration,
		m.artifacts,
	)

	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry for GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) EngineLoaded(elapsed time.Duration) {
	m.engineLoaded.Set(1)
	m.engineLoads.Inc()
	m.loadSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) EngineReleased() {
	m.engineLoaded.Set(0)
	m.engineReleases.Inc()
}

func (m *Metrics) EngineLoadFailed() {
	m.engineFailures.Inc()
}

func (m *Metrics) ObserveSynthesis(kind synth.Kind, items int, elapsed time.Duration, err error) {
	result := Result(err)
	m.requests.WithLabelValues(string(kind), result).Inc()
	m.duration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	if err == nil {
		m.artifacts.WithLabelValues(string(kind)).Add(float64(items))
	}
}

// Result classifies err into one of the Result* labels.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, synth.ErrEmptyText):
		return ResultEmptyText
	case errors.Is(err, synth.ErrInvalidReference):
		return ResultInvalidReference
	case errors.Is(err, engine.ErrConstruction):
		return ResultConstruction
	case errors.Is(err, engine.ErrSynthesis):
		return ResultSynthesis
	default:
		return ResultError
	}
}
