// Package metrics collects per-run counters and writes them out in the
// Prometheus text format for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wordfreq"

// Failure kinds used as the "kind" label.
const (
	FailureOpen = "open"
	FailureRead = "read"
)

type Metrics struct {
	registry *prometheus.Registry

	sources        prometheus.Counter
	failures       *prometheus.CounterVec
	tokens         prometheus.Counter
	sourceDuration prometheus.Histogram
	distinct       prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sources: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sources_total",
			Help:      "Sources handed to the aggregator.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Sources that failed, by failure kind.",
		}, []string{"kind"}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens folded into the frequency table.",
		}),
		sourceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_duration_seconds",
			Help:      "Time spent tokenizing a single source.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		distinct: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "distinct_tokens",
			Help:      "Distinct tokens in the final table.",
		}),
	}
	m.registry.MustRegister(m.sources, m.failures, m.tokens, m.sourceDuration, m.distinct)
	return m
}

// A nil *Metrics is valid and records nothing.

func (m *Metrics) SourceStarted() {
	if m == nil {
		return
	}
	m.sources.Inc()
}

func (m *Metrics) SourceFailed(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) SourceDone(tokens int, d time.Duration) {
	if m == nil {
		return
	}
	m.tokens.Add(float64(tokens))
	m.sourceDuration.Observe(d.Seconds())
}

func (m *Metrics) SetDistinct(n int) {
	if m == nil {
		return
	}
	m.distinct.Set(float64(n))
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile atomically writes all metrics to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
