package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes recorded by QueriesTotal.
const (
	OutcomeReported = "reported"
	OutcomeEmpty    = "empty"
	OutcomeFailed   = "failed"
)

// Metrics holds the Prometheus collectors of one report run. Collectors live
// on a private registry so a run can be written out as a textfile without the
// Go runtime collectors of the default registry.
type Metrics struct {
	registry *prometheus.Registry

	QueriesTotal     *prometheus.CounterVec
	OffersTotal      *prometheus.CounterVec
	DegenerateOffers *prometheus.CounterVec
	QueryDuration    prometheus.Histogram
	LastRunTimestamp prometheus.Gauge
}

// NewMetrics creates and registers all collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Queries processed, by outcome",
			},
			[]string{"outcome"},
		),
		OffersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "offers_total",
				Help:      "Offers read from the data source, by whether they survived cleaning",
			},
			[]string{"status"},
		),
		DegenerateOffers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degenerate_offers_total",
				Help:      "Cleaned offers that covered no bucket, by bucket width",
			},
			[]string{"bucket_width"},
		),
		QueryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Time to fetch and aggregate one query",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last report run finished",
			},
		),
	}
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the current values in the text exposition format,
// suitable for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
