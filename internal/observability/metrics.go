package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nws_parser"

// Metrics holds the Prometheus collectors for decoding and delivery.
type Metrics struct {
	ProductsDecoded *prometheus.CounterVec // labels: family
	DecodeFailures  *prometheus.CounterVec // labels: kind
	Warnings        *prometheus.CounterVec // labels: kind
	DecodeDuration  prometheus.Histogram

	SinkWrites *prometheus.CounterVec // labels: sink
	SinkErrors *prometheus.CounterVec // labels: sink

	NotificationsPublished prometheus.Counter
	NotificationsDropped   *prometheus.CounterVec // labels: reason
	IngestRunning          prometheus.Gauge
}

func newMetrics(help bool) *Metrics {
	h := func(s string) string {
		if help {
			return s
		}
		return ""
	}
	return &Metrics{
		ProductsDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_decoded_total",
			Help:      h("Products decoded by family."),
		}, []string{"family"}),
		DecodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      h("Products rejected by error kind."),
		}, []string{"kind"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      h("Non-fatal decode warnings by kind."),
		}, []string{"kind"}),
		DecodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_duration_seconds",
			Help:      h("Time to decode one product."),
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
		}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_writes_total",
			Help:      h("Successful sink writes by sink."),
		}, []string{"sink"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      h("Failed sink writes by sink."),
		}, []string{"sink"}),
		NotificationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_published_total",
			Help:      h("Notifications handed to the transport."),
		}),
		NotificationsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      h("Notifications not delivered, by reason."),
		}, []string{"reason"}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_running",
			Help:      h("1 while the ingest loop is active."),
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ProductsDecoded,
		m.DecodeFailures,
		m.Warnings,
		m.DecodeDuration,
		m.SinkWrites,
		m.SinkErrors,
		m.NotificationsPublished,
		m.NotificationsDropped,
		m.IngestRunning,
	}
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build
// as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
