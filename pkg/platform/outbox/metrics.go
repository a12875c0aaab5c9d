package outbox

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks relay throughput.
type Metrics struct {
	Published *prometheus.CounterVec
	Failed    *prometheus.CounterVec
	Lag       prometheus.Histogram
}

// NewMetrics registers the relay metrics with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseprocessor_outbox_published_total",
			Help: "Outbox messages published by topic",
		}, []string{"topic"}),

		Failed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseprocessor_outbox_publish_failures_total",
			Help: "Outbox publish failures by topic",
		}, []string{"topic"}),

		Lag: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "caseprocessor_outbox_lag_seconds",
			Help:    "Time between appending an outbox message and publishing it",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
	}
}

func (m *Metrics) published(topic string, lag time.Duration) {
	if m != nil {
		m.Published.WithLabelValues(topic).Inc()
		m.Lag.Observe(lag.Seconds())
	}
}

func (m *Metrics) failed(topic string) {
	if m != nil {
		m.Failed.WithLabelValues(topic).Inc()
	}
}
