package batch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the batch counters exported on /metrics.
type Metrics struct {
	items    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mekforge_batch_items_total",
				Help: "Batch items processed, by job kind and outcome",
			},
			[]string{"kind", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mekforge_batch_item_duration_seconds",
				Help:    "Time spent on a single batch item",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(m.items, m.duration)
	return m
}

func (m *Metrics) observe(kind string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.items.WithLabelValues(kind, status).Inc()
	m.duration.WithLabelValues(kind).Observe(d.Seconds())
}
