package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the notification outbox and delivery outcomes.
type Metrics struct {
	Enqueued         *prometheus.CounterVec
	Dropped          prometheus.Counter
	Delivered        *prometheus.CounterVec
	DeliveryDuration prometheus.Histogram
	CircuitOpen      prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Enqueued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "samved_notify_enqueued_total",
			Help: "Notification intents enqueued, by kind",
		}, []string{"kind"}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samved_notify_dropped_total",
			Help: "Notification intents evicted because the outbox was full",
		}),
		Delivered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "samved_notify_delivered_total",
			Help: "Notification delivery attempts, by kind and outcome",
		}, []string{"kind", "outcome"}),
		DeliveryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "samved_notify_delivery_duration_seconds",
			Help:    "Duration of a single notification delivery",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CircuitOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "samved_smtp_circuit_open",
			Help: "1 while the SMTP circuit breaker is open",
		}),
	}
}

func (m *Metrics) IncrementEnqueued(kind string) {
	m.Enqueued.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementDropped() {
	m.Dropped.Inc()
}

// ObserveDelivery records one delivery outcome and its duration.
func (m *Metrics) ObserveDelivery(kind string, err error, start time.Time) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Delivered.WithLabelValues(kind, outcome).Inc()
	m.DeliveryDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
