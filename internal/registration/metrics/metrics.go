package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks registration submissions.
type Metrics struct {
	Submitted      prometheus.Counter
	Refused        *prometheus.CounterVec
	SubmitDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samved_registrations_staged_total",
			Help: "Total number of registrations staged for review",
		}),
		Refused: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "samved_registrations_refused_total",
			Help: "Registrations refused at submission, by error code",
		}, []string{"code"}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "samved_submit_registration_duration_seconds",
			Help:    "Duration of registration submission including password hashing",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

func (m *Metrics) IncrementSubmitted() {
	m.Submitted.Inc()
}

func (m *Metrics) IncrementRefused(code string) {
	m.Refused.WithLabelValues(code).Inc()
}

// ObserveSubmit records the duration of a Submit call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
