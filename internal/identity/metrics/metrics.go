package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity registry.
type Metrics struct {
	IdentitiesCreated     *prometheus.CounterVec
	CreateAccountDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		IdentitiesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "samved_identities_created_total",
			Help: "Total number of identities created, by role",
		}, []string{"role"}),
		CreateAccountDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "samved_create_account_duration_seconds",
			Help:    "Duration of administrative account creation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementIdentitiesCreated records one created identity for role.
func (m *Metrics) IncrementIdentitiesCreated(role string) {
	m.IdentitiesCreated.WithLabelValues(role).Inc()
}

// ObserveCreateAccount records the duration of a CreateAccount call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCreateAccount(start time.Time) {
	m.CreateAccountDuration.Observe(time.Since(start).Seconds())
}
