package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the promotion state machine.
type Metrics struct {
	Approvals       *prometheus.CounterVec
	Rejections      prometheus.Counter
	Compensations   prometheus.Counter
	Identities      *prometheus.CounterVec
	ApproveDuration prometheus.Histogram
	LockContentions prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Approvals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "samved_promotions_total",
			Help: "Approval attempts by outcome (promoted, aborted, compensated)",
		}, []string{"outcome"}),
		Rejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samved_registrations_rejected_total",
			Help: "Total number of staged registrations rejected",
		}),
		Compensations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samved_promotion_compensations_total",
			Help: "Teams deleted to undo a failed promotion",
		}),
		Identities: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "samved_promotion_identities_total",
			Help: "Participants resolved during promotion by role and outcome",
		}, []string{"role", "outcome"}),
		ApproveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "samved_promotion_duration_seconds",
			Help:    "Duration of approval including identity provisioning",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		LockContentions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samved_promotion_lock_contention_total",
			Help: "Approve or reject calls refused because the registration was locked",
		}),
	}
}

func (m *Metrics) IncrementApproval(outcome string) {
	m.Approvals.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementRejection() {
	m.Rejections.Inc()
}

func (m *Metrics) IncrementCompensation() {
	m.Compensations.Inc()
}

func (m *Metrics) IncrementIdentity(role, outcome string) {
	m.Identities.WithLabelValues(role, outcome).Inc()
}

func (m *Metrics) IncrementLockContention() {
	m.LockContentions.Inc()
}

// ObserveApprove records the duration of an Approve call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveApprove(start time.Time) {
	m.ApproveDuration.Observe(time.Since(start).Seconds())
}
