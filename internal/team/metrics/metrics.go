package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks administrative team mutations.
type Metrics struct {
	TeamsDeleted       prometheus.Counter
	IdentitiesDeleted  prometheus.Counter
	IdentitiesDetached prometheus.Counter
	MembersRemoved     prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		TeamsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samved_teams_deleted_total",
			Help: "Total number of teams deleted by administrators",
		}),
		IdentitiesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samved_team_deletion_identities_deleted_total",
			Help: "Participant identities deleted by team deletion",
		}),
		IdentitiesDetached: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samved_team_deletion_identities_detached_total",
			Help: "Non-participant identities whose team reference was cleared by team deletion",
		}),
		MembersRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samved_team_members_removed_total",
			Help: "Total number of members removed from teams",
		}),
	}
}

func (m *Metrics) ObserveDeletion(deleted, detached int) {
	m.TeamsDeleted.Inc()
	m.IdentitiesDeleted.Add(float64(deleted))
	m.IdentitiesDetached.Add(float64(detached))
}

func (m *Metrics) IncrementMembersRemoved() {
	m.MembersRemoved.Inc()
}
