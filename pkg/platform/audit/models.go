package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// Categories drive retention and routing once events leave the process.
type EventCategory string

const (
	// CategoryCompliance covers account lifecycle and team membership changes.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events worth alerting on, such as data
	// inconsistencies discovered during promotion.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Subject is the aggregate the event is about: an identity, team or
	// registration ID.
	Subject string
	Action  string
	Reason  string
	// Email of the affected identity when available.
	Email     string
	RequestID string
	// ActorID is the admin who performed the action, if any.
	ActorID string
	// Detail carries small structured extras such as team names or roles.
	Detail map[string]string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

type AuditEvent string

const (
	// Registration events
	EventRegistrationStaged   AuditEvent = "registration_staged"
	EventRegistrationRejected AuditEvent = "registration_rejected"

	// Promotion events
	EventPromotionStarted     AuditEvent = "promotion_started"
	EventTeamPromoted         AuditEvent = "team_promoted"
	EventPromotionAborted     AuditEvent = "promotion_aborted"
	EventPromotionCompensated AuditEvent = "promotion_compensated"
	EventDanglingTeamRef      AuditEvent = "dangling_team_reference"

	// Identity events
	EventIdentityCreated AuditEvent = "identity_created"
	EventIdentityReused  AuditEvent = "identity_reused"
	EventIdentityDeleted AuditEvent = "identity_deleted"

	// Team events
	EventTeamDeleted       AuditEvent = "team_deleted"
	EventTeamMemberRemoved AuditEvent = "team_member_removed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventIdentityCreated:   CategoryCompliance,
	EventIdentityDeleted:   CategoryCompliance,
	EventTeamPromoted:      CategoryCompliance,
	EventTeamDeleted:       CategoryCompliance,
	EventTeamMemberRemoved: CategoryCompliance,

	EventDanglingTeamRef:      CategorySecurity,
	EventPromotionCompensated: CategorySecurity,

	EventRegistrationStaged:   CategoryOperations,
	EventRegistrationRejected: CategoryOperations,
	EventPromotionStarted:     CategoryOperations,
	EventPromotionAborted:     CategoryOperations,
	EventIdentityReused:       CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
