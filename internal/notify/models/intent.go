// Package models defines notification intents queued by the core workflow
// and the in-app notification records they produce.
package models

import (
	"time"

	id "samved/pkg/domain"
)

// Kind selects how an intent is delivered.
type Kind string

const (
	KindRegistrationReceived Kind = "registration_received"
	KindTeamApproved         Kind = "team_approved"
	KindRegistrationRejected Kind = "registration_rejected"
	KindCredentials          Kind = "credentials"
	KindTeamMemberRemoved    Kind = "team_member_removed"
	KindInApp                Kind = "in_app"
)

// IsEmail reports whether the kind is delivered by mail.
func (k Kind) IsEmail() bool {
	return k != KindInApp
}

// DefaultRejectionReason is used when an administrator gives no reason.
const DefaultRejectionReason = "Your registration did not meet the requirements."

// Grant is one role's outcome in a credentials mail. An empty Password means
// the account already existed and was reused.
type Grant struct {
	Role     id.Role
	Password string
}

// Reused reports whether the grant refers to a pre-existing account.
func (g Grant) Reused() bool {
	return g.Password == ""
}

// Intent is a deferred side effect. Intents live only in process memory, so
// a one-time password may travel inside one.
type Intent struct {
	Kind     Kind
	To       string
	Name     string
	TeamName string
	Reason   string
	// Grants is set for credentials mail; it holds two entries when one
	// person is both spoc and mentor.
	Grants []Grant

	// In-app fields.
	Recipients  []id.IdentityID
	Title       string
	Message     string
	Level       Level
	TeamID      *id.TeamID
	TriggeredBy id.IdentityID

	EnqueuedAt time.Time
}

// Level is the visual severity of an in-app notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
)
