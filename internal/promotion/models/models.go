// Package models holds the outcomes of promoting a staged registration.
package models

import (
	identitymodels "samved/internal/identity/models"
	teammodels "samved/internal/team/models"
	id "samved/pkg/domain"
)

// Outcome is how find-or-create resolved a participant.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeReused  Outcome = "reused"
)

// Resolution is the result of resolving one participant by email.
// GeneratedPassword is set only when the account was created with a
// generated credential.
type Resolution struct {
	Identity          *identitymodels.Identity
	Outcome           Outcome
	GeneratedPassword string
	// DanglingTeamID is the stale team reference found on a reused identity.
	DanglingTeamID *id.TeamID
	// ActiveTeamName is set when a reused participant still belongs to a
	// live team.
	ActiveTeamName string
}

func (r Resolution) Created() bool {
	return r.Outcome == OutcomeCreated
}

// IssuedCredential is a one-time password handed back to the approving
// administrator. It is never stored and never returned again.
type IssuedCredential struct {
	Role     id.Role `json:"role"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
}

// Result is a successful approval.
type Result struct {
	Team        *teammodels.Team   `json:"team"`
	Credentials []IssuedCredential `json:"credentials,omitempty"`
}

// Rejection reports a discarded registration.
type Rejection struct {
	RegistrationID id.RegistrationID `json:"registration_id"`
	TeamName       string            `json:"team_name"`
	Reason         string            `json:"reason"`
}
