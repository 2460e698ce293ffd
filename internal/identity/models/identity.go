package models

import (
	"strings"
	"time"

	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/email"
)

// Identity is one person known to the event, keyed by email.
//
// Invariants:
//   - Email is globally unique and compared exactly as stored
//   - At most one spoc and one mentor share an institute code
//   - TeamID, when set, names the active team the person belongs to; it may
//     dangle if that team was removed outside the deletion cascade
type Identity struct {
	ID            id.IdentityID    `json:"id"`
	Email         string           `json:"email"`
	PasswordHash  string           `json:"-"`
	Role          id.Role          `json:"role"`
	Name          string           `json:"name"`
	Phone         string           `json:"phone,omitempty"`
	InstituteCode id.InstituteCode `json:"institute_code,omitempty"`
	InstituteName string           `json:"institute_name,omitempty"`
	District      string           `json:"district,omitempty"`
	State         string           `json:"state,omitempty"`
	TeamID        *id.TeamID       `json:"team_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewIdentity validates and builds an identity.
func NewIdentity(identityID id.IdentityID, addr string, role id.Role, name, passwordHash string, now time.Time) (*Identity, error) {
	if identityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity id is required")
	}
	if !email.Valid(addr) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email is invalid")
	}
	if _, err := id.ParseRole(role.String()); err != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "role is invalid")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	return &Identity{
		ID:           identityID,
		Email:        addr,
		Role:         role,
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// HasTeam reports whether a team back-reference is set.
func (i *Identity) HasTeam() bool {
	return i.TeamID != nil && !i.TeamID.IsNil()
}

// AttachTeam points the identity at a team.
func (i *Identity) AttachTeam(teamID id.TeamID, now time.Time) {
	t := teamID
	i.TeamID = &t
	i.UpdatedAt = now
}

// DetachTeam clears the team back-reference.
func (i *Identity) DetachTeam(now time.Time) {
	i.TeamID = nil
	i.UpdatedAt = now
}

// BackfillLocation fills district and state only where they are empty.
// Returns true when anything changed.
func (i *Identity) BackfillLocation(district, state string, now time.Time) bool {
	changed := false
	if i.District == "" && strings.TrimSpace(district) != "" {
		i.District = strings.TrimSpace(district)
		changed = true
	}
	if i.State == "" && strings.TrimSpace(state) != "" {
		i.State = strings.TrimSpace(state)
		changed = true
	}
	if changed {
		i.UpdatedAt = now
	}
	return changed
}
