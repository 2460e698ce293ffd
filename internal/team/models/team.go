// Package models holds approved teams and their governance links.
package models

import (
	"slices"
	"strings"
	"time"

	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
)

// Status is the team lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Contact is a denormalized copy of a governance identity.
type Contact struct {
	ID       id.IdentityID `json:"id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	District string        `json:"district,omitempty"`
	State    string        `json:"state,omitempty"`
}

// Team is an active team created by promotion.
//
// Invariants:
//   - LeaderID is always in MemberIDs
//   - MemberIDs has no duplicates
//   - an identity belongs to at most one team; the store enforces it
type Team struct {
	ID                  id.TeamID        `json:"id"`
	Name                string           `json:"name"`
	LeaderID            id.IdentityID    `json:"leader_id"`
	MemberIDs           []id.IdentityID  `json:"member_ids"`
	InstituteCode       id.InstituteCode `json:"institute_code"`
	InstituteName       string           `json:"institute_name"`
	SPOC                Contact          `json:"spoc"`
	Mentor              Contact          `json:"mentor"`
	ConsentDocument     string           `json:"consent_document,omitempty"`
	ProblemID           *id.ProblemID    `json:"problem_id,omitempty"`
	Progress            int              `json:"progress"`
	Status              Status           `json:"status"`
	ApprovedBy          *id.IdentityID   `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time       `json:"approved_at,omitempty"`
	ApprovalRequested   bool             `json:"approval_requested"`
	ApprovalRequestedAt *time.Time       `json:"approval_requested_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// NewApprovedTeam builds a team whose only member so far is its leader.
func NewApprovedTeam(teamID id.TeamID, name string, leaderID, approvedBy id.IdentityID, now time.Time) (*Team, error) {
	if teamID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "team id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "team name is required")
	}
	if leaderID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "leader id is required")
	}
	t := &Team{
		ID:                teamID,
		Name:              name,
		LeaderID:          leaderID,
		MemberIDs:         []id.IdentityID{leaderID},
		Status:            StatusApproved,
		ApprovalRequested: true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if !approvedBy.IsNil() {
		by := approvedBy
		at := now
		t.ApprovedBy = &by
		t.ApprovedAt = &at
		t.ApprovalRequestedAt = &at
	}
	return t, nil
}

func (t *Team) HasMember(identityID id.IdentityID) bool {
	return slices.Contains(t.MemberIDs, identityID)
}

// SetMembers replaces the member list, keeping the leader first.
func (t *Team) SetMembers(memberIDs []id.IdentityID, now time.Time) {
	out := []id.IdentityID{t.LeaderID}
	for _, m := range memberIDs {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	t.MemberIDs = out
	t.UpdatedAt = now
}

// RemoveMember drops a non-leader member.
func (t *Team) RemoveMember(identityID id.IdentityID, now time.Time) error {
	if identityID == t.LeaderID {
		return dErrors.New(dErrors.CodeValidation, "cannot remove the team leader")
	}
	idx := slices.Index(t.MemberIDs, identityID)
	if idx < 0 {
		return dErrors.New(dErrors.CodeValidation, "identity is not a member of this team")
	}
	t.MemberIDs = slices.Delete(t.MemberIDs, idx, idx+1)
	t.UpdatedAt = now
	return nil
}

// Clone returns a deep copy.
func (t *Team) Clone() *Team {
	c := *t
	c.MemberIDs = slices.Clone(t.MemberIDs)
	if t.ProblemID != nil {
		p := *t.ProblemID
		c.ProblemID = &p
	}
	if t.ApprovedBy != nil {
		b := *t.ApprovedBy
		c.ApprovedBy = &b
	}
	if t.ApprovedAt != nil {
		a := *t.ApprovedAt
		c.ApprovedAt = &a
	}
	if t.ApprovalRequestedAt != nil {
		a := *t.ApprovalRequestedAt
		c.ApprovalRequestedAt = &a
	}
	return &c
}
