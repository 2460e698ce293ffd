// Package models holds staged team registrations awaiting review.
package models

import (
	"time"

	id "samved/pkg/domain"
)

// Status of a staged registration. Staged records are always pending; they
// are deleted on approval or rejection rather than transitioned.
type Status string

const StatusPending Status = "pending"

// RequiredMembers is the number of members besides the leader.
const RequiredMembers = 4

// Member is one non-leader participant as submitted.
type Member struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StagedRegistration is a submitted team that owns denormalized copies of
// all participants until promotion.
//
// Invariants:
//   - The leader email and the four member emails are pairwise distinct
//   - LeaderPasswordHash is a bcrypt hash, never plaintext
type StagedRegistration struct {
	ID                 id.RegistrationID `json:"id"`
	TeamName           string            `json:"team_name"`
	LeaderName         string            `json:"leader_name"`
	LeaderEmail        string            `json:"leader_email"`
	LeaderPhone        string            `json:"leader_phone"`
	LeaderPasswordHash string            `json:"-"`
	InstituteCode      id.InstituteCode  `json:"institute_code"`
	InstituteName      string            `json:"institute_name"`
	Members            []Member          `json:"members"`
	MentorName         string            `json:"mentor_name"`
	MentorEmail        string            `json:"mentor_email"`
	SPOCName           string            `json:"spoc_name"`
	SPOCEmail          string            `json:"spoc_email"`
	SPOCDistrict       string            `json:"spoc_district"`
	SPOCState          string            `json:"spoc_state"`
	ConsentDocument    string            `json:"consent_document"`
	ProblemID          *id.ProblemID     `json:"problem_id,omitempty"`
	Status             Status            `json:"status"`
	CreatedAt          time.Time         `json:"created_at"`
}

// ParticipantEmails returns the leader email followed by member emails.
func (r *StagedRegistration) ParticipantEmails() []string {
	out := make([]string, 0, 1+len(r.Members))
	out = append(out, r.LeaderEmail)
	for _, m := range r.Members {
		out = append(out, m.Email)
	}
	return out
}

// Clone returns a deep copy.
func (r *StagedRegistration) Clone() *StagedRegistration {
	c := *r
	c.Members = append([]Member(nil), r.Members...)
	if r.ProblemID != nil {
		p := *r.ProblemID
		c.ProblemID = &p
	}
	return &c
}
