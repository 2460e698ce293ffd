package models

import (
	"strings"

	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/email"
)

// MinPasswordLength applies to the leader's chosen password.
const MinPasswordLength = 8

// SubmitRequest is the public registration payload.
type SubmitRequest struct {
	TeamName        string   `json:"team_name"`
	LeaderName      string   `json:"leader_name"`
	LeaderEmail     string   `json:"leader_email"`
	LeaderPhone     string   `json:"leader_phone"`
	LeaderPassword  string   `json:"leader_password"`
	InstituteCode   string   `json:"institute_code"`
	InstituteName   string   `json:"institute_name"`
	Members         []Member `json:"members"`
	MentorName      string   `json:"mentor_name"`
	MentorEmail     string   `json:"mentor_email"`
	SPOCName        string   `json:"spoc_name"`
	SPOCEmail       string   `json:"spoc_email"`
	SPOCDistrict    string   `json:"spoc_district"`
	SPOCState       string   `json:"spoc_state"`
	ConsentDocument string   `json:"consent_document"`
	ProblemID       string   `json:"problem_id"`
}

// Normalize trims whitespace. Emails keep their case because identity
// lookups are exact-match on the stored value.
func (r *SubmitRequest) Normalize() {
	r.TeamName = strings.TrimSpace(r.TeamName)
	r.LeaderName = strings.TrimSpace(r.LeaderName)
	r.LeaderEmail = strings.TrimSpace(r.LeaderEmail)
	r.LeaderPhone = strings.TrimSpace(r.LeaderPhone)
	r.InstituteCode = id.NormalizeInstituteCode(r.InstituteCode).String()
	r.InstituteName = strings.TrimSpace(r.InstituteName)
	for i := range r.Members {
		r.Members[i].Name = strings.TrimSpace(r.Members[i].Name)
		r.Members[i].Email = strings.TrimSpace(r.Members[i].Email)
	}
	r.MentorName = strings.TrimSpace(r.MentorName)
	r.MentorEmail = strings.TrimSpace(r.MentorEmail)
	r.SPOCName = strings.TrimSpace(r.SPOCName)
	r.SPOCEmail = strings.TrimSpace(r.SPOCEmail)
	r.SPOCDistrict = strings.TrimSpace(r.SPOCDistrict)
	r.SPOCState = strings.TrimSpace(r.SPOCState)
	r.ConsentDocument = strings.TrimSpace(r.ConsentDocument)
	r.ProblemID = strings.TrimSpace(r.ProblemID)
}

// Validate checks field shape. Member count and cross-record uniqueness are
// checked by the service in their documented order.
func (r *SubmitRequest) Validate() error {
	required := []struct{ value, field string }{
		{r.TeamName, "team_name"},
		{r.LeaderName, "leader_name"},
		{r.LeaderPhone, "leader_phone"},
		{r.InstituteCode, "institute_code"},
		{r.InstituteName, "institute_name"},
		{r.MentorName, "mentor_name"},
		{r.SPOCName, "spoc_name"},
		{r.ConsentDocument, "consent_document"},
	}
	for _, f := range required {
		if f.value == "" {
			return dErrors.New(dErrors.CodeValidation, f.field+" is required")
		}
	}
	if len(r.TeamName) > 100 {
		return dErrors.New(dErrors.CodeValidation, "team_name must be at most 100 characters")
	}
	emails := []struct{ value, field string }{
		{r.LeaderEmail, "leader_email"},
		{r.MentorEmail, "mentor_email"},
		{r.SPOCEmail, "spoc_email"},
	}
	for _, f := range emails {
		if !email.Valid(f.value) {
			return dErrors.New(dErrors.CodeValidation, f.field+" is invalid")
		}
	}
	if len(r.LeaderPassword) < MinPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "leader_password must be at least 8 characters")
	}
	for _, m := range r.Members {
		if m.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "member name is required")
		}
		if !email.Valid(m.Email) {
			return dErrors.New(dErrors.CodeValidation, "member email is invalid: "+m.Email)
		}
	}
	if _, err := id.ParseProblemID(r.ProblemID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "problem_id is invalid")
	}
	return nil
}

// ParticipantEmails returns the leader email followed by member emails.
func (r *SubmitRequest) ParticipantEmails() []string {
	out := make([]string, 0, 1+len(r.Members))
	out = append(out, r.LeaderEmail)
	for _, m := range r.Members {
		out = append(out, m.Email)
	}
	return out
}

// RejectRequest carries the administrator's free-text reason.
type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *RejectRequest) Validate() error {
	if len(r.Reason) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 2000 characters")
	}
	return nil
}
