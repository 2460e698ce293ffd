package models

import (
	"strings"
	"time"

	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
)

// Institute is a directory entry keyed by normalized institute code. The
// directory is informational; governance decisions never read it.
type Institute struct {
	Code      id.InstituteCode `json:"code"`
	Name      string           `json:"name"`
	District  string           `json:"district,omitempty"`
	State     string           `json:"state,omitempty"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewInstitute normalizes the code and requires it to be non-empty.
func NewInstitute(rawCode, name, district, state string, now time.Time) (*Institute, error) {
	code := id.NormalizeInstituteCode(rawCode)
	if code.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institute code is required")
	}
	return &Institute{
		Code:      code,
		Name:      strings.TrimSpace(name),
		District:  strings.TrimSpace(district),
		State:     strings.TrimSpace(state),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Merge applies an incoming sighting onto an existing entry: a non-empty
// name replaces the stored one, district and state are only backfilled.
func (i *Institute) Merge(in *Institute) {
	if in.Name != "" {
		i.Name = in.Name
	}
	if i.District == "" {
		i.District = in.District
	}
	if i.State == "" {
		i.State = in.State
	}
	i.Active = true
	i.UpdatedAt = in.UpdatedAt
}
