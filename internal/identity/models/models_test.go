package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
)

func TestNewIdentity(t *testing.T) {
	now := time.Now()
	t.Run("valid", func(t *testing.T) {
		ident, err := NewIdentity(id.NewIdentityID(), "lead@college.edu", id.RoleLeader, " Asha ", "hash", now)
		require.NoError(t, err)
		assert.Equal(t, "Asha", ident.Name)
		assert.False(t, ident.HasTeam())
	})
	t.Run("rejects bad input", func(t *testing.T) {
		_, err := NewIdentity(id.IdentityID{}, "lead@college.edu", id.RoleLeader, "", "hash", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		_, err = NewIdentity(id.NewIdentityID(), "not-an-email", id.RoleLeader, "", "hash", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		_, err = NewIdentity(id.NewIdentityID(), "lead@college.edu", id.Role("root"), "", "hash", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		_, err = NewIdentity(id.NewIdentityID(), "lead@college.edu", id.RoleLeader, "", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestIdentity_TeamAndBackfill(t *testing.T) {
	now := time.Now()
	ident := &Identity{ID: id.NewIdentityID(), District: "Pune"}
	teamID := id.NewTeamID()

	ident.AttachTeam(teamID, now)
	require.True(t, ident.HasTeam())
	assert.Equal(t, teamID, *ident.TeamID)

	ident.DetachTeam(now)
	assert.False(t, ident.HasTeam())

	assert.True(t, ident.BackfillLocation("Mumbai", "Maharashtra", now))
	assert.Equal(t, "Pune", ident.District, "existing district is kept")
	assert.Equal(t, "Maharashtra", ident.State)
	assert.False(t, ident.BackfillLocation("x", "y", now))
}

func TestCreateAccountRequest_Validate(t *testing.T) {
	valid := func() CreateAccountRequest {
		return CreateAccountRequest{
			Role: "SPOC ", Name: "Ravi", Email: "ravi@college.edu", Password: "longenough",
			InstituteCode: " mit01 ", InstituteName: "MIT",
		}
	}
	tests := []struct {
		name   string
		mutate func(r *CreateAccountRequest)
		ok     bool
	}{
		{"valid spoc", func(r *CreateAccountRequest) {}, true},
		{"student not creatable", func(r *CreateAccountRequest) { r.Role = "student" }, false},
		{"missing name", func(r *CreateAccountRequest) { r.Name = "" }, false},
		{"bad email", func(r *CreateAccountRequest) { r.Email = "ravi" }, false},
		{"short password", func(r *CreateAccountRequest) { r.Password = "short" }, false},
		{"judge needs institute name", func(r *CreateAccountRequest) { r.Role = "judge"; r.InstituteName = "" }, false},
		{"admin needs no institute", func(r *CreateAccountRequest) { r.Role = "admin"; r.InstituteName = ""; r.InstituteCode = "" }, true},
		{"spoc needs institute code", func(r *CreateAccountRequest) { r.InstituteCode = "  " }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			req.Normalize()
			err := req.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
			}
		})
	}

	req := valid()
	req.Normalize()
	assert.Equal(t, "spoc", req.Role)
	assert.Equal(t, "MIT01", req.InstituteCode)
}
