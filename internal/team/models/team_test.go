package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
)

func TestNewApprovedTeam(t *testing.T) {
	now := time.Now()
	leader := id.NewIdentityID()
	admin := id.NewIdentityID()

	t.Run("leader is the first member", func(t *testing.T) {
		team, err := NewApprovedTeam(id.NewTeamID(), "  Byte Me ", leader, admin, now)
		require.NoError(t, err)
		assert.Equal(t, "Byte Me", team.Name)
		assert.Equal(t, []id.IdentityID{leader}, team.MemberIDs)
		assert.Equal(t, StatusApproved, team.Status)
		require.NotNil(t, team.ApprovedBy)
		assert.Equal(t, admin, *team.ApprovedBy)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := NewApprovedTeam(id.NewTeamID(), " ", leader, admin, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("nil leader", func(t *testing.T) {
		_, err := NewApprovedTeam(id.NewTeamID(), "X", id.IdentityID{}, admin, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestMembership(t *testing.T) {
	now := time.Now()
	leader := id.NewIdentityID()
	a, b := id.NewIdentityID(), id.NewIdentityID()
	team, err := NewApprovedTeam(id.NewTeamID(), "Team", leader, id.IdentityID{}, now)
	require.NoError(t, err)

	team.SetMembers([]id.IdentityID{a, leader, b, a}, now)
	assert.Equal(t, []id.IdentityID{leader, a, b}, team.MemberIDs)

	assert.True(t, dErrors.HasCode(team.RemoveMember(leader, now), dErrors.CodeValidation))
	assert.True(t, dErrors.HasCode(team.RemoveMember(id.NewIdentityID(), now), dErrors.CodeValidation))

	require.NoError(t, team.RemoveMember(a, now))
	assert.False(t, team.HasMember(a))
	assert.True(t, team.HasMember(b))

	clone := team.Clone()
	clone.MemberIDs[0] = id.NewIdentityID()
	assert.Equal(t, leader, team.MemberIDs[0])
}
