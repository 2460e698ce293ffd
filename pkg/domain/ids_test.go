package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "samved/pkg/domain-errors"
)

// TestParseID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseRegistrationID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseTeamID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseIdentityID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		parsed, err := ParseIdentityID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, IdentityID(valid), parsed)
	})
}

func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE teams;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistrationID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseProblemID_Optional(t *testing.T) {
	pid, err := ParseProblemID("")
	require.NoError(t, err)
	assert.True(t, pid.IsNil())

	_, err = ParseProblemID("nope")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestIDs_JSONRoundTripAsString(t *testing.T) {
	teamID := NewTeamID()
	raw, err := json.Marshal(map[string]TeamID{"team_id": teamID})
	require.NoError(t, err)
	assert.Contains(t, string(raw), teamID.String())

	var decoded struct {
		TeamID TeamID `json:"team_id"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, teamID, decoded.TeamID)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("spoc")
	require.NoError(t, err)
	assert.True(t, r.IsSingleOccupancy())
	assert.False(t, r.IsParticipant())

	_, err = ParseRole("superuser")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	assert.True(t, RoleLeader.IsParticipant())
	assert.True(t, RoleStudent.IsParticipant())
	assert.False(t, RoleJudge.IsSingleOccupancy())
}

func TestNormalizeInstituteCode(t *testing.T) {
	assert.Equal(t, InstituteCode("MITVPU01"), NormalizeInstituteCode("  mitvpu01 "))
	assert.True(t, NormalizeInstituteCode("   ").IsEmpty())
}
