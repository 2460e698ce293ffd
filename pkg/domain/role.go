package domain

import dErrors "samved/pkg/domain-errors"

// Role is the part a person plays in the event.
// Invariant: the value is one of the roles declared below.
//
// Construct via ParseRole at trust boundaries; direct casting bypasses the
// allowlist.
type Role string

const (
	RoleStudent Role = "student"
	RoleLeader  Role = "leader"
	RoleSPOC    Role = "spoc"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
	RoleJudge   Role = "judge"
)

var validRoles = map[Role]bool{
	RoleStudent: true,
	RoleLeader:  true,
	RoleSPOC:    true,
	RoleMentor:  true,
	RoleAdmin:   true,
	RoleJudge:   true,
}

// ParseRole validates a role from external input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role: "+s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// IsParticipant reports whether the role belongs to a team member. Team
// deletion removes participant identities and keeps everyone else.
func (r Role) IsParticipant() bool {
	return r == RoleStudent || r == RoleLeader
}

// IsSingleOccupancy reports whether at most one identity with this role may
// exist per institute code.
func (r Role) IsSingleOccupancy() bool {
	return r == RoleSPOC || r == RoleMentor
}

// DisplayName is the label used in outbound mail.
func (r Role) DisplayName() string {
	switch r {
	case RoleSPOC:
		return "Institute SPOC"
	case RoleMentor:
		return "Institute Mentor"
	case RoleLeader:
		return "Team Leader"
	case RoleStudent:
		return "Team Member"
	case RoleJudge:
		return "Judge"
	case RoleAdmin:
		return "Administrator"
	default:
		return string(r)
	}
}
