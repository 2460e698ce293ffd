// Package domain holds the primitive value types shared across bounded
// contexts: typed identifiers, participant roles and institute codes.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "samved/pkg/domain-errors"
)

// Typed identifiers keep identities, teams and staged registrations from
// being passed where another kind of id is expected.
type (
	IdentityID     uuid.UUID
	TeamID         uuid.UUID
	RegistrationID uuid.UUID
	NotificationID uuid.UUID
	ProblemID      uuid.UUID
)

func NewIdentityID() IdentityID         { return IdentityID(uuid.New()) }
func NewTeamID() TeamID                 { return TeamID(uuid.New()) }
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

func (i IdentityID) String() string     { return uuid.UUID(i).String() }
func (i TeamID) String() string         { return uuid.UUID(i).String() }
func (i RegistrationID) String() string { return uuid.UUID(i).String() }
func (i NotificationID) String() string { return uuid.UUID(i).String() }
func (i ProblemID) String() string      { return uuid.UUID(i).String() }

func (i IdentityID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }
func (i TeamID) IsNil() bool         { return uuid.UUID(i) == uuid.Nil }
func (i RegistrationID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i NotificationID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i ProblemID) IsNil() bool      { return uuid.UUID(i) == uuid.Nil }

func (i IdentityID) MarshalText() ([]byte, error)     { return uuid.UUID(i).MarshalText() }
func (i TeamID) MarshalText() ([]byte, error)         { return uuid.UUID(i).MarshalText() }
func (i RegistrationID) MarshalText() ([]byte, error) { return uuid.UUID(i).MarshalText() }
func (i NotificationID) MarshalText() ([]byte, error) { return uuid.UUID(i).MarshalText() }
func (i ProblemID) MarshalText() ([]byte, error)      { return uuid.UUID(i).MarshalText() }

func (i *IdentityID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *TeamID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *RegistrationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *NotificationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *ProblemID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(i).UnmarshalText(b) }

// ParseIdentityID parses an identity id at a trust boundary.
func ParseIdentityID(s string) (IdentityID, error) {
	u, err := parseUUID(s, "identity")
	return IdentityID(u), err
}

// ParseTeamID parses a team id at a trust boundary.
func ParseTeamID(s string) (TeamID, error) {
	u, err := parseUUID(s, "team")
	return TeamID(u), err
}

// ParseRegistrationID parses a staged registration id at a trust boundary.
func ParseRegistrationID(s string) (RegistrationID, error) {
	u, err := parseUUID(s, "registration")
	return RegistrationID(u), err
}

// ParseProblemID parses a problem statement id. The empty string is allowed
// and yields the nil id because the problem preference is optional.
func ParseProblemID(s string) (ProblemID, error) {
	if strings.TrimSpace(s) == "" {
		return ProblemID{}, nil
	}
	u, err := parseUUID(s, "problem")
	return ProblemID(u), err
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return u, nil
}
