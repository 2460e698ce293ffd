package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"samved/internal/identity/models"
	id "samved/pkg/domain"
	"samved/pkg/platform/sentinel"
)

type IdentityStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestIdentityStoreSuite(t *testing.T) {
	suite.Run(t, new(IdentityStoreSuite))
}

func (s *IdentityStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *IdentityStoreSuite) newIdentity(addr string, role id.Role, code string) *models.Identity {
	ident, err := models.NewIdentity(id.NewIdentityID(), addr, role, "Test", "$2a$10$hash", time.Now())
	s.Require().NoError(err)
	ident.InstituteCode = id.NormalizeInstituteCode(code)
	return ident
}

func (s *IdentityStoreSuite) TestCreationAndLookups() {
	s.Run("finds by id and exact email", func() {
		ident := s.newIdentity("Lead@abc.edu", id.RoleLeader, "ABC")
		s.Require().NoError(s.store.Create(s.ctx, ident))

		byID, err := s.store.FindByID(s.ctx, ident.ID)
		s.Require().NoError(err)
		s.Equal(ident.Email, byID.Email)

		byEmail, err := s.store.FindByEmail(s.ctx, "Lead@abc.edu")
		s.Require().NoError(err)
		s.Equal(ident.ID, byEmail.ID)

		_, err = s.store.FindByEmail(s.ctx, "lead@abc.edu")
		s.Require().ErrorIs(err, sentinel.ErrNotFound, "lookups are exact-match")
	})

	s.Run("returned records are copies", func() {
		ident := s.newIdentity("copy@abc.edu", id.RoleStudent, "ABC")
		s.Require().NoError(s.store.Create(s.ctx, ident))

		found, err := s.store.FindByID(s.ctx, ident.ID)
		s.Require().NoError(err)
		found.AttachTeam(id.NewTeamID(), time.Now())

		again, err := s.store.FindByID(s.ctx, ident.ID)
		s.Require().NoError(err)
		s.False(again.HasTeam())
	})
}

func (s *IdentityStoreSuite) TestUniqueness() {
	s.Run("duplicate email is already used", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newIdentity("dup@abc.edu", id.RoleJudge, "")))
		err := s.store.Create(s.ctx, s.newIdentity("dup@abc.edu", id.RoleAdmin, ""))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("second spoc for an institute conflicts", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newIdentity("spoc1@x.edu", id.RoleSPOC, "XYZ")))
		err := s.store.Create(s.ctx, s.newIdentity("spoc2@x.edu", id.RoleSPOC, "xyz"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		occupant, err := s.store.FindOccupant(s.ctx, id.RoleSPOC, "XYZ")
		s.Require().NoError(err)
		s.Equal("spoc1@x.edu", occupant.Email)
	})

	s.Run("students do not occupy institutes", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newIdentity("s1@x.edu", id.RoleStudent, "XYZ")))
		s.Require().NoError(s.store.Create(s.ctx, s.newIdentity("s2@x.edu", id.RoleStudent, "XYZ")))
	})
}

func (s *IdentityStoreSuite) TestUpdateAndDelete() {
	ident := s.newIdentity("member@abc.edu", id.RoleStudent, "ABC")
	s.Require().NoError(s.store.Create(s.ctx, ident))

	teamID := id.NewTeamID()
	ident.AttachTeam(teamID, time.Now())
	s.Require().NoError(s.store.Update(s.ctx, ident))

	members, err := s.store.ListByTeam(s.ctx, teamID)
	s.Require().NoError(err)
	s.Len(members, 1)

	s.Require().NoError(s.store.Delete(s.ctx, ident.ID))
	s.Require().ErrorIs(s.store.Delete(s.ctx, ident.ID), sentinel.ErrNotFound)
	s.Require().ErrorIs(s.store.Update(s.ctx, ident), sentinel.ErrNotFound)

	_, err = s.store.FindByEmail(s.ctx, "member@abc.edu")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
