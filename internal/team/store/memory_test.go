package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "samved/pkg/domain"
	"samved/pkg/platform/sentinel"
)

type TeamStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestTeamStoreSuite(t *testing.T) {
	suite.Run(t, new(TeamStoreSuite))
}

func (s *TeamStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *TeamStoreSuite) TestCreate() {
	s.Run("name is unique", func() {
		s.Require().NoError(s.store.Create(s.ctx, newTeam("Byte Me")))
		err := s.store.Create(s.ctx, newTeam("Byte Me"))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)

		exists, err := s.store.ExistsByName(s.ctx, "Byte Me")
		s.Require().NoError(err)
		s.True(exists)
		exists, err = s.store.ExistsByName(s.ctx, "byte me")
		s.Require().NoError(err)
		s.False(exists)
	})

	s.Run("identity belongs to at most one team", func() {
		shared := id.NewIdentityID()
		s.Require().NoError(s.store.Create(s.ctx, newTeam("First", shared)))
		err := s.store.Create(s.ctx, newTeam("Second", shared))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *TeamStoreSuite) TestUpdateMembers() {
	a, b := id.NewIdentityID(), id.NewIdentityID()
	team := newTeam("Growing")
	s.Require().NoError(s.store.Create(s.ctx, team))

	s.Run("replaces member set", func() {
		team.SetMembers([]id.IdentityID{a, b}, time.Now())
		s.Require().NoError(s.store.UpdateMembers(s.ctx, team))
		found, err := s.store.FindByID(s.ctx, team.ID)
		s.Require().NoError(err)
		s.Equal([]id.IdentityID{team.LeaderID, a, b}, found.MemberIDs)
	})

	s.Run("removed members are free again", func() {
		s.Require().NoError(team.RemoveMember(b, time.Now()))
		s.Require().NoError(s.store.UpdateMembers(s.ctx, team))
		s.Require().NoError(s.store.Create(s.ctx, newTeam("Other", b)))
	})

	s.Run("member on another team conflicts", func() {
		team.SetMembers([]id.IdentityID{a, b}, time.Now())
		s.ErrorIs(s.store.UpdateMembers(s.ctx, team), sentinel.ErrConflict)
	})

	s.Run("unknown team", func() {
		s.ErrorIs(s.store.UpdateMembers(s.ctx, newTeam("Ghost")), sentinel.ErrNotFound)
	})
}

func (s *TeamStoreSuite) TestDeleteAndList() {
	member := id.NewIdentityID()
	older := newTeam("Older", member)
	newer := newTeam("Newer")
	newer.CreatedAt = older.CreatedAt.Add(time.Minute)
	s.Require().NoError(s.store.Create(s.ctx, older))
	s.Require().NoError(s.store.Create(s.ctx, newer))

	teams, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(teams, 2)
	s.Equal("Newer", teams[0].Name)

	s.Require().NoError(s.store.Delete(s.ctx, older.ID))
	s.ErrorIs(s.store.Delete(s.ctx, older.ID), sentinel.ErrNotFound)
	_, err = s.store.FindByID(s.ctx, older.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Create(s.ctx, newTeam("Reuses member", member)))
}
