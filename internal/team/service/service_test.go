package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	identitymodels "samved/internal/identity/models"
	identitystore "samved/internal/identity/store"
	notifymodels "samved/internal/notify/models"
	"samved/internal/notify/outbox"
	"samved/internal/team/models"
	"samved/internal/team/store"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/audit/publisher"
	auditmemory "samved/pkg/platform/audit/store/memory"
	"samved/pkg/platform/sentinel"
	"samved/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	teams      *store.InMemory
	identities *identitystore.InMemory
	outbox     *outbox.Outbox
	audit      *auditmemory.InMemoryStore
	service    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithActor(context.Background(), id.NewIdentityID(), id.RoleAdmin)
	s.teams = store.NewInMemory()
	s.identities = identitystore.NewInMemory()
	s.outbox = outbox.New(16)
	s.audit = auditmemory.NewInMemoryStore()
	s.service = New(s.teams, s.identities, s.outbox,
		WithAuditPublisher(publisher.NewPublisher(s.audit)),
	)
}

func (s *ServiceSuite) identity(addr string, role id.Role, code string) *identitymodels.Identity {
	ident, err := identitymodels.NewIdentity(id.NewIdentityID(), addr, role, "Person", "hash", time.Now())
	s.Require().NoError(err)
	ident.InstituteCode = id.InstituteCode(code)
	s.Require().NoError(s.identities.Create(s.ctx, ident))
	return ident
}

func (s *ServiceSuite) attach(ident *identitymodels.Identity, teamID id.TeamID) {
	ident.AttachTeam(teamID, time.Now())
	s.Require().NoError(s.identities.Update(s.ctx, ident))
}

// seedTeam builds a promoted team: leader + two students attached, spoc and
// mentor referenced only through the governance contacts.
func (s *ServiceSuite) seedTeam(name string) (*models.Team, []*identitymodels.Identity) {
	leader := s.identity(name+"-lead@abc.edu", id.RoleLeader, "")
	m1 := s.identity(name+"-m1@abc.edu", id.RoleStudent, "")
	m2 := s.identity(name+"-m2@abc.edu", id.RoleStudent, "")
	team, err := models.NewApprovedTeam(id.NewTeamID(), name, leader.ID, id.NewIdentityID(), time.Now())
	s.Require().NoError(err)
	team.SetMembers([]id.IdentityID{m1.ID, m2.ID}, time.Now())
	s.Require().NoError(s.teams.Create(s.ctx, team))
	for _, ident := range []*identitymodels.Identity{leader, m1, m2} {
		s.attach(ident, team.ID)
	}
	return team, []*identitymodels.Identity{leader, m1, m2}
}

func (s *ServiceSuite) TestGetTeam() {
	_, err := s.service.GetTeam(s.ctx, id.NewTeamID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	team, _ := s.seedTeam("Readers")
	found, err := s.service.GetTeam(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Equal(team.MemberIDs, found.MemberIDs)

	teams, err := s.service.ListTeams(s.ctx)
	s.Require().NoError(err)
	s.Len(teams, 1)
}

func (s *ServiceSuite) TestDeleteTeam() {
	s.Run("deletes participants and detaches preserved identities", func() {
		team, people := s.seedTeam("Doomed")
		judge := s.identity("judge@abc.edu", id.RoleJudge, "")
		team.SetMembers([]id.IdentityID{people[1].ID, people[2].ID, judge.ID}, time.Now())
		s.Require().NoError(s.teams.UpdateMembers(s.ctx, team))
		s.attach(judge, team.ID)
		spoc := s.identity("spoc@abc.edu", id.RoleSPOC, "ABC")
		s.attach(spoc, team.ID)

		result, err := s.service.DeleteTeam(s.ctx, team.ID)
		s.Require().NoError(err)
		s.ElementsMatch([]id.IdentityID{people[0].ID, people[1].ID, people[2].ID}, result.Deleted)
		s.ElementsMatch([]id.IdentityID{judge.ID, spoc.ID}, result.Detached)

		for _, p := range people {
			_, err := s.identities.FindByID(s.ctx, p.ID)
			s.ErrorIs(err, sentinel.ErrNotFound)
		}
		for _, kept := range []id.IdentityID{judge.ID, spoc.ID} {
			ident, err := s.identities.FindByID(s.ctx, kept)
			s.Require().NoError(err)
			s.False(ident.HasTeam(), "no dangling reference is left behind")
		}
		_, err = s.teams.FindByID(s.ctx, team.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.Contains(s.audit.Actions(), "team_deleted")
	})

	s.Run("unknown team", func() {
		_, err := s.service.DeleteTeam(s.ctx, id.NewTeamID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("team name is free again", func() {
		team, _ := s.seedTeam("Doomed")
		s.Equal("Doomed", team.Name)
	})
}

func (s *ServiceSuite) TestRemoveMember() {
	team, people := s.seedTeam("Shrinking")

	s.Run("leader cannot be removed", func() {
		_, err := s.service.RemoveMember(s.ctx, team.ID, people[0].ID)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("non member", func() {
		_, err := s.service.RemoveMember(s.ctx, team.ID, id.NewIdentityID())
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown team", func() {
		_, err := s.service.RemoveMember(s.ctx, id.NewTeamID(), people[1].ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("removes member, clears reference and notifies", func() {
		updated, err := s.service.RemoveMember(s.ctx, team.ID, people[1].ID)
		s.Require().NoError(err)
		s.False(updated.HasMember(people[1].ID))

		stored, err := s.teams.FindByID(s.ctx, team.ID)
		s.Require().NoError(err)
		s.Equal([]id.IdentityID{people[0].ID, people[2].ID}, stored.MemberIDs)

		ident, err := s.identities.FindByID(s.ctx, people[1].ID)
		s.Require().NoError(err)
		s.False(ident.HasTeam())

		intents := s.outbox.DequeueBatch(10)
		s.Require().Len(intents, 2)
		s.Equal(notifymodels.KindInApp, intents[0].Kind)
		s.Equal([]id.IdentityID{people[1].ID}, intents[0].Recipients)
		s.Equal(notifymodels.LevelWarning, intents[0].Level)
		s.Equal(notifymodels.KindTeamMemberRemoved, intents[1].Kind)
		s.Equal(people[1].Email, intents[1].To)

		s.Contains(s.audit.Actions(), "team_member_removed")
	})
}
