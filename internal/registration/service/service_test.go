package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	identitymodels "samved/internal/identity/models"
	identitystore "samved/internal/identity/store"
	notifymodels "samved/internal/notify/models"
	"samved/internal/notify/outbox"
	"samved/internal/registration/models"
	"samved/internal/registration/store"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/audit/publisher"
	auditmemory "samved/pkg/platform/audit/store/memory"
)

type activeTeams map[string]bool

func (t activeTeams) ExistsByName(_ context.Context, name string) (bool, error) {
	return t[name], nil
}

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *store.InMemory
	identities *identitystore.InMemory
	teams      activeTeams
	outbox     *outbox.Outbox
	audit      *auditmemory.InMemoryStore
	service    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.identities = identitystore.NewInMemory()
	s.teams = activeTeams{}
	s.outbox = outbox.New(16)
	s.audit = auditmemory.NewInMemoryStore()
	s.service = New(s.store, s.identities, s.teams, s.outbox,
		WithAuditPublisher(publisher.NewPublisher(s.audit)),
	)
}

func request(teamName, leader string, members ...string) *models.SubmitRequest {
	req := &models.SubmitRequest{
		TeamName:        teamName,
		LeaderName:      "Lead Person",
		LeaderEmail:     leader,
		LeaderPhone:     "9876543210",
		LeaderPassword:  "hunter22!",
		InstituteCode:   " abc ",
		InstituteName:   "ABC College",
		MentorName:      "Mentor",
		MentorEmail:     "mentor@abc.edu",
		SPOCName:        "Spoc",
		SPOCEmail:       "spoc@abc.edu",
		SPOCDistrict:    "Pune",
		SPOCState:       "MH",
		ConsentDocument: "uploads/consent.pdf",
	}
	for _, m := range members {
		req.Members = append(req.Members, models.Member{Name: "Member", Email: m})
	}
	return req
}

func (s *ServiceSuite) seedIdentity(addr string, role id.Role, team *id.TeamID) {
	ident, err := identitymodels.NewIdentity(id.NewIdentityID(), addr, role, "Someone", "hash", time.Now())
	s.Require().NoError(err)
	ident.TeamID = team
	s.Require().NoError(s.identities.Create(s.ctx, ident))
}

func (s *ServiceSuite) TestSubmit() {
	s.Run("stages registration and queues acknowledgement", func() {
		regID, err := s.service.Submit(s.ctx, request("Byte Me", "lead@abc.edu",
			"m1@abc.edu", "m2@abc.edu", "m3@abc.edu", "m4@abc.edu"))
		s.Require().NoError(err)

		reg, err := s.store.FindByID(s.ctx, regID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, reg.Status)
		s.Equal(id.InstituteCode("ABC"), reg.InstituteCode)
		s.NoError(bcrypt.CompareHashAndPassword([]byte(reg.LeaderPasswordHash), []byte("hunter22!")))
		s.Nil(reg.ProblemID)

		intents := s.outbox.DequeueBatch(10)
		s.Require().Len(intents, 1)
		s.Equal(notifymodels.KindRegistrationReceived, intents[0].Kind)
		s.Equal("lead@abc.edu", intents[0].To)
		s.Equal("Byte Me", intents[0].TeamName)

		s.Contains(s.audit.Actions(), "registration_staged")
	})

	s.Run("records problem preference when given", func() {
		req := request("Problem Solvers", "ps@abc.edu", "p1@abc.edu", "p2@abc.edu", "p3@abc.edu", "p4@abc.edu")
		problem := id.NewRegistrationID().String()
		req.ProblemID = problem
		regID, err := s.service.Submit(s.ctx, req)
		s.Require().NoError(err)
		reg, err := s.store.FindByID(s.ctx, regID)
		s.Require().NoError(err)
		s.Require().NotNil(reg.ProblemID)
		s.Equal(problem, reg.ProblemID.String())
	})
}

func (s *ServiceSuite) TestSubmitRefusals() {
	s.Run("validation failure", func() {
		req := request("Team", "lead@abc.edu", "m1@abc.edu", "m2@abc.edu", "m3@abc.edu", "m4@abc.edu")
		req.LeaderPassword = "short"
		_, err := s.service.Submit(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("team name pending", func() {
		_, err := s.service.Submit(s.ctx, request("Dupe", "a@abc.edu", "a1@abc.edu", "a2@abc.edu", "a3@abc.edu", "a4@abc.edu"))
		s.Require().NoError(err)
		_, err = s.service.Submit(s.ctx, request("Dupe", "b@abc.edu", "b1@abc.edu", "b2@abc.edu", "b3@abc.edu", "b4@abc.edu"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "team name already exists")
	})

	s.Run("team name active", func() {
		s.teams["Live Team"] = true
		_, err := s.service.Submit(s.ctx, request("Live Team", "c@abc.edu", "c1@abc.edu", "c2@abc.edu", "c3@abc.edu", "c4@abc.edu"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("leader already an identity", func() {
		s.seedIdentity("judge@abc.edu", id.RoleJudge, nil)
		_, err := s.service.Submit(s.ctx, request("Judges", "judge@abc.edu", "d1@abc.edu", "d2@abc.edu", "d3@abc.edu", "d4@abc.edu"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "leader email")
	})

	s.Run("leader already leads a pending registration", func() {
		_, err := s.service.Submit(s.ctx, request("Other Name", "a@abc.edu", "e1@abc.edu", "e2@abc.edu", "e3@abc.edu", "e4@abc.edu"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "leader email")
	})

	s.Run("wrong member count is validation", func() {
		_, err := s.service.Submit(s.ctx, request("Trio", "f@abc.edu", "f1@abc.edu", "f2@abc.edu", "f3@abc.edu"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "exactly 5 members")
	})

	s.Run("duplicate participant emails", func() {
		_, err := s.service.Submit(s.ctx, request("Echo", "g@abc.edu", "g1@abc.edu", "g1@abc.edu", "g3@abc.edu", "g@abc.edu"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "g1@abc.edu")
		s.Contains(err.Error(), "g@abc.edu")
	})

	s.Run("member already in an active team", func() {
		teamID := id.NewTeamID()
		s.seedIdentity("busy@abc.edu", id.RoleStudent, &teamID)
		_, err := s.service.Submit(s.ctx, request("Busy", "h@abc.edu", "busy@abc.edu", "h2@abc.edu", "h3@abc.edu", "h4@abc.edu"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "busy@abc.edu")
	})

	s.Run("member identity without team is accepted", func() {
		s.seedIdentity("free@abc.edu", id.RoleStudent, nil)
		_, err := s.service.Submit(s.ctx, request("Free", "i@abc.edu", "free@abc.edu", "i2@abc.edu", "i3@abc.edu", "i4@abc.edu"))
		s.NoError(err)
	})

	s.Run("member pending elsewhere", func() {
		_, err := s.service.Submit(s.ctx, request("Poach", "j@abc.edu", "a1@abc.edu", "j2@abc.edu", "j3@abc.edu", "j4@abc.edu"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "another pending registration")
	})

	s.Run("refusals leave nothing staged or queued", func() {
		pending, err := s.service.ListPending(s.ctx)
		s.Require().NoError(err)
		s.Len(pending, 2)
		s.Equal("Free", pending[0].TeamName)
	})
}

func (s *ServiceSuite) TestGetPending() {
	s.Run("not found", func() {
		_, err := s.service.GetPending(s.ctx, id.NewRegistrationID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("found", func() {
		regID, err := s.service.Submit(s.ctx, request("Found", "k@abc.edu", "k1@abc.edu", "k2@abc.edu", "k3@abc.edu", "k4@abc.edu"))
		s.Require().NoError(err)
		reg, err := s.service.GetPending(s.ctx, regID)
		s.Require().NoError(err)
		s.Equal("Found", reg.TeamName)
	})
}
