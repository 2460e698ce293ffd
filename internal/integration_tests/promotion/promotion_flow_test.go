//go:build integration

package promotion

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	identitystore "samved/internal/identity/store"
	instituteservice "samved/internal/institute/service"
	institutestore "samved/internal/institute/store"
	"samved/internal/notify/outbox"
	promotionhandler "samved/internal/promotion/handler"
	promotionmodels "samved/internal/promotion/models"
	promotionservice "samved/internal/promotion/service"
	registrationhandler "samved/internal/registration/handler"
	registrationservice "samved/internal/registration/service"
	registrationstore "samved/internal/registration/store"
	teamhandler "samved/internal/team/handler"
	teamservice "samved/internal/team/service"
	teamstore "samved/internal/team/store"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	auditmemory "samved/pkg/platform/audit/store/memory"
	"samved/pkg/platform/audit/publisher"
	"samved/pkg/platform/middleware/request"
	"samved/pkg/platform/sentinel"
	txcontext "samved/pkg/platform/tx"
	"samved/pkg/requestcontext"
	"samved/pkg/testutil"
	"samved/pkg/testutil/containers"
)

type txRunner struct{ db *sql.DB }

func (t txRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, t.db, fn)
}

// PromotionFlowSuite drives submit, approve and delete over HTTP against
// the Postgres stores.
type PromotionFlowSuite struct {
	suite.Suite
	postgres      *containers.PostgresContainer
	identities    *identitystore.PostgresStore
	teams         *teamstore.PostgresStore
	registrations *registrationstore.PostgresStore
	audit         *auditmemory.InMemoryStore
	router        http.Handler
}

func TestPromotionFlowSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PromotionFlowSuite))
}

func (s *PromotionFlowSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	db := s.postgres.DB
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.identities = identitystore.NewPostgres(db)
	s.teams = teamstore.NewPostgres(db)
	s.registrations = registrationstore.NewPostgres(db)
	s.audit = auditmemory.NewInMemoryStore()
	auditPublisher := publisher.NewPublisher(s.audit)
	notifications := outbox.New(256)
	institutes := instituteservice.New(institutestore.NewPostgres(db))

	registrationSvc := registrationservice.New(s.registrations, s.identities, s.teams, notifications,
		registrationservice.WithLogger(logger),
		registrationservice.WithAuditPublisher(auditPublisher),
	)
	promotionSvc := promotionservice.New(s.registrations, s.identities, s.teams, notifications,
		promotionservice.WithLogger(logger),
		promotionservice.WithAuditPublisher(auditPublisher),
		promotionservice.WithInstituteSyncer(institutes),
	)
	teamSvc := teamservice.New(s.teams, s.identities, notifications,
		teamservice.WithLogger(logger),
		teamservice.WithAuditPublisher(auditPublisher),
		teamservice.WithTxRunner(txRunner{db: db}),
	)

	admin := id.NewIdentityID()
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithActor(req.Context(), admin, id.RoleAdmin)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	registrations := registrationhandler.New(registrationSvc, logger)
	registrations.RegisterPublic(r)
	registrations.RegisterAdmin(r)
	promotionhandler.New(promotionSvc, logger).Register(r)
	teamhandler.New(teamSvc, logger).Register(r)
	s.router = r
}

func (s *PromotionFlowSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"team_members", "identities", "teams", "staged_registrations", "institutes"))
	s.audit.Clear()
}

func submission(team, prefix string) map[string]any {
	members := make([]map[string]string, 0, 4)
	for i := 1; i <= 4; i++ {
		members = append(members, map[string]string{
			"name":  fmt.Sprintf("Member %d", i),
			"email": fmt.Sprintf("%s-m%d@flow.test", prefix, i),
		})
	}
	return map[string]any{
		"team_name":        team,
		"leader_name":      "Lead " + team,
		"leader_email":     prefix + "-lead@flow.test",
		"leader_phone":     "9876543210",
		"leader_password":  "flow-password-1",
		"institute_code":   "FLOW01",
		"institute_name":   "Flow Institute",
		"members":          members,
		"mentor_name":      "Mentor",
		"mentor_email":     "mentor@flow.test",
		"spoc_name":        "Spoc",
		"spoc_email":       "spoc@flow.test",
		"spoc_district":    "Pune",
		"spoc_state":       "Maharashtra",
		"consent_document": "consent.pdf",
	}
}

func (s *PromotionFlowSuite) submit(team, prefix string) string {
	rr := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/registrations", submission(team, prefix)))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	regID, ok := (*body)["registration_id"].(string)
	s.Require().True(ok)
	return regID
}

type approveBody struct {
	Message string `json:"message"`
	promotionmodels.Result
}

func (s *PromotionFlowSuite) approve(regID string) *approveBody {
	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodPost, "/admin/registrations/"+regID+"/approve"))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return testutil.UnmarshalResponse[approveBody](s.T(), rr)
}

func (s *PromotionFlowSuite) TestApproveMaterializesTeam() {
	ctx := context.Background()
	regID := s.submit("Byte Force", "bf")

	body := s.approve(regID)
	s.Require().NotNil(body.Team)
	s.Equal("Byte Force", body.Team.Name)
	s.Len(body.Team.MemberIDs, 5)
	s.Len(body.Credentials, 2)

	_, err := s.registrations.FindByID(ctx, mustRegistrationID(s, regID))
	s.ErrorIs(err, sentinel.ErrNotFound)

	leader, err := s.identities.FindByEmail(ctx, "bf-lead@flow.test")
	s.Require().NoError(err)
	s.Equal(id.RoleLeader, leader.Role)
	s.Require().NotNil(leader.TeamID)
	s.Equal(body.Team.ID, *leader.TeamID)

	stored, err := s.teams.FindByID(ctx, body.Team.ID)
	s.Require().NoError(err)
	s.Equal(body.Team.MemberIDs, stored.MemberIDs)
	s.Contains(s.audit.Actions(), "team_promoted")
}

func (s *PromotionFlowSuite) TestSecondTeamReusesGovernance() {
	first := s.approve(s.submit("Alpha", "a"))
	second := s.approve(s.submit("Beta", "b"))

	s.Equal(first.Team.SPOC.ID, second.Team.SPOC.ID)
	s.Equal(first.Team.Mentor.ID, second.Team.Mentor.ID)
	s.Empty(second.Credentials)
}

func (s *PromotionFlowSuite) TestApprovedLeaderCannotLeadAgain() {
	s.approve(s.submit("Alpha", "dup"))

	rr := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/registrations", submission("Gamma", "dup")))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeConflict))
}

func (s *PromotionFlowSuite) TestDeleteTeamRemovesParticipants() {
	ctx := context.Background()
	body := s.approve(s.submit("Transient", "tr"))

	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodDelete, "/admin/teams/"+body.Team.ID.String()))
	testutil.AssertStatusOK(s.T(), rr)

	_, err := s.teams.FindByID(ctx, body.Team.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.identities.FindByEmail(ctx, "tr-lead@flow.test")
	s.ErrorIs(err, sentinel.ErrNotFound)
	spoc, err := s.identities.FindByEmail(ctx, "spoc@flow.test")
	s.Require().NoError(err)
	s.Nil(spoc.TeamID)

	// name and participants are free again
	s.approve(s.submit("Transient", "tr"))
}

func mustRegistrationID(s *PromotionFlowSuite, raw string) id.RegistrationID {
	regID, err := id.ParseRegistrationID(raw)
	s.Require().NoError(err)
	return regID
}
