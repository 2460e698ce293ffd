package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"samved/internal/identity/models"
	"samved/internal/identity/store"
	instituteservice "samved/internal/institute/service"
	institutestore "samved/internal/institute/store"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/audit/publisher"
	auditmemory "samved/pkg/platform/audit/store/memory"
)


type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *store.InMemory
	institutes *institutestore.InMemory
	audit      *auditmemory.InMemoryStore
	logs       *bytes.Buffer
	service    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.institutes = institutestore.NewInMemory()
	s.audit = auditmemory.NewInMemoryStore()
	s.logs = &bytes.Buffer{}
	s.service = New(s.store,
		WithLogger(slog.New(slog.NewJSONHandler(s.logs, nil))),
		WithAuditPublisher(publisher.NewPublisher(s.audit)),
		WithInstituteSyncer(instituteservice.New(s.institutes)),
	)
}

func (s *ServiceSuite) request(role, addr, code string) *models.CreateAccountRequest {
	return &models.CreateAccountRequest{
		Role:          role,
		Name:          "Some One",
		Email:         addr,
		Password:      "correct-horse",
		InstituteCode: code,
		InstituteName: "ABC College",
		District:      "Pune",
		State:         "MH",
	}
}

func (s *ServiceSuite) TestCreateAccount() {
	s.Run("creates spoc with hashed password and syncs institute", func() {
		ident, err := s.service.CreateAccount(s.ctx, s.request("SPOC", "spoc@abc.edu", " abc "))
		s.Require().NoError(err)
		s.Equal(id.RoleSPOC, ident.Role)
		s.Equal(id.InstituteCode("ABC"), ident.InstituteCode)
		s.NoError(bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte("correct-horse")))

		inst, err := s.institutes.FindByCode(s.ctx, "ABC")
		s.Require().NoError(err)
		s.Equal("ABC College", inst.Name)

		s.Contains(s.audit.Actions(), "identity_created")
		s.Contains(s.logs.String(), `"log_type":"audit"`)
	})

	s.Run("duplicate email is a conflict", func() {
		_, err := s.service.CreateAccount(s.ctx, s.request("judge", "spoc@abc.edu", ""))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("second spoc for the same institute names the occupant", func() {
		_, err := s.service.CreateAccount(s.ctx, s.request("spoc", "other@abc.edu", "ABC"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "spoc@abc.edu")
	})

	s.Run("mentor may share the institute with the spoc", func() {
		_, err := s.service.CreateAccount(s.ctx, s.request("mentor", "mentor@abc.edu", "ABC"))
		s.Require().NoError(err)
	})

	s.Run("participant roles cannot be created directly", func() {
		_, err := s.service.CreateAccount(s.ctx, s.request("student", "stu@abc.edu", "ABC"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("judge requires an institute name", func() {
		req := s.request("judge", "judge@abc.edu", "")
		req.InstituteName = ""
		_, err := s.service.CreateAccount(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestGet() {
	created, err := s.service.CreateAccount(s.ctx, s.request("admin", "root@samved.in", ""))
	s.Require().NoError(err)

	found, err := s.service.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Email, found.Email)

	_, err = s.service.Get(s.ctx, id.NewIdentityID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
