package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"samved/internal/institute/models"
	"samved/internal/institute/store"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
)

type failingStore struct{ *store.InMemory }

func (failingStore) Upsert(context.Context, *models.Institute) error {
	return errors.New("connection reset")
}

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.service = New(s.store)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestSync() {
	s.Run("blank code is ignored", func() {
		s.Require().NoError(s.service.Sync(s.ctx, "  ", "Nowhere", "", ""))
		all, err := s.service.List(s.ctx)
		s.Require().NoError(err)
		s.Empty(all)
	})

	s.Run("stores normalized code", func() {
		s.Require().NoError(s.service.Sync(s.ctx, "xyz9", "XYZ Institute", "Nagpur", "MH"))
		inst, err := s.service.Get(s.ctx, "XYZ9")
		s.Require().NoError(err)
		s.Equal(id.InstituteCode("XYZ9"), inst.Code)
		s.Equal("Nagpur", inst.District)
	})

	s.Run("store failure surfaces as internal", func() {
		svc := New(failingStore{store.NewInMemory()})
		err := svc.Sync(s.ctx, "ABC", "ABC", "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestGetUnknown() {
	_, err := s.service.Get(s.ctx, "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
