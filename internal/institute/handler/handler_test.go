package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"samved/internal/institute/handler/mocks"
	"samved/internal/institute/models"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type InstituteHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
}

func TestInstituteHandlerSuite(t *testing.T) {
	suite.Run(t, new(InstituteHandlerSuite))
}

func (s *InstituteHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	s.router = r
}

func (s *InstituteHandlerSuite) TestList() {
	s.Run("returns the directory", func() {
		s.service.EXPECT().List(gomock.Any()).Return([]*models.Institute{
			{Code: id.InstituteCode("ABC"), Name: "ABC Institute", District: "Pune", Active: true},
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/institutes"))

		testutil.AssertStatusOK(s.T(), rr)
		body := testutil.UnmarshalResponse[listResponse](s.T(), rr)
		s.Require().Len(body.Institutes, 1)
		s.Equal(id.InstituteCode("ABC"), body.Institutes[0].Code)
		s.Equal("Pune", body.Institutes[0].District)
	})

	s.Run("empty directory is an empty list", func() {
		s.service.EXPECT().List(gomock.Any()).Return(nil, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/institutes"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "institutes", []any{})
	})

	s.Run("store failure", func() {
		s.service.EXPECT().List(gomock.Any()).Return(nil, dErrors.New(dErrors.CodeInternal, "failed to list institutes"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/institutes"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}

func (s *InstituteHandlerSuite) TestGet() {
	s.Run("passes the raw code through", func() {
		s.service.EXPECT().Get(gomock.Any(), "abc").Return(&models.Institute{Code: "ABC", Name: "ABC Institute"}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/institutes/abc"))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "code", "ABC")
		testutil.AssertJSONContains(s.T(), rr, "name", "ABC Institute")
	})

	s.Run("unknown code", func() {
		s.service.EXPECT().Get(gomock.Any(), "zzz").Return(nil, dErrors.New(dErrors.CodeNotFound, "institute not found"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/institutes/zzz"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}
