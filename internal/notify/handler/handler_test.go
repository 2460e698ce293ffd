package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"samved/internal/notify/handler/mocks"
	"samved/internal/notify/models"
	id "samved/pkg/domain"
	"samved/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

func newRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	svc := mocks.NewMockService(gomock.NewController(t))
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, svc
}

func TestListNotifications(t *testing.T) {
	t.Run("returns an empty list rather than null", func(t *testing.T) {
		router, svc := newRouter(t)
		identityID := id.NewIdentityID()
		svc.EXPECT().List(gomock.Any(), identityID).Return(nil, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/admin/identities/"+identityID.String()+"/notifications"))
		testutil.AssertStatusOK(t, rr)
		assert.JSONEq(t, `{"notifications":[]}`, rr.Body.String())
	})

	t.Run("returns records", func(t *testing.T) {
		router, svc := newRouter(t)
		identityID := id.NewIdentityID()
		svc.EXPECT().List(gomock.Any(), identityID).Return([]*models.Notification{
			{ID: id.NewNotificationID(), IdentityID: identityID, Title: "Team Approved!"},
		}, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/admin/identities/"+identityID.String()+"/notifications"))
		resp := testutil.UnmarshalResponse[listResponse](t, rr)
		require.Len(t, resp.Notifications, 1)
		assert.Equal(t, "Team Approved!", resp.Notifications[0].Title)
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		router, _ := newRouter(t)
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/admin/identities/zzz/notifications"))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}
