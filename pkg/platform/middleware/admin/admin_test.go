package admin

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "samved/pkg/domain"
	"samved/pkg/requestcontext"
)

func TestRequireAdmin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := RequireAdmin(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		role id.Role
		want int
	}{
		{"admin passes", id.RoleAdmin, http.StatusOK},
		{"judge is forbidden", id.RoleJudge, http.StatusForbidden},
		{"anonymous is forbidden", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/teams", nil)
			if tt.role != "" {
				req = req.WithContext(requestcontext.WithActor(req.Context(), id.NewIdentityID(), tt.role))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
