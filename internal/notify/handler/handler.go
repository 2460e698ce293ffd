package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"samved/internal/notify/models"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/httputil"
	"samved/pkg/requestcontext"
)

// Service lists in-app notifications.
type Service interface {
	List(ctx context.Context, identityID id.IdentityID) ([]*models.Notification, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts notification reads. Callers apply admin authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/identities/{id}/notifications", h.handleList)
}

type listResponse struct {
	Notifications []*models.Notification `json:"notifications"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid identity id"))
		return
	}
	list, err := h.service.List(ctx, identityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notifications",
			"request_id", requestcontext.RequestID(ctx),
			"identity_id", identityID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Notifications: list})
}
