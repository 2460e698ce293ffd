package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"samved/internal/identity/models"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/httputil"
	"samved/pkg/requestcontext"
)

// Service defines the identity operations exposed over HTTP.
type Service interface {
	CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (*models.Identity, error)
	Get(ctx context.Context, identityID id.IdentityID) (*models.Identity, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the identity routes. Callers apply admin authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/identities", h.handleCreateAccount)
	r.Get("/admin/identities/{id}", h.handleGetIdentity)
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req models.CreateAccountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid create account request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	ident, err := h.service.CreateAccount(ctx, &req)
	if err != nil {
		h.logFailure(ctx, "failed to create account", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ident)
}

func (h *Handler) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid identity id"))
		return
	}
	ident, err := h.service.Get(ctx, identityID)
	if err != nil {
		h.logFailure(ctx, "failed to load identity", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ident)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
