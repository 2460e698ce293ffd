package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"samved/internal/institute/models"
	"samved/pkg/platform/httputil"
	"samved/pkg/requestcontext"
)

// Service defines the directory reads exposed over HTTP.
type Service interface {
	Get(ctx context.Context, rawCode string) (*models.Institute, error)
	List(ctx context.Context) ([]*models.Institute, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type listResponse struct {
	Institutes []*models.Institute `json:"institutes"`
}

// Register mounts the directory routes. Callers apply admin authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/institutes", h.handleList)
	r.Get("/admin/institutes/{code}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	institutes, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list institutes",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if institutes == nil {
		institutes = []*models.Institute{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Institutes: institutes})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")
	inst, err := h.service.Get(ctx, code)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to get institute",
			"request_id", requestcontext.RequestID(ctx),
			"institute_code", code,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, inst)
}
