package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"samved/internal/promotion/models"
	regmodels "samved/internal/registration/models"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/httputil"
	"samved/pkg/requestcontext"
)

// Service defines the approval operations exposed over HTTP.
type Service interface {
	Approve(ctx context.Context, regID id.RegistrationID) (*models.Result, error)
	Reject(ctx context.Context, regID id.RegistrationID, req *regmodels.RejectRequest) (*models.Rejection, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type approveResponse struct {
	Message string `json:"message"`
	*models.Result
}

type rejectResponse struct {
	Message string `json:"message"`
	*models.Rejection
}

// Register mounts the approval routes. Callers apply admin authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/registrations/{id}/approve", h.handleApprove)
	r.Post("/admin/registrations/{id}/reject", h.handleReject)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, err := id.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid registration id"))
		return
	}

	result, err := h.service.Approve(ctx, regID)
	if err != nil {
		h.logFailure(ctx, "approval failed", regID, err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "registration approved",
		"registration_id", regID.String(),
		"team_id", result.Team.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusCreated, approveResponse{
		Message: "Team approved and activated.",
		Result:  result,
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, err := id.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid registration id"))
		return
	}

	// The reason is optional, so is the body.
	var req regmodels.RejectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, err)
		return
	}

	rejection, err := h.service.Reject(ctx, regID, &req)
	if err != nil {
		h.logFailure(ctx, "rejection failed", regID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rejectResponse{
		Message:   "Registration rejected.",
		Rejection: rejection,
	})
}

func (h *Handler) logFailure(ctx context.Context, msg string, regID id.RegistrationID, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"registration_id", regID.String(),
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
