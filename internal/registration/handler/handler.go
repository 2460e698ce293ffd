package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"samved/internal/registration/models"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/httputil"
	"samved/pkg/requestcontext"
)

// Service defines the registration operations exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, req *models.SubmitRequest) (id.RegistrationID, error)
	ListPending(ctx context.Context) ([]*models.StagedRegistration, error)
	GetPending(ctx context.Context, regID id.RegistrationID) (*models.StagedRegistration, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type submitResponse struct {
	RegistrationID id.RegistrationID `json:"registration_id"`
	Status         models.Status     `json:"status"`
	Message        string            `json:"message"`
}

type listResponse struct {
	Registrations []*models.StagedRegistration `json:"registrations"`
}

// RegisterPublic mounts the unauthenticated submission route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/registrations", h.handleSubmit)
}

// RegisterAdmin mounts the review routes. Callers apply admin authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/registrations", h.handleListPending)
	r.Get("/admin/registrations/{id}", h.handleGetPending)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SubmitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid registration request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	regID, err := h.service.Submit(ctx, &req)
	if err != nil {
		h.logFailure(ctx, "registration refused", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, submitResponse{
		RegistrationID: regID,
		Status:         models.StatusPending,
		Message:        "Registration submitted. Awaiting admin approval.",
	})
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regs, err := h.service.ListPending(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to list pending registrations", err)
		httputil.WriteError(w, err)
		return
	}
	if regs == nil {
		regs = []*models.StagedRegistration{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Registrations: regs})
}

func (h *Handler) handleGetPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, err := id.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid registration id"))
		return
	}
	reg, err := h.service.GetPending(ctx, regID)
	if err != nil {
		h.logFailure(ctx, "failed to load registration", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
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
