package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/audit"
	"samved/pkg/platform/httputil"
	"samved/pkg/requestcontext"
)

// Service defines the audit reads exposed over HTTP.
type Service interface {
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
	ForSubject(ctx context.Context, subject string) ([]audit.Event, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type eventResponse struct {
	Category  string            `json:"category"`
	Timestamp time.Time         `json:"timestamp"`
	Subject   string            `json:"subject,omitempty"`
	Action    string            `json:"action"`
	Reason    string            `json:"reason,omitempty"`
	Email     string            `json:"email,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	ActorID   string            `json:"actor_id,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}

type listResponse struct {
	Events []eventResponse `json:"events"`
}

// Register mounts the audit trail. Callers apply admin authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/audit", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var (
		events []audit.Event
		err    error
	)
	if subject := query.Get("subject"); subject != "" {
		events, err = h.service.ForSubject(ctx, subject)
	} else {
		limit := 0
		if raw := query.Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil {
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "limit must be an integer"))
				return
			}
		}
		events, err = h.service.Recent(ctx, limit)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list audit events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := listResponse{Events: make([]eventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, eventResponse{
			Category:  string(e.Category),
			Timestamp: e.Timestamp,
			Subject:   e.Subject,
			Action:    e.Action,
			Reason:    e.Reason,
			Email:     e.Email,
			RequestID: e.RequestID,
			ActorID:   e.ActorID,
			Detail:    e.Detail,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
