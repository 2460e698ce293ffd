package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"samved/internal/team/models"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/httputil"
	"samved/pkg/requestcontext"
)

// Service defines the team operations exposed over HTTP.
type Service interface {
	ListTeams(ctx context.Context) ([]*models.Team, error)
	GetTeam(ctx context.Context, teamID id.TeamID) (*models.Team, error)
	DeleteTeam(ctx context.Context, teamID id.TeamID) (*models.DeletionResult, error)
	RemoveMember(ctx context.Context, teamID id.TeamID, identityID id.IdentityID) (*models.Team, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type listResponse struct {
	Teams []*models.Team `json:"teams"`
}

// Register mounts the team routes. Callers apply admin authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/teams", h.handleList)
	r.Get("/admin/teams/{id}", h.handleGet)
	r.Delete("/admin/teams/{id}", h.handleDelete)
	r.Delete("/admin/teams/{id}/members/{identityID}", h.handleRemoveMember)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teams, err := h.service.ListTeams(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to list teams", err)
		httputil.WriteError(w, err)
		return
	}
	if teams == nil {
		teams = []*models.Team{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Teams: teams})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teamID, ok := parseTeamID(w, r)
	if !ok {
		return
	}
	team, err := h.service.GetTeam(ctx, teamID)
	if err != nil {
		h.logFailure(ctx, "failed to load team", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, team)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teamID, ok := parseTeamID(w, r)
	if !ok {
		return
	}
	result, err := h.service.DeleteTeam(ctx, teamID)
	if err != nil {
		h.logFailure(ctx, "failed to delete team", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teamID, ok := parseTeamID(w, r)
	if !ok {
		return
	}
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "identityID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid identity id"))
		return
	}
	team, err := h.service.RemoveMember(ctx, teamID, identityID)
	if err != nil {
		h.logFailure(ctx, "failed to remove team member", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, team)
}

func parseTeamID(w http.ResponseWriter, r *http.Request) (id.TeamID, bool) {
	teamID, err := id.ParseTeamID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid team id"))
		return id.TeamID{}, false
	}
	return teamID, true
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
