// Package service implements administrative reads and mutations of active
// teams.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	identitymodels "samved/internal/identity/models"
	notifymodels "samved/internal/notify/models"
	"samved/internal/team/metrics"
	"samved/internal/team/models"
	"samved/pkg/attrs"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/audit"
	"samved/pkg/platform/sentinel"
	"samved/pkg/requestcontext"
)

type Store interface {
	FindByID(ctx context.Context, teamID id.TeamID) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	UpdateMembers(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, teamID id.TeamID) error
}

type IdentityStore interface {
	FindByID(ctx context.Context, identityID id.IdentityID) (*identitymodels.Identity, error)
	ListByTeam(ctx context.Context, teamID id.TeamID) ([]*identitymodels.Identity, error)
	Update(ctx context.Context, ident *identitymodels.Identity) error
	Delete(ctx context.Context, identityID id.IdentityID) error
}

// TxRunner runs fn atomically when the backing stores support it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Notifier interface {
	Enqueue(ctx context.Context, intent notifymodels.Intent)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	identities     IdentityStore
	notifier       Notifier
	tx             TxRunner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTxRunner makes team deletion atomic across the team and identity stores.
func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

type inlineTx struct{}

func (inlineTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func New(store Store, identities IdentityStore, notifier Notifier, opts ...Option) *Service {
	s := &Service{store: store, identities: identities, notifier: notifier, tx: inlineTx{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list teams")
	}
	return teams, nil
}

func (s *Service) GetTeam(ctx context.Context, teamID id.TeamID) (*models.Team, error) {
	team, err := s.store.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "team not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load team")
	}
	return team, nil
}

// DeleteTeam removes a team. Student and leader identities in its member set
// are deleted; every other identity pointing at the team keeps its account and
// loses the team reference.
func (s *Service) DeleteTeam(ctx context.Context, teamID id.TeamID) (*models.DeletionResult, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	result := &models.DeletionResult{TeamID: teamID}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		members, linked, err := s.affectedIdentities(ctx, team)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		for _, ident := range members {
			if !ident.Role.IsParticipant() {
				linked = append(linked, ident)
				continue
			}
			if err := s.identities.Delete(ctx, ident.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return fmt.Errorf("delete identity %s: %w", ident.ID, err)
			}
			result.Deleted = append(result.Deleted, ident.ID)
		}
		for _, ident := range linked {
			ident.DetachTeam(now)
			if err := s.identities.Update(ctx, ident); err != nil {
				return fmt.Errorf("detach identity %s: %w", ident.ID, err)
			}
			result.Detached = append(result.Detached, ident.ID)
		}
		return s.store.Delete(ctx, teamID)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "team not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete team")
	}

	s.logAudit(ctx, string(audit.EventTeamDeleted),
		"team_id", teamID.String(),
		"team_name", team.Name,
		"deleted_identities", len(result.Deleted),
		"detached_identities", len(result.Detached),
	)
	if s.metrics != nil {
		s.metrics.ObserveDeletion(len(result.Deleted), len(result.Detached))
	}
	return result, nil
}

// affectedIdentities splits the identities touched by a deletion into the
// member set and non-members whose back reference names the team.
func (s *Service) affectedIdentities(ctx context.Context, team *models.Team) (members, linked []*identitymodels.Identity, err error) {
	for _, memberID := range team.MemberIDs {
		ident, err := s.identities.FindByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, nil, fmt.Errorf("load member %s: %w", memberID, err)
		}
		members = append(members, ident)
	}
	refs, err := s.identities.ListByTeam(ctx, team.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list identities by team: %w", err)
	}
	for _, ident := range refs {
		if !team.HasMember(ident.ID) {
			linked = append(linked, ident)
		}
	}
	return members, linked, nil
}

// RemoveMember drops a non-leader member and clears their team reference.
func (s *Service) RemoveMember(ctx context.Context, teamID id.TeamID, identityID id.IdentityID) (*models.Team, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := team.RemoveMember(identityID, now); err != nil {
		return nil, err
	}
	if err := s.store.UpdateMembers(ctx, team); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "team not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update team members")
	}

	ident, err := s.identities.FindByID(ctx, identityID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		s.warn(ctx, "removed member has no identity", "identity_id", identityID.String())
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	default:
		if ident.TeamID != nil && *ident.TeamID == teamID {
			ident.DetachTeam(now)
			if err := s.identities.Update(ctx, ident); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear team reference")
			}
		}
		s.notifyRemoved(ctx, team, ident)
	}

	s.logAudit(ctx, string(audit.EventTeamMemberRemoved),
		"team_id", teamID.String(),
		"team_name", team.Name,
		"identity_id", identityID.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementMembersRemoved()
	}
	return team, nil
}

func (s *Service) notifyRemoved(ctx context.Context, team *models.Team, ident *identitymodels.Identity) {
	teamID := team.ID
	s.notifier.Enqueue(ctx, notifymodels.Intent{
		Kind:        notifymodels.KindInApp,
		Recipients:  []id.IdentityID{ident.ID},
		Title:       "Removed from Team",
		Message:     fmt.Sprintf("You have been removed from team %q.", team.Name),
		Level:       notifymodels.LevelWarning,
		TeamID:      &teamID,
		TriggeredBy: requestcontext.ActorID(ctx),
	})
	s.notifier.Enqueue(ctx, notifymodels.Intent{
		Kind:     notifymodels.KindTeamMemberRemoved,
		To:       ident.Email,
		Name:     ident.Name,
		TeamName: team.Name,
	})
}

func (s *Service) warn(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.WarnContext(ctx, msg, append(args, "request_id", requestcontext.RequestID(ctx))...)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	actor := requestcontext.ActorID(ctx)
	if !actor.IsNil() {
		attributes = append(attributes, "actor_id", actor.String())
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	detail := map[string]string{"team_name": attrs.ExtractString(attributes, "team_name")}
	if member := attrs.ExtractString(attributes, "identity_id"); member != "" {
		detail["identity_id"] = member
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Subject:   attrs.ExtractString(attributes, "team_id"),
		Action:    event,
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   attrs.ExtractString(attributes, "actor_id"),
		Detail:    detail,
	})
}
