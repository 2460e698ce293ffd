// Package service stages team registrations for administrator review.
//
// Submission never creates identities or teams. Every uniqueness rule is
// checked before the single write, so a refused submission leaves no trace.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	identitymodels "samved/internal/identity/models"
	notifymodels "samved/internal/notify/models"
	"samved/internal/registration/metrics"
	"samved/internal/registration/models"
	"samved/pkg/attrs"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/audit"
	"samved/pkg/platform/sentinel"
	platformstrings "samved/pkg/platform/strings"
	"samved/pkg/requestcontext"
	"samved/pkg/secrets"
)

var tracer = otel.Tracer("samved/registration")

type Store interface {
	Create(ctx context.Context, reg *models.StagedRegistration) error
	FindByID(ctx context.Context, regID id.RegistrationID) (*models.StagedRegistration, error)
	FindByTeamName(ctx context.Context, name string) (*models.StagedRegistration, error)
	FindByLeaderEmail(ctx context.Context, addr string) (*models.StagedRegistration, error)
	FindByParticipantEmail(ctx context.Context, addr string) (*models.StagedRegistration, error)
	ListPending(ctx context.Context) ([]*models.StagedRegistration, error)
}

type IdentityLookup interface {
	FindByEmail(ctx context.Context, addr string) (*identitymodels.Identity, error)
}

// TeamNames reports whether an active team already uses a name.
type TeamNames interface {
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// Notifier queues side effects. It never blocks and never fails.
type Notifier interface {
	Enqueue(ctx context.Context, intent notifymodels.Intent)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	identities     IdentityLookup
	teams          TeamNames
	notifier       Notifier
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

func New(store Store, identities IdentityLookup, teams TeamNames, notifier Notifier, opts ...Option) *Service {
	s := &Service{store: store, identities: identities, teams: teams, notifier: notifier}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and stages a registration, returning its id.
func (s *Service) Submit(ctx context.Context, req *models.SubmitRequest) (_ id.RegistrationID, err error) {
	ctx, span := tracer.Start(ctx, "registration.Submit")
	defer span.End()
	if s.metrics != nil {
		defer s.metrics.ObserveSubmit(time.Now())
	}
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
			if s.metrics != nil {
				s.metrics.IncrementRefused(string(dErrors.CodeOf(err)))
			}
		}
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return id.RegistrationID{}, err
	}
	span.SetAttributes(attribute.String("team.name", req.TeamName))

	if err := s.checkTeamName(ctx, req.TeamName); err != nil {
		return id.RegistrationID{}, err
	}
	if err := s.checkLeaderEmail(ctx, req.LeaderEmail); err != nil {
		return id.RegistrationID{}, err
	}
	if len(req.Members) != models.RequiredMembers {
		return id.RegistrationID{}, dErrors.New(dErrors.CodeValidation,
			"team must have exactly 5 members (leader + 4 members)")
	}
	emails := req.ParticipantEmails()
	if dups := platformstrings.Duplicates(emails); len(dups) > 0 {
		return id.RegistrationID{}, dErrors.New(dErrors.CodeConflict,
			"all team members must have unique emails: "+strings.Join(dups, ", "))
	}
	if err := s.checkParticipants(ctx, emails); err != nil {
		return id.RegistrationID{}, err
	}

	hash, err := secrets.Hash(req.LeaderPassword)
	if err != nil {
		return id.RegistrationID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	problemID, _ := id.ParseProblemID(req.ProblemID)

	reg := &models.StagedRegistration{
		ID:                 id.NewRegistrationID(),
		TeamName:           req.TeamName,
		LeaderName:         req.LeaderName,
		LeaderEmail:        req.LeaderEmail,
		LeaderPhone:        req.LeaderPhone,
		LeaderPasswordHash: hash,
		InstituteCode:      id.InstituteCode(req.InstituteCode),
		InstituteName:      req.InstituteName,
		Members:            append([]models.Member(nil), req.Members...),
		MentorName:         req.MentorName,
		MentorEmail:        req.MentorEmail,
		SPOCName:           req.SPOCName,
		SPOCEmail:          req.SPOCEmail,
		SPOCDistrict:       req.SPOCDistrict,
		SPOCState:          req.SPOCState,
		ConsentDocument:    req.ConsentDocument,
		Status:             models.StatusPending,
		CreatedAt:          requestcontext.Now(ctx),
	}
	if !problemID.IsNil() {
		reg.ProblemID = &problemID
	}

	if err := s.store.Create(ctx, reg); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return id.RegistrationID{}, dErrors.New(dErrors.CodeConflict,
				"team name or leader email is already pending approval")
		}
		return id.RegistrationID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to stage registration")
	}

	s.notifier.Enqueue(ctx, notifymodels.Intent{
		Kind:     notifymodels.KindRegistrationReceived,
		To:       reg.LeaderEmail,
		Name:     reg.LeaderName,
		TeamName: reg.TeamName,
	})
	s.logAudit(ctx, string(audit.EventRegistrationStaged),
		"registration_id", reg.ID.String(),
		"team_name", reg.TeamName,
		"email", reg.LeaderEmail,
	)
	if s.metrics != nil {
		s.metrics.IncrementSubmitted()
	}
	return reg.ID, nil
}

func (s *Service) checkTeamName(ctx context.Context, name string) error {
	_, err := s.store.FindByTeamName(ctx, name)
	if err == nil {
		return dErrors.New(dErrors.CodeConflict, "team name already exists (active or pending approval)")
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check team name")
	}
	exists, err := s.teams.ExistsByName(ctx, name)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check team name")
	}
	if exists {
		return dErrors.New(dErrors.CodeConflict, "team name already exists (active or pending approval)")
	}
	return nil
}

func (s *Service) checkLeaderEmail(ctx context.Context, addr string) error {
	_, err := s.identities.FindByEmail(ctx, addr)
	if err == nil {
		return dErrors.New(dErrors.CodeConflict, "leader email is already registered (active or pending approval)")
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check leader email")
	}
	_, err = s.store.FindByLeaderEmail(ctx, addr)
	if err == nil {
		return dErrors.New(dErrors.CodeConflict, "leader email is already registered (active or pending approval)")
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check leader email")
	}
	return nil
}

// checkParticipants refuses emails that already belong to a team or to
// another staged registration.
func (s *Service) checkParticipants(ctx context.Context, emails []string) error {
	var onTeam []string
	for _, addr := range emails {
		ident, err := s.identities.FindByEmail(ctx, addr)
		switch {
		case err == nil:
			if ident.HasTeam() {
				onTeam = append(onTeam, addr)
			}
		case !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check member email")
		}
	}
	if len(onTeam) > 0 {
		return dErrors.New(dErrors.CodeConflict,
			"members ["+strings.Join(onTeam, ", ")+"] are already in an active team")
	}
	for _, addr := range emails {
		_, err := s.store.FindByParticipantEmail(ctx, addr)
		if err == nil {
			return dErrors.New(dErrors.CodeConflict,
				"one or more members are already part of another pending registration")
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check pending registrations")
		}
	}
	return nil
}

// ListPending returns staged registrations newest first.
func (s *Service) ListPending(ctx context.Context) ([]*models.StagedRegistration, error) {
	out, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending registrations")
	}
	return out, nil
}

// GetPending returns one staged registration.
func (s *Service) GetPending(ctx context.Context, regID id.RegistrationID) (*models.StagedRegistration, error) {
	reg, err := s.store.FindByID(ctx, regID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return reg, nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Subject:   attrs.ExtractString(attributes, "registration_id"),
		Action:    event,
		Email:     attrs.ExtractString(attributes, "email"),
		RequestID: requestcontext.RequestID(ctx),
		Detail:    map[string]string{"team_name": attrs.ExtractString(attributes, "team_name")},
	})
}
