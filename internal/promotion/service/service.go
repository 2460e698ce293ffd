// Package service is the promotion engine: it approves a staged
// registration into identities and an active team, or rejects it.
//
// Approval checks every participant before the first write. Conflicts that
// still surface after the team row exists (a concurrent approval grabbing a
// member) are undone by deleting the new team, since the identity and team
// stores share no transaction.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	identitymodels "samved/internal/identity/models"
	notifymodels "samved/internal/notify/models"
	"samved/internal/promotion/lock"
	"samved/internal/promotion/metrics"
	"samved/internal/promotion/models"
	regmodels "samved/internal/registration/models"
	teammodels "samved/internal/team/models"
	"samved/pkg/attrs"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/audit"
	"samved/pkg/platform/sentinel"
	"samved/pkg/requestcontext"
)

var tracer = otel.Tracer("samved/promotion")

const (
	defaultLockTTL      = 30 * time.Second
	compensationTimeout = 5 * time.Second
)

type RegistrationStore interface {
	FindByID(ctx context.Context, regID id.RegistrationID) (*regmodels.StagedRegistration, error)
	Delete(ctx context.Context, regID id.RegistrationID) error
}

type IdentityStore interface {
	Create(ctx context.Context, ident *identitymodels.Identity) error
	FindByID(ctx context.Context, identityID id.IdentityID) (*identitymodels.Identity, error)
	FindByEmail(ctx context.Context, addr string) (*identitymodels.Identity, error)
	FindOccupant(ctx context.Context, role id.Role, code id.InstituteCode) (*identitymodels.Identity, error)
	Update(ctx context.Context, ident *identitymodels.Identity) error
}

type TeamStore interface {
	Create(ctx context.Context, team *teammodels.Team) error
	FindByID(ctx context.Context, teamID id.TeamID) (*teammodels.Team, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	UpdateMembers(ctx context.Context, team *teammodels.Team) error
	Delete(ctx context.Context, teamID id.TeamID) error
}

type InstituteSyncer interface {
	Sync(ctx context.Context, rawCode, name, district, state string) error
}

// Locker serializes approve and reject per staged registration.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (lock.Release, error)
}

type Notifier interface {
	Enqueue(ctx context.Context, intent notifymodels.Intent)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	registrations  RegistrationStore
	identities     IdentityStore
	teams          TeamStore
	notifier       Notifier
	locker         Locker
	lockTTL        time.Duration
	institutes     InstituteSyncer
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

func WithInstituteSyncer(syncer InstituteSyncer) Option {
	return func(s *Service) {
		s.institutes = syncer
	}
}

// WithLocker replaces the default in-process lock, typically with a Redis lock.
func WithLocker(locker Locker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func New(registrations RegistrationStore, identities IdentityStore, teams TeamStore, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		registrations: registrations,
		identities:    identities,
		teams:         teams,
		notifier:      notifier,
		locker:        lock.NewInMemory(),
		lockTTL:       defaultLockTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// promotion tracks one approval so failures after team creation can be undone.
type promotion struct {
	reg      *regmodels.StagedRegistration
	now      time.Time
	team     *teammodels.Team
	attached []id.IdentityID
}

// Approve promotes a staged registration into an active team.
func (s *Service) Approve(ctx context.Context, regID id.RegistrationID) (_ *models.Result, err error) {
	ctx, span := tracer.Start(ctx, "promotion.Approve",
		trace.WithAttributes(attribute.String("registration.id", regID.String())))
	defer span.End()
	start := time.Now()
	outcome := "aborted"
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.SetAttributes(attribute.String("promotion.outcome", outcome))
		if s.metrics != nil {
			s.metrics.ObserveApprove(start)
			s.metrics.IncrementApproval(outcome)
		}
	}()

	release, err := s.acquire(ctx, regID)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, release, regID)

	reg, err := s.loadRegistration(ctx, regID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("team.name", reg.TeamName))
	s.logAudit(ctx, string(audit.EventPromotionStarted),
		"registration_id", regID.String(),
		"team_name", reg.TeamName,
		"email", reg.LeaderEmail,
	)

	if err := s.precheck(ctx, reg); err != nil {
		s.abort(ctx, reg, err)
		return nil, err
	}

	p := &promotion{reg: reg, now: requestcontext.Now(ctx)}
	result, err := s.promote(ctx, p)
	if err != nil {
		if p.team != nil {
			outcome = "compensated"
			return nil, s.compensate(ctx, p, err)
		}
		s.abort(ctx, reg, err)
		return nil, err
	}
	outcome = "promoted"
	return result, nil
}

func (s *Service) promote(ctx context.Context, p *promotion) (*models.Result, error) {
	reg := p.reg

	leader, err := s.resolve(ctx, participant{
		Email:         reg.LeaderEmail,
		Name:          reg.LeaderName,
		Phone:         reg.LeaderPhone,
		Role:          id.RoleLeader,
		PasswordHash:  reg.LeaderPasswordHash,
		InstituteCode: reg.InstituteCode,
		InstituteName: reg.InstituteName,
	})
	if err != nil {
		return nil, err
	}
	if leader.ActiveTeamName != "" {
		return nil, dErrors.New(dErrors.CodePromotionConflict,
			fmt.Sprintf("leader %s is already on another team %q", reg.LeaderEmail, leader.ActiveTeamName))
	}

	spoc, err := s.resolve(ctx, participant{
		Email:         reg.SPOCEmail,
		Name:          reg.SPOCName,
		Role:          id.RoleSPOC,
		InstituteCode: reg.InstituteCode,
		InstituteName: reg.InstituteName,
		District:      reg.SPOCDistrict,
		State:         reg.SPOCState,
	})
	if err != nil {
		return nil, err
	}
	mentor, err := s.resolve(ctx, participant{
		Email:         reg.MentorEmail,
		Name:          reg.MentorName,
		Role:          id.RoleMentor,
		InstituteCode: reg.InstituteCode,
		InstituteName: reg.InstituteName,
		District:      reg.SPOCDistrict,
		State:         reg.SPOCState,
	})
	if err != nil {
		return nil, err
	}
	s.syncInstitute(ctx, reg)

	team, err := s.buildTeam(ctx, p, leader, spoc, mentor)
	if err != nil {
		return nil, err
	}
	if err := s.teams.Create(ctx, team); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeConflict, "team name already exists")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodePromotionConflict,
				fmt.Sprintf("leader %s is already on another team", reg.LeaderEmail))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create team")
	}
	p.team = team

	if err := s.attach(ctx, p, leader.Identity); err != nil {
		return nil, err
	}

	memberIDs := make([]id.IdentityID, 0, len(reg.Members))
	for _, m := range reg.Members {
		member, err := s.resolve(ctx, participant{
			Email:         m.Email,
			Name:          m.Name,
			Role:          id.RoleStudent,
			InstituteCode: reg.InstituteCode,
			InstituteName: reg.InstituteName,
		})
		if err != nil {
			return nil, err
		}
		if member.ActiveTeamName != "" {
			return nil, dErrors.New(dErrors.CodePromotionConflict,
				fmt.Sprintf("member %s is already on team %q", m.Email, member.ActiveTeamName))
		}
		if err := s.attach(ctx, p, member.Identity); err != nil {
			return nil, err
		}
		memberIDs = append(memberIDs, member.Identity.ID)
	}

	team.SetMembers(memberIDs, p.now)
	if err := s.teams.UpdateMembers(ctx, team); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodePromotionConflict, "a member joined another team during approval")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write team members")
	}

	if err := s.registrations.Delete(ctx, reg.ID); err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete staged registration")
		}
		s.warn(ctx, "staged registration already gone after promotion", "registration_id", reg.ID.String())
	}

	s.enqueueApproval(ctx, team, leader, spoc, mentor)
	s.logAudit(ctx, string(audit.EventTeamPromoted),
		"registration_id", reg.ID.String(),
		"team_id", team.ID.String(),
		"team_name", team.Name,
		"email", reg.LeaderEmail,
	)
	return &models.Result{Team: team, Credentials: issuedCredentials(spoc, mentor)}, nil
}

func (s *Service) buildTeam(ctx context.Context, p *promotion, leader, spoc, mentor models.Resolution) (*teammodels.Team, error) {
	reg := p.reg
	team, err := teammodels.NewApprovedTeam(id.NewTeamID(), reg.TeamName, leader.Identity.ID, requestcontext.ActorID(ctx), p.now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "staged registration cannot form a team")
	}
	team.InstituteCode = reg.InstituteCode
	team.InstituteName = reg.InstituteName
	team.SPOC = contact(spoc.Identity, reg.SPOCName, reg.SPOCDistrict, reg.SPOCState)
	team.Mentor = contact(mentor.Identity, reg.MentorName, "", "")
	team.ConsentDocument = reg.ConsentDocument
	if reg.ProblemID != nil {
		problem := *reg.ProblemID
		team.ProblemID = &problem
	}
	return team, nil
}

func contact(ident *identitymodels.Identity, stagedName, district, state string) teammodels.Contact {
	c := teammodels.Contact{
		ID:       ident.ID,
		Name:     ident.Name,
		Email:    ident.Email,
		District: ident.District,
		State:    ident.State,
	}
	if c.Name == "" {
		c.Name = stagedName
	}
	if c.District == "" {
		c.District = district
	}
	if c.State == "" {
		c.State = state
	}
	return c
}

// attach points an identity at the new team and remembers it for compensation.
// The identity is reloaded so writes made by earlier resolutions of the same
// email, such as a location backfill, are not overwritten.
func (s *Service) attach(ctx context.Context, p *promotion, ident *identitymodels.Identity) error {
	current, err := s.identities.FindByID(ctx, ident.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reload "+ident.Email)
	}
	current.AttachTeam(p.team.ID, p.now)
	if err := s.identities.Update(ctx, current); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to attach team to "+current.Email)
	}
	p.attached = append(p.attached, current.ID)
	return nil
}

// compensate deletes the team created by a failed promotion and clears the
// back references set so far. Identities created in the run are kept so a
// retried approval reuses them. Returns cause.
func (s *Service) compensate(ctx context.Context, p *promotion, cause error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "promotion.Compensate")
	defer span.End()

	for _, identityID := range p.attached {
		ident, err := s.identities.FindByID(ctx, identityID)
		if err != nil {
			s.warn(ctx, "compensation could not reload identity", "identity_id", identityID.String(), "error", err)
			continue
		}
		if ident.TeamID == nil || *ident.TeamID != p.team.ID {
			continue
		}
		ident.DetachTeam(p.now)
		if err := s.identities.Update(ctx, ident); err != nil {
			s.warn(ctx, "compensation could not detach identity", "identity_id", identityID.String(), "error", err)
		}
	}
	if err := s.teams.Delete(ctx, p.team.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		span.RecordError(err)
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "compensating team delete failed",
				"team_id", p.team.ID.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	s.logAudit(ctx, string(audit.EventPromotionCompensated),
		"registration_id", p.reg.ID.String(),
		"team_id", p.team.ID.String(),
		"team_name", p.reg.TeamName,
		"reason", cause.Error(),
	)
	if s.metrics != nil {
		s.metrics.IncrementCompensation()
	}
	return cause
}

func (s *Service) abort(ctx context.Context, reg *regmodels.StagedRegistration, cause error) {
	s.logAudit(ctx, string(audit.EventPromotionAborted),
		"registration_id", reg.ID.String(),
		"team_name", reg.TeamName,
		"reason", cause.Error(),
	)
}

// Reject discards a staged registration and queues the rejection mail.
func (s *Service) Reject(ctx context.Context, regID id.RegistrationID, req *regmodels.RejectRequest) (_ *models.Rejection, err error) {
	ctx, span := tracer.Start(ctx, "promotion.Reject",
		trace.WithAttributes(attribute.String("registration.id", regID.String())))
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, regID)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, release, regID)

	reg, err := s.loadRegistration(ctx, regID)
	if err != nil {
		return nil, err
	}
	reason := req.Reason
	if reason == "" {
		reason = notifymodels.DefaultRejectionReason
	}

	if err := s.registrations.Delete(ctx, regID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete staged registration")
	}
	s.notifier.Enqueue(ctx, notifymodels.Intent{
		Kind:     notifymodels.KindRegistrationRejected,
		To:       reg.LeaderEmail,
		Name:     reg.LeaderName,
		TeamName: reg.TeamName,
		Reason:   reason,
	})

	s.logAudit(ctx, string(audit.EventRegistrationRejected),
		"registration_id", regID.String(),
		"team_name", reg.TeamName,
		"email", reg.LeaderEmail,
		"reason", reason,
	)
	if s.metrics != nil {
		s.metrics.IncrementRejection()
	}
	return &models.Rejection{RegistrationID: regID, TeamName: reg.TeamName, Reason: reason}, nil
}

func (s *Service) acquire(ctx context.Context, regID id.RegistrationID) (lock.Release, error) {
	release, err := s.locker.Acquire(ctx, "promotion:"+regID.String(), s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			if s.metrics != nil {
				s.metrics.IncrementLockContention()
			}
			return nil, dErrors.New(dErrors.CodeConflict, "registration is already being processed")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to lock registration")
	}
	return release, nil
}

func (s *Service) release(ctx context.Context, release lock.Release, regID id.RegistrationID) {
	if err := release(context.WithoutCancel(ctx)); err != nil {
		s.warn(ctx, "failed to release promotion lock", "registration_id", regID.String(), "error", err)
	}
}

func (s *Service) loadRegistration(ctx context.Context, regID id.RegistrationID) (*regmodels.StagedRegistration, error) {
	reg, err := s.registrations.FindByID(ctx, regID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return reg, nil
}

func (s *Service) syncInstitute(ctx context.Context, reg *regmodels.StagedRegistration) {
	if s.institutes == nil {
		return
	}
	err := s.institutes.Sync(ctx, reg.InstituteCode.String(), reg.InstituteName, reg.SPOCDistrict, reg.SPOCState)
	if err != nil {
		s.warn(ctx, "institute sync failed", "institute_code", reg.InstituteCode.String(), "error", err)
	}
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
	detail := map[string]string{}
	for _, key := range []string{"team_id", "team_name", "role"} {
		if v := attrs.ExtractString(attributes, key); v != "" {
			detail[key] = v
		}
	}
	subject := attrs.ExtractString(attributes, "registration_id")
	if subject == "" {
		subject = attrs.ExtractString(attributes, "identity_id")
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Subject:   subject,
		Action:    event,
		Reason:    attrs.ExtractString(attributes, "reason"),
		Email:     attrs.ExtractString(attributes, "email"),
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   attrs.ExtractString(attributes, "actor_id"),
		Detail:    detail,
	})
}
