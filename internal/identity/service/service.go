// Package service implements administrative operations on the identity
// registry.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"samved/internal/identity/metrics"
	"samved/internal/identity/models"
	"samved/pkg/attrs"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/audit"
	"samved/pkg/platform/sentinel"
	"samved/pkg/requestcontext"
	"samved/pkg/secrets"
)

type Store interface {
	Create(ctx context.Context, ident *models.Identity) error
	FindByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error)
	FindByEmail(ctx context.Context, addr string) (*models.Identity, error)
	FindOccupant(ctx context.Context, role id.Role, code id.InstituteCode) (*models.Identity, error)
}

// InstituteSyncer keeps the institute directory current. Failures are logged
// and never fail the caller.
type InstituteSyncer interface {
	Sync(ctx context.Context, code, name, district, state string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
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

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount creates an admin, judge, mentor or spoc directly.
func (s *Service) CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (*models.Identity, error) {
	if s.metrics != nil {
		defer s.metrics.ObserveCreateAccount(time.Now())
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	role := id.Role(req.Role)
	code := id.InstituteCode(req.InstituteCode)

	if _, err := s.store.FindByEmail(ctx, req.Email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up email")
	}

	if role.IsSingleOccupancy() {
		occupant, err := s.store.FindOccupant(ctx, role, code)
		switch {
		case err == nil:
			return nil, dErrors.New(dErrors.CodeConflict,
				"institute "+code.String()+" already has a "+role.String()+": "+occupant.Email)
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up institute occupant")
		}
	}

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	ident, err := models.NewIdentity(id.NewIdentityID(), req.Email, role, req.Name, hash, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	ident.Phone = req.Phone
	ident.InstituteCode = code
	ident.InstituteName = req.InstituteName
	ident.District = req.District
	ident.State = req.State

	if err := s.store.Create(ctx, ident); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict,
				"institute "+code.String()+" already has a "+role.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identity")
	}

	s.syncInstitute(ctx, ident)
	s.logAudit(ctx, string(audit.EventIdentityCreated),
		"identity_id", ident.ID.String(),
		"email", ident.Email,
		"role", ident.Role.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementIdentitiesCreated(ident.Role.String())
	}
	return ident, nil
}

// Get returns an identity by id.
func (s *Service) Get(ctx context.Context, identityID id.IdentityID) (*models.Identity, error) {
	ident, err := s.store.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return ident, nil
}

func (s *Service) syncInstitute(ctx context.Context, ident *models.Identity) {
	if s.institutes == nil || ident.InstituteCode.IsEmpty() {
		return
	}
	err := s.institutes.Sync(ctx, ident.InstituteCode.String(), ident.InstituteName, ident.District, ident.State)
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "institute sync failed",
			"institute_code", ident.InstituteCode.String(),
			"error", err,
		)
	}
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
	actor := requestcontext.ActorID(ctx)
	actorID := ""
	if !actor.IsNil() {
		actorID = actor.String()
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Subject:   attrs.ExtractString(attributes, "identity_id"),
		Action:    event,
		Email:     attrs.ExtractString(attributes, "email"),
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   actorID,
		Detail:    map[string]string{"role": attrs.ExtractString(attributes, "role")},
	})
}
