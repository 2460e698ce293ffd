// Package service keeps the institute directory in sync with codes seen
// during account creation and promotion.
package service

import (
	"context"
	"errors"
	"log/slog"

	"samved/internal/institute/models"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/sentinel"
	"samved/pkg/requestcontext"
)

type Store interface {
	Upsert(ctx context.Context, inst *models.Institute) error
	FindByCode(ctx context.Context, code id.InstituteCode) (*models.Institute, error)
	List(ctx context.Context) ([]*models.Institute, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync upserts the directory entry for a raw institute code. A blank code is
// a no-op.
func (s *Service) Sync(ctx context.Context, rawCode, name, district, state string) error {
	if id.NormalizeInstituteCode(rawCode).IsEmpty() {
		return nil
	}
	inst, err := models.NewInstitute(rawCode, name, district, state, requestcontext.Now(ctx))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if err := s.store.Upsert(ctx, inst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync institute")
	}
	if s.logger != nil {
		s.logger.DebugContext(ctx, "institute synced", "institute_code", inst.Code.String())
	}
	return nil
}

func (s *Service) Get(ctx context.Context, rawCode string) (*models.Institute, error) {
	inst, err := s.store.FindByCode(ctx, id.NormalizeInstituteCode(rawCode))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "institute not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load institute")
	}
	return inst, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Institute, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list institutes")
	}
	return out, nil
}
