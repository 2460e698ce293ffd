// Package service reads the audit trail for administrators.
package service

import (
	"context"

	dErrors "samved/pkg/domain-errors"
	"samved/pkg/platform/audit"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type Store interface {
	ListBySubject(ctx context.Context, subject string) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// Recent returns the newest events, newest first. Limit is clamped to
// [1, MaxLimit]; zero selects DefaultLimit.
func (s *Service) Recent(ctx context.Context, limit int) ([]audit.Event, error) {
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 0:
		return nil, dErrors.New(dErrors.CodeValidation, "limit must be positive")
	case limit > MaxLimit:
		limit = MaxLimit
	}
	events, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	return events, nil
}

// ForSubject returns every event about one registration, team or identity.
func (s *Service) ForSubject(ctx context.Context, subject string) ([]audit.Event, error) {
	if subject == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "subject is required")
	}
	events, err := s.store.ListBySubject(ctx, subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	return events, nil
}
