// Package service delivers notification intents and serves in-app
// notification reads.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"samved/internal/notify/mailer"
	"samved/internal/notify/metrics"
	"samved/internal/notify/models"
	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
)

type Store interface {
	CreateBatch(ctx context.Context, records []*models.Notification) error
	ListByRecipient(ctx context.Context, identityID id.IdentityID) ([]*models.Notification, error)
}

type Service struct {
	store   Store
	mailer  mailer.Mailer
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, m mailer.Mailer, opts ...Option) *Service {
	s := &Service{store: store, mailer: m, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch delivers one intent: in-app intents become notification records,
// everything else is rendered and mailed.
func (s *Service) Dispatch(ctx context.Context, intent models.Intent) (err error) {
	if s.metrics != nil {
		defer func(start time.Time) { s.metrics.ObserveDelivery(string(intent.Kind), err, start) }(time.Now())
	}
	if !intent.Kind.IsEmail() {
		if len(intent.Recipients) == 0 {
			return nil
		}
		return s.store.CreateBatch(ctx, models.Fanout(intent, s.now()))
	}
	if intent.To == "" {
		return errors.New("email intent without recipient")
	}
	msg, err := mailer.Render(intent)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

// List returns a recipient's notifications newest first.
func (s *Service) List(ctx context.Context, identityID id.IdentityID) ([]*models.Notification, error) {
	out, err := s.store.ListByRecipient(ctx, identityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return out, nil
}
