// Package store persists in-app notifications.
package store

import (
	"context"
	"sort"
	"sync"

	"samved/internal/notify/models"
	id "samved/pkg/domain"
)

type InMemory struct {
	mu          sync.RWMutex
	byRecipient map[id.IdentityID][]*models.Notification
}

func NewInMemory() *InMemory {
	return &InMemory{byRecipient: make(map[id.IdentityID][]*models.Notification)}
}

// CreateBatch stores all records or none.
func (s *InMemory) CreateBatch(_ context.Context, records []*models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range records {
		c := *n
		s.byRecipient[n.IdentityID] = append(s.byRecipient[n.IdentityID], &c)
	}
	return nil
}

// ListByRecipient returns notifications newest first.
func (s *InMemory) ListByRecipient(_ context.Context, identityID id.IdentityID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.byRecipient[identityID]
	out := make([]*models.Notification, 0, len(src))
	for _, n := range src {
		c := *n
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
