// Package store persists identities in memory or Postgres.
package store

import (
	"context"
	"fmt"
	"sync"

	"samved/internal/identity/models"
	id "samved/pkg/domain"
	"samved/pkg/platform/sentinel"
)

// InMemory is a map-backed identity store. Records are copied on the way in
// and out so callers never share mutable state with the store.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.IdentityID]*models.Identity
	byEmail map[string]id.IdentityID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.IdentityID]*models.Identity),
		byEmail: make(map[string]id.IdentityID),
	}
}

func clone(i *models.Identity) *models.Identity {
	c := *i
	if i.TeamID != nil {
		t := *i.TeamID
		c.TeamID = &t
	}
	return &c
}

// Create inserts an identity. Returns sentinel.ErrAlreadyUsed when the email
// is taken and sentinel.ErrConflict when a spoc or mentor already occupies
// the institute code.
func (s *InMemory) Create(_ context.Context, ident *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[ident.Email]; ok {
		return fmt.Errorf("email %s: %w", ident.Email, sentinel.ErrAlreadyUsed)
	}
	if ident.Role.IsSingleOccupancy() && s.occupantLocked(ident.Role, ident.InstituteCode) != nil {
		return fmt.Errorf("%s for institute %s: %w", ident.Role, ident.InstituteCode, sentinel.ErrConflict)
	}
	s.byID[ident.ID] = clone(ident)
	s.byEmail[ident.Email] = ident.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, identityID id.IdentityID) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.byID[identityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(ident), nil
}

// FindByEmail is an exact-match lookup.
func (s *InMemory) FindByEmail(_ context.Context, addr string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identityID, ok := s.byEmail[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.byID[identityID]), nil
}

// FindOccupant returns the identity holding a single-occupancy role for an institute code.
func (s *InMemory) FindOccupant(_ context.Context, role id.Role, code id.InstituteCode) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ident := s.occupantLocked(role, code); ident != nil {
		return clone(ident), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) occupantLocked(role id.Role, code id.InstituteCode) *models.Identity {
	for _, ident := range s.byID {
		if ident.Role == role && ident.InstituteCode == code {
			return ident
		}
	}
	return nil
}

// Update replaces the stored record. Email is immutable.
func (s *InMemory) Update(_ context.Context, ident *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[ident.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.Email != ident.Email {
		return fmt.Errorf("email is immutable: %w", sentinel.ErrConflict)
	}
	s.byID[ident.ID] = clone(ident)
	return nil
}

func (s *InMemory) Delete(_ context.Context, identityID id.IdentityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.byID[identityID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, ident.Email)
	delete(s.byID, identityID)
	return nil
}

// ListByTeam returns identities whose back-reference names teamID.
func (s *InMemory) ListByTeam(_ context.Context, teamID id.TeamID) ([]*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Identity
	for _, ident := range s.byID {
		if ident.TeamID != nil && *ident.TeamID == teamID {
			out = append(out, clone(ident))
		}
	}
	return out, nil
}
