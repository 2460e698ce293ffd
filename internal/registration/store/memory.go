// Package store persists staged registrations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"samved/internal/registration/models"
	id "samved/pkg/domain"
	"samved/pkg/platform/sentinel"
)

type InMemory struct {
	mu   sync.RWMutex
	byID map[id.RegistrationID]*models.StagedRegistration
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.RegistrationID]*models.StagedRegistration)}
}

// Create stores a staged registration. Returns sentinel.ErrAlreadyUsed when
// the team name or leader email is already staged.
func (s *InMemory) Create(_ context.Context, reg *models.StagedRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.TeamName == reg.TeamName {
			return fmt.Errorf("team name %q: %w", reg.TeamName, sentinel.ErrAlreadyUsed)
		}
		if existing.LeaderEmail == reg.LeaderEmail {
			return fmt.Errorf("leader email %s: %w", reg.LeaderEmail, sentinel.ErrAlreadyUsed)
		}
	}
	s.byID[reg.ID] = reg.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, regID id.RegistrationID) (*models.StagedRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.byID[regID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return reg.Clone(), nil
}

func (s *InMemory) FindByTeamName(_ context.Context, name string) (*models.StagedRegistration, error) {
	return s.findFirst(func(r *models.StagedRegistration) bool { return r.TeamName == name })
}

func (s *InMemory) FindByLeaderEmail(_ context.Context, addr string) (*models.StagedRegistration, error) {
	return s.findFirst(func(r *models.StagedRegistration) bool { return r.LeaderEmail == addr })
}

// FindByParticipantEmail matches the leader or any member.
func (s *InMemory) FindByParticipantEmail(_ context.Context, addr string) (*models.StagedRegistration, error) {
	return s.findFirst(func(r *models.StagedRegistration) bool {
		for _, e := range r.ParticipantEmails() {
			if e == addr {
				return true
			}
		}
		return false
	})
}

func (s *InMemory) findFirst(match func(*models.StagedRegistration) bool) (*models.StagedRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, reg := range s.byID {
		if match(reg) {
			return reg.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// ListPending returns staged registrations newest first.
func (s *InMemory) ListPending(_ context.Context) ([]*models.StagedRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.StagedRegistration, 0, len(s.byID))
	for _, reg := range s.byID {
		out = append(out, reg.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, regID id.RegistrationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[regID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, regID)
	return nil
}
