// Package store persists active teams and their member sets.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"samved/internal/team/models"
	id "samved/pkg/domain"
	"samved/pkg/platform/sentinel"
)

// InMemory mirrors the Postgres constraints: unique team names and at most
// one team per identity.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[id.TeamID]*models.Team
	memberOf map[id.IdentityID]id.TeamID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[id.TeamID]*models.Team),
		memberOf: make(map[id.IdentityID]id.TeamID),
	}
}

// Create stores a team. Returns sentinel.ErrAlreadyUsed for a taken name and
// sentinel.ErrConflict when a member already belongs to another team.
func (s *InMemory) Create(_ context.Context, team *models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Name == team.Name {
			return fmt.Errorf("team name %q: %w", team.Name, sentinel.ErrAlreadyUsed)
		}
	}
	if err := s.checkMembersLocked(team.ID, team.MemberIDs); err != nil {
		return err
	}
	s.byID[team.ID] = team.Clone()
	for _, m := range team.MemberIDs {
		s.memberOf[m] = team.ID
	}
	return nil
}

func (s *InMemory) checkMembersLocked(teamID id.TeamID, memberIDs []id.IdentityID) error {
	for _, m := range memberIDs {
		if other, ok := s.memberOf[m]; ok && other != teamID {
			return fmt.Errorf("identity %s is on team %s: %w", m, other, sentinel.ErrConflict)
		}
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, teamID id.TeamID) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.byID[teamID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return team.Clone(), nil
}

func (s *InMemory) ExistsByName(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, team := range s.byID {
		if team.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// UpdateMembers replaces the member set of a team.
func (s *InMemory) UpdateMembers(_ context.Context, team *models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[team.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := s.checkMembersLocked(team.ID, team.MemberIDs); err != nil {
		return err
	}
	for _, m := range current.MemberIDs {
		delete(s.memberOf, m)
	}
	for _, m := range team.MemberIDs {
		s.memberOf[m] = team.ID
	}
	updated := current.Clone()
	updated.MemberIDs = append(updated.MemberIDs[:0:0], team.MemberIDs...)
	updated.UpdatedAt = team.UpdatedAt
	s.byID[team.ID] = updated
	return nil
}

func (s *InMemory) Delete(_ context.Context, teamID id.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.byID[teamID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for _, m := range team.MemberIDs {
		delete(s.memberOf, m)
	}
	delete(s.byID, teamID)
	return nil
}

// List returns all teams newest first.
func (s *InMemory) List(_ context.Context) ([]*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Team, 0, len(s.byID))
	for _, team := range s.byID {
		out = append(out, team.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
