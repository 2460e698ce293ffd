// Package store persists the institute directory.
package store

import (
	"context"
	"sort"
	"sync"

	"samved/internal/institute/models"
	id "samved/pkg/domain"
	"samved/pkg/platform/sentinel"
)

type InMemory struct {
	mu         sync.RWMutex
	institutes map[id.InstituteCode]*models.Institute
}

func NewInMemory() *InMemory {
	return &InMemory{institutes: make(map[id.InstituteCode]*models.Institute)}
}

// Upsert inserts the institute or merges it into the existing entry.
func (s *InMemory) Upsert(_ context.Context, inst *models.Institute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.institutes[inst.Code]; ok {
		existing.Merge(inst)
		return nil
	}
	c := *inst
	s.institutes[inst.Code] = &c
	return nil
}

func (s *InMemory) FindByCode(_ context.Context, code id.InstituteCode) (*models.Institute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.institutes[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *inst
	return &c, nil
}

// List returns all institutes ordered by code.
func (s *InMemory) List(_ context.Context) ([]*models.Institute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Institute, 0, len(s.institutes))
	for _, inst := range s.institutes {
		c := *inst
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
