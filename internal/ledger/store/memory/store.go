// Package memory keeps the ledger in process memory. Useful for tests and
// single-node deployments; durability comes from the postgres store.
package memory

import (
	"context"
	"sync"

	"fiscus/internal/ledger/models"
	"fiscus/pkg/domain"
	"fiscus/pkg/platform/sentinel"
)

type Store struct {
	mu        sync.RWMutex
	entities  map[domain.EntityID]*models.Entity
	order     []domain.EntityID
	custodied int64
}

func New() *Store {
	return &Store{entities: make(map[domain.EntityID]*models.Entity)}
}

func (s *Store) Insert(_ context.Context, entity *models.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entities[entity.ID]; exists {
		return sentinel.ErrConflict
	}
	stored := *entity
	s.entities[entity.ID] = &stored
	s.order = append(s.order, entity.ID)
	return nil
}

func (s *Store) Get(_ context.Context, id domain.EntityID) (*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entity, ok := s.entities[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *entity
	return &copied, nil
}

func (s *Store) Update(_ context.Context, entity *models.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[entity.ID]; !ok {
		return sentinel.ErrNotFound
	}
	stored := *entity
	s.entities[entity.ID] = &stored
	return nil
}

func (s *Store) List(_ context.Context) ([]*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entities := make([]*models.Entity, 0, len(s.order))
	for _, id := range s.order {
		copied := *s.entities[id]
		entities = append(entities, &copied)
	}
	return entities, nil
}

func (s *Store) Custodied(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custodied, nil
}

func (s *Store) AddCustodied(_ context.Context, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.custodied += delta
	return s.custodied, nil
}
