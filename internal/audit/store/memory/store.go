// Package memory keeps audit events in-process. Used by the memory backend
// and in tests; there is no Kafka relay behind it.
package memory

import (
	"context"
	"sync"

	"fiscus/internal/audit"
	"fiscus/pkg/domain"
)

type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) ListByEntity(_ context.Context, entityID domain.EntityID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := []audit.Event{}
	for _, event := range s.events {
		if event.EntityID == entityID {
			events = append(events, event)
		}
	}
	return events, nil
}

// All returns every recorded event in emission order.
func (s *Store) All() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...)
}
