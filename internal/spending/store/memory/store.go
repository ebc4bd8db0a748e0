// Package memory keeps the spending log in an append-only in-process slice.
// The slice index doubles as the id→offset mapping, so paging is a slice
// window instead of a scan.
package memory

import (
	"context"
	"sync"

	"fiscus/internal/spending/models"
)

type Store struct {
	mu      sync.RWMutex
	records []*models.SpendingRecord
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, record *models.SpendingRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *record
	stored.ID = int64(len(s.records)) + 1
	s.records = append(s.records, &stored)
	return stored.ID, nil
}

func (s *Store) Page(_ context.Context, offset, limit int) ([]*models.SpendingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if offset >= len(s.records) {
		return []*models.SpendingRecord{}, nil
	}
	// Clamp before adding so a huge limit cannot overflow the window end.
	end := len(s.records)
	if limit < end-offset {
		end = offset + limit
	}
	page := make([]*models.SpendingRecord, 0, end-offset)
	for _, record := range s.records[offset:end] {
		copied := *record
		page = append(page, &copied)
	}
	return page, nil
}
