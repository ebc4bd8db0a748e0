// Package memory keeps fund requests in an in-process slice indexed by id.
package memory

import (
	"context"
	"sync"

	"fiscus/internal/request/models"
	"fiscus/pkg/platform/sentinel"
)

type Store struct {
	mu       sync.RWMutex
	requests []*models.FundRequest
}

func New() *Store {
	return &Store{}
}

func (s *Store) Insert(_ context.Context, request *models.FundRequest) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *request
	stored.ID = int64(len(s.requests)) + 1
	s.requests = append(s.requests, &stored)
	return stored.ID, nil
}

func (s *Store) Get(_ context.Context, id int64) (*models.FundRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	copied := *request
	return &copied, nil
}

// UpdateStatus moves a pending request to a terminal status. It fails with
// sentinel.ErrInvalidState when the request has already been resolved, so
// callers can distinguish a lost race from a missing request.
func (s *Store) UpdateStatus(_ context.Context, id int64, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, err := s.locate(id)
	if err != nil {
		return err
	}
	if request.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	request.Status = status
	return nil
}

func (s *Store) Page(_ context.Context, offset, limit int) ([]*models.FundRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if offset >= len(s.requests) {
		return []*models.FundRequest{}, nil
	}
	// Clamp before adding so a huge limit cannot overflow the window end.
	end := len(s.requests)
	if limit < end-offset {
		end = offset + limit
	}
	page := make([]*models.FundRequest, 0, end-offset)
	for _, request := range s.requests[offset:end] {
		copied := *request
		page = append(page, &copied)
	}
	return page, nil
}

func (s *Store) locate(id int64) (*models.FundRequest, error) {
	if id < 1 || id > int64(len(s.requests)) {
		return nil, sentinel.ErrNotFound
	}
	return s.requests[id-1], nil
}
