// Package service implements the fund request approval workflow.
package service

import (
	"context"
	"errors"

	ledgermodels "fiscus/internal/ledger/models"
	"fiscus/internal/request/models"
	"fiscus/pkg/domain"
	dErrors "fiscus/pkg/domain-errors"
	"fiscus/pkg/platform/sentinel"
	"fiscus/pkg/requestcontext"
)

// Store is the persistence boundary for fund requests. UpdateStatus must
// only succeed when the request is still pending; it reports
// sentinel.ErrInvalidState otherwise.
type Store interface {
	Insert(ctx context.Context, request *models.FundRequest) (int64, error)
	Get(ctx context.Context, id int64) (*models.FundRequest, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) error
	Page(ctx context.Context, offset, limit int) ([]*models.FundRequest, error)
}

// Ledger is the slice of the entity ledger the workflow needs: entity
// lookups for validation, and the balance movements that release approved
// funds from custody. The ledger service satisfies it.
type Ledger interface {
	Get(ctx context.Context, id domain.EntityID) (*ledgermodels.Entity, error)
	Debit(ctx context.Context, id domain.EntityID, amount int64) error
	AddCustodied(ctx context.Context, delta int64) error
}

type Service struct {
	store  Store
	ledger Ledger
}

func New(store Store, ledger Ledger) *Service {
	return &Service{store: store, ledger: ledger}
}

// Submit files a new request against an active entity. The amount is not
// reserved; availability is only checked at approval time.
func (s *Service) Submit(ctx context.Context, entityID domain.EntityID, amount int64, reason string, documentHash domain.DocumentHash) (int64, error) {
	if amount <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "request amount must be positive")
	}
	if reason == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, "request reason cannot be empty")
	}
	entity, err := s.ledger.Get(ctx, entityID)
	if err != nil {
		return 0, err
	}
	if !entity.Active {
		return 0, dErrors.Newf(dErrors.CodeInactive, "entity %s is inactive", entityID)
	}

	request := &models.FundRequest{
		EntityID:     entityID,
		Amount:       amount,
		Reason:       reason,
		DocumentHash: documentHash,
		Status:       models.StatusPending,
		SubmittedAt:  requestcontext.Now(ctx),
	}
	id, err := s.store.Insert(ctx, request)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "insert fund request")
	}
	return id, nil
}

// Approve releases the requested amount from custody: the entity's tracked
// balance and the custodied total both decrease by it. Every failure leaves
// the request pending and the ledger untouched. An entity deactivated since
// submission cannot receive funds, so its requests fail with Inactive.
func (s *Service) Approve(ctx context.Context, id int64) (*models.FundRequest, error) {
	request, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	entity, err := s.ledger.Get(ctx, request.EntityID)
	if err != nil {
		return nil, err
	}
	if !entity.Active {
		return nil, dErrors.Newf(dErrors.CodeInactive, "entity %s is inactive", request.EntityID)
	}
	if err := s.ledger.Debit(ctx, request.EntityID, request.Amount); err != nil {
		return nil, err
	}
	if err := s.ledger.AddCustodied(ctx, -request.Amount); err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, id, models.StatusApproved); err != nil {
		return nil, err
	}
	request.Status = models.StatusApproved
	return request, nil
}

// Reject closes the request without moving any balances. It works for
// deactivated entities too, so their pending requests can still be cleared.
func (s *Service) Reject(ctx context.Context, id int64) (*models.FundRequest, error) {
	request, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, id, models.StatusRejected); err != nil {
		return nil, err
	}
	request.Status = models.StatusRejected
	return request, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.FundRequest, error) {
	request, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "fund request %d not found", id)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get fund request")
	}
	return request, nil
}

// Page returns requests in ascending id order, truncated to
// [offset, offset+limit).
func (s *Service) Page(ctx context.Context, offset, limit int) ([]*models.FundRequest, error) {
	if offset < 0 || limit <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidRange, "offset must be non-negative and limit positive")
	}
	requests, err := s.store.Page(ctx, offset, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "page fund requests")
	}
	return requests, nil
}

// pending loads a request and verifies it has not been resolved yet.
func (s *Service) pending(ctx context.Context, id int64) (*models.FundRequest, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, dErrors.Newf(dErrors.CodeNotPending, "fund request %d is already %s", id, request.Status)
	}
	return request, nil
}

func (s *Service) resolve(ctx context.Context, id int64, status models.Status) error {
	err := s.store.UpdateStatus(ctx, id, status)
	if errors.Is(err, sentinel.ErrInvalidState) {
		return dErrors.Newf(dErrors.CodeNotPending, "fund request %d is no longer pending", id)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "fund request %d not found", id)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update fund request status")
	}
	return nil
}
