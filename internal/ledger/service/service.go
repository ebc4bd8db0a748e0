// Package service implements the entity ledger: registration, deactivation,
// and every balance movement. No other component mutates balances; the
// authority orchestrates calls into this package inside its transactional
// boundary.
package service

import (
	"context"
	"errors"
	"math"

	"fiscus/internal/ledger/models"
	"fiscus/pkg/domain"
	dErrors "fiscus/pkg/domain-errors"
	"fiscus/pkg/platform/sentinel"
	"fiscus/pkg/requestcontext"
)

// Store is the persistence boundary for entities and the registry total.
// Implementations return sentinel errors; this service translates them into
// domain error codes.
type Store interface {
	Insert(ctx context.Context, entity *models.Entity) error
	Get(ctx context.Context, id domain.EntityID) (*models.Entity, error)
	Update(ctx context.Context, entity *models.Entity) error
	List(ctx context.Context) ([]*models.Entity, error)
	Custodied(ctx context.Context) (int64, error)
	AddCustodied(ctx context.Context, delta int64) (int64, error)
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// Register creates an entity with zero balance in active state.
func (s *Service) Register(ctx context.Context, id domain.EntityID, name string) (*models.Entity, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "entity name cannot be empty")
	}
	entity := &models.Entity{
		ID:           id,
		Name:         name,
		Active:       true,
		Balance:      0,
		RegisteredAt: requestcontext.Now(ctx),
	}
	if err := s.store.Insert(ctx, entity); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeAlreadyRegistered, "entity %s is already registered", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "insert entity")
	}
	return entity, nil
}

// Deactivate tombstones an entity. Deactivating twice fails; the first
// deactivation is the only successful one.
func (s *Service) Deactivate(ctx context.Context, id domain.EntityID) error {
	entity, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !entity.Active {
		return dErrors.Newf(dErrors.CodeAlreadyInactive, "entity %s is already inactive", id)
	}
	entity.Active = false
	if err := s.store.Update(ctx, entity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update entity")
	}
	return nil
}

// Credit increases an active entity's balance. The only callers are the
// authority's issuance path; nothing else increases a balance.
func (s *Service) Credit(ctx context.Context, id domain.EntityID, amount int64) error {
	if amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "credit amount must be positive")
	}
	entity, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !entity.Active {
		return dErrors.Newf(dErrors.CodeInactive, "entity %s is inactive", id)
	}
	if entity.Balance > math.MaxInt64-amount {
		return dErrors.New(dErrors.CodeOverflow, "entity balance would overflow")
	}
	entity.Balance += amount
	if err := s.store.Update(ctx, entity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update entity")
	}
	return nil
}

// Debit moves funds out of an active entity's tracked balance. Used when an
// approved request releases funds from custody. Never drives the balance
// negative.
func (s *Service) Debit(ctx context.Context, id domain.EntityID, amount int64) error {
	if amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "debit amount must be positive")
	}
	entity, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !entity.Active {
		return dErrors.Newf(dErrors.CodeInactive, "entity %s is inactive", id)
	}
	if entity.Balance < amount {
		return dErrors.Newf(dErrors.CodeInsufficientFunds, "entity %s balance %d cannot cover %d", id, entity.Balance, amount)
	}
	entity.Balance -= amount
	if err := s.store.Update(ctx, entity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update entity")
	}
	return nil
}

// Get returns the entity detail for any caller.
func (s *Service) Get(ctx context.Context, id domain.EntityID) (*models.Entity, error) {
	return s.get(ctx, id)
}

// BalanceOf returns the entity's tracked balance.
func (s *Service) BalanceOf(ctx context.Context, id domain.EntityID) (int64, error) {
	entity, err := s.get(ctx, id)
	if err != nil {
		return 0, err
	}
	return entity.Balance, nil
}

// IsActive reports whether the entity can receive issuances and approvals.
func (s *Service) IsActive(ctx context.Context, id domain.EntityID) (bool, error) {
	entity, err := s.get(ctx, id)
	if err != nil {
		return false, err
	}
	return entity.Active, nil
}

// List returns all entities in stable registration order.
func (s *Service) List(ctx context.Context) ([]*models.Entity, error) {
	entities, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list entities")
	}
	return entities, nil
}

// Custodied returns the registry total backing the sum of entity balances.
func (s *Service) Custodied(ctx context.Context) (int64, error) {
	total, err := s.store.Custodied(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "read custodied total")
	}
	return total, nil
}

// AddCustodied moves the registry total by delta. Positive deltas are external
// funding entering custody; negative deltas are approvals releasing funds.
func (s *Service) AddCustodied(ctx context.Context, delta int64) error {
	total, err := s.store.Custodied(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "read custodied total")
	}
	if delta > 0 && total > math.MaxInt64-delta {
		return dErrors.New(dErrors.CodeOverflow, "custodied total would overflow")
	}
	if delta < 0 && total+delta < 0 {
		return dErrors.New(dErrors.CodeInsufficientFunds, "custodied total cannot go negative")
	}
	if _, err := s.store.AddCustodied(ctx, delta); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update custodied total")
	}
	return nil
}

func (s *Service) get(ctx context.Context, id domain.EntityID) (*models.Entity, error) {
	entity, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "entity %s is not registered", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get entity")
	}
	return entity, nil
}
