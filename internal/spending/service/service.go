// Package service implements the append-only spending record log.
package service

import (
	"context"

	ledgermodels "fiscus/internal/ledger/models"
	"fiscus/internal/spending/models"
	"fiscus/pkg/domain"
	dErrors "fiscus/pkg/domain-errors"
	"fiscus/pkg/requestcontext"
)

// Store is the persistence boundary for the record log. Append assigns the
// next id in the log's own id space; ids are strictly increasing and survive
// restarts.
type Store interface {
	Append(ctx context.Context, record *models.SpendingRecord) (int64, error)
	Page(ctx context.Context, offset, limit int) ([]*models.SpendingRecord, error)
}

// EntityReader resolves entities so appends can be validated. The ledger
// service satisfies it.
type EntityReader interface {
	Get(ctx context.Context, id domain.EntityID) (*ledgermodels.Entity, error)
}

type Service struct {
	store    Store
	entities EntityReader
}

func New(store Store, entities EntityReader) *Service {
	return &Service{store: store, entities: entities}
}

// Append records a disbursement. Spending by a deactivated entity is rejected:
// it would represent money leaving a frozen account.
func (s *Service) Append(ctx context.Context, entityID domain.EntityID, purpose string, amount int64, documentHash domain.DocumentHash) (int64, error) {
	if amount < 0 {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "spending amount cannot be negative")
	}
	if purpose == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, "spending purpose cannot be empty")
	}
	entity, err := s.entities.Get(ctx, entityID)
	if err != nil {
		return 0, err
	}
	if !entity.Active {
		return 0, dErrors.Newf(dErrors.CodeInactive, "entity %s is inactive", entityID)
	}

	record := &models.SpendingRecord{
		EntityID:     entityID,
		Purpose:      purpose,
		Amount:       amount,
		DocumentHash: documentHash,
		Timestamp:    requestcontext.Now(ctx),
	}
	id, err := s.store.Append(ctx, record)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "append spending record")
	}
	return id, nil
}

// Page returns records in ascending id order, truncated to
// [offset, offset+limit). An offset past the end of the log yields an empty
// page, not an error.
func (s *Service) Page(ctx context.Context, offset, limit int) ([]*models.SpendingRecord, error) {
	if offset < 0 || limit <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidRange, "offset must be non-negative and limit positive")
	}
	records, err := s.store.Page(ctx, offset, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "page spending records")
	}
	return records, nil
}
