package models

import (
	"time"

	"fiscus/pkg/domain"
)

// SpendingRecord describes one disbursement by an entity. Records are
// append-only: once written they are never mutated or removed, and ids are
// strictly increasing in their own id space.
type SpendingRecord struct {
	ID           int64               `json:"id"`
	EntityID     domain.EntityID     `json:"entity_id"`
	Purpose      string              `json:"purpose"`
	Amount       int64               `json:"amount"`
	DocumentHash domain.DocumentHash `json:"document_hash"`
	Timestamp    time.Time           `json:"timestamp"`
}
