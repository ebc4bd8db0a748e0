package models

import (
	"time"

	"fiscus/pkg/domain"
)

// Entity is a registered spending unit holding a custodied balance. Entities
// are never deleted; deactivation is a tombstone and historical records stay
// queryable.
type Entity struct {
	ID           domain.EntityID `json:"id"`
	Name         string          `json:"name"`
	Active       bool            `json:"active"`
	Balance      int64           `json:"balance"`
	RegisteredAt time.Time       `json:"registered_at"`
}
