package models

import (
	"time"

	"fiscus/pkg/domain"
)

// Status is the lifecycle state of a fund request. A request starts
// Pending and moves exactly once to Approved or Rejected.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the request can no longer change state.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// FundRequest is an entity's ask for funds to be released from custody.
type FundRequest struct {
	ID           int64               `json:"id"`
	EntityID     domain.EntityID     `json:"entity_id"`
	Amount       int64               `json:"amount"`
	Reason       string              `json:"reason"`
	DocumentHash domain.DocumentHash `json:"document_hash"`
	Status       Status              `json:"status"`
	SubmittedAt  time.Time           `json:"submitted_at"`
}
