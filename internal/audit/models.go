package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fiscus/pkg/domain"
)

// Actions recorded against the registry. Every mutation emits exactly one.
const (
	ActionEntityRegistered  = "entity.registered"
	ActionEntityDeactivated = "entity.deactivated"
	ActionFundsIssued       = "funds.issued"
	ActionSpendingRecorded  = "spending.recorded"
	ActionRequestSubmitted  = "request.submitted"
	ActionRequestApproved   = "request.approved"
	ActionRequestRejected   = "request.rejected"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Action     string          `json:"action"`
	Actor      domain.Caller   `json:"actor"`
	EntityID   domain.EntityID `json:"entity_id,omitempty"`
	RequestID  int64           `json:"request_id,omitempty"`
	RecordID   int64           `json:"record_id,omitempty"`
	Amount     int64           `json:"amount,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Store persists audit events. The Postgres implementation writes to an
// outbox table that the relay drains into Kafka.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityID domain.EntityID) ([]Event, error)
}
