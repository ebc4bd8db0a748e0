package audit

import (
	"context"

	"github.com/google/uuid"

	"fiscus/pkg/domain"
	"fiscus/pkg/requestcontext"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx)
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) ListByEntity(ctx context.Context, entityID domain.EntityID) ([]Event, error) {
	return p.store.ListByEntity(ctx, entityID)
}
