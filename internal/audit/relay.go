package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fiscus/pkg/domain"
	"fiscus/pkg/platform/circuit"
)

// OutboxSource is the slice of the Postgres store the relay drains.
type OutboxSource interface {
	Unpublished(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Sink is the downstream the relay publishes into. The Kafka producer
// satisfies it.
type Sink interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Relay drains the audit outbox into Kafka. Events are keyed by entity id so
// per-entity ordering is preserved across partitions. A failed publish is
// retried on the next tick; at-least-once delivery is accepted.
type Relay struct {
	source   OutboxSource
	sink     Sink
	logger   *slog.Logger
	breaker  *circuit.Breaker
	interval time.Duration
	batch    int
}

func NewRelay(source OutboxSource, sink Sink, logger *slog.Logger) *Relay {
	return &Relay{
		source:   source,
		sink:     sink,
		logger:   logger,
		breaker:  circuit.New("audit-relay", circuit.WithFailureThreshold(3)),
		interval: 2 * time.Second,
		batch:    100,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				r.logger.WarnContext(ctx, "audit relay cycle failed", "error", err)
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	batch := r.batch
	if r.breaker.IsOpen() {
		// Broker was failing; probe with a single event until it recovers.
		batch = 1
	}
	events, err := r.source.Unpublished(ctx, batch)
	if err != nil {
		return err
	}
	published := make([]uuid.UUID, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			r.logger.ErrorContext(ctx, "marshal audit event", "event_id", event.ID, "error", err)
			continue
		}
		if err := r.sink.Publish(ctx, partitionKey(event), payload); err != nil {
			if _, change := r.breaker.RecordFailure(); change.Opened {
				r.logger.WarnContext(ctx, "audit sink circuit opened")
			}
			// Stop the batch here so ordering within the key is kept.
			if markErr := r.source.MarkPublished(ctx, published); markErr != nil {
				return markErr
			}
			return err
		}
		if _, change := r.breaker.RecordSuccess(); change.Closed {
			r.logger.InfoContext(ctx, "audit sink circuit closed")
		}
		published = append(published, event.ID)
	}
	return r.source.MarkPublished(ctx, published)
}

func partitionKey(event Event) string {
	if event.EntityID != domain.EntityID("") {
		return event.EntityID.String()
	}
	return event.Action
}
