// Package postgres implements the audit store with a transactional outbox.
// Events are committed in the same transaction as the mutation they record,
// then relayed to Kafka by the outbox relay.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fiscus/internal/audit"
	"fiscus/pkg/domain"
	txcontext "fiscus/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_outbox (id, action, actor, entity_id, request_id, record_id, amount, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		event.ID, event.Action, event.Actor.String(),
		nullString(event.EntityID.String()), nullInt64(event.RequestID),
		nullInt64(event.RecordID), event.Amount, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByEntity(ctx context.Context, entityID domain.EntityID) ([]audit.Event, error) {
	query := `
		SELECT id, action, actor, entity_id, request_id, record_id, amount, occurred_at
		FROM audit_outbox
		WHERE entity_id = $1
		ORDER BY occurred_at ASC, id ASC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, entityID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Unpublished returns up to limit events not yet relayed to Kafka, oldest
// first.
func (s *Store) Unpublished(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, action, actor, entity_id, request_id, record_id, amount, occurred_at
		FROM audit_outbox
		WHERE NOT published
		ORDER BY occurred_at ASC, id ASC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE audit_outbox SET published = TRUE WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark audit events published: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	events := []audit.Event{}
	for rows.Next() {
		var (
			event     audit.Event
			actor     string
			entityID  sql.NullString
			requestID sql.NullInt64
			recordID  sql.NullInt64
		)
		if err := rows.Scan(&event.ID, &event.Action, &actor, &entityID,
			&requestID, &recordID, &event.Amount, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Actor = domain.Caller(actor)
		event.EntityID = domain.EntityID(entityID.String)
		event.RequestID = requestID.Int64
		event.RecordID = recordID.Int64
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}
