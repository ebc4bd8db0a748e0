// Package postgres persists the spending log. BIGSERIAL allocation keeps
// record ids strictly increasing across restarts.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"fiscus/internal/spending/models"
	txcontext "fiscus/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, record *models.SpendingRecord) (int64, error) {
	query := `
		INSERT INTO spending_records (entity_id, purpose, amount, document_hash, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := s.q(ctx).QueryRowContext(ctx, query,
		record.EntityID.String(), record.Purpose, record.Amount,
		record.DocumentHash.String(), record.Timestamp).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append spending record: %w", err)
	}
	return id, nil
}

func (s *Store) Page(ctx context.Context, offset, limit int) ([]*models.SpendingRecord, error) {
	query := `
		SELECT id, entity_id, purpose, amount, document_hash, recorded_at
		FROM spending_records
		ORDER BY id ASC
		OFFSET $1 LIMIT $2
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("page spending records: %w", err)
	}
	defer rows.Close()

	records := []*models.SpendingRecord{}
	for rows.Next() {
		var record models.SpendingRecord
		if err := rows.Scan(&record.ID, &record.EntityID, &record.Purpose,
			&record.Amount, &record.DocumentHash, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("scan spending record: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("page spending records: %w", err)
	}
	return records, nil
}
