// Package postgres persists fund requests. Status transitions are guarded
// at the SQL level so a terminal request can never be resolved twice.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fiscus/internal/request/models"
	"fiscus/pkg/platform/sentinel"
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
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Insert(ctx context.Context, request *models.FundRequest) (int64, error) {
	query := `
		INSERT INTO fund_requests (entity_id, amount, reason, document_hash, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err := s.q(ctx).QueryRowContext(ctx, query,
		request.EntityID.String(), request.Amount, request.Reason,
		request.DocumentHash.String(), string(request.Status), request.SubmittedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert fund request: %w", err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.FundRequest, error) {
	query := `
		SELECT id, entity_id, amount, reason, document_hash, status, submitted_at
		FROM fund_requests
		WHERE id = $1
	`
	var request models.FundRequest
	err := s.q(ctx).QueryRowContext(ctx, query, id).Scan(
		&request.ID, &request.EntityID, &request.Amount, &request.Reason,
		&request.DocumentHash, &request.Status, &request.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fund request: %w", err)
	}
	return &request, nil
}

// UpdateStatus resolves a pending request. The WHERE clause only matches
// pending rows; when nothing matched the request either does not exist or
// is already terminal, and a second lookup tells the two apart.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	result, err := s.q(ctx).ExecContext(ctx,
		`UPDATE fund_requests SET status = $1 WHERE id = $2 AND status = $3`,
		string(status), id, string(models.StatusPending))
	if err != nil {
		return fmt.Errorf("update fund request status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update fund request status: %w", err)
	}
	if affected == 1 {
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return sentinel.ErrInvalidState
}

func (s *Store) Page(ctx context.Context, offset, limit int) ([]*models.FundRequest, error) {
	query := `
		SELECT id, entity_id, amount, reason, document_hash, status, submitted_at
		FROM fund_requests
		ORDER BY id ASC
		OFFSET $1 LIMIT $2
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("page fund requests: %w", err)
	}
	defer rows.Close()

	requests := []*models.FundRequest{}
	for rows.Next() {
		var request models.FundRequest
		if err := rows.Scan(&request.ID, &request.EntityID, &request.Amount,
			&request.Reason, &request.DocumentHash, &request.Status,
			&request.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan fund request: %w", err)
		}
		requests = append(requests, &request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("page fund requests: %w", err)
	}
	return requests, nil
}
