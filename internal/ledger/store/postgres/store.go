// Package postgres persists the ledger in PostgreSQL. Mutations made inside a
// registry transaction pick up the *sql.Tx from context so the whole mutation
// commits or rolls back as one unit.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"fiscus/internal/ledger/models"
	"fiscus/pkg/domain"
	"fiscus/pkg/platform/sentinel"
	txcontext "fiscus/pkg/platform/tx"
)

const uniqueViolation = "23505"

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

func (s *Store) Insert(ctx context.Context, entity *models.Entity) error {
	query := `
		INSERT INTO entities (id, name, active, balance, registered_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		entity.ID.String(), entity.Name, entity.Active, entity.Balance, entity.RegisteredAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert entity: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.EntityID) (*models.Entity, error) {
	query := `
		SELECT id, name, active, balance, registered_at
		FROM entities
		WHERE id = $1
	`
	var entity models.Entity
	err := s.q(ctx).QueryRowContext(ctx, query, id.String()).Scan(
		&entity.ID, &entity.Name, &entity.Active, &entity.Balance, &entity.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return &entity, nil
}

func (s *Store) Update(ctx context.Context, entity *models.Entity) error {
	query := `
		UPDATE entities
		SET name = $2, active = $3, balance = $4
		WHERE id = $1
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		entity.ID.String(), entity.Name, entity.Active, entity.Balance)
	if err != nil {
		return fmt.Errorf("update entity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*models.Entity, error) {
	query := `
		SELECT id, name, active, balance, registered_at
		FROM entities
		ORDER BY position ASC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var entities []*models.Entity
	for rows.Next() {
		var entity models.Entity
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.Active, &entity.Balance, &entity.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, &entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return entities, nil
}

func (s *Store) Custodied(ctx context.Context) (int64, error) {
	var total int64
	err := s.q(ctx).QueryRowContext(ctx, `SELECT custodied FROM registry_totals WHERE id = 1`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("read custodied total: %w", err)
	}
	return total, nil
}

func (s *Store) AddCustodied(ctx context.Context, delta int64) (int64, error) {
	var total int64
	query := `
		UPDATE registry_totals
		SET custodied = custodied + $1
		WHERE id = 1
		RETURNING custodied
	`
	if err := s.q(ctx).QueryRowContext(ctx, query, delta).Scan(&total); err != nil {
		return 0, fmt.Errorf("update custodied total: %w", err)
	}
	return total, nil
}
