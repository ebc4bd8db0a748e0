// Package postgres owns the database handle and the registry schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the postgres driver with database/sql.
	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// schema is the logical layout from the design: three id-keyed entity tables
// plus the registry total row and the audit outbox. BIGSERIAL keeps id
// allocation monotonic across restarts.
const schema = `
CREATE TABLE IF NOT EXISTS entities (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	active        BOOLEAN NOT NULL DEFAULT TRUE,
	balance       BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
	registered_at TIMESTAMPTZ NOT NULL,
	position      BIGSERIAL
);

CREATE TABLE IF NOT EXISTS registry_totals (
	id        SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	custodied BIGINT NOT NULL DEFAULT 0 CHECK (custodied >= 0)
);

INSERT INTO registry_totals (id, custodied) VALUES (1, 0)
ON CONFLICT (id) DO NOTHING;

CREATE TABLE IF NOT EXISTS spending_records (
	id            BIGSERIAL PRIMARY KEY,
	entity_id     TEXT NOT NULL REFERENCES entities (id),
	purpose       TEXT NOT NULL,
	amount        BIGINT NOT NULL CHECK (amount >= 0),
	document_hash TEXT NOT NULL,
	recorded_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_spending_records_entity ON spending_records (entity_id);

CREATE TABLE IF NOT EXISTS fund_requests (
	id            BIGSERIAL PRIMARY KEY,
	entity_id     TEXT NOT NULL REFERENCES entities (id),
	amount        BIGINT NOT NULL CHECK (amount > 0),
	reason        TEXT NOT NULL,
	document_hash TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending'
	              CHECK (status IN ('pending', 'approved', 'rejected')),
	submitted_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fund_requests_entity ON fund_requests (entity_id);

CREATE TABLE IF NOT EXISTS audit_outbox (
	id          UUID PRIMARY KEY,
	action      TEXT NOT NULL,
	actor       TEXT NOT NULL,
	entity_id   TEXT,
	request_id  BIGINT,
	record_id   BIGINT,
	amount      BIGINT,
	occurred_at TIMESTAMPTZ NOT NULL,
	published   BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_audit_outbox_unpublished
	ON audit_outbox (occurred_at) WHERE NOT published;
`

// EnsureSchema creates the registry tables when missing. Idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
