package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id             BIGSERIAL PRIMARY KEY,
		brand          TEXT NOT NULL,
		name           TEXT NOT NULL,
		price          DOUBLE PRECISION NOT NULL,
		discount_price DOUBLE PRECISION,
		description    TEXT NOT NULL DEFAULT '',
		quantity       INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		is_set         BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS set_options (
		id        BIGSERIAL PRIMARY KEY,
		set_id    BIGINT NOT NULL REFERENCES products(id),
		option_id BIGINT NOT NULL REFERENCES products(id),
		UNIQUE (set_id, option_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id          BIGSERIAL PRIMARY KEY,
		first_name  TEXT NOT NULL,
		last_name   TEXT NOT NULL,
		phone       TEXT NOT NULL,
		address     TEXT NOT NULL DEFAULT '',
		city        TEXT NOT NULL DEFAULT '',
		note        TEXT NOT NULL DEFAULT '',
		order_items JSONB NOT NULL,
		status      TEXT NOT NULL DEFAULT 'pending',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_created_at_idx ON orders (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS users (
		id       BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	)`,
}

// Migrate creates the tables on a fresh database. Every statement is
// idempotent, so running it on each boot is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
