package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
)

// schema is applied on startup; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS product_snapshot (
		id          uuid PRIMARY KEY,
		product_id  text NOT NULL,
		warehouse   text NOT NULL,
		name        text NOT NULL DEFAULT '',
		brand       text NOT NULL DEFAULT '',
		category    text NOT NULL DEFAULT '',
		unit_price  double precision NOT NULL DEFAULT 0,
		payload     jsonb NOT NULL,
		fetched_at  timestamptz NOT NULL DEFAULT now(),
		UNIQUE (product_id, warehouse)
	)`,
	`CREATE TABLE IF NOT EXISTS price_observation (
		id             uuid PRIMARY KEY,
		product_id     text NOT NULL,
		warehouse      text NOT NULL,
		unit_price     double precision NOT NULL,
		bulk_price     double precision,
		previous_price double precision,
		is_discounted  boolean NOT NULL DEFAULT false,
		observed_at    timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS price_observation_product_idx
		ON price_observation (product_id, warehouse, observed_at DESC)`,
}

func New(url string) (*sql.DB, error) {
	return sql.Open("postgres", url)
}

func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// EnsureSchema creates the tables used by the repositories.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
