// Package db provides database connection helpers.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string, maxConns int) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL DEFAULT '',
	password_hash TEXT,
	google_id     TEXT UNIQUE,
	provider      TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS job_applications (
	id               UUID PRIMARY KEY,
	user_id          TEXT NOT NULL,
	company_name     TEXT NOT NULL,
	position         TEXT NOT NULL,
	status           TEXT NOT NULL
	                 CHECK (status IN ('wishlist', 'applied', 'interview', 'offered', 'rejected')),
	applied_date     DATE NOT NULL,
	job_type         TEXT CHECK (job_type IN ('remote', 'hybrid', 'onsite')),
	location         TEXT,
	salary           TEXT,
	job_url          TEXT,
	notes            TEXT,
	tags             TEXT[] NOT NULL DEFAULT '{}',
	interview_stages JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS job_applications_user_applied_idx
	ON job_applications (user_id, applied_date DESC);
`

// EnsureSchema creates the tracker tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
