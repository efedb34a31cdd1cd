package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables on startup if they do not exist yet.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		phone         TEXT NOT NULL DEFAULT '',
		department    TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL CHECK (role IN ('employee','manager')),
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS feedbacks (
		id           TEXT PRIMARY KEY,
		employee_id  TEXT NOT NULL REFERENCES users(id),
		manager_id   TEXT NOT NULL REFERENCES users(id),
		strengths    TEXT NOT NULL DEFAULT '',
		improvements TEXT NOT NULL DEFAULT '',
		sentiment    TEXT NOT NULL DEFAULT '',
		acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS feedbacks_employee_idx ON feedbacks (employee_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS feedbacks_manager_idx ON feedbacks (manager_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id           TEXT PRIMARY KEY,
		type         TEXT NOT NULL,
		payload      JSONB NOT NULL,
		status       TEXT NOT NULL,
		attempts     INT NOT NULL DEFAULT 0,
		max_attempts INT NOT NULL DEFAULT 5,
		run_at       TIMESTAMPTZ NOT NULL,
		locked_at    TIMESTAMPTZ,
		locked_by    TEXT,
		last_error   TEXT,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS jobs_claim_idx ON jobs (status, run_at)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
