package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teamloop/feedbackhub/internal/config"
	"github.com/teamloop/feedbackhub/internal/domain/user"
	"github.com/teamloop/feedbackhub/internal/security"
)

// EnsureManagerUser seeds a bootstrap manager account so a fresh deployment
// has someone who can submit feedback. No-op when unset or already present.
func EnsureManagerUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedManagerEmail == "" || cfg.SeedManagerPassword == "" {
		return nil
	}

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.SeedManagerEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.SeedManagerPassword)

	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, phone, department, role, created_at)
		VALUES ($1,$2,$3,$4,'','',$5,$6)
	`, uuid.NewString(), cfg.SeedManagerName, cfg.SeedManagerEmail, hash, user.RoleManager, time.Now().UTC())

	return err
}
