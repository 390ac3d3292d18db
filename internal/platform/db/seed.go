package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"crewplan/internal/domain/auth"
	"crewplan/internal/platform/config"
)

// Seed makes sure a fresh database has an admin account and the transport
// rates settings row. It is safe to run on every start.
func Seed(ctx context.Context, pool *Pool, cfg config.Config) error {
	if err := ensureTransportRates(ctx, pool); err != nil {
		return err
	}
	return ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureTransportRates(ctx context.Context, pool *Pool) error {
	_, err := pool.Exec(ctx, `INSERT INTO transport_rates (id) VALUES (1) ON CONFLICT (id) DO NOTHING`)
	return err
}

func ensureAdminUser(ctx context.Context, pool *Pool, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		slog.Info("admin seed skipped, SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set")
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = $1`, email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, name, role, status, password_hash)
    VALUES ($1,$2,$3,$4,$5)
  `, email, "Administrator", auth.RoleAdmin, auth.UserStatusActive, hash)
	if err != nil {
		return err
	}
	slog.Info("admin user seeded", "email", email)
	return nil
}
