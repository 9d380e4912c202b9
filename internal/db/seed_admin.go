package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/printhub/internal/config"
	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser creates the bootstrap admin account and its profile when
// ADMIN_EMAIL and ADMIN_PASSWORD are set and no account holds that email.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	var dummy string
	err := pool.QueryRow(ctx, `SELECT id FROM accounts WHERE email = $1`, email).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	a := user.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    cfg.AdminFirstName,
		LastName:     cfg.AdminLastName,
		Role:         user.RoleAdmin,
		CreatedAt:    now,
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, first_name, last_name, role, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName, string(a.Role), a.CreatedAt,
	); err != nil {
		return err
	}

	// the profile row is what authorization reads, so it is written with the account
	if _, err := tx.Exec(ctx, `
		INSERT INTO profiles (id, first_name, last_name, email, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role`,
		a.ID, a.FirstName, a.LastName, a.Email, string(a.Role), now,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
