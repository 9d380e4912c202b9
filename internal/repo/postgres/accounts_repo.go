package postgres

import (
	"context"
	"strings"

	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountsRepo stores credentials for the built-in session provider.
type AccountsRepo struct {
	store
}

func NewAccountsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AccountsRepo {
	return &AccountsRepo{store{pool: pool, prom: prom}}
}

func (r *AccountsRepo) GetByEmail(ctx context.Context, email string) (user.Account, error) {
	var a user.Account
	var role string
	op := "accounts.get_by_email"

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, email, password_hash, first_name, last_name, role, created_at
			FROM accounts
			WHERE email = $1`,
			strings.ToLower(strings.TrimSpace(email)),
		).Scan(
			&a.ID,
			&a.Email,
			&a.PasswordHash,
			&a.FirstName,
			&a.LastName,
			&role,
			&a.CreatedAt,
		)
	})

	if err != nil {
		return user.Account{}, translate(op, "account", err)
	}

	a.Role = user.Role(role)
	return a, nil
}

func (r *AccountsRepo) GetByID(ctx context.Context, id string) (user.Account, error) {
	var a user.Account
	var role string
	op := "accounts.get_by_id"

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, email, password_hash, first_name, last_name, role, created_at
			FROM accounts
			WHERE id = $1`, id,
		).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &role, &a.CreatedAt)
	})

	if err != nil {
		return user.Account{}, translate(op, "account", err)
	}

	a.Role = user.Role(role)
	return a, nil
}

// Create inserts an account. A taken email surfaces as Conflict "account_exists".
func (r *AccountsRepo) Create(ctx context.Context, a user.Account) (user.Account, error) {
	op := "accounts.create"
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))

	err := r.observe(op, func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO accounts (id, email, password_hash, first_name, last_name, role, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName, string(a.Role), a.CreatedAt,
		)
		return err
	})

	if err != nil {
		return user.Account{}, translate(op, "account", err)
	}
	return a, nil
}
