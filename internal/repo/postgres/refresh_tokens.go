package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RefreshTokensRepo struct {
	store
}

func NewRefreshTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *RefreshTokensRepo {
	return &RefreshTokensRepo{store{pool: pool, prom: prom}}
}

func (r *RefreshTokensRepo) Create(ctx context.Context, tx pgx.Tx, row user.RefreshToken) error {
	op := "refresh_tokens.create"

	err := r.observe(op, func() error {
		_, err := tx.Exec(ctx, `
			INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			row.ID, row.UserID, row.TokenHash, row.ExpiresAt, row.RevokedAt, row.ReplacedBy, row.CreatedAt,
		)
		return err
	})
	return translate(op, "refresh_token", err)
}

// GetForUpdate locks the row so two concurrent refreshes cannot both rotate it.
func (r *RefreshTokensRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (user.RefreshToken, error) {
	var row user.RefreshToken
	op := "refresh_tokens.get_for_update"

	err := r.observe(op, func() error {
		return tx.QueryRow(ctx, `
			SELECT id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at
			FROM refresh_tokens
			WHERE id = $1
			FOR UPDATE
		`, id).Scan(
			&row.ID,
			&row.UserID,
			&row.TokenHash,
			&row.ExpiresAt,
			&row.RevokedAt,
			&row.ReplacedBy,
			&row.CreatedAt,
		)
	})

	if err != nil {
		return user.RefreshToken{}, translate(op, "refresh_token", err)
	}
	return row, nil
}

func (r *RefreshTokensRepo) Revoke(ctx context.Context, tx pgx.Tx, id string, replacedBy *string) error {
	op := "refresh_tokens.revoke"

	err := r.observe(op, func() error {
		_, err := tx.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW(), replaced_by = $2
			WHERE id = $1 AND revoked_at IS NULL
		`, id, replacedBy)
		return err
	})
	return translate(op, "refresh_token", err)
}

func (r *RefreshTokensRepo) RevokeAllForUser(ctx context.Context, tx pgx.Tx, userID string) error {
	op := "refresh_tokens.revoke_all"

	err := r.observe(op, func() error {
		_, err := tx.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW()
			WHERE user_id = $1 AND revoked_at IS NULL
		`, userID)
		return err
	})
	return translate(op, "refresh_token", err)
}

func (r *RefreshTokensRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, translate("refresh_tokens.begin", "refresh_token", err)
	}
	return tx, nil
}

// Issue stores a freshly minted refresh token in its own transaction.
func (r *RefreshTokensRepo) Issue(ctx context.Context, row user.RefreshToken) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.Create(ctx, tx, row); err != nil {
		return err
	}
	return translate("refresh_tokens.commit", "refresh_token", tx.Commit(ctx))
}

// Rotate swaps the token oldID for next under a row lock. presentedHash must
// match the stored hash. Presenting a token that was already rotated revokes
// every session of its user.
func (r *RefreshTokensRepo) Rotate(ctx context.Context, oldID, presentedHash string, next user.RefreshToken) error {
	invalid := apperr.NotAuthenticated("Invalid refresh token.")

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row, err := r.GetForUpdate(ctx, tx, oldID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return invalid
		}
		return err
	}

	if row.TokenHash != presentedHash {
		return invalid
	}

	if row.RevokedAt != nil {
		if row.ReplacedBy != nil {
			// reuse of a rotated token
			if err := r.RevokeAllForUser(ctx, tx, row.UserID); err != nil {
				return err
			}
			if err := tx.Commit(ctx); err != nil {
				return translate("refresh_tokens.commit", "refresh_token", err)
			}
		}
		return invalid
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		return apperr.NotAuthenticated("Refresh token expired.")
	}

	if err := r.Revoke(ctx, tx, row.ID, &next.ID); err != nil {
		return err
	}
	if err := r.Create(ctx, tx, next); err != nil {
		return err
	}

	return translate("refresh_tokens.commit", "refresh_token", tx.Commit(ctx))
}

// RevokeOne revokes a single token; unknown or already revoked ids are a no-op.
func (r *RefreshTokensRepo) RevokeOne(ctx context.Context, id string) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.Revoke(ctx, tx, id, nil); err != nil {
		return err
	}
	return translate("refresh_tokens.commit", "refresh_token", tx.Commit(ctx))
}
