package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, first_name, last_name, email, role, avatar_url, bio, created_at, updated_at`

type ProfilesRepo struct {
	store
}

func NewProfilesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProfilesRepo {
	return &ProfilesRepo{store{pool: pool, prom: prom}}
}

func scanProfile(row pgx.Row) (user.Profile, error) {
	var p user.Profile
	var role string

	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&role,
		&p.AvatarURL,
		&p.Bio,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	p.Role = user.Role(role)
	return p, err
}

func (r *ProfilesRepo) GetByID(ctx context.Context, id string) (user.Profile, error) {
	var p user.Profile
	op := "profiles.get_by_id"

	err := r.observe(op, func() error {
		var err error
		p, err = scanProfile(r.pool.QueryRow(ctx,
			`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
		return err
	})

	if err != nil {
		return user.Profile{}, translate(op, "profile", err)
	}
	return p, nil
}

// Create inserts a new profile row. An existing row for the same id is a
// Conflict, which the resolver treats as "someone else created it first".
func (r *ProfilesRepo) Create(ctx context.Context, in user.Profile) (user.Profile, error) {
	var p user.Profile
	op := "profiles.create"

	err := r.observe(op, func() error {
		var err error
		p, err = scanProfile(r.pool.QueryRow(ctx, `
			INSERT INTO profiles (id, first_name, last_name, email, role, avatar_url, bio, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING `+profileColumns,
			in.ID, in.FirstName, in.LastName, in.Email, string(in.Role), in.AvatarURL, in.Bio, in.CreatedAt, in.UpdatedAt,
		))
		return err
	})

	if err != nil {
		return user.Profile{}, translate(op, "profile", err)
	}
	return p, nil
}

// Update applies a partial update; nil fields keep their current value.
func (r *ProfilesRepo) Update(ctx context.Context, id string, req user.UpdateProfileRequest) (user.Profile, error) {
	var p user.Profile
	op := "profiles.update"

	err := r.observe(op, func() error {
		var err error
		p, err = scanProfile(r.pool.QueryRow(ctx, `
			UPDATE profiles
			SET first_name = COALESCE($2, first_name),
			    last_name  = COALESCE($3, last_name),
			    bio        = COALESCE($4, bio),
			    avatar_url = COALESCE($5, avatar_url),
			    updated_at = NOW()
			WHERE id = $1
			RETURNING `+profileColumns,
			id, req.FirstName, req.LastName, req.Bio, req.AvatarURL,
		))
		return err
	})

	if err != nil {
		return user.Profile{}, translate(op, "profile", err)
	}
	return p, nil
}

func (r *ProfilesRepo) List(ctx context.Context, f user.ListProfilesFilter) ([]user.Profile, int, error) {
	op := "profiles.list"

	var conds []string
	var args []any
	argsPosition := 1

	if f.Role != nil {
		conds = append(conds, fmt.Sprintf("role = $%d", argsPosition))
		args = append(args, string(*f.Role))
		argsPosition++
	}

	if f.Query != nil {
		conds = append(conds, fmt.Sprintf("(first_name || ' ' || last_name || ' ' || email) ILIKE $%d", argsPosition))
		args = append(args, "%"+escapeLike(*f.Query)+"%")
		argsPosition++
	}

	query := `SELECT ` + profileColumns + `, COUNT(*) OVER() AS total FROM profiles`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, f.Limit, f.Offset)

	out := make([]user.Profile, 0, f.Limit)
	total := 0

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p user.Profile
			var role string
			var t int

			if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &role,
				&p.AvatarURL, &p.Bio, &p.CreatedAt, &p.UpdatedAt, &t); err != nil {
				return err
			}
			p.Role = user.Role(role)
			total = t
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, translate(op, "profile", err)
	}
	return out, total, nil
}

// ListRoles returns the role of every profile, for the admin dashboard.
func (r *ProfilesRepo) ListRoles(ctx context.Context) ([]user.Role, error) {
	op := "profiles.list_roles"
	out := make([]user.Role, 0)

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, `SELECT role FROM profiles`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var role string
			if err := rows.Scan(&role); err != nil {
				return err
			}
			out = append(out, user.Role(role))
		}
		return rows.Err()
	})

	if err != nil {
		return nil, translate(op, "profile", err)
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(strings.TrimSpace(s))
}
