package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/domain/design"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const designColumns = `id, designer_id, title, description, category, price_cents, status, image_url, model_url, tags, created_at, updated_at`

type DesignsRepo struct {
	store
}

func NewDesignsRepo(pool *pgxpool.Pool, prom *observability.Prom) *DesignsRepo {
	return &DesignsRepo{store{pool: pool, prom: prom}}
}

func scanDesign(row pgx.Row, extra ...any) (design.Design, error) {
	var d design.Design
	var status string

	dest := []any{
		&d.ID, &d.DesignerID, &d.Title, &d.Description, &d.Category, &d.PriceCents,
		&status, &d.ImageURL, &d.ModelURL, &d.Tags, &d.CreatedAt, &d.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return design.Design{}, err
	}

	d.Status = design.Status(status)
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d, nil
}

func (r *DesignsRepo) Create(ctx context.Context, d design.Design) (design.Design, error) {
	op := "designs.create"

	err := r.observe(op, func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO designs (id, designer_id, title, description, category, price_cents, status, image_url, model_url, tags, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			d.ID, d.DesignerID, d.Title, d.Description, d.Category, d.PriceCents, string(d.Status),
			d.ImageURL, d.ModelURL, d.Tags, d.CreatedAt, d.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return design.Design{}, translate(op, "design", err)
	}
	return d, nil
}

func (r *DesignsRepo) GetByID(ctx context.Context, id string) (design.Design, error) {
	var d design.Design
	op := "designs.get_by_id"

	err := r.observe(op, func() error {
		var err error
		d, err = scanDesign(r.pool.QueryRow(ctx, `SELECT `+designColumns+` FROM designs WHERE id = $1`, id))
		return err
	})

	if err != nil {
		return design.Design{}, translate(op, "design", err)
	}
	return d, nil
}

func (r *DesignsRepo) Update(ctx context.Context, id string, req design.UpdateDesignRequest) (design.Design, error) {
	var d design.Design
	op := "designs.update"

	var status *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}
	var tags []string
	if req.Tags != nil {
		tags = *req.Tags
		if tags == nil {
			tags = []string{}
		}
	}

	err := r.observe(op, func() error {
		var err error
		d, err = scanDesign(r.pool.QueryRow(ctx, `
			UPDATE designs
			SET title       = COALESCE($2, title),
			    description = COALESCE($3, description),
			    category    = COALESCE($4, category),
			    price_cents = COALESCE($5, price_cents),
			    status      = COALESCE($6, status),
			    tags        = COALESCE($7, tags),
			    updated_at  = NOW()
			WHERE id = $1
			RETURNING `+designColumns,
			id, req.Title, req.Description, req.Category, req.PriceCents, status, tags,
		))
		return err
	})

	if err != nil {
		return design.Design{}, translate(op, "design", err)
	}
	return d, nil
}

// SetAsset stores the object URL of an uploaded image or model file.
func (r *DesignsRepo) SetAsset(ctx context.Context, id string, kind design.AssetKind, url string) (design.Design, error) {
	var d design.Design
	op := "designs.set_asset"

	column := "image_url"
	if kind == design.AssetModel {
		column = "model_url"
	}

	err := r.observe(op, func() error {
		var err error
		d, err = scanDesign(r.pool.QueryRow(ctx,
			`UPDATE designs SET `+column+` = $2, updated_at = NOW() WHERE id = $1 RETURNING `+designColumns,
			id, url,
		))
		return err
	})

	if err != nil {
		return design.Design{}, translate(op, "design", err)
	}
	return d, nil
}

func (r *DesignsRepo) Delete(ctx context.Context, id string) error {
	op := "designs.delete"
	var affected int64

	err := r.observe(op, func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM designs WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return translateDelete(op, "design", "design_in_use", "Design has products or orders and cannot be deleted; archive it instead.", err)
	}

	if affected == 0 {
		return apperr.NotFound("design")
	}
	return nil
}

func (r *DesignsRepo) List(ctx context.Context, f design.ListDesignsFilter) ([]design.Design, int, error) {
	op := "designs.list"

	var conds []string
	var args []any
	argsPosition := 1

	add := func(cond string, v any) {
		conds = append(conds, fmt.Sprintf(cond, argsPosition))
		args = append(args, v)
		argsPosition++
	}

	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.DesignerID != nil {
		add("designer_id = $%d", *f.DesignerID)
	}
	if f.Category != nil {
		add("LOWER(category) = LOWER($%d)", strings.TrimSpace(*f.Category))
	}
	if f.Query != nil {
		add("(title || ' ' || description) ILIKE $%d", "%"+escapeLike(*f.Query)+"%")
	}
	if f.MinPrice != nil {
		add("price_cents >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price_cents <= $%d", *f.MaxPrice)
	}

	query := `SELECT ` + designColumns + `, COUNT(*) OVER() AS total FROM designs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, f.Limit, f.Offset)

	out := make([]design.Design, 0, f.Limit)
	total := 0

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t int
			d, err := scanDesign(rows, &t)
			if err != nil {
				return err
			}
			total = t
			out = append(out, d)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, translate(op, "design", err)
	}
	return out, total, nil
}
