package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/domain/product"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, dropshipper_id, design_id, title, price_cents, status, created_at, updated_at`

type ProductsRepo struct {
	store
}

func NewProductsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProductsRepo {
	return &ProductsRepo{store{pool: pool, prom: prom}}
}

func scanProduct(row pgx.Row, extra ...any) (product.Product, error) {
	var p product.Product
	var status string

	dest := append([]any{
		&p.ID, &p.DropshipperID, &p.DesignID, &p.Title, &p.PriceCents, &status, &p.CreatedAt, &p.UpdatedAt,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		return product.Product{}, err
	}
	p.Status = product.Status(status)
	return p, nil
}

func (r *ProductsRepo) Create(ctx context.Context, p product.Product) (product.Product, error) {
	op := "products.create"

	err := r.observe(op, func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO products (id, dropshipper_id, design_id, title, price_cents, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			p.ID, p.DropshipperID, p.DesignID, p.Title, p.PriceCents, string(p.Status), p.CreatedAt, p.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return product.Product{}, translate(op, "product", err)
	}
	return p, nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (product.Product, error) {
	var p product.Product
	op := "products.get_by_id"

	err := r.observe(op, func() error {
		var err error
		p, err = scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
		return err
	})

	if err != nil {
		return product.Product{}, translate(op, "product", err)
	}
	return p, nil
}

func (r *ProductsRepo) Update(ctx context.Context, id string, req product.UpdateProductRequest) (product.Product, error) {
	var p product.Product
	op := "products.update"

	var status *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}

	err := r.observe(op, func() error {
		var err error
		p, err = scanProduct(r.pool.QueryRow(ctx, `
			UPDATE products
			SET title       = COALESCE($2, title),
			    price_cents = COALESCE($3, price_cents),
			    status      = COALESCE($4, status),
			    updated_at  = NOW()
			WHERE id = $1
			RETURNING `+productColumns,
			id, req.Title, req.PriceCents, status,
		))
		return err
	})

	if err != nil {
		return product.Product{}, translate(op, "product", err)
	}
	return p, nil
}

func (r *ProductsRepo) Delete(ctx context.Context, id string) error {
	op := "products.delete"
	var affected int64

	err := r.observe(op, func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return translateDelete(op, "product", "product_in_use", "Product has orders and cannot be deleted; deactivate it instead.", err)
	}
	if affected == 0 {
		return apperr.NotFound("product")
	}
	return nil
}

func (r *ProductsRepo) List(ctx context.Context, f product.ListProductsFilter) ([]product.Product, int, error) {
	op := "products.list"

	var conds []string
	var args []any
	argsPosition := 1

	if f.DropshipperID != nil {
		conds = append(conds, fmt.Sprintf("dropshipper_id = $%d", argsPosition))
		args = append(args, *f.DropshipperID)
		argsPosition++
	}
	if f.DesignID != nil {
		conds = append(conds, fmt.Sprintf("design_id = $%d", argsPosition))
		args = append(args, *f.DesignID)
		argsPosition++
	}
	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(*f.Status))
		argsPosition++
	}

	query := `SELECT ` + productColumns + `, COUNT(*) OVER() AS total FROM products`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, f.Limit, f.Offset)

	out := make([]product.Product, 0, f.Limit)
	total := 0

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t int
			p, err := scanProduct(rows, &t)
			if err != nil {
				return err
			}
			total = t
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, translate(op, "product", err)
	}
	return out, total, nil
}
