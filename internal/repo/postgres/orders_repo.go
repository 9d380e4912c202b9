package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/geocoder89/printhub/internal/domain/job"
	"github.com/geocoder89/printhub/internal/domain/order"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, customer_id, design_id, designer_id, product_id, dropshipper_id, quantity, amount_cents, status, shipping_address, created_at, updated_at`

type OrdersRepo struct {
	store
	jobs *JobsRepo
}

func NewOrdersRepo(pool *pgxpool.Pool, prom *observability.Prom, jobs *JobsRepo) *OrdersRepo {
	return &OrdersRepo{store: store{pool: pool, prom: prom}, jobs: jobs}
}

func scanOrder(row pgx.Row, extra ...any) (order.Order, error) {
	var o order.Order
	var status string

	dest := append([]any{
		&o.ID, &o.CustomerID, &o.DesignID, &o.DesignerID, &o.ProductID, &o.DropshipperID,
		&o.Quantity, &o.AmountCents, &status, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		return order.Order{}, err
	}
	o.Status = order.Status(status)
	return o, nil
}

// CreateWithJob inserts the order and its follow-up job in one transaction,
// so an order never exists without its notification fan-out queued.
func (r *OrdersRepo) CreateWithJob(ctx context.Context, o order.Order, follow job.CreateRequest) (order.Order, error) {
	op := "orders.create"

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return order.Order{}, translate(op, "order", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = r.observe(op, func() error {
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (id, customer_id, design_id, designer_id, product_id, dropshipper_id, quantity, amount_cents, status, shipping_address, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			o.ID, o.CustomerID, o.DesignID, o.DesignerID, o.ProductID, o.DropshipperID,
			o.Quantity, o.AmountCents, string(o.Status), o.ShippingAddress, o.CreatedAt, o.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return order.Order{}, translate(op, "order", err)
	}

	if _, err := r.jobs.CreateTx(ctx, tx, follow); err != nil {
		return order.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, translate(op, "order", err)
	}
	return o, nil
}

func (r *OrdersRepo) GetByID(ctx context.Context, id string) (order.Order, error) {
	var o order.Order
	op := "orders.get_by_id"

	err := r.observe(op, func() error {
		var err error
		o, err = scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
		return err
	})

	if err != nil {
		return order.Order{}, translate(op, "order", err)
	}
	return o, nil
}

// UpdateStatusWithJob changes the status tag and queues the customer notification.
func (r *OrdersRepo) UpdateStatusWithJob(ctx context.Context, id string, status order.Status, follow job.CreateRequest) (order.Order, error) {
	var o order.Order
	op := "orders.update_status"

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return order.Order{}, translate(op, "order", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = r.observe(op, func() error {
		var err error
		o, err = scanOrder(tx.QueryRow(ctx, `
			UPDATE orders
			SET status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+orderColumns,
			id, string(status),
		))
		return err
	})
	if err != nil {
		return order.Order{}, translate(op, "order", err)
	}

	if _, err := r.jobs.CreateTx(ctx, tx, follow); err != nil {
		return order.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, translate(op, "order", err)
	}
	return o, nil
}

func (r *OrdersRepo) List(ctx context.Context, f order.ListOrdersFilter) ([]order.Order, int, error) {
	op := "orders.list"

	var conds []string
	var args []any
	argsPosition := 1

	add := func(cond string, v any) {
		conds = append(conds, fmt.Sprintf(cond, argsPosition))
		args = append(args, v)
		argsPosition++
	}

	if f.CustomerID != nil {
		add("customer_id = $%d", *f.CustomerID)
	}
	if f.DesignerID != nil {
		add("designer_id = $%d", *f.DesignerID)
	}
	if f.DropshipperID != nil {
		add("dropshipper_id = $%d", *f.DropshipperID)
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}

	query := `SELECT ` + orderColumns + `, COUNT(*) OVER() AS total FROM orders`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, f.Limit, f.Offset)

	out := make([]order.Order, 0, f.Limit)
	total := 0

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t int
			o, err := scanOrder(rows, &t)
			if err != nil {
				return err
			}
			total = t
			out = append(out, o)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, translate(op, "order", err)
	}
	return out, total, nil
}
