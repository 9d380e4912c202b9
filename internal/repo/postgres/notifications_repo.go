package postgres

import (
	"context"
	"fmt"

	"github.com/geocoder89/printhub/internal/domain/notification"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notificationColumns = `id, user_id, kind, title, body, read_at, created_at`

type NotificationsRepo struct {
	store
}

func NewNotificationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *NotificationsRepo {
	return &NotificationsRepo{store{pool: pool, prom: prom}}
}

func scanNotification(row pgx.Row) (notification.Notification, error) {
	var n notification.Notification
	var kind string

	if err := row.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
		return notification.Notification{}, err
	}
	n.Kind = notification.Kind(kind)
	return n, nil
}

func (r *NotificationsRepo) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	op := "notifications.create"

	err := r.observe(op, func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO notifications (id, user_id, kind, title, body, read_at, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			n.ID, n.UserID, string(n.Kind), n.Title, n.Body, n.ReadAt, n.CreatedAt,
		)
		return err
	})

	if err != nil {
		return notification.Notification{}, translate(op, "notification", err)
	}
	return n, nil
}

func (r *NotificationsRepo) GetByID(ctx context.Context, id string) (notification.Notification, error) {
	var n notification.Notification
	op := "notifications.get_by_id"

	err := r.observe(op, func() error {
		var err error
		n, err = scanNotification(r.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
		return err
	})

	if err != nil {
		return notification.Notification{}, translate(op, "notification", err)
	}
	return n, nil
}

// List returns a page of the user's notifications, newest first. It fetches
// one extra row to report whether another page exists.
func (r *NotificationsRepo) List(ctx context.Context, f notification.ListFilter) ([]notification.Notification, bool, error) {
	op := "notifications.list"

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	args := []any{f.UserID}
	argsPos := 2

	if f.UnreadOnly {
		query += " AND read_at IS NULL"
	}
	if !f.BeforeCreatedAt.IsZero() && f.BeforeID != "" {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argsPos, argsPos+1)
		args = append(args, f.BeforeCreatedAt, f.BeforeID)
		argsPos += 2
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argsPos)
	args = append(args, f.Limit+1)

	out := make([]notification.Notification, 0, f.Limit)

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			n, err := scanNotification(rows)
			if err != nil {
				return err
			}
			out = append(out, n)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, false, translate(op, "notification", err)
	}

	hasMore := len(out) > f.Limit
	if hasMore {
		out = out[:f.Limit]
	}
	return out, hasMore, nil
}

func (r *NotificationsRepo) MarkRead(ctx context.Context, id string) (notification.Notification, error) {
	var n notification.Notification
	op := "notifications.mark_read"

	err := r.observe(op, func() error {
		var err error
		n, err = scanNotification(r.pool.QueryRow(ctx, `
			UPDATE notifications
			SET read_at = COALESCE(read_at, NOW())
			WHERE id = $1
			RETURNING `+notificationColumns, id))
		return err
	})

	if err != nil {
		return notification.Notification{}, translate(op, "notification", err)
	}
	return n, nil
}

func (r *NotificationsRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	op := "notifications.mark_all_read"
	var n int64

	err := r.observe(op, func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE notifications SET read_at = NOW()
			WHERE user_id = $1 AND read_at IS NULL`, userID)
		n = tag.RowsAffected()
		return err
	})

	if err != nil {
		return 0, translate(op, "notification", err)
	}
	return n, nil
}

func (r *NotificationsRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	op := "notifications.count_unread"
	var n int

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID,
		).Scan(&n)
	})

	if err != nil {
		return 0, translate(op, "notification", err)
	}
	return n, nil
}

