package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/printhub/internal/domain/notification"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrDeliveryAlreadySent = notification.ErrDeliveryAlreadySent
	ErrDeliveryInProgress  = notification.ErrDeliveryInProgress
)

// NotificationDeliveriesRepo deduplicates fan-out so a retried job never
// notifies the same user twice for the same event.
type NotificationDeliveriesRepo struct {
	store
}

func NewNotificationDeliveriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *NotificationDeliveriesRepo {
	return &NotificationDeliveriesRepo{store{pool: pool, prom: prom}}
}

// TryStart claims the delivery of (kind, refID) to userID. It returns
// ErrDeliveryAlreadySent or ErrDeliveryInProgress when another attempt owns it.
func (r *NotificationDeliveriesRepo) TryStart(ctx context.Context, kind, refID, userID, jobID string) error {
	op := "notification_deliveries.try_start"

	// 1) Insert if missing
	err := r.observe(op, func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO notification_deliveries (kind, ref_id, user_id, job_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'sending', NOW(), NOW())
		`, kind, refID, userID, jobID)
		return err
	})

	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return translate(op, "delivery", err)
	}

	// 2) Row exists. A failed delivery can be reclaimed; only one worker wins the flip.
	var affected int64
	err = r.observe(op, func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'sending',
			    job_id = $4,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE kind = $1 AND ref_id = $2 AND user_id = $3 AND status = 'failed'
		`, kind, refID, userID, jobID)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return translate(op, "delivery", err)
	}
	if affected == 1 {
		return nil
	}

	// 3) Not failed: either sent or another worker is sending.
	var status string
	var sentAt *time.Time

	err = r.pool.QueryRow(ctx, `
		SELECT status, sent_at
		FROM notification_deliveries
		WHERE kind = $1 AND ref_id = $2 AND user_id = $3
	`, kind, refID, userID).Scan(&status, &sentAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// row disappeared; let caller retry
			return nil
		}
		return translate(op, "delivery", err)
	}

	if sentAt != nil || status == "sent" {
		return ErrDeliveryAlreadySent
	}
	return ErrDeliveryInProgress
}

func (r *NotificationDeliveriesRepo) MarkSent(ctx context.Context, kind, refID, userID string) error {
	op := "notification_deliveries.mark_sent"

	err := r.observe(op, func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'sent', sent_at = NOW(), last_error = NULL, updated_at = NOW()
			WHERE kind = $1 AND ref_id = $2 AND user_id = $3
		`, kind, refID, userID)
		return err
	})
	return translate(op, "delivery", err)
}

func (r *NotificationDeliveriesRepo) MarkFailed(ctx context.Context, kind, refID, userID, errMsg string) error {
	op := "notification_deliveries.mark_failed"

	err := r.observe(op, func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'failed', last_error = $4, updated_at = NOW()
			WHERE kind = $1 AND ref_id = $2 AND user_id = $3
		`, kind, refID, userID, errMsg)
		return err
	})
	return translate(op, "delivery", err)
}
