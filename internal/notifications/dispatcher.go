package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/domain/job"
	"github.com/geocoder89/printhub/internal/domain/notification"
	"github.com/geocoder89/printhub/internal/domain/order"
	"github.com/geocoder89/printhub/internal/jobs"
)

type OrderReader interface {
	GetByID(ctx context.Context, id string) (order.Order, error)
}

// DeliveryLedger records per-recipient deliveries so a retried job skips users
// that were already notified.
type DeliveryLedger interface {
	TryStart(ctx context.Context, kind, refID, userID, jobID string) error
	MarkSent(ctx context.Context, kind, refID, userID string) error
	MarkFailed(ctx context.Context, kind, refID, userID, errMsg string) error
}

// Dispatcher turns queued jobs into notifications.
type Dispatcher struct {
	orders   OrderReader
	ledger   DeliveryLedger
	notifier Notifier
	log      *slog.Logger
}

func NewDispatcher(orders OrderReader, ledger DeliveryLedger, notifier Notifier, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{orders: orders, ledger: ledger, notifier: notifier, log: log}
}

func (d *Dispatcher) HandleOrderPlaced(ctx context.Context, j job.Job) error {
	raw, err := jobs.DecodePayload(j)
	if err != nil {
		return err
	}
	p, ok := raw.(jobs.OrderPlacedPayload)
	if !ok {
		return jobs.ErrPayloadTypeMismatch
	}

	o, err := d.loadOrder(ctx, p.OrderID)
	if err != nil {
		return err
	}

	total := formatCents(o.AmountCents)
	msgs := []Message{{
		UserID: o.CustomerID,
		Kind:   notification.KindOrderPlaced,
		Title:  "Order received",
		Body:   fmt.Sprintf("Your order for %d item(s) totalling %s is pending.", o.Quantity, total),
	}, {
		UserID: o.DesignerID,
		Kind:   notification.KindOrderPlaced,
		Title:  "New order for your design",
		Body:   fmt.Sprintf("A customer ordered %d print(s) of your design.", o.Quantity),
	}}
	if o.DropshipperID != nil {
		msgs = append(msgs, Message{
			UserID: *o.DropshipperID,
			Kind:   notification.KindOrderPlaced,
			Title:  "New order for your product",
			Body:   fmt.Sprintf("A customer ordered %d unit(s) worth %s.", o.Quantity, total),
		})
	}

	return d.deliverAll(ctx, j.ID, o.ID, msgs)
}

func (d *Dispatcher) HandleOrderStatusChanged(ctx context.Context, j job.Job) error {
	raw, err := jobs.DecodePayload(j)
	if err != nil {
		return err
	}
	p, ok := raw.(jobs.OrderStatusChangedPayload)
	if !ok {
		return jobs.ErrPayloadTypeMismatch
	}

	o, err := d.loadOrder(ctx, p.OrderID)
	if err != nil {
		return err
	}

	// one job per transition; a retried job reuses its id, a repeated status gets a new one
	return d.deliverAll(ctx, j.ID, o.ID+":"+j.ID, []Message{{
		UserID: o.CustomerID,
		Kind:   notification.KindOrderStatus,
		Title:  "Order status updated",
		Body:   fmt.Sprintf("Your order is now %s.", p.Status),
	}})
}

func (d *Dispatcher) HandleWelcome(ctx context.Context, j job.Job) error {
	raw, err := jobs.DecodePayload(j)
	if err != nil {
		return err
	}
	p, ok := raw.(jobs.WelcomePayload)
	if !ok {
		return jobs.ErrPayloadTypeMismatch
	}

	greeting := "Welcome to PrintHub!"
	if p.FirstName != "" {
		greeting = fmt.Sprintf("Welcome to PrintHub, %s!", p.FirstName)
	}

	return d.deliverAll(ctx, j.ID, p.UserID, []Message{{
		UserID: p.UserID,
		Kind:   notification.KindWelcome,
		Title:  greeting,
		Body:   "Browse the catalog or publish your first design.",
	}})
}

func (d *Dispatcher) loadOrder(ctx context.Context, id string) (order.Order, error) {
	o, err := d.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return order.Order{}, jobs.Permanent{Err: err}
		}
		return order.Order{}, err
	}
	return o, nil
}

// deliverAll sends every message once per recipient. The first failure is
// returned after the remaining recipients have been attempted.
func (d *Dispatcher) deliverAll(ctx context.Context, jobID, refID string, msgs []Message) error {
	seen := make(map[string]struct{}, len(msgs))
	var firstErr error

	for _, m := range msgs {
		if m.UserID == "" {
			continue
		}
		if _, dup := seen[m.UserID]; dup {
			continue
		}
		seen[m.UserID] = struct{}{}

		if err := d.deliver(ctx, jobID, refID, m); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (d *Dispatcher) deliver(ctx context.Context, jobID, refID string, m Message) error {
	kind := string(m.Kind)

	err := d.ledger.TryStart(ctx, kind, refID, m.UserID, jobID)
	switch {
	case errors.Is(err, notification.ErrDeliveryAlreadySent):
		d.log.DebugContext(ctx, "notification already delivered", "kind", kind, "ref_id", refID, "user_id", m.UserID)
		return nil
	case err != nil:
		// in progress elsewhere or the ledger is unavailable; retry the job later
		return err
	}

	if err := d.notifier.Notify(ctx, m); err != nil {
		if markErr := d.ledger.MarkFailed(ctx, kind, refID, m.UserID, err.Error()); markErr != nil {
			d.log.WarnContext(ctx, "mark delivery failed", "err", markErr)
		}
		return err
	}

	return d.ledger.MarkSent(ctx, kind, refID, m.UserID)
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}
