package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/domain/job"
	"github.com/geocoder89/printhub/internal/domain/notification"
	"github.com/geocoder89/printhub/internal/domain/order"
	"github.com/geocoder89/printhub/internal/jobs"
)

type fakeOrders struct {
	GetByIDFn func(ctx context.Context, id string) (order.Order, error)
}

func (f fakeOrders) GetByID(ctx context.Context, id string) (order.Order, error) {
	return f.GetByIDFn(ctx, id)
}

// memLedger is a ledger keyed by kind/ref/user.
type memLedger struct {
	status map[string]string
}

func newMemLedger() *memLedger { return &memLedger{status: map[string]string{}} }

func (l *memLedger) key(kind, refID, userID string) string { return kind + "|" + refID + "|" + userID }

func (l *memLedger) TryStart(_ context.Context, kind, refID, userID, _ string) error {
	k := l.key(kind, refID, userID)
	switch l.status[k] {
	case "sent":
		return notification.ErrDeliveryAlreadySent
	case "sending":
		return notification.ErrDeliveryInProgress
	}
	l.status[k] = "sending"
	return nil
}

func (l *memLedger) MarkSent(_ context.Context, kind, refID, userID string) error {
	l.status[l.key(kind, refID, userID)] = "sent"
	return nil
}

func (l *memLedger) MarkFailed(_ context.Context, kind, refID, userID, _ string) error {
	l.status[l.key(kind, refID, userID)] = "failed"
	return nil
}

type recordingNotifier struct {
	sent    []Message
	failFor map[string]bool
}

func (r *recordingNotifier) Notify(_ context.Context, m Message) error {
	if r.failFor[m.UserID] {
		return errors.New("provider down")
	}
	r.sent = append(r.sent, m)
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func placedJob(t *testing.T, orderID string) job.Job {
	t.Helper()
	req, err := jobs.NewRequest(jobs.JobOrderPlaced, jobs.OrderPlacedPayload{OrderID: orderID}, "", "")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return job.New(req)
}

func TestDispatcher_OrderPlacedNotifiesEveryParty(t *testing.T) {
	ds := "drop-1"
	orders := fakeOrders{GetByIDFn: func(context.Context, string) (order.Order, error) {
		return order.Order{ID: "o1", CustomerID: "cust-1", DesignerID: "des-1", DropshipperID: &ds, Quantity: 2, AmountCents: 4598}, nil
	}}
	rec := &recordingNotifier{}
	d := NewDispatcher(orders, newMemLedger(), rec, discard())

	if err := d.HandleOrderPlaced(context.Background(), placedJob(t, "o1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.sent) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(rec.sent))
	}
	if rec.sent[0].UserID != "cust-1" || rec.sent[0].Body != "Your order for 2 item(s) totalling $45.98 is pending." {
		t.Fatalf("unexpected customer message: %+v", rec.sent[0])
	}
}

func TestDispatcher_RetrySkipsDeliveredRecipients(t *testing.T) {
	orders := fakeOrders{GetByIDFn: func(context.Context, string) (order.Order, error) {
		return order.Order{ID: "o1", CustomerID: "cust-1", DesignerID: "des-1", Quantity: 1}, nil
	}}
	ledger := newMemLedger()
	rec := &recordingNotifier{failFor: map[string]bool{"des-1": true}}
	d := NewDispatcher(orders, ledger, rec, discard())
	j := placedJob(t, "o1")

	if err := d.HandleOrderPlaced(context.Background(), j); err == nil {
		t.Fatalf("expected designer failure to surface")
	}
	if len(rec.sent) != 1 {
		t.Fatalf("expected customer to be notified once, got %d", len(rec.sent))
	}

	rec.failFor = nil
	if err := d.HandleOrderPlaced(context.Background(), j); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	if len(rec.sent) != 2 || rec.sent[1].UserID != "des-1" {
		t.Fatalf("expected only designer on retry, got %+v", rec.sent)
	}
}

func statusJob(t *testing.T, orderID, status string) job.Job {
	t.Helper()
	req, err := jobs.NewRequest(jobs.JobOrderStatusChanged, jobs.OrderStatusChangedPayload{OrderID: orderID, Status: status}, "", "")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return job.New(req)
}

func TestDispatcher_RepeatedStatusNotifiesEachTime(t *testing.T) {
	orders := fakeOrders{GetByIDFn: func(context.Context, string) (order.Order, error) {
		return order.Order{ID: "o3", CustomerID: "cust-1", DesignerID: "des-1", Quantity: 1}, nil
	}}
	rec := &recordingNotifier{}
	d := NewDispatcher(orders, newMemLedger(), rec, discard())

	// shipped -> pending -> shipped
	transitions := []job.Job{statusJob(t, "o3", "shipped"), statusJob(t, "o3", "pending"), statusJob(t, "o3", "shipped")}
	for _, j := range transitions {
		if err := d.HandleOrderStatusChanged(context.Background(), j); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(rec.sent) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(rec.sent))
	}
	if rec.sent[2].Body != "Your order is now shipped." {
		t.Fatalf("unexpected last message: %+v", rec.sent[2])
	}

	// a retry of the same job is still delivered once
	if err := d.HandleOrderStatusChanged(context.Background(), transitions[2]); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(rec.sent) != 3 {
		t.Fatalf("retry re-sent, got %d notifications", len(rec.sent))
	}
}

func TestDispatcher_MissingOrderIsPermanent(t *testing.T) {
	orders := fakeOrders{GetByIDFn: func(context.Context, string) (order.Order, error) {
		return order.Order{}, apperr.NotFound("order")
	}}
	d := NewDispatcher(orders, newMemLedger(), &recordingNotifier{}, discard())

	err := d.HandleOrderPlaced(context.Background(), placedJob(t, "gone"))

	if !jobs.IsPermanent(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestDispatcher_SelfOrderNotifiesOnce(t *testing.T) {
	orders := fakeOrders{GetByIDFn: func(context.Context, string) (order.Order, error) {
		return order.Order{ID: "o2", CustomerID: "same", DesignerID: "same", Quantity: 1}, nil
	}}
	rec := &recordingNotifier{}
	d := NewDispatcher(orders, newMemLedger(), rec, discard())

	if err := d.HandleOrderPlaced(context.Background(), placedJob(t, "o2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(rec.sent))
	}
}

func TestDispatcher_Welcome(t *testing.T) {
	rec := &recordingNotifier{}
	d := NewDispatcher(fakeOrders{}, newMemLedger(), rec, discard())

	req, _ := jobs.NewRequest(jobs.JobWelcome, jobs.WelcomePayload{UserID: "u1", FirstName: "Ada"}, "u1", "")
	if err := d.HandleWelcome(context.Background(), job.New(req)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.sent) != 1 || rec.sent[0].Title != "Welcome to PrintHub, Ada!" {
		t.Fatalf("unexpected messages: %+v", rec.sent)
	}
}

func TestInboxNotifier_WritesRow(t *testing.T) {
	var got notification.Notification
	store := inboxFunc(func(_ context.Context, n notification.Notification) (notification.Notification, error) {
		got = n
		return n, nil
	})

	err := NewInboxNotifier(store).Notify(context.Background(), Message{UserID: "u1", Kind: notification.KindWelcome, Title: "hi"})

	if err != nil || got.UserID != "u1" || got.ID == "" {
		t.Fatalf("unexpected row %+v err=%v", got, err)
	}
}

type inboxFunc func(ctx context.Context, n notification.Notification) (notification.Notification, error)

func (f inboxFunc) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	return f(ctx, n)
}
