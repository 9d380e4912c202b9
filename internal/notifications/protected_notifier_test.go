package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyNotifier struct {
	err   error
	calls int
}

func (f *flakyNotifier) Notify(context.Context, Message) error {
	f.calls++
	return f.err
}

func newTestBreaker(inner Notifier, clock *time.Time) *ProtectedNotifier {
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		Timeout:          time.Second,
		FailureThreshold: 2,
		Cooldown:         10 * time.Second,
	})
	n.now = func() time.Time { return *clock }
	return n
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inner := &flakyNotifier{err: errors.New("provider down")}
	n := newTestBreaker(inner, &clock)

	for i := 0; i < 2; i++ {
		if err := n.Notify(context.Background(), Message{UserID: "u1"}); err == nil {
			t.Fatalf("expected provider error on call %d", i)
		}
	}

	if n.State() != stateOpen {
		t.Fatalf("expected open, got %s", n.State())
	}

	err := n.Notify(context.Background(), Message{UserID: "u1"})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("open breaker must not call provider, calls=%d", inner.calls)
	}
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inner := &flakyNotifier{err: errors.New("provider down")}
	n := newTestBreaker(inner, &clock)

	_ = n.Notify(context.Background(), Message{})
	_ = n.Notify(context.Background(), Message{})

	clock = clock.Add(11 * time.Second)
	inner.err = nil

	if err := n.Notify(context.Background(), Message{}); err != nil {
		t.Fatalf("expected trial call to succeed, got %v", err)
	}
	if n.State() != stateClosed {
		t.Fatalf("expected closed after successful trial, got %s", n.State())
	}
}

func TestProtectedNotifier_HalfOpenFailureReopens(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inner := &flakyNotifier{err: errors.New("provider down")}
	n := newTestBreaker(inner, &clock)

	_ = n.Notify(context.Background(), Message{})
	_ = n.Notify(context.Background(), Message{})

	clock = clock.Add(11 * time.Second)
	_ = n.Notify(context.Background(), Message{})

	if n.State() != stateOpen {
		t.Fatalf("expected reopen after failed trial, got %s", n.State())
	}
}

func TestMulti_StopsAtFirstError(t *testing.T) {
	bad := &flakyNotifier{err: errors.New("boom")}
	after := &flakyNotifier{}

	err := Multi{bad, after}.Notify(context.Background(), Message{})

	if err == nil || after.calls != 0 {
		t.Fatalf("expected stop at first error, err=%v calls=%d", err, after.calls)
	}
}
