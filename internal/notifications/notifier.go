// Package notifications delivers user-facing messages produced by jobs.
package notifications

import (
	"context"

	"github.com/geocoder89/printhub/internal/domain/notification"
)

type Message struct {
	UserID string
	Kind   notification.Kind
	Title  string
	Body   string
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Multi delivers to every notifier in order and stops at the first error.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}
