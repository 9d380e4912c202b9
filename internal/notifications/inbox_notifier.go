package notifications

import (
	"context"

	"github.com/geocoder89/printhub/internal/domain/notification"
)

type InboxStore interface {
	Create(ctx context.Context, n notification.Notification) (notification.Notification, error)
}

// InboxNotifier writes the message as an in-app notification row.
type InboxNotifier struct {
	store InboxStore
}

func NewInboxNotifier(store InboxStore) *InboxNotifier {
	return &InboxNotifier{store: store}
}

func (n *InboxNotifier) Notify(ctx context.Context, msg Message) error {
	_, err := n.store.Create(ctx, notification.New(msg.UserID, msg.Kind, msg.Title, msg.Body))
	return err
}
