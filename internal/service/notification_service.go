package service

import (
	"context"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/domain/notification"
	"github.com/geocoder89/printhub/internal/utils"
)

type NotificationStore interface {
	GetByID(ctx context.Context, id string) (notification.Notification, error)
	List(ctx context.Context, f notification.ListFilter) ([]notification.Notification, bool, error)
	MarkRead(ctx context.Context, id string) (notification.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

type NotificationPage struct {
	Items      []notification.Notification `json:"items"`
	Unread     int                         `json:"unread"`
	NextCursor string                      `json:"nextCursor,omitempty"`
}

type NotificationService struct {
	authz         Authorizer
	notifications NotificationStore
}

func NewNotificationService(a Authorizer, notifications NotificationStore) *NotificationService {
	return &NotificationService{authz: a, notifications: notifications}
}

// List returns the caller's notifications newest first, keyset paginated.
func (s *NotificationService) List(ctx context.Context, unreadOnly bool, limit int, cursor string) (NotificationPage, error) {
	me, err := s.authz.Check(ctx, authz.Requirement{})
	if err != nil {
		return NotificationPage{}, err
	}

	limit, _ = clampPage(limit, 0)
	f := notification.ListFilter{UserID: me.ID, UnreadOnly: unreadOnly, Limit: limit}

	if cursor != "" {
		c, err := utils.DecodeCursor(cursor)
		if err != nil {
			return NotificationPage{}, apperr.Validation("Invalid cursor.", map[string]string{"cursor": "invalid"})
		}
		f.BeforeCreatedAt, f.BeforeID = c.At, c.ID
	}

	items, hasMore, err := s.notifications.List(ctx, f)
	if err != nil {
		return NotificationPage{}, err
	}

	unread, err := s.notifications.CountUnread(ctx, me.ID)
	if err != nil {
		return NotificationPage{}, err
	}

	page := NotificationPage{Items: items, Unread: unread}
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		next, err := utils.EncodeCursor(last.CreatedAt, last.ID)
		if err != nil {
			return NotificationPage{}, apperr.Upstream("notifications.cursor", err)
		}
		page.NextCursor = next
	}
	return page, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) (notification.Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return notification.Notification{}, err
	}
	if _, err := s.authz.Check(ctx, authz.RequireOwner(n.UserID)); err != nil {
		return notification.Notification{}, err
	}
	if n.ReadAt != nil {
		return n, nil
	}
	return s.notifications.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	me, err := s.authz.Check(ctx, authz.Requirement{})
	if err != nil {
		return 0, err
	}
	return s.notifications.MarkAllRead(ctx, me.ID)
}
