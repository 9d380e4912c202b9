package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/domain/notification"
	"github.com/geocoder89/printhub/internal/domain/user"
)

type memInbox struct {
	items map[string]notification.Notification
	lastF notification.ListFilter
}

func newMemInbox(ns ...notification.Notification) *memInbox {
	m := &memInbox{items: map[string]notification.Notification{}}
	for _, n := range ns {
		m.items[n.ID] = n
	}
	return m
}

func (m *memInbox) GetByID(_ context.Context, id string) (notification.Notification, error) {
	n, ok := m.items[id]
	if !ok {
		return notification.Notification{}, apperr.NotFound("notification")
	}
	return n, nil
}

func (m *memInbox) List(_ context.Context, f notification.ListFilter) ([]notification.Notification, bool, error) {
	m.lastF = f
	out := []notification.Notification{}
	for _, n := range m.items {
		if n.UserID != f.UserID || (f.UnreadOnly && n.ReadAt != nil) {
			continue
		}
		if !f.BeforeCreatedAt.IsZero() && !n.CreatedAt.Before(f.BeforeCreatedAt) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > f.Limit {
		return out[:f.Limit], true, nil
	}
	return out, false, nil
}

func (m *memInbox) MarkRead(_ context.Context, id string) (notification.Notification, error) {
	n := m.items[id]
	now := time.Now().UTC()
	n.ReadAt = &now
	m.items[id] = n
	return n, nil
}

func (m *memInbox) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var n int64
	for id, item := range m.items {
		if item.UserID == userID && item.ReadAt == nil {
			now := time.Now().UTC()
			item.ReadAt = &now
			m.items[id] = item
			n++
		}
	}
	return n, nil
}

func (m *memInbox) CountUnread(_ context.Context, userID string) (int, error) {
	n := 0
	for _, item := range m.items {
		if item.UserID == userID && item.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func inboxItem(id, userID string, minutesAgo int) notification.Notification {
	return notification.Notification{
		ID:        id,
		UserID:    userID,
		Kind:      notification.KindOrderPlaced,
		CreatedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC).Add(-time.Duration(minutesAgo) * time.Minute),
	}
}

func TestNotificationList_PagesWithCursor(t *testing.T) {
	w := newWorld(t, person("u1", user.RoleCustomer), person("u2", user.RoleCustomer))
	inbox := newMemInbox(inboxItem("a", "u1", 1), inboxItem("b", "u1", 2), inboxItem("c", "u1", 3), inboxItem("x", "u2", 1))
	s := NewNotificationService(w.enforcer, inbox)

	first, err := s.List(as("u1"), false, 2, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Items) != 2 || first.Items[0].ID != "a" || first.NextCursor == "" || first.Unread != 3 {
		t.Fatalf("unexpected first page %+v", first)
	}

	second, err := s.List(as("u1"), false, 2, first.NextCursor)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Items) != 1 || second.Items[0].ID != "c" || second.NextCursor != "" {
		t.Fatalf("unexpected second page %+v", second)
	}

	_, err = s.List(as("u1"), false, 2, "%%%")
	assertKind(t, err, apperr.ErrValidation)
}

func TestNotificationMarkRead_Ownership(t *testing.T) {
	w := newWorld(t, person("u1", user.RoleCustomer), person("u2", user.RoleCustomer), person("admin", user.RoleAdmin))
	inbox := newMemInbox(inboxItem("a", "u1", 1), inboxItem("b", "u1", 2))
	s := NewNotificationService(w.enforcer, inbox)

	_, err := s.MarkRead(as("u2"), "a")
	assertReason(t, err, authz.ReasonNotOwner)

	n, err := s.MarkRead(as("u1"), "a")
	if err != nil || n.ReadAt == nil {
		t.Fatalf("owner mark read: %+v %v", n, err)
	}

	again, err := s.MarkRead(as("u1"), "a")
	if err != nil || !again.ReadAt.Equal(*n.ReadAt) {
		t.Fatalf("second mark read should be a no-op: %+v %v", again, err)
	}

	count, err := s.MarkAllRead(as("u1"))
	if err != nil || count != 1 {
		t.Fatalf("expected one more marked, got %d %v", count, err)
	}

	_, err = s.MarkAllRead(anonymous())
	assertKind(t, err, apperr.ErrNotAuthenticated)
}
