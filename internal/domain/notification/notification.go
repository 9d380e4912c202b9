package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindWelcome     Kind = "welcome"
	KindOrderPlaced Kind = "order_placed"
	KindOrderStatus Kind = "order_status"
)

type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Kind      Kind       `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func New(userID string, kind Kind, title, body string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}

type ListFilter struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	// keyset cursor over (created_at, id) descending
	BeforeCreatedAt time.Time
	BeforeID        string
}

var (
	ErrDeliveryAlreadySent = errors.New("notification already sent")
	ErrDeliveryInProgress  = errors.New("notification delivery in progress")
)
