package design

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

var Statuses = []Status{StatusDraft, StatusPublished, StatusArchived}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

type Design struct {
	ID          string    `json:"id"`
	DesignerID  string    `json:"designerId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	PriceCents  int64     `json:"priceCents"`
	Status      Status    `json:"status"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	ModelURL    *string   `json:"modelUrl,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (d Design) IsPublic() bool {
	return d.Status == StatusPublished
}

type CreateDesignRequest struct {
	Title       string   `json:"title" binding:"required,min=3,max=120"`
	Description string   `json:"description" binding:"omitempty,max=5000"`
	Category    string   `json:"category" binding:"required,min=2,max=60"`
	PriceCents  int64    `json:"priceCents" binding:"required,min=1"`
	Status      Status   `json:"status" binding:"omitempty,oneof=draft published archived"`
	Tags        []string `json:"tags" binding:"omitempty,max=20,dive,min=1,max=32"`
}

// UpdateDesignRequest is a partial update; nil fields are left untouched.
type UpdateDesignRequest struct {
	Title       *string   `json:"title" binding:"omitempty,min=3,max=120"`
	Description *string   `json:"description" binding:"omitempty,max=5000"`
	Category    *string   `json:"category" binding:"omitempty,min=2,max=60"`
	PriceCents  *int64    `json:"priceCents" binding:"omitempty,min=1"`
	Status      *Status   `json:"status" binding:"omitempty,oneof=draft published archived"`
	Tags        *[]string `json:"tags" binding:"omitempty,max=20,dive,min=1,max=32"`
}

type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetModel AssetKind = "model"
)

func (k AssetKind) IsValid() bool {
	return k == AssetImage || k == AssetModel
}

// with pointers if optional, it will be nil
type ListDesignsFilter struct {
	Status     *Status
	DesignerID *string
	Category   *string
	Query      *string
	MinPrice   *int64
	MaxPrice   *int64
	Limit      int
	Offset     int
}

func NewFromCreateRequest(designerID string, req CreateDesignRequest) Design {
	now := time.Now().UTC()

	status := req.Status
	if status == "" {
		status = StatusDraft
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	return Design{
		ID:          uuid.NewString(),
		DesignerID:  designerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Status:      status,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
