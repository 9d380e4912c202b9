package product

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

var Statuses = []Status{StatusActive, StatusInactive}

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Product is a dropshipper's listing built on top of a published design.
type Product struct {
	ID            string    `json:"id"`
	DropshipperID string    `json:"dropshipperId"`
	DesignID      string    `json:"designId"`
	Title         string    `json:"title"`
	PriceCents    int64     `json:"priceCents"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type CreateProductRequest struct {
	DesignID   string `json:"designId" binding:"required,uuid"`
	Title      string `json:"title" binding:"required,min=3,max=120"`
	PriceCents int64  `json:"priceCents" binding:"required,min=1"`
	Status     Status `json:"status" binding:"omitempty,oneof=active inactive"`
}

type UpdateProductRequest struct {
	Title      *string `json:"title" binding:"omitempty,min=3,max=120"`
	PriceCents *int64  `json:"priceCents" binding:"omitempty,min=1"`
	Status     *Status `json:"status" binding:"omitempty,oneof=active inactive"`
}

func NewFromCreateRequest(dropshipperID string, req CreateProductRequest) Product {
	now := time.Now().UTC()

	status := req.Status
	if status == "" {
		status = StatusActive
	}

	return Product{
		ID:            uuid.NewString(),
		DropshipperID: dropshipperID,
		DesignID:      req.DesignID,
		Title:         req.Title,
		PriceCents:    req.PriceCents,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

type ListProductsFilter struct {
	DropshipperID *string
	DesignID      *string
	Status        *Status
	Limit         int
	Offset        int
}
