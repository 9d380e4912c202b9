package order

import (
	"time"

	"github.com/google/uuid"
)

// Status is a plain tag; there are no transition rules between statuses.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// CountsTowardRevenue reports whether an order in this status is part of revenue sums.
func (s Status) CountsTowardRevenue() bool {
	return s != StatusCancelled
}

type Order struct {
	ID              string    `json:"id"`
	CustomerID      string    `json:"customerId"`
	DesignID        string    `json:"designId"`
	DesignerID      string    `json:"designerId"`
	ProductID       *string   `json:"productId,omitempty"`
	DropshipperID   *string   `json:"dropshipperId,omitempty"`
	Quantity        int       `json:"quantity"`
	AmountCents     int64     `json:"amountCents"`
	Status          Status    `json:"status"`
	ShippingAddress string    `json:"shippingAddress"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CreateOrderRequest orders either a design directly or a dropshipper product.
type CreateOrderRequest struct {
	DesignID        string `json:"designId" binding:"omitempty,uuid"`
	ProductID       string `json:"productId" binding:"omitempty,uuid"`
	Quantity        int    `json:"quantity" binding:"required,min=1,max=100"`
	ShippingAddress string `json:"shippingAddress" binding:"required,min=5,max=500"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
}

type ListOrdersFilter struct {
	CustomerID    *string
	DesignerID    *string
	DropshipperID *string
	Status        *Status
	Limit         int
	Offset        int
}

// Line is the priced, resolved input used to build an order.
type Line struct {
	DesignID      string
	DesignerID    string
	ProductID     *string
	DropshipperID *string
	UnitCents     int64
}

func New(customerID string, line Line, quantity int, address string) Order {
	now := time.Now().UTC()

	return Order{
		ID:              uuid.NewString(),
		CustomerID:      customerID,
		DesignID:        line.DesignID,
		DesignerID:      line.DesignerID,
		ProductID:       line.ProductID,
		DropshipperID:   line.DropshipperID,
		Quantity:        quantity,
		AmountCents:     line.UnitCents * int64(quantity),
		Status:          StatusPending,
		ShippingAddress: address,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
