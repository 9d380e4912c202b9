package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/printhub/internal/domain/order"
	"github.com/geocoder89/printhub/internal/service"
	"github.com/gin-gonic/gin"
)

type OrderService interface {
	Place(ctx context.Context, req order.CreateOrderRequest) (order.Order, error)
	Get(ctx context.Context, id string) (order.Order, error)
	UpdateStatus(ctx context.Context, id string, status order.Status) (order.Order, error)
	Mine(ctx context.Context, f order.ListOrdersFilter) (service.Page[order.Order], error)
}

type OrdersHandler struct {
	svc OrderService
}

func NewOrdersHandler(svc OrderService) *OrdersHandler {
	return &OrdersHandler{svc: svc}
}

func (h *OrdersHandler) Place(ctx *gin.Context) {
	var req order.CreateOrderRequest
	if !BindJSON(ctx, &req) {
		return
	}

	o, err := h.svc.Place(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Header("Location", "/orders/"+o.ID)
	ctx.JSON(http.StatusCreated, o)
}

func (h *OrdersHandler) Get(ctx *gin.Context) {
	o, err := h.svc.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, o)
}

// PATCH /orders/:id/status
func (h *OrdersHandler) UpdateStatus(ctx *gin.Context) {
	var req order.UpdateStatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	o, err := h.svc.UpdateStatus(ctx.Request.Context(), ctx.Param("id"), req.Status)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, o)
}

// GET /me/orders?status=shipped
func (h *OrdersHandler) Mine(ctx *gin.Context) {
	limit, offset := pageParams(ctx)
	f := order.ListOrdersFilter{Limit: limit, Offset: offset}

	if s := optionalQuery(ctx, "status"); s != nil {
		st := order.Status(*s)
		if !st.IsValid() {
			RespondBadRequest(ctx, "Unknown order status.", map[string]string{"status": *s})
			return
		}
		f.Status = &st
	}

	page, err := h.svc.Mine(ctx.Request.Context(), f)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, page)
}
