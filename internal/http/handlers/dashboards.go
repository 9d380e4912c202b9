package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/printhub/internal/service"
	"github.com/gin-gonic/gin"
)

type DashboardService interface {
	Designer(ctx context.Context) (service.DesignerDashboard, error)
	Dropshipper(ctx context.Context) (service.DropshipperDashboard, error)
	Customer(ctx context.Context) (service.CustomerDashboard, error)
	Admin(ctx context.Context) (service.AdminDashboard, error)
}

type DashboardsHandler struct {
	svc DashboardService
}

func NewDashboardsHandler(svc DashboardService) *DashboardsHandler {
	return &DashboardsHandler{svc: svc}
}

func (h *DashboardsHandler) Designer(ctx *gin.Context) {
	respondDashboard(ctx, h.svc.Designer)
}

func (h *DashboardsHandler) Dropshipper(ctx *gin.Context) {
	respondDashboard(ctx, h.svc.Dropshipper)
}

func (h *DashboardsHandler) Customer(ctx *gin.Context) {
	respondDashboard(ctx, h.svc.Customer)
}

func (h *DashboardsHandler) Admin(ctx *gin.Context) {
	respondDashboard(ctx, h.svc.Admin)
}

func respondDashboard[T any](ctx *gin.Context, load func(context.Context) (T, error)) {
	d, err := load(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, d)
}
