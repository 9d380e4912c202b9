package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/printhub/internal/domain/notification"
	"github.com/geocoder89/printhub/internal/service"
	"github.com/gin-gonic/gin"
)

type NotificationService interface {
	List(ctx context.Context, unreadOnly bool, limit int, cursor string) (service.NotificationPage, error)
	MarkRead(ctx context.Context, id string) (notification.Notification, error)
	MarkAllRead(ctx context.Context) (int64, error)
}

type NotificationsHandler struct {
	svc NotificationService
}

func NewNotificationsHandler(svc NotificationService) *NotificationsHandler {
	return &NotificationsHandler{svc: svc}
}

// GET /me/notifications?unread=true&limit=20&cursor=...
func (h *NotificationsHandler) List(ctx *gin.Context) {
	unread := ctx.Query("unread") == "true"
	limit := parseIntDefault(ctx.Query("limit"), 0)

	page, err := h.svc.List(ctx.Request.Context(), unread, limit, ctx.Query("cursor"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, page)
}

// POST /me/notifications/:id/read
func (h *NotificationsHandler) MarkRead(ctx *gin.Context) {
	n, err := h.svc.MarkRead(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, n)
}

// POST /me/notifications/read-all
func (h *NotificationsHandler) MarkAllRead(ctx *gin.Context) {
	n, err := h.svc.MarkAllRead(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"updated": n})
}
