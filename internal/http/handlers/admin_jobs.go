package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/printhub/internal/domain/job"
	"github.com/geocoder89/printhub/internal/service"
	"github.com/gin-gonic/gin"
)

type AdminJobsService interface {
	List(ctx context.Context, status string, limit int, cursor string) (service.JobPage, error)
	Get(ctx context.Context, id string) (job.Job, error)
	Retry(ctx context.Context, id string) (job.Job, error)
	RetryFailed(ctx context.Context, limit int) (int64, error)
}

type AdminJobsHandler struct {
	svc AdminJobsService
}

func NewAdminJobsHandler(svc AdminJobsService) *AdminJobsHandler {
	return &AdminJobsHandler{svc: svc}
}

// GET /admin/jobs?status=failed&limit=50&cursor=...
func (h *AdminJobsHandler) List(ctx *gin.Context) {
	limit := parseIntDefault(ctx.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		RespondBadRequest(ctx, "limit must be between 1 and 100", nil)
		return
	}

	page, err := h.svc.List(ctx.Request.Context(), ctx.Query("status"), limit, ctx.Query("cursor"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"limit":      limit,
		"count":      len(page.Items),
		"items":      page.Items,
		"hasMore":    page.NextCursor != "",
		"nextCursor": page.NextCursor,
	})
}

// GET /admin/jobs/:id
func (h *AdminJobsHandler) GetByID(ctx *gin.Context) {
	j, err := h.svc.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, j)
}

// POST /admin/jobs/:id/retry
func (h *AdminJobsHandler) Retry(ctx *gin.Context) {
	j, err := h.svc.Retry(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"jobId":  j.ID,
		"status": j.Status,
	})
}

// POST /admin/jobs/reprocess-failed?limit=50
func (h *AdminJobsHandler) ReprocessFailed(ctx *gin.Context) {
	limit := parseIntDefault(ctx.Query("limit"), 50)

	n, err := h.svc.RetryFailed(ctx.Request.Context(), limit)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"requeued": n})
}
