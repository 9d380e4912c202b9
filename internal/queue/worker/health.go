package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ReadinessDeps interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness, readiness and metrics for the worker process.
func (w *Worker) HealthHandler(deps ReadinessDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())

	// liveness: process is up
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"ok": true,
		})
	})

	// readiness: the loop is running and the database answers
	r.GET("/readyz", func(c *gin.Context) {
		if !w.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}

		if deps != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
			defer cancel()

			if err := deps.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready"})
				return
			}
		}

		s := w.metrics.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
			"jobs": gin.H{
				"claimed": s.Claimed,
				"done":    s.Done,
				"failed":  s.Failed,
				"retried": s.Retried,
				"byType":  s.ByType,
				"avgMs":   s.AverageDuration.Milliseconds(),
				"maxMs":   s.MaxDuration.Milliseconds(),
			},
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
