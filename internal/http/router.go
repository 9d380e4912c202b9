package http

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/http/handlers"
	"github.com/geocoder89/printhub/internal/http/middlewares"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/geocoder89/printhub/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Handlers groups every HTTP handler the API serves. Auth is nil when a
// hosted session provider issues tokens.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Profiles      *handlers.ProfilesHandler
	Designs       *handlers.DesignsHandler
	Products      *handlers.ProductsHandler
	Orders        *handlers.OrdersHandler
	Notifications *handlers.NotificationsHandler
	Dashboards    *handlers.DashboardsHandler
	AdminJobs     *handlers.AdminJobsHandler
	Health        *handlers.HealthHandler
}

type RouterConfig struct {
	Env            string
	ServiceName    string
	CORSOrigins    []string
	MaxBodyBytes   int64
	MaxUploadBytes int64
	HSTS           bool
}

type Deps struct {
	Log      *slog.Logger
	Prom     *observability.Prom
	Metrics  http.Handler
	Sessions *middlewares.SessionMiddleware
	Checker  middlewares.Checker
	// Limiter may be nil to disable rate limiting.
	Limiter *ratelimit.Limiter
}

func NewRouter(cfg RouterConfig, deps Deps, h Handlers) *gin.Engine {
	switch cfg.Env {
	case "dev":
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(cfg.HSTS))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))

	r.GET("/healthz", h.Health.Healthz)
	r.GET("/readyz", h.Health.Readyz)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	maxBody, requireJSON := middlewares.MaxBodyBytes(cfg.MaxBodyBytes), middlewares.RequireJSON()
	withJSON := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{maxBody, requireJSON, fn}
	}
	upload := middlewares.MaxBodyBytes(cfg.MaxUploadBytes + 1<<20) // multipart framing

	limit := func(prefix string, key func(*gin.Context) string) gin.HandlerFunc {
		if deps.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middlewares.RateLimit(deps.Limiter, prefix, key)
	}

	if h.Auth != nil {
		a := r.Group("/auth", limit("auth", middlewares.KeyByIP))
		a.POST("/signup", withJSON(h.Auth.SignUp)...)
		a.POST("/login", withJSON(h.Auth.Login)...)
		a.POST("/refresh", h.Auth.Refresh)
		a.POST("/logout", h.Auth.Logout)
	}

	// public reads; a session, when present, widens what Get can see
	pub := r.Group("/", deps.Sessions.OptionalSession(), limit("public", middlewares.KeyByUserOrIP))
	pub.GET("/designs", h.Designs.Catalog)
	pub.GET("/designs/:id", h.Designs.Get)
	pub.GET("/designs/:id/products", h.Products.Listing)
	pub.GET("/products/:id", h.Products.Get)
	pub.GET("/profiles/:id", h.Profiles.Public)

	authed := r.Group("/", deps.Sessions.RequireSession(), limit("api", middlewares.KeyByUserOrIP))

	me := authed.Group("/me")
	me.GET("", h.Profiles.Me)
	me.PATCH("", withJSON(h.Profiles.UpdateMe)...)
	me.PUT("/avatar", upload, h.Profiles.UploadAvatar)
	me.GET("/notifications", h.Notifications.List)
	me.POST("/notifications/read-all", h.Notifications.MarkAllRead)
	me.POST("/notifications/:id/read", h.Notifications.MarkRead)

	designer := authed.Group("/", middlewares.RequireRole(deps.Checker, user.RoleDesigner))
	designer.POST("/designs", withJSON(h.Designs.Create)...)
	designer.GET("/me/designs", h.Designs.Mine)
	designer.GET("/dashboard/designer", h.Dashboards.Designer)

	// ownership is decided per resource, admins included
	authed.PATCH("/designs/:id", withJSON(h.Designs.Update)...)
	authed.DELETE("/designs/:id", h.Designs.Delete)
	authed.PUT("/designs/:id/assets/:kind", upload, h.Designs.UploadAsset)

	dropshipper := authed.Group("/", middlewares.RequireRole(deps.Checker, user.RoleDropshipper))
	dropshipper.POST("/products", withJSON(h.Products.Create)...)
	dropshipper.GET("/me/products", h.Products.Mine)
	dropshipper.GET("/dashboard/dropshipper", h.Dashboards.Dropshipper)

	authed.PATCH("/products/:id", withJSON(h.Products.Update)...)
	authed.DELETE("/products/:id", h.Products.Delete)

	customer := authed.Group("/", middlewares.RequireRole(deps.Checker, user.RoleCustomer))
	customer.POST("/orders", withJSON(h.Orders.Place)...)
	customer.GET("/me/orders", h.Orders.Mine)
	customer.GET("/dashboard/customer", h.Dashboards.Customer)

	authed.GET("/orders/:id", h.Orders.Get)
	authed.PATCH("/orders/:id/status", withJSON(h.Orders.UpdateStatus)...)

	admin := authed.Group("/admin", middlewares.RequireRole(deps.Checker, user.RoleAdmin))
	admin.GET("/dashboard", h.Dashboards.Admin)
	admin.GET("/profiles", h.Profiles.List)
	admin.GET("/jobs", h.AdminJobs.List)
	admin.GET("/jobs/:id", h.AdminJobs.GetByID)
	admin.POST("/jobs/:id/retry", h.AdminJobs.Retry)
	admin.POST("/jobs/reprocess-failed", h.AdminJobs.ReprocessFailed)

	return r
}
