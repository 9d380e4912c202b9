// Package app assembles the API from its parts. cmd/api and the integration
// tests build the same graph through it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/printhub/internal/auth"
	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/cache"
	"github.com/geocoder89/printhub/internal/config"
	"github.com/geocoder89/printhub/internal/domain/design"
	httpx "github.com/geocoder89/printhub/internal/http"
	"github.com/geocoder89/printhub/internal/http/handlers"
	"github.com/geocoder89/printhub/internal/http/middlewares"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/geocoder89/printhub/internal/profile"
	"github.com/geocoder89/printhub/internal/ratelimit"
	"github.com/geocoder89/printhub/internal/redisclient"
	"github.com/geocoder89/printhub/internal/repo/postgres"
	"github.com/geocoder89/printhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	serviceName  = "printhub-api"
	maxJSONBytes = 1 << 20
	catalogTTL   = 30 * time.Second
)

// Infra is what the API needs from the outside world. Redis is optional.
type Infra struct {
	Pool     *pgxpool.Pool
	Redis    *redisclient.Client
	Objects  service.ObjectStore
	Registry *prometheus.Registry
	// Verifier overrides the session verifier derived from cfg.
	Verifier auth.SessionVerifier
}

func NewAPI(ctx context.Context, cfg config.Config, log *slog.Logger, infra Infra) (*gin.Engine, error) {
	if infra.Registry == nil {
		infra.Registry = prometheus.NewRegistry()
	}
	prom := observability.NewProm(infra.Registry)

	accounts := postgres.NewAccountsRepo(infra.Pool, prom)
	refresh := postgres.NewRefreshTokensRepo(infra.Pool, prom)
	profilesRepo := postgres.NewProfilesRepo(infra.Pool, prom)
	designsRepo := postgres.NewDesignsRepo(infra.Pool, prom)
	productsRepo := postgres.NewProductsRepo(infra.Pool, prom)
	jobsRepo := postgres.NewJobsRepo(infra.Pool, prom)
	ordersRepo := postgres.NewOrdersRepo(infra.Pool, prom, jobsRepo)
	notificationsRepo := postgres.NewNotificationsRepo(infra.Pool, prom)

	resolver := profile.NewResolver(profilesRepo, log).WithFallbackRecorder(prom)
	enforcer := authz.NewEnforcer(resolver, prom, log)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())

	verifier := infra.Verifier
	if verifier == nil {
		switch cfg.AuthMode {
		case config.AuthModeHosted:
			jwks, err := auth.NewJWKSVerifier(ctx, cfg.JWKSURL, log)
			if err != nil {
				return nil, fmt.Errorf("jwks verifier: %w", err)
			}
			verifier = jwks
		default:
			verifier = tokens
		}
	}

	h := httpx.Handlers{
		Profiles: handlers.NewProfilesHandler(
			service.NewProfileService(enforcer, profilesRepo, infra.Objects, cfg.S3Bucket, cfg.MaxUploadBytes, log),
		),
		Designs: handlers.NewDesignsHandler(
			service.NewDesignService(enforcer, designsRepo, infra.Objects, cfg.S3Bucket, cfg.MaxUploadBytes,
				cache.New[service.Page[design.Design]](catalogTTL), log),
		),
		Products: handlers.NewProductsHandler(
			service.NewProductService(enforcer, productsRepo, designsRepo, log),
		),
		Orders: handlers.NewOrdersHandler(
			service.NewOrderService(enforcer, ordersRepo, designsRepo, productsRepo, log),
		),
		Notifications: handlers.NewNotificationsHandler(
			service.NewNotificationService(enforcer, notificationsRepo),
		),
		Dashboards: handlers.NewDashboardsHandler(
			service.NewDashboardService(enforcer, designsRepo, productsRepo, ordersRepo, profilesRepo),
		),
		AdminJobs: handlers.NewAdminJobsHandler(
			service.NewAdminJobsService(enforcer, jobsRepo, log),
		),
	}

	// the built-in provider only runs when this service issues the tokens
	if cfg.AuthMode != config.AuthModeHosted {
		authSvc := service.NewAuthService(accounts, refresh, tokens, resolver, jobsRepo, log)
		h.Auth = handlers.NewAuthHandler(authSvc, cfg.IsProd())
	}

	pingers := map[string]handlers.Pinger{"postgres": infra.Pool.Ping}

	var store ratelimit.Store
	if infra.Redis != nil {
		store = ratelimit.NewRedisStore(infra.Redis.Raw())
		pingers["redis"] = infra.Redis.Ping
	} else {
		mem := ratelimit.NewMemoryStore()
		go sweep(ctx, mem)
		store = mem
	}
	h.Health = handlers.NewHealthHandler(pingers)

	var limiter *ratelimit.Limiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = ratelimit.New(store, cfg.RateLimitPerMinute, time.Minute)
	}

	return httpx.NewRouter(
		httpx.RouterConfig{
			Env:            cfg.Env,
			ServiceName:    serviceName,
			CORSOrigins:    cfg.CORSAllowedOrigins,
			MaxBodyBytes:   maxJSONBytes,
			MaxUploadBytes: cfg.MaxUploadBytes,
			HSTS:           cfg.IsProd(),
		},
		httpx.Deps{
			Log:      log,
			Prom:     prom,
			Metrics:  promhttp.HandlerFor(infra.Registry, promhttp.HandlerOpts{}),
			Sessions: middlewares.NewSessionMiddleware(verifier),
			Checker:  enforcer,
			Limiter:  limiter,
		},
		h,
	), nil
}

// sweep drops idle rate limit buckets until ctx ends.
func sweep(ctx context.Context, mem *ratelimit.MemoryStore) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			mem.Sweep()
		}
	}
}
