package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/printhub/internal/config"
	"github.com/geocoder89/printhub/internal/db"
	"github.com/geocoder89/printhub/internal/jobs"
	"github.com/geocoder89/printhub/internal/notifications"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/geocoder89/printhub/internal/queue/worker"
	"github.com/geocoder89/printhub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env).With("component", "worker")
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	if cfg.OTelEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "printhub-worker",
			Environment: cfg.Env,
			Endpoint:    cfg.OTelEndpoint,
			SampleRatio: cfg.OTelSampleRatio,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			sctx, scancel := config.WithTimeout(5 * time.Second)
			defer scancel()
			_ = shutdownTracer(sctx)
		}()
	}

	pool, err := db.NewPool(cfg.DBURL, int32(cfg.WorkerConcurrency+2))

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	jobsRepo := postgres.NewJobsRepo(pool, prom)
	ordersRepo := postgres.NewOrdersRepo(pool, prom, jobsRepo)
	deliveries := postgres.NewNotificationDeliveriesRepo(pool, prom)
	inbox := postgres.NewNotificationsRepo(pool, prom)

	notifier := notifications.NewProtectedNotifier(
		notifications.Multi{
			notifications.NewInboxNotifier(inbox),
			notifications.NewLogNotifier(log),
		},
		notifications.ProtectedNotifierConfig{
			Timeout:          3 * time.Second,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			HalfOpenMaxCalls: 1,
		},
	)
	dispatcher := notifications.NewDispatcher(ordersRepo, deliveries, notifier, log)

	w := worker.New(worker.Config{
		PollInterval: cfg.WorkerPollInterval,
		Concurrency:  cfg.WorkerConcurrency,
		JobTimeout:   30 * time.Second,
	}, jobsRepo, log, prom, observability.NewJobMetrics())

	w.Handle(jobs.JobOrderPlaced, dispatcher.HandleOrderPlaced)
	w.Handle(jobs.JobOrderStatusChanged, dispatcher.HandleOrderStatusChanged)
	w.Handle(jobs.JobWelcome, dispatcher.HandleWelcome)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(pool),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "concurrency", cfg.WorkerConcurrency)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	sctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(sctx)

	log.Info("worker shutdown complete")
}
