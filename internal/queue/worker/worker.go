// Package worker claims queued jobs from Postgres and runs their handlers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/geocoder89/printhub/internal/domain/job"
	"github.com/geocoder89/printhub/internal/jobs"
	"github.com/geocoder89/printhub/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

// HandlerFunc runs one job. Returning a jobs.Permanent error fails the job
// without retrying.
type HandlerFunc func(ctx context.Context, j job.Job) error

type Config struct {
	WorkerID     string
	PollInterval time.Duration
	Concurrency  int
	JobTimeout   time.Duration
	// jobs stuck in processing longer than LockTTL are handed back to the queue
	LockTTL time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	handlers map[jobs.JobType]HandlerFunc
	log      *slog.Logger
	prom     *observability.Prom
	metrics  *observability.JobMetrics
	now      func() time.Time

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, log *slog.Logger, prom *observability.Prom, metrics *observability.JobMetrics) *Worker {
	if cfg.WorkerID == "" {
		host, _ := os.Hostname()
		cfg.WorkerID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewJobMetrics()
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		handlers: make(map[jobs.JobType]HandlerFunc),
		log:      log.With("worker_id", cfg.WorkerID),
		prom:     prom,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Handle registers fn for jobs of type t.
func (w *Worker) Handle(t jobs.JobType, fn HandlerFunc) {
	w.handlers[t] = fn
}

func (w *Worker) Metrics() *observability.JobMetrics { return w.metrics }

// Run polls until ctx is cancelled, then waits for in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	w.log.Info("worker started", "concurrency", w.cfg.Concurrency, "poll_interval", w.cfg.PollInterval.String())

	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.reaper(ctx)
	}()

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker received shutdown signal")

	wg.Wait()
	return nil
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// drain while there is work, then wait for the next tick
		for {
			if ctx.Err() != nil {
				return
			}
			processed, err := w.ProcessOne(ctx)
			if err != nil {
				w.log.Error("process job", "err", err)
				break
			}
			if !processed {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) reaper(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.LockTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL)
			if err != nil {
				w.log.Error("requeue stale jobs", "err", err)
				continue
			}
			if n > 0 {
				w.log.Warn("requeued stale jobs", "count", n)
			}
		}
	}
}

// ProcessOne claims and runs a single job. It reports false when the queue
// had nothing ready.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrNoJobAvailable) {
			return false, nil
		}
		return false, err
	}

	w.metrics.IncClaimed(string(j.Type))
	log := w.log.With("job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1)

	start := w.now()
	err = w.execute(ctx, j)
	elapsed := w.now().Sub(start)
	w.metrics.ObserveDuration(elapsed)

	if err != nil {
		result := w.handleFailure(ctx, j, err)
		w.observe(j.Type, result, elapsed)
		log.Warn("job failed", "result", result, "err", err)
		return true, nil
	}

	// done must not depend on the poll ctx: a shutdown mid-job still records completion
	if err := w.repo.MarkDone(context.WithoutCancel(ctx), j.ID); err != nil {
		_ = w.repo.MarkFailed(context.WithoutCancel(ctx), j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.metrics.IncDone(string(j.Type))
	w.observe(j.Type, "done", elapsed)
	log.Info("job done", "duration_ms", elapsed.Milliseconds())
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) (err error) {
	fn, ok := w.handlers[jobs.JobType(j.Type)]
	if !ok {
		return jobs.Permanent{Err: fmt.Errorf("%w: %s", jobs.ErrInvalidJobType, j.Type)}
	}

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	return fn(runCtx, j)
}

// handleFailure either reschedules j with backoff or marks it failed for good.
func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error) string {
	bg := context.WithoutCancel(ctx)
	msg := cause.Error()

	// the failed run counts as an attempt once recorded
	permanent := jobs.IsPermanent(cause)
	if permanent || j.Attempts+1 >= j.MaxAttempts {
		if err := w.repo.MarkFailed(bg, j.ID, msg); err != nil {
			w.log.Error("mark failed", "job_id", j.ID, "err", err)
		}
		w.metrics.IncFailed(string(j.Type), permanent)
		return "failed"
	}

	runAt := w.now().UTC().Add(ExponentialBackoff(j.Attempts))
	if err := w.repo.Reschedule(bg, j.ID, runAt, msg); err != nil {
		w.log.Error("reschedule", "job_id", j.ID, "err", err)
	}
	w.metrics.IncRetried(string(j.Type))
	return "retry"
}

func (w *Worker) observe(jobType, result string, d time.Duration) {
	if w.prom == nil {
		return
	}
	w.prom.JobDuration.WithLabelValues(jobType, result).Observe(d.Seconds())
	w.prom.JobResults.WithLabelValues(jobType, result).Inc()
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}
