package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/domain/job"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobColumns = `id, type, payload, status, attempts, max_attempts, run_at, locked_at, locked_by, last_error, idempotency_key, priority, user_id, created_at, updated_at`

const insertJob = `
	INSERT INTO jobs (
		id, type, payload, status, attempts, max_attempts, run_at, locked_at, locked_by,
		last_error, idempotency_key, priority, user_id, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	ON CONFLICT (idempotency_key) DO NOTHING`

type JobsRepo struct {
	store
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{store{pool: pool, prom: prom}}
}

func scanJob(row pgx.Row) (job.Job, error) {
	var j job.Job
	var status string

	err := row.Scan(
		&j.ID, &j.Type, &j.Payload, &status,
		&j.Attempts, &j.MaxAttempts,
		&j.RunAt, &j.LockedAt, &j.LockedBy,
		&j.LastError, &j.IdempotencyKey, &j.Priority, &j.UserID,
		&j.CreatedAt, &j.UpdatedAt,
	)
	j.Status = job.Status(status)
	return j, err
}

func jobArgs(j job.Job) []any {
	return []any{
		j.ID, j.Type, j.Payload, string(j.Status), j.Attempts, j.MaxAttempts, j.RunAt, j.LockedAt, j.LockedBy,
		j.LastError, j.IdempotencyKey, j.Priority, j.UserID, j.CreatedAt, j.UpdatedAt,
	}
}

// Create enqueues a job. A job whose idempotency key is already queued is
// silently skipped.
func (r *JobsRepo) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)
	op := "jobs.create"

	err := r.observe(op, func() error {
		_, err := r.pool.Exec(ctx, insertJob, jobArgs(j)...)
		return err
	})

	if err != nil {
		return job.Job{}, translate(op, "job", err)
	}
	return j, nil
}

func (r *JobsRepo) CreateTx(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)
	op := "jobs.create_tx"

	err := r.observe(op, func() error {
		_, err := tx.Exec(ctx, insertJob, jobArgs(j)...)
		return err
	})

	if err != nil {
		return job.Job{}, translate(op, "job", err)
	}
	return j, nil
}

// ClaimNext locks one ready job for workerID using SKIP LOCKED so concurrent
// workers never pick the same row.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	var j job.Job
	op := "jobs.claim_next"

	err := r.observe(op, func() error {
		var err error
		j, err = scanJob(r.pool.QueryRow(ctx, `
			WITH next AS (
				SELECT id
				FROM jobs
				WHERE status = 'pending'
				  AND run_at <= NOW()
				  AND attempts < max_attempts
				ORDER BY priority DESC, run_at ASC, created_at ASC
				FOR UPDATE SKIP LOCKED
				LIMIT 1
			)
			UPDATE jobs
			SET status = 'processing',
			    locked_at = NOW(),
			    locked_by = $1,
			    updated_at = NOW()
			WHERE id = (SELECT id FROM next)
			RETURNING `+jobColumns, workerID))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrNoJobAvailable
		}
		return job.Job{}, translate(op, "job", err)
	}
	return j, nil
}

func (r *JobsRepo) exec(ctx context.Context, op, sql string, args ...any) error {
	var tag pgconn.CommandTag

	err := r.observe(op, func() error {
		var err error
		tag, err = r.pool.Exec(ctx, sql, args...)
		return err
	})

	if err != nil {
		return translate(op, "job", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("job")
	}
	return nil
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	return r.exec(ctx, "jobs.mark_done", `
		UPDATE jobs
		SET status = 'done',
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE id = $1`, id)
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.exec(ctx, "jobs.mark_failed", `
		UPDATE jobs
		SET status = 'failed',
		    attempts = attempts + 1,
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = $2,
		    updated_at = NOW()
		WHERE id = $1`, id, errMsg)
}

// Reschedule puts a job back to pending for a retry at runAt.
func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	return r.exec(ctx, "jobs.reschedule", `
		UPDATE jobs
		SET status = 'pending',
		    attempts = attempts + 1,
		    run_at = $2,
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = $3,
		    updated_at = NOW()
		WHERE id = $1`, id, runAt, errMsg)
}

// RequeueStaleProcessing releases jobs whose lock is older than lockTTL,
// e.g. after a worker crashed mid-job.
func (r *JobsRepo) RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error) {
	secs := int64(lockTTL.Seconds())
	if secs <= 0 {
		secs = 30
	}
	var rows int64
	op := "jobs.requeue_stale"

	err := r.observe(op, func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE jobs
			SET status = 'pending',
			    locked_at = NULL,
			    locked_by = NULL,
			    updated_at = NOW()
			WHERE status = 'processing'
			  AND locked_at IS NOT NULL
			  AND locked_at < NOW() - ($1 * INTERVAL '1 second')
		`, secs)
		rows = tag.RowsAffected()
		return err
	})

	return rows, translate(op, "job", err)
}

// List returns one page of jobs ordered newest-updated first, plus whether
// another page follows.
func (r *JobsRepo) List(ctx context.Context, f job.ListFilter) ([]job.Job, bool, error) {
	op := "jobs.admin.list"

	q := `SELECT ` + jobColumns + ` FROM jobs WHERE TRUE`
	var args []any
	argsPos := 1

	if f.Status != nil {
		q += fmt.Sprintf(" AND status = $%d", argsPos)
		args = append(args, string(*f.Status))
		argsPos++
	}

	// DESC keyset: fetch rows "older" than cursor
	if !f.AfterUpdatedAt.IsZero() && f.AfterID != "" {
		q += fmt.Sprintf(" AND (updated_at, id) < ($%d, $%d)", argsPos, argsPos+1)
		args = append(args, f.AfterUpdatedAt, f.AfterID)
		argsPos += 2
	}

	q += fmt.Sprintf(" ORDER BY updated_at DESC, id DESC LIMIT $%d", argsPos)
	args = append(args, f.Limit+1)

	out := make([]job.Job, 0, f.Limit)

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			j, err := scanJob(rows)
			if err != nil {
				return err
			}
			out = append(out, j)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, false, translate(op, "job", err)
	}

	hasMore := len(out) > f.Limit
	if hasMore {
		out = out[:f.Limit]
	}
	return out, hasMore, nil
}

func (r *JobsRepo) GetByID(ctx context.Context, id string) (job.Job, error) {
	var j job.Job
	op := "jobs.admin.get_by_id"

	err := r.observe(op, func() error {
		var err error
		j, err = scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
		return err
	})

	if err != nil {
		return job.Job{}, translate(op, "job", err)
	}
	return j, nil
}

// Retry requeues a failed job with a fresh attempt budget. Only failed jobs
// can be retried.
func (r *JobsRepo) Retry(ctx context.Context, id string) (job.Job, error) {
	var j job.Job
	op := "jobs.admin.retry"

	err := r.observe(op, func() error {
		var err error
		j, err = scanJob(r.pool.QueryRow(ctx, `
			UPDATE jobs
			SET status = 'pending',
			    attempts = 0,
			    run_at = NOW(),
			    locked_at = NULL,
			    locked_by = NULL,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE id = $1 AND status = 'failed'
			RETURNING `+jobColumns, id))
		return err
	})

	if err == nil {
		return j, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return job.Job{}, translate(op, "job", err)
	}

	// distinguish "missing" from "not failed"
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return job.Job{}, getErr
	}
	return job.Job{}, apperr.Conflict("job_not_failed", "Only failed jobs can be retried.")
}

// RetryManyFailed requeues up to limit failed jobs, oldest failure first.
func (r *JobsRepo) RetryManyFailed(ctx context.Context, limit int) (int64, error) {
	var n int64
	op := "jobs.admin.retry_many"

	err := r.observe(op, func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE jobs
			SET status = 'pending',
			    attempts = 0,
			    run_at = NOW(),
			    locked_at = NULL,
			    locked_by = NULL,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE id IN (
				SELECT id FROM jobs
				WHERE status = 'failed'
				ORDER BY updated_at ASC
				LIMIT $1
				FOR UPDATE SKIP LOCKED
			)`, limit)
		n = tag.RowsAffected()
		return err
	})
	if err != nil {
		return 0, translate(op, "job", err)
	}
	return n, nil
}
