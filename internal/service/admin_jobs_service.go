package service

import (
	"context"
	"log/slog"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/domain/job"
	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/utils"
)

type JobStore interface {
	List(ctx context.Context, f job.ListFilter) ([]job.Job, bool, error)
	GetByID(ctx context.Context, id string) (job.Job, error)
	Retry(ctx context.Context, id string) (job.Job, error)
	RetryManyFailed(ctx context.Context, limit int) (int64, error)
}

type JobPage struct {
	Items      []job.Job `json:"items"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

type AdminJobsService struct {
	authz Authorizer
	jobs  JobStore
	log   *slog.Logger
}

func NewAdminJobsService(a Authorizer, jobs JobStore, log *slog.Logger) *AdminJobsService {
	if log == nil {
		log = slog.Default()
	}
	return &AdminJobsService{authz: a, jobs: jobs, log: log}
}

func (s *AdminJobsService) List(ctx context.Context, status string, limit int, cursor string) (JobPage, error) {
	if _, err := s.authz.Check(ctx, authz.RequireRole(user.RoleAdmin)); err != nil {
		return JobPage{}, err
	}

	limit, _ = clampPage(limit, 0)
	f := job.ListFilter{Limit: limit}

	if status != "" {
		st := job.Status(status)
		if !st.IsValid() {
			return JobPage{}, apperr.Validation("Unknown job status.", map[string]string{"status": status})
		}
		f.Status = &st
	}

	if cursor != "" {
		c, err := utils.DecodeCursor(cursor)
		if err != nil {
			return JobPage{}, apperr.Validation("Invalid cursor.", map[string]string{"cursor": "invalid"})
		}
		f.AfterUpdatedAt, f.AfterID = c.At, c.ID
	}

	items, hasMore, err := s.jobs.List(ctx, f)
	if err != nil {
		return JobPage{}, err
	}

	page := JobPage{Items: items}
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		if page.NextCursor, err = utils.EncodeCursor(last.UpdatedAt, last.ID); err != nil {
			return JobPage{}, apperr.Upstream("jobs.cursor", err)
		}
	}
	return page, nil
}

func (s *AdminJobsService) Get(ctx context.Context, id string) (job.Job, error) {
	if _, err := s.authz.Check(ctx, authz.RequireRole(user.RoleAdmin)); err != nil {
		return job.Job{}, err
	}
	return s.jobs.GetByID(ctx, id)
}

// Retry puts a failed job back in the queue with a fresh attempt budget.
func (s *AdminJobsService) Retry(ctx context.Context, id string) (job.Job, error) {
	me, err := s.authz.Check(ctx, authz.RequireRole(user.RoleAdmin))
	if err != nil {
		return job.Job{}, err
	}

	j, err := s.jobs.Retry(ctx, id)
	if err != nil {
		return job.Job{}, err
	}

	s.log.InfoContext(ctx, "job retried", "job_id", id, "job_type", j.Type, "admin_id", me.ID)
	return j, nil
}

// RetryFailed requeues a batch of failed jobs, at most maxPageSize at a time.
func (s *AdminJobsService) RetryFailed(ctx context.Context, limit int) (int64, error) {
	me, err := s.authz.Check(ctx, authz.RequireRole(user.RoleAdmin))
	if err != nil {
		return 0, err
	}

	limit, _ = clampPage(limit, 0)
	n, err := s.jobs.RetryManyFailed(ctx, limit)
	if err != nil {
		return 0, err
	}

	s.log.InfoContext(ctx, "failed jobs requeued", "count", n, "admin_id", me.ID)
	return n, nil
}
