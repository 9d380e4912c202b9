package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/domain/job"
	"github.com/geocoder89/printhub/internal/http/handlers"
	"github.com/geocoder89/printhub/internal/service"
)

type fakeAdminJobs struct {
	listCalls int
	lastLimit int
	retried   int
}

func (f *fakeAdminJobs) List(_ context.Context, _ string, limit int, _ string) (service.JobPage, error) {
	f.listCalls++
	f.lastLimit = limit
	return service.JobPage{Items: []job.Job{{ID: "j1"}, {ID: "j2"}}, NextCursor: "next"}, nil
}

func (f *fakeAdminJobs) Get(context.Context, string) (job.Job, error) {
	return job.Job{}, apperr.NotFound("job")
}

func (f *fakeAdminJobs) Retry(_ context.Context, id string) (job.Job, error) {
	return job.Job{ID: id, Status: job.StatusPending}, nil
}

func (f *fakeAdminJobs) RetryFailed(_ context.Context, limit int) (int64, error) {
	f.retried = limit
	return 3, nil
}

func TestAdminJobsList(t *testing.T) {
	svc := &fakeAdminJobs{}
	r := setupRouter(http.MethodGet, "/admin/jobs", handlers.NewAdminJobsHandler(svc).List)

	w := doJSON(t, r, http.MethodGet, "/admin/jobs?limit=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}

	var body struct {
		Count      int    `json:"count"`
		HasMore    bool   `json:"hasMore"`
		NextCursor string `json:"nextCursor"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 || !body.HasMore || body.NextCursor != "next" || svc.lastLimit != 2 {
		t.Fatalf("unexpected body %+v limit=%d", body, svc.lastLimit)
	}

	w2 := doJSON(t, r, http.MethodGet, "/admin/jobs?limit=500", "")
	if w2.Code != http.StatusBadRequest || svc.listCalls != 1 {
		t.Fatalf("got status %d calls=%d", w2.Code, svc.listCalls)
	}
}

func TestAdminJobsRetryAndReprocess(t *testing.T) {
	svc := &fakeAdminJobs{}
	h := handlers.NewAdminJobsHandler(svc)

	r := setupRouter(http.MethodPost, "/admin/jobs/:id/retry", h.Retry)
	w := doJSON(t, r, http.MethodPost, "/admin/jobs/j9/retry", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}

	r2 := setupRouter(http.MethodPost, "/admin/jobs/reprocess-failed", h.ReprocessFailed)
	w2 := doJSON(t, r2, http.MethodPost, "/admin/jobs/reprocess-failed", "")
	if w2.Code != http.StatusOK || svc.retried != 50 {
		t.Fatalf("got status %d limit=%d", w2.Code, svc.retried)
	}

	r3 := setupRouter(http.MethodGet, "/admin/jobs/:id", h.GetByID)
	w3 := doJSON(t, r3, http.MethodGet, "/admin/jobs/missing", "")
	if w3.Code != http.StatusNotFound {
		t.Fatalf("got status %d", w3.Code)
	}
}
