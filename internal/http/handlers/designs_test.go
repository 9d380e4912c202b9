package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/domain/design"
	"github.com/geocoder89/printhub/internal/http/handlers"
	"github.com/geocoder89/printhub/internal/service"
)

type fakeDesignService struct {
	createFn  func(ctx context.Context, req design.CreateDesignRequest) (design.Design, error)
	getFn     func(ctx context.Context, id string) (design.Design, error)
	updateFn  func(ctx context.Context, id string, req design.UpdateDesignRequest) (design.Design, error)
	deleteFn  func(ctx context.Context, id string) error
	uploadFn  func(ctx context.Context, id string, kind design.AssetKind, file service.Upload) (design.Design, error)
	catalogFn func(ctx context.Context, f design.ListDesignsFilter) (service.Page[design.Design], error)
	mineFn    func(ctx context.Context, f design.ListDesignsFilter) (service.Page[design.Design], error)
}

func (f *fakeDesignService) Create(ctx context.Context, req design.CreateDesignRequest) (design.Design, error) {
	return f.createFn(ctx, req)
}

func (f *fakeDesignService) Get(ctx context.Context, id string) (design.Design, error) {
	return f.getFn(ctx, id)
}

func (f *fakeDesignService) Update(ctx context.Context, id string, req design.UpdateDesignRequest) (design.Design, error) {
	return f.updateFn(ctx, id, req)
}

func (f *fakeDesignService) Delete(ctx context.Context, id string) error {
	return f.deleteFn(ctx, id)
}

func (f *fakeDesignService) UploadAsset(ctx context.Context, id string, kind design.AssetKind, file service.Upload) (design.Design, error) {
	return f.uploadFn(ctx, id, kind, file)
}

func (f *fakeDesignService) Catalog(ctx context.Context, filter design.ListDesignsFilter) (service.Page[design.Design], error) {
	return f.catalogFn(ctx, filter)
}

func (f *fakeDesignService) Mine(ctx context.Context, filter design.ListDesignsFilter) (service.Page[design.Design], error) {
	return f.mineFn(ctx, filter)
}

func TestCreateDesignHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "created",
			body:       `{"title":"Low poly fox","category":"animals","priceCents":1299}`,
			wantStatus: http.StatusCreated,
			wantCalled: true,
		},
		{
			name:       "binding rejects before the service",
			body:       `{"title":"go"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong role",
			body:       `{"title":"Low poly fox","category":"animals","priceCents":1299}`,
			createErr:  apperr.Unauthorized("wrong_role", "You don't have permission to do that."),
			wantStatus: http.StatusForbidden,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &fakeDesignService{createFn: func(_ context.Context, req design.CreateDesignRequest) (design.Design, error) {
				called = true
				if tt.createErr != nil {
					return design.Design{}, tt.createErr
				}
				return design.Design{ID: "d1", Title: req.Title}, nil
			}}

			r := setupRouter(http.MethodPost, "/designs", handlers.NewDesignsHandler(svc).Create)
			w := doJSON(t, r, http.MethodPost, "/designs", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if called != tt.wantCalled {
				t.Fatalf("service called=%v, want %v", called, tt.wantCalled)
			}
			if tt.wantStatus == http.StatusCreated && w.Header().Get("Location") != "/designs/d1" {
				t.Fatalf("missing Location header")
			}
		})
	}
}

func TestCatalogHandler_ETagAndFilters(t *testing.T) {
	var seen design.ListDesignsFilter
	svc := &fakeDesignService{catalogFn: func(_ context.Context, f design.ListDesignsFilter) (service.Page[design.Design], error) {
		seen = f
		return service.Page[design.Design]{Items: []design.Design{{ID: "d1"}}, Total: 1, Limit: 20}, nil
	}}
	r := setupRouter(http.MethodGet, "/designs", handlers.NewDesignsHandler(svc).Catalog)

	w := doJSON(t, r, http.MethodGet, "/designs?category=animals&minPrice=100&limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}
	if seen.Category == nil || *seen.Category != "animals" || seen.MinPrice == nil || *seen.MinPrice != 100 || seen.Limit != 5 {
		t.Fatalf("filters not passed through: %+v", seen)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header")
	}

	req := httptest.NewRequest(http.MethodGet, "/designs?category=animals&minPrice=100&limit=5", nil)
	req.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	if w2.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w2.Code)
	}

	w3 := doJSON(t, r, http.MethodGet, "/designs?maxPrice=cheap", "")
	if w3.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad price, got %d", w3.Code)
	}
}

func TestGetDesignHandler_HiddenDraftIsForbidden(t *testing.T) {
	svc := &fakeDesignService{getFn: func(context.Context, string) (design.Design, error) {
		return design.Design{}, apperr.Unauthorized("not_owner", "You don't have permission to do that.")
	}}
	r := setupRouter(http.MethodGet, "/designs/:id", handlers.NewDesignsHandler(svc).Get)

	w := doJSON(t, r, http.MethodGet, "/designs/d1", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("got status %d", w.Code)
	}
}

func TestUploadAssetHandler(t *testing.T) {
	var gotKind design.AssetKind
	var gotBody []byte
	svc := &fakeDesignService{uploadFn: func(_ context.Context, id string, kind design.AssetKind, file service.Upload) (design.Design, error) {
		gotKind = kind
		gotBody, _ = io.ReadAll(file.Body)
		url := "https://cdn.example.com/" + file.Filename
		return design.Design{ID: id, ModelURL: &url}, nil
	}}
	r := setupRouter(http.MethodPut, "/designs/:id/assets/:kind", handlers.NewDesignsHandler(svc).UploadAsset)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "fox.stl")
	_, _ = part.Write([]byte("solid fox"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPut, "/designs/d1/assets/model", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d body=%s", w.Code, w.Body.String())
	}
	if gotKind != design.AssetModel || string(gotBody) != "solid fox" {
		t.Fatalf("unexpected upload kind=%q body=%q", gotKind, gotBody)
	}

	w2 := doJSON(t, r, http.MethodPut, "/designs/d1/assets/model", `{}`)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("missing file should be 400, got %d", w2.Code)
	}
}
