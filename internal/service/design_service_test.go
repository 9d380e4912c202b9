package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/printhub/internal/actorctx"
	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/auth"
	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/cache"
	"github.com/geocoder89/printhub/internal/domain/design"
	"github.com/geocoder89/printhub/internal/domain/user"
)

func newDesignService(t *testing.T, designs *memDesigns, objects *fakeObjects) *DesignService {
	t.Helper()
	w := newWorld(t,
		person("designer-1", user.RoleDesigner),
		person("designer-2", user.RoleDesigner),
		person("admin-1", user.RoleAdmin),
		person("customer-1", user.RoleCustomer),
	)
	return NewDesignService(w.enforcer, designs, objects, "assets", 1<<20, cache.New[Page[design.Design]](time.Minute), discardLogger())
}

func validDesign() design.CreateDesignRequest {
	return design.CreateDesignRequest{
		Title:       "Low poly fox",
		Description: "<p>Prints <b>without</b> supports</p><script>alert(1)</script>",
		Category:    "Animals",
		PriceCents:  1299,
		Tags:        []string{"Fox", "fox", " lowpoly "},
	}
}

func TestDesignCreate_RequiresDesignerRole(t *testing.T) {
	s := newDesignService(t, newMemDesigns(), &fakeObjects{})

	_, err := s.Create(as("customer-1"), validDesign())
	assertReason(t, err, authz.ReasonWrongRole)

	_, err = s.Create(anonymous(), validDesign())
	assertKind(t, err, apperr.ErrNotAuthenticated)
}

func TestDesignCreate_SanitizesAndNormalizes(t *testing.T) {
	s := newDesignService(t, newMemDesigns(), &fakeObjects{})

	d, err := s.Create(as("designer-1"), validDesign())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.DesignerID != "designer-1" || d.Status != design.StatusDraft {
		t.Fatalf("unexpected design %+v", d)
	}
	if strings.Contains(d.Description, "<script>") || !strings.Contains(d.Description, "<b>without</b>") {
		t.Fatalf("description not sanitized: %q", d.Description)
	}
	if d.Category != "animals" {
		t.Fatalf("expected lowercased category, got %q", d.Category)
	}
	if len(d.Tags) != 2 || d.Tags[0] != "fox" || d.Tags[1] != "lowpoly" {
		t.Fatalf("unexpected tags %v", d.Tags)
	}
}

func TestDesignCreate_ValidatesFields(t *testing.T) {
	s := newDesignService(t, newMemDesigns(), &fakeObjects{})

	req := validDesign()
	req.Title = "<b></b>x"
	req.PriceCents = MaxPriceCents + 1

	_, err := s.Create(as("designer-1"), req)
	assertKind(t, err, apperr.ErrValidation)

	e, _ := apperr.As(err)
	details, ok := e.Details.(map[string]string)
	if !ok || details["title"] == "" || details["priceCents"] == "" {
		t.Fatalf("expected per-field details, got %#v", e.Details)
	}
}

func TestDesignUpdate_OwnershipRule(t *testing.T) {
	existing := design.Design{ID: "d1", DesignerID: "designer-1", Title: "Fox", Status: design.StatusDraft}
	designs := newMemDesigns(existing)
	s := newDesignService(t, designs, &fakeObjects{})

	title := "Fox v2"
	req := design.UpdateDesignRequest{Title: &title}

	_, err := s.Update(as("designer-2"), "d1", req)
	assertReason(t, err, authz.ReasonNotOwner)

	if got, _ := designs.GetByID(context.Background(), "d1"); got.Title != "Fox" {
		t.Fatalf("denied update must not write, title=%q", got.Title)
	}

	if _, err := s.Update(as("designer-1"), "d1", req); err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if _, err := s.Update(as("admin-1"), "d1", req); err != nil {
		t.Fatalf("admin override failed: %v", err)
	}
}

func TestDesignUpdate_SelfDeclaredAdminIsNotOwner(t *testing.T) {
	designs := newMemDesigns(design.Design{ID: "d1", DesignerID: "designer-1", Title: "Fox", Status: design.StatusDraft})
	s := newDesignService(t, designs, &fakeObjects{})

	// first sign-in of a user whose provider metadata claims admin
	ctx := actorctx.WithSession(context.Background(), &auth.Session{
		UserID:   "newcomer",
		Metadata: auth.Metadata{Role: "admin"},
	})

	title := "Taken over"
	_, err := s.Update(ctx, "d1", design.UpdateDesignRequest{Title: &title})
	assertReason(t, err, authz.ReasonNotOwner)

	if got, _ := designs.GetByID(context.Background(), "d1"); got.Title != "Fox" {
		t.Fatalf("denied update must not write, title=%q", got.Title)
	}
}

func TestDesignCreate_SynthesizedDesignerIsRejected(t *testing.T) {
	designs := newMemDesigns()
	a := staticAuthorizer{p: user.Profile{ID: "ghost", Role: user.RoleDesigner, Synthesized: true}}
	s := NewDesignService(a, designs, &fakeObjects{}, "assets", 1<<20, cache.New[Page[design.Design]](time.Minute), discardLogger())

	_, err := s.Create(context.Background(), validDesign())
	assertKind(t, err, apperr.ErrUpstream)

	if len(designs.items) != 0 {
		t.Fatalf("nothing may be written for a synthesized profile, got %d designs", len(designs.items))
	}
}

func TestDesignGet_DraftVisibility(t *testing.T) {
	designs := newMemDesigns(
		design.Design{ID: "draft", DesignerID: "designer-1", Status: design.StatusDraft},
		design.Design{ID: "pub", DesignerID: "designer-1", Status: design.StatusPublished},
	)
	s := newDesignService(t, designs, &fakeObjects{})

	if _, err := s.Get(anonymous(), "pub"); err != nil {
		t.Fatalf("published design should be public: %v", err)
	}

	_, err := s.Get(anonymous(), "draft")
	assertKind(t, err, apperr.ErrNotAuthenticated)

	_, err = s.Get(as("customer-1"), "draft")
	assertReason(t, err, authz.ReasonNotOwner)

	if _, err := s.Get(as("designer-1"), "draft"); err != nil {
		t.Fatalf("owner should see draft: %v", err)
	}
}

func TestDesignCatalog_CachesAndInvalidates(t *testing.T) {
	designs := newMemDesigns(design.Design{ID: "pub", DesignerID: "designer-1", Status: design.StatusPublished, Title: "Fox"})
	s := newDesignService(t, designs, &fakeObjects{})

	first, err := s.Catalog(anonymous(), design.ListDesignsFilter{})
	if err != nil || first.Total != 1 {
		t.Fatalf("unexpected catalog %+v err=%v", first, err)
	}
	if _, err := s.Catalog(anonymous(), design.ListDesignsFilter{}); err != nil {
		t.Fatal(err)
	}
	if designs.lists != 1 {
		t.Fatalf("expected cached second read, lists=%d", designs.lists)
	}

	archived := design.StatusArchived
	if _, err := s.Update(as("designer-1"), "pub", design.UpdateDesignRequest{Status: &archived}); err != nil {
		t.Fatal(err)
	}

	after, err := s.Catalog(anonymous(), design.ListDesignsFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if after.Total != 0 || designs.lists != 2 {
		t.Fatalf("expected invalidated catalog, total=%d lists=%d", after.Total, designs.lists)
	}
}

func TestDesignUploadAsset(t *testing.T) {
	designs := newMemDesigns(design.Design{ID: "d1", DesignerID: "designer-1", Status: design.StatusDraft})
	objects := &fakeObjects{}
	s := newDesignService(t, designs, objects)

	file := Upload{Filename: "fox.STL", Size: 4, Body: strings.NewReader("solid")}

	_, err := s.UploadAsset(as("designer-2"), "d1", design.AssetModel, file)
	assertReason(t, err, authz.ReasonNotOwner)
	if len(objects.keys) != 0 {
		t.Fatalf("denied upload must not reach the object store")
	}

	d, err := s.UploadAsset(as("designer-1"), "d1", design.AssetModel, file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ModelURL == nil || !strings.HasPrefix(*d.ModelURL, "https://cdn.example.com/designs/model/d1/") {
		t.Fatalf("unexpected model url %v", d.ModelURL)
	}

	_, err = s.UploadAsset(as("designer-1"), "d1", design.AssetImage, Upload{Filename: "a.gif", ContentType: "image/gif", Size: 3, Body: strings.NewReader("gif")})
	assertKind(t, err, apperr.ErrValidation)
}
