package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/cache"
	"github.com/geocoder89/printhub/internal/domain/design"
	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/security"
	"github.com/geocoder89/printhub/internal/storage"
	"github.com/geocoder89/printhub/internal/utils"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxPriceCents caps listing prices at 100k in the store currency.
const MaxPriceCents = 10_000_000

type DesignStore interface {
	Create(ctx context.Context, d design.Design) (design.Design, error)
	GetByID(ctx context.Context, id string) (design.Design, error)
	Update(ctx context.Context, id string, req design.UpdateDesignRequest) (design.Design, error)
	SetAsset(ctx context.Context, id string, kind design.AssetKind, url string) (design.Design, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f design.ListDesignsFilter) ([]design.Design, int, error)
}

type DesignService struct {
	authz    Authorizer
	designs  DesignStore
	objects  ObjectStore
	bucket   string
	maxBytes int64
	catalog  *cache.Cache[Page[design.Design]]
	log      *slog.Logger
}

func NewDesignService(a Authorizer, designs DesignStore, objects ObjectStore, bucket string, maxBytes int64, catalog *cache.Cache[Page[design.Design]], log *slog.Logger) *DesignService {
	if log == nil {
		log = slog.Default()
	}
	return &DesignService{
		authz:    a,
		designs:  designs,
		objects:  objects,
		bucket:   bucket,
		maxBytes: maxBytes,
		catalog:  catalog,
		log:      log,
	}
}

func (s *DesignService) Create(ctx context.Context, req design.CreateDesignRequest) (design.Design, error) {
	me, err := s.authz.Check(ctx, authz.RequireRole(user.RoleDesigner))
	if err != nil {
		return design.Design{}, err
	}
	if err := requireStored(me, "designs.create"); err != nil {
		return design.Design{}, err
	}

	req.Title = security.PlainText(req.Title)
	req.Description = security.RichText(req.Description)
	req.Category = normalizeCategory(req.Category)
	req.Tags = normalizeTags(req.Tags)

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required, validation.Length(3, 120)),
		validation.Field(&req.Description, validation.Length(0, 5000)),
		validation.Field(&req.Category, validation.Required, validation.Length(2, 60)),
		validation.Field(&req.PriceCents, validation.Required, validation.Min(int64(1)), validation.Max(int64(MaxPriceCents))),
		validation.Field(&req.Status, validation.In(design.StatusDraft, design.StatusPublished, design.StatusArchived)),
		validation.Field(&req.Tags, validation.Length(0, 20), validation.Each(validation.Length(1, 32))),
	); err != nil {
		return design.Design{}, invalid(err)
	}

	d, err := s.designs.Create(ctx, design.NewFromCreateRequest(me.ID, req))
	if err != nil {
		return design.Design{}, err
	}

	s.invalidateCatalog(d)
	s.log.InfoContext(ctx, "design created", "design_id", d.ID, "designer_id", me.ID, "status", string(d.Status))
	return d, nil
}

// Get returns a published design to anyone; drafts and archived designs only
// to their designer or an admin.
func (s *DesignService) Get(ctx context.Context, id string) (design.Design, error) {
	d, err := s.designs.GetByID(ctx, id)
	if err != nil {
		return design.Design{}, err
	}
	if d.IsPublic() {
		return d, nil
	}

	if _, err := s.authz.Check(ctx, authz.RequireOwner(d.DesignerID)); err != nil {
		return design.Design{}, err
	}
	return d, nil
}

func (s *DesignService) Update(ctx context.Context, id string, req design.UpdateDesignRequest) (design.Design, error) {
	current, err := s.owned(ctx, id)
	if err != nil {
		return design.Design{}, err
	}

	req.Title = security.PlainTextPtr(req.Title)
	if req.Description != nil {
		v := security.RichText(*req.Description)
		req.Description = &v
	}
	if req.Category != nil {
		v := normalizeCategory(*req.Category)
		req.Category = &v
	}
	if req.Tags != nil {
		v := normalizeTags(*req.Tags)
		req.Tags = &v
	}

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(3, 120)),
		validation.Field(&req.Description, validation.Length(0, 5000)),
		validation.Field(&req.Category, validation.NilOrNotEmpty, validation.Length(2, 60)),
		validation.Field(&req.PriceCents, validation.Min(int64(1)), validation.Max(int64(MaxPriceCents))),
		validation.Field(&req.Status, validation.In(design.StatusDraft, design.StatusPublished, design.StatusArchived)),
		validation.Field(&req.Tags, validation.By(func(v any) error {
			tags, _ := v.(*[]string)
			if tags == nil {
				return nil
			}
			return validation.Validate(*tags, validation.Length(0, 20), validation.Each(validation.Length(1, 32)))
		})),
	); err != nil {
		return design.Design{}, invalid(err)
	}

	d, err := s.designs.Update(ctx, id, req)
	if err != nil {
		return design.Design{}, err
	}

	s.invalidateCatalog(current, d)
	s.log.InfoContext(ctx, "design updated", "design_id", id)
	return d, nil
}

func (s *DesignService) Delete(ctx context.Context, id string) error {
	current, err := s.owned(ctx, id)
	if err != nil {
		return err
	}

	if err := s.designs.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateCatalog(current)
	s.log.InfoContext(ctx, "design deleted", "design_id", id)
	return nil
}

// UploadAsset stores an image or model file for the design and records its URL.
func (s *DesignService) UploadAsset(ctx context.Context, id string, kind design.AssetKind, file Upload) (design.Design, error) {
	if !kind.IsValid() {
		return design.Design{}, apperr.Validation("Asset kind must be image or model.", map[string]string{"kind": string(kind)})
	}

	current, err := s.owned(ctx, id)
	if err != nil {
		return design.Design{}, err
	}

	contentType := file.ContentType
	if kind == design.AssetImage {
		err = checkImage(file, s.maxBytes)
	} else {
		err = checkModel(file, s.maxBytes)
		contentType = contentTypeOr(file, "application/octet-stream")
	}
	if err != nil {
		return design.Design{}, err
	}

	key := storage.ObjectKey("designs/"+string(kind), current.ID, file.Filename)
	url, err := s.objects.Upload(ctx, s.bucket, key, contentType, file.Body, file.Size)
	if err != nil {
		s.log.ErrorContext(ctx, "design asset upload failed", "design_id", id, "kind", string(kind), "err", err)
		return design.Design{}, err
	}

	d, err := s.designs.SetAsset(ctx, id, kind, url)
	if err != nil {
		return design.Design{}, err
	}

	s.invalidateCatalog(d)
	return d, nil
}

// Catalog lists published designs. Pages are cached briefly.
func (s *DesignService) Catalog(ctx context.Context, f design.ListDesignsFilter) (Page[design.Design], error) {
	published := design.StatusPublished
	f.Status = &published
	f.DesignerID = nil
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)

	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return Page[design.Design]{}, apperr.Validation("minPrice must not exceed maxPrice.", nil)
	}

	key := utils.BuildCatalogCacheKey(f)
	if s.catalog != nil {
		if page, ok := s.catalog.Get(key); ok {
			return page, nil
		}
	}

	items, total, err := s.designs.List(ctx, f)
	if err != nil {
		return Page[design.Design]{}, err
	}

	page := Page[design.Design]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}
	if s.catalog != nil {
		s.catalog.Set(key, page)
	}
	return page, nil
}

// Mine lists the calling designer's own designs in any status.
func (s *DesignService) Mine(ctx context.Context, f design.ListDesignsFilter) (Page[design.Design], error) {
	me, err := s.authz.Check(ctx, authz.RequireRole(user.RoleDesigner))
	if err != nil {
		return Page[design.Design]{}, err
	}

	f.DesignerID = &me.ID
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)

	items, total, err := s.designs.List(ctx, f)
	if err != nil {
		return Page[design.Design]{}, err
	}
	return Page[design.Design]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// owned loads the design and checks the caller is its designer or an admin.
func (s *DesignService) owned(ctx context.Context, id string) (design.Design, error) {
	d, err := s.designs.GetByID(ctx, id)
	if err != nil {
		return design.Design{}, err
	}
	if _, err := s.authz.Check(ctx, authz.RequireOwner(d.DesignerID)); err != nil {
		return design.Design{}, err
	}
	return d, nil
}

// invalidateCatalog drops cached catalog pages when any of the given versions
// of a design is or was visible there.
func (s *DesignService) invalidateCatalog(versions ...design.Design) {
	if s.catalog == nil {
		return
	}
	for _, d := range versions {
		if d.IsPublic() {
			s.catalog.DeletePrefix(utils.CatalogCachePrefix)
			return
		}
	}
}

func normalizeCategory(c string) string {
	return strings.ToLower(security.PlainText(c))
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(security.PlainText(t))
		if _, dup := seen[t]; dup || t == "" {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
