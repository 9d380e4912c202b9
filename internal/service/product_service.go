package service

import (
	"context"
	"log/slog"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/domain/design"
	"github.com/geocoder89/printhub/internal/domain/product"
	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/security"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type ProductStore interface {
	Create(ctx context.Context, p product.Product) (product.Product, error)
	GetByID(ctx context.Context, id string) (product.Product, error)
	Update(ctx context.Context, id string, req product.UpdateProductRequest) (product.Product, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f product.ListProductsFilter) ([]product.Product, int, error)
}

type DesignReader interface {
	GetByID(ctx context.Context, id string) (design.Design, error)
}

type ProductService struct {
	authz    Authorizer
	products ProductStore
	designs  DesignReader
	log      *slog.Logger
}

func NewProductService(a Authorizer, products ProductStore, designs DesignReader, log *slog.Logger) *ProductService {
	if log == nil {
		log = slog.Default()
	}
	return &ProductService{authz: a, products: products, designs: designs, log: log}
}

// Create lists a published design in the calling dropshipper's shop.
func (s *ProductService) Create(ctx context.Context, req product.CreateProductRequest) (product.Product, error) {
	me, err := s.authz.Check(ctx, authz.RequireRole(user.RoleDropshipper))
	if err != nil {
		return product.Product{}, err
	}
	if err := requireStored(me, "products.create"); err != nil {
		return product.Product{}, err
	}

	req.Title = security.PlainText(req.Title)

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.DesignID, validation.Required),
		validation.Field(&req.Title, validation.Required, validation.Length(3, 120)),
		validation.Field(&req.PriceCents, validation.Required, validation.Min(int64(1)), validation.Max(int64(MaxPriceCents))),
		validation.Field(&req.Status, validation.In(product.StatusActive, product.StatusInactive)),
	); err != nil {
		return product.Product{}, invalid(err)
	}

	d, err := s.designs.GetByID(ctx, req.DesignID)
	if err != nil {
		return product.Product{}, err
	}
	if !d.IsPublic() {
		return product.Product{}, apperr.Validation("Only published designs can be listed.", map[string]string{"designId": "not_published"})
	}

	p, err := s.products.Create(ctx, product.NewFromCreateRequest(me.ID, req))
	if err != nil {
		return product.Product{}, err
	}

	s.log.InfoContext(ctx, "product created", "product_id", p.ID, "design_id", d.ID, "dropshipper_id", me.ID)
	return p, nil
}

// Get returns an active product to anyone; inactive products only to their
// dropshipper or an admin.
func (s *ProductService) Get(ctx context.Context, id string) (product.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return product.Product{}, err
	}
	if p.Status == product.StatusActive {
		return p, nil
	}

	if _, err := s.authz.Check(ctx, authz.RequireOwner(p.DropshipperID)); err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id string, req product.UpdateProductRequest) (product.Product, error) {
	if _, err := s.owned(ctx, id); err != nil {
		return product.Product{}, err
	}

	req.Title = security.PlainTextPtr(req.Title)

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(3, 120)),
		validation.Field(&req.PriceCents, validation.Min(int64(1)), validation.Max(int64(MaxPriceCents))),
		validation.Field(&req.Status, validation.In(product.StatusActive, product.StatusInactive)),
	); err != nil {
		return product.Product{}, invalid(err)
	}

	p, err := s.products.Update(ctx, id, req)
	if err != nil {
		return product.Product{}, err
	}

	s.log.InfoContext(ctx, "product updated", "product_id", id)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if _, err := s.owned(ctx, id); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

// Mine lists the calling dropshipper's products.
func (s *ProductService) Mine(ctx context.Context, f product.ListProductsFilter) (Page[product.Product], error) {
	me, err := s.authz.Check(ctx, authz.RequireRole(user.RoleDropshipper))
	if err != nil {
		return Page[product.Product]{}, err
	}

	f.DropshipperID = &me.ID
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)

	items, total, err := s.products.List(ctx, f)
	if err != nil {
		return Page[product.Product]{}, err
	}
	return Page[product.Product]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *ProductService) owned(ctx context.Context, id string) (product.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return product.Product{}, err
	}
	if _, err := s.authz.Check(ctx, authz.RequireOwner(p.DropshipperID)); err != nil {
		return product.Product{}, err
	}
	return p, nil
}

// Listing returns the active products built on a design. No session needed.
func (s *ProductService) Listing(ctx context.Context, designID string, limit, offset int) (Page[product.Product], error) {
	active := product.StatusActive
	f := product.ListProductsFilter{DesignID: &designID, Status: &active}
	f.Limit, f.Offset = clampPage(limit, offset)

	items, total, err := s.products.List(ctx, f)
	if err != nil {
		return Page[product.Product]{}, err
	}
	return Page[product.Product]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}
