package service

import (
	"context"
	"io"
	"sync"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/domain/design"
	"github.com/geocoder89/printhub/internal/domain/job"
	"github.com/geocoder89/printhub/internal/domain/order"
	"github.com/geocoder89/printhub/internal/domain/product"
)

type memDesigns struct {
	mu    sync.Mutex
	items map[string]design.Design
	lists int
}

func newMemDesigns(ds ...design.Design) *memDesigns {
	m := &memDesigns{items: map[string]design.Design{}}
	for _, d := range ds {
		m.items[d.ID] = d
	}
	return m
}

func (m *memDesigns) Create(_ context.Context, d design.Design) (design.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[d.ID] = d
	return d, nil
}

func (m *memDesigns) GetByID(_ context.Context, id string) (design.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.items[id]
	if !ok {
		return design.Design{}, apperr.NotFound("design")
	}
	return d, nil
}

func (m *memDesigns) Update(_ context.Context, id string, req design.UpdateDesignRequest) (design.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.items[id]
	if !ok {
		return design.Design{}, apperr.NotFound("design")
	}
	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.PriceCents != nil {
		d.PriceCents = *req.PriceCents
	}
	if req.Status != nil {
		d.Status = *req.Status
	}
	if req.Tags != nil {
		d.Tags = *req.Tags
	}
	m.items[id] = d
	return d, nil
}

func (m *memDesigns) SetAsset(_ context.Context, id string, kind design.AssetKind, url string) (design.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.items[id]
	if kind == design.AssetImage {
		d.ImageURL = &url
	} else {
		d.ModelURL = &url
	}
	m.items[id] = d
	return d, nil
}

func (m *memDesigns) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memDesigns) List(_ context.Context, f design.ListDesignsFilter) ([]design.Design, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := []design.Design{}
	for _, d := range m.items {
		if f.Status != nil && d.Status != *f.Status {
			continue
		}
		if f.DesignerID != nil && d.DesignerID != *f.DesignerID {
			continue
		}
		out = append(out, d)
	}
	return out, len(out), nil
}

type memProducts struct {
	items map[string]product.Product
}

func newMemProducts(ps ...product.Product) *memProducts {
	m := &memProducts{items: map[string]product.Product{}}
	for _, p := range ps {
		m.items[p.ID] = p
	}
	return m
}

func (m *memProducts) Create(_ context.Context, p product.Product) (product.Product, error) {
	m.items[p.ID] = p
	return p, nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (product.Product, error) {
	p, ok := m.items[id]
	if !ok {
		return product.Product{}, apperr.NotFound("product")
	}
	return p, nil
}

func (m *memProducts) Update(_ context.Context, id string, req product.UpdateProductRequest) (product.Product, error) {
	p := m.items[id]
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.PriceCents != nil {
		p.PriceCents = *req.PriceCents
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	m.items[id] = p
	return p, nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func (m *memProducts) List(_ context.Context, f product.ListProductsFilter) ([]product.Product, int, error) {
	out := []product.Product{}
	for _, p := range m.items {
		if f.DropshipperID != nil && p.DropshipperID != *f.DropshipperID {
			continue
		}
		if f.DesignID != nil && p.DesignID != *f.DesignID {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

type memOrders struct {
	items  map[string]order.Order
	queued []job.CreateRequest
	lastF  order.ListOrdersFilter
}

func newMemOrders(os ...order.Order) *memOrders {
	m := &memOrders{items: map[string]order.Order{}}
	for _, o := range os {
		m.items[o.ID] = o
	}
	return m
}

func (m *memOrders) CreateWithJob(_ context.Context, o order.Order, follow job.CreateRequest) (order.Order, error) {
	m.items[o.ID] = o
	m.queued = append(m.queued, follow)
	return o, nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (order.Order, error) {
	o, ok := m.items[id]
	if !ok {
		return order.Order{}, apperr.NotFound("order")
	}
	return o, nil
}

func (m *memOrders) UpdateStatusWithJob(_ context.Context, id string, status order.Status, follow job.CreateRequest) (order.Order, error) {
	o := m.items[id]
	o.Status = status
	m.items[id] = o
	m.queued = append(m.queued, follow)
	return o, nil
}

func (m *memOrders) List(_ context.Context, f order.ListOrdersFilter) ([]order.Order, int, error) {
	m.lastF = f
	out := []order.Order{}
	for _, o := range m.items {
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		if f.DesignerID != nil && o.DesignerID != *f.DesignerID {
			continue
		}
		if f.DropshipperID != nil && (o.DropshipperID == nil || *o.DropshipperID != *f.DropshipperID) {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

type fakeObjects struct {
	UploadFn func(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) (string, error)
	keys     []string
}

func (f *fakeObjects) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) (string, error) {
	f.keys = append(f.keys, key)
	if f.UploadFn != nil {
		return f.UploadFn(ctx, bucket, key, contentType, body, size)
	}
	return "https://cdn.example.com/" + key, nil
}
