package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/geocoder89/printhub/internal/actorctx"
	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/domain/job"
	"github.com/geocoder89/printhub/internal/domain/order"
	"github.com/geocoder89/printhub/internal/domain/product"
	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/jobs"
	"github.com/geocoder89/printhub/internal/security"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// OrderStore writes orders together with their follow-up job so a committed
// order always has its notification queued.
type OrderStore interface {
	CreateWithJob(ctx context.Context, o order.Order, follow job.CreateRequest) (order.Order, error)
	GetByID(ctx context.Context, id string) (order.Order, error)
	UpdateStatusWithJob(ctx context.Context, id string, status order.Status, follow job.CreateRequest) (order.Order, error)
	List(ctx context.Context, f order.ListOrdersFilter) ([]order.Order, int, error)
}

type ProductReader interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

type OrderService struct {
	authz    Authorizer
	orders   OrderStore
	designs  DesignReader
	products ProductReader
	log      *slog.Logger
}

func NewOrderService(a Authorizer, orders OrderStore, designs DesignReader, products ProductReader, log *slog.Logger) *OrderService {
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{authz: a, orders: orders, designs: designs, products: products, log: log}
}

// Place creates a pending order for exactly one design or one product.
func (s *OrderService) Place(ctx context.Context, req order.CreateOrderRequest) (order.Order, error) {
	me, err := s.authz.Check(ctx, authz.RequireRole(user.RoleCustomer))
	if err != nil {
		return order.Order{}, err
	}
	if err := requireStored(me, "orders.create"); err != nil {
		return order.Order{}, err
	}

	req.DesignID = strings.TrimSpace(req.DesignID)
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.ShippingAddress = security.PlainText(req.ShippingAddress)

	if (req.DesignID == "") == (req.ProductID == "") {
		return order.Order{}, apperr.Validation("Order either a design or a product.", map[string]string{
			"designId":  "exactly_one",
			"productId": "exactly_one",
		})
	}

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Quantity, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&req.ShippingAddress, validation.Required, validation.Length(5, 500)),
	); err != nil {
		return order.Order{}, invalid(err)
	}

	line, err := s.price(ctx, req)
	if err != nil {
		return order.Order{}, err
	}

	o := order.New(me.ID, line, req.Quantity, req.ShippingAddress)

	follow, err := jobs.NewRequest(jobs.JobOrderPlaced, jobs.OrderPlacedPayload{
		OrderID:   o.ID,
		RequestID: actorctx.RequestIDFrom(ctx),
	}, me.ID, "order.placed:"+o.ID)
	if err != nil {
		return order.Order{}, err
	}

	created, err := s.orders.CreateWithJob(ctx, o, follow)
	if err != nil {
		return order.Order{}, err
	}

	s.log.InfoContext(ctx, "order placed",
		"order_id", created.ID,
		"customer_id", me.ID,
		"amount_cents", created.AmountCents,
	)
	return created, nil
}

// price resolves what is being bought and its unit price.
func (s *OrderService) price(ctx context.Context, req order.CreateOrderRequest) (order.Line, error) {
	if req.ProductID != "" {
		p, err := s.products.GetByID(ctx, req.ProductID)
		if err != nil {
			return order.Line{}, err
		}
		if p.Status != product.StatusActive {
			return order.Line{}, apperr.Validation("This product is not available.", map[string]string{"productId": "inactive"})
		}

		d, err := s.designs.GetByID(ctx, p.DesignID)
		if err != nil {
			return order.Line{}, err
		}

		return order.Line{
			DesignID:      d.ID,
			DesignerID:    d.DesignerID,
			ProductID:     &p.ID,
			DropshipperID: &p.DropshipperID,
			UnitCents:     p.PriceCents,
		}, nil
	}

	d, err := s.designs.GetByID(ctx, req.DesignID)
	if err != nil {
		return order.Line{}, err
	}
	if !d.IsPublic() {
		return order.Line{}, apperr.Validation("This design is not available.", map[string]string{"designId": "not_published"})
	}

	return order.Line{DesignID: d.ID, DesignerID: d.DesignerID, UnitCents: d.PriceCents}, nil
}

// Get shows an order to its customer, the design's designer, the product's
// dropshipper, or an admin.
func (s *OrderService) Get(ctx context.Context, id string) (order.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return order.Order{}, err
	}

	if _, err := s.authz.Check(ctx, authz.RequireAnyOwner(o.CustomerID, o.DesignerID, deref(o.DropshipperID))); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

// UpdateStatus is open to admins and, for product orders, to the product's
// dropshipper. Any status may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	if !status.IsValid() {
		return order.Order{}, apperr.Validation("Unknown order status.", map[string]string{"status": string(status)})
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return order.Order{}, err
	}

	req := authz.RequireRole(user.RoleAdmin)
	if o.DropshipperID != nil {
		req = authz.RequireOwner(*o.DropshipperID)
	}
	me, err := s.authz.Check(ctx, req)
	if err != nil {
		return order.Order{}, err
	}

	if o.Status == status {
		return o, nil
	}

	follow, err := jobs.NewRequest(jobs.JobOrderStatusChanged, jobs.OrderStatusChangedPayload{
		OrderID:   o.ID,
		Status:    string(status),
		ChangedBy: me.ID,
		RequestID: actorctx.RequestIDFrom(ctx),
	}, o.CustomerID, "")
	if err != nil {
		return order.Order{}, err
	}

	updated, err := s.orders.UpdateStatusWithJob(ctx, id, status, follow)
	if err != nil {
		return order.Order{}, err
	}

	s.log.InfoContext(ctx, "order status changed",
		"order_id", id,
		"from", string(o.Status),
		"to", string(status),
		"changed_by", me.ID,
	)
	return updated, nil
}

// Mine lists the calling customer's orders.
func (s *OrderService) Mine(ctx context.Context, f order.ListOrdersFilter) (Page[order.Order], error) {
	me, err := s.authz.Check(ctx, authz.RequireRole(user.RoleCustomer))
	if err != nil {
		return Page[order.Order]{}, err
	}

	f.CustomerID = &me.ID
	f.DesignerID = nil
	f.DropshipperID = nil
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)

	items, total, err := s.orders.List(ctx, f)
	if err != nil {
		return Page[order.Order]{}, err
	}
	return Page[order.Order]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
