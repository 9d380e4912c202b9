package service

import (
	"context"

	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/dashboard"
	"github.com/geocoder89/printhub/internal/domain/design"
	"github.com/geocoder89/printhub/internal/domain/order"
	"github.com/geocoder89/printhub/internal/domain/product"
	"github.com/geocoder89/printhub/internal/domain/user"
)

const (
	// per-owner dashboards read at most this many rows of each kind
	dashboardRowCap = 1000
	// the admin dashboard summarizes the most recent orders only
	adminRecentOrders = 500
)

type DesignLister interface {
	List(ctx context.Context, f design.ListDesignsFilter) ([]design.Design, int, error)
}

type ProductLister interface {
	List(ctx context.Context, f product.ListProductsFilter) ([]product.Product, int, error)
}

type OrderLister interface {
	List(ctx context.Context, f order.ListOrdersFilter) ([]order.Order, int, error)
}

type RoleLister interface {
	ListRoles(ctx context.Context) ([]user.Role, error)
}

type DesignerDashboard struct {
	Designs      dashboard.Summary[design.Status] `json:"designs"`
	Orders       dashboard.Summary[order.Status]  `json:"orders"`
	RevenueCents int64                            `json:"revenueCents"`
}

type DropshipperDashboard struct {
	Products     dashboard.Summary[product.Status] `json:"products"`
	Orders       dashboard.Summary[order.Status]   `json:"orders"`
	RevenueCents int64                             `json:"revenueCents"`
}

type CustomerDashboard struct {
	Orders          dashboard.Summary[order.Status] `json:"orders"`
	TotalSpentCents int64                           `json:"totalSpentCents"`
}

type AdminDashboard struct {
	Profiles     dashboard.Summary[user.Role]    `json:"profiles"`
	RecentOrders dashboard.Summary[order.Status] `json:"recentOrders"`
	RevenueCents int64                           `json:"revenueCents"`
}

type DashboardService struct {
	authz    Authorizer
	designs  DesignLister
	products ProductLister
	orders   OrderLister
	roles    RoleLister
}

func NewDashboardService(a Authorizer, designs DesignLister, products ProductLister, orders OrderLister, roles RoleLister) *DashboardService {
	return &DashboardService{authz: a, designs: designs, products: products, orders: orders, roles: roles}
}

func (s *DashboardService) Designer(ctx context.Context) (DesignerDashboard, error) {
	me, err := s.authz.Check(ctx, authz.RequireRole(user.RoleDesigner))
	if err != nil {
		return DesignerDashboard{}, err
	}

	designs, _, err := s.designs.List(ctx, design.ListDesignsFilter{DesignerID: &me.ID, Limit: dashboardRowCap})
	if err != nil {
		return DesignerDashboard{}, err
	}
	orders, _, err := s.orders.List(ctx, order.ListOrdersFilter{DesignerID: &me.ID, Limit: dashboardRowCap})
	if err != nil {
		return DesignerDashboard{}, err
	}

	os := summarizeOrders(orders)
	return DesignerDashboard{
		Designs:      dashboard.Count(designs, func(d design.Design) design.Status { return d.Status }, design.Statuses...),
		Orders:       os,
		RevenueCents: os.Total,
	}, nil
}

func (s *DashboardService) Dropshipper(ctx context.Context) (DropshipperDashboard, error) {
	me, err := s.authz.Check(ctx, authz.RequireRole(user.RoleDropshipper))
	if err != nil {
		return DropshipperDashboard{}, err
	}

	products, _, err := s.products.List(ctx, product.ListProductsFilter{DropshipperID: &me.ID, Limit: dashboardRowCap})
	if err != nil {
		return DropshipperDashboard{}, err
	}
	orders, _, err := s.orders.List(ctx, order.ListOrdersFilter{DropshipperID: &me.ID, Limit: dashboardRowCap})
	if err != nil {
		return DropshipperDashboard{}, err
	}

	os := summarizeOrders(orders)
	return DropshipperDashboard{
		Products:     dashboard.Count(products, func(p product.Product) product.Status { return p.Status }, product.Statuses...),
		Orders:       os,
		RevenueCents: os.Total,
	}, nil
}

func (s *DashboardService) Customer(ctx context.Context) (CustomerDashboard, error) {
	me, err := s.authz.Check(ctx, authz.RequireRole(user.RoleCustomer))
	if err != nil {
		return CustomerDashboard{}, err
	}

	orders, _, err := s.orders.List(ctx, order.ListOrdersFilter{CustomerID: &me.ID, Limit: dashboardRowCap})
	if err != nil {
		return CustomerDashboard{}, err
	}

	os := summarizeOrders(orders)
	return CustomerDashboard{Orders: os, TotalSpentCents: os.Total}, nil
}

func (s *DashboardService) Admin(ctx context.Context) (AdminDashboard, error) {
	if _, err := s.authz.Check(ctx, authz.RequireRole(user.RoleAdmin)); err != nil {
		return AdminDashboard{}, err
	}

	roles, err := s.roles.ListRoles(ctx)
	if err != nil {
		return AdminDashboard{}, err
	}
	orders, _, err := s.orders.List(ctx, order.ListOrdersFilter{Limit: adminRecentOrders})
	if err != nil {
		return AdminDashboard{}, err
	}

	os := summarizeOrders(orders)
	return AdminDashboard{
		Profiles:     dashboard.Count(roles, func(r user.Role) user.Role { return r }, user.Roles...),
		RecentOrders: os,
		RevenueCents: os.Total,
	}, nil
}

// summarizeOrders buckets orders by status. Cancelled orders are counted but
// add nothing to the sums.
func summarizeOrders(orders []order.Order) dashboard.Summary[order.Status] {
	return dashboard.Aggregate(orders,
		func(o order.Order) order.Status { return o.Status },
		func(o order.Order) int64 {
			if !o.Status.CountsTowardRevenue() {
				return 0
			}
			return o.AmountCents
		},
		order.Statuses...,
	)
}
