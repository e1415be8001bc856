package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"isdn/internal/domain"
	"isdn/internal/repos"
	"isdn/internal/stats"
)

// DashboardService assembles the per-role view models. Every collection a view needs
// is fetched in parallel; any failed fetch fails the whole view.
type DashboardService struct {
	Orders       *repos.OrderRepo
	Transactions *repos.TransactionRepo
	Products     *repos.ProductRepo
	Staff        *repos.StaffRepo
	Partners     *repos.PartnerRepo
	Drivers      *repos.DriverRepo
	Hubs         *repos.HubRepo
	Carts        *CartService
	Missions     *MissionService
	Now          func() time.Time
}

const recentOrders = 5

type AdminOverview struct {
	OrderCounts  map[domain.OrderStatus]int       `json:"order_counts"`
	OrderValue   float64                          `json:"order_value"`
	DeliveryRate float64                          `json:"delivery_rate"`
	Regions      []stats.Share                    `json:"regions"`
	TopRDC       *stats.Share                     `json:"top_rdc,omitempty"`
	PaymentSums  map[domain.PaymentStatus]float64 `json:"payment_sums"`
	Methods      []stats.Share                    `json:"methods"`
	Categories   []stats.Share                    `json:"categories"`
	Stock        stats.Stock                      `json:"stock"`
	Missions     stats.Missions                   `json:"missions"`

	RecentOrders []domain.Order       `json:"recent_orders"`
	LowStock     []domain.Product     `json:"low_stock"`
	Orders       []domain.Order       `json:"orders"`
	Transactions []domain.Transaction `json:"transactions"`
	Products     []domain.Product     `json:"products"`
	Staff        []domain.StaffMember `json:"staff"`
	Partners     []domain.RDCPartner  `json:"partners"`
	Drivers      []domain.DriverUser  `json:"drivers"`
	Hubs         []domain.RDCHub      `json:"hubs"`
	Live         []domain.Mission     `json:"live"`
}

func (s *DashboardService) Admin(ctx context.Context) (AdminOverview, error) {
	var v AdminOverview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { v.Orders, err = s.Orders.List(ctx, repos.OrderFilter{}); return })
	g.Go(func() (err error) { v.Transactions, err = s.Transactions.List(ctx, ""); return })
	g.Go(func() (err error) { v.Products, err = s.Products.List(ctx); return })
	g.Go(func() (err error) { v.Staff, err = s.Staff.List(ctx); return })
	g.Go(func() (err error) { v.Partners, err = s.Partners.List(ctx); return })
	g.Go(func() (err error) { v.Drivers, err = s.Drivers.List(ctx); return })
	g.Go(func() (err error) { v.Hubs, err = s.Hubs.List(ctx); return })
	if err := g.Wait(); err != nil {
		return AdminOverview{}, err
	}

	v.OrderCounts = stats.OrderStatusCounts(v.Orders)
	v.OrderValue = stats.OrderValue(v.Orders)
	v.DeliveryRate = stats.DeliveryRate(v.Orders)
	v.Regions = stats.RegionBreakdown(v.Orders)
	if top, ok := stats.TopRDC(v.Orders); ok {
		v.TopRDC = &top
	}
	v.PaymentSums = stats.PaymentSums(v.Transactions)
	v.Methods = stats.MethodBreakdown(v.Transactions)
	v.Categories = stats.CategoryBreakdown(v.Products)
	v.Stock = stats.StockSummary(v.Products)
	v.LowStock = lowStock(v.Products)
	v.RecentOrders = firstN(v.Orders, recentOrders)
	v.Live = s.Missions.Live()
	v.Missions = stats.MissionSummary(v.Live)
	return v, nil
}

type CustomerOverview struct {
	Orders       []domain.Order                   `json:"orders"`
	Active       []domain.Order                   `json:"active"`
	Transactions []domain.Transaction             `json:"transactions"`
	PaymentSums  map[domain.PaymentStatus]float64 `json:"payment_sums"`
	Spent        float64                          `json:"spent"`
	Catalog      []domain.Product                 `json:"catalog"`
	Categories   []stats.Share                    `json:"categories"`
	Cart         CartView                         `json:"cart"`
	Hubs         []domain.RDCHub                  `json:"hubs"`
	Methods      []string                         `json:"payment_methods"`
}

func (s *DashboardService) Customer(ctx context.Context, sess domain.Session) (CustomerOverview, error) {
	v := CustomerOverview{Methods: domain.PaymentMethods}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { v.Orders, err = s.Orders.List(ctx, ScopeFor(sess)); return })
	g.Go(func() (err error) { v.Transactions, err = s.Transactions.List(ctx, sess.UserID); return })
	g.Go(func() (err error) { v.Catalog, err = s.Products.List(ctx); return })
	g.Go(func() (err error) { v.Cart, err = s.Carts.View(ctx, sess.ID); return })
	g.Go(func() (err error) { v.Hubs, err = s.Hubs.List(ctx); return })
	if err := g.Wait(); err != nil {
		return CustomerOverview{}, err
	}
	v.Active = []domain.Order{}
	for _, o := range v.Orders {
		if o.Status == domain.OrderPending || o.Status == domain.OrderInTransit {
			v.Active = append(v.Active, o)
		}
	}
	v.PaymentSums = stats.PaymentSums(v.Transactions)
	v.Spent = stats.OrderValue(v.Orders)
	v.Categories = stats.CategoryBreakdown(v.Catalog)
	return v, nil
}

type DriverOverview struct {
	Orders      []domain.Order             `json:"orders"`
	OrderCounts map[domain.OrderStatus]int `json:"order_counts"`
	Missions    []domain.Mission           `json:"missions"`
	Summary     stats.Missions             `json:"summary"`
	NextTask    *domain.MissionTask        `json:"next_task,omitempty"`
}

func (s *DashboardService) Driver(ctx context.Context, sess domain.Session) (DriverOverview, error) {
	orders, err := s.Orders.List(ctx, ScopeFor(sess))
	if err != nil {
		return DriverOverview{}, err
	}
	v := DriverOverview{
		Orders:      orders,
		OrderCounts: stats.OrderStatusCounts(orders),
		Missions:    s.Missions.ForDriver(sess.FullName),
	}
	v.Summary = stats.MissionSummary(v.Missions)
	for _, m := range v.Missions {
		if m.Status == domain.MissionCompleted {
			continue
		}
		for _, t := range m.Tasks {
			if !t.Done {
				v.NextTask = &t
				return v, nil
			}
		}
	}
	return v, nil
}

type RDCOverview struct {
	Hub          string                     `json:"hub"`
	Orders       []domain.Order             `json:"orders"`
	OrderCounts  map[domain.OrderStatus]int `json:"order_counts"`
	OrderValue   float64                    `json:"order_value"`
	DeliveryRate float64                    `json:"delivery_rate"`
	Unassigned   int                        `json:"unassigned"`
	Drivers      []domain.DriverUser        `json:"drivers"`
	Partners     []domain.RDCPartner        `json:"partners"`
	Stock        stats.Stock                `json:"stock"`
	LowStock     []domain.Product           `json:"low_stock"`
	ContractOK   bool                       `json:"contract_active"`
}

func (s *DashboardService) RDC(ctx context.Context, sess domain.Session) (RDCOverview, error) {
	v := RDCOverview{Hub: sess.RDCHub}
	var drivers []domain.DriverUser
	var partners []domain.RDCPartner
	var products []domain.Product
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { v.Orders, err = s.Orders.List(ctx, ScopeFor(sess)); return })
	g.Go(func() (err error) { drivers, err = s.Drivers.List(ctx); return })
	g.Go(func() (err error) { partners, err = s.Partners.List(ctx); return })
	g.Go(func() (err error) { products, err = s.Products.List(ctx); return })
	if err := g.Wait(); err != nil {
		return RDCOverview{}, err
	}

	v.OrderCounts = stats.OrderStatusCounts(v.Orders)
	v.OrderValue = stats.OrderValue(v.Orders)
	v.DeliveryRate = stats.DeliveryRate(v.Orders)
	for _, o := range v.Orders {
		if o.DriverID == "" && o.Status != domain.OrderCancelled {
			v.Unassigned++
		}
	}
	v.Drivers = []domain.DriverUser{}
	for _, d := range drivers {
		if strings.EqualFold(d.RDCHub, sess.RDCHub) {
			v.Drivers = append(v.Drivers, d)
		}
	}
	v.Partners = []domain.RDCPartner{}
	now := s.now()
	for _, p := range partners {
		if strings.EqualFold(p.Hub, sess.RDCHub) {
			v.Partners = append(v.Partners, p)
			if p.ContractActive(now) {
				v.ContractOK = true
			}
		}
	}
	v.Stock = stats.StockSummary(products)
	v.LowStock = lowStock(products)
	return v, nil
}

func (s *DashboardService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// lowStock lists products below the threshold, emptiest first.
func lowStock(ps []domain.Product) []domain.Product {
	out := []domain.Product{}
	for _, p := range ps {
		if p.Level() != domain.InStock {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out
}

func firstN[T any](xs []T, n int) []T {
	if len(xs) < n {
		n = len(xs)
	}
	return append([]T{}, xs[:n]...)
}
