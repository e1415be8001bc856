package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"isdn/internal/domain"
	"isdn/internal/events"
	applog "isdn/internal/log"
	"isdn/internal/repos"
)

type OrderService struct {
	Orders       *repos.OrderRepo
	Transactions *repos.TransactionRepo
	Carts        *repos.CartRepo
	Products     *repos.ProductRepo
	Drivers      *repos.DriverRepo
	Hubs         *repos.HubRepo
	Events       events.Publisher
	Now          func() time.Time
}

func NewOrderService(orders *repos.OrderRepo, txs *repos.TransactionRepo, carts *repos.CartRepo,
	products *repos.ProductRepo, drivers *repos.DriverRepo, hubs *repos.HubRepo, pub events.Publisher) *OrderService {
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &OrderService{
		Orders: orders, Transactions: txs, Carts: carts, Products: products,
		Drivers: drivers, Hubs: hubs, Events: pub, Now: time.Now,
	}
}

// ScopeFor is the listing filter a session is allowed to see.
func ScopeFor(s domain.Session) repos.OrderFilter {
	switch s.Role {
	case domain.RoleCustomer:
		return repos.OrderFilter{CustomerID: s.UserID}
	case domain.RoleDriver:
		return repos.OrderFilter{DriverID: s.UserID}
	case domain.RoleRDC:
		return repos.OrderFilter{RDC: s.RDCHub}
	}
	return repos.OrderFilter{}
}

// CanModify reports whether s may change order o: admins any order, drivers their
// assigned orders, RDC desks the orders of their hub.
func CanModify(s domain.Session, o domain.Order) bool {
	switch s.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleDriver:
		return o.DriverID != "" && o.DriverID == s.UserID
	case domain.RoleRDC:
		return s.RDCHub != "" && strings.EqualFold(o.RDC, s.RDCHub)
	}
	return false
}

func canView(s domain.Session, o domain.Order) bool {
	if s.Role == domain.RoleCustomer {
		return o.CustomerID == s.UserID
	}
	return CanModify(s, o)
}

func (s *OrderService) List(ctx context.Context, sess domain.Session) ([]domain.Order, error) {
	return s.Orders.List(ctx, ScopeFor(sess))
}

func (s *OrderService) Get(ctx context.Context, sess domain.Session, id string) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !canView(sess, o) {
		// hide other people's orders
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

// Checkout turns the session cart into a Pending order with a PENDING payment.
func (s *OrderService) Checkout(ctx context.Context, sess domain.Session, rdc, method string) (domain.Order, error) {
	if sess.Role != domain.RoleCustomer {
		return domain.Order{}, ErrForbidden
	}
	m, err := domain.ParsePaymentMethod(method)
	if err != nil {
		return domain.Order{}, err
	}
	hub, err := s.hubName(ctx, rdc)
	if err != nil {
		return domain.Order{}, err
	}
	cart, err := s.Carts.Load(ctx, sess.ID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(cart) == 0 {
		return domain.Order{}, ErrEmptyCart
	}
	products, err := s.Products.List(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for id := range cart {
		if _, ok := byID[id]; !ok {
			return domain.Order{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
	}

	now := s.Now().UTC()
	o := domain.Order{
		ID:           "ord-" + uuid.NewString()[:8],
		CustomerID:   sess.UserID,
		CustomerName: sess.FullName,
		Status:       domain.OrderPending,
		RDC:          hub,
		Date:         now,
	}
	for _, line := range priceCart(cart, products).Lines {
		o.Items = append(o.Items, domain.OrderItem{
			ProductID: line.Product.ID, ProductName: line.Product.Name, Quantity: line.Qty, Price: line.Product.Price,
		})
		o.Total += line.Subtotal
	}
	pay := domain.Transaction{
		ID: "tx-" + uuid.NewString()[:8], OrderID: o.ID, Amount: o.Total,
		Status: domain.PaymentPending, Method: m, Date: now,
	}
	if err := s.Orders.Place(ctx, o, pay, sess.ID); err != nil {
		return domain.Order{}, err
	}
	s.publish(ctx, events.Event{
		Type: events.OrderPlaced, OrderID: o.ID, Actor: sess.UserID,
		Data: map[string]any{"total": o.Total, "rdc": o.RDC, "method": m},
	})
	return o, nil
}

func (s *OrderService) hubName(ctx context.Context, rdc string) (string, error) {
	rdc = strings.TrimSpace(rdc)
	hubs, err := s.Hubs.List(ctx)
	if err != nil {
		return "", err
	}
	for _, h := range hubs {
		if strings.EqualFold(h.Name, rdc) || h.ID == rdc {
			return h.Name, nil
		}
	}
	return "", fmt.Errorf("%w: rdc %q", ErrInvalid, rdc)
}

// StatusChange describes an applied status update.
type StatusChange struct {
	OrderID string             `json:"order_id"`
	From    domain.OrderStatus `json:"from"`
	To      domain.OrderStatus `json:"to"`
}

// UpdateStatus sets any of the four statuses regardless of the current one.
func (s *OrderService) UpdateStatus(ctx context.Context, sess domain.Session, id, status string) (StatusChange, error) {
	to, err := domain.ParseOrderStatus(status)
	if err != nil {
		return StatusChange{}, err
	}
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return StatusChange{}, err
	}
	if !CanModify(sess, o) {
		return StatusChange{}, ErrForbidden
	}
	if err := s.Orders.UpdateStatus(ctx, id, to); err != nil {
		return StatusChange{}, err
	}
	ch := StatusChange{OrderID: id, From: o.Status, To: to}
	s.publish(ctx, events.Event{
		Type: events.OrderStatus, OrderID: id, Actor: sess.UserID,
		Data: map[string]any{"from": string(ch.From), "to": string(ch.To)},
	})
	return ch, nil
}

// AssignDriver hands an order to a driver. An empty driverID unassigns it.
func (s *OrderService) AssignDriver(ctx context.Context, sess domain.Session, id, driverID string) error {
	if sess.Role != domain.RoleAdmin && sess.Role != domain.RoleRDC {
		return ErrForbidden
	}
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanModify(sess, o) {
		return ErrForbidden
	}
	if driverID != "" {
		if _, err := s.Drivers.Get(ctx, driverID); err != nil {
			return fmt.Errorf("driver %s: %w", driverID, err)
		}
	}
	if err := s.Orders.AssignDriver(ctx, id, driverID); err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type: events.OrderAssigned, OrderID: id, Actor: sess.UserID,
		Data: map[string]any{"driver_id": driverID},
	})
	return nil
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	return s.Orders.Delete(ctx, id)
}

// ListTransactions returns every payment for admins and only their own for customers.
func (s *OrderService) ListTransactions(ctx context.Context, sess domain.Session) ([]domain.Transaction, error) {
	switch sess.Role {
	case domain.RoleAdmin:
		return s.Transactions.List(ctx, "")
	case domain.RoleCustomer:
		return s.Transactions.List(ctx, sess.UserID)
	}
	return nil, ErrForbidden
}

func (s *OrderService) SetPaymentStatus(ctx context.Context, id, status string) (domain.PaymentStatus, error) {
	st, err := domain.ParsePaymentStatus(status)
	if err != nil {
		return "", err
	}
	return st, s.Transactions.UpdateStatus(ctx, id, st)
}

// publish never fails the caller; the order is already stored.
func (s *OrderService) publish(ctx context.Context, e events.Event) {
	if e.At.IsZero() {
		e.At = s.Now().UTC()
	}
	if err := s.Events.Publish(ctx, e); err != nil {
		applog.Error(nil, "event.publish.fail", err, map[string]any{"type": e.Type, "order_id": e.OrderID})
	}
}
