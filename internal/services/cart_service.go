package services

import (
	"context"
	"fmt"
	"sort"

	"isdn/internal/domain"
	"isdn/internal/repos"
)

type CartService struct {
	Carts    *repos.CartRepo
	Products *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, products *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Products: products}
}

type CartLine struct {
	Product  domain.Product `json:"product"`
	Qty      int            `json:"qty"`
	Subtotal float64        `json:"subtotal"`
}

type CartView struct {
	Lines []CartLine `json:"lines"`
	Units int        `json:"units"`
	Total float64    `json:"total"`
}

// Add puts qty units of productID in the session cart. The cart never holds more than the stock.
func (s *CartService) Add(ctx context.Context, sid, productID string, qty int) error {
	p, err := s.Products.Get(ctx, productID)
	if err != nil {
		return err
	}
	c, err := s.Carts.Load(ctx, sid)
	if err != nil {
		return err
	}
	c.Add(productID, qty)
	if c[productID] > p.Stock {
		return fmt.Errorf("%w for %s", ErrInsufficientStock, p.Name)
	}
	return s.Carts.SetQty(ctx, sid, productID, c[productID])
}

// Remove takes one unit of productID out of the cart.
func (s *CartService) Remove(ctx context.Context, sid, productID string) error {
	c, err := s.Carts.Load(ctx, sid)
	if err != nil {
		return err
	}
	if _, ok := c[productID]; !ok {
		return ErrNotFound
	}
	c.Remove(productID)
	return s.Carts.SetQty(ctx, sid, productID, c[productID])
}

func (s *CartService) Clear(ctx context.Context, sid string) error {
	return s.Carts.Clear(ctx, sid)
}

// View prices the cart at current product prices.
func (s *CartService) View(ctx context.Context, sid string) (CartView, error) {
	c, err := s.Carts.Load(ctx, sid)
	if err != nil {
		return CartView{}, err
	}
	products, err := s.Products.List(ctx)
	if err != nil {
		return CartView{}, err
	}
	return priceCart(c, products), nil
}

func priceCart(c domain.Cart, products []domain.Product) CartView {
	prices := make(map[string]float64, len(products))
	v := CartView{Lines: []CartLine{}}
	for _, p := range products {
		prices[p.ID] = p.Price
		if q, ok := c[p.ID]; ok {
			v.Lines = append(v.Lines, CartLine{Product: p, Qty: q, Subtotal: p.Price * float64(q)})
		}
	}
	sort.Slice(v.Lines, func(i, j int) bool { return v.Lines[i].Product.Name < v.Lines[j].Product.Name })
	v.Units = c.Units()
	v.Total = c.Total(prices)
	return v
}
