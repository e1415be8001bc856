package domain

import "fmt"

// LowStockThreshold is the stock below which a product shows the LOW_STOCK badge.
const LowStockThreshold = 10

type StockLevel string

const (
	InStock    StockLevel = "IN_STOCK"
	LowStock   StockLevel = "LOW_STOCK"
	OutOfStock StockLevel = "OUT_OF_STOCK"
)

type Product struct {
	ID       string  `json:"id"`
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Image    string  `json:"image,omitempty"`
}

func (p Product) Level() StockLevel {
	switch {
	case p.Stock <= 0:
		return OutOfStock
	case p.Stock < LowStockThreshold:
		return LowStock
	}
	return InStock
}

// Check rejects products the store must never hold.
func (p Product) Check() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: product name is empty", ErrInvalid)
	case p.SKU == "":
		return fmt.Errorf("%w: product sku is empty", ErrInvalid)
	case p.Price < 0:
		return fmt.Errorf("%w: product price %.2f", ErrInvalid, p.Price)
	case p.Stock < 0:
		return fmt.Errorf("%w: product stock %d", ErrInvalid, p.Stock)
	}
	return nil
}
