package domain

import (
	"fmt"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderInTransit OrderStatus = "In Transit"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{OrderPending, OrderInTransit, OrderDelivered, OrderCancelled}

// ParseOrderStatus accepts any casing and "in_transit"/"in-transit" spellings.
func ParseOrderStatus(s string) (OrderStatus, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	for _, st := range OrderStatuses {
		if strings.ToLower(string(st)) == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: order status %q", ErrInvalid, s)
}

// Badge is the css tone used for the status pill.
func (s OrderStatus) Badge() string {
	switch s {
	case OrderPending:
		return "warning"
	case OrderInTransit:
		return "info"
	case OrderDelivered:
		return "success"
	case OrderCancelled:
		return "danger"
	}
	return "muted"
}

// Stage is the 1-based step on the customer tracking timeline; 0 for Cancelled.
func (s OrderStatus) Stage() int {
	switch s {
	case OrderPending:
		return 1
	case OrderInTransit:
		return 2
	case OrderDelivered:
		return 3
	}
	return 0
}

type Order struct {
	ID           string      `json:"id"`
	CustomerID   string      `json:"customer_id"`
	CustomerName string      `json:"customer_name,omitempty"`
	Total        float64     `json:"total"`
	Status       OrderStatus `json:"status"`
	RDC          string      `json:"rdc"`
	Date         time.Time   `json:"date"`
	DriverID     string      `json:"driver_id,omitempty"`
	Items        []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

func (i OrderItem) Subtotal() float64 { return float64(i.Quantity) * i.Price }

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "PAID"
	PaymentPending PaymentStatus = "PENDING"
	PaymentFailed  PaymentStatus = "FAILED"
)

var PaymentStatuses = []PaymentStatus{PaymentPaid, PaymentPending, PaymentFailed}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch p := PaymentStatus(strings.ToUpper(strings.TrimSpace(s))); p {
	case PaymentPaid, PaymentPending, PaymentFailed:
		return p, nil
	}
	return "", fmt.Errorf("%w: payment status %q", ErrInvalid, s)
}

var PaymentMethods = []string{"Card", "Cash on Delivery", "Bank Transfer"}

// ParsePaymentMethod matches one of PaymentMethods ignoring case.
func ParsePaymentMethod(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, m := range PaymentMethods {
		if strings.EqualFold(m, s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: payment method %q", ErrInvalid, s)
}

type Transaction struct {
	ID      string        `json:"id"`
	OrderID string        `json:"order_id,omitempty"`
	Amount  float64       `json:"amount"`
	Status  PaymentStatus `json:"status"`
	Method  string        `json:"method"`
	Date    time.Time     `json:"date"`
}
