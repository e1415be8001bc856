package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"isdn/internal/domain"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID           string  `db:"id"`
	CustomerID   string  `db:"customer_id"`
	CustomerName string  `db:"customer_name"`
	Total        float64 `db:"total"`
	Status       string  `db:"status"`
	RDC          string  `db:"rdc"`
	Date         string  `db:"order_date"`
	DriverID     string  `db:"driver_id"`
}

func (r orderRow) parse() (domain.Order, error) {
	st, err := domain.ParseOrderStatus(r.Status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: %w", r.ID, err)
	}
	date, err := domain.ParseTime(r.Date)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: %w", r.ID, err)
	}
	return domain.Order{
		ID:           r.ID,
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		Total:        r.Total,
		Status:       st,
		RDC:          r.RDC,
		Date:         date,
		DriverID:     r.DriverID,
	}, nil
}

// OrderFilter narrows a listing. Empty fields do not filter.
type OrderFilter struct {
	CustomerID string
	DriverID   string
	RDC        string
}

const orderColumns = `
  SELECT o.id, o.customer_id, COALESCE(u.full_name,'') AS customer_name, o.total, o.status,
         o.rdc, o.order_date, o.driver_id
  FROM orders o
  LEFT JOIN users u ON u.id = o.customer_id`

func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	where := []string{}
	args := []any{}
	if f.CustomerID != "" {
		where = append(where, `o.customer_id = ?`)
		args = append(args, f.CustomerID)
	}
	if f.DriverID != "" {
		where = append(where, `o.driver_id = ?`)
		args = append(args, f.DriverID)
	}
	if f.RDC != "" {
		where = append(where, `LOWER(o.rdc) = LOWER(?)`)
		args = append(args, f.RDC)
	}
	q := orderColumns
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY o.order_date DESC, o.id`

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// Get returns one order with its line items.
func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	var row orderRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(orderColumns+` WHERE o.id = ?`), id); err != nil {
		return domain.Order{}, notFound(err)
	}
	o, err := row.parse()
	if err != nil {
		return domain.Order{}, err
	}
	var items []struct {
		ProductID   string  `db:"product_id"`
		ProductName string  `db:"product_name"`
		Quantity    int     `db:"quantity"`
		Price       float64 `db:"price"`
	}
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(`
		SELECT oi.product_id, COALESCE(p.name,'') AS product_name, oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY oi.product_id
	`), id); err != nil {
		return domain.Order{}, err
	}
	for _, it := range items {
		o.Items = append(o.Items, domain.OrderItem{
			ProductID: it.ProductID, ProductName: it.ProductName, Quantity: it.Quantity, Price: it.Price,
		})
	}
	return o, nil
}

// Place writes a new order, its items and payment, decrements stock and clears the
// session cart, all in one transaction.
func (r *OrderRepo) Place(ctx context.Context, o domain.Order, payment domain.Transaction, sessionID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO orders(id, customer_id, total, status, rdc, order_date, driver_id)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`), o.ID, o.CustomerID, o.Total, string(o.Status), o.RDC, domain.FormatTime(o.Date), o.DriverID); err != nil {
		return err
	}
	for _, it := range o.Items {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?
		`), it.Quantity, it.ProductID, it.Quantity)
		if err := affected(res, err); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w for %s", ErrInsufficientStock, it.ProductID)
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO order_items(order_id, product_id, quantity, price) VALUES(?, ?, ?, ?)
		`), o.ID, it.ProductID, it.Quantity, it.Price); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO transactions(id, order_id, amount, status, method, tx_date) VALUES(?, ?, ?, ?, ?, ?)
	`), payment.ID, o.ID, payment.Amount, string(payment.Status), payment.Method, domain.FormatTime(payment.Date)); err != nil {
		return err
	}
	if sessionID != "" {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM cart_items WHERE session_id = ?`), sessionID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpdateStatus sets any status; transitions are not checked.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`UPDATE orders SET status = ? WHERE id = ?`), string(status), id))
}

func (r *OrderRepo) AssignDriver(ctx context.Context, id, driverID string) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`UPDATE orders SET driver_id = ? WHERE id = ?`), driverID, id))
}

func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM orders WHERE id = ?`), id))
}
