package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"isdn/internal/domain"
)

type TransactionRepo struct{ db *sqlx.DB }

func NewTransactionRepo(db *sqlx.DB) *TransactionRepo { return &TransactionRepo{db: db} }

type transactionRow struct {
	ID      string  `db:"id"`
	OrderID string  `db:"order_id"`
	Amount  float64 `db:"amount"`
	Status  string  `db:"status"`
	Method  string  `db:"method"`
	Date    string  `db:"tx_date"`
}

func (r transactionRow) parse() (domain.Transaction, error) {
	st, err := domain.ParsePaymentStatus(r.Status)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", r.ID, err)
	}
	date, err := domain.ParseTime(r.Date)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", r.ID, err)
	}
	return domain.Transaction{ID: r.ID, OrderID: r.OrderID, Amount: r.Amount, Status: st, Method: r.Method, Date: date}, nil
}

// List returns every transaction, or only those on customerID's orders when set.
func (r *TransactionRepo) List(ctx context.Context, customerID string) ([]domain.Transaction, error) {
	q := `SELECT t.id, t.order_id, t.amount, t.status, t.method, t.tx_date FROM transactions t`
	args := []any{}
	if customerID != "" {
		q += ` JOIN orders o ON o.id = t.order_id WHERE o.customer_id = ?`
		args = append(args, customerID)
	}
	q += ` ORDER BY t.tx_date DESC, t.id`

	var rows []transactionRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TransactionRepo) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`UPDATE transactions SET status = ? WHERE id = ?`), string(status), id))
}
