package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"isdn/internal/domain"
)

// CartRepo stores one cart per session.
type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

func (r *CartRepo) Load(ctx context.Context, sessionID string) (domain.Cart, error) {
	var rows []struct {
		ProductID string `db:"product_id"`
		Qty       int    `db:"qty"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT product_id, qty FROM cart_items WHERE session_id = ?
	`), sessionID); err != nil {
		return nil, err
	}
	c := domain.Cart{}
	for _, row := range rows {
		if row.Qty > 0 {
			c[row.ProductID] = row.Qty
		}
	}
	return c, nil
}

// SetQty writes the quantity of one line; qty below 1 deletes it.
func (r *CartRepo) SetQty(ctx context.Context, sessionID, productID string, qty int) error {
	if qty < 1 {
		_, err := r.db.ExecContext(ctx, r.db.Rebind(`
			DELETE FROM cart_items WHERE session_id = ? AND product_id = ?
		`), sessionID, productID)
		return err
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO cart_items(session_id, product_id, qty, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(session_id, product_id) DO UPDATE SET qty = excluded.qty, updated_at = excluded.updated_at
	`), sessionID, productID, qty, domain.FormatTime(time.Now()))
	return err
}

func (r *CartRepo) Clear(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM cart_items WHERE session_id = ?`), sessionID)
	return err
}
