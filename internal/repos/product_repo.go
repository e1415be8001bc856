package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"isdn/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID       string  `db:"id"`
	SKU      string  `db:"sku"`
	Name     string  `db:"name"`
	Category string  `db:"category"`
	Price    float64 `db:"price"`
	Stock    int     `db:"stock"`
	Image    string  `db:"image"`
}

func (r productRow) parse() (domain.Product, error) {
	p := domain.Product{ID: r.ID, SKU: r.SKU, Name: r.Name, Category: r.Category, Price: r.Price, Stock: r.Stock, Image: r.Image}
	return p, p.Check()
}

const productColumns = `SELECT id, sku, name, category, price, stock, image FROM products`

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, productColumns+` ORDER BY category, name`); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var row productRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(productColumns+` WHERE id = ?`), id); err != nil {
		return domain.Product{}, notFound(err)
	}
	return row.parse()
}

// Prices returns the current price of every product keyed by id.
func (r *ProductRepo) Prices(ctx context.Context) (map[string]float64, error) {
	ps, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(ps))
	for _, p := range ps {
		out[p.ID] = p.Price
	}
	return out, nil
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO products(id, sku, name, category, price, stock, image, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.SKU, p.Name, p.Category, p.Price, p.Stock, p.Image, domain.FormatTime(time.Now()))
	return err
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products SET sku = ?, name = ?, category = ?, price = ?, stock = ?, image = ? WHERE id = ?
	`), p.SKU, p.Name, p.Category, p.Price, p.Stock, p.Image, p.ID))
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id))
}
