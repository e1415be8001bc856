package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"isdn/internal/domain"
)

type HubRepo struct{ db *sqlx.DB }

func NewHubRepo(db *sqlx.DB) *HubRepo { return &HubRepo{db: db} }

func (r *HubRepo) List(ctx context.Context) ([]domain.RDCHub, error) {
	var rows []struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name FROM hubs ORDER BY name`); err != nil {
		return nil, err
	}
	out := make([]domain.RDCHub, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.RDCHub{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

func (r *HubRepo) Create(ctx context.Context, h domain.RDCHub) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO hubs(id, name) VALUES(?, ?)`), h.ID, h.Name)
	return err
}

func (r *HubRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM hubs WHERE id = ?`), id))
}
