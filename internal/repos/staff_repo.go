package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"isdn/internal/domain"
)

type StaffRepo struct{ db *sqlx.DB }

func NewStaffRepo(db *sqlx.DB) *StaffRepo { return &StaffRepo{db: db} }

type staffRow struct {
	ID     string `db:"id"`
	Name   string `db:"name"`
	Role   string `db:"role"`
	Status string `db:"status"`
	Email  string `db:"email"`
	Phone  string `db:"phone"`
}

func (r staffRow) parse() (domain.StaffMember, error) {
	st, err := domain.ParseDirectoryStatus(r.Status, domain.StaffStatuses)
	if err != nil {
		return domain.StaffMember{}, fmt.Errorf("staff %s: %w", r.ID, err)
	}
	return domain.StaffMember{ID: r.ID, Name: r.Name, Role: r.Role, Status: st, Email: r.Email, Phone: r.Phone}, nil
}

func (r *StaffRepo) List(ctx context.Context) ([]domain.StaffMember, error) {
	var rows []staffRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, role, status, email, phone FROM staff ORDER BY name`); err != nil {
		return nil, err
	}
	out := make([]domain.StaffMember, 0, len(rows))
	for _, row := range rows {
		s, err := row.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *StaffRepo) Create(ctx context.Context, s domain.StaffMember) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO staff(id, name, role, status, email, phone) VALUES(?, ?, ?, ?, ?, ?)
	`), s.ID, s.Name, s.Role, s.Status, s.Email, s.Phone)
	return err
}

func (r *StaffRepo) Update(ctx context.Context, s domain.StaffMember) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE staff SET name = ?, role = ?, status = ?, email = ?, phone = ? WHERE id = ?
	`), s.Name, s.Role, s.Status, s.Email, s.Phone, s.ID))
}

func (r *StaffRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM staff WHERE id = ?`), id))
}
