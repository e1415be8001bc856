package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"isdn/internal/domain"
)

// DriverRepo manages users with role driver.
type DriverRepo struct{ db *sqlx.DB }

func NewDriverRepo(db *sqlx.DB) *DriverRepo { return &DriverRepo{db: db} }

type driverRow struct {
	ID            string `db:"id"`
	FullName      string `db:"full_name"`
	Username      string `db:"username"`
	RDCHub        string `db:"rdc_hub"`
	LicenseNumber string `db:"license_number"`
}

func (r *DriverRepo) List(ctx context.Context) ([]domain.DriverUser, error) {
	var rows []driverRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, full_name, username, rdc_hub, license_number FROM users WHERE role = 'driver' ORDER BY full_name
	`); err != nil {
		return nil, err
	}
	out := make([]domain.DriverUser, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.DriverUser(row))
	}
	return out, nil
}

func (r *DriverRepo) Get(ctx context.Context, id string) (domain.DriverUser, error) {
	var row driverRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT id, full_name, username, rdc_hub, license_number FROM users WHERE id = ? AND role = 'driver'
	`), id); err != nil {
		return domain.DriverUser{}, notFound(err)
	}
	return domain.DriverUser(row), nil
}

// Create inserts a driver login with an already hashed password.
func (r *DriverRepo) Create(ctx context.Context, d domain.DriverUser, hash string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO users(id, username, full_name, email, password_hash, role, rdc_hub, license_number, created_at)
		VALUES(?, ?, ?, '', ?, 'driver', ?, ?, ?)
	`), d.ID, d.Username, d.FullName, hash, d.RDCHub, d.LicenseNumber, domain.FormatTime(time.Now()))
	return err
}

func (r *DriverRepo) Update(ctx context.Context, d domain.DriverUser) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET full_name = ?, username = ?, rdc_hub = ?, license_number = ? WHERE id = ? AND role = 'driver'
	`), d.FullName, d.Username, d.RDCHub, d.LicenseNumber, d.ID))
}

func (r *DriverRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ? AND role = 'driver'`), id))
}
