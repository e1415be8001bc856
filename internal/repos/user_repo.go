package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"isdn/internal/domain"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

type userRow struct {
	ID       string `db:"id"`
	Username string `db:"username"`
	FullName string `db:"full_name"`
	Email    string `db:"email"`
	Hash     string `db:"password_hash"`
	Role     string `db:"role"`
	RDCHub   string `db:"rdc_hub"`
}

func (r userRow) parse() (domain.User, error) {
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", r.ID, err)
	}
	return domain.User{
		ID: r.ID, Username: r.Username, FullName: r.FullName, Email: r.Email,
		Hash: r.Hash, Role: role, RDCHub: r.RDCHub,
	}, nil
}

const userColumns = `SELECT id, username, full_name, email, password_hash, role, rdc_hub FROM users`

// ByUsername matches case-insensitively.
func (r *UserRepo) ByUsername(ctx context.Context, username string) (domain.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(userColumns+` WHERE LOWER(username) = LOWER(?)`), username); err != nil {
		return domain.User{}, notFound(err)
	}
	return row.parse()
}

func (r *UserRepo) ByID(ctx context.Context, id string) (domain.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(userColumns+` WHERE id = ?`), id); err != nil {
		return domain.User{}, notFound(err)
	}
	return row.parse()
}

// Delete removes a user; their server-side sessions go with them.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id))
}
