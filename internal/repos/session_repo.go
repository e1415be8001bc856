package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"isdn/internal/domain"
)

// SessionRepo keeps sessions in SQL. The session body is rebuilt from the users row
// on every read, so a renamed or deleted user is reflected immediately.
type SessionRepo struct{ db *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

func (r *SessionRepo) Put(ctx context.Context, s domain.Session) error {
	now := domain.FormatTime(time.Now())
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO sessions(id, user_id, created_at, last_seen) VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, last_seen = excluded.last_seen
	`), s.ID, s.UserID, domain.FormatTime(s.CreatedAt), now)
	return err
}

func (r *SessionRepo) Get(ctx context.Context, sid string) (domain.Session, error) {
	var row struct {
		ID        string `db:"id"`
		Username  string `db:"username"`
		FullName  string `db:"full_name"`
		Email     string `db:"email"`
		Hash      string `db:"password_hash"`
		Role      string `db:"role"`
		RDCHub    string `db:"rdc_hub"`
		CreatedAt string `db:"created_at"`
	}
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT u.id, u.username, u.full_name, u.email, u.password_hash, u.role, u.rdc_hub, s.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?
	`), sid); err != nil {
		return domain.Session{}, notFound(err)
	}
	u, err := userRow{
		ID: row.ID, Username: row.Username, FullName: row.FullName, Email: row.Email,
		Hash: row.Hash, Role: row.Role, RDCHub: row.RDCHub,
	}.parse()
	if err != nil {
		return domain.Session{}, err
	}
	created, err := domain.ParseTime(row.CreatedAt)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.NewSession(sid, u, created), nil
}

func (r *SessionRepo) Delete(ctx context.Context, sid string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE id = ?`), sid)
	return err
}

// DeleteUser drops every session of userID.
func (r *SessionRepo) DeleteUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE user_id = ?`), userID)
	return err
}
