package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"isdn/internal/domain"
)

type PartnerRepo struct{ db *sqlx.DB }

func NewPartnerRepo(db *sqlx.DB) *PartnerRepo { return &PartnerRepo{db: db} }

type partnerRow struct {
	ID            string  `db:"id"`
	Name          string  `db:"name"`
	Hub           string  `db:"hub"`
	Status        string  `db:"status"`
	Rating        float64 `db:"rating"`
	ContractStart string  `db:"contract_start"`
	ContractEnd   string  `db:"contract_end"`
}

type auditRow struct {
	PartnerID string `db:"partner_id"`
	Date      string `db:"audited_on"`
	Score     int    `db:"score"`
	Note      string `db:"note"`
}

func (r partnerRow) parse() (domain.RDCPartner, error) {
	st, err := domain.ParseDirectoryStatus(r.Status, domain.PartnerStatuses)
	if err != nil {
		return domain.RDCPartner{}, fmt.Errorf("partner %s: %w", r.ID, err)
	}
	start, err := domain.ParseTime(r.ContractStart)
	if err != nil {
		return domain.RDCPartner{}, fmt.Errorf("partner %s: %w", r.ID, err)
	}
	end, err := domain.ParseTime(r.ContractEnd)
	if err != nil {
		return domain.RDCPartner{}, fmt.Errorf("partner %s: %w", r.ID, err)
	}
	return domain.RDCPartner{
		ID:            r.ID,
		Name:          r.Name,
		Hub:           r.Hub,
		Status:        st,
		Rating:        r.Rating,
		ContractStart: start,
		ContractEnd:   end,
		RecentAudits:  []domain.PartnerAudit{},
	}, nil
}

func (a auditRow) parse() (domain.PartnerAudit, error) {
	d, err := domain.ParseTime(a.Date)
	if err != nil {
		return domain.PartnerAudit{}, fmt.Errorf("partner %s audit: %w", a.PartnerID, err)
	}
	return domain.PartnerAudit{Date: d, Score: a.Score, Note: a.Note}, nil
}

// List returns partners with their audits, newest audit first.
func (r *PartnerRepo) List(ctx context.Context) ([]domain.RDCPartner, error) {
	var rows []partnerRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, hub, status, rating, contract_start, contract_end FROM partners ORDER BY name
	`); err != nil {
		return nil, err
	}
	var audits []auditRow
	if err := r.db.SelectContext(ctx, &audits, `
		SELECT partner_id, audited_on, score, note FROM partner_audits ORDER BY audited_on DESC
	`); err != nil {
		return nil, err
	}
	byPartner := map[string][]domain.PartnerAudit{}
	for _, a := range audits {
		pa, err := a.parse()
		if err != nil {
			return nil, err
		}
		byPartner[a.PartnerID] = append(byPartner[a.PartnerID], pa)
	}

	out := make([]domain.RDCPartner, 0, len(rows))
	for _, row := range rows {
		p, err := row.parse()
		if err != nil {
			return nil, err
		}
		if as := byPartner[p.ID]; as != nil {
			p.RecentAudits = as
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *PartnerRepo) Create(ctx context.Context, p domain.RDCPartner) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO partners(id, name, hub, status, rating, contract_start, contract_end) VALUES(?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.Name, p.Hub, p.Status, p.Rating, dateOnly(p.ContractStart), dateOnly(p.ContractEnd))
	return err
}

func (r *PartnerRepo) Update(ctx context.Context, p domain.RDCPartner) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE partners SET name = ?, hub = ?, status = ?, rating = ?, contract_start = ?, contract_end = ? WHERE id = ?
	`), p.Name, p.Hub, p.Status, p.Rating, dateOnly(p.ContractStart), dateOnly(p.ContractEnd), p.ID))
}

// AddAudit records an audit; a second audit on the same day replaces the first.
func (r *PartnerRepo) AddAudit(ctx context.Context, partnerID string, a domain.PartnerAudit) error {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM partners WHERE id = ?`), partnerID); err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO partner_audits(partner_id, audited_on, score, note) VALUES(?, ?, ?, ?)
		ON CONFLICT(partner_id, audited_on) DO UPDATE SET score = excluded.score, note = excluded.note
	`), partnerID, dateOnly(a.Date), a.Score, a.Note)
	return err
}

func (r *PartnerRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM partners WHERE id = ?`), id))
}
