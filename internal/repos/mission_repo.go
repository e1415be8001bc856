package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"isdn/internal/domain"
)

type MissionRepo struct{ db *sqlx.DB }

func NewMissionRepo(db *sqlx.DB) *MissionRepo { return &MissionRepo{db: db} }

type missionRow struct {
	ID              string  `db:"id"`
	DriverName      string  `db:"driver_name"`
	Vehicle         string  `db:"vehicle"`
	Status          string  `db:"status"`
	Progress        float64 `db:"progress"`
	CurrentLocation string  `db:"current_location"`
	Fuel            float64 `db:"fuel"`
	Load            float64 `db:"cargo_load"`
}

type taskRow struct {
	MissionID string `db:"mission_id"`
	Seq       int    `db:"seq"`
	Slot      string `db:"slot"`
	Label     string `db:"label"`
	Location  string `db:"location"`
	Done      int    `db:"done"`
}

func (r missionRow) parse() (domain.Mission, error) {
	st, err := domain.ParseMissionStatus(r.Status)
	if err != nil {
		return domain.Mission{}, fmt.Errorf("mission %s: %w", r.ID, err)
	}
	if r.Progress < 0 || r.Progress > 100 {
		return domain.Mission{}, fmt.Errorf("mission %s: %w: progress %.1f", r.ID, domain.ErrInvalid, r.Progress)
	}
	return domain.Mission{
		ID:              r.ID,
		DriverName:      r.DriverName,
		Vehicle:         r.Vehicle,
		Status:          st,
		Progress:        r.Progress,
		CurrentLocation: r.CurrentLocation,
		Telemetry:       domain.Telemetry{Fuel: r.Fuel, Load: r.Load},
		Tasks:           []domain.MissionTask{},
	}, nil
}

const missionColumns = `SELECT id, driver_name, vehicle, status, progress, current_location, fuel, cargo_load FROM missions`

// List loads missions with their tasks. A non-empty driverName keeps only that driver's missions.
func (r *MissionRepo) List(ctx context.Context, driverName string) ([]domain.Mission, error) {
	q := missionColumns
	args := []any{}
	if driverName != "" {
		q += ` WHERE LOWER(driver_name) = LOWER(?)`
		args = append(args, driverName)
	}
	q += ` ORDER BY created_at, id`

	var rows []missionRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	var tasks []taskRow
	if err := r.db.SelectContext(ctx, &tasks, `
		SELECT mission_id, seq, slot, label, location, done FROM mission_tasks ORDER BY mission_id, seq
	`); err != nil {
		return nil, err
	}
	byMission := map[string][]domain.MissionTask{}
	for _, t := range tasks {
		byMission[t.MissionID] = append(byMission[t.MissionID], t.task())
	}

	out := make([]domain.Mission, 0, len(rows))
	for _, row := range rows {
		m, err := row.parse()
		if err != nil {
			return nil, err
		}
		if ts := byMission[m.ID]; ts != nil {
			m.Tasks = ts
		}
		out = append(out, m)
	}
	return out, nil
}

func (t taskRow) task() domain.MissionTask {
	return domain.MissionTask{Seq: t.Seq, Time: t.Slot, Label: t.Label, Location: t.Location, Done: t.Done != 0}
}

func (r *MissionRepo) Get(ctx context.Context, id string) (domain.Mission, error) {
	var row missionRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(missionColumns+` WHERE id = ?`), id); err != nil {
		return domain.Mission{}, notFound(err)
	}
	m, err := row.parse()
	if err != nil {
		return domain.Mission{}, err
	}
	var tasks []taskRow
	if err := r.db.SelectContext(ctx, &tasks, r.db.Rebind(`
		SELECT mission_id, seq, slot, label, location, done FROM mission_tasks WHERE mission_id = ? ORDER BY seq
	`), id); err != nil {
		return domain.Mission{}, err
	}
	for _, t := range tasks {
		m.Tasks = append(m.Tasks, t.task())
	}
	return m, nil
}

func (r *MissionRepo) Create(ctx context.Context, m domain.Mission) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO missions(id, driver_name, vehicle, status, progress, current_location, fuel, cargo_load, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), m.ID, m.DriverName, m.Vehicle, string(m.Status), m.Progress, m.CurrentLocation,
		m.Telemetry.Fuel, m.Telemetry.Load, domain.FormatTime(time.Now())); err != nil {
		return err
	}
	if err := insertTasks(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

// Save writes the stored fields of m, replacing its task list. Board-only fields are ignored.
func (r *MissionRepo) Save(ctx context.Context, m domain.Mission) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE missions SET driver_name = ?, vehicle = ?, status = ?, progress = ?, current_location = ?,
		       fuel = ?, cargo_load = ?
		WHERE id = ?
	`), m.DriverName, m.Vehicle, string(m.Status), m.Progress, m.CurrentLocation, m.Telemetry.Fuel, m.Telemetry.Load, m.ID)
	if err := affected(res, err); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM mission_tasks WHERE mission_id = ?`), m.ID); err != nil {
		return err
	}
	if err := insertTasks(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTasks(ctx context.Context, tx *sqlx.Tx, m domain.Mission) error {
	for _, t := range m.Tasks {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO mission_tasks(mission_id, seq, slot, label, location, done) VALUES(?, ?, ?, ?, ?, ?)
		`), m.ID, t.Seq, t.Time, t.Label, t.Location, boolInt(t.Done)); err != nil {
			return err
		}
	}
	return nil
}

func (r *MissionRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM missions WHERE id = ?`), id))
}
