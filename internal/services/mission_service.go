package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"isdn/internal/board"
	"isdn/internal/domain"
	"isdn/internal/repos"
)

// MissionService serves the live operations board. Edits are applied optimistically
// to the board and rolled back by a reload when the store rejects them.
type MissionService struct {
	Missions *repos.MissionRepo
	Board    *board.Collection[domain.Mission]
}

func NewMissionService(missions *repos.MissionRepo) *MissionService {
	return &MissionService{
		Missions: missions,
		Board: board.New(func(ctx context.Context) ([]domain.Mission, error) {
			return missions.List(ctx, "")
		}),
	}
}

func (s *MissionService) Load(ctx context.Context) error { return s.Board.Reload(ctx) }

// Live is the current board, including simulated progress and positions.
func (s *MissionService) Live() []domain.Mission { return s.Board.Snapshot() }

// ForDriver keeps the board entries whose driver name matches name.
func (s *MissionService) ForDriver(name string) []domain.Mission {
	out := []domain.Mission{}
	for _, m := range s.Board.Snapshot() {
		if strings.EqualFold(m.DriverName, name) {
			out = append(out, m)
		}
	}
	return out
}

// patch runs fn on the board entry and on a fresh stored copy, so simulated
// values never reach the store.
func (s *MissionService) patch(ctx context.Context, id string, fn func(*domain.Mission) error) (domain.Mission, error) {
	return s.Board.Dispatch(ctx, board.Command[domain.Mission]{
		ID:    id,
		Apply: fn,
		Persist: func(ctx context.Context, _ domain.Mission) error {
			stored, err := s.Missions.Get(ctx, id)
			if err != nil {
				return err
			}
			if err := fn(&stored); err != nil {
				return err
			}
			return s.Missions.Save(ctx, stored)
		},
	})
}

func (s *MissionService) SetProgress(ctx context.Context, id string, progress float64) (domain.Mission, error) {
	p := domain.ClampProgress(progress)
	return s.patch(ctx, id, func(m *domain.Mission) error {
		m.Progress = p
		return nil
	})
}

func (s *MissionService) SetStatus(ctx context.Context, id, status string) (domain.Mission, error) {
	st, err := domain.ParseMissionStatus(status)
	if err != nil {
		return domain.Mission{}, err
	}
	return s.patch(ctx, id, func(m *domain.Mission) error {
		m.Status = st
		if st == domain.MissionCompleted {
			m.Progress = 100
		}
		return nil
	})
}

func (s *MissionService) CompleteTask(ctx context.Context, id string, seq int) (domain.Mission, error) {
	return s.patch(ctx, id, func(m *domain.Mission) error {
		if !m.CompleteTask(seq) {
			return fmt.Errorf("%w: task %d of mission %s", ErrNotFound, seq, id)
		}
		return nil
	})
}

// Create stores a new mission and reloads the board.
func (s *MissionService) Create(ctx context.Context, m domain.Mission) (domain.Mission, error) {
	if strings.TrimSpace(m.DriverName) == "" || strings.TrimSpace(m.Vehicle) == "" {
		return domain.Mission{}, fmt.Errorf("%w: mission needs a driver and a vehicle", ErrInvalid)
	}
	if m.Status == "" {
		m.Status = domain.MissionScheduled
	}
	if _, err := domain.ParseMissionStatus(string(m.Status)); err != nil {
		return domain.Mission{}, err
	}
	m.ID = "m-" + uuid.NewString()[:8]
	m.Progress = domain.ClampProgress(m.Progress)
	m.Telemetry.Fuel = domain.ClampProgress(m.Telemetry.Fuel)
	m.Telemetry.Load = domain.ClampProgress(m.Telemetry.Load)
	for i := range m.Tasks {
		m.Tasks[i].Seq = i + 1
	}
	if err := s.Missions.Create(ctx, m); err != nil {
		return domain.Mission{}, err
	}
	return m, s.Board.Reload(ctx)
}

func (s *MissionService) Delete(ctx context.Context, id string) error {
	if err := s.Missions.Delete(ctx, id); err != nil {
		return err
	}
	return s.Board.Reload(ctx)
}
