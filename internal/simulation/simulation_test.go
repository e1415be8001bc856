package simulation_test

import (
	"context"
	"testing"
	"time"

	"isdn/internal/board"
	"isdn/internal/domain"
	"isdn/internal/simulation"
)

func fixedBoard(t *testing.T, missions ...domain.Mission) *board.Collection[domain.Mission] {
	t.Helper()
	b := board.New(func(context.Context) ([]domain.Mission, error) { return missions, nil })
	if err := b.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestJitterOnlyMovesInRoute(t *testing.T) {
	j := simulation.NewJitter(42)
	for _, st := range domain.MissionStatuses {
		m := domain.Mission{ID: "m", Status: st, Progress: 40, Position: domain.Position{X: 30, Y: 30}}
		_, ok := j.Sample(m)
		if ok != (st == domain.MissionInRoute) {
			t.Fatalf("status %s sampled=%v", st, ok)
		}
	}
}

func TestJitterStaysInBounds(t *testing.T) {
	j := simulation.NewJitter(7)
	j.MaxStep, j.MaxDrift = 50, 50
	m := domain.Mission{Status: domain.MissionInRoute, Progress: 95, Position: domain.Position{X: 89, Y: 11}}
	for i := 0; i < 200; i++ {
		s, ok := j.Sample(m)
		if !ok {
			t.Fatal("in-route mission not sampled")
		}
		if s.Progress < 0 || s.Progress > 100 {
			t.Fatalf("progress out of range: %v", s.Progress)
		}
		if s.Position.X < 10 || s.Position.X > 90 || s.Position.Y < 10 || s.Position.Y > 90 {
			t.Fatalf("position out of box: %+v", s.Position)
		}
		if !s.Simulated {
			t.Fatal("samples must be flagged simulated")
		}
		m.Progress, m.Position = s.Progress, s.Position
	}
}

func TestLoopTickLeavesIdleMissionsAlone(t *testing.T) {
	idle := domain.Mission{ID: "idle", Status: domain.MissionLoading, Progress: 12, Position: domain.Position{X: 20, Y: 20}}
	moving := domain.Mission{ID: "moving", Status: domain.MissionInRoute, Progress: 12, Position: domain.Position{X: 20, Y: 20}}
	b := fixedBoard(t, idle, moving)
	loop := &simulation.Loop{Board: b, Source: simulation.NewJitter(1)}

	for i := 0; i < 10; i++ {
		if n := loop.Tick(); n != 1 {
			t.Fatalf("want 1 moved, got %d", n)
		}
	}
	got, _ := b.Get("idle")
	if got.Progress != idle.Progress || got.Position != idle.Position || got.Simulated {
		t.Fatalf("idle mission mutated: %+v", got)
	}
	mv, _ := b.Get("moving")
	if !mv.Simulated {
		t.Fatal("moving mission should be flagged simulated")
	}
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	b := fixedBoard(t, domain.Mission{ID: "m", Status: domain.MissionInRoute})
	ticks := make(chan int, 16)
	loop := &simulation.Loop{
		Board:    b,
		Source:   simulation.NewJitter(3),
		Interval: 5 * time.Millisecond,
		OnTick: func(n int) {
			select {
			case ticks <- n:
			default:
			}
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("loop never ticked")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
