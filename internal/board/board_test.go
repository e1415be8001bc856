package board_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"isdn/internal/board"
	"isdn/internal/domain"
)

// store is a fake remote collection.
type store struct {
	mu       sync.Mutex
	missions map[string]domain.Mission
	loads    int
	failSave error
}

func (s *store) load(context.Context) ([]domain.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	out := []domain.Mission{}
	for _, id := range []string{"m1", "m2"} {
		if m, ok := s.missions[id]; ok {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

func (s *store) save(_ context.Context, m domain.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	s.missions[m.ID] = m
	return nil
}

func newStore() *store {
	return &store{missions: map[string]domain.Mission{
		"m1": {ID: "m1", Status: domain.MissionInRoute, Progress: 10, Tasks: []domain.MissionTask{{Seq: 1}, {Seq: 2}}},
		"m2": {ID: "m2", Status: domain.MissionLoading, Progress: 0},
	}}
}

func setProgress(s *store, id string, p float64) board.Command[domain.Mission] {
	return board.Command[domain.Mission]{
		ID:      id,
		Apply:   func(m *domain.Mission) error { m.Progress = p; return nil },
		Persist: s.save,
	}
}

func TestDispatchPersistsOptimisticPatch(t *testing.T) {
	s := newStore()
	b := board.New(s.load)
	if err := b.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	got, err := b.Dispatch(context.Background(), setProgress(s, "m1", 55))
	if err != nil {
		t.Fatal(err)
	}
	if got.Progress != 55 {
		t.Fatalf("want 55, got %v", got.Progress)
	}
	if m, _ := b.Get("m1"); m.Progress != 55 {
		t.Fatalf("board not patched: %v", m.Progress)
	}
	if s.missions["m1"].Progress != 55 {
		t.Fatalf("store not written: %v", s.missions["m1"].Progress)
	}
	if s.loads != 1 {
		t.Fatalf("successful save should not reload, loads=%d", s.loads)
	}
}

func TestDispatchFailureReloadsFromStore(t *testing.T) {
	s := newStore()
	b := board.New(s.load)
	if err := b.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("write refused")
	s.failSave = boom
	// another client changed m1 meanwhile
	s.missions["m1"] = domain.Mission{ID: "m1", Status: domain.MissionDelayed, Progress: 20}

	_, err := b.Dispatch(context.Background(), setProgress(s, "m1", 90))
	if !errors.Is(err, boom) {
		t.Fatalf("want save error, got %v", err)
	}
	m, ok := b.Get("m1")
	if !ok {
		t.Fatal("m1 missing after reload")
	}
	if m.Progress != 20 || m.Status != domain.MissionDelayed {
		t.Fatalf("optimistic value left behind: %+v", m)
	}
	if s.loads != 2 {
		t.Fatalf("want a reload, loads=%d", s.loads)
	}
	if b.Saving() {
		t.Fatal("saving flag should be cleared")
	}
}

func TestDispatchApplyErrorLeavesBoard(t *testing.T) {
	s := newStore()
	b := board.New(s.load)
	_ = b.Reload(context.Background())
	bad := errors.New("no such task")
	_, err := b.Dispatch(context.Background(), board.Command[domain.Mission]{
		ID: "m1",
		Apply: func(m *domain.Mission) error {
			m.Progress = 99
			return bad
		},
		Persist: s.save,
	})
	if !errors.Is(err, bad) {
		t.Fatalf("want apply error, got %v", err)
	}
	if m, _ := b.Get("m1"); m.Progress != 10 {
		t.Fatalf("board changed on apply error: %v", m.Progress)
	}
}

func TestDispatchRejectsConcurrentSave(t *testing.T) {
	s := newStore()
	b := board.New(s.load)
	_ = b.Reload(context.Background())

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := b.Dispatch(context.Background(), board.Command[domain.Mission]{
			ID:    "m1",
			Apply: func(m *domain.Mission) error { return nil },
			Persist: func(ctx context.Context, m domain.Mission) error {
				close(entered)
				<-release
				return nil
			},
		})
		done <- err
	}()
	<-entered
	if _, err := b.Dispatch(context.Background(), setProgress(s, "m2", 5)); !errors.Is(err, board.ErrSaving) {
		t.Fatalf("want ErrSaving, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestReloadWaitsForInFlightSave(t *testing.T) {
	s := newStore()
	b := board.New(s.load)
	_ = b.Reload(context.Background())

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := b.Dispatch(context.Background(), board.Command[domain.Mission]{
			ID:    "m1",
			Apply: func(m *domain.Mission) error { m.Progress = 70; return nil },
			Persist: func(ctx context.Context, m domain.Mission) error {
				close(entered)
				<-release
				return s.save(ctx, m)
			},
		})
		done <- err
	}()
	<-entered

	reloaded := make(chan error, 1)
	go func() { reloaded <- b.Reload(context.Background()) }()
	select {
	case <-reloaded:
		t.Fatal("reload ran while a save was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if err := <-reloaded; err != nil {
		t.Fatal(err)
	}
	if m, _ := b.Get("m1"); m.Progress != 70 {
		t.Fatalf("reload discarded the saved patch: progress %v", m.Progress)
	}
}

func TestDispatchUnknownID(t *testing.T) {
	s := newStore()
	b := board.New(s.load)
	_ = b.Reload(context.Background())
	if _, err := b.Dispatch(context.Background(), setProgress(s, "nope", 1)); !errors.Is(err, board.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newStore()
	b := board.New(s.load)
	_ = b.Reload(context.Background())
	snap := b.Snapshot()
	snap[0].Tasks[0].Done = true
	if m, _ := b.Get("m1"); m.Tasks[0].Done {
		t.Fatal("snapshot shares task storage with the board")
	}
}
