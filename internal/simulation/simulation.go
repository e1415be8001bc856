// Package simulation moves missions on the live operations board.
//
// The default source is cosmetic: it jitters progress and map position of
// missions that are IN ROUTE. It never reads a location sensor and never
// writes to the store.
package simulation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"isdn/internal/board"
	"isdn/internal/domain"
)

const (
	DefaultInterval = 2 * time.Second

	// map box, in percent of each axis
	minPos = 10
	maxPos = 90
)

// Sample is one reading for a mission.
type Sample struct {
	Progress  float64
	Position  domain.Position
	Simulated bool
}

// Source produces samples. ok is false when the mission should not move.
// A real telemetry feed implements the same interface.
type Source interface {
	Sample(m domain.Mission) (s Sample, ok bool)
}

// Jitter is the cosmetic Source.
type Jitter struct {
	mu  sync.Mutex
	rnd *rand.Rand

	// MaxStep bounds the forward progress per sample; MaxDrift bounds the position change per axis.
	MaxStep  float64
	MaxDrift float64
}

func NewJitter(seed int64) *Jitter {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Jitter{rnd: rand.New(rand.NewSource(seed)), MaxStep: 3, MaxDrift: 3}
}

func (j *Jitter) Sample(m domain.Mission) (Sample, bool) {
	if m.Status != domain.MissionInRoute {
		return Sample{}, false
	}
	j.mu.Lock()
	step := j.rnd.Float64() * j.MaxStep
	dx := (j.rnd.Float64()*2 - 1) * j.MaxDrift
	dy := (j.rnd.Float64()*2 - 1) * j.MaxDrift
	j.mu.Unlock()

	pos := m.Position
	if pos == (domain.Position{}) {
		pos = domain.Position{X: 50, Y: 50}
	}
	return Sample{
		Progress: domain.ClampProgress(m.Progress + step),
		Position: domain.Position{
			X: domain.Clamp(pos.X+dx, minPos, maxPos),
			Y: domain.Clamp(pos.Y+dy, minPos, maxPos),
		},
		Simulated: true,
	}, true
}

// Loop applies samples from Source to Board every Interval.
type Loop struct {
	Board    *board.Collection[domain.Mission]
	Source   Source
	Interval time.Duration

	// OnTick, when set, is called after every tick with the number of missions moved.
	OnTick func(moved int)
}

// Tick applies one round of samples and returns how many missions moved.
func (l *Loop) Tick() int {
	moved := 0
	l.Board.Each(func(m *domain.Mission) {
		s, ok := l.Source.Sample(*m)
		if !ok {
			return
		}
		m.Progress = s.Progress
		m.Position = s.Position
		m.Simulated = s.Simulated
		moved++
	})
	return moved
}

// Run ticks until ctx is done. The ticker is stopped on return.
func (l *Loop) Run(ctx context.Context) {
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n := l.Tick()
			if l.OnTick != nil {
				l.OnTick(n)
			}
		}
	}
}
