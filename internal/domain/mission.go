package domain

import (
	"fmt"
	"strings"
)

type MissionStatus string

const (
	MissionScheduled MissionStatus = "SCHEDULED"
	MissionLoading   MissionStatus = "LOADING"
	MissionInRoute   MissionStatus = "IN ROUTE"
	MissionDelayed   MissionStatus = "DELAYED"
	MissionCompleted MissionStatus = "COMPLETED"
)

var MissionStatuses = []MissionStatus{MissionScheduled, MissionLoading, MissionInRoute, MissionDelayed, MissionCompleted}

func ParseMissionStatus(s string) (MissionStatus, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	for _, st := range MissionStatuses {
		if string(st) == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: mission status %q", ErrInvalid, s)
}

// Position is a point on the 2D operations map, in percent of each axis.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Telemetry struct {
	Fuel float64 `json:"fuel"`
	Load float64 `json:"load"`
}

type MissionTask struct {
	Seq      int    `json:"seq"`
	Time     string `json:"time"`
	Label    string `json:"label"`
	Location string `json:"location"`
	Done     bool   `json:"done"`
}

type Mission struct {
	ID              string        `json:"id"`
	DriverName      string        `json:"driver_name"`
	Vehicle         string        `json:"vehicle"`
	Status          MissionStatus `json:"status"`
	Progress        float64       `json:"progress"`
	CurrentLocation string        `json:"current_location"`
	Telemetry       Telemetry     `json:"telemetry"`
	Tasks           []MissionTask `json:"tasks"`

	// Position and Simulated only live on the in-memory board.
	Position  Position `json:"position"`
	Simulated bool     `json:"simulated"`
}

// Key satisfies board.Keyed.
func (m Mission) Key() string { return m.ID }

// CompleteTask marks the task with seq done. It reports false if no such task exists.
func (m *Mission) CompleteTask(seq int) bool {
	for i := range m.Tasks {
		if m.Tasks[i].Seq == seq {
			m.Tasks[i].Done = true
			return true
		}
	}
	return false
}

// TasksDone counts completed tasks.
func (m Mission) TasksDone() int {
	n := 0
	for _, t := range m.Tasks {
		if t.Done {
			n++
		}
	}
	return n
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ClampProgress(p float64) float64 { return Clamp(p, 0, 100) }

// Clone copies the mission including its task list.
func (m Mission) Clone() Mission {
	out := m
	out.Tasks = append([]MissionTask(nil), m.Tasks...)
	return out
}
