// Package board keeps an in-memory copy of a stored collection for the live
// dashboards and applies changes to it through optimistic commands.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrSaving   = errors.New("board: a change is already being saved")
	ErrNotFound = errors.New("board: no such entry")
)

// Keyed is anything addressable by a stable id.
type Keyed interface {
	Key() string
}

// Loader fetches the full collection from the store.
type Loader[T Keyed] func(ctx context.Context) ([]T, error)

// Command is one optimistic change. Apply patches a private copy of the entry,
// Persist writes that copy to the store. If Persist fails the board reloads.
type Command[T Keyed] struct {
	ID      string
	Apply   func(*T) error
	Persist func(ctx context.Context, next T) error
}

type Collection[T Keyed] struct {
	load Loader[T]

	mu       sync.RWMutex
	items    []T
	index    map[string]int
	loadedAt time.Time

	// op serializes commands and reloads.
	op     sync.Mutex
	saving atomic.Bool
}

func New[T Keyed](load Loader[T]) *Collection[T] {
	return &Collection[T]{load: load, index: map[string]int{}}
}

// Reload replaces the cached collection with a fresh load. It waits for an in-flight
// command to finish first. On error the cache is left as is.
func (c *Collection[T]) Reload(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()
	return c.reload(ctx)
}

func (c *Collection[T]) reload(ctx context.Context) error {
	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(items))
	for i, it := range items {
		index[it.Key()] = i
	}
	c.mu.Lock()
	c.items, c.index, c.loadedAt = items, index, time.Now()
	c.mu.Unlock()
	return nil
}

func (c *Collection[T]) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Snapshot returns a copy of every entry in load order.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	for i, it := range c.items {
		out[i] = clone(it)
	}
	return out
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return clone(c.items[i]), true
}

// Each lets fn mutate every cached entry in place. Nothing is persisted.
func (c *Collection[T]) Each(fn func(*T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		fn(&c.items[i])
	}
}

// Saving reports whether a command is in flight.
func (c *Collection[T]) Saving() bool { return c.saving.Load() }

// Dispatch runs cmd. Only one command runs at a time; a call made while another
// command or a reload is running gets ErrSaving.
func (c *Collection[T]) Dispatch(ctx context.Context, cmd Command[T]) (T, error) {
	var zero T
	if !c.op.TryLock() {
		return zero, ErrSaving
	}
	defer c.op.Unlock()
	c.saving.Store(true)
	defer c.saving.Store(false)

	c.mu.Lock()
	i, ok := c.index[cmd.ID]
	if !ok {
		c.mu.Unlock()
		return zero, fmt.Errorf("%w: %s", ErrNotFound, cmd.ID)
	}
	next := clone(c.items[i])
	if err := cmd.Apply(&next); err != nil {
		c.mu.Unlock()
		return zero, err
	}
	c.items[i] = next
	c.mu.Unlock()

	if err := cmd.Persist(ctx, clone(next)); err != nil {
		if rerr := c.reload(ctx); rerr != nil {
			return zero, errors.Join(err, fmt.Errorf("board: reload after failed save: %w", rerr))
		}
		return zero, err
	}
	return clone(next), nil
}

func clone[T any](v T) T {
	if c, ok := any(v).(interface{ Clone() T }); ok {
		return c.Clone()
	}
	return v
}
