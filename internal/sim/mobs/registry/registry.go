// Package registry maps live creatures to their level statistics.
//
// The game thread reads and writes through all methods; the background sweeper
// only calls Snapshot and Remove. Both maps share one reader-writer lock.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/dice"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
)

var (
	ErrInvalidLevel = errors.New("mob level cannot be less than 1")
	ErrNotFound     = errors.New("creature not registered")
)

// Stats is the per-creature record.
type Stats struct {
	Level       int             `json:"level"`
	DisplayName string          `json:"display_name"`
	Species     species.Species `json:"species"`
}

func NewStats(level int, name string, s species.Species) (Stats, error) {
	if level < 1 {
		return Stats{}, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	return Stats{Level: level, DisplayName: name, Species: s}, nil
}

// Behavior is the scripted half of a custom mob.
type Behavior interface {
	ID() string
	Loot(r dice.Rand) []host.ItemStack
}

// Entry pairs a creature handle with its record, as seen at snapshot time.
type Entry struct {
	Creature host.Creature
	Stats    Stats
}

type record struct {
	creature host.Creature
	stats    Stats
}

type Registry struct {
	mu     sync.RWMutex
	stats  map[uuid.UUID]record
	custom map[uuid.UUID]Behavior
}

func New() *Registry {
	return &Registry{
		stats:  map[uuid.UUID]record{},
		custom: map[uuid.UUID]Behavior{},
	}
}

// Get reports absent for unknown or already-swept creatures; callers recompute.
func (r *Registry) Get(c host.Creature) (Stats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.stats[c.ID()]
	return rec.stats, ok
}

// GetOrCompute returns the stored record or builds one with compute. compute
// runs without the lock held; concurrent first sights may both compute, and the
// first insert is kept.
func (r *Registry) GetOrCompute(c host.Creature, compute func(host.Creature) Stats) Stats {
	if st, ok := r.Get(c); ok {
		return st
	}
	st := compute(c)
	if st.Level < 1 {
		st.Level = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.stats[c.ID()]; ok {
		return rec.stats
	}
	r.stats[c.ID()] = record{creature: c, stats: st}
	return st
}

func (r *Registry) Put(c host.Creature, st Stats) error {
	if st.Level < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, st.Level)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[c.ID()] = record{creature: c, stats: st}
	return nil
}

// SetLevel overwrites the level only. The caller re-applies attributes and re-renders.
func (r *Registry) SetLevel(c host.Creature, level int) (Stats, error) {
	if level < 1 {
		return Stats{}, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.stats[c.ID()]
	if !ok {
		return Stats{}, ErrNotFound
	}
	rec.stats.Level = level
	r.stats[c.ID()] = rec
	return rec.stats, nil
}

// Forget drops both the stats and the custom-mob entry.
func (r *Registry) Forget(c host.Creature) (Stats, bool) {
	return r.Remove(c.ID())
}

func (r *Registry) Remove(id uuid.UUID) (Stats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.stats[id]
	delete(r.stats, id)
	delete(r.custom, id)
	return rec.stats, ok
}

func (r *Registry) PutCustom(c host.Creature, b Behavior) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom[c.ID()] = b
}

func (r *Registry) Custom(c host.Creature) (Behavior, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.custom[c.ID()]
	return b, ok
}

// Snapshot copies the current entries; iteration never holds the lock.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.stats))
	for _, rec := range r.stats {
		out = append(out, Entry{Creature: rec.creature, Stats: rec.stats})
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stats)
}

func (r *Registry) CustomLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.custom)
}
