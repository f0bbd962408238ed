package registry

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/dice"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
)

type stubCreature struct {
	host.Creature
	id uuid.UUID
}

func (s stubCreature) ID() uuid.UUID { return s.id }

func newStub() stubCreature { return stubCreature{id: uuid.New()} }

type stubBehavior struct{}

func (stubBehavior) ID() string                      { return "stub" }
func (stubBehavior) Loot(dice.Rand) []host.ItemStack { return nil }

func TestNewStatsRejectsLevelBelowOne(t *testing.T) {
	if _, err := NewStats(0, "Zombie", species.Zombie); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("err=%v want ErrInvalidLevel", err)
	}
	st, err := NewStats(1, "Zombie", species.Zombie)
	if err != nil || st.Level != 1 {
		t.Fatalf("st=%+v err=%v", st, err)
	}
}

func TestGetOrComputeCachesFirstResult(t *testing.T) {
	r := New()
	c := newStub()
	calls := 0
	compute := func(host.Creature) Stats {
		calls++
		return Stats{Level: 10 + calls, DisplayName: "Zombie", Species: species.Zombie}
	}
	a := r.GetOrCompute(c, compute)
	b := r.GetOrCompute(c, compute)
	if calls != 1 {
		t.Fatalf("compute calls=%d want 1", calls)
	}
	if a != b || a.Level != 11 {
		t.Fatalf("a=%+v b=%+v", a, b)
	}
}

func TestGetOrComputeClampsLevel(t *testing.T) {
	r := New()
	st := r.GetOrCompute(newStub(), func(host.Creature) Stats { return Stats{Level: 0} })
	if st.Level != 1 {
		t.Fatalf("level=%d want 1", st.Level)
	}
}

func TestConcurrentFirstSight(t *testing.T) {
	r := New()
	c := newStub()
	var calls atomic.Int32
	var wg sync.WaitGroup
	results := make([]Stats, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.GetOrCompute(c, func(host.Creature) Stats {
				n := calls.Add(1)
				return Stats{Level: int(n)}
			})
		}(i)
	}
	wg.Wait()
	stored, ok := r.Get(c)
	if !ok {
		t.Fatalf("missing after concurrent compute")
	}
	for i, st := range results {
		if st != stored {
			t.Fatalf("result %d=%+v stored=%+v", i, st, stored)
		}
	}
	if r.Len() != 1 {
		t.Fatalf("len=%d want 1", r.Len())
	}
}

func TestSetLevel(t *testing.T) {
	r := New()
	c := newStub()
	if _, err := r.SetLevel(c, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
	_ = r.Put(c, Stats{Level: 3, DisplayName: "Wolf", Species: species.Wolf})
	if _, err := r.SetLevel(c, 0); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("err=%v want ErrInvalidLevel", err)
	}
	st, err := r.SetLevel(c, 30)
	if err != nil || st.Level != 30 || st.DisplayName != "Wolf" {
		t.Fatalf("st=%+v err=%v", st, err)
	}
}

func TestForgetDropsBothMaps(t *testing.T) {
	r := New()
	c := newStub()
	_ = r.Put(c, Stats{Level: 70})
	r.PutCustom(c, stubBehavior{})
	if r.CustomLen() != 1 {
		t.Fatalf("custom len=%d", r.CustomLen())
	}
	if _, ok := r.Forget(c); !ok {
		t.Fatalf("Forget reported absent")
	}
	if _, ok := r.Get(c); ok {
		t.Fatalf("stats survived Forget")
	}
	if _, ok := r.Custom(c); ok {
		t.Fatalf("custom survived Forget")
	}
	st := r.GetOrCompute(c, func(host.Creature) Stats { return Stats{Level: 4} })
	if st.Level < 1 {
		t.Fatalf("recompute level=%d", st.Level)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := New()
	a, b := newStub(), newStub()
	_ = r.Put(a, Stats{Level: 2})
	_ = r.Put(b, Stats{Level: 3})
	snap := r.Snapshot()
	for _, e := range snap {
		r.Remove(e.Creature.ID())
	}
	if len(snap) != 2 || r.Len() != 0 {
		t.Fatalf("snap=%d len=%d", len(snap), r.Len())
	}
}
