package worldtest

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
	world "github.com/DevvyDoo/Leveling-Overhaul/internal/sim/world"
)

// Harness drives a reference server from a test goroutine, which acts as the
// game thread for the lifetime of the test:
// - Overworld/Nether/End are the three default worlds
// - Join adds players, Spawn delivers natural spawn events
// - Step advances the clock without a ticker
type Harness struct {
	T *testing.T
	S *world.Server

	Overworld *world.World
	Nether    *world.World
	End       *world.World
}

// Quiet is a logger that discards output, for tests that do not inspect logs.
func Quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func NewHarness(t *testing.T) *Harness {
	t.Helper()
	return NewHarnessWithConfig(t, world.DefaultConfig())
}

func NewHarnessWithConfig(t *testing.T, cfg world.Config) *Harness {
	t.Helper()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("world config: %v", err)
	}
	s, err := world.NewServer(cfg, 20, 42, Quiet())
	if err != nil {
		t.Fatalf("world.NewServer: %v", err)
	}
	h := &Harness{T: t, S: s}
	h.Overworld, _ = s.Local("world")
	h.Nether, _ = s.Local("world_nether")
	h.End, _ = s.Local("world_the_end")
	return h
}

func (h *Harness) Listen(l host.Listener) { h.S.SetListener(l) }

func (h *Harness) Join(name string, w *world.World, level int, pos host.Vec3) *world.Player {
	h.T.Helper()
	p, err := h.S.AddPlayer(world.PlayerSpec{Name: name, World: w.Name(), Level: level, X: pos.X, Y: pos.Y, Z: pos.Z})
	if err != nil {
		h.T.Fatalf("join %s: %v", name, err)
	}
	return p
}

func (h *Harness) Spawn(w *world.World, s species.Species, pos host.Vec3) host.Creature {
	h.T.Helper()
	c, err := w.Spawn(pos, s, host.SpawnNatural)
	if err != nil {
		h.T.Fatalf("spawn %s: %v", s, err)
	}
	return c
}

// Populate adds a creature without events, as if loaded before the listener.
func (h *Harness) Populate(w *world.World, s species.Species, pos host.Vec3) host.Creature {
	h.T.Helper()
	c, err := w.Populate(pos, s)
	if err != nil {
		h.T.Fatalf("populate %s: %v", s, err)
	}
	return c
}

func (h *Harness) Step(n int) uint64 {
	var tick uint64
	for i := 0; i < n; i++ {
		tick = h.S.StepOnce()
	}
	return tick
}

// Mob unwraps the concrete base creature behind any host creature.
func Mob(c host.Creature) *world.Mob {
	switch v := c.(type) {
	case *world.Mob:
		return v
	case *world.Creeper:
		return v.Mob
	case *world.Slime:
		return v.Mob
	case *world.Pet:
		return v.Mob
	case *world.Summon:
		return v.Mob
	case *world.Stand:
		return v.Mob
	}
	return nil
}
