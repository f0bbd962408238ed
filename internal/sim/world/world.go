package world

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
)

var (
	ErrUnknownWorld = errors.New("world: unknown world")
	ErrNotSpawnable = errors.New("world: species cannot be spawned")
)

type region struct {
	biome                  host.Biome
	minX, minZ, maxX, maxZ float64
}

// World is one dimension of the reference host. Like the server, it must only
// be touched from the game thread.
type World struct {
	srv  *Server
	spec WorldSpec

	env          host.Environment
	defaultBiome host.Biome
	regions      []region
	pool         []species.Species

	creatures map[uuid.UUID]entity
	players   []*Player
	sounds    []SoundEvent
	drops     []host.ItemStack
}

type entity struct {
	c   host.Creature
	mob *Mob
}

type SoundEvent struct {
	Pos    host.Vec3
	Sound  host.Sound
	Volume float32
	Pitch  float32
}

var _ host.World = (*World)(nil)

func newWorld(srv *Server, spec WorldSpec) (*World, error) {
	env, ok := host.ParseEnvironment(spec.Environment)
	if !ok {
		return nil, fmt.Errorf("world %s: unknown environment %q", spec.Name, spec.Environment)
	}
	def, _ := host.ParseBiome(spec.DefaultBiome)
	w := &World{
		srv:          srv,
		spec:         spec,
		env:          env,
		defaultBiome: def,
		creatures:    map[uuid.UUID]entity{},
	}
	for _, r := range spec.Regions {
		b, _ := host.ParseBiome(r.Biome)
		w.regions = append(w.regions, region{biome: b, minX: r.MinX, minZ: r.MinZ, maxX: r.MaxX, maxZ: r.MaxZ})
	}
	for _, s := range spec.SpawnPool {
		if sp, ok := species.Parse(s); ok {
			w.pool = append(w.pool, sp)
		}
	}
	return w, nil
}

func (w *World) Name() string                  { return w.spec.Name }
func (w *World) Environment() host.Environment { return w.env }

func (w *World) Players() []host.Player {
	out := make([]host.Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	return out
}

// Creatures lists live creatures in spawn order.
func (w *World) Creatures() []host.Creature {
	ents := make([]entity, 0, len(w.creatures))
	for _, e := range w.creatures {
		ents = append(ents, e)
	}
	sort.Slice(ents, func(i, j int) bool { return ents[i].mob.seq < ents[j].mob.seq })
	out := make([]host.Creature, 0, len(ents))
	for _, e := range ents {
		out = append(out, e.c)
	}
	return out
}

// BiomeAt uses the last region containing pos, else the default biome.
func (w *World) BiomeAt(pos host.Vec3) host.Biome {
	for i := len(w.regions) - 1; i >= 0; i-- {
		r := w.regions[i]
		if pos.X >= r.minX && pos.X <= r.maxX && pos.Z >= r.minZ && pos.Z <= r.maxZ {
			return r.biome
		}
	}
	return w.defaultBiome
}

// Spawn adds a creature and delivers the spawn and natural-spawn events.
func (w *World) Spawn(pos host.Vec3, s species.Species, reason host.SpawnReason) (host.Creature, error) {
	c, err := w.place(pos, s)
	if err != nil {
		return nil, err
	}
	if l := w.srv.listener; l != nil {
		l.OnCreatureSpawn(c)
		if _, alive := w.creatures[c.ID()]; alive {
			l.OnCreatureNaturalSpawn(c, reason)
		}
	}
	return c, nil
}

// Populate adds a creature without delivering any events, as if it had been
// loaded from disk before listeners were attached.
func (w *World) Populate(pos host.Vec3, s species.Species) (host.Creature, error) {
	return w.place(pos, s)
}

func (w *World) place(pos host.Vec3, s species.Species) (host.Creature, error) {
	if s == species.Unknown || s == species.Player {
		return nil, fmt.Errorf("%w: %s", ErrNotSpawnable, s)
	}
	c, m := newCreature(w, s, pos)
	m.seq = w.srv.nextSeq()
	w.creatures[m.id] = entity{c: c, mob: m}
	return c, nil
}

func (w *World) Remove(c host.Creature) {
	e, ok := w.creatures[c.ID()]
	if !ok {
		return
	}
	e.mob.dead.Store(true)
	delete(w.creatures, c.ID())
}

func (w *World) PlaySound(pos host.Vec3, sound host.Sound, volume, pitch float32) {
	w.sounds = append(w.sounds, SoundEvent{Pos: pos, Sound: sound, Volume: volume, Pitch: pitch})
}

// Sounds returns every sound played so far.
func (w *World) Sounds() []SoundEvent { return append([]SoundEvent(nil), w.sounds...) }

// Drops returns every item spilled by deaths so far.
func (w *World) Drops() []host.ItemStack { return append([]host.ItemStack(nil), w.drops...) }

func (w *World) mob(c host.Creature) (*Mob, bool) {
	e, ok := w.creatures[c.ID()]
	return e.mob, ok
}

// Damage delivers the damage event, applies amount, and kills the creature when
// its health reaches zero. It reports whether the creature died.
func (w *World) Damage(c host.Creature, amount float64) (bool, error) {
	m, ok := w.mob(c)
	if !ok {
		return false, fmt.Errorf("world %s: creature %s not found", w.Name(), c.ID())
	}
	if l := w.srv.listener; l != nil {
		l.OnCreatureDamage(c, amount)
	}
	m.health -= amount
	if m.health > 0 {
		return false, nil
	}
	m.health = 0
	w.kill(c, m)
	return true, nil
}

func (w *World) Kill(c host.Creature) error {
	m, ok := w.mob(c)
	if !ok {
		return fmt.Errorf("world %s: creature %s not found", w.Name(), c.ID())
	}
	m.health = 0
	w.kill(c, m)
	return nil
}

func (w *World) kill(c host.Creature, m *Mob) {
	drops := vanillaDrops(m.species)
	m.dead.Store(true)
	delete(w.creatures, m.id)
	if l := w.srv.listener; l != nil {
		drops = l.OnCreatureDeath(c, drops)
	}
	w.drops = append(w.drops, drops...)
}

func (w *World) Heal(c host.Creature, amount float64) error {
	m, ok := w.mob(c)
	if !ok {
		return fmt.Errorf("world %s: creature %s not found", w.Name(), c.ID())
	}
	if l := w.srv.listener; l != nil {
		l.OnCreatureHeal(c, amount)
	}
	m.SetHealth(m.health + amount)
	return nil
}

// Tame hands c to owner. A nil owner models a non-player owner.
func (w *World) Tame(c host.Creature, owner *Player) error {
	pet, ok := c.(*Pet)
	if !ok {
		return fmt.Errorf("%w: %s is not tameable", host.ErrUnsupported, c.Species())
	}
	if owner != nil {
		pet.owner, pet.hasOwner = owner.id, true
	} else {
		pet.owner, pet.hasOwner = uuid.New(), true
	}
	if l := w.srv.listener; l != nil {
		var p host.Player
		if owner != nil {
			p = owner
		}
		l.OnCreatureTamed(c, p)
	}
	return nil
}

func vanillaDrops(s species.Species) []host.ItemStack {
	switch {
	case species.IsZombieFamily(s):
		return []host.ItemStack{{Material: "ROTTEN_FLESH", Amount: 1}}
	case s == species.Skeleton || s == species.Stray:
		return []host.ItemStack{{Material: "BONE", Amount: 1}, {Material: "ARROW", Amount: 1}}
	case s == species.Spider || s == species.CaveSpider:
		return []host.ItemStack{{Material: "STRING", Amount: 1}}
	case s == species.Creeper:
		return []host.ItemStack{{Material: "GUNPOWDER", Amount: 1}}
	}
	return nil
}
