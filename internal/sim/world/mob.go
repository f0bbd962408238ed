package world

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
)

// Mob is the base creature. All fields except dead and nameVisible belong to
// the game thread.
type Mob struct {
	id      uuid.UUID
	species species.Species
	world   *World
	seq     uint64

	pos host.Vec3

	dead        atomic.Bool
	nameVisible atomic.Bool

	customName string
	nameWrites []string

	health       float64
	absorption   float64
	maxHealth    float64
	hasMaxHealth bool

	equipment map[host.Slot]Equipped
	effects   []host.PotionEffect
}

type Equipped struct {
	Item       host.ItemStack
	DropChance float64
}

var _ host.Creature = (*Mob)(nil)

func (m *Mob) ID() uuid.UUID            { return m.id }
func (m *Mob) Species() species.Species { return m.species }
func (m *Mob) Dead() bool               { return m.dead.Load() }
func (m *Mob) CustomNameVisible() bool  { return m.nameVisible.Load() }
func (m *Mob) World() host.World        { return m.world }
func (m *Mob) Pos() host.Vec3           { return m.pos }
func (m *Mob) DefaultName() string      { return m.species.DisplayName() }
func (m *Mob) CustomName() string       { return m.customName }
func (m *Mob) Health() float64          { return m.health }
func (m *Mob) Absorption() float64      { return m.absorption }

func (m *Mob) SetCustomName(name string) {
	m.customName = name
	m.nameWrites = append(m.nameWrites, name)
	if len(m.nameWrites) > 8 {
		m.nameWrites = m.nameWrites[len(m.nameWrites)-8:]
	}
}

// NameWrites returns the most recent SetCustomName arguments, oldest first.
func (m *Mob) NameWrites() []string {
	return append([]string(nil), m.nameWrites...)
}

func (m *Mob) SetCustomNameVisible(v bool) { m.nameVisible.Store(v) }

func (m *Mob) SetHealth(hp float64) {
	if m.hasMaxHealth && hp > m.maxHealth {
		hp = m.maxHealth
	}
	if hp < 0 {
		hp = 0
	}
	m.health = hp
}

func (m *Mob) SetAbsorption(v float64) { m.absorption = max(0, v) }

func (m *Mob) MaxHealth() (float64, bool) { return m.maxHealth, m.hasMaxHealth }

func (m *Mob) SetMaxHealth(hp float64) error {
	if !m.hasMaxHealth {
		return host.ErrUnsupported
	}
	m.maxHealth = hp
	if m.health > hp {
		m.health = hp
	}
	return nil
}

func (m *Mob) SetEquipment(slot host.Slot, item host.ItemStack, dropChance float64) error {
	if !hasHands(m.species) {
		return host.ErrUnsupported
	}
	if m.equipment == nil {
		m.equipment = map[host.Slot]Equipped{}
	}
	m.equipment[slot] = Equipped{Item: item, DropChance: dropChance}
	return nil
}

func (m *Mob) Equipment(slot host.Slot) (Equipped, bool) {
	e, ok := m.equipment[slot]
	return e, ok
}

func (m *Mob) AddPotionEffect(e host.PotionEffect) error {
	for i := range m.effects {
		if m.effects[i].Type == e.Type {
			m.effects[i] = e
			return nil
		}
	}
	m.effects = append(m.effects, e)
	return nil
}

func (m *Mob) Effect(kind string) (host.PotionEffect, bool) {
	for _, e := range m.effects {
		if e.Type == kind {
			return e, true
		}
	}
	return host.PotionEffect{}, false
}

// Teleport moves m within its world.
func (m *Mob) Teleport(pos host.Vec3) { m.pos = pos }

type Creeper struct {
	*Mob
	powered bool
	fuse    int
}

func (c *Creeper) Powered() bool         { return c.powered }
func (c *Creeper) SetPowered(p bool)     { c.powered = p }
func (c *Creeper) MaxFuseTicks() int     { return c.fuse }
func (c *Creeper) SetMaxFuseTicks(t int) { c.fuse = t }

type Slime struct {
	*Mob
	size int
}

func (s *Slime) Size() int        { return s.size }
func (s *Slime) SetSize(size int) { s.size = max(0, size) }

type Pet struct {
	*Mob
	owner    uuid.UUID
	hasOwner bool
}

func (p *Pet) Tamed() bool { return p.hasOwner }

func (p *Pet) Owner() (uuid.UUID, bool) { return p.owner, p.hasOwner }

type Summon struct {
	*Mob
	spawner    uuid.UUID
	hasSpawner bool
}

func (s *Summon) SpawningEntity() (uuid.UUID, bool) { return s.spawner, s.hasSpawner }

// SetSpawningEntity links a phantom to the player it was spawned for.
func (s *Summon) SetSpawningEntity(id uuid.UUID) {
	s.spawner = id
	s.hasSpawner = true
}

type Stand struct {
	*Mob
	marker bool
}

func (s *Stand) Marker() bool     { return s.marker }
func (s *Stand) SetMarker(v bool) { s.marker = v }

var baseHealth = map[species.Species]float64{
	species.Wither:        300,
	species.EnderDragon:   200,
	species.Giant:         100,
	species.ElderGuardian: 80,
	species.IronGolem:     100,
	species.Ravager:       100,
	species.Enderman:      40,
	species.Chicken:       4,
	species.Bat:           6,
	species.Silverfish:    8,
	species.Endermite:     8,
	species.Slime:         16,
	species.MagmaCube:     16,
}

func hasHands(s species.Species) bool {
	if species.IsZombieFamily(s) {
		return true
	}
	switch s {
	case species.Skeleton, species.Stray, species.WitherSkeleton, species.PigZombie,
		species.Enderman, species.Pillager, species.Vindicator, species.Evoker,
		species.Illusioner, species.Giant, species.ArmorStand, species.Witch:
		return true
	}
	return false
}

func newCreature(w *World, s species.Species, pos host.Vec3) (host.Creature, *Mob) {
	hp, ok := baseHealth[s]
	if !ok {
		hp = 20
	}
	m := &Mob{
		id:           uuid.New(),
		species:      s,
		world:        w,
		pos:          pos,
		health:       hp,
		maxHealth:    hp,
		hasMaxHealth: s != species.ArmorStand,
	}
	switch {
	case s == species.Creeper:
		return &Creeper{Mob: m, fuse: 30}, m
	case s == species.Slime || s == species.MagmaCube:
		return &Slime{Mob: m, size: 1}, m
	case species.IsTameable(s):
		return &Pet{Mob: m}, m
	case s == species.Phantom:
		return &Summon{Mob: m}, m
	case s == species.ArmorStand:
		return &Stand{Mob: m}, m
	}
	return m, m
}
