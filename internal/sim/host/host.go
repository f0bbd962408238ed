// Package host is the boundary between the mob engine and the game server that
// owns creatures. The engine never owns a Creature; it keys its records by ID and
// tolerates creatures disappearing underneath it.
//
// Unless noted otherwise, methods must be called on the game thread.
package host

import (
	"errors"

	"github.com/google/uuid"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
)

// ErrUnsupported is returned when a creature refuses a mutation (no such slot,
// attribute or capability).
var ErrUnsupported = errors.New("host: unsupported on this creature")

type Environment uint8

const (
	Overworld Environment = iota
	Nether
	End
)

func (e Environment) String() string {
	switch e {
	case Nether:
		return "NETHER"
	case End:
		return "THE_END"
	default:
		return "NORMAL"
	}
}

func ParseEnvironment(s string) (Environment, bool) {
	switch s {
	case "NORMAL", "OVERWORLD":
		return Overworld, true
	case "NETHER":
		return Nether, true
	case "THE_END", "END":
		return End, true
	}
	return Overworld, false
}

type GameMode uint8

const (
	Survival GameMode = iota
	Creative
	Adventure
	Spectator
)

func ParseGameMode(s string) (GameMode, bool) {
	switch s {
	case "", "SURVIVAL":
		return Survival, true
	case "CREATIVE":
		return Creative, true
	case "ADVENTURE":
		return Adventure, true
	case "SPECTATOR":
		return Spectator, true
	}
	return Survival, false
}

type SpawnReason string

const (
	SpawnNatural  SpawnReason = "NATURAL"
	SpawnCustom   SpawnReason = "CUSTOM"
	SpawnSpawner  SpawnReason = "SPAWNER"
	SpawnBreeding SpawnReason = "BREEDING"
	SpawnEgg      SpawnReason = "SPAWNER_EGG"
	SpawnDefault  SpawnReason = "DEFAULT"
)

type Sound string

const SoundPlayerLevelUp Sound = "ENTITY_PLAYER_LEVELUP"

type Player interface {
	ID() uuid.UUID
	Name() string
	Level() int
	GameMode() GameMode
	Pos() Vec3
}

// Creature is a live, non-owned world creature.
//
// ID, Species, Dead and CustomNameVisible are read by the background sweeper
// and must be safe to call from any goroutine.
type Creature interface {
	ID() uuid.UUID
	Species() species.Species
	Dead() bool
	CustomNameVisible() bool

	World() World
	Pos() Vec3

	// DefaultName is the undecorated species name the host would display.
	DefaultName() string
	// CustomName returns "" when no custom name is set.
	CustomName() string
	// SetCustomName("") clears the name.
	SetCustomName(name string)
	SetCustomNameVisible(visible bool)

	Health() float64
	Absorption() float64
	SetHealth(hp float64)
	// MaxHealth reports false when the creature has no max-HP attribute.
	MaxHealth() (float64, bool)
	SetMaxHealth(hp float64) error

	SetEquipment(slot Slot, item ItemStack, dropChance float64) error
	AddPotionEffect(effect PotionEffect) error
}

// Tameable is implemented by creatures that can be owned by a player.
type Tameable interface {
	Tamed() bool
	// Owner returns the owning entity's ID; ok is false when unowned.
	Owner() (id uuid.UUID, ok bool)
}

// Chargeable is implemented by creepers.
type Chargeable interface {
	Powered() bool
	SetPowered(powered bool)
	MaxFuseTicks() int
	SetMaxFuseTicks(ticks int)
}

// Sized is implemented by slimes and magma cubes.
type Sized interface {
	Size() int
}

// Summoned is implemented by creatures spawned on behalf of a player (phantoms).
type Summoned interface {
	SpawningEntity() (id uuid.UUID, ok bool)
}

// Marker is implemented by armor stands.
type Marker interface {
	Marker() bool
}

type World interface {
	Name() string
	Environment() Environment
	Players() []Player
	Creatures() []Creature
	BiomeAt(pos Vec3) Biome
	// Spawn creates a creature and delivers its spawn events before returning.
	Spawn(pos Vec3, s species.Species, reason SpawnReason) (Creature, error)
	Remove(c Creature)
	PlaySound(pos Vec3, sound Sound, volume, pitch float32)
}

type Host interface {
	Worlds() []World
	World(name string) (World, bool)
	Player(id uuid.UUID) (Player, bool)
}

// Listener receives creature events from the host, in arrival order, on the
// game thread. Implementations must not panic back into the host.
type Listener interface {
	OnCreatureSpawn(c Creature)
	OnCreatureNaturalSpawn(c Creature, reason SpawnReason)
	// OnCreatureDamage fires before finalDamage is applied to c.
	OnCreatureDamage(c Creature, finalDamage float64)
	// OnCreatureHeal fires before amount is applied to c.
	OnCreatureHeal(c Creature, amount float64)
	// OnCreatureDeath returns the drops the host should spill.
	OnCreatureDeath(c Creature, drops []ItemStack) []ItemStack
	// OnCreatureTamed passes a nil owner when the new owner is not a player.
	OnCreatureTamed(c Creature, owner Player)
}
