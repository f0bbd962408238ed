package species

import (
	"fmt"
	"sort"
	"strings"
)

// Species is a closed tag over every creature kind the engine dispatches on.
// The zero value is Unknown.
type Species uint8

const (
	Unknown Species = iota

	Zombie
	ZombieVillager
	Husk
	Drowned
	Skeleton
	Stray
	WitherSkeleton
	Spider
	CaveSpider
	Creeper
	Enderman
	Endermite
	Shulker
	Silverfish
	Slime
	MagmaCube
	Witch
	Guardian
	ElderGuardian
	Villager
	WanderingTrader
	Pillager
	Vindicator
	Evoker
	Illusioner
	Ravager
	Vex
	IronGolem
	SnowGolem
	Wither
	EnderDragon
	Giant
	PigZombie
	Ghast
	Blaze
	PolarBear
	TraderLlama
	Llama
	Phantom
	Wolf
	Cat
	Parrot
	Horse
	SkeletonHorse
	ZombieHorse
	Mule
	Donkey
	Bee
	Fox
	Pig
	Cow
	Mooshroom
	Sheep
	Panda
	Squid
	Dolphin
	Chicken
	Salmon
	Rabbit
	Cod
	Bat
	Ocelot
	Pufferfish
	TropicalFish
	Turtle
	ArmorStand
	Player

	count
)

var names = [count]string{
	Unknown:         "UNKNOWN",
	Zombie:          "ZOMBIE",
	ZombieVillager:  "ZOMBIE_VILLAGER",
	Husk:            "HUSK",
	Drowned:         "DROWNED",
	Skeleton:        "SKELETON",
	Stray:           "STRAY",
	WitherSkeleton:  "WITHER_SKELETON",
	Spider:          "SPIDER",
	CaveSpider:      "CAVE_SPIDER",
	Creeper:         "CREEPER",
	Enderman:        "ENDERMAN",
	Endermite:       "ENDERMITE",
	Shulker:         "SHULKER",
	Silverfish:      "SILVERFISH",
	Slime:           "SLIME",
	MagmaCube:       "MAGMA_CUBE",
	Witch:           "WITCH",
	Guardian:        "GUARDIAN",
	ElderGuardian:   "ELDER_GUARDIAN",
	Villager:        "VILLAGER",
	WanderingTrader: "WANDERING_TRADER",
	Pillager:        "PILLAGER",
	Vindicator:      "VINDICATOR",
	Evoker:          "EVOKER",
	Illusioner:      "ILLUSIONER",
	Ravager:         "RAVAGER",
	Vex:             "VEX",
	IronGolem:       "IRON_GOLEM",
	SnowGolem:       "SNOWMAN",
	Wither:          "WITHER",
	EnderDragon:     "ENDER_DRAGON",
	Giant:           "GIANT",
	PigZombie:       "PIG_ZOMBIE",
	Ghast:           "GHAST",
	Blaze:           "BLAZE",
	PolarBear:       "POLAR_BEAR",
	TraderLlama:     "TRADER_LLAMA",
	Llama:           "LLAMA",
	Phantom:         "PHANTOM",
	Wolf:            "WOLF",
	Cat:             "CAT",
	Parrot:          "PARROT",
	Horse:           "HORSE",
	SkeletonHorse:   "SKELETON_HORSE",
	ZombieHorse:     "ZOMBIE_HORSE",
	Mule:            "MULE",
	Donkey:          "DONKEY",
	Bee:             "BEE",
	Fox:             "FOX",
	Pig:             "PIG",
	Cow:             "COW",
	Mooshroom:       "MUSHROOM_COW",
	Sheep:           "SHEEP",
	Panda:           "PANDA",
	Squid:           "SQUID",
	Dolphin:         "DOLPHIN",
	Chicken:         "CHICKEN",
	Salmon:          "SALMON",
	Rabbit:          "RABBIT",
	Cod:             "COD",
	Bat:             "BAT",
	Ocelot:          "OCELOT",
	Pufferfish:      "PUFFERFISH",
	TropicalFish:    "TROPICAL_FISH",
	Turtle:          "TURTLE",
	ArmorStand:      "ARMOR_STAND",
	Player:          "PLAYER",
}

// displayOverrides covers species whose in-game name is not derived from the tag.
var displayOverrides = map[Species]string{
	SnowGolem:   "Snow Golem",
	Mooshroom:   "Mooshroom",
	PigZombie:   "Zombie Pigman",
	EnderDragon: "Ender Dragon",
}

var byName map[string]Species

func init() {
	byName = make(map[string]Species, len(names))
	for i, n := range names {
		byName[n] = Species(i)
	}
}

func (s Species) String() string {
	if s >= count {
		return names[Unknown]
	}
	return names[s]
}

// DisplayName is the default creature name shown before any custom name is set.
func (s Species) DisplayName() string {
	if n, ok := displayOverrides[s]; ok {
		return n
	}
	parts := strings.Split(strings.ToLower(s.String()), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// Parse maps an upper-case tag (ZOMBIE, CAVE_SPIDER, ...) to a Species.
func Parse(name string) (Species, bool) {
	s, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok || s == Unknown {
		return Unknown, false
	}
	return s, true
}

func (s Species) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Species) UnmarshalText(b []byte) error {
	v, ok := Parse(string(b))
	if !ok {
		return fmt.Errorf("unknown species %q", string(b))
	}
	*s = v
	return nil
}

// All returns every known species (excluding Unknown) sorted by tag.
func All() []Species {
	out := make([]Species, 0, int(count)-1)
	for i := Species(1); i < count; i++ {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
