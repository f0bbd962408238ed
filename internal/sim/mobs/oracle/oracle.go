// Package oracle assigns a creature its first level from species, dimension,
// biome and the levels of nearby players.
package oracle

import (
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/dice"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/tuning"
)

type biomeKey struct {
	world string
	block [3]int
}

type Oracle struct {
	host host.Host
	tune tuning.Tuning
	rng  dice.Rand
	log  *logrus.Entry

	biomes *expirable.LRU[biomeKey, host.Biome]
}

func New(h host.Host, tune tuning.Tuning, rng dice.Rand, log *logrus.Entry) *Oracle {
	return &Oracle{
		host:   h,
		tune:   tune,
		rng:    rng,
		log:    log.WithField("component", "oracle"),
		biomes: expirable.NewLRU[biomeKey, host.Biome](tune.BiomeCache.Size, nil, tune.BiomeCache.TTL),
	}
}

// InitialLevel never returns less than 1.
func (o *Oracle) InitialLevel(c host.Creature) int {
	return max(1, o.level(c))
}

func (o *Oracle) level(c host.Creature) int {
	switch s := c.Species(); s {
	case species.Zombie, species.Spider, species.Skeleton, species.Creeper:
		return o.AveragePlayerLevel(c.World(), c.Pos(), o.tune.NearbyPlayerRadius, true, o.tune.LevelCap)

	case species.CaveSpider, species.Slime, species.Witch:
		return o.roll(tuning.RangeCave)
	case species.Husk, species.Stray:
		return o.roll(tuning.RangeDesert)
	case species.Guardian, species.Drowned:
		return o.roll(tuning.RangeOcean)
	case species.ElderGuardian:
		return o.roll(tuning.RangeElderGuardian)
	case species.Villager, species.Pillager, species.Vindicator, species.Vex,
		species.Ravager, species.IronGolem, species.ZombieVillager,
		species.Illusioner, species.Evoker:
		return o.roll(tuning.RangeVillage)
	case species.Silverfish:
		return o.roll(tuning.RangeSilverfish)

	case species.Enderman:
		return o.roll(o.endermanRule(c))
	case species.Shulker, species.Endermite:
		return o.roll(tuning.RangeEndDwellers)
	case species.Wither:
		return o.roll(tuning.RangeWither)
	case species.EnderDragon:
		return o.roll(tuning.RangeEnderDragon) + WorldAverageLevel(c.World())

	case species.PigZombie, species.MagmaCube:
		return o.roll(tuning.RangeNetherPlains)
	case species.Ghast:
		return o.roll(tuning.RangeGhast)
	case species.Blaze:
		return o.roll(tuning.RangeBlaze)
	case species.WitherSkeleton:
		return o.roll(tuning.RangeWitherSkeleton)

	case species.PolarBear, species.TraderLlama:
		return o.roll(tuning.RangeFrozen)

	case species.Phantom:
		if p, ok := c.(host.Summoned); ok {
			if id, ok := p.SpawningEntity(); ok {
				if target, ok := o.host.Player(id); ok {
					return target.Level()
				}
			}
		}
		return o.roll(tuning.RangePhantomUntargeted)

	case species.Wolf, species.Cat, species.Parrot, species.Horse,
		species.SkeletonHorse, species.ZombieHorse, species.Llama,
		species.Mule, species.Donkey:
		if lvl, ok := o.ownerLevel(c); ok {
			return lvl
		}
		return o.roll(tuning.RangeUntamed)

	case species.Bee, species.WanderingTrader, species.Fox:
		return o.roll(tuning.RangeCritters)
	case species.Pig, species.Cow, species.Mooshroom, species.Sheep,
		species.Panda, species.Squid, species.Dolphin:
		return o.roll(tuning.RangeLivestock)
	case species.Chicken, species.Salmon, species.Rabbit, species.Cod,
		species.Bat, species.Ocelot, species.SnowGolem, species.Pufferfish,
		species.TropicalFish, species.Turtle, species.ArmorStand:
		return o.roll(tuning.RangeTrivial)

	default:
		o.log.WithFields(logrus.Fields{
			"species":  s.String(),
			"creature": c.ID().String(),
		}).Warn("no level rule for species; defaulting to level 1")
		return 1
	}
}

func (o *Oracle) roll(rule string) int {
	r := o.tune.Range(rule)
	return r.Base + dice.Upto(o.rng, r.Spread)
}

func (o *Oracle) endermanRule(c host.Creature) string {
	w := c.World()
	switch w.Environment() {
	case host.Overworld:
		return tuning.RangeEndermanOverworld
	case host.Nether:
		return tuning.RangeEndermanNether
	}
	switch o.BiomeAt(w, c.Pos()) {
	case host.BiomeTheEnd:
		return tuning.RangeEndermanEndMain
	case host.BiomeEndHighlands:
		return tuning.RangeEndermanEndHighlands
	case host.BiomeEndMidlands:
		return tuning.RangeEndermanEndMidlands
	default:
		return tuning.RangeEndermanEndOuter
	}
}

// BiomeAt caches biome lookups per block.
func (o *Oracle) BiomeAt(w host.World, pos host.Vec3) host.Biome {
	key := biomeKey{world: w.Name(), block: pos.Block()}
	if b, ok := o.biomes.Get(key); ok {
		return b
	}
	b := w.BiomeAt(pos)
	o.biomes.Add(key, b)
	return b
}

func (o *Oracle) ownerLevel(c host.Creature) (int, bool) {
	t, ok := c.(host.Tameable)
	if !ok {
		return 0, false
	}
	id, ok := t.Owner()
	if !ok {
		return 0, false
	}
	p, ok := o.host.Player(id)
	if !ok {
		return 0, false
	}
	return p.Level(), true
}

// AveragePlayerLevel scales mob levels to the survival players within radius
// of pos. The running total starts at 1 and is integer-divided by the player
// count before scaling.
func (o *Oracle) AveragePlayerLevel(w host.World, pos host.Vec3, radius float64, yModifier bool, levelCap int) int {
	total, n := 1, 0
	for _, p := range w.Players() {
		if gm := p.GameMode(); gm == host.Spectator || gm == host.Creative {
			continue
		}
		if p.Pos().Distance(pos) < radius {
			n++
			total += p.Level()
		}
	}
	yMod := 0
	if yModifier && pos.Y < 50 {
		yMod = int(12 - pos.Y/7)
	}
	if n > 0 {
		level := int(float64(total/n)/1.2 + (o.rng.Float64()*5 - 3 + float64(yMod)))
		return clamp(level, 1, levelCap)
	}
	return clamp(int(o.rng.Float64()*5+float64(yMod)), 1, levelCap)
}

// WorldAverageLevel is the integer mean level of every player in w, 0 when empty.
func WorldAverageLevel(w host.World) int {
	players := w.Players()
	if len(players) == 0 {
		return 0
	}
	total := 0
	for _, p := range players {
		total += p.Level()
	}
	return total / len(players)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
