// Package shaper applies level-dependent max HP, equipment and effects to a
// creature. Engine-issued equipment always has a zero drop chance.
package shaper

import (
	"github.com/sirupsen/logrus"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/dice"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/tuning"
)

// SpeedDurationTicks is the duration of the "permanent" spider speed effect.
const SpeedDurationTicks = 9999

type Shaper struct {
	tune tuning.Tuning
	rng  dice.Rand
	log  *logrus.Entry
}

func New(tune tuning.Tuning, rng dice.Rand, log *logrus.Entry) *Shaper {
	return &Shaper{tune: tune, rng: rng, log: log.WithField("component", "shaper")}
}

// Apply equips c for level and resets its max HP and current HP. Creatures
// without a max-HP attribute keep their health.
func (s *Shaper) Apply(c host.Creature, level int) {
	s.Equip(c, level)
	if _, ok := c.MaxHealth(); !ok {
		return
	}
	hp := s.MaxHP(c, level)
	if err := c.SetMaxHealth(hp); err != nil {
		s.trace(c, "max_health", err)
		return
	}
	c.SetHealth(hp)
}

// MaxHP is (level²+40) · m · (1+ε), ε uniform in [-jitter, +jitter].
func (s *Shaper) MaxHP(c host.Creature, level int) float64 {
	eps := dice.Between(s.rng, -s.tune.HPJitter, s.tune.HPJitter)
	return BaseHP(level) * s.Multiplier(c) * (1 + eps)
}

func BaseHP(level int) float64 {
	l := float64(level)
	return l*l + 40
}

// Multiplier resolves m for c. Slimes scale with size and bosses with the
// number of players around them.
func (s *Shaper) Multiplier(c host.Creature) float64 {
	cat := species.HPCategory(c.Species())
	switch cat {
	case species.CategorySlime:
		size := 0
		if sz, ok := c.(host.Sized); ok {
			size = sz.Size()
		}
		return s.tune.SlimeHP.Base + s.tune.SlimeHP.PerSize*float64(size+1)
	case species.CategoryBoss:
		m := s.tune.BossHP.Base
		for _, p := range c.World().Players() {
			if p.Pos().Distance(c.Pos()) <= s.tune.BossPlayerRadius {
				m += dice.Between(s.rng, s.tune.BossHP.PerPlayerMin, s.tune.BossHP.PerPlayerMax)
			}
		}
		return m
	case species.CategoryUnknown:
		s.log.WithFields(logrus.Fields{
			"species":  c.Species().String(),
			"creature": c.ID().String(),
		}).Warn("no HP multiplier for species; using 1.0")
	}
	return s.tune.Multiplier(cat)
}

// Equip applies the species equipment policy. Host refusals are logged at
// trace and otherwise ignored.
func (s *Shaper) Equip(c host.Creature, level int) {
	sp := c.Species()
	switch {
	case species.IsZombieFamily(sp):
		weapon, helmet := ZombieWeapon(level)
		s.equip(c, host.SlotMainHand, weapon)
		if helmet {
			s.equip(c, host.SlotHelmet, host.Item(host.LeatherHelmet))
		}

	case sp == species.Spider || sp == species.CaveSpider:
		if level > 30 {
			s.effect(c, host.PotionEffect{Type: host.EffectSpeed, DurationTicks: SpeedDurationTicks, Amplifier: level / 30})
		}

	case sp == species.Skeleton:
		if level > 25 {
			s.equip(c, host.SlotMainHand, host.Item(host.Bow).With(host.Unbreaking, 1))
			s.equip(c, host.SlotHelmet, host.Item(host.LeatherHelmet))
		}

	case sp == species.Creeper:
		cr, ok := c.(host.Chargeable)
		if !ok {
			s.trace(c, "creeper", host.ErrUnsupported)
			return
		}
		switch {
		case level >= 60:
			cr.SetPowered(true)
		case level >= 30:
			if dice.Chance(s.rng, float64(level)/100) {
				cr.SetPowered(true)
			}
		}
		cr.SetMaxFuseTicks(CreeperFuse(level))

	case sp == species.Enderman:
		s.equip(c, host.SlotMainHand, host.Item(host.DiamondSword).With(host.Knockback, 3))
	case sp == species.PigZombie:
		s.equip(c, host.SlotMainHand, host.Item(host.GoldenSword).With(host.Unbreaking, 1))
	case sp == species.WitherSkeleton:
		s.equip(c, host.SlotMainHand, host.Item(host.StoneSword).With(host.Unbreaking, 1))

	case sp == species.Wither || sp == species.ElderGuardian || sp == species.EnderDragon:
		// Host defaults.
	default:
		s.log.WithField("species", sp.String()).Trace("no equipment policy")
	}
}

// ZombieWeapon is the zombie-family ladder. The checks run in order, so levels
// below 20 and exactly 30 fall through to the stone sword.
func ZombieWeapon(level int) (weapon host.ItemStack, helmet bool) {
	switch {
	case level >= 20 && level < 30:
		return host.Item(host.WoodenSword), false
	case level <= 30:
		return host.Item(host.StoneSword), false
	case level <= 35:
		return host.Item(host.IronSword), false
	case level <= 40:
		return host.Item(host.DiamondSword), false
	default:
		return host.Item(host.DiamondSword).With(host.Unbreaking, 1), true
	}
}

// CreeperFuse is 2 ticks above level 80, else ⌊40 - level/3⌋.
func CreeperFuse(level int) int {
	if level > 80 {
		return 2
	}
	return int(40 - float64(level)/3)
}

func (s *Shaper) equip(c host.Creature, slot host.Slot, item host.ItemStack) {
	if err := c.SetEquipment(slot, item, 0); err != nil {
		s.trace(c, slot.String(), err)
	}
}

func (s *Shaper) effect(c host.Creature, e host.PotionEffect) {
	if err := c.AddPotionEffect(e); err != nil {
		s.trace(c, e.Type, err)
	}
}

func (s *Shaper) trace(c host.Creature, what string, err error) {
	s.log.WithError(err).WithFields(logrus.Fields{
		"species":  c.Species().String(),
		"creature": c.ID().String(),
		"target":   what,
	}).Trace("host refused attribute")
}
