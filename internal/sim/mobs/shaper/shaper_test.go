package shaper_test

import (
	"math"
	"testing"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/dice"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/shaper"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/tuning"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/worldtest"
)

func newShaper(r dice.Rand) *shaper.Shaper {
	return shaper.New(tuning.Defaults(), r, worldtest.Quiet().WithField("test", true))
}

func TestZombieWeaponLadder(t *testing.T) {
	cases := []struct {
		level  int
		weapon host.Material
		helmet bool
	}{
		{19, host.StoneSword, false},
		{20, host.WoodenSword, false},
		{21, host.WoodenSword, false},
		{29, host.WoodenSword, false},
		{30, host.StoneSword, false},
		{31, host.IronSword, false},
		{35, host.IronSword, false},
		{36, host.DiamondSword, false},
		{40, host.DiamondSword, false},
		{41, host.DiamondSword, true},
	}
	for _, tc := range cases {
		weapon, helmet := shaper.ZombieWeapon(tc.level)
		if weapon.Material != tc.weapon || helmet != tc.helmet {
			t.Fatalf("level %d: weapon=%s helmet=%v want %s %v", tc.level, weapon.Material, helmet, tc.weapon, tc.helmet)
		}
	}
	if w, _ := shaper.ZombieWeapon(41); w.Enchantment(host.Unbreaking) != 1 {
		t.Fatalf("level 41 sword should carry unbreaking 1")
	}
}

func TestZombieEquipmentHasZeroDropChance(t *testing.T) {
	h := worldtest.NewHarness(t)
	c := h.Populate(h.Overworld, species.Husk, host.Vec3{Y: 64})
	newShaper(dice.New(1)).Apply(c, 45)

	m := worldtest.Mob(c)
	hand, ok := m.Equipment(host.SlotMainHand)
	if !ok || hand.Item.Material != host.DiamondSword || hand.DropChance != 0 {
		t.Fatalf("main hand=%+v ok=%v", hand, ok)
	}
	helmet, ok := m.Equipment(host.SlotHelmet)
	if !ok || helmet.Item.Material != host.LeatherHelmet || helmet.DropChance != 0 {
		t.Fatalf("helmet=%+v ok=%v", helmet, ok)
	}
}

func TestCreeperCharging(t *testing.T) {
	h := worldtest.NewHarness(t)
	cases := []struct {
		level   int
		roll    float64
		powered bool
		fuse    int
	}{
		{29, 0.0, false, 30},
		{30, 0.29, true, 30},
		{59, 0.58, true, 20},
		{59, 0.59, false, 20},
		{60, 0.99, true, 20},
		{80, 0.99, true, 13},
		{81, 0.99, true, 2},
	}
	for _, tc := range cases {
		c := h.Populate(h.Overworld, species.Creeper, host.Vec3{})
		newShaper(&dice.Fixed{Floats: []float64{tc.roll}}).Equip(c, tc.level)
		cr := c.(host.Chargeable)
		if cr.Powered() != tc.powered || cr.MaxFuseTicks() != tc.fuse {
			t.Fatalf("level %d roll %v: powered=%v fuse=%d want %v %d", tc.level, tc.roll, cr.Powered(), cr.MaxFuseTicks(), tc.powered, tc.fuse)
		}
	}
}

func TestSpiderSpeed(t *testing.T) {
	h := worldtest.NewHarness(t)
	s := newShaper(dice.New(2))

	c30 := h.Populate(h.Overworld, species.Spider, host.Vec3{})
	s.Equip(c30, 30)
	if _, ok := worldtest.Mob(c30).Effect(host.EffectSpeed); ok {
		t.Fatalf("level 30 spider should have no speed effect")
	}

	c31 := h.Populate(h.Overworld, species.CaveSpider, host.Vec3{})
	s.Equip(c31, 31)
	e, ok := worldtest.Mob(c31).Effect(host.EffectSpeed)
	if !ok || e.Amplifier != 1 || e.DurationTicks != shaper.SpeedDurationTicks {
		t.Fatalf("level 31 effect=%+v ok=%v", e, ok)
	}

	c60 := h.Populate(h.Overworld, species.Spider, host.Vec3{})
	s.Equip(c60, 60)
	if e, _ := worldtest.Mob(c60).Effect(host.EffectSpeed); e.Amplifier != 2 {
		t.Fatalf("level 60 amplifier=%d want 2", e.Amplifier)
	}
}

func TestSpeciesWeapons(t *testing.T) {
	h := worldtest.NewHarness(t)
	s := newShaper(dice.New(3))
	cases := []struct {
		sp    species.Species
		level int
		item  host.Material
		ench  host.Enchantment
		lvl   int
	}{
		{species.Enderman, 50, host.DiamondSword, host.Knockback, 3},
		{species.PigZombie, 40, host.GoldenSword, host.Unbreaking, 1},
		{species.WitherSkeleton, 50, host.StoneSword, host.Unbreaking, 1},
		{species.Skeleton, 26, host.Bow, host.Unbreaking, 1},
	}
	for _, tc := range cases {
		c := h.Populate(h.Overworld, tc.sp, host.Vec3{})
		s.Equip(c, tc.level)
		got, ok := worldtest.Mob(c).Equipment(host.SlotMainHand)
		if !ok || got.Item.Material != tc.item || got.Item.Enchantment(tc.ench) != tc.lvl || got.DropChance != 0 {
			t.Fatalf("%s: main hand=%+v ok=%v", tc.sp, got, ok)
		}
	}

	sk := h.Populate(h.Overworld, species.Skeleton, host.Vec3{})
	s.Equip(sk, 25)
	if _, ok := worldtest.Mob(sk).Equipment(host.SlotMainHand); ok {
		t.Fatalf("level 25 skeleton should keep host equipment")
	}
}

func TestMaxHPWithinJitter(t *testing.T) {
	h := worldtest.NewHarness(t)
	s := newShaper(dice.New(4))
	mults := map[species.Species]float64{
		species.Zombie:   1.0,
		species.Enderman: 1.35,
		species.Creeper:  0.8,
		species.Cow:      0.75,
		species.Chicken:  0.4,
		species.Bee:      0.5,
	}
	for sp, m := range mults {
		for level := 1; level <= 100; level++ {
			c := h.Populate(h.Overworld, sp, host.Vec3{})
			s.Apply(c, level)
			maxHP, ok := c.MaxHealth()
			if !ok {
				t.Fatalf("%s has no max HP", sp)
			}
			want := shaper.BaseHP(level) * m
			if maxHP < want*0.95-1e-9 || maxHP > want*1.05+1e-9 {
				t.Fatalf("%s level %d: max=%v want %v±5%%", sp, level, maxHP, want)
			}
			if c.Health() != maxHP {
				t.Fatalf("%s level %d: health=%v want %v", sp, level, c.Health(), maxHP)
			}
		}
	}
}

func TestSlimeAndBossMultipliers(t *testing.T) {
	h := worldtest.NewHarness(t)
	s := newShaper(&dice.Fixed{Floats: []float64{0.5}})

	slime := h.Populate(h.Overworld, species.Slime, host.Vec3{})
	if got := s.Multiplier(slime); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("slime size 1 multiplier=%v want 0.6", got)
	}

	h.Join("a", h.End, 10, host.Vec3{X: 10})
	h.Join("b", h.End, 10, host.Vec3{X: 20})
	h.Join("far", h.End, 10, host.Vec3{X: 5000})
	dragon := h.Populate(h.End, species.EnderDragon, host.Vec3{})
	if got := s.Multiplier(dragon); math.Abs(got-550) > 1e-9 {
		t.Fatalf("boss multiplier=%v want 550", got)
	}
}

func TestApplySkipsCreaturesWithoutMaxHP(t *testing.T) {
	h := worldtest.NewHarness(t)
	stand := h.Populate(h.Overworld, species.ArmorStand, host.Vec3{})
	before := stand.Health()
	newShaper(dice.New(5)).Apply(stand, 50)
	if stand.Health() != before {
		t.Fatalf("health=%v want %v", stand.Health(), before)
	}
}
