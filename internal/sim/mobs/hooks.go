package mobs

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/metrics"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/dice"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
)

// Level-up chime played on tame.
const (
	tameVolume = 0.5
	tamePitch  = 0.5
)

func (e *Engine) OnCreatureSpawn(c host.Creature) {
	defer e.recoverHook("spawn", c)
	if !species.Tracked(c.Species()) {
		return
	}
	e.GetOrCompute(c)
	e.Render(c, 0)
}

// OnCreatureNaturalSpawn rolls for an extra catalog mob at the spawn site.
// The roll happens in every dimension; only dimensions with a catalog entry
// (the End by default) ever spawn one.
func (e *Engine) OnCreatureNaturalSpawn(c host.Creature, reason host.SpawnReason) {
	defer e.recoverHook("natural_spawn", c)
	if reason == host.SpawnCustom || !dice.Chance(e.rng, e.tune.CustomMobSpawnChance) {
		return
	}
	w := c.World()
	def, ok := e.cats.CustomMobs.NaturalFor(w.Environment())
	if !ok {
		return
	}
	start := time.Now()
	spawned, err := e.SpawnCustom(w, c.Pos(), def.ID)
	if err != nil {
		e.log.WithError(err).WithField("custom_mob", def.ID).Warn("custom mob spawn failed")
		return
	}
	e.log.WithFields(logrus.Fields{
		"custom_mob": def.ID,
		"creature":   spawned.ID().String(),
		"world":      w.Name(),
		"took_us":    time.Since(start).Microseconds(),
	}).Debug("custom mob spawned")
}

func (e *Engine) OnCreatureDamage(c host.Creature, finalDamage float64) {
	defer e.recoverHook("damage", c)
	if !species.Tracked(c.Species()) {
		return
	}
	c.SetCustomNameVisible(true)
	e.Render(c, -finalDamage)
}

func (e *Engine) OnCreatureHeal(c host.Creature, amount float64) {
	defer e.recoverHook("heal", c)
	if !species.Tracked(c.Species()) {
		return
	}
	e.Render(c, amount)
}

// OnCreatureDeath forgets c; custom mobs replace the drops with their loot.
func (e *Engine) OnCreatureDeath(c host.Creature, drops []host.ItemStack) (out []host.ItemStack) {
	out = drops
	defer e.recoverHook("death", c)
	behavior, isCustom := e.reg.Custom(c)
	st, had := e.reg.Forget(c)
	e.gauge()
	if had {
		e.record(KindDeath, c, st.Level, "")
	}
	if isCustom {
		return behavior.Loot(e.rng)
	}
	return drops
}

// OnCreatureTamed raises c to its new owner's level. Non-player owners are
// ignored.
func (e *Engine) OnCreatureTamed(c host.Creature, owner host.Player) {
	defer e.recoverHook("tame", c)
	if owner == nil {
		return
	}
	level := max(1, owner.Level())
	if _, err := e.reg.SetLevel(c, level); isNotFound(err) {
		e.GetOrCompute(c)
		_, err = e.reg.SetLevel(c, level)
		if err != nil {
			e.log.WithError(err).Warn("tame level update failed")
			return
		}
	}
	e.shaper.Apply(c, level)
	e.Render(c, 0)
	c.World().PlaySound(c.Pos(), host.SoundPlayerLevelUp, tameVolume, tamePitch)
	metrics.LevelAssignments.WithLabelValues(metrics.SourceTame).Inc()
	e.record(KindTamed, c, level, owner.Name())
}

func (e *Engine) recoverHook(hook string, c host.Creature) {
	r := recover()
	if r == nil {
		return
	}
	metrics.HookPanics.WithLabelValues(hook).Inc()
	fields := logrus.Fields{"hook": hook, "panic": r}
	if c != nil {
		fields["creature"] = c.ID().String()
	}
	e.log.WithFields(fields).Error("event hook panicked")
}
