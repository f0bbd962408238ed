// Package custom holds scripted mobs: catalog-defined creatures with fixed
// level, gear and their own loot table.
package custom

import (
	"errors"
	"fmt"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/catalogs"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/dice"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/registry"
)

// CorruptedSkeleton is the catalog id of the End's natural custom mob.
const CorruptedSkeleton = "corrupted_skeleton"

var ErrUnknown = errors.New("custom mob not in catalog")

type Mob struct {
	def catalogs.CustomMobDef
}

var _ registry.Behavior = (*Mob)(nil)

func New(def catalogs.CustomMobDef) *Mob { return &Mob{def: def} }

// Lookup builds the custom mob with the given catalog id.
func Lookup(cats *catalogs.Catalogs, id string) (*Mob, error) {
	def, ok := cats.CustomMobs.ByID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, id)
	}
	return New(def), nil
}

func (m *Mob) ID() string                 { return m.def.ID }
func (m *Mob) Def() catalogs.CustomMobDef { return m.def }
func (m *Mob) Level() int                 { return m.def.Level }
func (m *Mob) Name() string               { return m.def.Name }

// Setup gives c the scripted gear and effects. It keeps going past refusals
// and returns them joined.
func (m *Mob) Setup(c host.Creature) error {
	var errs []error
	if m.def.MainHand != nil {
		if err := c.SetEquipment(host.SlotMainHand, m.def.MainHand.Stack(), 0); err != nil {
			errs = append(errs, fmt.Errorf("main hand: %w", err))
		}
	}
	if m.def.Helmet != nil {
		if err := c.SetEquipment(host.SlotHelmet, m.def.Helmet.Stack(), 0); err != nil {
			errs = append(errs, fmt.Errorf("helmet: %w", err))
		}
	}
	for _, e := range m.def.Effects {
		eff := host.PotionEffect{Type: e.Type, DurationTicks: e.DurationTicks, Amplifier: e.Amplifier}
		if err := c.AddPotionEffect(eff); err != nil {
			errs = append(errs, fmt.Errorf("effect %s: %w", e.Type, err))
		}
	}
	return errors.Join(errs...)
}

// Loot rolls each entry independently; empty stacks are skipped.
func (m *Mob) Loot(r dice.Rand) []host.ItemStack {
	var out []host.ItemStack
	for _, e := range m.def.Loot {
		if !dice.Chance(r, e.Chance) {
			continue
		}
		n := e.Min + dice.Upto(r, e.Max-e.Min)
		if n <= 0 {
			continue
		}
		out = append(out, host.ItemStack{Material: host.Material(e.Item), Amount: n})
	}
	return out
}
