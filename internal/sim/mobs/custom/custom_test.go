package custom_test

import (
	"errors"
	"testing"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/catalogs"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/custom"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/dice"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/worldtest"
)

func loadCats(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

func TestCorruptedSkeletonSetup(t *testing.T) {
	m, err := custom.Lookup(loadCats(t), custom.CorruptedSkeleton)
	if err != nil {
		t.Fatal(err)
	}
	if m.Level() != 70 || m.Name() != "Corrupted Skeleton" || m.Def().Species != species.Stray {
		t.Fatalf("def=%+v", m.Def())
	}

	h := worldtest.NewHarness(t)
	c := h.Populate(h.End, species.Stray, host.Vec3{})
	if err := m.Setup(c); err != nil {
		t.Fatalf("setup: %v", err)
	}
	mob := worldtest.Mob(c)
	bow, ok := mob.Equipment(host.SlotMainHand)
	if !ok || bow.Item.Material != host.Bow || bow.Item.Enchantment(host.Power) != 3 || bow.DropChance != 0 {
		t.Fatalf("bow=%+v ok=%v", bow, ok)
	}
	if _, ok := mob.Effect(host.EffectSpeed); !ok {
		t.Fatalf("missing speed effect")
	}
}

func TestSetupCollectsRefusals(t *testing.T) {
	m, err := custom.Lookup(loadCats(t), custom.CorruptedSkeleton)
	if err != nil {
		t.Fatal(err)
	}
	h := worldtest.NewHarness(t)
	cow := h.Populate(h.Overworld, species.Cow, host.Vec3{})
	err = m.Setup(cow)
	if !errors.Is(err, host.ErrUnsupported) {
		t.Fatalf("err=%v want ErrUnsupported", err)
	}
	if _, ok := worldtest.Mob(cow).Effect(host.EffectSpeed); !ok {
		t.Fatalf("effects should still apply after equipment refusal")
	}
}

func TestLootRolls(t *testing.T) {
	def := catalogs.CustomMobDef{
		ID: "x",
		Loot: []catalogs.LootEntry{
			{Item: "BONE", Min: 2, Max: 5, Chance: 1},
			{Item: "PEARL", Min: 1, Max: 1, Chance: 0.5},
			{Item: "NOTHING", Min: 0, Max: 0, Chance: 1},
		},
	}
	m := custom.New(def)

	got := m.Loot(&dice.Fixed{Floats: []float64{0.0, 0.9, 0.0}, Ints: []int{3}})
	if len(got) != 1 || got[0].Material != "BONE" || got[0].Amount != 5 {
		t.Fatalf("loot=%+v", got)
	}

	got = m.Loot(&dice.Fixed{Floats: []float64{0.0, 0.1, 0.0}, Ints: []int{0}})
	if len(got) != 2 || got[1].Material != "PEARL" || got[1].Amount != 1 {
		t.Fatalf("loot=%+v", got)
	}

	r := dice.New(9)
	for i := 0; i < 200; i++ {
		for _, it := range m.Loot(r) {
			if it.Material == "BONE" && (it.Amount < 2 || it.Amount > 5) {
				t.Fatalf("bone amount=%d out of range", it.Amount)
			}
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := custom.Lookup(catalogs.Empty(), "nope"); !errors.Is(err, custom.ErrUnknown) {
		t.Fatalf("expected error")
	}
}
