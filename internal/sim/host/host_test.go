package host

import (
	"math"
	"testing"
)

func TestVec3DistanceAndBlock(t *testing.T) {
	a := Vec3{X: 0, Y: 64, Z: 0}
	b := Vec3{X: 3, Y: 68, Z: 0}
	if d := a.Distance(b); math.Abs(d-5) > 1e-9 {
		t.Fatalf("distance=%v want 5", d)
	}
	if got := (Vec3{X: -0.5, Y: 10.9, Z: 2}).Block(); got != [3]int{-1, 10, 2} {
		t.Fatalf("block=%v", got)
	}
}

func TestItemStackWithCopies(t *testing.T) {
	base := Item(DiamondSword)
	ench := base.With(Unbreaking, 1)
	if base.Enchantment(Unbreaking) != 0 {
		t.Fatalf("With mutated the receiver")
	}
	if ench.Enchantment(Unbreaking) != 1 || ench.Amount != 1 {
		t.Fatalf("ench=%+v", ench)
	}
}

func TestParseEnvironmentAndBiome(t *testing.T) {
	if e, ok := ParseEnvironment("THE_END"); !ok || e != End {
		t.Fatalf("env=%v ok=%v", e, ok)
	}
	if _, ok := ParseBiome("end_highlands"); !ok {
		t.Fatalf("biome should parse case-insensitively")
	}
	if _, ok := ParseBiome("MOON"); ok {
		t.Fatalf("unknown biome parsed")
	}
}
