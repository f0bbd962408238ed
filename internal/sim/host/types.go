package host

import (
	"math"
	"sort"
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Block returns the integer coordinates of the block containing v.
func (v Vec3) Block() [3]int {
	return [3]int{int(math.Floor(v.X)), int(math.Floor(v.Y)), int(math.Floor(v.Z))}
}

type Slot uint8

const (
	SlotMainHand Slot = iota
	SlotHelmet
)

func (s Slot) String() string {
	if s == SlotHelmet {
		return "HEAD"
	}
	return "HAND"
}

type Material string

const (
	WoodenSword   Material = "WOODEN_SWORD"
	StoneSword    Material = "STONE_SWORD"
	IronSword     Material = "IRON_SWORD"
	GoldenSword   Material = "GOLDEN_SWORD"
	DiamondSword  Material = "DIAMOND_SWORD"
	Bow           Material = "BOW"
	LeatherHelmet Material = "LEATHER_HELMET"
)

type Enchantment string

const (
	Unbreaking Enchantment = "DURABILITY"
	Knockback  Enchantment = "KNOCKBACK"
	Power      Enchantment = "ARROW_DAMAGE"
)

type ItemStack struct {
	Material     Material            `json:"material"`
	Amount       int                 `json:"amount"`
	Enchantments map[Enchantment]int `json:"enchantments,omitempty"`
}

func Item(m Material) ItemStack {
	return ItemStack{Material: m, Amount: 1}
}

func (it ItemStack) With(e Enchantment, level int) ItemStack {
	out := it
	out.Enchantments = make(map[Enchantment]int, len(it.Enchantments)+1)
	for k, v := range it.Enchantments {
		out.Enchantments[k] = v
	}
	out.Enchantments[e] = level
	return out
}

func (it ItemStack) Enchantment(e Enchantment) int {
	return it.Enchantments[e]
}

// EnchantmentNames returns the enchantments on it, sorted.
func (it ItemStack) EnchantmentNames() []string {
	out := make([]string, 0, len(it.Enchantments))
	for e := range it.Enchantments {
		out = append(out, string(e))
	}
	sort.Strings(out)
	return out
}

type PotionEffect struct {
	Type          string `json:"type"`
	DurationTicks int    `json:"duration_ticks"`
	Amplifier     int    `json:"amplifier"`
}

const EffectSpeed = "SPEED"
