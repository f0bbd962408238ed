package tuning

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
)

type Tuning struct {
	TickRateHz         int `yaml:"tick_rate_hz" validate:"min=1,max=1000"`
	CleanupPeriodTicks int `yaml:"cleanup_period_ticks" validate:"min=1"`

	NearbyPlayerRadius   float64 `yaml:"nearby_player_radius" validate:"gt=0"`
	LevelCap             int     `yaml:"level_cap" validate:"min=1"`
	CustomMobSpawnChance float64 `yaml:"custom_mob_spawn_chance" validate:"gte=0,lte=1"`
	BossPlayerRadius     float64 `yaml:"boss_player_radius" validate:"gt=0"`

	HPJitter          float64   `yaml:"hp_jitter" validate:"gte=0,lt=1"`
	HPColorThresholds []float64 `yaml:"hp_color_thresholds" validate:"len=4"`
	HPBandMode        string    `yaml:"hp_band_mode" validate:"oneof=absolute ratio"`

	HPMultipliers map[string]float64 `yaml:"hp_multipliers" validate:"dive,keys,oneof=farm tiny pest small mid elite unknown,endkeys,gt=0"`
	BossHP        BossHP             `yaml:"boss_hp"`
	SlimeHP       SlimeHP            `yaml:"slime_hp"`

	LevelRanges map[string]LevelRange `yaml:"level_ranges" validate:"dive"`

	BiomeCache BiomeCache `yaml:"biome_cache"`
}

// LevelRange is base + U(0..spread).
type LevelRange struct {
	Base   int `yaml:"base" validate:"min=1"`
	Spread int `yaml:"spread" validate:"min=0"`
}

type BossHP struct {
	Base         float64 `yaml:"base" validate:"gte=0"`
	PerPlayerMin float64 `yaml:"per_player_min" validate:"gte=0"`
	PerPlayerMax float64 `yaml:"per_player_max" validate:"gtefield=PerPlayerMin"`
}

// SlimeHP multiplier is base + per_size*(size+1).
type SlimeHP struct {
	Base    float64 `yaml:"base" validate:"gte=0"`
	PerSize float64 `yaml:"per_size" validate:"gte=0"`
}

type BiomeCache struct {
	Size int           `yaml:"size" validate:"min=1"`
	TTL  time.Duration `yaml:"ttl" validate:"gt=0"`
}

// Level range rule names.
const (
	RangeCave                 = "cave"
	RangeDesert               = "desert"
	RangeOcean                = "ocean"
	RangeElderGuardian        = "elder_guardian"
	RangeVillage              = "village"
	RangeSilverfish           = "silverfish"
	RangeEndermanOverworld    = "enderman_overworld"
	RangeEndermanNether       = "enderman_nether"
	RangeEndermanEndMain      = "enderman_end_main"
	RangeEndermanEndHighlands = "enderman_end_highlands"
	RangeEndermanEndMidlands  = "enderman_end_midlands"
	RangeEndermanEndOuter     = "enderman_end_outer"
	RangeEndDwellers          = "end_dwellers"
	RangeWither               = "wither"
	RangeEnderDragon          = "ender_dragon"
	RangeNetherPlains         = "nether_plains"
	RangeGhast                = "ghast"
	RangeBlaze                = "blaze"
	RangeWitherSkeleton       = "wither_skeleton"
	RangeFrozen               = "frozen"
	RangePhantomUntargeted    = "phantom_untargeted"
	RangeUntamed              = "untamed"
	RangeCritters             = "critters"
	RangeLivestock            = "livestock"
	RangeTrivial              = "trivial"
)

func Defaults() Tuning {
	return Tuning{
		TickRateHz:           20,
		CleanupPeriodTicks:   20 * 60 * 5,
		NearbyPlayerRadius:   250,
		LevelCap:             80,
		CustomMobSpawnChance: 0.2,
		BossPlayerRadius:     500,
		HPJitter:             0.05,
		HPColorThresholds:    []float64{15, 10, 5, 0},
		HPBandMode:           "absolute",
		HPMultipliers: map[string]float64{
			"farm":    0.75,
			"tiny":    0.40,
			"pest":    0.50,
			"small":   0.80,
			"mid":     1.00,
			"elite":   1.35,
			"unknown": 1.00,
		},
		BossHP:  BossHP{Base: 300, PerPlayerMin: 100, PerPlayerMax: 150},
		SlimeHP: SlimeHP{Base: 0.2, PerSize: 0.2},
		LevelRanges: map[string]LevelRange{
			RangeCave:                 {Base: 7, Spread: 7},
			RangeDesert:               {Base: 15, Spread: 4},
			RangeOcean:                {Base: 25, Spread: 4},
			RangeElderGuardian:        {Base: 35},
			RangeVillage:              {Base: 35, Spread: 4},
			RangeSilverfish:           {Base: 55, Spread: 4},
			RangeEndermanOverworld:    {Base: 40, Spread: 15},
			RangeEndermanNether:       {Base: 45, Spread: 24},
			RangeEndermanEndMain:      {Base: 58, Spread: 4},
			RangeEndermanEndHighlands: {Base: 67, Spread: 4},
			RangeEndermanEndMidlands:  {Base: 63, Spread: 4},
			RangeEndermanEndOuter:     {Base: 70, Spread: 4},
			RangeEndDwellers:          {Base: 60, Spread: 5},
			RangeWither:               {Base: 80},
			RangeEnderDragon:          {Base: 2},
			RangeNetherPlains:         {Base: 38, Spread: 6},
			RangeGhast:                {Base: 42, Spread: 6},
			RangeBlaze:                {Base: 45, Spread: 4},
			RangeWitherSkeleton:       {Base: 50, Spread: 4},
			RangeFrozen:               {Base: 15},
			RangePhantomUntargeted:    {Base: 10},
			RangeUntamed:              {Base: 10, Spread: 4},
			RangeCritters:             {Base: 3, Spread: 4},
			RangeLivestock:            {Base: 2, Spread: 1},
			RangeTrivial:              {Base: 1},
		},
		BiomeCache: BiomeCache{Size: 4096, TTL: 30 * time.Second},
	}
}

// Load reads path over Defaults; keys absent from the file keep their defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (t Tuning) Validate() error {
	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	for i := 1; i < len(t.HPColorThresholds); i++ {
		if t.HPColorThresholds[i] >= t.HPColorThresholds[i-1] {
			return fmt.Errorf("hp_color_thresholds must be strictly descending")
		}
	}
	for name := range Defaults().LevelRanges {
		if _, ok := t.LevelRanges[name]; !ok {
			return fmt.Errorf("level_ranges missing %q", name)
		}
	}
	return nil
}

func (t Tuning) CleanupPeriod() time.Duration {
	return time.Duration(t.CleanupPeriodTicks) * time.Second / time.Duration(t.TickRateHz)
}

func (t Tuning) TickInterval() time.Duration {
	return time.Second / time.Duration(t.TickRateHz)
}

// Range returns the named level rule, falling back to the trivial rule.
func (t Tuning) Range(name string) LevelRange {
	if r, ok := t.LevelRanges[name]; ok {
		return r
	}
	return LevelRange{Base: 1}
}

// Multiplier returns the flat HP multiplier for c. Slime and boss categories
// are computed per creature and report the unknown multiplier here.
func (t Tuning) Multiplier(c species.Category) float64 {
	if m, ok := t.HPMultipliers[c.String()]; ok {
		return m
	}
	if m, ok := t.HPMultipliers["unknown"]; ok {
		return m
	}
	return 1
}

func (t Tuning) Thresholds() [4]float64 {
	var out [4]float64
	copy(out[:], t.HPColorThresholds)
	return out
}
