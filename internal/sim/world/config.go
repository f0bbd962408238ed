package world

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
)

type Config struct {
	Worlds  []WorldSpec  `yaml:"worlds"`
	Players []PlayerSpec `yaml:"players,omitempty"`
}

type WorldSpec struct {
	Name         string       `yaml:"name"`
	Environment  string       `yaml:"environment"`
	DefaultBiome string       `yaml:"default_biome"`
	Regions      []RegionSpec `yaml:"regions,omitempty"`

	// Natural spawner: one creature from SpawnPool near a random player every
	// SpawnEveryTicks; 0 disables it.
	SpawnPool       []string `yaml:"spawn_pool,omitempty"`
	SpawnEveryTicks int      `yaml:"spawn_every_ticks"`
	SpawnRadius     float64  `yaml:"spawn_radius"`
}

// RegionSpec paints Biome over the x/z rectangle [MinX,MaxX]x[MinZ,MaxZ].
type RegionSpec struct {
	Biome string  `yaml:"biome"`
	MinX  float64 `yaml:"min_x"`
	MinZ  float64 `yaml:"min_z"`
	MaxX  float64 `yaml:"max_x"`
	MaxZ  float64 `yaml:"max_z"`
}

type PlayerSpec struct {
	Name     string  `yaml:"name"`
	World    string  `yaml:"world"`
	Level    int     `yaml:"level"`
	GameMode string  `yaml:"game_mode,omitempty"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Z        float64 `yaml:"z"`
}

func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg = Config{}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("worlds.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("worlds.yaml: %w", err)
	}
	return cfg, nil
}

// DefaultConfig is one world per dimension and no players.
func DefaultConfig() Config {
	return Config{
		Worlds: []WorldSpec{
			{Name: "world", Environment: "NORMAL", DefaultBiome: string(host.BiomePlains)},
			{Name: "world_nether", Environment: "NETHER", DefaultBiome: string(host.BiomeNetherWastes)},
			{Name: "world_the_end", Environment: "THE_END", DefaultBiome: string(host.BiomeTheEnd)},
		},
	}
}

func (c *Config) Normalize() {
	for i := range c.Worlds {
		w := &c.Worlds[i]
		w.Name = strings.TrimSpace(w.Name)
		w.Environment = strings.ToUpper(strings.TrimSpace(w.Environment))
		if w.Environment == "" {
			w.Environment = "NORMAL"
		}
		if strings.TrimSpace(w.DefaultBiome) == "" {
			switch w.Environment {
			case "NETHER":
				w.DefaultBiome = string(host.BiomeNetherWastes)
			case "THE_END", "END":
				w.DefaultBiome = string(host.BiomeTheEnd)
			default:
				w.DefaultBiome = string(host.BiomePlains)
			}
		}
		if w.SpawnRadius <= 0 {
			w.SpawnRadius = 24
		}
	}
	for i := range c.Players {
		c.Players[i].GameMode = strings.ToUpper(strings.TrimSpace(c.Players[i].GameMode))
	}
}

func (c Config) Validate() error {
	if len(c.Worlds) == 0 {
		return fmt.Errorf("worlds must not be empty")
	}
	seen := map[string]bool{}
	for _, w := range c.Worlds {
		if w.Name == "" {
			return fmt.Errorf("world name must not be empty")
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate world name: %s", w.Name)
		}
		seen[w.Name] = true
		if _, ok := host.ParseEnvironment(w.Environment); !ok {
			return fmt.Errorf("world %s: unknown environment %q", w.Name, w.Environment)
		}
		if _, ok := host.ParseBiome(w.DefaultBiome); !ok {
			return fmt.Errorf("world %s: unknown default_biome %q", w.Name, w.DefaultBiome)
		}
		for i, r := range w.Regions {
			if _, ok := host.ParseBiome(r.Biome); !ok {
				return fmt.Errorf("world %s regions[%d]: unknown biome %q", w.Name, i, r.Biome)
			}
			if r.MaxX < r.MinX || r.MaxZ < r.MinZ {
				return fmt.Errorf("world %s regions[%d]: max must be >= min", w.Name, i)
			}
		}
		if w.SpawnEveryTicks < 0 {
			return fmt.Errorf("world %s spawn_every_ticks must be >= 0", w.Name)
		}
		if w.SpawnEveryTicks > 0 && len(w.SpawnPool) == 0 {
			return fmt.Errorf("world %s: spawn_every_ticks set without spawn_pool", w.Name)
		}
		for _, s := range w.SpawnPool {
			sp, ok := species.Parse(s)
			if !ok || sp == species.Player {
				return fmt.Errorf("world %s: cannot spawn %q", w.Name, s)
			}
		}
	}
	for _, p := range c.Players {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("player name must not be empty")
		}
		if !seen[p.World] {
			return fmt.Errorf("player %s: world %q not found", p.Name, p.World)
		}
		if p.Level < 0 {
			return fmt.Errorf("player %s: level must be >= 0", p.Name)
		}
		if _, ok := host.ParseGameMode(p.GameMode); !ok {
			return fmt.Errorf("player %s: unknown game_mode %q", p.Name, p.GameMode)
		}
	}
	return nil
}
