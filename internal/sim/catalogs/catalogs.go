package catalogs

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
)

type Catalogs struct {
	CustomMobs CustomMobCatalog
}

type CustomMobCatalog struct {
	// Order lists ids sorted; natural-spawn selection walks it in this order.
	Order  []string
	ByID   map[string]CustomMobDef
	Digest string
}

type CustomMobDef struct {
	ID           string          `json:"id"`
	Species      species.Species `json:"species"`
	Name         string          `json:"name"`
	Level        int             `json:"level"`
	Environments []string        `json:"environments,omitempty"`
	MainHand     *EquipmentDef   `json:"main_hand,omitempty"`
	Helmet       *EquipmentDef   `json:"helmet,omitempty"`
	Effects      []EffectDef     `json:"effects,omitempty"`
	Loot         []LootEntry     `json:"loot"`
}

type EquipmentDef struct {
	Material     string         `json:"material"`
	Enchantments map[string]int `json:"enchantments,omitempty"`
}

func (e EquipmentDef) Stack() host.ItemStack {
	it := host.Item(host.Material(e.Material))
	for name, lvl := range e.Enchantments {
		it = it.With(host.Enchantment(name), lvl)
	}
	return it
}

type EffectDef struct {
	Type          string `json:"type"`
	DurationTicks int    `json:"duration_ticks,omitempty"`
	Amplifier     int    `json:"amplifier"`
}

// LootEntry drops U(min..max) of item with probability chance.
type LootEntry struct {
	Item   string  `json:"item"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Chance float64 `json:"chance"`
}

// SpawnsIn reports whether the mob may replace natural spawns in env.
func (d CustomMobDef) SpawnsIn(env host.Environment) bool {
	for _, e := range d.Environments {
		if got, ok := host.ParseEnvironment(e); ok && got == env {
			return true
		}
	}
	return false
}

//go:embed custom_mobs.schema.json
var customMobsSchema []byte

const customMobsSchemaURL = "https://leveling-overhaul.local/schemas/custom_mobs.schema.json"

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadCustomMobs(filepath.Join(configDir, "custom_mobs.json"), &c.CustomMobs); err != nil {
		return nil, err
	}
	return &c, nil
}

// Parse builds catalogs from an in-memory custom_mobs.json document.
func Parse(customMobs []byte) (*Catalogs, error) {
	var c Catalogs
	if err := parseCustomMobs(customMobs, &c.CustomMobs); err != nil {
		return nil, err
	}
	return &c, nil
}

// Empty returns catalogs with no custom mobs.
func Empty() *Catalogs {
	return &Catalogs{CustomMobs: CustomMobCatalog{ByID: map[string]CustomMobDef{}, Digest: sha256Hex([]byte("[]"))}}
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func compileSchema() (*jsonschema.Schema, error) {
	comp := jsonschema.NewCompiler()
	if err := comp.AddResource(customMobsSchemaURL, bytes.NewReader(customMobsSchema)); err != nil {
		return nil, err
	}
	return comp.Compile(customMobsSchemaURL)
}

func loadCustomMobs(path string, out *CustomMobCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return parseCustomMobs(raw, out)
}

func parseCustomMobs(raw []byte, out *CustomMobCatalog) error {
	sch, err := compileSchema()
	if err != nil {
		return fmt.Errorf("custom_mobs schema: %w", err)
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("custom_mobs.json: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("custom_mobs.json: %w", err)
	}

	var defs []CustomMobDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("custom_mobs.json: %w", err)
	}
	out.ByID = make(map[string]CustomMobDef, len(defs))
	for _, d := range defs {
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("custom_mobs.json: duplicate id %q", d.ID)
		}
		if !species.Tracked(d.Species) {
			return fmt.Errorf("custom_mobs.json: %s: species %s cannot be a custom mob", d.ID, d.Species)
		}
		for _, l := range d.Loot {
			if l.Max < l.Min {
				return fmt.Errorf("custom_mobs.json: %s: loot %s max < min", d.ID, l.Item)
			}
		}
		out.ByID[d.ID] = d
	}
	out.Order = make([]string, 0, len(out.ByID))
	for id := range out.ByID {
		out.Order = append(out.Order, id)
	}
	sort.Strings(out.Order)
	out.Digest = sha256Hex(raw)
	return nil
}

// NaturalFor returns the first custom mob (by id) allowed to spawn in env.
func (c *CustomMobCatalog) NaturalFor(env host.Environment) (CustomMobDef, bool) {
	for _, id := range c.Order {
		if d := c.ByID[id]; d.SpawnsIn(env) {
			return d, true
		}
	}
	return CustomMobDef{}, false
}
