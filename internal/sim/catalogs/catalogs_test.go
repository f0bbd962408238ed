package catalogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
)

const sample = `[
  {"id": "corrupted_skeleton", "species": "STRAY", "name": "Corrupted Skeleton", "level": 70,
   "environments": ["THE_END"],
   "main_hand": {"material": "BOW", "enchantments": {"ARROW_DAMAGE": 3}},
   "loot": [{"item": "BONE", "min": 2, "max": 5, "chance": 1}]},
  {"id": "ash_brute", "species": "ZOMBIE", "name": "Ash Brute", "level": 40,
   "environments": ["NETHER"], "loot": []}
]`

func TestParseCustomMobs(t *testing.T) {
	c, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d, ok := c.CustomMobs.ByID["corrupted_skeleton"]
	if !ok {
		t.Fatalf("missing corrupted_skeleton")
	}
	if d.Species != species.Stray || d.Level != 70 {
		t.Fatalf("def=%+v", d)
	}
	if got := d.MainHand.Stack().Enchantment(host.Power); got != 3 {
		t.Fatalf("power=%d want 3", got)
	}
	if len(c.CustomMobs.Order) != 2 || c.CustomMobs.Order[0] != "ash_brute" {
		t.Fatalf("order=%v", c.CustomMobs.Order)
	}
	if len(c.CustomMobs.Digest) != 64 {
		t.Fatalf("digest=%q", c.CustomMobs.Digest)
	}
	if got, ok := c.CustomMobs.NaturalFor(host.End); !ok || got.ID != "corrupted_skeleton" {
		t.Fatalf("NaturalFor(End)=%v,%v", got.ID, ok)
	}
	if _, ok := c.CustomMobs.NaturalFor(host.Overworld); ok {
		t.Fatalf("no overworld custom mob expected")
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"schema level":  `[{"id":"x","species":"ZOMBIE","name":"X","level":0,"loot":[]}]`,
		"extra field":   `[{"id":"x","species":"ZOMBIE","name":"X","level":3,"loot":[],"hp":9}]`,
		"unknown mob":   `[{"id":"x","species":"DRAGONFLY","name":"X","level":3,"loot":[]}]`,
		"player":        `[{"id":"x","species":"PLAYER","name":"X","level":3,"loot":[]}]`,
		"duplicate":     `[{"id":"x","species":"ZOMBIE","name":"X","level":3,"loot":[]},{"id":"x","species":"ZOMBIE","name":"Y","level":3,"loot":[]}]`,
		"loot max<min":  `[{"id":"x","species":"ZOMBIE","name":"X","level":3,"loot":[{"item":"BONE","min":3,"max":1,"chance":1}]}]`,
		"chance over 1": `[{"id":"x","species":"ZOMBIE","name":"X","level":3,"loot":[{"item":"BONE","min":0,"max":1,"chance":2}]}]`,
		"float level":   `[{"id":"x","species":"ZOMBIE","name":"X","level":2.5,"loot":[]}]`,
		"truncated":     `[{"id":"x","species":"ZOMBIE"`,
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "custom_mobs.json"), []byte(sample), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.CustomMobs.ByID) != 2 {
		t.Fatalf("len=%d", len(c.CustomMobs.ByID))
	}
	if _, err := Load(t.TempDir()); err == nil || !strings.Contains(err.Error(), "custom_mobs.json") {
		t.Fatalf("missing file err=%v", err)
	}
}

func TestRepoCatalogIsValid(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("configs/custom_mobs.json: %v", err)
	}
	if _, ok := c.CustomMobs.NaturalFor(host.End); !ok {
		t.Fatalf("repo catalog must define an end custom mob")
	}
}
