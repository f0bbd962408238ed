package nametag_test

import (
	"testing"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/nametag"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/tuning"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/worldtest"
)

func TestFormatAndParse(t *testing.T) {
	tag := nametag.Format(42, nametag.Red, "§bZombie", 17, nametag.Green)
	want := "§7§lLv. 42 §cZombie §4❤§a17"
	if tag != want {
		t.Fatalf("tag=%q want %q", tag, want)
	}
	p, ok := nametag.Parse(tag)
	if !ok || p.Level != 42 || p.Name != "Zombie" || p.HP != 17 {
		t.Fatalf("parse=%+v ok=%v", p, ok)
	}
	if _, ok := nametag.Parse("Bob the Builder"); ok {
		t.Fatalf("plain name should not parse")
	}
}

func TestParseKeepsSpacesInName(t *testing.T) {
	p, ok := nametag.Parse(nametag.Format(70, nametag.Red, "Corrupted Skeleton", 0, nametag.DarkGray))
	if !ok || p.Name != "Corrupted Skeleton" || p.Level != 70 {
		t.Fatalf("parse=%+v ok=%v", p, ok)
	}
}

func TestStripColor(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"plain":           "plain",
		"§aGreen §lBold":  "Green Bold",
		"§7§lLv. 3 §fCow": "Lv. 3 Cow",
		"trailing§":       "trailing",
	}
	for in, want := range cases {
		if got := nametag.StripColor(in); got != want {
			t.Fatalf("StripColor(%q)=%q want %q", in, got, want)
		}
	}
}

func TestAbsoluteBands(t *testing.T) {
	b := nametag.BandsFrom(tuning.Defaults())
	cases := []struct {
		hp   float64
		want string
	}{
		{0, nametag.DarkGray},
		{0.5, nametag.Red},
		{5, nametag.Red},
		{7, nametag.Gold},
		{10, nametag.Gold},
		{15, nametag.Yellow},
		{15.5, nametag.Green},
		{500, nametag.Green},
	}
	for _, tc := range cases {
		if got := b.Color(tc.hp, 100); got != tc.want {
			t.Fatalf("hp %v: color=%q want %q", tc.hp, got, tc.want)
		}
	}
}

func TestRatioBands(t *testing.T) {
	tune := tuning.Defaults()
	tune.HPBandMode = "ratio"
	b := nametag.BandsFrom(tune)
	if got := b.Color(90, 100); got != nametag.Green {
		t.Fatalf("90%%: color=%q want green", got)
	}
	if got := b.Color(35, 100); got != nametag.Gold {
		t.Fatalf("35%%: color=%q want gold", got)
	}
	if got := b.Color(10, 0); got != nametag.DarkGray {
		t.Fatalf("zero max: color=%q want dark gray", got)
	}
}

func TestRenderPreviewsDamage(t *testing.T) {
	h := worldtest.NewHarness(t)
	c := h.Populate(h.Overworld, species.Zombie, host.Vec3{})
	if err := c.SetMaxHealth(100); err != nil {
		t.Fatal(err)
	}
	c.SetHealth(12)

	r := nametag.NewRenderer(nametag.BandsFrom(tuning.Defaults()))
	tag := r.Render(c, 25, c.DefaultName(), -5)
	if want := "§7§lLv. 25 §cZombie §4❤§67"; tag != want {
		t.Fatalf("tag=%q want %q", tag, want)
	}
	if c.CustomName() != tag {
		t.Fatalf("custom name=%q want %q", c.CustomName(), tag)
	}
	writes := worldtest.Mob(c).NameWrites()
	if len(writes) != 2 || writes[0] != "" {
		t.Fatalf("writes=%q want clear then set", writes)
	}

	if got := r.Tag(c, 25, "Zombie", -100); got != "§7§lLv. 25 §cZombie §4❤§80" {
		t.Fatalf("overkill tag=%q", got)
	}
}

func TestCategoryColor(t *testing.T) {
	h := worldtest.NewHarness(t)
	p := h.Join("owner", h.Overworld, 30, host.Vec3{})
	wolf := h.Populate(h.Overworld, species.Wolf, host.Vec3{})
	if got := nametag.CategoryColor(wolf); got != nametag.White {
		t.Fatalf("wild wolf=%q want white", got)
	}
	if err := h.Overworld.Tame(wolf, p); err != nil {
		t.Fatal(err)
	}
	if got := nametag.CategoryColor(wolf); got != nametag.Green {
		t.Fatalf("tamed wolf=%q want green", got)
	}
	if got := nametag.CategoryColor(h.Populate(h.End, species.EnderDragon, host.Vec3{})); got != nametag.DarkPurple {
		t.Fatalf("dragon=%q want dark purple", got)
	}
	if got := nametag.CategoryColor(h.Populate(h.Overworld, species.Creeper, host.Vec3{})); got != nametag.Red {
		t.Fatalf("creeper=%q want red", got)
	}
}

func TestRoundTripLevels(t *testing.T) {
	h := worldtest.NewHarness(t)
	r := nametag.NewRenderer(nametag.BandsFrom(tuning.Defaults()))
	c := h.Populate(h.Overworld, species.Skeleton, host.Vec3{})
	for level := 1; level <= 100; level++ {
		p, ok := nametag.Parse(r.Render(c, level, "Skeleton", 0))
		if !ok || p.Level != level {
			t.Fatalf("level %d: parsed=%+v ok=%v", level, p, ok)
		}
	}
}
