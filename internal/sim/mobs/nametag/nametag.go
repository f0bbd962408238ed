// Package nametag renders the floating "Lv. N name ❤HP" tag shown above
// leveled creatures.
package nametag

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/tuning"
)

// Legacy client color codes.
const (
	DarkRed    = "§4"
	DarkPurple = "§5"
	Gold       = "§6"
	Gray       = "§7"
	DarkGray   = "§8"
	Green      = "§a"
	Red        = "§c"
	Yellow     = "§e"
	White      = "§f"
	Bold       = "§l"
)

const colorPrefix = '§'

// StripColor removes every color and format code from s.
func StripColor(s string) string {
	if !strings.ContainsRune(s, colorPrefix) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	skip := false
	for _, r := range s {
		switch {
		case skip:
			skip = false
		case r == colorPrefix:
			skip = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format builds the tag from already-resolved parts.
func Format(level int, nameColor, name string, hp int, hpColor string) string {
	var b strings.Builder
	b.WriteString(Gray + Bold + "Lv. ")
	b.WriteString(strconv.Itoa(level))
	b.WriteByte(' ')
	b.WriteString(nameColor)
	b.WriteString(StripColor(name))
	b.WriteString(" " + DarkRed + "❤")
	b.WriteString(hpColor)
	b.WriteString(strconv.Itoa(hp))
	return b.String()
}

var tagPattern = regexp.MustCompile(`^Lv\. (\d+) (.*) ❤(-?\d+)$`)

// Parsed is a tag read back from a creature's custom name.
type Parsed struct {
	Level int
	Name  string
	HP    int
}

// Parse reads a rendered tag, with or without color codes.
func Parse(tag string) (Parsed, bool) {
	m := tagPattern.FindStringSubmatch(StripColor(tag))
	if m == nil {
		return Parsed{}, false
	}
	level, err := strconv.Atoi(m[1])
	if err != nil {
		return Parsed{}, false
	}
	hp, err := strconv.Atoi(m[3])
	if err != nil {
		return Parsed{}, false
	}
	return Parsed{Level: level, Name: m[2], HP: hp}, true
}

// CategoryColor: boss, then hostile, then tamed, else white.
func CategoryColor(c host.Creature) string {
	s := c.Species()
	switch {
	case species.IsBoss(s):
		return DarkPurple
	case species.IsMonster(s):
		return Red
	}
	if t, ok := c.(host.Tameable); ok && t.Tamed() {
		return Green
	}
	return White
}

// Bands maps shown HP onto five colors. In ratio mode hp/maxHP is first scaled
// onto a 20 point bar.
type Bands struct {
	Thresholds [4]float64
	Ratio      bool
}

func BandsFrom(t tuning.Tuning) Bands {
	return Bands{Thresholds: t.Thresholds(), Ratio: t.HPBandMode == "ratio"}
}

func (b Bands) Color(hp, maxHP float64) string {
	v := hp
	if b.Ratio {
		if maxHP <= 0 {
			v = 0
		} else {
			v = hp / maxHP * 20
		}
	}
	switch t := b.Thresholds; {
	case v <= t[3]:
		return DarkGray
	case v <= t[2]:
		return Red
	case v <= t[1]:
		return Gold
	case v <= t[0]:
		return Yellow
	default:
		return Green
	}
}

// Shown is max(0, health + absorption + delta).
func Shown(c host.Creature, delta float64) float64 {
	return math.Max(0, c.Health()+c.Absorption()+delta)
}

type Renderer struct {
	bands Bands
}

func NewRenderer(b Bands) *Renderer { return &Renderer{bands: b} }

// Tag computes the tag for c without touching it.
func (r *Renderer) Tag(c host.Creature, level int, name string, delta float64) string {
	hp := Shown(c, delta)
	maxHP, ok := c.MaxHealth()
	if !ok {
		maxHP = hp
	}
	return Format(level, CategoryColor(c), name, int(math.Floor(hp)), r.bands.Color(hp, maxHP))
}

// Render pushes the tag to c. The name is cleared first so clients refresh.
func (r *Renderer) Render(c host.Creature, level int, name string, delta float64) string {
	tag := r.Tag(c, level, name, delta)
	c.SetCustomName("")
	c.SetCustomName(tag)
	return tag
}
