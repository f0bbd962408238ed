// Package mobs is the mob leveling engine: it assigns every tracked creature a
// level, shapes its attributes, keeps its name tag current and sweeps stale
// registry entries.
//
// Event hooks and the SpawnLeveled/SpawnCustom/Init entry points run on the
// game thread. RunSweeper and Census may run anywhere.
package mobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/metrics"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/catalogs"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/host"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/custom"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/dice"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/nametag"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/oracle"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/registry"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/shaper"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/tuning"
)

// ErrInvalidLevel reports a requested level below 1.
var ErrInvalidLevel = registry.ErrInvalidLevel

// Options configures an Engine. Every field is optional.
type Options struct {
	Logger *logrus.Logger
	// Rand defaults to a generator seeded from the wall clock.
	Rand    dice.Rand
	Ledger  Ledger
	Tags    TagSink
	Reports ReportSink
}

// Engine tracks creature levels for a host and reacts to its events.
type Engine struct {
	host host.Host
	tune tuning.Tuning
	cats *catalogs.Catalogs
	rng  dice.Rand
	log  *logrus.Entry

	reg    *registry.Registry
	oracle *oracle.Oracle
	shaper *shaper.Shaper
	tags   *nametag.Renderer

	ledger  Ledger
	sink    TagSink
	reports ReportSink
	now     func() time.Time

	// pending is the fixed record for the creature SpawnLeveled is spawning.
	// Game thread only.
	pending *registry.Stats
}

var _ host.Listener = (*Engine)(nil)

// New builds an Engine for h. A nil cats uses empty catalogs.
func New(h host.Host, tune tuning.Tuning, cats *catalogs.Catalogs, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	rng := opts.Rand
	if rng == nil {
		rng = dice.New(uint64(time.Now().UnixNano()))
	}
	if cats == nil {
		cats = catalogs.Empty()
	}
	log := logger.WithField("component", "mobs")
	return &Engine{
		host:    h,
		tune:    tune,
		cats:    cats,
		rng:     rng,
		log:     log,
		reg:     registry.New(),
		oracle:  oracle.New(h, tune, rng, log),
		shaper:  shaper.New(tune, rng, log),
		tags:    nametag.NewRenderer(nametag.BandsFrom(tune)),
		ledger:  opts.Ledger,
		sink:    opts.Tags,
		reports: opts.Reports,
		now:     time.Now,
	}
}

func (e *Engine) Registry() *registry.Registry { return e.reg }

// GetOrCompute returns c's record, building it on first sight. A creature whose
// custom name is already a rendered tag keeps that level and name; otherwise the
// oracle picks a level and the shaper applies it.
func (e *Engine) GetOrCompute(c host.Creature) registry.Stats {
	st := e.reg.GetOrCompute(c, e.compute)
	e.gauge()
	return st
}

func (e *Engine) compute(c host.Creature) registry.Stats {
	if p := e.pending; p != nil {
		e.pending = nil
		return e.fixed(c, *p)
	}
	if p, ok := nametag.Parse(c.CustomName()); ok && p.Level >= 1 {
		metrics.LevelAssignments.WithLabelValues(metrics.SourceNameTag).Inc()
		e.record(KindRecovered, c, p.Level, "")
		return registry.Stats{Level: p.Level, DisplayName: p.Name, Species: c.Species()}
	}
	level := e.oracle.InitialLevel(c)
	e.shaper.Apply(c, level)
	name := c.CustomName()
	if name == "" {
		name = c.DefaultName()
	}
	metrics.LevelAssignments.WithLabelValues(metrics.SourceOracle).Inc()
	e.record(KindAssigned, c, level, "")
	return registry.Stats{Level: level, DisplayName: name, Species: c.Species()}
}

// Level is c's level, computed on a miss.
func (e *Engine) Level(c host.Creature) int { return e.GetOrCompute(c).Level }

// Render pushes c's name tag, previewing delta HP.
func (e *Engine) Render(c host.Creature, delta float64) string {
	st := e.GetOrCompute(c)
	tag := e.tags.Render(c, st.Level, st.DisplayName, delta)
	metrics.NameTagRenders.Inc()
	if e.sink != nil {
		e.sink.PublishTag(TagUpdate{
			CreatureID: c.ID().String(),
			World:      c.World().Name(),
			Species:    c.Species().String(),
			Level:      st.Level,
			NameTag:    tag,
		})
	}
	return tag
}

// SpawnLeveled spawns s at pos with a fixed level. An empty name uses the
// species' display name.
func (e *Engine) SpawnLeveled(w host.World, pos host.Vec3, s species.Species, name string, level int) (host.Creature, error) {
	if level < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	e.pending = &registry.Stats{Level: level, DisplayName: name, Species: s}
	c, err := w.Spawn(pos, s, host.SpawnCustom)
	left := e.pending
	e.pending = nil
	if err != nil {
		return nil, err
	}
	if left != nil {
		// The spawn hook never looked c up (untracked species or a host that
		// fires events later).
		if err := e.reg.Put(c, e.fixed(c, *left)); err != nil {
			return nil, err
		}
	}
	e.Render(c, 0)
	metrics.LevelAssignments.WithLabelValues(metrics.SourceAdmin).Inc()
	e.record(KindSpawned, c, level, "")
	return c, nil
}

// fixed shapes c for a caller-chosen level instead of asking the oracle.
func (e *Engine) fixed(c host.Creature, st registry.Stats) registry.Stats {
	if st.DisplayName == "" {
		st.DisplayName = c.DefaultName()
	}
	st.Species = c.Species()
	e.shaper.Apply(c, st.Level)
	return st
}

// SpawnCustom spawns the catalog mob id at pos and registers its behavior.
func (e *Engine) SpawnCustom(w host.World, pos host.Vec3, id string) (host.Creature, error) {
	mob, err := custom.Lookup(e.cats, id)
	if err != nil {
		return nil, err
	}
	def := mob.Def()
	c, err := e.SpawnLeveled(w, pos, def.Species, def.Name, def.Level)
	if err != nil {
		return nil, err
	}
	if err := mob.Setup(c); err != nil {
		e.log.WithError(err).WithField("custom_mob", id).Trace("custom mob setup incomplete")
	}
	e.reg.PutCustom(c, mob)
	e.gauge()
	metrics.LevelAssignments.WithLabelValues(metrics.SourceCustom).Inc()
	e.record(KindCustom, c, def.Level, id)
	return c, nil
}

// InitReport summarizes a boot recovery pass.
type InitReport struct {
	Tracked       int
	RemovedStands int
	Took          time.Duration
}

// Init scans every loaded creature into the registry and removes orphaned
// floating-text armor stands left by a previous session.
func (e *Engine) Init() InitReport {
	start := e.now()
	var rep InitReport
	for _, w := range e.host.Worlds() {
		for _, c := range w.Creatures() {
			if c.Species() == species.ArmorStand {
				if m, ok := c.(host.Marker); ok && m.Marker() && c.CustomNameVisible() {
					w.Remove(c)
					rep.RemovedStands++
				}
				continue
			}
			if !species.Tracked(c.Species()) {
				continue
			}
			e.GetOrCompute(c)
			rep.Tracked++
		}
	}
	rep.Took = e.now().Sub(start)
	metrics.RecoveryDuration.Set(rep.Took.Seconds())
	e.log.WithFields(logrus.Fields{
		"tracked":        rep.Tracked,
		"removed_stands": rep.RemovedStands,
		"took_ms":        rep.Took.Milliseconds(),
	}).Info("boot recovery complete")
	if e.reports != nil {
		e.reports.RecordBoot(rep)
	}
	return rep
}

type Census struct {
	Tracked   int            `json:"tracked"`
	Alive     int            `json:"alive"`
	Custom    int            `json:"custom"`
	BySpecies map[string]int `json:"by_species"`
}

// Census counts registry entries from a snapshot. Safe off the game thread.
func (e *Engine) Census() Census {
	snap := e.reg.Snapshot()
	out := Census{Tracked: len(snap), Custom: e.reg.CustomLen(), BySpecies: map[string]int{}}
	for _, ent := range snap {
		if ent.Creature.Dead() {
			continue
		}
		out.Alive++
		out.BySpecies[ent.Stats.Species.String()]++
	}
	return out
}

func (e *Engine) record(kind EntryKind, c host.Creature, level int, reason string) {
	if e.ledger == nil {
		return
	}
	entry := LedgerEntry{
		Time:       e.now().UTC(),
		Kind:       kind,
		CreatureID: c.ID().String(),
		Species:    c.Species().String(),
		Level:      level,
		Reason:     reason,
	}
	if w := c.World(); w != nil {
		entry.World = w.Name()
	}
	if err := e.ledger.WriteEntry(entry); err != nil {
		e.log.WithError(err).WithField("kind", string(kind)).Debug("ledger write failed")
	}
}

func (e *Engine) gauge() {
	metrics.RegistryEntries.Set(float64(e.reg.Len()))
	metrics.CustomMobs.Set(float64(e.reg.CustomLen()))
}

func isNotFound(err error) bool { return errors.Is(err, registry.ErrNotFound) }

// runEvery is the sweeper loop body shared by RunSweeper and tests.
func runEvery(ctx context.Context, every time.Duration, fn func()) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn()
		}
	}
}
