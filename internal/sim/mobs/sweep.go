package mobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/metrics"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/registry"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/species"
)

// Eviction reasons.
const (
	EvictDead    = "dead"
	EvictTrivial = "trivial"
	EvictOrphan  = "orphan_stand"
)

// SweepReport counts one sweep's evictions by reason.
type SweepReport struct {
	Scanned int
	Evicted map[string]int
	Took    time.Duration
}

func (r SweepReport) Total() int {
	n := 0
	for _, v := range r.Evicted {
		n += v
	}
	return n
}

// RunSweeper sweeps every cleanup period until ctx is cancelled.
func (e *Engine) RunSweeper(ctx context.Context) error {
	return runEvery(ctx, e.tune.CleanupPeriod(), func() { e.Sweep() })
}

// Sweep evicts dead, level-1 and orphaned armor-stand entries. It reads only the
// goroutine-safe creature accessors and never mutates a creature.
func (e *Engine) Sweep() SweepReport {
	start := e.now()
	rep := SweepReport{Evicted: map[string]int{}}
	for _, ent := range e.reg.Snapshot() {
		rep.Scanned++
		reason := evictionReason(ent)
		if reason == "" {
			continue
		}
		if _, ok := e.reg.Remove(ent.Creature.ID()); !ok {
			continue
		}
		rep.Evicted[reason]++
		metrics.SweepEvictions.WithLabelValues(reason).Inc()
		if e.ledger != nil {
			if err := e.ledger.WriteEntry(LedgerEntry{
				Time:       e.now().UTC(),
				Kind:       KindEvicted,
				CreatureID: ent.Creature.ID().String(),
				Species:    ent.Stats.Species.String(),
				Level:      ent.Stats.Level,
				Reason:     reason,
			}); err != nil {
				e.log.WithError(err).Debug("ledger write failed")
			}
		}
	}
	rep.Took = e.now().Sub(start)
	metrics.SweepDuration.Observe(rep.Took.Seconds())
	e.gauge()
	e.log.WithFields(logrus.Fields{
		"scanned": rep.Scanned,
		"evicted": rep.Total(),
		"took_ms": rep.Took.Milliseconds(),
	}).Info("registry sweep")
	if e.reports != nil {
		e.reports.RecordSweep(rep)
	}
	return rep
}

func evictionReason(ent registry.Entry) string {
	c := ent.Creature
	switch {
	case c.Dead():
		return EvictDead
	case ent.Stats.Level == 1:
		return EvictTrivial
	case c.Species() == species.ArmorStand && c.CustomNameVisible():
		return EvictOrphan
	}
	return ""
}
