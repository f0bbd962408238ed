// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label names
const (
	LabelSource = "source"
	LabelReason = "reason"
	LabelHook   = "hook"
	LabelKind   = "kind"
)

// Level assignment sources
const (
	SourceOracle  = "oracle"
	SourceNameTag = "nametag"
	SourceTame    = "tame"
	SourceAdmin   = "admin"
	SourceCustom  = "custom"
)

// Registry
var (
	RegistryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leveling_registry_entries",
			Help: "Creatures currently tracked by the mob registry",
		},
	)

	CustomMobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leveling_custom_mobs",
			Help: "Scripted custom mobs currently tracked",
		},
	)

	LevelAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leveling_level_assignments_total",
			Help: "Levels assigned, by source",
		},
		[]string{LabelSource},
	)
)

// Cleanup and recovery
var (
	SweepEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leveling_sweep_evictions_total",
			Help: "Registry entries removed by the periodic sweep, by reason",
		},
		[]string{LabelReason},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leveling_sweep_duration_seconds",
			Help:    "Wall-clock duration of a registry sweep",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	RecoveryDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leveling_boot_recovery_seconds",
			Help: "Wall-clock duration of the last boot recovery scan",
		},
	)
)

// Events
var (
	NameTagRenders = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leveling_nametag_renders_total",
			Help: "Name tags pushed to creatures",
		},
	)

	HookPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leveling_hook_panics_total",
			Help: "Event hooks that recovered from a panic, by hook",
		},
		[]string{LabelHook},
	)

	LedgerDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leveling_ledger_drops_total",
			Help: "Ledger entries dropped by a sink, by sink kind",
		},
		[]string{LabelKind},
	)
)

// World
var (
	WorldTick = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leveling_world_tick",
			Help: "Current reference host tick",
		},
	)

	WorldCreatures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leveling_world_creatures",
			Help: "Live creatures in the reference host, by species",
		},
		[]string{"species"},
	)

	WorldStepSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leveling_world_step_seconds",
			Help: "Duration of the last reference host tick",
		},
	)

	ObserverClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leveling_observer_clients",
			Help: "Connected name-tag observers",
		},
	)
)
