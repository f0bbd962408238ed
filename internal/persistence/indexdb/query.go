package indexdb

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs"
)

// Filter narrows RecentEntries; zero fields match everything.
type Filter struct {
	CreatureID string
	Kind       string
	Species    string
	Limit      int
}

// RecentEntries returns ledger rows newest first.
func RecentEntries(ctx context.Context, db *sql.DB, f Filter) ([]mobs.LedgerEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.CreatureID != "" {
		where = append(where, "creature_id=?")
		args = append(args, f.CreatureID)
	}
	if f.Kind != "" {
		where = append(where, "kind=?")
		args = append(args, f.Kind)
	}
	if f.Species != "" {
		where = append(where, "species=?")
		args = append(args, strings.ToUpper(f.Species))
	}
	limit := f.Limit
	if limit <= 0 || limit > 10000 {
		limit = 100
	}
	q := `SELECT at,kind,creature_id,world,species,level,COALESCE(reason,'') FROM ledger`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []mobs.LedgerEntry
	for rows.Next() {
		var (
			e    mobs.LedgerEntry
			at   string
			kind string
		)
		if err := rows.Scan(&at, &kind, &e.CreatureID, &e.World, &e.Species, &e.Level, &e.Reason); err != nil {
			return nil, err
		}
		e.Kind = mobs.EntryKind(kind)
		e.Time, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

type SpeciesSummary struct {
	Species  string  `json:"species"`
	Count    int     `json:"count"`
	AvgLevel float64 `json:"avg_level"`
	MaxLevel int     `json:"max_level"`
}

// LiveSpecies summarizes creatures the ledger has not seen die or get evicted.
func LiveSpecies(ctx context.Context, db *sql.DB) ([]SpeciesSummary, error) {
	rows, err := db.QueryContext(ctx, `SELECT species,COUNT(*),AVG(level),MAX(level)
		FROM creatures WHERE gone=0 GROUP BY species ORDER BY COUNT(*) DESC, species`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SpeciesSummary
	for rows.Next() {
		var s SpeciesSummary
		if err := rows.Scan(&s.Species, &s.Count, &s.AvgLevel, &s.MaxLevel); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type Sweep struct {
	At      string `json:"at"`
	Scanned int    `json:"scanned"`
	Dead    int    `json:"dead"`
	Trivial int    `json:"trivial"`
	Orphans int    `json:"orphans"`
	TookMS  int64  `json:"took_ms"`
}

func RecentSweeps(ctx context.Context, db *sql.DB, limit int) ([]Sweep, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `SELECT at,scanned,dead,trivial,orphans,took_ms FROM sweeps ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sweep
	for rows.Next() {
		var s Sweep
		if err := rows.Scan(&s.At, &s.Scanned, &s.Dead, &s.Trivial, &s.Orphans, &s.TookMS); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
