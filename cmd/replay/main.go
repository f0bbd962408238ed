// Command replay folds the zstd mob ledger into the final state of every
// creature and, given an index, checks the SQLite read model agrees.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"sort"

	_ "modernc.org/sqlite"

	persistlog "github.com/DevvyDoo/Leveling-Overhaul/internal/persistence/log"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs"
)

func main() {
	var (
		dataDir = flag.String("data", "./data", "runtime data directory")
		dbPath  = flag.String("db", "", "sqlite index to verify against (optional)")
	)
	flag.Parse()

	files, err := persistlog.LedgerFiles(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list ledger:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no ledger files found in", *dataDir)
		os.Exit(1)
	}

	st := newState()
	for _, path := range files {
		if err := persistlog.ReadEntries(path, st.apply); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}

	live := st.live()
	fmt.Printf("replay ok: files=%d entries=%d creatures=%d live=%d\n", len(files), st.entries, len(st.creatures), len(live))
	for _, row := range st.summary() {
		fmt.Printf("  %-20s live=%-6d max_level=%d\n", row.species, row.count, row.maxLevel)
	}

	if *dbPath == "" {
		return
	}
	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()
	mismatches, err := verify(context.Background(), db, st)
	if err != nil {
		fmt.Fprintln(os.Stderr, "verify:", err)
		os.Exit(1)
	}
	for _, m := range mismatches {
		fmt.Println("mismatch:", m)
	}
	if len(mismatches) > 0 {
		os.Exit(1)
	}
	fmt.Println("index ok")
}

type creature struct {
	species string
	level   int
	gone    bool
}

type state struct {
	entries   int
	creatures map[string]*creature
}

func newState() *state { return &state{creatures: map[string]*creature{}} }

func (s *state) apply(e mobs.LedgerEntry) error {
	s.entries++
	c, ok := s.creatures[e.CreatureID]
	if !ok {
		c = &creature{}
		s.creatures[e.CreatureID] = c
	}
	c.species = e.Species
	c.level = e.Level
	c.gone = e.Kind == mobs.KindDeath || e.Kind == mobs.KindEvicted
	return nil
}

func (s *state) live() map[string]*creature {
	out := map[string]*creature{}
	for id, c := range s.creatures {
		if !c.gone {
			out[id] = c
		}
	}
	return out
}

type speciesRow struct {
	species  string
	count    int
	maxLevel int
}

func (s *state) summary() []speciesRow {
	by := map[string]*speciesRow{}
	for _, c := range s.live() {
		r, ok := by[c.species]
		if !ok {
			r = &speciesRow{species: c.species}
			by[c.species] = r
		}
		r.count++
		r.maxLevel = max(r.maxLevel, c.level)
	}
	out := make([]speciesRow, 0, len(by))
	for _, r := range by {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].species < out[j].species
	})
	return out
}

// verify compares the folded ledger with the creatures table. The index
// drops writes under load, so creatures missing from it are reported too.
func verify(ctx context.Context, db *sql.DB, s *state) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT creature_id,level,gone FROM creatures`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seen := map[string]bool{}
	var out []string
	for rows.Next() {
		var (
			id    string
			level int
			gone  int
		)
		if err := rows.Scan(&id, &level, &gone); err != nil {
			return nil, err
		}
		seen[id] = true
		c, ok := s.creatures[id]
		if !ok {
			out = append(out, fmt.Sprintf("%s: in index, not in ledger", id))
			continue
		}
		if c.level != level || c.gone != (gone == 1) {
			out = append(out, fmt.Sprintf("%s: ledger level=%d gone=%v, index level=%d gone=%v", id, c.level, c.gone, level, gone == 1))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for id := range s.creatures {
		if !seen[id] {
			out = append(out, fmt.Sprintf("%s: in ledger, not in index", id))
		}
	}
	sort.Strings(out)
	return out, nil
}
