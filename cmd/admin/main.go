package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	persistlog "github.com/DevvyDoo/Leveling-Overhaul/internal/persistence/log"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "ledger":
			ledgerCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "mobs":
			mobsCmd(os.Args[2:])
			return
		case "spawn":
			spawnCmd(os.Args[2:])
			return
		case "sweep":
			sweepCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	files, err := persistlog.LedgerFiles(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, f := range files {
		fmt.Println(f)
	}
}

// ledgerFilter selects entries while scanning the zstd ledger.
type ledgerFilter struct {
	creatureID string
	kind       string
	species    string
	since      time.Time
}

func (f ledgerFilter) match(e mobs.LedgerEntry) bool {
	if f.creatureID != "" && e.CreatureID != f.creatureID {
		return false
	}
	if f.kind != "" && string(e.Kind) != f.kind {
		return false
	}
	if f.species != "" && e.Species != f.species {
		return false
	}
	return f.since.IsZero() || !e.Time.Before(f.since)
}

var errLimit = errors.New("limit reached")

func ledgerCmd(args []string) {
	fs := flag.NewFlagSet("ledger", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	creatureID := fs.String("creature", "", "creature id filter")
	kind := fs.String("kind", "", "entry kind filter (assigned|recovered|tamed|spawned|custom|death|evicted)")
	sp := fs.String("species", "", "species filter")
	since := fs.Duration("since", 0, "only entries newer than this (e.g. 1h)")
	limit := fs.Int("limit", 0, "stop after this many entries (0 = all)")
	_ = fs.Parse(args)

	f := ledgerFilter{
		creatureID: strings.TrimSpace(*creatureID),
		kind:       strings.TrimSpace(*kind),
		species:    strings.ToUpper(strings.TrimSpace(*sp)),
	}
	if *since > 0 {
		f.since = time.Now().Add(-*since)
	}
	n, err := scanLedger(*dataDir, f, *limit, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ledger:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%d entries\n", n)
}

func scanLedger(dataDir string, f ledgerFilter, limit int, out io.Writer) (int, error) {
	files, err := persistlog.LedgerFiles(dataDir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, path := range files {
		err := persistlog.ReadEntries(path, func(e mobs.LedgerEntry) error {
			if !f.match(e) {
				return nil
			}
			writeJSON(out, e)
			n++
			if limit > 0 && n >= limit {
				return errLimit
			}
			return nil
		})
		if errors.Is(err, errLimit) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
