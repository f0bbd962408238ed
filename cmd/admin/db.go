package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	creatureID := fs.String("creature", "", "creature_id filter (entries)")
	kind := fs.String("kind", "", "kind filter (entries)")
	sp := fs.String("species", "", "species filter (entries)")
	_ = fs.Parse(args)

	q := "species"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "mobs.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runQuery(context.Background(), db, q, indexdb.Filter{
		CreatureID: strings.TrimSpace(*creatureID),
		Kind:       strings.TrimSpace(*kind),
		Species:    strings.TrimSpace(*sp),
		Limit:      *limit,
	}, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data|-db PATH] [-limit N] species|entries|sweeps|catalogs")
		os.Exit(2)
	}
}

func runQuery(ctx context.Context, db *sql.DB, q string, f indexdb.Filter, out io.Writer) error {
	switch q {
	case "species":
		rows, err := indexdb.LiveSpecies(ctx, db)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		for _, r := range rows {
			writeJSON(out, r)
		}

	case "entries":
		rows, err := indexdb.RecentEntries(ctx, db, f)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		for _, r := range rows {
			writeJSON(out, r)
		}

	case "sweeps":
		rows, err := indexdb.RecentSweeps(ctx, db, f.Limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		for _, r := range rows {
			writeJSON(out, r)
		}

	case "catalogs":
		rows, err := db.QueryContext(ctx, `SELECT name,digest,updated_at FROM catalogs ORDER BY name`)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Name      string `json:"name"`
				Digest    string `json:"digest"`
				UpdatedAt string `json:"updated_at"`
			}
			if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			writeJSON(out, r)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows: %w", err)
		}

	default:
		return fmt.Errorf("unknown query: %s", q)
	}
	return nil
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
