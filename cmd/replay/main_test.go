package main

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/persistence/indexdb"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs"
)

func entries() []mobs.LedgerEntry {
	now := time.Unix(1000, 0).UTC()
	return []mobs.LedgerEntry{
		{Time: now, Kind: mobs.KindAssigned, CreatureID: "z1", World: "world", Species: "ZOMBIE", Level: 20},
		{Time: now, Kind: mobs.KindAssigned, CreatureID: "z2", World: "world", Species: "ZOMBIE", Level: 26},
		{Time: now, Kind: mobs.KindAssigned, CreatureID: "w1", World: "world", Species: "WOLF", Level: 12},
		{Time: now, Kind: mobs.KindTamed, CreatureID: "w1", World: "world", Species: "WOLF", Level: 33},
		{Time: now, Kind: mobs.KindDeath, CreatureID: "z1", World: "world", Species: "ZOMBIE", Level: 20},
	}
}

func TestStateFold(t *testing.T) {
	st := newState()
	for _, e := range entries() {
		_ = st.apply(e)
	}
	if st.entries != 5 || len(st.creatures) != 3 || len(st.live()) != 2 {
		t.Fatalf("entries=%d creatures=%d live=%d", st.entries, len(st.creatures), len(st.live()))
	}
	sum := st.summary()
	if len(sum) != 2 || sum[0].species != "WOLF" || sum[0].maxLevel != 33 {
		t.Fatalf("summary=%+v", sum)
	}
}

func TestVerifyAgainstIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mobs.sqlite")
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries() {
		_ = idx.WriteEntry(e)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	st := newState()
	for _, e := range entries() {
		_ = st.apply(e)
	}
	got, err := verify(context.Background(), db, st)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("mismatches=%v", got)
	}

	_ = st.apply(mobs.LedgerEntry{Kind: mobs.KindEvicted, CreatureID: "z2", Species: "ZOMBIE", Level: 26})
	_ = st.apply(mobs.LedgerEntry{Kind: mobs.KindAssigned, CreatureID: "x9", Species: "COW", Level: 4})
	got, _ = verify(context.Background(), db, st)
	if len(got) != 2 {
		t.Fatalf("mismatches=%v want 2", got)
	}
}
