package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs"
)

func TestMobLedger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewMobLedger(dir)

	want := []mobs.LedgerEntry{
		{Time: time.Unix(100, 0).UTC(), Kind: mobs.KindAssigned, CreatureID: "a", World: "world", Species: "ZOMBIE", Level: 21},
		{Time: time.Unix(101, 0).UTC(), Kind: mobs.KindTamed, CreatureID: "b", World: "world", Species: "WOLF", Level: 30, Reason: "steve"},
		{Time: time.Unix(102, 0).UTC(), Kind: mobs.KindEvicted, CreatureID: "a", Species: "ZOMBIE", Level: 21, Reason: mobs.EvictDead},
	}
	for _, e := range want {
		if err := l.WriteEntry(e); err != nil {
			t.Fatalf("WriteEntry: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := LedgerFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("files=%v want 1", files)
	}
	var got []mobs.LedgerEntry
	if err := ReadEntries(files[0], func(e mobs.LedgerEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("entries=%d want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if !g.Time.Equal(w.Time) {
			t.Fatalf("entry %d time=%v want %v", i, g.Time, w.Time)
		}
		g.Time, w.Time = time.Time{}, time.Time{}
		if g != w {
			t.Fatalf("entry %d=%+v want %+v", i, got[i], want[i])
		}
	}
}

func TestHourlyWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewHourlyWriter(dir, "mobs")
	now := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(mobs.LedgerEntry{CreatureID: "a"}); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(mobs.LedgerEntry{CreatureID: "b"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(dir, "mobs")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files=%v want 2", files)
	}
	if filepath.Base(files[0]) != "mobs-2026-03-01-10.jsonl.zst" || filepath.Base(files[1]) != "mobs-2026-03-01-11.jsonl.zst" {
		t.Fatalf("unexpected names: %v", files)
	}
}

func TestHourlyWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, id := range []string{"a", "b"} {
		w := NewHourlyWriter(dir, "mobs")
		w.now = func() time.Time { return now }
		if err := w.Write(mobs.LedgerEntry{CreatureID: id}); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	files, _ := ListFiles(dir, "mobs")
	if len(files) != 1 {
		t.Fatalf("files=%v want 1", files)
	}
	var ids []string
	if err := ReadEntries(files[0], func(e mobs.LedgerEntry) error {
		ids = append(ids, e.CreatureID)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("ids=%v want [a b]", ids)
	}
}

func TestListFiles_IgnoresOtherPrefixes(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"mobs-2026-01-01-00.jsonl.zst", "other-2026-01-01-00.jsonl.zst", "mobs.txt"} {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := ListFiles(dir, "mobs")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("files=%v", files)
	}
}

func TestFileName_UsesUTCHour(t *testing.T) {
	at := time.Date(2026, 3, 1, 23, 5, 0, 0, time.FixedZone("UTC-2", -2*3600))
	if got, want := FileName("d", "mobs", at), filepath.Join("d", "mobs-2026-03-02-01.jsonl.zst"); got != want {
		t.Fatalf("FileName=%q want %q", got, want)
	}
}

func TestListFiles_MissingDir(t *testing.T) {
	files, err := ListFiles(filepath.Join(t.TempDir(), "nope"), "mobs")
	if err != nil || len(files) != 0 {
		t.Fatalf("files=%v err=%v", files, err)
	}
}
