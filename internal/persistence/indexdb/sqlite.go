package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/metrics"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/catalogs"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/tuning"
)

// SQLiteIndex is a queryable read model of the mob ledger. Writes are queued to
// a single writer goroutine and dropped when the queue is full; the zstd ledger
// stays the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropEntry atomic.Uint64
	dropSweep atomic.Uint64
	dropBoot  atomic.Uint64
	failed    atomic.Uint64
}

type reqKind int

const (
	reqEntry reqKind = iota + 1
	reqSweep
	reqBoot
)

type req struct {
	kind reqKind

	entry mobs.LedgerEntry
	sweep sweepRow
	boot  bootRow
}

type sweepRow struct {
	At      string
	Scanned int
	Dead    int
	Trivial int
	Orphans int
	TookMS  int64
}

type bootRow struct {
	At            string
	Tracked       int
	RemovedStands int
	TookMS        int64
}

type QueueStats struct {
	QueueDepth     int    `json:"queue_depth"`
	QueueCapacity  int    `json:"queue_capacity"`
	DropEntryTotal uint64 `json:"drop_entry_total"`
	DropSweepTotal uint64 `json:"drop_sweep_total"`
	DropBootTotal  uint64 `json:"drop_boot_total"`
	WriteErrors    uint64 `json:"write_errors"`
}

// Per-connection pragmas, applied by the modernc driver on every open.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=temp_store(MEMORY)"

// commitEvery caps the number of statements in one batch transaction.
const commitEvery = 2000

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, err
	}
	// One connection: the writer and readers take turns, which the batch loop
	// keeps short.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	st, err := prepare(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare: %w", err)
	}

	// Boot recovery can emit one entry per loaded creature in a burst.
	s := &SQLiteIndex{db: db, ch: make(chan req, 65536)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer st.close()
		s.loop(st)
	}()
	return s, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ledger (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			kind TEXT NOT NULL,
			creature_id TEXT NOT NULL,
			world TEXT NOT NULL,
			species TEXT NOT NULL,
			level INTEGER NOT NULL,
			reason TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_creature ON ledger(creature_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_kind ON ledger(kind, seq);`,
		`CREATE TABLE IF NOT EXISTS creatures (
			creature_id TEXT PRIMARY KEY,
			world TEXT NOT NULL,
			species TEXT NOT NULL,
			level INTEGER NOT NULL,
			last_kind TEXT NOT NULL,
			first_seen TEXT NOT NULL,
			last_seen TEXT NOT NULL,
			gone INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_creatures_species ON creatures(species, level);`,
		`CREATE TABLE IF NOT EXISTS sweeps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			scanned INTEGER NOT NULL,
			dead INTEGER NOT NULL,
			trivial INTEGER NOT NULL,
			orphans INTEGER NOT NULL,
			took_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS boots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			tracked INTEGER NOT NULL,
			removed_stands INTEGER NOT NULL,
			took_ms INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// DB exposes the handle for read queries.
func (s *SQLiteIndex) DB() *sql.DB { return s.db }

func (s *SQLiteIndex) Stats() QueueStats {
	if s == nil {
		return QueueStats{}
	}
	return QueueStats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropEntryTotal: s.dropEntry.Load(),
		DropSweepTotal: s.dropSweep.Load(),
		DropBootTotal:  s.dropBoot.Load(),
		WriteErrors:    s.failed.Load(),
	}
}

func (s *SQLiteIndex) WriteEntry(e mobs.LedgerEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqEntry, entry: e}:
	default:
		s.dropEntry.Add(1)
		metrics.LedgerDrops.WithLabelValues("sqlite").Inc()
	}
	return nil
}

func (s *SQLiteIndex) RecordSweep(r mobs.SweepReport) {
	if s == nil || s.closed.Load() {
		return
	}
	row := sweepRow{
		At:      time.Now().UTC().Format(time.RFC3339Nano),
		Scanned: r.Scanned,
		Dead:    r.Evicted[mobs.EvictDead],
		Trivial: r.Evicted[mobs.EvictTrivial],
		Orphans: r.Evicted[mobs.EvictOrphan],
		TookMS:  r.Took.Milliseconds(),
	}
	select {
	case s.ch <- req{kind: reqSweep, sweep: row}:
	default:
		s.dropSweep.Add(1)
	}
}

func (s *SQLiteIndex) RecordBoot(r mobs.InitReport) {
	if s == nil || s.closed.Load() {
		return
	}
	row := bootRow{
		At:            time.Now().UTC().Format(time.RFC3339Nano),
		Tracked:       r.Tracked,
		RemovedStands: r.RemovedStands,
		TookMS:        r.Took.Milliseconds(),
	}
	select {
	case s.ch <- req{kind: reqBoot, boot: row}:
	default:
		s.dropBoot.Add(1)
	}
}

// UpsertCatalogs stores the custom mob catalog and the applied tuning so a
// ledger can be read against the configuration that produced it.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if cats != nil {
		defs := make([]catalogs.CustomMobDef, 0, len(cats.CustomMobs.Order))
		for _, id := range cats.CustomMobs.Order {
			defs = append(defs, cats.CustomMobs.ByID[id])
		}
		if b, err := json.Marshal(defs); err == nil {
			rows = append(rows, kv{name: "custom_mobs", digest: cats.CustomMobs.Digest, json: b})
		}
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type stmts struct {
	entry, creature, sweep, boot *sql.Stmt
}

func prepare(db *sql.DB) (*stmts, error) {
	var (
		st  stmts
		err error
	)
	for _, p := range []struct {
		dst **sql.Stmt
		q   string
	}{
		{&st.entry, `INSERT INTO ledger(at,kind,creature_id,world,species,level,reason) VALUES(?,?,?,?,?,?,?)`},
		{&st.creature, `INSERT INTO creatures(creature_id,world,species,level,last_kind,first_seen,last_seen,gone)
			VALUES(?,?,?,?,?,?,?,?)
			ON CONFLICT(creature_id) DO UPDATE SET
				world=CASE WHEN excluded.world='' THEN creatures.world ELSE excluded.world END,
				level=excluded.level,
				last_kind=excluded.last_kind,
				last_seen=excluded.last_seen,
				gone=excluded.gone`},
		{&st.sweep, `INSERT INTO sweeps(at,scanned,dead,trivial,orphans,took_ms) VALUES(?,?,?,?,?,?)`},
		{&st.boot, `INSERT INTO boots(at,tracked,removed_stands,took_ms) VALUES(?,?,?,?)`},
	} {
		if *p.dst, err = db.Prepare(p.q); err != nil {
			st.close()
			return nil, err
		}
	}
	return &st, nil
}

func (st *stmts) close() {
	for _, s := range []*sql.Stmt{st.entry, st.creature, st.sweep, st.boot} {
		if s != nil {
			_ = s.Close()
		}
	}
}

func (st *stmts) apply(tx *sql.Tx, r req) error {
	switch r.kind {
	case reqEntry:
		e := r.entry
		at := e.Time.UTC().Format(time.RFC3339Nano)
		if _, err := tx.Stmt(st.entry).Exec(at, string(e.Kind), e.CreatureID, e.World, e.Species, e.Level, e.Reason); err != nil {
			return err
		}
		gone := 0
		if e.Kind == mobs.KindDeath || e.Kind == mobs.KindEvicted {
			gone = 1
		}
		_, err := tx.Stmt(st.creature).Exec(e.CreatureID, e.World, e.Species, e.Level, string(e.Kind), at, at, gone)
		return err
	case reqSweep:
		sw := r.sweep
		_, err := tx.Stmt(st.sweep).Exec(sw.At, sw.Scanned, sw.Dead, sw.Trivial, sw.Orphans, sw.TookMS)
		return err
	case reqBoot:
		b := r.boot
		_, err := tx.Stmt(st.boot).Exec(b.At, b.Tracked, b.RemovedStands, b.TookMS)
		return err
	}
	return nil
}

// loop drains the queue. A burst shares one transaction; the transaction
// commits once the queue is empty so readers never wait behind it. A failed
// statement rolls back the batch it belongs to.
func (s *SQLiteIndex) loop(st *stmts) {
	var (
		tx  *sql.Tx
		ops int
	)
	for r := range s.ch {
		if tx == nil {
			var err error
			if tx, err = s.db.Begin(); err != nil {
				s.failed.Add(1)
				continue
			}
		}
		if err := st.apply(tx, r); err != nil {
			_ = tx.Rollback()
			tx, ops = nil, 0
			s.failed.Add(1)
			continue
		}
		ops++
		if ops >= commitEvery || len(s.ch) == 0 {
			if err := tx.Commit(); err != nil {
				s.failed.Add(1)
			}
			tx, ops = nil, 0
		}
	}
	if tx != nil {
		if err := tx.Commit(); err != nil {
			s.failed.Add(1)
		}
	}
}
