package log

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/metrics"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs"
)

// ErrClosed is returned by WriteEntry after Close.
var ErrClosed = errors.New("ledger closed")

const hourLayout = "2006-01-02-15"

// FileName is the file that holds lines written during t's UTC hour.
func FileName(dir, prefix string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.jsonl.zst", prefix, t.UTC().Format(hourLayout)))
}

// HourlyWriter appends JSON lines to zstd files rotated on the UTC hour. It is
// synchronous; MobLedger runs it off the game thread.
// Every Write ends a zstd block, so a crash loses at most the line in flight.
// Reopening an hour that already has a file appends a new frame to it.
type HourlyWriter struct {
	dir    string
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	hour string
	file *os.File
	zw   *zstd.Encoder
	line []byte
}

func NewHourlyWriter(dir, prefix string) *HourlyWriter {
	return &HourlyWriter{dir: dir, prefix: prefix, now: time.Now}
}

func (w *HourlyWriter) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.openLocked(w.now()); err != nil {
		return err
	}
	w.line = append(append(w.line[:0], b...), '\n')
	if _, err := w.zw.Write(w.line); err != nil {
		return err
	}
	return w.zw.Flush()
}

func (w *HourlyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *HourlyWriter) openLocked(now time.Time) error {
	hour := now.UTC().Format(hourLayout)
	if w.zw != nil && hour == w.hour {
		return nil
	}
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(FileName(w.dir, w.prefix, now), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.file, w.zw, w.hour = f, zw, hour
	return nil
}

func (w *HourlyWriter) closeLocked() error {
	if w.zw == nil {
		return nil
	}
	err := w.zw.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file, w.zw, w.hour = nil, nil, ""
	return err
}

// ledgerQueue absorbs a boot recovery burst over a large world.
const ledgerQueue = 65536

type lineWriter interface {
	Write(v any) error
	Close() error
}

// MobLedger is the durable record of every level assignment, recovery, tame,
// death and eviction, under <dataDir>/ledger. WriteEntry only enqueues; a
// single goroutine compresses and flushes. Entries that find the queue full
// are dropped and counted.
type MobLedger struct {
	w  lineWriter
	ch chan mobs.LedgerEntry
	wg sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	err    error

	dropped atomic.Uint64
	failed  atomic.Uint64
}

type LedgerStats struct {
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	DropTotal     uint64 `json:"drop_total"`
	WriteErrors   uint64 `json:"write_errors"`
}

func NewMobLedger(dataDir string) *MobLedger {
	return newMobLedger(NewHourlyWriter(filepath.Join(dataDir, "ledger"), "mobs"), ledgerQueue)
}

func newMobLedger(w lineWriter, size int) *MobLedger {
	l := &MobLedger{w: w, ch: make(chan mobs.LedgerEntry, size)}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for e := range l.ch {
			if err := l.w.Write(e); err != nil {
				l.failed.Add(1)
			}
		}
	}()
	return l
}

func (l *MobLedger) WriteEntry(e mobs.LedgerEntry) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	select {
	case l.ch <- e:
	default:
		l.dropped.Add(1)
		metrics.LedgerDrops.WithLabelValues("zstd").Inc()
	}
	return nil
}

func (l *MobLedger) Stats() LedgerStats {
	return LedgerStats{
		QueueDepth:    len(l.ch),
		QueueCapacity: cap(l.ch),
		DropTotal:     l.dropped.Load(),
		WriteErrors:   l.failed.Load(),
	}
}

// Close drains the queue, then closes the current file.
func (l *MobLedger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return l.err
	}
	l.closed = true
	close(l.ch)
	l.mu.Unlock()

	l.wg.Wait()
	err := l.w.Close()
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
	return err
}
