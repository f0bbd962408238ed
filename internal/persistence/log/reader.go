package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs"
)

// ListFiles returns the <prefix>-*.jsonl.zst files in dir, oldest first. A
// missing dir has no files.
func ListFiles(dir, prefix string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, prefix+"-*.jsonl.zst"))
}

func LedgerFiles(dataDir string) ([]string, error) {
	return ListFiles(filepath.Join(dataDir, "ledger"), "mobs")
}

// ReadEntries calls fn for every entry in path in write order and stops at the
// first error fn returns. The unterminated frame of a file that is still being
// written ends the read without error.
func ReadEntries(path string, fn func(mobs.LedgerEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return err
	}
	defer zr.Close()

	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		var e mobs.LedgerEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("%s:%d: %w", filepath.Base(path), line, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
