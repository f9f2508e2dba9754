package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"voxelflow.ai/internal/sim/world"
)

// Files lists the rotated files of one stream in chronological order. The hour stamp in the
// name sorts lexically.
func Files(dir, prefix string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, prefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ReadJSONL decodes every line of one compressed file into a fresh T and passes it to fn.
// Iteration stops at the first error from fn.
func ReadJSONL[T any](path string, fn func(T) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(sc.Bytes(), &v); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ForEachTick walks the tick log of a world directory in order.
func ForEachTick(worldDir string, fn func(world.TickLogEntry) error) error {
	files, err := Files(filepath.Join(worldDir, tickPrefix), tickPrefix)
	if err != nil {
		return err
	}
	for _, p := range files {
		if err := ReadJSONL(p, fn); err != nil {
			return err
		}
	}
	return nil
}

// ForEachAudit walks the audit log of a world directory in order.
func ForEachAudit(worldDir string, fn func(world.AuditEntry) error) error {
	files, err := Files(filepath.Join(worldDir, auditPrefix), auditPrefix)
	if err != nil {
		return err
	}
	for _, p := range files {
		if err := ReadJSONL(p, fn); err != nil {
			return err
		}
	}
	return nil
}
