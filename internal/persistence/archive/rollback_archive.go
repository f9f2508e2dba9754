package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"voxelflow.ai/internal/persistence/snapshot"
)

// RollbackMeta records how a rollback snapshot was produced.
type RollbackMeta struct {
	WorldID   string `json:"world_id"`
	Tick      uint64 `json:"tick"`
	Source    string `json:"source"`
	Output    string `json:"output"`
	AABB      string `json:"aabb"`
	SinceTick uint64 `json:"since_tick"`
	ToTick    uint64 `json:"to_tick"`
	Reason    string `json:"reason,omitempty"`
	Applied   int    `json:"applied"`
	Skipped   int    `json:"skipped"`
	Dropped   int    `json:"pending_dropped"`
	CreatedAt string `json:"created_at"`
}

// ArchiveRollback copies the snapshot a rollback started from into
// `worldDir/archives/rollback_<tick>_<n>/` next to a meta.json describing the rollback, so the
// pre-rollback state survives even if the rollback output replaces it on resume.
func ArchiveRollback(worldDir, sourcePath string, snap snapshot.SnapshotV1, meta RollbackMeta) (string, error) {
	base := filepath.Join(worldDir, "archives")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}

	var archiveDir string
	for n := 1; ; n++ {
		archiveDir = filepath.Join(base, fmt.Sprintf("rollback_%d_%03d", snap.Header.Tick, n))
		err := os.Mkdir(archiveDir, 0o755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", err
		}
	}

	dst := filepath.Join(archiveDir, filepath.Base(sourcePath))
	if err := copyFile(sourcePath, dst); err != nil {
		return "", err
	}

	meta.WorldID = snap.Header.WorldID
	meta.Tick = snap.Header.Tick
	meta.Source = filepath.Base(dst)
	if meta.CreatedAt == "" {
		meta.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644); err != nil {
		return "", err
	}
	return archiveDir, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
