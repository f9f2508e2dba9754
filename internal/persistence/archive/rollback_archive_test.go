package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"voxelflow.ai/internal/persistence/snapshot"
)

func TestArchiveRollback_CopiesSourceAndWritesMeta(t *testing.T) {
	worldDir := filepath.Join(t.TempDir(), "worlds", "w1")

	src := filepath.Join(worldDir, "snapshots", "600.snap.zst")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("mkdir snapshots: %v", err)
	}
	want := []byte("dummy")
	if err := os.WriteFile(src, want, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	snap := snapshot.SnapshotV1{Header: snapshot.Header{Version: 1, WorldID: "w1", Tick: 600}}
	meta := RollbackMeta{AABB: "0,0,0:4,4,4", SinceTick: 100, ToTick: 600, Applied: 7}

	dir, err := ArchiveRollback(worldDir, src, snap, meta)
	if err != nil {
		t.Fatalf("ArchiveRollback: %v", err)
	}
	if filepath.Base(dir) != "rollback_600_001" {
		t.Fatalf("dir=%s", dir)
	}
	got, err := os.ReadFile(filepath.Join(dir, "600.snap.zst"))
	if err != nil {
		t.Fatalf("read archived: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("archived content mismatch: got=%q want=%q", string(got), string(want))
	}

	b, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		t.Fatalf("read meta: %v", err)
	}
	var m RollbackMeta
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal meta: %v", err)
	}
	if m.WorldID != "w1" || m.Tick != 600 || m.Source != "600.snap.zst" || m.Applied != 7 || m.CreatedAt == "" {
		t.Fatalf("meta=%+v", m)
	}

	// A second rollback from the same snapshot gets its own directory.
	dir2, err := ArchiveRollback(worldDir, src, snap, meta)
	if err != nil {
		t.Fatalf("ArchiveRollback again: %v", err)
	}
	if filepath.Base(dir2) != "rollback_600_002" {
		t.Fatalf("dir2=%s", dir2)
	}
}

func TestArchiveRollback_MissingSource(t *testing.T) {
	worldDir := t.TempDir()
	snap := snapshot.SnapshotV1{Header: snapshot.Header{Tick: 1}}
	if _, err := ArchiveRollback(worldDir, filepath.Join(worldDir, "nope.snap.zst"), snap, RollbackMeta{}); err == nil {
		t.Fatalf("expected error for missing source")
	}
}
