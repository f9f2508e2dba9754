package snapshot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir, 42)
	in := SnapshotV1{
		Header:    Header{Version: Version, WorldID: "w1", Tick: 42},
		TickRate:  20,
		Height:    64,
		BoundaryR: 128,
		Palette:   []string{"AIR", "LAVA", "STONE", "WATER"},
		Chunks:    []ChunkV1{{CX: -1, CZ: 2, Height: 1, Blocks: make([]uint16, 256)}},
		Pending: []PendingV1{
			{Pos: [3]int{1, 2, 3}, Fluid: "LAVA", Due: 60},
			{Pos: [3]int{0, 2, 3}, Fluid: "WATER", Due: 45},
		},
		Entities:  []EntityV1{{ID: "e1", Kind: "HUMAN", Pos: [3]float64{0.5, 3, 0.5}, Health: 16, FireTicks: 300}},
		EntitySeq: 1,
	}
	in.Chunks[0].Blocks[7] = 2 << 5

	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if h.WorldID != "w1" || h.Tick != 42 {
		t.Fatalf("header: %+v", h)
	}

	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Chunks[0].Blocks[7] != 2<<5 || out.Chunks[0].CX != -1 {
		t.Fatalf("chunks: %+v", out.Chunks[0].CX)
	}
	if len(out.Pending) != 2 || out.Pending[0].Fluid != "LAVA" || out.Pending[1].Due != 45 {
		t.Fatalf("pending order lost: %+v", out.Pending)
	}
	if out.Entities[0].FireTicks != 300 || out.EntitySeq != 1 {
		t.Fatalf("entities: %+v", out.Entities)
	}
}

func TestReadSnapshotRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.snap.zst")
	if err := WriteSnapshot(path, SnapshotV1{Header: Header{Version: 9}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected version error")
	}
}
