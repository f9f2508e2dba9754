package world

import (
	"fmt"

	"voxelflow.ai/internal/persistence/snapshot"
	"voxelflow.ai/internal/sim/entity"
	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/schedule"
	"voxelflow.ai/internal/sim/voxel"
)

// ExportSnapshot captures the world after nowTick. Must be called from the world loop goroutine.
func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	keys := w.chunks.LoadedChunkKeys()
	chunks := make([]snapshot.ChunkV1, 0, len(keys))
	for _, k := range keys {
		ch := w.chunks.Chunks[k]
		blocks := make([]uint16, len(ch.Blocks))
		for i, b := range ch.Blocks {
			blocks[i] = uint16(b)
		}
		chunks = append(chunks, snapshot.ChunkV1{CX: k.CX, CZ: k.CZ, Height: ch.Height, Blocks: blocks})
	}

	pending := w.queue.Snapshot()
	pend := make([]snapshot.PendingV1, 0, len(pending))
	for _, u := range pending {
		pend = append(pend, snapshot.PendingV1{Pos: u.Pos.ToArray(), Fluid: u.Fluid.String(), Due: u.Due})
	}

	seq, states := w.entities.Export()
	ents := make([]snapshot.EntityV1, 0, len(states))
	for _, s := range states {
		ents = append(ents, snapshot.EntityV1(s))
	}

	return snapshot.SnapshotV1{
		Header:             snapshot.Header{Version: snapshot.Version, WorldID: w.cfg.ID, Tick: nowTick},
		TickRate:           w.cfg.TickRateHz,
		Height:             w.cfg.Height,
		BoundaryR:          w.cfg.BoundaryR,
		Palette:            w.BlockPalette(),
		PaletteDigest:      w.catalogs.Blocks.PaletteDigest,
		SnapshotEveryTicks: w.cfg.SnapshotEveryTicks,
		EntityContact:      w.cfg.EntityContact,
		Chunks:             chunks,
		Pending:            pend,
		Entities:           ents,
		EntitySeq:          seq,
	}
}

// ImportSnapshot replaces the world state. The world resumes at the tick after the snapshot.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.PaletteDigest != "" && s.PaletteDigest != w.catalogs.Blocks.PaletteDigest {
		return fmt.Errorf("snapshot palette digest %s does not match catalog %s", s.PaletteDigest, w.catalogs.Blocks.PaletteDigest)
	}
	if s.Height != 0 && s.Height != w.cfg.Height {
		return fmt.Errorf("snapshot height %d does not match world height %d", s.Height, w.cfg.Height)
	}
	maxID := uint16(len(w.catalogs.Blocks.Palette))

	store := voxel.NewChunkStore(w.cfg.Height, w.cfg.BoundaryR, w.pal.Air)
	for _, c := range s.Chunks {
		if c.Height != w.cfg.Height || len(c.Blocks) != voxel.ChunkSize*voxel.ChunkSize*c.Height {
			return fmt.Errorf("chunk %d,%d: bad dimensions", c.CX, c.CZ)
		}
		ch := voxel.NewChunk(c.CX, c.CZ, c.Height)
		for i, b := range c.Blocks {
			if voxel.State(b).ID() >= maxID {
				return fmt.Errorf("chunk %d,%d: block id %d outside palette", c.CX, c.CZ, voxel.State(b).ID())
			}
			ch.Blocks[i] = voxel.State(b)
		}
		store.Chunks[voxel.ChunkKey{CX: c.CX, CZ: c.CZ}] = ch
	}

	updates := make([]schedule.Update, 0, len(s.Pending))
	for _, p := range s.Pending {
		t, ok := fluid.Parse(p.Fluid)
		if !ok {
			return fmt.Errorf("pending update at %v: unknown fluid %q", p.Pos, p.Fluid)
		}
		updates = append(updates, schedule.Update{Pos: voxel.PosFromArray(p.Pos), Fluid: t, Due: p.Due})
	}

	states := make([]entity.State, 0, len(s.Entities))
	for _, e := range s.Entities {
		states = append(states, entity.State(e))
	}
	if err := w.entities.Import(s.EntitySeq, states); err != nil {
		return err
	}

	// The grid is shared with the resolver and propagator; swap contents in place.
	w.chunks.Chunks = store.Chunks
	w.queue.Restore(s.Header.Tick+1, updates)
	w.tick.Store(s.Header.Tick + 1)
	return nil
}

// ConfigFromSnapshot rebuilds the world config a snapshot was taken with. Operational limits
// not stored in snapshots keep their defaults.
func ConfigFromSnapshot(s snapshot.SnapshotV1) WorldConfig {
	return WorldConfig{
		ID:                 s.Header.WorldID,
		TickRateHz:         s.TickRate,
		Height:             s.Height,
		BoundaryR:          s.BoundaryR,
		SnapshotEveryTicks: s.SnapshotEveryTicks,
		EntityContact:      s.EntityContact,
	}
}
