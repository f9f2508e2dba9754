package world

import (
	"voxelflow.ai/internal/sim/entity"
	"voxelflow.ai/internal/sim/voxel"
)

// Debug helpers read world state directly for tests and tools. They must not be called while
// Run is active.

func (w *World) DebugBlock(p voxel.Pos) string {
	return w.pal.Name(w.chunks.GetBlock(p))
}

func (w *World) DebugState(p voxel.Pos) voxel.State {
	return w.chunks.GetBlock(p)
}

func (w *World) DebugEntity(id string) (entity.State, bool) {
	e, ok := w.entities.Get(id)
	if !ok {
		return entity.State{}, false
	}
	return e.State(), true
}
