package flow

import (
	"testing"

	"voxelflow.ai/internal/sim/blocks"
	"voxelflow.ai/internal/sim/catalogs"
	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/schedule"
	"voxelflow.ai/internal/sim/voxel"
)

type countingGrid struct {
	*voxel.ChunkStore
	writes int
}

func (g *countingGrid) SetBlock(p voxel.Pos, s voxel.State) {
	g.writes++
	g.ChunkStore.SetBlock(p, s)
}

type sound struct {
	Pos   voxel.Pos
	Sound string
}

type recordingNotifier struct{ sounds []sound }

func (n *recordingNotifier) Emit(p voxel.Pos, s string) { n.sounds = append(n.sounds, sound{p, s}) }

type harness struct {
	t      *testing.T
	pal    *blocks.Palette
	grid   *countingGrid
	queue  *schedule.Queue
	notify *recordingNotifier
	res    *Resolver
	prop   *Propagator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	var bc catalogs.BlockCatalog
	err := catalogs.BuildBlocks([]catalogs.BlockDef{
		{ID: "AIR", Replaceable: true},
		{ID: "STONE", Solid: true},
		{ID: "COBBLESTONE", Solid: true},
		{ID: "OBSIDIAN", Solid: true},
		{ID: "BEDROCK", Solid: true},
		{ID: "TALL_GRASS", Replaceable: true},
		{ID: "WATER", Fluid: "WATER"},
		{ID: "LAVA", Fluid: "LAVA"},
	}, &bc)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	pal, err := blocks.NewPalette(bc)
	if err != nil {
		t.Fatalf("palette: %v", err)
	}
	h := &harness{
		t:      t,
		pal:    pal,
		grid:   &countingGrid{ChunkStore: voxel.NewChunkStore(8, 32, pal.Air)},
		queue:  schedule.NewQueue(),
		notify: &recordingNotifier{},
	}
	h.res = NewResolver(h.grid, h.queue, h.notify, pal)
	h.prop = NewPropagator(h.grid, h.queue, pal, h.res)
	return h
}

// floor lays STONE at y=0 for |x|,|z| <= r.
func (h *harness) floor(r int) {
	for x := -r; x <= r; x++ {
		for z := -r; z <= r; z++ {
			h.grid.ChunkStore.SetBlock(voxel.Pos{X: x, Z: z}, h.pal.MustState("STONE"))
		}
	}
}

func (h *harness) set(p voxel.Pos, id string) {
	h.grid.ChunkStore.SetBlock(p, h.pal.MustState(id))
}

func (h *harness) setTile(p voxel.Pos, t fluid.Tile) {
	h.grid.ChunkStore.SetBlock(p, h.pal.TileState(t))
}

func (h *harness) tile(p voxel.Pos) (fluid.Tile, bool) {
	return h.pal.Tile(h.grid.GetBlock(p))
}

func (h *harness) name(p voxel.Pos) string {
	return h.pal.Name(h.grid.GetBlock(p))
}

// run drains the queue tick by tick up to and including last.
func (h *harness) run(last uint64) {
	for tick := h.queue.Now(); tick <= last; tick++ {
		h.queue.Drain(tick, func(u schedule.Update) {
			h.prop.OnScheduledUpdate(u.Pos, u.Fluid)
		})
	}
}

func (h *harness) checkDecayInvariant() {
	h.t.Helper()
	for _, k := range h.grid.LoadedChunkKeys() {
		ch := h.grid.Chunks[k]
		for _, s := range ch.Blocks {
			if tl, ok := h.pal.Tile(s); ok {
				if tl.Decay < 0 || tl.Decay > tl.Type.Params().MaxDecay {
					h.t.Fatalf("decay out of range: %+v", tl)
				}
			}
		}
	}
}
