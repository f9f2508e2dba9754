package flow

import (
	"voxelflow.ai/internal/sim/blocks"
	"voxelflow.ai/internal/sim/voxel"
)

// Outcome is the static block a fluid contact turns a tile into.
type Outcome struct {
	Block      voxel.State
	EmitsSound bool
	Sound      string
	Reason     string
}

// Resolver replaces fluid tiles with contact outcomes.
type Resolver struct {
	grid   Grid
	sched  Scheduler
	notify Notifier
	pal    *blocks.Palette

	onChange ChangeFunc
}

func NewResolver(g Grid, s Scheduler, n Notifier, pal *blocks.Palette) *Resolver {
	return &Resolver{grid: g, sched: s, notify: n, pal: pal}
}

func (r *Resolver) OnChange(fn ChangeFunc) { r.onChange = fn }

// Resolve replaces the fluid at pos with out.Block, drops its pending update and emits the
// contact sound. A position that no longer holds fluid is left alone, so resolving the same
// pair twice in one tick writes once and sounds once. It reports whether a write happened.
func (r *Resolver) Resolve(pos voxel.Pos, out Outcome) bool {
	cur := r.grid.GetBlock(pos)
	if !r.pal.IsFluid(cur) {
		return false
	}
	r.grid.SetBlock(pos, out.Block)
	r.sched.Cancel(pos)
	if out.EmitsSound && r.notify != nil {
		r.notify.Emit(pos, out.Sound)
	}
	if r.onChange != nil {
		r.onChange(Change{Pos: pos, From: cur, To: out.Block, Reason: out.Reason})
	}
	return true
}
