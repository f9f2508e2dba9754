package flow

import (
	"voxelflow.ai/internal/sim/blocks"
	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/voxel"
)

// hardenFaces are the faces a tile scans for an opposing fluid: everything but straight down.
var hardenFaces = [5]voxel.Pos{
	voxel.Horizontal[0],
	voxel.Horizontal[1],
	voxel.Horizontal[2],
	voxel.Horizontal[3],
	{Y: 1},
}

// Propagator runs the per-tile fluid update.
type Propagator struct {
	grid  Grid
	sched Scheduler
	pal   *blocks.Palette
	res   *Resolver

	onChange ChangeFunc
	stats    Stats
}

func NewPropagator(g Grid, s Scheduler, pal *blocks.Palette, res *Resolver) *Propagator {
	return &Propagator{grid: g, sched: s, pal: pal, res: res}
}

func (p *Propagator) OnChange(fn ChangeFunc) { p.onChange = fn }

func (p *Propagator) Stats() Stats { return p.stats }

func (p *Propagator) ResetStats() { p.stats = Stats{} }

// OnScheduledUpdate runs the update for the tile at pos. The update is a no-op when pos no
// longer holds a tile of the expected fluid.
func (p *Propagator) OnScheduledUpdate(pos voxel.Pos, expected fluid.Type) {
	p.stats.Updates++
	cur := p.grid.GetBlock(pos)
	tile, ok := p.pal.Tile(cur)
	if !ok || tile.Type != expected {
		p.stats.Stale++
		return
	}
	params := tile.Type.Params()

	wrote := false
	if canon := p.pal.TileState(tile); canon != cur {
		p.write(pos, cur, canon, ReasonClamp)
		wrote = true
	}

	if p.harden(pos, tile) {
		return
	}

	downOpen := false
	if below := pos.Down(); p.grid.InBounds(below) {
		var w bool
		downOpen, w = p.flowDown(below, tile)
		wrote = wrote || w
	}

	if tile.Source || !downOpen {
		candidate := tile.SpreadBase() + params.DecayPerBlock
		if candidate <= params.MaxDecay {
			next := fluid.FlowingTile(tile.Type, candidate)
			for _, n := range p.selectDirections(pos, next) {
				if p.flowInto(n, next) {
					wrote = true
				}
			}
		}
	}

	if wrote {
		if t, ok := p.pal.Tile(p.grid.GetBlock(pos)); ok && t.Type == tile.Type {
			p.sched.Schedule(pos, tile.Type, params.TickInterval)
		}
	}
}

// harden converts the tile itself when an opposing fluid touches it. It reports whether the
// tile was converted; the first opposing neighbour in face order decides.
func (p *Propagator) harden(pos voxel.Pos, tile fluid.Tile) bool {
	if tile.Falling {
		return false
	}
	for _, d := range hardenFaces {
		nt, ok := p.pal.Tile(p.grid.GetBlock(pos.Add(d)))
		if !ok || nt.Type == tile.Type {
			continue
		}
		rule, ok := fluid.Rule(tile.Type, nt.Type)
		if !ok || len(rule.Harden) == 0 {
			continue
		}
		block, ok := rule.HardenInto(tile.Decay)
		if !ok {
			return false
		}
		out := Outcome{
			Block:      p.pal.MustState(block),
			EmitsSound: rule.Sound != "",
			Sound:      rule.Sound,
			Reason:     ReasonHarden,
		}
		if p.resolve(pos, out) {
			p.stats.Hardened++
		}
		return true
	}
	return false
}

// flowDown handles the block below. open is true when fluid can keep descending there, which
// suppresses sideways spread for non-source tiles. An opposing fluid below only counts as open
// when the contact displaced it.
func (p *Propagator) flowDown(below voxel.Pos, tile fluid.Tile) (open, wrote bool) {
	bs := p.grid.GetBlock(below)
	falling := fluid.FallingTile(tile.Type)
	if p.pal.Replaceable(bs) {
		if p.place(below, bs, falling, ReasonFall) {
			p.stats.Fell++
			return true, true
		}
		return true, false
	}
	bt, ok := p.pal.Tile(bs)
	if !ok {
		return false, false
	}
	if bt.Type != tile.Type {
		displaced := p.contact(below, tile.Type, bt)
		return displaced, displaced
	}
	if falling.Stronger(bt) && p.place(below, bs, falling, ReasonFall) {
		p.stats.Fell++
		return true, true
	}
	return true, false
}

// flowInto writes next at n, or hands an opposing fluid to the contact rules.
func (p *Propagator) flowInto(n voxel.Pos, next fluid.Tile) bool {
	ns := p.grid.GetBlock(n)
	if nt, ok := p.pal.Tile(ns); ok {
		if nt.Type != next.Type {
			return p.contact(n, next.Type, nt)
		}
		if !next.Stronger(nt) {
			return false
		}
	} else if !p.pal.Replaceable(ns) {
		return false
	}
	if p.place(n, ns, next, ReasonSpread) {
		p.stats.Spread++
		return true
	}
	return false
}

// contact is flow from a self-typed tile into target. With a displacement rule the target
// becomes the rule's solid; otherwise the target is woken so its own hardening check runs.
func (p *Propagator) contact(target voxel.Pos, self fluid.Type, targetTile fluid.Tile) bool {
	rule, ok := fluid.Rule(self, targetTile.Type)
	if ok && rule.Displace != "" {
		out := Outcome{
			Block:      p.pal.MustState(rule.Displace),
			EmitsSound: rule.Sound != "",
			Sound:      rule.Sound,
			Reason:     ReasonDisplace,
		}
		if p.resolve(target, out) {
			p.stats.Displaced++
			return true
		}
		return false
	}
	p.wake(target, targetTile.Type)
	return false
}

// resolve converts pos and wakes the idle fluid around it, since the new solid can open or close
// flow paths for its neighbours.
func (p *Propagator) resolve(pos voxel.Pos, out Outcome) bool {
	if !p.res.Resolve(pos, out) {
		return false
	}
	p.WakeAround(pos)
	return true
}

func (p *Propagator) place(pos voxel.Pos, from voxel.State, tile fluid.Tile, reason string) bool {
	to := p.pal.TileState(tile)
	if from == to {
		return false
	}
	p.write(pos, from, to, reason)
	p.sched.Schedule(pos, tile.Type, tile.Type.Params().TickInterval)
	for _, d := range voxel.Faces {
		n := pos.Add(d)
		if nt, ok := p.pal.Tile(p.grid.GetBlock(n)); ok && fluid.Reacts(nt.Type, tile.Type) {
			p.wake(n, nt.Type)
		}
	}
	return true
}

func (p *Propagator) write(pos voxel.Pos, from, to voxel.State, reason string) {
	p.grid.SetBlock(pos, to)
	if p.onChange != nil {
		p.onChange(Change{Pos: pos, From: from, To: to, Reason: reason})
	}
}

// wake schedules a tile that has no pending update.
func (p *Propagator) wake(pos voxel.Pos, t fluid.Type) {
	if p.sched.Scheduled(pos) {
		return
	}
	p.sched.Schedule(pos, t, t.Params().TickInterval)
	p.stats.Woken++
}

// PlaceSource writes a source tile of type t at pos and schedules it. Opposing fluids next to
// it that harden against t are woken.
func (p *Propagator) PlaceSource(pos voxel.Pos, t fluid.Type, reason string) bool {
	return p.place(pos, p.grid.GetBlock(pos), fluid.SourceTile(t), reason)
}

// WakeAround schedules every idle fluid tile touching pos. Used after a block next to fluid
// was changed from outside the simulation.
func (p *Propagator) WakeAround(pos voxel.Pos) {
	for _, d := range voxel.Faces {
		n := pos.Add(d)
		if nt, ok := p.pal.Tile(p.grid.GetBlock(n)); ok {
			p.wake(n, nt.Type)
		}
	}
}
