package flow

import (
	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/voxel"
)

type flowOption struct {
	pos  voxel.Pos
	cost int // distance to the nearest drop, -1 if none within the bound
}

// selectDirections picks the horizontal neighbours that receive next. Neighbours closest to a
// drop win; when no neighbour reaches a drop within the search bound every open neighbour
// receives flow.
func (p *Propagator) selectDirections(pos voxel.Pos, next fluid.Tile) []voxel.Pos {
	params := next.Type.Params()
	bound := (params.MaxDecay - next.Decay) / params.DecayPerBlock
	if bound > params.FlowSearchDepth {
		bound = params.FlowSearchDepth
	}

	var opts []flowOption
	best := -1
	for _, d := range voxel.Horizontal {
		n := pos.Add(d)
		if !p.grid.InBounds(n) || !p.canFlowInto(n, next) {
			continue
		}
		cost := p.dropDistance(pos, n, next.Type, bound)
		opts = append(opts, flowOption{pos: n, cost: cost})
		if cost >= 0 && (best < 0 || cost < best) {
			best = cost
		}
	}

	out := make([]voxel.Pos, 0, len(opts))
	for _, o := range opts {
		if best < 0 || o.cost == best {
			out = append(out, o.pos)
		}
	}
	return out
}

func (p *Propagator) canFlowInto(n voxel.Pos, next fluid.Tile) bool {
	ns := p.grid.GetBlock(n)
	if nt, ok := p.pal.Tile(ns); ok {
		if nt.Type != next.Type {
			return true
		}
		return next.Stronger(nt)
	}
	return p.pal.Replaceable(ns)
}

// passable cells are ones fluid of type t could move through while searching for a drop.
func (p *Propagator) passable(c voxel.Pos, t fluid.Type) bool {
	if !p.grid.InBounds(c) {
		return false
	}
	s := p.grid.GetBlock(c)
	if ct, ok := p.pal.Tile(s); ok {
		return ct.Type == t && !ct.Source
	}
	return p.pal.Replaceable(s)
}

func (p *Propagator) isDrop(c voxel.Pos, t fluid.Type) bool {
	return p.passable(c, t) && p.passable(c.Down(), t)
}

type searchNode struct {
	pos   voxel.Pos
	depth int
}

// dropDistance is a breadth-first search from start (one step away from origin) for the
// nearest drop, at most bound steps further out.
func (p *Propagator) dropDistance(origin, start voxel.Pos, t fluid.Type, bound int) int {
	if !p.passable(start, t) {
		return -1
	}
	visited := map[voxel.Pos]bool{origin: true, start: true}
	queue := []searchNode{{pos: start}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if p.isDrop(cur.pos, t) {
			return cur.depth
		}
		if cur.depth >= bound {
			continue
		}
		for _, d := range voxel.Horizontal {
			n := cur.pos.Add(d)
			if visited[n] || !p.passable(n, t) {
				continue
			}
			visited[n] = true
			queue = append(queue, searchNode{pos: n, depth: cur.depth + 1})
		}
	}
	return -1
}
