// Package contact applies fluid side effects to living entities standing in fluid.
package contact

import (
	"voxelflow.ai/internal/sim/blocks"
	"voxelflow.ai/internal/sim/entity"
	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/voxel"
)

// Entity is the part of a living entity the handler needs.
type Entity interface {
	Alive() bool
	Bounds() entity.BBox
	FallDistance() float64
	SetFallDistance(d float64)
}

// DamagePipeline applies damage. It reports whether the damage was cancelled.
type DamagePipeline interface {
	ApplyDamage(e Entity, amount float64, cause string) (cancelled bool)
}

// IgnitionPipeline asks whether an entity may be set on fire, and sets it.
type IgnitionPipeline interface {
	RequestIgnite(e Entity, seconds int) (cancelled bool)
	SetOnFire(e Entity, seconds int)
}

type Grid interface {
	GetBlock(p voxel.Pos) voxel.State
}

// Result counts what one Tick did.
type Result struct {
	Touched  int `json:"touched"`
	Damaged  int `json:"damaged"`
	Ignited  int `json:"ignited"`
	Canceled int `json:"canceled"`
}

// Handler runs entity contact once per tick.
type Handler struct {
	grid   Grid
	pal    *blocks.Palette
	damage DamagePipeline
	ignite IgnitionPipeline
}

func NewHandler(g Grid, pal *blocks.Palette, d DamagePipeline, i IgnitionPipeline) *Handler {
	return &Handler{grid: g, pal: pal, damage: d, ignite: i}
}

// Touching returns the strongest-acting fluid the entity box overlaps. A fluid tile counts as
// a full block regardless of its decay.
func (h *Handler) Touching(e Entity) fluid.Type {
	found := fluid.None
	e.Bounds().Blocks(func(x, y, z int) {
		if found == fluid.Lava {
			return
		}
		t, ok := h.pal.Tile(h.grid.GetBlock(voxel.Pos{X: x, Y: y, Z: z}))
		if !ok {
			return
		}
		if t.Type.Params().ContactDamage > 0 || found == fluid.None {
			found = t.Type
		}
	})
	return found
}

// Tick applies contact effects to every living entity, at most once per entity.
func (h *Handler) Tick(entities []Entity) Result {
	var res Result
	for _, e := range entities {
		if !e.Alive() {
			continue
		}
		t := h.Touching(e)
		if t == fluid.None {
			continue
		}
		params := t.Params()
		if params.ContactDamage == 0 && params.IgniteSeconds == 0 {
			continue
		}
		res.Touched++
		h.apply(e, params, &res)
	}
	return res
}

func (h *Handler) apply(e Entity, params fluid.Params, res *Result) {
	if params.FallDistFactor > 0 {
		e.SetFallDistance(e.FallDistance() * params.FallDistFactor)
	}
	if params.ContactDamage > 0 {
		if h.damage.ApplyDamage(e, params.ContactDamage, params.Name) {
			res.Canceled++
		} else {
			res.Damaged++
		}
	}
	if params.IgniteSeconds > 0 {
		if h.ignite.RequestIgnite(e, params.IgniteSeconds) {
			res.Canceled++
		} else {
			h.ignite.SetOnFire(e, params.IgniteSeconds)
			res.Ignited++
		}
	}
	e.SetFallDistance(0)
}
