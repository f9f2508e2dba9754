// Package blocks resolves catalog block ids into packed voxel states and answers the
// questions fluid simulation asks about them.
package blocks

import (
	"fmt"

	"voxelflow.ai/internal/sim/catalogs"
	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/voxel"
)

type Palette struct {
	names []string
	index map[string]uint16
	defs  []catalogs.BlockDef

	fluidOf []fluid.Type
	fluidID [3]uint16

	Air voxel.State
}

// NewPalette checks that the catalog carries every block the fluid tables reference.
func NewPalette(bc catalogs.BlockCatalog) (*Palette, error) {
	if len(bc.Palette) > voxel.MaxPaletteID+1 {
		return nil, fmt.Errorf("block palette too large: %d", len(bc.Palette))
	}
	p := &Palette{
		names:   bc.Palette,
		index:   bc.Index,
		defs:    make([]catalogs.BlockDef, len(bc.Palette)),
		fluidOf: make([]fluid.Type, len(bc.Palette)),
	}
	for i, id := range bc.Palette {
		d := bc.Defs[id]
		p.defs[i] = d
		if d.Fluid == "" {
			continue
		}
		t, ok := fluid.Parse(d.Fluid)
		if !ok {
			return nil, fmt.Errorf("block %s: unknown fluid %q", id, d.Fluid)
		}
		p.fluidOf[i] = t
	}
	for _, t := range fluid.Types {
		id, ok := bc.Index[t.Params().Block]
		if !ok {
			return nil, fmt.Errorf("missing block id in palette: %s", t.Params().Block)
		}
		if p.fluidOf[id] != t {
			return nil, fmt.Errorf("block %s must declare fluid %s", t.Params().Block, t)
		}
		p.fluidID[t] = id
	}
	for _, b := range fluid.ContactBlocks() {
		if _, ok := bc.Index[b]; !ok {
			return nil, fmt.Errorf("missing block id in palette: %s", b)
		}
	}
	air, ok := bc.Index["AIR"]
	if !ok {
		return nil, fmt.Errorf("missing block id in palette: AIR")
	}
	p.Air = voxel.Pack(air, 0)
	return p, nil
}

// State returns the plain (meta 0) state of a catalog block.
func (p *Palette) State(id string) (voxel.State, bool) {
	i, ok := p.index[id]
	if !ok {
		return 0, false
	}
	return voxel.Pack(i, 0), true
}

// MustState is State for ids validated by NewPalette.
func (p *Palette) MustState(id string) voxel.State {
	s, ok := p.State(id)
	if !ok {
		panic("blocks: unknown block " + id)
	}
	return s
}

func (p *Palette) Name(s voxel.State) string {
	if int(s.ID()) >= len(p.names) {
		return fmt.Sprintf("UNKNOWN(%d)", s.ID())
	}
	return p.names[s.ID()]
}

func (p *Palette) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

func (p *Palette) def(s voxel.State) (catalogs.BlockDef, bool) {
	if int(s.ID()) >= len(p.defs) {
		return catalogs.BlockDef{}, false
	}
	return p.defs[s.ID()], true
}

// Tile decodes a fluid tile. ok is false for non-fluid blocks.
func (p *Palette) Tile(s voxel.State) (fluid.Tile, bool) {
	if int(s.ID()) >= len(p.fluidOf) {
		return fluid.Tile{}, false
	}
	t := p.fluidOf[s.ID()]
	if t == fluid.None {
		return fluid.Tile{}, false
	}
	return fluid.TileFromMeta(t, s.Meta()), true
}

func (p *Palette) IsFluid(s voxel.State) bool {
	_, ok := p.Tile(s)
	return ok
}

// TileState encodes a fluid tile (decay clamped).
func (p *Palette) TileState(t fluid.Tile) voxel.State {
	return voxel.Pack(p.fluidID[t.Type], t.Meta())
}

// Replaceable reports whether fluid may be written over s: air and non-solid, non-fluid
// blocks flagged replaceable.
func (p *Palette) Replaceable(s voxel.State) bool {
	if s == p.Air {
		return true
	}
	d, ok := p.def(s)
	if !ok {
		return false
	}
	return d.Fluid == "" && !d.Solid && d.Replaceable
}

// Light is the light level a block emits.
func (p *Palette) Light(s voxel.State) int {
	if t, ok := p.Tile(s); ok {
		return t.Type.Params().LightLevel
	}
	d, _ := p.def(s)
	return d.Light
}
