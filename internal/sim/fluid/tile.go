package fluid

// Tile is the fluid state of one block.
//
// A source has Decay 0 and never falls. Falling tiles are created by downward flow; they carry
// Decay 0 and spread sideways as if they were one hop from a source.
type Tile struct {
	Type    Type
	Decay   int
	Source  bool
	Falling bool
}

func SourceTile(t Type) Tile { return Tile{Type: t, Source: true} }

func FlowingTile(t Type, decay int) Tile { return Tile{Type: t, Decay: decay}.Clamp() }

func FallingTile(t Type) Tile { return Tile{Type: t, Falling: true} }

func clampDecay(d, limit int) int {
	if d < 0 {
		return 0
	}
	if d > limit {
		return limit
	}
	return d
}

// Clamp returns the tile with Decay in [0, MaxDecay] and the source/falling flags normalised.
func (t Tile) Clamp() Tile {
	limit := t.Type.Params().MaxDecay
	if limit == 0 {
		limit = MaxDecay
	}
	t.Decay = clampDecay(t.Decay, limit)
	if t.Source {
		t.Decay = 0
		t.Falling = false
	}
	return t
}

// SpreadBase is the decay horizontal spread starts from.
func (t Tile) SpreadBase() int {
	if t.Falling {
		return 0
	}
	return t.Decay
}

const (
	metaDecayMask = 0x07
	metaFalling   = 0x08
	metaSource    = 0x10
)

// Meta packs the tile into 5 bits of block metadata.
func (t Tile) Meta() uint8 {
	t = t.Clamp()
	m := uint8(t.Decay) & metaDecayMask
	if t.Falling {
		m |= metaFalling
	}
	if t.Source {
		m |= metaSource
	}
	return m
}

func TileFromMeta(typ Type, meta uint8) Tile {
	return Tile{
		Type:    typ,
		Decay:   int(meta & metaDecayMask),
		Falling: meta&metaFalling != 0,
		Source:  meta&metaSource != 0,
	}.Clamp()
}

// Stronger reports whether t carries more flow than o (same type assumed).
func (t Tile) Stronger(o Tile) bool {
	if o.Source {
		return false
	}
	if t.Source {
		return true
	}
	if o.Falling {
		return false
	}
	if t.Falling {
		return true
	}
	return t.Decay < o.Decay
}
