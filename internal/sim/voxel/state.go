package voxel

// State is a packed block state: palette index in the high bits, 5 bits of metadata below.
type State uint16

const (
	metaBits = 5
	metaMask = 1<<metaBits - 1

	// MaxPaletteID is the largest palette index a State can carry.
	MaxPaletteID = 1<<(16-metaBits) - 1
)

// Pack builds a State. Meta beyond the available bits is masked off.
func Pack(id uint16, meta uint8) State {
	return State(id<<metaBits | uint16(meta)&metaMask)
}

func (s State) ID() uint16  { return uint16(s) >> metaBits }
func (s State) Meta() uint8 { return uint8(uint16(s) & metaMask) }

func (s State) WithMeta(meta uint8) State { return Pack(s.ID(), meta) }
