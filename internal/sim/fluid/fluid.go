// Package fluid holds the compiled-in fluid type table, the fluid tile value type and the
// contact rules between fluid types.
package fluid

import "fmt"

type Type uint8

const (
	None Type = iota
	Water
	Lava
)

// Types lists the real fluid types in table order.
var Types = []Type{Water, Lava}

const MaxDecay = 7

// Params is the per-type parameter record.
type Params struct {
	Name string
	// Block is the catalog id of the block that carries this fluid.
	Block string

	DecayPerBlock   int
	TickInterval    uint64
	MaxDecay        int
	FlowSearchDepth int
	LightLevel      int

	BucketFillSound  string
	BucketEmptySound string

	// Entity contact. Zero values mean the fluid has no side effects on entities.
	ContactDamage  float64
	IgniteSeconds  int
	FallDistFactor float64
}

var table = [...]Params{
	None: {Name: "NONE"},
	Water: {
		Name:             "WATER",
		Block:            "WATER",
		DecayPerBlock:    1,
		TickInterval:     5,
		MaxDecay:         MaxDecay,
		FlowSearchDepth:  4,
		BucketFillSound:  "bucket.fill_water",
		BucketEmptySound: "bucket.empty_water",
	},
	Lava: {
		Name:             "LAVA",
		Block:            "LAVA",
		DecayPerBlock:    2,
		TickInterval:     30,
		MaxDecay:         MaxDecay,
		FlowSearchDepth:  4,
		LightLevel:       15,
		BucketFillSound:  "bucket.fill_lava",
		BucketEmptySound: "bucket.empty_lava",
		ContactDamage:    4,
		IgniteSeconds:    15,
		FallDistFactor:   0.5,
	},
}

func (t Type) Valid() bool { return t == Water || t == Lava }

func (t Type) Params() Params {
	if int(t) >= len(table) {
		return table[None]
	}
	return table[t]
}

func (t Type) String() string {
	if int(t) >= len(table) {
		return fmt.Sprintf("FLUID(%d)", uint8(t))
	}
	return table[t].Name
}

// Parse maps a fluid name ("WATER", "LAVA") to its Type.
func Parse(name string) (Type, bool) {
	for _, t := range Types {
		if table[t].Name == name {
			return t, true
		}
	}
	return None, false
}

// ByBlock maps a catalog block id to the fluid it carries.
func ByBlock(block string) (Type, bool) {
	for _, t := range Types {
		if table[t].Block == block {
			return t, true
		}
	}
	return None, false
}
