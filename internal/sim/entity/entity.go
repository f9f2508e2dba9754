// Package entity keeps the living entities fluids can touch: their bounding boxes, health,
// fall distance and fire state.
package entity

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const TicksPerSecond = 20

// BBox is an axis aligned box in world space. Min is inclusive, Max exclusive.
type BBox struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func NewBBox(min, max mgl64.Vec3) BBox { return BBox{Min: min, Max: max} }

// Translate returns the box moved by d.
func (b BBox) Translate(d mgl64.Vec3) BBox { return BBox{Min: b.Min.Add(d), Max: b.Max.Add(d)} }

// Blocks calls fn for every block cell the box overlaps, in y, z, x order.
func (b BBox) Blocks(fn func(x, y, z int)) {
	x0, y0, z0 := floor(b.Min[0]), floor(b.Min[1]), floor(b.Min[2])
	x1, y1, z1 := ceil(b.Max[0]), ceil(b.Max[1]), ceil(b.Max[2])
	for y := y0; y < y1; y++ {
		for z := z0; z < z1; z++ {
			for x := x0; x < x1; x++ {
				fn(x, y, z)
			}
		}
	}
}

func floor(v float64) int { return int(math.Floor(v)) }
func ceil(v float64) int  { return int(math.Ceil(v)) }

// Living is an entity with health. Position is the centre of the box's base.
type Living struct {
	ID   string
	Kind string

	Pos    mgl64.Vec3
	Width  float64
	Height float64

	Health    float64
	MaxHealth float64

	fallDistance float64
	fireTicks    int
	lastCause    string
}

func (e *Living) Alive() bool { return e.Health > 0 }

// Bounds is the entity's box at its current position.
func (e *Living) Bounds() BBox {
	hw := e.Width / 2
	return BBox{
		Min: mgl64.Vec3{e.Pos[0] - hw, e.Pos[1], e.Pos[2] - hw},
		Max: mgl64.Vec3{e.Pos[0] + hw, e.Pos[1] + e.Height, e.Pos[2] + hw},
	}
}

func (e *Living) FallDistance() float64 { return e.fallDistance }

func (e *Living) SetFallDistance(d float64) {
	if d < 0 {
		d = 0
	}
	e.fallDistance = d
}

// ResetFallDistance clears accumulated fall distance.
func (e *Living) ResetFallDistance() { e.fallDistance = 0 }

func (e *Living) FireTicks() int { return e.fireTicks }

func (e *Living) OnFire() bool { return e.fireTicks > 0 }

// LastDamageCause is the cause of the most recent damage that was applied.
func (e *Living) LastDamageCause() string { return e.lastCause }

// MoveTo moves the entity, accumulating fall distance while it descends and clearing it when
// it climbs.
func (e *Living) MoveTo(pos mgl64.Vec3) {
	dy := pos[1] - e.Pos[1]
	if dy < 0 {
		e.fallDistance -= dy
	} else if dy > 0 {
		e.fallDistance = 0
	}
	e.Pos = pos
}

// State is the persisted form of a Living.
type State struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	Pos          [3]float64 `json:"pos"`
	Width        float64    `json:"width"`
	Height       float64    `json:"height"`
	Health       float64    `json:"health"`
	MaxHealth    float64    `json:"max_health"`
	FallDistance float64    `json:"fall_distance"`
	FireTicks    int        `json:"fire_ticks"`
}

func (e *Living) State() State {
	return State{
		ID:           e.ID,
		Kind:         e.Kind,
		Pos:          [3]float64{e.Pos[0], e.Pos[1], e.Pos[2]},
		Width:        e.Width,
		Height:       e.Height,
		Health:       e.Health,
		MaxHealth:    e.MaxHealth,
		FallDistance: e.fallDistance,
		FireTicks:    e.fireTicks,
	}
}

func FromState(s State) *Living {
	return &Living{
		ID:           s.ID,
		Kind:         s.Kind,
		Pos:          mgl64.Vec3{s.Pos[0], s.Pos[1], s.Pos[2]},
		Width:        s.Width,
		Height:       s.Height,
		Health:       s.Health,
		MaxHealth:    s.MaxHealth,
		fallDistance: s.FallDistance,
		fireTicks:    s.FireTicks,
	}
}
