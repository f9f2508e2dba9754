// Package flow moves fluid through the block grid one scheduled update at a time and resolves
// contact between different fluids.
package flow

import (
	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/voxel"
)

// Grid is the block storage the simulation reads and writes. Reads outside the loaded or
// valid range return air; writes always succeed from the simulation's point of view.
type Grid interface {
	GetBlock(p voxel.Pos) voxel.State
	SetBlock(p voxel.Pos, s voxel.State)
	InBounds(p voxel.Pos) bool
}

// Scheduler is the per-position deduplicated update queue.
type Scheduler interface {
	Schedule(p voxel.Pos, t fluid.Type, delayTicks uint64)
	Scheduled(p voxel.Pos) bool
	Cancel(p voxel.Pos) bool
}

// Notifier receives contact sounds. Fire and forget.
type Notifier interface {
	Emit(p voxel.Pos, sound string)
}

const (
	ReasonSpread   = "FLUID_SPREAD"
	ReasonFall     = "FLUID_FALL"
	ReasonHarden   = "FLUID_HARDEN"
	ReasonDisplace = "FLUID_DISPLACE"
	ReasonClamp    = "FLUID_CLAMP"
)

// Change describes one block write made by the simulation.
type Change struct {
	Pos    voxel.Pos
	From   voxel.State
	To     voxel.State
	Reason string
}

type ChangeFunc func(Change)

// Stats counts what the propagator did since the last reset.
type Stats struct {
	Updates   int `json:"updates"`
	Stale     int `json:"stale"`
	Spread    int `json:"spread"`
	Fell      int `json:"fell"`
	Hardened  int `json:"hardened"`
	Displaced int `json:"displaced"`
	Woken     int `json:"woken"`
}

func (s *Stats) Add(o Stats) {
	s.Updates += o.Updates
	s.Stale += o.Stale
	s.Spread += o.Spread
	s.Fell += o.Fell
	s.Hardened += o.Hardened
	s.Displaced += o.Displaced
	s.Woken += o.Woken
}
