package world

import "voxelflow.ai/internal/protocol"

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// TickLogEntry is the replay record of one tick: the commands applied at its boundary and the
// resulting state digest.
type TickLogEntry struct {
	Tick     uint64                `json:"tick"`
	Commands []protocol.CommandMsg `json:"commands,omitempty"`
	Fluid    FluidTickStats        `json:"fluid"`
	Digest   string                `json:"digest"`
}

// FluidTickStats is what the simulation did in one tick.
type FluidTickStats struct {
	Updates   int `json:"updates"`
	Stale     int `json:"stale,omitempty"`
	Spread    int `json:"spread,omitempty"`
	Fell      int `json:"fell,omitempty"`
	Hardened  int `json:"hardened,omitempty"`
	Displaced int `json:"displaced,omitempty"`
	Woken     int `json:"woken,omitempty"`
	Pending   int `json:"pending"`

	EntitiesTouched int `json:"entities_touched,omitempty"`
	EntitiesDamaged int `json:"entities_damaged,omitempty"`
	EntitiesIgnited int `json:"entities_ignited,omitempty"`
}

type AuditEntry struct {
	Tick    uint64         `json:"tick"`
	Actor   string         `json:"actor"`
	Action  string         `json:"action"` // e.g. "SET_BLOCK"
	Pos     [3]int         `json:"pos"`
	From    uint16         `json:"from"`
	To      uint16         `json:"to"`
	Reason  string         `json:"reason,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// SoundEvent is a sound emitted at a block position during a tick.
type SoundEvent struct {
	Pos   [3]int `json:"pos"`
	Sound string `json:"sound"`
}

// CommandRequest carries one external command into the world loop.
type CommandRequest struct {
	Cmd  protocol.CommandMsg
	Resp chan CommandResult
}

type CommandResult struct {
	Tick     uint64
	Accepted bool
	Code     string
	Message  string
	EntityID string
}

// ObserverJoinRequest registers a read-only observer session that receives one message per
// tick on TickOut. All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	TickOut   chan []byte

	WantAudits   bool
	WantEntities bool
	WantChunks   bool
}

// WorldMetrics is published once per tick for status endpoints.
type WorldMetrics struct {
	Tick      uint64  `json:"tick"`
	Pending   int     `json:"pending"`
	Entities  int     `json:"entities"`
	Observers int     `json:"observers"`
	Chunks    int     `json:"loaded_chunks"`
	StepMS    float64 `json:"step_ms"`

	Fluid FluidTickStats `json:"fluid"`
}
