package world

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"voxelflow.ai/internal/protocol"
	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/voxel"
)

const actorCommand = "COMMAND"

func rejected(tick uint64, code, msg string) CommandResult {
	return CommandResult{Tick: tick, Code: code, Message: msg}
}

func (w *World) applyCommand(c protocol.CommandMsg, nowTick uint64) CommandResult {
	if code, msg := c.Validate(); code != "" {
		return rejected(nowTick, code, msg)
	}
	switch c.Cmd {
	case protocol.CmdPlaceBlock:
		return w.cmdPlaceBlock(c, nowTick)
	case protocol.CmdPlaceFluid:
		return w.cmdPlaceFluid(c, nowTick)
	case protocol.CmdDrain:
		return w.cmdDrain(c, nowTick)
	case protocol.CmdSpawnEntity:
		return w.cmdSpawnEntity(c, nowTick)
	case protocol.CmdMoveEntity:
		return w.cmdMoveEntity(c, nowTick)
	case protocol.CmdRemoveEntity:
		return w.cmdRemoveEntity(c, nowTick)
	}
	return rejected(nowTick, protocol.ErrBadRequest, "unknown cmd")
}

func (w *World) cmdPlaceBlock(c protocol.CommandMsg, nowTick uint64) CommandResult {
	pos := voxel.PosFromArray(c.Pos)
	if !w.chunks.InBounds(pos) {
		return rejected(nowTick, protocol.ErrOutOfBounds, "pos out of bounds")
	}
	id := strings.ToUpper(strings.TrimSpace(c.Block))
	to, ok := w.pal.State(id)
	if !ok {
		return rejected(nowTick, protocol.ErrInvalidTarget, "unknown block")
	}
	if w.pal.IsFluid(to) {
		return rejected(nowTick, protocol.ErrInvalidTarget, "use PLACE_FLUID for fluids")
	}
	w.setBlock(pos, to, protocol.CmdPlaceBlock)
	return CommandResult{Tick: nowTick, Accepted: true}
}

func (w *World) cmdPlaceFluid(c protocol.CommandMsg, nowTick uint64) CommandResult {
	pos := voxel.PosFromArray(c.Pos)
	if !w.chunks.InBounds(pos) {
		return rejected(nowTick, protocol.ErrOutOfBounds, "pos out of bounds")
	}
	t, ok := fluid.Parse(strings.ToUpper(strings.TrimSpace(c.Fluid)))
	if !ok {
		return rejected(nowTick, protocol.ErrInvalidTarget, "unknown fluid")
	}
	cur := w.chunks.GetBlock(pos)
	if !w.pal.Replaceable(cur) && !w.pal.IsFluid(cur) {
		return rejected(nowTick, protocol.ErrBlocked, "target is solid")
	}
	w.prop.PlaceSource(pos, t, protocol.CmdPlaceFluid)
	return CommandResult{Tick: nowTick, Accepted: true}
}

// cmdDrain removes a fluid tile. It is the only way a tile's decay goes away.
func (w *World) cmdDrain(c protocol.CommandMsg, nowTick uint64) CommandResult {
	pos := voxel.PosFromArray(c.Pos)
	if !w.chunks.InBounds(pos) {
		return rejected(nowTick, protocol.ErrOutOfBounds, "pos out of bounds")
	}
	if !w.pal.IsFluid(w.chunks.GetBlock(pos)) {
		return rejected(nowTick, protocol.ErrInvalidTarget, "no fluid at pos")
	}
	w.setBlock(pos, w.pal.Air, protocol.CmdDrain)
	return CommandResult{Tick: nowTick, Accepted: true}
}

// setBlock writes a block from outside the simulation: it drops any pending update at pos and
// wakes the fluid around it.
func (w *World) setBlock(pos voxel.Pos, to voxel.State, reason string) {
	from := w.chunks.GetBlock(pos)
	if from == to {
		return
	}
	w.chunks.SetBlock(pos, to)
	w.queue.Cancel(pos)
	w.auditSetBlock(AuditEntry{Tick: w.curTick, Actor: actorCommand, Action: "SET_BLOCK", Pos: pos.ToArray(), From: uint16(from), To: uint16(to), Reason: reason})
	w.prop.WakeAround(pos)
}

func (w *World) cmdSpawnEntity(c protocol.CommandMsg, nowTick uint64) CommandResult {
	pos := mgl64.Vec3{c.EntityPos[0], c.EntityPos[1], c.EntityPos[2]}
	if !w.chunks.InBounds(blockOf(pos)) {
		return rejected(nowTick, protocol.ErrOutOfBounds, "pos out of bounds")
	}
	e, err := w.entities.Spawn(strings.ToUpper(strings.TrimSpace(c.Kind)), pos)
	if err != nil {
		return rejected(nowTick, protocol.ErrInvalidTarget, err.Error())
	}
	w.auditEntity(nowTick, e.ID, "ENTITY_SPAWNED")
	return CommandResult{Tick: nowTick, Accepted: true, EntityID: e.ID}
}

func (w *World) cmdMoveEntity(c protocol.CommandMsg, nowTick uint64) CommandResult {
	e, ok := w.entities.Get(c.EntityID)
	if !ok {
		return rejected(nowTick, protocol.ErrNotFound, "unknown entity")
	}
	pos := mgl64.Vec3{c.EntityPos[0], c.EntityPos[1], c.EntityPos[2]}
	if !w.chunks.InBounds(blockOf(pos)) {
		return rejected(nowTick, protocol.ErrOutOfBounds, "pos out of bounds")
	}
	e.MoveTo(pos)
	return CommandResult{Tick: nowTick, Accepted: true, EntityID: e.ID}
}

func (w *World) cmdRemoveEntity(c protocol.CommandMsg, nowTick uint64) CommandResult {
	if _, ok := w.entities.Get(c.EntityID); !ok {
		return rejected(nowTick, protocol.ErrNotFound, "unknown entity")
	}
	w.auditEntity(nowTick, c.EntityID, "ENTITY_REMOVED")
	w.entities.Remove(c.EntityID)
	return CommandResult{Tick: nowTick, Accepted: true, EntityID: c.EntityID}
}

func blockOf(v mgl64.Vec3) voxel.Pos {
	return voxel.Pos{X: floorInt(v[0]), Y: floorInt(v[1]), Z: floorInt(v[2])}
}

func floorInt(f float64) int { return int(math.Floor(f)) }

func (r CommandResult) String() string {
	if r.Accepted {
		return fmt.Sprintf("accepted@%d", r.Tick)
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}
