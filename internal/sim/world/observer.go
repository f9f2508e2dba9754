package world

import (
	"encoding/json"
	"sort"

	"voxelflow.ai/internal/observerproto"
	"voxelflow.ai/internal/protocol"
	"voxelflow.ai/internal/sim/encoding"
	"voxelflow.ai/internal/sim/voxel"
)

type observerClient struct {
	id      string
	tickOut chan []byte

	wantAudits   bool
	wantEntities bool
	wantChunks   bool
	chunksSent   bool
}

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if w == nil || req.SessionID == "" || req.TickOut == nil {
		return
	}
	// Replace existing session id if any.
	if old := w.observers[req.SessionID]; old != nil && old.tickOut != req.TickOut {
		close(old.tickOut)
	}
	w.observers[req.SessionID] = &observerClient{
		id:           req.SessionID,
		tickOut:      req.TickOut,
		wantAudits:   req.WantAudits,
		wantEntities: req.WantEntities,
		wantChunks:   req.WantChunks,
	}
}

func (w *World) handleObserverLeave(sessionID string) {
	c := w.observers[sessionID]
	if c == nil {
		return
	}
	delete(w.observers, sessionID)
	close(c.tickOut)
}

func (w *World) stepObservers(nowTick uint64, digest string, stats FluidTickStats, cmds []protocol.CommandMsg, results []CommandResult) {
	if len(w.observers) == 0 {
		return
	}
	base := observerproto.TickMsg{
		Type:            observerproto.TypeTick,
		ProtocolVersion: observerproto.Version,
		Tick:            nowTick,
		Digest:          digest,
		Pending:         stats.Pending,
		Fluid: observerproto.FluidStats{
			Updates:   stats.Updates,
			Spread:    stats.Spread,
			Fell:      stats.Fell,
			Hardened:  stats.Hardened,
			Displaced: stats.Displaced,
			Touched:   stats.EntitiesTouched,
		},
	}
	for _, s := range w.soundsThisTick {
		base.Sounds = append(base.Sounds, observerproto.Sound{Pos: s.Pos, Sound: s.Sound})
	}
	for i, c := range cmds {
		base.Commands = append(base.Commands, observerproto.CommandSummary{
			ID:       c.ID,
			Cmd:      c.Cmd,
			Accepted: results[i].Accepted,
			Code:     results[i].Code,
		})
	}

	var audits []observerproto.AuditEntry
	var ents []observerproto.EntityState
	var allChunks, changed []observerproto.ChunkData
	for _, c := range w.observers {
		msg := base
		if c.wantAudits {
			if audits == nil {
				audits = w.observerAudits()
			}
			msg.Audits = audits
		}
		if c.wantEntities {
			if ents == nil {
				ents = w.observerEntities()
			}
			msg.Entities = ents
		}
		if c.wantChunks {
			if !c.chunksSent {
				if allChunks == nil {
					allChunks = w.observerChunks(w.chunks.LoadedChunkKeys())
				}
				msg.Chunks = allChunks
				c.chunksSent = true
			} else {
				if changed == nil {
					changed = w.observerChunks(w.changedChunkKeys())
				}
				msg.Chunks = changed
			}
		}
		b, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		sendLatest(c.tickOut, b)
	}
}

func (w *World) observerAudits() []observerproto.AuditEntry {
	out := make([]observerproto.AuditEntry, 0, len(w.auditsThisTick))
	for _, a := range w.auditsThisTick {
		out = append(out, observerproto.AuditEntry{
			Tick:   a.Tick,
			Actor:  a.Actor,
			Action: a.Action,
			Pos:    a.Pos,
			From:   w.pal.Name(voxel.State(a.From)),
			To:     w.pal.Name(voxel.State(a.To)),
			Reason: a.Reason,
		})
	}
	return out
}

func (w *World) observerEntities() []observerproto.EntityState {
	all := w.entities.All()
	out := make([]observerproto.EntityState, 0, len(all))
	for _, e := range all {
		out = append(out, observerproto.EntityState{
			ID:           e.ID,
			Kind:         e.Kind,
			Pos:          [3]float64{e.Pos[0], e.Pos[1], e.Pos[2]},
			Health:       e.Health,
			FallDistance: e.FallDistance(),
			FireTicks:    e.FireTicks(),
		})
	}
	return out
}

// changedChunkKeys lists the chunks touched by block changes this tick.
func (w *World) changedChunkKeys() []voxel.ChunkKey {
	seen := map[voxel.ChunkKey]bool{}
	keys := []voxel.ChunkKey{}
	for _, a := range w.auditsThisTick {
		if a.Action != "SET_BLOCK" {
			continue
		}
		k := voxel.ChunkKeyOf(voxel.PosFromArray(a.Pos))
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

func (w *World) observerChunks(keys []voxel.ChunkKey) []observerproto.ChunkData {
	out := make([]observerproto.ChunkData, 0, len(keys))
	for _, k := range keys {
		ch := w.chunks.Chunks[k]
		if ch == nil {
			continue
		}
		out = append(out, observerproto.ChunkData{
			CX:     k.CX,
			CZ:     k.CZ,
			Height: ch.Height,
			Blocks: encoding.EncodeStates(ch.Blocks),
		})
	}
	return out
}
