package world

import (
	"context"
	"time"

	"voxelflow.ai/internal/protocol"
	"voxelflow.ai/internal/sim/contact"
	"voxelflow.ai/internal/sim/flow"
	"voxelflow.ai/internal/sim/schedule"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingCommands []CommandRequest
	var pendingAdmin []adminSnapshotReq

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case req := <-w.admin:
			pendingAdmin = append(pendingAdmin, req)
		case req := <-w.commands:
			pendingCommands = append(pendingCommands, req)
		case <-ticker.C:
			pendingCommands = w.stepRequests(pendingCommands)
			w.handleAdminSnapshotRequests(pendingAdmin)
			pendingAdmin = pendingAdmin[:0]
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// stepRequests runs one tick with at most MaxCommandsPerTick commands and returns the
// commands left for the next tick.
func (w *World) stepRequests(reqs []CommandRequest) []CommandRequest {
	n := len(reqs)
	if n > w.cfg.MaxCommandsPerTick {
		n = w.cfg.MaxCommandsPerTick
	}
	cmds := make([]protocol.CommandMsg, n)
	for i := 0; i < n; i++ {
		cmds[i] = reqs[i].Cmd
	}
	results, _ := w.stepInternal(cmds)
	for i := 0; i < n; i++ {
		if reqs[i].Resp == nil {
			continue
		}
		select {
		case reqs[i].Resp <- results[i]:
		default:
			// Client timed out; don't block the sim loop.
		}
	}
	rest := copy(reqs, reqs[n:])
	return reqs[:rest]
}

// StepOnce advances the world by a single tick using the same ordering semantics as the server.
// It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce(cmds []protocol.CommandMsg) (tick uint64, digest string) {
	tick = w.tick.Load()
	_, digest = w.stepInternal(cmds)
	return tick, digest
}

// StepCommands is StepOnce that also reports each command's result.
func (w *World) StepCommands(cmds []protocol.CommandMsg) ([]CommandResult, string) {
	return w.stepInternal(cmds)
}

func (w *World) stepInternal(cmds []protocol.CommandMsg) ([]CommandResult, string) {
	stepStart := time.Now()
	nowTick := w.tick.Load()
	w.curTick = nowTick
	w.auditsThisTick = w.auditsThisTick[:0]
	w.soundsThisTick = w.soundsThisTick[:0]

	// Commands apply at the tick boundary, in receive order, before any fluid update.
	w.queue.SetNow(nowTick)
	w.prop.ResetStats()
	results := make([]CommandResult, len(cmds))
	for i, c := range cmds {
		results[i] = w.applyCommand(c, nowTick)
	}

	w.queue.Drain(nowTick, func(u schedule.Update) {
		w.prop.OnScheduledUpdate(u.Pos, u.Fluid)
	})
	fs := w.prop.Stats()

	var cr contact.Result
	if w.cfg.EntityContact {
		living := w.entities.All()
		es := make([]contact.Entity, 0, len(living))
		for _, e := range living {
			es = append(es, e)
		}
		cr = w.contact.Tick(es)
	}
	for _, e := range w.entities.All() {
		w.hooks.BurnTick(e)
	}
	for _, e := range w.entities.All() {
		if !e.Alive() {
			w.auditEntity(nowTick, e.ID, "ENTITY_DIED")
		}
	}
	w.entities.RemoveDead()

	stats := fluidTickStats(fs, cr, w.queue.Len())

	digest := w.stateDigest(nowTick)
	w.stepObservers(nowTick, digest, stats, cmds, results)

	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{Tick: nowTick, Commands: cmds, Fluid: stats, Digest: digest})
	}

	// Snapshot every N ticks, starting after tick 0.
	if w.snapshotSink != nil && nowTick != 0 && w.cfg.SnapshotEveryTicks > 0 {
		if nowTick%uint64(w.cfg.SnapshotEveryTicks) == 0 {
			snap := w.ExportSnapshot(nowTick)
			select {
			case w.snapshotSink <- snap:
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)
	w.metrics.Store(WorldMetrics{
		Tick:      nextTick,
		Pending:   w.queue.Len(),
		Entities:  w.entities.Len(),
		Observers: len(w.observers),
		Chunks:    len(w.chunks.Chunks),
		StepMS:    stepMS,
		Fluid:     stats,
	})
	return results, digest
}

func fluidTickStats(fs flow.Stats, cr contact.Result, pending int) FluidTickStats {
	return FluidTickStats{
		Updates:         fs.Updates,
		Stale:           fs.Stale,
		Spread:          fs.Spread,
		Fell:            fs.Fell,
		Hardened:        fs.Hardened,
		Displaced:       fs.Displaced,
		Woken:           fs.Woken,
		Pending:         pending,
		EntitiesTouched: cr.Touched,
		EntitiesDamaged: cr.Damaged,
		EntitiesIgnited: cr.Ignited,
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
