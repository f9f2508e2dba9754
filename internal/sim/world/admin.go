package world

import (
	"context"
	"errors"

	"voxelflow.ai/internal/protocol"
)

type adminSnapshotReq struct {
	Resp chan adminSnapshotResp
}

type adminSnapshotResp struct {
	Tick uint64
	Err  string
}

// RequestSnapshot asks the world loop goroutine to enqueue a snapshot.
// It is safe to call from other goroutines (e.g. HTTP handlers).
func (w *World) RequestSnapshot(ctx context.Context) (tick uint64, err error) {
	if w == nil {
		return 0, errors.New("admin snapshot not available")
	}
	req := adminSnapshotReq{Resp: make(chan adminSnapshotResp, 1)}
	select {
	case w.admin <- req:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case resp := <-req.Resp:
		if resp.Err != "" {
			return resp.Tick, errors.New(resp.Err)
		}
		return resp.Tick, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (w *World) handleAdminSnapshotRequests(reqs []adminSnapshotReq) {
	if len(reqs) == 0 {
		return
	}
	// The tick that just finished.
	tick := w.tick.Load() - 1
	resp := adminSnapshotResp{Tick: tick}
	if w.snapshotSink == nil {
		resp.Err = "snapshot sink not configured"
	} else {
		select {
		case w.snapshotSink <- w.ExportSnapshot(tick):
		default:
			resp.Err = "snapshot sink busy"
		}
	}
	for _, r := range reqs {
		select {
		case r.Resp <- resp:
		default:
			// Client timed out; don't block the sim loop.
		}
	}
}

// Submit queues a command for the next tick and waits for its result.
// It is safe to call from other goroutines.
func (w *World) Submit(ctx context.Context, cmd protocol.CommandMsg) (CommandResult, error) {
	req := CommandRequest{Cmd: cmd, Resp: make(chan CommandResult, 1)}
	select {
	case w.commands <- req:
	default:
		return CommandResult{Code: protocol.ErrWorldBusy, Message: "command queue full"}, nil
	}
	select {
	case res := <-req.Resp:
		return res, nil
	case <-ctx.Done():
		return CommandResult{}, ctx.Err()
	}
}
