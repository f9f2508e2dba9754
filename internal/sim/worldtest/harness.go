package worldtest

import (
	"strconv"
	"testing"

	"voxelflow.ai/internal/persistence/snapshot"
	"voxelflow.ai/internal/protocol"
	"voxelflow.ai/internal/sim/catalogs"
	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/scenario"
	"voxelflow.ai/internal/sim/voxel"
	world "voxelflow.ai/internal/sim/world"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - Step()/StepN() issue COMMANDs via StepCommands()
// - tick and audit entries are captured through the world's logger hooks
// - Debug* helpers read back blocks and entities between steps
//
// It avoids touching world internals so tests can live outside the world package.
type Harness struct {
	T    *testing.T
	Cats *catalogs.Catalogs
	W    *world.World

	rec *recorder
	seq int
}

type recorder struct {
	ticks  []world.TickLogEntry
	audits []world.AuditEntry
}

func (r *recorder) WriteTick(e world.TickLogEntry) error {
	r.ticks = append(r.ticks, e)
	return nil
}

func (r *recorder) WriteAudit(e world.AuditEntry) error {
	r.audits = append(r.audits, e)
	return nil
}

func NewHarness(t *testing.T, cfg world.WorldConfig, cats *catalogs.Catalogs) *Harness {
	t.Helper()

	w, err := world.New(cfg, cats)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return NewHarnessWithWorld(t, w, cats)
}

// NewHarnessWithWorld is like NewHarness, but uses an already-constructed world instance.
// This is useful for snapshot round-trip tests where the snapshot is imported first.
func NewHarnessWithWorld(t *testing.T, w *world.World, cats *catalogs.Catalogs) *Harness {
	t.Helper()
	if w == nil {
		t.Fatalf("NewHarnessWithWorld: nil world")
	}
	h := &Harness{T: t, Cats: cats, W: w, rec: &recorder{}}
	w.SetTickLogger(h.rec)
	w.SetAuditLogger(h.rec)
	return h
}

func LoadCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

func (h *Harness) Apply(sc scenario.Scenario) {
	h.T.Helper()
	if err := h.W.ApplyScenario(sc); err != nil {
		h.T.Fatalf("ApplyScenario: %v", err)
	}
}

func (h *Harness) cmd(name string) protocol.CommandMsg {
	h.seq++
	return protocol.CommandMsg{
		Type:            protocol.TypeCommand,
		ProtocolVersion: protocol.Version,
		ID:              name + "_" + strconv.Itoa(h.seq),
		Cmd:             name,
	}
}

func (h *Harness) PlaceFluidCmd(name string, p voxel.Pos) protocol.CommandMsg {
	c := h.cmd(protocol.CmdPlaceFluid)
	c.Fluid = name
	c.Pos = p.ToArray()
	return c
}

func (h *Harness) PlaceBlockCmd(name string, p voxel.Pos) protocol.CommandMsg {
	c := h.cmd(protocol.CmdPlaceBlock)
	c.Block = name
	c.Pos = p.ToArray()
	return c
}

func (h *Harness) SpawnCmd(kind string, pos [3]float64) protocol.CommandMsg {
	c := h.cmd(protocol.CmdSpawnEntity)
	c.Kind = kind
	c.EntityPos = pos
	return c
}

// Step applies cmds at the next tick boundary and fails the test if any is rejected.
func (h *Harness) Step(cmds ...protocol.CommandMsg) []world.CommandResult {
	h.T.Helper()
	res, _ := h.W.StepCommands(cmds)
	for i, r := range res {
		if !r.Accepted {
			h.T.Fatalf("command %s rejected: %s", cmds[i].ID, r)
		}
	}
	return res
}

func (h *Harness) StepN(n int) {
	h.T.Helper()
	for i := 0; i < n; i++ {
		_, _ = h.W.StepOnce(nil)
	}
}

// StepUntil steps until tick itself has been stepped.
func (h *Harness) StepUntil(tick uint64) {
	h.T.Helper()
	for h.W.CurrentTick() <= tick {
		_, _ = h.W.StepOnce(nil)
	}
}

func (h *Harness) Snapshot() (tick uint64, snap snapshot.SnapshotV1) {
	h.T.Helper()
	// Keep tick stable: export at currentTick-1 then import would restore to currentTick.
	cur := h.W.CurrentTick()
	if cur == 0 {
		return 0, h.W.ExportSnapshot(0)
	}
	tick = cur - 1
	return tick, h.W.ExportSnapshot(tick)
}

func (h *Harness) Block(p voxel.Pos) string { return h.W.DebugBlock(p) }

func (h *Harness) Tile(p voxel.Pos) (fluid.Tile, bool) {
	return h.W.Palette().Tile(h.W.DebugState(p))
}

func (h *Harness) Digests() []string {
	out := make([]string, 0, len(h.rec.ticks))
	for _, e := range h.rec.ticks {
		out = append(out, e.Digest)
	}
	return out
}

func (h *Harness) LastTick() world.TickLogEntry {
	h.T.Helper()
	if len(h.rec.ticks) == 0 {
		h.T.Fatalf("no ticks stepped")
	}
	return h.rec.ticks[len(h.rec.ticks)-1]
}

// Audits returns the captured audit entries with the given action and reason. An empty
// reason matches any.
func (h *Harness) Audits(action, reason string) []world.AuditEntry {
	var out []world.AuditEntry
	for _, a := range h.rec.audits {
		if a.Action != action {
			continue
		}
		if reason != "" && a.Reason != reason {
			continue
		}
		out = append(out, a)
	}
	return out
}
