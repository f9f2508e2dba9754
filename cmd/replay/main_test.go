package main

import (
	"strings"
	"testing"

	persistlog "voxelflow.ai/internal/persistence/log"
	"voxelflow.ai/internal/persistence/snapshot"
	"voxelflow.ai/internal/protocol"
	"voxelflow.ai/internal/sim/catalogs"
	"voxelflow.ai/internal/sim/world"
)

func placeFluid(fluidName string, p [3]int) protocol.CommandMsg {
	return protocol.CommandMsg{
		Type:            protocol.TypeCommand,
		ProtocolVersion: protocol.Version,
		ID:              "c_" + fluidName,
		Cmd:             protocol.CmdPlaceFluid,
		Fluid:           fluidName,
		Pos:             p,
	}
}

// recordRun steps a live world with logging enabled and returns the tick 0 snapshot path.
func recordRun(t *testing.T, dir string, cats *catalogs.Catalogs, ticks int) string {
	t.Helper()
	w, err := world.New(world.WorldConfig{ID: "replay_test", Height: 16, BoundaryR: 32}, cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	tl := persistlog.NewTickLogger(dir, persistlog.Options{})
	w.SetTickLogger(tl)

	tick, _ := w.StepOnce(nil)
	path := snapshot.Path(dir, tick)
	if err := snapshot.WriteSnapshot(path, w.ExportSnapshot(tick)); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	w.StepOnce([]protocol.CommandMsg{placeFluid("WATER", [3]int{0, 4, 0})})
	w.StepOnce([]protocol.CommandMsg{placeFluid("LAVA", [3]int{3, 4, 0})})
	for i := 0; i < ticks-2; i++ {
		w.StepOnce(nil)
	}
	if err := tl.Close(); err != nil {
		t.Fatalf("close tick log: %v", err)
	}
	return path
}

func loadWorld(t *testing.T, path string, cats *catalogs.Catalogs) *world.World {
	t.Helper()
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	w, err := world.New(world.ConfigFromSnapshot(snap), cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if err := w.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	return w
}

func TestReplayTicks_MatchesRecordedDigests(t *testing.T) {
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	dir := t.TempDir()
	path := recordRun(t, dir, cats, 80)

	w := loadWorld(t, path, cats)
	checked, err := replayTicks(w, dir, 0, 0)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked != 80 {
		t.Fatalf("checked=%d want 80", checked)
	}
	if w.CurrentTick() != 81 {
		t.Fatalf("tick=%d want 81", w.CurrentTick())
	}
}

func TestReplayTicks_StopsAtToTick(t *testing.T) {
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	dir := t.TempDir()
	path := recordRun(t, dir, cats, 30)

	w := loadWorld(t, path, cats)
	checked, err := replayTicks(w, dir, 5, 12)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked != 8 {
		t.Fatalf("checked=%d want 8", checked)
	}
}

func TestReplayTicks_NoLogs(t *testing.T) {
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	dir := t.TempDir()
	path := recordRun(t, dir, cats, 3)

	w := loadWorld(t, path, cats)
	_, err = replayTicks(w, t.TempDir(), 0, 0)
	if err == nil || !strings.Contains(err.Error(), "no tick log entries") {
		t.Fatalf("expected missing log error, got %v", err)
	}
}
