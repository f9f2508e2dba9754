package flow

import (
	"testing"

	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/voxel"
)

func TestLavaSourceSpreadsWithDecayTwoAndThirtyTickDelay(t *testing.T) {
	h := newHarness(t)
	h.floor(4)
	src := voxel.Pos{Y: 1}
	h.setTile(src, fluid.SourceTile(fluid.Lava))

	h.prop.OnScheduledUpdate(src, fluid.Lava)

	for _, d := range voxel.Horizontal {
		n := src.Add(d)
		tl, ok := h.tile(n)
		if !ok || tl.Type != fluid.Lava || tl.Decay != 2 || tl.Source {
			t.Fatalf("neighbour %+v: tile=%+v ok=%v", n, tl, ok)
		}
		u, ok := h.queue.Pending(n)
		if !ok || u.Due != 30 || u.Fluid != fluid.Lava {
			t.Fatalf("neighbour %+v: pending=%+v ok=%v", n, u, ok)
		}
	}
	if st := h.prop.Stats(); st.Spread != 4 {
		t.Fatalf("spread=%d want 4", st.Spread)
	}
}

func TestWaterSpreadStopsAtDecayBudget(t *testing.T) {
	h := newHarness(t)
	h.floor(12)
	h.setTile(voxel.Pos{Y: 1}, fluid.SourceTile(fluid.Water))
	h.queue.Schedule(voxel.Pos{Y: 1}, fluid.Water, 0)
	h.run(200)
	h.checkDecayInvariant()

	if tl, ok := h.tile(voxel.Pos{X: 7, Y: 1}); !ok || tl.Decay != 7 {
		t.Fatalf("x=7: %+v ok=%v", tl, ok)
	}
	if _, ok := h.tile(voxel.Pos{X: 8, Y: 1}); ok {
		t.Fatalf("water must not spread past decay 7")
	}
	if h.queue.Len() != 0 {
		t.Fatalf("settled water should leave no pending updates, have %d", h.queue.Len())
	}
}

func TestHorizontalSpreadBlockedWhenBudgetExhausted(t *testing.T) {
	h := newHarness(t)
	h.floor(2)
	p := voxel.Pos{Y: 1}
	h.setTile(p, fluid.FlowingTile(fluid.Lava, 6))

	h.prop.OnScheduledUpdate(p, fluid.Lava)

	for _, d := range voxel.Horizontal {
		if _, ok := h.tile(p.Add(d)); ok {
			t.Fatalf("lava decay 6 + 2 > 7 must not spread sideways")
		}
	}
}

func TestDownwardFlowIgnoresDecayBudget(t *testing.T) {
	h := newHarness(t)
	p := voxel.Pos{Y: 3}
	h.setTile(p, fluid.FlowingTile(fluid.Water, 7))

	h.prop.OnScheduledUpdate(p, fluid.Water)

	tl, ok := h.tile(p.Down())
	if !ok || !tl.Falling || tl.Decay != 0 || tl.Type != fluid.Water {
		t.Fatalf("below: %+v ok=%v", tl, ok)
	}
	for _, d := range voxel.Horizontal {
		if _, ok := h.tile(p.Add(d)); ok {
			t.Fatalf("non-source tile with open drop must not spread sideways")
		}
	}
}

func TestSourceSpreadsSidewaysAndDown(t *testing.T) {
	h := newHarness(t)
	p := voxel.Pos{Y: 3}
	h.setTile(p, fluid.SourceTile(fluid.Water))

	h.prop.OnScheduledUpdate(p, fluid.Water)

	if tl, ok := h.tile(p.Down()); !ok || !tl.Falling {
		t.Fatalf("below: %+v ok=%v", tl, ok)
	}
	for _, d := range voxel.Horizontal {
		if tl, ok := h.tile(p.Add(d)); !ok || tl.Decay != 1 {
			t.Fatalf("side %+v: %+v ok=%v", d, tl, ok)
		}
	}
}

func TestFlowPrefersNearestDrop(t *testing.T) {
	h := newHarness(t)
	h.floor(6)
	h.set(voxel.Pos{X: 2}, "AIR") // hole in the floor two blocks east
	src := voxel.Pos{Y: 1}
	h.setTile(src, fluid.SourceTile(fluid.Water))

	h.prop.OnScheduledUpdate(src, fluid.Water)

	if tl, ok := h.tile(voxel.Pos{X: 1, Y: 1}); !ok || tl.Decay != 1 {
		t.Fatalf("east neighbour should receive priority flow: %+v ok=%v", tl, ok)
	}
	for _, n := range []voxel.Pos{{X: -1, Y: 1}, {Y: 1, Z: -1}, {Y: 1, Z: 1}} {
		if _, ok := h.tile(n); ok {
			t.Fatalf("%+v should not receive flow while a closer drop exists", n)
		}
	}
}

func TestFlowDirectionSelectionIsDeterministic(t *testing.T) {
	build := func() *harness {
		h := newHarness(t)
		h.floor(6)
		h.set(voxel.Pos{X: -3}, "AIR")
		h.set(voxel.Pos{Z: 3}, "AIR")
		h.set(voxel.Pos{X: 1, Y: 1, Z: 1}, "STONE")
		h.setTile(voxel.Pos{Y: 1}, fluid.SourceTile(fluid.Water))
		return h
	}
	a, b := build(), build()
	da := a.prop.selectDirections(voxel.Pos{Y: 1}, fluid.FlowingTile(fluid.Water, 1))
	db := b.prop.selectDirections(voxel.Pos{Y: 1}, fluid.FlowingTile(fluid.Water, 1))
	if len(da) != len(db) || len(da) == 0 {
		t.Fatalf("direction sets differ: %v vs %v", da, db)
	}
	for i := range da {
		if da[i] != db[i] {
			t.Fatalf("direction %d differs: %v vs %v", i, da[i], db[i])
		}
	}
	// West and south each reach a drop two steps out.
	if len(da) != 2 || da[0] != (voxel.Pos{X: -1, Y: 1}) || da[1] != (voxel.Pos{Y: 1, Z: 1}) {
		t.Fatalf("unexpected directions: %v", da)
	}
}

func TestSolidNeighboursAreExcluded(t *testing.T) {
	h := newHarness(t)
	h.floor(2)
	p := voxel.Pos{Y: 1}
	h.setTile(p, fluid.SourceTile(fluid.Water))
	h.set(voxel.Pos{X: 1, Y: 1}, "BEDROCK")
	h.set(voxel.Pos{X: -1, Y: 1}, "TALL_GRASS")

	h.prop.OnScheduledUpdate(p, fluid.Water)

	if h.name(voxel.Pos{X: 1, Y: 1}) != "BEDROCK" {
		t.Fatalf("bedrock was replaced")
	}
	if tl, ok := h.tile(voxel.Pos{X: -1, Y: 1}); !ok || tl.Type != fluid.Water {
		t.Fatalf("tall grass should be washed away: %s", h.name(voxel.Pos{X: -1, Y: 1}))
	}
}

func TestStaleUpdateIsNoop(t *testing.T) {
	h := newHarness(t)
	p := voxel.Pos{Y: 1}
	h.prop.OnScheduledUpdate(p, fluid.Water)
	h.setTile(p, fluid.SourceTile(fluid.Lava))
	h.prop.OnScheduledUpdate(p, fluid.Water)
	if h.grid.writes != 0 {
		t.Fatalf("stale updates wrote %d blocks", h.grid.writes)
	}
	if st := h.prop.Stats(); st.Stale != 2 || st.Updates != 2 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestStrongerFlowOverwritesWeaker(t *testing.T) {
	h := newHarness(t)
	h.floor(2)
	p := voxel.Pos{Y: 1}
	h.setTile(p, fluid.SourceTile(fluid.Water))
	h.setTile(voxel.Pos{X: 1, Y: 1}, fluid.FlowingTile(fluid.Water, 5))
	h.setTile(voxel.Pos{X: -1, Y: 1}, fluid.SourceTile(fluid.Water))

	h.prop.OnScheduledUpdate(p, fluid.Water)

	if tl, _ := h.tile(voxel.Pos{X: 1, Y: 1}); tl.Decay != 1 {
		t.Fatalf("weaker flow should be overwritten, decay=%d", tl.Decay)
	}
	if tl, _ := h.tile(voxel.Pos{X: -1, Y: 1}); !tl.Source {
		t.Fatalf("source must not be overwritten")
	}
}

func TestActiveTileReschedulesItself(t *testing.T) {
	h := newHarness(t)
	h.floor(2)
	p := voxel.Pos{Y: 1}
	h.setTile(p, fluid.SourceTile(fluid.Water))
	h.prop.OnScheduledUpdate(p, fluid.Water)
	if u, ok := h.queue.Pending(p); !ok || u.Due != 5 {
		t.Fatalf("active tile should be rescheduled after 5 ticks: %+v ok=%v", u, ok)
	}

	h.queue.Cancel(p)
	h.prop.OnScheduledUpdate(p, fluid.Water)
	if _, ok := h.queue.Pending(p); ok {
		t.Fatalf("idle tile should not reschedule itself")
	}
}

func TestPlaceSourceSchedulesAndWakeAround(t *testing.T) {
	h := newHarness(t)
	h.floor(2)
	p := voxel.Pos{Y: 1}
	if !h.prop.PlaceSource(p, fluid.Water, "PLACE_FLUID") {
		t.Fatalf("place failed")
	}
	if h.prop.PlaceSource(p, fluid.Water, "PLACE_FLUID") {
		t.Fatalf("placing the same source twice should not write")
	}
	if u, ok := h.queue.Pending(p); !ok || u.Due != 5 {
		t.Fatalf("pending=%+v ok=%v", u, ok)
	}

	h.queue.Cancel(p)
	h.prop.WakeAround(voxel.Pos{X: 1, Y: 1})
	if !h.queue.Scheduled(p) {
		t.Fatalf("neighbouring fluid not woken")
	}
}

func TestWaterOverLavaSpreadsSideways(t *testing.T) {
	cases := []struct {
		name string
		lava fluid.Tile
	}{
		{"lavaSource", fluid.SourceTile(fluid.Lava)},
		{"weakLava", fluid.FlowingTile(fluid.Lava, 6)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.floor(3)
			lava := voxel.Pos{X: 1, Y: 1}
			water := lava.Up()
			h.setTile(lava, tc.lava)
			h.setTile(water, fluid.FlowingTile(fluid.Water, 1))

			h.prop.OnScheduledUpdate(water, fluid.Water)

			for _, d := range voxel.Horizontal {
				n := water.Add(d)
				if tl, ok := h.tile(n); !ok || tl.Type != fluid.Water || tl.Decay != 2 {
					t.Fatalf("neighbour %+v: tile=%+v ok=%v", n, tl, ok)
				}
			}
			if _, ok := h.queue.Pending(lava); !ok {
				t.Fatalf("lava below should be woken")
			}
			if u, ok := h.queue.Pending(water); !ok || u.Due != 5 {
				t.Fatalf("water should reschedule after spreading: %+v ok=%v", u, ok)
			}

			h.run(200)
			h.checkDecayInvariant()
			if got := h.name(voxel.Pos{X: 2, Y: 1}); got != "WATER" {
				t.Fatalf("spread water never fell beside the lava: %s", got)
			}
		})
	}
}

func TestHardeningWakesIdleNeighbours(t *testing.T) {
	h := newHarness(t)
	h.floor(2)
	lava := voxel.Pos{Y: 1}
	side := voxel.Pos{X: -1, Y: 1}
	above := lava.Up()
	h.setTile(lava, fluid.SourceTile(fluid.Lava))
	h.setTile(side, fluid.SourceTile(fluid.Water))
	h.setTile(above, fluid.FlowingTile(fluid.Water, 3))

	h.prop.OnScheduledUpdate(lava, fluid.Lava)

	if got := h.name(lava); got != "OBSIDIAN" {
		t.Fatalf("lava became %s want OBSIDIAN", got)
	}
	for _, p := range []voxel.Pos{side, above} {
		u, ok := h.queue.Pending(p)
		if !ok || u.Fluid != fluid.Water || u.Due != 5 {
			t.Fatalf("water at %+v not woken: %+v ok=%v", p, u, ok)
		}
	}
	if _, ok := h.queue.Pending(lava); ok {
		t.Fatalf("obsidian keeps a pending update")
	}
	if st := h.prop.Stats(); st.Woken != 2 {
		t.Fatalf("woken=%d want 2", st.Woken)
	}
}
