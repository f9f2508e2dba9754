package flow

import (
	"testing"

	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/voxel"
)

func TestLavaHardensByDecay(t *testing.T) {
	cases := []struct {
		name  string
		tile  fluid.Tile
		want  string
		sound bool
	}{
		{"source", fluid.SourceTile(fluid.Lava), "OBSIDIAN", true},
		{"decay3", fluid.FlowingTile(fluid.Lava, 3), "COBBLESTONE", true},
		{"decay4", fluid.FlowingTile(fluid.Lava, 4), "COBBLESTONE", true},
		{"decay5", fluid.FlowingTile(fluid.Lava, 5), "LAVA", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.floor(2)
			p := voxel.Pos{Y: 1}
			h.setTile(p, tc.tile)
			h.setTile(voxel.Pos{X: 1, Y: 1}, fluid.SourceTile(fluid.Water))
			h.queue.Schedule(p, fluid.Lava, 7)

			h.prop.OnScheduledUpdate(p, fluid.Lava)

			if got := h.name(p); got != tc.want {
				t.Fatalf("block=%s want %s", got, tc.want)
			}
			if tc.sound {
				if len(h.notify.sounds) != 1 || h.notify.sounds[0].Sound != fluid.ContactSound || h.notify.sounds[0].Pos != p {
					t.Fatalf("sounds: %+v", h.notify.sounds)
				}
				if _, ok := h.queue.Pending(p); ok {
					t.Fatalf("hardened tile keeps a pending update")
				}
			}
		})
	}
}

func TestLavaFlowingOntoWaterMakesStone(t *testing.T) {
	h := newHarness(t)
	h.floor(2)
	p := voxel.Pos{Y: 1}
	h.setTile(p, fluid.SourceTile(fluid.Water))
	h.setTile(p.Up(), fluid.FlowingTile(fluid.Lava, 2))

	h.prop.OnScheduledUpdate(p.Up(), fluid.Lava)

	// Water below is not a hardening face; lava flows down into it instead.
	if got := h.name(p); got != "STONE" {
		t.Fatalf("water below lava: %s want STONE", got)
	}
	if got := h.name(p.Up()); got != "LAVA" {
		t.Fatalf("lava above: %s", got)
	}
}

func TestLavaSourceIgnoresWaterBelowWhenHardening(t *testing.T) {
	h := newHarness(t)
	h.floor(2)
	p := voxel.Pos{Y: 1}
	h.setTile(p, fluid.SourceTile(fluid.Lava))
	h.setTile(p.Down(), fluid.SourceTile(fluid.Water))

	h.prop.OnScheduledUpdate(p, fluid.Lava)

	if got := h.name(p); got != "LAVA" {
		t.Fatalf("lava with water only below must not harden, got %s", got)
	}
}

func TestFallingLavaNeverHardens(t *testing.T) {
	h := newHarness(t)
	h.floor(2)
	p := voxel.Pos{Y: 1}
	h.setTile(p, fluid.FallingTile(fluid.Lava))
	h.setTile(voxel.Pos{X: 1, Y: 1}, fluid.SourceTile(fluid.Water))

	h.prop.OnScheduledUpdate(p, fluid.Lava)

	if got := h.name(p); got != "LAVA" {
		t.Fatalf("falling lava hardened into %s", got)
	}
}

func TestWeakLavaDisplacesAdjacentWater(t *testing.T) {
	h := newHarness(t)
	h.floor(2)
	p := voxel.Pos{Y: 1}
	w := voxel.Pos{X: 1, Y: 1}
	h.setTile(p, fluid.FlowingTile(fluid.Lava, 5))
	h.setTile(w, fluid.FlowingTile(fluid.Water, 3))

	h.prop.OnScheduledUpdate(p, fluid.Lava)

	if got := h.name(w); got != "STONE" {
		t.Fatalf("water displaced into %s want STONE", got)
	}
	if got := h.name(p); got != "LAVA" {
		t.Fatalf("lava itself changed to %s", got)
	}
	if tl, ok := h.tile(voxel.Pos{X: -1, Y: 1}); !ok || tl.Decay != 7 {
		t.Fatalf("lava should still spread west: %+v ok=%v", tl, ok)
	}
	if st := h.prop.Stats(); st.Displaced != 1 || st.Hardened != 0 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	h := newHarness(t)
	p := voxel.Pos{Y: 1}
	h.setTile(p, fluid.SourceTile(fluid.Water))
	h.queue.Schedule(p, fluid.Water, 5)
	out := Outcome{Block: h.pal.MustState("STONE"), EmitsSound: true, Sound: fluid.ContactSound, Reason: ReasonDisplace}

	var changes []Change
	h.res.OnChange(func(c Change) { changes = append(changes, c) })

	if !h.res.Resolve(p, out) {
		t.Fatalf("first resolve should write")
	}
	if h.res.Resolve(p, out) {
		t.Fatalf("second resolve should be a no-op")
	}
	if h.grid.writes != 1 || len(h.notify.sounds) != 1 || len(changes) != 1 {
		t.Fatalf("writes=%d sounds=%d changes=%d", h.grid.writes, len(h.notify.sounds), len(changes))
	}
	if h.queue.Scheduled(p) {
		t.Fatalf("resolved position still scheduled")
	}
}

func TestWaterFlowWakesLavaWhichHardens(t *testing.T) {
	h := newHarness(t)
	h.floor(3)
	// One-wide channel: water at x=-1, lava at x=1, open cell between.
	for _, c := range []voxel.Pos{
		{X: -2, Y: 1}, {X: 2, Y: 1},
		{X: -1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: 1},
		{Y: 1, Z: -1}, {Y: 1, Z: 1},
		{X: 1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: 1},
	} {
		h.set(c, "STONE")
	}
	lava := voxel.Pos{X: 1, Y: 1}
	h.setTile(lava, fluid.SourceTile(fluid.Lava))
	h.setTile(voxel.Pos{X: -1, Y: 1}, fluid.SourceTile(fluid.Water))
	h.queue.Schedule(voxel.Pos{X: -1, Y: 1}, fluid.Water, 0)

	h.run(0)
	if u, ok := h.queue.Pending(lava); !ok || u.Due != 30 {
		t.Fatalf("lava should be woken by the water: %+v ok=%v", u, ok)
	}

	h.run(40)

	if got := h.name(lava); got != "OBSIDIAN" {
		t.Fatalf("lava source next to water became %s want OBSIDIAN", got)
	}
	if got := h.name(voxel.Pos{Y: 1}); got != "WATER" {
		t.Fatalf("channel cell: %s", got)
	}
	// Woken twice: the lava by the water, then the channel water by the new obsidian.
	if st := h.prop.Stats(); st.Woken != 2 || st.Hardened != 1 {
		t.Fatalf("stats: %+v", st)
	}
	h.checkDecayInvariant()
}

func TestLavaSpreadIntoWaterPoolMakesStone(t *testing.T) {
	h := newHarness(t)
	h.floor(4)
	for x := 1; x <= 3; x++ {
		h.setTile(voxel.Pos{X: x, Y: 1}, fluid.SourceTile(fluid.Water))
	}
	src := voxel.Pos{X: -2, Y: 2}
	h.set(voxel.Pos{X: -2, Y: 1}, "STONE")
	h.setTile(src, fluid.SourceTile(fluid.Lava))
	h.queue.Schedule(src, fluid.Lava, 0)

	h.run(300)
	h.checkDecayInvariant()

	stone := 0
	for _, c := range []voxel.Pos{{X: 0, Y: 1}, {X: 1, Y: 1}} {
		switch h.name(c) {
		case "STONE", "COBBLESTONE", "OBSIDIAN":
			stone++
		}
	}
	if stone == 0 {
		t.Fatalf("lava reaching water produced no solid block")
	}
	if len(h.notify.sounds) == 0 {
		t.Fatalf("no contact sound emitted")
	}
}
