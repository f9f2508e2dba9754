package blocks

import (
	"testing"

	"voxelflow.ai/internal/sim/catalogs"
	"voxelflow.ai/internal/sim/fluid"
)

func testCatalog(t *testing.T, defs []catalogs.BlockDef) catalogs.BlockCatalog {
	t.Helper()
	var bc catalogs.BlockCatalog
	if err := catalogs.BuildBlocks(defs, &bc); err != nil {
		t.Fatalf("build: %v", err)
	}
	return bc
}

func baseDefs() []catalogs.BlockDef {
	return []catalogs.BlockDef{
		{ID: "AIR", Replaceable: true},
		{ID: "STONE", Solid: true},
		{ID: "COBBLESTONE", Solid: true},
		{ID: "OBSIDIAN", Solid: true},
		{ID: "TALL_GRASS", Replaceable: true},
		{ID: "WATER", Fluid: "WATER"},
		{ID: "LAVA", Fluid: "LAVA"},
	}
}

func TestPalette_TileRoundTrip(t *testing.T) {
	p, err := NewPalette(testCatalog(t, baseDefs()))
	if err != nil {
		t.Fatalf("palette: %v", err)
	}
	tl := fluid.FlowingTile(fluid.Lava, 4)
	s := p.TileState(tl)
	got, ok := p.Tile(s)
	if !ok || got != tl {
		t.Fatalf("Tile(%d)=%+v,%v want %+v", s, got, ok, tl)
	}
	if p.Name(s) != "LAVA" {
		t.Fatalf("name=%q", p.Name(s))
	}
	if _, ok := p.Tile(p.MustState("STONE")); ok {
		t.Fatalf("stone is not a fluid")
	}
	if p.Light(s) != 15 {
		t.Fatalf("lava light=%d", p.Light(s))
	}
}

func TestPalette_Replaceable(t *testing.T) {
	p, err := NewPalette(testCatalog(t, baseDefs()))
	if err != nil {
		t.Fatalf("palette: %v", err)
	}
	cases := map[string]bool{
		"AIR":        true,
		"TALL_GRASS": true,
		"STONE":      false,
		"WATER":      false,
	}
	for id, want := range cases {
		if got := p.Replaceable(p.MustState(id)); got != want {
			t.Fatalf("%s: replaceable=%v want %v", id, got, want)
		}
	}
}

func TestNewPalette_MissingContactBlock(t *testing.T) {
	defs := baseDefs()
	var trimmed []catalogs.BlockDef
	for _, d := range defs {
		if d.ID != "OBSIDIAN" {
			trimmed = append(trimmed, d)
		}
	}
	if _, err := NewPalette(testCatalog(t, trimmed)); err == nil {
		t.Fatalf("expected error for missing OBSIDIAN")
	}
}

func TestNewPalette_FluidBlockMustDeclareFluid(t *testing.T) {
	defs := baseDefs()
	for i := range defs {
		if defs[i].ID == "WATER" {
			defs[i].Fluid = ""
		}
	}
	if _, err := NewPalette(testCatalog(t, defs)); err == nil {
		t.Fatalf("expected error for WATER without fluid")
	}
}
