package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_RepoBlocks(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Blocks.Palette[0] != "AIR" || c.Blocks.Index["AIR"] != 0 {
		t.Fatalf("AIR must be palette id 0: %v", c.Blocks.Palette)
	}
	for _, id := range []string{"WATER", "LAVA", "STONE", "COBBLESTONE", "OBSIDIAN"} {
		if _, ok := c.Blocks.Index[id]; !ok {
			t.Fatalf("missing %s", id)
		}
	}
	if c.Blocks.Defs["LAVA"].Fluid != "LAVA" {
		t.Fatalf("LAVA def: %+v", c.Blocks.Defs["LAVA"])
	}
	if c.Blocks.PaletteDigest == "" || c.Blocks.DefsDigest == "" {
		t.Fatalf("digests must be set")
	}
}

func TestBuildBlocks_RejectsBadDefs(t *testing.T) {
	var bc BlockCatalog
	if err := BuildBlocks([]BlockDef{{ID: "STONE", Solid: true}}, &bc); err == nil {
		t.Fatalf("expected missing AIR error")
	}
	if err := BuildBlocks([]BlockDef{{ID: "AIR"}, {ID: "AIR"}}, &bc); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if err := BuildBlocks([]BlockDef{{ID: "AIR"}, {ID: "MUD", Solid: true, Fluid: "WATER"}}, &bc); err == nil {
		t.Fatalf("expected solid fluid error")
	}
}

func TestLoad_BadJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blocks.json"), []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected parse error")
	}
}
