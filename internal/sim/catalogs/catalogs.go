package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Blocks BlockCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

type BlockDef struct {
	ID    string `json:"id"`
	Solid bool   `json:"solid"`
	// Replaceable blocks are washed away by flowing fluid.
	Replaceable bool   `json:"replaceable,omitempty"`
	Fluid       string `json:"fluid,omitempty"` // "WATER","LAVA"
	Light       int    `json:"light,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadBlocks(filepath.Join(configDir, "blocks.json"), &c.Blocks); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(path string, out *BlockCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	if err := BuildBlocks(defs, out); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.DefsDigest = sha256Hex(raw)
	return nil
}

// BuildBlocks fills a block catalog from definitions. AIR must exist and becomes palette id 0.
func BuildBlocks(defs []BlockDef, out *BlockCatalog) error {
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("empty id")
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("duplicate id %q", d.ID)
		}
		if d.Fluid != "" && d.Solid {
			return fmt.Errorf("%s: fluid blocks cannot be solid", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Ensure AIR exists and is palette id 0.
	if _, ok := out.Defs["AIR"]; !ok {
		return fmt.Errorf("missing AIR")
	}
	ids = append([]string{"AIR"}, filterOut(ids, "AIR")...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	if out.DefsDigest == "" {
		defsJSON, _ := json.Marshal(defs)
		out.DefsDigest = sha256Hex(defsJSON)
	}
	return nil
}

func filterOut(in []string, remove string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == remove {
			continue
		}
		out = append(out, s)
	}
	return out
}
