package world

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/scenario"
	"voxelflow.ai/internal/sim/voxel"
)

// ApplyScenario places a scenario into the world before its first tick. Fills are written
// directly; fluid sources are placed and scheduled as if freshly poured.
func (w *World) ApplyScenario(sc scenario.Scenario) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	for i, f := range sc.Fills {
		s, ok := w.pal.State(strings.ToUpper(f.Block))
		if !ok {
			return fmt.Errorf("fills[%d]: unknown block %q", i, f.Block)
		}
		if w.pal.IsFluid(s) {
			return fmt.Errorf("fills[%d]: fluids go in the fluids section", i)
		}
		f.Each(func(x, y, z int) {
			w.chunks.SetBlock(voxel.Pos{X: x, Y: y, Z: z}, s)
		})
	}
	for i, src := range sc.Fluids {
		t, ok := fluid.Parse(strings.ToUpper(src.Fluid))
		if !ok {
			return fmt.Errorf("fluids[%d]: unknown fluid %q", i, src.Fluid)
		}
		pos := voxel.PosFromArray(src.Pos)
		if !w.chunks.InBounds(pos) {
			return fmt.Errorf("fluids[%d]: out of bounds", i)
		}
		w.prop.PlaceSource(pos, t, "SCENARIO")
	}
	for i, e := range sc.Entities {
		if _, err := w.entities.Spawn(strings.ToUpper(e.Kind), mgl64.Vec3{e.Pos[0], e.Pos[1], e.Pos[2]}); err != nil {
			return fmt.Errorf("entities[%d]: %w", i, err)
		}
	}
	return nil
}
