// Package scenario loads static world fixtures: block fills, fluid sources and entities
// placed into a fresh world before its first tick.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxFillVolume bounds a single fill so a typo cannot allocate the whole boundary.
const MaxFillVolume = 1 << 20

type Scenario struct {
	WorldID  string   `yaml:"world_id"`
	Fills    []Fill   `yaml:"fills"`
	Fluids   []Source `yaml:"fluids"`
	Entities []Spawn  `yaml:"entities"`
}

// Fill sets every block in the inclusive box [Min, Max].
type Fill struct {
	Block string `yaml:"block"`
	Min   [3]int `yaml:"min"`
	Max   [3]int `yaml:"max"`
}

type Source struct {
	Fluid string `yaml:"fluid"`
	Pos   [3]int `yaml:"pos"`
}

type Spawn struct {
	Kind string     `yaml:"kind"`
	Pos  [3]float64 `yaml:"pos"`
}

func Load(path string) (Scenario, error) {
	var s Scenario
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks shape only; block, fluid and kind names are resolved by the world.
func (s Scenario) Validate() error {
	for i, f := range s.Fills {
		if f.Block == "" {
			return fmt.Errorf("fills[%d]: missing block", i)
		}
		vol := 1
		for a := 0; a < 3; a++ {
			if f.Min[a] > f.Max[a] {
				return fmt.Errorf("fills[%d]: min > max on axis %d", i, a)
			}
			vol *= f.Max[a] - f.Min[a] + 1
			if vol > MaxFillVolume {
				return fmt.Errorf("fills[%d]: volume exceeds %d", i, MaxFillVolume)
			}
		}
	}
	for i, src := range s.Fluids {
		if src.Fluid == "" {
			return fmt.Errorf("fluids[%d]: missing fluid", i)
		}
	}
	for i, e := range s.Entities {
		if e.Kind == "" {
			return fmt.Errorf("entities[%d]: missing kind", i)
		}
	}
	return nil
}

// Each calls fn for every position of the fill in y, z, x order.
func (f Fill) Each(fn func(x, y, z int)) {
	for y := f.Min[1]; y <= f.Max[1]; y++ {
		for z := f.Min[2]; z <= f.Max[2]; z++ {
			for x := f.Min[0]; x <= f.Max[0]; x++ {
				fn(x, y, z)
			}
		}
	}
}
