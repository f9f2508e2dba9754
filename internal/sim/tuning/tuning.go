package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	Height             int `yaml:"height"`
	WorldBoundaryR     int `yaml:"world_boundary_r"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	// EntityContact toggles lava side effects on entities. Nil means enabled.
	EntityContact *bool `yaml:"entity_contact"`

	MaxCommandsPerTick int `yaml:"max_commands_per_tick"`

	Digest string `yaml:"-"`
}

func Defaults() Tuning {
	on := true
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         20,
		Height:             64,
		WorldBoundaryR:     256,
		SnapshotEveryTicks: 6000,
		EntityContact:      &on,
		MaxCommandsPerTick: 256,
	}
}

// Load reads a tuning file over the defaults. A missing file yields the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return t, nil
		}
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	sum := sha256.Sum256(raw)
	t.Digest = hex.EncodeToString(sum[:])
	return t, nil
}

func (t Tuning) validate() error {
	if t.TickRateHz <= 0 || t.TickRateHz > 1000 {
		return fmt.Errorf("tick_rate_hz out of range: %d", t.TickRateHz)
	}
	if t.Height <= 0 || t.Height > 1024 {
		return fmt.Errorf("height out of range: %d", t.Height)
	}
	if t.WorldBoundaryR < 0 {
		return fmt.Errorf("world_boundary_r must be >= 0")
	}
	if t.SnapshotEveryTicks < 0 {
		return fmt.Errorf("snapshot_every_ticks must be >= 0")
	}
	return nil
}

func (t Tuning) EntityContactEnabled() bool {
	return t.EntityContact == nil || *t.EntityContact
}
