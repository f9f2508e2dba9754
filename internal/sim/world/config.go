package world

type WorldConfig struct {
	ID         string
	TickRateHz int
	Height     int
	BoundaryR  int

	// Operational parameters. These are included in snapshots for deterministic replay/resume.
	SnapshotEveryTicks int
	EntityContact      bool
	MaxCommandsPerTick int
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "world_1"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.Height <= 0 {
		c.Height = 64
	}
	if c.BoundaryR < 0 {
		c.BoundaryR = 0
	}
	if c.SnapshotEveryTicks < 0 {
		c.SnapshotEveryTicks = 0
	}
	if c.MaxCommandsPerTick <= 0 {
		c.MaxCommandsPerTick = 256
	}
}
