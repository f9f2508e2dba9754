package observerproto

// Version is the observer protocol version (separate from the command protocol).
const Version = "0.1"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeTick      = "TICK"
)

// Client -> Server. First message on the observer WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Optional sections of each TICK message.
	Audits   bool `json:"audits,omitempty"`
	Entities bool `json:"entities,omitempty"`
	// Chunks asks for every loaded chunk on the first TICK and for changed chunks after.
	Chunks bool `json:"chunks,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	BlockPalette    []string    `json:"block_palette"`
	Fluids          []FluidInfo `json:"fluids"`
}

type WorldParams struct {
	TickRateHz int    `json:"tick_rate_hz"`
	ChunkSize  [3]int `json:"chunk_size"`
	Height     int    `json:"height"`
	BoundaryR  int    `json:"boundary_r"`
}

type FluidInfo struct {
	Name            string `json:"name"`
	Block           string `json:"block"`
	DecayPerBlock   int    `json:"decay_per_block"`
	TickInterval    uint64 `json:"tick_interval"`
	MaxDecay        int    `json:"max_decay"`
	FlowSearchDepth int    `json:"flow_search_depth"`
	LightLevel      int    `json:"light_level,omitempty"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Digest          string `json:"digest"`

	Pending int        `json:"pending"`
	Fluid   FluidStats `json:"fluid"`

	Sounds   []Sound          `json:"sounds,omitempty"`
	Commands []CommandSummary `json:"commands,omitempty"`
	Audits   []AuditEntry     `json:"audits,omitempty"`
	Entities []EntityState    `json:"entities,omitempty"`
	Chunks   []ChunkData      `json:"chunks,omitempty"`
}

type FluidStats struct {
	Updates   int `json:"updates"`
	Spread    int `json:"spread"`
	Fell      int `json:"fell"`
	Hardened  int `json:"hardened"`
	Displaced int `json:"displaced"`
	Touched   int `json:"entities_touched"`
}

type Sound struct {
	Pos   [3]int `json:"pos"`
	Sound string `json:"sound"`
}

type CommandSummary struct {
	ID       string `json:"id,omitempty"`
	Cmd      string `json:"cmd"`
	Accepted bool   `json:"accepted"`
	Code     string `json:"code,omitempty"`
}

type AuditEntry struct {
	Tick   uint64 `json:"tick"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Pos    [3]int `json:"pos"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

type EntityState struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	Pos          [3]float64 `json:"pos"`
	Health       float64    `json:"health"`
	FallDistance float64    `json:"fall_distance"`
	FireTicks    int        `json:"fire_ticks"`
}

// ChunkData is a full chunk column. Blocks holds the packed states (palette index << 5 | meta)
// in x + z*16 + y*256 order, run-length encoded.
type ChunkData struct {
	CX     int    `json:"cx"`
	CZ     int    `json:"cz"`
	Height int    `json:"height"`
	Blocks string `json:"blocks_rle"`
}
