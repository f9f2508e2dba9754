package protocol

import "strings"

// Command names.
const (
	CmdPlaceBlock   = "PLACE_BLOCK"
	CmdPlaceFluid   = "PLACE_FLUID"
	CmdDrain        = "DRAIN"
	CmdSpawnEntity  = "SPAWN_ENTITY"
	CmdMoveEntity   = "MOVE_ENTITY"
	CmdRemoveEntity = "REMOVE_ENTITY"
)

// COMMAND (client -> server). Applied by the world at the next tick boundary.
type CommandMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Cmd             string `json:"cmd"`

	Pos   [3]int `json:"pos,omitempty"`
	Block string `json:"block,omitempty"`
	Fluid string `json:"fluid,omitempty"`

	Kind      string     `json:"kind,omitempty"`
	EntityID  string     `json:"entity_id,omitempty"`
	EntityPos [3]float64 `json:"entity_pos,omitempty"`
}

// ACK (server -> client).
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
	WorldID         string `json:"world_id,omitempty"`
	EntityID        string `json:"entity_id,omitempty"`
}

// Validate checks the fields each command needs. It does not look at world state.
func (c CommandMsg) Validate() (code, msg string) {
	if c.Type != TypeCommand {
		return ErrProtoBadRequest, "type must be COMMAND"
	}
	if c.ProtocolVersion != Version {
		return ErrProtoBadRequest, "unsupported protocol_version"
	}
	switch c.Cmd {
	case CmdPlaceBlock:
		if strings.TrimSpace(c.Block) == "" {
			return ErrBadRequest, "missing block"
		}
	case CmdPlaceFluid:
		if strings.TrimSpace(c.Fluid) == "" {
			return ErrBadRequest, "missing fluid"
		}
	case CmdDrain:
	case CmdSpawnEntity:
		if strings.TrimSpace(c.Kind) == "" {
			return ErrBadRequest, "missing kind"
		}
	case CmdMoveEntity, CmdRemoveEntity:
		if strings.TrimSpace(c.EntityID) == "" {
			return ErrBadRequest, "missing entity_id"
		}
	default:
		return ErrBadRequest, "unknown cmd"
	}
	return "", ""
}
