package observerproto

import (
	"reflect"

	"github.com/invopop/jsonschema"

	"voxelflow.ai/internal/protocol"
)

// Schemas returns JSON schemas for every message the observer and command endpoints speak,
// keyed by file stem.
func Schemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	reflect1 := func(v any, title string) *jsonschema.Schema {
		s := reflector.ReflectFromType(reflect.TypeOf(v))
		s.Title = title
		return s
	}
	return map[string]*jsonschema.Schema{
		"subscribe": reflect1(SubscribeMsg{}, "Observer SUBSCRIBE"),
		"bootstrap": reflect1(BootstrapResponse{}, "Observer bootstrap response"),
		"tick":      reflect1(TickMsg{}, "Observer TICK"),
		"command":   reflect1(protocol.CommandMsg{}, "COMMAND"),
		"ack":       reflect1(protocol.AckMsg{}, "ACK"),
	}
}
