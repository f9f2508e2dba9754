package fluid

// ContactSound is emitted whenever a fluid contact produces a solid block.
const ContactSound = "random.fizz"

// HardenStep converts a tile whose decay is at most MaxDecay into Block.
type HardenStep struct {
	MaxDecay int
	Block    string
}

// ContactRule describes what happens when Self meets Other.
//
// Harden applies to the Self tile when it finds Other next to it during its own update.
// Displace names the block that replaces an Other tile when Self flows into it.
type ContactRule struct {
	Self  Type
	Other Type

	Harden   []HardenStep // ordered by MaxDecay ascending
	Displace string
	Sound    string
}

type contactKey struct{ self, other Type }

var contactRules = map[contactKey]ContactRule{
	{Lava, Water}: {
		Self:  Lava,
		Other: Water,
		Harden: []HardenStep{
			{MaxDecay: 0, Block: "OBSIDIAN"},
			{MaxDecay: 4, Block: "COBBLESTONE"},
		},
		Displace: "STONE",
		Sound:    ContactSound,
	},
}

// Rule returns the contact rule for self meeting other.
func Rule(self, other Type) (ContactRule, bool) {
	r, ok := contactRules[contactKey{self, other}]
	return r, ok
}

// HardenInto returns the block the Self tile hardens into at the given decay.
func (r ContactRule) HardenInto(decay int) (string, bool) {
	for _, s := range r.Harden {
		if decay <= s.MaxDecay {
			return s.Block, true
		}
	}
	return "", false
}

// Reacts reports whether a tile of type t hardens next to a tile of type other.
func Reacts(t, other Type) bool {
	r, ok := Rule(t, other)
	return ok && len(r.Harden) > 0
}

// ContactBlocks lists every block id referenced by the contact table.
func ContactBlocks() []string {
	var out []string
	seen := map[string]bool{}
	add := func(b string) {
		if b != "" && !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	for _, t := range Types {
		for _, o := range Types {
			r, ok := Rule(t, o)
			if !ok {
				continue
			}
			for _, s := range r.Harden {
				add(s.Block)
			}
			add(r.Displace)
		}
	}
	return out
}
