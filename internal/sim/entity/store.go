package entity

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Kind describes a spawnable entity shape.
type Kind struct {
	Width     float64
	Height    float64
	MaxHealth float64
}

var Kinds = map[string]Kind{
	"HUMAN":   {Width: 0.6, Height: 1.8, MaxHealth: 20},
	"ZOMBIE":  {Width: 0.6, Height: 1.95, MaxHealth: 20},
	"PIG":     {Width: 0.9, Height: 0.9, MaxHealth: 10},
	"CHICKEN": {Width: 0.4, Height: 0.7, MaxHealth: 4},
}

// Store owns the entities of one world. Ids are derived from the world id and a spawn
// counter, so a replay recreates the same ids.
type Store struct {
	ns    uuid.UUID
	seq   uint64
	byID  map[string]*Living
	order []string
}

func NewStore(worldID string) *Store {
	return &Store{
		ns:   uuid.NewSHA1(uuid.NameSpaceURL, []byte("voxelflow://"+worldID)),
		byID: map[string]*Living{},
	}
}

func (s *Store) Len() int { return len(s.order) }

// Spawn creates a living entity of the given kind standing at pos.
func (s *Store) Spawn(kind string, pos mgl64.Vec3) (*Living, error) {
	k, ok := Kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	s.seq++
	id := uuid.NewSHA1(s.ns, []byte(fmt.Sprintf("%s/%d", kind, s.seq))).String()
	e := &Living{
		ID:        id,
		Kind:      kind,
		Pos:       pos,
		Width:     k.Width,
		Height:    k.Height,
		Health:    k.MaxHealth,
		MaxHealth: k.MaxHealth,
	}
	s.byID[id] = e
	s.order = append(s.order, id)
	return e, nil
}

func (s *Store) Get(id string) (*Living, bool) {
	e, ok := s.byID[id]
	return e, ok
}

func (s *Store) Remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// All returns entities in spawn order.
func (s *Store) All() []*Living {
	out := make([]*Living, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// RemoveDead drops entities whose health reached zero and returns their ids.
func (s *Store) RemoveDead() []string {
	var dead []string
	for _, e := range s.All() {
		if !e.Alive() {
			dead = append(dead, e.ID)
			s.Remove(e.ID)
		}
	}
	return dead
}

// Export returns the persisted form in spawn order along with the spawn counter.
func (s *Store) Export() (uint64, []State) {
	out := make([]State, 0, len(s.order))
	for _, e := range s.All() {
		out = append(out, e.State())
	}
	return s.seq, out
}

// Import replaces the store contents.
func (s *Store) Import(seq uint64, states []State) error {
	byID := make(map[string]*Living, len(states))
	order := make([]string, 0, len(states))
	for _, st := range states {
		if st.ID == "" {
			return fmt.Errorf("entity without id")
		}
		if _, dup := byID[st.ID]; dup {
			return fmt.Errorf("duplicate entity id %s", st.ID)
		}
		byID[st.ID] = FromState(st)
		order = append(order, st.ID)
	}
	s.seq = seq
	s.byID = byID
	s.order = order
	return nil
}

// KindNames lists spawnable kinds in sorted order.
func KindNames() []string {
	out := make([]string, 0, len(Kinds))
	for k := range Kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
