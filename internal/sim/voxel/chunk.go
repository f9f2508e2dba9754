package voxel

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
)

const ChunkSize = 16

type ChunkKey struct {
	CX int
	CZ int
}

// ChunkKeyOf returns the key of the chunk column holding p.
func ChunkKeyOf(p Pos) ChunkKey {
	return ChunkKey{CX: floorDiv(p.X, ChunkSize), CZ: floorDiv(p.Z, ChunkSize)}
}

// Chunk is a 16 x Height x 16 column of packed block states.
type Chunk struct {
	CX, CZ int
	Height int
	Blocks []State // len = 16*16*Height

	dirty bool
	hash  [32]byte
}

func NewChunk(cx, cz, height int) *Chunk {
	return &Chunk{
		CX:     cx,
		CZ:     cz,
		Height: height,
		Blocks: make([]State, ChunkSize*ChunkSize*height),
		dirty:  true,
	}
}

func (c *Chunk) index(x, y, z int) int {
	return x + z*ChunkSize + y*ChunkSize*ChunkSize
}

func (c *Chunk) Get(x, y, z int) State {
	return c.Blocks[c.index(x, y, z)]
}

func (c *Chunk) Set(x, y, z int, b State) {
	i := c.index(x, y, z)
	if c.Blocks[i] == b {
		return
	}
	c.Blocks[i] = b
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], uint16(v))
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

// ChunkStore is the in-memory block grid. Chunks are created empty (all Air) on first write;
// reads of missing chunks or out-of-range coordinates return Air.
type ChunkStore struct {
	Height    int
	BoundaryR int // blocks; 0 = unbounded
	Air       State

	Chunks map[ChunkKey]*Chunk
}

func NewChunkStore(height, boundaryR int, air State) *ChunkStore {
	if height <= 0 {
		height = 1
	}
	return &ChunkStore{
		Height:    height,
		BoundaryR: boundaryR,
		Air:       air,
		Chunks:    map[ChunkKey]*Chunk{},
	}
}

func (s *ChunkStore) InBounds(p Pos) bool {
	if p.Y < 0 || p.Y >= s.Height {
		return false
	}
	if s.BoundaryR > 0 {
		if p.X < -s.BoundaryR || p.X > s.BoundaryR || p.Z < -s.BoundaryR || p.Z > s.BoundaryR {
			return false
		}
	}
	return true
}

func (s *ChunkStore) GetBlock(p Pos) State {
	if !s.InBounds(p) {
		return s.Air
	}
	ch := s.Chunks[ChunkKeyOf(p)]
	if ch == nil {
		return s.Air
	}
	return ch.Get(mod(p.X, ChunkSize), p.Y, mod(p.Z, ChunkSize))
}

func (s *ChunkStore) SetBlock(p Pos, b State) {
	if !s.InBounds(p) {
		return
	}
	k := ChunkKeyOf(p)
	ch := s.Chunks[k]
	if ch == nil {
		if b == s.Air {
			return
		}
		ch = s.newChunk(k)
		s.Chunks[k] = ch
	}
	ch.Set(mod(p.X, ChunkSize), p.Y, mod(p.Z, ChunkSize), b)
}

func (s *ChunkStore) newChunk(k ChunkKey) *Chunk {
	ch := NewChunk(k.CX, k.CZ, s.Height)
	if s.Air != 0 {
		for i := range ch.Blocks {
			ch.Blocks[i] = s.Air
		}
	}
	return ch
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}
