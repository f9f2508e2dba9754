package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// stateDigest hashes everything that affects future ticks: blocks, the pending queue in
// firing order and the entities.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	for _, k := range w.chunks.LoadedChunkKeys() {
		digestWriteI64(h, &tmp, int64(k.CX))
		digestWriteI64(h, &tmp, int64(k.CZ))
		d := w.chunks.Chunks[k].Digest()
		h.Write(d[:])
	}

	pending := w.queue.Snapshot()
	digestWriteU64(h, &tmp, uint64(len(pending)))
	for _, u := range pending {
		digestWriteI64(h, &tmp, int64(u.Pos.X))
		digestWriteI64(h, &tmp, int64(u.Pos.Y))
		digestWriteI64(h, &tmp, int64(u.Pos.Z))
		digestWriteU64(h, &tmp, uint64(u.Fluid))
		digestWriteU64(h, &tmp, u.Due)
	}

	for _, e := range w.entities.All() {
		h.Write([]byte(e.ID))
		for _, v := range e.Pos {
			digestWriteF64(h, &tmp, v)
		}
		digestWriteF64(h, &tmp, e.Health)
		digestWriteF64(h, &tmp, e.FallDistance())
		digestWriteI64(h, &tmp, int64(e.FireTicks()))
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}
