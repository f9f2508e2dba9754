package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"voxelflow.ai/internal/sim/voxel"
)

// EncodeStates run-length encodes packed block states as base64(varint pairs). Each pair is
// (state, run_len). Fluid tiles of one level form long runs, so chunk columns stay small.
func EncodeStates(states []voxel.State) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(states); {
		s := states[i]
		run := 1
		for i+run < len(states) && states[i+run] == s {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(s))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeStates reverses EncodeStates. The decoded length must equal want.
func DecodeStates(b64 string, want int) ([]voxel.State, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	out := make([]voxel.State, 0, want)
	for i := 0; i < len(raw); {
		s, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad state varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad run varint at %d", i)
		}
		i += n
		if s > 0xFFFF {
			return nil, fmt.Errorf("state too large: %d", s)
		}
		if run == 0 || run > uint64(want-len(out)) {
			return nil, fmt.Errorf("run %d overflows %d states", run, want)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, voxel.State(s))
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("decoded %d states, want %d", len(out), want)
	}
	return out, nil
}
