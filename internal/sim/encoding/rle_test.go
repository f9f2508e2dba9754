package encoding

import (
	"testing"

	"voxelflow.ai/internal/sim/voxel"
)

func TestStates_RoundTrip(t *testing.T) {
	in := make([]voxel.State, 0, 200)
	in = append(in, 1, 1, 1, 2, 2, 3)
	for i := 0; i < 50; i++ {
		in = append(in, 7<<5|0x10)
	}
	in = append(in, 9, 10, 10, 10)

	enc := EncodeStates(in)
	out, err := DecodeStates(enc, len(in))
	if err != nil {
		t.Fatalf("DecodeStates: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, out[i], in[i])
		}
	}
}

func TestStates_LengthChecked(t *testing.T) {
	enc := EncodeStates([]voxel.State{4, 4, 4, 4})
	if _, err := DecodeStates(enc, 3); err == nil {
		t.Fatalf("expected overflow error")
	}
	if _, err := DecodeStates(enc, 5); err == nil {
		t.Fatalf("expected short error")
	}
	if _, err := DecodeStates("!!", 1); err == nil {
		t.Fatalf("expected base64 error")
	}
	if got := EncodeStates(nil); got != "" {
		t.Fatalf("empty input encoded to %q", got)
	}
}
