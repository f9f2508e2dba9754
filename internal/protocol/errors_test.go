package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrWorldBusy,
		ErrBadRequest,
		ErrInvalidTarget,
		ErrOutOfBounds,
		ErrNotFound,
		ErrBlocked,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
	if got := SanitizeCode("E_NOT_DEFINED"); got != ErrInternal {
		t.Fatalf("sanitize unknown=%q", got)
	}
	if got := SanitizeCode(ErrBlocked); got != ErrBlocked {
		t.Fatalf("sanitize known=%q", got)
	}
}
