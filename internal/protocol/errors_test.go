package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrBadRequest,
		ErrNoPermission,
		ErrInternal,
		NoticeObstructed,
		NoticeCreativeRequiredForGlobal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") || IsKnownCode("waystones.nope") {
		t.Fatalf("expected unknown code rejected")
	}
}
