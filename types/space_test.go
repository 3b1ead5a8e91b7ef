package types

import "testing"

func TestSpaceRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		s    ExternalSpace
	}{
		{
			name: "loadable private space",
			s: ExternalSpace{
				NameOffset: 12, IsLoadable: true, IsPrivate: true,
				SortKey: 3, SpaceNumber: 1, SubspaceIndex: 0, SubspaceQuantity: 4,
			},
		},
		{
			name: "defined shared space with intermediate code",
			s: ExternalSpace{
				NameOffset: 0, IsDefined: true, HasIntermediateCode: true,
				IsTspecific: true, SortKey: 255, SpaceNumber: 0xFFFF,
				SubspaceIndex: 4, SubspaceQuantity: 2,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, ExternalSpaceSize)
			if n := tt.s.Put(buf); n != ExternalSpaceSize {
				t.Fatalf("Put() = %d, want %d", n, ExternalSpaceSize)
			}
			var got ExternalSpace
			got.Get(buf)
			if got != tt.s {
				t.Fatalf("round trip = %+v, want %+v", got, tt.s)
			}
		})
	}
}

func TestSubspacePolicy(t *testing.T) {
	tests := []struct {
		bits uint8
		want AccessPolicy
	}{
		{0x00, AccessDataReadonly},
		{0x10, AccessData},
		{0x30, AccessCode},
		{0x20, AccessCodeReadonly},
		{0x70, AccessCodeReadonly},
	}
	for _, tt := range tests {
		ss := ExternalSubspace{AccessControlBits: tt.bits}
		if got := ss.Policy(); got != tt.want {
			t.Errorf("AccessControlBits=0x%x: Policy() = %v, want %v", tt.bits, got, tt.want)
		}
	}
}

func TestSubspaceRoundTrip(t *testing.T) {
	ss := ExternalSubspace{
		SpaceIndex: 1, NameOffset: 20,
		AccessControlBits: 0x30, Quadrant: 2, SortKey: 5,
		IsLoadable: true, IsFirst: true, CodeOnly: true,
		Alignment: 8, Start: 0, Length: 1024,
		FileLocInitValue: 512, InitializationLength: 1024,
		FixupRequestIndex: 3, FixupRequestQuantity: 7,
	}
	buf := make([]byte, ExternalSubspaceSize)
	ss.Put(buf)
	var got ExternalSubspace
	got.Get(buf)
	if got != ss {
		t.Fatalf("round trip = %+v, want %+v", got, ss)
	}
}
