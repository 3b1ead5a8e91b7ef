package types

import "testing"

func TestSymbolRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		s    ExternalSymbol
	}{
		{
			name: "universal code symbol",
			s: ExternalSymbol{
				NameOffset: 100, SymType: STCode, SymScope: SSUniversal,
				ArgReloc: 0x3FF, SymInfo: 7, Value: 0x4000, PrivLevel: 3,
			},
		},
		{
			name: "unsat storage with common size",
			s: ExternalSymbol{
				NameOffset: 0, SymType: STStorage, SymScope: SSUnsat,
				IsCommon: true, DupCommon: true, SymInfo: 256,
			},
		},
		{
			name: "secondary def entry",
			s: ExternalSymbol{
				SymType: STEntry, SymScope: SSLocal, SecondaryDef: true,
				SymInfo: 2, Value: 0x1234,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, ExternalSymbolSize)
			tt.s.Put(buf)
			var got ExternalSymbol
			got.Get(buf)
			if got != tt.s {
				t.Fatalf("round trip = %+v, want %+v", got, tt.s)
			}
		})
	}
}

func TestSymbolIsExtension(t *testing.T) {
	tests := []struct {
		t    SymbolType
		want bool
	}{
		{STCode, false},
		{STSymExt, true},
		{STArgExt, true},
		{STNull, false},
	}
	for _, tt := range tests {
		s := ExternalSymbol{SymType: tt.t}
		if got := s.IsExtension(); got != tt.want {
			t.Errorf("SymType=%d: IsExtension() = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestSymbolValuePrivLevelDoesNotClobberValue(t *testing.T) {
	s := ExternalSymbol{Value: 0x4000, PrivLevel: 3}
	buf := make([]byte, ExternalSymbolSize)
	s.Put(buf)
	var got ExternalSymbol
	got.Get(buf)
	if got.Value != 0x4000 || got.PrivLevel != 3 {
		t.Fatalf("got Value=0x%x PrivLevel=%d, want Value=0x4000 PrivLevel=3", got.Value, got.PrivLevel)
	}
}
