package types

import "testing"

func TestLSTHash(t *testing.T) {
	if got := LSTHash(""); got != 0x01000100 {
		t.Errorf("LSTHash(\"\") = 0x%x, want 0x01000100", got)
	}
	if got := LSTHash("a"); got != 0x01000100|('a'<<16)|'a' {
		t.Errorf("LSTHash(\"a\") = 0x%x", got)
	}
	// Longer names should fold length and boundary bytes rather than
	// collapsing to a constant.
	h1 := LSTHash("main")
	h2 := LSTHash("mainx")
	if h1 == h2 {
		t.Error("LSTHash(\"main\") and LSTHash(\"mainx\") collided unexpectedly")
	}
}

func TestLSTBucketInRange(t *testing.T) {
	names := []string{"", "a", "main", "_start", "strcmp", "a_very_long_symbol_name"}
	for _, n := range names {
		b := LSTBucket(LSTHash(n))
		if b >= SOMLSTHashSize {
			t.Errorf("LSTBucket(LSTHash(%q)) = %d, out of range [0, %d)", n, b, SOMLSTHashSize)
		}
	}
}

func TestLSTHeaderRoundTrip(t *testing.T) {
	h := ExternalLSTHeader{
		SystemID: uint32(CPUPARisc11), AMagic: LibMagic, VersionID: NewVersionID,
		HashLocation: 64, HashSize: SOMLSTHashSize,
		ModuleLocation: 200, ModuleCount: 3,
		StringLocation: 1000, StringSize: 256,
	}
	buf := make([]byte, ExternalLSTHeaderSize)
	h.Put(buf)
	var got ExternalLSTHeader
	got.Get(buf)
	if got != h {
		t.Fatalf("round trip = %+v, want %+v", got, h)
	}
}

func TestLSTSymbolRoundTrip(t *testing.T) {
	s := ExternalLSTSymbol{
		NameOffset: 40, SymType: STCode, SymScope: SSUniversal,
		ArgReloc: 0x2AA, SomIndex: 2, SymbolKey: 0xdeadbeef, NextEntry: 5,
	}
	buf := make([]byte, ExternalLSTSymbolSize)
	s.Put(buf)
	var got ExternalLSTSymbol
	got.Get(buf)
	if got != s {
		t.Fatalf("round trip = %+v, want %+v", got, s)
	}
}
