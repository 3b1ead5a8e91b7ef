package types

import "testing"

func TestHeaderChecksumRoundTrip(t *testing.T) {
	h := ExternalHeader{
		SystemID:  uint32(CPUPARisc11),
		Magic:     RelocMagic,
		VersionID: NewVersionID,
		FileTime:  123456,
		SpaceLocation: 64,
		SpaceTotal:    2,
	}
	h.SetChecksum()
	if !h.VerifyChecksum() {
		t.Fatal("VerifyChecksum() = false after SetChecksum()")
	}

	buf := make([]byte, HeaderSize*4)
	if n := h.Put(buf); n != HeaderSize*4 {
		t.Fatalf("Put() wrote %d bytes, want %d", n, HeaderSize*4)
	}

	var h2 ExternalHeader
	h2.Get(buf)
	if h2 != h {
		t.Fatalf("round trip = %+v, want %+v", h2, h)
	}
	if !h2.VerifyChecksum() {
		t.Fatal("decoded header fails VerifyChecksum()")
	}
}

func TestHeaderChecksumDetectsCorruption(t *testing.T) {
	h := ExternalHeader{Magic: ExecMagic, VersionID: OldVersionID}
	h.SetChecksum()
	h.EntryOffset ^= 1
	if h.VerifyChecksum() {
		t.Fatal("VerifyChecksum() = true after corrupting a field")
	}
}

func TestMagicClassification(t *testing.T) {
	tests := []struct {
		m          Magic
		wantObject bool
		wantExec   bool
	}{
		{RelocMagic, true, false},
		{ExecMagic, true, true},
		{ShareMagic, true, true},
		{SHLMagic, true, true},
		{LibMagic, false, false},
	}
	for _, tt := range tests {
		if got := tt.m.IsObjectMagic(); got != tt.wantObject {
			t.Errorf("%v.IsObjectMagic() = %v, want %v", tt.m, got, tt.wantObject)
		}
		if got := tt.m.IsExecutable(); got != tt.wantExec {
			t.Errorf("%v.IsExecutable() = %v, want %v", tt.m, got, tt.wantExec)
		}
	}
}

func TestCPUIsPARisc(t *testing.T) {
	tests := []struct {
		c    CPU
		want bool
	}{
		{CPUPARisc10, true},
		{CPUPARisc11, true},
		{CPUPARisc20, true},
		{0x20A, false},
		{0x300, false},
	}
	for _, tt := range tests {
		if got := tt.c.IsPARisc(); got != tt.want {
			t.Errorf("CPU(0x%x).IsPARisc() = %v, want %v", uint32(tt.c), got, tt.want)
		}
	}
}

func TestVersionIDValid(t *testing.T) {
	if !OldVersionID.Valid() || !NewVersionID.Valid() {
		t.Fatal("documented version ids must be valid")
	}
	if VersionID(0).Valid() {
		t.Fatal("zero version id must not be valid")
	}
}

func TestExecAuxHeaderRoundTrip(t *testing.T) {
	e := ExecAuxHeader{
		ExternalAuxHeader: ExternalAuxHeader{Mandatory: true, Type: ExecAuxID, Length: ExecAuxHeaderSize},
		ExecTsize:         4096,
		ExecEntry:         0x1000,
	}
	buf := make([]byte, 8+ExecAuxHeaderSize)
	e.Put(buf)

	var e2 ExecAuxHeader
	e2.Get(buf)
	if e2 != e {
		t.Fatalf("round trip = %+v, want %+v", e2, e)
	}
}
