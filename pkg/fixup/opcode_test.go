package fixup

import "testing"

func TestOpcodeFamiliesDoNotOverlap(t *testing.T) {
	seen := make(map[Opcode]string)
	record := func(op Opcode, owner string) {
		if prev, ok := seen[op]; ok {
			t.Fatalf("opcode 0x%02x claimed by both %s and %s", byte(op), prev, owner)
		}
		seen[op] = owner
	}

	for d := 0; d < NoRelocationCount; d++ {
		record(NoRelocation(d), "NoRelocation")
	}
	for v := 0; v < DataOverrideCount; v++ {
		record(DataOverride(v), "DataOverride")
	}
	for _, op := range []Opcode{
		Entry, Exit, AltEntry, Fsel, Lsel, Rsel, N0sel, N1sel,
		BeginBrtab, EndBrtab, BeginTry,
	} {
		record(op, "marker")
	}
	record(EndTry(0), "EndTry0")
	record(EndTry(1), "EndTry1")
	record(EndTry(2), "EndTry2")
	record(CodeExpr, "CodeExpr")
	record(DataExpr, "DataExpr")
	record(Comp1, "Comp1")
	record(Comp2, "Comp2")
	for _, base := range []Opcode{
		CodeOneSymbolBase, DpRelativeBase, DataOneSymbolBase, DataPlabelBase,
		CodePlabelBase, DltRelBase, DataGprelBase,
	} {
		for v := 0; v < SymbolicVariants; v++ {
			record(symbolicVariant(base, v), "symbolic")
		}
	}
	record(PcrelCallSimple, "call")
	record(PcrelCallComplex(false), "call")
	record(PcrelCallComplex(true), "call")
	record(AbsCallSimple, "call")
	record(AbsCallComplex(false), "call")
	record(AbsCallComplex(true), "call")
	for _, op := range []Opcode{NMode, SMode, DMode, RMode, ShortPcrelMode, LongPcrelMode} {
		record(op, "mode")
	}
	for i := 0; i < PrevFixupCount; i++ {
		record(PrevFixup(i), "PrevFixup")
	}

	if seen[Reserved] != "" {
		t.Fatalf("Reserved (0x%02x) collides with assigned opcode family %s", byte(Reserved), seen[Reserved])
	}
}

func TestIsPrevFixup(t *testing.T) {
	tests := []struct {
		op      Opcode
		wantIdx int
		wantOK  bool
	}{
		{PrevFixup(0), 0, true},
		{PrevFixup(1), 1, true},
		{PrevFixup(3), 3, true},
		{Exit, 0, false},
		{Reserved, 0, false},
	}
	for _, tt := range tests {
		idx, ok := IsPrevFixup(tt.op)
		if ok != tt.wantOK || (ok && idx != tt.wantIdx) {
			t.Errorf("IsPrevFixup(0x%02x) = (%d, %v), want (%d, %v)", byte(tt.op), idx, ok, tt.wantIdx, tt.wantOK)
		}
	}
}

func TestCallComplexSelection(t *testing.T) {
	if PcrelCallComplex(false) == PcrelCallComplex(true) {
		t.Fatal("PcrelCallComplex(false) and (true) must be distinct opcodes")
	}
	if AbsCallComplex(false) == AbsCallComplex(true) {
		t.Fatal("AbsCallComplex(false) and (true) must be distinct opcodes")
	}
}
