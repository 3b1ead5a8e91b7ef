package fixup

import "testing"

func TestTableCoversEveryAssignedOpcode(t *testing.T) {
	assigned := []Opcode{
		Entry, Exit, AltEntry, Fsel, Lsel, Rsel, N0sel, N1sel,
		BeginBrtab, EndBrtab, BeginTry, CodeExpr, DataExpr, Comp1, Comp2,
		PcrelCallSimple, AbsCallSimple, NMode, SMode, DMode, RMode,
		ShortPcrelMode, LongPcrelMode,
	}
	for _, op := range assigned {
		if Table[op].Kind == KindReserved {
			t.Errorf("opcode 0x%02x has no Table entry", byte(op))
		}
	}
}

func TestTableByteLenMatchesFixedShapeOpcodes(t *testing.T) {
	tests := []struct {
		op      Opcode
		wantLen int
	}{
		{Exit, 1},
		{Entry, 9},
		{Comp1, 2},
		{Comp2, 5},
		{EndTryBase, 1},
		{PcrelCallSimple, 2},
	}
	for _, tt := range tests {
		if got := Table[tt.op].ByteLen; got != tt.wantLen {
			t.Errorf("Table[0x%02x].ByteLen = %d, want %d", byte(tt.op), got, tt.wantLen)
		}
	}
}

func TestKindStringNeverEmpty(t *testing.T) {
	for k := KindReserved; k <= KindPrevFixup; k++ {
		if k.String() == "" {
			t.Errorf("Kind(%d).String() is empty", int(k))
		}
	}
}
