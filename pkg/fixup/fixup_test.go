package fixup

import "testing"

func decodeAll(t *testing.T, data []byte) []Record {
	t.Helper()
	var recs []Record
	dec := NewDecoder(data, NewState())
	if err := dec.Decode(func(r Record) error { recs = append(recs, r); return nil }); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return recs
}

func TestSkipLengthRoundTrip(t *testing.T) {
	for _, skip := range []int64{1, 2, 3, 4, 5, 6, 255, 256, 257, 1 << 20} {
		dClass, extra := encodeSkipLength(skip)
		dec := &Decoder{data: append([]byte{byte(NoRelocation(dClass))}, extra...), state: NewState()}
		dec.pos = 1
		got, err := dec.decodeSkipLength(dClass)
		if err != nil {
			t.Fatalf("skip=%d: decodeSkipLength() error = %v", skip, err)
		}
		if got != skip {
			t.Errorf("skip=%d: round trip got %d", skip, got)
		}
	}
}

func TestEncodeDecodeNoRelocation(t *testing.T) {
	state := NewState()
	enc := NewEncoder(state)
	if err := enc.EmitNoRelocation(10); err != nil {
		t.Fatalf("EmitNoRelocation() error = %v", err)
	}
	data := enc.Flush()

	recs := decodeAll(t, data)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Kind != KindNoRelocation || recs[0].Addend != 10 {
		t.Errorf("record = %+v, want skip of 10", recs[0])
	}
}

func TestEncodeDecodeDataOverride(t *testing.T) {
	tests := []int64{0, 1, -1, 127, -128, 40000, -70000, 1 << 30, -(1 << 30)}
	for _, addend := range tests {
		state := NewState()
		enc := NewEncoder(state)
		if err := enc.EmitDataOverride(addend); err != nil {
			t.Fatalf("addend=%d: EmitDataOverride() error = %v", addend, err)
		}
		data := enc.Flush()
		recs := decodeAll(t, data)
		if len(recs) != 1 || recs[0].Addend != addend {
			t.Errorf("addend=%d: got records %+v", addend, recs)
		}
	}
}

func TestEncodeDecodeSymbolic(t *testing.T) {
	tests := []uint32{0, 1, 255, 256, 65535, 65536, 1 << 20}
	for _, idx := range tests {
		state := NewState()
		enc := NewEncoder(state)
		if err := enc.EmitSymbolic(KindCodeOneSymbol, idx); err != nil {
			t.Fatalf("idx=%d: EmitSymbolic() error = %v", idx, err)
		}
		data := enc.Flush()
		recs := decodeAll(t, data)
		if len(recs) != 1 || recs[0].Kind != KindCodeOneSymbol || recs[0].SymbolIndex != idx {
			t.Errorf("idx=%d: got records %+v", idx, recs)
		}
	}
}

func TestEncodeDecodeCallSimpleAndComplex(t *testing.T) {
	state := NewState()
	enc := NewEncoder(state)

	// simple: matches the fixed simpleCallPatterns table and fits a
	// byte-wide symbol index.
	simpleArg := ArgRelocation{Arg: [4]ArgClass{ArgClassGR}, Return: ArgClassFR}
	if err := enc.EmitCall(false, 12, simpleArg); err != nil {
		t.Fatalf("simple EmitCall() error = %v", err)
	}

	// complex3: doesn't match the simple table but its type still fits
	// a byte, and the symbol index fits a byte.
	complex3Arg := ArgRelocation{Arg: [4]ArgClass{ArgClassGR, ArgClassGR, ArgClassFR}, Return: ArgClassGR}
	if err := enc.EmitCall(false, 200, complex3Arg); err != nil {
		t.Fatalf("complex3 EmitCall() error = %v", err)
	}

	// complex5: wide symbol index forces the 5-byte encoding.
	complex5Arg := ArgRelocation{Arg: [4]ArgClass{ArgClassFR, ArgClassGR, ArgClassGR, ArgClassFR}, Return: ArgClassGR}
	if err := enc.EmitCall(false, 4000, complex5Arg); err != nil {
		t.Fatalf("complex5 EmitCall() error = %v", err)
	}

	data := enc.Flush()
	recs := decodeAll(t, data)
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	want := []struct {
		symIndex uint32
		arg      ArgRelocation
	}{
		{12, simpleArg},
		{200, complex3Arg},
		{4000, complex5Arg},
	}
	for i, w := range want {
		if recs[i].Kind != KindPcrelCall || recs[i].SymbolIndex != w.symIndex || UnpackArgReloc(recs[i].ArgReloc) != w.arg {
			t.Errorf("record %d = %+v (arg reloc %+v), want symIndex %d, arg %+v",
				i, recs[i], UnpackArgReloc(recs[i].ArgReloc), w.symIndex, w.arg)
		}
	}
}

func TestPrevFixupEviction(t *testing.T) {
	state := NewState()
	enc := NewEncoder(state)
	// Emit the same 3-byte symbolic fixup (2-byte index) twice in a row;
	// the second should compress to a 1-byte R_PREV_FIXUP reference.
	if err := enc.EmitSymbolic(KindDataOneSymbol, 300); err != nil {
		t.Fatalf("first EmitSymbolic() error = %v", err)
	}
	firstLen := len(enc.buf)
	if err := enc.EmitSymbolic(KindDataOneSymbol, 300); err != nil {
		t.Fatalf("second EmitSymbolic() error = %v", err)
	}
	if grew := len(enc.buf) - firstLen; grew != 1 {
		t.Fatalf("second identical encoding added %d bytes, want 1 (a PREV_FIXUP back-reference)", grew)
	}

	data := enc.Flush()
	recs := decodeAll(t, data)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].SymbolIndex != 300 || recs[1].SymbolIndex != 300 {
		t.Errorf("records = %+v, want both symbol index 300", recs)
	}
}

func TestModeCarriesAcrossRecords(t *testing.T) {
	state := NewState()
	enc := NewEncoder(state)
	if err := enc.EmitMode(KindLongPcrelMode); err != nil {
		t.Fatalf("EmitMode() error = %v", err)
	}
	if err := enc.EmitNoRelocation(1); err != nil {
		t.Fatalf("EmitNoRelocation() error = %v", err)
	}
	data := enc.Flush()
	recs := decodeAll(t, data)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[1].CallMode != CallModeLongPcrel {
		t.Errorf("carried call mode = %v, want CallModeLongPcrel", recs[1].CallMode)
	}
}

func TestExpressionStackUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic popping an empty expression stack")
		}
	}()
	NewState().Pop()
}

func TestReservedOpcodeRejected(t *testing.T) {
	_, err := NewDecoder([]byte{byte(Reserved)}, NewState()).step()
	if err == nil {
		t.Fatal("expected an error decoding a reserved opcode")
	}
}
