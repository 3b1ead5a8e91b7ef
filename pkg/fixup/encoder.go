package fixup

import "fmt"

// Encoder builds a subspace's fixup byte stream opcode by opcode,
// applying the same previous-fixup back-reference substitution the
// decoder expects to find: any multi-byte encoding this Encoder has
// already produced and not yet evicted from the queue is replaced with
// a single R_PREV_FIXUP opcode.
type Encoder struct {
	buf   []byte
	state *State
}

// NewEncoder returns an Encoder over a fresh subspace, resetting state
// (registers, carried modes, and the queue) for this pass.
func NewEncoder(state *State) *Encoder {
	state.Reset()
	return &Encoder{state: state}
}

// Flush returns the bytes written so far and reinitializes the
// previous-fixup queue, since every cached entry references bytes in
// the buffer the caller is about to take ownership of (§5: "reinit the
// queue after every stream-buffer flush"). Carried register and mode
// state survives a Flush; only the queue does not.
func (e *Encoder) Flush() []byte {
	out := e.buf
	e.buf = nil
	e.state.Queue.Init()
	return out
}

// emit appends raw (a complete opcode plus its payload) to the stream,
// substituting a cached R_PREV_FIXUP reference when an identical
// encoding is already in the queue, and inserting multi-byte encodings
// into the queue for future reuse.
func (e *Encoder) emit(raw []byte) {
	if len(raw) > 1 {
		if idx, ok := e.state.Queue.Find(raw); ok {
			e.buf = append(e.buf, byte(PrevFixup(idx)))
			e.state.Queue.Promote(idx)
			return
		}
	}
	e.buf = append(e.buf, raw...)
	if len(raw) > 1 {
		e.state.Queue.Insert(raw)
	}
}

func putUint(dst []byte, v uint32, n int) {
	for i := 0; i < n; i++ {
		dst[n-1-i] = byte(v)
		v >>= 8
	}
}

// EmitNoRelocation emits an R_NO_RELOCATION skip of exactly skip bytes
// and advances the O register to match. skip == 0 is a no-op, per
// §4.3 ("If n == 0: done."); skip >= skipLargeChunk is spelled as a
// run of full-chunk opcodes followed by the remainder, since no single
// size class can address more than skipLargeChunk bytes.
func (e *Encoder) EmitNoRelocation(skip int64) error {
	if skip < 0 {
		return fmt.Errorf("fixup: encode: R_NO_RELOCATION skip must be >= 0, got %d", skip)
	}
	for skip >= skipLargeChunk {
		e.emit([]byte{byte(NoRelocation(31)), 0xFF, 0xFF, 0xFF})
		e.state.SetD(31)
		e.state.SetO(e.state.O() + skipLargeChunk)
		skip -= skipLargeChunk
	}
	if skip == 0 {
		return nil
	}
	dClass, extra := encodeSkipLength(skip)
	raw := append([]byte{byte(NoRelocation(dClass))}, extra...)
	e.emit(raw)
	e.state.SetD(int64(dClass))
	e.state.SetO(e.state.O() + skip)
	return nil
}

// EmitDataOverride emits an R_DATA_OVERRIDE carrying addend, choosing
// the narrowest of the four payload widths (8/16/24/32 bits signed)
// that represents it.
func (e *Encoder) EmitDataOverride(addend int64) error {
	variant := dataOverrideVariant(addend)
	if variant < 0 {
		return fmt.Errorf("fixup: encode: addend %d does not fit a 32-bit signed R_DATA_OVERRIDE payload", addend)
	}
	nbytes := variant + 1
	raw := make([]byte, 1+nbytes)
	raw[0] = byte(DataOverride(variant))
	putUint(raw[1:], uint32(addend), nbytes)
	e.emit(raw)
	e.state.SetV(addend)
	return nil
}

func dataOverrideVariant(addend int64) int {
	switch {
	case addend >= -(1<<7) && addend < 1<<7:
		return 0
	case addend >= -(1<<15) && addend < 1<<15:
		return 1
	case addend >= -(1<<23) && addend < 1<<23:
		return 2
	case addend >= -(1<<31) && addend < 1<<31:
		return 3
	default:
		return -1
	}
}

// EmitEntry emits an R_ENTRY marker carrying the 8-byte parameter
// relocation bitmask param (the procedure's entry-point register/frame
// state).
func (e *Encoder) EmitEntry(param uint64) {
	raw := make([]byte, 9)
	raw[0] = byte(Entry)
	putUint(raw[1:5], uint32(param>>32), 4)
	putUint(raw[5:9], uint32(param), 4)
	e.emit(raw)
}

// EmitMarker emits one of the bare, no-payload marker opcodes: EXIT,
// ALT_ENTRY, FSEL, LSEL, RSEL, N0SEL, N1SEL, BEGIN_BRTAB, END_BRTAB,
// BEGIN_TRY.
func (e *Encoder) EmitMarker(op Opcode) {
	e.emit([]byte{byte(op)})
}

// EmitEndTry emits R_END_TRY with addend (already scaled by 4; the
// simple zero-payload form is chosen automatically when addend is 0).
func (e *Encoder) EmitEndTry(addend int64) error {
	if addend == 0 {
		e.emit([]byte{byte(EndTryBase)})
		return nil
	}
	v := addend / 4
	if addend%4 != 0 {
		return fmt.Errorf("fixup: encode: R_END_TRY addend %d is not a multiple of 4", addend)
	}
	if v >= 0 && v < 1<<8 {
		e.emit([]byte{byte(endTry1), byte(v)})
		return nil
	}
	if v >= 0 && v < 1<<24 {
		raw := make([]byte, 4)
		raw[0] = byte(endTry2)
		putUint(raw[1:], uint32(v), 3)
		e.emit(raw)
		return nil
	}
	return fmt.Errorf("fixup: encode: R_END_TRY addend %d out of range", addend)
}

// EmitComp1 pushes operand (a 1-byte COMP1 operand) onto the expression
// stack and emits the opcode.
func (e *Encoder) EmitComp1(operand uint8) {
	e.emit([]byte{byte(Comp1), operand})
	e.state.Push(int64(operand))
}

// EmitComp2 pushes operand (a 4-byte COMP2 operand) onto the
// expression stack and emits the opcode.
func (e *Encoder) EmitComp2(operand uint32) {
	raw := make([]byte, 5)
	raw[0] = byte(Comp2)
	putUint(raw[1:], operand, 4)
	e.emit(raw)
	e.state.Push(int64(operand))
}

// EmitCodeExpr/EmitDataExpr pop the fully-reduced expression result off
// the stack (left by a chain of COMP1/COMP2 operators) and emit the
// relocation that consumes it.
func (e *Encoder) EmitCodeExpr() error { return e.emitExprConsumer(CodeExpr) }
func (e *Encoder) EmitDataExpr() error { return e.emitExprConsumer(DataExpr) }

func (e *Encoder) emitExprConsumer(op Opcode) error {
	if e.state.StackLen() == 0 {
		return fmt.Errorf("fixup: encode: %v emitted with empty expression stack", Table[op].Kind)
	}
	e.state.Pop()
	e.emit([]byte{byte(op)})
	return nil
}

// symbolicBase maps a symbolic relocation Kind to its opcode family's
// base constant.
func symbolicBase(kind Kind) (Opcode, error) {
	switch kind {
	case KindCodeOneSymbol:
		return CodeOneSymbolBase, nil
	case KindDpRelative:
		return DpRelativeBase, nil
	case KindDataOneSymbol:
		return DataOneSymbolBase, nil
	case KindDataPlabel:
		return DataPlabelBase, nil
	case KindCodePlabel:
		return CodePlabelBase, nil
	case KindDltRel:
		return DltRelBase, nil
	case KindDataGprel:
		return DataGprelBase, nil
	default:
		return 0, fmt.Errorf("fixup: encode: %v is not a symbolic relocation kind", kind)
	}
}

// EmitSymbolic emits one of the seven symbolic relocation kinds against
// symIndex, choosing the narrowest 1/2/4-byte index encoding that
// represents it.
func (e *Encoder) EmitSymbolic(kind Kind, symIndex uint32) error {
	base, err := symbolicBase(kind)
	if err != nil {
		return err
	}
	var variant, nbytes int
	switch {
	case symIndex < 1<<8:
		variant, nbytes = 0, 1
	case symIndex < 1<<16:
		variant, nbytes = 1, 2
	default:
		variant, nbytes = 2, 4
	}
	raw := make([]byte, 1+nbytes)
	raw[0] = byte(symbolicVariant(base, variant))
	putUint(raw[1:], symIndex, nbytes)
	e.emit(raw)
	e.state.SetSVar(int64(symIndex))
	return nil
}

// EmitCall emits a PCREL_CALL or ABS_CALL against symIndex, carrying
// r's argument/return relocation, per §4.7. The simple encoding is
// used when r's argument pattern matches one of the fixed
// simpleCallPatterns table and symIndex fits a byte, with the payload
// type + 5*rtn_bits; everything else falls back to the complex
// encoding, whose type field is the full slot-pair arithmetic
// complexCallType computes, escalating from the 3-byte to the 5-byte
// form when either the type or the symbol index needs more than a
// byte.
func (e *Encoder) EmitCall(abs bool, symIndex uint32, r ArgRelocation) error {
	var simple, complex3, complex5 Opcode
	if abs {
		simple, complex3, complex5 = AbsCallSimple, absCallComplex3, absCallComplex5
	} else {
		simple, complex3, complex5 = PcrelCallSimple, pcrelCallComplex3, pcrelCallComplex5
	}
	if t, ok := simpleCallType(r); ok && symIndex < 1<<8 {
		payload := t + 5*int(r.Return)
		e.emit([]byte{byte(simple), byte(symIndex), byte(payload)})
		return nil
	}
	t, ok := complexCallType(r)
	if !ok {
		return fmt.Errorf("fixup: encode: arg relocation %+v has no representable CALL encoding", r)
	}
	if t <= 0xFF && symIndex < 1<<8 {
		e.emit([]byte{byte(complex3), byte(symIndex), byte(t)})
		return nil
	}
	if symIndex >= 1<<16 {
		return fmt.Errorf("fixup: encode: CALL symbol index %d does not fit the complex encoding", symIndex)
	}
	raw := make([]byte, 5)
	raw[0] = byte(complex5)
	putUint(raw[1:3], symIndex, 2)
	putUint(raw[3:5], uint32(t), 2)
	e.emit(raw)
	return nil
}

// EmitMode emits one of the carried mode opcodes (N/S/D/R_MODE,
// SHORT_PCREL_MODE, LONG_PCREL_MODE) and updates the carried state the
// same way Decode's step does, so an Encoder/Decoder pair observe
// identical carried-mode transitions.
func (e *Encoder) EmitMode(kind Kind) error {
	var op Opcode
	switch kind {
	case KindNMode:
		op = NMode
		e.state.roundMode = RoundModeNone
	case KindSMode:
		op = SMode
		e.state.callMode = CallModeShortPcrel
	case KindDMode:
		op = DMode
	case KindRMode:
		op = RMode
		e.state.roundMode = RoundModeRound
	case KindShortPcrelMode:
		op = ShortPcrelMode
		e.state.callMode = CallModeShortPcrel
	case KindLongPcrelMode:
		op = LongPcrelMode
		e.state.callMode = CallModeLongPcrel
	default:
		return fmt.Errorf("fixup: encode: %v is not a mode opcode", kind)
	}
	e.emit([]byte{byte(op)})
	return nil
}
