package fixup

import "fmt"

// Record is one decoded fixup: a relocation request against the
// subspace's current offset, or a carried-mode/marker opcode that
// produces no relocation but still advances state. Decode reports both
// kinds through the same sink so a caller that only cares about actual
// relocations can filter on HasRelocation.
type Record struct {
	Kind   Kind
	Opcode Opcode

	// Offset is the subspace-relative byte offset this fixup applies at,
	// i.e. the O register's value when the opcode was processed.
	Offset uint32

	// SymbolIndex is the resolved symbol dictionary index for the
	// symbolic-relocation and CALL kinds.
	SymbolIndex uint32

	// Addend is the signed payload carried by DATA_OVERRIDE, END_TRY,
	// and the evaluated COMP1/COMP2 expression result feeding
	// CODE_EXPR/DATA_EXPR.
	Addend int64

	// ArgReloc is the packed argument/return-register word for
	// PCREL_CALL/ABS_CALL, decoded by UnpackArgReloc.
	ArgReloc uint16

	CallMode  CallMode
	RoundMode RoundMode
}

// HasRelocation reports whether this record names an actual relocation
// site rather than a marker/mode opcode.
func (r Record) HasRelocation() bool {
	switch r.Kind {
	case KindNoRelocation, KindNMode, KindSMode, KindDMode, KindRMode,
		KindShortPcrelMode, KindLongPcrelMode, KindBeginBrtab, KindEndBrtab:
		return false
	default:
		return true
	}
}

// Decoder walks one subspace's fixup byte stream, dispatching each
// opcode to its Howto-selected handling and threading a shared State
// across the whole pass so carried modes and the previous-fixup queue
// behave correctly.
type Decoder struct {
	data  []byte
	pos   int
	state *State

	// viaPrev marks a Decoder replaying a queue slot for R_PREV_FIXUP:
	// the replayed bytes are promoted in the queue, not inserted again.
	viaPrev bool
}

// NewDecoder returns a Decoder over data, using (and resetting) state
// for this pass. Callers decoding more than one subspace must call
// NewDecoder (or state.Reset) between subspaces: the queue and carried
// modes never survive a subspace boundary.
func NewDecoder(data []byte, state *State) *Decoder {
	state.Reset()
	return &Decoder{data: data, state: state}
}

// Count performs a dry run over the stream without allocating Records,
// returning how many Decode would emit. Callers use it to preallocate
// a Record slice of the right size before the real pass (§4.4's
// documented "two passes: Count, then Decode" pattern).
func (d *Decoder) Count() (int, error) {
	scratch := NewDecoder(d.data, NewState())
	n := 0
	err := scratch.Decode(func(Record) error { n++; return nil })
	return n, err
}

// Decode walks the entire stream, calling sink once per opcode
// processed (including non-relocation marker/mode opcodes) in stream
// order. Decode stops and returns the first error sink returns.
func (d *Decoder) Decode(sink func(Record) error) error {
	for d.pos < len(d.data) {
		rec, err := d.step()
		if err != nil {
			return err
		}
		if err := sink(rec); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) byteAt(off int) (byte, error) {
	if off < 0 || off >= len(d.data) {
		return 0, fmt.Errorf("fixup: decode: offset %d out of range (stream length %d)", off, len(d.data))
	}
	return d.data[off], nil
}

// readUint reads n big-endian bytes starting at d.pos (which must
// already be past the opcode byte) and advances d.pos.
func (d *Decoder) readUint(n int) (uint32, error) {
	if d.pos+n > len(d.data) {
		return 0, fmt.Errorf("fixup: decode: truncated stream reading %d-byte field at offset %d", n, d.pos)
	}
	var v uint32
	for i := 0; i < n; i++ {
		v = v<<8 | uint32(d.data[d.pos+i])
	}
	d.pos += n
	return v, nil
}

func signExtend(v uint32, bits int) int64 {
	shift := 32 - bits
	return int64(int32(v<<shift)) >> shift
}

// step decodes exactly one opcode (following at most one R_PREV_FIXUP
// redirect) starting at d.pos, advances d.pos past it, and returns the
// Record it produced.
func (d *Decoder) step() (Record, error) {
	opByte, err := d.byteAt(d.pos)
	if err != nil {
		return Record{}, err
	}
	op := Opcode(opByte)
	d.pos++

	if idx, ok := IsPrevFixup(op); ok {
		cached := d.state.Queue.At(idx)
		if cached == nil {
			return Record{}, fmt.Errorf("fixup: decode: R_PREV_FIXUP references empty queue slot %d", idx)
		}
		d.state.Queue.Promote(idx)
		sub := &Decoder{data: cached, pos: 0, state: d.state, viaPrev: true}
		return sub.step()
	}

	start := d.pos - 1
	howto := Table[op]
	rec := Record{Kind: howto.Kind, Opcode: op, Offset: uint32(d.state.O())}

	switch howto.Kind {
	case KindNoRelocation:
		dClass := int(op - NoRelocationBase)
		d.state.SetD(int64(dClass))
		skip, err := d.decodeSkipLength(dClass)
		if err != nil {
			return Record{}, err
		}
		d.state.SetO(d.state.O() + skip)
		rec.Addend = skip

	case KindDataOverride:
		variant := int(op - DataOverrideBase)
		width := 8 * (variant + 1)
		nbytes := variant + 1
		v, err := d.readUint(nbytes)
		if err != nil {
			return Record{}, err
		}
		rec.Addend = signExtend(v, width)
		d.state.SetV(rec.Addend)

	case KindEntry:
		// Entry carries an 8-byte parameter relocation bitmask
		// describing register/frame state at the procedure's entry
		// point, read as two 32-bit words for convenience.
		hi, err := d.readUint(4)
		if err != nil {
			return Record{}, err
		}
		lo, err := d.readUint(4)
		if err != nil {
			return Record{}, err
		}
		rec.Addend = int64(hi)<<32 | int64(lo)

	case KindEndTry:
		variant := 0
		switch op {
		case endTry1:
			variant = 1
		case endTry2:
			variant = 2
		}
		widths := [3]int{0, 8, 24}
		if widths[variant] > 0 {
			v, err := d.readUint(widths[variant] / 8)
			if err != nil {
				return Record{}, err
			}
			rec.Addend = int64(v) * 4
		}

	case KindComp1:
		opnd, err := d.readUint(1)
		if err != nil {
			return Record{}, err
		}
		if d.state.StackLen() >= maxStack {
			return Record{}, fmt.Errorf("fixup: decode: expression stack overflow at offset %d", start)
		}
		d.state.Push(int64(opnd))

	case KindComp2:
		opnd, err := d.readUint(4)
		if err != nil {
			return Record{}, err
		}
		if d.state.StackLen() >= maxStack {
			return Record{}, fmt.Errorf("fixup: decode: expression stack overflow at offset %d", start)
		}
		d.state.Push(int64(opnd))

	case KindCodeExpr, KindDataExpr:
		if d.state.StackLen() > 0 {
			rec.Addend = d.state.Pop()
		}

	case KindCodeOneSymbol, KindDpRelative, KindDataOneSymbol, KindDataPlabel,
		KindCodePlabel, KindDltRel, KindDataGprel:
		var base Opcode
		switch howto.Kind {
		case KindCodeOneSymbol:
			base = CodeOneSymbolBase
		case KindDpRelative:
			base = DpRelativeBase
		case KindDataOneSymbol:
			base = DataOneSymbolBase
		case KindDataPlabel:
			base = DataPlabelBase
		case KindCodePlabel:
			base = CodePlabelBase
		case KindDltRel:
			base = DltRelBase
		case KindDataGprel:
			base = DataGprelBase
		}
		variant := int(op - base)
		widths := [SymbolicVariants]int{1, 2, 4}
		idx, err := d.readUint(widths[variant])
		if err != nil {
			return Record{}, err
		}
		rec.SymbolIndex = idx
		d.state.SetSVar(int64(idx))

	case KindPcrelCall, KindAbsCall:
		idx, argReloc, err := d.decodeCall(op, howto.Kind)
		if err != nil {
			return Record{}, err
		}
		rec.SymbolIndex = idx
		rec.ArgReloc = argReloc

	case KindNMode:
		d.state.roundMode = RoundModeNone
	case KindSMode:
		d.state.callMode = CallModeShortPcrel
	case KindDMode:
		// D_MODE carries no payload; it marks a DP-relative context for
		// subsequent symbolic relocations.
	case KindRMode:
		d.state.roundMode = RoundModeRound
	case KindShortPcrelMode:
		d.state.callMode = CallModeShortPcrel
	case KindLongPcrelMode:
		d.state.callMode = CallModeLongPcrel

	case KindExit, KindAltEntry, KindFsel, KindLsel, KindRsel, KindN0sel,
		KindN1sel, KindBeginBrtab, KindEndBrtab, KindBeginTry:
		// No payload; these are markers the caller tracks by Kind alone.

	case KindReserved:
		return Record{}, fmt.Errorf("fixup: decode: reserved opcode 0x%02x at offset %d", byte(op), start)

	default:
		return Record{}, fmt.Errorf("fixup: decode: unhandled opcode kind %v at offset %d", howto.Kind, start)
	}

	rec.CallMode = d.state.callMode
	rec.RoundMode = d.state.roundMode

	if howto.ByteLen > 0 && d.pos-start != howto.ByteLen {
		return Record{}, fmt.Errorf("fixup: decode: opcode 0x%02x at offset %d consumed %d bytes, want %d",
			byte(op), start, d.pos-start, howto.ByteLen)
	}
	if d.pos-start > 1 && !d.viaPrev {
		d.state.Queue.Insert(append([]byte(nil), d.data[start:d.pos]...))
	}
	return rec, nil
}

// skipLargeChunk is the largest single skip a size class can express
// (the 4-byte fallback class's (n-1) field is 24 bits wide); a skip at
// or beyond this is spelled as a run of full-chunk opcodes followed by
// the remainder, per §4.3.
const skipLargeChunk = 1 << 24

// decodeSkipLength reads the run-length payload for an R_NO_RELOCATION
// opcode, per §4.3's skip encoding: a skip that is a multiple of 4 and
// no more than 0xC0000 is encoded as v = n/4-1 in the narrowest of
// three compact forms (dClass 0..23 carries v directly, 24..27 reads 1
// trailing byte, 28..30 reads 2); dClass 31 is the 4-byte fallback,
// whose 3-byte trailing field is n-1 outright (used for any skip not a
// multiple of 4, or too large for the compact forms but under the
// large-chunk threshold).
func (d *Decoder) decodeSkipLength(dClass int) (int64, error) {
	switch {
	case dClass <= 0x17:
		return 4 * (int64(dClass) + 1), nil
	case dClass <= 27:
		b, err := d.readUint(1)
		if err != nil {
			return 0, err
		}
		v := int64(dClass-24)<<8 | int64(b)
		return 4 * (v + 1), nil
	case dClass <= 30:
		w, err := d.readUint(2)
		if err != nil {
			return 0, err
		}
		v := int64(dClass-28)<<16 | int64(w)
		return 4 * (v + 1), nil
	default: // dClass == 31
		w, err := d.readUint(3)
		if err != nil {
			return 0, err
		}
		return int64(w) + 1, nil
	}
}

// encodeSkipLength returns the size class and trailing payload bytes
// (nil for classes 0..23) that represent a single skip of n bytes,
// 0 < n < skipLargeChunk, the inverse of decodeSkipLength.
func encodeSkipLength(n int64) (dClass int, extra []byte) {
	if n%4 == 0 && n <= 0xC0000 {
		v := n/4 - 1
		switch {
		case v <= 0x17:
			return int(v), nil
		case v <= 0x3FF:
			return 24 + int(v>>8), []byte{byte(v)}
		default:
			return 28 + int(v>>16), []byte{byte(v >> 8), byte(v)}
		}
	}
	v := n - 1
	return 31, []byte{byte(v >> 16), byte(v >> 8), byte(v)}
}

// decodeCall reads a PCREL_CALL/ABS_CALL opcode's payload, per §4.7:
// every variant carries an explicit symbol index followed by a one-
// byte (simple/complex3) or two-byte (complex5) type field; simple's
// type is restricted to the fixed simpleCallPatterns table index plus
// 5*rtn_bits, complex's is the full slot-pair arithmetic complexCallType
// computes.
func (d *Decoder) decodeCall(op Opcode, kind Kind) (symIndex uint32, argReloc uint16, err error) {
	var simple, complex3, complex5 Opcode
	if kind == KindPcrelCall {
		simple, complex3, complex5 = PcrelCallSimple, pcrelCallComplex3, pcrelCallComplex5
	} else {
		simple, complex3, complex5 = AbsCallSimple, absCallComplex3, absCallComplex5
	}
	switch op {
	case simple:
		idx, err := d.readUint(1)
		if err != nil {
			return 0, 0, err
		}
		t, err := d.readUint(1)
		if err != nil {
			return 0, 0, err
		}
		pat := int(t) % 5
		rtn := int(t) / 5
		if pat >= len(simpleCallPatterns) {
			return 0, 0, fmt.Errorf("fixup: decode: CALL simple type %d out of range", t)
		}
		r := ArgRelocation{Arg: simpleCallPatterns[pat], Return: ArgClass(rtn)}
		return idx, PackArgReloc(r), nil
	case complex3:
		idx, err := d.readUint(1)
		if err != nil {
			return 0, 0, err
		}
		t, err := d.readUint(1)
		if err != nil {
			return 0, 0, err
		}
		r, ok := inverseComplexCallType(int(t))
		if !ok {
			return 0, 0, fmt.Errorf("fixup: decode: CALL complex type %d is not representable", t)
		}
		return idx, PackArgReloc(r), nil
	case complex5:
		idx, err := d.readUint(2)
		if err != nil {
			return 0, 0, err
		}
		t, err := d.readUint(2)
		if err != nil {
			return 0, 0, err
		}
		r, ok := inverseComplexCallType(int(t))
		if !ok {
			return 0, 0, fmt.Errorf("fixup: decode: CALL complex type %d is not representable", t)
		}
		return idx, PackArgReloc(r), nil
	default:
		return 0, 0, fmt.Errorf("fixup: decode: opcode 0x%02x is not a recognized CALL variant", byte(op))
	}
}
