package fixup

// Opcode is one byte of a fixup stream: either the start of a relocation
// encoding or (in the R_PREV_FIXUP range) a one-byte back-reference into
// the Queue.
type Opcode byte

// The opcode space is 256 values wide but only a little over a third is
// ever assigned; everything else is Reserved. The decoder does not
// interpret a Reserved opcode: it stops and returns an error.
const (
	// NoRelocationBase is the first of 32 opcodes covering §4.3's skip
	// encoding. NoRelocationBase+D selects the size class; D also
	// doubles as the postfix machine's D variable for that opcode.
	NoRelocationBase Opcode = iota
	_01
	_02
	_03
	_04
	_05
	_06
	_07
	_08
	_09
	_10
	_11
	_12
	_13
	_14
	_15
	_16
	_17
	_18
	_19
	_20
	_21
	_22
	_23
	_24
	_25
	_26
	_27
	_28
	_29
	_30
	_31
)

// NoRelocationCount is the width of the R_NO_RELOCATION opcode family.
const NoRelocationCount = 32

const (
	// DataOverrideBase is the first of 4 opcodes for R_DATA_OVERRIDE,
	// selecting an 8/16/24/32-bit signed addend payload.
	DataOverrideBase Opcode = NoRelocationBase + NoRelocationCount + iota
	dataOverride1
	dataOverride2
	dataOverride3
)

// DataOverrideCount is the width of the R_DATA_OVERRIDE opcode family.
const DataOverrideCount = 4

const (
	Entry Opcode = DataOverrideBase + DataOverrideCount + iota
	Exit
	AltEntry
	Fsel
	Lsel
	Rsel
	N0sel
	N1sel
	BeginBrtab
	EndBrtab
	BeginTry
)

const (
	// EndTryBase is the first of 3 opcodes for R_END_TRY, selecting a
	// 0/8/24-bit addend (scaled by 4) payload.
	EndTryBase Opcode = BeginTry + 1 + iota
	endTry1
	endTry2
)

// EndTryCount is the width of the R_END_TRY opcode family.
const EndTryCount = 3

const (
	CodeExpr Opcode = EndTryBase + EndTryCount + iota
	DataExpr
	Comp1
	Comp2
)

// Each of these 7 symbolic-relocation kinds gets 3 opcodes, selecting a
// 1/2/4-byte symbol index encoding.
const SymbolicVariants = 3

const (
	CodeOneSymbolBase Opcode = Comp2 + 1 + iota*SymbolicVariants
	DpRelativeBase     = CodeOneSymbolBase + SymbolicVariants
	DataOneSymbolBase  = DpRelativeBase + SymbolicVariants
	DataPlabelBase     = DataOneSymbolBase + SymbolicVariants
	CodePlabelBase     = DataPlabelBase + SymbolicVariants
	DltRelBase         = CodePlabelBase + SymbolicVariants
	DataGprelBase      = DltRelBase + SymbolicVariants
)

const (
	// PcrelCallSimple is the 2-byte CALL encoding; +1 is the 3-byte
	// complex encoding, +2 the 5-byte complex encoding.
	PcrelCallSimple Opcode = DataGprelBase + SymbolicVariants + iota
	pcrelCallComplex3
	pcrelCallComplex5
	AbsCallSimple
	absCallComplex3
	absCallComplex5
)

const (
	NMode Opcode = AbsCallSimple + 3 + iota
	SMode
	DMode
	RMode
	ShortPcrelMode
	LongPcrelMode
)

const (
	// PrevFixupBase + i (i in [0,4)) redirects the decoder to Queue
	// slot i and promotes it; the encoder emits this instead of raw
	// bytes whenever Queue.Find succeeds.
	PrevFixupBase Opcode = LongPcrelMode + 1 + iota
	prevFixup1
	prevFixup2
	prevFixup3
)

// PrevFixupCount is the width of the R_PREV_FIXUP opcode family.
const PrevFixupCount = 4

// Reserved is an opcode value assigned to no relocation kind. The
// encoder never emits it, and the decoder rejects it with an error
// rather than counting it and moving on.
const Reserved Opcode = 0xFF

// PcrelCallComplex/AbsCallComplex select the 3-byte or (len5) 5-byte
// complex CALL opcode, for callers that need to know which opcode to emit.
func PcrelCallComplex(len5 bool) Opcode {
	if len5 {
		return pcrelCallComplex5
	}
	return pcrelCallComplex3
}

func AbsCallComplex(len5 bool) Opcode {
	if len5 {
		return absCallComplex5
	}
	return absCallComplex3
}

func EndTry(variant int) Opcode {
	switch variant {
	case 1:
		return endTry1
	case 2:
		return endTry2
	default:
		return EndTryBase
	}
}

// NoRelocation returns the 1-byte skip opcode for size class d (0..31).
func NoRelocation(d int) Opcode { return NoRelocationBase + Opcode(d) }

// DataOverride returns the R_DATA_OVERRIDE opcode for payload variant v
// (0..3, selecting 8/16/24/32-bit signed payloads).
func DataOverride(v int) Opcode { return DataOverrideBase + Opcode(v) }

// PrevFixup returns the R_PREV_FIXUP opcode that redirects to queue slot
// idx (0..3).
func PrevFixup(idx int) Opcode { return PrevFixupBase + Opcode(idx) }

// IsPrevFixup reports whether op is in the R_PREV_FIXUP family and, if
// so, which queue slot it names.
func IsPrevFixup(op Opcode) (int, bool) {
	if op >= PrevFixupBase && op < PrevFixupBase+PrevFixupCount {
		return int(op - PrevFixupBase), true
	}
	return 0, false
}

// symbolicVariant returns the opcode for a symbolic-relocation family
// (one of the *Base constants) selecting encoding width variant v:
// 0 -> 1-byte index, 1 -> 2-byte index, 2 -> 4-byte index.
func symbolicVariant(base Opcode, v int) Opcode { return base + Opcode(v) }
