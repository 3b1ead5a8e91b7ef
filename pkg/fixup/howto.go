package fixup

// Kind enumerates the relocation kinds a fixup-stream opcode can select.
// It is exhaustive over the assigned opcode ranges, with Reserved as the
// catch-all for anything else (§9: "the enumeration of relocation kinds
// should be exhaustive with a final Reserved catch-all").
type Kind int

const (
	KindReserved Kind = iota
	KindNoRelocation
	KindDataOverride
	KindEntry
	KindExit
	KindAltEntry
	KindFsel
	KindLsel
	KindRsel
	KindN0sel
	KindN1sel
	KindBeginBrtab
	KindEndBrtab
	KindBeginTry
	KindEndTry
	KindCodeExpr
	KindDataExpr
	KindComp1
	KindComp2
	KindCodeOneSymbol
	KindDpRelative
	KindDataOneSymbol
	KindDataPlabel
	KindCodePlabel
	KindDltRel
	KindDataGprel
	KindPcrelCall
	KindAbsCall
	KindNMode
	KindSMode
	KindDMode
	KindRMode
	KindShortPcrelMode
	KindLongPcrelMode
	KindPrevFixup
)

func (k Kind) String() string {
	switch k {
	case KindNoRelocation:
		return "NO_RELOCATION"
	case KindDataOverride:
		return "DATA_OVERRIDE"
	case KindEntry:
		return "ENTRY"
	case KindExit:
		return "EXIT"
	case KindAltEntry:
		return "ALT_ENTRY"
	case KindFsel:
		return "FSEL"
	case KindLsel:
		return "LSEL"
	case KindRsel:
		return "RSEL"
	case KindN0sel:
		return "N0SEL"
	case KindN1sel:
		return "N1SEL"
	case KindBeginBrtab:
		return "BEGIN_BRTAB"
	case KindEndBrtab:
		return "END_BRTAB"
	case KindBeginTry:
		return "BEGIN_TRY"
	case KindEndTry:
		return "END_TRY"
	case KindCodeExpr:
		return "CODE_EXPR"
	case KindDataExpr:
		return "DATA_EXPR"
	case KindComp1:
		return "COMP1"
	case KindComp2:
		return "COMP2"
	case KindCodeOneSymbol:
		return "CODE_ONE_SYMBOL"
	case KindDpRelative:
		return "DP_RELATIVE"
	case KindDataOneSymbol:
		return "DATA_ONE_SYMBOL"
	case KindDataPlabel:
		return "DATA_PLABEL"
	case KindCodePlabel:
		return "CODE_PLABEL"
	case KindDltRel:
		return "DLT_REL"
	case KindDataGprel:
		return "DATA_GPREL"
	case KindPcrelCall:
		return "PCREL_CALL"
	case KindAbsCall:
		return "ABS_CALL"
	case KindNMode:
		return "N_MODE"
	case KindSMode:
		return "S_MODE"
	case KindDMode:
		return "D_MODE"
	case KindRMode:
		return "R_MODE"
	case KindShortPcrelMode:
		return "SHORT_PCREL_MODE"
	case KindLongPcrelMode:
		return "LONG_PCREL_MODE"
	case KindPrevFixup:
		return "PREV_FIXUP"
	default:
		return "RESERVED"
	}
}

// Howto describes one fixup opcode: which relocation kind it selects,
// and (for the fixed-shape opcodes) how many stream bytes including the
// opcode byte itself it occupies. Each symbolic and CALL variant opcode
// records its own full length. The R_NO_RELOCATION and R_DATA_OVERRIDE
// families report ByteLen 0; the decoder derives their length from the
// specific opcode sub-value and does not length-check them.
type Howto struct {
	Kind    Kind
	ByteLen int // 0 if the opcode's length isn't determined by Kind alone
}

// Table is the 256-entry opcode-to-Howto map, populated once at package
// init from the opcode ranges assigned in opcode.go.
var Table [256]Howto

func init() {
	for i := range Table {
		Table[i] = Howto{Kind: KindReserved}
	}
	for d := 0; d < NoRelocationCount; d++ {
		Table[NoRelocation(d)] = Howto{Kind: KindNoRelocation}
	}
	for v := 0; v < DataOverrideCount; v++ {
		Table[DataOverride(v)] = Howto{Kind: KindDataOverride}
	}
	Table[Entry] = Howto{Kind: KindEntry, ByteLen: 9}
	Table[Exit] = Howto{Kind: KindExit, ByteLen: 1}
	Table[AltEntry] = Howto{Kind: KindAltEntry, ByteLen: 1}
	Table[Fsel] = Howto{Kind: KindFsel, ByteLen: 1}
	Table[Lsel] = Howto{Kind: KindLsel, ByteLen: 1}
	Table[Rsel] = Howto{Kind: KindRsel, ByteLen: 1}
	Table[N0sel] = Howto{Kind: KindN0sel, ByteLen: 1}
	Table[N1sel] = Howto{Kind: KindN1sel, ByteLen: 1}
	Table[BeginBrtab] = Howto{Kind: KindBeginBrtab, ByteLen: 1}
	Table[EndBrtab] = Howto{Kind: KindEndBrtab, ByteLen: 1}
	Table[BeginTry] = Howto{Kind: KindBeginTry, ByteLen: 1}
	Table[EndTryBase] = Howto{Kind: KindEndTry, ByteLen: 1}
	Table[endTry1] = Howto{Kind: KindEndTry, ByteLen: 2}
	Table[endTry2] = Howto{Kind: KindEndTry, ByteLen: 4}
	Table[CodeExpr] = Howto{Kind: KindCodeExpr, ByteLen: 1}
	Table[DataExpr] = Howto{Kind: KindDataExpr, ByteLen: 1}
	Table[Comp1] = Howto{Kind: KindComp1, ByteLen: 2}
	Table[Comp2] = Howto{Kind: KindComp2, ByteLen: 5}

	symbolicLens := [SymbolicVariants]int{1, 2, 4}
	for _, base := range []Opcode{
		CodeOneSymbolBase, DpRelativeBase, DataOneSymbolBase, DataPlabelBase,
		CodePlabelBase, DltRelBase, DataGprelBase,
	} {
		var kind Kind
		switch base {
		case CodeOneSymbolBase:
			kind = KindCodeOneSymbol
		case DpRelativeBase:
			kind = KindDpRelative
		case DataOneSymbolBase:
			kind = KindDataOneSymbol
		case DataPlabelBase:
			kind = KindDataPlabel
		case CodePlabelBase:
			kind = KindCodePlabel
		case DltRelBase:
			kind = KindDltRel
		case DataGprelBase:
			kind = KindDataGprel
		}
		for v := 0; v < SymbolicVariants; v++ {
			Table[symbolicVariant(base, v)] = Howto{Kind: kind, ByteLen: symbolicLens[v] + 1}
		}
	}

	Table[PcrelCallSimple] = Howto{Kind: KindPcrelCall, ByteLen: 3}
	Table[pcrelCallComplex3] = Howto{Kind: KindPcrelCall, ByteLen: 3}
	Table[pcrelCallComplex5] = Howto{Kind: KindPcrelCall, ByteLen: 5}
	Table[AbsCallSimple] = Howto{Kind: KindAbsCall, ByteLen: 3}
	Table[absCallComplex3] = Howto{Kind: KindAbsCall, ByteLen: 3}
	Table[absCallComplex5] = Howto{Kind: KindAbsCall, ByteLen: 5}

	Table[NMode] = Howto{Kind: KindNMode, ByteLen: 1}
	Table[SMode] = Howto{Kind: KindSMode, ByteLen: 1}
	Table[DMode] = Howto{Kind: KindDMode, ByteLen: 1}
	Table[RMode] = Howto{Kind: KindRMode, ByteLen: 1}
	Table[ShortPcrelMode] = Howto{Kind: KindShortPcrelMode, ByteLen: 1}
	Table[LongPcrelMode] = Howto{Kind: KindLongPcrelMode, ByteLen: 1}

	for idx := 0; idx < PrevFixupCount; idx++ {
		Table[PrevFixup(idx)] = Howto{Kind: KindPrevFixup, ByteLen: 1}
	}
}
