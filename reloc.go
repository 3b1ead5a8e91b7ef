package som

import "github.com/appsworld/go-som/pkg/fixup"

// Relocation is the internalized form of one decoded fixup stream
// record: a fixup.Record resolved against the subspace's current
// offset and (for the symbolic and CALL kinds) the symbol dictionary,
// in the shape a caller inspecting a subspace's relocations actually
// wants.
type Relocation struct {
	Offset uint32
	Kind   fixup.Kind

	// Symbol is the resolved target, for the symbolic-relocation and
	// CALL kinds; nil for marker/mode opcodes and for any opcode this
	// stream's surrounding context doesn't resolve a symbol for.
	Symbol *Symbol

	Addend   int64
	ArgReloc fixup.ArgRelocation

	CallMode  fixup.CallMode
	RoundMode fixup.RoundMode
}

// HasSymbol reports whether Symbol was resolved for this relocation.
func (r Relocation) HasSymbol() bool { return r.Symbol != nil }

func internalizeRelocation(rec fixup.Record, symbols []*Symbol) Relocation {
	r := Relocation{
		Offset:    rec.Offset,
		Kind:      rec.Kind,
		Addend:    rec.Addend,
		ArgReloc:  fixup.UnpackArgReloc(rec.ArgReloc),
		CallMode:  rec.CallMode,
		RoundMode: rec.RoundMode,
	}
	if rec.Kind != fixup.KindNoRelocation && int(rec.SymbolIndex) < len(symbols) {
		switch rec.Kind {
		case fixup.KindCodeOneSymbol, fixup.KindDpRelative, fixup.KindDataOneSymbol,
			fixup.KindDataPlabel, fixup.KindCodePlabel, fixup.KindDltRel, fixup.KindDataGprel,
			fixup.KindPcrelCall, fixup.KindAbsCall:
			r.Symbol = symbols[rec.SymbolIndex]
		}
	}
	return r
}
