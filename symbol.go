package som

import (
	"strings"

	"github.com/appsworld/go-som/types"
)

// SymbolType is the internalized form of the on-disk ST_* symbol type:
// the same enumeration, given a String method and kept distinct from
// types.SymbolType so callers of the high-level API never need to
// import types for the common case.
type SymbolType int

const (
	SymNull SymbolType = iota
	SymAbsolute
	SymData
	SymCode
	SymPriProg
	SymSecProg
	SymEntry
	SymStorage
	SymStub
	SymMillicode
	SymPlabel
	SymOctDisEnt
)

func (t SymbolType) String() string {
	switch t {
	case SymAbsolute:
		return "absolute"
	case SymData:
		return "data"
	case SymCode:
		return "code"
	case SymPriProg:
		return "primary_program"
	case SymSecProg:
		return "secondary_program"
	case SymEntry:
		return "entry"
	case SymStorage:
		return "storage"
	case SymStub:
		return "stub"
	case SymMillicode:
		return "millicode"
	case SymPlabel:
		return "plabel"
	case SymOctDisEnt:
		return "oct_dis_entry"
	default:
		return "null"
	}
}

func internalizeSymbolType(t types.SymbolType) SymbolType {
	switch t {
	case types.STAbsolute:
		return SymAbsolute
	case types.STData:
		return SymData
	case types.STCode:
		return SymCode
	case types.STPriProg:
		return SymPriProg
	case types.STSecProg:
		return SymSecProg
	case types.STEntry:
		return SymEntry
	case types.STStorage:
		return SymStorage
	case types.STStub:
		return SymStub
	case types.STMillicode:
		return SymMillicode
	case types.STPlabel:
		return SymPlabel
	case types.STOctDisEnt:
		return SymOctDisEnt
	default:
		return SymNull
	}
}

// SymbolScope is the internalized form of the on-disk SS_* scope.
type SymbolScope int

const (
	ScopeUnsat SymbolScope = iota
	ScopeExternal
	ScopeLocal
	ScopeUniversal
)

func (s SymbolScope) String() string {
	switch s {
	case ScopeExternal:
		return "external"
	case ScopeLocal:
		return "local"
	case ScopeUniversal:
		return "universal"
	default:
		return "unsatisfied"
	}
}

func internalizeSymbolScope(s types.SymbolScope) SymbolScope {
	switch s {
	case types.SSExternal:
		return ScopeExternal
	case types.SSLocal:
		return ScopeLocal
	case types.SSUniversal:
		return ScopeUniversal
	default:
		return ScopeUnsat
	}
}

// Symbol is the internalized form of a SOM symbol dictionary entry:
// the raw on-disk record resolved against the space/subspace tables
// and the symbol string table, in the shape callers actually want to
// work with.
type Symbol struct {
	Name string

	Type  SymbolType
	Scope SymbolScope

	ArgReloc     uint16
	SecondaryDef bool
	DupCommon    bool
	IsCommon     bool

	Value     uint32
	PrivLevel uint8

	// Subspace is the symbol's owning subspace, resolved from the raw
	// SymInfo dictionary index, for LOCAL and UNIVERSAL scoped symbols.
	Subspace *Subspace

	// CommonSize is the requested common-block size, resolved from the
	// raw SymInfo word, for UNSAT/EXTERNAL symbols of storage type.
	CommonSize uint32
}

// internalizeSymbol builds a Symbol from its raw dictionary record,
// resolving SymInfo against subspaces per §4.6: LOCAL/UNIVERSAL scoped
// symbols carry a subspace dictionary index; UNSAT/EXTERNAL symbols of
// storage type instead carry a requested common-block size.
func internalizeSymbol(raw types.ExternalSymbol, name string, subspaces []*Subspace) *Symbol {
	sym := &Symbol{
		Name:         name,
		Type:         internalizeSymbolType(raw.SymType),
		Scope:        internalizeSymbolScope(raw.SymScope),
		ArgReloc:     raw.ArgReloc,
		SecondaryDef: raw.SecondaryDef,
		DupCommon:    raw.DupCommon,
		IsCommon:     raw.IsCommon,
		Value:        raw.Value,
		PrivLevel:    raw.PrivLevel,
	}
	switch sym.Scope {
	case ScopeLocal, ScopeUniversal:
		if int(raw.SymInfo) < len(subspaces) {
			sym.Subspace = subspaces[raw.SymInfo]
		}
	default:
		if sym.Type == SymStorage {
			sym.CommonSize = raw.SymInfo
		}
	}
	return sym
}

// externalize rebuilds the raw on-disk record for sym, the Internalize
// inverse the writer pipeline uses; nameOffset is the already-assigned
// position of sym.Name in the symbol string table.
func (sym *Symbol) externalize(nameOffset uint32, subspaceIndex func(*Subspace) uint32) types.ExternalSymbol {
	raw := types.ExternalSymbol{
		NameOffset:   nameOffset,
		ArgReloc:     sym.ArgReloc,
		SecondaryDef: sym.SecondaryDef,
		DupCommon:    sym.DupCommon,
		IsCommon:     sym.IsCommon,
		Value:        sym.Value,
		PrivLevel:    sym.PrivLevel,
	}
	switch sym.Type {
	case SymAbsolute:
		raw.SymType = types.STAbsolute
	case SymData:
		raw.SymType = types.STData
	case SymCode:
		raw.SymType = types.STCode
	case SymPriProg:
		raw.SymType = types.STPriProg
	case SymSecProg:
		raw.SymType = types.STSecProg
	case SymEntry:
		raw.SymType = types.STEntry
	case SymStorage:
		raw.SymType = types.STStorage
	case SymStub:
		raw.SymType = types.STStub
	case SymMillicode:
		raw.SymType = types.STMillicode
	case SymPlabel:
		raw.SymType = types.STPlabel
	case SymOctDisEnt:
		raw.SymType = types.STOctDisEnt
	default:
		raw.SymType = types.STNull
	}
	switch sym.Scope {
	case ScopeExternal:
		raw.SymScope = types.SSExternal
	case ScopeLocal:
		raw.SymScope = types.SSLocal
	case ScopeUniversal:
		raw.SymScope = types.SSUniversal
	default:
		raw.SymScope = types.SSUnsat
	}
	switch {
	case sym.Scope == ScopeLocal || sym.Scope == ScopeUniversal:
		if sym.Subspace != nil {
			raw.SymInfo = subspaceIndex(sym.Subspace)
		}
	case sym.Type == SymStorage:
		raw.SymInfo = sym.CommonSize
	}
	return raw
}

// IsExternal reports whether this symbol is visible outside its
// defining module: scope UNIVERSAL, or an UNSAT/EXTERNAL reference
// still pending resolution.
func (sym *Symbol) IsExternal() bool {
	return sym.Scope == ScopeUniversal || sym.Scope == ScopeExternal || sym.Scope == ScopeUnsat
}

// IsCompilerGenerated reports whether the symbol's name matches one of
// the linker/compiler reserved naming conventions ($global$, $code$,
// and the L$0-prefixed branch-table labels the HP compilers emit) that
// tools conventionally hide from a human-facing symbol listing.
func (sym *Symbol) IsCompilerGenerated() bool {
	if strings.HasPrefix(sym.Name, "$") && strings.HasSuffix(sym.Name, "$") {
		return true
	}
	return strings.HasPrefix(sym.Name, "L$0")
}

// String renders the symbol the way a disassembler listing would:
// name, type, scope.
func (sym *Symbol) String() string {
	return sym.Name + " (" + sym.Type.String() + ", " + sym.Scope.String() + ")"
}
