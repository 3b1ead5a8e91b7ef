package som

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/appsworld/go-som/pkg/fixup"
	"github.com/appsworld/go-som/types"
)

// Writer assembles a SOM object file from an in-memory Space/Subspace/
// Symbol model and serializes it in the fixed region order §4.8
// describes: header, aux header, space dictionary, subspace
// dictionary, space string table, subspace contents, symbol
// dictionary, fixup stream, symbol string table.
type Writer struct {
	Target *Target

	Magic     types.Magic
	VersionID types.VersionID

	EntrySpace    string
	EntrySubspace string
	EntryOffset   uint32

	ExecAux *types.ExecAuxHeader

	Spaces  []*Space
	Symbols []*Symbol
}

// NewWriter returns a Writer targeting t, defaulting to a relocatable
// object with the current (rather than legacy) header revision.
func NewWriter(t *Target) *Writer {
	return &Writer{
		Target:    t,
		Magic:     types.RelocMagic,
		VersionID: types.NewVersionID,
	}
}

// AddSpace appends sp (and, transitively, its subspaces) to the file
// being built.
func (w *Writer) AddSpace(sp *Space) { w.Spaces = append(w.Spaces, sp) }

// AddSymbol appends sym to the file's symbol dictionary.
func (w *Writer) AddSymbol(sym *Symbol) { w.Symbols = append(w.Symbols, sym) }

// stringTable accumulates XDR-coded name records and hands back each
// name's byte offset within the eventual blob, deduplicating repeated
// names the way the format's producers conventionally do.
type stringTable struct {
	buf     bytes.Buffer
	offsets map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{offsets: make(map[string]uint32)}
}

func (t *stringTable) add(name string) uint32 {
	if off, ok := t.offsets[name]; ok {
		return off
	}
	off := uint32(t.buf.Len())
	xw := types.NewWriter(&t.buf)
	xw.WriteString(name)
	t.offsets[name] = off
	return off
}

// subspaceIndex returns ss's position in the file's flat subspace
// dictionary, built in Space order.
func (w *Writer) subspaceIndex() (map[*Subspace]uint32, []*Subspace) {
	idx := make(map[*Subspace]uint32)
	var flat []*Subspace
	for _, sp := range w.Spaces {
		for _, ss := range sp.Subspaces {
			idx[ss] = uint32(len(flat))
			flat = append(flat, ss)
		}
	}
	return idx, flat
}

// WriteTo serializes the file being built to out, returning the number
// of bytes written.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	ssIndex, flatSubspaces := w.subspaceIndex()

	// Reorder the symbol dictionary so the most relocation-referenced
	// symbols get the smallest indices (§4.8), before anything below
	// depends on symbol index assignment.
	sortedSymbols := sortSymbolsByRelocCount(w.Symbols, flatSubspaces)
	symIndex := symbolIndexFunc(sortedSymbols)

	spaceStrings := newStringTable()
	symbolStrings := newStringTable()

	// Encode every subspace's fixup stream up front, since each
	// subspace's FixupRequestIndex/Quantity must be known before the
	// subspace dictionary itself can be built.
	fixupState := fixup.NewState()
	var fixupBlob bytes.Buffer
	fixupIndex := make(map[*Subspace][2]uint32)
	for _, ss := range flatSubspaces {
		enc := fixup.NewEncoder(fixupState)
		if err := encodeSubspaceFixups(enc, ss, symIndex); err != nil {
			return 0, badValue("Writer.WriteTo", fmt.Errorf("subspace %q: %w", ss.Name, err))
		}
		bytesOut := enc.Flush()
		start := uint32(fixupBlob.Len())
		fixupBlob.Write(bytesOut)
		fixupIndex[ss] = [2]uint32{start, uint32(len(bytesOut))}
	}

	var header types.ExternalHeader
	header.Magic = w.Magic
	header.VersionID = w.VersionID
	if w.Target != nil {
		header.SystemID = uint32(w.Target.CPU)
	}

	var auxBuf bytes.Buffer
	if w.ExecAux != nil {
		buf := make([]byte, 8+types.ExecAuxHeaderSize)
		w.ExecAux.Put(buf)
		auxBuf.Write(buf)
		header.AuxHeaderSize = uint32(auxBuf.Len())
	}

	spaceDictBuf := make([]byte, len(w.Spaces)*types.ExternalSpaceSize)
	subDictBuf := make([]byte, len(flatSubspaces)*types.ExternalSubspaceSize)

	subOff := 0
	for _, sp := range w.Spaces {
		for _, ss := range sp.Subspaces {
			raw := ss.externalize(0, spaceStrings.add(ss.Name))
			raw.Put(subDictBuf[subOff:])
			subOff += types.ExternalSubspaceSize
		}
	}

	spaceOff := 0
	subCursor := uint32(0)
	for _, sp := range w.Spaces {
		raw := sp.externalize(spaceStrings.add(sp.Name), subCursor, uint32(len(sp.Subspaces)))
		raw.Put(spaceDictBuf[spaceOff:])
		spaceOff += types.ExternalSpaceSize
		subCursor += uint32(len(sp.Subspaces))
	}

	symDictBuf := make([]byte, len(sortedSymbols)*types.ExternalSymbolSize)
	for i, sym := range sortedSymbols {
		raw := sym.externalize(symbolStrings.add(sym.Name), func(ss *Subspace) uint32 { return ssIndex[ss] })
		raw.Put(symDictBuf[i*types.ExternalSymbolSize:])
	}

	// Each subspace's contents start on its own alignment boundary
	// within the blob, per §4.8's page/word-alignment layout phase.
	var contents bytes.Buffer
	contentsOffsets := make([]uint32, len(flatSubspaces))
	for i, ss := range flatSubspaces {
		align := uint64(ss.Alignment)
		if align == 0 {
			align = 1
		}
		for uint64(contents.Len()) < types.RoundUp(uint64(contents.Len()), align) {
			contents.WriteByte(0)
		}
		contentsOffsets[i] = uint32(contents.Len())
		contents.Write(ss.Data[:ss.InitializationLength])
	}

	// Lay out regions in order after the fixed-size header + aux header.
	cursor := uint32(types.HeaderSize*4) + uint32(auxBuf.Len())
	header.AuxHeaderLocation = uint32(types.HeaderSize * 4)

	header.SpaceLocation = cursor
	header.SpaceTotal = uint32(len(w.Spaces))
	cursor += uint32(len(spaceDictBuf))

	header.SubspaceLocation = cursor
	header.SubspaceTotal = uint32(len(flatSubspaces))
	cursor += uint32(len(subDictBuf))

	header.SpaceStringsLocation = cursor
	header.SpaceStringsSize = uint32(spaceStrings.buf.Len())
	cursor += header.SpaceStringsSize

	contentsBase := cursor
	cursor += uint32(contents.Len())

	header.SymbolLocation = cursor
	header.SymbolTotal = uint32(len(sortedSymbols))
	cursor += uint32(len(symDictBuf))

	header.FixupRequestLocation = cursor
	header.FixupRequestTotal = uint32(fixupBlob.Len())
	cursor += header.FixupRequestTotal

	header.SymbolStringsLocation = cursor
	header.SymbolStringsSize = uint32(symbolStrings.buf.Len())
	cursor += header.SymbolStringsSize

	// Patch each subspace's file-relative content/fixup locations now
	// that contentsBase and the fixup blob's base are known.
	subOff = 0
	for i, ss := range flatSubspaces {
		raw := ss.externalize(0, 0)
		if ss.InitializationLength > 0 {
			raw.FileLocInitValue = contentsBase + contentsOffsets[i]
		}
		fi := fixupIndex[ss]
		raw.FixupRequestIndex = fi[0]
		raw.FixupRequestQuantity = fi[1]
		raw.SpaceIndex = spaceIndexOf(w.Spaces, ss)
		raw.NameOffset = spaceStrings.add(ss.Name)
		raw.Put(subDictBuf[subOff:])
		subOff += types.ExternalSubspaceSize
	}

	if sp := w.findSpace(w.EntrySpace); sp != nil {
		header.EntrySpace = spaceIndexByName(w.Spaces, w.EntrySpace) + 1
	}
	if ss := w.findSubspace(w.EntrySubspace); ss != nil {
		header.EntrySubspace = ssIndex[ss] + 1
	}
	header.EntryOffset = w.EntryOffset

	header.SetChecksum()

	n := int64(0)
	write := func(b []byte) error {
		m, err := out.Write(b)
		n += int64(m)
		return err
	}

	hdrBuf := make([]byte, types.HeaderSize*4)
	header.Put(hdrBuf)
	for _, b := range [][]byte{
		hdrBuf, auxBuf.Bytes(), spaceDictBuf, subDictBuf,
		spaceStrings.buf.Bytes(), contents.Bytes(), symDictBuf,
		fixupBlob.Bytes(), symbolStrings.buf.Bytes(),
	} {
		if err := write(b); err != nil {
			return n, systemCall("Writer.WriteTo", err)
		}
	}
	return n, nil
}

func (w *Writer) findSpace(name string) *Space {
	for _, sp := range w.Spaces {
		if sp.Name == name {
			return sp
		}
	}
	return nil
}

func (w *Writer) findSubspace(name string) *Subspace {
	for _, sp := range w.Spaces {
		for _, ss := range sp.Subspaces {
			if ss.Name == name {
				return ss
			}
		}
	}
	return nil
}

func spaceIndexByName(spaces []*Space, name string) uint32 {
	for i, sp := range spaces {
		if sp.Name == name {
			return uint32(i)
		}
	}
	return 0
}

func spaceIndexOf(spaces []*Space, ss *Subspace) uint32 {
	for i, sp := range spaces {
		for _, s := range sp.Subspaces {
			if s == ss {
				return uint32(i)
			}
		}
	}
	return 0
}

func symbolIndexFunc(symbols []*Symbol) func(*Symbol) uint32 {
	idx := make(map[*Symbol]uint32, len(symbols))
	for i, s := range symbols {
		idx[s] = uint32(i)
	}
	return func(s *Symbol) uint32 { return idx[s] }
}

// sortSymbolsByRelocCount reorders symbols so the most frequently
// relocation-referenced ones get the smallest dictionary indices,
// letting the fixup stream's symbolic relocations use their narrowest
// 1-byte index encoding as often as possible (§4.8). DP_RELATIVE and
// CODE_ONE_SYMBOL references count double, since those are the kinds a
// compiler emits once per reference rather than once per definition.
// The sort is stable, so symbols with equal counts keep their
// caller-supplied relative order (§8.7).
func sortSymbolsByRelocCount(symbols []*Symbol, subspaces []*Subspace) []*Symbol {
	counts := make(map[*Symbol]int, len(symbols))
	for _, ss := range subspaces {
		for _, r := range ss.Relocations {
			if r.Symbol == nil {
				continue
			}
			weight := 1
			if r.Kind == fixup.KindDpRelative || r.Kind == fixup.KindCodeOneSymbol {
				weight = 2
			}
			counts[r.Symbol] += weight
		}
	}
	sorted := append([]*Symbol(nil), symbols...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return counts[sorted[i]] > counts[sorted[j]]
	})
	return sorted
}

// encodeSubspaceFixups replays ss.Relocations through enc in order,
// translating each back to the opcode family its Kind names, then
// emits a final skip covering any trailing span not named by a
// relocation so the stream's total byte-advance always equals the
// subspace's declared size.
func encodeSubspaceFixups(enc *fixup.Encoder, ss *Subspace, symIndex func(*Symbol) uint32) error {
	var prevOffset uint32
	for _, r := range ss.Relocations {
		if r.Offset > prevOffset {
			if err := enc.EmitNoRelocation(int64(r.Offset - prevOffset)); err != nil {
				return err
			}
		}
		prevOffset = r.Offset

		switch r.Kind {
		case fixup.KindCodeOneSymbol, fixup.KindDpRelative, fixup.KindDataOneSymbol,
			fixup.KindDataPlabel, fixup.KindCodePlabel, fixup.KindDltRel, fixup.KindDataGprel:
			var si uint32
			if r.Symbol != nil {
				si = symIndex(r.Symbol)
			}
			if err := enc.EmitSymbolic(r.Kind, si); err != nil {
				return err
			}
		case fixup.KindPcrelCall, fixup.KindAbsCall:
			var si uint32
			if r.Symbol != nil {
				si = symIndex(r.Symbol)
			}
			if err := enc.EmitCall(r.Kind == fixup.KindAbsCall, si, r.ArgReloc); err != nil {
				return err
			}
		case fixup.KindDataOverride:
			if err := enc.EmitDataOverride(r.Addend); err != nil {
				return err
			}
		default:
			// Mode and branch-table opcodes never reach here: readFixups
			// filters them out. The other kinds readFixups keeps (ENTRY,
			// EXIT, ALT_ENTRY, the FSEL/LSEL/RSEL/N0SEL/N1SEL selectors,
			// BEGIN_TRY, END_TRY, COMP1, COMP2, CODE_EXPR, DATA_EXPR) are
			// not re-encoded: they are skipped and are absent from the
			// written fixup stream.
		}
	}
	if ss.Length > prevOffset {
		if err := enc.EmitNoRelocation(int64(ss.Length - prevOffset)); err != nil {
			return err
		}
	}
	return nil
}
