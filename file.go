package som

// High level access to low level data structures.

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/appsworld/go-som/pkg/fixup"
	"github.com/appsworld/go-som/types"
)

// File represents an open SOM object file: a parsed header, its
// optional auxiliary header, and the internalized space/subspace/
// symbol tables built from it.
type File struct {
	Header  types.ExternalHeader
	ExecAux *types.ExecAuxHeader
	Target  *Target

	Spaces    []*Space
	Subspaces []*Subspace
	Symbols   []*Symbol

	sr     io.ReaderAt
	closer io.Closer
}

// FormatError is returned for a file that SOM parsing doesn't
// recognize as (or locates as corrupt in a way it can't route through
// ErrorKind) a SOM.
type FormatError struct {
	Offset int64
	Msg    string
	Val    interface{}
}

func (e *FormatError) Error() string {
	msg := e.Msg
	if e.Val != nil {
		msg += fmt.Sprintf(" (%+v)", e.Val)
	}
	return fmt.Sprintf("som: %s at offset 0x%x", msg, e.Offset)
}

// Open opens the named file and reads it as a SOM object file.
//
// If the file was compressed with a format go-som doesn't recognize,
// or isn't a SOM at all, Open returns an *Error with Kind
// ErrWrongFormat.
func Open(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, systemCall("Open", err)
	}
	ff, err := NewFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	ff.closer = f
	return ff, nil
}

// Close closes the File. If the File was created using NewFile
// directly instead of Open, Close has no effect.
func (f *File) Close() error {
	if f.closer != nil {
		err := f.closer.Close()
		f.closer = nil
		return err
	}
	return nil
}

// NewFile creates a new File for accessing a SOM object file in an
// underlying reader. The SOM is expected to start at position 0 in
// the ReaderAt, unless it's an EXECLIB, in which case NewFile walks
// the EXECLIB's own LST header and module directory to find the first
// member's location, which is where the embedded SOM header starts.
func NewFile(r io.ReaderAt) (*File, error) {
	f := &File{sr: r}

	hdrOff, err := f.locateHeader(r)
	if err != nil {
		return nil, err
	}

	hdrBuf := make([]byte, types.HeaderSize*4)
	if _, err := r.ReadAt(hdrBuf, hdrOff); err != nil {
		return nil, wrongFormat("NewFile", fmt.Errorf("reading header: %w", err))
	}
	f.Header.Get(hdrBuf)

	if !f.Header.Magic.IsObjectMagic() {
		return nil, wrongFormat("NewFile", &FormatError{hdrOff, "not a SOM object file, magic", f.Header.Magic})
	}
	if !f.Header.VersionID.Valid() {
		return nil, wrongFormat("NewFile", &FormatError{hdrOff + 8, "unrecognized version id", f.Header.VersionID})
	}
	if !types.CPU(f.Header.SystemID).IsPARisc() {
		return nil, wrongFormat("NewFile", &FormatError{hdrOff, "non-PA-RISC system id", f.Header.SystemID})
	}
	f.Target = TargetFor(types.CPU(f.Header.SystemID))

	// A zero checksum is the documented signature of a known class of
	// linkers that never computed one; som treats that case as "not
	// checked" rather than rejecting the file outright.
	if f.Header.Checksum != 0 && !f.Header.VerifyChecksum() {
		return nil, wrongFormat("NewFile", &FormatError{hdrOff, "header checksum mismatch", f.Header.Checksum})
	}

	if f.Header.AuxHeaderSize > 0 {
		if err := f.readAuxHeader(r, hdrOff); err != nil {
			return nil, err
		}
	}

	spaceStrings, err := readStringBlob(r, int64(hdrOff)+int64(f.Header.SpaceStringsLocation), f.Header.SpaceStringsSize)
	if err != nil {
		return nil, wrongFormat("NewFile", fmt.Errorf("reading space string table: %w", err))
	}
	symbolStrings, err := readStringBlob(r, int64(hdrOff)+int64(f.Header.SymbolStringsLocation), f.Header.SymbolStringsSize)
	if err != nil {
		return nil, wrongFormat("NewFile", fmt.Errorf("reading symbol string table: %w", err))
	}

	if err := f.readSpacesAndSubspaces(r, hdrOff, spaceStrings); err != nil {
		return nil, err
	}
	if err := f.readSymbols(r, hdrOff, symbolStrings); err != nil {
		return nil, err
	}
	if err := f.readFixups(r, hdrOff); err != nil {
		return nil, err
	}

	f.applyBuggyLinkerSwap()

	return f, nil
}

// applyBuggyLinkerSwap detects and corrects a known class of HP
// linkers that wrote the aux header's exec_entry and exec_flags in
// swapped order: if the entry-point slot's value doesn't look like a
// valid entry point (zero outside a DLMagic file, misaligned, or
// outside every code subspace) while the flags slot's value does,
// the two fields are exchanged.
func (f *File) applyBuggyLinkerSwap() {
	if f.ExecAux == nil {
		return
	}
	entry := f.ExecAux.ExecEntry
	looksWrong := (entry == 0 && f.Header.Magic != types.DLMagic) ||
		entry%4 != 0 || !f.entryInCodeSubspace(entry)
	if !looksWrong || !f.entryInCodeSubspace(f.ExecAux.ExecFlags) {
		return
	}
	f.ExecAux.ExecEntry, f.ExecAux.ExecFlags = f.ExecAux.ExecFlags, f.ExecAux.ExecEntry
}

func (f *File) entryInCodeSubspace(addr uint32) bool {
	for _, ss := range f.Subspaces {
		if ss.Policy != AccessCode && ss.Policy != AccessCodeReadonly {
			continue
		}
		if addr >= ss.Start && addr < ss.Start+ss.Length {
			return true
		}
	}
	return false
}

// locateHeader returns the byte offset the object header starts at.
// For an ordinary SOM that's 0; for an EXECLIB (a SOM embedded in an
// executable shell so the loader can mmap it directly) the outer
// bytes are shaped exactly like a library's LST header and one-entry
// module directory, and the real header is wherever that single
// entry's Location points.
func (f *File) locateHeader(r io.ReaderAt) (int64, error) {
	probe := make([]byte, 8)
	if _, err := r.ReadAt(probe, 0); err != nil {
		return 0, wrongFormat("NewFile", fmt.Errorf("reading probe bytes: %w", err))
	}
	magic := types.Magic(types.GetBE32(probe[4:]))
	if magic != types.ExecLibMagic {
		return 0, nil
	}

	hdr, err := readLSTHeader(r, 0)
	if err != nil {
		return 0, wrongFormat("NewFile", err)
	}
	if hdr.AMagic != types.ExecLibMagic {
		return 0, wrongFormat("NewFile", &FormatError{0, "EXECLIB directory magic mismatch", hdr.AMagic})
	}
	members, err := readLSTModules(r, hdr)
	if err != nil {
		return 0, malformedArchive("NewFile", err)
	}
	if len(members) == 0 {
		return 0, malformedArchive("NewFile", fmt.Errorf("EXECLIB module directory is empty"))
	}
	return int64(members[0].Location), nil
}

func (f *File) readAuxHeader(r io.ReaderAt, hdrOff int64) error {
	prefix := make([]byte, 8)
	loc := hdrOff + int64(f.Header.AuxHeaderLocation)
	if _, err := r.ReadAt(prefix, loc); err != nil {
		return wrongFormat("NewFile", fmt.Errorf("reading aux header prefix: %w", err))
	}
	var aux types.ExternalAuxHeader
	aux.Get(prefix)
	if aux.Type != types.ExecAuxID {
		return nil
	}
	buf := make([]byte, 8+types.ExecAuxHeaderSize)
	if _, err := r.ReadAt(buf, loc); err != nil {
		return wrongFormat("NewFile", fmt.Errorf("reading exec aux header: %w", err))
	}
	var execAux types.ExecAuxHeader
	execAux.Get(buf)
	f.ExecAux = &execAux
	return nil
}

// readStringBlob reads a raw space/symbol string table: size bytes
// located at loc, each string inside it its own length-prefixed,
// 4-byte-padded XDR-coded record (see types/endian.go for why XDR's
// wire format is an exact structural match here).
func readStringBlob(r io.ReaderAt, loc int64, size uint32) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	if _, err := r.ReadAt(buf, loc); err != nil {
		return nil, err
	}
	return buf, nil
}

// nameAt decodes the XDR string record starting at byte offset off
// within blob.
func nameAt(blob []byte, off uint32) (string, error) {
	if int(off) >= len(blob) {
		return "", fmt.Errorf("name offset %d out of range (table is %d bytes)", off, len(blob))
	}
	br := bytes.NewReader(blob[off:])
	xr := types.NewReader(br)
	s := xr.ReadString()
	if err := xr.Error(); err != nil {
		return "", fmt.Errorf("decoding string at offset %d: %w", off, err)
	}
	return s, nil
}

func (f *File) readSpacesAndSubspaces(r io.ReaderAt, hdrOff int64, spaceStrings []byte) error {
	subBuf := make([]byte, int(f.Header.SubspaceTotal)*types.ExternalSubspaceSize)
	if f.Header.SubspaceTotal > 0 {
		if _, err := r.ReadAt(subBuf, hdrOff+int64(f.Header.SubspaceLocation)); err != nil {
			return wrongFormat("NewFile", fmt.Errorf("reading subspace dictionary: %w", err))
		}
	}
	rawSubspaces := make([]types.ExternalSubspace, f.Header.SubspaceTotal)
	for i := range rawSubspaces {
		rawSubspaces[i].Get(subBuf[i*types.ExternalSubspaceSize:])
	}

	spaceBuf := make([]byte, int(f.Header.SpaceTotal)*types.ExternalSpaceSize)
	if f.Header.SpaceTotal > 0 {
		if _, err := r.ReadAt(spaceBuf, hdrOff+int64(f.Header.SpaceLocation)); err != nil {
			return wrongFormat("NewFile", fmt.Errorf("reading space dictionary: %w", err))
		}
	}

	f.Subspaces = make([]*Subspace, len(rawSubspaces))
	for si, raw := range rawSubspaces {
		if !types.IsPowerOfTwo(raw.Alignment) {
			return badValue("NewFile", &FormatError{hdrOff, "subspace alignment not a power of two", raw.Alignment})
		}
		name, err := nameAt(spaceStrings, raw.NameOffset)
		if err != nil {
			return wrongFormat("NewFile", fmt.Errorf("subspace %d name: %w", si, err))
		}
		f.Subspaces[si] = internalizeSubspace(raw, name, nil)
	}

	f.Spaces = make([]*Space, f.Header.SpaceTotal)
	for i := 0; i < int(f.Header.SpaceTotal); i++ {
		var raw types.ExternalSpace
		raw.Get(spaceBuf[i*types.ExternalSpaceSize:])
		name, err := nameAt(spaceStrings, raw.NameOffset)
		if err != nil {
			return wrongFormat("NewFile", fmt.Errorf("space %d name: %w", i, err))
		}
		sp := internalizeSpace(raw, name)
		lo := int(raw.SubspaceIndex)
		hi := lo + int(raw.SubspaceQuantity)
		if lo < 0 || hi > len(f.Subspaces) {
			return wrongFormat("NewFile", &FormatError{hdrOff, "space subspace range out of bounds", name})
		}
		for _, ss := range f.Subspaces[lo:hi] {
			ss.Space = sp
		}
		sp.Subspaces = f.Subspaces[lo:hi]
		f.Spaces[i] = sp
	}

	for _, ss := range f.Subspaces {
		if ss.InitializationLength == 0 {
			continue
		}
		data := make([]byte, ss.InitializationLength)
		if _, err := r.ReadAt(data, hdrOff+int64(ss.FileLocInitValue)); err != nil {
			return wrongFormat("NewFile", fmt.Errorf("subspace %q contents: %w", ss.Name, err))
		}
		ss.Data = data
	}
	return nil
}

func (f *File) readSymbols(r io.ReaderAt, hdrOff int64, symbolStrings []byte) error {
	buf := make([]byte, int(f.Header.SymbolTotal)*types.ExternalSymbolSize)
	if f.Header.SymbolTotal > 0 {
		if _, err := r.ReadAt(buf, hdrOff+int64(f.Header.SymbolLocation)); err != nil {
			return wrongFormat("NewFile", fmt.Errorf("reading symbol dictionary: %w", err))
		}
	}
	f.Symbols = make([]*Symbol, f.Header.SymbolTotal)
	for i := range f.Symbols {
		var raw types.ExternalSymbol
		raw.Get(buf[i*types.ExternalSymbolSize:])
		if raw.IsExtension() {
			// ST_SYM_EXT/ST_ARG_EXT records are follow-ons to the
			// previous real symbol, not symbols in their own right
			// (§4.6); keep a zero-value placeholder so dictionary
			// indices used elsewhere (subspace SymInfo links) stay valid.
			f.Symbols[i] = &Symbol{}
			continue
		}
		name, err := nameAt(symbolStrings, raw.NameOffset)
		if err != nil {
			return wrongFormat("NewFile", fmt.Errorf("symbol %d name: %w", i, err))
		}
		f.Symbols[i] = internalizeSymbol(raw, name, f.Subspaces)
	}
	return nil
}

func (f *File) readFixups(r io.ReaderAt, hdrOff int64) error {
	if f.Header.FixupRequestTotal == 0 {
		return nil
	}
	buf := make([]byte, f.Header.FixupRequestTotal)
	if _, err := r.ReadAt(buf, hdrOff+int64(f.Header.FixupRequestLocation)); err != nil {
		return wrongFormat("NewFile", fmt.Errorf("reading fixup stream: %w", err))
	}
	state := fixup.NewState()
	for _, ss := range f.Subspaces {
		if ss.FixupRequestQuantity == 0 {
			continue
		}
		lo := ss.FixupRequestIndex
		hi := lo + ss.FixupRequestQuantity
		if hi > uint32(len(buf)) {
			return wrongFormat("NewFile", &FormatError{hdrOff, "subspace fixup range out of bounds", ss.Name})
		}
		dec := fixup.NewDecoder(buf[lo:hi], state)
		err := dec.Decode(func(rec fixup.Record) error {
			if !rec.HasRelocation() {
				return nil
			}
			ss.Relocations = append(ss.Relocations, internalizeRelocation(rec, f.Symbols))
			return nil
		})
		if err != nil {
			return wrongFormat("NewFile", fmt.Errorf("subspace %q fixup stream: %w", ss.Name, err))
		}
	}
	return nil
}

// Space looks up a space by name.
func (f *File) Space(name string) *Space {
	for _, sp := range f.Spaces {
		if sp.Name == name {
			return sp
		}
	}
	return nil
}

// Subspace looks up a subspace by name.
func (f *File) Subspace(name string) *Subspace {
	for _, ss := range f.Subspaces {
		if ss.Name == name {
			return ss
		}
	}
	return nil
}

// Symbol looks up the first symbol by name.
func (f *File) Symbol(name string) *Symbol {
	for _, sym := range f.Symbols {
		if sym != nil && sym.Name == name {
			return sym
		}
	}
	return nil
}

func (f *File) String() string {
	s := fmt.Sprintf("%s version=%s system_id=%s\n", f.Header.Magic, f.Header.VersionID, types.CPU(f.Header.SystemID))
	for _, sp := range f.Spaces {
		s += fmt.Sprintf("  space %-16s subspaces=%d size=%d\n", sp.Name, len(sp.Subspaces), sp.TotalSize())
		for _, ss := range sp.Subspaces {
			s += fmt.Sprintf("    subspace %-16s policy=%-14s start=0x%x length=0x%x relocs=%d\n",
				ss.Name, ss.Policy, ss.Start, ss.Length, len(ss.Relocations))
		}
	}
	return s
}
