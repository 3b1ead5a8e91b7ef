package types

// SOMLSTHashSize is the fixed chained-hash-table bucket count the format
// specifies for the library symbol table.
const SOMLSTHashSize = 31

// ExternalLSTHeaderSize is the on-disk size, in bytes, of the LST header.
const ExternalLSTHeaderSize = 14 * 4

// ExternalLSTHeader is the bitwise on-disk layout of the archive library
// symbol table header. It locates the four regions that follow it: the
// hash table, the module directory, the symbol records, and the string
// blob.
type ExternalLSTHeader struct {
	SystemID  uint32
	AMagic    Magic // LibMagic for a library; ExecLibMagic for an EXECLIB's outer header
	VersionID VersionID

	FileTime uint32

	HashLocation uint32
	HashSize     uint32

	ModuleLocation uint32
	ModuleCount    uint32

	FileEnd    uint32
	Checksum   uint32

	FreelistLocation uint32
	FreelistSize     uint32

	StringLocation uint32
	StringSize     uint32
}

func (h *ExternalLSTHeader) Put(b []byte) int {
	PutBE32(b[0:], h.SystemID)
	PutBE32(b[4:], uint32(h.AMagic))
	PutBE32(b[8:], uint32(h.VersionID))
	PutBE32(b[12:], h.FileTime)
	PutBE32(b[16:], h.HashLocation)
	PutBE32(b[20:], h.HashSize)
	PutBE32(b[24:], h.ModuleLocation)
	PutBE32(b[28:], h.ModuleCount)
	PutBE32(b[32:], h.FileEnd)
	PutBE32(b[36:], h.Checksum)
	PutBE32(b[40:], h.FreelistLocation)
	PutBE32(b[44:], h.FreelistSize)
	PutBE32(b[48:], h.StringLocation)
	PutBE32(b[52:], h.StringSize)
	return ExternalLSTHeaderSize
}

func (h *ExternalLSTHeader) Get(b []byte) {
	h.SystemID = GetBE32(b[0:])
	h.AMagic = Magic(GetBE32(b[4:]))
	h.VersionID = VersionID(GetBE32(b[8:]))
	h.FileTime = GetBE32(b[12:])
	h.HashLocation = GetBE32(b[16:])
	h.HashSize = GetBE32(b[20:])
	h.ModuleLocation = GetBE32(b[24:])
	h.ModuleCount = GetBE32(b[28:])
	h.FileEnd = GetBE32(b[32:])
	h.Checksum = GetBE32(b[36:])
	h.FreelistLocation = GetBE32(b[40:])
	h.FreelistSize = GetBE32(b[44:])
	h.StringLocation = GetBE32(b[48:])
	h.StringSize = GetBE32(b[52:])
}

// ExternalLSTModuleSize is the on-disk size, in bytes, of one module
// directory entry: the member SOM's file offset and length.
const ExternalLSTModuleSize = 2 * 4

// ExternalLSTModule locates one archive member's SOM within the file.
type ExternalLSTModule struct {
	Location uint32
	Length   uint32
}

func (m *ExternalLSTModule) Put(b []byte) int {
	PutBE32(b[0:], m.Location)
	PutBE32(b[4:], m.Length)
	return ExternalLSTModuleSize
}

func (m *ExternalLSTModule) Get(b []byte) {
	m.Location = GetBE32(b[0:])
	m.Length = GetBE32(b[4:])
}

// ExternalLSTSymbolSize is the on-disk size, in bytes, of one library
// symbol table entry.
const ExternalLSTSymbolSize = 6 * 4

// ExternalLSTSymbol is one exported symbol in the library index: its
// name, its SOM-dictionary type/scope/arg-reloc, which module defines
// it, a hash-bucket chain key, and the index of the next colliding
// entry (0 terminates the chain).
type ExternalLSTSymbol struct {
	NameOffset uint32

	SymType  SymbolType
	SymScope SymbolScope
	ArgReloc uint16

	SomIndex  uint32
	SymbolKey uint32
	NextEntry uint32
}

func (s *ExternalLSTSymbol) Put(b []byte) int {
	PutBE32(b[0:], s.NameOffset)
	var flags uint32
	flags |= uint32(s.SymType&symTypeMask) << symTypeShift
	flags |= uint32(s.SymScope&symScopeMask) << symScopeShift
	flags |= uint32(s.ArgReloc&symArgRelocMask) << symArgRelocShift
	PutBE32(b[4:], flags)
	PutBE32(b[8:], s.SomIndex)
	PutBE32(b[12:], s.SymbolKey)
	PutBE32(b[16:], s.NextEntry)
	PutBE32(b[20:], 0)
	return ExternalLSTSymbolSize
}

func (s *ExternalLSTSymbol) Get(b []byte) {
	s.NameOffset = GetBE32(b[0:])
	flags := GetBE32(b[4:])
	s.SymType = SymbolType((flags >> symTypeShift) & symTypeMask)
	s.SymScope = SymbolScope((flags >> symScopeShift) & symScopeMask)
	s.ArgReloc = uint16((flags >> symArgRelocShift) & symArgRelocMask)
	s.SomIndex = GetBE32(b[8:])
	s.SymbolKey = GetBE32(b[12:])
	s.NextEntry = GetBE32(b[16:])
}

// LSTHash computes the format's chained-hash-table key for a symbol
// name, per §4.10: single-character names get a fixed pattern built
// from that one byte; everything else folds the length and three
// boundary bytes together.
func LSTHash(name string) uint32 {
	n := len(name)
	if n == 0 {
		return 0x01000100
	}
	if n == 1 {
		c := uint32(name[0])
		return 0x01000100 | (c << 16) | c
	}
	return (uint32(n&0x7F) << 24) | (uint32(name[1]) << 16) | (uint32(name[n-2]) << 8) | uint32(name[n-1])
}

// LSTBucket reduces a hash key to a bucket index in [0, SOMLSTHashSize).
func LSTBucket(hash uint32) uint32 {
	return hash % SOMLSTHashSize
}
