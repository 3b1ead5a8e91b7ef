package types

//go:generate stringer -type=Magic,VersionID -trimprefix=som_ -output header_string.go

import (
	"fmt"
)

// HeaderSize is the size in words of the external file header; every
// field is a 32-bit big-endian quantity, so the header occupies
// HeaderSize*4 bytes. The writer's XOR checksum covers exactly this many
// words.
const HeaderSize = 30

// ExternalHeader is the bitwise on-disk layout of a SOM file header, in
// field order. Every field is a big-endian uint32; there is no packing or
// bitfield here; that happens one level down, in Space/Subspace/Symbol.
type ExternalHeader struct {
	SystemID  uint32
	Magic     Magic
	VersionID VersionID
	FileTime  uint32 // seconds since epoch, compiler-supplied

	EntrySpace    uint32
	EntrySubspace uint32
	EntryOffset   uint32

	AuxHeaderLocation uint32
	AuxHeaderSize     uint32

	SpaceLocation uint32
	SpaceTotal    uint32

	SubspaceLocation uint32
	SubspaceTotal    uint32

	LoaderFixupLocation uint32
	LoaderFixupTotal    uint32

	SpaceStringsLocation uint32
	SpaceStringsSize     uint32

	InitArrayLocation uint32
	InitArrayTotal    uint32

	CompilerLocation uint32
	CompilerTotal    uint32

	SymbolLocation uint32
	SymbolTotal    uint32

	FixupRequestLocation uint32
	FixupRequestTotal    uint32

	SymbolStringsLocation uint32
	SymbolStringsSize     uint32

	UnloadableSpLocation uint32
	UnloadableSpSize     uint32

	Checksum uint32
}

// words returns the header's fields in on-disk order, for checksumming
// and for Put/Get.
func (h *ExternalHeader) words() []uint32 {
	return []uint32{
		h.SystemID, uint32(h.Magic), uint32(h.VersionID), h.FileTime,
		h.EntrySpace, h.EntrySubspace, h.EntryOffset,
		h.AuxHeaderLocation, h.AuxHeaderSize,
		h.SpaceLocation, h.SpaceTotal,
		h.SubspaceLocation, h.SubspaceTotal,
		h.LoaderFixupLocation, h.LoaderFixupTotal,
		h.SpaceStringsLocation, h.SpaceStringsSize,
		h.InitArrayLocation, h.InitArrayTotal,
		h.CompilerLocation, h.CompilerTotal,
		h.SymbolLocation, h.SymbolTotal,
		h.FixupRequestLocation, h.FixupRequestTotal,
		h.SymbolStringsLocation, h.SymbolStringsSize,
		h.UnloadableSpLocation, h.UnloadableSpSize,
		h.Checksum,
	}
}

// setWords is the inverse of words, used by Get.
func (h *ExternalHeader) setWords(w [HeaderSize]uint32) {
	h.SystemID = w[0]
	h.Magic = Magic(w[1])
	h.VersionID = VersionID(w[2])
	h.FileTime = w[3]
	h.EntrySpace = w[4]
	h.EntrySubspace = w[5]
	h.EntryOffset = w[6]
	h.AuxHeaderLocation = w[7]
	h.AuxHeaderSize = w[8]
	h.SpaceLocation = w[9]
	h.SpaceTotal = w[10]
	h.SubspaceLocation = w[11]
	h.SubspaceTotal = w[12]
	h.LoaderFixupLocation = w[13]
	h.LoaderFixupTotal = w[14]
	h.SpaceStringsLocation = w[15]
	h.SpaceStringsSize = w[16]
	h.InitArrayLocation = w[17]
	h.InitArrayTotal = w[18]
	h.CompilerLocation = w[19]
	h.CompilerTotal = w[20]
	h.SymbolLocation = w[21]
	h.SymbolTotal = w[22]
	h.FixupRequestLocation = w[23]
	h.FixupRequestTotal = w[24]
	h.SymbolStringsLocation = w[25]
	h.SymbolStringsSize = w[26]
	h.UnloadableSpLocation = w[27]
	h.UnloadableSpSize = w[28]
	h.Checksum = w[29]
}

// ComputeChecksum returns the 32-bit XOR of every header word except the
// checksum field itself -- i.e. the value that must be stored into
// Checksum so that XOR-ing all HeaderSize words together yields zero.
func (h *ExternalHeader) ComputeChecksum() uint32 {
	var x uint32
	ws := h.words()
	for _, w := range ws[:HeaderSize-1] {
		x ^= w
	}
	return x
}

// SetChecksum stamps the computed checksum into the header.
func (h *ExternalHeader) SetChecksum() {
	h.Checksum = h.ComputeChecksum()
}

// VerifyChecksum reports whether the XOR of all HeaderSize words is zero.
func (h *ExternalHeader) VerifyChecksum() bool {
	var x uint32
	for _, w := range h.words() {
		x ^= w
	}
	return x == 0
}

// Put big-endian-encodes the header into b, which must be at least
// HeaderSize*4 bytes, and returns the number of bytes written.
func (h *ExternalHeader) Put(b []byte) int {
	for i, w := range h.words() {
		PutBE32(b[i*4:], w)
	}
	return HeaderSize * 4
}

// Get decodes a big-endian header from b, which must be at least
// HeaderSize*4 bytes.
func (h *ExternalHeader) Get(b []byte) {
	var w [HeaderSize]uint32
	for i := range w {
		w[i] = GetBE32(b[i*4:])
	}
	h.setWords(w)
}

// Magic identifies the kind of object the file holds.
type Magic uint32

const (
	RelocMagic     Magic = 0x0106
	ExecMagic      Magic = 0x0107
	ShareMagic     Magic = 0x0108
	DemandMagic    Magic = 0x010B
	DLMagic        Magic = 0x010D
	SHLMagic       Magic = 0x010E
	ExecLibMagic   Magic = 0x0619
	SharedMagicCnx Magic = 0x0640
	LibMagic       Magic = 0x0268 // LST (archive symbol index) magic, not a SOM magic
)

var magicStrings = []IntName{
	{uint32(RelocMagic), "RELOC"},
	{uint32(ExecMagic), "EXEC"},
	{uint32(ShareMagic), "SHARE"},
	{uint32(DemandMagic), "DEMAND"},
	{uint32(DLMagic), "DL"},
	{uint32(SHLMagic), "SHL"},
	{uint32(ExecLibMagic), "EXECLIB"},
	{uint32(SharedMagicCnx), "SHARED_CNX"},
	{uint32(LibMagic), "LIB"},
}

func (m Magic) String() string { return StringName(uint32(m), magicStrings, false) }

// IsObjectMagic reports whether m names an ordinary (non-archive) SOM.
func (m Magic) IsObjectMagic() bool {
	switch m {
	case RelocMagic, ExecMagic, ShareMagic, DemandMagic, DLMagic, SHLMagic, SharedMagicCnx:
		return true
	}
	return false
}

// IsExecutable reports whether m denotes a file with a meaningful entry
// point (as opposed to a relocatable object).
func (m Magic) IsExecutable() bool {
	switch m {
	case ExecMagic, ShareMagic, DemandMagic, DLMagic, SHLMagic, SharedMagicCnx:
		return true
	}
	return false
}

// VersionID distinguishes the two header revisions SOM producers have
// shipped; both are accepted on read.
type VersionID uint32

const (
	OldVersionID VersionID = 85082112
	NewVersionID VersionID = 89407262
)

func (v VersionID) String() string {
	switch v {
	case OldVersionID:
		return "old"
	case NewVersionID:
		return "new"
	}
	return fmt.Sprintf("0x%x", uint32(v))
}

// Valid reports whether v is one of the two recognized version ids.
func (v VersionID) Valid() bool {
	return v == OldVersionID || v == NewVersionID
}

// CPU identifies the processor family a SOM targets. Only PA-RISC ids are
// ever legal in a SOM header; other values indicate the file isn't a SOM
// at all (or is corrupt).
type CPU uint32

const (
	CPUPARisc10 CPU = 0x20B
	CPUPARisc11 CPU = 0x210
	CPUPARisc20 CPU = 0x214
)

// IsPARisc implements the format's _PA_RISC_ID test: exactly 0x20B, or
// anywhere in [0x210, 0x2FF].
func (c CPU) IsPARisc() bool {
	return c == 0x20B || (c >= 0x210 && c <= 0x2FF)
}

func (c CPU) String() string {
	switch c {
	case CPUPARisc10:
		return "PA-RISC 1.0"
	case CPUPARisc11:
		return "PA-RISC 1.1"
	case CPUPARisc20:
		return "PA-RISC 2.0"
	}
	if c.IsPARisc() {
		return fmt.Sprintf("PA-RISC (system_id 0x%x)", uint32(c))
	}
	return fmt.Sprintf("0x%x", uint32(c))
}

// Machine is the architecture selector the writer derives from the bfd
// "mach" number when choosing SystemID (see §4.8 step 5).
type Machine uint32

const (
	MachinePA10 Machine = iota
	MachinePA11
	MachinePA20
)

// SystemIDFor maps a target machine to the header's system_id field.
func SystemIDFor(m Machine) CPU {
	switch m {
	case MachinePA11:
		return CPUPARisc11
	case MachinePA20:
		return CPUPARisc20
	default:
		return CPUPARisc10
	}
}

// AuxID identifies the kind of auxiliary header record that follows the
// file header (version string, copyright string, or the exec aux header).
type AuxID uint32

const (
	AuxIDVersion   AuxID = 0x5a6b
	AuxIDCopyright AuxID = 0x5a6c

	// ExecAuxID is the aux header mtype carrying the executable's text
	// and data layout. HP-UX and HI-UX define their own values for this;
	// the format defaults to 0 when neither does.
	ExecAuxID AuxID = 0
)

// ExternalAuxHeader is the common prefix shared by every auxiliary
// header record: a mandatory-bit + type selector word, and a word
// holding the record's length not counting this 8-byte prefix itself.
type ExternalAuxHeader struct {
	Mandatory bool
	Type      AuxID
	Length    uint32
}

const auxHeaderPrefixMandatoryBit = 1 << 31

func (a *ExternalAuxHeader) Put(b []byte) int {
	v := uint32(a.Type)
	if a.Mandatory {
		v |= auxHeaderPrefixMandatoryBit
	}
	PutBE32(b[0:], v)
	PutBE32(b[4:], a.Length)
	return 8
}

func (a *ExternalAuxHeader) Get(b []byte) {
	v := GetBE32(b[0:])
	a.Mandatory = v&auxHeaderPrefixMandatoryBit != 0
	a.Type = AuxID(v &^ auxHeaderPrefixMandatoryBit)
	a.Length = GetBE32(b[4:])
}

// ExecAuxHeader carries the executable's text/data/bss layout. It is
// present only when ExternalHeader.AuxHeaderSize != 0 and the aux record's
// Type is ExecAuxID.
type ExecAuxHeader struct {
	ExternalAuxHeader

	ExecTsize uint32
	ExecTmem  uint32
	ExecTfile uint32
	ExecDsize uint32
	ExecDmem  uint32
	ExecDfile uint32
	ExecBsize uint32
	ExecEntry uint32
	ExecFlags uint32
	ExecBfill uint32
}

// ExecAuxHeaderSize is the on-disk size, in bytes, of ExecAuxHeader not
// counting the 8-byte ExternalAuxHeader prefix.
const ExecAuxHeaderSize = 10 * 4

func (e *ExecAuxHeader) Put(b []byte) int {
	n := e.ExternalAuxHeader.Put(b)
	PutBE32(b[n+0:], e.ExecTsize)
	PutBE32(b[n+4:], e.ExecTmem)
	PutBE32(b[n+8:], e.ExecTfile)
	PutBE32(b[n+12:], e.ExecDsize)
	PutBE32(b[n+16:], e.ExecDmem)
	PutBE32(b[n+20:], e.ExecDfile)
	PutBE32(b[n+24:], e.ExecBsize)
	PutBE32(b[n+28:], e.ExecEntry)
	PutBE32(b[n+32:], e.ExecFlags)
	PutBE32(b[n+36:], e.ExecBfill)
	return n + ExecAuxHeaderSize
}

func (e *ExecAuxHeader) Get(b []byte) {
	e.ExternalAuxHeader.Get(b)
	n := 8
	e.ExecTsize = GetBE32(b[n+0:])
	e.ExecTmem = GetBE32(b[n+4:])
	e.ExecTfile = GetBE32(b[n+8:])
	e.ExecDsize = GetBE32(b[n+12:])
	e.ExecDmem = GetBE32(b[n+16:])
	e.ExecDfile = GetBE32(b[n+20:])
	e.ExecBsize = GetBE32(b[n+24:])
	e.ExecEntry = GetBE32(b[n+28:])
	e.ExecFlags = GetBE32(b[n+32:])
	e.ExecBfill = GetBE32(b[n+36:])
}
