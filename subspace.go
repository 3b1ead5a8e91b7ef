package som

import "github.com/appsworld/go-som/types"

// AccessPolicy is the internalized access-control classification a
// subspace's access_control_bits collapse to, per §4.5's mapping
// table: it is what a loader actually needs (can this be mapped
// read-only, does it need execute permission) rather than the raw
// HP-UX protection-ID encoding.
type AccessPolicy int

const (
	AccessDataReadonly AccessPolicy = iota
	AccessData
	AccessCodeReadonly
	AccessCode
)

func (p AccessPolicy) String() string {
	switch p {
	case AccessData:
		return "data"
	case AccessCodeReadonly:
		return "code_readonly"
	case AccessCode:
		return "code"
	default:
		return "data_readonly"
	}
}

func internalizeAccessPolicy(p types.AccessPolicy) AccessPolicy {
	switch p {
	case types.AccessData:
		return AccessData
	case types.AccessCodeReadonly:
		return AccessCodeReadonly
	case types.AccessCode:
		return AccessCode
	default:
		return AccessDataReadonly
	}
}

// Subspace is the internalized form of a SOM subspace dictionary entry:
// the nearest SOM analog of an ELF/Mach-O section, holding its own
// contents, flags, and access policy. Its Space pointer threads back to
// the owning space the way a BFD section threads back to its segment.
type Subspace struct {
	Name  string
	Space *Space

	Policy AccessPolicy

	IsLoadable     bool
	IsCommon       bool
	DupCommon      bool
	IsFirst        bool
	InitiallyFrozen bool
	IsMemResident  bool
	IsTspecific    bool
	CodeOnly       bool
	ReplicateInit  bool
	IsComdat       bool

	Quadrant  uint8
	SortKey   uint8
	Alignment uint32 // byte alignment, copied as-is from the on-disk record (stored raw, not as log2)

	Start  uint32
	Length uint32

	FileLocInitValue     uint32
	InitializationLength uint32

	FixupRequestIndex    uint32
	FixupRequestQuantity uint32

	// Data holds the subspace's initialized contents, InitializationLength
	// bytes; the remaining Length-InitializationLength bytes are implicit
	// zero fill (bss-like), consistent with §4.5's "contents shorter than
	// Length means the tail is zero-initialized" invariant.
	Data []byte

	// Relocations are this subspace's decoded fixups, in stream order,
	// populated by the reader pipeline from the subspace's fixup byte
	// range.
	Relocations []Relocation
}

func internalizeSubspace(raw types.ExternalSubspace, name string, space *Space) *Subspace {
	return &Subspace{
		Name:                 name,
		Space:                space,
		Policy:               internalizeAccessPolicy(raw.Policy()),
		IsLoadable:           raw.IsLoadable,
		IsCommon:             raw.IsCommon,
		DupCommon:            raw.DupCommon,
		IsFirst:              raw.IsFirst,
		InitiallyFrozen:      raw.InitiallyFrozen,
		IsMemResident:        raw.IsMemResident,
		IsTspecific:          raw.IsTspecific,
		CodeOnly:             raw.CodeOnly,
		ReplicateInit:        raw.ReplicateInit,
		IsComdat:             raw.IsComdat,
		Quadrant:             raw.Quadrant,
		SortKey:              raw.SortKey,
		Alignment:            raw.Alignment,
		Start:                raw.Start,
		Length:               raw.Length,
		FileLocInitValue:     raw.FileLocInitValue,
		InitializationLength: raw.InitializationLength,
		FixupRequestIndex:    raw.FixupRequestIndex,
		FixupRequestQuantity: raw.FixupRequestQuantity,
	}
}

// externalize rebuilds the raw dictionary record for ss, given its
// owning space's dictionary index and its already-assigned name offset.
func (ss *Subspace) externalize(spaceIndex, nameOffset uint32) types.ExternalSubspace {
	accessBits := accessControlBitsFor(ss.Policy)
	return types.ExternalSubspace{
		SpaceIndex:           spaceIndex,
		NameOffset:           nameOffset,
		AccessControlBits:    accessBits,
		Quadrant:             ss.Quadrant,
		SortKey:              ss.SortKey,
		IsLoadable:           ss.IsLoadable,
		IsCommon:             ss.IsCommon,
		DupCommon:            ss.DupCommon,
		IsFirst:              ss.IsFirst,
		InitiallyFrozen:      ss.InitiallyFrozen,
		IsMemResident:        ss.IsMemResident,
		IsTspecific:          ss.IsTspecific,
		CodeOnly:             ss.CodeOnly,
		ReplicateInit:        ss.ReplicateInit,
		IsComdat:             ss.IsComdat,
		Alignment:            ss.Alignment,
		Start:                ss.Start,
		Length:               ss.Length,
		FileLocInitValue:     ss.FileLocInitValue,
		InitializationLength: ss.InitializationLength,
		FixupRequestIndex:    ss.FixupRequestIndex,
		FixupRequestQuantity: ss.FixupRequestQuantity,
	}
}

// accessControlBitsFor is externalize's inverse of ExternalSubspace.Policy:
// it picks a representative access_control_bits nibble for each policy
// class (§4.5's mapping is many-to-one, so round-tripping a subspace
// read from disk and rewritten may normalize an unusual bit pattern to
// its policy's canonical one; this is documented as intentional, not a
// bug, since no bits outside the policy are observable through Policy()).
func accessControlBitsFor(p AccessPolicy) uint8 {
	switch p {
	case AccessData:
		return 0x1 << 4
	case AccessCode:
		return 0x3 << 4
	case AccessCodeReadonly:
		return 0x4 << 4
	default:
		return 0x0
	}
}
