package types

// ExternalSpaceSize is the on-disk size, in bytes, of one space dictionary
// entry.
const ExternalSpaceSize = 5 * 4

// ExternalSpace is the bitwise on-disk layout of one space dictionary
// record. name_offset is an offset into the space-string table; the
// second word packs the boolean flags together with sort_key and
// space_number; the rest locate the space's subspaces.
type ExternalSpace struct {
	NameOffset uint32

	IsLoadable          bool
	IsDefined           bool
	IsPrivate           bool
	HasIntermediateCode bool
	IsTspecific         bool
	SortKey             uint8
	SpaceNumber         uint16

	SubspaceIndex    uint32
	SubspaceQuantity uint32

	reserved uint32
}

const (
	spaceFlagLoadable          = 1 << 31
	spaceFlagDefined           = 1 << 30
	spaceFlagPrivate           = 1 << 29
	spaceFlagHasIntermediate   = 1 << 28
	spaceFlagTspecific         = 1 << 27
	spaceSortKeyShift          = 16
	spaceSortKeyMask           = 0xFF
	spaceNumberMask            = 0xFFFF
)

// Put big-endian-encodes the space record into b (which must be at least
// ExternalSpaceSize bytes) and returns the number of bytes written.
func (s *ExternalSpace) Put(b []byte) int {
	PutBE32(b[0:], s.NameOffset)

	var flags uint32
	if s.IsLoadable {
		flags |= spaceFlagLoadable
	}
	if s.IsDefined {
		flags |= spaceFlagDefined
	}
	if s.IsPrivate {
		flags |= spaceFlagPrivate
	}
	if s.HasIntermediateCode {
		flags |= spaceFlagHasIntermediate
	}
	if s.IsTspecific {
		flags |= spaceFlagTspecific
	}
	flags |= uint32(s.SortKey&spaceSortKeyMask) << spaceSortKeyShift
	flags |= uint32(s.SpaceNumber) & spaceNumberMask
	PutBE32(b[4:], flags)

	PutBE32(b[8:], s.SubspaceIndex)
	PutBE32(b[12:], s.SubspaceQuantity)
	PutBE32(b[16:], 0)
	return ExternalSpaceSize
}

// Get decodes a big-endian space record from b, forcing reserved bits to
// zero as the format's swap-in routines do.
func (s *ExternalSpace) Get(b []byte) {
	s.NameOffset = GetBE32(b[0:])

	flags := GetBE32(b[4:])
	s.IsLoadable = flags&spaceFlagLoadable != 0
	s.IsDefined = flags&spaceFlagDefined != 0
	s.IsPrivate = flags&spaceFlagPrivate != 0
	s.HasIntermediateCode = flags&spaceFlagHasIntermediate != 0
	s.IsTspecific = flags&spaceFlagTspecific != 0
	s.SortKey = uint8((flags >> spaceSortKeyShift) & spaceSortKeyMask)
	s.SpaceNumber = uint16(flags & spaceNumberMask)

	s.SubspaceIndex = GetBE32(b[8:])
	s.SubspaceQuantity = GetBE32(b[12:])
	s.reserved = 0
}
