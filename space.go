package som

import "github.com/appsworld/go-som/types"

// Space is the internalized form of a SOM space dictionary entry: a
// named top-level container (conventionally $TEXT$ or $PRIVATE$) that
// owns a contiguous run of subspaces.
type Space struct {
	Name string

	IsLoadable         bool
	IsDefined          bool
	IsPrivate          bool
	HasIntermediateCode bool
	IsTspecific        bool

	SortKey uint8
	Number  uint16

	Subspaces []*Subspace
}

func internalizeSpace(raw types.ExternalSpace, name string) *Space {
	return &Space{
		Name:                name,
		IsLoadable:          raw.IsLoadable,
		IsDefined:           raw.IsDefined,
		IsPrivate:           raw.IsPrivate,
		HasIntermediateCode: raw.HasIntermediateCode,
		IsTspecific:         raw.IsTspecific,
		SortKey:             raw.SortKey,
		Number:              raw.SpaceNumber,
	}
}

// externalize rebuilds the raw dictionary record for sp, given its
// already-assigned name offset and the subspace index range its
// Subspaces occupy in the file's flat subspace dictionary.
func (sp *Space) externalize(nameOffset uint32, subspaceIndex, subspaceCount uint32) types.ExternalSpace {
	return types.ExternalSpace{
		NameOffset:          nameOffset,
		IsLoadable:          sp.IsLoadable,
		IsDefined:           sp.IsDefined,
		IsPrivate:           sp.IsPrivate,
		HasIntermediateCode: sp.HasIntermediateCode,
		IsTspecific:         sp.IsTspecific,
		SortKey:             sp.SortKey,
		SpaceNumber:         sp.Number,
		SubspaceIndex:       subspaceIndex,
		SubspaceQuantity:    subspaceCount,
	}
}

// TotalSize returns the sum of every owned subspace's Length.
func (sp *Space) TotalSize() uint64 {
	var n uint64
	for _, ss := range sp.Subspaces {
		n += uint64(ss.Length)
	}
	return n
}
