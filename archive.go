package som

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/appsworld/go-som/types"
)

// Archive is a SOM library: a directory of member SOM files plus a
// library symbol table (LST) mapping exported symbol names to the
// member that defines them, via a fixed 31-bucket chained hash table.
type Archive struct {
	Header types.ExternalLSTHeader

	Members []*ArchiveMember

	symbolsByBucket [types.SOMLSTHashSize][]archiveSymbolEntry

	closer io.Closer
}

// ArchiveMember is one object file stored in the archive's module
// directory, lazily parsed on first access via Open.
type ArchiveMember struct {
	Location uint32
	Length   uint32

	sr io.ReaderAt
	at int64

	file *File
}

type archiveSymbolEntry struct {
	name      string
	raw       types.ExternalLSTSymbol
	somIndex  uint32
}

// OpenArchive opens the named file and reads it as a SOM library.
func OpenArchive(name string) (*Archive, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, systemCall("OpenArchive", err)
	}
	a, err := NewArchive(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// archiveStubSize is the byte offset at which NewArchive reads the LST
// header. It is 0: the header is read from the very start of the file,
// and no text banner or ar member header ahead of it is recognized or
// skipped.
const archiveStubSize = 0

// readLSTHeader reads the fixed-size LST header at byte offset at
// within r, without validating its magic: the same on-disk shape
// serves both a standalone library's own header (AMagic == LibMagic)
// and the inner directory an EXECLIB's outer header points a loader at
// (AMagic == ExecLibMagic); callers check whichever magic applies.
func readLSTHeader(r io.ReaderAt, at int64) (types.ExternalLSTHeader, error) {
	var hdr types.ExternalLSTHeader
	buf := make([]byte, types.ExternalLSTHeaderSize)
	if _, err := r.ReadAt(buf, at); err != nil {
		return hdr, fmt.Errorf("reading LST header: %w", err)
	}
	hdr.Get(buf)
	return hdr, nil
}

// readLSTModules reads hdr's module directory, the flat list of
// member-file byte ranges an LST header's ModuleLocation/ModuleCount
// fields describe.
func readLSTModules(r io.ReaderAt, hdr types.ExternalLSTHeader) ([]*ArchiveMember, error) {
	modBuf := make([]byte, int(hdr.ModuleCount)*types.ExternalLSTModuleSize)
	if hdr.ModuleCount > 0 {
		if _, err := r.ReadAt(modBuf, int64(hdr.ModuleLocation)); err != nil {
			return nil, fmt.Errorf("reading module directory: %w", err)
		}
	}
	members := make([]*ArchiveMember, hdr.ModuleCount)
	for i := range members {
		var raw types.ExternalLSTModule
		raw.Get(modBuf[i*types.ExternalLSTModuleSize:])
		members[i] = &ArchiveMember{Location: raw.Location, Length: raw.Length, sr: r}
	}
	return members, nil
}

// NewArchive creates a new Archive for accessing a SOM library in an
// underlying reader.
func NewArchive(r io.ReaderAt) (*Archive, error) {
	a := &Archive{}

	hdr, err := readLSTHeader(r, archiveStubSize)
	if err != nil {
		return nil, wrongFormat("NewArchive", err)
	}
	if hdr.AMagic != types.LibMagic {
		return nil, wrongFormat("NewArchive", &FormatError{archiveStubSize, "not a SOM library, magic", hdr.AMagic})
	}
	a.Header = hdr

	members, err := readLSTModules(r, hdr)
	if err != nil {
		return nil, malformedArchive("NewArchive", err)
	}
	a.Members = members

	if err := a.readSymbolTable(r); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Archive) readSymbolTable(r io.ReaderAt) error {
	hashBuf := make([]byte, int(a.Header.HashSize)*4)
	if a.Header.HashSize > 0 {
		if _, err := r.ReadAt(hashBuf, int64(a.Header.HashLocation)); err != nil {
			return malformedArchive("NewArchive", fmt.Errorf("reading hash table: %w", err))
		}
	}
	buckets := make([]uint32, a.Header.HashSize)
	for i := range buckets {
		buckets[i] = types.GetBE32(hashBuf[i*4:])
	}

	stringBuf := make([]byte, a.Header.StringSize)
	if a.Header.StringSize > 0 {
		if _, err := r.ReadAt(stringBuf, int64(a.Header.StringLocation)); err != nil {
			return malformedArchive("NewArchive", fmt.Errorf("reading string table: %w", err))
		}
	}

	for bucket, head := range buckets {
		if head == 0 {
			continue
		}
		seen := make(map[uint32]bool)
		entry := head
		for entry != 0 {
			if seen[entry] {
				return malformedArchive("NewArchive", fmt.Errorf("hash bucket %d: cyclic chain detected at entry %d", bucket, entry))
			}
			seen[entry] = true

			buf := make([]byte, types.ExternalLSTSymbolSize)
			off := int64(a.Header.HashLocation) + int64(a.Header.HashSize)*4 + int64(entry-1)*types.ExternalLSTSymbolSize
			if _, err := r.ReadAt(buf, off); err != nil {
				return malformedArchive("NewArchive", fmt.Errorf("reading symbol entry %d: %w", entry, err))
			}
			var raw types.ExternalLSTSymbol
			raw.Get(buf)

			name, err := nameAt(stringBuf, raw.NameOffset)
			if err != nil {
				return malformedArchive("NewArchive", fmt.Errorf("symbol entry %d name: %w", entry, err))
			}
			a.symbolsByBucket[bucket] = append(a.symbolsByBucket[bucket], archiveSymbolEntry{
				name:     name,
				raw:      raw,
				somIndex: raw.SomIndex,
			})
			if raw.NextEntry != 0 && raw.NextEntry <= entry {
				return malformedArchive("NewArchive", fmt.Errorf("hash bucket %d: chain does not advance at entry %d", bucket, entry))
			}
			entry = raw.NextEntry
		}
	}
	return nil
}

// Close closes the Archive. If the Archive was created using NewArchive
// directly instead of OpenArchive, Close has no effect.
func (a *Archive) Close() error {
	if a.closer != nil {
		err := a.closer.Close()
		a.closer = nil
		return err
	}
	return nil
}

// Lookup finds the archive member defining name, following the same
// chained-hash-table walk the linker does when resolving an
// unsatisfied symbol against a library.
func (a *Archive) Lookup(name string) (*ArchiveMember, bool) {
	bucket := types.LSTBucket(types.LSTHash(name))
	for _, e := range a.symbolsByBucket[bucket] {
		if e.name == name {
			if int(e.somIndex) >= len(a.Members) {
				return nil, false
			}
			return a.Members[e.somIndex], true
		}
	}
	return nil, false
}

// Open parses this member's embedded SOM file, caching the result for
// subsequent calls.
func (m *ArchiveMember) Open() (*File, error) {
	if m.file != nil {
		return m.file, nil
	}
	data := make([]byte, m.Length)
	if _, err := m.sr.ReadAt(data, int64(m.Location)); err != nil {
		return nil, malformedArchive("ArchiveMember.Open", fmt.Errorf("reading member contents: %w", err))
	}
	f, err := NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	m.file = f
	return m.file, nil
}
