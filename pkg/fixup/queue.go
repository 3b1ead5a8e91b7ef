// Package fixup implements the SOM relocation ("fixup") stream codec: the
// per-opcode encoder and decoder, the 4-slot previous-fixup cache, and the
// arg-reloc packing rules that drive CALL relocations.
package fixup

// queueSlots is the fixed size of the previous-fixup cache.
const queueSlots = 4

// entry is one cached multi-byte fixup encoding: the raw bytes as they
// were (or will be) written to the stream.
type entry struct {
	bytes []byte
	used  bool
}

// Queue is the 4-slot MRU cache of recently emitted multi-byte fixups
// that lets the encoder and decoder trade a handful of bytes for a
// single R_PREV_FIXUP+idx opcode. It is owned by one in-flight encode or
// decode pass over one subspace's fixup stream; it carries no state
// across subspaces and must be reinitialized at the start of each one
// (and, on the encoder side, after every stream-buffer flush, since
// slots reference bytes in that buffer).
type Queue struct {
	slots [queueSlots]entry
}

// NewQueue returns an empty queue, ready for one subspace's pass.
func NewQueue() *Queue {
	return &Queue{}
}

// Init clears every slot, as required at the start of each subspace and
// after each encoder buffer flush.
func (q *Queue) Init() {
	for i := range q.slots {
		q.slots[i] = entry{}
	}
}

// Find does a linear scan for a slot holding exactly these bytes,
// returning its index and true on an equal-size, byte-equal match.
func (q *Queue) Find(b []byte) (int, bool) {
	for i, e := range q.slots {
		if e.used && len(e.bytes) == len(b) && bytesEqual(e.bytes, b) {
			return i, true
		}
	}
	return 0, false
}

// Insert shifts slots 0..2 down to 1..3 (dropping whatever was in slot
// 3) and writes b into the new slot 0, the most-recently-used position.
func (q *Queue) Insert(b []byte) {
	cp := make([]byte, len(b))
	copy(cp, b)
	q.slots[3] = q.slots[2]
	q.slots[2] = q.slots[1]
	q.slots[1] = q.slots[0]
	q.slots[0] = entry{bytes: cp, used: true}
}

// Promote moves the entry at idx to slot 0, sliding the intervening
// slots down by one so their relative recency order is preserved.
// idx == 0 is a no-op. idx must be in [0, queueSlots); a caller passing
// an out-of-range index has a bug, not a recoverable runtime condition.
func (q *Queue) Promote(idx int) {
	if idx == 0 {
		return
	}
	if idx < 0 || idx >= queueSlots {
		panic("fixup: Queue.Promote index out of range")
	}
	e := q.slots[idx]
	for i := idx; i > 0; i-- {
		q.slots[i] = q.slots[i-1]
	}
	q.slots[0] = e
}

// At returns the bytes cached in slot idx, or nil if that slot is empty.
func (q *Queue) At(idx int) []byte {
	if idx < 0 || idx >= queueSlots {
		return nil
	}
	if !q.slots[idx].used {
		return nil
	}
	return q.slots[idx].bytes
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
