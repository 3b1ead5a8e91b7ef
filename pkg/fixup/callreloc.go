package fixup

// ArgRelocation describes how a PCREL_CALL/ABS_CALL's four argument
// slots and return value are relocated between general and floating
// registers at the call site, per the calling convention's 2-bit
// encoding per slot.
type ArgRelocation struct {
	Arg    [4]ArgClass
	Return ArgClass
}

// ArgClass is the 2-bit per-slot code: whether a slot needs no
// relocation, holds a general register value, a floating register
// value, or both halves of a double split across register files.
type ArgClass uint8

const (
	ArgClassNone  ArgClass = 0
	ArgClassGR    ArgClass = 1
	ArgClassFR    ArgClass = 2
	ArgClassSplit ArgClass = 3
)

const argClassBits = 2
const argClassMask = 0x3

// PackArgReloc folds an ArgRelocation into the 10-bit word the fixup
// stream's CALL opcodes carry: the four argument slots in bits 9..2,
// most-significant slot first, and the return class in bits 1..0.
func PackArgReloc(r ArgRelocation) uint16 {
	var w uint16
	for i := 0; i < 4; i++ {
		w <<= argClassBits
		w |= uint16(r.Arg[i] & argClassMask)
	}
	w <<= argClassBits
	w |= uint16(r.Return & argClassMask)
	return w
}

// UnpackArgReloc is PackArgReloc's inverse.
func UnpackArgReloc(word uint16) ArgRelocation {
	var r ArgRelocation
	r.Return = ArgClass(word & argClassMask)
	word >>= argClassBits
	for i := 3; i >= 0; i-- {
		r.Arg[i] = ArgClass(word & argClassMask)
		word >>= argClassBits
	}
	return r
}

// IsTrivial reports whether r needs no relocation at all, the common
// case for calls with no register-carried arguments, letting the
// encoder choose the bare PcrelCallSimple/AbsCallSimple opcode with a
// zero arg-reloc byte instead of spelling out an all-zero word.
func (r ArgRelocation) IsTrivial() bool {
	return r == ArgRelocation{}
}

// simpleCallPatterns is the fixed, small table of argument-slot
// patterns (Return excluded; it is folded into the simple CALL
// payload separately via rtn_bits) the simple CALL encoding can
// address directly, per §4.7. Index into this table is the simple
// payload's "type" field.
var simpleCallPatterns = [5][4]ArgClass{
	{},
	{ArgClassGR},
	{ArgClassFR},
	{ArgClassGR, ArgClassGR},
	{ArgClassFR, ArgClassFR},
}

// simpleCallType reports r's argument pattern's index into
// simpleCallPatterns, and whether it matched one.
func simpleCallType(r ArgRelocation) (int, bool) {
	for i, pat := range simpleCallPatterns {
		if pat == r.Arg {
			return i, true
		}
	}
	return 0, false
}

// pairValue packs one (hi, lo) argument-slot pair into the small
// integer the complex CALL encoding's type field is built from: any
// combination drawn from None/GR/FR packs to 0..8, and the one
// reserved combination (Split, FR) — the split-long-double convention
// — packs to 9. Any other pair (Split paired with anything but FR) has
// no representation.
func pairValue(hi, lo ArgClass) (int, bool) {
	if hi == ArgClassSplit && lo == ArgClassFR {
		return 9, true
	}
	if hi <= ArgClassFR && lo <= ArgClassFR {
		return 3*int(hi) + int(lo), true
	}
	return 0, false
}

// inversePairValue is pairValue's inverse.
func inversePairValue(v int) (hi, lo ArgClass, ok bool) {
	switch {
	case v == 9:
		return ArgClassSplit, ArgClassFR, true
	case v >= 0 && v <= 8:
		return ArgClass(v / 3), ArgClass(v % 3), true
	default:
		return 0, 0, false
	}
}

// complexCallType computes the complex CALL encoding's type field from
// r's two argument-slot pairs and its return class, per §4.7's
// slot_pair_high*40 + slot_pair_low*4 + rtn_bits packing. rtn_bits
// fitting in the low 2 bits of each multiplier term is what makes
// inverseComplexCallType's split by %4 exact.
func complexCallType(r ArgRelocation) (int, bool) {
	hi, ok := pairValue(r.Arg[0], r.Arg[1])
	if !ok {
		return 0, false
	}
	lo, ok := pairValue(r.Arg[2], r.Arg[3])
	if !ok {
		return 0, false
	}
	return hi*40 + lo*4 + int(r.Return), true
}

// inverseComplexCallType is complexCallType's inverse.
func inverseComplexCallType(t int) (ArgRelocation, bool) {
	rtn := t % 4
	rem := (t - rtn) / 4
	a0, a1, ok := inversePairValue(rem / 10)
	if !ok {
		return ArgRelocation{}, false
	}
	a2, a3, ok := inversePairValue(rem % 10)
	if !ok {
		return ArgRelocation{}, false
	}
	return ArgRelocation{Arg: [4]ArgClass{a0, a1, a2, a3}, Return: ArgClass(rtn)}, true
}
