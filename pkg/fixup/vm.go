package fixup

// State is the fixup interpreter's register file and work stack. One
// State is created per subspace fixup stream and threaded through every
// opcode the decoder or encoder processes for that stream; nothing in
// it may leak between subspaces.
//
// The register file mirrors the format's named variables: 26 general
// slots (A..Z), nine of which have a documented per-opcode meaning
// (L, D, N, O, R, S, T, U, V). COMP1/COMP2 build arithmetic expressions
// against these registers using a small postfix stack machine; every
// other opcode family just reads and writes the named slots directly,
// so both paths share one State rather than duplicating variable
// storage.
type State struct {
	reg   [26]int64
	stack []int64

	// Carried mode state: once set by a *_MODE opcode it applies to every
	// following relocation until changed or the stream ends.
	callMode  CallMode
	roundMode RoundMode

	Queue *Queue
}

// CallMode is the carried call addressing mode, set by SHORT_PCREL_MODE
// and LONG_PCREL_MODE; S_MODE also sets it to CallModeShortPcrel.
type CallMode int

const (
	CallModeDefault CallMode = iota
	CallModeShortPcrel
	CallModeLongPcrel
)

// RoundMode is the carried rounding mode: N_MODE sets RoundModeNone and
// R_MODE sets RoundModeRound; S_MODE and D_MODE leave it unchanged.
type RoundMode int

const (
	RoundModeNone RoundMode = iota
	RoundModeRound
)

const maxStack = 20

// NewState returns a fresh State for one subspace's fixup stream, with
// every register zeroed and an empty stack.
func NewState() *State {
	return &State{Queue: NewQueue()}
}

// Reset clears all registers, the stack, and the previous-fixup queue,
// as required at the start of each subspace's fixup stream.
func (s *State) Reset() {
	for i := range s.reg {
		s.reg[i] = 0
	}
	s.stack = s.stack[:0]
	s.callMode = CallModeDefault
	s.roundMode = RoundModeNone
	s.Queue.Init()
}

// regIndex maps a named variable letter to its slot in reg.
func regIndex(letter byte) int {
	if letter < 'A' || letter > 'Z' {
		panic("fixup: invalid register letter")
	}
	return int(letter - 'A')
}

// Get reads a named variable by its letter (A-Z).
func (s *State) Get(letter byte) int64 { return s.reg[regIndex(letter)] }

// Set writes a named variable by its letter (A-Z).
func (s *State) Set(letter byte, v int64) { s.reg[regIndex(letter)] = v }

// The nine documented named variables, as typed accessors over the
// general register file: L(ength), D(elta/size-class), N(ame index),
// O(ffset), R(epeat count), S(ymbol index), T(ype), U(nused addend),
// V(alue/addend).
func (s *State) L() int64     { return s.Get('L') }
func (s *State) SetL(v int64) { s.Set('L', v) }
func (s *State) D() int64     { return s.Get('D') }
func (s *State) SetD(v int64) { s.Set('D', v) }
func (s *State) N() int64     { return s.Get('N') }
func (s *State) SetN(v int64) { s.Set('N', v) }
func (s *State) O() int64     { return s.Get('O') }
func (s *State) SetO(v int64) { s.Set('O', v) }
func (s *State) R() int64     { return s.Get('R') }
func (s *State) SetR(v int64) { s.Set('R', v) }
func (s *State) SVar() int64     { return s.Get('S') }
func (s *State) SetSVar(v int64) { s.Set('S', v) }
func (s *State) T() int64     { return s.Get('T') }
func (s *State) SetT(v int64) { s.Set('T', v) }
func (s *State) U() int64     { return s.Get('U') }
func (s *State) SetU(v int64) { s.Set('U', v) }
func (s *State) V() int64     { return s.Get('V') }
func (s *State) SetV(v int64) { s.Set('V', v) }

// Push appends v to the expression stack, used while building a
// COMP1/COMP2 arithmetic expression. It panics on overflow: the format
// bounds expression depth well below maxStack, so hitting the limit
// means a corrupt or hostile stream, which the caller should have
// already rejected via Count.
func (s *State) Push(v int64) {
	if len(s.stack) >= maxStack {
		panic("fixup: expression stack overflow")
	}
	s.stack = append(s.stack, v)
}

// Pop removes and returns the top of the expression stack. It panics if
// the stack is empty, which (like Push's overflow panic) indicates a
// stream the decoder should have already rejected.
func (s *State) Pop() int64 {
	n := len(s.stack)
	if n == 0 {
		panic("fixup: expression stack underflow")
	}
	v := s.stack[n-1]
	s.stack = s.stack[:n-1]
	return v
}

// StackLen reports the current expression stack depth, mainly for
// tests asserting a COMP1/COMP2 expression left exactly the one result
// CODE_EXPR/DATA_EXPR expects to consume.
func (s *State) StackLen() int { return len(s.stack) }

// ExprOp is one postfix operator COMP1/COMP2 can chain: it pops its
// operands off the stack and pushes the result.
type ExprOp byte

const (
	ExprOpAdd ExprOp = iota
	ExprOpSub
	ExprOpDiv
	ExprOpMul
	ExprOpNeg // unary: pops one, pushes -x
)

// Apply executes op against the top of the stack, in the order COMP1/
// COMP2 expressions are documented to use it: for a binary op, the
// second-popped operand is the left-hand side.
func (s *State) Apply(op ExprOp) {
	if op == ExprOpNeg {
		s.Push(-s.Pop())
		return
	}
	rhs := s.Pop()
	lhs := s.Pop()
	switch op {
	case ExprOpAdd:
		s.Push(lhs + rhs)
	case ExprOpSub:
		s.Push(lhs - rhs)
	case ExprOpMul:
		s.Push(lhs * rhs)
	case ExprOpDiv:
		if rhs == 0 {
			panic("fixup: expression division by zero")
		}
		s.Push(lhs / rhs)
	default:
		panic("fixup: unknown expression operator")
	}
}
