package air

import "github.com/c99cc/sysvcc/pkg/ctypes"

// Insn is one AIR instruction, a node of a routine's doubly-linked list
// (spec 3.3/3.4: "insertions and removals maintain doubly-linked
// invariants... instructions removed... are never leaked"). Operand 0, by
// convention, is the destination for any instruction that produces a
// value.
type Insn struct {
	Op           Op
	OperandType  *ctypes.Type
	Operands     []Operand
	FCallSret    bool // metadata: true for a FuncCall returning a large aggregate

	// ArgTypes/Variadic are OpFuncCall-only metadata: the C type of each
	// argument register in Operands[2:], in source order, and whether the
	// call site needs the SysV `%al` SSE-register-count convention (true
	// when the callee's prototype is variadic, or when the callee has no
	// prototype at all, per spec 4.5). Neither fits the Operand sum type
	// (an argument register carries a value, not a type), so the call
	// site's classification needs them recorded alongside the instruction
	// rather than folded into Operands.
	ArgTypes []*ctypes.Type
	Variadic bool

	prev, next *Insn
}

// Dest returns operand 0, the destination by the spec's operand-0
// convention, or the zero Operand if the instruction has none.
func (i *Insn) Dest() Operand {
	if len(i.Operands) == 0 {
		return Operand{}
	}
	return i.Operands[0]
}

// Prev/Next expose the list links read-only; callers splice via the
// Routine/List helpers below rather than mutating them directly.
func (i *Insn) Prev() *Insn { return i.prev }
func (i *Insn) Next() *Insn { return i.next }

// List is a routine's instruction stream: a doubly-linked list with a
// dummy head so that SETUP/FINALIZE (spec 4.4) and mid-stream splicing
// never need nil checks at the ends.
type List struct {
	head, tail *Insn // dummy sentinels, never exposed to callers
}

// NewList returns an empty list already framed by its two sentinels —
// the Go analogue of SETUP's dummy Nop head, generalized to a
// doubly-linked dummy pair so FINALIZE is just "read between the
// sentinels" rather than a separate detach step.
func NewList() *List {
	head := &Insn{Op: OpNop}
	tail := &Insn{Op: OpNop}
	head.next = tail
	tail.prev = head
	return &List{head: head, tail: tail}
}

// PushBack appends insn at the end of the list.
func (l *List) PushBack(insn *Insn) *Insn {
	insn.prev = l.tail.prev
	insn.next = l.tail
	l.tail.prev.next = insn
	l.tail.prev = insn
	return insn
}

// Emit is shorthand for constructing and appending an instruction.
func (l *List) Emit(op Op, t *ctypes.Type, operands ...Operand) *Insn {
	return l.PushBack(&Insn{Op: op, OperandType: t, Operands: operands})
}

// InsertBefore splices insn immediately before at.
func (l *List) InsertBefore(at, insn *Insn) {
	insn.prev = at.prev
	insn.next = at
	at.prev.next = insn
	at.prev = insn
}

// Remove detaches insn from the list. The caller owns the detached node
// from here (reinsert it elsewhere, or let it be discarded — never both
// kept live and forgotten, per spec 3.4).
func (l *List) Remove(insn *Insn) {
	insn.prev.next = insn.next
	insn.next.prev = insn.prev
	insn.prev, insn.next = nil, nil
}

// Front/Back return the first/last real instruction, or nil if the list
// holds only its sentinels.
func (l *List) Front() *Insn {
	if l.head.next == l.tail {
		return nil
	}
	return l.head.next
}

func (l *List) Back() *Insn {
	if l.tail.prev == l.head {
		return nil
	}
	return l.tail.prev
}

// Each calls fn for every real instruction in order; fn may remove the
// current instruction (Each reads the next link before calling fn).
func (l *List) Each(fn func(*Insn)) {
	for n := l.head.next; n != l.tail; {
		next := n.next
		fn(n)
		n = next
	}
}

// EachReverse calls fn for every real instruction from last to first,
// grounding the φ-removal pass's reverse walk (spec 4.5).
func (l *List) EachReverse(fn func(*Insn)) {
	for n := l.tail.prev; n != l.head; {
		prev := n.prev
		fn(n)
		n = prev
	}
}

// Append moves every instruction of other onto the end of l, leaving
// other empty. This is how a parent AST node "composes by copying child
// instruction sequences into their own list" (spec 4.4) — for sequential
// composition the child's sequence becomes part of the parent's, not a
// separate allocation.
func (l *List) Append(other *List) {
	if other.Front() == nil {
		return
	}
	first, last := other.head.next, other.tail.prev
	first.prev = l.tail.prev
	l.tail.prev.next = first
	last.next = l.tail
	l.tail.prev = last
	other.head.next = other.tail
	other.tail.prev = other.head
}

// Len counts the real instructions (O(n); used by tests and printers, not
// on any hot path).
func (l *List) Len() int {
	n := 0
	l.Each(func(*Insn) { n++ })
	return n
}

// Routine is one function's AIR body (spec 3.3's AirRoutine).
type Routine struct {
	Symbol      Symbol
	Insns       *List
	UsesVarargs bool
	Retptr      Symbol // non-nil => hidden sret pointer parameter

	// Params/ParamTypes name the routine's parameters in declaration order,
	// independent of the leading OpDeclare instructions airgen emits for
	// them: the localizer needs an unambiguous parameter count before it
	// can tell a parameter's Declare apart from the body's first local.
	Params     []Symbol
	ParamTypes []*ctypes.Type

	// ReturnType is the C return type; the localizer classifies it to
	// decide whether Retptr is needed before it ever sees a Return insn.
	ReturnType *ctypes.Type

	// VaGPSave/VaFPSave/VaOverflowDisp describe a variadic routine's
	// register save area, set up once by the prologue and consulted by
	// every VaStart in the body (spec 4.5: "materializes the va_list's
	// three fields... using the function's parameter classification
	// history").
	VaGPSave       Symbol
	VaFPSave       Symbol
	VaOverflowDisp int64
}

// Module owns every AirData and AirRoutine produced for one translation
// unit (spec 3.3's AirModule), plus the process-wide monotonic vreg
// counter scoped to it (spec 5: "a process-wide monotonic generator
// scoped to the current AirModule").
type Module struct {
	Rodata   []*Data
	Data     []*Data
	Routines []*Routine
	Locale   Locale

	nextVReg Reg
}

// NewModule creates an empty module whose virtual register numbering
// starts immediately after the fixed physical registers.
func NewModule(locale Locale) *Module {
	return &Module{Locale: locale, nextVReg: PhysicalRegisterCount}
}

// NextVReg allocates a fresh virtual register id.
func (m *Module) NextVReg() Reg {
	r := m.nextVReg
	m.nextVReg++
	return r
}

// AddRoutine appends and returns a new routine for sym.
func (m *Module) AddRoutine(sym Symbol) *Routine {
	r := &Routine{Symbol: sym, Insns: NewList()}
	m.Routines = append(m.Routines, r)
	return r
}

// AddData appends a mutable data object; AddRodata appends a read-only one.
func (m *Module) AddData(d *Data) { m.Data = append(m.Data, d) }
func (m *Module) AddRodata(d *Data) {
	d.ReadOnly = true
	m.Rodata = append(m.Rodata, d)
}
