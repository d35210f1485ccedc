// Package air defines the AIR (Abstract Intermediate Representation): a
// flat, doubly-linked instruction stream per routine, the lowering target
// for pkg/airgen and the mutation target for pkg/localize (spec 3.3).
// Grounded on original_source/air.c's air_t/air_routine_t/air_insn_t,
// generalized from its malloc'd singly-linked insn list (traversed only
// forward, deleted recursively) to an explicit doubly-linked Go struct the
// way pkg/csharpminor generalizes Csharpminor.v's inductive statement type
// into Go enums with String() methods.
package air

import "github.com/c99cc/sysvcc/pkg/ctypes"

// Locale is the target enum an AirModule is currently expressed against.
type Locale int

const (
	Neutral Locale = iota
	X86_64
)

func (l Locale) String() string {
	if l == X86_64 {
		return "x86-64"
	}
	return "neutral"
}

// Reg is a register id: the first N ids (PhysicalRegisterCount) name fixed
// physical registers (spec 4.5's RAX/RDI/... pools); ids at or above that
// are virtual registers assigned by Module.NextVReg.
type Reg uint32

// Physical x86-64 SysV registers used as fixed Reg ids by the localizer.
const (
	RegNone Reg = iota
	RegRAX
	RegRBX
	RegRCX
	RegRDX
	RegRSI
	RegRDI
	RegRBP
	RegRSP
	RegR8
	RegR9
	RegR10
	RegR11
	RegR12
	RegR13
	RegR14
	RegR15
	RegXMM0
	RegXMM1
	RegXMM2
	RegXMM3
	RegXMM4
	RegXMM5
	RegXMM6
	RegXMM7
	RegXMM8
	RegXMM9
	RegXMM10
	RegXMM11
	RegXMM12
	RegXMM13
	RegXMM14
	RegXMM15

	// PhysicalRegisterCount is the first id available to NextVReg.
	PhysicalRegisterCount
)

var regNames = map[Reg]string{
	RegRAX: "rax", RegRBX: "rbx", RegRCX: "rcx", RegRDX: "rdx",
	RegRSI: "rsi", RegRDI: "rdi", RegRBP: "rbp", RegRSP: "rsp",
	RegR8: "r8", RegR9: "r9", RegR10: "r10", RegR11: "r11",
	RegR12: "r12", RegR13: "r13", RegR14: "r14", RegR15: "r15",
	RegXMM0: "xmm0", RegXMM1: "xmm1", RegXMM2: "xmm2", RegXMM3: "xmm3",
	RegXMM4: "xmm4", RegXMM5: "xmm5", RegXMM6: "xmm6", RegXMM7: "xmm7",
	RegXMM8: "xmm8", RegXMM9: "xmm9", RegXMM10: "xmm10", RegXMM11: "xmm11",
	RegXMM12: "xmm12", RegXMM13: "xmm13", RegXMM14: "xmm14", RegXMM15: "xmm15",
}

func (r Reg) String() string {
	if n, ok := regNames[r]; ok {
		return n
	}
	if r >= PhysicalRegisterCount {
		return itoa(int64(r - PhysicalRegisterCount) + 1000)
	}
	return "?"
}

// IntArgRegs/SSEArgRegs are the System V AMD64 argument-passing pools (spec
// 4.5), in the order arguments are assigned to them.
var IntArgRegs = []Reg{RegRDI, RegRSI, RegRDX, RegRCX, RegR8, RegR9}
var SSEArgRegs = []Reg{RegXMM0, RegXMM1, RegXMM2, RegXMM3, RegXMM4, RegXMM5, RegXMM6, RegXMM7}

// Relocation is one pointer-sized patch site within an AirData's bytes.
type Relocation struct {
	Offset       int64
	TargetSymbol Symbol // nil => a pure integer, not a symbol address
	Addend       int64
}

// Symbol is the minimal surface AIR needs from a symbol-table entry: AIR
// operands and AirData borrow symbols rather than owning them (spec 3.4).
type Symbol interface {
	SymbolName() string
}

// Data is a static object living in .data/.rodata (spec 3.3's AirData).
type Data struct {
	Symbol      Symbol
	ReadOnly    bool
	Bytes       []byte
	Relocations []Relocation
}

// LabelNamespace distinguishes the three disjoint id spaces spec 4.4 calls
// for so user, statement-internal, and expression-join labels never
// collide despite sharing one monotonic counter per namespace.
type LabelNamespace byte

const (
	NSUser       LabelNamespace = 'L'
	NSStatement  LabelNamespace = 'S'
	NSExpression LabelNamespace = 'E'
)

// OperandKind tags which field of Operand is meaningful.
type OperandKind int

const (
	OperandRegister OperandKind = iota
	OperandIndirectRegister
	OperandSymbol
	OperandIndirectSymbol
	OperandIntegerConstant
	OperandFloatingConstant
	OperandLabel
	OperandType
)

// Operand is an AirInsn argument (spec 3.3's AirOperand sum type).
type Operand struct {
	Kind OperandKind

	Reg Reg // OperandRegister, and the base of OperandIndirectRegister

	// OperandIndirectRegister
	Disp      int64
	HasIndex  bool
	Index     Reg
	Scale     int64

	Symbol Symbol // OperandSymbol, OperandIndirectSymbol

	// OperandIndirectSymbol
	SymOffset int64

	IntConst   uint64
	FloatConst float64

	LabelID  uint64
	LabelNS  LabelNamespace

	Type *ctypes.Type // OperandType
}

func Register(r Reg) Operand { return Operand{Kind: OperandRegister, Reg: r} }

func IndirectRegister(base Reg, disp int64) Operand {
	return Operand{Kind: OperandIndirectRegister, Reg: base, Disp: disp}
}

func IndirectRegisterIndexed(base Reg, disp int64, index Reg, scale int64) Operand {
	return Operand{Kind: OperandIndirectRegister, Reg: base, Disp: disp, HasIndex: true, Index: index, Scale: scale}
}

func SymbolOperand(sym Symbol) Operand { return Operand{Kind: OperandSymbol, Symbol: sym} }

func IndirectSymbol(sym Symbol, offset int64) Operand {
	return Operand{Kind: OperandIndirectSymbol, Symbol: sym, SymOffset: offset}
}

func IntegerConstant(v uint64) Operand { return Operand{Kind: OperandIntegerConstant, IntConst: v} }

func FloatingConstant(v float64) Operand { return Operand{Kind: OperandFloatingConstant, FloatConst: v} }

func Label(id uint64, ns LabelNamespace) Operand {
	return Operand{Kind: OperandLabel, LabelID: id, LabelNS: ns}
}

func TypeOperand(t *ctypes.Type) Operand { return Operand{Kind: OperandType, Type: t} }

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
