package x86gen

import (
	"fmt"

	"github.com/c99cc/sysvcc/pkg/air"
)

// frame is the naive "everything lives on the stack" layout this trivial
// backend uses in place of a real register allocator: every virtual
// register and every Declare'd symbol gets its own fixed [rbp-N] slot,
// assigned the first time layoutFrame encounters it.
type frame struct {
	vregOffset   map[air.Reg]int64
	symbolOffset map[air.Symbol]int64
	size         int64
}

// layoutFrame walks every instruction once to discover every vreg/symbol
// that needs a slot, growing the frame by one qword (or, for a Declare'd
// aggregate, enough qwords to hold it) per new name.
func layoutFrame(r *air.Routine) *frame {
	f := &frame{vregOffset: make(map[air.Reg]int64), symbolOffset: make(map[air.Symbol]int64)}

	r.Insns.Each(func(insn *air.Insn) {
		if insn.Op == air.OpDeclare && len(insn.Operands) > 0 {
			sym := insn.Operands[0].Symbol
			size := int64(8)
			if insn.OperandType != nil {
				if n, ok := insn.OperandType.Size(); ok {
					size = alignUp(n, 8)
				}
			}
			f.reserveSymbol(sym, size)
			return
		}
		for _, op := range insn.Operands {
			f.noteOperand(op)
		}
	})

	return f
}

func (f *frame) noteOperand(op air.Operand) {
	switch op.Kind {
	case air.OperandRegister:
		f.reserveVreg(op.Reg)
	case air.OperandIndirectRegister:
		f.reserveVreg(op.Reg)
		if op.HasIndex {
			f.reserveVreg(op.Index)
		}
	case air.OperandSymbol, air.OperandIndirectSymbol:
		if _, ok := f.symbolOffset[op.Symbol]; !ok {
			f.reserveSymbol(op.Symbol, 8)
		}
	}
}

func (f *frame) reserveVreg(r air.Reg) {
	if r < air.PhysicalRegisterCount {
		return
	}
	if _, ok := f.vregOffset[r]; ok {
		return
	}
	f.size += 8
	f.vregOffset[r] = f.size
}

func (f *frame) reserveSymbol(sym air.Symbol, size int64) {
	if _, ok := f.symbolOffset[sym]; ok {
		return
	}
	f.size += size
	f.symbolOffset[sym] = f.size
}

func alignUp(n, align int64) int64 {
	return (n + align - 1) / align * align
}

// vregMem returns the [rbp-N] operand text for a virtual register's slot.
func (f *frame) vregMem(r air.Reg) string {
	off, ok := f.vregOffset[r]
	if !ok {
		return "0(%rbp)"
	}
	return fmt.Sprintf("-%d(%%rbp)", off)
}

// symbolMem returns the [rbp-N] operand text for a Declare'd local's slot.
func (f *frame) symbolMem(sym air.Symbol) string {
	off, ok := f.symbolOffset[sym]
	if !ok {
		return "0(%rbp)"
	}
	return fmt.Sprintf("-%d(%%rbp)", off)
}

// indirectMem renders an OperandIndirectRegister's addressing text, given
// that the caller has already materialized the base (and index, if any)
// into the fixed address scratch registers addrBaseReg/addrIndexReg.
func (f *frame) indirectMem(op air.Operand) string {
	if op.HasIndex {
		return fmt.Sprintf("%d(%%%s,%%%s,%d)", op.Disp, addrBaseReg, addrIndexReg, op.Scale)
	}
	return fmt.Sprintf("%d(%%%s)", op.Disp, addrBaseReg)
}

// addrBaseReg/addrIndexReg are the scratch registers an indirect operand's
// base/index are loaded into before addressing, kept disjoint from
// rax/rcx (the value scratch registers) so a Load through an indirect
// operand can still use rax for the loaded value itself.
const (
	addrBaseReg  = "rbx"
	addrIndexReg = "r11"
)
