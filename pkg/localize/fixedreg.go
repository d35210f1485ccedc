package localize

import (
	"github.com/c99cc/sysvcc/pkg/air"
	"github.com/c99cc/sysvcc/pkg/ctypes"
)

// localizeDivMod pins idiv/div's fixed operands: dividend in RAX, divisor
// in any register, quotient left in RAX, remainder in RDX. Signed division
// sign-extends RAX into RDX first (the cqo/cdq slot); unsigned division
// just zeroes RDX.
func (lz *Localizer) localizeDivMod(r *air.Routine, insn *air.Insn) {
	t := insn.OperandType
	dest, lhs, rhs := insn.Operands[0], insn.Operands[1], insn.Operands[2]
	signed := insn.Op == air.OpDiv || insn.Op == air.OpMod

	pre := air.NewList()
	pre.Emit(air.OpAssign, t, air.Register(air.RegRAX), lhs)
	if signed {
		pre.Emit(air.OpConvSignExtend, t, air.Register(air.RegRDX), air.Register(air.RegRAX))
	} else {
		pre.Emit(air.OpAssign, t, air.Register(air.RegRDX), air.IntegerConstant(0))
	}
	spliceBefore(r.Insns, insn, pre)

	insn.Operands = []air.Operand{air.Register(air.RegRAX), air.Register(air.RegRAX), rhs}

	post := air.NewList()
	if insn.Op == air.OpDiv || insn.Op == air.OpUDiv {
		post.Emit(air.OpAssign, t, dest, air.Register(air.RegRAX))
	} else {
		post.Emit(air.OpAssign, t, dest, air.Register(air.RegRDX))
	}
	post.Emit(air.OpBlip, nil, air.Register(air.RegRDX))
	spliceAfter(r.Insns, insn, post)
}

// localizeUMul pins unsigned multiply's fixed operands: one factor in RAX,
// the full double-width product left in RDX:RAX.
func (lz *Localizer) localizeUMul(r *air.Routine, insn *air.Insn) {
	t := insn.OperandType
	dest, lhs, rhs := insn.Operands[0], insn.Operands[1], insn.Operands[2]

	pre := air.NewList()
	pre.Emit(air.OpAssign, t, air.Register(air.RegRAX), lhs)
	spliceBefore(r.Insns, insn, pre)

	insn.Operands = []air.Operand{air.Register(air.RegRAX), air.Register(air.RegRAX), rhs}

	post := air.NewList()
	post.Emit(air.OpAssign, t, dest, air.Register(air.RegRAX))
	post.Emit(air.OpBlip, nil, air.Register(air.RegRDX))
	spliceAfter(r.Insns, insn, post)
}

// localizeShift pins a variable shift count into RCX, unless it is already
// an immediate small enough to encode directly.
func (lz *Localizer) localizeShift(r *air.Routine, insn *air.Insn) {
	rhs := insn.Operands[2]
	if rhs.Kind == air.OperandIntegerConstant && rhs.IntConst < 256 {
		return
	}
	pre := air.NewList()
	pre.Emit(air.OpAssign, &ctypes.Type{Kind: ctypes.UChar}, air.Register(air.RegRCX), rhs)
	spliceBefore(r.Insns, insn, pre)
	insn.Operands[2] = air.Register(air.RegRCX)
}

// localizeComparison masks a setcc's byte result up to a clean 0/1 int,
// since setcc only ever writes the low byte of its destination.
func (lz *Localizer) localizeComparison(r *air.Routine, insn *air.Insn) {
	dest := insn.Operands[0]
	post := air.NewList()
	post.Emit(air.OpAnd, insn.OperandType, dest, dest, air.IntegerConstant(1))
	spliceAfter(r.Insns, insn, post)
}

// localizeFloatNegate has no native negate: it becomes an XOR against a
// lazily-created rodata mask holding just the sign bit.
func (lz *Localizer) localizeFloatNegate(r *air.Routine, insn *air.Insn) {
	t := insn.OperandType
	mask := lz.floatNegateMask(t)
	insn.Op = air.OpXor
	insn.Operands = []air.Operand{insn.Operands[0], insn.Operands[1], air.SymbolOperand(mask)}
}

func (lz *Localizer) floatNegateMask(t *ctypes.Type) air.Symbol {
	key := t.Kind.String()
	if sym, ok := lz.floatMasks[key]; ok {
		return sym
	}
	name := lz.nextMaskName(".LFNEG")
	sym := maskSymbol(name)
	bytes := make([]byte, 4)
	if t.Kind == ctypes.Double {
		bytes = make([]byte, 8)
		bytes[7] = 0x80
	} else {
		bytes[3] = 0x80
	}
	lz.Module.AddRodata(&air.Data{Symbol: sym, Bytes: bytes})
	lz.floatMasks[key] = sym
	return sym
}

// localizeMemset pins memset's fixed operands: destination address in RDI,
// fill value in RAX, count in RCX (rep stosb/stosq in x86gen's eventual
// textual form).
func (lz *Localizer) localizeMemset(r *air.Routine, insn *air.Insn) {
	dest, value, count := insn.Operands[0], insn.Operands[1], insn.Operands[2]
	pre := air.NewList()
	ptrType := ctypes.PointerTo(insn.OperandType)
	pre.Emit(air.OpLoadAddr, ptrType, air.Register(air.RegRDI), dest)
	pre.Emit(air.OpAssign, &ctypes.Type{Kind: ctypes.ULong}, air.Register(air.RegRAX), value)
	pre.Emit(air.OpAssign, &ctypes.Type{Kind: ctypes.ULong}, air.Register(air.RegRCX), count)
	spliceBefore(r.Insns, insn, pre)
	insn.Operands = []air.Operand{air.Register(air.RegRDI), air.Register(air.RegRAX), air.Register(air.RegRCX)}
}

// localizeVaStart materializes the routine's three va_list fields (spec
// 4.5): a pointer into the unused tail of the integer register save area,
// a pointer into the unused tail of the float register save area, and a
// pointer to the caller's stack overflow area.
func (lz *Localizer) localizeVaStart(r *air.Routine, insn *air.Insn) {
	ap := insn.Operands[0].Symbol
	ptrType := &ctypes.Type{Kind: ctypes.Long}

	pre := air.NewList()
	if r.VaGPSave != nil {
		gp := lz.vreg()
		pre.Emit(air.OpLoadAddr, ptrType, air.Register(gp), air.SymbolOperand(r.VaGPSave))
		pre.Emit(air.OpAssign, ptrType, air.IndirectSymbol(ap, 0), air.Register(gp))
	}
	if r.VaFPSave != nil {
		fp := lz.vreg()
		pre.Emit(air.OpLoadAddr, ptrType, air.Register(fp), air.SymbolOperand(r.VaFPSave))
		pre.Emit(air.OpAssign, ptrType, air.IndirectSymbol(ap, 8), air.Register(fp))
	}
	overflow := lz.vreg()
	pre.Emit(air.OpAssign, ptrType, air.Register(overflow), air.Register(air.RegRBP))
	pre.Emit(air.OpAdd, ptrType, air.Register(overflow), air.Register(overflow), air.IntegerConstant(uint64(r.VaOverflowDisp)))
	pre.Emit(air.OpAssign, ptrType, air.IndirectSymbol(ap, 16), air.Register(overflow))

	spliceBefore(r.Insns, insn, pre)
	r.Insns.Remove(insn)
}

// localizeVaArg reads the gp or fp pointer field (chosen by the fetched
// type's class), dereferences it, and advances that field by 8 or 16.
func (lz *Localizer) localizeVaArg(r *air.Routine, insn *air.Insn) {
	dest := insn.Operands[0]
	ap := insn.Operands[1].Symbol
	t := insn.OperandType
	ptrType := &ctypes.Type{Kind: ctypes.Long}

	classes := Classify(t)
	fieldOffset := int64(0)
	if len(classes) > 0 && classes[0] == ClassSse {
		fieldOffset = 8
	}
	advance := int64(8)
	if len(classes) > 1 {
		advance = 16
	}

	pre := air.NewList()
	cur := lz.vreg()
	pre.Emit(air.OpLoad, ptrType, air.Register(cur), air.IndirectSymbol(ap, fieldOffset))
	val := lz.vreg()
	pre.Emit(air.OpLoad, t, air.Register(val), air.IndirectRegister(cur, 0))
	pre.Emit(air.OpAssign, t, dest, air.Register(val))
	next := lz.vreg()
	pre.Emit(air.OpAdd, ptrType, air.Register(next), air.Register(cur), air.IntegerConstant(uint64(advance)))
	pre.Emit(air.OpAssign, ptrType, air.IndirectSymbol(ap, fieldOffset), air.Register(next))

	spliceBefore(r.Insns, insn, pre)
	r.Insns.Remove(insn)
}
