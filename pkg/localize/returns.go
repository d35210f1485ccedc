package localize

import (
	"github.com/c99cc/sysvcc/pkg/air"
	"github.com/c99cc/sysvcc/pkg/ctypes"
)

// localizeReturn rewrites one neutral OpReturn per spec 4.5: a Memory-class
// result copies through the routine's hidden retptr (also left in RAX, the
// SysV convention for an sret-returning function); a small aggregate packs
// into RAX/RDX or XMM0/XMM1; a scalar loads directly into RAX or XMM0. Once
// localized the instruction carries no operand — the value lives in the
// fixed return registers by convention.
func (lz *Localizer) localizeReturn(r *air.Routine, insn *air.Insn) {
	t := insn.OperandType
	if t == nil || len(insn.Operands) == 0 {
		return
	}

	pre := air.NewList()
	classes := Classify(t)
	value := insn.Operands[0]

	switch {
	case IsMemoryClass(classes):
		ptrType := ctypes.PointerTo(t)
		ptrReg := lz.vreg()
		pre.Emit(air.OpLoad, ptrType, air.Register(ptrReg), air.SymbolOperand(r.Retptr))
		size, _ := t.Size()
		// A final chunk shorter than 8 bytes shrinks to the
		// largest-fitting load instead of reading/writing past size.
		for off := int64(0); off < size; {
			ct := narrowestChunk(ClassInteger, size-off)
			n, _ := ct.Size()
			tmp := lz.vreg()
			pre.Emit(air.OpLoad, ct, air.Register(tmp), air.IndirectRegister(value.Reg, off))
			pre.Emit(air.OpAssign, ct, air.IndirectRegister(ptrReg, off), air.Register(tmp))
			off += n
		}
		pre.Emit(air.OpAssign, ptrType, air.Register(air.RegRAX), air.Register(ptrReg))

	case len(classes) == 1 && !t.IsAggregate():
		dst := air.RegRAX
		if classes[0] == ClassSse {
			dst = air.RegXMM0
		}
		pre.Emit(air.OpAssign, t, air.Register(dst), value)

	default:
		intRets := []air.Reg{air.RegRAX, air.RegRDX}
		sseRets := []air.Reg{air.RegXMM0, air.RegXMM1}
		ii, si := 0, 0
		size, _ := t.Size()
		for eb, c := range classes {
			var dst air.Reg
			if c == ClassSse {
				dst = sseRets[si]
				si++
			} else {
				dst = intRets[ii]
				ii++
			}
			loadEightbyteBackward(pre, dst, c, value.Reg, int64(eb)*8, eightbyteRemaining(size, int64(eb)))
		}
	}

	spliceBefore(r.Insns, insn, pre)
	insn.Operands = nil
}
