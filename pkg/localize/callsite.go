package localize

import (
	"github.com/c99cc/sysvcc/pkg/air"
	"github.com/c99cc/sysvcc/pkg/ctypes"
)

// volatileRegs are every register the SysV ABI lets a callee clobber; the
// localizer marks each with a Blip right after a call so nothing downstream
// mistakes a stale value in one for still being live (spec 4.5).
var volatileRegs = []air.Reg{
	air.RegRAX, air.RegRCX, air.RegRDX, air.RegRSI, air.RegRDI,
	air.RegR8, air.RegR9, air.RegR10, air.RegR11,
	air.RegXMM0, air.RegXMM1, air.RegXMM2, air.RegXMM3, air.RegXMM4,
	air.RegXMM5, air.RegXMM6, air.RegXMM7, air.RegXMM8, air.RegXMM9,
	air.RegXMM10, air.RegXMM11, air.RegXMM12, air.RegXMM13, air.RegXMM14, air.RegXMM15,
}

// stackChunk is one eightbyte queued for a push, recorded in argument order
// so it can be emitted in the reverse (right-to-left) order SysV pushes
// arguments in.
type stackChunk struct {
	t   *ctypes.Type
	src air.Operand
}

// localizeCall rewrites one neutral OpFuncCall into its SysV-legal form:
// classify every argument, assign eightbytes to the Integer/Sse pools or the
// stack, materialize a hidden sret pointer for a large aggregate return,
// issue the call against just [dest, callee], unpack the result out of
// RAX/RDX/XMM0/XMM1, and mark every volatile register Blip'd.
func (lz *Localizer) localizeCall(r *air.Routine, insn *air.Insn) {
	dest := insn.Operands[0]
	callee := insn.Operands[1]
	argRegs := insn.Operands[2:]

	pre := air.NewList()
	intIdx, sseIdx := 0, 0
	var stack []stackChunk

	retClasses := Classify(insn.OperandType)
	retIsMemory := IsMemoryClass(retClasses) && insn.OperandType.Kind != ctypes.Void

	var sretSym air.Symbol
	if retIsMemory {
		sretSym = lz.anonSymbol("sret")
		ptrType := ctypes.PointerTo(insn.OperandType)
		pre.Emit(air.OpDeclare, insn.OperandType, air.SymbolOperand(sretSym))
		if reg, ok := lz.tryAlloc(ClassInteger, &intIdx, &sseIdx); ok {
			pre.Emit(air.OpLoadAddr, ptrType, air.Register(reg), air.SymbolOperand(sretSym))
		}
	}

	for i, argReg := range argRegs {
		var t *ctypes.Type
		if i < len(insn.ArgTypes) {
			t = insn.ArgTypes[i]
		} else {
			t = &ctypes.Type{Kind: ctypes.Long} // variadic tail with no recorded type
		}
		lz.placeArgument(pre, t, argReg, &intIdx, &sseIdx, &stack)
	}

	// insn.Variadic is airgen's combined "variadic or unprototyped callee"
	// flag (spec 4.5); either way the call site must tell the callee how
	// many SSE registers it used, since neither case gives the callee a
	// parameter list of its own to infer that from.
	if insn.Variadic {
		pre.Emit(air.OpAssign, &ctypes.Type{Kind: ctypes.Char}, air.Register(air.RegRAX), air.IntegerConstant(uint64(sseIdx)))
	}

	for i := len(stack) - 1; i >= 0; i-- {
		pre.Emit(air.OpPush, stack[i].t, stack[i].src)
	}

	spliceBefore(r.Insns, insn, pre)

	insn.Operands = []air.Operand{dest, callee}

	post := air.NewList()
	for _, vr := range volatileRegs {
		post.Emit(air.OpBlip, nil, air.Register(vr))
	}

	switch {
	case retIsMemory:
		if dest.Kind == air.OperandRegister {
			post.Emit(air.OpLoadAddr, insn.OperandType, dest, air.SymbolOperand(sretSym))
		}
	case len(retClasses) == 0 || insn.OperandType.Kind == ctypes.Void:
		// no result to unpack
	case len(retClasses) == 1 && !insn.OperandType.IsAggregate():
		if retClasses[0] == ClassSse {
			post.Emit(air.OpAssign, insn.OperandType, dest, air.Register(air.RegXMM0))
		} else {
			post.Emit(air.OpAssign, insn.OperandType, dest, air.Register(air.RegRAX))
		}
	default:
		// Small aggregate returned across registers: materialize a temp and
		// store each eightbyte out of RAX/RDX or XMM0/XMM1 in turn.
		tmp := lz.anonSymbol("retagg")
		post.Emit(air.OpDeclare, insn.OperandType, air.SymbolOperand(tmp))
		intRets := []air.Reg{air.RegRAX, air.RegRDX}
		sseRets := []air.Reg{air.RegXMM0, air.RegXMM1}
		ii, si := 0, 0
		retSize, _ := insn.OperandType.Size()
		for eb, c := range retClasses {
			var src air.Reg
			if c == ClassSse {
				src = sseRets[si]
				si++
			} else {
				src = intRets[ii]
				ii++
			}
			base := int64(eb) * 8
			storeEightbyteForward(post, func(off int64) air.Operand {
				return air.IndirectSymbol(tmp, base+off)
			}, c, src, eightbyteRemaining(retSize, int64(eb)))
		}
		post.Emit(air.OpLoadAddr, insn.OperandType, dest, air.SymbolOperand(tmp))
	}

	spliceAfter(r.Insns, insn, post)
}

// placeArgument classifies t and either assigns argReg's eightbyte(s)
// directly to the next free Integer/Sse registers, loading chunks out of
// the aggregate address argReg holds when t spans more than one eightbyte,
// or queues it onto the stack list when the class or pool is exhausted.
func (lz *Localizer) placeArgument(pre *air.List, t *ctypes.Type, argReg air.Operand, intIdx, sseIdx *int, stack *[]stackChunk) {
	classes := Classify(t)

	if len(classes) == 1 && !t.IsAggregate() {
		reg, ok := lz.tryAlloc(classes[0], intIdx, sseIdx)
		if ok {
			pre.Emit(air.OpAssign, t, air.Register(reg), argReg)
			return
		}
		*stack = append(*stack, stackChunk{t: t, src: argReg})
		return
	}

	ulong := &ctypes.Type{Kind: ctypes.ULong}
	size, _ := t.Size()

	if IsMemoryClass(classes) || !lz.poolHasRoom(classes, *intIdx, *sseIdx) {
		for eb := range classes {
			remaining := eightbyteRemaining(size, int64(eb))
			if remaining >= 8 {
				*stack = append(*stack, stackChunk{t: ulong, src: air.IndirectRegister(argReg.Reg, int64(eb)*8)})
				continue
			}
			// A short final eightbyte still pushes as one 8-byte stack
			// slot, folded together first so the read never runs past t.
			tmp := lz.packPartialEightbyte(pre, argReg.Reg, int64(eb)*8, remaining)
			*stack = append(*stack, stackChunk{t: ulong, src: air.Register(tmp)})
		}
		return
	}

	for eb, c := range classes {
		reg, _ := lz.tryAlloc(c, intIdx, sseIdx)
		loadEightbyteBackward(pre, reg, c, argReg.Reg, int64(eb)*8, eightbyteRemaining(size, int64(eb)))
	}
}

func (lz *Localizer) poolHasRoom(classes []Class, intIdx, sseIdx int) bool {
	needInt, needSse := 0, 0
	for _, c := range classes {
		if c == ClassSse || c == ClassSseUp {
			needSse++
		} else {
			needInt++
		}
	}
	return intIdx+needInt <= len(air.IntArgRegs) && sseIdx+needSse <= len(air.SSEArgRegs)
}

func (lz *Localizer) tryAlloc(c Class, intIdx, sseIdx *int) (air.Reg, bool) {
	switch c {
	case ClassSse, ClassSseUp:
		if *sseIdx < len(air.SSEArgRegs) {
			r := air.SSEArgRegs[*sseIdx]
			*sseIdx++
			return r, true
		}
	default:
		if *intIdx < len(air.IntArgRegs) {
			r := air.IntArgRegs[*intIdx]
			*intIdx++
			return r, true
		}
	}
	return air.RegNone, false
}

func (lz *Localizer) anonSymbol(prefix string) air.Symbol {
	return maskSymbol(lz.nextMaskName("." + prefix))
}

func spliceBefore(list *air.List, at *air.Insn, items *air.List) {
	items.Each(func(i *air.Insn) {
		items.Remove(i)
		list.InsertBefore(at, i)
	})
}

func spliceAfter(list *air.List, at *air.Insn, items *air.List) {
	after := at.Next()
	items.Each(func(i *air.Insn) {
		items.Remove(i)
		if after == nil {
			list.PushBack(i)
		} else {
			list.InsertBefore(after, i)
		}
	})
}
