package localize

import (
	"github.com/c99cc/sysvcc/pkg/air"
	"github.com/c99cc/sysvcc/pkg/ctypes"
)

// paramSlot is where one eightbyte of an incoming parameter arrives.
type paramSlot struct {
	reg       air.Reg // RegNone => stack-resident
	stackDisp int64   // valid when reg == RegNone
}

// emitPrologue classifies every parameter per spec 4.5 and rewrites the
// routine's leading parameter Declares into either DeclareRegister (for a
// register-resident scalar) or a Declare followed by the chunked copy that
// materializes the parameter's storage from wherever it actually arrived —
// an argument register, or the caller's overflow stack area starting at
// [rbp+16] (return address + saved rbp).
func (lz *Localizer) emitPrologue(r *air.Routine) {
	intIdx, sseIdx := 0, 0
	stackDisp := int64(16)

	pre := air.NewList()

	if r.ReturnType != nil && IsMemoryClass(Classify(r.ReturnType)) {
		retptrSym := lz.anonSymbol("retptr")
		r.Retptr = retptrSym
		ptrType := ctypes.PointerTo(r.ReturnType)
		// Spilled to its own stack slot, not DeclareRegister'd: the
		// pointer must survive past any intervening call, which clobbers
		// RDI along with every other volatile register.
		pre.Emit(air.OpDeclare, ptrType, air.SymbolOperand(retptrSym))
		pre.Emit(air.OpAssign, ptrType, air.SymbolOperand(retptrSym), air.Register(air.IntArgRegs[intIdx]))
		intIdx++ // the hidden sret pointer consumed RDI; params start at RSI
	}

	for i, sym := range r.Params {
		t := r.ParamTypes[i]
		classes := Classify(t)

		declareInsn := findParamDeclare(r.Insns, sym)

		if len(classes) == 1 && !t.IsAggregate() && !IsMemoryClass(classes) {
			slot, ok := lz.allocSlot(classes[0], &intIdx, &sseIdx)
			if ok {
				if declareInsn != nil {
					declareInsn.Op = air.OpDeclareRegister
					declareInsn.Operands = []air.Operand{air.SymbolOperand(sym), air.Register(slot.reg)}
				}
				continue
			}
		}

		// Aggregate (or overflowed scalar): storage is a stack slot; copy
		// each eightbyte in from wherever it actually arrived. A short
		// final eightbyte unpacks through the shrinking-chunk-size
		// (8,4,2,1) shift-right sequence so the write never runs past t.
		size, _ := t.Size()
		for eb, c := range classes {
			remaining := eightbyteRemaining(size, int64(eb))
			slot, ok := lz.allocSlot(c, &intIdx, &sseIdx)

			var srcReg air.Reg
			if IsMemoryClass(classes) || !ok {
				srcReg = lz.Module.NextVReg()
				chunkType := &ctypes.Type{Kind: ctypes.ULong}
				if c == ClassSse {
					chunkType = &ctypes.Type{Kind: ctypes.Double}
				}
				pre.Emit(air.OpLoad, chunkType, air.Register(srcReg), air.IndirectRegister(air.RegRBP, stackDisp))
				stackDisp += 8
			} else {
				srcReg = slot.reg
			}

			base := int64(eb) * 8
			storeEightbyteForward(pre, func(off int64) air.Operand {
				return air.IndirectSymbol(sym, base+off)
			}, c, srcReg, remaining)
		}
	}

	if r.UsesVarargs {
		lz.emitRegSaveArea(r, pre, intIdx, sseIdx)
	}
	r.VaOverflowDisp = stackDisp

	if pre.Front() != nil {
		merged := air.NewList()
		merged.Append(pre)
		merged.Append(r.Insns)
		r.Insns = merged
	}
}

// emitRegSaveArea spills every argument register a variadic routine's own
// named parameters left unconsumed, so VaStart's gp/fp pointers can walk
// forward over exactly the registers a call site would have placed
// trailing variadic arguments into.
func (lz *Localizer) emitRegSaveArea(r *air.Routine, pre *air.List, intIdx, sseIdx int) {
	gpRemaining := air.IntArgRegs[intIdx:]
	fpRemaining := air.SSEArgRegs[sseIdx:]

	gpSave := lz.anonSymbol("reg_save_gp")
	fpSave := lz.anonSymbol("reg_save_fp")
	gpType := ctypes.ArrayOf(&ctypes.Type{Kind: ctypes.ULong}, int64(len(gpRemaining)))
	fpType := ctypes.ArrayOf(&ctypes.Type{Kind: ctypes.Double}, int64(len(fpRemaining)))

	pre.Emit(air.OpDeclare, gpType, air.SymbolOperand(gpSave))
	pre.Emit(air.OpDeclare, fpType, air.SymbolOperand(fpSave))
	for i, reg := range gpRemaining {
		pre.Emit(air.OpAssign, &ctypes.Type{Kind: ctypes.ULong}, air.IndirectSymbol(gpSave, int64(i)*8), air.Register(reg))
	}
	for i, reg := range fpRemaining {
		pre.Emit(air.OpAssign, &ctypes.Type{Kind: ctypes.Double}, air.IndirectSymbol(fpSave, int64(i)*8), air.Register(reg))
	}

	r.VaGPSave = gpSave
	r.VaFPSave = fpSave
}

func (lz *Localizer) allocSlot(c Class, intIdx, sseIdx *int) (paramSlot, bool) {
	switch c {
	case ClassInteger:
		if *intIdx < len(air.IntArgRegs) {
			r := air.IntArgRegs[*intIdx]
			*intIdx++
			return paramSlot{reg: r}, true
		}
	case ClassSse, ClassSseUp:
		if *sseIdx < len(air.SSEArgRegs) {
			r := air.SSEArgRegs[*sseIdx]
			*sseIdx++
			return paramSlot{reg: r}, true
		}
	}
	return paramSlot{}, false
}

func findParamDeclare(list *air.List, sym air.Symbol) *air.Insn {
	var found *air.Insn
	list.Each(func(i *air.Insn) {
		if found != nil {
			return
		}
		if i.Op == air.OpDeclare && len(i.Operands) > 0 && i.Operands[0].Kind == air.OperandSymbol && i.Operands[0].Symbol == sym {
			found = i
		}
	})
	return found
}
