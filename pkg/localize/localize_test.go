package localize

import (
	"testing"

	"github.com/c99cc/sysvcc/pkg/air"
	"github.com/c99cc/sysvcc/pkg/ctypes"
)

type testSymbol string

func (s testSymbol) SymbolName() string { return string(s) }

func TestClassifyScalarsAreOneIntegerOrSseEightbyte(t *testing.T) {
	if cs := Classify(ctypes.IntType()); len(cs) != 1 || cs[0] != ClassInteger {
		t.Fatalf("int: expected one Integer eightbyte, got %v", cs)
	}
	if cs := Classify(&ctypes.Type{Kind: ctypes.Double}); len(cs) != 1 || cs[0] != ClassSse {
		t.Fatalf("double: expected one Sse eightbyte, got %v", cs)
	}
}

func TestClassifyLongDoubleIsX87Pair(t *testing.T) {
	cs := Classify(&ctypes.Type{Kind: ctypes.LongDouble})
	if len(cs) != 2 || cs[0] != ClassX87 || cs[1] != ClassX87Up {
		t.Fatalf("expected [x87, x87up], got %v", cs)
	}
}

func TestClassifyLargeAggregateIsMemory(t *testing.T) {
	big := ctypes.ArrayOf(ctypes.IntType(), 20) // 80 bytes > 8 eightbytes
	cs := Classify(big)
	if !IsMemoryClass(cs) {
		t.Fatalf("expected a >8-eightbyte aggregate to classify Memory, got %v", cs)
	}
}

func TestClassifySmallIntPairStructStaysInRegisters(t *testing.T) {
	st := &ctypes.Type{
		Kind:        ctypes.Struct,
		MemberNames: []string{"a", "b"},
		MemberTypes: []*ctypes.Type{ctypes.IntType(), ctypes.IntType()},
	}
	cs := Classify(st)
	if IsMemoryClass(cs) {
		t.Fatalf("expected a small two-int struct to stay register class, got %v", cs)
	}
	for _, c := range cs {
		if c != ClassInteger {
			t.Fatalf("expected every eightbyte Integer, got %v", cs)
		}
	}
}

func newCallRoutine(argTypes []*ctypes.Type, retType *ctypes.Type, variadic bool) (*air.Module, *air.Routine, *air.Insn) {
	m := air.NewModule(air.Neutral)
	r := m.AddRoutine(testSymbol("caller"))
	r.ReturnType = ctypes.VoidType()

	dest := m.NextVReg()
	calleeReg := m.NextVReg()
	operands := []air.Operand{air.Register(dest), air.Register(calleeReg)}
	argRegs := make([]air.Reg, len(argTypes))
	for i := range argTypes {
		argRegs[i] = m.NextVReg()
		operands = append(operands, air.Register(argRegs[i]))
	}
	insn := r.Insns.Emit(air.OpFuncCall, retType, operands...)
	insn.ArgTypes = argTypes
	insn.Variadic = variadic
	return m, r, insn
}

func TestLocalizeCallPlacesScalarArgsInIntArgRegs(t *testing.T) {
	m, r, insn := newCallRoutine([]*ctypes.Type{ctypes.IntType(), ctypes.IntType()}, ctypes.IntType(), false)
	lz := New(m)
	lz.localizeCall(r, insn)

	var sawRDI, sawRSI bool
	r.Insns.Each(func(i *air.Insn) {
		if i.Op == air.OpAssign && len(i.Operands) > 0 && i.Operands[0].Kind == air.OperandRegister {
			if i.Operands[0].Reg == air.RegRDI {
				sawRDI = true
			}
			if i.Operands[0].Reg == air.RegRSI {
				sawRSI = true
			}
		}
	})
	if !sawRDI || !sawRSI {
		t.Fatalf("expected the first two int args to land in RDI/RSI")
	}
}

func TestLocalizeCallUnpacksScalarIntReturnFromRAX(t *testing.T) {
	m, r, insn := newCallRoutine(nil, ctypes.IntType(), false)
	lz := New(m)
	dest := insn.Operands[0]
	lz.localizeCall(r, insn)

	found := false
	r.Insns.Each(func(i *air.Insn) {
		if i.Op == air.OpAssign && len(i.Operands) == 2 &&
			i.Operands[0] == dest && i.Operands[1].Kind == air.OperandRegister && i.Operands[1].Reg == air.RegRAX {
			found = true
		}
	})
	if !found {
		t.Fatalf("expected dest to be assigned from RAX after the call")
	}
}

func TestLocalizeCallEmitsBlipForVolatileRegisters(t *testing.T) {
	m, r, insn := newCallRoutine(nil, ctypes.VoidType(), false)
	lz := New(m)
	lz.localizeCall(r, insn)

	count := 0
	r.Insns.Each(func(i *air.Insn) {
		if i.Op == air.OpBlip {
			count++
		}
	})
	if count != len(volatileRegs) {
		t.Fatalf("expected %d Blip markers, got %d", len(volatileRegs), count)
	}
}

func TestLocalizeDivModSignExtendsIntoRDX(t *testing.T) {
	m := air.NewModule(air.Neutral)
	r := m.AddRoutine(testSymbol("f"))
	dest, lhs, rhs := m.NextVReg(), m.NextVReg(), m.NextVReg()
	insn := r.Insns.Emit(air.OpDiv, ctypes.IntType(), air.Register(dest), air.Register(lhs), air.Register(rhs))

	lz := New(m)
	lz.localizeDivMod(r, insn)

	sawSext := false
	r.Insns.Each(func(i *air.Insn) {
		if i.Op == air.OpConvSignExtend {
			sawSext = true
		}
	})
	if !sawSext {
		t.Fatalf("expected signed div to sign-extend RAX into RDX")
	}
	if insn.Operands[0].Reg != air.RegRAX || insn.Operands[1].Reg != air.RegRAX {
		t.Fatalf("expected the div itself to run against RAX")
	}
}

func TestLocalizeComparisonMasksResultToOneBit(t *testing.T) {
	m := air.NewModule(air.Neutral)
	r := m.AddRoutine(testSymbol("f"))
	dest, lhs, rhs := m.NextVReg(), m.NextVReg(), m.NextVReg()
	insn := r.Insns.Emit(air.OpCmpEq, ctypes.IntType(), air.Register(dest), air.Register(lhs), air.Register(rhs))

	lz := New(m)
	lz.localizeComparison(r, insn)

	sawAnd := false
	r.Insns.Each(func(i *air.Insn) {
		if i.Op == air.OpAnd {
			sawAnd = true
		}
	})
	if !sawAnd {
		t.Fatalf("expected an AND dest,1 mask after a comparison")
	}
}

func TestLocalizeFloatNegateBecomesXorAgainstRodataMask(t *testing.T) {
	m := air.NewModule(air.Neutral)
	r := m.AddRoutine(testSymbol("f"))
	dest, src := m.NextVReg(), m.NextVReg()
	insn := r.Insns.Emit(air.OpNeg, &ctypes.Type{Kind: ctypes.Double}, air.Register(dest), air.Register(src))

	lz := New(m)
	lz.localizeFloatNegate(r, insn)

	if insn.Op != air.OpXor {
		t.Fatalf("expected float negate to become Xor, got %s", insn.Op)
	}
	if len(m.Rodata) != 1 {
		t.Fatalf("expected one rodata mask to be created, got %d", len(m.Rodata))
	}
	if len(m.Rodata[0].Bytes) != 8 || m.Rodata[0].Bytes[7] != 0x80 {
		t.Fatalf("expected an 8-byte mask with the sign bit set, got %v", m.Rodata[0].Bytes)
	}
}

func TestRemovePhisRenamesSourcesToDestAndDeletesPhi(t *testing.T) {
	m := air.NewModule(air.Neutral)
	r := m.AddRoutine(testSymbol("f"))
	a := m.NextVReg()
	b := m.NextVReg()
	dest := m.NextVReg()

	r.Insns.Emit(air.OpLoad, ctypes.IntType(), air.Register(a), air.IntegerConstant(1))
	r.Insns.Emit(air.OpLoad, ctypes.IntType(), air.Register(b), air.IntegerConstant(2))
	r.Insns.Emit(air.OpPhi, ctypes.IntType(), air.Register(dest), air.Register(a), air.Register(b))

	removePhis(r)

	sawPhi := false
	destWrites := 0
	r.Insns.Each(func(i *air.Insn) {
		if i.Op == air.OpPhi {
			sawPhi = true
		}
		if i.Op == air.OpLoad && i.Operands[0].Reg == dest {
			destWrites++
		}
	})
	if sawPhi {
		t.Fatalf("expected the Phi instruction to be removed")
	}
	if destWrites != 2 {
		t.Fatalf("expected both loads to now target dest directly, got %d", destWrites)
	}
}

func threeIntStruct() *ctypes.Type {
	return &ctypes.Type{
		Kind:        ctypes.Struct,
		MemberNames: []string{"a", "b", "c"},
		MemberTypes: []*ctypes.Type{ctypes.IntType(), ctypes.IntType(), ctypes.IntType()},
	}
}

func TestLocalizeReturnNarrowsFinalEightbyteOfNonMultipleOfEightStruct(t *testing.T) {
	st := threeIntStruct() // 12 bytes: one full Integer eightbyte, one 4-byte remainder
	m := air.NewModule(air.Neutral)
	r := m.AddRoutine(testSymbol("f"))
	r.ReturnType = st
	value := m.NextVReg()
	insn := r.Insns.Emit(air.OpReturn, st, air.Register(value))

	lz := New(m)
	lz.localizeReturn(r, insn)

	var sawNarrowLoad, sawShift bool
	r.Insns.Each(func(i *air.Insn) {
		if i.Op == air.OpLoad && i.OperandType != nil && i.OperandType.Kind == ctypes.UInt {
			sawNarrowLoad = true
		}
		if i.Op == air.OpDirectShl && i.Operands[0].Reg == air.RegRDX {
			sawShift = true
		}
	})
	if !sawNarrowLoad {
		t.Fatalf("expected the struct's short final eightbyte to load as a 4-byte chunk, not a full 8-byte one")
	}
	if sawShift {
		t.Fatalf("expected the 4-byte final eightbyte to load as one chunk, with no shift of RDX")
	}
}

func TestLocalizeReturnMemoryClassNarrowsFinalChunk(t *testing.T) {
	arr := ctypes.ArrayOf(ctypes.IntType(), 5) // 20 bytes > 16: Memory class, via retptr
	m := air.NewModule(air.Neutral)
	r := m.AddRoutine(testSymbol("f"))
	r.ReturnType = arr
	r.Retptr = testSymbol(".retptr")
	value := m.NextVReg()
	insn := r.Insns.Emit(air.OpReturn, arr, air.Register(value))

	lz := New(m)
	lz.localizeReturn(r, insn)

	sawNarrowChunk := false
	r.Insns.Each(func(i *air.Insn) {
		if i.Op == air.OpLoad && i.OperandType != nil && i.OperandType.Kind == ctypes.UInt {
			sawNarrowChunk = true
		}
	})
	if !sawNarrowChunk {
		t.Fatalf("expected the 20-byte array's last 4 bytes to copy through a 4-byte chunk, not a full 8-byte one past its end")
	}
}

func TestEmitPrologueBindsFirstIntParamsToArgRegisters(t *testing.T) {
	m := air.NewModule(air.Neutral)
	r := m.AddRoutine(testSymbol("f"))
	pSym := testSymbol("x")
	r.Params = []air.Symbol{pSym}
	r.ParamTypes = []*ctypes.Type{ctypes.IntType()}
	r.Insns.Emit(air.OpDeclare, ctypes.IntType(), air.SymbolOperand(pSym))

	lz := New(m)
	lz.emitPrologue(r)

	found := false
	r.Insns.Each(func(i *air.Insn) {
		if i.Op == air.OpDeclareRegister && len(i.Operands) == 2 && i.Operands[1].Reg == air.RegRDI {
			found = true
		}
	})
	if !found {
		t.Fatalf("expected the first integer parameter to bind to RDI")
	}
}
