package airgen

import (
	"github.com/c99cc/sysvcc/pkg/air"
	"github.com/c99cc/sysvcc/pkg/ast"
	"github.com/c99cc/sysvcc/pkg/ctypes"
	"github.com/c99cc/sysvcc/pkg/symtab"
)

// lowerExpr lowers ref as a value, returning the instruction list and the
// register holding the result; it also records that register on the node's
// ExprReg field (spec glossary: "linearization"). Aggregates lower to the
// register holding their address, matching the rest of the pipeline's
// convention that an aggregate's "value" is its address.
func (lw *Lowerer) lowerExpr(ref ast.Ref) (*air.List, air.Reg) {
	n := lw.node(ref)
	list := air.NewList()
	var dest air.Reg

	switch p := n.Payload.(type) {
	case ast.Identifier:
		dest = lw.lowerIdentifierUse(list, n, p)
	case ast.IntConstant:
		dest = lw.nextVReg()
		list.Emit(air.OpLoad, n.CType, air.Register(dest), air.IntegerConstant(p.Value))
	case ast.FloatConstant:
		dest = lw.lowerFloatConstant(list, n, p)
	case ast.StringLiteral:
		dest = lw.nextVReg()
		sym := lw.lookupSynthetic(p.Name)
		list.Emit(air.OpLoadAddr, n.CType, air.Register(dest), air.SymbolOperand(sym))
	case ast.Subscript:
		dest = lw.lowerSubscript(list, n, p)
	case ast.Member:
		dest = lw.lowerMember(list, n, p)
	case ast.Call:
		dest = lw.lowerCall(list, n, p)
	case ast.Unary:
		dest = lw.lowerUnary(list, n, p)
	case ast.Binary:
		dest = lw.lowerBinary(list, n, p)
	case ast.Assign:
		dest = lw.lowerAssign(list, n, p)
	case ast.Conditional:
		dest = lw.lowerConditional(list, n, p)
	case ast.Cast:
		dest = lw.lowerCast(list, n, p)
	case ast.SizeofExpr, ast.SizeofType:
		dest = lw.lowerSizeof(list, n, p)
	case ast.CompoundLiteral:
		dest = lw.lowerCompoundLiteral(list, n, p)
	case ast.Comma:
		dest = lw.lowerComma(list, n, p)
	default:
		lw.ice(ref, "unrecognized expression form during lowering")
	}

	n.ExprReg = int32(dest)
	return list, dest
}

// lowerAddr lowers ref as an address, without loading through it. Used
// wherever the contract calls for "lvalue context": the base of `.` (the
// base of `->` is a pointer value and goes through lowerExpr), the operand
// of `&`, and the left-hand side of an assignment.
func (lw *Lowerer) lowerAddr(ref ast.Ref) (*air.List, air.Reg) {
	n := lw.node(ref)
	switch p := n.Payload.(type) {
	case ast.Identifier:
		list := air.NewList()
		dest := lw.nextVReg()
		sym := lw.mustLookup(p.Name)
		list.Emit(air.OpLoadAddr, n.CType, air.Register(dest), air.SymbolOperand(sym))
		n.ExprReg = int32(dest)
		return list, dest
	case ast.Unary:
		if p.Op == ast.OpDeref {
			return lw.lowerExpr(p.Operand)
		}
	case ast.Subscript:
		list := air.NewList()
		addr := lw.subscriptAddr(list, n, p)
		n.ExprReg = int32(addr)
		return list, addr
	case ast.Member:
		list := air.NewList()
		addr := lw.memberAddr(list, n, p)
		n.ExprReg = int32(addr)
		return list, addr
	case ast.CompoundLiteral, ast.StringLiteral:
		// These already yield an address as their value unconditionally
		// (lowerCompoundLiteral, the StringLiteral case in lowerExpr).
		return lw.lowerExpr(ref)
	}
	return lw.lowerExpr(ref)
}

func (lw *Lowerer) lookupSynthetic(name string) *symtab.Symbol {
	sym, ok := lw.Symbols.LookupOrdinary(name)
	if !ok {
		return &symtab.Symbol{Name: name}
	}
	return sym
}

func (lw *Lowerer) mustLookup(name string) *symtab.Symbol {
	sym, ok := lw.Symbols.LookupOrdinary(name)
	if !ok {
		return &symtab.Symbol{Name: name}
	}
	return sym
}

// lowerIdentifierUse implements spec 4.4's identifier contract: the
// lvalue-to-rvalue conversion ISO 6.3.2.1p2 applies everywhere except
// aggregate and function designators, which decay to their address instead
// of loading (arrays and functions have no register-sized value to load).
// An identifier's own IsLvalue is a grammatical property, not a signal that
// this use-site wants the address; callers that do want the address go
// through lowerAddr instead.
func (lw *Lowerer) lowerIdentifierUse(list *air.List, n *ast.Node, id ast.Identifier) air.Reg {
	sym := lw.mustLookup(id.Name)
	dest := lw.nextVReg()
	if n.CType.IsAggregate() || n.CType.IsFunction() {
		list.Emit(air.OpLoadAddr, n.CType, air.Register(dest), air.SymbolOperand(sym))
	} else {
		list.Emit(air.OpLoad, n.CType, air.Register(dest), air.SymbolOperand(sym))
	}
	return dest
}

func (lw *Lowerer) lowerFloatConstant(list *air.List, n *ast.Node, f ast.FloatConstant) air.Reg {
	lw.anonFloat++
	name := syntheticName(".LCF", lw.anonFloat)
	sym := &symtab.Symbol{Name: name, Type: n.CType, StorageDuration: symtab.StaticDuration, Linkage: symtab.InternalLinkage, IsDefined: true}
	size, _ := n.CType.Size()
	bytes := make([]byte, size)
	if f.IsSingle {
		putLEFloat32(bytes, f.Value)
	} else {
		putLEFloat64(bytes, f.Value)
	}
	sym.InitialData = bytes
	lw.Symbols.Insert(sym)
	lw.Module.AddRodata(&air.Data{Symbol: sym, Bytes: bytes})

	dest := lw.nextVReg()
	list.Emit(air.OpLoad, n.CType, air.Register(dest), air.SymbolOperand(sym))
	return dest
}

// subscriptAddr computes arr[idx]'s address without deciding whether to
// load through it; shared by lowerSubscript (value context) and lowerAddr
// (address context) so both agree on one offset computation.
func (lw *Lowerer) subscriptAddr(list *air.List, n *ast.Node, sub ast.Subscript) air.Reg {
	arr, idx := sub.Array, sub.Index
	at := lw.node(arr).CType
	if at.Kind != ctypes.Array && at.Kind != ctypes.Pointer {
		arr, idx = idx, arr
		at = lw.node(arr).CType
	}
	elem := at.DerivedFrom
	size, _ := elem.Size()

	baseList, baseReg := lw.lowerExpr(arr)
	idxList, idxReg := lw.lowerExpr(idx)
	list.Append(baseList)
	list.Append(idxList)

	scaled := lw.nextVReg()
	list.Emit(air.OpMul, ctypes.Basic(ctypes.Long), air.Register(scaled), air.Register(idxReg), air.IntegerConstant(uint64(size)))

	addr := lw.nextVReg()
	list.Emit(air.OpAdd, n.CType, air.Register(addr), air.Register(baseReg), air.Register(scaled))
	return addr
}

func (lw *Lowerer) lowerSubscript(list *air.List, n *ast.Node, sub ast.Subscript) air.Reg {
	addr := lw.subscriptAddr(list, n, sub)
	if n.CType.IsAggregate() {
		return addr
	}
	dest := lw.nextVReg()
	list.Emit(air.OpLoad, n.CType, air.Register(dest), air.IndirectRegister(air.Reg(addr), 0))
	return dest
}

// memberAddr computes base.name/base->name's address without deciding
// whether to load through it; shared by lowerMember and lowerAddr.
func (lw *Lowerer) memberAddr(list *air.List, n *ast.Node, m ast.Member) air.Reg {
	var baseReg air.Reg
	var baseType *ctypes.Type
	if m.Arrow {
		baseList, reg := lw.lowerExpr(m.Base)
		list.Append(baseList)
		baseReg = reg
		baseType = lw.node(m.Base).CType.DerivedFrom
	} else {
		baseList, reg := lw.lowerAddr(m.Base)
		list.Append(baseList)
		baseReg = reg
		baseType = lw.node(m.Base).CType
	}
	off, _ := baseType.MemberOffset(m.Name)

	addr := lw.nextVReg()
	list.Emit(air.OpAdd, n.CType, air.Register(addr), air.Register(baseReg), air.IntegerConstant(uint64(off)))
	return addr
}

func (lw *Lowerer) lowerMember(list *air.List, n *ast.Node, m ast.Member) air.Reg {
	addr := lw.memberAddr(list, n, m)
	if n.CType.IsAggregate() {
		return addr
	}
	dest := lw.nextVReg()
	list.Emit(air.OpLoad, n.CType, air.Register(dest), air.IndirectRegister(air.Reg(addr), 0))
	return dest
}

// lowerCall implements spec 4.4's evaluation-order rule: arguments
// containing a nested call are evaluated first, remaining arguments after,
// all in source order among themselves.
func (lw *Lowerer) lowerCall(list *air.List, n *ast.Node, c ast.Call) air.Reg {
	// A direct call by name addresses the callee symbol itself (GNU as
	// `call name`); only a true function-pointer expression needs the
	// indirect register form x86gen falls back to.
	var calleeOperand air.Operand
	if id, ok := lw.node(c.Callee).Payload.(ast.Identifier); ok && lw.node(c.Callee).CType.IsFunction() {
		calleeOperand = air.SymbolOperand(lw.mustLookup(id.Name))
	} else {
		calleeList, calleeReg := lw.lowerExpr(c.Callee)
		list.Append(calleeList)
		calleeOperand = air.Register(calleeReg)
	}

	order := make([]int, 0, len(c.Args))
	for i, a := range c.Args {
		if containsCall(lw.Arena, a) {
			order = append(order, i)
		}
	}
	for i := range c.Args {
		if !containsCall(lw.Arena, c.Args[i]) {
			order = append(order, i)
		}
	}

	argRegs := make([]air.Reg, len(c.Args))
	for _, i := range order {
		argList, reg := lw.lowerExpr(c.Args[i])
		list.Append(argList)
		argRegs[i] = reg
	}

	dest := lw.nextVReg()
	operands := []air.Operand{air.Register(dest), calleeOperand}
	for _, r := range argRegs {
		operands = append(operands, air.Register(r))
	}
	insn := list.Emit(air.OpFuncCall, n.CType, operands...)
	if n.CType.IsAggregate() {
		insn.FCallSret = true
	}
	for _, a := range c.Args {
		insn.ArgTypes = append(insn.ArgTypes, lw.node(a).CType)
	}
	calleeType := lw.node(c.Callee).CType
	if calleeType != nil && calleeType.Kind == ctypes.Pointer {
		calleeType = calleeType.DerivedFrom
	}
	if calleeType != nil {
		// Localize's %al XMM-count convention at a call site applies to a
		// variadic callee and, per spec 4.5, to an unprototyped one too
		// (the callee has no parameter list to tell `%al` wouldn't matter).
		insn.Variadic = calleeType.Variadic || calleeType.IsUnprototyped()
	}
	return dest
}

func containsCall(a *ast.Arena, ref ast.Ref) bool {
	if !a.Valid(ref) {
		return false
	}
	n := a.Get(ref)
	switch p := n.Payload.(type) {
	case ast.Call:
		return true
	case ast.Unary:
		return containsCall(a, p.Operand)
	case ast.Binary:
		return containsCall(a, p.L) || containsCall(a, p.R)
	case ast.Assign:
		return containsCall(a, p.L) || containsCall(a, p.R)
	case ast.Conditional:
		return containsCall(a, p.Cond) || containsCall(a, p.Then) || containsCall(a, p.Else)
	case ast.Cast:
		return containsCall(a, p.Operand)
	case ast.Subscript:
		return containsCall(a, p.Array) || containsCall(a, p.Index)
	case ast.Member:
		return containsCall(a, p.Base)
	case ast.Comma:
		return containsCall(a, p.L) || containsCall(a, p.R)
	}
	return false
}

func (lw *Lowerer) lowerUnary(list *air.List, n *ast.Node, u ast.Unary) air.Reg {
	switch u.Op {
	case ast.OpAddrOf:
		addrList, reg := lw.lowerAddr(u.Operand)
		list.Append(addrList)
		return reg
	case ast.OpDeref:
		ptrList, ptrReg := lw.lowerExpr(u.Operand)
		list.Append(ptrList)
		if n.CType.IsAggregate() {
			return ptrReg
		}
		dest := lw.nextVReg()
		list.Emit(air.OpLoad, n.CType, air.Register(dest), air.IndirectRegister(air.Reg(ptrReg), 0))
		return dest
	case ast.OpPreInc, ast.OpPreDec, ast.OpPostInc, ast.OpPostDec:
		return lw.lowerIncDec(list, n, u)
	}

	opList, opReg := lw.lowerExpr(u.Operand)
	list.Append(opList)
	dest := lw.nextVReg()
	switch u.Op {
	case ast.OpNeg:
		list.Emit(air.OpNeg, n.CType, air.Register(dest), air.Register(opReg))
	case ast.OpPlus:
		return opReg
	case ast.OpNot:
		list.Emit(air.OpLogNot, n.CType, air.Register(dest), air.Register(opReg))
	case ast.OpBitNot:
		list.Emit(air.OpNot, n.CType, air.Register(dest), air.Register(opReg))
	default:
		lw.ice(0, "unrecognized unary operator")
	}
	return dest
}

// lowerIncDec implements spec 4.4: direct in-place update, prefix vs postfix
// controlling whether the old-value load happens before or after the update.
func (lw *Lowerer) lowerIncDec(list *air.List, n *ast.Node, u ast.Unary) air.Reg {
	addrList, addrReg := lw.lowerAddr(u.Operand)
	list.Append(addrList)

	opType := lw.node(u.Operand).CType
	step := uint64(1)
	if opType.Kind == ctypes.Pointer {
		sz, _ := opType.DerivedFrom.Size()
		step = uint64(sz)
	}

	op := air.OpDirectAdd
	if u.Op == ast.OpPreDec || u.Op == ast.OpPostDec {
		op = air.OpDirectSub
	}

	isPrefix := u.Op == ast.OpPreInc || u.Op == ast.OpPreDec
	var oldVal air.Reg
	if !isPrefix {
		oldVal = lw.nextVReg()
		list.Emit(air.OpLoad, opType, air.Register(oldVal), air.IndirectRegister(air.Reg(addrReg), 0))
	}

	list.Emit(op, opType, air.IndirectRegister(air.Reg(addrReg), 0), air.IntegerConstant(step))

	if isPrefix {
		dest := lw.nextVReg()
		list.Emit(air.OpLoad, opType, air.Register(dest), air.IndirectRegister(air.Reg(addrReg), 0))
		return dest
	}
	return oldVal
}

func (lw *Lowerer) lowerBinary(list *air.List, n *ast.Node, b ast.Binary) air.Reg {
	switch b.Op {
	case ast.OpLogAnd, ast.OpLogOr:
		return lw.lowerShortCircuit(list, n, b)
	}

	lt := lw.node(b.L).CType
	rt := lw.node(b.R).CType

	if b.Op == ast.OpAdd || b.Op == ast.OpSub {
		if lt.Kind == ctypes.Pointer || rt.Kind == ctypes.Pointer {
			return lw.lowerPointerArith(list, n, b, lt, rt)
		}
	}

	lList, lReg := lw.lowerExpr(b.L)
	rList, rReg := lw.lowerExpr(b.R)
	list.Append(lList)
	lReg = lw.convert(list, lt, n.CType, lReg)
	list.Append(rList)
	rReg = lw.convert(list, rt, n.CType, rReg)

	dest := lw.nextVReg()
	op, ok := binaryOp(b.Op, n.CType)
	if !ok {
		lw.ice(0, "unrecognized binary operator")
		return dest
	}
	list.Emit(op, n.CType, air.Register(dest), air.Register(lReg), air.Register(rReg))
	return dest
}

func binaryOp(op ast.BinaryOp, t *ctypes.Type) (air.Op, bool) {
	unsigned := t.IsUnsigned()
	switch op {
	case ast.OpAdd:
		return air.OpAdd, true
	case ast.OpSub:
		return air.OpSub, true
	case ast.OpMul:
		if unsigned {
			return air.OpUMul, true
		}
		return air.OpMul, true
	case ast.OpDiv:
		if unsigned {
			return air.OpUDiv, true
		}
		return air.OpDiv, true
	case ast.OpMod:
		if unsigned {
			return air.OpUMod, true
		}
		return air.OpMod, true
	case ast.OpBitAnd:
		return air.OpAnd, true
	case ast.OpBitOr:
		return air.OpOr, true
	case ast.OpBitXor:
		return air.OpXor, true
	case ast.OpShl:
		return air.OpShl, true
	case ast.OpShr:
		if unsigned {
			return air.OpUShr, true
		}
		return air.OpShr, true
	case ast.OpLt:
		return air.OpCmpLt, true
	case ast.OpLe:
		return air.OpCmpLe, true
	case ast.OpGt:
		return air.OpCmpGt, true
	case ast.OpGe:
		return air.OpCmpGe, true
	case ast.OpEq:
		return air.OpCmpEq, true
	case ast.OpNe:
		return air.OpCmpNe, true
	}
	return 0, false
}

// lowerPointerArith implements spec 4.4's pointer +/- rules: scale the
// integer side by sizeof(pointee); two pointers subtract and divide by
// sizeof(pointee).
func (lw *Lowerer) lowerPointerArith(list *air.List, n *ast.Node, b ast.Binary, lt, rt *ctypes.Type) air.Reg {
	lList, lReg := lw.lowerExpr(b.L)
	rList, rReg := lw.lowerExpr(b.R)
	list.Append(lList)
	list.Append(rList)

	if lt.Kind == ctypes.Pointer && rt.Kind == ctypes.Pointer {
		sz, _ := lt.DerivedFrom.Size()
		diff := lw.nextVReg()
		list.Emit(air.OpSub, ctypes.Basic(ctypes.Long), air.Register(diff), air.Register(lReg), air.Register(rReg))
		dest := lw.nextVReg()
		list.Emit(air.OpDiv, ctypes.Basic(ctypes.Long), air.Register(dest), air.Register(diff), air.IntegerConstant(uint64(sz)))
		return dest
	}

	ptrReg, intReg, pointee := lReg, rReg, lt.DerivedFrom
	if rt.Kind == ctypes.Pointer {
		ptrReg, intReg, pointee = rReg, lReg, rt.DerivedFrom
	}
	sz, _ := pointee.Size()
	scaled := lw.nextVReg()
	list.Emit(air.OpMul, ctypes.Basic(ctypes.Long), air.Register(scaled), air.Register(intReg), air.IntegerConstant(uint64(sz)))

	dest := lw.nextVReg()
	op := air.OpAdd
	if b.Op == ast.OpSub && rt.Kind != ctypes.Pointer {
		op = air.OpSub
	}
	list.Emit(op, n.CType, air.Register(dest), air.Register(ptrReg), air.Register(scaled))
	return dest
}

// lowerShortCircuit implements spec 4.4's && / || contract, following
// original_source/src/air.c's linearize_logical_expression_after: a Jz/Jnz
// test on *each* operand to a shared short-circuit label, a LOAD of the
// both-pass constant on the fallthrough path, a LOAD of the short-circuit
// constant on the taken path, and a concluding Phi joining the two constant
// loads so the result is always 0 or 1.
func (lw *Lowerer) lowerShortCircuit(list *air.List, n *ast.Node, b ast.Binary) air.Reg {
	shortCircuit := lw.nextLabel(air.NSExpression)
	end := lw.nextLabel(air.NSExpression)

	testOp := air.OpJz
	if b.Op == ast.OpLogOr {
		testOp = air.OpJnz
	}

	lList, lReg := lw.lowerExpr(b.L)
	list.Append(lList)
	list.Emit(testOp, n.CType, air.Register(lReg), shortCircuit)

	rList, rReg := lw.lowerExpr(b.R)
	list.Append(rList)
	list.Emit(testOp, n.CType, air.Register(rReg), shortCircuit)

	passResult := lw.nextVReg()
	passValue := uint64(1)
	if b.Op == ast.OpLogOr {
		passValue = 0
	}
	list.Emit(air.OpLoad, n.CType, air.Register(passResult), air.IntegerConstant(passValue))
	list.Emit(air.OpJmp, nil, end)

	list.Emit(air.OpLabel, nil, shortCircuit)
	shortResult := lw.nextVReg()
	shortValue := uint64(0)
	if b.Op == ast.OpLogOr {
		shortValue = 1
	}
	list.Emit(air.OpLoad, n.CType, air.Register(shortResult), air.IntegerConstant(shortValue))

	list.Emit(air.OpLabel, nil, end)
	dest := lw.nextVReg()
	list.Emit(air.OpPhi, n.CType, air.Register(dest), air.Register(passResult), air.Register(shortResult))
	return dest
}

func (lw *Lowerer) lowerAssign(list *air.List, n *ast.Node, a ast.Assign) air.Reg {
	lt := lw.node(a.L).CType

	addrList, addrReg := lw.lowerAddr(a.L)
	list.Append(addrList)

	rList, rReg := lw.lowerExpr(a.R)
	list.Append(rList)
	rReg = lw.convert(list, lw.node(a.R).CType, lt, rReg)

	if a.Op == ast.AsSimple {
		list.Emit(air.OpAssign, lt, air.IndirectRegister(air.Reg(addrReg), 0), air.Register(rReg))
		result := lw.nextVReg()
		list.Emit(air.OpLoad, lt, air.Register(result), air.IndirectRegister(air.Reg(addrReg), 0))
		return result
	}

	if lt.Kind == ctypes.Pointer {
		sz, _ := lt.DerivedFrom.Size()
		scaled := lw.nextVReg()
		list.Emit(air.OpMul, ctypes.Basic(ctypes.Long), air.Register(scaled), air.Register(rReg), air.IntegerConstant(uint64(sz)))
		rReg = scaled
	}

	op := compoundDirectOp(a.Op, lt)
	list.Emit(op, lt, air.IndirectRegister(air.Reg(addrReg), 0), air.Register(rReg))
	result := lw.nextVReg()
	list.Emit(air.OpLoad, lt, air.Register(result), air.IndirectRegister(air.Reg(addrReg), 0))
	return result
}

func compoundDirectOp(op ast.AssignOp, _ *ctypes.Type) air.Op {
	switch op {
	case ast.AsAdd:
		return air.OpDirectAdd
	case ast.AsSub:
		return air.OpDirectSub
	case ast.AsMul:
		return air.OpDirectMul
	case ast.AsDiv:
		return air.OpDirectDiv
	case ast.AsMod:
		return air.OpDirectMod
	case ast.AsAnd:
		return air.OpDirectAnd
	case ast.AsOr:
		return air.OpDirectOr
	case ast.AsXor:
		return air.OpDirectXor
	case ast.AsShl:
		return air.OpDirectShl
	case ast.AsShr:
		return air.OpDirectShr
	}
	return air.OpDirectAdd
}

// lowerConditional implements spec 4.4's ?: contract: Jz, both branches
// copied in, and a concluding Phi.
func (lw *Lowerer) lowerConditional(list *air.List, n *ast.Node, c ast.Conditional) air.Reg {
	elseLabel := lw.nextLabel(air.NSExpression)
	end := lw.nextLabel(air.NSExpression)

	condList, condReg := lw.lowerExpr(c.Cond)
	list.Append(condList)
	list.Emit(air.OpJz, n.CType, air.Register(condReg), elseLabel)

	thenList, thenReg := lw.lowerExpr(c.Then)
	list.Append(thenList)
	thenReg = lw.convert(list, lw.node(c.Then).CType, n.CType, thenReg)
	list.Emit(air.OpJmp, nil, end)

	list.Emit(air.OpLabel, nil, elseLabel)
	elseList, elseReg := lw.lowerExpr(c.Else)
	list.Append(elseList)
	elseReg = lw.convert(list, lw.node(c.Else).CType, n.CType, elseReg)

	list.Emit(air.OpLabel, nil, end)
	dest := lw.nextVReg()
	list.Emit(air.OpPhi, n.CType, air.Register(dest), air.Register(thenReg), air.Register(elseReg))
	return dest
}

func (lw *Lowerer) lowerCast(list *air.List, n *ast.Node, c ast.Cast) air.Reg {
	opList, opReg := lw.lowerExpr(c.Operand)
	list.Append(opList)
	return lw.convert(list, lw.node(c.Operand).CType, n.CType, opReg)
}

func (lw *Lowerer) lowerSizeof(list *air.List, n *ast.Node, payload any) air.Reg {
	var t *ctypes.Type
	switch p := payload.(type) {
	case ast.SizeofExpr:
		t = lw.node(p.Operand).CType
	case ast.SizeofType:
		t = p.Target
	}
	size, _ := t.Size()
	dest := lw.nextVReg()
	list.Emit(air.OpLoad, n.CType, air.Register(dest), air.IntegerConstant(uint64(size)))
	return dest
}

func (lw *Lowerer) lowerCompoundLiteral(list *air.List, n *ast.Node, cl ast.CompoundLiteral) air.Reg {
	sym := lw.lookupSynthetic(cl.Name)
	dest := lw.nextVReg()
	list.Emit(air.OpLoadAddr, n.CType, air.Register(dest), air.SymbolOperand(sym))
	list.Append(lw.lowerAggregateInitializer(sym, cl.Target, cl.Init))
	return dest
}

func (lw *Lowerer) lowerComma(list *air.List, n *ast.Node, c ast.Comma) air.Reg {
	lList, _ := lw.lowerExpr(c.L)
	list.Append(lList)
	list.Emit(air.OpSequencePoint, nil)
	rList, rReg := lw.lowerExpr(c.R)
	list.Append(rList)
	return rReg
}

func syntheticName(prefix string, n int) string {
	return prefix + itoaDec(n)
}

func itoaDec(n int) string {
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
