// Package constexpr is the Constant Expression Evaluator (spec 4.2): it
// turns an AST subtree into a ConstExpr without ever running the AIR
// lowerer, used both by the semantic analyzer (enumerator values, static
// initializers, array bounds) and, transitively, by anything that needs a
// compile-time value. Grounded on original_source/constexpr.c's
// constexpr_t, generalized from its tagged byte-buffer representation to
// Go's native int64/float64 the way pkg/ctypes generalized c_type_t to a
// tagged struct.
package constexpr

import (
	"fmt"

	"github.com/c99cc/sysvcc/pkg/ast"
	"github.com/c99cc/sysvcc/pkg/ctypes"
	"github.com/c99cc/sysvcc/pkg/symtab"
)

// Kind is one of the three evaluation contexts spec 4.2 names; it constrains
// what Evaluate accepts.
type Kind int

const (
	Integer Kind = iota
	Arithmetic
	Address
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Arithmetic:
		return "arithmetic"
	case Address:
		return "address"
	default:
		return "?"
	}
}

// Value is a ConstExpr (spec 3.2): either an arithmetic scalar (Integer and
// Arithmetic kinds share this representation, Integer being the subset with
// an integer CType) or an address. Error is non-empty exactly when
// evaluation failed, in which case CType is always ctypes.Error.
type Value struct {
	Kind  Kind
	CType *ctypes.Type
	Error string

	// Integer/Arithmetic: IntBits holds the raw two's-complement bit
	// pattern truncated to CType's width when CType is an integer type;
	// FloatBits holds the value when CType is a real floating type.
	IntBits   uint64
	FloatBits float64

	// Address
	Symbol *symtab.Symbol // nil => a pure integer constant cast to pointer
	Offset int64
}

// Failed reports whether evaluation produced a diagnosed error.
func (v Value) Failed() bool { return v.Error != "" }

func fail(format string, args ...any) Value {
	return Value{Kind: Arithmetic, CType: ctypes.ErrorType(), Error: fmt.Sprintf(format, args...)}
}

// Evaluator walks a fixed Arena; identifier/string-literal/compound-literal
// resolution is injected because that information (symbol table entries,
// synthetic symbols for literals) belongs to the caller, not to this
// package — matching pkg/ctypes's refusal to import pkg/ast.
type Evaluator struct {
	Arena *ast.Arena

	LookupIdentifier      func(name string) (*symtab.Symbol, bool)
	LookupStringLiteral   func(ref ast.Ref) *symtab.Symbol
	LookupCompoundLiteral func(ref ast.Ref) *symtab.Symbol
}

// New builds an Evaluator over arena. The three resolver callbacks may be
// left nil if the caller knows none of those constructs can occur (e.g.
// evaluating an enumerator's value expression never needs string-literal
// addresses).
func New(arena *ast.Arena) *Evaluator {
	return &Evaluator{Arena: arena}
}

// Evaluate is the evaluator's single entry point (spec 4.2:
// "evaluate(kind, expr) -> ConstExpr"). An Address evaluation of `&x`
// resolves the address of x.
func (e *Evaluator) Evaluate(kind Kind, ref ast.Ref) Value {
	if kind == Address {
		if n, ok := e.node(ref); ok && n.Kind == ast.KindUnary {
			if u := n.Payload.(ast.Unary); u.Op == ast.OpAddrOf {
				return e.addressOf(u.Operand)
			}
		}
		return e.addressOf(ref)
	}
	v := e.eval(kind, ref)
	if v.Failed() {
		return v
	}
	if kind == Integer && !v.CType.IsInteger() {
		return fail("expression is not an integer constant expression")
	}
	return v
}

func (e *Evaluator) node(ref ast.Ref) (*ast.Node, bool) {
	if !e.Arena.Valid(ref) {
		return nil, false
	}
	return e.Arena.Get(ref), true
}

// eval handles the Integer/Arithmetic contexts: every non-address
// expression form spec 4.2 lists.
func (e *Evaluator) eval(kind Kind, ref ast.Ref) Value {
	n, ok := e.node(ref)
	if !ok {
		return fail("missing constant expression operand")
	}
	switch n.Kind {
	case ast.KindIntConstant:
		ic := n.Payload.(ast.IntConstant)
		ct := intConstantType(ic)
		sz, _ := ct.Size()
		return Value{Kind: Arithmetic, CType: ct, IntBits: truncate(ic.Value, sz)}

	case ast.KindFloatConstant:
		if kind == Integer {
			return fail("floating constant is not permitted in an integer constant expression")
		}
		fc := n.Payload.(ast.FloatConstant)
		return Value{Kind: Arithmetic, CType: floatConstantType(fc), FloatBits: fc.Value}

	case ast.KindIdentifier:
		id := n.Payload.(ast.Identifier)
		if e.LookupIdentifier == nil {
			return fail("identifier '%s' is not a constant expression", id.Name)
		}
		sym, found := e.LookupIdentifier(id.Name)
		if !found {
			return fail("use of undeclared identifier '%s'", id.Name)
		}
		if !sym.IsEnumConstant {
			return fail("'%s' is not an integer constant expression", id.Name)
		}
		return Value{Kind: Arithmetic, CType: ctypes.IntType(), IntBits: uint64(sym.EnumValue)}

	case ast.KindUnary:
		return e.evalUnary(kind, n.Payload.(ast.Unary))

	case ast.KindBinary:
		return e.evalBinary(kind, n.Payload.(ast.Binary))

	case ast.KindConditional:
		c := n.Payload.(ast.Conditional)
		cond := e.eval(Arithmetic, c.Cond)
		if cond.Failed() {
			return cond
		}
		if isTrue(cond) {
			return e.eval(kind, c.Then)
		}
		return e.eval(kind, c.Else)

	case ast.KindCast:
		c := n.Payload.(ast.Cast)
		if c.Target.Kind == ctypes.Pointer {
			addr := e.addressOf(c.Operand)
			if !addr.Failed() {
				addr.CType = c.Target
				return addr
			}
			inner := e.eval(Integer, c.Operand)
			if inner.Failed() {
				return inner
			}
			return Value{Kind: Address, CType: c.Target, Offset: int64(inner.IntBits)}
		}
		inner := e.eval(Arithmetic, c.Operand)
		if inner.Failed() {
			return inner
		}
		return convert(inner, c.Target)

	case ast.KindSizeofType:
		st := n.Payload.(ast.SizeofType)
		sz, ok := st.Target.Size()
		if !ok {
			return fail("sizeof applied to an incomplete or variably-modified type")
		}
		return Value{Kind: Arithmetic, CType: ctypes.Basic(ctypes.ULong), IntBits: uint64(sz)}

	case ast.KindSizeofExpr:
		se := n.Payload.(ast.SizeofExpr)
		operand, ok := e.node(se.Operand)
		if !ok {
			return fail("sizeof applied to a missing expression")
		}
		if operand.CType == nil {
			return fail("sizeof applied to an untyped expression")
		}
		sz, ok := operand.CType.Size()
		if !ok {
			return fail("sizeof applied to an incomplete or variably-modified type")
		}
		return Value{Kind: Arithmetic, CType: ctypes.Basic(ctypes.ULong), IntBits: uint64(sz)}

	case ast.KindComma:
		c := n.Payload.(ast.Comma)
		if _, ok := e.node(c.L); ok {
			_ = e.eval(kind, c.L)
		}
		return e.eval(kind, c.R)

	case ast.KindSubscript, ast.KindMember:
		return fail("only the address of this expression is a constant expression, not its value")
	}
	return fail("expression is not a constant expression")
}

func (e *Evaluator) evalUnary(kind Kind, u ast.Unary) Value {
	switch u.Op {
	case ast.OpAddrOf:
		return e.addressOf(u.Operand)
	case ast.OpDeref:
		addr := e.addressOf(u.Operand)
		if addr.Failed() {
			return addr
		}
		return fail("dereference of a constant address is not itself a constant expression")
	}
	operand := e.eval(Arithmetic, u.Operand)
	if operand.Failed() {
		return operand
	}
	switch u.Op {
	case ast.OpPlus:
		return operand
	case ast.OpNeg:
		return arith1(operand, func(f float64) float64 { return -f }, func(v uint64, sz int64) uint64 {
			return truncate(uint64(-int64(v)), sz)
		})
	case ast.OpNot:
		r := boolResult(!isTrue(operand))
		return r
	case ast.OpBitNot:
		if operand.CType.IsFloating() {
			return fail("operand of ~ must have integer type")
		}
		sz, _ := operand.CType.Size()
		return Value{Kind: Arithmetic, CType: operand.CType, IntBits: truncate(^operand.IntBits, sz)}
	}
	return fail("unsupported unary operator in constant expression")
}

func (e *Evaluator) evalBinary(kind Kind, b ast.Binary) Value {
	if b.Op == ast.OpLogAnd || b.Op == ast.OpLogOr {
		l := e.eval(Arithmetic, b.L)
		if l.Failed() {
			return l
		}
		lt := isTrue(l)
		if b.Op == ast.OpLogAnd && !lt {
			return boolResult(false)
		}
		if b.Op == ast.OpLogOr && lt {
			return boolResult(true)
		}
		r := e.eval(Arithmetic, b.R)
		if r.Failed() {
			return r
		}
		return boolResult(isTrue(r))
	}

	l := e.eval(Arithmetic, b.L)
	if l.Failed() {
		return l
	}
	r := e.eval(Arithmetic, b.R)
	if r.Failed() {
		return r
	}

	switch b.Op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return compare(b.Op, l, r)
	}

	common := ctypes.UsualArithmeticConversion(l.CType, r.CType)
	if common.IsError() {
		return fail("operands of binary operator have incompatible types")
	}
	lc, rc := convert(l, common), convert(r, common)

	if common.IsFloating() {
		switch b.Op {
		case ast.OpAdd:
			return Value{Kind: Arithmetic, CType: common, FloatBits: lc.FloatBits + rc.FloatBits}
		case ast.OpSub:
			return Value{Kind: Arithmetic, CType: common, FloatBits: lc.FloatBits - rc.FloatBits}
		case ast.OpMul:
			return Value{Kind: Arithmetic, CType: common, FloatBits: lc.FloatBits * rc.FloatBits}
		case ast.OpDiv:
			if rc.FloatBits == 0 {
				return fail("division by zero in constant expression")
			}
			return Value{Kind: Arithmetic, CType: common, FloatBits: lc.FloatBits / rc.FloatBits}
		}
		return fail("operator not defined for floating operands")
	}

	sz, _ := common.Size()
	signed := common.IsSigned()
	lv, rv := lc.IntBits, rc.IntBits
	switch b.Op {
	case ast.OpAdd:
		return Value{Kind: Arithmetic, CType: common, IntBits: truncate(lv+rv, sz)}
	case ast.OpSub:
		return Value{Kind: Arithmetic, CType: common, IntBits: truncate(lv-rv, sz)}
	case ast.OpMul:
		return Value{Kind: Arithmetic, CType: common, IntBits: truncate(lv*rv, sz)}
	case ast.OpDiv:
		if rv == 0 {
			return fail("division by zero in constant expression")
		}
		if signed {
			return Value{Kind: Arithmetic, CType: common, IntBits: truncate(uint64(signExtend(lv, sz)/signExtend(rv, sz)), sz)}
		}
		return Value{Kind: Arithmetic, CType: common, IntBits: truncate(lv/rv, sz)}
	case ast.OpMod:
		if rv == 0 {
			return fail("division by zero in constant expression")
		}
		if signed {
			return Value{Kind: Arithmetic, CType: common, IntBits: truncate(uint64(signExtend(lv, sz)%signExtend(rv, sz)), sz)}
		}
		return Value{Kind: Arithmetic, CType: common, IntBits: truncate(lv%rv, sz)}
	case ast.OpBitAnd:
		return Value{Kind: Arithmetic, CType: common, IntBits: truncate(lv&rv, sz)}
	case ast.OpBitOr:
		return Value{Kind: Arithmetic, CType: common, IntBits: truncate(lv|rv, sz)}
	case ast.OpBitXor:
		return Value{Kind: Arithmetic, CType: common, IntBits: truncate(lv^rv, sz)}
	case ast.OpShl:
		return Value{Kind: Arithmetic, CType: common, IntBits: truncate(lv<<uint(rv), sz)}
	case ast.OpShr:
		if signed {
			return Value{Kind: Arithmetic, CType: common, IntBits: truncate(uint64(signExtend(lv, sz)>>uint(rv)), sz)}
		}
		return Value{Kind: Arithmetic, CType: common, IntBits: truncate(lv>>uint(rv), sz)}
	}
	return fail("operator not supported in a constant expression")
}

func compare(op ast.BinaryOp, l, r Value) Value {
	common := ctypes.UsualArithmeticConversion(l.CType, r.CType)
	lc, rc := convert(l, common), convert(r, common)
	var cmp int
	if common.IsFloating() {
		switch {
		case lc.FloatBits < rc.FloatBits:
			cmp = -1
		case lc.FloatBits > rc.FloatBits:
			cmp = 1
		}
	} else if common.IsSigned() {
		sz, _ := common.Size()
		a, b := signExtend(lc.IntBits, sz), signExtend(rc.IntBits, sz)
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	} else {
		switch {
		case lc.IntBits < rc.IntBits:
			cmp = -1
		case lc.IntBits > rc.IntBits:
			cmp = 1
		}
	}
	switch op {
	case ast.OpEq:
		return boolResult(cmp == 0)
	case ast.OpNe:
		return boolResult(cmp != 0)
	case ast.OpLt:
		return boolResult(cmp < 0)
	case ast.OpLe:
		return boolResult(cmp <= 0)
	case ast.OpGt:
		return boolResult(cmp > 0)
	case ast.OpGe:
		return boolResult(cmp >= 0)
	}
	return fail("unsupported comparison operator")
}

// addressOf implements the Address kind's permitted constructors (spec
// 4.2): &id for static-duration identifiers, &string-literal,
// &compound-literal, &expr[integer const], (T*) integer-constant,
// &(structptr->member), and &(struct.member).
func (e *Evaluator) addressOf(ref ast.Ref) Value {
	n, ok := e.node(ref)
	if !ok {
		return fail("missing address operand")
	}

	switch n.Kind {
	case ast.KindUnary:
		u := n.Payload.(ast.Unary)
		if u.Op == ast.OpAddrOf {
			return fail("address of an address is not a constant expression")
		}
		if u.Op == ast.OpDeref {
			return e.Evaluate(Address, u.Operand)
		}

	case ast.KindCast:
		c := n.Payload.(ast.Cast)
		if c.Target.Kind == ctypes.Pointer {
			inner := e.eval(Integer, c.Operand)
			if inner.Failed() {
				return inner
			}
			return Value{Kind: Address, CType: c.Target, Offset: int64(inner.IntBits)}
		}

	case ast.KindIdentifier:
		id := n.Payload.(ast.Identifier)
		if e.LookupIdentifier == nil {
			return fail("identifier '%s' is not an address constant", id.Name)
		}
		sym, found := e.LookupIdentifier(id.Name)
		if !found {
			return fail("use of undeclared identifier '%s'", id.Name)
		}
		if sym.StorageDuration != symtab.StaticDuration {
			return fail("address of object with automatic storage duration is not a constant expression")
		}
		return Value{Kind: Address, CType: ctypes.PointerTo(sym.Type), Symbol: sym}

	case ast.KindStringLiteral:
		if e.LookupStringLiteral == nil {
			return fail("string-literal addresses are not supported in this context")
		}
		sym := e.LookupStringLiteral(ref)
		return Value{Kind: Address, CType: ctypes.PointerTo(ctypes.CharType()), Symbol: sym}

	case ast.KindCompoundLiteral:
		if e.LookupCompoundLiteral == nil {
			return fail("compound-literal addresses are not supported in this context")
		}
		cl := n.Payload.(ast.CompoundLiteral)
		sym := e.LookupCompoundLiteral(ref)
		return Value{Kind: Address, CType: ctypes.PointerTo(cl.Target), Symbol: sym}

	case ast.KindSubscript:
		sub := n.Payload.(ast.Subscript)
		base := e.baseAddress(sub.Array)
		if base.Failed() {
			return base
		}
		idx := e.eval(Integer, sub.Index)
		if idx.Failed() {
			return idx
		}
		elemType := base.CType.DerivedFrom
		if elemType.Kind == ctypes.Array {
			elemType = elemType.DerivedFrom
		}
		elemSize, ok := elemType.Size()
		if !ok {
			return fail("array element has unknown size")
		}
		base.Offset += int64(idx.IntBits) * elemSize
		base.CType = ctypes.PointerTo(elemType)
		return base

	case ast.KindMember:
		m := n.Payload.(ast.Member)
		var base Value
		if m.Arrow {
			base = e.Evaluate(Address, m.Base)
		} else {
			base = e.baseAddress(m.Base)
		}
		if base.Failed() {
			return base
		}
		agg := base.CType.DerivedFrom
		off, ok := agg.MemberOffset(m.Name)
		if !ok {
			return fail("no member named '%s'", m.Name)
		}
		memberType, _ := agg.MemberType(m.Name)
		base.Offset += off
		base.CType = ctypes.PointerTo(memberType)
		return base
	}
	return fail("expression is not a valid address constant")
}

// baseAddress resolves the address of an lvalue expression used as the base
// of `.` or `[]` without requiring an explicit `&` (arrays and struct/union
// values decay to their address in these positions).
func (e *Evaluator) baseAddress(ref ast.Ref) Value {
	n, ok := e.node(ref)
	if !ok {
		return fail("missing base expression")
	}
	switch n.Kind {
	case ast.KindIdentifier, ast.KindSubscript, ast.KindMember, ast.KindStringLiteral, ast.KindCompoundLiteral:
		return e.addressOf(ref)
	}
	return fail("expression is not an address constant")
}

func isTrue(v Value) bool {
	if v.CType.IsFloating() {
		return v.FloatBits != 0
	}
	return v.IntBits != 0
}

func boolResult(b bool) Value {
	if b {
		return Value{Kind: Arithmetic, CType: ctypes.IntType(), IntBits: 1}
	}
	return Value{Kind: Arithmetic, CType: ctypes.IntType(), IntBits: 0}
}

func arith1(v Value, onFloat func(float64) float64, onInt func(uint64, int64) uint64) Value {
	if v.CType.IsFloating() {
		return Value{Kind: Arithmetic, CType: v.CType, FloatBits: onFloat(v.FloatBits)}
	}
	sz, _ := v.CType.Size()
	return Value{Kind: Arithmetic, CType: v.CType, IntBits: onInt(v.IntBits, sz)}
}

// convert applies ISO conversion semantics (truncation/extension for
// integers, narrowing/widening for floats, float<->integer per spec 4.2) to
// reinterpret v as target.
func convert(v Value, target *ctypes.Type) Value {
	if target.IsFloating() {
		if v.CType.IsFloating() {
			return Value{Kind: Arithmetic, CType: target, FloatBits: v.FloatBits}
		}
		sz, _ := v.CType.Size()
		var f float64
		if v.CType.IsSigned() {
			f = float64(signExtend(v.IntBits, sz))
		} else {
			f = float64(v.IntBits)
		}
		return Value{Kind: Arithmetic, CType: target, FloatBits: f}
	}
	// target is integer
	tsz, _ := target.Size()
	if v.CType.IsFloating() {
		return Value{Kind: Arithmetic, CType: target, IntBits: truncate(uint64(int64(v.FloatBits)), tsz)}
	}
	return Value{Kind: Arithmetic, CType: target, IntBits: truncate(v.IntBits, tsz)}
}

// truncate masks a bit pattern to sz bytes (sz in {1,2,4,8}).
func truncate(v uint64, sz int64) uint64 {
	switch sz {
	case 1:
		return v & 0xff
	case 2:
		return v & 0xffff
	case 4:
		return v & 0xffffffff
	default:
		return v
	}
}

// signExtend reinterprets the low sz bytes of v as a signed integer.
func signExtend(v uint64, sz int64) int64 {
	switch sz {
	case 1:
		return int64(int8(v))
	case 2:
		return int64(int16(v))
	case 4:
		return int64(int32(v))
	default:
		return int64(v)
	}
}

func intConstantType(ic ast.IntConstant) *ctypes.Type {
	switch {
	case ic.IsLongLong && ic.IsUnsigned:
		return ctypes.Basic(ctypes.ULongLong)
	case ic.IsLongLong:
		return ctypes.Basic(ctypes.LongLong)
	case ic.IsLong && ic.IsUnsigned:
		return ctypes.Basic(ctypes.ULong)
	case ic.IsLong:
		return ctypes.Basic(ctypes.Long)
	case ic.IsUnsigned:
		return ctypes.UIntType()
	default:
		return ctypes.IntType()
	}
}

func floatConstantType(fc ast.FloatConstant) *ctypes.Type {
	switch {
	case fc.IsSingle:
		return ctypes.Basic(ctypes.Float)
	case fc.IsLongDbl:
		return ctypes.Basic(ctypes.LongDouble)
	default:
		return ctypes.Basic(ctypes.Double)
	}
}
