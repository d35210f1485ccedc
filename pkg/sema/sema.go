// Package sema is the Semantic Analyzer (spec 4.3): a post-order walk over
// an ast.Arena that assigns a ctypes.Type to every expression node and
// enforces the ISO §6.5 expression rules, accumulating diagnostics rather
// than failing on the first one (spec section 7). Grounded on the
// teacher's pkg/clightgen (struct-holding-environment-maps, switch-per-
// construct dispatch) generalized from CompCert C's two-pass Cabs->Clight
// translation to a single-arena, single-pass analysis.
package sema

import (
	"fmt"

	"github.com/c99cc/sysvcc/pkg/ast"
	"github.com/c99cc/sysvcc/pkg/constexpr"
	"github.com/c99cc/sysvcc/pkg/ctypes"
	"github.com/c99cc/sysvcc/pkg/diag"
	"github.com/c99cc/sysvcc/pkg/symtab"
)

// Analyzer holds the state threaded through one translation unit's analysis.
type Analyzer struct {
	Arena   *ast.Arena
	Symbols *symtab.Table
	Diags   diag.List

	eval *constexpr.Evaluator

	// stringSyms and compoundSyms back the Address ConstExpr constructors for string and
	// compound literals (spec 4.2): each gets a synthetic static symbol the
	// first time it is analyzed.
	stringSyms   map[ast.Ref]*symtab.Symbol
	compoundSyms map[ast.Ref]*symtab.Symbol
	anonCounter  int
}

// New creates an Analyzer over arena, sharing symbols with the caller (the
// same table that will later back AIR lowering's identifier resolution).
func New(arena *ast.Arena, symbols *symtab.Table) *Analyzer {
	an := &Analyzer{
		Arena:        arena,
		Symbols:      symbols,
		stringSyms:   make(map[ast.Ref]*symtab.Symbol),
		compoundSyms: make(map[ast.Ref]*symtab.Symbol),
	}
	an.eval = constexpr.New(arena)
	an.eval.LookupIdentifier = func(name string) (*symtab.Symbol, bool) {
		return an.Symbols.LookupOrdinary(name)
	}
	an.eval.LookupStringLiteral = func(ref ast.Ref) *symtab.Symbol { return an.stringSyms[ref] }
	an.eval.LookupCompoundLiteral = func(ref ast.Ref) *symtab.Symbol { return an.compoundSyms[ref] }
	return an
}

func (an *Analyzer) errorf(n *ast.Node, format string, args ...any) *ctypes.Type {
	an.Diags.Append(diag.Diagnostic{Row: n.Row, Col: n.Col, Kind: diag.Constraint, Message: fmt.Sprintf(format, args...)})
	return ctypes.ErrorType()
}

func (an *Analyzer) unsupportedf(n *ast.Node, format string, args ...any) *ctypes.Type {
	an.Diags.Append(diag.Diagnostic{Row: n.Row, Col: n.Col, Kind: diag.Unsupported, Message: fmt.Sprintf(format, args...)})
	return ctypes.ErrorType()
}

// node fetches the node ref names; set records its annotations.
func (an *Analyzer) node(ref ast.Ref) *ast.Node { return an.Arena.Get(ref) }

// set records the computed type (and lvalue-ness) on a node and returns the
// type, the common shape every expr-analysis branch ends with.
func (an *Analyzer) set(n *ast.Node, t *ctypes.Type, lvalue bool) *ctypes.Type {
	n.CType = t
	n.IsLvalue = lvalue
	return t
}

// AnalyzeTranslationUnit walks every top-level declaration/definition.
func (an *Analyzer) AnalyzeTranslationUnit(ref ast.Ref) {
	n := an.node(ref)
	tu := n.Payload.(ast.TranslationUnit)
	for _, d := range tu.Decls {
		an.analyzeExternalDecl(d)
	}
}

func (an *Analyzer) analyzeExternalDecl(ref ast.Ref) {
	n := an.node(ref)
	switch n.Kind {
	case ast.KindFunctionDefinition:
		an.analyzeFunctionDefinition(ref)
	case ast.KindDeclaration:
		an.analyzeDeclaration(ref, true)
	}
}

// AnalyzeExpr is the exported post-order expression entry point used both
// for ordinary expression statements and for sub-evaluation contexts
// (initializers, array bounds) that need a typed tree before invoking
// pkg/constexpr.
func (an *Analyzer) AnalyzeExpr(ref ast.Ref) *ctypes.Type {
	if !an.Arena.Valid(ref) {
		return ctypes.VoidType()
	}
	n := an.node(ref)
	switch p := n.Payload.(type) {
	case ast.Identifier:
		return an.analyzeIdentifier(n, p)
	case ast.IntConstant:
		return an.set(n, intConstantType(p), false)
	case ast.FloatConstant:
		return an.set(n, floatConstantType(p), false)
	case ast.StringLiteral:
		return an.analyzeStringLiteral(ref, n, p)
	case ast.Subscript:
		return an.analyzeSubscript(n, p)
	case ast.Member:
		return an.analyzeMember(n, p)
	case ast.Call:
		return an.analyzeCall(n, p)
	case ast.Unary:
		return an.analyzeUnary(n, p)
	case ast.Binary:
		return an.analyzeBinary(n, p)
	case ast.Assign:
		return an.analyzeAssign(n, p)
	case ast.Conditional:
		return an.analyzeConditional(n, p)
	case ast.Cast:
		return an.analyzeCast(n, p)
	case ast.SizeofExpr:
		return an.analyzeSizeofExpr(n, p)
	case ast.SizeofType:
		return an.set(n, ctypes.Basic(ctypes.ULong), false)
	case ast.CompoundLiteral:
		return an.analyzeCompoundLiteral(ref, n, p)
	case ast.Comma:
		an.AnalyzeExpr(p.L)
		return an.set(n, an.AnalyzeExpr(p.R), an.node(p.R).IsLvalue)
	}
	return an.errorf(n, "unrecognized expression form")
}

func (an *Analyzer) analyzeIdentifier(n *ast.Node, id ast.Identifier) *ctypes.Type {
	sym, ok := an.Symbols.LookupOrdinary(id.Name)
	if !ok {
		return an.set(n, an.errorf(n, "use of undeclared identifier '%s'", id.Name), false)
	}
	lvalue := sym.Type.Kind != ctypes.Function
	return an.set(n, sym.Type, lvalue)
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

func (an *Analyzer) analyzeStringLiteral(ref ast.Ref, n *ast.Node, s ast.StringLiteral) *ctypes.Type {
	if s.Wide {
		return an.set(n, an.unsupportedf(n, "wide string literals are not supported"), true)
	}
	if _, ok := an.stringSyms[ref]; !ok {
		an.anonCounter++
		name := fmt.Sprintf(".LC%d", an.anonCounter)
		sym := &symtab.Symbol{
			Name:            name,
			Type:            ctypes.ArrayOf(ctypes.CharType(), int64(len(s.Value))+1),
			NS:              symtab.NS(symtab.Ordinary),
			Linkage:         symtab.InternalLinkage,
			StorageDuration: symtab.StaticDuration,
			InitialData:     append(append([]byte(nil), s.Value...), 0),
			IsDefined:       true,
		}
		an.stringSyms[ref] = sym
		an.Symbols.Insert(sym)
		an.Arena.Get(ref).Payload = ast.StringLiteral{Value: s.Value, Wide: s.Wide, Name: name}
	}
	return an.set(n, an.stringSyms[ref].Type, true)
}

func (an *Analyzer) analyzeSubscript(n *ast.Node, sub ast.Subscript) *ctypes.Type {
	at := an.AnalyzeExpr(sub.Array)
	it := an.AnalyzeExpr(sub.Index)
	if at.IsError() || it.IsError() {
		return an.set(n, ctypes.ErrorType(), true)
	}
	// C permits either operand to be the array/pointer, per 6.5.2.1.
	arr, idx := at, it
	if !arrLike(arr) && arrLike(idx) {
		arr, idx = idx, arr
	}
	if !arrLike(arr) {
		return an.set(n, an.errorf(n, "subscripted value is not an array or pointer"), true)
	}
	if !idx.IsInteger() {
		return an.set(n, an.errorf(n, "array subscript is not an integer"), true)
	}
	return an.set(n, arr.DerivedFrom, true)
}

func arrLike(t *ctypes.Type) bool { return t.Kind == ctypes.Pointer || t.Kind == ctypes.Array }

func (an *Analyzer) analyzeMember(n *ast.Node, m ast.Member) *ctypes.Type {
	bt := an.AnalyzeExpr(m.Base)
	if bt.IsError() {
		return an.set(n, ctypes.ErrorType(), true)
	}
	agg := bt
	if m.Arrow {
		if bt.Kind != ctypes.Pointer {
			return an.set(n, an.errorf(n, "member reference type is not a pointer"), true)
		}
		agg = bt.DerivedFrom
	}
	if agg.Kind != ctypes.Struct && agg.Kind != ctypes.Union {
		return an.set(n, an.errorf(n, "member reference base type is not a struct or union"), true)
	}
	mt, ok := agg.MemberType(m.Name)
	if !ok {
		return an.set(n, an.errorf(n, "no member named '%s' in '%s'", m.Name, agg.String()), true)
	}
	result := mt.WithQualifiers(mt.Qualifiers | agg.Qualifiers)
	return an.set(n, result, true)
}

func (an *Analyzer) analyzeCall(n *ast.Node, c ast.Call) *ctypes.Type {
	ct := an.AnalyzeExpr(c.Callee)
	argTypes := make([]*ctypes.Type, len(c.Args))
	for i, a := range c.Args {
		argTypes[i] = an.AnalyzeExpr(a)
	}
	if ct.IsError() {
		return an.set(n, ctypes.ErrorType(), false)
	}
	fn := ct
	if fn.Kind == ctypes.Pointer && fn.DerivedFrom.Kind == ctypes.Function {
		fn = fn.DerivedFrom
	}
	if fn.Kind != ctypes.Function {
		return an.set(n, an.errorf(n, "called object is not a function or function pointer"), false)
	}
	ret := fn.DerivedFrom
	if ret.Kind != ctypes.Void && ret.Kind == ctypes.Array {
		return an.set(n, an.errorf(n, "function cannot return array type"), false)
	}
	if fn.Prototyped {
		min := len(fn.ParamTypes)
		if len(c.Args) < min || (!fn.Variadic && len(c.Args) != min) {
			return an.set(n, an.errorf(n, "wrong number of arguments to function call"), false)
		}
		for i, pt := range fn.ParamTypes {
			if i >= len(argTypes) {
				break
			}
			if !Assignable(pt, argTypes[i]) {
				an.errorf(n, "argument %d is incompatible with parameter type '%s'", i+1, pt.String())
			}
		}
	}
	return an.set(n, ret, false)
}

func (an *Analyzer) analyzeUnary(n *ast.Node, u ast.Unary) *ctypes.Type {
	operandRef := u.Operand
	ot := an.AnalyzeExpr(operandRef)
	operand := an.node(operandRef)
	if ot.IsError() {
		return an.set(n, ctypes.ErrorType(), false)
	}
	switch u.Op {
	case ast.OpPlus, ast.OpNeg:
		if !ot.IsArithmetic() {
			return an.set(n, an.errorf(n, "invalid argument type to unary expression"), false)
		}
		return an.set(n, ctypes.PromoteInteger(ot), false)
	case ast.OpBitNot:
		if !ot.IsInteger() {
			return an.set(n, an.errorf(n, "invalid argument type to unary expression"), false)
		}
		return an.set(n, ctypes.PromoteInteger(ot), false)
	case ast.OpNot:
		if !ot.IsScalar() {
			return an.set(n, an.errorf(n, "invalid argument type to unary expression"), false)
		}
		return an.set(n, ctypes.IntType(), false)
	case ast.OpPreInc, ast.OpPreDec, ast.OpPostInc, ast.OpPostDec:
		if !operand.IsLvalue || !(ot.IsArithmetic() || ot.Kind == ctypes.Pointer) {
			return an.set(n, an.errorf(n, "expression is not assignable"), false)
		}
		return an.set(n, ot, false)
	case ast.OpAddrOf:
		if !an.addressable(operandRef, operand, ot) {
			return an.set(n, an.errorf(n, "cannot take the address of this expression"), false)
		}
		return an.set(n, ctypes.PointerTo(ot), false)
	case ast.OpDeref:
		if ot.Kind != ctypes.Pointer {
			return an.set(n, an.errorf(n, "indirection requires pointer operand"), true)
		}
		return an.set(n, ot.DerivedFrom, true)
	}
	return an.set(n, an.errorf(n, "unsupported unary operator"), false)
}

// addressable implements spec 4.3's `&` rule: a function designator, a
// subscript/dereference result, or an lvalue that is not a register.
func (an *Analyzer) addressable(ref ast.Ref, n *ast.Node, t *ctypes.Type) bool {
	if t.Kind == ctypes.Function {
		return true
	}
	switch n.Kind {
	case ast.KindSubscript, ast.KindUnary:
		if u, ok := n.Payload.(ast.Unary); !ok || u.Op == ast.OpDeref {
			return true
		}
	}
	if !n.IsLvalue {
		return false
	}
	if id, ok := n.Payload.(ast.Identifier); ok {
		if sym, found := an.Symbols.LookupOrdinary(id.Name); found && sym.StorageClass == ast.SCRegister {
			return false
		}
	}
	return true
}

func (an *Analyzer) analyzeBinary(n *ast.Node, b ast.Binary) *ctypes.Type {
	lt := an.AnalyzeExpr(b.L)
	rt := an.AnalyzeExpr(b.R)
	if lt.IsError() || rt.IsError() {
		return an.set(n, ctypes.ErrorType(), false)
	}
	switch b.Op {
	case ast.OpLogAnd, ast.OpLogOr:
		if !lt.IsScalar() || !rt.IsScalar() {
			return an.set(n, an.errorf(n, "operands of logical operator must be scalar"), false)
		}
		return an.set(n, ctypes.IntType(), false)
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return an.analyzeRelational(n, b.Op, lt, rt)
	case ast.OpAdd:
		return an.analyzeAdditive(n, lt, rt, true)
	case ast.OpSub:
		return an.analyzeAdditive(n, lt, rt, false)
	case ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor:
		if !lt.IsInteger() || !rt.IsInteger() {
			return an.set(n, an.errorf(n, "operands of bitwise operator must have integer type"), false)
		}
		return an.set(n, ctypes.UsualArithmeticConversion(lt, rt), false)
	case ast.OpShl, ast.OpShr:
		if !lt.IsInteger() || !rt.IsInteger() {
			return an.set(n, an.errorf(n, "operands of shift operator must have integer type"), false)
		}
		return an.set(n, ctypes.PromoteInteger(lt), false)
	default: // Mul, Div, Mod
		if b.Op == ast.OpMod {
			if !lt.IsInteger() || !rt.IsInteger() {
				return an.set(n, an.errorf(n, "operands of %% must have integer type"), false)
			}
		} else if !lt.IsArithmetic() || !rt.IsArithmetic() {
			return an.set(n, an.errorf(n, "operands of arithmetic operator must have arithmetic type"), false)
		}
		return an.set(n, ctypes.UsualArithmeticConversion(lt, rt), false)
	}
}

func (an *Analyzer) analyzeAdditive(n *ast.Node, lt, rt *ctypes.Type, isAdd bool) *ctypes.Type {
	switch {
	case lt.IsArithmetic() && rt.IsArithmetic():
		return an.set(n, ctypes.UsualArithmeticConversion(lt, rt), false)
	case lt.Kind == ctypes.Pointer && rt.IsInteger():
		return an.set(n, lt, false)
	case isAdd && lt.IsInteger() && rt.Kind == ctypes.Pointer:
		return an.set(n, rt, false)
	case !isAdd && lt.Kind == ctypes.Pointer && rt.Kind == ctypes.Pointer:
		if !ctypes.Compatible(lt.DerivedFrom.Unqualified(), rt.DerivedFrom.Unqualified()) {
			return an.set(n, an.errorf(n, "pointer operands to binary - must point to compatible types"), false)
		}
		return an.set(n, ctypes.Basic(ctypes.Long), false)
	default:
		return an.set(n, an.errorf(n, "invalid operands to binary expression"), false)
	}
}

func (an *Analyzer) analyzeRelational(n *ast.Node, op ast.BinaryOp, lt, rt *ctypes.Type) *ctypes.Type {
	ok := false
	switch {
	case lt.IsArithmetic() && rt.IsArithmetic():
		ok = true
	case lt.Kind == ctypes.Pointer && rt.Kind == ctypes.Pointer:
		ok = ctypes.Compatible(lt.DerivedFrom.Unqualified(), rt.DerivedFrom.Unqualified()) ||
			lt.DerivedFrom.Kind == ctypes.Void || rt.DerivedFrom.Kind == ctypes.Void
	case lt.Kind == ctypes.Pointer && rt.IsNullPointerConstantCandidate():
		ok = true
	case rt.Kind == ctypes.Pointer && lt.IsNullPointerConstantCandidate():
		ok = true
	}
	if !ok {
		return an.set(n, an.errorf(n, "comparison of incompatible operand types"), false)
	}
	return an.set(n, ctypes.IntType(), false)
}

func (an *Analyzer) analyzeAssign(n *ast.Node, as ast.Assign) *ctypes.Type {
	lt := an.AnalyzeExpr(as.L)
	rt := an.AnalyzeExpr(as.R)
	lhs := an.node(as.L)
	if !lhs.IsLvalue {
		return an.set(n, an.errorf(n, "expression is not assignable"), false)
	}
	if lt.IsError() || rt.IsError() {
		return an.set(n, ctypes.ErrorType(), false)
	}
	switch as.Op {
	case ast.AsSimple:
		if !Assignable(lt, rt) {
			return an.set(n, an.errorf(n, "assigning to '%s' from incompatible type '%s'", lt.String(), rt.String()), false)
		}
	case ast.AsAdd, ast.AsSub:
		if lt.Kind == ctypes.Pointer {
			if !rt.IsInteger() {
				return an.set(n, an.errorf(n, "pointer compound assignment requires integer operand"), false)
			}
		} else if !lt.IsArithmetic() || !rt.IsArithmetic() {
			return an.set(n, an.errorf(n, "invalid operands to compound assignment"), false)
		}
	default:
		if !lt.IsArithmetic() || !rt.IsArithmetic() {
			return an.set(n, an.errorf(n, "invalid operands to compound assignment"), false)
		}
	}
	return an.set(n, lt, false)
}

func (an *Analyzer) analyzeConditional(n *ast.Node, c ast.Conditional) *ctypes.Type {
	ct := an.AnalyzeExpr(c.Cond)
	tt := an.AnalyzeExpr(c.Then)
	et := an.AnalyzeExpr(c.Else)
	if !ct.IsScalar() {
		an.errorf(n, "condition of '?:' must have scalar type")
	}
	if tt.IsError() || et.IsError() {
		return an.set(n, ctypes.ErrorType(), false)
	}
	switch {
	case tt.IsArithmetic() && et.IsArithmetic():
		return an.set(n, ctypes.UsualArithmeticConversion(tt, et), false)
	case tt.Kind == ctypes.Void && et.Kind == ctypes.Void:
		return an.set(n, ctypes.VoidType(), false)
	case (tt.Kind == ctypes.Struct || tt.Kind == ctypes.Union) && ctypes.Compatible(tt, et):
		return an.set(n, tt, false)
	case tt.Kind == ctypes.Pointer && et.IsNullPointerConstantCandidate():
		return an.set(n, tt, false)
	case et.Kind == ctypes.Pointer && tt.IsNullPointerConstantCandidate():
		return an.set(n, et, false)
	case tt.Kind == ctypes.Pointer && et.Kind == ctypes.Pointer:
		return an.set(n, ctypes.Compose(tt, et), false)
	default:
		return an.set(n, an.errorf(n, "incompatible operand types in conditional expression"), false)
	}
}

func (an *Analyzer) analyzeCast(n *ast.Node, c ast.Cast) *ctypes.Type {
	ot := an.AnalyzeExpr(c.Operand)
	if ot.IsError() {
		return an.set(n, ctypes.ErrorType(), false)
	}
	if c.Target.Kind != ctypes.Void && !c.Target.IsScalar() {
		return an.set(n, an.errorf(n, "used type is not scalar"), false)
	}
	if !ot.IsScalar() && c.Target.Kind != ctypes.Void {
		return an.set(n, an.errorf(n, "operand of cast must have scalar type"), false)
	}
	return an.set(n, c.Target, false)
}

func (an *Analyzer) analyzeSizeofExpr(n *ast.Node, s ast.SizeofExpr) *ctypes.Type {
	ot := an.AnalyzeExpr(s.Operand)
	if ot.Kind == ctypes.Array && !ot.LengthKnown && ot.LengthExpr != ctypes.InvalidRef {
		return an.set(n, an.unsupportedf(n, "sizeof of a variable-length array is not supported"), false)
	}
	return an.set(n, ctypes.Basic(ctypes.ULong), false)
}

func (an *Analyzer) analyzeCompoundLiteral(ref ast.Ref, n *ast.Node, cl ast.CompoundLiteral) *ctypes.Type {
	if _, ok := an.compoundSyms[ref]; !ok {
		an.anonCounter++
		name := fmt.Sprintf(".LCL%d", an.anonCounter)
		an.Arena.Get(ref).Payload = ast.CompoundLiteral{Target: cl.Target, Init: cl.Init, Name: name}
		sym := &symtab.Symbol{
			Name:            name,
			Type:            cl.Target,
			NS:              symtab.NS(symtab.Ordinary),
			StorageDuration: symtab.AutomaticDuration,
		}
		an.compoundSyms[ref] = sym
		an.Symbols.Insert(sym)
	}
	an.analyzeInitializerList(cl.Init, cl.Target)
	return an.set(n, cl.Target, true)
}

// Assignable implements spec 4.3's assignability predicate.
func Assignable(target, src *ctypes.Type) bool {
	switch {
	case target.IsArithmetic() && src.IsArithmetic():
		return true
	case (target.Kind == ctypes.Struct || target.Kind == ctypes.Union) && ctypes.Compatible(target, src):
		return true
	case target.Kind == ctypes.Pointer && src.Kind == ctypes.Pointer:
		if target.DerivedFrom.Kind == ctypes.Void || src.DerivedFrom.Kind == ctypes.Void {
			return qualSuperset(target.DerivedFrom.Qualifiers, src.DerivedFrom.Qualifiers)
		}
		return ctypes.Compatible(target.DerivedFrom.Unqualified(), src.DerivedFrom.Unqualified()) &&
			qualSuperset(target.DerivedFrom.Qualifiers, src.DerivedFrom.Qualifiers)
	case target.Kind == ctypes.Pointer && src.IsNullPointerConstantCandidate():
		return true
	case target.Kind == ctypes.Bool && src.Kind == ctypes.Pointer:
		return true
	default:
		return false
	}
}

// qualSuperset reports whether target carries every qualifier src does
// (assigning T* to a more-qualified-pointee pointer is fine, never the
// reverse).
func qualSuperset(target, src ctypes.Qualifiers) bool {
	return target&src == src
}
