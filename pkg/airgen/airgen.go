// Package airgen lowers an analyzed AST into AIR (spec 4.4). It is a single-
// pass recursive traversal in the same shape as the teacher's pkg/clightgen
// (environment-holding translator + switch-per-construct dispatch), except
// the translation target is a flat instruction list rather than another
// tree: every construct's after-callback calls SETUP, emits into the list,
// then FINALIZE records the destination register in the node's ExprReg field
// (spec glossary: "linearization"). Parent nodes compose by copying child
// instruction sequences into their own list, exactly as spec 4.4 describes.
package airgen

import (
	"fmt"

	"github.com/c99cc/sysvcc/pkg/air"
	"github.com/c99cc/sysvcc/pkg/ast"
	"github.com/c99cc/sysvcc/pkg/ctypes"
	"github.com/c99cc/sysvcc/pkg/diag"
	"github.com/c99cc/sysvcc/pkg/symtab"
)

// Lowerer holds the state threaded through one translation unit's worth of
// lowering: the arena being read, the symbol table shared with the analyzer,
// the AirModule being built, and per-label-namespace counters.
type Lowerer struct {
	Arena   *ast.Arena
	Symbols *symtab.Table
	Module  *air.Module
	Diags   diag.List

	labels    map[air.LabelNamespace]uint64
	anonFloat int

	routine *air.Routine
	loops   []loopContext
}

// loopContext records the break/continue targets of the innermost enclosing
// iteration or switch statement (spec 4.4: "break/continue resolve to
// allocated labels attached to the innermost enclosing iteration or switch
// statement").
type loopContext struct {
	breakLabel    air.Operand
	continueLabel air.Operand // zero Operand inside a switch (switch has no continue target)
}

// New creates a lowerer targeting a fresh neutral-locale module; SETUP's
// next_vreg counter lives on the module itself (spec 5: "process-wide
// monotonic generator scoped to the current AirModule").
func New(arena *ast.Arena, symbols *symtab.Table) *Lowerer {
	return &Lowerer{
		Arena:   arena,
		Symbols: symbols,
		Module:  air.NewModule(air.Neutral),
		labels:  make(map[air.LabelNamespace]uint64),
	}
}

func (lw *Lowerer) node(ref ast.Ref) *ast.Node { return lw.Arena.Get(ref) }

// nextVReg allocates a fresh destination register.
func (lw *Lowerer) nextVReg() air.Reg { return lw.Module.NextVReg() }

// nextLabel allocates a fresh id within one of the three disjoint label
// namespaces (spec 4.4).
func (lw *Lowerer) nextLabel(ns air.LabelNamespace) air.Operand {
	id := lw.labels[ns]
	lw.labels[ns]++
	return air.Label(id, ns)
}

func (lw *Lowerer) ice(ref ast.Ref, format string, args ...any) {
	n := lw.node(ref)
	lw.Diags.Append(diag.Diagnostic{Row: n.Row, Col: n.Col, Kind: diag.Internal, Message: fmt.Sprintf(format, args...)})
}

// convert emits a single conversion instruction if from and to differ,
// dispatching on the decision table spec 4.4 calls for: signed/unsigned
// integer widening or narrowing, float<->double, and int<->float in both
// signedness directions. Returns reg unchanged if the types already agree
// (same size, same floatness, same signedness) or either type is unsized.
func (lw *Lowerer) convert(list *air.List, from, to *ctypes.Type, reg air.Reg) air.Reg {
	if from == nil || to == nil || from.Kind == to.Kind {
		return reg
	}
	fromSize, ok1 := from.Size()
	toSize, ok2 := to.Size()
	if !ok1 || !ok2 {
		return reg
	}

	dest := lw.nextVReg()
	switch {
	case from.IsFloating() && to.IsFloating():
		if toSize > fromSize {
			list.Emit(air.OpConvFloatWiden, to, air.Register(dest), air.Register(reg))
		} else if toSize < fromSize {
			list.Emit(air.OpConvFloatNarrow, to, air.Register(dest), air.Register(reg))
		} else {
			return reg
		}
	case from.IsFloating() && to.IsInteger():
		if to.IsSigned() {
			list.Emit(air.OpConvFloatToSigned, to, air.Register(dest), air.Register(reg))
		} else {
			list.Emit(air.OpConvFloatToUnsigned, to, air.Register(dest), air.Register(reg))
		}
	case from.IsInteger() && to.IsFloating():
		if from.IsSigned() {
			list.Emit(air.OpConvSignedToFloat, to, air.Register(dest), air.Register(reg))
		} else {
			list.Emit(air.OpConvUnsignedToFloat, to, air.Register(dest), air.Register(reg))
		}
	case from.IsInteger() && to.IsInteger():
		if toSize > fromSize {
			if from.IsSigned() {
				list.Emit(air.OpConvSignExtend, to, air.Register(dest), air.Register(reg))
			} else {
				list.Emit(air.OpConvZeroExtend, to, air.Register(dest), air.Register(reg))
			}
		} else if toSize < fromSize {
			list.Emit(air.OpConvTruncate, to, air.Register(dest), air.Register(reg))
		} else {
			return reg
		}
	case from.Kind == ctypes.Pointer || to.Kind == ctypes.Pointer:
		// Pointer<->integer/pointer conversions of equal width are a no-op
		// reinterpretation at this representation; only size mismatches
		// (e.g. a narrower integer converted to a pointer) need a move.
		if toSize != fromSize {
			if toSize > fromSize {
				list.Emit(air.OpConvZeroExtend, to, air.Register(dest), air.Register(reg))
			} else {
				list.Emit(air.OpConvTruncate, to, air.Register(dest), air.Register(reg))
			}
		} else {
			return reg
		}
	default:
		return reg
	}
	return dest
}

// LowerTranslationUnit lowers every external declaration, in order, into
// lw.Module.
func (lw *Lowerer) LowerTranslationUnit(ref ast.Ref) {
	n := lw.node(ref)
	tu := n.Payload.(ast.TranslationUnit)
	for _, d := range tu.Decls {
		lw.lowerExternalDecl(d)
	}
}

func (lw *Lowerer) lowerExternalDecl(ref ast.Ref) {
	n := lw.node(ref)
	switch p := n.Payload.(type) {
	case ast.FunctionDefinition:
		lw.lowerFunctionDefinition(ref, p)
	case ast.Declaration:
		lw.lowerFileScopeInitDeclarator(ref)
	default:
		lw.ice(ref, "unrecognized external declaration form")
	}
}
