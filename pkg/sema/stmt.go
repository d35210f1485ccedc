package sema

import (
	"github.com/c99cc/sysvcc/pkg/ast"
	"github.com/c99cc/sysvcc/pkg/ctypes"
)

// funcContext tracks the state needed while walking one function body:
// its return type (for `return` checking) and loop/switch nesting (for
// `break`/`continue` placement checking).
type funcContext struct {
	returnType  *ctypes.Type
	loopDepth   int
	switchDepth int
}

func (an *Analyzer) analyzeStmt(ref ast.Ref, fc *funcContext) {
	if !an.Arena.Valid(ref) {
		return
	}
	n := an.node(ref)
	switch p := n.Payload.(type) {
	case ast.Block:
		an.Symbols.Push()
		for _, item := range p.Items {
			an.analyzeBlockItem(item, fc)
		}
		an.Symbols.Pop()

	case ast.If:
		ct := an.AnalyzeExpr(p.Cond)
		if !ct.IsScalar() && !ct.IsError() {
			an.errorf(n, "statement requires expression of scalar type")
		}
		an.analyzeStmt(p.Then, fc)
		if p.Else != ast.InvalidRef {
			an.analyzeStmt(p.Else, fc)
		}

	case ast.While:
		ct := an.AnalyzeExpr(p.Cond)
		if !ct.IsScalar() && !ct.IsError() {
			an.errorf(n, "statement requires expression of scalar type")
		}
		fc.loopDepth++
		an.analyzeStmt(p.Body, fc)
		fc.loopDepth--

	case ast.DoWhile:
		fc.loopDepth++
		an.analyzeStmt(p.Body, fc)
		fc.loopDepth--
		an.AnalyzeExpr(p.Cond)

	case ast.For:
		an.Symbols.Push()
		if p.Init != ast.InvalidRef {
			an.analyzeBlockItem(p.Init, fc)
		}
		if p.Cond != ast.InvalidRef {
			an.AnalyzeExpr(p.Cond)
		}
		if p.Post != ast.InvalidRef {
			an.AnalyzeExpr(p.Post)
		}
		fc.loopDepth++
		an.analyzeStmt(p.Body, fc)
		fc.loopDepth--
		an.Symbols.Pop()

	case ast.Switch:
		et := an.AnalyzeExpr(p.Expr)
		if !et.IsInteger() && !et.IsError() {
			an.errorf(n, "statement requires expression of integer type")
		}
		fc.switchDepth++
		an.analyzeStmt(p.Body, fc)
		fc.switchDepth--

	case ast.Case:
		if fc.switchDepth == 0 {
			an.errorf(n, "'case' statement not in switch statement")
		}
		an.analyzeStmt(p.Body, fc)

	case ast.Default:
		if fc.switchDepth == 0 {
			an.errorf(n, "'default' statement not in switch statement")
		}
		an.analyzeStmt(p.Body, fc)

	case ast.LabeledStmt:
		an.analyzeStmt(p.Body, fc)

	case ast.Goto:
		// Label resolution happens once the whole function body has been
		// walked (forward gotos); out of scope for this pass.

	case ast.Break:
		if fc.loopDepth == 0 && fc.switchDepth == 0 {
			an.errorf(n, "'break' statement not in loop or switch statement")
		}

	case ast.Continue:
		if fc.loopDepth == 0 {
			an.errorf(n, "'continue' statement not in loop statement")
		}

	case ast.Return:
		an.analyzeReturn(n, p, fc)

	case ast.ExprStmt:
		an.AnalyzeExpr(p.Expr)

	case ast.NullStmt:
		// nothing to check

	case ast.DeclStmt:
		an.analyzeDeclaration(p.Decl, false)
	}
}

func (an *Analyzer) analyzeBlockItem(ref ast.Ref, fc *funcContext) {
	n := an.node(ref)
	if n.Kind == ast.KindDeclaration {
		an.analyzeDeclaration(ref, false)
		return
	}
	an.analyzeStmt(ref, fc)
}

func (an *Analyzer) analyzeReturn(n *ast.Node, r ast.Return, fc *funcContext) {
	if r.Value == ast.InvalidRef {
		if fc.returnType != nil && fc.returnType.Kind != ctypes.Void {
			an.errorf(n, "non-void function should return a value")
		}
		return
	}
	vt := an.AnalyzeExpr(r.Value)
	if fc.returnType == nil || fc.returnType.Kind == ctypes.Void {
		an.errorf(n, "void function should not return a value")
		return
	}
	if vt.IsError() {
		return
	}
	if !Assignable(fc.returnType, vt) {
		an.errorf(n, "returning '%s' from a function with incompatible result type '%s'", vt.String(), fc.returnType.String())
	}
}
