// Package traverse is a configurable single-pass recursive visitor over an
// ast.Arena, grounded on original_source's traverse.c: a per-Kind table of
// before/after callbacks (defaulting to a no-op when a Kind has none
// registered), walked depth-first in the same child order the node's Kind
// defines. Building (parsing) the arena is out of scope; this package only
// walks one already built.
package traverse

import "github.com/c99cc/sysvcc/pkg/ast"

// Hook is called once per node, before or after its children are visited.
type Hook func(t *Traverser, ref ast.Ref)

// Traverser walks an Arena, dispatching to Before[kind]/After[kind] (or the
// Default* hook when a Kind has none registered) around each node's
// children, mirroring traverse.c's BEFORE/AFTER macros.
type Traverser struct {
	Arena *ast.Arena

	Before map[ast.Kind]Hook
	After  map[ast.Kind]Hook

	// DefaultBefore/DefaultAfter run for any Kind absent from Before/After
	// (traverse.c's no_action default, settable by the caller instead of
	// fixed to a no-op).
	DefaultBefore Hook
	DefaultAfter  Hook
}

// New builds a Traverser over arena with no-op defaults and empty hook
// tables; callers populate Before/After (or override the Default* hooks)
// before calling Run.
func New(arena *ast.Arena) *Traverser {
	return &Traverser{
		Arena:         arena,
		Before:        make(map[ast.Kind]Hook),
		After:         make(map[ast.Kind]Hook),
		DefaultBefore: func(*Traverser, ast.Ref) {},
		DefaultAfter:  func(*Traverser, ast.Ref) {},
	}
}

// Run walks the subtree rooted at root.
func (t *Traverser) Run(root ast.Ref) {
	t.visit(root)
}

func (t *Traverser) before(ref ast.Ref) {
	node := t.Arena.Get(ref)
	if hook, ok := t.Before[node.Kind]; ok {
		hook(t, ref)
		return
	}
	t.DefaultBefore(t, ref)
}

func (t *Traverser) after(ref ast.Ref) {
	node := t.Arena.Get(ref)
	if hook, ok := t.After[node.Kind]; ok {
		hook(t, ref)
		return
	}
	t.DefaultAfter(t, ref)
}

// visitEach walks a slice of children in order, skipping InvalidRef entries
// (traverse.c's VECTOR_FOR over a possibly-absent vector).
func (t *Traverser) visitEach(refs []ast.Ref) {
	for _, r := range refs {
		t.visit(r)
	}
}

// visit dispatches on ref's Kind to walk exactly the children that Kind's
// payload carries, in the same order traverse.c's switch does.
func (t *Traverser) visit(ref ast.Ref) {
	if !t.Arena.Valid(ref) || ref == ast.InvalidRef {
		return
	}
	node := t.Arena.Get(ref)
	t.before(ref)

	switch node.Kind {
	case ast.KindIdentifier, ast.KindIntConstant, ast.KindFloatConstant, ast.KindStringLiteral:
		// leaves

	case ast.KindSubscript:
		p := node.Payload.(ast.Subscript)
		t.visit(p.Array)
		t.visit(p.Index)

	case ast.KindMember:
		p := node.Payload.(ast.Member)
		t.visit(p.Base)

	case ast.KindCall:
		p := node.Payload.(ast.Call)
		t.visit(p.Callee)
		t.visitEach(p.Args)

	case ast.KindUnary:
		p := node.Payload.(ast.Unary)
		t.visit(p.Operand)

	case ast.KindBinary:
		p := node.Payload.(ast.Binary)
		t.visit(p.L)
		t.visit(p.R)

	case ast.KindAssign:
		p := node.Payload.(ast.Assign)
		t.visit(p.L)
		t.visit(p.R)

	case ast.KindConditional:
		p := node.Payload.(ast.Conditional)
		t.visit(p.Cond)
		t.visit(p.Then)
		t.visit(p.Else)

	case ast.KindCast:
		p := node.Payload.(ast.Cast)
		t.visit(p.Operand)

	case ast.KindSizeofExpr:
		p := node.Payload.(ast.SizeofExpr)
		t.visit(p.Operand)

	case ast.KindSizeofType:
		// target is a ctypes.Type, not a child node

	case ast.KindCompoundLiteral:
		p := node.Payload.(ast.CompoundLiteral)
		t.visit(p.Init)

	case ast.KindComma:
		p := node.Payload.(ast.Comma)
		t.visit(p.L)
		t.visit(p.R)

	case ast.KindInitializerList:
		p := node.Payload.(ast.InitializerList)
		for _, item := range p.Items {
			t.visit(item.Value)
		}

	case ast.KindBlock:
		p := node.Payload.(ast.Block)
		t.visitEach(p.Items)

	case ast.KindIf:
		p := node.Payload.(ast.If)
		t.visit(p.Cond)
		t.visit(p.Then)
		t.visit(p.Else)

	case ast.KindWhile:
		p := node.Payload.(ast.While)
		t.visit(p.Cond)
		t.visit(p.Body)

	case ast.KindDoWhile:
		p := node.Payload.(ast.DoWhile)
		t.visit(p.Cond)
		t.visit(p.Body)

	case ast.KindFor:
		p := node.Payload.(ast.For)
		t.visit(p.Init)
		t.visit(p.Cond)
		t.visit(p.Post)
		t.visit(p.Body)

	case ast.KindSwitch:
		p := node.Payload.(ast.Switch)
		t.visit(p.Expr)
		t.visit(p.Body)

	case ast.KindCase:
		p := node.Payload.(ast.Case)
		t.visit(p.Value)
		t.visit(p.Body)

	case ast.KindDefault:
		p := node.Payload.(ast.Default)
		t.visit(p.Body)

	case ast.KindLabeledStmt:
		p := node.Payload.(ast.LabeledStmt)
		t.visit(p.Body)

	case ast.KindGoto, ast.KindBreak, ast.KindContinue:
		// no child node references

	case ast.KindReturn:
		p := node.Payload.(ast.Return)
		t.visit(p.Value)

	case ast.KindExprStmt:
		p := node.Payload.(ast.ExprStmt)
		t.visit(p.Expr)

	case ast.KindNullStmt:
		// leaf

	case ast.KindDeclStmt:
		p := node.Payload.(ast.DeclStmt)
		t.visit(p.Decl)

	case ast.KindInitDeclarator:
		p := node.Payload.(ast.InitDeclarator)
		t.visit(p.Init)

	case ast.KindDeclaration:
		p := node.Payload.(ast.Declaration)
		t.visitEach(p.Declarators)

	case ast.KindFunctionDefinition:
		p := node.Payload.(ast.FunctionDefinition)
		t.visit(p.Body)

	case ast.KindTranslationUnit:
		p := node.Payload.(ast.TranslationUnit)
		t.visitEach(p.Decls)
	}

	t.after(ref)
}
