package traverse

import (
	"testing"

	"github.com/c99cc/sysvcc/pkg/ast"
)

func TestRunVisitsBinaryOperandsBeforeParentInAfterOrder(t *testing.T) {
	arena := ast.NewArena()
	lhs := arena.New(ast.KindIdentifier, 0, 0, ast.Identifier{Name: "a"})
	rhs := arena.New(ast.KindIdentifier, 0, 0, ast.Identifier{Name: "b"})
	add := arena.New(ast.KindBinary, 0, 0, ast.Binary{Op: ast.OpAdd, L: lhs, R: rhs})

	var order []ast.Ref
	tr := New(arena)
	tr.DefaultAfter = func(tr *Traverser, ref ast.Ref) { order = append(order, ref) }
	tr.Run(add)

	if len(order) != 3 || order[0] != lhs || order[1] != rhs || order[2] != add {
		t.Fatalf("expected [lhs, rhs, add] after-order, got %v", order)
	}
}

func TestBeforeAndAfterBothFireForRegisteredKind(t *testing.T) {
	arena := ast.NewArena()
	id := arena.New(ast.KindIdentifier, 0, 0, ast.Identifier{Name: "x"})

	var sawBefore, sawAfter bool
	tr := New(arena)
	tr.Before[ast.KindIdentifier] = func(tr *Traverser, ref ast.Ref) { sawBefore = true }
	tr.After[ast.KindIdentifier] = func(tr *Traverser, ref ast.Ref) { sawAfter = true }
	tr.Run(id)

	if !sawBefore || !sawAfter {
		t.Fatalf("expected both before and after hooks to fire, got before=%v after=%v", sawBefore, sawAfter)
	}
}

func TestInvalidRefChildIsSkipped(t *testing.T) {
	arena := ast.NewArena()
	cond := arena.New(ast.KindIdentifier, 0, 0, ast.Identifier{Name: "c"})
	then := arena.New(ast.KindIdentifier, 0, 0, ast.Identifier{Name: "t"})
	ifNode := arena.New(ast.KindIf, 0, 0, ast.If{Cond: cond, Then: then, Else: ast.InvalidRef})

	visited := 0
	tr := New(arena)
	tr.DefaultBefore = func(tr *Traverser, ref ast.Ref) { visited++ }
	tr.Run(ifNode)

	if visited != 3 {
		t.Fatalf("expected 3 visited nodes (if, cond, then), got %d", visited)
	}
}

func TestBlockVisitsEveryItemInOrder(t *testing.T) {
	arena := ast.NewArena()
	a := arena.New(ast.KindIdentifier, 0, 0, ast.Identifier{Name: "a"})
	b := arena.New(ast.KindIdentifier, 0, 0, ast.Identifier{Name: "b"})
	block := arena.New(ast.KindBlock, 0, 0, ast.Block{Items: []ast.Ref{a, b}})

	var order []ast.Ref
	tr := New(arena)
	tr.DefaultBefore = func(tr *Traverser, ref ast.Ref) { order = append(order, ref) }
	tr.Run(block)

	if len(order) != 3 || order[0] != block || order[1] != a || order[2] != b {
		t.Fatalf("expected [block, a, b] before-order, got %v", order)
	}
}
