package airgen

import (
	"testing"

	"github.com/c99cc/sysvcc/pkg/air"
	"github.com/c99cc/sysvcc/pkg/ast"
	"github.com/c99cc/sysvcc/pkg/ctypes"
	"github.com/c99cc/sysvcc/pkg/symtab"
)

func newLowerer() (*Lowerer, *ast.Arena) {
	a := ast.NewArena()
	st := symtab.New()
	return New(a, st), a
}

func TestLowerIdentifierUseLoadsScalarValue(t *testing.T) {
	lw, a := newLowerer()
	lw.Symbols.Insert(&symtab.Symbol{Name: "x", Type: ctypes.IntType(), NS: symtab.NS(symtab.Ordinary)})
	id := a.New(ast.KindIdentifier, 1, 1, ast.Identifier{Name: "x"})
	a.Get(id).CType = ctypes.IntType()
	a.Get(id).IsLvalue = false

	list, _ := lw.lowerExpr(id)
	first := list.Front()
	if first == nil || first.Op != air.OpLoad {
		t.Fatalf("expected first insn to be a plain Load, got %v", first)
	}
}

func TestLowerIdentifierUseOfAggregateEmitsLoadAddr(t *testing.T) {
	lw, a := newLowerer()
	arrType := ctypes.ArrayOf(ctypes.IntType(), 4)
	lw.Symbols.Insert(&symtab.Symbol{Name: "x", Type: arrType, NS: symtab.NS(symtab.Ordinary)})
	id := a.New(ast.KindIdentifier, 1, 1, ast.Identifier{Name: "x"})
	a.Get(id).CType = arrType
	a.Get(id).IsLvalue = true

	list, _ := lw.lowerExpr(id)
	if list.Front().Op != air.OpLoadAddr {
		t.Fatalf("expected LoadAddr for an array-typed identifier (decay), got %s", list.Front().Op)
	}
}

func TestLowerIdentifierUseOfScalarLvalueStillLoads(t *testing.T) {
	lw, a := newLowerer()
	lw.Symbols.Insert(&symtab.Symbol{Name: "x", Type: ctypes.IntType(), NS: symtab.NS(symtab.Ordinary)})
	id := a.New(ast.KindIdentifier, 1, 1, ast.Identifier{Name: "x"})
	a.Get(id).CType = ctypes.IntType()
	a.Get(id).IsLvalue = true

	list, _ := lw.lowerExpr(id)
	if list.Front().Op != air.OpLoad {
		t.Fatalf("expected a plain Load for a scalar identifier even though it is grammatically an lvalue, got %s", list.Front().Op)
	}
}

func TestLowerShortCircuitAndEmitsTwoLabelsAndPhi(t *testing.T) {
	lw, a := newLowerer()
	l := a.New(ast.KindIntConstant, 1, 1, ast.IntConstant{Value: 0})
	r := a.New(ast.KindIntConstant, 1, 1, ast.IntConstant{Value: 1})
	a.Get(l).CType = ctypes.IntType()
	a.Get(r).CType = ctypes.IntType()
	bin := a.New(ast.KindBinary, 1, 1, ast.Binary{Op: ast.OpLogAnd, L: l, R: r})
	a.Get(bin).CType = ctypes.IntType()

	list, _ := lw.lowerExpr(bin)
	sawPhi, sawJz := false, false
	list.Each(func(i *air.Insn) {
		if i.Op == air.OpPhi {
			sawPhi = true
		}
		if i.Op == air.OpJz {
			sawJz = true
		}
	})
	if !sawPhi || !sawJz {
		t.Fatalf("expected a Jz and a concluding Phi in short-circuit codegen")
	}

	jzCount := 0
	var loadConsts []uint64
	list.Each(func(i *air.Insn) {
		if i.Op == air.OpJz {
			jzCount++
		}
		if i.Op == air.OpLoad && i.Operands[1].Kind == air.OperandIntegerConstant {
			loadConsts = append(loadConsts, i.Operands[1].IntConst)
		}
	})
	if jzCount != 2 {
		t.Fatalf("expected a Jz test on each operand of &&, got %d", jzCount)
	}
	// The first two loads are the operands themselves (0 and 1); the last
	// two are the Phi's sources.
	if len(loadConsts) != 4 || loadConsts[0] != 0 || loadConsts[1] != 1 || loadConsts[2] != 1 || loadConsts[3] != 0 {
		t.Fatalf("expected && to load 1 on the both-true path and 0 on the short-circuit path after its operands, got %v", loadConsts)
	}
}

func TestLowerPointerArithmeticScalesByPointeeSize(t *testing.T) {
	lw, a := newLowerer()
	lw.Symbols.Insert(&symtab.Symbol{Name: "p", Type: ctypes.PointerTo(ctypes.IntType()), NS: symtab.NS(symtab.Ordinary)})
	pid := a.New(ast.KindIdentifier, 1, 1, ast.Identifier{Name: "p"})
	a.Get(pid).CType = ctypes.PointerTo(ctypes.IntType())
	one := a.New(ast.KindIntConstant, 1, 1, ast.IntConstant{Value: 1})
	a.Get(one).CType = ctypes.IntType()
	bin := a.New(ast.KindBinary, 1, 1, ast.Binary{Op: ast.OpAdd, L: pid, R: one})
	a.Get(bin).CType = ctypes.PointerTo(ctypes.IntType())

	list, _ := lw.lowerExpr(bin)
	sawMul := false
	list.Each(func(i *air.Insn) {
		if i.Op == air.OpMul {
			sawMul = true
		}
	})
	if !sawMul {
		t.Fatalf("expected pointer + int to scale the integer operand by sizeof(int)")
	}
}

func TestLowerIfEmitsJzAndMergeLabel(t *testing.T) {
	lw, a := newLowerer()
	cond := a.New(ast.KindIntConstant, 1, 1, ast.IntConstant{Value: 1})
	a.Get(cond).CType = ctypes.IntType()
	thenBlock := a.New(ast.KindBlock, 1, 1, ast.Block{})
	ifRef := a.New(ast.KindIf, 1, 1, ast.If{Cond: cond, Then: thenBlock, Else: ast.InvalidRef})

	fc := &funcContext{returnType: ctypes.VoidType()}
	list := lw.lowerStmt(ifRef, fc)
	sawJz, sawLabel := false, false
	list.Each(func(i *air.Insn) {
		if i.Op == air.OpJz {
			sawJz = true
		}
		if i.Op == air.OpLabel {
			sawLabel = true
		}
	})
	if !sawJz || !sawLabel {
		t.Fatalf("expected an if with no else to emit Jz and a trailing Label")
	}
}

func TestLowerLocalStaticPersistsAcrossScopePop(t *testing.T) {
	lw, a := newLowerer()
	one := a.New(ast.KindIntConstant, 1, 1, ast.IntConstant{Value: 7})
	a.Get(one).CType = ctypes.IntType()
	initDecl := a.New(ast.KindInitDeclarator, 1, 1, ast.InitDeclarator{Name: "counter", Type: ctypes.IntType(), Init: one, StorageClass: ast.SCStatic})
	decl := a.New(ast.KindDeclaration, 1, 1, ast.Declaration{Declarators: []ast.Ref{initDecl}})
	declStmt := a.New(ast.KindDeclStmt, 1, 1, ast.DeclStmt{Decl: decl})
	block := a.New(ast.KindBlock, 1, 1, ast.Block{Items: []ast.Ref{declStmt}})

	// Pre-populate the symbol as the analyzer would have, with its
	// evaluated static initial data, inside a nested scope that then pops
	// (mirroring the analyzer's block push/pop around this same block).
	lw.Symbols.Push()
	sym := &symtab.Symbol{Name: "counter", Type: ctypes.IntType(), NS: symtab.NS(symtab.Ordinary), StorageDuration: symtab.StaticDuration, InitialData: []byte{7, 0, 0, 0}, IsDefined: true}
	lw.Symbols.Insert(sym)
	lw.Symbols.Pop()

	fc := &funcContext{returnType: ctypes.VoidType()}
	lw.lowerStmt(block, fc)

	if len(lw.Module.Data) != 1 {
		t.Fatalf("expected one AirData for the local static, got %d", len(lw.Module.Data))
	}
	if string(lw.Module.Data[0].Bytes) != string([]byte{7, 0, 0, 0}) {
		t.Fatalf("expected the AirData to carry the analyzer's evaluated bytes, got %v", lw.Module.Data[0].Bytes)
	}
}

func TestLowerFunctionDefinitionAddsRoutine(t *testing.T) {
	lw, a := newLowerer()
	fnType := ctypes.FunctionOf(ctypes.VoidType(), nil, false, true)
	lw.Symbols.Insert(&symtab.Symbol{Name: "f", Type: fnType, NS: symtab.NS(symtab.Ordinary)})
	body := a.New(ast.KindBlock, 1, 1, ast.Block{})
	fn := a.New(ast.KindFunctionDefinition, 1, 1, ast.FunctionDefinition{Name: "f", Type: fnType, Body: body})

	lw.lowerExternalDecl(fn)
	if len(lw.Module.Routines) != 1 {
		t.Fatalf("expected one routine, got %d", len(lw.Module.Routines))
	}
	if lw.Module.Routines[0].Symbol.SymbolName() != "f" {
		t.Fatalf("expected routine symbol name 'f', got %s", lw.Module.Routines[0].Symbol.SymbolName())
	}
}
