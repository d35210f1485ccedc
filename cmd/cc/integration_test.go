package main

import (
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/c99cc/sysvcc/pkg/airgen"
	"github.com/c99cc/sysvcc/pkg/ast"
	"github.com/c99cc/sysvcc/pkg/ctypes"
	"github.com/c99cc/sysvcc/pkg/localize"
	"github.com/c99cc/sysvcc/pkg/sema"
	"github.com/c99cc/sysvcc/pkg/symtab"
	"github.com/c99cc/sysvcc/pkg/x86gen"
)

// ScenarioSpec is one named end-to-end pipeline run, read from
// testdata/integration.yaml. There is no lexer/parser/preprocessor in this
// module (out of scope), so each scenario's ast.Arena is hand-built by the
// matching entry in scenarioBuilders rather than parsed from C source; the
// YAML only carries the assertions against the generated assembly, mirroring
// how the teacher keeps its e2e expectations data-driven and separate from
// the program under test.
type ScenarioSpec struct {
	Name        string   `yaml:"name"`
	Expect      []string `yaml:"expect"`
	ExpectOrder []string `yaml:"expect_order"`
	ExpectNot   []string `yaml:"expect_not"`
}

type ScenarioFile struct {
	Scenarios []ScenarioSpec `yaml:"scenarios"`
}

// scenarioBuilders maps each scenario name in integration.yaml to the
// function that constructs its translation unit.
var scenarioBuilders = map[string]func() (*ast.Arena, ast.Ref){
	"return_constant":      buildReturnConstant,
	"local_arithmetic":     buildLocalArithmetic,
	"direct_function_call": buildDirectFunctionCall,
	"if_else_control_flow": buildIfElseControlFlow,
	"global_initialized":   buildGlobalInitialized,
	"struct_field_assign":  buildStructFieldAssign,
}

// runPipeline drives one scenario through the real subsystems in order:
// semantic analysis, AIR lowering, localization, then the trivial x86-64
// printer, returning the resulting assembly text.
func runPipeline(t *testing.T, name string) string {
	t.Helper()
	build, ok := scenarioBuilders[name]
	if !ok {
		t.Fatalf("no builder registered for scenario %q", name)
	}
	arena, tu := build()
	symbols := symtab.New()

	an := sema.New(arena, symbols)
	an.AnalyzeTranslationUnit(tu)
	if an.Diags.HasErrors() {
		t.Fatalf("scenario %q: unexpected semantic errors: %v", name, an.Diags.Items())
	}

	lw := airgen.New(arena, symbols)
	lw.LowerTranslationUnit(tu)
	if lw.Diags.HasErrors() {
		t.Fatalf("scenario %q: unexpected lowering errors: %v", name, lw.Diags.Items())
	}

	lz := localize.New(lw.Module)
	lz.Localize()

	var buf strings.Builder
	x86gen.NewPrinter(&buf).PrintModule(lw.Module)
	return buf.String()
}

func loadScenarioFile(t *testing.T) ScenarioFile {
	t.Helper()
	data, err := os.ReadFile("../../testdata/integration.yaml")
	if err != nil {
		t.Fatalf("failed to read integration.yaml: %v", err)
	}
	var file ScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		t.Fatalf("failed to parse integration.yaml: %v", err)
	}
	return file
}

// TestIntegrationScenarios drives every scenario named in
// testdata/integration.yaml through the full pipeline and checks its
// expectations against the generated assembly text.
func TestIntegrationScenarios(t *testing.T) {
	file := loadScenarioFile(t)
	if len(file.Scenarios) == 0 {
		t.Fatal("integration.yaml declared no scenarios")
	}

	for _, sc := range file.Scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			out := runPipeline(t, sc.Name)

			for _, want := range sc.Expect {
				if !strings.Contains(out, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, out)
				}
			}

			lastIdx := -1
			for _, want := range sc.ExpectOrder {
				idx := strings.Index(out, want)
				if idx < 0 {
					t.Errorf("expected output to contain %q (for ordering), got:\n%s", want, out)
					continue
				}
				if idx < lastIdx {
					t.Errorf("expected %q to appear after the preceding expect_order entry, got:\n%s", want, out)
				}
				lastIdx = idx
			}

			for _, notWant := range sc.ExpectNot {
				if strings.Contains(out, notWant) {
					t.Errorf("expected output NOT to contain %q, got:\n%s", notWant, out)
				}
			}
		})
	}
}

// TestScenarioNamesMatchBuilders guards against the YAML and the Go builders
// drifting apart silently: a YAML scenario with no builder would otherwise
// only fail inside its own subtest, after the rest of the suite has already
// run.
func TestScenarioNamesMatchBuilders(t *testing.T) {
	file := loadScenarioFile(t)
	for _, sc := range file.Scenarios {
		if _, ok := scenarioBuilders[sc.Name]; !ok {
			t.Errorf("integration.yaml scenario %q has no matching builder", sc.Name)
		}
	}
}

// --- scenario builders -----------------------------------------------

// buildReturnConstant: int main(void) { return 42; }
func buildReturnConstant() (*ast.Arena, ast.Ref) {
	a := ast.NewArena()

	retVal := a.New(ast.KindIntConstant, 1, 1, ast.IntConstant{Value: 42})
	retStmt := a.New(ast.KindReturn, 1, 1, ast.Return{Value: retVal})
	body := a.New(ast.KindBlock, 1, 1, ast.Block{Items: []ast.Ref{retStmt}})

	fnType := ctypes.FunctionOf(ctypes.IntType(), nil, false, true)
	fn := a.New(ast.KindFunctionDefinition, 1, 1, ast.FunctionDefinition{Name: "main", Type: fnType, Body: body})

	tu := a.New(ast.KindTranslationUnit, 1, 1, ast.TranslationUnit{Decls: []ast.Ref{fn}})
	return a, tu
}

// buildLocalArithmetic: int total(void) { int a = 1; int b = 2; return a + b; }
//
// Named "total" rather than "add" so the expected "call\ttotal" or mnemonic
// substring checks in the YAML can't accidentally match the "add\t%rcx,
// %rax" instruction this scenario's body also emits.
func buildLocalArithmetic() (*ast.Arena, ast.Ref) {
	a := ast.NewArena()
	intType := ctypes.IntType()

	aInit := a.New(ast.KindIntConstant, 1, 1, ast.IntConstant{Value: 1})
	aDecl := a.New(ast.KindInitDeclarator, 1, 1, ast.InitDeclarator{Name: "a", Type: intType, Init: aInit})
	aDeclaration := a.New(ast.KindDeclaration, 1, 1, ast.Declaration{Declarators: []ast.Ref{aDecl}})
	aStmt := a.New(ast.KindDeclStmt, 1, 1, ast.DeclStmt{Decl: aDeclaration})

	bInit := a.New(ast.KindIntConstant, 1, 1, ast.IntConstant{Value: 2})
	bDecl := a.New(ast.KindInitDeclarator, 1, 1, ast.InitDeclarator{Name: "b", Type: intType, Init: bInit})
	bDeclaration := a.New(ast.KindDeclaration, 1, 1, ast.Declaration{Declarators: []ast.Ref{bDecl}})
	bStmt := a.New(ast.KindDeclStmt, 1, 1, ast.DeclStmt{Decl: bDeclaration})

	idA := a.New(ast.KindIdentifier, 1, 1, ast.Identifier{Name: "a"})
	idB := a.New(ast.KindIdentifier, 1, 1, ast.Identifier{Name: "b"})
	sumExpr := a.New(ast.KindBinary, 1, 1, ast.Binary{Op: ast.OpAdd, L: idA, R: idB})
	retStmt := a.New(ast.KindReturn, 1, 1, ast.Return{Value: sumExpr})

	body := a.New(ast.KindBlock, 1, 1, ast.Block{Items: []ast.Ref{aStmt, bStmt, retStmt}})
	fnType := ctypes.FunctionOf(intType, nil, false, true)
	fn := a.New(ast.KindFunctionDefinition, 1, 1, ast.FunctionDefinition{Name: "total", Type: fnType, Body: body})

	tu := a.New(ast.KindTranslationUnit, 1, 1, ast.TranslationUnit{Decls: []ast.Ref{fn}})
	return a, tu
}

// buildDirectFunctionCall:
//
//	int helper(int x) { return x; }
//	int caller(void) { return helper(7); }
//
// Both definitions live in one translation unit so helper's symbol is
// already visible to caller without needing a separate prototype
// declaration.
func buildDirectFunctionCall() (*ast.Arena, ast.Ref) {
	a := ast.NewArena()
	intType := ctypes.IntType()

	idX := a.New(ast.KindIdentifier, 1, 1, ast.Identifier{Name: "x"})
	helperRet := a.New(ast.KindReturn, 1, 1, ast.Return{Value: idX})
	helperBody := a.New(ast.KindBlock, 1, 1, ast.Block{Items: []ast.Ref{helperRet}})
	helperType := ctypes.FunctionOf(intType, []*ctypes.Type{intType}, false, true)
	helperFn := a.New(ast.KindFunctionDefinition, 1, 1, ast.FunctionDefinition{
		Name: "helper", Type: helperType, ParamNames: []string{"x"}, Body: helperBody,
	})

	calleeID := a.New(ast.KindIdentifier, 2, 1, ast.Identifier{Name: "helper"})
	arg := a.New(ast.KindIntConstant, 2, 1, ast.IntConstant{Value: 7})
	callExpr := a.New(ast.KindCall, 2, 1, ast.Call{Callee: calleeID, Args: []ast.Ref{arg}})
	callerRet := a.New(ast.KindReturn, 2, 1, ast.Return{Value: callExpr})
	callerBody := a.New(ast.KindBlock, 2, 1, ast.Block{Items: []ast.Ref{callerRet}})
	callerType := ctypes.FunctionOf(intType, nil, false, true)
	callerFn := a.New(ast.KindFunctionDefinition, 2, 1, ast.FunctionDefinition{Name: "caller", Type: callerType, Body: callerBody})

	tu := a.New(ast.KindTranslationUnit, 1, 1, ast.TranslationUnit{Decls: []ast.Ref{helperFn, callerFn}})
	return a, tu
}

// buildIfElseControlFlow:
//
//	int pick(int n) {
//	    if (n) { return 1; } else { return 0; }
//	}
func buildIfElseControlFlow() (*ast.Arena, ast.Ref) {
	a := ast.NewArena()
	intType := ctypes.IntType()

	idN := a.New(ast.KindIdentifier, 1, 1, ast.Identifier{Name: "n"})
	oneConst := a.New(ast.KindIntConstant, 1, 1, ast.IntConstant{Value: 1})
	thenRet := a.New(ast.KindReturn, 1, 1, ast.Return{Value: oneConst})
	thenBlock := a.New(ast.KindBlock, 1, 1, ast.Block{Items: []ast.Ref{thenRet}})

	zeroConst := a.New(ast.KindIntConstant, 1, 1, ast.IntConstant{Value: 0})
	elseRet := a.New(ast.KindReturn, 1, 1, ast.Return{Value: zeroConst})
	elseBlock := a.New(ast.KindBlock, 1, 1, ast.Block{Items: []ast.Ref{elseRet}})

	ifStmt := a.New(ast.KindIf, 1, 1, ast.If{Cond: idN, Then: thenBlock, Else: elseBlock})
	body := a.New(ast.KindBlock, 1, 1, ast.Block{Items: []ast.Ref{ifStmt}})

	fnType := ctypes.FunctionOf(intType, []*ctypes.Type{intType}, false, true)
	fn := a.New(ast.KindFunctionDefinition, 1, 1, ast.FunctionDefinition{
		Name: "pick", Type: fnType, ParamNames: []string{"n"}, Body: body,
	})

	tu := a.New(ast.KindTranslationUnit, 1, 1, ast.TranslationUnit{Decls: []ast.Ref{fn}})
	return a, tu
}

// buildGlobalInitialized:
//
//	int counter = 7;
//	int read_counter(void) { return counter; }
func buildGlobalInitialized() (*ast.Arena, ast.Ref) {
	a := ast.NewArena()
	intType := ctypes.IntType()

	init := a.New(ast.KindIntConstant, 1, 1, ast.IntConstant{Value: 7})
	decl := a.New(ast.KindInitDeclarator, 1, 1, ast.InitDeclarator{Name: "counter", Type: intType, Init: init})
	declaration := a.New(ast.KindDeclaration, 1, 1, ast.Declaration{Declarators: []ast.Ref{decl}})

	idCounter := a.New(ast.KindIdentifier, 2, 1, ast.Identifier{Name: "counter"})
	retStmt := a.New(ast.KindReturn, 2, 1, ast.Return{Value: idCounter})
	body := a.New(ast.KindBlock, 2, 1, ast.Block{Items: []ast.Ref{retStmt}})
	fnType := ctypes.FunctionOf(intType, nil, false, true)
	fn := a.New(ast.KindFunctionDefinition, 2, 1, ast.FunctionDefinition{Name: "read_counter", Type: fnType, Body: body})

	tu := a.New(ast.KindTranslationUnit, 1, 1, ast.TranslationUnit{Decls: []ast.Ref{declaration, fn}})
	return a, tu
}

// buildStructFieldAssign:
//
//	struct point { int x; int y; };
//	int read_x(struct point *p) { p->x = 3; return p->x; }
//
// Exercises the Member/Assign lowering path and the Localizer's eightbyte
// Classify logic for a pointer-to-struct parameter (INTEGER class, passed in
// a single general-purpose register rather than split across SSE slots).
func buildStructFieldAssign() (*ast.Arena, ast.Ref) {
	a := ast.NewArena()
	intType := ctypes.IntType()

	pointType := ctypes.CompleteStruct(ctypes.Struct, "point", true,
		[]string{"x", "y"}, []*ctypes.Type{intType, intType}, []ctypes.AstRef{ctypes.InvalidRef, ctypes.InvalidRef})
	pointPtr := ctypes.PointerTo(pointType)

	idP := a.New(ast.KindIdentifier, 1, 1, ast.Identifier{Name: "p"})
	memberLHS := a.New(ast.KindMember, 1, 1, ast.Member{Base: idP, Name: "x", Arrow: true})
	three := a.New(ast.KindIntConstant, 1, 1, ast.IntConstant{Value: 3})
	assignExpr := a.New(ast.KindAssign, 1, 1, ast.Assign{Op: ast.AsSimple, L: memberLHS, R: three})
	assignStmt := a.New(ast.KindExprStmt, 1, 1, ast.ExprStmt{Expr: assignExpr})

	idP2 := a.New(ast.KindIdentifier, 2, 1, ast.Identifier{Name: "p"})
	memberRHS := a.New(ast.KindMember, 2, 1, ast.Member{Base: idP2, Name: "x", Arrow: true})
	retStmt := a.New(ast.KindReturn, 2, 1, ast.Return{Value: memberRHS})

	body := a.New(ast.KindBlock, 1, 1, ast.Block{Items: []ast.Ref{assignStmt, retStmt}})
	fnType := ctypes.FunctionOf(intType, []*ctypes.Type{pointPtr}, false, true)
	fn := a.New(ast.KindFunctionDefinition, 1, 1, ast.FunctionDefinition{
		Name: "read_x", Type: fnType, ParamNames: []string{"p"}, Body: body,
	})

	tu := a.New(ast.KindTranslationUnit, 1, 1, ast.TranslationUnit{Decls: []ast.Ref{fn}})
	return a, tu
}
