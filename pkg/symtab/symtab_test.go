package symtab

import (
	"testing"

	"github.com/c99cc/sysvcc/pkg/ast"
	"github.com/c99cc/sysvcc/pkg/ctypes"
)

func TestInsertAndLookupOrdinaryScoped(t *testing.T) {
	tbl := New()
	outer := &Symbol{Name: "x", Type: ctypes.IntType(), NS: NS(Ordinary), Declarer: ast.InvalidRef}
	tbl.Insert(outer)

	tbl.Push()
	inner := &Symbol{Name: "x", Type: ctypes.Basic(ctypes.Double), NS: NS(Ordinary), Declarer: ast.InvalidRef}
	tbl.Insert(inner)
	if got, ok := tbl.LookupOrdinary("x"); !ok || got != inner {
		t.Fatalf("expected inner shadowing declaration")
	}
	tbl.Pop()
	if got, ok := tbl.LookupOrdinary("x"); !ok || got != outer {
		t.Fatalf("expected outer declaration visible again after pop, got %v ok=%v", got, ok)
	}
}

func TestLookupMissing(t *testing.T) {
	tbl := New()
	if _, ok := tbl.LookupOrdinary("nope"); ok {
		t.Fatalf("expected miss")
	}
}

func TestDistinctNamespacesDoNotCollide(t *testing.T) {
	tbl := New()
	tbl.Insert(&Symbol{Name: "P", Type: ctypes.IntType(), NS: NS(Ordinary)})
	tagType := ctypes.CompleteStruct(ctypes.Struct, "P", true, nil, nil, nil)
	tbl.Insert(&Symbol{Name: "P", Type: tagType, NS: NS(StructTag)})

	ord, ok := tbl.LookupOrdinary("P")
	if !ok || ord.Type.Kind == ctypes.Struct {
		t.Fatalf("expected ordinary P to be the int, not the struct tag")
	}
	tag, ok := tbl.Lookup(NS(StructTag), "P")
	if !ok || tag.Type.Kind != ctypes.Struct {
		t.Fatalf("expected struct-tag P to resolve to the struct type")
	}
}

func TestMemberNamespaceScopedByOwnerType(t *testing.T) {
	tbl := New()
	s1 := ctypes.CompleteStruct(ctypes.Struct, "A", true, []string{"x"}, []*ctypes.Type{ctypes.IntType()}, []ctypes.AstRef{ctypes.InvalidRef})
	s2 := ctypes.CompleteStruct(ctypes.Struct, "B", true, []string{"x"}, []*ctypes.Type{ctypes.Basic(ctypes.Double)}, []ctypes.AstRef{ctypes.InvalidRef})

	tbl.Insert(&Symbol{Name: "x", Type: ctypes.IntType(), NS: MemberNS(StructMember, s1)})
	tbl.Insert(&Symbol{Name: "x", Type: ctypes.Basic(ctypes.Double), NS: MemberNS(StructMember, s2)})

	a, ok := tbl.Lookup(MemberNS(StructMember, s1), "x")
	if !ok || a.Type.Kind != ctypes.Int {
		t.Fatalf("expected A.x to be int")
	}
	b, ok := tbl.Lookup(MemberNS(StructMember, s2), "x")
	if !ok || b.Type.Kind != ctypes.Double {
		t.Fatalf("expected B.x to be double")
	}
}

func TestMemberNamespaceNotVisibleToOrdinaryLookup(t *testing.T) {
	tbl := New()
	s1 := ctypes.CompleteStruct(ctypes.Struct, "A", true, []string{"x"}, []*ctypes.Type{ctypes.IntType()}, []ctypes.AstRef{ctypes.InvalidRef})
	tbl.Insert(&Symbol{Name: "x", Type: ctypes.IntType(), NS: MemberNS(StructMember, s1)})
	if _, ok := tbl.LookupOrdinary("x"); ok {
		t.Fatalf("member namespace must not leak into ordinary lookups")
	}
}
