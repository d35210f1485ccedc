package ast

import "testing"

func TestArenaNewGetLen(t *testing.T) {
	a := NewArena()
	r := a.New(KindIntConstant, 1, 1, IntConstant{Value: 42})
	if a.Len() != 1 {
		t.Fatalf("expected 1 node, got %d", a.Len())
	}
	n := a.Get(r)
	if n.Kind != KindIntConstant {
		t.Fatalf("wrong kind")
	}
	if payload, ok := n.Payload.(IntConstant); !ok || payload.Value != 42 {
		t.Fatalf("wrong payload: %#v", n.Payload)
	}
	if n.Parent != InvalidRef {
		t.Fatalf("expected fresh node to have InvalidRef parent")
	}
	if n.ExprReg != -1 {
		t.Fatalf("expected fresh node to have unset ExprReg")
	}
}

func TestArenaValid(t *testing.T) {
	a := NewArena()
	r := a.New(KindNullStmt, 0, 0, NullStmt{})
	if !a.Valid(r) {
		t.Fatalf("expected valid ref")
	}
	if a.Valid(InvalidRef) {
		t.Fatalf("InvalidRef must never be valid")
	}
	if a.Valid(Ref(99)) {
		t.Fatalf("out-of-range ref must not be valid")
	}
}

func TestArenaSetParent(t *testing.T) {
	a := NewArena()
	child := a.New(KindIntConstant, 1, 1, IntConstant{Value: 1})
	parent := a.New(KindReturn, 1, 1, Return{Value: child})
	a.SetParent(child, parent)
	if a.Get(child).Parent != parent {
		t.Fatalf("expected child's parent to be set")
	}
}

// TestSubscriptAndMemberTree models `arr[i].field`, exercising Subscript and Member
// payloads together the way the analyzer will walk them.
func TestSubscriptAndMemberTree(t *testing.T) {
	a := NewArena()
	arr := a.New(KindIdentifier, 1, 1, Identifier{Name: "arr"})
	idx := a.New(KindIdentifier, 1, 5, Identifier{Name: "i"})
	sub := a.New(KindSubscript, 1, 1, Subscript{Array: arr, Index: idx})
	a.SetParent(arr, sub)
	a.SetParent(idx, sub)
	member := a.New(KindMember, 1, 1, Member{Base: sub, Name: "field", Arrow: false})
	a.SetParent(sub, member)

	m := a.Get(member).Payload.(Member)
	if m.Name != "field" || m.Arrow {
		t.Fatalf("unexpected member payload: %#v", m)
	}
	subPayload := a.Get(m.Base).Payload.(Subscript)
	if a.Get(subPayload.Array).Payload.(Identifier).Name != "arr" {
		t.Fatalf("expected subscript array to be identifier arr")
	}
	if a.Get(m.Base).Parent != member {
		t.Fatalf("expected subscript's parent to be the member node")
	}
}

// TestDeclarationWithInitializer exercises a declaration with an initializer,
// mirroring what a parser would produce for `int x = 1;`.
func TestDeclarationWithInitializer(t *testing.T) {
	a := NewArena()
	one := a.New(KindIntConstant, 1, 9, IntConstant{Value: 1})
	decl := a.New(KindInitDeclarator, 1, 5, InitDeclarator{Name: "x", Init: one})
	a.SetParent(one, decl)
	stmt := a.New(KindDeclaration, 1, 1, Declaration{Declarators: []Ref{decl}})
	a.SetParent(decl, stmt)

	got := a.Get(stmt).Payload.(Declaration)
	if len(got.Declarators) != 1 || got.Declarators[0] != decl {
		t.Fatalf("unexpected declaration payload: %#v", got)
	}
	initDecl := a.Get(decl).Payload.(InitDeclarator)
	if initDecl.Name != "x" || initDecl.Init != one {
		t.Fatalf("unexpected init declarator: %#v", initDecl)
	}
}

func TestInitializerListWithDesignations(t *testing.T) {
	a := NewArena()
	v1 := a.New(KindIntConstant, 1, 1, IntConstant{Value: 1})
	item := InitializerItem{
		Designation: []Designation{{IsField: true, Field: "x"}},
		Value:       v1,
	}
	list := a.New(KindInitializerList, 1, 1, InitializerList{Items: []InitializerItem{item}})
	got := a.Get(list).Payload.(InitializerList)
	if len(got.Items) != 1 || !got.Items[0].Designation[0].IsField || got.Items[0].Designation[0].Field != "x" {
		t.Fatalf("unexpected initializer list: %#v", got)
	}
}
