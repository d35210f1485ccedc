// Package symtab is the SymbolTable inbound collaborator described in spec
// section 6: declared entities keyed by namespace-qualified lookup. Building
// it (parsing + insertion) is out of scope; this package defines the shape
// the type constructor, constant evaluator, semantic analyzer, AIR lowerer,
// and localizer all read from and add to (spec section 5: "the symbol table
// is shared across all passes").
package symtab

import (
	"fmt"

	"github.com/c99cc/sysvcc/pkg/ast"
	"github.com/c99cc/sysvcc/pkg/ctypes"
)

// NamespaceKind is one of C's distinct name spaces (spec glossary).
type NamespaceKind int

const (
	Ordinary NamespaceKind = iota
	Label
	StructTag
	UnionTag
	EnumTag
	StructMember
	UnionMember
)

func (k NamespaceKind) String() string {
	switch k {
	case Ordinary:
		return "ordinary"
	case Label:
		return "label"
	case StructTag:
		return "struct"
	case UnionTag:
		return "union"
	case EnumTag:
		return "enum"
	case StructMember:
		return "struct-member"
	case UnionMember:
		return "union-member"
	default:
		return "?"
	}
}

// Namespace qualifies a lookup. Owner is only meaningful for
// StructMember/UnionMember, identifying which aggregate's member space is
// being searched (spec 4.1: "each member's symbol is re-assigned a
// namespace of StructMember(struct-type) or UnionMember(union-type)").
type Namespace struct {
	Kind  NamespaceKind
	Owner *ctypes.Type
}

func NS(kind NamespaceKind) Namespace               { return Namespace{Kind: kind} }
func MemberNS(kind NamespaceKind, owner *ctypes.Type) Namespace { return Namespace{Kind: kind, Owner: owner} }

// Linkage distinguishes how an identifier's declarations across translation
// units/scopes refer to the same entity.
type Linkage int

const (
	NoLinkage Linkage = iota
	InternalLinkage
	ExternalLinkage
)

// StorageDuration is how long an object's storage lasts.
type StorageDuration int

const (
	AutomaticDuration StorageDuration = iota
	StaticDuration
)

// Relocation records one pointer-sized slot within a symbol's initial data
// that must be patched with the address of another symbol (plus an addend),
// rather than a plain integer (spec 3.3's AirData.relocations).
type Relocation struct {
	Offset int64
	Target *Symbol // nil => the slot holds a pure integer constant, not an address
	Addend int64
}

// Symbol is one declared entity.
type Symbol struct {
	Name            string
	Declarer        ast.Ref
	Type            *ctypes.Type
	NS              Namespace
	Linkage         Linkage
	StorageDuration StorageDuration
	StorageClass    ast.StorageClass
	InitialData     []byte
	Relocations     []Relocation

	// IsTentative marks a file-scope object declaration with neither
	// `extern` nor an initializer (spec glossary: "Tentative definition").
	IsTentative bool
	// IsDefined is set once a definition (as opposed to a mere declaration)
	// has been seen for this symbol.
	IsDefined bool

	// IsEnumConstant marks a symbol introduced by an enumerator; only these
	// ordinary-namespace identifiers are valid integer constant expressions
	// on their own (ISO 6.6p6 — everything else, even a `static const`
	// object, is not).
	IsEnumConstant bool
	EnumValue      int64
}

// SymbolName satisfies pkg/air's Symbol interface, so *Symbol can be used
// directly as an AIR operand's symbol without any adapter type.
func (s *Symbol) SymbolName() string { return s.Name }

type memberKey struct {
	owner *ctypes.Type
	name  string
}

// Table is a scope-chained symbol table. Ordinary/Label/tag namespaces are
// lexically scoped (Push/Pop); struct/union member namespaces are looked up
// directly against a known aggregate type and are not part of the scope
// stack, matching how member lookup in C is always relative to a specific
// type rather than to lexical position.
type Table struct {
	scopes  []map[scopeKey]*Symbol
	members map[memberKey]*Symbol
}

type scopeKey struct {
	ns   NamespaceKind
	name string
}

// New creates a symbol table with one (file) scope already pushed.
func New() *Table {
	t := &Table{members: make(map[memberKey]*Symbol)}
	t.Push()
	return t
}

// Push opens a new nested scope (block entry).
func (t *Table) Push() {
	t.scopes = append(t.scopes, make(map[scopeKey]*Symbol))
}

// Pop closes the innermost scope (block exit). Static-duration symbols
// declared in that scope are migrated down into the new innermost scope
// rather than discarded: their storage outlives the block, and a second,
// independent traversal of the same AST over this same table (e.g. AIR
// lowering, run after the analyzer has already popped every block it
// visited) still needs to find the evaluated initial data that traversal
// recorded on them.
func (t *Table) Pop() {
	if len(t.scopes) == 0 {
		return
	}
	popped := t.scopes[len(t.scopes)-1]
	t.scopes = t.scopes[:len(t.scopes)-1]
	if len(t.scopes) == 0 {
		return
	}
	dest := t.scopes[len(t.scopes)-1]
	for k, sym := range popped {
		if sym.StorageDuration == StaticDuration {
			dest[k] = sym
		}
	}
}

// Insert adds sym to the innermost scope under its own namespace, or to the
// member table if its namespace is Struct/UnionMember. It overwrites any
// prior binding of the same (namespace, name) in that scope — redeclaration
// diagnostics are the analyzer's responsibility, not the table's.
func (t *Table) Insert(sym *Symbol) {
	if sym.NS.Kind == StructMember || sym.NS.Kind == UnionMember {
		t.members[memberKey{owner: sym.NS.Owner, name: sym.Name}] = sym
		return
	}
	if len(t.scopes) == 0 {
		t.Push()
	}
	t.scopes[len(t.scopes)-1][scopeKey{ns: sym.NS.Kind, name: sym.Name}] = sym
}

// Lookup resolves name in the given namespace, searching from the innermost
// scope outward. For StructMember/UnionMember namespaces, ns.Owner selects
// which aggregate's member space to search instead of walking scopes.
func (t *Table) Lookup(ns Namespace, name string) (*Symbol, bool) {
	if ns.Kind == StructMember || ns.Kind == UnionMember {
		sym, ok := t.members[memberKey{owner: ns.Owner, name: name}]
		return sym, ok
	}
	key := scopeKey{ns: ns.Kind, name: name}
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i][key]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupOrdinary is a convenience for the overwhelmingly common case.
func (t *Table) LookupOrdinary(name string) (*Symbol, bool) {
	return t.Lookup(NS(Ordinary), name)
}

// Depth reports how many scopes are currently pushed, chiefly for tests.
func (t *Table) Depth() int {
	return len(t.scopes)
}

func (ns Namespace) String() string {
	if ns.Owner != nil {
		return fmt.Sprintf("%s(%s)", ns.Kind, ns.Owner.String())
	}
	return ns.Kind.String()
}
