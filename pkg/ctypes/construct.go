// construct.go implements the Type Constructor (spec 4.1): table-driven
// interpretation of declaration-specifier keyword counts into one of the
// named scalar kinds, plus outermost-first wrapping of declarator pieces
// (pointer/array/function) around a base type.
package ctypes

import "fmt"

// SpecifierCounts tallies how many times each basic specifier keyword
// appeared in a declaration-specifier list, mirroring the counter-per-
// keyword approach spec 4.1 calls for instead of pattern-matching token
// sequences directly.
type SpecifierCounts struct {
	Void, Char, Short, Int, Long, Signed, Unsigned, Float, Double, Bool, Complex, Imaginary int
}

// key canonicalizes the counts actually relevant to disambiguation (only
// presence matters for all but Long, where "long long" is distinguished
// from "long").
func (c SpecifierCounts) key() string {
	long := c.Long
	if long > 2 {
		long = 2
	}
	return fmt.Sprintf("v%db%dc%ds%di%dl%dsg%du%df%dd%dcx%dim%d",
		clamp1(c.Void), clamp1(c.Bool), clamp1(c.Char), clamp1(c.Short), clamp1(c.Int),
		long, clamp1(c.Signed), clamp1(c.Unsigned), clamp1(c.Float), clamp1(c.Double),
		clamp1(c.Complex), clamp1(c.Imaginary))
}

func clamp1(n int) int {
	if n > 0 {
		return 1
	}
	return 0
}

// specifierTable is the canonical match table from spec 4.1: it maps the
// full multiset of basic specifier keywords to a named scalar Kind. Any
// multiset not present here is ill-formed.
var specifierTable = buildSpecifierTable()

func buildSpecifierTable() map[string]Kind {
	t := make(map[string]Kind)
	add := func(k Kind, c SpecifierCounts) { t[c.key()] = k }

	add(Void, SpecifierCounts{Void: 1})
	add(Bool, SpecifierCounts{Bool: 1})
	add(Char, SpecifierCounts{Char: 1})
	add(SChar, SpecifierCounts{Char: 1, Signed: 1})
	add(UChar, SpecifierCounts{Char: 1, Unsigned: 1})
	add(Short, SpecifierCounts{Short: 1})
	add(Short, SpecifierCounts{Short: 1, Signed: 1})
	add(Short, SpecifierCounts{Short: 1, Int: 1})
	add(Short, SpecifierCounts{Short: 1, Signed: 1, Int: 1})
	add(UShort, SpecifierCounts{Short: 1, Unsigned: 1})
	add(UShort, SpecifierCounts{Short: 1, Unsigned: 1, Int: 1})
	add(Int, SpecifierCounts{Int: 1})
	add(Int, SpecifierCounts{Signed: 1})
	add(Int, SpecifierCounts{Signed: 1, Int: 1})
	add(UInt, SpecifierCounts{Unsigned: 1})
	add(UInt, SpecifierCounts{Unsigned: 1, Int: 1})
	add(Long, SpecifierCounts{Long: 1})
	add(Long, SpecifierCounts{Long: 1, Signed: 1})
	add(Long, SpecifierCounts{Long: 1, Int: 1})
	add(Long, SpecifierCounts{Long: 1, Signed: 1, Int: 1})
	add(ULong, SpecifierCounts{Long: 1, Unsigned: 1})
	add(ULong, SpecifierCounts{Long: 1, Unsigned: 1, Int: 1})
	add(LongLong, SpecifierCounts{Long: 2})
	add(LongLong, SpecifierCounts{Long: 2, Signed: 1})
	add(LongLong, SpecifierCounts{Long: 2, Int: 1})
	add(LongLong, SpecifierCounts{Long: 2, Signed: 1, Int: 1})
	add(ULongLong, SpecifierCounts{Long: 2, Unsigned: 1})
	add(ULongLong, SpecifierCounts{Long: 2, Unsigned: 1, Int: 1})
	add(Float, SpecifierCounts{Float: 1})
	add(FloatComplex, SpecifierCounts{Float: 1, Complex: 1})
	add(FloatImaginary, SpecifierCounts{Float: 1, Imaginary: 1})
	add(Double, SpecifierCounts{Double: 1})
	add(DoubleComplex, SpecifierCounts{Double: 1, Complex: 1})
	add(DoubleImaginary, SpecifierCounts{Double: 1, Imaginary: 1})
	add(LongDouble, SpecifierCounts{Double: 1, Long: 1})
	add(LongDoubleComplex, SpecifierCounts{Double: 1, Long: 1, Complex: 1})
	add(LongDoubleImaginary, SpecifierCounts{Double: 1, Long: 1, Imaginary: 1})
	return t
}

// ConstructBasic interprets a specifier-keyword multiset into a basic
// scalar type. It returns (Error type, message, false) for any combination
// absent from the canonical table.
func ConstructBasic(counts SpecifierCounts) (*Type, string, bool) {
	if k, ok := specifierTable[counts.key()]; ok {
		return Basic(k), "", true
	}
	return ErrorType(), "invalid combination of type specifiers", false
}

// TaggedSpecifier describes a struct/union/enum specifier reference; the
// caller (pkg/sema) resolves it against the symbol table before calling
// ConstructTagged, matching the source's "look up in the symbol table under
// their namespace" step.
type TaggedSpecifier struct {
	Resolved *Type // nil if lookup in the symbol table failed
	Tag      string
}

// ConstructTagged wraps a previously-resolved struct/union/enum type, or
// reports "type not defined in this context" if resolution failed (spec
// 4.1).
func ConstructTagged(ts TaggedSpecifier) (*Type, string, bool) {
	if ts.Resolved == nil {
		return ErrorType(), fmt.Sprintf("type '%s' not defined in this context", ts.Tag), false
	}
	return ts.Resolved, "", true
}

// DeclaratorPieceKind tags one link of a declarator chain.
type DeclaratorPieceKind int

const (
	DPPointer DeclaratorPieceKind = iota
	DPArray
	DPFunction
)

// DeclaratorPiece is one wrapper to apply around a type, in outermost-first
// application order (spec 4.1: "the base type is wrapped outermost-first").
// A caller peels the raw AST declarator nodes innermost-to-outermost and
// assembles them into this slice before calling ApplyDeclarator.
type DeclaratorPiece struct {
	Kind DeclaratorPieceKind

	// DPPointer
	PointerQuals Qualifiers

	// DPArray
	ArrayLength      int64
	ArrayLengthKnown bool
	ArrayUnspecified bool
	ArrayLengthExpr  AstRef

	// DPFunction
	FuncParams     []*Type
	FuncVariadic   bool
	FuncPrototyped bool
}

// ApplyDeclarator wraps base with each piece of a declarator chain, last
// piece first, so that pieces[0] becomes the outermost wrapper, realizing
// e.g. "pointer to function of (int) returning array[3] of pointer to int"
// for `int *(*f)(int)[3]`.
func ApplyDeclarator(base *Type, pieces []DeclaratorPiece) *Type {
	t := base
	for i := len(pieces) - 1; i >= 0; i-- {
		p := pieces[i]
		switch p.Kind {
		case DPPointer:
			np := PointerTo(t)
			np.Qualifiers = p.PointerQuals
			t = np
		case DPArray:
			var na *Type
			if p.ArrayLengthKnown {
				na = ArrayOf(t, p.ArrayLength)
			} else {
				na = IncompleteArrayOf(t)
				na.UnspecifiedSize = p.ArrayUnspecified
			}
			na.LengthExpr = p.ArrayLengthExpr
			t = na
		case DPFunction:
			t = FunctionOf(t, p.FuncParams, p.FuncVariadic, p.FuncPrototyped)
		}
	}
	return t
}

// CompleteStruct fills in a struct/union type's member data, re-deriving it
// from member declarations the caller has already built (spec 4.1: "the
// struct's complete type is filled in with member_names / member_types /
// member_bitfields"). kind must be Struct or Union.
func CompleteStruct(kind Kind, tag string, hasTag bool, names []string, types []*Type, bitfields []AstRef) *Type {
	return &Type{
		Kind: kind, Tag: tag, HasTag: hasTag,
		MemberNames: names, MemberTypes: types, MemberBitfields: bitfields,
	}
}

// CompleteEnum fills in an enum type's constant list. Every enumerator has
// type int (spec 4.1); ConstantExprs holds the AstRef of each enumerator's
// explicit value expression, or InvalidRef when it is implicit
// (previous + 1, or 0 for the first).
func CompleteEnum(tag string, hasTag bool, names []string, exprs []AstRef) *Type {
	return &Type{Kind: Enum, EnumTag: tag, EnumHasTag: hasTag, ConstantNames: names, ConstantExprs: exprs}
}
