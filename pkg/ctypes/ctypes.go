// Package ctypes defines the canonical C type ("CType") used by every other
// subsystem: the type constructor builds these, the constant evaluator and
// semantic analyzer attach them to expressions, and AIR lowering/localization
// read them back off to decide instruction shapes. This mirrors the teacher's
// pkg/ctypes (an interface-based sum type), adapted to a single tagged struct
// because the spec's own data model (section 3.1) describes CType as "a
// tagged variant with a shared qualifiers bitset... and a derived_from" —
// closer to the source's single c_type_t union (original_source/src/type.c)
// than to a Go interface hierarchy.
package ctypes

import "strings"

// AstRef is the same handle space as ast.Ref (int32 index into the AST
// arena). ctypes does not import pkg/ast to avoid a dependency cycle — both
// packages share this numeric representation of "a reference to some AST
// node", used here only for unevaluated array lengths, bitfield widths, and
// enumerator value expressions.
type AstRef = int32

// InvalidRef marks the absence of an AstRef.
const InvalidRef AstRef = -1

// Qualifiers is a bitset of const/volatile/restrict.
type Qualifiers uint8

const (
	QConst Qualifiers = 1 << iota
	QVolatile
	QRestrict
)

func (q Qualifiers) String() string {
	var parts []string
	if q&QConst != 0 {
		parts = append(parts, "const")
	}
	if q&QVolatile != 0 {
		parts = append(parts, "volatile")
	}
	if q&QRestrict != 0 {
		parts = append(parts, "restrict")
	}
	return strings.Join(parts, " ")
}

// Kind tags which variant a Type is.
type Kind int

const (
	Void Kind = iota
	Bool
	Char
	SChar
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Float
	Double
	LongDouble
	FloatComplex
	DoubleComplex
	LongDoubleComplex
	FloatImaginary
	DoubleImaginary
	LongDoubleImaginary
	Pointer
	Array
	Function
	Struct
	Union
	Enum
	// Error is the result of any failed type construction; every operation
	// performed on an Error type yields Error again so that failures never
	// cascade into unrelated diagnostics (spec section 7).
	Error
	// Label exists only so label-namespace identifiers have a CType, for
	// uniformity with ordinary identifiers; it carries no data of its own.
	Label
)

var kindNames = map[Kind]string{
	Void: "void", Bool: "_Bool", Char: "char", SChar: "signed char", UChar: "unsigned char",
	Short: "short", UShort: "unsigned short", Int: "int", UInt: "unsigned int",
	Long: "long", ULong: "unsigned long", LongLong: "long long", ULongLong: "unsigned long long",
	Float: "float", Double: "double", LongDouble: "long double",
	FloatComplex: "float _Complex", DoubleComplex: "double _Complex", LongDoubleComplex: "long double _Complex",
	FloatImaginary: "float _Imaginary", DoubleImaginary: "double _Imaginary", LongDoubleImaginary: "long double _Imaginary",
	Pointer: "pointer", Array: "array", Function: "function", Struct: "struct", Union: "union", Enum: "enum",
	Error: "<error>", Label: "<label>",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "?"
}

// basicScalarKinds is the set of Kind values that are complete scalar
// object types with a fixed size independent of any derived_from data.
var basicScalarKinds = map[Kind]bool{
	Void: true, Bool: true, Char: true, SChar: true, UChar: true,
	Short: true, UShort: true, Int: true, UInt: true, Long: true, ULong: true,
	LongLong: true, ULongLong: true, Float: true, Double: true, LongDouble: true,
	FloatComplex: true, DoubleComplex: true, LongDoubleComplex: true,
	FloatImaginary: true, DoubleImaginary: true, LongDoubleImaginary: true,
}

// Type is the canonical C type. Only the fields relevant to Kind are
// meaningful; this mirrors the source's tagged-union c_type_t rather than a
// Go interface hierarchy, per the spec's own framing of CType.
type Type struct {
	Kind       Kind
	Qualifiers Qualifiers

	// DerivedFrom is the pointee (Pointer), element (Array), or return type
	// (Function). Unused for every other Kind.
	DerivedFrom *Type

	// Array
	LengthExpr     AstRef // unevaluated length expression, or InvalidRef
	Length         int64  // evaluated length, valid when LengthKnown
	LengthKnown    bool
	UnspecifiedSize bool // `int a[]` as a parameter/extern declaration

	// Function
	ParamTypes []*Type
	Variadic   bool
	Prototyped bool // false => unprototyped K&R-style function (empty ParamTypes is NOT sufficient on its own)

	// Struct/Union
	Tag             string
	HasTag          bool
	MemberNames     []string
	MemberTypes     []*Type
	MemberBitfields []AstRef // AstRef or InvalidRef per member

	// Enum
	EnumTag       string
	EnumHasTag    bool
	ConstantNames []string
	ConstantExprs []AstRef
}

// Clone deep-copies a type so that every expression, symbol, and AIR
// instruction can own a freshly copied CType (spec section 3.4: "never
// aliased").
func (t *Type) Clone() *Type {
	if t == nil {
		return nil
	}
	c := *t
	c.DerivedFrom = t.DerivedFrom.Clone()
	c.ParamTypes = cloneSlice(t.ParamTypes)
	c.MemberTypes = cloneSlice(t.MemberTypes)
	c.MemberNames = append([]string(nil), t.MemberNames...)
	c.MemberBitfields = append([]AstRef(nil), t.MemberBitfields...)
	c.ConstantNames = append([]string(nil), t.ConstantNames...)
	c.ConstantExprs = append([]AstRef(nil), t.ConstantExprs...)
	return &c
}

func cloneSlice(in []*Type) []*Type {
	if in == nil {
		return nil
	}
	out := make([]*Type, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

// Basic constructs a basic scalar/void/error/label type with no qualifiers.
func Basic(k Kind) *Type { return &Type{Kind: k} }

func ErrorType() *Type { return &Type{Kind: Error} }
func LabelType() *Type { return &Type{Kind: Label} }
func VoidType() *Type  { return &Type{Kind: Void} }
func IntType() *Type   { return &Type{Kind: Int} }
func UIntType() *Type  { return &Type{Kind: UInt} }
func CharType() *Type  { return &Type{Kind: Char} }
func BoolType() *Type  { return &Type{Kind: Bool} }

// PointerTo builds a pointer to elem.
func PointerTo(elem *Type) *Type {
	return &Type{Kind: Pointer, DerivedFrom: elem}
}

// ArrayOf builds an array of elem with a known constant length.
func ArrayOf(elem *Type, length int64) *Type {
	return &Type{Kind: Array, DerivedFrom: elem, Length: length, LengthKnown: true}
}

// IncompleteArrayOf builds an array of unknown/unspecified size.
func IncompleteArrayOf(elem *Type) *Type {
	return &Type{Kind: Array, DerivedFrom: elem, LengthExpr: InvalidRef, UnspecifiedSize: true}
}

// FunctionOf builds a function type. An empty params slice with
// prototyped=false denotes an unprototyped (K&R) function; an empty slice
// with prototyped=true denotes `f(void)`.
func FunctionOf(ret *Type, params []*Type, variadic, prototyped bool) *Type {
	return &Type{Kind: Function, DerivedFrom: ret, ParamTypes: params, Variadic: variadic, Prototyped: prototyped}
}

// IsUnprototyped reports whether a function type has no parameter
// information at all (distinct from an explicit `(void)` prototype).
func (t *Type) IsUnprototyped() bool {
	return t.Kind == Function && !t.Prototyped
}

// WithQualifiers returns a clone of t carrying the given qualifier bits.
func (t *Type) WithQualifiers(q Qualifiers) *Type {
	c := t.Clone()
	c.Qualifiers = q
	return c
}

// Unqualified returns a clone of t with all qualifiers stripped.
func (t *Type) Unqualified() *Type {
	return t.WithQualifiers(0)
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	qual := t.Qualifiers.String()
	if qual != "" {
		qual += " "
	}
	switch t.Kind {
	case Pointer:
		return qual + "pointer to " + t.DerivedFrom.String()
	case Array:
		if t.LengthKnown {
			return qual + "array[" + itoa(t.Length) + "] of " + t.DerivedFrom.String()
		}
		return qual + "array[] of " + t.DerivedFrom.String()
	case Function:
		return qual + "function returning " + t.DerivedFrom.String()
	case Struct:
		if t.HasTag {
			return qual + "struct " + t.Tag
		}
		return qual + "struct <anonymous>"
	case Union:
		if t.HasTag {
			return qual + "union " + t.Tag
		}
		return qual + "union <anonymous>"
	case Enum:
		if t.EnumHasTag {
			return qual + "enum " + t.EnumTag
		}
		return qual + "enum <anonymous>"
	default:
		return qual + t.Kind.String()
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
