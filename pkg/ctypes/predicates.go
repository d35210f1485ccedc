package ctypes

// IsInteger reports whether t is any integer scalar type, per spec 3.2's
// Integer ConstExpr kind.
func (t *Type) IsInteger() bool {
	switch t.Kind {
	case Bool, Char, SChar, UChar, Short, UShort, Int, UInt, Long, ULong, LongLong, ULongLong:
		return true
	}
	return false
}

// IsRealFloating reports whether t is float/double/long double (not complex
// or imaginary).
func (t *Type) IsRealFloating() bool {
	switch t.Kind {
	case Float, Double, LongDouble:
		return true
	}
	return false
}

// IsComplex reports whether t is one of the _Complex kinds.
func (t *Type) IsComplex() bool {
	switch t.Kind {
	case FloatComplex, DoubleComplex, LongDoubleComplex:
		return true
	}
	return false
}

// IsImaginary reports whether t is one of the _Imaginary kinds.
func (t *Type) IsImaginary() bool {
	switch t.Kind {
	case FloatImaginary, DoubleImaginary, LongDoubleImaginary:
		return true
	}
	return false
}

// IsFloating reports whether t is any floating variant: real, complex, or
// imaginary.
func (t *Type) IsFloating() bool {
	return t.IsRealFloating() || t.IsComplex() || t.IsImaginary()
}

// IsArithmetic reports whether t is integer or floating: the Arithmetic
// ConstExpr kind's scalar superset of Integer.
func (t *Type) IsArithmetic() bool {
	return t.IsInteger() || t.IsFloating()
}

// IsScalar reports whether t is arithmetic or a pointer — the operand class
// required by cast expressions and conditions.
func (t *Type) IsScalar() bool {
	return t.IsArithmetic() || t.Kind == Pointer
}

// IsSigned reports whether an integer type is signed. Bool is unsigned by
// convention; Char's signedness is implementation-defined and here treated
// as signed (matching the common x86-64 SysV psABI convention).
func (t *Type) IsSigned() bool {
	switch t.Kind {
	case Char, SChar, Short, Int, Long, LongLong:
		return true
	}
	return false
}

// IsUnsigned is the complement of IsSigned restricted to integer kinds.
func (t *Type) IsUnsigned() bool {
	return t.IsInteger() && !t.IsSigned()
}

// IsAggregate reports whether t is a struct, union, or array — the types
// that the AIR lowerer treats as address-producing rather than value-loading
// (spec 4.4: "Identifier use: ... or of aggregate/function type -> LoadAddr").
func (t *Type) IsAggregate() bool {
	return t.Kind == Struct || t.Kind == Union || t.Kind == Array
}

// IsFunction reports whether t is a function type.
func (t *Type) IsFunction() bool {
	return t.Kind == Function
}

// IsObjectType reports whether t denotes storage an object could have: not
// function, not error, not label. Incomplete aggregates/arrays still count.
func (t *Type) IsObjectType() bool {
	return t.Kind != Function && t.Kind != Error && t.Kind != Label
}

// IsIncomplete reports whether t is an incomplete object type: void, an
// array with no known length, or a struct/union/enum with no recorded
// members.
func (t *Type) IsIncomplete() bool {
	switch t.Kind {
	case Void:
		return true
	case Array:
		return !t.LengthKnown
	case Struct, Union:
		return len(t.MemberNames) == 0
	case Enum:
		return len(t.ConstantNames) == 0
	}
	return false
}

// IsError reports whether t itself is the Error kind (types reachable
// through DerivedFrom are not inspected) — used to short-circuit cascading
// diagnostics.
func (t *Type) IsError() bool {
	return t != nil && t.Kind == Error
}

// IsNullPointerConstantCandidate reports whether t is an integer type, the
// type an operand paired with a pointer must have to be accepted as a null
// pointer constant. Only the type is checked, not the operand's value.
func (t *Type) IsNullPointerConstantCandidate() bool {
	return t.IsInteger()
}
