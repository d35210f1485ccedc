package ctypes

// rank orders integer types for the usual arithmetic conversions (ISO
// 6.3.1.1/6.3.1.8), higher is wider/preferred.
var intRank = map[Kind]int{
	Bool: 0, Char: 1, SChar: 1, UChar: 1,
	Short: 2, UShort: 2,
	Int: 3, UInt: 3,
	Long: 4, ULong: 4,
	LongLong: 5, ULongLong: 5,
}

var floatRank = map[Kind]int{
	Float: 0, Double: 1, LongDouble: 2,
}

// PromoteInteger applies the integer promotions: any integer type of rank
// lower than int converts to int (or unsigned int if int cannot represent
// all its values — on x86-64 LP64 that never applies to short/char, so this
// always promotes sub-int ranks to plain int).
func PromoteInteger(t *Type) *Type {
	if !t.IsInteger() {
		return t
	}
	if intRank[t.Kind] < intRank[Int] {
		return IntType()
	}
	return t.Unqualified()
}

// UsualArithmeticConversion computes the common type of two arithmetic
// operands per ISO 6.3.1.8: the wider of two floating types dominates; a
// floating type dominates any integer type; otherwise apply the integer
// conversion rank/signedness ladder after integer promotion.
func UsualArithmeticConversion(a, b *Type) *Type {
	if a.IsError() || b.IsError() {
		return ErrorType()
	}
	if a.IsFloating() || b.IsFloating() {
		return commonFloat(a, b)
	}
	pa, pb := PromoteInteger(a), PromoteInteger(b)
	if pa.Kind == pb.Kind {
		return pa
	}
	ra, rb := intRank[pa.Kind], intRank[pb.Kind]
	as, bs := pa.IsSigned(), pb.IsSigned()
	switch {
	case as == bs:
		if ra >= rb {
			return pa
		}
		return pb
	case !as && ra >= rb:
		return pa // unsigned operand has rank >= the signed one: result is unsigned
	case as && rb >= ra:
		return pb
	case as && ra > rb:
		return pa // signed type can represent all unsigned values of lower rank
	case !as:
		return pb
	}
	return pb
}

func commonFloat(a, b *Type) *Type {
	af, bf := floatKindOf(a), floatKindOf(b)
	if floatRank[af] >= floatRank[bf] {
		return Basic(af)
	}
	return Basic(bf)
}

// floatKindOf returns the real floating kind backing a (stripping
// complex/imaginary, which this compiler does not model beyond basic
// conversions per spec's non-goals on long-double/_Complex arithmetic).
func floatKindOf(t *Type) Kind {
	switch t.Kind {
	case Float, FloatComplex, FloatImaginary:
		return Float
	case Double, DoubleComplex, DoubleImaginary:
		return Double
	case LongDouble, LongDoubleComplex, LongDoubleImaginary:
		return LongDouble
	default:
		return Double
	}
}

// DefaultArgumentPromote applies C's default argument promotions for
// variadic/unprototyped call arguments: integer promotion, and float ->
// double.
func DefaultArgumentPromote(t *Type) *Type {
	if t.Kind == Float {
		return Basic(Double)
	}
	return PromoteInteger(t)
}
