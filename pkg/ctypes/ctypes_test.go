package ctypes

import "testing"

func TestConstructBasic(t *testing.T) {
	cases := []struct {
		name   string
		counts SpecifierCounts
		want   Kind
	}{
		{"int", SpecifierCounts{Int: 1}, Int},
		{"unsigned", SpecifierCounts{Unsigned: 1}, UInt},
		{"long long int", SpecifierCounts{Long: 2, Int: 1}, LongLong},
		{"unsigned long", SpecifierCounts{Unsigned: 1, Long: 1}, ULong},
		{"signed char", SpecifierCounts{Signed: 1, Char: 1}, SChar},
		{"long double", SpecifierCounts{Double: 1, Long: 1}, LongDouble},
		{"float _Complex", SpecifierCounts{Float: 1, Complex: 1}, FloatComplex},
		{"bare signed", SpecifierCounts{Signed: 1}, Int},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, _, ok := ConstructBasic(c.counts)
			if !ok {
				t.Fatalf("expected ok for %v", c.counts)
			}
			if got.Kind != c.want {
				t.Fatalf("got %v want %v", got.Kind, c.want)
			}
		})
	}
}

func TestConstructBasicInvalid(t *testing.T) {
	_, msg, ok := ConstructBasic(SpecifierCounts{Int: 1, Float: 1})
	if ok {
		t.Fatalf("expected invalid combination to fail")
	}
	if msg == "" {
		t.Fatalf("expected diagnostic message")
	}
}

func TestApplyDeclaratorPointerToFunctionReturningArrayOfPointer(t *testing.T) {
	// int *(*f)(int)[3]: pointer to function of (int) returning array[3] of pointer to int
	params := []*Type{IntType()}
	pieces := []DeclaratorPiece{
		{Kind: DPPointer},
		{Kind: DPFunction, FuncParams: params, FuncPrototyped: true},
		{Kind: DPArray, ArrayLength: 3, ArrayLengthKnown: true},
		{Kind: DPPointer},
	}
	got := ApplyDeclarator(IntType(), pieces)
	if got.Kind != Pointer {
		t.Fatalf("outermost should be pointer, got %v", got.Kind)
	}
	fn := got.DerivedFrom
	if fn.Kind != Function {
		t.Fatalf("expected function, got %v", fn.Kind)
	}
	arr := fn.DerivedFrom
	if arr.Kind != Array || arr.Length != 3 {
		t.Fatalf("expected array[3], got %v len=%d", arr.Kind, arr.Length)
	}
	if arr.DerivedFrom.Kind != Pointer || arr.DerivedFrom.DerivedFrom.Kind != Int {
		t.Fatalf("expected pointer to int innermost")
	}
}

func TestSizeAndAlignment(t *testing.T) {
	st := CompleteStruct(Struct, "P", true,
		[]string{"x", "y"}, []*Type{IntType(), Basic(Double)}, []AstRef{InvalidRef, InvalidRef})
	sz, ok := st.Size()
	if !ok || sz != 16 {
		t.Fatalf("expected struct P size 16, got %d ok=%v", sz, ok)
	}
	al, ok := st.Alignment()
	if !ok || al != 8 {
		t.Fatalf("expected struct P alignment 8, got %d ok=%v", al, ok)
	}
	off, ok := st.MemberOffset("y")
	if !ok || off != 8 {
		t.Fatalf("expected y at offset 8, got %d ok=%v", off, ok)
	}
}

func TestIncompleteArraySizeUnknown(t *testing.T) {
	arr := IncompleteArrayOf(IntType())
	if _, ok := arr.Size(); ok {
		t.Fatalf("expected unknown size for incomplete array")
	}
}

func TestCompatibleStructsRequireMemberOrder(t *testing.T) {
	a := CompleteStruct(Struct, "P", true, []string{"x", "y"}, []*Type{IntType(), IntType()}, []AstRef{InvalidRef, InvalidRef})
	b := CompleteStruct(Struct, "P", true, []string{"y", "x"}, []*Type{IntType(), IntType()}, []AstRef{InvalidRef, InvalidRef})
	if Compatible(a, b) {
		t.Fatalf("structs with mismatched member order must not be compatible")
	}
}

func TestCompatibleUnionsIgnoreMemberOrder(t *testing.T) {
	a := CompleteStruct(Union, "U", true, []string{"x", "y"}, []*Type{IntType(), Basic(Float)}, []AstRef{InvalidRef, InvalidRef})
	b := CompleteStruct(Union, "U", true, []string{"y", "x"}, []*Type{Basic(Float), IntType()}, []AstRef{InvalidRef, InvalidRef})
	if !Compatible(a, b) {
		t.Fatalf("unions should compare members by set equality regardless of order")
	}
}

func TestComposeFunctionAdoptsParameterList(t *testing.T) {
	unprototyped := FunctionOf(IntType(), nil, false, false)
	prototyped := FunctionOf(IntType(), []*Type{IntType(), Basic(Double)}, false, true)
	composed := Compose(unprototyped, prototyped)
	if len(composed.ParamTypes) != 2 {
		t.Fatalf("expected composite to adopt the prototyped parameter list")
	}
}

func TestComposeArrayAdoptsKnownSize(t *testing.T) {
	unknown := IncompleteArrayOf(IntType())
	known := ArrayOf(IntType(), 5)
	composed := Compose(unknown, known)
	if !composed.LengthKnown || composed.Length != 5 {
		t.Fatalf("expected composite array to adopt known length 5")
	}
}

func TestUsualArithmeticConversion(t *testing.T) {
	if got := UsualArithmeticConversion(Basic(Char), Basic(Short)); got.Kind != Int {
		t.Fatalf("char+short should promote to int, got %v", got.Kind)
	}
	if got := UsualArithmeticConversion(IntType(), Basic(Double)); got.Kind != Double {
		t.Fatalf("int+double should convert to double, got %v", got.Kind)
	}
	if got := UsualArithmeticConversion(IntType(), UIntType()); got.Kind != UInt {
		t.Fatalf("int+unsigned int of equal rank should be unsigned, got %v", got.Kind)
	}
	if got := UsualArithmeticConversion(Basic(Long), UIntType()); got.Kind != Long {
		t.Fatalf("long (higher rank, signed) + unsigned int should be long, got %v", got.Kind)
	}
}
