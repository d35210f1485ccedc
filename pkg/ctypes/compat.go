package ctypes

// Compatible implements the structural compatibility relation of spec 3.1:
// same variant, same qualifiers, recursively compatible derived_from, and
// structurally matching variant-specific data. Unions and enums compare
// members by set-equality of name (order may differ); structs require
// matching member order; function types compose by parameter-list
// presence; arrays are compatible when either is of unknown size or both
// known sizes agree.
func Compatible(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Qualifiers != b.Qualifiers {
		return false
	}
	switch a.Kind {
	case Pointer:
		return Compatible(a.DerivedFrom, b.DerivedFrom)
	case Array:
		if !Compatible(a.DerivedFrom, b.DerivedFrom) {
			return false
		}
		if a.LengthKnown && b.LengthKnown {
			return a.Length == b.Length
		}
		return true
	case Function:
		return functionsCompatible(a, b)
	case Struct:
		return structsCompatible(a, b)
	case Union:
		return unionsCompatible(a, b)
	case Enum:
		if a.EnumHasTag != b.EnumHasTag || a.EnumTag != b.EnumTag || len(a.ConstantNames) != len(b.ConstantNames) {
			return false
		}
		names := make(map[string]bool, len(b.ConstantNames))
		for _, n := range b.ConstantNames {
			names[n] = true
		}
		for _, n := range a.ConstantNames {
			if !names[n] {
				return false
			}
		}
		return true
	default:
		return true // same Kind, same qualifiers, no derived data to compare
	}
}

func functionsCompatible(a, b *Type) bool {
	if !Compatible(a.DerivedFrom, b.DerivedFrom) {
		return false
	}
	if a.IsUnprototyped() || b.IsUnprototyped() {
		return true // an unprototyped function is compatible with anything of the same return type
	}
	if a.Variadic != b.Variadic || len(a.ParamTypes) != len(b.ParamTypes) {
		return false
	}
	for i := range a.ParamTypes {
		if !Compatible(a.ParamTypes[i].Unqualified(), b.ParamTypes[i].Unqualified()) {
			return false
		}
	}
	return true
}

func structsCompatible(a, b *Type) bool {
	if a.HasTag != b.HasTag || a.Tag != b.Tag {
		return false
	}
	if len(a.MemberNames) != len(b.MemberNames) {
		return false
	}
	for i := range a.MemberNames {
		if a.MemberNames[i] != b.MemberNames[i] {
			return false
		}
		if !Compatible(a.MemberTypes[i], b.MemberTypes[i]) {
			return false
		}
		if !bitfieldsAgree(a.MemberBitfields, b.MemberBitfields, i) {
			return false
		}
	}
	return true
}

func unionsCompatible(a, b *Type) bool {
	if a.HasTag != b.HasTag || a.Tag != b.Tag {
		return false
	}
	if len(a.MemberNames) != len(b.MemberNames) {
		return false
	}
	seen := make(map[string]bool, len(b.MemberNames))
	byName := make(map[string]*Type, len(b.MemberNames))
	for i, n := range b.MemberNames {
		byName[n] = b.MemberTypes[i]
	}
	for i, n := range a.MemberNames {
		bt, ok := byName[n]
		if !ok || !Compatible(a.MemberTypes[i], bt) {
			return false
		}
		seen[n] = true
	}
	return len(seen) == len(b.MemberNames)
}

// bitfieldsAgree reports whether the i-th members of two bitfield lists are
// both present or both absent. The widths themselves are not evaluated or
// compared, so two bitfield members of different widths count as agreeing.
func bitfieldsAgree(a, b []AstRef, i int) bool {
	aHas := i < len(a) && a[i] != InvalidRef
	bHas := i < len(b) && b[i] != InvalidRef
	return aHas == bHas
}

// Compose implements spec 3.1's composite type construction: if two function
// types are compatible and one has a parameter list, the composite adopts
// it; for arrays, a composed array takes the known size if exactly one
// operand has one. Compose assumes Compatible(a, b) already holds.
func Compose(a, b *Type) *Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	switch a.Kind {
	case Function:
		ret := Compose(a.DerivedFrom, b.DerivedFrom)
		switch {
		case !a.IsUnprototyped() && !b.IsUnprototyped():
			return FunctionOf(ret, composeParams(a.ParamTypes, b.ParamTypes), a.Variadic, true)
		case !a.IsUnprototyped():
			return FunctionOf(ret, a.ParamTypes, a.Variadic, true)
		case !b.IsUnprototyped():
			return FunctionOf(ret, b.ParamTypes, b.Variadic, true)
		default:
			return FunctionOf(ret, nil, false, false)
		}
	case Array:
		elem := Compose(a.DerivedFrom, b.DerivedFrom)
		switch {
		case a.LengthKnown:
			return ArrayOf(elem, a.Length)
		case b.LengthKnown:
			return ArrayOf(elem, b.Length)
		default:
			return IncompleteArrayOf(elem)
		}
	case Pointer:
		return PointerTo(Compose(a.DerivedFrom, b.DerivedFrom))
	default:
		return a.Clone()
	}
}

func composeParams(a, b []*Type) []*Type {
	out := make([]*Type, len(a))
	for i := range a {
		out[i] = Compose(a[i], b[i])
	}
	return out
}
