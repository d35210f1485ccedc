package ctypes

// scalarSizes gives the x86-64 System V size in bytes of every basic kind
// that isn't pointer/array/function/struct/union/enum.
var scalarSizes = map[Kind]int64{
	Void: 1, // sizeof(void) is a GNU extension; treated as 1 like char.
	Bool: 1, Char: 1, SChar: 1, UChar: 1,
	Short: 2, UShort: 2,
	Int: 4, UInt: 4,
	Long: 8, ULong: 8, LongLong: 8, ULongLong: 8,
	Float: 4, Double: 8, LongDouble: 16,
	FloatComplex: 8, DoubleComplex: 16, LongDoubleComplex: 32,
	FloatImaginary: 4, DoubleImaginary: 8, LongDoubleImaginary: 16,
}

var scalarAlignments = map[Kind]int64{
	Void: 1, Bool: 1, Char: 1, SChar: 1, UChar: 1,
	Short: 2, UShort: 2,
	Int: 4, UInt: 4,
	Long: 8, ULong: 8, LongLong: 8, ULongLong: 8,
	Float: 4, Double: 8, LongDouble: 16,
	FloatComplex: 4, DoubleComplex: 8, LongDoubleComplex: 16,
	FloatImaginary: 4, DoubleImaginary: 8, LongDoubleImaginary: 16,
}

// Size returns the size in bytes of t and whether it is known. Size is
// unknown for VLAs (an array whose length is an unevaluated expression),
// incomplete types, function types, and the Error/Label sentinels.
func (t *Type) Size() (int64, bool) {
	if t == nil {
		return 0, false
	}
	switch t.Kind {
	case Function, Error, Label:
		return 0, false
	case Pointer:
		return 8, true
	case Array:
		if !t.LengthKnown {
			return 0, false
		}
		elemSize, ok := t.DerivedFrom.Size()
		if !ok {
			return 0, false
		}
		return t.Length * elemSize, true
	case Struct, Union:
		return t.aggregateSize()
	case Enum:
		return 4, true // enumerators always have type int (spec 4.1)
	default:
		if sz, ok := scalarSizes[t.Kind]; ok {
			return sz, true
		}
		return 0, false
	}
}

// Alignment returns the alignment in bytes of t. Invariant: Alignment <= Size
// for every complete object type (spec 3.1).
func (t *Type) Alignment() (int64, bool) {
	if t == nil {
		return 0, false
	}
	switch t.Kind {
	case Function, Error, Label:
		return 0, false
	case Pointer:
		return 8, true
	case Array:
		return t.DerivedFrom.Alignment()
	case Struct, Union:
		return t.aggregateAlignment()
	case Enum:
		return 4, true
	default:
		if al, ok := scalarAlignments[t.Kind]; ok {
			return al, true
		}
		return 0, false
	}
}

// aggregateAlignment is the maximum member alignment (unknown for an
// incomplete, memberless aggregate), matching the System V rule that a
// struct/union is aligned to its most strictly aligned member.
func (t *Type) aggregateAlignment() (int64, bool) {
	if t.IsIncomplete() {
		return 0, false
	}
	var max int64 = 1
	for _, m := range t.MemberTypes {
		al, ok := m.Alignment()
		if !ok {
			return 0, false
		}
		if al > max {
			max = al
		}
	}
	return max, true
}

// aggregateSize lays out members at increasing aligned offsets for Struct
// and takes the maximum member size for Union, then pads the whole type up
// to its own alignment (spec 3.1: "structs/unions are padded to a fixed
// alignment").
func (t *Type) aggregateSize() (int64, bool) {
	if t.IsIncomplete() {
		return 0, false
	}
	align, ok := t.aggregateAlignment()
	if !ok {
		return 0, false
	}
	if t.Kind == Union {
		var max int64
		for _, m := range t.MemberTypes {
			sz, ok := m.Size()
			if !ok {
				return 0, false
			}
			if sz > max {
				max = sz
			}
		}
		return alignUp(max, align), true
	}
	var offset int64
	for _, m := range t.MemberTypes {
		mAlign, ok := m.Alignment()
		if !ok {
			return 0, false
		}
		offset = alignUp(offset, mAlign)
		sz, ok := m.Size()
		if !ok {
			return 0, false
		}
		offset += sz
	}
	return alignUp(offset, align), true
}

// MemberOffset returns the byte offset of the named member within a struct,
// or an offset of 0 for every member of a union.
func (t *Type) MemberOffset(name string) (int64, bool) {
	if t.Kind == Union {
		for _, n := range t.MemberNames {
			if n == name {
				return 0, true
			}
		}
		return 0, false
	}
	var offset int64
	for i, n := range t.MemberNames {
		m := t.MemberTypes[i]
		al, ok := m.Alignment()
		if !ok {
			return 0, false
		}
		offset = alignUp(offset, al)
		if n == name {
			return offset, true
		}
		sz, ok := m.Size()
		if !ok {
			return 0, false
		}
		offset += sz
	}
	return 0, false
}

// MemberType returns the type of the named member, if any.
func (t *Type) MemberType(name string) (*Type, bool) {
	for i, n := range t.MemberNames {
		if n == name {
			return t.MemberTypes[i], true
		}
	}
	return nil, false
}

func alignUp(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
