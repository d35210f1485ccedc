package localize

import (
	"github.com/c99cc/sysvcc/pkg/air"
	"github.com/c99cc/sysvcc/pkg/ctypes"
)

// narrowestChunk returns the widest type that still fits within remaining
// bytes without touching memory past them: an 8/4/2/1-byte unsigned integer
// for an Integer eightbyte, or double/float for an Sse one. Grounded on
// localize.c's largest_type_class_for_eightbyte /
// largest_sse_type_class_for_eightbyte.
func narrowestChunk(c Class, remaining int64) *ctypes.Type {
	if c == ClassSse {
		if remaining == 4 {
			return &ctypes.Type{Kind: ctypes.Float}
		}
		return &ctypes.Type{Kind: ctypes.Double}
	}
	switch {
	case remaining < 2:
		return &ctypes.Type{Kind: ctypes.UChar}
	case remaining < 4:
		return &ctypes.Type{Kind: ctypes.UShort}
	case remaining < 8:
		return &ctypes.Type{Kind: ctypes.UInt}
	default:
		return &ctypes.Type{Kind: ctypes.ULong}
	}
}

// eightbyteRemaining is how many of an object's total bytes fall within the
// eightbyte at index eb: 8 for every eightbyte but a short final one.
func eightbyteRemaining(total, eb int64) int64 {
	r := total - eb*8
	if r > 8 {
		r = 8
	}
	return r
}

// loadEightbyteBackward fills dst with the remaining (<=8) bytes found at
// base+offset. A full eightbyte is a single plain load; a short final one
// is built high-chunk-first through the shrinking-chunk-size (8,4,2,1)
// sequence of loads and left shifts spec 4.5 requires, so the read never
// runs past the aggregate. Grounded on localize.c's
// store_eightbyte_in_register and the register-packed branch of
// localize_x86_64_return.
func loadEightbyteBackward(pre *air.List, dst air.Reg, c Class, base air.Reg, offset, remaining int64) {
	if remaining >= 8 {
		t := &ctypes.Type{Kind: ctypes.ULong}
		if c == ClassSse {
			t = &ctypes.Type{Kind: ctypes.Double}
		}
		pre.Emit(air.OpLoad, t, air.Register(dst), air.IndirectRegister(base, offset))
		return
	}

	for copied := int64(0); copied < remaining; {
		left := remaining - copied
		ct := narrowestChunk(c, left)
		size, _ := ct.Size()

		op := air.OpLoad
		if copied > 0 {
			pre.Emit(air.OpDirectShl, &ctypes.Type{Kind: ctypes.ULong}, air.Register(dst), air.IntegerConstant(uint64(size*8)))
			op = air.OpAssign
		}
		pre.Emit(op, ct, air.Register(dst), air.IndirectRegister(base, offset+left-size))

		copied += size
	}
}

// storeEightbyteForward unpacks the remaining (<=8) bytes held in src into
// dest (a function from a byte offset within the eightbyte to the
// destination operand at that offset), low-chunk-first: a short final
// eightbyte shrinks its last store to the largest type that still fits,
// shifting src right to bring the next chunk down to the bottom before the
// next store. The mirror image of loadEightbyteBackward, used wherever the
// source is one packed register and the destination is memory. Grounded on
// localize.c's localize_x86_64_func_call_return and the parameter-copy loop
// in localize_x86_64_routine_before.
func storeEightbyteForward(pre *air.List, dest func(off int64) air.Operand, c Class, src air.Reg, remaining int64) {
	for copied := int64(0); copied < remaining; {
		left := remaining - copied
		ct := narrowestChunk(c, left)
		size, _ := ct.Size()

		pre.Emit(air.OpAssign, ct, dest(copied), air.Register(src))

		copied += size
		if copied >= remaining {
			break
		}
		pre.Emit(air.OpDirectShr, &ctypes.Type{Kind: ctypes.ULong}, air.Register(src), air.IntegerConstant(uint64(size*8)))
	}
}

// packPartialEightbyte folds the remaining (<8) bytes found at base+offset
// into a fresh temporary, zero-initialized and then shift-and-OR'd together
// high-chunk-first through the shrinking-chunk-size (8,4,2,1) sequence, so
// a struct argument's short final eightbyte can still be pushed as one
// 8-byte stack slot without reading past the argument. Grounded on
// localize.c's store_eightbyte_on_stack.
func (lz *Localizer) packPartialEightbyte(pre *air.List, base air.Reg, offset, remaining int64) air.Reg {
	ulong := &ctypes.Type{Kind: ctypes.ULong}
	tmp := lz.vreg()
	pre.Emit(air.OpLoad, ulong, air.Register(tmp), air.IntegerConstant(0))

	for copied := int64(0); copied < remaining; {
		left := remaining - copied
		ct := narrowestChunk(ClassInteger, left)
		size, _ := ct.Size()

		if copied > 0 {
			pre.Emit(air.OpDirectShl, ulong, air.Register(tmp), air.IntegerConstant(uint64(size*8)))
		}
		pre.Emit(air.OpDirectOr, ct, air.Register(tmp), air.IndirectRegister(base, offset+left-size))

		copied += size
	}

	return tmp
}
