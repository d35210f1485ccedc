// Package localize turns target-neutral AIR into x86-64 System V AMD64
// ABI-legal AIR: it is the last stage before pkg/x86gen's trivial textual
// emission and the only stage that knows about RAX/RDI/eightbytes. Grounded
// on the teacher's pkg/stacking (ComputeLayout-style struct-of-offsets
// frame description, a single forward pass over the routine) but retargeted
// from ARM64's FP/LR convention to the System V AMD64 classification rules
// spec 4.5 names (original_source's own localize.c is the other grounding
// source for which fixed registers each opcode wants).
package localize

import "github.com/c99cc/sysvcc/pkg/ctypes"

// Class is one eightbyte's System V classification (spec 4.5 point 1).
type Class int

const (
	ClassNone Class = iota
	ClassInteger
	ClassSse
	ClassSseUp
	ClassX87
	ClassX87Up
	ClassComplexX87
	ClassMemory
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassInteger:
		return "integer"
	case ClassSse:
		return "sse"
	case ClassSseUp:
		return "sseup"
	case ClassX87:
		return "x87"
	case ClassX87Up:
		return "x87up"
	case ClassComplexX87:
		return "complex-x87"
	case ClassMemory:
		return "memory"
	}
	return "?"
}

// merge combines two eightbyte classes per spec 4.5 point 3's rule set.
func merge(a, b Class) Class {
	switch {
	case a == b:
		return a
	case a == ClassNone:
		return b
	case b == ClassNone:
		return a
	case a == ClassMemory || b == ClassMemory:
		return ClassMemory
	case a == ClassInteger || b == ClassInteger:
		return ClassInteger
	case a == ClassX87 || a == ClassX87Up || a == ClassComplexX87 ||
		b == ClassX87 || b == ClassX87Up || b == ClassComplexX87:
		return ClassMemory
	default:
		return ClassSse
	}
}

// Classify returns t's per-eightbyte classification (spec 4.5 points 1-4).
// A zero-length result never occurs: every object type occupies at least
// one eightbyte.
func Classify(t *ctypes.Type) []Class {
	size, ok := t.Size()
	if !ok || size == 0 {
		return []Class{ClassMemory}
	}
	n := (size + 7) / 8

	switch {
	case t.Kind == ctypes.Void:
		return []Class{ClassNone}
	case t.IsInteger(), t.Kind == ctypes.Pointer:
		return fill(n, ClassInteger)
	case t.Kind == ctypes.Float, t.Kind == ctypes.Double, t.Kind == ctypes.FloatComplex:
		return fill(n, ClassSse)
	case t.Kind == ctypes.LongDouble:
		return []Class{ClassX87, ClassX87Up}
	case t.Kind == ctypes.DoubleComplex:
		return []Class{ClassSse, ClassSse}
	case t.Kind == ctypes.LongDoubleComplex:
		return []Class{ClassComplexX87, ClassComplexX87, ClassComplexX87, ClassComplexX87}
	case t.Kind == ctypes.Enum:
		return fill(n, ClassInteger)
	}

	if n > 8 {
		return fill(n, ClassMemory)
	}

	classes := fill(n, ClassNone)
	classifyAggregate(t, 0, classes)
	return postMergerCleanup(classes)
}

func fill(n int64, c Class) []Class {
	out := make([]Class, n)
	for i := range out {
		out[i] = c
	}
	return out
}

// classifyAggregate recursively classifies t's members into classes, each
// placed at its aligned offset within the eightbyte array (spec 4.5 point
// 3: "classify each member recursively, placing each at its aligned
// offset").
func classifyAggregate(t *ctypes.Type, base int64, classes []Class) {
	switch t.Kind {
	case ctypes.Array:
		elem := t.DerivedFrom
		elemSize, _ := elem.Size()
		if elemSize == 0 {
			return
		}
		count := t.Length
		for i := int64(0); i < count; i++ {
			classifyAggregate(elem, base+i*elemSize, classes)
		}
	case ctypes.Struct, ctypes.Union:
		for _, name := range t.MemberNames {
			off, _ := t.MemberOffset(name)
			mt, _ := t.MemberType(name)
			classifyAggregate(mt, base+off, classes)
		}
	default:
		size, ok := t.Size()
		if !ok {
			return
		}
		memberClasses := Classify(t)
		for i, mc := range memberClasses {
			byteOff := base + int64(i)*8
			eb := byteOff / 8
			if eb < 0 || int(eb) >= len(classes) {
				continue
			}
			classes[eb] = merge(classes[eb], mc)
		}
		_ = size
	}
}

// postMergerCleanup implements spec 4.5 point 4's (a)-(d) rules.
func postMergerCleanup(classes []Class) []Class {
	anyMemory := false
	for _, c := range classes {
		if c == ClassMemory {
			anyMemory = true
		}
	}
	if anyMemory {
		return fill(int64(len(classes)), ClassMemory)
	}

	for i, c := range classes {
		if c == ClassX87Up && (i == 0 || classes[i-1] != ClassX87) {
			return fill(int64(len(classes)), ClassMemory)
		}
	}

	if len(classes) > 2 {
		if classes[0] != ClassSse {
			return fill(int64(len(classes)), ClassMemory)
		}
		for i := 1; i < len(classes); i++ {
			if classes[i] != ClassSseUp {
				return fill(int64(len(classes)), ClassMemory)
			}
		}
	}

	out := make([]Class, len(classes))
	copy(out, classes)
	for i, c := range out {
		if c == ClassSseUp && (i == 0 || (out[i-1] != ClassSse && out[i-1] != ClassSseUp)) {
			out[i] = ClassSse
		}
	}
	return out
}

// IsMemoryClass reports whether every eightbyte classified as Memory,
// meaning the whole object is passed/returned through memory rather than
// registers.
func IsMemoryClass(classes []Class) bool {
	for _, c := range classes {
		if c != ClassMemory {
			return false
		}
	}
	return len(classes) > 0
}
