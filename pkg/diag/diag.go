// Package diag holds the diagnostics produced by the type constructor, the
// constant expression evaluator, and the semantic analyzer. A Diagnostic
// carries a source position and travels in source order; the List never
// reorders what was appended to it. This mirrors the teacher's own
// pkg/parser/pkg/lexer error-list style (accumulate and keep going rather
// than fail-fast on the first diagnostic).
package diag

import "fmt"

// Kind distinguishes the taxonomy from spec.md section 7.
type Kind int

const (
	// Constraint is an ISO C99 constraint violation (the bulk of diagnostics).
	Constraint Kind = iota
	// Unsupported marks a feature the source explicitly declines (VLA sizeof,
	// wide-character array initializers, long-double arithmetic beyond basic
	// conversion, bitfield static initializers).
	Unsupported
	// Internal marks an invariant failure: an operand of an unexpected kind,
	// a missing symbol, a malformed type. These must never be swallowed into
	// a silent miscompile.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Constraint:
		return "constraint"
	case Unsupported:
		return "unsupported"
	case Internal:
		return "internal"
	default:
		return "?"
	}
}

// Diagnostic is one reported problem, optionally just a warning.
type Diagnostic struct {
	Row     int
	Col     int
	Kind    Kind
	Message string
	Warning bool
}

func (d Diagnostic) String() string {
	sev := "error"
	if d.Warning {
		sev = "warning"
	}
	return fmt.Sprintf("%d:%d: %s: %s", d.Row, d.Col, sev, d.Message)
}

// List accumulates diagnostics in source order. The zero value is ready to use.
type List struct {
	items []Diagnostic
}

// Add appends an error-level diagnostic.
func (l *List) Add(row, col int, kind Kind, format string, args ...any) {
	l.items = append(l.items, Diagnostic{Row: row, Col: col, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Warn appends a warning-level diagnostic; warnings never fail compilation.
func (l *List) Warn(row, col int, format string, args ...any) {
	l.items = append(l.items, Diagnostic{Row: row, Col: col, Kind: Constraint, Message: fmt.Sprintf(format, args...), Warning: true})
}

// Append adds a diagnostic produced elsewhere (e.g. surfaced from a failed
// ConstExpr) keeping its original position.
func (l *List) Append(d Diagnostic) {
	l.items = append(l.items, d)
}

// Items returns the diagnostics in source order.
func (l *List) Items() []Diagnostic {
	return l.items
}

// HasErrors reports whether any non-warning diagnostic was recorded.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if !d.Warning {
			return true
		}
	}
	return false
}

// Len returns the number of diagnostics recorded so far.
func (l *List) Len() int {
	return len(l.items)
}

// ICE is an "internal compiler error" — the target-language analogue of the
// source's report_return macro. It is a distinct error type so callers can
// tell an invariant failure apart from a rejected user program.
type ICE struct {
	Where   string
	Message string
}

func (e *ICE) Error() string {
	return fmt.Sprintf("internal compiler error in %s: %s", e.Where, e.Message)
}

// ICEf constructs an ICE with a formatted message.
func ICEf(where, format string, args ...any) *ICE {
	return &ICE{Where: where, Message: fmt.Sprintf(format, args...)}
}
