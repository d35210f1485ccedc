package air

import (
	"fmt"
	"io"
)

// Fprint writes a human-readable dump of m, grounded on
// original_source/air.c's air_data_print/air_insn_print textual form but
// restructured around Go's io.Writer rather than a variadic printer
// callback.
func Fprint(w io.Writer, m *Module) {
	for _, d := range m.Rodata {
		fprintData(w, d)
	}
	for _, d := range m.Data {
		fprintData(w, d)
	}
	for _, r := range m.Routines {
		fprintRoutine(w, r)
	}
}

func fprintData(w io.Writer, d *Data) {
	ro := ""
	if d.ReadOnly {
		ro = "readonly "
	}
	fmt.Fprintf(w, "%s%s {\n", ro, d.Symbol.SymbolName())
	for _, rel := range d.Relocations {
		target := "?"
		if rel.TargetSymbol != nil {
			target = rel.TargetSymbol.SymbolName()
		}
		fmt.Fprintf(w, "    +%d: &%s+%d\n", rel.Offset, target, rel.Addend)
	}
	fmt.Fprintf(w, "    bytes: % x\n", d.Bytes)
	fmt.Fprintf(w, "}\n")
}

func fprintRoutine(w io.Writer, r *Routine) {
	fmt.Fprintf(w, "routine %s {\n", r.Symbol.SymbolName())
	r.Insns.Each(func(insn *Insn) {
		fmt.Fprint(w, "    ")
		fprintInsn(w, insn)
		fmt.Fprintln(w)
	})
	fmt.Fprintf(w, "}\n")
}

func fprintInsn(w io.Writer, insn *Insn) {
	fmt.Fprint(w, insn.Op.String())
	if insn.OperandType != nil {
		fmt.Fprintf(w, "<%s>", insn.OperandType.String())
	}
	for i, op := range insn.Operands {
		if i == 0 {
			fmt.Fprint(w, " ")
		} else {
			fmt.Fprint(w, ", ")
		}
		fprintOperand(w, op)
	}
	if insn.FCallSret {
		fmt.Fprint(w, " [sret]")
	}
}

func fprintOperand(w io.Writer, op Operand) {
	switch op.Kind {
	case OperandRegister:
		fmt.Fprintf(w, "%%%s", op.Reg)
	case OperandIndirectRegister:
		if op.HasIndex {
			fmt.Fprintf(w, "[%%%s+%%%s*%d+%d]", op.Reg, op.Index, op.Scale, op.Disp)
		} else {
			fmt.Fprintf(w, "[%%%s+%d]", op.Reg, op.Disp)
		}
	case OperandSymbol:
		fmt.Fprintf(w, "&%s", op.Symbol.SymbolName())
	case OperandIndirectSymbol:
		fmt.Fprintf(w, "[%s+%d]", op.Symbol.SymbolName(), op.SymOffset)
	case OperandIntegerConstant:
		fmt.Fprintf(w, "$%d", op.IntConst)
	case OperandFloatingConstant:
		fmt.Fprintf(w, "$%g", op.FloatConst)
	case OperandLabel:
		fmt.Fprintf(w, "%c%d", op.LabelNS, op.LabelID)
	case OperandType:
		fmt.Fprintf(w, "<%s>", op.Type.String())
	default:
		fmt.Fprint(w, "?")
	}
}
