// Package x86gen is the trivial syntax-directed printer that turns a
// localized (spec 4.5, air.X86_64) air.Module into GNU-as AT&T assembly
// text. It is deliberately not a real backend: every virtual register still
// alive after pkg/localize gets its own fixed frame slot and is reloaded
// into a scratch register at every use, the way original_source's x86gen.c
// walks its already-selected ir_insn_t stream one instruction at a time
// (x86_generate, x86_generate_binop, x86_generate_compare, ...) without any
// register-allocation pass of its own. Instruction selection here is a
// direct air.Op -> mnemonic mapping grounded on x86gen.c's per-opcode
// generate functions and pkg/asm's printer.go for the GNU-as section/directive
// conventions (.rodata/.data/.text, symbol naming, label syntax).
package x86gen

import (
	"fmt"
	"io"

	"github.com/c99cc/sysvcc/pkg/air"
)

// Printer emits one air.Module as assembly text.
type Printer struct {
	w io.Writer
}

// NewPrinter wraps w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintModule prints every rodata/data object, then every routine, in that
// order (x86gen.c's data_start/rodata_start/text_start sections).
func (p *Printer) PrintModule(m *air.Module) {
	if len(m.Rodata) > 0 {
		fmt.Fprintf(p.w, "\t.section\t.rodata\n")
		for _, d := range m.Rodata {
			p.printData(d)
		}
	}
	if len(m.Data) > 0 {
		fmt.Fprintf(p.w, "\t.data\n")
		for _, d := range m.Data {
			p.printData(d)
		}
	}
	fmt.Fprintf(p.w, "\t.text\n")
	for _, r := range m.Routines {
		p.printRoutine(r)
	}
}

func (p *Printer) printData(d *air.Data) {
	name := d.Symbol.SymbolName()
	fmt.Fprintf(p.w, "%s:\n", name)
	i := 0
	for _, rel := range d.Relocations {
		for i < int(rel.Offset) {
			fmt.Fprintf(p.w, "\t.byte\t%d\n", d.Bytes[i])
			i++
		}
		if rel.TargetSymbol != nil {
			fmt.Fprintf(p.w, "\t.quad\t%s+%d\n", rel.TargetSymbol.SymbolName(), rel.Addend)
		} else {
			fmt.Fprintf(p.w, "\t.quad\t%d\n", rel.Addend)
		}
		i += 8
	}
	for i < len(d.Bytes) {
		fmt.Fprintf(p.w, "\t.byte\t%d\n", d.Bytes[i])
		i++
	}
}

func (p *Printer) printRoutine(r *air.Routine) {
	name := r.Symbol.SymbolName()
	frame := layoutFrame(r)

	fmt.Fprintf(p.w, "\t.global\t%s\n", name)
	fmt.Fprintf(p.w, "%s:\n", name)
	fmt.Fprintf(p.w, "\tpush\t%%rbp\n")
	fmt.Fprintf(p.w, "\tmov\t%%rsp, %%rbp\n")
	if frame.size > 0 {
		fmt.Fprintf(p.w, "\tsub\t$%d, %%rsp\n", frame.size)
	}

	r.Insns.Each(func(insn *air.Insn) {
		p.printInsn(insn, frame)
	})

	fmt.Fprintf(p.w, "\tleave\n")
	fmt.Fprintf(p.w, "\tret\n")
}

// printInsn dispatches op -> mnemonic(s), spilling every register operand
// through its frame slot (loadInto/store) since no allocator has run.
func (p *Printer) printInsn(insn *air.Insn, frame *frame) {
	switch insn.Op {
	case air.OpNop, air.OpSequencePoint, air.OpBlip, air.OpDeclare, air.OpVaEnd:
		// no code: Declare merely reserves frame space (already accounted
		// for by layoutFrame), Blip/SequencePoint/Nop carry no operation.

	case air.OpDeclareRegister:
		sym := insn.Operands[0].Symbol
		reg := insn.Operands[1].Reg
		fmt.Fprintf(p.w, "\tmov\t%%%s, %s\n", reg, frame.symbolMem(sym))

	case air.OpLabel:
		fmt.Fprintf(p.w, "%s:\n", labelName(insn.Operands[0]))
	case air.OpJmp:
		fmt.Fprintf(p.w, "\tjmp\t%s\n", labelName(insn.Operands[0]))
	case air.OpJz:
		p.loadInto(insn.Operands[0], "rax", frame)
		fmt.Fprintf(p.w, "\ttest\t%%rax, %%rax\n")
		fmt.Fprintf(p.w, "\tjz\t%s\n", labelName(insn.Operands[1]))
	case air.OpJnz:
		p.loadInto(insn.Operands[0], "rax", frame)
		fmt.Fprintf(p.w, "\ttest\t%%rax, %%rax\n")
		fmt.Fprintf(p.w, "\tjnz\t%s\n", labelName(insn.Operands[1]))

	case air.OpLoad:
		p.loadInto(insn.Operands[1], "rax", frame)
		p.store("rax", insn.Operands[0], frame)
	case air.OpLoadAddr:
		p.loadAddrInto(insn.Operands[1], "rax", frame)
		p.store("rax", insn.Operands[0], frame)
	case air.OpAssign:
		p.loadInto(insn.Operands[1], "rax", frame)
		p.store("rax", insn.Operands[0], frame)

	case air.OpAdd, air.OpSub, air.OpAnd, air.OpOr, air.OpXor:
		p.emitArith(binMnemonic(insn.Op), insn, frame)
	case air.OpMul:
		p.loadInto(insn.Operands[1], "rax", frame)
		p.loadInto(insn.Operands[2], "rcx", frame)
		fmt.Fprintf(p.w, "\timul\t%%rcx, %%rax\n")
		p.store("rax", insn.Operands[0], frame)

	case air.OpDiv, air.OpUDiv, air.OpMod, air.OpUMod:
		// localize.localizeDivMod already pinned operands to
		// RAX/RDX/the divisor and sign/zero-extended RDX; this stage just
		// emits the div/idiv itself and trusts that pinning.
		p.loadInto(insn.Operands[2], "rcx", frame)
		mnemonic := "idiv"
		if insn.Op == air.OpUDiv || insn.Op == air.OpUMod {
			mnemonic = "div"
		}
		fmt.Fprintf(p.w, "\t%s\t%%rcx\n", mnemonic)

	case air.OpShl, air.OpShr, air.OpUShr:
		p.loadInto(insn.Operands[1], "rax", frame)
		shiftOperand := shiftSource(insn.Operands[2])
		mnemonic := map[air.Op]string{air.OpShl: "shl", air.OpShr: "sar", air.OpUShr: "shr"}[insn.Op]
		fmt.Fprintf(p.w, "\t%s\t%s, %%rax\n", mnemonic, shiftOperand)
		p.store("rax", insn.Operands[0], frame)

	case air.OpNeg:
		p.loadInto(insn.Operands[1], "rax", frame)
		fmt.Fprintf(p.w, "\tneg\t%%rax\n")
		p.store("rax", insn.Operands[0], frame)
	case air.OpNot:
		p.loadInto(insn.Operands[1], "rax", frame)
		fmt.Fprintf(p.w, "\tnot\t%%rax\n")
		p.store("rax", insn.Operands[0], frame)
	case air.OpLogNot:
		p.loadInto(insn.Operands[1], "rax", frame)
		fmt.Fprintf(p.w, "\ttest\t%%rax, %%rax\n")
		fmt.Fprintf(p.w, "\tsete\t%%al\n")
		fmt.Fprintf(p.w, "\tmovzbl\t%%al, %%eax\n")
		p.store("rax", insn.Operands[0], frame)

	case air.OpCmpEq, air.OpCmpNe, air.OpCmpLt, air.OpCmpLe, air.OpCmpGt, air.OpCmpGe:
		p.loadInto(insn.Operands[1], "rax", frame)
		p.loadInto(insn.Operands[2], "rcx", frame)
		fmt.Fprintf(p.w, "\tcmp\t%%rcx, %%rax\n")
		fmt.Fprintf(p.w, "\t%s\t%%al\n", setccMnemonic(insn.Op))
		fmt.Fprintf(p.w, "\tmovzbl\t%%al, %%eax\n")
		p.store("rax", insn.Operands[0], frame)

	case air.OpMemset:
		// localize.localizeMemset already pinned RDI/RAX/RCX.
		fmt.Fprintf(p.w, "\trep stosb\n")

	case air.OpFuncCall:
		callee := insn.Operands[1]
		if callee.Kind != air.OperandSymbol {
			p.loadInto(callee, "rax", frame)
		}
		fmt.Fprintf(p.w, "\tcall\t%s\n", calleeName(callee))

	case air.OpReturn:
		// operand already cleared by pkg/localize; RAX/XMM0/retptr were set
		// up by the preceding splice.

	case air.OpPush:
		p.loadInto(insn.Operands[0], "rax", frame)
		fmt.Fprintf(p.w, "\tpush\t%%rax\n")

	default:
		fmt.Fprintf(p.w, "\t# unhandled op %s\n", insn.Op)
	}
}

func (p *Printer) emitArith(mnemonic string, insn *air.Insn, frame *frame) {
	p.loadInto(insn.Operands[1], "rax", frame)
	p.loadInto(insn.Operands[2], "rcx", frame)
	fmt.Fprintf(p.w, "\t%s\t%%rcx, %%rax\n", mnemonic)
	p.store("rax", insn.Operands[0], frame)
}

func binMnemonic(op air.Op) string {
	switch op {
	case air.OpAdd:
		return "add"
	case air.OpSub:
		return "sub"
	case air.OpAnd:
		return "and"
	case air.OpOr:
		return "or"
	case air.OpXor:
		return "xor"
	}
	return "?"
}

func setccMnemonic(op air.Op) string {
	switch op {
	case air.OpCmpEq:
		return "sete"
	case air.OpCmpNe:
		return "setne"
	case air.OpCmpLt:
		return "setl"
	case air.OpCmpLe:
		return "setle"
	case air.OpCmpGt:
		return "setg"
	case air.OpCmpGe:
		return "setge"
	}
	return "?"
}

func shiftSource(op air.Operand) string {
	if op.Kind == air.OperandIntegerConstant {
		return fmt.Sprintf("$%d", op.IntConst)
	}
	return "%cl"
}

func labelName(op air.Operand) string {
	return fmt.Sprintf(".%c%d", byte(op.LabelNS), op.LabelID)
}

func calleeName(op air.Operand) string {
	if op.Kind == air.OperandSymbol {
		return op.Symbol.SymbolName()
	}
	return "*%rax"
}

// loadInto emits whatever addressing mode op needs to land its value in
// scratch (a bare register name, no %).
func (p *Printer) loadInto(op air.Operand, scratch string, frame *frame) {
	switch op.Kind {
	case air.OperandRegister:
		if op.Reg < air.PhysicalRegisterCount {
			fmt.Fprintf(p.w, "\tmov\t%%%s, %%%s\n", op.Reg, scratch)
			return
		}
		fmt.Fprintf(p.w, "\tmov\t%s, %%%s\n", frame.vregMem(op.Reg), scratch)
	case air.OperandIndirectRegister:
		p.materializeAddress(op, frame)
		fmt.Fprintf(p.w, "\tmov\t%s, %%%s\n", frame.indirectMem(op), scratch)
	case air.OperandSymbol:
		fmt.Fprintf(p.w, "\tmov\t%s(%%rip), %%%s\n", op.Symbol.SymbolName(), scratch)
	case air.OperandIndirectSymbol:
		fmt.Fprintf(p.w, "\tmov\t%s+%d(%%rip), %%%s\n", op.Symbol.SymbolName(), op.SymOffset, scratch)
	case air.OperandIntegerConstant:
		fmt.Fprintf(p.w, "\tmov\t$%d, %%%s\n", op.IntConst, scratch)
	case air.OperandFloatingConstant:
		fmt.Fprintf(p.w, "\t# floating constant %v loaded via rodata in a real backend\n", op.FloatConst)
	}
}

// materializeAddress loads an indirect operand's base (and index, if any)
// into the fixed address scratch registers ahead of using it as a memory
// operand (frame.indirectMem assumes this has already run).
func (p *Printer) materializeAddress(op air.Operand, frame *frame) {
	p.loadInto(air.Register(op.Reg), addrBaseReg, frame)
	if op.HasIndex {
		p.loadInto(air.Register(op.Index), addrIndexReg, frame)
	}
}

func (p *Printer) loadAddrInto(op air.Operand, scratch string, frame *frame) {
	switch op.Kind {
	case air.OperandSymbol:
		fmt.Fprintf(p.w, "\tlea\t%s(%%rip), %%%s\n", op.Symbol.SymbolName(), scratch)
	case air.OperandIndirectSymbol:
		fmt.Fprintf(p.w, "\tlea\t%s+%d(%%rip), %%%s\n", op.Symbol.SymbolName(), op.SymOffset, scratch)
	default:
		p.loadInto(op, scratch, frame)
	}
}

// store writes scratch back out to dest's addressing mode.
func (p *Printer) store(scratch string, dest air.Operand, frame *frame) {
	switch dest.Kind {
	case air.OperandRegister:
		if dest.Reg < air.PhysicalRegisterCount {
			if dest.Reg == air.RegNone {
				return
			}
			fmt.Fprintf(p.w, "\tmov\t%%%s, %%%s\n", scratch, dest.Reg)
			return
		}
		fmt.Fprintf(p.w, "\tmov\t%%%s, %s\n", scratch, frame.vregMem(dest.Reg))
	case air.OperandIndirectRegister:
		p.materializeAddress(dest, frame)
		fmt.Fprintf(p.w, "\tmov\t%%%s, %s\n", scratch, frame.indirectMem(dest))
	case air.OperandSymbol:
		fmt.Fprintf(p.w, "\tmov\t%%%s, %s(%%rip)\n", scratch, dest.Symbol.SymbolName())
	case air.OperandIndirectSymbol:
		fmt.Fprintf(p.w, "\tmov\t%%%s, %s+%d(%%rip)\n", scratch, dest.Symbol.SymbolName(), dest.SymOffset)
	}
}
