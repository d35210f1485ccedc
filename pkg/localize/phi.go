package localize

import "github.com/c99cc/sysvcc/pkg/air"

// removePhis eliminates every Phi in r without inserting any code: each
// virtual register in this IR is defined exactly once and used only along
// its own straight-line path up to the confluence point where a Phi merges
// it, so a Phi can always be erased by renaming its source registers to its
// destination everywhere they were used instead of inserting copies at
// branch ends. A single reverse walk does this in one pass: reaching a Phi
// before its sources' defining instructions (since those sources are
// necessarily earlier in program order) lets each Phi record its
// source->dest renaming before the walk ever visits the instruction that
// needs rewriting. Must run before any target-specific localization (spec
// 5's ordering guarantee), since every later pass assumes registers are
// already merged.
func removePhis(r *air.Routine) {
	rewrite := make(map[air.Reg]air.Reg)

	var toRemove []*air.Insn
	r.Insns.EachReverse(func(insn *air.Insn) {
		if insn.Op == air.OpPhi {
			dest := resolve(rewrite, insn.Operands[0].Reg)
			for _, src := range insn.Operands[1:] {
				if src.Kind == air.OperandRegister {
					rewrite[src.Reg] = dest
				}
			}
			toRemove = append(toRemove, insn)
			return
		}
		rewriteOperands(insn, rewrite)
	})

	for _, insn := range toRemove {
		r.Insns.Remove(insn)
	}
}

// resolve follows a chain of renamings to its final target, so a Phi whose
// own destination was itself already renamed by a later Phi still merges
// into the right final register.
func resolve(rewrite map[air.Reg]air.Reg, reg air.Reg) air.Reg {
	for {
		next, ok := rewrite[reg]
		if !ok || next == reg {
			return reg
		}
		reg = next
	}
}

func rewriteOperands(insn *air.Insn, rewrite map[air.Reg]air.Reg) {
	for i := range insn.Operands {
		op := &insn.Operands[i]
		switch op.Kind {
		case air.OperandRegister:
			op.Reg = resolve(rewrite, op.Reg)
		case air.OperandIndirectRegister:
			op.Reg = resolve(rewrite, op.Reg)
			if op.HasIndex {
				op.Index = resolve(rewrite, op.Index)
			}
		}
	}
}
