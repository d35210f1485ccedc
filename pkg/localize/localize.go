package localize

import (
	"github.com/c99cc/sysvcc/pkg/air"
)

// Localizer mutates an AirModule in place, turning every neutral-locale
// instruction into x86-64 SysV-legal AIR (spec 4.5). It is the only
// subsystem that knows concrete physical registers beyond the argument
// pools AIR already names.
type Localizer struct {
	Module *air.Module

	floatMasks map[string]air.Symbol // lazily created per-width negation masks
	anonCount  int
}

// New creates a localizer targeting m. m.Locale is set to air.X86_64 once
// Localize returns.
func New(m *air.Module) *Localizer {
	return &Localizer{Module: m, floatMasks: make(map[string]air.Symbol)}
}

// maskSymbol is the tiny synthetic-data Symbol the localizer uses for
// float-negation masks and other constants it invents; AIR only requires
// SymbolName(), so there is no need to round-trip these through pkg/symtab.
type maskSymbol string

func (s maskSymbol) SymbolName() string { return string(s) }

// Localize runs φ-removal then target-specific lowering over every routine,
// per spec 5's ordering guarantee ("φ removal must precede target-specific
// localization").
func (lz *Localizer) Localize() {
	for _, r := range lz.Module.Routines {
		removePhis(r)
		lz.localizeRoutine(r)
	}
	lz.Module.Locale = air.X86_64
}

// localizeRoutine is the single forward pass spec 4.5's "state machine"
// paragraph describes: each instruction is lowered in place, replaced by a
// sequence of inserted predecessors plus a surviving instruction, or
// removed entirely.
func (lz *Localizer) localizeRoutine(r *air.Routine) {
	lz.emitPrologue(r)

	r.Insns.Each(func(insn *air.Insn) {
		switch {
		case insn.Op == air.OpFuncCall:
			lz.localizeCall(r, insn)
		case insn.Op == air.OpReturn:
			lz.localizeReturn(r, insn)
		case insn.Op == air.OpDiv || insn.Op == air.OpUDiv || insn.Op == air.OpMod || insn.Op == air.OpUMod:
			lz.localizeDivMod(r, insn)
		case insn.Op == air.OpUMul:
			lz.localizeUMul(r, insn)
		case insn.Op == air.OpShl || insn.Op == air.OpShr || insn.Op == air.OpUShr:
			lz.localizeShift(r, insn)
		case insn.Op.IsComparison():
			lz.localizeComparison(r, insn)
		case insn.Op == air.OpNeg && insn.OperandType != nil && insn.OperandType.IsFloating():
			lz.localizeFloatNegate(r, insn)
		case insn.Op == air.OpMemset:
			lz.localizeMemset(r, insn)
		case insn.Op == air.OpVaStart:
			lz.localizeVaStart(r, insn)
		case insn.Op == air.OpVaArg:
			lz.localizeVaArg(r, insn)
		case insn.Op == air.OpVaEnd:
			r.Insns.Remove(insn)
		}
	})
}

func (lz *Localizer) vreg() air.Reg { return lz.Module.NextVReg() }

func (lz *Localizer) nextMaskName(prefix string) string {
	lz.anonCount++
	return prefix + itoa(lz.anonCount)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
