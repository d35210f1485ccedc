package airgen

import (
	"github.com/c99cc/sysvcc/pkg/air"
	"github.com/c99cc/sysvcc/pkg/ast"
	"github.com/c99cc/sysvcc/pkg/ctypes"
)

// funcContext threads the function's return type through statement lowering
// so `return` can convert its operand.
type funcContext struct {
	returnType *ctypes.Type
	retptrSym  air.Symbol
}

// lowerStmt lowers one statement into a fresh list (spec 4.4's
// SETUP/FINALIZE framing, modeled directly by a freshly-built air.List).
func (lw *Lowerer) lowerStmt(ref ast.Ref, fc *funcContext) *air.List {
	n := lw.node(ref)
	list := air.NewList()

	switch p := n.Payload.(type) {
	case ast.Block:
		lw.Symbols.Push()
		for _, item := range p.Items {
			if lw.node(item).Kind == ast.KindDeclaration {
				list.Append(lw.lowerDeclaration(item))
				continue
			}
			list.Append(lw.lowerStmt(item, fc))
		}
		lw.Symbols.Pop()
	case ast.If:
		lw.lowerIf(list, p, fc)
	case ast.While:
		lw.lowerWhile(list, p, fc)
	case ast.DoWhile:
		lw.lowerDoWhile(list, p, fc)
	case ast.For:
		lw.lowerFor(list, p, fc)
	case ast.Switch:
		lw.lowerSwitch(list, ref, p, fc)
	case ast.Case:
		lw.lowerCase(list, p, fc)
	case ast.Default:
		list.Append(lw.lowerStmt(p.Body, fc))
	case ast.LabeledStmt:
		list.Emit(air.OpLabel, nil, air.Label(userLabelID(p.Name), air.NSUser))
		list.Append(lw.lowerStmt(p.Body, fc))
	case ast.Goto:
		list.Emit(air.OpJmp, nil, air.Label(userLabelID(p.Label), air.NSUser))
	case ast.Break:
		lw.lowerBreak(list)
	case ast.Continue:
		lw.lowerContinue(list)
	case ast.Return:
		lw.lowerReturn(list, p, fc)
	case ast.ExprStmt:
		if p.Expr != ast.InvalidRef {
			exprList, _ := lw.lowerExpr(p.Expr)
			list.Append(exprList)
			list.Emit(air.OpSequencePoint, nil)
		}
	case ast.NullStmt:
		// no code
	case ast.DeclStmt:
		list.Append(lw.lowerDeclaration(p.Decl))
	default:
		lw.ice(ref, "unrecognized statement form during lowering")
	}
	return list
}

// userLabelID hashes a C label name into the user label namespace's id
// space. Names within one translation unit are unique (the analyzer's
// resolution pass is out of scope here), so a stable FNV-1a fold is enough
// to give every distinct name its own id.
func userLabelID(name string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= 1099511628211
	}
	return h
}

func (lw *Lowerer) lowerIf(list *air.List, s ast.If, fc *funcContext) {
	condList, condReg := lw.lowerExpr(s.Cond)
	list.Append(condList)

	if s.Else == ast.InvalidRef {
		end := lw.nextLabel(air.NSStatement)
		list.Emit(air.OpJz, nil, air.Register(condReg), end)
		list.Append(lw.lowerStmt(s.Then, fc))
		list.Emit(air.OpLabel, nil, end)
		return
	}

	elseLabel := lw.nextLabel(air.NSStatement)
	end := lw.nextLabel(air.NSStatement)
	list.Emit(air.OpJz, nil, air.Register(condReg), elseLabel)
	list.Append(lw.lowerStmt(s.Then, fc))
	list.Emit(air.OpJmp, nil, end)
	list.Emit(air.OpLabel, nil, elseLabel)
	list.Append(lw.lowerStmt(s.Else, fc))
	list.Emit(air.OpLabel, nil, end)
}

func (lw *Lowerer) lowerWhile(list *air.List, s ast.While, fc *funcContext) {
	top := lw.nextLabel(air.NSStatement)
	end := lw.nextLabel(air.NSStatement)

	list.Emit(air.OpLabel, nil, top)
	condList, condReg := lw.lowerExpr(s.Cond)
	list.Append(condList)
	list.Emit(air.OpJz, nil, air.Register(condReg), end)

	lw.loops = append(lw.loops, loopContext{breakLabel: end, continueLabel: top})
	list.Append(lw.lowerStmt(s.Body, fc))
	lw.loops = lw.loops[:len(lw.loops)-1]

	list.Emit(air.OpJmp, nil, top)
	list.Emit(air.OpLabel, nil, end)
}

func (lw *Lowerer) lowerDoWhile(list *air.List, s ast.DoWhile, fc *funcContext) {
	top := lw.nextLabel(air.NSStatement)
	continueLabel := lw.nextLabel(air.NSStatement)
	end := lw.nextLabel(air.NSStatement)

	list.Emit(air.OpLabel, nil, top)
	lw.loops = append(lw.loops, loopContext{breakLabel: end, continueLabel: continueLabel})
	list.Append(lw.lowerStmt(s.Body, fc))
	lw.loops = lw.loops[:len(lw.loops)-1]

	list.Emit(air.OpLabel, nil, continueLabel)
	condList, condReg := lw.lowerExpr(s.Cond)
	list.Append(condList)
	list.Emit(air.OpJnz, nil, air.Register(condReg), top)
	list.Emit(air.OpLabel, nil, end)
}

func (lw *Lowerer) lowerFor(list *air.List, s ast.For, fc *funcContext) {
	lw.Symbols.Push()
	if s.Init != ast.InvalidRef {
		if lw.node(s.Init).Kind == ast.KindDeclaration {
			list.Append(lw.lowerDeclaration(s.Init))
		} else {
			list.Append(lw.lowerStmt(s.Init, fc))
		}
	}

	top := lw.nextLabel(air.NSStatement)
	continueLabel := lw.nextLabel(air.NSStatement)
	end := lw.nextLabel(air.NSStatement)

	list.Emit(air.OpLabel, nil, top)
	if s.Cond != ast.InvalidRef {
		condList, condReg := lw.lowerExpr(s.Cond)
		list.Append(condList)
		list.Emit(air.OpJz, nil, air.Register(condReg), end)
	}

	lw.loops = append(lw.loops, loopContext{breakLabel: end, continueLabel: continueLabel})
	list.Append(lw.lowerStmt(s.Body, fc))
	lw.loops = lw.loops[:len(lw.loops)-1]

	list.Emit(air.OpLabel, nil, continueLabel)
	if s.Post != ast.InvalidRef {
		postList, _ := lw.lowerExpr(s.Post)
		list.Append(postList)
	}
	list.Emit(air.OpJmp, nil, top)
	list.Emit(air.OpLabel, nil, end)
	lw.Symbols.Pop()
}

// lowerSwitch implements spec 4.4's linear cascade of equality tests: each
// Case's value is compared against the switch expression and a jump taken
// on match; falling through the cascade jumps to default, or past the
// switch if there is none.
func (lw *Lowerer) lowerSwitch(list *air.List, ref ast.Ref, s ast.Switch, fc *funcContext) {
	end := lw.nextLabel(air.NSStatement)

	exprList, exprReg := lw.lowerExpr(s.Expr)
	list.Append(exprList)

	body := lw.node(s.Body)
	block, _ := body.Payload.(ast.Block)
	defaultLabel := end

	caseLabels := make(map[ast.Ref]air.Operand)
	var defaultRef ast.Ref = ast.InvalidRef
	for _, item := range block.Items {
		itemNode := lw.node(item)
		switch p := itemNode.Payload.(type) {
		case ast.Case:
			lbl := lw.nextLabel(air.NSStatement)
			caseLabels[item] = lbl
			valList, valReg := lw.lowerExpr(p.Value)
			list.Append(valList)
			eq := lw.nextVReg()
			list.Emit(air.OpCmpEq, nil, air.Register(eq), air.Register(exprReg), air.Register(valReg))
			list.Emit(air.OpJnz, nil, air.Register(eq), lbl)
		case ast.Default:
			defaultRef = item
		}
	}
	if defaultRef != ast.InvalidRef {
		defaultLabel = lw.nextLabel(air.NSStatement)
		caseLabels[defaultRef] = defaultLabel
	}
	list.Emit(air.OpJmp, nil, defaultLabel)

	lw.loops = append(lw.loops, loopContext{breakLabel: end})
	for _, item := range block.Items {
		if lbl, ok := caseLabels[item]; ok {
			list.Emit(air.OpLabel, nil, lbl)
		}
		list.Append(lw.lowerStmt(item, fc))
	}
	lw.loops = lw.loops[:len(lw.loops)-1]

	list.Emit(air.OpLabel, nil, end)
}

func (lw *Lowerer) lowerCase(list *air.List, s ast.Case, fc *funcContext) {
	list.Append(lw.lowerStmt(s.Body, fc))
}

func (lw *Lowerer) lowerBreak(list *air.List) {
	if len(lw.loops) == 0 {
		return
	}
	list.Emit(air.OpJmp, nil, lw.loops[len(lw.loops)-1].breakLabel)
}

func (lw *Lowerer) lowerContinue(list *air.List) {
	for i := len(lw.loops) - 1; i >= 0; i-- {
		if lw.loops[i].continueLabel != (air.Operand{}) {
			list.Emit(air.OpJmp, nil, lw.loops[i].continueLabel)
			return
		}
	}
}

// lowerReturn implements spec 4.4: convert to the function's return type;
// aggregate results are emitted as an indirect-register operand so the
// localizer can expand it into a copy through retptr.
func (lw *Lowerer) lowerReturn(list *air.List, r ast.Return, fc *funcContext) {
	if r.Value == ast.InvalidRef {
		list.Emit(air.OpReturn, nil)
		return
	}
	valList, valReg := lw.lowerExpr(r.Value)
	list.Append(valList)
	valReg = lw.convert(list, lw.node(r.Value).CType, fc.returnType, valReg)

	if fc.returnType.IsAggregate() {
		list.Emit(air.OpReturn, fc.returnType, air.IndirectRegister(air.Reg(valReg), 0))
		return
	}
	list.Emit(air.OpReturn, fc.returnType, air.Register(valReg))
}
