package airgen

import (
	"github.com/c99cc/sysvcc/pkg/air"
	"github.com/c99cc/sysvcc/pkg/ast"
	"github.com/c99cc/sysvcc/pkg/ctypes"
	"github.com/c99cc/sysvcc/pkg/symtab"
)

func (lw *Lowerer) lowerFunctionDefinition(ref ast.Ref, fd ast.FunctionDefinition) {
	sym, ok := lw.Symbols.LookupOrdinary(fd.Name)
	if !ok {
		sym = &symtab.Symbol{Name: fd.Name, Type: fd.Type}
	}
	routine := lw.Module.AddRoutine(sym)
	lw.routine = routine

	lw.Symbols.Push()
	for i, name := range fd.ParamNames {
		if name == "" || i >= len(fd.Type.ParamTypes) {
			continue
		}
		paramSym := &symtab.Symbol{Name: name, Type: fd.Type.ParamTypes[i], NS: symtab.NS(symtab.Ordinary), StorageDuration: symtab.AutomaticDuration}
		lw.Symbols.Insert(paramSym)
		routine.Insns.Emit(air.OpDeclare, paramSym.Type, air.SymbolOperand(paramSym))
		routine.Params = append(routine.Params, paramSym)
		routine.ParamTypes = append(routine.ParamTypes, paramSym.Type)
	}
	routine.UsesVarargs = fd.Type.Variadic

	fc := &funcContext{returnType: fd.Type.DerivedFrom}
	routine.ReturnType = fd.Type.DerivedFrom
	routine.Insns.Append(lw.lowerStmt(fd.Body, fc))
	lw.Symbols.Pop()

	lw.routine = nil
}

// lowerFileScopeInitDeclarator handles a top-level `Declaration` external
// decl: every file-scope object has static duration, so each defined object
// becomes an AirData (spec 4.4). Typedefs, function declarators, names
// missing from the symbol table and still-undefined tentative definitions
// produce no AirData.
func (lw *Lowerer) lowerFileScopeInitDeclarator(ref ast.Ref) {
	n := lw.node(ref)
	decl := n.Payload.(ast.Declaration)
	for _, dref := range decl.Declarators {
		id := lw.node(dref).Payload.(ast.InitDeclarator)
		if id.StorageClass == ast.SCTypedef {
			continue
		}
		sym, ok := lw.Symbols.LookupOrdinary(id.Name)
		if !ok {
			continue
		}
		if sym.Type.IsFunction() {
			// A file-scope declarator naming a function (a prototype, with
			// no body at this site) is not a data object; its routine, if
			// any, is emitted separately when its FunctionDefinition is
			// lowered.
			continue
		}
		if sym.IsTentative && !sym.IsDefined {
			continue
		}
		lw.Module.AddData(lw.symbolToData(sym))
	}
}

func (lw *Lowerer) symbolToData(sym *symtab.Symbol) *air.Data {
	d := &air.Data{Symbol: sym, Bytes: sym.InitialData}
	for _, r := range sym.Relocations {
		d.Relocations = append(d.Relocations, air.Relocation{Offset: r.Offset, TargetSymbol: r.Target, Addend: r.Addend})
	}
	return d
}

// lowerDeclaration handles one local `Declaration`: auto declarators get
// Declare + an initializer sequence; static declarators (including those
// written inside a function body) become AirData exactly like file scope.
func (lw *Lowerer) lowerDeclaration(ref ast.Ref) *air.List {
	n := lw.node(ref)
	decl := n.Payload.(ast.Declaration)
	list := air.NewList()
	for _, dref := range decl.Declarators {
		list.Append(lw.lowerLocalInitDeclarator(dref))
	}
	return list
}

func (lw *Lowerer) lowerLocalInitDeclarator(ref ast.Ref) *air.List {
	n := lw.node(ref)
	id := n.Payload.(ast.InitDeclarator)
	list := air.NewList()
	if id.StorageClass == ast.SCTypedef {
		return list
	}

	isStatic := id.StorageClass == ast.SCStatic || id.StorageClass == ast.SCExtern
	if isStatic {
		// The analyzer already evaluated this declarator's static initial
		// value; since StorageDuration symbols survive Table.Pop by
		// migrating down to their enclosing scope, the same *Symbol
		// instance is still reachable here with InitialData/Relocations
		// already populated.
		sym, ok := lw.Symbols.LookupOrdinary(id.Name)
		if !ok {
			sym = &symtab.Symbol{Name: id.Name, Type: id.Type, NS: symtab.NS(symtab.Ordinary), StorageClass: id.StorageClass, StorageDuration: symtab.StaticDuration}
			lw.Symbols.Insert(sym)
		}
		lw.Module.AddData(lw.symbolToData(sym))
		return list
	}

	sym := &symtab.Symbol{Name: id.Name, Type: id.Type, NS: symtab.NS(symtab.Ordinary), StorageClass: id.StorageClass, StorageDuration: symtab.AutomaticDuration}
	lw.Symbols.Insert(sym)
	list.Emit(air.OpDeclare, id.Type, air.SymbolOperand(sym))

	if id.Init == ast.InvalidRef {
		return list
	}
	if id.Type.IsAggregate() {
		list.Append(lw.lowerAggregateInitializer(sym, id.Type, id.Init))
		return list
	}

	valList, valReg := lw.lowerExpr(id.Init)
	list.Append(valList)
	valReg = lw.convert(list, lw.node(id.Init).CType, id.Type, valReg)
	list.Emit(air.OpAssign, id.Type, air.SymbolOperand(sym), air.Register(valReg))
	return list
}

// lowerAggregateInitializer implements spec 4.4's automatic-aggregate rule:
// Memset(sym, 0, sizeof) then per scalar field Assign IndirectSymbol{sym,
// off} = value. Nested brace initializers are flattened the same way
// pkg/sema's flattenInitializerList does, but against already-analyzed
// (CType-bearing) leaf expressions rather than re-deriving offsets from
// designations.
func (lw *Lowerer) lowerAggregateInitializer(sym *symtab.Symbol, target *ctypes.Type, initRef ast.Ref) *air.List {
	list := air.NewList()
	size, _ := target.Size()
	list.Emit(air.OpMemset, target, air.SymbolOperand(sym), air.IntegerConstant(0), air.IntegerConstant(uint64(size)))

	n := lw.node(initRef)
	initList, ok := n.Payload.(ast.InitializerList)
	if !ok {
		return list
	}
	lw.lowerInitializerListItems(list, sym, target, initList, 0)
	return list
}

func (lw *Lowerer) lowerInitializerListItems(list *air.List, sym *symtab.Symbol, target *ctypes.Type, initList ast.InitializerList, baseOffset int64) {
	autoIndex := int64(0)
	for _, item := range initList.Items {
		offset := baseOffset
		elemType := target
		for _, d := range item.Designation {
			if d.IsField {
				off, _ := elemType.MemberOffset(d.Field)
				offset += off
				elemType, _ = elemType.MemberType(d.Field)
			} else {
				autoIndex = d.Index
				sz, _ := elemType.DerivedFrom.Size()
				offset += d.Index * sz
				elemType = elemType.DerivedFrom
			}
		}
		if len(item.Designation) == 0 {
			if target.Kind == ctypes.Array {
				sz, _ := target.DerivedFrom.Size()
				offset += autoIndex * sz
				elemType = target.DerivedFrom
			}
			autoIndex++
		} else if !item.Designation[len(item.Designation)-1].IsField {
			autoIndex++
		}

		valNode := lw.node(item.Value)
		if nested, ok := valNode.Payload.(ast.InitializerList); ok {
			lw.lowerInitializerListItems(list, sym, elemType, nested, offset)
			continue
		}

		valList, valReg := lw.lowerExpr(item.Value)
		list.Append(valList)
		valReg = lw.convert(list, valNode.CType, elemType, valReg)
		list.Emit(air.OpAssign, elemType, air.IndirectSymbol(sym, offset), air.Register(valReg))
	}
}
