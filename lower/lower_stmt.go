package lower

import (
	"lc/ast"
	"lc/depm"
	"lc/ir"
	"lc/report"
)

// lowerStmt lowers a single executable statement.
func (l *Lowerer) lowerStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.VarDecl:
		l.lowerVarDecl(v)
	case *ast.ExprStmt:
		l.lowerExpr(v.Expr, nil)
	case *ast.Return:
		l.lowerReturn(v)
	case *ast.If:
		l.lowerIf(v)
	case *ast.While:
		l.lowerWhile(v)
	case *ast.BlockStmt:
		l.lowerNestedBlock(v.Body)
	case *ast.Import, *ast.ObjectDecl, *ast.FuncDecl:
		// Declarations are lowered into units of their own and local
		// declarations are not part of the declaration tree.
	default:
		report.ReportICE("lowering for statement not implemented")
	}
}

// lowerVarDecl allocates a stack slot for a local variable and stores its
// initializer.  The variable is bound after its initializer is lowered so the
// initializer sees any shadowed variable of the same name.
func (l *Lowerer) lowerVarDecl(vd *ast.VarDecl) {
	if vd.Parent() == l.declBody {
		l.lowerMemberInit(vd)
		return
	}

	var typ ir.Type
	if !vd.Type.Inferred() {
		typ = l.lowerType(vd.Type)
	}

	var init ir.Operand
	if vd.Init != nil {
		init = l.lowerValue(vd.Init, typ)

		if typ == nil {
			typ = init.Type()
		}
	} else if typ == nil {
		l.throw(report.NewTypeMismatch("declaration of `"+vd.Name+"`", "type label or initializer", "neither"))
	}

	l.at(vd.NameSpan)
	sym := &depm.Symbol{
		Name:    vd.Name,
		Kind:    depm.SymVar,
		DefSpan: vd.NameSpan,
		Type:    vd.Type,
	}
	l.bind(sym)

	slot := l.unit.NewRegister(vd.Name, ir.PointerType{ElemType: typ})
	l.emit(ir.NewStackAlloc(slot, typ))
	l.slots[sym] = slot

	if init != nil {
		l.emit(ir.NewStore(slot, init, false))
	}
}

// lowerMemberInit stores the initializer of a global or of a field of the
// receiver.  Variables without initializer keep their zero value.
func (l *Lowerer) lowerMemberInit(vd *ast.VarDecl) {
	var addr ir.Operand
	if l.object == nil {
		g, ok := l.globals[vd]
		if !ok {
			// declaring the global failed and has been reported
			report.Throw(errAbortUnit)
		}

		addr = g
	} else {
		members, _ := l.file.MemberScope(l.object)
		if sym, ok := members.LookupLocal(vd.Name); !ok || sym.Decl != ast.Stmt(vd) {
			// the field could not be bound
			report.Throw(errAbortUnit)
		}

		addr = l.fieldAddress(l.this, vd.Name)
	}

	if vd.Init == nil {
		return
	}

	val := l.lowerValue(vd.Init, pointee(addr))
	l.emit(ir.NewStore(addr, val, false))
}

// lowerReturn lowers a return statement checking its value against the return
// type of the unit.
func (l *Lowerer) lowerReturn(ret *ast.Return) {
	rtType := l.unit.ReturnType

	if ret.Value == nil {
		if !ir.IsVoid(rtType) {
			l.throw(report.NewTypeMismatch("return value", rtType.Repr(), ir.PrimVoid.Repr()))
		}

		l.unit.Append(&ir.Return{})
		return
	}

	if ir.IsVoid(rtType) {
		l.throw(report.NewTypeMismatch("return value", ir.PrimVoid.Repr(), "a value"))
	}

	val := l.lowerValue(ret.Value, rtType)
	if !ir.TypeEqual(rtType, val.Type()) {
		l.throw(report.NewTypeMismatch("return value", rtType.Repr(), val.Type().Repr()))
	}

	l.unit.Append(&ir.Return{Value: val})
}

// bind binds a local symbol in the innermost scope.
func (l *Lowerer) bind(sym *depm.Symbol) {
	if err := l.scope.Bind(sym); err != nil {
		l.throw(err)
	}
}
