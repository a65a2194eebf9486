package lower

import (
	"fmt"

	"lc/ast"
	"lc/depm"
	"lc/ir"
	"lc/report"
)

// lowerExpr lowers an expression and returns the operand holding its value or
// nil if the expression yields no value (ie. a call to a void function).
// hint is the type expected by the context, if any: it selects the type of
// untyped literals.
func (l *Lowerer) lowerExpr(expr ast.Expr, hint ir.Type) ir.Operand {
	defer l.at(l.at(expr.Span()))

	switch v := expr.(type) {
	case *ast.IntLit:
		return l.lowerIntLit(v, hint)
	case *ast.FloatLit:
		typ := l.litType(v.Type, hint, ir.IsFloating, ir.PrimF64)

		c, err := ir.NewFloatConst(v.Value, typ)
		if err != nil {
			l.throw(err)
		}

		return c
	case *ast.BoolLit:
		return ir.NewBoolConst(v.Value)
	case *ast.Ident:
		return l.lowerIdent(v)
	case *ast.MemberAccess, *ast.Index:
		return l.lowerLoad(l.address(v, "expression"), false)
	case *ast.Unary:
		return l.lowerUnary(v, hint)
	case *ast.Binary:
		return l.lowerBinary(v, hint)
	case *ast.Assign:
		addr := l.address(v.Target, "assignment target")
		val := l.lowerValue(v.Value, pointee(addr))
		l.emit(ir.NewStore(addr, val, v.Atomic))
		return val
	case *ast.Call:
		return l.lowerCall(v)
	case *ast.Cast:
		typ := l.lowerType(v.Type)
		src := l.lowerValue(v.Src, nil)

		result := l.unit.NewRegister("", typ)
		l.emit(ir.NewCast(result, src))
		return result
	}

	report.ReportICE("lowering for expression not implemented")
	return nil
}

// lowerValue lowers an expression that must yield a value.
func (l *Lowerer) lowerValue(expr ast.Expr, hint ir.Type) ir.Operand {
	val := l.lowerExpr(expr, hint)

	if val == nil {
		l.at(expr.Span())
		l.throw(report.NewTypeMismatch("expression", "a value", ir.PrimVoid.Repr()))
	}

	return val
}

// lowerIntLit lowers an integer literal.  Untyped integer literals take the
// type of the context when it is numeric.
func (l *Lowerer) lowerIntLit(lit *ast.IntLit, hint ir.Type) ir.Operand {
	if lit.Type.Inferred() && hint != nil && ir.IsFloating(hint) {
		c, _ := ir.NewFloatConst(float64(lit.Value), hint)
		return c
	}

	typ := l.litType(lit.Type, hint, ir.IsIntegral, ir.PrimI32)

	c, err := ir.NewIntConst(lit.Value, typ)
	if err != nil {
		l.throw(err)
	}

	return c
}

// litType determines the type of a literal: its explicit type, else the hint
// if it is acceptable, else the default type.
func (l *Lowerer) litType(tr ast.TypeRef, hint ir.Type, accepts func(ir.Type) bool, def ir.Type) ir.Type {
	if !tr.Inferred() {
		return l.lowerType(tr)
	}

	if hint != nil && accepts(hint) {
		return hint
	}

	return def
}

// isUntypedLit returns whether expr is a numeric literal whose type comes from
// its context.
func isUntypedLit(expr ast.Expr) bool {
	switch v := expr.(type) {
	case *ast.IntLit:
		return v.Type.Inferred()
	case *ast.FloatLit:
		return v.Type.Inferred()
	}

	return false
}

// -----------------------------------------------------------------------------

// lookup returns the symbol named by id.
func (l *Lowerer) lookup(id *ast.Ident) *depm.Symbol {
	sym, ok := l.scope.Lookup(id.Name)
	if !ok {
		l.throw(report.NewUnresolvedReference(l.file.Filename, id.Span(), id.Name))
	}

	return sym
}

// lowerIdent lowers the value of a variable or of the receiver.
func (l *Lowerer) lowerIdent(id *ast.Ident) ir.Operand {
	sym := l.lookup(id)
	if l.thisSym != nil && sym == l.thisSym {
		return l.this
	}

	return l.lowerLoad(l.varAddress(id, sym), false)
}

// address returns the address of an assignable expression: a variable, a
// field or an array element.  context describes the use of the address.
func (l *Lowerer) address(expr ast.Expr, context string) ir.Operand {
	defer l.at(l.at(expr.Span()))

	switch v := expr.(type) {
	case *ast.Ident:
		return l.varAddress(v, l.lookup(v))
	case *ast.MemberAccess:
		return l.fieldAddress(l.lowerValue(v.Object, nil), v.Member)
	case *ast.Index:
		return l.elemAddress(v)
	}

	l.throw(report.NewTypeMismatch(context, "variable, field or element", "expression"))
	return nil
}

// varAddress returns the storage of the variable sym named by id: a stack slot
// for locals and parameters, a global for the variables of the file body or
// a field of the receiver.
func (l *Lowerer) varAddress(id *ast.Ident, sym *depm.Symbol) ir.Operand {
	if slot, ok := l.slots[sym]; ok {
		return slot
	}

	if vd, ok := sym.Decl.(*ast.VarDecl); ok {
		switch sym.Kind {
		case depm.SymVar:
			if g, ok := l.globals[vd]; ok {
				return g
			}

			// declaring the global failed and has been reported
			report.Throw(errAbortUnit)
		case depm.SymField:
			return l.receiverField(vd)
		}
	}

	l.at(id.Span())
	l.throw(report.NewTypeMismatch(fmt.Sprintf("use of `%s`", id.Name), "variable", sym.Kind.String()))
	return nil
}

// receiverField returns the address of a field named without receiver: only
// the member units of the object declaring the field can do so.
func (l *Lowerer) receiverField(vd *ast.VarDecl) ir.Operand {
	if owner := l.file.Owner(vd); owner != l.object {
		found := "no receiver"
		if l.this != nil {
			found = l.this.Type().Repr()
		}

		l.throw(report.NewTypeMismatch(
			fmt.Sprintf("use of field `%s`", vd.Name),
			"receiver of type "+ir.NamedType{Name: l.file.FullName(owner)}.Repr(),
			found,
		))
	}

	return l.fieldAddress(l.this, vd.Name)
}

// fieldAddress returns the address of the field member of the object base.
func (l *Lowerer) fieldAddress(base ir.Operand, member string) *ir.Register {
	nt, ok := base.Type().(ir.NamedType)
	if !ok {
		l.throw(report.NewTypeMismatch(fmt.Sprintf("access of `%s`", member), "object", base.Type().Repr()))
	}

	lay := l.layoutOf(nt.Name)
	i, ok := lay.field(member)
	if !ok {
		l.throw(report.NewUnresolvedReference(l.file.Filename, l.span, nt.Name+"."+member))
	}

	index, _ := ir.NewIntConst(int64(i), ir.PrimI32)
	result := l.unit.NewRegister("", ir.PointerType{ElemType: lay.typ.Fields[i].Typ})
	l.emit(ir.NewElemPtr(result, base, index))
	return result
}

// elemAddress returns the address of an element of an array variable.
func (l *Lowerer) elemAddress(ix *ast.Index) *ir.Register {
	base := l.address(ix.Array, "indexed expression")

	arr, ok := pointee(base).(*ir.ArrayType)
	if !ok {
		l.throw(report.NewTypeMismatch("indexed expression", "array", pointee(base).Repr()))
	}

	index := l.lowerValue(ix.Index, ir.PrimI64)

	result := l.unit.NewRegister("", ir.PointerType{ElemType: arr.ElemType})
	l.emit(ir.NewElemPtr(result, base, index))
	return result
}

// pointee returns the type of the value stored at an address.
func pointee(ptr ir.Operand) ir.Type {
	return ptr.Type().(ir.PointerType).ElemType
}

// lowerLoad loads the value stored at ptr into a new register.
func (l *Lowerer) lowerLoad(ptr ir.Operand, atomic bool) *ir.Register {
	result := l.unit.NewRegister("", pointee(ptr))
	l.emit(ir.NewLoad(result, ptr, atomic))
	return result
}

// lowerUnary lowers a unary operation.  The atomic flag of the source operator
// is carried by the instruction implementing it.
func (l *Lowerer) lowerUnary(un *ast.Unary, hint ir.Type) ir.Operand {
	switch un.Op {
	case ast.OpNeg:
		operand := l.lowerValue(un.Operand, hint)
		result := l.unit.NewRegister("", operand.Type())
		l.emit(ir.NewNegate(result, operand, un.Atomic))
		return result
	case ast.OpNot:
		operand := l.lowerValue(un.Operand, hint)
		result := l.unit.NewRegister("", operand.Type())
		l.emit(ir.NewNot(result, operand, un.Atomic))
		return result
	}

	// increments and decrements: `x++` yields the old value, `++x` the new one
	addr := l.address(un.Operand, "operand of "+un.Op.String())
	old := l.lowerLoad(addr, un.Atomic)
	updated := l.unit.NewRegister("", old.Type())

	if un.Op == ast.OpPreInc || un.Op == ast.OpPostInc {
		l.emit(ir.NewIncrease(updated, old, un.Atomic))
	} else {
		l.emit(ir.NewDecrease(updated, old, un.Atomic))
	}

	l.emit(ir.NewStore(addr, updated, un.Atomic))

	if un.Op == ast.OpPostInc || un.Op == ast.OpPostDec {
		return old
	}

	return updated
}

var calcOps = map[ast.BinaryOp]ir.CalcOp{
	ast.OpAdd:    ir.CalcAdd,
	ast.OpSub:    ir.CalcSub,
	ast.OpMul:    ir.CalcMul,
	ast.OpDiv:    ir.CalcDiv,
	ast.OpRem:    ir.CalcRem,
	ast.OpBitAnd: ir.CalcAnd,
	ast.OpBitOr:  ir.CalcOr,
	ast.OpBitXor: ir.CalcXor,
	ast.OpShl:    ir.CalcShl,
	ast.OpShr:    ir.CalcShr,
}

var cmpOps = map[ast.BinaryOp]ir.CmpOp{
	ast.OpEq: ir.CmpEq,
	ast.OpNe: ir.CmpNe,
	ast.OpLt: ir.CmpLt,
	ast.OpLe: ir.CmpLe,
	ast.OpGt: ir.CmpGt,
	ast.OpGe: ir.CmpGe,
}

// lowerBinary lowers a binary operation.  Operands are evaluated left to right;
// an untyped literal operand takes the type of the other operand.
func (l *Lowerer) lowerBinary(bin *ast.Binary, hint ir.Type) ir.Operand {
	if bin.Op.IsComparison() {
		hint = nil
	}

	var lhs, rhs ir.Operand
	if isUntypedLit(bin.Lhs) && !isUntypedLit(bin.Rhs) {
		// literals yield no instructions so the order is preserved
		rhs = l.lowerValue(bin.Rhs, hint)
		lhs = l.lowerValue(bin.Lhs, rhs.Type())
	} else {
		lhs = l.lowerValue(bin.Lhs, hint)
		rhs = l.lowerValue(bin.Rhs, lhs.Type())
	}

	if bin.Op.IsComparison() {
		// comparisons only read their operands: there is nothing to make
		// atomic
		result := l.unit.NewRegister("", ir.PrimBool)
		l.emit(ir.NewCompare(result, cmpOps[bin.Op], lhs, rhs))
		return result
	}

	result := l.unit.NewRegister("", lhs.Type())
	l.emit(ir.NewCalculate(result, calcOps[bin.Op], lhs, rhs, bin.Atomic))
	return result
}

// lowerCall lowers a function call.  Methods are called on an explicit
// receiver or, from the member units of their object, on the current
// receiver.  The receiver is passed first.
func (l *Lowerer) lowerCall(call *ast.Call) ir.Operand {
	name := call.Func.Name

	var (
		file  *depm.SourceFile
		fd    *ast.FuncDecl
		scope *depm.Scope
		args  []ir.Operand
	)

	if call.Recv != nil {
		recv := l.lowerValue(call.Recv, nil)

		nt, ok := recv.Type().(ir.NamedType)
		if !ok {
			l.throw(report.NewTypeMismatch(fmt.Sprintf("call of `%s`", name), "object receiver", recv.Type().Repr()))
		}

		var od *ast.ObjectDecl
		file, od = l.objectDecl(nt.Name)

		if members, ok := file.MemberScope(od); ok {
			scope = members
			if sym, ok := members.LookupLocal(name); ok {
				fd, _ = sym.Decl.(*ast.FuncDecl)
			}
		}

		if fd == nil {
			l.throw(report.NewUnresolvedReference(l.file.Filename, call.Func.Span(), nt.Name+"."+name))
		}

		args = append(args, recv)
	} else {
		sym, ok := l.scope.Lookup(name)
		if !ok {
			l.throw(report.NewUnresolvedReference(l.file.Filename, call.Func.Span(), name))
		}

		fd, ok = sym.Decl.(*ast.FuncDecl)
		if !ok {
			l.throw(report.NewTypeMismatch(fmt.Sprintf("call of `%s`", name), "function", sym.Kind.String()))
		}

		var owner *ast.ObjectDecl
		file = l.file
		scope, owner = declScope(file, fd)

		if owner != nil {
			if owner != l.object {
				l.throw(report.NewTypeMismatch(
					fmt.Sprintf("call of `%s`", name),
					"receiver of type "+ir.NamedType{Name: file.FullName(owner)}.Repr(),
					"no receiver",
				))
			}

			args = append(args, l.this)
		}
	}

	if len(call.Args) != len(fd.Params) {
		l.throw(report.NewTypeMismatch(
			fmt.Sprintf("call of `%s`", name),
			fmt.Sprintf("%d arguments", len(fd.Params)),
			fmt.Sprintf("%d arguments", len(call.Args)),
		))
	}

	for i, arg := range call.Args {
		ptype := l.lowerTypeIn(file, scope, fd.Params[i].Type)
		val := l.lowerValue(arg, ptype)

		if !ir.TypeEqual(ptype, val.Type()) {
			l.at(arg.Span())
			l.throw(report.NewTypeMismatch(
				fmt.Sprintf("argument %d of `%s`", i+1, name),
				ptype.Repr(),
				val.Type().Repr(),
			))
		}

		args = append(args, val)
	}

	rtType := l.lowerReturnTypeIn(file, scope, fd.ReturnType)

	var result *ir.Register
	if !ir.IsVoid(rtType) {
		result = l.unit.NewRegister("", rtType)
	}

	l.emit(ir.NewInvoke(result, file.FullName(fd), rtType, args))

	if result == nil {
		return nil
	}

	return result
}

// declScope returns the scope the function fd of file is declared in and the
// object declaring it, if any.
func declScope(file *depm.SourceFile, fd *ast.FuncDecl) (*depm.Scope, *ast.ObjectDecl) {
	if owner := file.Owner(fd); owner != nil {
		if members, ok := file.MemberScope(owner); ok {
			return members, owner
		}

		return file.Scope, owner
	}

	return file.Scope, nil
}
