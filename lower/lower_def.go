package lower

import (
	"lc/ast"
	"lc/depm"
	"lc/ir"
)

// lowerDecls lowers the declarations of block: each object declaration yields
// a unit for its executable members followed by the units of its nested
// declarations, and each function declaration yields a unit for its body.
// scope is the scope the declarations of block are bound in and owner is the
// object declaring them, if any.
func (l *Lowerer) lowerDecls(block ast.BlockID, scope *depm.Scope, owner *ast.ObjectDecl) {
	for _, s := range l.file.Tree.Stmts(block) {
		if s.IsError() {
			continue
		}

		switch v := s.(type) {
		case *ast.ObjectDecl:
			sym, ok := scope.LookupLocal(v.Name)
			if !ok || sym.Decl != ast.Stmt(v) {
				// The binding failed during resolution.
				continue
			}

			l.lowerInitUnit(l.file.FullName(v)+"."+initSuffix, v.Body, sym.Members, v)
			l.lowerDecls(v.Body, sym.Members, v)
		case *ast.FuncDecl:
			sym, ok := scope.LookupLocal(v.Name)
			if !ok || sym.Decl != ast.Stmt(v) {
				continue
			}

			l.lowerFuncUnit(v, scope, owner)
		}
	}
}

// lowerInitUnit lowers the executable statements of a declaration body into a
// unit named name: the initializers of its variables are stored into their
// globals or into the fields of the receiver.  No unit is produced if the body
// has no executable statements.
func (l *Lowerer) lowerInitUnit(name string, body ast.BlockID, scope *depm.Scope, owner *ast.ObjectDecl) {
	if !l.hasExecutableStmts(body) {
		return
	}

	l.beginUnit(name, ir.PrimVoid, scope)
	l.pushScope(depm.BlockScope)
	l.declBody = body

	ok := true
	if owner != nil {
		ok = l.guard(owner.Span(), func() { l.bindReceiver(owner) })
	}

	ok = ok && l.lowerBlockStmts(body)

	l.popScope()
	l.endUnit(ok)
}

// lowerFuncUnit lowers a function declaration.  Parameters are copied into
// stack slots so that they can be assigned like any other local variable.
// Methods of an object receive the object first.
func (l *Lowerer) lowerFuncUnit(fd *ast.FuncDecl, scope *depm.Scope, owner *ast.ObjectDecl) {
	l.beginUnit(l.file.FullName(fd), ir.PrimVoid, scope)
	l.pushScope(depm.FunctionScope)

	ok := l.guard(fd.Span(), func() {
		l.unit.ReturnType = l.lowerReturnType(fd.ReturnType)

		if owner != nil {
			l.bindReceiver(owner)
		}

		for _, param := range fd.Params {
			l.at(param.Span)

			typ := l.lowerType(param.Type)
			reg := l.unit.AddParam(param.Name, typ)

			sym := &depm.Symbol{
				Name:    param.Name,
				Kind:    depm.SymParam,
				DefSpan: param.Span,
				Type:    param.Type,
			}
			l.bind(sym)

			slot := l.unit.NewRegister(param.Name+".addr", ir.PointerType{ElemType: typ})
			l.emit(ir.NewStackAlloc(slot, typ))
			l.emit(ir.NewStore(slot, reg, false))
			l.slots[sym] = slot
		}
	})

	if ok {
		ok = l.lowerBlockStmts(fd.Body)
	}

	l.popScope()
	l.endUnit(ok)
}

// thisName is the name of the receiver of member units.
const thisName = "this"

// bindReceiver adds the receiver parameter of a member unit of owner.  The
// receiver is not stored in a slot: it cannot be assigned.
func (l *Lowerer) bindReceiver(owner *ast.ObjectDecl) {
	full := l.file.FullName(owner)
	l.reference(full, l.file)

	l.object = owner
	l.this = l.unit.AddParam(thisName, ir.NamedType{Name: full})
	l.thisSym = &depm.Symbol{
		Name:    thisName,
		Kind:    depm.SymParam,
		DefSpan: owner.Span(),
	}
	l.bind(l.thisSym)
}

// hasExecutableStmts returns whether a declaration body contains statements
// other than declarations and imports.
func (l *Lowerer) hasExecutableStmts(body ast.BlockID) bool {
	for _, s := range l.file.Tree.Stmts(body) {
		if !s.IsError() && isExecutable(s) {
			return true
		}
	}

	return false
}

// isExecutable returns whether a statement is lowered to instructions.
// Variables without initializer only declare storage.
func isExecutable(s ast.Stmt) bool {
	switch v := s.(type) {
	case *ast.Import, *ast.ObjectDecl, *ast.FuncDecl:
		return false
	case *ast.VarDecl:
		return v.Init != nil
	default:
		return true
	}
}
