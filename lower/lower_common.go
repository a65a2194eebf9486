package lower

import (
	"fmt"
	"strconv"
	"strings"

	"lc/ast"
	"lc/depm"
	"lc/ir"
	"lc/report"
)

// lowerType converts a type label of the file resolved in the current scope.
func (l *Lowerer) lowerType(tr ast.TypeRef) ir.Type {
	return l.lowerTypeIn(l.file, l.scope, tr)
}

// lowerTypeIn converts a type label of file resolved in scope into an IR type.
// Builtin names yield primitive types, `T[n]` yields an array of n values of T
// and object names yield named types: imported objects are named by the full
// name of their origin.
func (l *Lowerer) lowerTypeIn(file *depm.SourceFile, scope *depm.Scope, tr ast.TypeRef) ir.Type {
	prev := l.at(tr.Span)
	defer l.at(prev)

	if tr.Inferred() {
		l.throw(report.NewTypeMismatch("type label", "a type", "nothing"))
	}

	return l.typeNamed(file, scope, tr.Name)
}

func (l *Lowerer) typeNamed(file *depm.SourceFile, scope *depm.Scope, name string) ir.Type {
	if strings.HasSuffix(name, "]") {
		if i := strings.LastIndexByte(name, '['); i > 0 {
			size := name[i+1 : len(name)-1]

			n, err := strconv.ParseUint(size, 10, 32)
			if err != nil || n == 0 {
				l.throw(report.NewTypeMismatch("array length", "positive integer", size))
			}

			return &ir.ArrayType{ElemType: l.typeNamed(file, scope, name[:i]), Len: uint(n)}
		}
	}

	if depm.IsPrimitiveType(name) {
		pt, _ := ir.PrimTypeFromName(name)
		if pt == ir.PrimVoid {
			l.throw(report.NewTypeMismatch("type label", "a value type", pt.Repr()))
		}

		return pt
	}

	segments := strings.Split(name, ".")

	sym, ok := scope.Lookup(segments[0])
	rest := segments[1:]
	for ok && len(rest) > 0 && sym.Members != nil {
		sym, ok = sym.Members.LookupLocal(rest[0])
		rest = rest[1:]
	}

	if !ok {
		l.throw(report.NewUnresolvedReference(l.file.Filename, l.span, name))
	}

	switch sym.Kind {
	case depm.SymObject:
		if len(rest) == 0 {
			full := file.FullName(sym.Decl)
			l.reference(full, file)
			return ir.NamedType{Name: full}
		}
	case depm.SymImport:
		// objects nested in an imported object are named through the import
		full := strings.Join(append([]string{sym.Proxy.OriginName}, rest...), ".")
		if len(rest) == 0 || sym.Proxy.OriginFile != nil && hasObject(sym.Proxy.OriginFile, full) {
			l.reference(full, sym.Proxy.OriginFile)
			return ir.NamedType{Name: full}
		}

		l.throw(report.NewUnresolvedReference(l.file.Filename, l.span, name))
	}

	l.throw(report.NewTypeMismatch("type label", "a type", sym.Kind.String()))
	return nil
}

func hasObject(file *depm.SourceFile, fullName string) bool {
	_, err := file.ObjectDecl(fullName)
	return err == nil
}

// lowerReturnType converts the return type label of a function: an omitted
// label means the function returns nothing.
func (l *Lowerer) lowerReturnType(tr ast.TypeRef) ir.Type {
	return l.lowerReturnTypeIn(l.file, l.scope, tr)
}

func (l *Lowerer) lowerReturnTypeIn(file *depm.SourceFile, scope *depm.Scope, tr ast.TypeRef) ir.Type {
	if tr.Inferred() || tr.Name == ir.PrimVoid.Repr() {
		return ir.PrimVoid
	}

	return l.lowerTypeIn(file, scope, tr)
}

// staticType determines the type of a global or a field declared by vd in
// file.  The type must be known without lowering any code: it comes from the
// type label or else from a literal or cast initializer.
func (l *Lowerer) staticType(file *depm.SourceFile, scope *depm.Scope, vd *ast.VarDecl) ir.Type {
	if !vd.Type.Inferred() {
		return l.lowerTypeIn(file, scope, vd.Type)
	}

	switch v := vd.Init.(type) {
	case *ast.IntLit:
		if v.Type.Inferred() {
			return ir.PrimI32
		}

		return l.lowerTypeIn(file, scope, v.Type)
	case *ast.FloatLit:
		if v.Type.Inferred() {
			return ir.PrimF64
		}

		return l.lowerTypeIn(file, scope, v.Type)
	case *ast.BoolLit:
		return ir.PrimBool
	case *ast.Cast:
		return l.lowerTypeIn(file, scope, v.Type)
	}

	l.at(vd.NameSpan)
	l.throw(report.NewTypeMismatch(
		fmt.Sprintf("declaration of `%s`", vd.Name),
		"type label or literal initializer",
		"neither",
	))
	return nil
}

// -----------------------------------------------------------------------------

// objectLayout is the field layout of an object.
type objectLayout struct {
	// names holds the normalized names of the fields in declaration order.
	names []string
	typ   *ir.StructType
}

// field returns the index of the field named name.
func (ol *objectLayout) field(name string) (int, bool) {
	name = depm.Normalize(name)
	for i, n := range ol.names {
		if n == name {
			return i, true
		}
	}

	return 0, false
}

// layoutOf returns the field layout of the object named name.  The fields of
// an object are the variables of its body.  An object that cannot be laid out
// abandons every unit needing its layout but the error is only reported once.
func (l *Lowerer) layoutOf(name string) *objectLayout {
	if lay, ok := l.layouts[name]; ok {
		if lay == nil {
			report.Throw(errAbortUnit)
		}

		return lay
	}

	l.layouts[name] = nil

	file, od := l.objectDecl(name)
	members, ok := file.MemberScope(od)
	if !ok {
		l.throw(report.NewNotFound(file.Filename, "object", name))
	}

	lay := &objectLayout{}
	var fields []ir.Type
	for _, s := range file.Tree.Stmts(od.Body) {
		vd, ok := s.(*ast.VarDecl)
		if !ok || vd.IsError() {
			continue
		}

		if sym, ok := members.LookupLocal(vd.Name); !ok || sym.Decl != ast.Stmt(vd) {
			continue
		}

		lay.names = append(lay.names, depm.Normalize(vd.Name))
		fields = append(fields, l.staticType(file, members, vd))
	}

	lay.typ = ir.NewStruct(fields)
	l.layouts[name] = lay
	return lay
}

// objectDecl finds the declaration of the object named name in the file it was
// referenced from, the file or the origin files of its imports.
func (l *Lowerer) objectDecl(name string) (*depm.SourceFile, *ast.ObjectDecl) {
	if file := l.origins[name]; file != nil {
		if od, err := file.ObjectDecl(name); err == nil {
			return file, od
		}
	}

	if od, err := l.file.ObjectDecl(name); err == nil {
		return l.file, od
	}

	for _, p := range l.file.Proxies {
		if p.OriginFile == nil || p.OriginFile == l.file {
			continue
		}

		if od, err := p.OriginFile.ObjectDecl(name); err == nil {
			return p.OriginFile, od
		}
	}

	l.throw(report.NewNotFound(l.file.Filename, "object", name))
	return nil, nil
}
