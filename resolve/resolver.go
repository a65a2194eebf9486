// Package resolve builds the scopes of source files and links the proxies of
// their imports to the declarations of other files.
package resolve

import (
	"lc/ast"
	"lc/depm"
	"lc/report"
)

// ResolveLocal performs the file-local part of resolution: it creates the file
// scope, binds the top-level declarations and variables of the file along with
// the members and fields of every object declaration, and creates one proxy per
// top-level import.
// Erroneous nodes are never resolved: they are returned as non-fatal parse
// error diagnostics alongside any fatal errors.
func ResolveLocal(file *depm.SourceFile) error {
	r := &localResolver{file: file}

	file.Scope = depm.NewScope(depm.FileScope, depm.Universe())
	file.Proxies = nil

	r.collectErrorNodes()

	for _, s := range file.Tree.Stmts(file.Body()) {
		if s.IsError() {
			continue
		}

		switch v := s.(type) {
		case *ast.Import:
			p := depm.NewProxy(v)
			file.Proxies = append(file.Proxies, p)

			r.bind(file.Scope, &depm.Symbol{
				Name:    p.Name,
				Kind:    depm.SymImport,
				DefSpan: v.Span(),
				Proxy:   p,
			})
		case *ast.ObjectDecl:
			r.declareObject(file.Scope, v)
		case *ast.FuncDecl:
			r.declareFunc(file.Scope, v)
		case *ast.VarDecl:
			r.declareVar(file.Scope, v, depm.SymVar)
		}
	}

	return r.errors.Err()
}

// localResolver holds the state of the local resolution of a single file.
type localResolver struct {
	file   *depm.SourceFile
	errors report.ErrorList
}

// bind binds sym in scope, recording duplicate bindings.
func (r *localResolver) bind(scope *depm.Scope, sym *depm.Symbol) bool {
	if err := scope.Bind(sym); err != nil {
		if ce, ok := report.AsCompileError(err); ok {
			ce.SetFile(r.file.Filename)
		}

		r.errors.Add(err)
		return false
	}

	return true
}

// declareObject binds an object declaration in scope and declares its members
// in a new object scope.
func (r *localResolver) declareObject(scope *depm.Scope, od *ast.ObjectDecl) {
	members := depm.NewScope(depm.ObjectScope, scope)

	if !r.bind(scope, &depm.Symbol{
		Name:    od.Name,
		Kind:    depm.SymObject,
		DefSpan: od.Span(),
		Decl:    od,
		Members: members,
	}) {
		return
	}

	for _, s := range r.file.Tree.Stmts(od.Body) {
		if s.IsError() {
			continue
		}

		switch v := s.(type) {
		case *ast.ObjectDecl:
			r.declareObject(members, v)
		case *ast.FuncDecl:
			r.declareFunc(members, v)
		case *ast.VarDecl:
			r.declareVar(members, v, depm.SymField)
		}
	}
}

// declareFunc binds a function declaration in scope.
func (r *localResolver) declareFunc(scope *depm.Scope, fd *ast.FuncDecl) {
	r.bind(scope, &depm.Symbol{
		Name:    fd.Name,
		Kind:    depm.SymFunc,
		DefSpan: fd.Span(),
		Decl:    fd,
		Type:    fd.ReturnType,
	})
}

// declareVar binds a file variable or a field in scope.
func (r *localResolver) declareVar(scope *depm.Scope, vd *ast.VarDecl, kind depm.SymbolKind) {
	r.bind(scope, &depm.Symbol{
		Name:    vd.Name,
		Kind:    kind,
		DefSpan: vd.NameSpan,
		Decl:    vd,
		Type:    vd.Type,
	})
}

// collectErrorNodes records a parse error diagnostic for every node the parser
// flagged as erroneous.  The subtrees of erroneous nodes are not searched.
func (r *localResolver) collectErrorNodes() {
	if r.file.IsError {
		r.errors.Add(report.NewParseErrorNode(r.file.Filename, r.file.Span, "source file"))
	}

	r.file.Tree.Walk(r.file.Body(), func(s ast.Stmt) bool {
		if s.IsError() {
			r.errors.Add(report.NewParseErrorNode(r.file.Filename, s.Span(), describeStmt(s)))
			return false
		}

		for _, e := range ast.StmtExprs(s) {
			ast.WalkExpr(e, func(e ast.Expr) bool {
				if e.IsError() {
					r.errors.Add(report.NewParseErrorNode(r.file.Filename, e.Span(), "expression"))
					return false
				}

				return true
			})
		}

		return true
	})
}

// describeStmt returns a human readable description of a statement kind.
func describeStmt(s ast.Stmt) string {
	switch s.(type) {
	case *ast.Import:
		return "import"
	case *ast.ObjectDecl:
		return "object declaration"
	case *ast.FuncDecl:
		return "function declaration"
	case *ast.VarDecl:
		return "variable declaration"
	case *ast.If:
		return "if statement"
	case *ast.While:
		return "while loop"
	default:
		return "statement"
	}
}
