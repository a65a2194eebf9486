// Package depm holds the shared symbolic model of the compiler: source files,
// their scopes and symbols, and the proxies linking files together.
package depm

import (
	"strings"

	"lc/ast"
	"lc/report"
)

// SourceFile represents a single L source file.  The file owns its scope and
// its statement tree: the root block of the tree is the file body.
type SourceFile struct {
	// Filename is the path of the file used in diagnostics.
	Filename string

	// PackageName is the name of the package the file belongs to.  It is empty
	// if the file does not declare a package.
	PackageName string

	// Scope is the file scope.  It is nil until the file is resolved.
	Scope *Scope

	// Tree is the statement arena of the file.
	Tree *ast.Tree

	// Proxies are the proxies created for the imports of the file.
	Proxies []*Proxy

	Span *report.TextSpan

	// IsError indicates the parser could not fully validate the file.
	IsError bool
}

// NewSourceFile creates a new source file with an empty body.
func NewSourceFile(filename, pkgName string, span *report.TextSpan) *SourceFile {
	return &SourceFile{
		Filename:    filename,
		PackageName: pkgName,
		Tree:        ast.NewTree(span),
		Span:        span,
	}
}

// Body returns the root block of the file.
func (sf *SourceFile) Body() ast.BlockID {
	return sf.Tree.Root()
}

// ObjectDecls returns every object declaration of the file flattened
// depth-first in document order: each declaration is followed by its nested
// declarations before its next sibling.  Erroneous declarations are skipped
// along with everything nested inside them.  Only object bodies are searched:
// objects declared inside function bodies or control flow are local.
func (sf *SourceFile) ObjectDecls() []*ast.ObjectDecl {
	var decls []*ast.ObjectDecl

	sf.Tree.Walk(sf.Body(), func(s ast.Stmt) bool {
		if s.IsError() {
			return false
		}

		if od, ok := s.(*ast.ObjectDecl); ok {
			decls = append(decls, od)
			return true
		}

		return false
	})

	return decls
}

// ObjectDecl returns the object declaration whose full name is fullName.  All
// nested declarations are searched.
func (sf *SourceFile) ObjectDecl(fullName string) (*ast.ObjectDecl, error) {
	fullName = Normalize(fullName)

	for _, od := range sf.ObjectDecls() {
		if sf.FullName(od) == fullName {
			return od, nil
		}
	}

	return nil, report.NewNotFound(sf.Filename, "object declaration", fullName)
}

// ObjectDeclByName returns the top-level object declaration named name.
// Unlike ObjectDecl, nested declarations are NOT searched.
func (sf *SourceFile) ObjectDeclByName(name string) (*ast.ObjectDecl, bool) {
	name = Normalize(name)

	for _, s := range sf.Tree.Stmts(sf.Body()) {
		if od, ok := s.(*ast.ObjectDecl); ok && !od.IsError() && Normalize(od.Name) == name {
			return od, true
		}
	}

	return nil, false
}

// MemberScope returns the member scope of an object declaration of the file.
// It fails if the file is not resolved or if the declaration could not be
// bound.
func (sf *SourceFile) MemberScope(od *ast.ObjectDecl) (*Scope, bool) {
	if sf.Scope == nil {
		return nil, false
	}

	scope := sf.Scope
	segments := strings.Split(sf.Tree.Path(od.ID()), ".")
	for i, seg := range segments {
		sym, ok := scope.LookupLocal(seg)
		if !ok || sym.Members == nil {
			return nil, false
		}

		if i == len(segments)-1 {
			return sym.Members, sym.Decl == ast.Stmt(od)
		}

		scope = sym.Members
	}

	return nil, false
}

// Owner returns the object declaration whose body directly contains s or nil
// if s is not a member of an object.
func (sf *SourceFile) Owner(s ast.Stmt) *ast.ObjectDecl {
	b := sf.Tree.Block(s.Parent())
	if b == nil {
		return nil
	}

	od, _ := sf.Tree.Stmt(b.Owner).(*ast.ObjectDecl)
	return od
}

// ImportStatements returns the imports of the file body.  Imports nested inside
// declarations are not included.
func (sf *SourceFile) ImportStatements() []*ast.Import {
	var imports []*ast.Import

	for _, s := range sf.Tree.Stmts(sf.Body()) {
		if imp, ok := s.(*ast.Import); ok && !imp.IsError() {
			imports = append(imports, imp)
		}
	}

	return imports
}

// FullName returns the qualified name of a declaration of this file: the
// package name followed by the names of the enclosing declarations.
func (sf *SourceFile) FullName(decl ast.Stmt) string {
	path := Normalize(sf.Tree.Path(decl.ID()))

	if sf.PackageName == "" {
		return path
	}

	return Normalize(sf.PackageName) + "." + path
}

// UnresolvedProxies returns the proxies of the file that are not resolved.
func (sf *SourceFile) UnresolvedProxies() []*Proxy {
	var unresolved []*Proxy

	for _, p := range sf.Proxies {
		if !p.Resolved() {
			unresolved = append(unresolved, p)
		}
	}

	return unresolved
}
