package depm

import "lc/ast"

// Proxy is a non-owning stand-in for a declaration of another source file.
// It is created from an import during local resolution and resolved during
// linking once the origin file has published its declarations.
type Proxy struct {
	// Import is the import statement the proxy was created from.
	Import *ast.Import

	// Name is the local name the proxy is bound under.
	Name string

	// Origin is the imported declaration.  It is nil until the proxy is
	// resolved.
	Origin *ast.ObjectDecl

	// OriginFile is the file declaring Origin.
	OriginFile *SourceFile

	// OriginName is the full name of Origin, captured when the proxy is
	// resolved so that users of the proxy never have to consult the tree of
	// the origin file.
	OriginName string
}

// NewProxy creates a new unresolved proxy for imp.
func NewProxy(imp *ast.Import) *Proxy {
	return &Proxy{Import: imp, Name: Normalize(imp.LocalName())}
}

// Resolved returns whether the proxy refers to its origin declaration.
func (p *Proxy) Resolved() bool {
	return p.Origin != nil
}

// Resolve points the proxy at decl which is declared in file under fullName.
func (p *Proxy) Resolve(file *SourceFile, decl *ast.ObjectDecl, fullName string) {
	p.OriginFile = file
	p.Origin = decl
	p.OriginName = fullName
}
