package depm

import (
	"lc/ast"
	"lc/report"
)

// SymbolKind indicates what a symbol names.  Must be one of the enumerated
// symbol kinds.
type SymbolKind int

// Enumeration of symbol kinds.
const (
	SymObject SymbolKind = iota // object declarations
	SymFunc                     // functions and methods
	SymVar                      // local and file variables
	SymField                    // variables of objects
	SymParam                    // function parameters
	SymType                     // builtin types
	SymImport                   // imported names (bound to a proxy)
)

var symbolKindNames = []string{
	"object",
	"function",
	"variable",
	"field",
	"parameter",
	"type",
	"import",
}

func (sk SymbolKind) String() string {
	return symbolKindNames[sk]
}

// Symbol is a single named binding in a scope.
type Symbol struct {
	Name string
	Kind SymbolKind

	// DefSpan is the span of the definition of the symbol.  It is nil for
	// builtin symbols.
	DefSpan *report.TextSpan

	// Decl is the declaring statement of objects, functions, fields and file
	// variables.
	Decl ast.Stmt

	// Type is the declared type of variables and parameters.
	Type ast.TypeRef

	// Proxy is the proxy backing an import symbol.
	Proxy *Proxy

	// Members is the member scope of an object symbol.
	Members *Scope
}
