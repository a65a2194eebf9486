// Package ast defines the per-file abstract syntax tree of L source files.
//
// Statements and blocks live in an arena owned by a Tree and refer to each
// other by index: a block stores the ID of the statement that owns it and a
// statement stores the ID of its enclosing block.  Expressions are plain owned
// trees without back references.
package ast

import "lc/report"

// Node is the abstract interface for all AST nodes.
type Node interface {
	// Span returns the text span of the node.
	Span() *report.TextSpan

	// IsError indicates whether the parser flagged this node as erroneous.
	IsError() bool
}

// ASTBase is a utility base struct for all AST nodes.
type ASTBase struct {
	// The span over which the AST node occurs.
	span *report.TextSpan

	// Whether or not the node could not be fully validated by the parser.
	isError bool
}

// NewASTBaseOn creates a new AST base with the given span.
func NewASTBaseOn(span *report.TextSpan) ASTBase {
	return ASTBase{span: span}
}

// NewASTBaseOver creates a new AST base spanning over two spans.
func NewASTBaseOver(start, end *report.TextSpan) ASTBase {
	return ASTBase{span: report.NewSpanOver(start, end)}
}

func (ab *ASTBase) Span() *report.TextSpan {
	return ab.span
}

func (ab *ASTBase) IsError() bool {
	return ab.isError
}

// MarkError flags the node as an error node.
func (ab *ASTBase) MarkError() {
	ab.isError = true
}

// -----------------------------------------------------------------------------

// StmtID identifies a statement within its tree.  Zero is the sentinel.
type StmtID uint32

// BlockID identifies a block within its tree.  Zero is the sentinel.
type BlockID uint32

// Invalid ID constants.
const (
	NoStmt  StmtID  = 0
	NoBlock BlockID = 0
)

// IsValid returns true if the ID is valid (non-zero).
func (id StmtID) IsValid() bool  { return id != NoStmt }
func (id BlockID) IsValid() bool { return id != NoBlock }

// TypeRef is a reference to a type by name as it appears in source: eg. `i32`
// or the (possibly dotted) name of an object declaration.  An empty name
// indicates that the type should be inferred.
type TypeRef struct {
	Name string
	Span *report.TextSpan
}

// Inferred returns whether the type reference was omitted in source.
func (tr TypeRef) Inferred() bool {
	return tr.Name == ""
}
