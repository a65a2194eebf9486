package ast

import "lc/report"

// Stmt is a statement stored in a tree.  The set of statements is closed: only
// types in this package implement it.
type Stmt interface {
	Node

	// ID returns the arena ID of the statement.
	ID() StmtID

	// Parent returns the block that owns the statement.
	Parent() BlockID

	stmtNode()
	base() *StmtBase
}

// StmtBase is the base struct for all statements.
type StmtBase struct {
	ASTBase

	id     StmtID
	parent BlockID
}

func (sb *StmtBase) ID() StmtID {
	return sb.id
}

func (sb *StmtBase) Parent() BlockID {
	return sb.parent
}

func (sb *StmtBase) stmtNode() {}

// base gives the tree access to the arena fields of any statement.
func (sb *StmtBase) base() *StmtBase {
	return sb
}

// -----------------------------------------------------------------------------

// Import names an external declaration: eg. `import pkg.Outer as O`.
type Import struct {
	StmtBase

	// Path is the dotted path of the imported declaration.
	Path string

	// Alias is the (optional) local name of the import.
	Alias string
}

// LocalName returns the name under which the import is visible in the file.
func (imp *Import) LocalName() string {
	if imp.Alias != "" {
		return imp.Alias
	}

	for i := len(imp.Path) - 1; i >= 0; i-- {
		if imp.Path[i] == '.' {
			return imp.Path[i+1:]
		}
	}

	return imp.Path
}

// VarDecl declares a local variable.
type VarDecl struct {
	StmtBase

	Name string
	Type TypeRef

	// Init is the (optional) initializer.
	Init Expr

	// NameSpan is the span of the identifier being declared.
	NameSpan *report.TextSpan
}

// ExprStmt is an expression evaluated for its effects.
type ExprStmt struct {
	StmtBase

	Expr Expr
}

// Return returns from the enclosing body.
type Return struct {
	StmtBase

	// Value is nil for bare returns.
	Value Expr
}

// If is a conditional with an optional else block.
type If struct {
	StmtBase

	Cond Expr
	Then BlockID

	// Else is NoBlock if there is no else branch.
	Else BlockID
}

// While is a pre-tested loop.
type While struct {
	StmtBase

	Cond Expr
	Body BlockID
}

// BlockStmt is a nested lexical block.
type BlockStmt struct {
	StmtBase

	Body BlockID
}
