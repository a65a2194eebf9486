package ast

import "lc/report"

// Expr is an expression node.  The set of expressions is closed: only types in
// this package implement it.
type Expr interface {
	Node

	exprNode()
}

// ExprBase is the base struct for all expressions.
type ExprBase struct {
	ASTBase
}

func (eb *ExprBase) exprNode() {}

// NewExprBase creates a new expression base over span.
func NewExprBase(span *report.TextSpan) ExprBase {
	return ExprBase{ASTBase: NewASTBaseOn(span)}
}

// -----------------------------------------------------------------------------

// Ident is a reference to a named symbol.
type Ident struct {
	ExprBase

	Name string
}

// IntLit is an integer literal.  Its type defaults to `i32` when not given.
type IntLit struct {
	ExprBase

	Value int64
	Type  TypeRef
}

// FloatLit is a floating-point literal.  Its type defaults to `f64`.
type FloatLit struct {
	ExprBase

	Value float64
	Type  TypeRef
}

// BoolLit is a boolean literal.
type BoolLit struct {
	ExprBase

	Value bool
}

// UnaryOp is a unary operator.  Must be one of the enumerated unary operators.
type UnaryOp int

// Enumeration of unary operators.
const (
	OpNeg     UnaryOp = iota // -x
	OpNot                    // !x or ~x
	OpPreInc                 // ++x
	OpPreDec                 // --x
	OpPostInc                // x++
	OpPostDec                // x--
)

var unaryOpNames = []string{"-", "!", "++", "--", "++", "--"}

func (op UnaryOp) String() string {
	return unaryOpNames[op]
}

// Unary is the application of a unary operator.  Atomic is set when the
// operator was written in its atomic form (eg. `atomic -x`).
type Unary struct {
	ExprBase

	Op      UnaryOp
	Operand Expr
	Atomic  bool
}

// BinaryOp is a binary operator.  Must be one of the enumerated binary
// operators.
type BinaryOp int

// Enumeration of binary operators.
const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

var binaryOpNames = []string{
	"+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>",
	"==", "!=", "<", "<=", ">", ">=",
}

func (op BinaryOp) String() string {
	return binaryOpNames[op]
}

// IsComparison returns whether the operator yields a boolean.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEq
}

// BinaryOpFromName converts an operator token into a binary operator.
func BinaryOpFromName(name string) (BinaryOp, bool) {
	for i, n := range binaryOpNames {
		if n == name {
			return BinaryOp(i), true
		}
	}

	return OpAdd, false
}

// Binary is the application of a binary operator.
type Binary struct {
	ExprBase

	Op       BinaryOp
	Lhs, Rhs Expr
	Atomic   bool
}

// Assign stores a value into a variable, a field or an array element and
// yields the stored value.  Target is an identifier, a member access or an
// index.
type Assign struct {
	ExprBase

	Target Expr
	Value  Expr
	Atomic bool
}

// Call calls a function by name.  Recv is the object a method is called on: it
// is nil for calls of plain functions and of methods of the enclosing object.
type Call struct {
	ExprBase

	Recv Expr
	Func *Ident
	Args []Expr
}

// MemberAccess selects a field of an object.
type MemberAccess struct {
	ExprBase

	Object Expr
	Member string
}

// Index selects an element of an array.
type Index struct {
	ExprBase

	Array Expr
	Index Expr
}

// Cast converts a value to another type.
type Cast struct {
	ExprBase

	Type TypeRef
	Src  Expr
}

// -----------------------------------------------------------------------------

// NewIdent creates a new identifier expression.
func NewIdent(name string, span *report.TextSpan) *Ident {
	return &Ident{ExprBase: NewExprBase(span), Name: name}
}

// NewIntLit creates a new integer literal.  An empty type name selects `i32`.
func NewIntLit(value int64, typ string, span *report.TextSpan) *IntLit {
	return &IntLit{ExprBase: NewExprBase(span), Value: value, Type: TypeRef{Name: typ, Span: span}}
}

// NewFloatLit creates a new floating-point literal.  An empty type name selects
// `f64`.
func NewFloatLit(value float64, typ string, span *report.TextSpan) *FloatLit {
	return &FloatLit{ExprBase: NewExprBase(span), Value: value, Type: TypeRef{Name: typ, Span: span}}
}

// NewBoolLit creates a new boolean literal.
func NewBoolLit(value bool, span *report.TextSpan) *BoolLit {
	return &BoolLit{ExprBase: NewExprBase(span), Value: value}
}

// NewUnary creates a new unary expression.
func NewUnary(op UnaryOp, operand Expr, atomic bool, span *report.TextSpan) *Unary {
	return &Unary{ExprBase: NewExprBase(span), Op: op, Operand: operand, Atomic: atomic}
}

// NewBinary creates a new binary expression.
func NewBinary(op BinaryOp, lhs, rhs Expr, atomic bool, span *report.TextSpan) *Binary {
	return &Binary{ExprBase: NewExprBase(span), Op: op, Lhs: lhs, Rhs: rhs, Atomic: atomic}
}

// NewAssign creates a new assignment expression.
func NewAssign(target Expr, value Expr, atomic bool, span *report.TextSpan) *Assign {
	return &Assign{ExprBase: NewExprBase(span), Target: target, Value: value, Atomic: atomic}
}

// NewCall creates a new call expression.
func NewCall(fn *Ident, args []Expr, span *report.TextSpan) *Call {
	return &Call{ExprBase: NewExprBase(span), Func: fn, Args: args}
}

// NewMethodCall creates a new call of a method of recv.
func NewMethodCall(recv Expr, fn *Ident, args []Expr, span *report.TextSpan) *Call {
	return &Call{ExprBase: NewExprBase(span), Recv: recv, Func: fn, Args: args}
}

// NewMemberAccess creates a new member access expression.
func NewMemberAccess(object Expr, member string, span *report.TextSpan) *MemberAccess {
	return &MemberAccess{ExprBase: NewExprBase(span), Object: object, Member: member}
}

// NewIndex creates a new index expression.
func NewIndex(array, index Expr, span *report.TextSpan) *Index {
	return &Index{ExprBase: NewExprBase(span), Array: array, Index: index}
}

// NewCast creates a new cast expression.
func NewCast(typ string, src Expr, span *report.TextSpan) *Cast {
	return &Cast{ExprBase: NewExprBase(span), Type: TypeRef{Name: typ, Span: span}, Src: src}
}

// -----------------------------------------------------------------------------

// WalkExpr calls fn for e and then, if fn returns true, for each of its
// subexpressions in evaluation order.
func WalkExpr(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}

	switch v := e.(type) {
	case *Unary:
		WalkExpr(v.Operand, fn)
	case *Binary:
		WalkExpr(v.Lhs, fn)
		WalkExpr(v.Rhs, fn)
	case *Assign:
		WalkExpr(v.Target, fn)
		WalkExpr(v.Value, fn)
	case *Call:
		WalkExpr(v.Recv, fn)

		if v.Func != nil {
			WalkExpr(v.Func, fn)
		}

		for _, arg := range v.Args {
			WalkExpr(arg, fn)
		}
	case *MemberAccess:
		WalkExpr(v.Object, fn)
	case *Index:
		WalkExpr(v.Array, fn)
		WalkExpr(v.Index, fn)
	case *Cast:
		WalkExpr(v.Src, fn)
	}
}

// StmtExprs returns the expressions appearing directly in a statement.
func StmtExprs(s Stmt) []Expr {
	var exprs []Expr

	switch v := s.(type) {
	case *VarDecl:
		exprs = append(exprs, v.Init)
	case *ExprStmt:
		exprs = append(exprs, v.Expr)
	case *Return:
		exprs = append(exprs, v.Value)
	case *If:
		exprs = append(exprs, v.Cond)
	case *While:
		exprs = append(exprs, v.Cond)
	}

	// Optional expressions are left out.
	n := 0
	for _, e := range exprs {
		if e != nil {
			exprs[n] = e
			n++
		}
	}

	return exprs[:n]
}
