package astyaml

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"lc/ast"
)

// exprDoc decodes an expression.  Scalars are shorthands: integers, floats and
// booleans are literals and strings are identifiers.  Mappings name their kind
// with one of the keys of exprFields.  Member accesses and indices name the
// accessed expression with `of`.
type exprDoc struct {
	expr ast.Expr
}

// get returns the decoded expression or nil if ed is nil.
func (ed *exprDoc) get() ast.Expr {
	if ed == nil {
		return nil
	}

	return ed.expr
}

type exprFields struct {
	Ident *string  `yaml:"ident"`
	Int   *int64   `yaml:"int"`
	Float *float64 `yaml:"float"`
	Bool  *bool    `yaml:"bool"`
	Type  string   `yaml:"type"`

	Unary   string   `yaml:"unary"`
	Operand *exprDoc `yaml:"operand"`

	Binary string   `yaml:"binary"`
	Lhs    *exprDoc `yaml:"lhs"`
	Rhs    *exprDoc `yaml:"rhs"`

	Assign *exprDoc `yaml:"assign"`
	Value  *exprDoc `yaml:"value"`

	Call *string   `yaml:"call"`
	Recv *exprDoc  `yaml:"recv"`
	Args []exprDoc `yaml:"args"`

	Member *string  `yaml:"member"`
	Index  *exprDoc `yaml:"index"`
	Of     *exprDoc `yaml:"of"`

	Cast string `yaml:"cast"`

	Atomic bool    `yaml:"atomic"`
	Span   spanDoc `yaml:"span"`
	Error  bool    `yaml:"error"`
}

var unaryOpNames = map[string]ast.UnaryOp{
	"neg":     ast.OpNeg,
	"not":     ast.OpNot,
	"preinc":  ast.OpPreInc,
	"predec":  ast.OpPreDec,
	"postinc": ast.OpPostInc,
	"postdec": ast.OpPostDec,
}

func (ed *exprDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return ed.scalar(node)
	}

	var ef exprFields
	if err := node.Decode(&ef); err != nil {
		return err
	}

	span, err := ef.Span.span()
	if err != nil {
		return err
	}

	switch {
	case ef.Ident != nil:
		ed.expr = ast.NewIdent(*ef.Ident, span)
	case ef.Int != nil:
		ed.expr = ast.NewIntLit(*ef.Int, ef.Type, span)
	case ef.Float != nil:
		ed.expr = ast.NewFloatLit(*ef.Float, ef.Type, span)
	case ef.Bool != nil:
		ed.expr = ast.NewBoolLit(*ef.Bool, span)
	case ef.Unary != "":
		op, ok := unaryOpNames[ef.Unary]
		if !ok {
			return errors.Errorf("line %d: unknown unary operator `%s`", node.Line, ef.Unary)
		}

		ed.expr = ast.NewUnary(op, ef.Operand.get(), ef.Atomic, span)
	case ef.Binary != "":
		op, ok := ast.BinaryOpFromName(ef.Binary)
		if !ok {
			return errors.Errorf("line %d: unknown binary operator `%s`", node.Line, ef.Binary)
		}

		ed.expr = ast.NewBinary(op, ef.Lhs.get(), ef.Rhs.get(), ef.Atomic, span)
	case ef.Assign != nil:
		ed.expr = ast.NewAssign(ef.Assign.get(), ef.Value.get(), ef.Atomic, span)
	case ef.Call != nil:
		args := make([]ast.Expr, len(ef.Args))
		for i := range ef.Args {
			args[i] = ef.Args[i].expr
		}

		ed.expr = ast.NewMethodCall(ef.Recv.get(), ast.NewIdent(*ef.Call, span), args, span)
	case ef.Member != nil:
		if ef.Of == nil {
			return errors.Errorf("line %d: member access has no object", node.Line)
		}

		ed.expr = ast.NewMemberAccess(ef.Of.get(), *ef.Member, span)
	case ef.Index != nil:
		if ef.Of == nil {
			return errors.Errorf("line %d: index has no array", node.Line)
		}

		ed.expr = ast.NewIndex(ef.Of.get(), ef.Index.get(), span)
	case ef.Cast != "":
		ed.expr = ast.NewCast(ef.Cast, ef.Value.get(), span)
	case ef.Error:
		// an expression the parser gave up on
		ed.expr = ast.NewIdent("", span)
	default:
		return errors.Errorf("line %d: expression has no kind", node.Line)
	}

	if ef.Error {
		markError(ed.expr)
	}

	return nil
}

func (ed *exprDoc) scalar(node *yaml.Node) error {
	switch node.Tag {
	case "!!int":
		var v int64
		if err := node.Decode(&v); err != nil {
			return err
		}

		ed.expr = ast.NewIntLit(v, "", nil)
	case "!!float":
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}

		ed.expr = ast.NewFloatLit(v, "", nil)
	case "!!bool":
		var v bool
		if err := node.Decode(&v); err != nil {
			return err
		}

		ed.expr = ast.NewBoolLit(v, nil)
	case "!!str":
		ed.expr = ast.NewIdent(node.Value, nil)
	default:
		return errors.Errorf("line %d: unexpected %s expression", node.Line, node.Tag)
	}

	return nil
}
