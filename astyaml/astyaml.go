// Package astyaml decodes YAML descriptions of source files into syntax trees.
// It stands in for a parser in tests and debugging tools: the YAML mirrors the
// tree shape directly and is not a grammar for the language.
//
// A file is described as:
//
//	file: geo.l
//	package: geo
//	body:
//	  - import: other.Shape
//	    as: S
//	  - object: Shape
//	    kind: class
//	    body:
//	      - var: sides
//	        init: 4
//	  - func: area
//	    params: [{name: w, type: i32}, {name: h, type: i32}]
//	    returns: i32
//	    body:
//	      - return: {binary: "*", lhs: w, rhs: h}
//
// Every node accepts `span: [line, col]` (one-indexed) and `error: true`.
package astyaml

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"lc/ast"
	"lc/depm"
	"lc/report"
)

type fileDoc struct {
	File    string    `yaml:"file"`
	Package string    `yaml:"package"`
	Span    spanDoc   `yaml:"span,omitempty"`
	Error   bool      `yaml:"error,omitempty"`
	Body    []stmtDoc `yaml:"body"`
}

// spanDoc is a one-indexed `[line, col]` or `[line, col, endLine, endCol]`.
type spanDoc []int

func (sd spanDoc) span() (*report.TextSpan, error) {
	switch len(sd) {
	case 0:
		return nil, nil
	case 2:
		return &report.TextSpan{StartLine: sd[0] - 1, StartCol: sd[1] - 1, EndLine: sd[0] - 1, EndCol: sd[1] - 1}, nil
	case 4:
		return &report.TextSpan{StartLine: sd[0] - 1, StartCol: sd[1] - 1, EndLine: sd[2] - 1, EndCol: sd[3] - 1}, nil
	default:
		return nil, errors.Errorf("span must have 2 or 4 elements, got %d", len(sd))
	}
}

type paramDoc struct {
	Name string  `yaml:"name"`
	Type string  `yaml:"type"`
	Span spanDoc `yaml:"span,omitempty"`
}

type stmtDoc struct {
	Import *string `yaml:"import"`
	As     string  `yaml:"as"`

	Object *string `yaml:"object"`
	Kind   string  `yaml:"kind"`

	Func    *string    `yaml:"func"`
	Params  []paramDoc `yaml:"params"`
	Returns string     `yaml:"returns"`

	Var  *string  `yaml:"var"`
	Type string   `yaml:"type"`
	Init *exprDoc `yaml:"init"`

	Expr *exprDoc `yaml:"expr"`

	// Return is a node rather than an expression so that a bare `return: ~`
	// can be told apart from a missing key.
	Return yaml.Node `yaml:"return"`

	If   *exprDoc  `yaml:"if"`
	Then []stmtDoc `yaml:"then"`
	Else []stmtDoc `yaml:"else"`

	While *exprDoc  `yaml:"while"`
	Body  []stmtDoc `yaml:"body"`

	Block []stmtDoc `yaml:"block"`

	Span  spanDoc `yaml:"span,omitempty"`
	Error bool    `yaml:"error,omitempty"`
}

// -----------------------------------------------------------------------------

// Decode decodes a YAML source file description.  Unknown keys are rejected.
func Decode(data []byte) (*depm.SourceFile, error) {
	var doc fileDoc
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse source description")
	}

	if doc.File == "" {
		return nil, errors.New("source description is missing `file`")
	}

	span, err := doc.Span.span()
	if err != nil {
		return nil, errors.Wrap(err, doc.File)
	}

	sf := depm.NewSourceFile(doc.File, doc.Package, span)
	sf.IsError = doc.Error

	b := builder{tree: sf.Tree}
	if err := b.block(sf.Body(), doc.Body); err != nil {
		return nil, errors.Wrap(err, doc.File)
	}

	return sf, nil
}

// DecodeFile decodes the YAML source file description at path.
func DecodeFile(path string) (*depm.SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read `%s`", path)
	}

	return Decode(data)
}

// -----------------------------------------------------------------------------

// builder adds decoded statements to a tree.
type builder struct {
	tree *ast.Tree
}

func (b *builder) block(parent ast.BlockID, docs []stmtDoc) error {
	for i := range docs {
		if err := b.stmt(parent, &docs[i]); err != nil {
			return errors.Wrapf(err, "statement %d", i+1)
		}
	}

	return nil
}

// kinds returns the names of the statement kinds set in sd.
func (sd *stmtDoc) kinds() []string {
	var kinds []string

	add := func(set bool, name string) {
		if set {
			kinds = append(kinds, name)
		}
	}

	add(sd.Import != nil, "import")
	add(sd.Object != nil, "object")
	add(sd.Func != nil, "func")
	add(sd.Var != nil, "var")
	add(sd.Expr != nil, "expr")
	add(sd.Return.Kind != 0, "return")
	add(sd.If != nil, "if")
	add(sd.While != nil, "while")
	add(sd.Block != nil, "block")

	return kinds
}

func (b *builder) stmt(parent ast.BlockID, sd *stmtDoc) error {
	span, err := sd.Span.span()
	if err != nil {
		return err
	}

	kinds := sd.kinds()
	if len(kinds) > 1 {
		return errors.Errorf("statement has several kinds: %v", kinds)
	} else if len(kinds) == 0 {
		if !sd.Error {
			return errors.New("statement has no kind")
		}

		// a statement the parser could not make sense of at all
		es := b.tree.AddExprStmt(parent, nil, span)
		es.MarkError()
		return nil
	}

	var s ast.Stmt
	switch kinds[0] {
	case "import":
		s = b.tree.AddImport(parent, *sd.Import, sd.As, span)
	case "object":
		kind := ast.ObjectClass
		if sd.Kind != "" {
			var ok bool
			if kind, ok = ast.ObjectKindFromName(sd.Kind); !ok {
				return errors.Errorf("unknown object kind `%s`", sd.Kind)
			}
		}

		od := b.tree.AddObjectDecl(parent, *sd.Object, kind, span)
		if err := b.block(od.Body, sd.Body); err != nil {
			return err
		}

		s = od
	case "func":
		params := make([]ast.Param, len(sd.Params))
		for i, pd := range sd.Params {
			pspan, err := pd.Span.span()
			if err != nil {
				return err
			}

			params[i] = ast.Param{Name: pd.Name, Type: ast.TypeRef{Name: pd.Type, Span: pspan}, Span: pspan}
		}

		fd := b.tree.AddFuncDecl(parent, *sd.Func, params, ast.TypeRef{Name: sd.Returns, Span: span}, span)
		if err := b.block(fd.Body, sd.Body); err != nil {
			return err
		}

		s = fd
	case "var":
		s = b.tree.AddVarDecl(parent, *sd.Var, ast.TypeRef{Name: sd.Type, Span: span}, sd.Init.get(), span)
	case "expr":
		s = b.tree.AddExprStmt(parent, sd.Expr.get(), span)
	case "return":
		var value *exprDoc
		if sd.Return.Tag != "!!null" {
			value = &exprDoc{}
			if err := sd.Return.Decode(value); err != nil {
				return err
			}
		}

		s = b.tree.AddReturn(parent, value.get(), span)
	case "if":
		ifs := b.tree.AddIf(parent, sd.If.get(), sd.Else != nil, span)
		if err := b.block(ifs.Then, sd.Then); err != nil {
			return err
		}

		if sd.Else != nil {
			if err := b.block(ifs.Else, sd.Else); err != nil {
				return err
			}
		}

		s = ifs
	case "while":
		ws := b.tree.AddWhile(parent, sd.While.get(), span)
		if err := b.block(ws.Body, sd.Body); err != nil {
			return err
		}

		s = ws
	case "block":
		bs := b.tree.AddBlockStmt(parent, span)
		if err := b.block(bs.Body, sd.Block); err != nil {
			return err
		}

		s = bs
	}

	if sd.Error {
		markError(s)
	}

	return nil
}

// markError flags any node as erroneous.
func markError(n ast.Node) {
	if m, ok := n.(interface{ MarkError() }); ok {
		m.MarkError()
	}
}
