package ast

import "lc/report"

// ObjectKind is the kind of an object declaration.  Must be one of the
// enumerated object kinds.
type ObjectKind int

// Enumeration of object kinds.
const (
	ObjectClass ObjectKind = iota
	ObjectInterface
	ObjectEnum
	ObjectRecord
	ObjectAnnotation
)

var objectKindNames = []string{
	"class",
	"interface",
	"enum",
	"record",
	"annotation",
}

func (ok ObjectKind) String() string {
	if 0 <= ok && int(ok) < len(objectKindNames) {
		return objectKindNames[ok]
	}

	return "object"
}

// ObjectKindFromName converts a keyword into an object kind.
func ObjectKindFromName(name string) (ObjectKind, bool) {
	for i, n := range objectKindNames {
		if n == name {
			return ObjectKind(i), true
		}
	}

	return ObjectClass, false
}

// ObjectDecl is a named, self-similar declaration whose body may contain
// further object declarations.  Its qualified name is not stored: it is derived
// from the chain of enclosing declarations (see Tree.Path).
type ObjectDecl struct {
	StmtBase

	Name string
	Kind ObjectKind

	// Body is the block of member statements.
	Body BlockID
}

// FuncDecl declares a function or method.
type FuncDecl struct {
	StmtBase

	Name       string
	Params     []Param
	ReturnType TypeRef

	Body BlockID
}

// Param is a single function parameter.
type Param struct {
	Name string
	Type TypeRef
	Span *report.TextSpan
}
