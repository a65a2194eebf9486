package depm

import (
	"sort"

	"golang.org/x/text/unicode/norm"

	"lc/report"
)

// ScopeKind is the kind of a lexical scope.  Must be one of the enumerated
// scope kinds.
type ScopeKind int

// Enumeration of scope kinds.
const (
	UniverseScope ScopeKind = iota
	FileScope
	ObjectScope
	FunctionScope
	BlockScope
)

var scopeKindNames = []string{"universe", "file", "object", "function", "block"}

func (sk ScopeKind) String() string {
	return scopeKindNames[sk]
}

// Scope maps identifiers to symbols.  Lookups that miss locally continue in the
// parent scope.  Identifiers are normalized to NFC so that canonically
// equivalent spellings name the same symbol.
type Scope struct {
	Kind ScopeKind

	parent  *Scope
	symbols map[string]*Symbol
}

// NewScope creates a new empty scope enclosed by parent (which may be nil).
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{
		Kind:    kind,
		parent:  parent,
		symbols: make(map[string]*Symbol),
	}
}

// Parent returns the enclosing scope or nil for the outermost scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Bind binds sym in this scope.  It fails if the name is already bound in this
// scope: shadowing a binding of an enclosing scope is legal.  The returned
// error does not carry a file name: callers attach it with SetFile.
func (s *Scope) Bind(sym *Symbol) error {
	sym.Name = Normalize(sym.Name)

	if prev, ok := s.symbols[sym.Name]; ok {
		return report.NewDuplicateBinding("", sym.DefSpan, sym.Name, prev.DefSpan)
	}

	s.symbols[sym.Name] = sym
	return nil
}

// Lookup looks up name in this scope and then in every enclosing scope.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	name = Normalize(name)

	for scope := s; scope != nil; scope = scope.parent {
		if sym, ok := scope.symbols[name]; ok {
			return sym, true
		}
	}

	return nil, false
}

// LookupLocal looks up name in this scope only.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.symbols[Normalize(name)]
	return sym, ok
}

// Names returns the names bound directly in this scope in sorted order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Normalize returns the NFC form of an identifier.
func Normalize(name string) string {
	if norm.NFC.IsNormalString(name) {
		return name
	}

	return norm.NFC.String(name)
}
