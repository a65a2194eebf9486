package report

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a compile error.  Must be one of the enumerated kinds.
type Kind int

// Enumeration of compile error kinds.
const (
	KindParseError Kind = iota
	KindDuplicateBinding
	KindUnresolvedReference
	KindUnresolvedProxy
	KindTypeMismatch
	KindNotFound
)

// kindTitles is the table of display titles used in diagnostic banners.
var kindTitles = []string{
	"Syntax",
	"Definition",
	"Name",
	"Import",
	"Type",
	"Lookup",
}

func (k Kind) String() string {
	if 0 <= k && int(k) < len(kindTitles) {
		return kindTitles[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// -----------------------------------------------------------------------------

// CompileError is the common part of all errors produced by the compiler core.
// Every compile error carries the file and span of the originating node so it
// can be displayed without further context.
type CompileError struct {
	Kind Kind

	// File is the file name of the erroneous source file.  It may be empty if
	// the error was produced outside of any file (eg. by an IR constructor).
	File string

	// Span may be nil in which case no position information is displayed.
	Span *TextSpan

	Message string
}

func (ce *CompileError) Error() string {
	pos := ce.Span.Position()

	switch {
	case ce.File != "" && pos.Known():
		return fmt.Sprintf("%s:%s: %s", ce.File, pos, ce.Message)
	case ce.File != "":
		return fmt.Sprintf("%s: %s", ce.File, ce.Message)
	case pos.Known():
		return fmt.Sprintf("%s: %s", pos, ce.Message)
	default:
		return ce.Message
	}
}

// Fatal indicates whether the error fails the compilation of its unit.  Parse
// error nodes are inherited from the parser and only propagated.
func (ce *CompileError) Fatal() bool {
	return ce.Kind != KindParseError
}

// Base returns the common compile error data.
func (ce *CompileError) Base() *CompileError {
	return ce
}

// SetFile attaches a file name to an error created without one.
func (ce *CompileError) SetFile(file string) {
	if ce.File == "" {
		ce.File = file
	}
}

// -----------------------------------------------------------------------------

// ParseErrorNode is the diagnostic produced for a node that the parser flagged
// as erroneous.  It is never raised by the core itself: it only describes the
// skipped subtree.
type ParseErrorNode struct {
	CompileError
}

// NewParseErrorNode creates a diagnostic for an error-flagged node.
func NewParseErrorNode(file string, span *TextSpan, what string) *ParseErrorNode {
	return &ParseErrorNode{CompileError{
		Kind:    KindParseError,
		File:    file,
		Span:    span,
		Message: fmt.Sprintf("skipped erroneous %s", what),
	}}
}

// DuplicateBindingError is raised when a name is bound twice in one scope.
type DuplicateBindingError struct {
	CompileError

	Name string

	// Previous is the span of the existing binding if known.
	Previous *TextSpan
}

// NewDuplicateBinding creates a new duplicate binding error.
func NewDuplicateBinding(file string, span *TextSpan, name string, prev *TextSpan) *DuplicateBindingError {
	msg := fmt.Sprintf("symbol `%s` is already defined in this scope", name)
	if pos := prev.Position(); pos.Known() {
		msg += fmt.Sprintf(" (previous definition at %s)", pos)
	}

	return &DuplicateBindingError{
		CompileError: CompileError{Kind: KindDuplicateBinding, File: file, Span: span, Message: msg},
		Name:         name,
		Previous:     prev,
	}
}

// UnresolvedReferenceError is raised when an identifier used during lowering
// cannot be found in any enclosing scope.
type UnresolvedReferenceError struct {
	CompileError

	Name string
}

// NewUnresolvedReference creates a new unresolved reference error.
func NewUnresolvedReference(file string, span *TextSpan, name string) *UnresolvedReferenceError {
	return &UnresolvedReferenceError{
		CompileError: CompileError{
			Kind:    KindUnresolvedReference,
			File:    file,
			Span:    span,
			Message: fmt.Sprintf("undefined symbol: `%s`", name),
		},
		Name: name,
	}
}

// UnresolvedProxyError is raised when an imported declaration cannot be linked
// to exactly one origin declaration.
type UnresolvedProxyError struct {
	CompileError

	Path string
}

// NewUnresolvedProxy creates a new unresolved proxy error.  The reason is
// appended to the message.
func NewUnresolvedProxy(file string, span *TextSpan, path, reason string) *UnresolvedProxyError {
	return &UnresolvedProxyError{
		CompileError: CompileError{
			Kind:    KindUnresolvedProxy,
			File:    file,
			Span:    span,
			Message: fmt.Sprintf("unable to import `%s`: %s", path, reason),
		},
		Path: path,
	}
}

// TypeMismatchError is raised when an IR instruction is constructed with
// operand or result types inconsistent with its declared type.
type TypeMismatchError struct {
	CompileError

	Expected, Found string
}

// NewTypeMismatch creates a new type mismatch error.  The context names the
// mismatching part of the construct: eg. "operand of negate".
func NewTypeMismatch(context, expected, found string) *TypeMismatchError {
	return &TypeMismatchError{
		CompileError: CompileError{
			Kind:    KindTypeMismatch,
			Message: fmt.Sprintf("type mismatch in %s: expected `%s` but found `%s`", context, expected, found),
		},
		Expected: expected,
		Found:    found,
	}
}

// NotFoundError is returned by lookups that are required to find a match.
type NotFoundError struct {
	CompileError

	Name string
}

// NewNotFound creates a new not found error.  The what argument describes the
// kind of item that was looked for.
func NewNotFound(file, what, name string) *NotFoundError {
	return &NotFoundError{
		CompileError: CompileError{
			Kind:    KindNotFound,
			File:    file,
			Message: fmt.Sprintf("no %s named `%s`", what, name),
		},
		Name: name,
	}
}

// -----------------------------------------------------------------------------

// IsFatal returns whether err contains a fatal compile error.  Errors that are
// not compile errors are always considered fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var el ErrorList
	if errors.As(err, &el) {
		for _, e := range el {
			if IsFatal(e) {
				return true
			}
		}

		return false
	}

	var fe interface{ Fatal() bool }
	if errors.As(err, &fe) {
		return fe.Fatal()
	}

	return true
}

// AsCompileError extracts the compile error data from err if possible.
func AsCompileError(err error) (*CompileError, bool) {
	var be interface{ Base() *CompileError }
	if errors.As(err, &be) {
		return be.Base(), true
	}

	return nil, false
}

// -----------------------------------------------------------------------------

// ErrorList is an ordered collection of errors produced by one phase.
type ErrorList []error

// Add appends err to the list if it is not nil.  Nested error lists are
// flattened.
func (el *ErrorList) Add(err error) {
	if err == nil {
		return
	}

	if nested, ok := err.(ErrorList); ok {
		*el = append(*el, nested...)
	} else {
		*el = append(*el, err)
	}
}

// Err returns the list as an error or nil if the list is empty.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}

	return el
}

func (el ErrorList) Error() string {
	msgs := make([]string, len(el))
	for i, err := range el {
		msgs[i] = err.Error()
	}

	return strings.Join(msgs, "\n")
}

func (el ErrorList) Unwrap() []error {
	return el
}
