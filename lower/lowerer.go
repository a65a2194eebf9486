// Package lower converts resolved source files into IR bundles.
package lower

import (
	"fmt"

	"lc/ast"
	"lc/depm"
	"lc/ir"
	"lc/report"
)

// Options controls how lowering recovers from errors.
type Options struct {
	// ContinueOnError makes lowering skip statements referencing undefined
	// symbols instead of abandoning the unit.  Units with skipped statements
	// are marked partial.
	ContinueOnError bool
}

// Lowerer is the construct responsible for converting a source file into IR.
type Lowerer struct {
	file   *depm.SourceFile
	opts   Options
	bundle *ir.Bundle

	// errors is the list of errors encountered while lowering.
	errors report.ErrorList

	// unit is the unit being lowered.
	unit *ir.Unit

	// scope is the innermost scope of the body being lowered.
	scope *depm.Scope

	// slots maps local variables and parameters to their stack slots.
	slots map[*depm.Symbol]*ir.Register

	// span is the span of the node being lowered: it is attached to errors
	// produced while constructing instructions.
	span *report.TextSpan

	// globals maps the variables of the file body to their storage.
	globals map[*ast.VarDecl]*ir.Global

	// layouts caches the field layouts of objects by full name.  A nil entry
	// marks a layout that could not be computed.
	layouts map[string]*objectLayout

	// named lists the objects whose layout the bundle must define in the
	// order they were first referenced.  origins maps them to the file
	// declaring them.
	named   []string
	origins map[string]*depm.SourceFile

	// object is the object whose member unit is being lowered and this is the
	// receiver parameter of that unit.  thisSym binds the receiver.
	object  *ast.ObjectDecl
	this    *ir.Register
	thisSym *depm.Symbol

	// declBody is the declaration body of the init unit being lowered:
	// variables declared directly in it are globals or fields.
	declBody ast.BlockID
}

// LowerFile lowers a resolved and linked source file.  Every unit of the file
// is lowered even if an earlier unit fails: units that fail are left out of the
// bundle and the errors are returned alongside it.  Files with unresolved
// proxies are not lowered at all.
func LowerFile(file *depm.SourceFile, opts Options) (*ir.Bundle, error) {
	if file.Scope == nil {
		return nil, fmt.Errorf("file `%s` must be resolved before it is lowered", file.Filename)
	}

	if unresolved := file.UnresolvedProxies(); len(unresolved) > 0 {
		var errs report.ErrorList
		for _, p := range unresolved {
			errs.Add(report.NewUnresolvedProxy(file.Filename, p.Import.Span(), p.Import.Path, "proxy was not linked"))
		}

		return nil, errs
	}

	l := &Lowerer{
		file:     file,
		opts:     opts,
		bundle:   ir.NewBundle(file.Filename),
		globals:  make(map[*ast.VarDecl]*ir.Global),
		layouts:  make(map[string]*objectLayout),
		origins:  make(map[string]*depm.SourceFile),
		declBody: ast.NoBlock,
	}

	for _, od := range file.ObjectDecls() {
		if _, ok := file.MemberScope(od); ok {
			l.reference(file.FullName(od), file)
		}
	}

	l.declareGlobals()
	l.lowerFileBody()
	l.layoutTypes()

	return l.bundle, l.errors.Err()
}

// -----------------------------------------------------------------------------

// initSuffix is appended to the name of a declaration to name the unit holding
// its executable statements.
const initSuffix = "<init>"

// lowerFileBody lowers the executable statements of the file body followed by
// the units of every declaration of the file in document order.
func (l *Lowerer) lowerFileBody() {
	name := initSuffix
	if l.file.PackageName != "" {
		name = l.file.PackageName + "." + initSuffix
	}

	l.lowerInitUnit(name, l.file.Body(), l.file.Scope, nil)
	l.lowerDecls(l.file.Body(), l.file.Scope, nil)
}

// declareGlobals gives every variable of the file body a global.  Globals
// start out zeroed: the file init unit stores their initializers.
func (l *Lowerer) declareGlobals() {
	for _, s := range l.file.Tree.Stmts(l.file.Body()) {
		vd, ok := s.(*ast.VarDecl)
		if !ok || vd.IsError() {
			continue
		}

		if sym, ok := l.file.Scope.LookupLocal(vd.Name); !ok || sym.Decl != ast.Stmt(vd) {
			continue
		}

		l.guard(vd.Span(), func() {
			g := ir.NewGlobal(l.file.FullName(vd), l.staticType(l.file, l.file.Scope, vd))
			l.globals[vd] = g
			l.bundle.Globals = append(l.bundle.Globals, g)
		})
	}
}

// layoutTypes defines the layout of every object the bundle refers to.
// Laying out an object may refer to more objects.
func (l *Lowerer) layoutTypes() {
	for i := 0; i < len(l.named); i++ {
		name := l.named[i]

		l.guard(nil, func() {
			lay := l.layoutOf(name)
			l.bundle.Types = append(l.bundle.Types, &ir.TypeDef{Name: name, Layout: lay.typ})
		})
	}
}

// reference records that the bundle refers to the object named name declared
// in file.
func (l *Lowerer) reference(name string, file *depm.SourceFile) {
	if _, ok := l.origins[name]; !ok {
		l.origins[name] = file
		l.named = append(l.named, name)
	}
}

// beginUnit makes a new unit the current unit.
func (l *Lowerer) beginUnit(name string, returnType ir.Type, scope *depm.Scope) {
	l.unit = ir.NewUnit(name, returnType)
	l.scope = scope
	l.slots = make(map[*depm.Symbol]*ir.Register)
}

// endUnit completes the current unit and adds it to the bundle if it could be
// lowered.
func (l *Lowerer) endUnit(ok bool) {
	if ok {
		if !l.unit.Terminated() && ir.IsVoid(l.unit.ReturnType) {
			l.unit.Append(&ir.Return{})
		}

		l.bundle.Units = append(l.bundle.Units, l.unit)
	}

	l.unit = nil
	l.scope = nil
	l.slots = nil
	l.object = nil
	l.this = nil
	l.thisSym = nil
	l.declBody = ast.NoBlock
}

// pushScope pushes a new local scope.
func (l *Lowerer) pushScope(kind depm.ScopeKind) {
	l.scope = depm.NewScope(kind, l.scope)
}

// popScope pops the innermost local scope.
func (l *Lowerer) popScope() {
	l.scope = l.scope.Parent()
}

// -----------------------------------------------------------------------------

// emit appends an instruction built by a checked constructor to the current
// unit.  A construction error aborts the statement being lowered.
func (l *Lowerer) emit(instr ir.Instruction, err error) {
	if err != nil {
		l.throw(err)
	}

	l.unit.Append(instr)
}

// throw aborts the statement being lowered with err.  The error is located at
// the node being lowered if it carries no position of its own.
func (l *Lowerer) throw(err error) {
	if ce, ok := report.AsCompileError(err); ok {
		ce.SetFile(l.file.Filename)

		if ce.Span == nil {
			ce.Span = l.span
		}
	}

	report.Throw(err)
}

// at sets the span of the node being lowered and returns the previous span.
func (l *Lowerer) at(span *report.TextSpan) *report.TextSpan {
	prev := l.span
	l.span = span
	return prev
}
