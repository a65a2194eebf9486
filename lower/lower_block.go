package lower

import (
	"errors"

	"lc/ast"
	"lc/depm"
	"lc/ir"
	"lc/report"
)

// errAbortUnit is thrown once the error abandoning a unit has been recorded to
// unwind the enclosing statements of the unit.
var errAbortUnit = errors.New("unit lowering aborted")

// guard runs fn at span, recording any error it throws.  It returns false if
// fn failed.  The scope and span are restored if fn fails.
func (l *Lowerer) guard(span *report.TextSpan, fn func()) (ok bool) {
	scope := l.scope
	prev := l.at(span)

	err := func() (err error) {
		defer report.CatchErrors(&err)
		fn()
		return nil
	}()

	l.scope = scope
	l.span = prev

	if err != nil {
		if err != errAbortUnit {
			l.errors.Add(err)
		}

		return false
	}

	return true
}

// lowerBlockStmts lowers the statements of block.  A statement referencing an
// undefined symbol is dropped when lowering continues on errors: the unit is
// then partial.  It returns false if any other error occurs in which case the
// unit must be abandoned.
func (l *Lowerer) lowerBlockStmts(block ast.BlockID) bool {
	for _, s := range l.file.Tree.Stmts(block) {
		if s.IsError() || hasErrorExpr(s) {
			continue
		}

		mark := len(l.unit.Instrs)
		nerrs := len(l.errors)

		if l.guard(s.Span(), func() { l.lowerStmt(s) }) {
			continue
		}

		if l.opts.ContinueOnError && len(l.errors) > nerrs && isRecoverable(l.errors[len(l.errors)-1]) {
			l.unit.Instrs = l.unit.Instrs[:mark]
			l.unit.Partial = true
			continue
		}

		return false
	}

	return true
}

// lowerNestedBlock lowers block in a new block scope.  The enclosing statement
// is aborted if the unit has to be abandoned.
func (l *Lowerer) lowerNestedBlock(block ast.BlockID) {
	l.pushScope(depm.BlockScope)

	if !l.lowerBlockStmts(block) {
		report.Throw(errAbortUnit)
	}

	l.popScope()
}

// isRecoverable returns whether lowering of a unit can continue past err.
func isRecoverable(err error) bool {
	var ure *report.UnresolvedReferenceError
	return errors.As(err, &ure)
}

// hasErrorExpr returns whether any expression of s was flagged by the parser.
func hasErrorExpr(s ast.Stmt) bool {
	found := false

	for _, e := range ast.StmtExprs(s) {
		ast.WalkExpr(e, func(e ast.Expr) bool {
			if e.IsError() {
				found = true
			}

			return !found
		})
	}

	return found
}

// -----------------------------------------------------------------------------

// lowerIf lowers an if statement:
//
//	cond_jump bool%c, @then, @else
//	@then: ... goto @end
//	@else: ... goto @end
//	@end:
func (l *Lowerer) lowerIf(ifs *ast.If) {
	cond := l.lowerCond(ifs.Cond)

	then := l.unit.NewLabel("then")
	end := l.unit.NewLabel("end")
	els := end
	if ifs.Else.IsValid() {
		els = l.unit.NewLabel("else")
	}

	l.emit(ir.NewCondJump(cond, then, els))

	l.unit.Append(then)
	l.lowerNestedBlock(ifs.Then)
	l.jumpTo(end)

	if ifs.Else.IsValid() {
		l.unit.Append(els)
		l.lowerNestedBlock(ifs.Else)
		l.jumpTo(end)
	}

	l.unit.Append(end)
}

// lowerWhile lowers a while loop:
//
//	goto @loop
//	@loop: cond_jump bool%c, @body, @end
//	@body: ... goto @loop
//	@end:
func (l *Lowerer) lowerWhile(ws *ast.While) {
	loop := l.unit.NewLabel("loop")
	body := l.unit.NewLabel("body")
	end := l.unit.NewLabel("end")

	l.unit.Append(&ir.Goto{Dest: loop}, loop)

	cond := l.lowerCond(ws.Cond)
	l.emit(ir.NewCondJump(cond, body, end))

	l.unit.Append(body)
	l.lowerNestedBlock(ws.Body)
	l.jumpTo(loop)

	l.unit.Append(end)
}

// jumpTo jumps to dest unless the current block has already been left.
func (l *Lowerer) jumpTo(dest *ir.Label) {
	if !l.unit.Terminated() {
		l.unit.Append(&ir.Goto{Dest: dest})
	}
}

// lowerCond lowers the condition of a branch which must be a boolean.
func (l *Lowerer) lowerCond(expr ast.Expr) ir.Operand {
	cond := l.lowerValue(expr, ir.PrimBool)

	if !ir.IsBool(cond.Type()) {
		l.throw(report.NewTypeMismatch("condition", ir.PrimBool.Repr(), cond.Type().Repr()))
	}

	return cond
}
