// Package irpass contains passes run over lowered units: a verifier for the
// single-definition discipline and a constant folder.
package irpass

import (
	"github.com/pkg/errors"

	"lc/ir"
)

// verifier checks the registers and labels of one unit in instruction order.
type verifier struct {
	ir.BaseVisitor

	unit *ir.Unit

	// defined holds every register defined so far.
	defined map[*ir.Register]struct{}

	// placed and targets hold the labels placed in the unit and the labels
	// jumped to.
	placed  map[string]*ir.Label
	targets []*ir.Label

	err error
}

// Verify checks that every register of unit is defined exactly once and before
// any of its uses, that label names are unique and that every jump targets a
// placed label.
func Verify(unit *ir.Unit) error {
	v := &verifier{
		unit:    unit,
		defined: make(map[*ir.Register]struct{}),
		placed:  make(map[string]*ir.Label),
	}

	for _, param := range unit.Params {
		v.define(param)
	}

	for _, instr := range unit.Instrs {
		if v.err != nil {
			break
		}

		for _, op := range instr.Uses() {
			v.use(op)
		}

		if def := instr.Def(); def != nil {
			v.define(def)
		}

		instr.Accept(v)
	}

	if v.err != nil {
		return v.err
	}

	for _, target := range v.targets {
		if placed, ok := v.placed[target.Name]; !ok || placed != target {
			return errors.Errorf("unit %s: jump to unplaced label @%s", unit.Name, target.Name)
		}
	}

	return nil
}

func (v *verifier) fail(format string, args ...interface{}) {
	if v.err == nil {
		v.err = errors.Errorf("unit %s: "+format, append([]interface{}{v.unit.Name}, args...)...)
	}
}

func (v *verifier) define(reg *ir.Register) {
	if _, ok := v.defined[reg]; ok {
		v.fail("register %s is defined more than once", reg.Repr())
		return
	}

	v.defined[reg] = struct{}{}
}

func (v *verifier) use(op ir.Operand) {
	if reg, ok := op.(*ir.Register); ok {
		if _, ok := v.defined[reg]; !ok {
			v.fail("register %s is used before its definition", reg.Repr())
		}
	}
}

func (v *verifier) VisitLabel(l *ir.Label) {
	if _, ok := v.placed[l.Name]; ok {
		v.fail("label @%s is placed more than once", l.Name)
		return
	}

	v.placed[l.Name] = l
}

func (v *verifier) VisitGoto(g *ir.Goto) {
	v.targets = append(v.targets, g.Dest)
}

func (v *verifier) VisitCondJump(cj *ir.CondJump) {
	v.targets = append(v.targets, cj.Then, cj.Else)
}
