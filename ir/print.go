package ir

import (
	"strings"
)

// printer renders units in their canonical textual form.
type printer struct {
	sb strings.Builder
}

func (p *printer) instr(instr Instruction) {
	p.sb.WriteString("  ")
	p.sb.WriteString(instr.Repr())
	p.sb.WriteRune('\n')
}

func (p *printer) VisitNegate(n *Negate)          { p.instr(n) }
func (p *printer) VisitNot(n *Not)                { p.instr(n) }
func (p *printer) VisitIncrease(inc *Increase)    { p.instr(inc) }
func (p *printer) VisitDecrease(dec *Decrease)    { p.instr(dec) }
func (p *printer) VisitCalculate(c *Calculate)    { p.instr(c) }
func (p *printer) VisitCompare(c *Compare)        { p.instr(c) }
func (p *printer) VisitStackAlloc(sa *StackAlloc) { p.instr(sa) }
func (p *printer) VisitLoad(l *Load)              { p.instr(l) }
func (p *printer) VisitStore(s *Store)            { p.instr(s) }
func (p *printer) VisitElemPtr(ep *ElemPtr)       { p.instr(ep) }
func (p *printer) VisitCast(c *Cast)              { p.instr(c) }
func (p *printer) VisitInvoke(inv *Invoke)        { p.instr(inv) }
func (p *printer) VisitGoto(g *Goto)              { p.instr(g) }
func (p *printer) VisitCondJump(cj *CondJump)     { p.instr(cj) }
func (p *printer) VisitReturn(r *Return)          { p.instr(r) }
func (p *printer) VisitNop(n *Nop)                { p.instr(n) }

// labels are not indented
func (p *printer) VisitLabel(l *Label) {
	p.sb.WriteString(l.Repr())
	p.sb.WriteRune('\n')
}

func (p *printer) header(u *Unit) {
	p.sb.WriteString("unit @")
	p.sb.WriteString(u.Name)
	p.sb.WriteRune('(')

	for i, param := range u.Params {
		if i > 0 {
			p.sb.WriteString(", ")
		}

		p.sb.WriteString(param.Type().Repr())
		p.sb.WriteString(param.Repr())
	}

	p.sb.WriteString(") ")
	p.sb.WriteString(u.ReturnType.Repr())

	if u.Partial {
		p.sb.WriteString(" partial")
	}

	p.sb.WriteString(":\n")
}

func (p *printer) unit(u *Unit) {
	p.header(u)
	Walk(u, p)
}

// PrintUnit returns the canonical textual form of a unit.
func PrintUnit(u *Unit) string {
	p := &printer{}
	p.unit(u)
	return p.sb.String()
}

// Print returns the canonical textual form of a bundle: its type definitions
// and globals, one per line, followed by its units separated by blank lines.
func Print(b *Bundle) string {
	p := &printer{}

	for _, td := range b.Types {
		p.sb.WriteString(td.Repr())
		p.sb.WriteRune('\n')
	}

	for _, g := range b.Globals {
		p.sb.WriteString("global ")
		p.sb.WriteString(g.ElemType.Repr())
		p.sb.WriteString(g.Repr())
		p.sb.WriteRune('\n')
	}

	for i, u := range b.Units {
		if i > 0 || len(b.Types) > 0 || len(b.Globals) > 0 {
			p.sb.WriteRune('\n')
		}

		p.unit(u)
	}

	return p.sb.String()
}
