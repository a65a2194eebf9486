package ir

import "lc/report"

// Invoke calls a unit by name.  Result is nil if the callee returns void.
type Invoke struct {
	Result     *Register
	Callee     string
	ReturnType Type
	Args       []Operand
}

// NewInvoke creates a new call to callee.  result must be nil exactly when
// returnType is void.
func NewInvoke(result *Register, callee string, returnType Type, args []Operand) (*Invoke, error) {
	if IsVoid(returnType) {
		if result != nil {
			return nil, report.NewTypeMismatch("result of "+callee, "void", result.Type().Repr())
		}
	} else if result == nil {
		return nil, report.NewTypeMismatch("result of "+callee, returnType.Repr(), "void")
	} else if err := checkType("result of "+callee, returnType, result.Type()); err != nil {
		return nil, err
	}

	return &Invoke{Result: result, Callee: callee, ReturnType: returnType, Args: args}, nil
}

func (inv *Invoke) Repr() string {
	ops := append([]string{"@" + inv.Callee}, reprs(inv.Args...)...)
	return render(inv.Result, false, "invoke", inv.ReturnType, ops...)
}

func (inv *Invoke) Accept(v Visitor) { v.VisitInvoke(inv) }
func (inv *Invoke) Def() *Register   { return inv.Result }
func (inv *Invoke) Uses() []Operand  { return inv.Args }
func (inv *Invoke) IsAtomic() bool   { return false }
func (inv *Invoke) instruction()     {}

// -----------------------------------------------------------------------------

// Label marks a jump target.  Label names are unique within a unit.
type Label struct {
	Name string
}

func (l *Label) Repr() string {
	return "@" + l.Name + ":"
}

func (l *Label) Accept(v Visitor) { v.VisitLabel(l) }
func (l *Label) Def() *Register   { return nil }
func (l *Label) Uses() []Operand  { return nil }
func (l *Label) IsAtomic() bool   { return false }
func (l *Label) instruction()     {}

// Goto jumps unconditionally to Dest.
type Goto struct {
	Dest *Label
}

func (g *Goto) Repr() string {
	return render(nil, false, "goto", nil, "@"+g.Dest.Name)
}

func (g *Goto) Accept(v Visitor) { v.VisitGoto(g) }
func (g *Goto) Def() *Register   { return nil }
func (g *Goto) Uses() []Operand  { return nil }
func (g *Goto) IsAtomic() bool   { return false }
func (g *Goto) instruction()     {}

// CondJump jumps to Then if Cond holds and to Else otherwise.
type CondJump struct {
	Cond       Operand
	Then, Else *Label
}

// NewCondJump creates a new conditional jump on cond.
func NewCondJump(cond Operand, then, els *Label) (*CondJump, error) {
	if err := checkType("condition", PrimBool, cond.Type()); err != nil {
		return nil, err
	}

	return &CondJump{Cond: cond, Then: then, Else: els}, nil
}

func (cj *CondJump) Repr() string {
	return render(nil, false, "cond_jump", PrimBool, cj.Cond.Repr(), "@"+cj.Then.Name, "@"+cj.Else.Name)
}

func (cj *CondJump) Accept(v Visitor) { v.VisitCondJump(cj) }
func (cj *CondJump) Def() *Register   { return nil }
func (cj *CondJump) Uses() []Operand  { return []Operand{cj.Cond} }
func (cj *CondJump) IsAtomic() bool   { return false }
func (cj *CondJump) instruction()     {}

// Return leaves the unit.  Value is nil for void returns.
type Return struct {
	Value Operand
}

func (r *Return) Repr() string {
	if r.Value == nil {
		return render(nil, false, "return", PrimVoid)
	}

	return render(nil, false, "return", r.Value.Type(), r.Value.Repr())
}

func (r *Return) Accept(v Visitor) { v.VisitReturn(r) }
func (r *Return) Def() *Register   { return nil }
func (r *Return) IsAtomic() bool   { return false }
func (r *Return) instruction()     {}

func (r *Return) Uses() []Operand {
	if r.Value == nil {
		return nil
	}

	return []Operand{r.Value}
}

// Nop does nothing.  It stands in for instructions removed by passes.
type Nop struct{}

func (n *Nop) Repr() string     { return "nop" }
func (n *Nop) Accept(v Visitor) { v.VisitNop(n) }
func (n *Nop) Def() *Register   { return nil }
func (n *Nop) Uses() []Operand  { return nil }
func (n *Nop) IsAtomic() bool   { return false }
func (n *Nop) instruction()     {}
