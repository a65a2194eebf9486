package ir

// Visitor has one method per instruction variant.  Instructions dispatch to it
// through Accept.
type Visitor interface {
	VisitNegate(*Negate)
	VisitNot(*Not)
	VisitIncrease(*Increase)
	VisitDecrease(*Decrease)
	VisitCalculate(*Calculate)
	VisitCompare(*Compare)
	VisitStackAlloc(*StackAlloc)
	VisitLoad(*Load)
	VisitStore(*Store)
	VisitElemPtr(*ElemPtr)
	VisitCast(*Cast)
	VisitInvoke(*Invoke)
	VisitLabel(*Label)
	VisitGoto(*Goto)
	VisitCondJump(*CondJump)
	VisitReturn(*Return)
	VisitNop(*Nop)
}

// BaseVisitor implements every Visitor method as a no-op.  Visitors interested
// in a few variants embed it.
type BaseVisitor struct{}

func (BaseVisitor) VisitNegate(*Negate)         {}
func (BaseVisitor) VisitNot(*Not)               {}
func (BaseVisitor) VisitIncrease(*Increase)     {}
func (BaseVisitor) VisitDecrease(*Decrease)     {}
func (BaseVisitor) VisitCalculate(*Calculate)   {}
func (BaseVisitor) VisitCompare(*Compare)       {}
func (BaseVisitor) VisitStackAlloc(*StackAlloc) {}
func (BaseVisitor) VisitLoad(*Load)             {}
func (BaseVisitor) VisitStore(*Store)           {}
func (BaseVisitor) VisitElemPtr(*ElemPtr)       {}
func (BaseVisitor) VisitCast(*Cast)             {}
func (BaseVisitor) VisitInvoke(*Invoke)         {}
func (BaseVisitor) VisitLabel(*Label)           {}
func (BaseVisitor) VisitGoto(*Goto)             {}
func (BaseVisitor) VisitCondJump(*CondJump)     {}
func (BaseVisitor) VisitReturn(*Return)         {}
func (BaseVisitor) VisitNop(*Nop)               {}

// Walk calls Accept on each instruction of a unit in order.
func Walk(u *Unit, v Visitor) {
	for _, instr := range u.Instrs {
		instr.Accept(v)
	}
}
