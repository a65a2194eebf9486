package irpass

import (
	"math"

	"lc/ir"
)

// folder rewrites the instructions of a unit.  Each visit appends the rewritten
// instruction to out unless it was folded into a constant.
type folder struct {
	// consts maps the registers of folded instructions to their values.
	consts map[*ir.Register]*ir.Const

	out []ir.Instruction
}

// FoldConstants returns a copy of unit in which every non-atomic negation,
// complement, calculation and comparison whose operands are constants has been
// replaced by its result.  Atomic instructions are never folded: only their
// operands are substituted.  The input unit is left unchanged.
func FoldConstants(unit *ir.Unit) *ir.Unit {
	f := &folder{consts: make(map[*ir.Register]*ir.Const)}
	for _, instr := range unit.Instrs {
		instr.Accept(f)
	}

	folded := *unit
	folded.Instrs = f.out
	return &folded
}

// subst returns the constant value of op if it is a folded register.
func (f *folder) subst(op ir.Operand) ir.Operand {
	if reg, ok := op.(*ir.Register); ok {
		if c, ok := f.consts[reg]; ok {
			return c
		}
	}

	return op
}

func (f *folder) emit(instr ir.Instruction) {
	f.out = append(f.out, instr)
}

// fold records the constant value of result.  It returns false if the value
// could not be computed in which case the instruction must be kept.
func (f *folder) fold(result *ir.Register, c *ir.Const, ok bool) bool {
	if ok {
		f.consts[result] = c
	}

	return ok
}

// -----------------------------------------------------------------------------

func (f *folder) foldUnary(ui ir.UnaryInstr, eval func(*ir.Const) (*ir.Const, bool)) (ir.UnaryInstr, bool) {
	ui.Operand = f.subst(ui.Operand)
	if !ui.Atomic {
		if c, ok := ui.Operand.(*ir.Const); ok {
			res, ok := eval(c)
			return ui, f.fold(ui.Result, res, ok)
		}
	}

	return ui, false
}

func (f *folder) VisitNegate(n *ir.Negate) {
	if ui, done := f.foldUnary(n.UnaryInstr, negate); !done {
		f.emit(&ir.Negate{UnaryInstr: ui})
	}
}

func (f *folder) VisitNot(n *ir.Not) {
	if ui, done := f.foldUnary(n.UnaryInstr, complement); !done {
		f.emit(&ir.Not{UnaryInstr: ui})
	}
}

// Increments only ever apply to loaded values and are not folded.

func (f *folder) VisitIncrease(inc *ir.Increase) {
	c := *inc
	c.Operand = f.subst(c.Operand)
	f.emit(&c)
}

func (f *folder) VisitDecrease(dec *ir.Decrease) {
	c := *dec
	c.Operand = f.subst(c.Operand)
	f.emit(&c)
}

func (f *folder) VisitCalculate(calc *ir.Calculate) {
	c := *calc
	c.Lhs, c.Rhs = f.subst(c.Lhs), f.subst(c.Rhs)

	if !c.Atomic {
		lhs, lok := c.Lhs.(*ir.Const)
		rhs, rok := c.Rhs.(*ir.Const)
		if lok && rok {
			res, ok := calculate(c.Op, lhs, rhs)
			if f.fold(c.Result, res, ok) {
				return
			}
		}
	}

	f.emit(&c)
}

func (f *folder) VisitCompare(cmp *ir.Compare) {
	c := *cmp
	c.Lhs, c.Rhs = f.subst(c.Lhs), f.subst(c.Rhs)

	lhs, lok := c.Lhs.(*ir.Const)
	rhs, rok := c.Rhs.(*ir.Const)
	if lok && rok {
		res, ok := compare(c.Op, lhs, rhs)
		if f.fold(c.Result, res, ok) {
			return
		}
	}

	f.emit(&c)
}

func (f *folder) VisitStackAlloc(sa *ir.StackAlloc) {
	f.emit(sa)
}

func (f *folder) VisitLoad(l *ir.Load) {
	c := *l
	c.Src = f.subst(c.Src)
	f.emit(&c)
}

func (f *folder) VisitStore(s *ir.Store) {
	c := *s
	c.Dst, c.Value = f.subst(c.Dst), f.subst(c.Value)
	f.emit(&c)
}

func (f *folder) VisitElemPtr(ep *ir.ElemPtr) {
	c := *ep
	c.Base, c.Index = f.subst(c.Base), f.subst(c.Index)
	f.emit(&c)
}

func (f *folder) VisitCast(cast *ir.Cast) {
	c := *cast
	c.Src = f.subst(c.Src)
	f.emit(&c)
}

func (f *folder) VisitInvoke(inv *ir.Invoke) {
	c := *inv
	c.Args = make([]ir.Operand, len(inv.Args))
	for i, arg := range inv.Args {
		c.Args[i] = f.subst(arg)
	}

	f.emit(&c)
}

func (f *folder) VisitLabel(l *ir.Label) {
	f.emit(l)
}

func (f *folder) VisitGoto(g *ir.Goto) {
	f.emit(g)
}

func (f *folder) VisitCondJump(cj *ir.CondJump) {
	c := *cj
	c.Cond = f.subst(c.Cond)
	f.emit(&c)
}

func (f *folder) VisitReturn(r *ir.Return) {
	if r.Value == nil {
		f.emit(r)
		return
	}

	f.emit(&ir.Return{Value: f.subst(r.Value)})
}

func (f *folder) VisitNop(*ir.Nop) {}

// -----------------------------------------------------------------------------

// wrap truncates v to the width of the integer type pt.
func wrap(v int64, pt ir.PrimType) int64 {
	switch pt {
	case ir.PrimU8:
		return int64(uint8(v))
	case ir.PrimU16:
		return int64(uint16(v))
	case ir.PrimU32:
		return int64(uint32(v))
	case ir.PrimI8:
		return int64(int8(v))
	case ir.PrimI16:
		return int64(int16(v))
	case ir.PrimI32:
		return int64(int32(v))
	default:
		return v
	}
}

func intConst(v int64, typ ir.Type) (*ir.Const, bool) {
	c, err := ir.NewIntConst(wrap(v, typ.(ir.PrimType)), typ)
	return c, err == nil
}

func floatConst(v float64, typ ir.Type) (*ir.Const, bool) {
	if typ == ir.PrimF32 {
		v = float64(float32(v))
	}

	c, err := ir.NewFloatConst(v, typ)
	return c, err == nil
}

func negate(c *ir.Const) (*ir.Const, bool) {
	switch c.Kind {
	case ir.ConstInt:
		return intConst(-c.Int, c.Type())
	case ir.ConstFloat:
		return floatConst(-c.Float, c.Type())
	}

	return nil, false
}

func complement(c *ir.Const) (*ir.Const, bool) {
	switch c.Kind {
	case ir.ConstInt:
		return intConst(^c.Int, c.Type())
	case ir.ConstBool:
		return ir.NewBoolConst(!c.Bool), true
	}

	return nil, false
}

func bitWidth(pt ir.PrimType) int64 {
	return int64(pt.Size()) * 8
}

func calculate(op ir.CalcOp, lhs, rhs *ir.Const) (*ir.Const, bool) {
	typ := lhs.Type()

	switch lhs.Kind {
	case ir.ConstBool:
		switch op {
		case ir.CalcAnd:
			return ir.NewBoolConst(lhs.Bool && rhs.Bool), true
		case ir.CalcOr:
			return ir.NewBoolConst(lhs.Bool || rhs.Bool), true
		case ir.CalcXor:
			return ir.NewBoolConst(lhs.Bool != rhs.Bool), true
		}
	case ir.ConstFloat:
		x, y := lhs.Float, rhs.Float
		switch op {
		case ir.CalcAdd:
			return floatConst(x+y, typ)
		case ir.CalcSub:
			return floatConst(x-y, typ)
		case ir.CalcMul:
			return floatConst(x*y, typ)
		case ir.CalcDiv:
			return floatConst(x/y, typ)
		case ir.CalcRem:
			return floatConst(math.Mod(x, y), typ)
		}
	case ir.ConstInt:
		pt := typ.(ir.PrimType)
		x, y := lhs.Int, rhs.Int

		switch op {
		case ir.CalcAdd:
			return intConst(x+y, typ)
		case ir.CalcSub:
			return intConst(x-y, typ)
		case ir.CalcMul:
			return intConst(x*y, typ)
		case ir.CalcAnd:
			return intConst(x&y, typ)
		case ir.CalcOr:
			return intConst(x|y, typ)
		case ir.CalcXor:
			return intConst(x^y, typ)
		}

		// Division by zero and out of range shifts are left to the target.
		switch op {
		case ir.CalcDiv, ir.CalcRem:
			if y == 0 {
				return nil, false
			}

			if !pt.IsSigned() {
				ux, uy := uint64(x), uint64(y)
				if op == ir.CalcDiv {
					return intConst(int64(ux/uy), typ)
				}

				return intConst(int64(ux%uy), typ)
			}

			if y == -1 {
				// avoids the overflow trap of MinInt64 / -1
				if op == ir.CalcDiv {
					return intConst(-x, typ)
				}

				return intConst(0, typ)
			}

			if op == ir.CalcDiv {
				return intConst(x/y, typ)
			}

			return intConst(x%y, typ)
		case ir.CalcShl, ir.CalcShr:
			if y < 0 || y >= bitWidth(pt) {
				return nil, false
			}

			if op == ir.CalcShl {
				return intConst(x<<uint(y), typ)
			}

			if pt.IsSigned() {
				return intConst(x>>uint(y), typ)
			}

			return intConst(int64(uint64(x)>>uint(y)), typ)
		}
	}

	return nil, false
}

func compare(op ir.CmpOp, lhs, rhs *ir.Const) (*ir.Const, bool) {
	var c int

	switch lhs.Kind {
	case ir.ConstBool:
		switch op {
		case ir.CmpEq:
			return ir.NewBoolConst(lhs.Bool == rhs.Bool), true
		case ir.CmpNe:
			return ir.NewBoolConst(lhs.Bool != rhs.Bool), true
		}

		return nil, false
	case ir.ConstFloat:
		x, y := lhs.Float, rhs.Float
		if math.IsNaN(x) || math.IsNaN(y) {
			return ir.NewBoolConst(op == ir.CmpNe), true
		}

		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		}
	case ir.ConstInt:
		if lhs.Type().(ir.PrimType).IsSigned() {
			switch {
			case lhs.Int < rhs.Int:
				c = -1
			case lhs.Int > rhs.Int:
				c = 1
			}
		} else {
			x, y := uint64(lhs.Int), uint64(rhs.Int)
			switch {
			case x < y:
				c = -1
			case x > y:
				c = 1
			}
		}
	}

	switch op {
	case ir.CmpEq:
		return ir.NewBoolConst(c == 0), true
	case ir.CmpNe:
		return ir.NewBoolConst(c != 0), true
	case ir.CmpLt:
		return ir.NewBoolConst(c < 0), true
	case ir.CmpLe:
		return ir.NewBoolConst(c <= 0), true
	case ir.CmpGt:
		return ir.NewBoolConst(c > 0), true
	default:
		return ir.NewBoolConst(c >= 0), true
	}
}
