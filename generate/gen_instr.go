package generate

import (
	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"lc/ir"
)

// atomicUnsupported reports an atomic register operation.  LLVM only offers
// atomic memory operations.
func (g *Generator) atomicUnsupported(instr ir.Instruction) {
	g.fail("atomic register operation has no LLVM equivalent: %s", instr.Repr())
}

// one returns the constant one of a numeric type.
func one(typ ir.Type) value.Value {
	llTyp := convPrimType(primOf(typ))
	if ir.IsFloating(typ) {
		return constant.NewFloat(llTyp.(*types.FloatType), 1)
	}

	return constant.NewInt(llTyp.(*types.IntType), 1)
}

// -----------------------------------------------------------------------------

func (g *Generator) VisitNegate(n *ir.Negate) {
	if n.Atomic {
		g.atomicUnsupported(n)
		return
	}

	x := g.value(n.Operand)
	if ir.IsFloating(n.Result.Type()) {
		g.define(n.Result, g.cur().NewFNeg(x))
	} else {
		zero := constant.NewInt(convPrimType(primOf(n.Result.Type())).(*types.IntType), 0)
		g.define(n.Result, g.cur().NewSub(zero, x))
	}
}

func (g *Generator) VisitNot(n *ir.Not) {
	if n.Atomic {
		g.atomicUnsupported(n)
		return
	}

	// complementing is xor with all bits set
	var mask value.Value
	if ir.IsBool(n.Result.Type()) {
		mask = constant.NewBool(true)
	} else {
		mask = constant.NewInt(convPrimType(primOf(n.Result.Type())).(*types.IntType), -1)
	}

	g.define(n.Result, g.cur().NewXor(g.value(n.Operand), mask))
}

// atomicLoad is an atomic load whose result may be folded into an atomicrmw.
type atomicLoad struct {
	inst *llir.InstLoad
	src  ir.Operand
}

// atomicStep generates an atomic increment or decrement of a value read by an
// atomic load as an atomicrmw on the loaded memory.  The loaded register takes
// the value returned by the atomicrmw and result the updated value.  It
// returns false if the operand does not come from an atomic load.
func (g *Generator) atomicStep(result *ir.Register, operand ir.Operand, inc bool) bool {
	reg, ok := operand.(*ir.Register)
	if !ok {
		return false
	}

	load, ok := g.atomicLoads[reg]
	if !ok {
		return false
	}

	b := g.cur()

	// the load is replaced by the atomicrmw if nothing was generated since
	if n := len(b.Insts); n > 0 && b.Insts[n-1] == load.inst {
		b.Insts = b.Insts[:n-1]
	}

	typ := result.Type()
	op := enum.AtomicOpAdd
	switch {
	case ir.IsFloating(typ) && inc:
		op = enum.AtomicOpFAdd
	case ir.IsFloating(typ):
		op = enum.AtomicOpFSub
	case !inc:
		op = enum.AtomicOpSub
	}

	rmw := b.NewAtomicRMW(op, g.value(load.src), one(typ), enum.AtomicOrderingSeqCst)
	g.values[reg] = rmw

	var updated value.Value
	switch {
	case ir.IsFloating(typ) && inc:
		updated = b.NewFAdd(rmw, one(typ))
	case ir.IsFloating(typ):
		updated = b.NewFSub(rmw, one(typ))
	case inc:
		updated = b.NewAdd(rmw, one(typ))
	default:
		updated = b.NewSub(rmw, one(typ))
	}

	g.define(result, updated)
	g.rmwStores[result] = load.src
	return true
}

func (g *Generator) VisitIncrease(inc *ir.Increase) {
	if inc.Atomic {
		if !g.atomicStep(inc.Result, inc.Operand, true) {
			g.atomicUnsupported(inc)
		}

		return
	}

	x := g.value(inc.Operand)
	if ir.IsFloating(inc.Result.Type()) {
		g.define(inc.Result, g.cur().NewFAdd(x, one(inc.Result.Type())))
	} else {
		g.define(inc.Result, g.cur().NewAdd(x, one(inc.Result.Type())))
	}
}

func (g *Generator) VisitDecrease(dec *ir.Decrease) {
	if dec.Atomic {
		if !g.atomicStep(dec.Result, dec.Operand, false) {
			g.atomicUnsupported(dec)
		}

		return
	}

	x := g.value(dec.Operand)
	if ir.IsFloating(dec.Result.Type()) {
		g.define(dec.Result, g.cur().NewFSub(x, one(dec.Result.Type())))
	} else {
		g.define(dec.Result, g.cur().NewSub(x, one(dec.Result.Type())))
	}
}

func (g *Generator) VisitCalculate(c *ir.Calculate) {
	if c.Atomic {
		g.atomicUnsupported(c)
		return
	}

	x, y := g.value(c.Lhs), g.value(c.Rhs)
	b := g.cur()
	pt := primOf(c.Result.Type())

	var res value.Value
	if pt.IsFloat() {
		switch c.Op {
		case ir.CalcAdd:
			res = b.NewFAdd(x, y)
		case ir.CalcSub:
			res = b.NewFSub(x, y)
		case ir.CalcMul:
			res = b.NewFMul(x, y)
		case ir.CalcDiv:
			res = b.NewFDiv(x, y)
		case ir.CalcRem:
			res = b.NewFRem(x, y)
		}
	} else {
		switch c.Op {
		case ir.CalcAdd:
			res = b.NewAdd(x, y)
		case ir.CalcSub:
			res = b.NewSub(x, y)
		case ir.CalcMul:
			res = b.NewMul(x, y)
		case ir.CalcDiv:
			if pt.IsSigned() {
				res = b.NewSDiv(x, y)
			} else {
				res = b.NewUDiv(x, y)
			}
		case ir.CalcRem:
			if pt.IsSigned() {
				res = b.NewSRem(x, y)
			} else {
				res = b.NewURem(x, y)
			}
		case ir.CalcAnd:
			res = b.NewAnd(x, y)
		case ir.CalcOr:
			res = b.NewOr(x, y)
		case ir.CalcXor:
			res = b.NewXor(x, y)
		case ir.CalcShl:
			res = b.NewShl(x, y)
		case ir.CalcShr:
			if pt.IsSigned() {
				res = b.NewAShr(x, y)
			} else {
				res = b.NewLShr(x, y)
			}
		}
	}

	if res == nil {
		g.fail("operation %s is not defined on %s", c.Op, pt.Repr())
		return
	}

	g.define(c.Result, res)
}

var (
	signedPreds   = []enum.IPred{enum.IPredEQ, enum.IPredNE, enum.IPredSLT, enum.IPredSLE, enum.IPredSGT, enum.IPredSGE}
	unsignedPreds = []enum.IPred{enum.IPredEQ, enum.IPredNE, enum.IPredULT, enum.IPredULE, enum.IPredUGT, enum.IPredUGE}
	floatPreds    = []enum.FPred{enum.FPredOEQ, enum.FPredUNE, enum.FPredOLT, enum.FPredOLE, enum.FPredOGT, enum.FPredOGE}
)

func (g *Generator) VisitCompare(c *ir.Compare) {
	x, y := g.value(c.Lhs), g.value(c.Rhs)
	pt := primOf(c.Lhs.Type())

	switch {
	case pt.IsFloat():
		g.define(c.Result, g.cur().NewFCmp(floatPreds[c.Op], x, y))
	case pt.IsSigned():
		g.define(c.Result, g.cur().NewICmp(signedPreds[c.Op], x, y))
	default:
		g.define(c.Result, g.cur().NewICmp(unsignedPreds[c.Op], x, y))
	}
}

func (g *Generator) VisitStackAlloc(sa *ir.StackAlloc) {
	// allocas always go at the start of the function so loops do not grow the
	// stack
	g.define(sa.Result, g.fn.Blocks[0].NewAlloca(g.convType(sa.ElemType)))
}

func (g *Generator) VisitLoad(l *ir.Load) {
	typ := l.Result.Type()
	inst := g.cur().NewLoad(g.convType(typ), g.value(l.Src))

	if l.Atomic {
		inst.Atomic = true
		inst.Ordering = enum.AtomicOrderingSeqCst
		inst.Align = llir.Align(typ.Align())
		g.atomicLoads[l.Result] = atomicLoad{inst: inst, src: l.Src}
	}

	g.define(l.Result, inst)
}

func (g *Generator) VisitStore(s *ir.Store) {
	if reg, ok := s.Value.(*ir.Register); ok && s.Atomic {
		if dst, ok := g.rmwStores[reg]; ok && dst == s.Dst {
			return
		}
	}

	inst := g.cur().NewStore(g.value(s.Value), g.value(s.Dst))

	if s.Atomic {
		inst.Atomic = true
		inst.Ordering = enum.AtomicOrderingSeqCst
		inst.Align = llir.Align(s.Value.Type().Align())
	}
}

func (g *Generator) VisitElemPtr(ep *ir.ElemPtr) {
	zero := constant.NewInt(types.I32, 0)
	index := g.value(ep.Index)

	var elemType types.Type
	switch bt := ep.Base.Type().(type) {
	case ir.NamedType:
		st, ok := g.structs[bt.Name]
		if !ok {
			g.fail("object %s has no layout", bt.Name)
			return
		}

		elemType = st
		index = fieldIndex(ep.Index)
	case ir.PointerType:
		elemType = g.convType(bt.ElemType)
		if _, ok := bt.ElemType.(*ir.StructType); ok {
			index = fieldIndex(ep.Index)
		}
	}

	g.define(ep.Result, g.cur().NewGetElementPtr(elemType, g.value(ep.Base), zero, index))
}

// fieldIndex converts the constant index of a struct field: LLVM requires i32
// field indices.
func fieldIndex(op ir.Operand) value.Value {
	return constant.NewInt(types.I32, op.(*ir.Const).Int)
}

func (g *Generator) VisitCast(c *ir.Cast) {
	x := g.value(c.Src)
	from, to := primOf(c.Src.Type()), primOf(c.Result.Type())
	llTo := convPrimType(to)
	b := g.cur()

	var res value.Value
	switch {
	case from == to:
		res = x
	case to == ir.PrimBool && from.IsFloat():
		res = b.NewFCmp(enum.FPredUNE, x, constant.NewFloat(convPrimType(from).(*types.FloatType), 0))
	case to == ir.PrimBool:
		res = b.NewICmp(enum.IPredNE, x, constant.NewInt(convPrimType(from).(*types.IntType), 0))
	case from == ir.PrimBool && to.IsFloat():
		res = b.NewUIToFP(x, llTo)
	case from == ir.PrimBool:
		res = b.NewZExt(x, llTo)
	case from.IsFloat() && to.IsFloat():
		if to.Size() > from.Size() {
			res = b.NewFPExt(x, llTo)
		} else {
			res = b.NewFPTrunc(x, llTo)
		}
	case from.IsFloat():
		if to.IsSigned() {
			res = b.NewFPToSI(x, llTo)
		} else {
			res = b.NewFPToUI(x, llTo)
		}
	case to.IsFloat():
		if from.IsSigned() {
			res = b.NewSIToFP(x, llTo)
		} else {
			res = b.NewUIToFP(x, llTo)
		}
	case to.Size() < from.Size():
		res = b.NewTrunc(x, llTo)
	case to.Size() > from.Size():
		if from.IsSigned() {
			res = b.NewSExt(x, llTo)
		} else {
			res = b.NewZExt(x, llTo)
		}
	default:
		// signedness changes are free
		res = x
	}

	if res == x {
		g.values[c.Result] = x
		return
	}

	g.define(c.Result, res)
}

func (g *Generator) VisitInvoke(inv *ir.Invoke) {
	args := make([]value.Value, len(inv.Args))
	for i, arg := range inv.Args {
		args[i] = g.value(arg)
	}

	call := g.cur().NewCall(g.function(inv), args...)
	if inv.Result != nil {
		g.define(inv.Result, call)
	}
}

func (g *Generator) VisitLabel(l *ir.Label) {
	b := g.labelBlock(l)
	if g.block.Term == nil {
		g.block.NewBr(b)
	}

	g.place(b)
}

func (g *Generator) VisitGoto(gt *ir.Goto) {
	g.cur().NewBr(g.labelBlock(gt.Dest))
}

func (g *Generator) VisitCondJump(cj *ir.CondJump) {
	cond := g.value(cj.Cond)
	g.cur().NewCondBr(cond, g.labelBlock(cj.Then), g.labelBlock(cj.Else))
}

func (g *Generator) VisitReturn(r *ir.Return) {
	if r.Value == nil {
		g.cur().NewRet(nil)
		return
	}

	g.cur().NewRet(g.value(r.Value))
}

func (g *Generator) VisitNop(*ir.Nop) {}
