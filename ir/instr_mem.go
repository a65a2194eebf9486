package ir

import (
	"fmt"

	"lc/report"
)

// StackAlloc reserves a stack slot for a value of ElemType.  Its result is a
// pointer to the slot.
type StackAlloc struct {
	Result   *Register
	ElemType Type
}

// NewStackAlloc creates a new stack allocation.  The type of result must be a
// pointer to elemType.
func NewStackAlloc(result *Register, elemType Type) (*StackAlloc, error) {
	if err := checkType("stack allocation", PointerType{ElemType: elemType}, result.Type()); err != nil {
		return nil, err
	}

	return &StackAlloc{Result: result, ElemType: elemType}, nil
}

func (sa *StackAlloc) Repr() string {
	return render(sa.Result, false, "stack_alloc", sa.ElemType)
}

func (sa *StackAlloc) Accept(v Visitor) { v.VisitStackAlloc(sa) }
func (sa *StackAlloc) Def() *Register   { return sa.Result }
func (sa *StackAlloc) Uses() []Operand  { return nil }
func (sa *StackAlloc) IsAtomic() bool   { return false }
func (sa *StackAlloc) instruction()     {}

// -----------------------------------------------------------------------------

// checkPointee checks that ptr points to a value of typ.
func checkPointee(context string, ptr Operand, typ Type) error {
	pt, ok := ptr.Type().(PointerType)
	if !ok {
		return report.NewTypeMismatch(context, "pointer type", ptr.Type().Repr())
	}

	return checkType(context, pt.ElemType, typ)
}

// Load reads the value Src points to.
type Load struct {
	Result *Register
	Src    Operand
	Atomic bool
}

// NewLoad creates a new load from src into result.
func NewLoad(result *Register, src Operand, atomic bool) (*Load, error) {
	if err := checkPointee("load", src, result.Type()); err != nil {
		return nil, err
	}

	return &Load{Result: result, Src: src, Atomic: atomic}, nil
}

func (l *Load) Repr() string {
	return render(l.Result, l.Atomic, "load", l.Result.Type(), l.Src.Repr())
}

func (l *Load) Accept(v Visitor) { v.VisitLoad(l) }
func (l *Load) Def() *Register   { return l.Result }
func (l *Load) Uses() []Operand  { return []Operand{l.Src} }
func (l *Load) IsAtomic() bool   { return l.Atomic }
func (l *Load) instruction()     {}

// Store writes Value to the memory Dst points to.  It renders as
// `store <type><dst>, <value>`.
type Store struct {
	Dst    Operand
	Value  Operand
	Atomic bool
}

// NewStore creates a new store of value into dst.
func NewStore(dst, value Operand, atomic bool) (*Store, error) {
	if err := checkPointee("store", dst, value.Type()); err != nil {
		return nil, err
	}

	return &Store{Dst: dst, Value: value, Atomic: atomic}, nil
}

func (s *Store) Repr() string {
	return render(nil, s.Atomic, "store", s.Value.Type(), s.Dst.Repr(), s.Value.Repr())
}

func (s *Store) Accept(v Visitor) { v.VisitStore(s) }
func (s *Store) Def() *Register   { return nil }
func (s *Store) Uses() []Operand  { return []Operand{s.Dst, s.Value} }
func (s *Store) IsAtomic() bool   { return s.Atomic }
func (s *Store) instruction()     {}

// -----------------------------------------------------------------------------

// ElemPtr computes the address of one element of an aggregate.  Base is either
// a pointer to an array or a struct, or an object reference in which case the
// element is a field of the object.  Struct and object fields are selected by
// a constant index.
type ElemPtr struct {
	Result *Register
	Base   Operand
	Index  Operand
}

// NewElemPtr creates a new element address computation.  The type of result
// must be a pointer to the selected element.  The fields of an object are not
// known to the IR: only the index of an object field is checked.
func NewElemPtr(result *Register, base, index Operand) (*ElemPtr, error) {
	rt, ok := result.Type().(PointerType)
	if !ok {
		return nil, report.NewTypeMismatch("element pointer", "pointer type", result.Type().Repr())
	}

	if err := checkKind("element index", "integer type", index.Type(), IsIntegral); err != nil {
		return nil, err
	}

	ep := &ElemPtr{Result: result, Base: base, Index: index}

	switch bt := base.Type().(type) {
	case NamedType:
		if _, ok := constIndex(index); !ok {
			return nil, report.NewTypeMismatch("field index of "+bt.Repr(), "non-negative constant", index.Repr())
		}

		return ep, nil
	case PointerType:
		switch agg := bt.ElemType.(type) {
		case *ArrayType:
			if c, ok := index.(*Const); ok && (c.Int < 0 || c.Int >= int64(agg.Len)) {
				return nil, report.NewTypeMismatch("element index", fmt.Sprintf("index below %d", agg.Len), index.Repr())
			}

			if err := checkType("element pointer", agg.ElemType, rt.ElemType); err != nil {
				return nil, err
			}

			return ep, nil
		case *StructType:
			i, ok := constIndex(index)
			if !ok || i >= len(agg.Fields) {
				return nil, report.NewTypeMismatch("field index", fmt.Sprintf("constant below %d", len(agg.Fields)), index.Repr())
			}

			if err := checkType("element pointer", agg.Fields[i].Typ, rt.ElemType); err != nil {
				return nil, err
			}

			return ep, nil
		}
	}

	return nil, report.NewTypeMismatch("element pointer", "pointer to array or struct, or object", base.Type().Repr())
}

// constIndex returns the value of a non-negative constant index.
func constIndex(op Operand) (int, bool) {
	c, ok := op.(*Const)
	if !ok || c.Kind != ConstInt || c.Int < 0 {
		return 0, false
	}

	return int(c.Int), true
}

func (ep *ElemPtr) Repr() string {
	return render(ep.Result, false, "elem_ptr", ep.Result.Type(), ep.Base.Repr(), ep.Index.Repr())
}

func (ep *ElemPtr) Accept(v Visitor) { v.VisitElemPtr(ep) }
func (ep *ElemPtr) Def() *Register   { return ep.Result }
func (ep *ElemPtr) Uses() []Operand  { return []Operand{ep.Base, ep.Index} }
func (ep *ElemPtr) IsAtomic() bool   { return false }
func (ep *ElemPtr) instruction()     {}

// -----------------------------------------------------------------------------

// Cast converts a primitive value to another primitive type.
type Cast struct {
	Result *Register
	Src    Operand
}

func isCastable(typ Type) bool {
	return IsNumeric(typ) || IsBool(typ)
}

// NewCast creates a new conversion of src into result.
func NewCast(result *Register, src Operand) (*Cast, error) {
	if err := checkKind("cast", "numeric or boolean type", src.Type(), isCastable); err != nil {
		return nil, err
	}

	if err := checkKind("cast", "numeric or boolean type", result.Type(), isCastable); err != nil {
		return nil, err
	}

	return &Cast{Result: result, Src: src}, nil
}

func (c *Cast) Repr() string {
	return render(c.Result, false, "cast", c.Result.Type(), c.Src.Repr())
}

func (c *Cast) Accept(v Visitor) { v.VisitCast(c) }
func (c *Cast) Def() *Register   { return c.Result }
func (c *Cast) Uses() []Operand  { return []Operand{c.Src} }
func (c *Cast) IsAtomic() bool   { return false }
func (c *Cast) instruction()     {}
