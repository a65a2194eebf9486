package ir

import (
	"fmt"
	"math"
	"strconv"

	"lc/report"
)

// Operand represents a value that can be used by an instruction: a virtual
// register, a constant or the address of a global.
type Operand interface {
	Repr() string

	Type() Type

	operand()
}

// -----------------------------------------------------------------------------

// Register is a typed virtual register.  A register is defined by exactly one
// instruction and shared by pointer between its definition and its uses.
type Register struct {
	// ID is the number of the register within its unit.
	ID int

	// Name is an optional name used when rendering the register.
	Name string

	typ Type
}

// NewRegister creates a new register.  Registers are usually allocated through
// Unit.NewRegister which numbers them.
func NewRegister(id int, name string, typ Type) *Register {
	return &Register{ID: id, Name: name, typ: typ}
}

func (r *Register) Repr() string {
	if r.Name != "" {
		return "%" + r.Name
	}

	return "%" + strconv.Itoa(r.ID)
}

func (r *Register) Type() Type {
	return r.typ
}

func (r *Register) operand() {}

// -----------------------------------------------------------------------------

// ConstKind is the kind of value stored in a constant.
type ConstKind int

// Enumeration of constant kinds.
const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
)

// Const is a literal operand.
type Const struct {
	Kind ConstKind

	Int   int64
	Float float64
	Bool  bool

	typ Type
}

// NewIntConst creates a new integer constant of typ.  The value must be
// representable by typ: u64 constants are limited to the non-negative range of
// an int64.
func NewIntConst(val int64, typ Type) (*Const, error) {
	if !IsIntegral(typ) {
		return nil, report.NewTypeMismatch("integer constant", "integer type", typ.Repr())
	}

	if lo, hi := intRange(typ.(PrimType)); val < lo || val > hi {
		return nil, report.NewTypeMismatch(
			"integer constant",
			fmt.Sprintf("%s in [%d, %d]", typ.Repr(), lo, hi),
			strconv.FormatInt(val, 10),
		)
	}

	return &Const{Kind: ConstInt, Int: val, typ: typ}, nil
}

// intRange returns the bounds of the values an integer constant of pt can hold.
func intRange(pt PrimType) (int64, int64) {
	bits := pt.Size() * 8
	if bits == 64 {
		if pt.IsSigned() {
			return math.MinInt64, math.MaxInt64
		}

		return 0, math.MaxInt64
	}

	if pt.IsSigned() {
		return -1 << (bits - 1), 1<<(bits-1) - 1
	}

	return 0, 1<<bits - 1
}

// NewFloatConst creates a new floating-point constant of typ.
func NewFloatConst(val float64, typ Type) (*Const, error) {
	if !IsFloating(typ) {
		return nil, report.NewTypeMismatch("float constant", "floating-point type", typ.Repr())
	}

	return &Const{Kind: ConstFloat, Float: val, typ: typ}, nil
}

// NewBoolConst creates a new boolean constant.
func NewBoolConst(val bool) *Const {
	return &Const{Kind: ConstBool, Bool: val, typ: PrimBool}
}

func (c *Const) Repr() string {
	switch c.Kind {
	case ConstFloat:
		return "#" + strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ConstBool:
		return fmt.Sprintf("#%t", c.Bool)
	default:
		return "#" + strconv.FormatInt(c.Int, 10)
	}
}

func (c *Const) Type() Type {
	return c.typ
}

func (c *Const) operand() {}

// -----------------------------------------------------------------------------

// Global is a variable of a bundle stored outside of any unit.  As an operand,
// a global is the address of its storage: its type is a pointer to ElemType.
type Global struct {
	// Name is the qualified name of the variable.
	Name string

	ElemType Type
}

// NewGlobal creates a new global variable of elemType.
func NewGlobal(name string, elemType Type) *Global {
	return &Global{Name: name, ElemType: elemType}
}

func (g *Global) Repr() string {
	return "@" + g.Name
}

func (g *Global) Type() Type {
	return PointerType{ElemType: g.ElemType}
}

func (g *Global) operand() {}
