package ir

import (
	"strings"

	"lc/report"
)

// Instruction is a single IR instruction.  The set of instructions is closed:
// passes operate on instructions exclusively through Accept.
type Instruction interface {
	// Repr returns the canonical textual form of the instruction:
	// `<result> = [atomic_]<opcode> <type><operands>`.
	Repr() string

	// Accept calls the visitor method corresponding to the instruction.
	Accept(v Visitor)

	// Def returns the register defined by the instruction or nil if the
	// instruction yields no value.
	Def() *Register

	// Uses returns the operands read by the instruction.
	Uses() []Operand

	// IsAtomic indicates whether the instruction models an atomic operation of
	// the source program.
	IsAtomic() bool

	instruction()
}

// render builds the canonical textual form of an instruction.  The type is
// immediately followed by the operands: eg. `%t = atomic_negate i32%x`.
func render(def *Register, atomic bool, opcode string, typ Type, ops ...string) string {
	sb := strings.Builder{}

	if def != nil {
		sb.WriteString(def.Repr())
		sb.WriteString(" = ")
	}

	if atomic {
		sb.WriteString("atomic_")
	}

	sb.WriteString(opcode)

	if typ != nil {
		sb.WriteRune(' ')
		sb.WriteString(typ.Repr())
	} else if len(ops) > 0 {
		sb.WriteRune(' ')
	}

	sb.WriteString(strings.Join(ops, ", "))
	return sb.String()
}

// reprs returns the representations of a list of operands.
func reprs(ops ...Operand) []string {
	strs := make([]string, len(ops))
	for i, op := range ops {
		strs[i] = op.Repr()
	}

	return strs
}

// checkType checks that found is the type expected in context.
func checkType(context string, expected, found Type) error {
	if !TypeEqual(expected, found) {
		return report.NewTypeMismatch(context, expected.Repr(), found.Repr())
	}

	return nil
}

// checkKind checks that typ satisfies pred.  kind describes the expected
// category of types.
func checkKind(context, kind string, typ Type, pred func(Type) bool) error {
	if !pred(typ) {
		return report.NewTypeMismatch(context, kind, typ.Repr())
	}

	return nil
}

// -----------------------------------------------------------------------------

// UnaryInstr is the common part of all unary register operations.
type UnaryInstr struct {
	Result  *Register
	Operand Operand
	Atomic  bool
}

func (ui *UnaryInstr) Def() *Register {
	return ui.Result
}

func (ui *UnaryInstr) Uses() []Operand {
	return []Operand{ui.Operand}
}

func (ui *UnaryInstr) IsAtomic() bool {
	return ui.Atomic
}

func (ui *UnaryInstr) instruction() {}

func (ui *UnaryInstr) repr(opcode string) string {
	return render(ui.Result, ui.Atomic, opcode, ui.Result.Type(), ui.Operand.Repr())
}

// newUnary checks and builds the common part of a unary instruction.
func newUnary(opcode, kind string, pred func(Type) bool, result *Register, operand Operand, atomic bool) (UnaryInstr, error) {
	context := "operand of " + opcode
	if err := checkKind(context, kind, result.Type(), pred); err != nil {
		return UnaryInstr{}, err
	}

	if err := checkType(context, result.Type(), operand.Type()); err != nil {
		return UnaryInstr{}, err
	}

	return UnaryInstr{Result: result, Operand: operand, Atomic: atomic}, nil
}

func isIntegralOrBool(typ Type) bool {
	return IsIntegral(typ) || IsBool(typ)
}

// Negate computes the arithmetic negation of its operand.
type Negate struct {
	UnaryInstr
}

// NewNegate creates a new negation of operand into result.
func NewNegate(result *Register, operand Operand, atomic bool) (*Negate, error) {
	ui, err := newUnary("negate", "numeric type", IsNumeric, result, operand, atomic)
	if err != nil {
		return nil, err
	}

	return &Negate{UnaryInstr: ui}, nil
}

func (n *Negate) Repr() string     { return n.repr("negate") }
func (n *Negate) Accept(v Visitor) { v.VisitNegate(n) }

// Not computes the logical or bitwise complement of its operand.
type Not struct {
	UnaryInstr
}

// NewNot creates a new complement of operand into result.
func NewNot(result *Register, operand Operand, atomic bool) (*Not, error) {
	ui, err := newUnary("not", "integer or boolean type", isIntegralOrBool, result, operand, atomic)
	if err != nil {
		return nil, err
	}

	return &Not{UnaryInstr: ui}, nil
}

func (n *Not) Repr() string     { return n.repr("not") }
func (n *Not) Accept(v Visitor) { v.VisitNot(n) }

// Increase adds one to its operand.
type Increase struct {
	UnaryInstr
}

// NewIncrease creates a new increment of operand into result.
func NewIncrease(result *Register, operand Operand, atomic bool) (*Increase, error) {
	ui, err := newUnary("increase", "numeric type", IsNumeric, result, operand, atomic)
	if err != nil {
		return nil, err
	}

	return &Increase{UnaryInstr: ui}, nil
}

func (inc *Increase) Repr() string     { return inc.repr("increase") }
func (inc *Increase) Accept(v Visitor) { v.VisitIncrease(inc) }

// Decrease subtracts one from its operand.
type Decrease struct {
	UnaryInstr
}

// NewDecrease creates a new decrement of operand into result.
func NewDecrease(result *Register, operand Operand, atomic bool) (*Decrease, error) {
	ui, err := newUnary("decrease", "numeric type", IsNumeric, result, operand, atomic)
	if err != nil {
		return nil, err
	}

	return &Decrease{UnaryInstr: ui}, nil
}

func (dec *Decrease) Repr() string     { return dec.repr("decrease") }
func (dec *Decrease) Accept(v Visitor) { v.VisitDecrease(dec) }

// -----------------------------------------------------------------------------

// CalcOp is an arithmetic or bitwise operation.  Must be one of the enumerated
// calculation operations.
type CalcOp int

// Enumeration of calculation operations.
const (
	CalcAdd CalcOp = iota
	CalcSub
	CalcMul
	CalcDiv
	CalcRem
	CalcAnd
	CalcOr
	CalcXor
	CalcShl
	CalcShr
)

var calcOpNames = []string{"add", "sub", "mul", "div", "rem", "and", "or", "xor", "shl", "shr"}

func (op CalcOp) String() string {
	return calcOpNames[op]
}

// IsBitwise returns whether the operation only applies to integers (and, for
// the logical operations, booleans).
func (op CalcOp) IsBitwise() bool {
	return op >= CalcAnd
}

// Calculate applies a binary arithmetic or bitwise operation.
type Calculate struct {
	Result   *Register
	Op       CalcOp
	Lhs, Rhs Operand
	Atomic   bool
}

// NewCalculate creates a new calculation of `lhs op rhs` into result.
func NewCalculate(result *Register, op CalcOp, lhs, rhs Operand, atomic bool) (*Calculate, error) {
	context := "operand of " + op.String()

	var err error
	switch op {
	case CalcAnd, CalcOr, CalcXor:
		err = checkKind(context, "integer or boolean type", result.Type(), isIntegralOrBool)
	case CalcShl, CalcShr:
		err = checkKind(context, "integer type", result.Type(), IsIntegral)
	default:
		err = checkKind(context, "numeric type", result.Type(), IsNumeric)
	}

	if err != nil {
		return nil, err
	}

	if err := checkType(context, result.Type(), lhs.Type()); err != nil {
		return nil, err
	}

	if err := checkType(context, result.Type(), rhs.Type()); err != nil {
		return nil, err
	}

	return &Calculate{Result: result, Op: op, Lhs: lhs, Rhs: rhs, Atomic: atomic}, nil
}

func (c *Calculate) Repr() string {
	return render(c.Result, c.Atomic, c.Op.String(), c.Result.Type(), c.Lhs.Repr(), c.Rhs.Repr())
}

func (c *Calculate) Accept(v Visitor) { v.VisitCalculate(c) }
func (c *Calculate) Def() *Register   { return c.Result }
func (c *Calculate) Uses() []Operand  { return []Operand{c.Lhs, c.Rhs} }
func (c *Calculate) IsAtomic() bool   { return c.Atomic }
func (c *Calculate) instruction()     {}

// -----------------------------------------------------------------------------

// CmpOp is a comparison.  Must be one of the enumerated comparisons.
type CmpOp int

// Enumeration of comparisons.
const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

var cmpOpNames = []string{"eq", "ne", "lt", "le", "gt", "ge"}

func (op CmpOp) String() string {
	return cmpOpNames[op]
}

// Compare compares two operands of the same type yielding a boolean.  The type
// of a comparison is the type of its operands.
type Compare struct {
	Result   *Register
	Op       CmpOp
	Lhs, Rhs Operand
}

// NewCompare creates a new comparison of lhs and rhs into result.
func NewCompare(result *Register, op CmpOp, lhs, rhs Operand) (*Compare, error) {
	context := "comparison " + op.String()

	if err := checkType(context, PrimBool, result.Type()); err != nil {
		return nil, err
	}

	if op == CmpEq || op == CmpNe {
		if err := checkKind(context, "numeric or boolean type", lhs.Type(), func(t Type) bool {
			return IsNumeric(t) || IsBool(t)
		}); err != nil {
			return nil, err
		}
	} else if err := checkKind(context, "numeric type", lhs.Type(), IsNumeric); err != nil {
		return nil, err
	}

	if err := checkType(context, lhs.Type(), rhs.Type()); err != nil {
		return nil, err
	}

	return &Compare{Result: result, Op: op, Lhs: lhs, Rhs: rhs}, nil
}

func (c *Compare) Repr() string {
	return render(c.Result, false, c.Op.String(), c.Lhs.Type(), c.Lhs.Repr(), c.Rhs.Repr())
}

func (c *Compare) Accept(v Visitor) { v.VisitCompare(c) }
func (c *Compare) Def() *Register   { return c.Result }
func (c *Compare) Uses() []Operand  { return []Operand{c.Lhs, c.Rhs} }
func (c *Compare) IsAtomic() bool   { return false }
func (c *Compare) instruction()     {}
