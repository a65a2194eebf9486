package ir

import "fmt"

// Unit is one lowered body: a function, the initializer of an object or the
// top-level statements of a file.
type Unit struct {
	// Name is the qualified name of the unit.
	Name string

	Params     []*Register
	ReturnType Type

	Instrs []Instruction

	// Partial indicates that some statements of the body could not be lowered
	// and have been left out.
	Partial bool

	nextRegID   int
	nextLabelID int
	regNames    map[string]int
}

// NewUnit creates a new empty unit.
func NewUnit(name string, returnType Type) *Unit {
	return &Unit{
		Name:       name,
		ReturnType: returnType,
		regNames:   make(map[string]int),
	}
}

// NewRegister allocates a new register of typ.  Registers are numbered in the
// order they are allocated.  If name is not empty, it is used to render the
// register: names already in use are suffixed to keep them unique.
func (u *Unit) NewRegister(name string, typ Type) *Register {
	id := u.nextRegID
	u.nextRegID++

	if name != "" {
		if n, ok := u.regNames[name]; ok {
			u.regNames[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			u.regNames[name] = 1
		}
	}

	return NewRegister(id, name, typ)
}

// AddParam allocates a register for a parameter of the unit.
func (u *Unit) AddParam(name string, typ Type) *Register {
	reg := u.NewRegister(name, typ)
	u.Params = append(u.Params, reg)
	return reg
}

// NewLabel creates a new label unique within the unit.  It is not placed: use
// Append to place it.
func (u *Unit) NewLabel(hint string) *Label {
	id := u.nextLabelID
	u.nextLabelID++

	return &Label{Name: fmt.Sprintf("%s%d", hint, id)}
}

// Append appends instructions to the unit.
func (u *Unit) Append(instrs ...Instruction) {
	u.Instrs = append(u.Instrs, instrs...)
}

// Terminated returns whether the last instruction of the unit leaves the
// current block.
func (u *Unit) Terminated() bool {
	if len(u.Instrs) == 0 {
		return false
	}

	tc := &terminatorCheck{}
	u.Instrs[len(u.Instrs)-1].Accept(tc)
	return tc.terminates
}

type terminatorCheck struct {
	BaseVisitor
	terminates bool
}

func (tc *terminatorCheck) VisitGoto(*Goto)         { tc.terminates = true }
func (tc *terminatorCheck) VisitCondJump(*CondJump) { tc.terminates = true }
func (tc *terminatorCheck) VisitReturn(*Return)     { tc.terminates = true }

// -----------------------------------------------------------------------------

// TypeDef binds the full name of an object to the layout of its fields.
type TypeDef struct {
	Name   string
	Layout *StructType
}

func (td *TypeDef) Repr() string {
	return "type " + NamedType{Name: td.Name}.Repr() + " = " + td.Layout.Repr()
}

// Bundle is the IR of one source file: its units in a deterministic order.
type Bundle struct {
	// File is the name of the source file the bundle was lowered from.
	File string

	// Types holds the layouts of the objects the bundle refers to.
	Types []*TypeDef

	// Globals holds the file-level variables of the source file.
	Globals []*Global

	Units []*Unit
}

// TypeDef returns the type definition of the object named name.
func (b *Bundle) TypeDef(name string) (*TypeDef, bool) {
	for _, td := range b.Types {
		if td.Name == name {
			return td, true
		}
	}

	return nil, false
}

// Global returns the global variable named name.
func (b *Bundle) Global(name string) (*Global, bool) {
	for _, g := range b.Globals {
		if g.Name == name {
			return g, true
		}
	}

	return nil, false
}

// NewBundle creates a new empty bundle for file.
func NewBundle(file string) *Bundle {
	return &Bundle{File: file}
}

// Unit returns the unit named name.
func (b *Bundle) Unit(name string) (*Unit, bool) {
	for _, u := range b.Units {
		if u.Name == name {
			return u, true
		}
	}

	return nil, false
}

// Partial returns whether any unit of the bundle is partial.
func (b *Bundle) Partial() bool {
	for _, u := range b.Units {
		if u.Partial {
			return true
		}
	}

	return false
}
