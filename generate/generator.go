// Package generate bridges lowered IR bundles to LLVM modules built with llir.
package generate

import (
	"fmt"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"

	"lc/ir"
)

// Generator is responsible for converting a bundle of IR units into a single
// LLVM module.  It visits the instructions of each unit in order, opening a new
// basic block at every label.
type Generator struct {
	bundle *ir.Bundle

	// mod is the LLVM module being generated.
	mod *llir.Module

	// funcs maps unit names to their LLVM functions.  Callees which are not
	// part of the bundle are declared on first use.
	funcs map[string]*llir.Func

	// structs maps the names of the objects laid out in the bundle to their
	// LLVM struct types.
	structs map[string]*types.StructType

	// globals maps the names of global variables to their LLVM globals.
	globals map[string]*llir.Global

	// fn is the LLVM function of the unit being generated.
	fn *llir.Func

	// block is the basic block instructions are appended to.
	block *llir.Block

	// values maps the registers of the current unit to their LLVM values.
	values map[*ir.Register]value.Value

	// labels maps label names to their basic blocks.  A block is only placed
	// in the function once its label is reached.
	labels map[string]*llir.Block

	// atomicLoads maps the registers defined by atomic loads of the current
	// unit to the load and its source.
	atomicLoads map[*ir.Register]atomicLoad

	// rmwStores maps the registers computed by an atomic read-modify-write to
	// its destination.  The atomic store of such a register is already done.
	rmwStores map[*ir.Register]ir.Operand

	deadCounter int

	// err is the first error encountered in the current unit.
	err error
}

// NewGenerator creates a new generator for bundle.
func NewGenerator(bundle *ir.Bundle) *Generator {
	return &Generator{
		bundle:  bundle,
		mod:     llir.NewModule(),
		funcs:   make(map[string]*llir.Func),
		structs: make(map[string]*types.StructType),
		globals: make(map[string]*llir.Global),
	}
}

// Generate converts every unit of bundle into an LLVM function.  Atomic loads
// and stores become sequentially consistent memory operations and an atomic
// increment or decrement of a loaded value followed by its atomic store becomes
// an atomicrmw.  Other atomic register operations cannot be expressed in LLVM
// and cause an error.
func Generate(bundle *ir.Bundle) (*llir.Module, error) {
	return NewGenerator(bundle).Generate()
}

// Generate runs the generator.
func (g *Generator) Generate() (*llir.Module, error) {
	g.mod.SourceFilename = g.bundle.File

	// named structs are created before their fields are converted since
	// fields may refer to any object
	for _, td := range g.bundle.Types {
		st := types.NewStruct()
		g.mod.NewTypeDef(td.Name, st)
		g.structs[td.Name] = st
	}

	for _, td := range g.bundle.Types {
		st := g.structs[td.Name]
		for _, field := range td.Layout.Fields {
			st.Fields = append(st.Fields, g.convType(field.Typ))
		}
	}

	for _, glob := range g.bundle.Globals {
		typ := g.convType(glob.ElemType)
		g.globals[glob.Name] = g.mod.NewGlobalDef(glob.Name, constant.NewZeroInitializer(typ))
	}

	// declare all units first so invokes can refer to units defined later
	for _, u := range g.bundle.Units {
		params := make([]*llir.Param, len(u.Params))
		for i, p := range u.Params {
			params[i] = llir.NewParam(p.Name, g.convType(p.Type()))
		}

		g.funcs[u.Name] = g.mod.NewFunc(u.Name, g.convType(u.ReturnType), params...)
	}

	for _, u := range g.bundle.Units {
		if err := g.genUnit(u); err != nil {
			return nil, errors.Wrapf(err, "generating unit %s", u.Name)
		}
	}

	return g.mod, nil
}

// genUnit generates the body of a unit.
func (g *Generator) genUnit(u *ir.Unit) error {
	g.fn = g.funcs[u.Name]
	g.values = make(map[*ir.Register]value.Value)
	g.labels = make(map[string]*llir.Block)
	g.atomicLoads = make(map[*ir.Register]atomicLoad)
	g.rmwStores = make(map[*ir.Register]ir.Operand)
	g.deadCounter = 0
	g.err = nil

	for i, p := range u.Params {
		g.values[p] = g.fn.Params[i]
	}

	g.block = g.fn.NewBlock("entry")

	for _, instr := range u.Instrs {
		instr.Accept(g)

		if g.err != nil {
			return g.err
		}
	}

	// the last block may fall off the end of the unit
	if g.block.Term == nil {
		if ir.IsVoid(u.ReturnType) {
			g.block.NewRet(nil)
		} else {
			g.block.NewUnreachable()
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (g *Generator) fail(format string, args ...interface{}) {
	if g.err == nil {
		g.err = errors.Errorf(format, args...)
	}
}

// cur returns the block to append the next instruction to.  Instructions
// following a terminator without an intervening label are unreachable: they
// are placed in a fresh block.
func (g *Generator) cur() *llir.Block {
	if g.block.Term != nil {
		g.place(llir.NewBlock(fmt.Sprintf("dead%d", g.deadCounter)))
		g.deadCounter++
	}

	return g.block
}

// place appends b to the current function and moves the generator to it.
func (g *Generator) place(b *llir.Block) {
	b.Parent = g.fn
	g.fn.Blocks = append(g.fn.Blocks, b)
	g.block = b
}

// labelBlock returns the basic block of a label.
func (g *Generator) labelBlock(l *ir.Label) *llir.Block {
	if b, ok := g.labels[l.Name]; ok {
		return b
	}

	b := llir.NewBlock(l.Name)
	g.labels[l.Name] = b
	return b
}

// define records the LLVM value of a register.
func (g *Generator) define(reg *ir.Register, val value.Value) {
	if reg.Name != "" {
		if named, ok := val.(value.Named); ok {
			named.SetName(reg.Name)
		}
	}

	g.values[reg] = val
}

// value returns the LLVM value of an operand.
func (g *Generator) value(op ir.Operand) value.Value {
	switch v := op.(type) {
	case *ir.Register:
		if val, ok := g.values[v]; ok {
			return val
		}

		g.fail("register %s used before its definition", v.Repr())
		return constant.NewUndef(g.convType(v.Type()))
	case *ir.Const:
		switch v.Kind {
		case ir.ConstBool:
			return constant.NewBool(v.Bool)
		case ir.ConstFloat:
			return constant.NewFloat(convPrimType(primOf(v.Type())).(*types.FloatType), v.Float)
		default:
			return constant.NewInt(convPrimType(primOf(v.Type())).(*types.IntType), v.Int)
		}
	case *ir.Global:
		if glob, ok := g.globals[v.Name]; ok {
			return glob
		}

		// globals of other bundles are external
		glob := g.mod.NewGlobal(v.Name, g.convType(v.ElemType))
		g.globals[v.Name] = glob
		return glob
	}

	// unreachable
	return nil
}

// function returns the LLVM function named name.  Functions that are not part
// of the bundle are declared with the signature of the call.
func (g *Generator) function(inv *ir.Invoke) *llir.Func {
	if fn, ok := g.funcs[inv.Callee]; ok {
		return fn
	}

	params := make([]*llir.Param, len(inv.Args))
	for i, arg := range inv.Args {
		params[i] = llir.NewParam("", g.convType(arg.Type()))
	}

	fn := g.mod.NewFunc(inv.Callee, g.convType(inv.ReturnType), params...)
	g.funcs[inv.Callee] = fn
	return fn
}
