package generate

import (
	"testing"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lc/ir"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}

	return v
}

func findFunc(t *testing.T, m *llir.Module, name string) *llir.Func {
	for _, fn := range m.Funcs {
		if fn.Name() == name {
			return fn
		}
	}

	t.Fatalf("function %s not generated", name)
	return nil
}

// counterBundle mixes atomic memory operations with a branch and a call to a
// unit outside the bundle.
func counterBundle() *ir.Bundle {
	u := ir.NewUnit("sync.bump", ir.PrimI32)
	limit := u.AddParam("limit", ir.PrimI32)

	slot := u.NewRegister("count", ir.PointerType{ElemType: ir.PrimI32})
	u.Append(must(ir.NewStackAlloc(slot, ir.PrimI32)))
	u.Append(must(ir.NewStore(slot, must(ir.NewIntConst(0, ir.PrimI32)), true)))

	old := u.NewRegister("", ir.PrimI32)
	u.Append(must(ir.NewLoad(old, slot, true)))
	next := u.NewRegister("", ir.PrimI32)
	u.Append(must(ir.NewIncrease(next, old, false)))
	u.Append(must(ir.NewStore(slot, next, true)))

	over := u.NewRegister("", ir.PrimBool)
	u.Append(must(ir.NewCompare(over, ir.CmpGt, next, limit)))

	then, end := u.NewLabel("then"), u.NewLabel("end")
	u.Append(must(ir.NewCondJump(over, then, end)))
	u.Append(then, &ir.Return{Value: limit})
	u.Append(end, &ir.Return{Value: next})

	caller := ir.NewUnit("sync.<init>", ir.PrimVoid)
	res := caller.NewRegister("", ir.PrimI32)
	u8 := caller.NewRegister("", ir.PrimU8)
	caller.Append(must(ir.NewInvoke(res, "sync.bump", ir.PrimI32, []ir.Operand{must(ir.NewIntConst(3, ir.PrimI32))})))
	caller.Append(must(ir.NewCast(u8, res)))
	caller.Append(must(ir.NewInvoke(nil, "other.log", ir.PrimVoid, []ir.Operand{u8})))

	b := ir.NewBundle("sync.l")
	b.Units = append(b.Units, u, caller)
	return b
}

func TestGenerateAtomicMemoryOperations(t *testing.T) {
	m, err := Generate(counterBundle())
	require.NoError(t, err)
	assert.Equal(t, "sync.l", m.SourceFilename)

	fn := findFunc(t, m, "sync.bump")
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "limit", fn.Params[0].Name())

	blocks := make([]string, len(fn.Blocks))
	for i, b := range fn.Blocks {
		blocks[i] = b.Name()
	}
	assert.Equal(t, []string{"entry", "then0", "end1"}, blocks)

	var loads, stores int
	for _, inst := range fn.Blocks[0].Insts {
		switch v := inst.(type) {
		case *llir.InstLoad:
			loads++
			assert.True(t, v.Atomic)
			assert.Equal(t, enum.AtomicOrderingSeqCst, v.Ordering)
		case *llir.InstStore:
			stores++
			assert.True(t, v.Atomic)
			assert.Equal(t, enum.AtomicOrderingSeqCst, v.Ordering)
		}
	}
	assert.Equal(t, 1, loads)
	assert.Equal(t, 2, stores)

	_, ok := fn.Blocks[0].Term.(*llir.TermCondBr)
	assert.True(t, ok)
	assert.Contains(t, m.String(), "seq_cst")
}

func TestGenerateDeclaresExternalCallees(t *testing.T) {
	m, err := Generate(counterBundle())
	require.NoError(t, err)

	ext := findFunc(t, m, "other.log")
	assert.Empty(t, ext.Blocks)
	require.Len(t, ext.Params, 1)
	assert.Equal(t, types.I8, ext.Params[0].Type())

	initFn := findFunc(t, m, "sync.<init>")
	require.Len(t, initFn.Blocks, 1)

	var trunc bool
	for _, inst := range initFn.Blocks[0].Insts {
		if _, ok := inst.(*llir.InstTrunc); ok {
			trunc = true
		}
	}
	assert.True(t, trunc, "i32 to u8 narrows")

	_, ok := initFn.Blocks[0].Term.(*llir.TermRet)
	assert.True(t, ok, "void units fall through to a return")
}

func TestGenerateRejectsAtomicRegisterOperations(t *testing.T) {
	u := ir.NewUnit("neg", ir.PrimI32)
	x := u.AddParam("x", ir.PrimI32)
	res := u.NewRegister("t", ir.PrimI32)
	u.Append(must(ir.NewNegate(res, x, true)), &ir.Return{Value: res})

	b := ir.NewBundle("neg.l")
	b.Units = append(b.Units, u)

	_, err := Generate(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generating unit neg")
	assert.Contains(t, err.Error(), "%t = atomic_negate i32%x")
}

func TestGenerateUnreachableCode(t *testing.T) {
	u := ir.NewUnit("early", ir.PrimVoid)
	r := u.NewRegister("", ir.PrimBool)
	u.Append(&ir.Return{})
	u.Append(must(ir.NewNot(r, ir.NewBoolConst(false), false)))

	b := ir.NewBundle("early.l")
	b.Units = append(b.Units, u)

	m, err := Generate(b)
	require.NoError(t, err)

	fn := findFunc(t, m, "early")
	require.Len(t, fn.Blocks, 2)
	assert.Equal(t, "dead0", fn.Blocks[1].Name())
	assert.NotNil(t, fn.Blocks[1].Term)
}

func TestGenerateAtomicIncrementAsReadModifyWrite(t *testing.T) {
	u := ir.NewUnit("sync.tick", ir.PrimU8)
	slot := u.NewRegister("i", ir.PointerType{ElemType: ir.PrimU8})
	u.Append(must(ir.NewStackAlloc(slot, ir.PrimU8)))

	// i++ yields the value read before the increment
	old := u.NewRegister("", ir.PrimU8)
	u.Append(must(ir.NewLoad(old, slot, true)))
	next := u.NewRegister("", ir.PrimU8)
	u.Append(must(ir.NewIncrease(next, old, true)))
	u.Append(must(ir.NewStore(slot, next, true)))

	cur := u.NewRegister("", ir.PrimU8)
	u.Append(must(ir.NewLoad(cur, slot, true)))
	prev := u.NewRegister("", ir.PrimU8)
	u.Append(must(ir.NewDecrease(prev, cur, true)))
	u.Append(must(ir.NewStore(slot, prev, true)))
	u.Append(&ir.Return{Value: old})

	b := ir.NewBundle("sync.l")
	b.Units = append(b.Units, u)

	m, err := Generate(b)
	require.NoError(t, err)

	fn := findFunc(t, m, "sync.tick")
	require.Len(t, fn.Blocks, 1)

	var rmws []*llir.InstAtomicRMW
	for _, inst := range fn.Blocks[0].Insts {
		switch v := inst.(type) {
		case *llir.InstAtomicRMW:
			rmws = append(rmws, v)
			assert.Equal(t, enum.AtomicOrderingSeqCst, v.Ordering)
		case *llir.InstLoad, *llir.InstStore:
			t.Errorf("unexpected memory access: %s", inst.LLString())
		}
	}

	require.Len(t, rmws, 2)
	assert.Equal(t, enum.AtomicOpAdd, rmws[0].Op)
	assert.Equal(t, enum.AtomicOpSub, rmws[1].Op)

	ret, ok := fn.Blocks[0].Term.(*llir.TermRet)
	require.True(t, ok)
	assert.Same(t, rmws[0], ret.X)
}

func TestGenerateAtomicIncrementOfParameterIsRejected(t *testing.T) {
	u := ir.NewUnit("inc", ir.PrimI32)
	x := u.AddParam("x", ir.PrimI32)
	res := u.NewRegister("t", ir.PrimI32)
	u.Append(must(ir.NewIncrease(res, x, true)), &ir.Return{Value: res})

	b := ir.NewBundle("inc.l")
	b.Units = append(b.Units, u)

	_, err := Generate(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "%t = atomic_increase i32%x")
}

func TestGenerateObjectsAndGlobals(t *testing.T) {
	shape := ir.NamedType{Name: "geo.Shape"}
	corners := &ir.ArrayType{ElemType: ir.PrimF64, Len: 4}

	b := ir.NewBundle("geo.l")
	b.Types = append(b.Types, &ir.TypeDef{Name: "geo.Shape", Layout: ir.NewStruct([]ir.Type{ir.PrimI32, corners, shape})})
	total := ir.NewGlobal("geo.total", ir.PrimI32)
	b.Globals = append(b.Globals, total)

	u := ir.NewUnit("geo.Shape.corner", ir.PrimF64)
	this := u.AddParam("this", shape)
	i := u.AddParam("i", ir.PrimI64)

	field := u.NewRegister("", ir.PointerType{ElemType: corners})
	u.Append(must(ir.NewElemPtr(field, this, must(ir.NewIntConst(1, ir.PrimI32)))))
	elem := u.NewRegister("", ir.PointerType{ElemType: ir.PrimF64})
	u.Append(must(ir.NewElemPtr(elem, field, i)))
	val := u.NewRegister("", ir.PrimF64)
	u.Append(must(ir.NewLoad(val, elem, false)))
	u.Append(must(ir.NewStore(total, must(ir.NewIntConst(1, ir.PrimI32)), false)))
	u.Append(&ir.Return{Value: val})
	b.Units = append(b.Units, u)

	m, err := Generate(b)
	require.NoError(t, err)

	require.Len(t, m.TypeDefs, 1)
	st, ok := m.TypeDefs[0].(*types.StructType)
	require.True(t, ok)
	assert.Equal(t, "geo.Shape", st.Name())
	require.Len(t, st.Fields, 3)
	assert.Equal(t, types.NewPointer(st), st.Fields[2], "objects are referenced through pointers")

	require.Len(t, m.Globals, 1)
	assert.Equal(t, "geo.total", m.Globals[0].Name())

	fn := findFunc(t, m, "geo.Shape.corner")
	assert.Equal(t, types.NewPointer(st), fn.Params[0].Type())

	var geps int
	for _, inst := range fn.Blocks[0].Insts {
		if _, ok := inst.(*llir.InstGetElementPtr); ok {
			geps++
		}
	}
	assert.Equal(t, 2, geps)
}

func TestGenerateObjectWithoutLayout(t *testing.T) {
	u := ir.NewUnit("geo.peek", ir.PrimVoid)
	this := u.AddParam("this", ir.NamedType{Name: "geo.Opaque"})
	field := u.NewRegister("", ir.PointerType{ElemType: ir.PrimI32})
	u.Append(must(ir.NewElemPtr(field, this, must(ir.NewIntConst(0, ir.PrimI32)))))

	b := ir.NewBundle("geo.l")
	b.Units = append(b.Units, u)

	_, err := Generate(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object geo.Opaque has no layout")
}
