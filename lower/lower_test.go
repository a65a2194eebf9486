package lower

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lc/ast"
	"lc/depm"
	"lc/ir"
	"lc/report"
	"lc/resolve"
)

func typ(name string) ast.TypeRef {
	return ast.TypeRef{Name: name}
}

func ident(name string) *ast.Ident {
	return ast.NewIdent(name, nil)
}

func intLit(v int64) *ast.IntLit {
	return ast.NewIntLit(v, "", nil)
}

// shapesFile builds:
//
//	package geo
//	var total = 10
//	class Shape {
//	    var sides: i32 = 4
//	    func area(w: i32, h: i32) i32 {
//	        var a = w * h
//	        if a > 100 { return 100 }
//	        return a * sides
//	    }
//	}
//	func tick(n: i32) {
//	    while n > 0 { n-- }
//	    var neg = atomic -n
//	    atomic total++
//	}
func shapesFile() *depm.SourceFile {
	sf := depm.NewSourceFile("geo.l", "geo", nil)
	tree := sf.Tree

	tree.AddVarDecl(sf.Body(), "total", ast.TypeRef{}, intLit(10), nil)

	shape := tree.AddObjectDecl(sf.Body(), "Shape", ast.ObjectClass, nil)
	tree.AddVarDecl(shape.Body, "sides", typ("i32"), intLit(4), nil)

	area := tree.AddFuncDecl(shape.Body, "area", []ast.Param{
		{Name: "w", Type: typ("i32")},
		{Name: "h", Type: typ("i32")},
	}, typ("i32"), nil)
	tree.AddVarDecl(area.Body, "a", ast.TypeRef{}, ast.NewBinary(ast.OpMul, ident("w"), ident("h"), false, nil), nil)
	ifs := tree.AddIf(area.Body, ast.NewBinary(ast.OpGt, ident("a"), intLit(100), false, nil), false, nil)
	tree.AddReturn(ifs.Then, intLit(100), nil)
	tree.AddReturn(area.Body, ast.NewBinary(ast.OpMul, ident("a"), ident("sides"), false, nil), nil)

	tick := tree.AddFuncDecl(sf.Body(), "tick", []ast.Param{{Name: "n", Type: typ("i32")}}, ast.TypeRef{}, nil)
	loop := tree.AddWhile(tick.Body, ast.NewBinary(ast.OpGt, ident("n"), intLit(0), false, nil), nil)
	tree.AddExprStmt(loop.Body, ast.NewUnary(ast.OpPostDec, ident("n"), false, nil), nil)
	tree.AddVarDecl(tick.Body, "neg", ast.TypeRef{}, ast.NewUnary(ast.OpNeg, ident("n"), true, nil), nil)
	tree.AddExprStmt(tick.Body, ast.NewUnary(ast.OpPostInc, ident("total"), true, nil), nil)

	return sf
}

func lowerResolved(t *testing.T, sf *depm.SourceFile, opts Options) (*ir.Bundle, error) {
	t.Helper()
	require.NoError(t, resolve.ResolveLocal(sf))
	return LowerFile(sf, opts)
}

func TestLowerGolden(t *testing.T) {
	b, err := lowerResolved(t, shapesFile(), Options{})
	require.NoError(t, err)

	names := make([]string, len(b.Units))
	for i, u := range b.Units {
		names[i] = u.Name
	}
	assert.Equal(t, []string{"geo.<init>", "geo.Shape.<init>", "geo.Shape.area", "geo.tick"}, names)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "lower_shapes", []byte(ir.Print(b)))
}

func TestLowerIsDeterministic(t *testing.T) {
	sf := shapesFile()

	first, err := lowerResolved(t, sf, Options{})
	require.NoError(t, err)

	second, err := LowerFile(sf, Options{})
	require.NoError(t, err)

	assert.Equal(t, ir.Print(first), ir.Print(second))
}

// negateCounter records every negate instruction of a unit.
type negateCounter struct {
	ir.BaseVisitor
	negates []*ir.Negate
}

func (nc *negateCounter) VisitNegate(n *ir.Negate) {
	nc.negates = append(nc.negates, n)
}

func TestLowerNegateAtomicity(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		sf := depm.NewSourceFile("neg.l", "", nil)
		fn := sf.Tree.AddFuncDecl(sf.Body(), "f", []ast.Param{{Name: "x", Type: typ("i32")}}, typ("i32"), nil)
		sf.Tree.AddReturn(fn.Body, ast.NewUnary(ast.OpNeg, ident("x"), atomic, nil), nil)

		b, err := lowerResolved(t, sf, Options{})
		require.NoError(t, err)

		u, ok := b.Unit("f")
		require.True(t, ok)

		nc := &negateCounter{}
		ir.Walk(u, nc)

		require.Len(t, nc.negates, 1)
		assert.Equal(t, atomic, nc.negates[0].IsAtomic())
		assert.True(t, ir.TypeEqual(ir.PrimI32, nc.negates[0].Result.Type()))

		// the operand is the register holding the lowered operand
		assert.Same(t, nc.negates[0].Operand, u.Instrs[len(u.Instrs)-3].Def())
	}
}

func TestLowerContinuesPastUnresolvedReferences(t *testing.T) {
	build := func() *depm.SourceFile {
		sf := depm.NewSourceFile("main.l", "", nil)
		fn := sf.Tree.AddFuncDecl(sf.Body(), "main", nil, ast.TypeRef{}, nil)
		sf.Tree.AddVarDecl(fn.Body, "a", ast.TypeRef{}, intLit(1), nil)
		sf.Tree.AddExprStmt(fn.Body, ast.NewAssign(ident("a"), ast.NewBinary(ast.OpAdd, ident("a"), ident("missing"), false, nil), false, nil), nil)
		sf.Tree.AddVarDecl(fn.Body, "b", ast.TypeRef{}, ident("a"), nil)
		return sf
	}

	b, err := lowerResolved(t, build(), Options{ContinueOnError: true})
	require.Error(t, err)

	var ure *report.UnresolvedReferenceError
	require.True(t, errors.As(err, &ure))
	assert.Equal(t, "missing", ure.Name)
	assert.Equal(t, "main.l", ure.File)

	u, ok := b.Unit("main")
	require.True(t, ok)
	assert.True(t, u.Partial)
	assert.Equal(t, []string{
		"%a = stack_alloc i32",
		"store i32%a, #1",
		"%2 = load i32%a",
		"%b = stack_alloc i32",
		"store i32%b, %2",
		"return void",
	}, reprs(u))

	// Without recovery, the unit is abandoned.
	b, err = lowerResolved(t, build(), Options{})
	require.True(t, errors.As(err, &ure))
	_, ok = b.Unit("main")
	assert.False(t, ok)
}

func reprs(u *ir.Unit) []string {
	strs := make([]string, len(u.Instrs))
	for i, instr := range u.Instrs {
		strs[i] = instr.Repr()
	}

	return strs
}

func TestLowerRefusesUnresolvedProxies(t *testing.T) {
	sf := depm.NewSourceFile("draw.l", "draw", nil)
	sf.Tree.AddImport(sf.Body(), "shapes.Shape", "", nil)

	b, err := lowerResolved(t, sf, Options{})
	assert.Nil(t, b)

	var upe *report.UnresolvedProxyError
	require.True(t, errors.As(err, &upe))
	assert.Equal(t, "shapes.Shape", upe.Path)
}

func TestLowerRequiresResolution(t *testing.T) {
	_, err := LowerFile(depm.NewSourceFile("x.l", "", nil), Options{})
	assert.Error(t, err)
}

func TestLowerUsesImportedTypes(t *testing.T) {
	shapes := depm.NewSourceFile("shapes.l", "shapes", nil)
	shapes.Tree.AddObjectDecl(shapes.Body(), "Shape", ast.ObjectClass, nil)

	draw := depm.NewSourceFile("draw.l", "draw", nil)
	draw.Tree.AddImport(draw.Body(), "shapes.Shape", "S", nil)
	draw.Tree.AddFuncDecl(draw.Body(), "render", []ast.Param{{Name: "s", Type: typ("S")}}, ast.TypeRef{}, nil)

	require.NoError(t, resolve.ResolveLocal(shapes))
	require.NoError(t, resolve.ResolveLocal(draw))

	l := resolve.NewLinker()
	require.NoError(t, l.Publish(shapes))
	require.NoError(t, l.Publish(draw))
	require.NoError(t, l.Link(draw))

	b, err := LowerFile(draw, Options{})
	require.NoError(t, err)

	u, ok := b.Unit("draw.render")
	require.True(t, ok)
	require.Len(t, u.Params, 1)
	assert.Equal(t, "%shapes.Shape", u.Params[0].Type().Repr())
}

func TestLowerTypeMismatchAbandonsUnit(t *testing.T) {
	span := &report.TextSpan{StartLine: 2, StartCol: 4}

	sf := depm.NewSourceFile("bad.l", "", nil)
	fn := sf.Tree.AddFuncDecl(sf.Body(), "f", nil, ast.TypeRef{}, nil)
	sf.Tree.AddVarDecl(fn.Body, "x", typ("i32"), ast.NewBoolLit(true, span), span)
	sf.Tree.AddFuncDecl(sf.Body(), "g", nil, ast.TypeRef{}, nil)

	b, err := lowerResolved(t, sf, Options{ContinueOnError: true})

	var tme *report.TypeMismatchError
	require.True(t, errors.As(err, &tme))
	assert.Equal(t, "bad.l", tme.File)
	assert.Equal(t, "bad.l:3:5: type mismatch in store: expected `i32` but found `bool`", tme.Error())
	assert.True(t, report.IsFatal(err))

	_, ok := b.Unit("f")
	assert.False(t, ok)

	// unrelated units are still lowered
	_, ok = b.Unit("g")
	assert.True(t, ok)
}

func TestLowerShadowingInBlocks(t *testing.T) {
	sf := depm.NewSourceFile("main.l", "", nil)
	fn := sf.Tree.AddFuncDecl(sf.Body(), "main", nil, ast.TypeRef{}, nil)
	sf.Tree.AddVarDecl(fn.Body, "x", ast.TypeRef{}, intLit(1), nil)
	block := sf.Tree.AddBlockStmt(fn.Body, nil)
	sf.Tree.AddVarDecl(block.Body, "x", typ("i64"), ast.NewCast("i64", ident("x"), nil), nil)
	sf.Tree.AddExprStmt(fn.Body, ast.NewAssign(ident("x"), intLit(2), true, nil), nil)

	b, err := lowerResolved(t, sf, Options{})
	require.NoError(t, err)

	u, _ := b.Unit("main")
	assert.Equal(t, []string{
		"%x = stack_alloc i32",
		"store i32%x, #1",
		"%1 = load i32%x",
		"%2 = cast i64%1",
		"%x.1 = stack_alloc i64",
		"store i64%x.1, %2",
		"atomic_store i32%x, #2",
		"return void",
	}, reprs(u))
}

func TestLowerSkipsErrorNodes(t *testing.T) {
	sf := depm.NewSourceFile("main.l", "", nil)
	fn := sf.Tree.AddFuncDecl(sf.Body(), "main", nil, ast.TypeRef{}, nil)

	bad := sf.Tree.AddExprStmt(fn.Body, ident("whatever"), nil)
	bad.MarkError()

	badExpr := ident("nope")
	badExpr.MarkError()
	sf.Tree.AddExprStmt(fn.Body, ast.NewUnary(ast.OpNeg, badExpr, false, nil), nil)

	broken := sf.Tree.AddObjectDecl(sf.Body(), "Broken", ast.ObjectClass, nil)
	broken.MarkError()
	sf.Tree.AddVarDecl(broken.Body, "x", ast.TypeRef{}, intLit(1), nil)

	require.Error(t, resolve.ResolveLocal(sf))
	b, err := LowerFile(sf, Options{})
	require.NoError(t, err)

	require.Len(t, b.Units, 1)
	assert.Equal(t, []string{"return void"}, reprs(b.Units[0]))
}

func TestLowerCallsAndIncrements(t *testing.T) {
	sf := depm.NewSourceFile("calc.l", "calc", nil)
	sq := sf.Tree.AddFuncDecl(sf.Body(), "square", []ast.Param{{Name: "v", Type: typ("f64")}}, typ("f64"), nil)
	sf.Tree.AddReturn(sq.Body, ast.NewBinary(ast.OpMul, ident("v"), ident("v"), false, nil), nil)

	main := sf.Tree.AddFuncDecl(sf.Body(), "main", nil, ast.TypeRef{}, nil)
	sf.Tree.AddVarDecl(main.Body, "r", ast.TypeRef{}, ast.NewCall(ident("square"), []ast.Expr{intLit(3)}, nil), nil)
	sf.Tree.AddVarDecl(main.Body, "i", typ("u8"), intLit(0), nil)
	sf.Tree.AddExprStmt(main.Body, ast.NewUnary(ast.OpPreInc, ident("i"), true, nil), nil)
	sf.Tree.AddExprStmt(main.Body, ast.NewCall(ident("main"), nil, nil), nil)

	b, err := lowerResolved(t, sf, Options{})
	require.NoError(t, err)

	u, ok := b.Unit("calc.main")
	require.True(t, ok)
	assert.Equal(t, []string{
		"%0 = invoke f64@calc.square, #3",
		"%r = stack_alloc f64",
		"store f64%r, %0",
		"%i = stack_alloc u8",
		"store u8%i, #0",
		"%3 = atomic_load u8%i",
		"%4 = atomic_increase u8%3",
		"atomic_store u8%i, %4",
		"invoke void@calc.main",
		"return void",
	}, reprs(u))

	// wrong arity
	sf.Tree.AddExprStmt(main.Body, ast.NewCall(ident("square"), nil, nil), nil)
	_, err = lowerResolved(t, sf, Options{})
	var tme *report.TypeMismatchError
	assert.True(t, errors.As(err, &tme))
}

func TestLowerMethodsUseFieldsOfReceiver(t *testing.T) {
	sf := depm.NewSourceFile("count.l", "count", nil)
	counter := sf.Tree.AddObjectDecl(sf.Body(), "Counter", ast.ObjectClass, nil)
	sf.Tree.AddVarDecl(counter.Body, "hits", typ("i64"), nil, nil)
	bump := sf.Tree.AddFuncDecl(counter.Body, "bump", nil, typ("i64"), nil)
	sf.Tree.AddExprStmt(bump.Body, ast.NewUnary(ast.OpPreInc, ident("hits"), false, nil), nil)
	sf.Tree.AddReturn(bump.Body, ident("hits"), nil)

	b, err := lowerResolved(t, sf, Options{})
	require.NoError(t, err)

	// a field without initializer needs no init unit
	_, ok := b.Unit("count.Counter.<init>")
	assert.False(t, ok)

	td, ok := b.TypeDef("count.Counter")
	require.True(t, ok)
	assert.Equal(t, "struct[i64]", td.Layout.Repr())

	u, ok := b.Unit("count.Counter.bump")
	require.True(t, ok)
	require.Len(t, u.Params, 1)
	assert.Equal(t, ir.NamedType{Name: "count.Counter"}, u.Params[0].Type())
	assert.Equal(t, []string{
		"%1 = elem_ptr ptr[i64]%this, #0",
		"%2 = load i64%1",
		"%3 = increase i64%2",
		"store i64%1, %3",
		"%4 = elem_ptr ptr[i64]%this, #0",
		"%5 = load i64%4",
		"return i64%5",
	}, reprs(u))
}

func TestLowerFunctionsUseGlobals(t *testing.T) {
	sf := depm.NewSourceFile("limits.l", "limits", nil)
	get := sf.Tree.AddFuncDecl(sf.Body(), "get", nil, typ("u8"), nil)
	sf.Tree.AddReturn(get.Body, ident("limit"), nil)
	set := sf.Tree.AddFuncDecl(sf.Body(), "set", []ast.Param{{Name: "v", Type: typ("u8")}}, ast.TypeRef{}, nil)
	sf.Tree.AddExprStmt(set.Body, ast.NewAssign(ident("limit"), ident("v"), true, nil), nil)

	// declared after its uses
	sf.Tree.AddVarDecl(sf.Body(), "limit", typ("u8"), intLit(3), nil)

	b, err := lowerResolved(t, sf, Options{})
	require.NoError(t, err)

	g, ok := b.Global("limits.limit")
	require.True(t, ok)
	assert.Equal(t, ir.PrimU8, g.ElemType)

	init, ok := b.Unit("limits.<init>")
	require.True(t, ok)
	assert.Equal(t, []string{"store u8@limits.limit, #3", "return void"}, reprs(init))

	u, _ := b.Unit("limits.get")
	assert.Equal(t, []string{"%0 = load u8@limits.limit", "return u8%0"}, reprs(u))

	u, _ = b.Unit("limits.set")
	assert.Equal(t, []string{
		"%v.addr = stack_alloc u8",
		"store u8%v.addr, %v",
		"%2 = load u8%v.addr",
		"atomic_store u8@limits.limit, %2",
		"return void",
	}, reprs(u))
}

func TestLowerGlobalNeedsStaticType(t *testing.T) {
	sf := depm.NewSourceFile("g.l", "g", nil)
	two := sf.Tree.AddFuncDecl(sf.Body(), "two", nil, typ("i32"), nil)
	sf.Tree.AddReturn(two.Body, intLit(2), nil)
	sf.Tree.AddVarDecl(sf.Body(), "n", ast.TypeRef{}, ast.NewCall(ident("two"), nil, nil), nil)
	sf.Tree.AddVarDecl(sf.Body(), "f", ast.TypeRef{}, ast.NewFloatLit(0.5, "f32", nil), nil)

	b, err := lowerResolved(t, sf, Options{})

	var tme *report.TypeMismatchError
	require.True(t, errors.As(err, &tme))
	assert.Equal(t, "type mismatch in declaration of `n`: expected `type label or literal initializer` but found `neither`", tme.Message)

	require.Len(t, b.Globals, 1)
	assert.Equal(t, "g.f", b.Globals[0].Name)
	assert.Equal(t, ir.PrimF32, b.Globals[0].ElemType)

	// the init unit cannot store into the missing global
	_, ok := b.Unit("g.<init>")
	assert.False(t, ok)
	_, ok = b.Unit("g.two")
	assert.True(t, ok)
}

func TestLowerMemberAccessAndIndex(t *testing.T) {
	sf := depm.NewSourceFile("grid.l", "grid", nil)
	grid := sf.Tree.AddObjectDecl(sf.Body(), "Grid", ast.ObjectRecord, nil)
	sf.Tree.AddVarDecl(grid.Body, "cells", typ("i32[4]"), nil, nil)

	fn := sf.Tree.AddFuncDecl(sf.Body(), "fill", []ast.Param{{Name: "g", Type: typ("Grid")}}, typ("i32"), nil)
	cells := func() ast.Expr { return ast.NewMemberAccess(ident("g"), "cells", nil) }
	sf.Tree.AddExprStmt(fn.Body, ast.NewAssign(ast.NewIndex(cells(), intLit(0), nil), intLit(7), false, nil), nil)
	sf.Tree.AddReturn(fn.Body, ast.NewIndex(cells(), intLit(1), nil), nil)

	b, err := lowerResolved(t, sf, Options{})
	require.NoError(t, err)

	require.Len(t, b.Types, 1)
	assert.Equal(t, "type %grid.Grid = struct[[i32 * 4]]", b.Types[0].Repr())

	u, ok := b.Unit("grid.fill")
	require.True(t, ok)
	assert.Equal(t, []string{
		"%g.addr = stack_alloc %grid.Grid",
		"store %grid.Grid%g.addr, %g",
		"%2 = load %grid.Grid%g.addr",
		"%3 = elem_ptr ptr[[i32 * 4]]%2, #0",
		"%4 = elem_ptr ptr[i32]%3, #0",
		"store i32%4, #7",
		"%5 = load %grid.Grid%g.addr",
		"%6 = elem_ptr ptr[[i32 * 4]]%5, #0",
		"%7 = elem_ptr ptr[i32]%6, #1",
		"%8 = load i32%7",
		"return i32%8",
	}, reprs(u))
}

func TestLowerMemberErrors(t *testing.T) {
	tests := []struct {
		name string
		expr func() ast.Expr
		err  string
	}{
		{
			"unknown field",
			func() ast.Expr { return ast.NewMemberAccess(ident("p"), "z", nil) },
			"undefined symbol: `pt.Point.z`",
		},
		{
			"field of number",
			func() ast.Expr { return ast.NewMemberAccess(ident("n"), "x", nil) },
			"type mismatch in access of `x`: expected `object` but found `i32`",
		},
		{
			"index of field",
			func() ast.Expr { return ast.NewIndex(ast.NewMemberAccess(ident("p"), "x", nil), intLit(0), nil) },
			"type mismatch in indexed expression: expected `array` but found `f64`",
		},
		{
			"index of call",
			func() ast.Expr { return ast.NewIndex(ast.NewCall(ident("f"), nil, nil), intLit(0), nil) },
			"type mismatch in indexed expression: expected `variable, field or element` but found `expression`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf := depm.NewSourceFile("pt.l", "pt", nil)
			point := sf.Tree.AddObjectDecl(sf.Body(), "Point", ast.ObjectRecord, nil)
			sf.Tree.AddVarDecl(point.Body, "x", typ("f64"), nil, nil)

			fn := sf.Tree.AddFuncDecl(sf.Body(), "f", []ast.Param{
				{Name: "p", Type: typ("Point")},
				{Name: "n", Type: typ("i32")},
			}, ast.TypeRef{}, nil)
			sf.Tree.AddExprStmt(fn.Body, tt.expr(), nil)

			_, err := lowerResolved(t, sf, Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestLowerMethodCallsPassReceiver(t *testing.T) {
	sf := depm.NewSourceFile("acc.l", "acc", nil)
	acc := sf.Tree.AddObjectDecl(sf.Body(), "Acc", ast.ObjectClass, nil)
	add := sf.Tree.AddFuncDecl(acc.Body, "add", []ast.Param{{Name: "n", Type: typ("i32")}}, typ("i32"), nil)
	sf.Tree.AddReturn(add.Body, ident("n"), nil)
	twice := sf.Tree.AddFuncDecl(acc.Body, "twice", nil, typ("i32"), nil)
	sf.Tree.AddReturn(twice.Body, ast.NewCall(ident("add"), []ast.Expr{intLit(2)}, nil), nil)

	use := sf.Tree.AddFuncDecl(sf.Body(), "use", []ast.Param{{Name: "a", Type: typ("Acc")}}, typ("i32"), nil)
	sf.Tree.AddReturn(use.Body, ast.NewMethodCall(ident("a"), ident("add"), []ast.Expr{intLit(3)}, nil), nil)

	b, err := lowerResolved(t, sf, Options{})
	require.NoError(t, err)

	u, _ := b.Unit("acc.Acc.twice")
	assert.Equal(t, []string{"%1 = invoke i32@acc.Acc.add, %this, #2", "return i32%1"}, reprs(u))

	u, _ = b.Unit("acc.use")
	assert.Equal(t, []string{
		"%a.addr = stack_alloc %acc.Acc",
		"store %acc.Acc%a.addr, %a",
		"%2 = load %acc.Acc%a.addr",
		"%3 = invoke i32@acc.Acc.add, %2, #3",
		"return i32%3",
	}, reprs(u))

	// methods are only found on objects
	sf.Tree.AddExprStmt(use.Body, ast.NewMethodCall(ident("a"), ident("sub"), nil, nil), nil)
	_, err = lowerResolved(t, sf, Options{})
	var ure *report.UnresolvedReferenceError
	require.True(t, errors.As(err, &ure))
	assert.Equal(t, "acc.Acc.sub", ure.Name)
}

func TestLowerMembersOfEnclosingObjectNeedReceiver(t *testing.T) {
	sf := depm.NewSourceFile("nest.l", "nest", nil)
	outer := sf.Tree.AddObjectDecl(sf.Body(), "Outer", ast.ObjectClass, nil)
	sf.Tree.AddVarDecl(outer.Body, "count", typ("i32"), nil, nil)
	sf.Tree.AddFuncDecl(outer.Body, "reset", nil, ast.TypeRef{}, nil)
	inner := sf.Tree.AddObjectDecl(outer.Body, "Inner", ast.ObjectClass, nil)
	peek := sf.Tree.AddFuncDecl(inner.Body, "peek", nil, typ("i32"), nil)
	sf.Tree.AddReturn(peek.Body, ident("count"), nil)
	wipe := sf.Tree.AddFuncDecl(inner.Body, "wipe", nil, ast.TypeRef{}, nil)
	sf.Tree.AddExprStmt(wipe.Body, ast.NewCall(ident("reset"), nil, nil), nil)

	b, err := lowerResolved(t, sf, Options{})

	var errs report.ErrorList
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 2)

	var tme *report.TypeMismatchError
	require.True(t, errors.As(errs[0], &tme))
	assert.Equal(t, "receiver of type %nest.Outer", tme.Expected)
	assert.Equal(t, "%nest.Outer.Inner", tme.Found)

	require.True(t, errors.As(errs[1], &tme))
	assert.Equal(t, "type mismatch in call of `reset`: expected `receiver of type %nest.Outer` but found `no receiver`", tme.Message)

	_, ok := b.Unit("nest.Outer.reset")
	assert.True(t, ok)
	_, ok = b.Unit("nest.Outer.Inner.peek")
	assert.False(t, ok)
}

func TestLowerIntLiteralOutOfRange(t *testing.T) {
	span := &report.TextSpan{StartLine: 4, StartCol: 12, EndLine: 4, EndCol: 15}

	sf := depm.NewSourceFile("lit.l", "", nil)
	fn := sf.Tree.AddFuncDecl(sf.Body(), "f", nil, ast.TypeRef{}, nil)
	sf.Tree.AddVarDecl(fn.Body, "b", typ("u8"), ast.NewIntLit(300, "", span), nil)

	_, err := lowerResolved(t, sf, Options{})

	var tme *report.TypeMismatchError
	require.True(t, errors.As(err, &tme))
	assert.Same(t, span, tme.Span)
	assert.Equal(t, "u8 in [0, 255]", tme.Expected)
	assert.Equal(t, "300", tme.Found)
}

func TestLowerArrayLabels(t *testing.T) {
	tests := []struct {
		label string
		repr  string
		err   string
	}{
		{"bool[3]", "[bool * 3]", ""},
		{"f32[2][5]", "[[f32 * 2] * 5]", ""},
		{"i32[0]", "", "expected `positive integer` but found `0`"},
		{"i32[n]", "", "expected `positive integer` but found `n`"},
		{"void[2]", "", "expected `a value type` but found `void`"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			sf := depm.NewSourceFile("arr.l", "", nil)
			fn := sf.Tree.AddFuncDecl(sf.Body(), "f", nil, ast.TypeRef{}, nil)
			sf.Tree.AddVarDecl(fn.Body, "a", typ(tt.label), nil, nil)

			b, err := lowerResolved(t, sf, Options{})
			if tt.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.err)
				return
			}

			require.NoError(t, err)
			u, _ := b.Unit("f")
			assert.Equal(t, "%a = stack_alloc "+tt.repr, u.Instrs[0].Repr())
		})
	}
}

func TestLowerImportedMembers(t *testing.T) {
	shapes := depm.NewSourceFile("shapes.l", "shapes", nil)
	shape := shapes.Tree.AddObjectDecl(shapes.Body(), "Shape", ast.ObjectClass, nil)
	shapes.Tree.AddVarDecl(shape.Body, "sides", typ("i32"), intLit(4), nil)
	area := shapes.Tree.AddFuncDecl(shape.Body, "area", nil, typ("i32"), nil)
	shapes.Tree.AddReturn(area.Body, ident("sides"), nil)

	draw := depm.NewSourceFile("draw.l", "draw", nil)
	draw.Tree.AddImport(draw.Body(), "shapes.Shape", "S", nil)
	render := draw.Tree.AddFuncDecl(draw.Body(), "render", []ast.Param{{Name: "s", Type: typ("S")}}, typ("i32"), nil)
	draw.Tree.AddReturn(render.Body, ast.NewBinary(ast.OpAdd,
		ast.NewMethodCall(ident("s"), ident("area"), nil, nil),
		ast.NewMemberAccess(ident("s"), "sides", nil),
		false, nil,
	), nil)

	require.NoError(t, resolve.ResolveLocal(shapes))
	require.NoError(t, resolve.ResolveLocal(draw))

	l := resolve.NewLinker()
	require.NoError(t, l.Publish(shapes))
	require.NoError(t, l.Publish(draw))
	require.NoError(t, l.Link(draw))

	b, err := LowerFile(draw, Options{})
	require.NoError(t, err)

	require.Len(t, b.Types, 1)
	assert.Equal(t, "type %shapes.Shape = struct[i32]", b.Types[0].Repr())

	u, ok := b.Unit("draw.render")
	require.True(t, ok)
	assert.Equal(t, []string{
		"%s.addr = stack_alloc %shapes.Shape",
		"store %shapes.Shape%s.addr, %s",
		"%2 = load %shapes.Shape%s.addr",
		"%3 = invoke i32@shapes.Shape.area, %2",
		"%4 = load %shapes.Shape%s.addr",
		"%5 = elem_ptr ptr[i32]%4, #0",
		"%6 = load i32%5",
		"%7 = add i32%3, %6",
		"return i32%7",
	}, reprs(u))
}
