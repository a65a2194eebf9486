package build

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lc/astyaml"
	"lc/config"
	"lc/depm"
	"lc/ir"
	"lc/report"
)

const geoSource = `
file: geo.l
package: geo
body:
  - object: Shape
    body:
      - var: sides
        type: i32
        init: 4
`

const drawSource = `
file: draw.l
package: draw
body:
  - import: geo.Shape
  - func: render
    params: [{name: s, type: Shape}]
    body:
      - var: n
        init: {binary: "+", lhs: 2, rhs: 3}
`

const brokenSource = `
file: broken.l
package: broken
body:
  - func: ok
    body:
      - var: x
        init: 1
  - func: bad
    body:
      - expr: missing
`

func decode(t *testing.T, sources ...string) []*depm.SourceFile {
	t.Helper()

	files := make([]*depm.SourceFile, len(sources))
	for i, src := range sources {
		sf, err := astyaml.Decode([]byte(src))
		require.NoError(t, err)
		files[i] = sf
	}

	return files
}

func testOptions(workers int) *config.Options {
	opts := config.Default()
	opts.LogLevel = "silent"
	opts.Workers = workers
	return opts
}

func compile(t *testing.T, opts *config.Options, sources ...string) *Result {
	t.Helper()

	res, err := NewCompiler(opts).Compile(context.Background(), decode(t, sources...))
	require.NoError(t, err)
	return res
}

func TestCompileLinksRegardlessOfOrder(t *testing.T) {
	for _, workers := range []int{1, 4} {
		// The importing file comes first: linking waits for every file to be
		// published.
		res := compile(t, testOptions(workers), drawSource, geoSource)

		require.True(t, res.Succeeded, "workers=%d: %v", workers, res.Diagnostics)
		assert.Empty(t, res.Diagnostics)
		require.Len(t, res.Bundles, 2)

		draw, ok := res.Bundle("draw.l")
		require.True(t, ok)
		assert.Same(t, res.Bundles[0], draw)

		render, ok := draw.Unit("draw.render")
		require.True(t, ok)
		require.Len(t, render.Params, 1)
		assert.Equal(t, ir.NamedType{Name: "geo.Shape"}, render.Params[0].Type())

		geo, ok := res.Bundle("geo.l")
		require.True(t, ok)
		_, ok = geo.Unit("geo.Shape.<init>")
		assert.True(t, ok)
	}
}

func TestCompileUnresolvedImportSkipsLowering(t *testing.T) {
	res := compile(t, testOptions(2), drawSource)

	assert.False(t, res.Succeeded)
	assert.Equal(t, []*ir.Bundle{nil}, res.Bundles)

	require.Len(t, res.Diagnostics, 1)
	var upe *report.UnresolvedProxyError
	assert.True(t, errors.As(res.Diagnostics[0], &upe))
}

func TestCompileCrossFileDuplicateSkipsLowering(t *testing.T) {
	res := compile(t, testOptions(2), geoSource, `
file: geo2.l
package: geo
body:
  - object: Shape
`)

	assert.False(t, res.Succeeded)
	assert.Equal(t, []*ir.Bundle{nil, nil}, res.Bundles)

	require.Len(t, res.Diagnostics, 1)
	var dbe *report.DuplicateBindingError
	assert.True(t, errors.As(res.Diagnostics[0], &dbe))
}

func TestCompileRetainsPartialIR(t *testing.T) {
	res := compile(t, testOptions(2), geoSource, brokenSource)

	assert.False(t, res.Succeeded)
	assert.NotNil(t, res.Bundles[0])
	assert.Nil(t, res.Bundles[1])

	require.Len(t, res.Diagnostics, 1)
	var ure *report.UnresolvedReferenceError
	assert.True(t, errors.As(res.Diagnostics[0], &ure))
}

func TestCompileDiscardsAllIRWithoutPartialIR(t *testing.T) {
	opts := testOptions(2)
	opts.RetainPartialIR = false

	res := compile(t, opts, geoSource, brokenSource)

	assert.False(t, res.Succeeded)
	assert.Equal(t, []*ir.Bundle{nil, nil}, res.Bundles)
}

func TestCompileContinueOnErrorKeepsPartialUnits(t *testing.T) {
	opts := testOptions(1)
	opts.ContinueOnError = true

	res := compile(t, opts, brokenSource)

	assert.False(t, res.Succeeded)
	b := res.Bundles[0]
	require.NotNil(t, b)
	assert.True(t, b.Partial())

	bad, ok := b.Unit("broken.bad")
	require.True(t, ok)
	assert.True(t, bad.Partial)
}

func TestCompileParseErrorNodesAreNotFatal(t *testing.T) {
	res := compile(t, testOptions(1), `
file: rough.l
package: rough
body:
  - error: true
  - func: main
`)

	assert.True(t, res.Succeeded)
	require.Len(t, res.Diagnostics, 1)

	var pen *report.ParseErrorNode
	assert.True(t, errors.As(res.Diagnostics[0], &pen))
	assert.NotNil(t, res.Bundles[0])
}

func TestCompileFoldsAndEmitsLLVM(t *testing.T) {
	opts := testOptions(2)
	opts.FoldConstants = true
	opts.EmitLLVM = true

	res := compile(t, opts, drawSource, geoSource)
	require.True(t, res.Succeeded, "%v", res.Diagnostics)

	render, ok := res.Bundles[0].Unit("draw.render")
	require.True(t, ok)
	assert.Contains(t, ir.Print(res.Bundles[0]), "store i32%n, #5")
	for _, instr := range render.Instrs {
		assert.NotContains(t, instr.Repr(), "= add ")
	}

	require.Len(t, res.Modules, 2)
	require.NotNil(t, res.Modules[0])
	assert.Len(t, res.Modules[0].Funcs, 1)
	assert.Equal(t, "draw.l", res.Modules[0].SourceFilename)

	// the imported object is laid out in the importing module too
	require.NotNil(t, res.Modules[1])
	for _, mod := range res.Modules {
		require.Len(t, mod.TypeDefs, 1)
		assert.Equal(t, "geo.Shape", mod.TypeDefs[0].Name())
	}
}

func TestCompileSessions(t *testing.T) {
	c := NewCompiler(testOptions(1))

	first, err := c.Compile(context.Background(), decode(t, geoSource))
	require.NoError(t, err)
	second, err := c.Compile(context.Background(), decode(t, geoSource))
	require.NoError(t, err)

	assert.NotEqual(t, first.Session, second.Session)
	assert.True(t, second.Succeeded)
}

func TestCompileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCompiler(testOptions(1)).Compile(ctx, decode(t, geoSource))
	assert.ErrorIs(t, err, context.Canceled)
}
