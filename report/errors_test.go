package report

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileErrorMessage(t *testing.T) {
	span := &TextSpan{StartLine: 4, StartCol: 2, EndLine: 4, EndCol: 7}

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"file and span", NewUnresolvedReference("a.l", span, "x"), "a.l:5:3: undefined symbol: `x`"},
		{"file only", NewNotFound("a.l", "object declaration", "pkg.A"), "a.l: no object declaration named `pkg.A`"},
		{"no context", NewTypeMismatch("operand of negate", "i32", "f64"), "type mismatch in operand of negate: expected `i32` but found `f64`"},
		{"proxy", NewUnresolvedProxy("b.l", span, "pkg.A", "no such declaration"), "b.l:5:3: unable to import `pkg.A`: no such declaration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDuplicateBindingMentionsPrevious(t *testing.T) {
	prev := &TextSpan{StartLine: 0, StartCol: 0}
	err := NewDuplicateBinding("a.l", &TextSpan{StartLine: 2}, "A", prev)

	assert.Equal(t, "a.l:3:1: symbol `A` is already defined in this scope (previous definition at 1:1)", err.Error())
	assert.Equal(t, KindDuplicateBinding, err.Kind)
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(NewParseErrorNode("a.l", nil, "statement")))
	assert.True(t, IsFatal(NewUnresolvedReference("a.l", nil, "x")))
	assert.True(t, IsFatal(errors.New("io failure")))

	wrapped := fmt.Errorf("lowering: %w", NewTypeMismatch("x", "i32", "bool"))
	assert.True(t, IsFatal(wrapped))

	var el ErrorList
	el.Add(NewParseErrorNode("a.l", nil, "statement"))
	assert.False(t, IsFatal(el.Err()))

	el.Add(NewDuplicateBinding("a.l", nil, "A", nil))
	assert.True(t, IsFatal(el.Err()))
}

func TestErrorListFlattensAndUnwraps(t *testing.T) {
	var inner ErrorList
	inner.Add(NewUnresolvedReference("a.l", nil, "x"))
	inner.Add(nil)

	var outer ErrorList
	outer.Add(inner)
	outer.Add(NewNotFound("a.l", "object declaration", "B"))

	require.Len(t, outer, 2)
	assert.Nil(t, ErrorList(nil).Err())

	var nf *NotFoundError
	require.True(t, errors.As(outer.Err(), &nf))
	assert.Equal(t, "B", nf.Name)
}

func TestAsCompileError(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewUnresolvedProxy("a.l", nil, "p.X", "missing"))

	ce, ok := AsCompileError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnresolvedProxy, ce.Kind)

	_, ok = AsCompileError(errors.New("plain"))
	assert.False(t, ok)
}

func TestCatchErrors(t *testing.T) {
	run := func(f func()) (err error) {
		defer CatchErrors(&err)
		f()
		return nil
	}

	thrownErr := NewUnresolvedReference("a.l", nil, "y")
	assert.Same(t, thrownErr, run(func() { Throw(thrownErr) }))
	assert.NoError(t, run(func() {}))
	assert.Panics(t, func() { _ = run(func() { panic("boom") }) })
}

func TestSpanOver(t *testing.T) {
	a := &TextSpan{StartLine: 1, StartCol: 2, EndLine: 1, EndCol: 4}
	b := &TextSpan{StartLine: 3, StartCol: 0, EndLine: 3, EndCol: 9}

	assert.Equal(t, &TextSpan{StartLine: 1, StartCol: 2, EndLine: 3, EndCol: 9}, NewSpanOver(a, b))
	assert.Same(t, a, NewSpanOver(a, nil))
	assert.Equal(t, "2:3", a.Position().String())
	assert.False(t, (*TextSpan)(nil).Position().Known())
}

func TestReporterCounts(t *testing.T) {
	r := NewReporter(LogLevelSilent)

	var el ErrorList
	el.Add(NewParseErrorNode("a.l", nil, "statement"))
	el.Add(NewUnresolvedReference("a.l", nil, "x"))
	r.ReportCompileError(el)

	assert.True(t, r.AnyErrors())
	assert.Equal(t, 1, r.ErrorCount())
	assert.Equal(t, 1, r.WarningCount())
	assert.Equal(t, LogLevelWarn, LogLevelFromName("warning"))
	assert.Equal(t, LogLevelVerbose, LogLevelFromName("bogus"))
}
