package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vtilcore/internal/bv"
	"vtilcore/internal/directive"
	"vtilcore/internal/expr"
	"vtilcore/internal/symtab"
	"vtilcore/internal/uid"
)

func newVar(t *testing.T, name string, size bv.Bitcount) expr.Expression {
	t.Helper()
	v, err := expr.NewVariable(uid.New(name), size)
	require.NoError(t, err)
	return v
}

func bin(t *testing.T, op bv.Op, l, r expr.Expression) expr.Expression {
	t.Helper()
	e, err := expr.NewBinary(op, l, r)
	require.NoError(t, err)
	return e
}

func TestTransformAppliesPatternTemplate(t *testing.T) {
	x := newVar(t, "x", 64)
	y := newVar(t, "y", 64)
	// (x - y) + y reduces to x under the cancellation rewrite.
	subject := bin(t, bv.OpAdd, bin(t, bv.OpSub, x, y), y)

	pattern := directive.Bin(bv.OpAdd,
		directive.Bin(bv.OpSub, directive.Any("A"), directive.Any("B")),
		directive.Any("B"))
	template := directive.Any("A")

	out, ok := Transform(subject, pattern, template, ComplexityLess)
	require.True(t, ok)
	require.True(t, expr.Equal(out, x))
}

func TestTransformRejectsOnAcceptanceFilter(t *testing.T) {
	x := newVar(t, "x", 64)
	y := newVar(t, "y", 64)
	subject := bin(t, bv.OpAdd, x, y)

	// Identity rewrite: same complexity, so the strict filter rejects it.
	pattern := directive.Bin(bv.OpAdd, directive.Any("A"), directive.Any("B"))
	template := directive.Bin(bv.OpAdd, directive.Any("A"), directive.Any("B"))

	_, ok := Transform(subject, pattern, template, ComplexityLess)
	require.False(t, ok)
	out, ok := Transform(subject, pattern, template, ComplexityLessEqual)
	require.True(t, ok)
	require.True(t, expr.Equal(out, subject))
}

func TestTransformNoMatch(t *testing.T) {
	x := newVar(t, "x", 64)
	subject := bin(t, bv.OpAdd, x, expr.ConstFromInt64(3, 64))
	pattern := directive.Bin(bv.OpXor, directive.Any("A"), directive.Any("B"))
	_, ok := Transform(subject, pattern, directive.Any("A"), Always)
	require.False(t, ok)
}

func TestInstantiateUnboundMetaFails(t *testing.T) {
	tbl := symtab.New()
	_, err := Instantiate(directive.Any("A"), tbl)
	require.Error(t, err)
}

func TestInstantiateBitTest(t *testing.T) {
	x := newVar(t, "x", 64)
	tbl := symtab.New()
	require.True(t, tbl.TryBind("A", x))
	require.True(t, tbl.TryBind("U", expr.ConstFromInt64(3, 64)))

	out, err := Instantiate(directive.BT(directive.Any("A"), directive.AnyConst("U")), tbl)
	require.NoError(t, err)
	// __bt(x, 3) expands to (x >> 3) & 1.
	require.Equal(t, bv.OpAnd, out.Op())
	require.Equal(t, bv.OpShr, out.LHS().Op())
}

func TestInstantiateMinMaxOfConstantsFolds(t *testing.T) {
	tbl := symtab.New()
	require.True(t, tbl.TryBind("A", expr.ConstFromInt64(3, 64)))
	require.True(t, tbl.TryBind("B", expr.ConstFromInt64(9, 64)))

	mn, err := Instantiate(directive.Min(directive.Any("A"), directive.Any("B")), tbl)
	require.NoError(t, err)
	c, ok := mn.ConstValue()
	require.True(t, ok)
	require.True(t, c.Eq(bv.FromInt64(3, 64)))

	mx, err := Instantiate(directive.Max(directive.Any("A"), directive.Any("B")), tbl)
	require.NoError(t, err)
	c, ok = mx.ConstValue()
	require.True(t, ok)
	require.True(t, c.Eq(bv.FromInt64(9, 64)))
}

func TestInstantiateIffRequiresConstantCondition(t *testing.T) {
	x := newVar(t, "x", 64)
	tbl := symtab.New()
	require.True(t, tbl.TryBind("A", x))

	// x > 0 does not reduce to a constant: instantiation must fail.
	tpl := directive.Iff(
		directive.Bin(bv.OpSgt, directive.Any("A"), directive.ConstInt64(0, 64)),
		directive.Any("A"))
	_, err := Instantiate(tpl, tbl)
	require.Error(t, err)
}

func TestInstantiateIfFalse(t *testing.T) {
	tbl := symtab.New()
	require.True(t, tbl.TryBind("A", expr.ConstFromInt64(7, 64)))

	// Condition 0 is false, so if_false proceeds.
	tpl := directive.IfFalse(directive.ConstInt64(0, 1), directive.Any("A"))
	out, err := Instantiate(tpl, tbl)
	require.NoError(t, err)
	c, ok := out.ConstValue()
	require.True(t, ok)
	require.True(t, c.Eq(bv.FromInt64(7, 64)))

	// Condition 1 is true, so if_false aborts.
	tpl = directive.IfFalse(directive.ConstInt64(1, 1), directive.Any("A"))
	_, err = Instantiate(tpl, tbl)
	require.Error(t, err)
}
