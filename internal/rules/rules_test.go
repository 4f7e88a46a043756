package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vtilcore/internal/bv"
	"vtilcore/internal/expr"
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

func un(t *testing.T, op bv.Op, e expr.Expression) expr.Expression {
	t.Helper()
	out, err := expr.NewUnary(op, e)
	require.NoError(t, err)
	return out
}

func TestUniversalSubAddCancel(t *testing.T) {
	x := newVar(t, "x", 64)
	y := newVar(t, "y", 64)
	subject := bin(t, bv.OpAdd, bin(t, bv.OpSub, x, y), y)

	out, name, ok := Universal.Apply(subject)
	require.True(t, ok)
	require.Equal(t, "sub_add_cancel", name)
	require.True(t, expr.Equal(out, x))
}

func TestUniversalAbsorption(t *testing.T) {
	x := newVar(t, "x", 64)
	y := newVar(t, "y", 64)
	subject := bin(t, bv.OpAnd, x, bin(t, bv.OpOr, x, y))

	out, _, ok := Universal.Apply(subject)
	require.True(t, ok)
	require.True(t, expr.Equal(out, x))
}

func TestUniversalComparisonInversion(t *testing.T) {
	x := newVar(t, "x", 64)
	y := newVar(t, "y", 64)
	subject := un(t, bv.OpNot, bin(t, bv.OpSgt, x, y))

	out, _, ok := Universal.Apply(subject)
	require.True(t, ok)
	require.Equal(t, bv.OpSle, out.Op())
	require.True(t, expr.Equal(out.LHS(), x))
	require.True(t, expr.Equal(out.RHS(), y))
}

func TestUniversalNeverIncreasesComplexity(t *testing.T) {
	x := newVar(t, "x", 64)
	y := newVar(t, "y", 64)
	subjects := []expr.Expression{
		bin(t, bv.OpAdd, bin(t, bv.OpSub, x, y), y),
		bin(t, bv.OpAnd, x, bin(t, bv.OpOr, x, y)),
		un(t, bv.OpNot, bin(t, bv.OpUge, x, y)),
	}
	for _, s := range subjects {
		out, _, ok := Universal.Apply(s)
		require.True(t, ok)
		require.LessOrEqual(t, out.Complexity(), s.Complexity())
	}
}

func TestBooleanDominantConjunction(t *testing.T) {
	x := newVar(t, "x", 64)
	// (x > 5) & (x > 3): the bound 5 dominates, condition 5 >= 3 holds.
	subject := bin(t, bv.OpAnd,
		bin(t, bv.OpSgt, x, expr.ConstFromInt64(5, 64)),
		bin(t, bv.OpSgt, x, expr.ConstFromInt64(3, 64)))

	out, _, ok := Boolean.Apply(subject)
	require.True(t, ok)
	require.Equal(t, bv.OpSgt, out.Op())
	c, isConst := out.RHS().ConstValue()
	require.True(t, isConst)
	require.True(t, c.Eq(bv.FromInt64(5, 64)))
}

func TestBooleanContradiction(t *testing.T) {
	x := newVar(t, "x", 64)
	y := newVar(t, "y", 64)
	subject := bin(t, bv.OpAnd,
		bin(t, bv.OpSgt, x, y),
		bin(t, bv.OpSlt, x, y))

	out, _, ok := Boolean.Apply(subject)
	require.True(t, ok)
	c, isConst := out.ConstValue()
	require.True(t, isConst)
	require.True(t, c.IsZero())
}

func TestBooleanRangeCollapse(t *testing.T) {
	x := newVar(t, "x", 64)
	y := newVar(t, "y", 64)
	subject := bin(t, bv.OpAnd,
		bin(t, bv.OpSge, x, y),
		bin(t, bv.OpSle, x, y))

	out, _, ok := Boolean.Apply(subject)
	require.True(t, ok)
	require.Equal(t, bv.OpEq, out.Op())
}

func TestBooleanEqCanonicalization(t *testing.T) {
	x := newVar(t, "x", 64)
	y := newVar(t, "y", 64)
	subject := bin(t, bv.OpEq, x, y)

	out, name, ok := Boolean.Apply(subject)
	require.True(t, ok)
	require.Equal(t, "eq_to_sub_zero", name)
	require.Equal(t, bv.OpEq, out.Op())
	require.Equal(t, bv.OpSub, out.LHS().Op())
	c, isConst := out.RHS().ConstValue()
	require.True(t, isConst)
	require.True(t, c.IsZero())
	require.Equal(t, bv.Bitcount(64), out.LHS().Size())

	// The canonical form and constant-operand comparisons are left
	// alone, so the rewrite cannot chase its own output.
	_, _, ok = Boolean.Apply(out)
	require.False(t, ok)
	_, _, ok = Boolean.Apply(bin(t, bv.OpEq, x, expr.ConstFromInt64(5, 64)))
	require.False(t, ok)
}

func TestBooleanEqCanonicalizationNarrowWidth(t *testing.T) {
	x := newVar(t, "x", 8)
	y := newVar(t, "y", 8)
	out, _, ok := Boolean.Apply(bin(t, bv.OpEq, x, y))
	require.True(t, ok)
	require.Equal(t, bv.Bitcount(8), out.LHS().Size())
	require.Equal(t, bv.Bitcount(8), out.RHS().Size())
}

func TestJoinDistributionExposesConstantFolding(t *testing.T) {
	x := newVar(t, "x", 64)
	subject := bin(t, bv.OpMul,
		expr.ConstFromInt64(3, 64),
		bin(t, bv.OpAdd, x, expr.ConstFromInt64(5, 64)))

	out, name, ok := Join.Apply(subject)
	require.True(t, ok)
	require.Equal(t, "distribute_mul_add", name)
	// 3*(x+5) -> (3*x) + 15: the constant product folds at
	// instantiation.
	require.Equal(t, bv.OpAdd, out.Op())
	c, isConst := out.RHS().ConstValue()
	require.True(t, isConst)
	require.True(t, c.Eq(bv.FromInt64(15, 64)))
}

func TestJoinAssociativityDriftsConstantsTogether(t *testing.T) {
	x := newVar(t, "x", 64)
	subject := bin(t, bv.OpAdd,
		bin(t, bv.OpAdd, x, expr.ConstFromInt64(1, 64)),
		expr.ConstFromInt64(2, 64))

	out, name, ok := Join.Apply(subject)
	require.True(t, ok)
	require.Equal(t, "assoc_add", name)
	// x + (1 + 2): the inner pair folds to 3 during instantiation.
	require.Equal(t, bv.OpAdd, out.Op())
	c, isConst := out.RHS().ConstValue()
	require.True(t, isConst)
	require.True(t, c.Eq(bv.FromInt64(3, 64)))
}

func TestPackAndUnpackBitTest(t *testing.T) {
	x := newVar(t, "x", 64)
	subject := bin(t, bv.OpAnd,
		bin(t, bv.OpShr, x, expr.ConstFromInt64(3, 64)),
		expr.ConstFromInt64(1, 64))

	packed, _, ok := Pack.Apply(subject)
	require.True(t, ok)
	// The packed form expands straight back to the same fragment.
	require.Equal(t, bv.OpAnd, packed.Op())
}
