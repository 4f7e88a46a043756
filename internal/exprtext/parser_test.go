package exprtext

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vtilcore/internal/bv"
	"vtilcore/internal/expr"
)

func TestParseConstantExpression(t *testing.T) {
	e, err := Parse("10 + 20", nil)
	require.NoError(t, err)
	c, ok := e.ConstValue()
	require.True(t, ok)
	require.True(t, c.Eq(bv.FromInt64(30, 64)))
	require.Equal(t, bv.Bitcount(64), e.Size())
}

func TestParseHexLiteral(t *testing.T) {
	e, err := Parse("0xff & 0x0f", nil)
	require.NoError(t, err)
	c, ok := e.ConstValue()
	require.True(t, ok)
	require.True(t, c.Eq(bv.FromInt64(0x0f, 64)))
}

func TestParseDeclaredVariable(t *testing.T) {
	e, err := Parse("(x + 0) * 1", map[string]bv.Bitcount{"x": 64})
	require.NoError(t, err)
	// The smart constructors collapse the whole thing to x.
	require.Equal(t, expr.KindVariable, e.Kind())
	require.Equal(t, bv.Bitcount(64), e.Size())
}

func TestParseInlineWidth(t *testing.T) {
	e, err := Parse("x:32 + 100", nil)
	require.NoError(t, err)
	require.Equal(t, expr.KindOperation, e.Kind())
	require.Equal(t, bv.OpAdd, e.Op())
	// The bare literal was widened to match the 32-bit variable.
	require.Equal(t, bv.Bitcount(32), e.Size())
	require.Equal(t, bv.Bitcount(32), e.RHS().Size())
}

func TestParsePrecedence(t *testing.T) {
	// 2 + 3 * 4 parses as 2 + (3 * 4).
	e, err := Parse("2 + 3 * 4", nil)
	require.NoError(t, err)
	c, ok := e.ConstValue()
	require.True(t, ok)
	require.True(t, c.Eq(bv.FromInt64(14, 64)))

	e, err = Parse("(2 + 3) * 4", nil)
	require.NoError(t, err)
	c, ok = e.ConstValue()
	require.True(t, ok)
	require.True(t, c.Eq(bv.FromInt64(20, 64)))
}

func TestParseUnaryOperators(t *testing.T) {
	e, err := Parse("~(x | y)", map[string]bv.Bitcount{"x": 64, "y": 64})
	require.NoError(t, err)
	require.Equal(t, bv.OpNot, e.Op())

	e, err = Parse("-5", nil)
	require.NoError(t, err)
	c, ok := e.ConstValue()
	require.True(t, ok)
	require.True(t, c.Eq(bv.FromInt64(-5, 64)))
}

func TestParseComparison(t *testing.T) {
	e, err := Parse("x > y", map[string]bv.Bitcount{"x": 64, "y": 64})
	require.NoError(t, err)
	require.Equal(t, bv.OpSgt, e.Op())
	require.Equal(t, bv.Bitcount(1), e.Size())
}

func TestParseSameNameSharesIdentity(t *testing.T) {
	e, err := Parse("x ^ x", map[string]bv.Bitcount{"x": 16})
	require.NoError(t, err)
	// Both x leaves carry the same identity, so the xor folds to zero.
	c, ok := e.ConstValue()
	require.True(t, ok)
	require.True(t, c.IsZero())
	require.Equal(t, bv.Bitcount(16), e.Size())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("x + 1", nil)
	require.Error(t, err) // undeclared variable

	_, err = Parse("1 +", nil)
	require.Error(t, err)

	_, err = Parse("(1 + 2", nil)
	require.Error(t, err)

	_, err = Parse("x:32 + y:64", nil)
	require.Error(t, err) // width mismatch

	_, err = Parse("x:32", map[string]bv.Bitcount{"x": 64})
	require.Error(t, err) // inline width conflicts with declaration
}
