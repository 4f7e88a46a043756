package expr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vtilcore/internal/bv"
	"vtilcore/internal/uid"
)

func mustVar(t *testing.T, name string, size bv.Bitcount) Expression {
	t.Helper()
	v, err := NewVariable(uid.New(name), size)
	require.NoError(t, err)
	return v
}

func TestConstructorFolding(t *testing.T) {
	a := ConstFromInt64(10, 64)
	b := ConstFromInt64(20, 64)
	sum, err := NewBinary(bv.OpAdd, a, b)
	require.NoError(t, err)
	c, ok := sum.ConstValue()
	require.True(t, ok)
	require.True(t, c.Eq(bv.FromInt64(30, 64)))
}

func TestConstantFoldingScenario(t *testing.T) {
	// (10 + 20) * (5 + 3) -> Constant(240, 64)
	lhs, err := NewBinary(bv.OpAdd, ConstFromInt64(10, 64), ConstFromInt64(20, 64))
	require.NoError(t, err)
	rhs, err := NewBinary(bv.OpAdd, ConstFromInt64(5, 64), ConstFromInt64(3, 64))
	require.NoError(t, err)
	prod, err := NewBinary(bv.OpMul, lhs, rhs)
	require.NoError(t, err)
	c, ok := prod.ConstValue()
	require.True(t, ok)
	require.True(t, c.Eq(bv.FromInt64(240, 64)))
}

func TestIdentityFolding(t *testing.T) {
	x := mustVar(t, "x", 64)
	addZero, err := NewBinary(bv.OpAdd, x, ConstFromInt64(0, 64))
	require.NoError(t, err)
	require.True(t, Equal(addZero, x))

	mulOne, err := NewBinary(bv.OpMul, addZero, ConstFromInt64(1, 64))
	require.NoError(t, err)
	require.True(t, Equal(mulOne, x))
}

func TestInvolution(t *testing.T) {
	x := mustVar(t, "x", 32)
	notNot, err := NewUnary(bv.OpNot, x)
	require.NoError(t, err)
	notNot, err = NewUnary(bv.OpNot, notNot)
	require.NoError(t, err)
	require.True(t, Equal(notNot, x))

	negNeg, err := NewUnary(bv.OpNeg, x)
	require.NoError(t, err)
	negNeg, err = NewUnary(bv.OpNeg, negNeg)
	require.NoError(t, err)
	require.True(t, Equal(negNeg, x))
}

func TestXorSelf(t *testing.T) {
	x := mustVar(t, "x", 16)
	xorSelf, err := NewBinary(bv.OpXor, x, x)
	require.NoError(t, err)
	c, ok := xorSelf.ConstValue()
	require.True(t, ok)
	require.True(t, c.IsZero())
}

func TestHashAgreesWithEquality(t *testing.T) {
	x := mustVar(t, "x", 64)
	y := mustVar(t, "y", 64)
	sum1, err := NewBinary(bv.OpAdd, x, y)
	require.NoError(t, err)
	sum2, err := NewBinary(bv.OpAdd, x, y)
	require.NoError(t, err)
	require.True(t, Equal(sum1, sum2))
	require.Equal(t, sum1.Hash(), sum2.Hash())
}

func TestSignatureSubsetRejectsMismatch(t *testing.T) {
	x := mustVar(t, "x", 64)
	y := mustVar(t, "y", 64)
	sum, err := NewBinary(bv.OpAdd, x, y)
	require.NoError(t, err)
	xorExpr, err := NewBinary(bv.OpXor, ConstFromInt64(1, 64), y)
	require.NoError(t, err)
	require.False(t, SignatureSubset(xorExpr.Signature(), sum.Signature()))
}

func TestComplexityMonotonicity(t *testing.T) {
	x := mustVar(t, "x", 64)
	addZero, err := NewBinary(bv.OpAdd, x, ConstFromInt64(0, 64))
	require.NoError(t, err)
	// Peephole already collapsed this to x; complexity must not have grown.
	require.LessOrEqual(t, addZero.Complexity(), 1.0)
	require.Equal(t, x.Complexity(), addZero.Complexity())
}

func TestSizeMismatchIsInvalidArgument(t *testing.T) {
	x := mustVar(t, "x", 64)
	y := mustVar(t, "y", 32)
	_, err := NewBinary(bv.OpAdd, x, y)
	require.Error(t, err)
}

func TestCastFoldsConstants(t *testing.T) {
	neg := ConstFromInt64(-1, 8)

	signed, err := NewCast(neg, 16)
	require.NoError(t, err)
	c, ok := signed.ConstValue()
	require.True(t, ok)
	require.True(t, c.Eq(bv.FromInt64(-1, 16)))

	unsigned, err := NewUCast(neg, 16)
	require.NoError(t, err)
	c, ok = unsigned.ConstValue()
	require.True(t, ok)
	require.True(t, c.Eq(bv.FromInt64(255, 16)))
}

func TestCastOfSameWidthIsIdentity(t *testing.T) {
	x := mustVar(t, "x", 64)
	out, err := NewCast(x, 64)
	require.NoError(t, err)
	require.True(t, Equal(out, x))
}

func TestCastOnVariableStaysSymbolic(t *testing.T) {
	x := mustVar(t, "x", 32)
	out, err := NewUCast(x, 64)
	require.NoError(t, err)
	require.Equal(t, KindOperation, out.Kind())
	require.Equal(t, bv.OpUcast, out.Op())
	require.Equal(t, bv.Bitcount(64), out.Size())
	// Casts carry a complexity surcharge over their operand.
	require.Greater(t, out.Complexity(), x.Complexity())
}

func TestComparisonConstantFoldingUsesOperandWidth(t *testing.T) {
	// Unsigned: -1 is the max value, so -1 u> 1 must fold true.
	cmp, err := NewBinary(bv.OpUgt, ConstFromInt64(-1, 64), ConstFromInt64(1, 64))
	require.NoError(t, err)
	c, ok := cmp.ConstValue()
	require.True(t, ok)
	require.False(t, c.IsZero())
	require.Equal(t, bv.Bitcount(1), cmp.Size())
}

func TestVariablesCollectsDistinctIDs(t *testing.T) {
	x := mustVar(t, "x", 64)
	y := mustVar(t, "y", 64)
	sum, err := NewBinary(bv.OpAdd, x, y)
	require.NoError(t, err)
	shifted, err := NewBinary(bv.OpShl, sum, x)
	require.NoError(t, err)

	vars := shifted.Variables()
	require.Len(t, vars, 2)
	require.True(t, shifted.ContainsVariable())
	require.False(t, ConstFromInt64(1, 8).ContainsVariable())
}

func TestDepth(t *testing.T) {
	x := mustVar(t, "x", 64)
	require.Zero(t, x.Depth())
	sum, err := NewBinary(bv.OpAdd, x, mustVar(t, "y", 64))
	require.NoError(t, err)
	require.Equal(t, 1, sum.Depth())
	deeper, err := NewBinary(bv.OpShl, sum, x)
	require.NoError(t, err)
	require.Equal(t, 2, deeper.Depth())
}
