package directive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vtilcore/internal/bv"
	"vtilcore/internal/expr"
)

func TestMetaVariablesCarryNoSignatureBits(t *testing.T) {
	require.Zero(t, Any("A").Sig())
	require.Zero(t, AnyConst("U").Sig())
	require.Zero(t, NonConst("X").Sig())
}

func TestOperationSignatureAccumulatesChildren(t *testing.T) {
	pat := Bin(bv.OpAdd, Bin(bv.OpXor, Any("A"), Any("B")), Any("C"))
	sig := Signature(pat)
	require.True(t, expr.SignatureSubset(expr.SigForOp(bv.OpAdd), sig))
	require.True(t, expr.SignatureSubset(expr.SigForOp(bv.OpXor), sig))
	require.False(t, expr.SignatureSubset(expr.SigForOp(bv.OpMul), sig))
}

func TestConstantDirectiveSignature(t *testing.T) {
	require.Equal(t, expr.SigBitConstant, ConstInt64(0, 64).Sig())
}

func TestIffSignatureIsBodySignature(t *testing.T) {
	body := Bin(bv.OpShl, Any("A"), AnyConst("U"))
	cond := Bin(bv.OpSgt, AnyConst("U"), ConstInt64(1, 64))
	// An iff's signature must not demand more than its body does, or the
	// prefilter would reject subjects the body alone could match; the
	// condition is evaluated on bindings, not matched structurally.
	sig := Signature(Iff(cond, body))
	require.Equal(t, Signature(body), sig)
}

func TestBuilderShapes(t *testing.T) {
	u := Un(bv.OpNot, Any("A"))
	require.Equal(t, KindOperation, u.Kind)
	require.Nil(t, u.LHS)
	require.NotNil(t, u.RHS)
	require.True(t, Any("A").IsLeaf())
	require.False(t, u.IsLeaf())

	c := Cast(Any("A"), 32)
	require.Equal(t, bv.OpCast, c.Op)
	require.Equal(t, bv.Bitcount(32), c.Size)

	bt := BT(Any("A"), AnyConst("U"))
	require.Equal(t, KindSpecial, bt.Kind)
	require.Equal(t, SpecialBT, bt.Special)
	require.Len(t, bt.Args, 2)
}
