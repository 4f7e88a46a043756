package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vtilcore/internal/bv"
	"vtilcore/internal/expr"
	"vtilcore/internal/uid"
)

func TestTryBindNewLabel(t *testing.T) {
	tbl := New()
	e := expr.ConstFromInt64(7, 64)
	require.True(t, tbl.TryBind("A", e))
	got, ok := tbl.Get("A")
	require.True(t, ok)
	require.True(t, expr.Equal(got, e))
}

func TestTryBindRepeatedLabelRequiresEquality(t *testing.T) {
	tbl := New()
	x, err := expr.NewVariable(uid.New("x"), 64)
	require.NoError(t, err)
	y, err := expr.NewVariable(uid.New("y"), 64)
	require.NoError(t, err)

	require.True(t, tbl.TryBind("A", x))
	// Rebinding to a structurally equal expression succeeds.
	require.True(t, tbl.TryBind("A", x))
	// Rebinding to a different expression fails.
	require.False(t, tbl.TryBind("A", y))
}

func TestGetUnbound(t *testing.T) {
	tbl := New()
	_, ok := tbl.Get("Z")
	require.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := New()
	require.True(t, tbl.TryBind("A", expr.ConstFromInt64(1, 8)))
	c := tbl.Clone()
	require.True(t, c.TryBind("B", expr.ConstFromInt64(2, 8)))
	_, ok := tbl.Get("B")
	require.False(t, ok)
	got, ok := c.Get("A")
	require.True(t, ok)
	v, _ := got.ConstValue()
	require.True(t, v.Eq(bv.FromInt64(1, 8)))
}

func TestMergeConflict(t *testing.T) {
	a := New()
	require.True(t, a.TryBind("A", expr.ConstFromInt64(1, 8)))
	b := New()
	require.True(t, b.TryBind("A", expr.ConstFromInt64(2, 8)))
	require.False(t, a.Merge(b))

	c := New()
	require.True(t, c.TryBind("B", expr.ConstFromInt64(3, 8)))
	require.True(t, a.Merge(c))
	_, ok := a.Get("B")
	require.True(t, ok)
}
