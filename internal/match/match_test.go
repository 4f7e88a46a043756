package match_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vtilcore/internal/bv"
	"vtilcore/internal/directive"
	"vtilcore/internal/expr"
	"vtilcore/internal/match"
	"vtilcore/internal/symtab"
	"vtilcore/internal/uid"

	// Registers the template instantiator the iff condition path needs.
	_ "vtilcore/internal/transform"
)

// Match is re-exported locally so the test bodies read like the
// in-package form.
var Match = match.Match

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

func TestMetaAnyBindsAnything(t *testing.T) {
	x := newVar(t, "x", 64)
	tbl := symtab.New()
	require.True(t, Match(directive.Any("A"), x, tbl))
	got, ok := tbl.Get("A")
	require.True(t, ok)
	require.True(t, expr.Equal(got, x))

	tbl = symtab.New()
	require.True(t, Match(directive.Any("A"), expr.ConstFromInt64(5, 64), tbl))
}

func TestMetaConstClasses(t *testing.T) {
	x := newVar(t, "x", 64)
	c := expr.ConstFromInt64(5, 64)

	require.True(t, Match(directive.AnyConst("U"), c, symtab.New()))
	require.False(t, Match(directive.AnyConst("U"), x, symtab.New()))

	require.True(t, Match(directive.NonConst("X"), x, symtab.New()))
	require.False(t, Match(directive.NonConst("X"), c, symtab.New()))
}

func TestLiteralConstantMatchesExactly(t *testing.T) {
	pat := directive.ConstInt64(5, 64)
	require.True(t, Match(pat, expr.ConstFromInt64(5, 64), symtab.New()))
	require.False(t, Match(pat, expr.ConstFromInt64(6, 64), symtab.New()))
	require.False(t, Match(pat, expr.ConstFromInt64(5, 32), symtab.New()))
}

func TestOperationMatchRequiresSameOperator(t *testing.T) {
	x := newVar(t, "x", 64)
	y := newVar(t, "y", 64)
	subject := bin(t, bv.OpShl, x, y)

	pat := directive.Bin(bv.OpShl, directive.Any("A"), directive.Any("B"))
	require.True(t, Match(pat, subject, symtab.New()))

	wrong := directive.Bin(bv.OpShr, directive.Any("A"), directive.Any("B"))
	require.False(t, Match(wrong, subject, symtab.New()))
}

func TestCommutativeMatchTriesBothOrderings(t *testing.T) {
	x := newVar(t, "x", 64)
	// x + 5: a const-first pattern must still match via the swapped order.
	subject := bin(t, bv.OpAdd, x, expr.ConstFromInt64(5, 64))
	pat := directive.Bin(bv.OpAdd, directive.AnyConst("U"), directive.NonConst("X"))
	tbl := symtab.New()
	require.True(t, Match(pat, subject, tbl))
	u, ok := tbl.Get("U")
	require.True(t, ok)
	c, _ := u.ConstValue()
	require.True(t, c.Eq(bv.FromInt64(5, 64)))
	bound, ok := tbl.Get("X")
	require.True(t, ok)
	require.True(t, expr.Equal(bound, x))
}

func TestNonCommutativeDoesNotSwap(t *testing.T) {
	x := newVar(t, "x", 64)
	subject := bin(t, bv.OpShl, x, expr.ConstFromInt64(1, 64))
	pat := directive.Bin(bv.OpShl, directive.AnyConst("U"), directive.Any("B"))
	require.False(t, Match(pat, subject, symtab.New()))
}

func TestRepeatedMetaVariableEnforcesSameCapture(t *testing.T) {
	x := newVar(t, "x", 64)
	y := newVar(t, "y", 64)
	pat := directive.Bin(bv.OpShl, directive.Any("A"), directive.Any("A"))

	require.True(t, Match(pat, bin(t, bv.OpShl, x, x), symtab.New()))
	require.False(t, Match(pat, bin(t, bv.OpShl, x, y), symtab.New()))
}

func TestSignaturePrefilterRejectsImpossiblePattern(t *testing.T) {
	x := newVar(t, "x", 64)
	subject := bin(t, bv.OpAdd, x, newVar(t, "y", 64))
	// Pattern demanding a xor anywhere cannot match a pure add subtree.
	pat := directive.Bin(bv.OpAdd, directive.Bin(bv.OpXor, directive.Any("A"), directive.Any("B")), directive.Any("C"))
	require.False(t, expr.SignatureSubset(directive.Signature(pat), subject.Signature()))
	require.False(t, Match(pat, subject, symtab.New()))
}

func TestIffConditionGatesMatch(t *testing.T) {
	x := newVar(t, "x", 64)
	subject := bin(t, bv.OpShl, x, expr.ConstFromInt64(3, 64))
	body := directive.Bin(bv.OpShl, directive.Any("A"), directive.AnyConst("U"))

	// Condition U > 1 holds for U = 3.
	holds := directive.Iff(
		directive.Bin(bv.OpSgt, directive.AnyConst("U"), directive.ConstInt64(1, 64)),
		body)
	require.True(t, Match(holds, subject, symtab.New()))

	// Condition U > 5 fails for U = 3.
	fails := directive.Iff(
		directive.Bin(bv.OpSgt, directive.AnyConst("U"), directive.ConstInt64(5, 64)),
		body)
	require.False(t, Match(fails, subject, symtab.New()))
}

func TestUnaryMatch(t *testing.T) {
	x := newVar(t, "x", 64)
	sum := bin(t, bv.OpAdd, x, newVar(t, "y", 64))
	notted, err := expr.NewUnary(bv.OpNot, sum)
	require.NoError(t, err)

	pat := directive.Un(bv.OpNot, directive.Bin(bv.OpAdd, directive.Any("A"), directive.Any("B")))
	tbl := symtab.New()
	require.True(t, Match(pat, notted, tbl))
	a, ok := tbl.Get("A")
	require.True(t, ok)
	require.True(t, expr.Equal(a, x))
}
