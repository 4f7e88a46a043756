package uid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewIDsAreDistinct(t *testing.T) {
	a := New("x")
	b := New("x")
	require.False(t, a.Equal(b))
}

func TestEqualityIgnoresName(t *testing.T) {
	a := New("x")
	b := FromValue("renamed", a.Value())
	require.True(t, a.Equal(b))
	require.Equal(t, "renamed", b.Name())
}

func TestZeroValue(t *testing.T) {
	var id ID
	require.True(t, id.IsZero())
	require.False(t, New("x").IsZero())
}

func TestStringFallsBackToValue(t *testing.T) {
	named := New("rax")
	require.Equal(t, "rax", named.String())

	anon := FromValue("", named.Value())
	require.Equal(t, named.Value().String(), anon.String())
}
