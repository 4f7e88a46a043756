package tls

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlotIsPerGoroutine(t *testing.T) {
	slot := NewSlot[int]()
	slot.Set(1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// A fresh goroutine sees no value until it sets its own.
		_, ok := slot.Get()
		require.False(t, ok)
		slot.Set(2)
		v, ok := slot.Get()
		require.True(t, ok)
		require.Equal(t, 2, v)
	}()
	wg.Wait()

	v, ok := slot.Get()
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestSwapReturnsPrevious(t *testing.T) {
	slot := NewSlot[string]()
	require.Equal(t, "", slot.Swap("a"))
	require.Equal(t, "a", slot.Swap("b"))
	v, ok := slot.Get()
	require.True(t, ok)
	require.Equal(t, "b", v)
}

func TestClearRemovesEntry(t *testing.T) {
	slot := NewSlot[int]()
	slot.Set(5)
	slot.Clear()
	_, ok := slot.Get()
	require.False(t, ok)
}
