//go:build wasip1

package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeap_AllocateFree(t *testing.T) {
	heap.FreeAll()
	defer heap.FreeAll()

	ptr, err := heap.Allocate(16)
	require.NoError(t, err)
	assert.NotZero(t, ptr)

	mem, _ := Guest()
	require.True(t, mem.Write(ptr, []byte("0123456789abcdef")))
	got, ok := mem.Read(ptr, 4)
	require.True(t, ok)
	assert.Equal(t, []byte("0123"), got)

	assert.ErrorIs(t, heap.Free(ptr, 8), ErrSizeMismatch)
	require.NoError(t, heap.Free(ptr, 16))
	assert.ErrorIs(t, heap.Free(ptr, 16), ErrNotAllocated)
}

func TestHeap_ZeroSize(t *testing.T) {
	heap.FreeAll()
	defer heap.FreeAll()

	p1, err := heap.Allocate(0)
	require.NoError(t, err)
	p2, err := heap.Allocate(0)
	require.NoError(t, err)
	assert.NotZero(t, p1)
	assert.NotEqual(t, p1, p2)
	require.NoError(t, heap.Free(p1, 0))
}

func TestHeap_Limit(t *testing.T) {
	heap.FreeAll()
	defer heap.FreeAll()

	_, err := heap.Allocate(MaxTotalAllocations + 1)
	assert.ErrorIs(t, err, ErrGrowMemory)
}

func TestExports(t *testing.T) {
	heap.FreeAll()
	defer heap.FreeAll()

	ptr := allocate(32)
	require.NotZero(t, ptr)
	deallocate(ptr, 32)

	_, ok := heap.sizes[ptr]
	assert.False(t, ok)
}
