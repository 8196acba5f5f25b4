package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hostResult stages a buffer the way a host does: body plus a triple slot.
func hostResult(t *testing.T, a *Arena, data []byte, capacity uint32) uint32 {
	t.Helper()
	ptr, err := a.Allocate(capacity)
	require.NoError(t, err)
	require.True(t, a.Write(ptr, data))

	slot, err := a.Allocate(TripleSize)
	require.NoError(t, err)
	require.NoError(t, WriteTriple(a, slot, Triple{Ptr: ptr, Cap: capacity, Len: uint32(len(data))}))
	return slot
}

func TestMaterializeBuffer(t *testing.T) {
	a := NewArena(256, 4096)
	slot := hostResult(t, a, []byte("hello"), 16)

	buf, err := MaterializeBuffer(a, a, slot)
	require.NoError(t, err)
	assert.Equal(t, 5, buf.Len())
	assert.Equal(t, 16, buf.Cap())
	assert.Equal(t, []byte("hello"), buf.Bytes())

	_, ok := a.Allocated(slot)
	assert.False(t, ok, "triple slot is released on materialize")

	require.NoError(t, buf.Release())
	assert.Nil(t, buf.Bytes())
	assert.ErrorIs(t, buf.Release(), ErrReleased)

	count, _ := a.Live()
	assert.Zero(t, count)
}

func TestMaterializeBuffer_ReleasesCapacityNotLength(t *testing.T) {
	a := NewArena(256, 4096)
	slot := hostResult(t, a, []byte("abc"), 12)

	buf, err := MaterializeBuffer(a, a, slot)
	require.NoError(t, err)

	// Freeing with the readable length would be a size mismatch.
	assert.ErrorIs(t, a.Free(buf.Ptr(), uint32(buf.Len())), ErrSizeMismatch)
	require.NoError(t, buf.Release())
}

func TestMaterializeBuffer_FailsClosed(t *testing.T) {
	tests := []struct {
		name   string
		triple Triple
		want   error
	}{
		{name: "len exceeds cap", triple: Triple{Ptr: 64, Cap: 4, Len: 8}, want: ErrCapacityBelowLength},
		{name: "null pointer", triple: Triple{Ptr: 0, Cap: 4, Len: 4}, want: ErrNullPointer},
		{name: "span outside memory", triple: Triple{Ptr: 200, Cap: 100, Len: 10}, want: ErrOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewArena(256, 256)
			slot, err := a.Allocate(TripleSize)
			require.NoError(t, err)
			require.NoError(t, WriteTriple(a, slot, tt.triple))

			buf, err := MaterializeBuffer(a, a, slot)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, buf)

			_, ok := a.Allocated(slot)
			assert.True(t, ok, "nothing is taken on failure")
		})
	}

	t.Run("triple outside memory", func(t *testing.T) {
		a := NewArena(64, 64)
		_, err := MaterializeBuffer(a, a, 60)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})
}

func TestOwnedBuffer_Detach(t *testing.T) {
	a := NewArena(256, 4096)
	slot := hostResult(t, a, []byte("payload"), 7)

	buf, err := MaterializeBuffer(a, a, slot)
	require.NoError(t, err)

	data, err := buf.Detach()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	_, err = buf.Detach()
	assert.ErrorIs(t, err, ErrReleased)

	count, _ := a.Live()
	assert.Zero(t, count)
}

func TestOwnedBuffer_EmptyBody(t *testing.T) {
	a := NewArena(256, 4096)
	slot := hostResult(t, a, nil, 0)

	buf, err := MaterializeBuffer(a, a, slot)
	require.NoError(t, err)
	assert.Equal(t, []byte{}, buf.Bytes())

	data, err := buf.Detach()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestExposeBuffer(t *testing.T) {
	a := NewArena(256, 4096)

	d, err := ExposeBuffer(a, a, []byte{0xAA, 0xBB})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), d.Len)
	assert.NotZero(t, d.Ptr)

	got, ok := a.Read(d.Ptr, d.Len)
	require.True(t, ok)
	assert.Equal(t, []byte{0xAA, 0xBB}, got)

	size, ok := a.Allocated(d.Ptr)
	require.True(t, ok, "exposed span stays allocated for the host")
	assert.Equal(t, uint32(2), size)
}

func TestExposeBuffer_Empty(t *testing.T) {
	a := NewArena(256, 4096)

	d, err := ExposeBuffer(a, a, nil)
	require.NoError(t, err)
	assert.Zero(t, d.Len)
	assert.NotZero(t, d.Ptr)
}

func TestDescriptor_TakeExposed(t *testing.T) {
	a := NewArena(256, 4096)

	d, err := ExposeBuffer(a, a, []byte("out"))
	require.NoError(t, err)
	addr, err := WriteDescriptor(a, a, d)
	require.NoError(t, err)

	read, err := ReadDescriptor(a, addr)
	require.NoError(t, err)
	assert.Equal(t, d, read)

	data, err := TakeExposed(a, a, addr)
	require.NoError(t, err)
	assert.Equal(t, []byte("out"), data)

	count, _ := a.Live()
	assert.Zero(t, count, "span and descriptor are both released")

	_, err = TakeExposed(a, a, addr)
	assert.Error(t, err, "descriptor can be taken only once")
}

func TestDescriptor_Null(t *testing.T) {
	a := NewArena(64, 64)
	_, err := ReadDescriptor(a, 0)
	assert.ErrorIs(t, err, ErrNullPointer)
}

func TestInput(t *testing.T) {
	a := NewArena(256, 4096)

	ptr, err := WriteInput(a, a, []byte{1, 2, 3})
	require.NoError(t, err)

	prefix, ok := a.ReadUint32Le(ptr)
	require.True(t, ok)
	assert.Equal(t, uint32(3), prefix)

	data, err := ReadInput(a, ptr)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	require.NoError(t, a.Free(ptr, InputSize(3)))

	empty, err := WriteInput(a, a, nil)
	require.NoError(t, err)
	data, err = ReadInput(a, empty)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = ReadInput(a, 0)
	assert.ErrorIs(t, err, ErrNullPointer)
}

func TestReadInput_LengthBeyondMemory(t *testing.T) {
	a := NewArena(64, 64)
	require.True(t, a.WriteUint32Le(16, 1000))
	_, err := ReadInput(a, 16)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}
