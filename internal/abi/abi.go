// Package abi is the memory ownership bridge between a guest module and its
// host. It reads host-written (pointer, capacity, length) triples into owned
// guest buffers, and hands guest buffers to the host as (length, pointer)
// descriptors that the guest never frees.
//
// Ownership rule: a span of linear memory has exactly one owner. It changes
// hands only where a triple is materialized (host to guest) or a descriptor
// is produced (guest to host). The consumer releases a span exactly once,
// with the size the producer recorded.
package abi

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Fixed layouts shared with the host. All integers are little-endian u32.
const (
	// TripleSize is the size of a (ptr, cap, len) slot.
	TripleSize = 12
	// DescriptorSize is the size of a (len, ptr) slot.
	DescriptorSize = 8
	// LengthPrefixSize is the size of the length prefix of an input buffer.
	LengthPrefixSize = 4
)

var (
	ErrOutOfBounds         = errors.New("abi: access outside linear memory")
	ErrCapacityBelowLength = errors.New("abi: buffer length exceeds capacity")
	ErrNullPointer         = errors.New("abi: null pointer")
	ErrReleased            = errors.New("abi: buffer already released")
	ErrNotAllocated        = errors.New("abi: pointer is not a live allocation")
	ErrSizeMismatch        = errors.New("abi: release size differs from allocation size")
	ErrGrowMemory          = errors.New("abi: cannot grow memory")
)

// Memory is a flat, byte-addressable linear memory.
// wazero's api.Memory satisfies it.
type Memory interface {
	Size() uint32
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
	ReadUint32Le(offset uint32) (uint32, bool)
	WriteUint32Le(offset, v uint32) bool
}

// Allocator hands out spans of a Memory. Free must be called with the same
// size Allocate was called with.
type Allocator interface {
	Allocate(size uint32) (uint32, error)
	Free(ptr, size uint32) error
}

// Triple is the raw buffer description a host writes for the guest.
type Triple struct {
	Ptr uint32
	Cap uint32
	Len uint32
}

// ReadTriple reads the triple stored at offset.
func ReadTriple(mem Memory, offset uint32) (Triple, error) {
	raw, ok := mem.Read(offset, TripleSize)
	if !ok {
		return Triple{}, fmt.Errorf("%w: triple at %#x", ErrOutOfBounds, offset)
	}
	return Triple{
		Ptr: binary.LittleEndian.Uint32(raw[0:4]),
		Cap: binary.LittleEndian.Uint32(raw[4:8]),
		Len: binary.LittleEndian.Uint32(raw[8:12]),
	}, nil
}

// WriteTriple stores t at offset.
func WriteTriple(mem Memory, offset uint32, t Triple) error {
	var raw [TripleSize]byte
	binary.LittleEndian.PutUint32(raw[0:4], t.Ptr)
	binary.LittleEndian.PutUint32(raw[4:8], t.Cap)
	binary.LittleEndian.PutUint32(raw[8:12], t.Len)
	if !mem.Write(offset, raw[:]) {
		return fmt.Errorf("%w: triple at %#x", ErrOutOfBounds, offset)
	}
	return nil
}

// OwnedBuffer is a guest-owned span taken over from the host. Its readable
// length may be shorter than its capacity; Release always frees the full
// capacity.
type OwnedBuffer struct {
	mem      Memory
	alloc    Allocator
	ptr      uint32
	cap      uint32
	len      uint32
	released bool
}

// Ptr returns the start of the span.
func (b *OwnedBuffer) Ptr() uint32 { return b.ptr }

// Len returns the readable length.
func (b *OwnedBuffer) Len() int { return int(b.len) }

// Cap returns the capacity that will be released.
func (b *OwnedBuffer) Cap() int { return int(b.cap) }

// Bytes returns a view of the readable bytes. The view aliases linear
// memory and is invalid after Release. It returns nil once released.
func (b *OwnedBuffer) Bytes() []byte {
	if b.released {
		return nil
	}
	if b.len == 0 {
		return []byte{}
	}
	data, ok := b.mem.Read(b.ptr, b.len)
	if !ok {
		return nil
	}
	return data
}

// Release frees the span with its capacity. It succeeds exactly once.
func (b *OwnedBuffer) Release() error {
	if b.released {
		return ErrReleased
	}
	b.released = true
	return b.alloc.Free(b.ptr, b.cap)
}

// Detach copies the readable bytes out and releases the span.
func (b *OwnedBuffer) Detach() ([]byte, error) {
	if b.released {
		return nil, ErrReleased
	}
	view := b.Bytes()
	if view == nil {
		return nil, fmt.Errorf("%w: buffer at %#x", ErrOutOfBounds, b.ptr)
	}
	out := make([]byte, len(view))
	copy(out, view)
	if err := b.Release(); err != nil {
		return nil, err
	}
	return out, nil
}

// MaterializeBuffer takes ownership of the buffer described by the triple at
// offset. It fails closed, taking nothing, when the triple is unreadable,
// when length exceeds capacity, or when the span lies outside memory. On
// success the 12-byte triple slot itself is released.
func MaterializeBuffer(mem Memory, alloc Allocator, offset uint32) (*OwnedBuffer, error) {
	t, err := ReadTriple(mem, offset)
	if err != nil {
		return nil, err
	}
	if t.Len > t.Cap {
		return nil, fmt.Errorf("%w: len %d, cap %d", ErrCapacityBelowLength, t.Len, t.Cap)
	}
	if t.Ptr == 0 {
		return nil, fmt.Errorf("%w: triple at %#x", ErrNullPointer, offset)
	}
	if uint64(t.Ptr)+uint64(t.Cap) > uint64(mem.Size()) {
		return nil, fmt.Errorf("%w: span [%#x, %#x)", ErrOutOfBounds, t.Ptr, uint64(t.Ptr)+uint64(t.Cap))
	}
	if err := alloc.Free(offset, TripleSize); err != nil {
		return nil, fmt.Errorf("release triple slot: %w", err)
	}
	return &OwnedBuffer{mem: mem, alloc: alloc, ptr: t.Ptr, cap: t.Cap, len: t.Len}, nil
}

// SliceDescriptor is an outgoing (length, pointer) pair. The span it names
// belongs to the host from the moment it is produced.
type SliceDescriptor struct {
	Len uint32
	Ptr uint32
}

// ExposeBuffer copies data into a fresh allocation and hands it to the host.
// The guest never frees the allocation. Empty data still yields a non-null
// pointer. Call it once per outgoing value.
func ExposeBuffer(mem Memory, alloc Allocator, data []byte) (SliceDescriptor, error) {
	size := uint32(len(data)) //nolint:gosec // G115: wasm32 buffers are bounded by 4 GiB
	ptr, err := alloc.Allocate(size)
	if err != nil {
		return SliceDescriptor{}, fmt.Errorf("expose %d bytes: %w", size, err)
	}
	if ptr == 0 {
		return SliceDescriptor{}, ErrNullPointer
	}
	if size > 0 && !mem.Write(ptr, data) {
		return SliceDescriptor{}, fmt.Errorf("%w: expose at %#x", ErrOutOfBounds, ptr)
	}
	return SliceDescriptor{Len: size, Ptr: ptr}, nil
}

// WriteDescriptor stores d in a newly allocated slot and returns its address.
// The slot is host-owned, like the span it describes.
func WriteDescriptor(mem Memory, alloc Allocator, d SliceDescriptor) (uint32, error) {
	addr, err := alloc.Allocate(DescriptorSize)
	if err != nil {
		return 0, fmt.Errorf("descriptor slot: %w", err)
	}
	if !mem.WriteUint32Le(addr, d.Len) || !mem.WriteUint32Le(addr+4, d.Ptr) {
		return 0, fmt.Errorf("%w: descriptor at %#x", ErrOutOfBounds, addr)
	}
	return addr, nil
}

// ReadDescriptor reads the descriptor stored at addr.
func ReadDescriptor(mem Memory, addr uint32) (SliceDescriptor, error) {
	if addr == 0 {
		return SliceDescriptor{}, ErrNullPointer
	}
	length, ok1 := mem.ReadUint32Le(addr)
	ptr, ok2 := mem.ReadUint32Le(addr + 4)
	if !ok1 || !ok2 {
		return SliceDescriptor{}, fmt.Errorf("%w: descriptor at %#x", ErrOutOfBounds, addr)
	}
	return SliceDescriptor{Len: length, Ptr: ptr}, nil
}

// TakeExposed is the consumer half of ExposeBuffer: it copies the described
// bytes out, then frees both the span and the descriptor slot. Call it once
// per descriptor.
func TakeExposed(mem Memory, alloc Allocator, addr uint32) ([]byte, error) {
	d, err := ReadDescriptor(mem, addr)
	if err != nil {
		return nil, err
	}
	if d.Ptr == 0 {
		return nil, fmt.Errorf("%w: descriptor at %#x", ErrNullPointer, addr)
	}

	out := make([]byte, d.Len)
	if d.Len > 0 {
		view, ok := mem.Read(d.Ptr, d.Len)
		if !ok {
			return nil, fmt.Errorf("%w: span at %#x", ErrOutOfBounds, d.Ptr)
		}
		copy(out, view)
	}

	if err := alloc.Free(d.Ptr, d.Len); err != nil {
		return nil, fmt.Errorf("release exposed span: %w", err)
	}
	if err := alloc.Free(addr, DescriptorSize); err != nil {
		return nil, fmt.Errorf("release descriptor slot: %w", err)
	}
	return out, nil
}

// WriteInput allocates a length-prefixed input buffer holding data and
// returns its address. The caller owns the buffer and frees it with
// InputSize(len(data)).
func WriteInput(mem Memory, alloc Allocator, data []byte) (uint32, error) {
	size := InputSize(len(data))
	ptr, err := alloc.Allocate(size)
	if err != nil {
		return 0, fmt.Errorf("input buffer: %w", err)
	}
	if !mem.WriteUint32Le(ptr, uint32(len(data))) { //nolint:gosec // G115: bounded by InputSize
		return 0, fmt.Errorf("%w: input prefix at %#x", ErrOutOfBounds, ptr)
	}
	if len(data) > 0 && !mem.Write(ptr+LengthPrefixSize, data) {
		return 0, fmt.Errorf("%w: input at %#x", ErrOutOfBounds, ptr)
	}
	return ptr, nil
}

// ReadInput reads a length-prefixed input buffer: a u32 length at ptr, then
// that many bytes starting at ptr+4. The returned view aliases memory.
func ReadInput(mem Memory, ptr uint32) ([]byte, error) {
	if ptr == 0 {
		return nil, ErrNullPointer
	}
	length, ok := mem.ReadUint32Le(ptr)
	if !ok {
		return nil, fmt.Errorf("%w: input prefix at %#x", ErrOutOfBounds, ptr)
	}
	if length == 0 {
		return []byte{}, nil
	}
	data, ok := mem.Read(ptr+LengthPrefixSize, length)
	if !ok {
		return nil, fmt.Errorf("%w: input of %d bytes at %#x", ErrOutOfBounds, length, ptr)
	}
	return data, nil
}

// InputSize is the allocation size of an input buffer carrying n bytes.
func InputSize(n int) uint32 {
	return uint32(n) + LengthPrefixSize //nolint:gosec // G115: wasm32 buffers are bounded by 4 GiB
}
