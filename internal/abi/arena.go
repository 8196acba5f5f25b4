package abi

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// arenaBase is the first address the arena hands out; everything below it
// stays unused so that 0 is never a valid pointer.
const arenaBase = 16

// DefaultArenaLimit caps arena growth.
const DefaultArenaLimit = 64 * 1024 * 1024 // 64 MB

// Arena is a simulated linear memory with its own allocator. It stands in for
// a guest instance wherever the real one is not available, and it enforces
// the ownership rules that a real allocator would silently break on:
// freeing an unknown pointer, freeing twice, or freeing with the wrong size
// are all errors.
type Arena struct {
	mem      []byte
	live     map[uint32]uint32   // ptr -> requested size
	reserved map[uint32]uint32   // ptr -> reserved bytes
	free     map[uint32][]uint32 // reserved bytes -> reusable ptrs
	next     uint32
	limit    uint32
	mu       sync.Mutex
}

// NewArena creates an arena with size bytes of memory that may grow up to
// limit bytes. A limit below size is raised to size.
func NewArena(size, limit uint32) *Arena {
	if size < arenaBase {
		size = arenaBase
	}
	if limit < size {
		limit = size
	}
	return &Arena{
		mem:      make([]byte, size),
		live:     make(map[uint32]uint32),
		reserved: make(map[uint32]uint32),
		free:     make(map[uint32][]uint32),
		next:     arenaBase,
		limit:    limit,
	}
}

// Size returns the current memory size in bytes.
func (a *Arena) Size() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return uint32(len(a.mem)) //nolint:gosec // G115: bounded by limit
}

// Read returns a view of byteCount bytes at offset. Like wasm memory, the
// view is invalidated when the arena grows.
func (a *Arena) Read(offset, byteCount uint32) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.inBounds(offset, byteCount) {
		return nil, false
	}
	return a.mem[offset : offset+byteCount : offset+byteCount], true
}

// Write copies v into memory at offset.
func (a *Arena) Write(offset uint32, v []byte) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.inBounds(offset, uint32(len(v))) { //nolint:gosec // G115: checked against memory size
		return false
	}
	copy(a.mem[offset:], v)
	return true
}

// ReadUint32Le reads a little-endian u32 at offset.
func (a *Arena) ReadUint32Le(offset uint32) (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.inBounds(offset, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(a.mem[offset:]), true
}

// WriteUint32Le writes a little-endian u32 at offset.
func (a *Arena) WriteUint32Le(offset, v uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.inBounds(offset, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(a.mem[offset:], v)
	return true
}

// Allocate reserves size bytes and returns their address. A zero-size
// request still gets a unique non-null address.
func (a *Arena) Allocate(size uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	reserve := align4(max(size, 1))
	if ptrs := a.free[reserve]; len(ptrs) > 0 {
		ptr := ptrs[len(ptrs)-1]
		a.free[reserve] = ptrs[:len(ptrs)-1]
		clear(a.mem[ptr : ptr+reserve])
		a.live[ptr] = size
		a.reserved[ptr] = reserve
		return ptr, nil
	}

	end := uint64(a.next) + uint64(reserve)
	if end > uint64(len(a.mem)) {
		if err := a.grow(end); err != nil {
			return 0, err
		}
	}

	ptr := a.next
	a.next = uint32(end)
	a.live[ptr] = size
	a.reserved[ptr] = reserve
	return ptr, nil
}

// Free releases an allocation. size must match the size it was allocated with.
func (a *Arena) Free(ptr, size uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	recorded, ok := a.live[ptr]
	if !ok {
		return fmt.Errorf("%w: %#x", ErrNotAllocated, ptr)
	}
	if recorded != size {
		return fmt.Errorf("%w: %#x allocated with %d, released with %d", ErrSizeMismatch, ptr, recorded, size)
	}

	reserve := a.reserved[ptr]
	delete(a.live, ptr)
	delete(a.reserved, ptr)
	a.free[reserve] = append(a.free[reserve], ptr)
	return nil
}

// Live reports the number of live allocations and their total requested size.
func (a *Arena) Live() (count, bytes int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, size := range a.live {
		count++
		bytes += int(size)
	}
	return count, bytes
}

// Allocated reports the requested size of the live allocation at ptr.
func (a *Arena) Allocated(ptr uint32) (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	size, ok := a.live[ptr]
	return size, ok
}

func (a *Arena) inBounds(offset, n uint32) bool {
	return uint64(offset)+uint64(n) <= uint64(len(a.mem))
}

func (a *Arena) grow(atLeast uint64) error {
	newSize := max(uint64(len(a.mem))*2, atLeast)
	if newSize > uint64(a.limit) {
		if atLeast > uint64(a.limit) {
			return fmt.Errorf("%w: need %d bytes, limit %d", ErrGrowMemory, atLeast, a.limit)
		}
		newSize = uint64(a.limit)
	}
	grown := make([]byte, newSize)
	copy(grown, a.mem)
	a.mem = grown
	return nil
}

func align4(n uint32) uint32 {
	return (n + 3) &^ 3
}
