//go:build wasip1

package abi

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"
)

// MaxTotalAllocations is the maximum total memory the guest heap hands out.
// This prevents unbounded growth of wasm linear memory.
const MaxTotalAllocations = 100 * 1024 * 1024 // 100 MB

// Heap allocates guest memory from the Go heap. It keeps a reference to every
// allocated slice so the GC cannot collect it, pinning the memory until it is
// explicitly freed.
type Heap struct {
	ptrs           map[uint32][]byte // ptr -> pinned slice
	sizes          map[uint32]uint32 // ptr -> requested size
	totalAllocated int
	mu             sync.Mutex
}

var heap = &Heap{
	ptrs:  make(map[uint32][]byte),
	sizes: make(map[uint32]uint32),
}

// Allocate reserves size bytes. A zero-size request pins a single byte so
// that the returned pointer is unique and non-null.
func (h *Heap) Allocate(size uint32) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalAllocated+int(size) > MaxTotalAllocations {
		return 0, fmt.Errorf("%w: requested %d bytes, current %d bytes, limit %d bytes",
			ErrGrowMemory, size, h.totalAllocated, MaxTotalAllocations)
	}

	buf := make([]byte, max(size, 1))
	//nolint:gosec // G103: wasm32 addresses fit in 32 bits
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))

	h.ptrs[ptr] = buf
	h.sizes[ptr] = size
	h.totalAllocated += int(size)
	return ptr, nil
}

// Free unpins an allocation. size must match the size it was allocated with.
func (h *Heap) Free(ptr, size uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	recorded, ok := h.sizes[ptr]
	if !ok {
		return fmt.Errorf("%w: %#x", ErrNotAllocated, ptr)
	}
	if recorded != size {
		return fmt.Errorf("%w: %#x allocated with %d, released with %d", ErrSizeMismatch, ptr, recorded, size)
	}

	delete(h.ptrs, ptr)
	delete(h.sizes, ptr)
	h.totalAllocated -= int(recorded)
	return nil
}

// FreeAll drops every pinned allocation. Used on panic recovery or shutdown.
func (h *Heap) FreeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.ptrs)
	clear(h.sizes)
	h.totalAllocated = 0
}

// allocate is called by the host to obtain guest memory for results and inputs.
// It returns 0 when the allocation limit would be exceeded.
//
//go:wasmexport allocate
func allocate(size uint32) uint32 {
	ptr, err := heap.Allocate(size)
	if err != nil {
		slog.Error("abi: allocate failed", "size", size, "error", err)
		return 0
	}
	return ptr
}

// deallocate is called by the host to release memory it owns.
//
//go:wasmexport deallocate
func deallocate(ptr uint32, size uint32) {
	if err := heap.Free(ptr, size); err != nil {
		slog.Warn("abi: deallocate rejected", "ptr", ptr, "size", size, "error", err)
	}
}

// LinearMemory is the running module's own linear memory.
type LinearMemory struct{}

// Size reports the addressable range. The Go toolchain offers no portable
// memory.size, so bounds are enforced by the allocator instead.
func (LinearMemory) Size() uint32 { return 0xFFFFFFFF }

func (LinearMemory) Read(offset, byteCount uint32) ([]byte, bool) {
	if offset == 0 {
		return nil, false
	}
	//nolint:gosec // G103: valid unsafe.Pointer use for wasm linear memory access
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(offset))), byteCount), true
}

func (m LinearMemory) Write(offset uint32, v []byte) bool {
	dst, ok := m.Read(offset, uint32(len(v))) //nolint:gosec // G115: wasm32 buffers are bounded by 4 GiB
	if !ok {
		return false
	}
	copy(dst, v)
	return true
}

func (m LinearMemory) ReadUint32Le(offset uint32) (uint32, bool) {
	b, ok := m.Read(offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (m LinearMemory) WriteUint32Le(offset, v uint32) bool {
	b, ok := m.Read(offset, 4)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint32(b, v)
	return true
}

// Guest returns the running module's memory and allocator.
func Guest() (Memory, Allocator) {
	return LinearMemory{}, heap
}
