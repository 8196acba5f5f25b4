package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/space-operator/space-go/internal/abi"
	"github.com/tetratelabs/wazero/api"
)

// Guest allocator exports.
const (
	AllocateExport   = "allocate"
	DeallocateExport = "deallocate"
)

// ErrMissingExport is returned for a guest that lacks a required export.
var ErrMissingExport = errors.New("guest export not found")

// GuestAllocator allocates in a guest's memory through its own exports.
type GuestAllocator struct {
	ctx        context.Context //nolint:containedctx // scoped to one guest call
	allocate   api.Function
	deallocate api.Function
}

// NewGuestAllocator binds the allocator exports of mod for calls made under ctx.
func NewGuestAllocator(ctx context.Context, mod api.Module) (*GuestAllocator, error) {
	allocate := mod.ExportedFunction(AllocateExport)
	if allocate == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingExport, AllocateExport)
	}
	deallocate := mod.ExportedFunction(DeallocateExport)
	if deallocate == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingExport, DeallocateExport)
	}
	return &GuestAllocator{ctx: ctx, allocate: allocate, deallocate: deallocate}, nil
}

// Allocate implements abi.Allocator.
func (g *GuestAllocator) Allocate(size uint32) (uint32, error) {
	results, err := g.allocate.Call(g.ctx, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", abi.ErrGrowMemory, err)
	}
	if len(results) == 0 || uint32(results[0]) == 0 { //nolint:gosec // G115: wasm32 pointers are 32-bit
		return 0, fmt.Errorf("%w: guest allocate(%d) returned null", abi.ErrGrowMemory, size)
	}
	return uint32(results[0]), nil //nolint:gosec // G115: wasm32 pointers are 32-bit
}

// Free implements abi.Allocator.
func (g *GuestAllocator) Free(ptr, size uint32) error {
	if _, err := g.deallocate.Call(g.ctx, uint64(ptr), uint64(size)); err != nil {
		return fmt.Errorf("guest deallocate(%#x, %d): %w", ptr, size, err)
	}
	return nil
}
