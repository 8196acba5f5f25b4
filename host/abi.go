package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/space-operator/space-go/hostfuncs"
	"github.com/space-operator/space-go/internal/abi"
	"github.com/space-operator/space-go/status"
)

// Memory is the guest linear memory. wazero's api.Memory satisfies it.
type Memory = abi.Memory

// Allocator allocates in guest memory.
type Allocator = abi.Allocator

// ServeCall answers one guest call: it reads length bytes at ptr, runs
// handler, and writes the result for the guest to take over. It returns the
// status word for the guest. Memory is only written on success.
func ServeCall(ctx context.Context, mem Memory, alloc Allocator, ptr, length uint32, handler hostfuncs.ByteHandler) uint64 {
	raw, ok := mem.Read(ptr, length)
	if !ok {
		slog.WarnContext(ctx, "host: request outside guest memory", "ptr", ptr, "len", length)
		return status.Failure(status.ReadBytes)
	}
	// The guest may reuse its memory once the call returns.
	request := make([]byte, len(raw))
	copy(request, raw)

	response, err := handler(ctx, request)
	if err != nil {
		return status.Failure(status.KindOf(err))
	}

	offset, err := WriteResult(mem, alloc, response)
	if err != nil {
		slog.WarnContext(ctx, "host: cannot hand result to guest", "len", len(response), "error", err)
		return status.Failure(status.KindOf(err))
	}
	return status.Success(offset)
}

// WriteResult copies data into a guest allocation and writes a triple
// describing it into a second 12-byte allocation, whose offset it returns.
// Both allocations pass to the guest. On failure everything allocated is
// released again.
func WriteResult(mem Memory, alloc Allocator, data []byte) (uint32, error) {
	size := uint32(len(data)) //nolint:gosec // G115: bounded by the body size limit
	body, err := alloc.Allocate(size)
	if err != nil {
		return 0, status.Wrap(status.GrowMemory, err)
	}
	if size > 0 && !mem.Write(body, data) {
		_ = alloc.Free(body, size)
		return 0, status.Wrap(status.WriteMemory, fmt.Errorf("%w: body at %#x", abi.ErrOutOfBounds, body))
	}

	slot, err := alloc.Allocate(abi.TripleSize)
	if err != nil {
		_ = alloc.Free(body, size)
		return 0, status.Wrap(status.GrowMemory, err)
	}
	if err := abi.WriteTriple(mem, slot, abi.Triple{Ptr: body, Cap: size, Len: size}); err != nil {
		_ = alloc.Free(slot, abi.TripleSize)
		_ = alloc.Free(body, size)
		return 0, status.Wrap(status.WriteMemory, err)
	}
	return slot, nil
}

// Invoke calls a guest entry point through call, which receives the address
// of the input buffer and returns the address of the output descriptor.
// The input buffer is freed afterwards; the output span and descriptor are
// freed once copied out.
func Invoke(mem Memory, alloc Allocator, input []byte, call func(inputPtr uint32) (uint32, error)) ([]byte, error) {
	ptr, err := abi.WriteInput(mem, alloc, input)
	if err != nil {
		return nil, err
	}
	defer func() {
		if ferr := alloc.Free(ptr, abi.InputSize(len(input))); ferr != nil {
			slog.Warn("host: release input buffer", "error", ferr)
		}
	}()

	addr, err := call(ptr)
	if err != nil {
		return nil, err
	}
	return abi.TakeExposed(mem, alloc, addr)
}
