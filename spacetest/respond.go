package spacetest

import (
	"context"
	"fmt"

	"github.com/space-operator/space-go/hostfuncs"
	"github.com/space-operator/space-go/internal/abi"
	"github.com/space-operator/space-go/status"
)

// Respond answers every call with body.
func Respond(body []byte) hostfuncs.ByteHandler {
	return func(context.Context, []byte) ([]byte, error) {
		return append([]byte{}, body...), nil
	}
}

// Echo answers every call with its own request payload.
func Echo() hostfuncs.ByteHandler {
	return func(_ context.Context, payload []byte) ([]byte, error) {
		return payload, nil
	}
}

// Fail answers every call with a failure of the given kind.
func Fail(kind status.Kind) hostfuncs.ByteHandler {
	return func(context.Context, []byte) ([]byte, error) {
		return nil, status.Wrap(kind, fmt.Errorf("spacetest: injected failure"))
	}
}

// Status answers every call with word, leaving memory untouched.
func Status(word uint64) RawFunc {
	return func(abi.Memory, abi.Allocator, []byte) uint64 {
		return word
	}
}

// Triple answers every call with a freshly allocated slot holding t, as a
// host that hands over a malformed buffer would.
func Triple(t abi.Triple) RawFunc {
	return func(mem abi.Memory, alloc abi.Allocator, _ []byte) uint64 {
		slot, err := alloc.Allocate(abi.TripleSize)
		if err != nil {
			return status.Failure(status.GrowMemory)
		}
		if err := abi.WriteTriple(mem, slot, t); err != nil {
			return status.Failure(status.WriteMemory)
		}
		return status.Success(slot)
	}
}
