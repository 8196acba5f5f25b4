//go:build !wasip1

package abi

// Guest returns nil outside a wasm guest. Callers must be given an explicit
// Memory and Allocator, such as an Arena, when running natively.
func Guest() (Memory, Allocator) {
	return nil, nil
}
