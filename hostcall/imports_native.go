//go:build !wasip1

package hostcall

// guestHost returns nil outside a wasm guest. Use WithHost.
func guestHost() Host {
	return nil
}
