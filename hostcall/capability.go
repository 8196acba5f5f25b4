// Package hostcall invokes the host's HTTP capabilities from inside a guest
// module.
//
// Every capability follows the same protocol: the payload envelope is
// encoded and staged in guest memory, the host function for the capability
// slot is called with (ptr, len), and the returned status word is decoded.
// On success its payload is the offset of a (ptr, cap, len) triple whose
// buffer the guest takes over. On failure nothing in guest memory is touched.
package hostcall

import "fmt"

// ImportModule is the wasm import module that provides the host functions.
const ImportModule = "env"

// Capability is the numeric slot of a host function.
type Capability uint32

// Host capability slots.
const (
	CallRequest Capability = iota // RequestData, no body
	SendBytes                     // envelope.SendBytes
	SendString                    // envelope.SendString
	SendForm                      // envelope.SendForm
	SendJSON                      // envelope.SendJSON
)

// Capabilities lists every slot in order.
var Capabilities = []Capability{CallRequest, SendBytes, SendString, SendForm, SendJSON}

var importNames = [...]string{
	CallRequest: "http_call_request",
	SendBytes:   "http_send_bytes",
	SendString:  "http_send_string",
	SendForm:    "http_send_form",
	SendJSON:    "http_send_json",
}

// ImportName returns the name the capability is imported under.
func (c Capability) ImportName() string {
	if int(c) < len(importNames) {
		return importNames[c]
	}
	return fmt.Sprintf("capability_%d", uint32(c))
}

// String implements fmt.Stringer.
func (c Capability) String() string {
	return c.ImportName()
}

// Valid reports whether c names a defined slot.
func (c Capability) Valid() bool {
	return int(c) < len(importNames)
}

// ParseCapability returns the capability imported under name.
func ParseCapability(name string) (Capability, error) {
	for i, n := range importNames {
		if n == name {
			return Capability(i), nil //nolint:gosec // G115: index of a fixed array
		}
	}
	return 0, fmt.Errorf("hostcall: unknown capability %q", name)
}
