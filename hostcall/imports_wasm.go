//go:build wasip1

package hostcall

//go:wasmimport env http_call_request
func hostCallRequest(ptr, length uint32) uint64

//go:wasmimport env http_send_bytes
func hostSendBytes(ptr, length uint32) uint64

//go:wasmimport env http_send_string
func hostSendString(ptr, length uint32) uint64

//go:wasmimport env http_send_form
func hostSendForm(ptr, length uint32) uint64

//go:wasmimport env http_send_json
func hostSendJSON(ptr, length uint32) uint64

var slots = [...]func(ptr, length uint32) uint64{
	CallRequest: hostCallRequest,
	SendBytes:   hostSendBytes,
	SendString:  hostSendString,
	SendForm:    hostSendForm,
	SendJSON:    hostSendJSON,
}

func guestHost() Host {
	return HostFunc(func(c Capability, ptr, length uint32) uint64 {
		return slots[c](ptr, length)
	})
}
