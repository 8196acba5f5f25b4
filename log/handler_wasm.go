//go:build wasip1

package log

import (
	"log/slog"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/internal/abi"
)

//go:wasmimport env log_message
func hostLogMessage(ptr, length uint32)

// hostSink stages each record in guest memory for the duration of the call.
// The host decodes it with its own log codec.
func hostSink(envelope.Codec) Sink {
	return func(payload []byte) {
		mem, alloc := abi.Guest()
		size := uint32(len(payload)) //nolint:gosec // G115: wasm32 buffers are bounded by 4 GiB
		ptr, err := alloc.Allocate(size)
		if err != nil {
			return
		}
		defer func() { _ = alloc.Free(ptr, size) }()
		if !mem.Write(ptr, payload) {
			return
		}
		hostLogMessage(ptr, size)
	}
}

// init routes the default slog logger to the host.
func init() {
	slog.SetDefault(slog.New(NewHandler()))
}
