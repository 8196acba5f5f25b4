//go:build !wasip1

package log

import (
	"fmt"
	"os"

	"github.com/space-operator/space-go/envelope"
)

// hostSink for non-wasm builds prints a one-line stub so native tests of
// guest code still show their logs.
func hostSink(codec envelope.Codec) Sink {
	return func(payload []byte) {
		msg, err := Decode(codec, payload)
		if err != nil {
			return
		}
		fmt.Fprintf(os.Stderr, "[HOST-STUB] Level=%s Msg=%q\n", msg.Level, msg.Message)
	}
}
