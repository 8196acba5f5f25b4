package hostfuncs

import (
	"context"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/status"
)

// ByteHandler accepts the raw request bytes a guest staged and returns the
// raw response body. This is the common interface a wasm runtime can use.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// HostFunc is a host function taking a decoded envelope.
type HostFunc[Req any] func(context.Context, Req) ([]byte, error)

// NewEnvelopeHandler wraps a typed HostFunc into a ByteHandler.
// Payloads that do not decode into Req fail with status.Deserialize.
//
// Usage:
//
//	handler := hostfuncs.NewEnvelopeHandler(envelope.CBOR,
//	    func(ctx context.Context, req envelope.SendString) ([]byte, error) {
//	        return []byte(strings.ToUpper(req.Data)), nil
//	    })
func NewEnvelopeHandler[Req any](codec envelope.Codec, fn HostFunc[Req]) ByteHandler {
	if codec == nil {
		codec = envelope.Default()
	}
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if err := codec.Unmarshal(payload, &req); err != nil {
			return nil, status.Wrap(status.Deserialize, err)
		}
		return fn(ctx, req)
	}
}
