package hostfuncs

import (
	"context"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/hostcall"
)

// HostFuncBundle is a pre-configured set of related host functions.
// Bundles allow registering multiple handlers at once.
type HostFuncBundle interface {
	// Handlers returns handler names mapped to handlers decoding with codec.
	Handlers(codec envelope.Codec) map[string]ByteHandler
}

// BundleFunc adapts a function to HostFuncBundle.
type BundleFunc func(codec envelope.Codec) map[string]ByteHandler

// Handlers implements HostFuncBundle.
func (f BundleFunc) Handlers(codec envelope.Codec) map[string]ByteHandler {
	return f(codec)
}

// HTTPBundle returns the reference implementation of the five HTTP
// capabilities, keyed by their import names. Unless WithHTTPClient is given,
// all five share one client built from opts.
func HTTPBundle(opts ...HTTPOption) HostFuncBundle {
	opts = sharedClientOptions(opts...)
	return BundleFunc(func(codec envelope.Codec) map[string]ByteHandler {
		perform := func(ctx context.Context, req HTTPRequest) ([]byte, error) {
			return PerformHTTPRequest(ctx, req, opts...)
		}
		return map[string]ByteHandler{
			hostcall.CallRequest.ImportName(): NewEnvelopeHandler(codec,
				func(ctx context.Context, req envelope.RequestData) ([]byte, error) {
					return perform(ctx, NewHTTPRequest(req))
				}),
			hostcall.SendBytes.ImportName(): NewEnvelopeHandler(codec,
				func(ctx context.Context, req envelope.SendBytes) ([]byte, error) {
					return perform(ctx, NewHTTPRequest(req.Request).WithBody(req.Data, "application/octet-stream"))
				}),
			hostcall.SendString.ImportName(): NewEnvelopeHandler(codec,
				func(ctx context.Context, req envelope.SendString) ([]byte, error) {
					return perform(ctx, NewHTTPRequest(req.Request).WithBody([]byte(req.Data), "text/plain; charset=utf-8"))
				}),
			hostcall.SendForm.ImportName(): NewEnvelopeHandler(codec,
				func(ctx context.Context, req envelope.SendForm) ([]byte, error) {
					return perform(ctx, NewHTTPRequest(req.Request).WithBody(EncodeForm(req.Data), "application/x-www-form-urlencoded"))
				}),
			hostcall.SendJSON.ImportName(): NewEnvelopeHandler(codec,
				func(ctx context.Context, req envelope.SendJSON) ([]byte, error) {
					return perform(ctx, NewHTTPRequest(req.Request).WithBody([]byte(req.Data), "application/json"))
				}),
		}
	})
}

// compositeBundle combines multiple bundles into one.
type compositeBundle struct {
	bundles []HostFuncBundle
}

func (b *compositeBundle) Handlers(codec envelope.Codec) map[string]ByteHandler {
	result := make(map[string]ByteHandler)
	for _, bundle := range b.bundles {
		for name, handler := range bundle.Handlers(codec) {
			result[name] = handler
		}
	}
	return result
}

// Bundles combines bundles. Later bundles override earlier ones on name clashes.
func Bundles(bundles ...HostFuncBundle) HostFuncBundle {
	return &compositeBundle{bundles: bundles}
}

// WithBundle registers all handlers from a bundle, decoding with the
// registry codec.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		b.typed = append(b.typed, func(b *registryBuilder) {
			for name, handler := range bundle.Handlers(b.codec) {
				if err := b.addHandler(name, handler); err != nil {
					b.errors = append(b.errors, err)
				}
			}
		})
	}
}
