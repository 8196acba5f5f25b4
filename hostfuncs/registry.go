package hostfuncs

import (
	"context"
	"fmt"
	"sort"

	"github.com/space-operator/space-go/envelope"
)

// HandlerRegistry is an immutable collection of named host functions.
// Once created via NewRegistry, handlers cannot be added or removed,
// so lookups during execution need no locking.
type HandlerRegistry struct {
	handlers map[string]ByteHandler
	codec    envelope.Codec
	names    []string // sorted for consistent iteration
}

type registryBuilder struct {
	handlers   map[string]ByteHandler
	codec      envelope.Codec
	typed      []func(*registryBuilder)
	middleware []Middleware
	errors     []error
}

// NewRegistry creates an immutable HandlerRegistry with the given options.
// Returns an error if any handler name is registered twice.
//
// Example usage:
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware()),
//	    WithBundle(HTTPBundle()),
//	    WithHandler("custom", customHandler),
//	)
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{
		handlers: make(map[string]ByteHandler),
		codec:    envelope.Default(),
	}

	for _, opt := range opts {
		opt(b)
	}
	// Typed handlers decode with the final codec, wherever WithCodec appeared.
	for _, add := range b.typed {
		add(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	wrappedHandlers := make(map[string]ByteHandler, len(b.handlers))
	for name, handler := range b.handlers {
		wrapped := handler
		// Apply in reverse so the first middleware wraps outermost.
		for i := len(b.middleware) - 1; i >= 0; i-- {
			wrapped = b.middleware[i](wrapped)
		}
		wrappedHandlers[name] = wrapped
	}

	return &HandlerRegistry{
		handlers: wrappedHandlers,
		codec:    b.codec,
		names:    names,
	}, nil
}

// Invoke dispatches a host function call by name.
// Unknown names fail with an error reported as status.CallFailed.
func (r *HandlerRegistry) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return nil, NewNotFoundError(name)
	}

	hctx := HostContextFrom(ctx, name)
	return handler(hctx, payload)
}

// Has returns true if a handler with the given name is registered.
func (r *HandlerRegistry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns a sorted list of all registered handler names.
func (r *HandlerRegistry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

// Codec returns the envelope codec typed handlers decode with.
func (r *HandlerRegistry) Codec() envelope.Codec {
	return r.codec
}

func (b *registryBuilder) addHandler(name string, handler ByteHandler) error {
	if name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler %q is nil", name)
	}
	if _, exists := b.handlers[name]; exists {
		return fmt.Errorf("duplicate handler name: %q", name)
	}
	b.handlers[name] = handler
	return nil
}

// WithByteHandler registers a raw ByteHandler with the given name.
func WithByteHandler(name string, handler ByteHandler) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addHandler(name, handler); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithHandler registers a typed host function. Its payload is decoded with
// the registry codec.
//
// Example usage:
//
//	WithHandler("http_send_string", func(ctx context.Context, req envelope.SendString) ([]byte, error) {
//	    return []byte(req.Data), nil
//	})
func WithHandler[Req any](name string, fn HostFunc[Req]) RegistryOption {
	return func(b *registryBuilder) {
		b.typed = append(b.typed, func(b *registryBuilder) {
			if err := b.addHandler(name, NewEnvelopeHandler(b.codec, fn)); err != nil {
				b.errors = append(b.errors, err)
			}
		})
	}
}

// WithCodec sets the codec typed handlers and bundles decode with.
// The guest must encode with the same codec.
func WithCodec(codec envelope.Codec) RegistryOption {
	return func(b *registryBuilder) {
		if codec != nil {
			b.codec = codec
		}
	}
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
