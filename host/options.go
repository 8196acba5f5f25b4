package host

import (
	"log/slog"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/hostfuncs"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithHostFunctions configures the executor with a host function registry.
func WithHostFunctions(registry *hostfuncs.HandlerRegistry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithLogger sets the logger for executor diagnostics and guest logs.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCodec sets the codec Call encodes entry-point inputs and decodes
// outputs with.
func WithCodec(codec envelope.Codec) Option {
	return func(e *Executor) {
		if codec != nil {
			e.codec = codec
		}
	}
}

// WithAdapterOptions passes options to RegisterWithRuntime.
func WithAdapterOptions(opts ...AdapterOption) Option {
	return func(e *Executor) {
		e.adapterOpts = append(e.adapterOpts, opts...)
	}
}

// WithMemoryLimitPages caps guest memory at n 64 KiB pages.
func WithMemoryLimitPages(n uint32) Option {
	return func(e *Executor) {
		e.memoryLimitPages = n
	}
}
