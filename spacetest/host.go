// Package spacetest runs guest-side code against an in-memory host.
//
// A Host owns a simulated linear memory and dispatches capability calls to
// handlers the test registers, so hostcall clients, facades and export entry
// points can be exercised natively without a wasm runtime.
package spacetest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/export"
	"github.com/space-operator/space-go/host"
	"github.com/space-operator/space-go/hostcall"
	"github.com/space-operator/space-go/hostfuncs"
	"github.com/space-operator/space-go/internal/abi"
)

// RawFunc answers a call by producing the status word itself. It receives
// the request payload and full access to guest memory.
type RawFunc func(mem abi.Memory, alloc abi.Allocator, payload []byte) uint64

// Call is one recorded capability call.
type Call struct {
	Capability hostcall.Capability
	Payload    []byte
	Status     uint64
}

// Host is an in-memory host. It implements hostcall.Host.
type Host struct {
	arena    *abi.Arena
	codec    envelope.Codec
	registry *hostfuncs.HandlerRegistry
	raw      map[hostcall.Capability]RawFunc
	logger   *slog.Logger

	mu    sync.Mutex
	calls []Call
}

type config struct {
	size     uint32
	limit    uint32
	codec    envelope.Codec
	raw      map[hostcall.Capability]RawFunc
	registry []hostfuncs.RegistryOption
	logger   *slog.Logger
}

// Option configures a Host.
type Option func(*config)

// WithMemorySize sets the initial and maximum size of the simulated memory.
func WithMemorySize(size, limit uint32) Option {
	return func(c *config) {
		c.size = size
		c.limit = limit
	}
}

// WithCodec sets the envelope codec shared by host and clients.
func WithCodec(codec envelope.Codec) Option {
	return func(c *config) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithHandler answers a capability with a byte handler.
func WithHandler(capability hostcall.Capability, handler hostfuncs.ByteHandler) Option {
	return func(c *config) {
		c.registry = append(c.registry, hostfuncs.WithByteHandler(capability.ImportName(), handler))
	}
}

// WithTypedHandler answers a capability with a handler that receives the
// decoded envelope.
func WithTypedHandler[Req any](capability hostcall.Capability, fn hostfuncs.HostFunc[Req]) Option {
	return func(c *config) {
		c.registry = append(c.registry, hostfuncs.WithHandler(capability.ImportName(), fn))
	}
}

// WithRegistryOptions passes options through to the host function registry,
// for example hostfuncs.WithBundle(hostfuncs.HTTPBundle()).
func WithRegistryOptions(opts ...hostfuncs.RegistryOption) Option {
	return func(c *config) {
		c.registry = append(c.registry, opts...)
	}
}

// WithRaw answers a capability with a RawFunc. It takes precedence over any
// registered handler.
func WithRaw(capability hostcall.Capability, fn RawFunc) Option {
	return func(c *config) {
		c.raw[capability] = fn
	}
}

// WithLogger sets the logger used by the host and by clients it creates.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Host. It fails if the handler registry cannot be built.
func New(opts ...Option) (*Host, error) {
	cfg := &config{
		size:   64 * 1024,
		limit:  abi.DefaultArenaLimit,
		codec:  envelope.Default(),
		raw:    make(map[hostcall.Capability]RawFunc),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	registryOpts := append([]hostfuncs.RegistryOption{
		hostfuncs.WithCodec(cfg.codec),
		hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
	}, cfg.registry...)
	registry, err := hostfuncs.NewRegistry(registryOpts...)
	if err != nil {
		return nil, fmt.Errorf("spacetest: build registry: %w", err)
	}

	return &Host{
		arena:    abi.NewArena(cfg.size, cfg.limit),
		codec:    cfg.codec,
		registry: registry,
		raw:      cfg.raw,
		logger:   cfg.logger,
	}, nil
}

// Call implements hostcall.Host.
func (h *Host) Call(c hostcall.Capability, ptr, length uint32) uint64 {
	var payload []byte
	if raw, ok := h.arena.Read(ptr, length); ok {
		payload = append([]byte{}, raw...)
	}

	var word uint64
	if fn, ok := h.raw[c]; ok {
		word = fn(h.arena, h.arena, payload)
	} else {
		name := c.ImportName()
		word = host.ServeCall(context.Background(), h.arena, h.arena, ptr, length,
			func(ctx context.Context, request []byte) ([]byte, error) {
				return h.registry.Invoke(ctx, name, request)
			})
	}

	h.mu.Lock()
	h.calls = append(h.calls, Call{Capability: c, Payload: payload, Status: word})
	h.mu.Unlock()
	return word
}

// Client returns a hostcall client wired to this host and its memory.
func (h *Host) Client(opts ...hostcall.Option) *hostcall.Client {
	base := []hostcall.Option{
		hostcall.WithHost(h),
		hostcall.WithMemory(h.arena, h.arena),
		hostcall.WithCodec(h.codec),
		hostcall.WithLogger(h.logger),
	}
	return hostcall.New(append(base, opts...)...)
}

// Env returns an export environment over this host's memory.
func (h *Host) Env() export.Env {
	return export.Env{Memory: h.arena, Allocator: h.arena, Codec: h.codec}
}

// Invoke calls an entry point the way a runtime would: input is written as a
// length-prefixed buffer, and the output descriptor is consumed and freed.
func (h *Host) Invoke(input []byte, entry func(ptr uint32) uint32) ([]byte, error) {
	return host.Invoke(h.arena, h.arena, input, func(ptr uint32) (uint32, error) {
		return entry(ptr), nil
	})
}

// Memory returns the simulated memory.
func (h *Host) Memory() *abi.Arena {
	return h.arena
}

// Codec returns the envelope codec.
func (h *Host) Codec() envelope.Codec {
	return h.codec
}

// Calls returns the recorded calls in order.
func (h *Host) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Call(nil), h.calls...)
}

// Reset forgets recorded calls.
func (h *Host) Reset() {
	h.mu.Lock()
	h.calls = nil
	h.mu.Unlock()
}
