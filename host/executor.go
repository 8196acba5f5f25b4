package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/hostfuncs"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// ErrExportNotFound is returned when a guest lacks the requested entry point.
var ErrExportNotFound = errors.New("export not found")

// Executor manages the lifecycle of guest modules.
type Executor struct {
	runtime          wazero.Runtime
	registry         *hostfuncs.HandlerRegistry
	logger           *slog.Logger
	codec            envelope.Codec
	adapterOpts      []AdapterOption
	memoryLimitPages uint32
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{
		logger: slog.Default(),
		codec:  envelope.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.registry == nil {
		reg, err := hostfuncs.NewRegistry(
			hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
			hostfuncs.WithBundle(hostfuncs.HTTPBundle()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create default registry: %w", err)
		}
		e.registry = reg
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if e.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(e.memoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	if err := RegisterWithRuntime(ctx, rt, e.registry, e.adapterOptions()...); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// adapterOptions puts the executor's logger and codec ahead of explicit
// adapter options, so guest logs are decoded with the executor codec unless
// WithLogCodec overrides it.
func (e *Executor) adapterOptions() []AdapterOption {
	return append([]AdapterOption{WithAdapterLogger(e.logger), WithLogCodec(e.codec)}, e.adapterOpts...)
}

// Close releases resources held by the executor and its instances.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Instance is an instantiated guest module.
type Instance struct {
	module api.Module
	logger *slog.Logger
	codec  envelope.Codec
}

// LoadModule compiles and instantiates a guest module. Reactor modules
// built with -buildmode=c-shared are initialized through _initialize.
func (e *Executor) LoadModule(ctx context.Context, wasmBytes []byte) (*Instance, error) {
	cfg := wazero.NewModuleConfig().
		WithStartFunctions(). // reactors export _initialize instead of _start
		WithName("")
	mod, err := e.runtime.InstantiateWithConfig(ctx, wasmBytes, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	return &Instance{module: mod, logger: e.logger, codec: e.codec}, nil
}

// Exports lists the entry points a guest exposes with the (i32) -> i32
// signature, excluding the allocator.
func (i *Instance) Exports() []string {
	var names []string
	for name, def := range i.module.ExportedFunctionDefinitions() {
		if name == AllocateExport || name == DeallocateExport {
			continue
		}
		params, results := def.ParamTypes(), def.ResultTypes()
		if len(params) == 1 && params[0] == api.ValueTypeI32 &&
			len(results) == 1 && results[0] == api.ValueTypeI32 {
			names = append(names, name)
		}
	}
	return names
}

// Invoke calls entry point name with encoded input and returns the encoded
// output. Each invocation gets a fresh request id, visible to host functions
// through hostfuncs.RequestIDFrom.
func (i *Instance) Invoke(ctx context.Context, name string, input []byte) ([]byte, error) {
	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrExportNotFound, name)
	}

	requestID := uuid.NewString()
	ctx = hostfuncs.WithRequestID(ctx, requestID)
	logger := i.logger.With("request_id", requestID, "export", name)

	alloc, err := NewGuestAllocator(ctx, i.module)
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "invoking guest", "input_len", len(input))
	out, err := Invoke(i.module.Memory(), alloc, input, func(ptr uint32) (uint32, error) {
		results, err := fn.Call(ctx, uint64(ptr))
		if err != nil {
			return 0, fmt.Errorf("guest %q trapped: %w", name, err)
		}
		return api.DecodeU32(results[0]), nil
	})
	if err != nil {
		logger.WarnContext(ctx, "guest invocation failed", "error", err)
		return nil, err
	}
	logger.DebugContext(ctx, "guest returned", "output_len", len(out))
	return out, nil
}

// Close releases the instance.
func (i *Instance) Close(ctx context.Context) error {
	return i.module.Close(ctx)
}

// Call encodes in, invokes entry point name, and decodes its output.
func Call[Out, In any](ctx context.Context, inst *Instance, name string, in In) (Out, error) {
	var zero Out
	input, err := inst.codec.Marshal(in)
	if err != nil {
		return zero, err
	}
	output, err := inst.Invoke(ctx, name, input)
	if err != nil {
		return zero, err
	}
	return envelope.Decode[Out](inst.codec, output)
}
