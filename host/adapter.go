package host

import (
	"context"
	"log/slog"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/hostcall"
	"github.com/space-operator/space-go/hostfuncs"
	guestlog "github.com/space-operator/space-go/log"
	"github.com/space-operator/space-go/status"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// LogMessageImport is the import guests send log records through.
const LogMessageImport = "log_message"

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// Logger receives guest log records and call diagnostics.
	Logger *slog.Logger

	// LogCodec decodes guest log records (default: CBOR).
	LogCodec envelope.Codec

	// ModuleName is the host module name (default: "env").
	ModuleName string

	// CustomHandlers are additional functions that do not follow the
	// (ptr, len) -> status pattern.
	CustomHandlers []CustomHandler

	// MaxRequestSize limits the size of requests read from guest memory.
	MaxRequestSize uint32
}

// CustomHandler is a raw wazero host function.
type CustomHandler struct {
	Handler     api.GoModuleFunc
	Name        string
	ParamTypes  []api.ValueType
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		if name != "" {
			c.ModuleName = name
		}
	}
}

// WithMaxRequestSize sets the maximum request size read from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		if size > 0 {
			c.MaxRequestSize = size
		}
	}
}

// WithAdapterLogger sets the logger guest records are re-emitted on.
func WithAdapterLogger(l *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithLogCodec sets the codec guest log records are decoded with.
func WithLogCodec(codec envelope.Codec) AdapterOption {
	return func(c *AdapterConfig) {
		if codec != nil {
			c.LogCodec = codec
		}
	}
}

// WithCustomHandler adds a raw wazero host function.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Logger:         slog.Default(),
		LogCodec:       envelope.CBOR,
		ModuleName:     hostcall.ImportModule,
		MaxRequestSize: hostfuncs.DefaultMaxRequestSize,
	}
}

var callSignature = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}

// RegisterWithRuntime exports every handler of registry, plus log_message,
// from a host module instantiated in runtime.
//
// Each handler is exported as (i32 ptr, i32 len) -> i64 and wrapped to:
//   - reject requests above the size limit with status.ReadBytes
//   - read the request from guest memory
//   - invoke the handler
//   - hand the body and its triple to the guest via its "allocate" export
//   - return the status word carrying the triple offset
//
// Example:
//
//	registry, _ := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.HTTPBundle()),
//	)
//	err := host.RegisterWithRuntime(ctx, runtime, registry)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	for _, name := range registry.Names() {
		funcName := name
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				stack[0] = handleRegistryCall(ctx, mod, stack, registry, funcName, cfg)
			}), callSignature, []api.ValueType{api.ValueTypeI64}).
			Export(funcName)
	}

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			ptr, length := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
			payload, ok := mod.Memory().Read(ptr, length)
			if !ok {
				cfg.Logger.WarnContext(ctx, "host: log record outside guest memory", "ptr", ptr, "len", length)
				return
			}
			EmitGuestLog(ctx, cfg.Logger, cfg.LogCodec, payload)
		}), callSignature, nil).
		Export(LogMessageImport)

	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	_, err := builder.Instantiate(ctx)
	return err
}

func handleRegistryCall(ctx context.Context, mod api.Module, stack []uint64, registry *hostfuncs.HandlerRegistry, name string, cfg AdapterConfig) uint64 {
	ptr, length := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])

	if length > cfg.MaxRequestSize {
		cfg.Logger.ErrorContext(ctx, "host: request exceeds size limit",
			"function", name, "len", length, "limit", cfg.MaxRequestSize)
		return status.Failure(status.ReadBytes)
	}

	alloc, err := NewGuestAllocator(ctx, mod)
	if err != nil {
		cfg.Logger.ErrorContext(ctx, "host: guest cannot receive results", "function", name, "error", err)
		return status.Failure(status.AccessMemory)
	}

	return ServeCall(ctx, mod.Memory(), alloc, ptr, length, func(ctx context.Context, payload []byte) ([]byte, error) {
		return registry.Invoke(ctx, name, payload)
	})
}

// EmitGuestLog decodes a guest log record and re-emits it on logger.
// Records that do not decode are logged raw.
func EmitGuestLog(ctx context.Context, logger *slog.Logger, codec envelope.Codec, payload []byte) {
	msg, err := guestlog.Decode(codec, payload)
	if err != nil {
		logger.WarnContext(ctx, "guest log (undecodable)", "len", len(payload), "error", err)
		return
	}
	attrs := append([]any{"request_id", hostfuncs.RequestIDFrom(ctx)}, msg.SlogAttrs()...)
	logger.Log(ctx, guestlog.ParseLevel(msg.Level), msg.Message, attrs...)
}
