package hostfuncs

import (
	"context"
	"log/slog"
	"time"

	"github.com/space-operator/space-go/status"
)

// Middleware wraps a ByteHandler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next ByteHandler) ByteHandler

// RegistryOption is a functional option for configuring a HandlerRegistry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware catches handler panics and reports them to the
// guest as status.CallFailed instead of crashing the host.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = nil
					err = NewPanicError(r)
				}
			}()
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware logs every host function invocation with its outcome.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			funcName := "unknown"
			requestID := RequestIDFrom(ctx)
			if hc, ok := ctx.(HostContext); ok {
				funcName = hc.FunctionName()
			}

			start := time.Now()
			resp, err := next(ctx, payload)
			attrs := []any{
				"function", funcName,
				"request_id", requestID,
				"request_len", len(payload),
				"duration", time.Since(start),
			}
			if err != nil {
				logger.WarnContext(ctx, "host function failed",
					append(attrs, "kind", status.KindOf(err).String(), "error", err)...)
				return nil, err
			}
			logger.DebugContext(ctx, "host function completed", append(attrs, "response_len", len(resp))...)
			return resp, nil
		}
	}
}

// RequestLimitMiddleware rejects payloads larger than limit bytes with
// status.ReadBytes before they reach the handler.
func RequestLimitMiddleware(limit int) Middleware {
	if limit <= 0 {
		limit = DefaultMaxRequestSize
	}
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			if len(payload) > limit {
				return nil, status.Wrap(status.ReadBytes, &LimitError{Size: len(payload), Limit: limit})
			}
			return next(ctx, payload)
		}
	}
}
