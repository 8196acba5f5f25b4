// Package log provides structured logging (slog) for code running inside a
// guest module. Records are serialized and handed to the host's log_message
// import, which re-emits them through the host's own logger.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/space-operator/space-go/envelope"
)

// Sink receives one serialized log record.
type Sink func(payload []byte)

// WasmLogHandler implements slog.Handler to route logs through a host function.
type WasmLogHandler struct {
	opts   handlerConfig
	attrs  []LogAttrWire
	groups []string
}

// HandlerOption configures the WasmLogHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	sink      Sink
	codec     envelope.Codec
	level     slog.Level
	addSource bool
}

func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		codec: envelope.CBOR,
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
// Records below this level are filtered on the guest side.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file:line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithCodec sets the codec records are serialized with. It must match the
// codec the host decodes log records with.
func WithCodec(codec envelope.Codec) HandlerOption {
	return func(c *handlerConfig) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithSink replaces the destination of serialized records.
func WithSink(sink Sink) HandlerOption {
	return func(c *handlerConfig) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// NewHandler creates a new WasmLogHandler with the given options.
func NewHandler(opts ...HandlerOption) *WasmLogHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sink == nil {
		cfg.sink = hostSink(cfg.codec)
	}
	return &WasmLogHandler{opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *WasmLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level
}

// Handle serializes a record and passes it to the sink.
func (h *WasmLogHandler) Handle(_ context.Context, record slog.Record) error {
	msg := LogMessageWire{
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}
	msg.Attrs = append(msg.Attrs, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		msg.Attrs = appendAttr(msg.Attrs, h.groups, attr)
		return true
	})

	if h.opts.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		frame, _ := frames.Next()
		msg.Source = fmt.Sprintf("%s:%d", frame.File, frame.Line)
	}

	payload, err := Encode(h.opts.codec, msg)
	if err != nil {
		// Logging must never fail the caller.
		fmt.Fprintf(os.Stderr, "log: failed to encode record for host: %v, original: %s\n", err, record.Message)
		return nil
	}

	h.opts.sink(payload)
	return nil
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *WasmLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, attr := range attrs {
		next.attrs = appendAttr(next.attrs, h.groups, attr)
	}
	return next
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *WasmLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.groups = append(next.groups, name)
	return next
}

func (h *WasmLogHandler) clone() *WasmLogHandler {
	return &WasmLogHandler{
		opts:   h.opts,
		attrs:  append([]LogAttrWire(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}
