package hostfuncs

import (
	"context"
)

// HostContext wraps a standard context.Context with host function-specific helpers.
// It gives middleware the invoked function name and request id, and lets it
// store request-scoped values without growing the context chain.
type HostContext interface {
	context.Context

	// FunctionName returns the name of the host function being invoked.
	FunctionName() string

	// RequestID returns the id of the guest invocation this call belongs
	// to, or "" when none was attached.
	RequestID() string

	// SetValue stores a request-scoped value. Unlike context.WithValue,
	// this mutates the existing HostContext.
	SetValue(key, value any)

	// GetValue retrieves a request-scoped value set by SetValue.
	GetValue(key any) (value any, ok bool)
}

type requestIDKey struct{}

// WithRequestID attaches an invocation id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the invocation id attached to ctx.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type hostContext struct {
	context.Context
	values   map[any]any
	funcName string
}

// NewHostContext creates a new HostContext wrapping the given context.
func NewHostContext(ctx context.Context, funcName string) HostContext {
	return &hostContext{
		Context:  ctx,
		funcName: funcName,
		values:   make(map[any]any),
	}
}

func (c *hostContext) FunctionName() string {
	return c.funcName
}

func (c *hostContext) RequestID() string {
	return RequestIDFrom(c.Context)
}

func (c *hostContext) SetValue(key, value any) {
	c.values[key] = value
}

func (c *hostContext) GetValue(key any) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// HostContextFrom returns ctx if it already is a HostContext for funcName,
// and wraps it otherwise.
func HostContextFrom(ctx context.Context, funcName string) HostContext {
	if hc, ok := ctx.(HostContext); ok && hc.FunctionName() == funcName {
		return hc
	}
	return NewHostContext(ctx, funcName)
}
